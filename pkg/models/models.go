package models

import (
	"encoding/json"
	"strconv"
)

// Question estructura para representar una pregunta del quiz
type Question struct {
	ID            int      `json:"id"`
	Category      string   `json:"category"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Public devuelve la vista de la pregunta sin la respuesta correcta
func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:          q.ID,
		Category:    q.Category,
		Question:    q.Question,
		Options:     options,
		Explanation: q.Explanation,
	}
}

// PublicQuestion es lo que se envía al cliente antes de responder.
// No tiene campo para la respuesta correcta.
type PublicQuestion struct {
	ID          int      `json:"id"`
	Category    string   `json:"category"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}

// QuestionsData estructura para el JSON completo
type QuestionsData struct {
	Questions []Question `json:"questions"`
}

// AnswerSubmission respuesta enviada por el cliente. Los punteros
// distinguen un campo ausente del índice 0. Answer es un entero en forma
// decimal y puede no caber en int; en ese caso nunca es correcto.
type AnswerSubmission struct {
	QuestionID *int         `json:"questionId"`
	Answer     *json.Number `json:"answer"`
}

// AnswerIndex arma un Answer a partir de un índice
func AnswerIndex(i int) *json.Number {
	n := json.Number(strconv.Itoa(i))
	return &n
}

// GradeResult resultado de calificar una sola respuesta
type GradeResult struct {
	Correct       bool    `json:"correct"`
	CorrectAnswer int     `json:"correctAnswer"`
	Explanation   *string `json:"explanation"`
}

// AnswerResult resultado por pregunta dentro de un quiz completo
type AnswerResult struct {
	QuestionID    int          `json:"questionId"`
	Correct       bool         `json:"correct"`
	CorrectAnswer int          `json:"correctAnswer"`
	YourAnswer    *json.Number `json:"yourAnswer"`
}

// QuizResult puntaje de un quiz completo
type QuizResult struct {
	Score      int            `json:"score"`
	Total      int            `json:"total"`
	Percentage int            `json:"percentage"`
	Results    []AnswerResult `json:"results"`
}

// Stats estadísticas del banco de preguntas
type Stats struct {
	TotalQuestions int            `json:"totalQuestions"`
	Categories     map[string]int `json:"categories"`
}

// ErrorResponse cuerpo de las respuestas de error
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse respuesta de GET /health
type HealthResponse struct {
	Status string `json:"status"`
}
