package services

import (
	"encoding/json"
	"strconv"

	"github.com/backsoul/devops-quiz/pkg/apperr"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/backsoul/devops-quiz/pkg/repository"
)

// GradingService califica respuestas sueltas y quizzes completos
type GradingService struct {
	repo *repository.Repository
}

// NewGradingService crea una nueva instancia del servicio de calificación
func NewGradingService(repo *repository.Repository) *GradingService {
	return &GradingService{repo: repo}
}

// isCorrect regla única de corrección. Cualquier entero es válido como
// respuesta; los fuera de rango (incluso fuera de int64) simplemente son
// incorrectos.
func isCorrect(q models.Question, answer json.Number) bool {
	n, err := strconv.ParseInt(answer.String(), 10, 64)
	return err == nil && n == int64(q.CorrectAnswer)
}

// GradeAnswer califica una respuesta y revela la correcta
func (s *GradingService) GradeAnswer(questionID *int, answer *json.Number) (models.GradeResult, error) {
	if questionID == nil || answer == nil {
		return models.GradeResult{}, apperr.Validation("questionId and answer are required")
	}

	q, ok := s.repo.Get(*questionID)
	if !ok {
		return models.GradeResult{}, apperr.NotFound("Question not found")
	}

	result := models.GradeResult{
		Correct:       isCorrect(q, *answer),
		CorrectAnswer: q.CorrectAnswer,
	}
	if q.Explanation != "" {
		explanation := q.Explanation
		result.Explanation = &explanation
	}
	return result, nil
}

// GradeQuiz califica un lote de respuestas. Las preguntas desconocidas se
// omiten de results y score, pero total siempre es len(submissions), así que
// percentage baja cuando hay IDs inválidos.
func (s *GradingService) GradeQuiz(submissions []models.AnswerSubmission) (models.QuizResult, error) {
	if submissions == nil {
		return models.QuizResult{}, apperr.Validation("answers array is required")
	}
	if len(submissions) == 0 {
		return models.QuizResult{}, apperr.Validation("answers array must not be empty")
	}

	score := 0
	results := make([]models.AnswerResult, 0, len(submissions))
	for _, sub := range submissions {
		if sub.QuestionID == nil {
			continue
		}
		q, ok := s.repo.Get(*sub.QuestionID)
		if !ok {
			continue
		}

		correct := sub.Answer != nil && isCorrect(q, *sub.Answer)
		if correct {
			score++
		}
		results = append(results, models.AnswerResult{
			QuestionID:    q.ID,
			Correct:       correct,
			CorrectAnswer: q.CorrectAnswer,
			YourAnswer:    sub.Answer,
		})
	}

	total := len(submissions)
	return models.QuizResult{
		Score:      score,
		Total:      total,
		Percentage: percentage(score, total),
		Results:    results,
	}, nil
}

// percentage round(score/total*100) con .5 hacia arriba, en aritmética entera.
// total debe ser > 0.
func percentage(score, total int) int {
	return (score*200 + total) / (2 * total)
}
