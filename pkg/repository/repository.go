package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/backsoul/devops-quiz/pkg/apperr"
	"github.com/backsoul/devops-quiz/pkg/models"
)

// Repository colección de preguntas de solo lectura. Se construye una vez al
// arrancar y no se modifica después, así que puede leerse en paralelo sin locks.
type Repository struct {
	questions []models.Question
	byID      map[int]int
}

// New valida las preguntas y construye el repositorio.
// Devuelve un ConfigError si alguna invariante no se cumple.
func New(questions []models.Question) (*Repository, error) {
	if err := Validate(questions); err != nil {
		return nil, err
	}

	r := &Repository{
		questions: make([]models.Question, len(questions)),
		byID:      make(map[int]int, len(questions)),
	}
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		r.questions[i] = q
		r.byID[q.ID] = i
	}
	return r, nil
}

// LoadFile lee las preguntas desde un archivo JSON
func LoadFile(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.Config(err, "error leyendo archivo de preguntas %s", path)
	}
	questions, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(questions)
}

// Parse acepta un arreglo de preguntas o el sobre {"questions": [...]}
func Parse(data []byte) ([]models.Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, apperr.Config(nil, "archivo de preguntas vacío")
	}

	if trimmed[0] == '[' {
		var questions []models.Question
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return nil, apperr.Config(err, "error parsing JSON")
		}
		return questions, nil
	}

	var envelope models.QuestionsData
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, apperr.Config(err, "error parsing JSON")
	}
	return envelope.Questions, nil
}

// Validate comprueba las invariantes de carga
func Validate(questions []models.Question) error {
	seen := make(map[int]struct{}, len(questions))
	for i, q := range questions {
		if q.ID <= 0 {
			return apperr.Config(nil, "pregunta %d: id debe ser positivo, got %d", i, q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return apperr.Config(nil, "id de pregunta duplicado: %d", q.ID)
		}
		seen[q.ID] = struct{}{}

		if strings.TrimSpace(q.Category) == "" {
			return apperr.Config(nil, "pregunta %d: falta la categoría", q.ID)
		}
		if len(q.Options) < 2 {
			return apperr.Config(nil, "pregunta %d: se necesitan al menos dos opciones", q.ID)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return apperr.Config(nil, "pregunta %d: correctAnswer %d fuera de rango [0, %d]", q.ID, q.CorrectAnswer, len(q.Options)-1)
		}
	}
	return nil
}

// Get busca una pregunta por ID
func (r *Repository) Get(id int) (models.Question, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.Question{}, false
	}
	return r.questions[i], true
}

// All devuelve una copia de todas las preguntas en orden de carga
func (r *Repository) All() []models.Question {
	out := make([]models.Question, len(r.questions))
	copy(out, r.questions)
	return out
}

// Len número total de preguntas
func (r *Repository) Len() int {
	return len(r.questions)
}

func (r *Repository) String() string {
	return fmt.Sprintf("repository(%d questions)", len(r.questions))
}
