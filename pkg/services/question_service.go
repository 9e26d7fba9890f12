package services

import (
	"math/rand"
	"strings"

	"github.com/backsoul/devops-quiz/pkg/apperr"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/backsoul/devops-quiz/pkg/repository"
)

// QuestionService selecciona y entrega preguntas sin la respuesta correcta
type QuestionService struct {
	repo *repository.Repository
	intn func(n int) int
}

// NewQuestionService crea una nueva instancia del servicio
func NewQuestionService(repo *repository.Repository) *QuestionService {
	return NewQuestionServiceWithRand(repo, rand.Intn)
}

// NewQuestionServiceWithRand permite inyectar la fuente aleatoria.
// intn debe devolver un entero uniforme en [0, n) y ser seguro entre goroutines.
func NewQuestionServiceWithRand(repo *repository.Repository, intn func(n int) int) *QuestionService {
	return &QuestionService{repo: repo, intn: intn}
}

// ListCategories devuelve las categorías distintas en orden de aparición
func (s *QuestionService) ListCategories() []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, q := range s.repo.All() {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		categories = append(categories, q.Category)
	}
	return categories
}

// SelectQuestions filtra por categoría (sin distinguir mayúsculas), baraja y
// limita. category y limit son opcionales (nil).
func (s *QuestionService) SelectQuestions(category *string, limit *int) ([]models.PublicQuestion, error) {
	if limit != nil && *limit <= 0 {
		return nil, apperr.Validation("limit must be a positive integer")
	}

	filtered := s.repo.All()
	if category != nil {
		matched := filtered[:0]
		for _, q := range filtered {
			if strings.EqualFold(q.Category, *category) {
				matched = append(matched, q)
			}
		}
		filtered = matched
	}

	s.shuffle(filtered)

	if limit != nil && *limit < len(filtered) {
		filtered = filtered[:*limit]
	}

	// la explicación se revela al calificar, no en el listado
	out := make([]models.PublicQuestion, len(filtered))
	for i, q := range filtered {
		out[i] = q.Public()
		out[i].Explanation = ""
	}
	return out, nil
}

// GetQuestion obtiene una pregunta específica por ID, sin la respuesta
func (s *QuestionService) GetQuestion(id int) (models.PublicQuestion, error) {
	q, ok := s.repo.Get(id)
	if !ok {
		return models.PublicQuestion{}, apperr.NotFound("Question not found")
	}
	return q.Public(), nil
}

// shuffle Fisher-Yates en el lugar
func (s *QuestionService) shuffle(questions []models.Question) {
	for i := len(questions) - 1; i > 0; i-- {
		j := s.intn(i + 1)
		questions[i], questions[j] = questions[j], questions[i]
	}
}
