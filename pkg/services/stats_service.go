package services

import (
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/backsoul/devops-quiz/pkg/repository"
)

// StatsService reporta conteos del banco de preguntas
type StatsService struct {
	repo *repository.Repository
}

func NewStatsService(repo *repository.Repository) *StatsService {
	return &StatsService{repo: repo}
}

// ComputeStats agrupa por categoría exacta. A diferencia del filtro de
// SelectQuestions, aquí "DevOps" y "devops" cuentan por separado.
func (s *StatsService) ComputeStats() models.Stats {
	categories := make(map[string]int)
	for _, q := range s.repo.All() {
		categories[q.Category]++
	}
	return models.Stats{
		TotalQuestions: s.repo.Len(),
		Categories:     categories,
	}
}
