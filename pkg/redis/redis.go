package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/backsoul/devops-quiz/pkg/logger"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/backsoul/devops-quiz/pkg/repository"
	"github.com/redis/go-redis/v9"
)

const (
	questionIDsKey    = "quiz:question_ids"
	questionKeyFormat = "quiz:question:%d"
)

// QuestionStore guarda el banco de preguntas en Redis para que varias
// instancias arranquen con el mismo conjunto
type QuestionStore struct {
	client *redis.Client
	log    *logger.Logger
}

// NewQuestionStore crea el cliente y verifica la conexión
func NewQuestionStore(ctx context.Context, addr, password string, db int, log *logger.Logger) (*QuestionStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("error conectando a Redis en %s: %w", addr, err)
	}

	log.Info("conexión exitosa a Redis", "addr", addr, "db", db)
	return &QuestionStore{client: rdb, log: log}, nil
}

// Seed reemplaza las preguntas guardadas en una sola transacción
func (s *QuestionStore) Seed(ctx context.Context, questions []models.Question) error {
	oldIDs, err := s.client.SMembers(ctx, questionIDsKey).Result()
	if err != nil {
		return fmt.Errorf("error obteniendo IDs existentes: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, idStr := range oldIDs {
			pipe.Del(ctx, "quiz:question:"+idStr)
		}
		pipe.Del(ctx, questionIDsKey)

		ids := make([]interface{}, 0, len(questions))
		for _, q := range questions {
			payload, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("error serializando pregunta %d: %w", q.ID, err)
			}
			pipe.Set(ctx, fmt.Sprintf(questionKeyFormat, q.ID), payload, 0)
			ids = append(ids, q.ID)
		}
		if len(ids) > 0 {
			pipe.SAdd(ctx, questionIDsKey, ids...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error guardando preguntas en Redis: %w", err)
	}

	s.log.Info("preguntas cargadas en Redis", "count", len(questions))
	return nil
}

// LoadAll devuelve todas las preguntas ordenadas por ID
func (s *QuestionStore) LoadAll(ctx context.Context) ([]models.Question, error) {
	idStrs, err := s.client.SMembers(ctx, questionIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("error obteniendo IDs de preguntas: %w", err)
	}
	if len(idStrs) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(idStrs))
	for _, idStr := range idStrs {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("ID de pregunta inválido en Redis: %q", idStr)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fmt.Sprintf(questionKeyFormat, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("error obteniendo preguntas: %w", err)
	}

	questions := make([]models.Question, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("pregunta %d listada pero no encontrada", ids[i])
		}
		var q models.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, fmt.Errorf("error parsing pregunta %d: %w", ids[i], err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// Count número de preguntas guardadas
func (s *QuestionStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, questionIDsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("error obteniendo conteo de preguntas: %w", err)
	}
	return int(n), nil
}

// HealthCheck verifica que Redis esté funcionando
func (s *QuestionStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close cierra la conexión con Redis
func (s *QuestionStore) Close() error {
	return s.client.Close()
}

// Snapshot construye el repositorio en memoria desde Redis. Si Redis aún no
// tiene preguntas, primero lo siembra con el archivo seedFile.
func (s *QuestionStore) Snapshot(ctx context.Context, seedFile string) (*repository.Repository, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		s.log.Info("Redis sin preguntas, sembrando desde archivo", "file", seedFile)
		seed, err := repository.LoadFile(seedFile)
		if err != nil {
			return nil, err
		}
		if err := s.Seed(ctx, seed.All()); err != nil {
			return nil, err
		}
	} else {
		s.log.Info("ya hay preguntas en Redis", "count", count)
	}

	questions, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return repository.New(questions)
}
