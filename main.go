package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backsoul/devops-quiz/pkg/config"
	"github.com/backsoul/devops-quiz/pkg/handlers"
	"github.com/backsoul/devops-quiz/pkg/logger"
	"github.com/backsoul/devops-quiz/pkg/metrics"
	"github.com/backsoul/devops-quiz/pkg/redis"
	"github.com/backsoul/devops-quiz/pkg/repository"
	"github.com/backsoul/devops-quiz/pkg/services"
	"github.com/valyala/fasthttp"
)

func main() {
	configDir := flag.String("config", ".", "directorio donde buscar config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		// aún no hay logger configurado
		logger.New(logger.Options{}).Fatal("configuración inválida", "error", err)
	}

	log := logger.New(logger.Options{Mode: cfg.Server.Mode, File: cfg.Log.File})
	defer log.Sync()

	log.Info("iniciando servidor de quiz", "addr", cfg.Server.Addr, "source", cfg.Questions.Source)

	// Cargar preguntas al inicio; un banco inválido no debe servir tráfico
	repo, health, cleanup := loadQuestions(cfg, log)
	defer cleanup()
	log.Info("preguntas cargadas", "count", repo.Len())

	m := metrics.New()
	quizHandler := handlers.NewQuizHandler(
		services.NewQuestionService(repo),
		services.NewGradingService(repo),
		services.NewStatsService(repo),
		m,
		log,
	)

	server := &fasthttp.Server{
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Quiz:           quizHandler,
			Metrics:        m,
			Log:            log,
			StaticDir:      cfg.Server.StaticDir,
			Health:         health,
			RateLimitRPS:   cfg.Server.RateLimitRPS,
			RateLimitBurst: cfg.Server.RateLimitBurst,
		}),
		Name:         "quiz-api",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Server.Addr)
	}()
	log.Info("servidor iniciado",
		"api", "http://localhost"+cfg.Server.Addr+"/api/quiz",
		"health", "http://localhost"+cfg.Server.Addr+"/health",
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("error al iniciar el servidor", "error", err)
		}
	case sig := <-stop:
		log.Info("deteniendo servidor", "signal", sig.String())
		if err := server.ShutdownWithContext(context.Background()); err != nil {
			log.Error("error deteniendo servidor", "error", err)
		}
	}
}

// loadQuestions arma el repositorio según questions.source. En modo redis
// mantiene la conexión abierta para el health check.
func loadQuestions(cfg *config.Config, log *logger.Logger) (*repository.Repository, handlers.HealthChecker, func()) {
	if cfg.Questions.Source != config.SourceRedis {
		repo, err := repository.LoadFile(cfg.Questions.File)
		if err != nil {
			log.Fatal("error cargando preguntas", "file", cfg.Questions.File, "error", err)
		}
		return repo, nil, func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := redis.NewQuestionStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		log.Fatal("error conectando a Redis", "error", err)
	}
	repo, err := store.Snapshot(ctx, cfg.Questions.File)
	if err != nil {
		_ = store.Close()
		log.Fatal("error cargando preguntas desde Redis", "error", err)
	}
	return repo, store.HealthCheck, func() { _ = store.Close() }
}
