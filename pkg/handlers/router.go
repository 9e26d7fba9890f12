package handlers

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/backsoul/devops-quiz/pkg/logger"
	"github.com/backsoul/devops-quiz/pkg/metrics"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/valyala/fasthttp"
)

const questionsPrefix = "/api/quiz/questions/"

// HealthChecker comprueba una dependencia externa (p.ej. Redis)
type HealthChecker func(ctx context.Context) error

// RouterConfig dependencias del router
type RouterConfig struct {
	Quiz           *QuizHandler
	Metrics        *metrics.Metrics
	Log            *logger.Logger
	StaticDir      string
	Health         HealthChecker
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter arma el handler raíz con enrutamiento y middlewares
func NewRouter(cfg RouterConfig) fasthttp.RequestHandler {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}

	var static fasthttp.RequestHandler
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			fs := &fasthttp.FS{
				Root:       cfg.StaticDir,
				IndexNames: []string{"index.html"},
			}
			static = fs.NewRequestHandler()
		} else {
			cfg.Log.Warn("directorio estático no disponible, UI deshabilitada", "dir", cfg.StaticDir)
		}
	}

	health := healthHandler(cfg.Health)
	metricsHandler := cfg.Metrics.Handler()
	q := cfg.Quiz

	route := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())
		get := ctx.IsGet() || ctx.IsHead()
		post := ctx.IsPost()

		switch {
		case (path == "/health" || path == "/api/health") && get:
			health(ctx)
		case path == "/metrics" && get:
			metricsHandler(ctx)

		case path == "/api/quiz/categories" && get:
			q.GetCategories(ctx)
		case path == "/api/quiz/questions" && get:
			q.GetQuestions(ctx)
		case path == "/api/quiz/submit" && post:
			q.SubmitAnswer(ctx)
		case path == "/api/quiz/submit-quiz" && post:
			q.SubmitQuiz(ctx)
		case path == "/api/quiz/stats" && get:
			q.GetStats(ctx)

		case strings.HasPrefix(path, questionsPrefix) && get:
			id := strings.TrimPrefix(path, questionsPrefix)
			if id == "" || strings.Contains(id, "/") {
				serve404(ctx)
				return
			}
			ctx.SetUserValue("id", id)
			q.GetQuestion(ctx)

		case !strings.HasPrefix(path, "/api/") && get && static != nil:
			static(ctx)

		default:
			serve404(ctx)
		}
	}

	return Chain(route,
		RequestID(),
		AccessLog(cfg.Log),
		Metrics(cfg.Metrics),
		CORS(),
		RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
}

func healthHandler(check HealthChecker) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if check != nil {
			c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := check(c); err != nil {
				respondWithJSON(ctx, fasthttp.StatusServiceUnavailable, models.HealthResponse{Status: "DOWN"})
				return
			}
		}
		respondWithJSON(ctx, fasthttp.StatusOK, models.HealthResponse{Status: "UP"})
	}
}

func serve404(ctx *fasthttp.RequestCtx) {
	respondWithJSON(ctx, fasthttp.StatusNotFound, models.ErrorResponse{Error: "Not found"})
}
