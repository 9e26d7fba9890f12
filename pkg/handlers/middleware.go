package handlers

import (
	"strings"
	"time"

	"github.com/backsoul/devops-quiz/pkg/logger"
	"github.com/backsoul/devops-quiz/pkg/metrics"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// Middleware envuelve un handler de fasthttp
type Middleware func(next fasthttp.RequestHandler) fasthttp.RequestHandler

// Chain aplica los middlewares en orden: el primero es el más externo
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func requestID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue(requestIDKey).(string)
	return id
}

// RequestID reutiliza X-Request-ID del cliente o genera uno nuevo
func RequestID() Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			id := strings.TrimSpace(string(ctx.Request.Header.Peek(requestIDHeader)))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			ctx.SetUserValue(requestIDKey, id)
			ctx.Response.Header.Set(requestIDHeader, id)
			next(ctx)
		}
	}
}

// AccessLog una línea por petición
func AccessLog(log *logger.Logger) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			log.Info("request",
				"method", string(ctx.Method()),
				"path", string(ctx.Path()),
				"status", ctx.Response.StatusCode(),
				"duration", time.Since(start),
				"request_id", requestID(ctx),
			)
		}
	}
}

// Metrics registra conteo y duración por ruta normalizada
func Metrics(m *metrics.Metrics) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			m.ObserveRequest(string(ctx.Method()), routeLabel(string(ctx.Path())), ctx.Response.StatusCode(), time.Since(start))
		}
	}
}

// CORS headers para desarrollo; responde los preflight directamente
func CORS() Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			ctx.Response.Header.Set("Cache-Control", "no-cache")
			ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
			ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

			if ctx.IsOptions() {
				ctx.SetStatusCode(fasthttp.StatusOK)
				return
			}
			next(ctx)
		}
	}
}

// RateLimit limita las peticiones POST con un token bucket global.
// rps <= 0 lo desactiva.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			if ctx.IsPost() && !limiter.Allow() {
				respondWithJSON(ctx, fasthttp.StatusTooManyRequests, models.ErrorResponse{Error: "too many requests"})
				return
			}
			next(ctx)
		}
	}
}

// routeLabel evita etiquetas de alta cardinalidad en métricas
func routeLabel(path string) string {
	switch path {
	case "/health", "/api/health", "/metrics",
		"/api/quiz/categories", "/api/quiz/questions",
		"/api/quiz/submit", "/api/quiz/submit-quiz", "/api/quiz/stats":
		return path
	}
	if strings.HasPrefix(path, questionsPrefix) {
		return questionsPrefix + ":id"
	}
	if strings.HasPrefix(path, "/api/") {
		return "unmatched"
	}
	return "static"
}
