package handlers

import (
	"encoding/json"

	"github.com/backsoul/devops-quiz/pkg/apperr"
	"github.com/backsoul/devops-quiz/pkg/logger"
	"github.com/backsoul/devops-quiz/pkg/metrics"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/backsoul/devops-quiz/pkg/services"
	"github.com/valyala/fasthttp"
)

// QuizHandler maneja las peticiones HTTP del quiz
type QuizHandler struct {
	questionService *services.QuestionService
	gradingService  *services.GradingService
	statsService    *services.StatsService
	metrics         *metrics.Metrics
	log             *logger.Logger
}

// NewQuizHandler crea una nueva instancia del handler
func NewQuizHandler(
	questionService *services.QuestionService,
	gradingService *services.GradingService,
	statsService *services.StatsService,
	m *metrics.Metrics,
	log *logger.Logger,
) *QuizHandler {
	return &QuizHandler{
		questionService: questionService,
		gradingService:  gradingService,
		statsService:    statsService,
		metrics:         m,
		log:             log,
	}
}

// respondWithJSON envía una respuesta JSON
func respondWithJSON(ctx *fasthttp.RequestCtx, statusCode int, response interface{}) {
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.SetStatusCode(statusCode)

	jsonData, err := json.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(`{"error":"failed to encode response"}`)
		return
	}

	ctx.SetBody(jsonData)
}

// respondWithError traduce el error a su código HTTP
func (h *QuizHandler) respondWithError(ctx *fasthttp.RequestCtx, err error) {
	status := apperr.HTTPStatus(err)
	message := err.Error()
	if status == fasthttp.StatusInternalServerError {
		h.log.Error("error interno", "path", string(ctx.Path()), "request_id", requestID(ctx), "error", err)
		message = "internal server error"
	}
	respondWithJSON(ctx, status, models.ErrorResponse{Error: message})
}

// GetCategories maneja GET /api/quiz/categories
func (h *QuizHandler) GetCategories(ctx *fasthttp.RequestCtx) {
	respondWithJSON(ctx, fasthttp.StatusOK, h.questionService.ListCategories())
}

// GetQuestions maneja GET /api/quiz/questions?category=DevOps&limit=10
func (h *QuizHandler) GetQuestions(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()

	// solo "" cuenta como ausente; " " filtra literalmente y no coincide con nada
	var category *string
	if c := string(args.Peek("category")); c != "" {
		category = &c
	}

	limit, err := parseLimit(string(args.Peek("limit")))
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}

	questions, err := h.questionService.SelectQuestions(category, limit)
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}
	respondWithJSON(ctx, fasthttp.StatusOK, questions)
}

// GetQuestion maneja GET /api/quiz/questions/{id}
func (h *QuizHandler) GetQuestion(ctx *fasthttp.RequestCtx) {
	idStr, _ := ctx.UserValue("id").(string)
	id, err := parsePathID(idStr)
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}

	question, err := h.questionService.GetQuestion(id)
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}
	respondWithJSON(ctx, fasthttp.StatusOK, question)
}

// SubmitAnswer maneja POST /api/quiz/submit
func (h *QuizHandler) SubmitAnswer(ctx *fasthttp.RequestCtx) {
	submission, err := parseSubmission(ctx.PostBody())
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}

	result, err := h.gradingService.GradeAnswer(submission.QuestionID, submission.Answer)
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}

	h.metrics.ObserveAnswer(result.Correct)
	h.log.Debug("respuesta calificada",
		"request_id", requestID(ctx),
		"question_id", *submission.QuestionID,
		"correct", result.Correct,
	)
	respondWithJSON(ctx, fasthttp.StatusOK, result)
}

// SubmitQuiz maneja POST /api/quiz/submit-quiz
func (h *QuizHandler) SubmitQuiz(ctx *fasthttp.RequestCtx) {
	submissions, err := parseQuiz(ctx.PostBody())
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}

	result, err := h.gradingService.GradeQuiz(submissions)
	if err != nil {
		h.respondWithError(ctx, err)
		return
	}

	for _, r := range result.Results {
		h.metrics.ObserveAnswer(r.Correct)
	}
	h.metrics.ObserveQuiz(result.Percentage)
	if skipped := result.Total - len(result.Results); skipped > 0 {
		h.log.Warn("quiz con preguntas desconocidas",
			"request_id", requestID(ctx),
			"total", result.Total,
			"skipped", skipped,
		)
	}
	respondWithJSON(ctx, fasthttp.StatusOK, result)
}

// GetStats maneja GET /api/quiz/stats
func (h *QuizHandler) GetStats(ctx *fasthttp.RequestCtx) {
	respondWithJSON(ctx, fasthttp.StatusOK, h.statsService.ComputeStats())
}
