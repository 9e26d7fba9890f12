package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backsoul/devops-quiz/pkg/logger"
	"github.com/backsoul/devops-quiz/pkg/metrics"
	"github.com/backsoul/devops-quiz/pkg/models"
	"github.com/backsoul/devops-quiz/pkg/repository"
	"github.com/backsoul/devops-quiz/pkg/services"
	"github.com/valyala/fasthttp"
)

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) fasthttp.RequestHandler {
	t.Helper()
	repo, err := repository.New([]models.Question{
		{ID: 1, Category: "DevOps", Question: "What does CI stand for?", Options: []string{"Continuous Integration", "Code Inspection", "Cloud Instance", "Container Image"}, CorrectAnswer: 0, Explanation: "CI merges work often."},
		{ID: 2, Category: "DevOps", Question: "Which command builds an image?", Options: []string{"docker run", "docker build", "docker ps"}, CorrectAnswer: 1},
		{ID: 3, Category: "Linux", Question: "List files?", Options: []string{"ls", "cd"}, CorrectAnswer: 0},
		{ID: 4, Category: "Cloud", Question: "IaaS example?", Options: []string{"EC2", "Gmail"}, CorrectAnswer: 0},
		{ID: 5, Category: "DevOps", Question: "Blue/green is a ...", Options: []string{"deployment strategy", "color scheme"}, CorrectAnswer: 0},
	})
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	m := metrics.New()
	log := logger.Nop()
	cfg := RouterConfig{
		Quiz: NewQuizHandler(
			services.NewQuestionService(repo),
			services.NewGradingService(repo),
			services.NewStatsService(repo),
			m, log,
		),
		Metrics: m,
		Log:     log,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewRouter(cfg)
}

func do(t *testing.T, h fasthttp.RequestHandler, method, uri, body string) *fasthttp.RequestCtx {
	t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	h(ctx)
	return ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(ctx.Response.Body(), v); err != nil {
		t.Fatalf("decode %q: %v", ctx.Response.Body(), err)
	}
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil)
	ctx := do(t, h, "GET", "/health", "")
	var body models.HealthResponse
	decode(t, ctx, &body)
	if ctx.Response.StatusCode() != 200 || body.Status != "UP" {
		t.Fatalf("status=%d body=%+v", ctx.Response.StatusCode(), body)
	}
	if len(ctx.Response.Header.Peek("X-Request-ID")) == 0 {
		t.Fatalf("missing request id header")
	}

	down := newTestRouter(t, func(c *RouterConfig) {
		c.Health = func(context.Context) error { return errors.New("redis down") }
	})
	ctx = do(t, down, "GET", "/health", "")
	if ctx.Response.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", ctx.Response.StatusCode())
	}
}

func TestGetCategories(t *testing.T) {
	h := newTestRouter(t, nil)
	ctx := do(t, h, "GET", "/api/quiz/categories", "")
	var cats []string
	decode(t, ctx, &cats)
	if strings.Join(cats, ",") != "DevOps,Linux,Cloud" {
		t.Fatalf("categories=%v", cats)
	}
}

func TestGetQuestions(t *testing.T) {
	h := newTestRouter(t, nil)

	ctx := do(t, h, "GET", "/api/quiz/questions?category=devops&limit=2", "")
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status=%d", ctx.Response.StatusCode())
	}
	if strings.Contains(string(ctx.Response.Body()), "correctAnswer") {
		t.Fatalf("correctAnswer leaked: %s", ctx.Response.Body())
	}
	var qs []models.PublicQuestion
	decode(t, ctx, &qs)
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.Category != "DevOps" {
			t.Fatalf("unexpected category %q", q.Category)
		}
	}

	ctx = do(t, h, "GET", "/api/quiz/questions", "")
	decode(t, ctx, &qs)
	if len(qs) != 5 {
		t.Fatalf("expected all 5 questions, got %d", len(qs))
	}

	if strings.Contains(string(ctx.Response.Body()), "explanation") {
		t.Fatalf("explanation leaked in listing: %s", ctx.Response.Body())
	}

	for _, query := range []string{"category=unknown", "category=%20", "category=DevOps%20"} {
		ctx = do(t, h, "GET", "/api/quiz/questions?"+query, "")
		if string(ctx.Response.Body()) != "[]" {
			t.Fatalf("%s: expected empty array, got %s", query, ctx.Response.Body())
		}
	}

	ctx = do(t, h, "GET", "/api/quiz/questions?category=", "")
	decode(t, ctx, &qs)
	if len(qs) != 5 {
		t.Fatalf("empty category should not filter, got %d", len(qs))
	}

	for _, bad := range []string{"abc", "0", "-1", "2.5"} {
		ctx = do(t, h, "GET", "/api/quiz/questions?limit="+bad, "")
		if ctx.Response.StatusCode() != 400 {
			t.Fatalf("limit=%s: expected 400, got %d", bad, ctx.Response.StatusCode())
		}
	}
}

func TestGetQuestionByID(t *testing.T) {
	h := newTestRouter(t, nil)

	ctx := do(t, h, "GET", "/api/quiz/questions/1", "")
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status=%d", ctx.Response.StatusCode())
	}
	var raw map[string]interface{}
	decode(t, ctx, &raw)
	if raw["id"].(float64) != 1 {
		t.Fatalf("unexpected body %v", raw)
	}
	if _, ok := raw["correctAnswer"]; ok {
		t.Fatalf("correctAnswer leaked: %v", raw)
	}
	if raw["explanation"] != "CI merges work often." {
		t.Fatalf("single question should keep its explanation: %v", raw)
	}

	if ctx := do(t, h, "GET", "/api/quiz/questions/9999", ""); ctx.Response.StatusCode() != 404 {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
	if ctx := do(t, h, "GET", "/api/quiz/questions/abc", ""); ctx.Response.StatusCode() != 400 {
		t.Fatalf("expected 400, got %d", ctx.Response.StatusCode())
	}
}

func TestSubmitAnswer(t *testing.T) {
	h := newTestRouter(t, nil)

	cases := []struct {
		name    string
		body    string
		status  int
		correct bool
	}{
		{"right answer", `{"questionId":1,"answer":0}`, 200, true},
		{"wrong answer", `{"questionId":1,"answer":3}`, 200, false},
		{"string id", `{"questionId":"2","answer":1}`, 200, true},
		{"out of range", `{"questionId":1,"answer":42}`, 200, false},
		{"negative", `{"questionId":1,"answer":-1}`, 200, false},
		{"missing answer", `{"questionId":1}`, 400, false},
		{"null answer", `{"questionId":1,"answer":null}`, 400, false},
		{"missing id", `{"answer":0}`, 400, false},
		{"bad id", `{"questionId":"one","answer":0}`, 400, false},
		{"string answer", `{"questionId":1,"answer":"0"}`, 400, false},
		{"integral float", `{"questionId":1,"answer":0.0}`, 200, true},
		{"exponent", `{"questionId":2,"answer":1e0}`, 200, true},
		{"beyond int64", `{"questionId":1,"answer":99999999999999999999}`, 200, false},
		{"huge exponent", `{"questionId":1,"answer":1e999}`, 200, false},
		{"fraction", `{"questionId":1,"answer":0.5}`, 400, false},
		{"tiny fraction", `{"questionId":1,"answer":1e-999}`, 400, false},
		{"bool answer", `{"questionId":1,"answer":true}`, 400, false},
		{"object answer", `{"questionId":1,"answer":{}}`, 400, false},
		{"bad json", `{`, 400, false},
		{"unknown", `{"questionId":9999,"answer":0}`, 404, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := do(t, h, "POST", "/api/quiz/submit", tc.body)
			if ctx.Response.StatusCode() != tc.status {
				t.Fatalf("status=%d want %d body=%s", ctx.Response.StatusCode(), tc.status, ctx.Response.Body())
			}
			if tc.status != 200 {
				var e models.ErrorResponse
				decode(t, ctx, &e)
				if e.Error == "" {
					t.Fatalf("expected error message")
				}
				return
			}
			var res models.GradeResult
			decode(t, ctx, &res)
			if res.Correct != tc.correct {
				t.Fatalf("correct=%v want %v", res.Correct, tc.correct)
			}
		})
	}

	ctx := do(t, h, "POST", "/api/quiz/submit", `{"questionId":2,"answer":0}`)
	if !strings.Contains(string(ctx.Response.Body()), `"explanation":null`) {
		t.Fatalf("expected explicit null explanation, got %s", ctx.Response.Body())
	}
}

func TestSubmitQuiz(t *testing.T) {
	h := newTestRouter(t, nil)

	ctx := do(t, h, "POST", "/api/quiz/submit-quiz", `{"answers":[{"questionId":1,"answer":0},{"questionId":2,"answer":1}]}`)
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status=%d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var res models.QuizResult
	decode(t, ctx, &res)
	if res.Score != 2 || res.Total != 2 || res.Percentage != 100 || len(res.Results) != 2 {
		t.Fatalf("unexpected result %+v", res)
	}

	ctx = do(t, h, "POST", "/api/quiz/submit-quiz", `{"answers":[{"questionId":1,"answer":0},{"questionId":777,"answer":0},"junk"]}`)
	decode(t, ctx, &res)
	if res.Total != 3 || res.Score != 1 || res.Percentage != 33 || len(res.Results) != 1 {
		t.Fatalf("unexpected result with unknown ids %+v", res)
	}

	ctx = do(t, h, "POST", "/api/quiz/submit-quiz", `{"answers":[{"questionId":1,"answer":0.0},{"questionId":2,"answer":99999999999999999999}]}`)
	if ctx.Response.StatusCode() != 200 {
		t.Fatalf("status=%d body=%s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	res = models.QuizResult{}
	decode(t, ctx, &res)
	if res.Score != 1 || res.Total != 2 || len(res.Results) != 2 {
		t.Fatalf("unexpected result for numeric edge answers %+v", res)
	}
	if !res.Results[0].Correct || res.Results[0].YourAnswer == nil || *res.Results[0].YourAnswer != "0" {
		t.Fatalf("0.0 should grade as 0: %+v", res.Results[0])
	}
	if res.Results[1].Correct || res.Results[1].YourAnswer == nil || *res.Results[1].YourAnswer != "99999999999999999999" {
		t.Fatalf("huge answer should be kept and graded wrong: %+v", res.Results[1])
	}

	for name, body := range map[string]string{
		"missing":   `{}`,
		"empty":     `{"answers":[]}`,
		"not array": `{"answers":{"questionId":1}}`,
		"string":    `{"answers":"1,2"}`,
		"no body":   ``,
	} {
		ctx := do(t, h, "POST", "/api/quiz/submit-quiz", body)
		if ctx.Response.StatusCode() != 400 {
			t.Fatalf("%s: expected 400, got %d", name, ctx.Response.StatusCode())
		}
	}
}

func TestGetStats(t *testing.T) {
	h := newTestRouter(t, nil)
	ctx := do(t, h, "GET", "/api/quiz/stats", "")
	var stats models.Stats
	decode(t, ctx, &stats)
	if stats.TotalQuestions != 5 || stats.Categories["DevOps"] != 3 || stats.Categories["Cloud"] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRoutingAndCORS(t *testing.T) {
	h := newTestRouter(t, nil)

	ctx := do(t, h, "OPTIONS", "/api/quiz/submit", "")
	if ctx.Response.StatusCode() != 200 || string(ctx.Response.Header.Peek("Access-Control-Allow-Origin")) != "*" {
		t.Fatalf("unexpected preflight response %d", ctx.Response.StatusCode())
	}

	if ctx := do(t, h, "GET", "/api/quiz/submit", ""); ctx.Response.StatusCode() != 404 {
		t.Fatalf("GET on submit should 404, got %d", ctx.Response.StatusCode())
	}
	if ctx := do(t, h, "GET", "/api/quiz/questions/1/extra", ""); ctx.Response.StatusCode() != 404 {
		t.Fatalf("nested path should 404, got %d", ctx.Response.StatusCode())
	}
	if ctx := do(t, h, "GET", "/nope", ""); ctx.Response.StatusCode() != 404 {
		t.Fatalf("unknown path without static dir should 404, got %d", ctx.Response.StatusCode())
	}

	ctx = do(t, h, "GET", "/metrics", "")
	if ctx.Response.StatusCode() != 200 || !strings.Contains(string(ctx.Response.Body()), "http_requests_total") {
		t.Fatalf("metrics endpoint not exposing request counter")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := newTestRouter(t, nil)
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/api/quiz/stats")
	ctx.Request.Header.Set("X-Request-ID", "abc-123")
	h(ctx)
	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != "abc-123" {
		t.Fatalf("request id=%q", got)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, func(c *RouterConfig) {
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 2
	})
	body := `{"questionId":1,"answer":0}`
	for i := 0; i < 2; i++ {
		if ctx := do(t, h, "POST", "/api/quiz/submit", body); ctx.Response.StatusCode() != 200 {
			t.Fatalf("request %d: status=%d", i, ctx.Response.StatusCode())
		}
	}
	if ctx := do(t, h, "POST", "/api/quiz/submit", body); ctx.Response.StatusCode() != fasthttp.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", ctx.Response.StatusCode())
	}
	// GET no consume tokens
	if ctx := do(t, h, "GET", "/api/quiz/stats", ""); ctx.Response.StatusCode() != 200 {
		t.Fatalf("GET should not be rate limited, got %d", ctx.Response.StatusCode())
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>quiz</h1>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := newTestRouter(t, func(c *RouterConfig) { c.StaticDir = dir })

	ctx := do(t, h, "GET", "/", "")
	if ctx.Response.StatusCode() != 200 || !strings.Contains(string(ctx.Response.Body()), "quiz") {
		t.Fatalf("index not served: %d %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if ctx := do(t, h, "GET", "/api/missing", ""); ctx.Response.StatusCode() != 404 {
		t.Fatalf("api paths must not fall through to static, got %d", ctx.Response.StatusCode())
	}
}
