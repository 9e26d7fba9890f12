package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics agrupa los colectores del servidor. Un registro propio por
// instancia permite crear varios en tests sin choques de registro.
type Metrics struct {
	registry        *prometheus.Registry
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	answersGraded   *prometheus.CounterVec
	quizPercentage  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "endpoint"},
		),
		answersGraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_answers_graded_total",
				Help: "Answers graded, by outcome",
			},
			[]string{"outcome"},
		),
		quizPercentage: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "quiz_score_percentage",
				Help:    "Percentage of submitted quizzes",
				Buckets: prometheus.LinearBuckets(10, 10, 10),
			},
		),
	}

	m.registry.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.answersGraded,
		m.quizPercentage,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRequest(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

func (m *Metrics) ObserveAnswer(correct bool) {
	if m == nil {
		return
	}
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	m.answersGraded.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveQuiz(percentage int) {
	if m == nil {
		return
	}
	m.quizPercentage.Observe(float64(percentage))
}

// Handler expone /metrics sobre fasthttp
func (m *Metrics) Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Registry para inspección en tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
