// Package api exposes the screening pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/candidates"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/screening"
)

const (
	DefaultRateLimitPerMin = 60
	maxBodyBytes           = 4 << 20
)

// Screener is the pipeline as seen by the API.
type Screener interface {
	ScreenResume(ctx context.Context, in screening.ScreeningInput) (pipeline.Outcome, error)
	ScreenBatch(ctx context.Context, inputs []screening.ScreeningInput) ([]pipeline.Outcome, error)
}

// Assistant runs the operations that are not tied to a candidate.
type Assistant interface {
	GenerateJobDescription(ctx context.Context, in screening.JobDescriptionInput) (screening.JobDescription, error)
	AnalyzePerformance(ctx context.Context, in screening.PerformanceInput) (screening.PerformanceAnalysis, error)
	AskHR(ctx context.Context, in screening.HRQuestionInput) (screening.HRAnswer, error)
}

// Options tune the router.
type Options struct {
	// RateLimitPerMin caps POST requests per client IP. Zero selects the default.
	RateLimitPerMin int
	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Server holds the handlers' dependencies.
type Server struct {
	screener  Screener
	assistant Assistant
	store     candidates.Store
	validate  *validator.Validate
	logger    *zap.Logger
	opts      Options
}

func NewServer(screener Screener, assistant Assistant, store candidates.Store, opts Options, log *zap.Logger) *Server {
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = DefaultRateLimitPerMin
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		screener:  screener,
		assistant: assistant,
		store:     store,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger.WithFields(log, zap.String("component", "api")),
		opts:      opts,
	}
}

// Router builds the HTTP handler with every route and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(s.opts.RateLimitPerMin, time.Minute))
		wr.Post("/v1/screen", s.handleScreen)
		wr.Post("/v1/screen/batch", s.handleBatch)
		wr.Post("/v1/job-descriptions", s.handleJobDescription)
		wr.Post("/v1/performance", s.handlePerformance)
		wr.Post("/v1/ask", s.handleAsk)
	})

	r.Get("/v1/candidates", s.handleCandidates)
	r.Get("/v1/ranking", s.handleRanking)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	return r
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(started)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
