package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/docstruct/internal/fields"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
	"github.com/MeKo-Tech/docstruct/internal/source"
	"github.com/MeKo-Tech/docstruct/internal/store"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    *pipeline.Pipeline
	sourceOpts  source.Options
	store       *store.Store
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	rateLimiter *RateLimiter
	profiler    *pipeline.Profiler
	started     time.Time
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int

	Pipeline pipeline.Config
	Source   source.Options
	// Store persists structured results when non-nil. The caller owns it.
	Store     *store.Store
	RateLimit RateLimitConfig
}

// RateLimitConfig holds per-client limits for the /v1 endpoints.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDayMB   int64
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Time      string         `json:"time"`
	Uptime    string         `json:"uptime"`
	Store     string         `json:"store"`
	Documents int            `json:"documents,omitempty"`
	Memory    MemStats       `json:"memory"`
	Stats     map[string]any `json:"stats"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CorrectRequest is the body of POST /v1/correct. Exactly one of Items
// and Text is expected.
type CorrectRequest struct {
	Items []map[string]any `json:"items,omitempty"`
	Text  *string          `json:"text,omitempty"`
}

// CorrectResponse mirrors CorrectRequest with corrected text.
type CorrectResponse struct {
	Items []map[string]any `json:"items,omitempty"`
	Text  *string          `json:"text,omitempty"`
}

// FieldsRequest is the body of the /v1/fields endpoints.
type FieldsRequest struct {
	Fields map[string]any `json:"fields"`
	Text   string         `json:"text,omitempty"`
	// Fix normalizes fields before validation.
	Fix bool `json:"fix,omitempty"`
}

// FieldsResponse carries fixed fields and, for validation, the checks.
type FieldsResponse struct {
	Fields fields.FieldMap          `json:"fields"`
	Checks []fields.ValidationCheck `json:"checks,omitempty"`
	Failed int                      `json:"failed"`
	Hints  *fields.Hints            `json:"hints,omitempty"`
}

// DocumentsResponse is returned by GET /v1/documents.
type DocumentsResponse struct {
	Documents []store.Summary `json:"documents"`
	Count     int             `json:"count"`
	Total     int             `json:"total"`
}

// NewServer creates a new server instance.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.New(config.Pipeline)
	if err != nil {
		return nil, err
	}
	if config.MaxUploadMB <= 0 {
		return nil, errors.New("max upload size must be positive")
	}

	s := &Server{
		pipeline:    pl,
		sourceOpts:  config.Source,
		store:       config.Store,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeout:     time.Duration(config.TimeoutSec) * time.Second,
		profiler:    &pipeline.Profiler{},
		started:     time.Now(),
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour,
			rl.MaxRequestsPerDay, rl.MaxDataPerDayMB*1024*1024)
	}
	return s, nil
}

// Router returns the HTTP handler serving every endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.healthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.structureWebSocketHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Post("/structure", s.structureHandler)
		r.Post("/correct", s.correctHandler)
		r.Post("/fields/fix", s.fixFieldsHandler)
		r.Post("/fields/validate", s.validateFieldsHandler)
		r.Get("/documents", s.listDocumentsHandler)
		r.Get("/documents/{id}", s.getDocumentHandler)
		r.Delete("/documents/{id}", s.deleteDocumentHandler)
	})
	return r
}

// Prune drops rate limiter state for clients idle since before cutoff.
func (s *Server) Prune(cutoff time.Time) int {
	if s.rateLimiter == nil {
		return 0
	}
	return s.rateLimiter.Prune(cutoff)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return s.withTimeout(r.Context())
}

// backgroundContext bounds work that outlives a single HTTP request, such
// as websocket messages.
func (s *Server) backgroundContext() (context.Context, context.CancelFunc) {
	return s.withTimeout(context.Background())
}

func (s *Server) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.timeout)
}
