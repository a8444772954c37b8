// Package api exposes the rule administration and event ingestion HTTP
// surface.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/deskforge/automation/internal/engine"
	"github.com/deskforge/automation/internal/history"
	"github.com/deskforge/automation/internal/store"
	"github.com/deskforge/automation/internal/telemetry"
)

// Server holds handler dependencies.
type Server struct {
	store       store.Store
	engine      *engine.Engine
	recorder    *history.Recorder
	expressions *engine.ExpressionCache
	adminAPIKey string
	ratePerIP   int
	log         zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRecorder attaches a run-history recorder; each processed event is
// recorded asynchronously.
func WithRecorder(r *history.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithRateLimit sets the per-IP request limit per minute. Zero disables
// rate limiting.
func WithRateLimit(perIP int) Option {
	return func(s *Server) { s.ratePerIP = perIP }
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// NewServer creates the API server. The expression cache is used to reject
// rules with uncompilable CEL expressions at save time.
func NewServer(st store.Store, eng *engine.Engine, adminKey string, opts ...Option) (*Server, error) {
	expressions, err := engine.NewExpressionCache()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:       st,
		engine:      eng,
		expressions: expressions,
		adminAPIKey: adminKey,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(telemetry.Middleware)
	if s.ratePerIP > 0 {
		r.Use(httprate.LimitByIP(s.ratePerIP, time.Minute))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1/rules", func(r chi.Router) {
		r.Get("/", s.handleListRules)
		r.Get("/{id}", s.handleGetRule)
		r.Post("/", s.authAdmin(s.handleCreateRule))
		r.Put("/{id}", s.authAdmin(s.handleUpdateRule))
		r.Delete("/{id}", s.authAdmin(s.handleDeleteRule))
	})

	r.Post("/v1/events", s.authAdmin(s.handleEvent))

	return r
}

// authAdmin guards mutating endpoints with the admin API key. The comparison
// is constant-time.
func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			key = r.Header.Get("X-API-Key")
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
			writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimPrefix(auth, prefix)
	}
	return ""
}
