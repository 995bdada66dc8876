// Package api provides the HTTP API server and handlers for Brain Vault.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/brainvault/brainvault-server/internal/auth"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/ratelimit"
	"github.com/brainvault/brainvault-server/internal/sse"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options carries the server's non-service dependencies.
type Options struct {
	// Verifier validates bearer tokens. Required.
	Verifier auth.Verifier
	// DevTokens mints tokens at /api/v1/auth/dev-token. Nil disables the route.
	DevTokens *auth.LocalTokenService
	// Store is pinged by the health check.
	Store Pinger
	// RateLimiter throttles requests per user or IP. Nil disables limiting.
	RateLimiter *ratelimit.KeyedRateLimiter
	// Events streams live idea events. Nil disables /api/v1/events/stream.
	Events         *sse.Handler
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	verifier    auth.Verifier
	devTokens   *auth.LocalTokenService
	store       Pinger
	rateLimiter *ratelimit.KeyedRateLimiter
	metrics     *metrics.Metrics
	events      *sse.Handler
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		services:    services,
		verifier:    opts.Verifier,
		devTokens:   opts.DevTokens,
		store:       opts.Store,
		rateLimiter: opts.RateLimiter,
		metrics:     opts.Metrics,
		events:      opts.Events,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware(opts.AllowedOrigins)

	s.api = humachi.New(s.router, newHumaConfig())
	RegisterErrorHandler(s.logger)

	s.setupRoutes()

	return s
}

func newHumaConfig() huma.Config {
	humaConfig := huma.DefaultConfig("Brain Vault API", Version)
	humaConfig.Info.Description = "Capture, classify, and transform ideas."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	return humaConfig
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures the middleware stack. Authentication runs before
// rate limiting so authenticated callers are limited per user.
func (s *Server) setupMiddleware(allowedOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metricsMiddleware(s.metrics))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(authMiddleware(s.verifier, s.services.Users, s.logger))
	if s.rateLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.rateLimiter, s.logger))
	}
}

// setupRoutes registers every route.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", metrics.Handler())

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerIdeaRoutes()
	s.registerStatsRoutes()
	s.registerTransformRoutes()
	s.registerUserRoutes()
	s.registerVoiceRoutes()
	s.registerEventRoutes()
}
