package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/brainvault/brainvault-server/internal/api"
	"github.com/brainvault/brainvault-server/internal/config"
	"github.com/brainvault/brainvault-server/internal/logger"
	"github.com/brainvault/brainvault-server/internal/metrics"
	"github.com/brainvault/brainvault-server/internal/ratelimit"
	"github.com/brainvault/brainvault-server/internal/service"
	"github.com/brainvault/brainvault-server/internal/sse"
)

// shutdownTimeout bounds graceful shutdown when the config does not set one.
const shutdownTimeout = 30 * time.Second

// RateLimiterHandle wraps the per-caller rate limiter. Limiter is nil when
// rate limiting is disabled.
type RateLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.Limiter != nil {
		h.Limiter.Stop()
	}
	return nil
}

// ProvideRateLimiter provides the per-caller rate limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.RateLimit.Enabled {
		return &RateLimiterHandle{}, nil
	}
	return &RateLimiterHandle{
		Limiter: ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	shutdownTimeout time.Duration
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	timeout := h.shutdownTimeout
	if timeout <= 0 {
		timeout = shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authHandle := do.MustInvoke[*AuthHandle](i)
	limiter := do.MustInvoke[*RateLimiterHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	live := do.MustInvoke[*SSEManagerHandle](i)

	services := &api.Services{
		Ideas:     do.MustInvoke[*service.IdeaService](i),
		Search:    do.MustInvoke[*service.SearchService](i),
		Stats:     do.MustInvoke[*service.StatsService](i),
		Transform: do.MustInvoke[*service.TransformService](i),
		Voice:     do.MustInvoke[*service.VoiceService](i),
		Users:     do.MustInvoke[*service.UserService](i),
	}

	handler := api.NewServer(services, api.Options{
		Verifier:       authHandle.Verifier,
		DevTokens:      authHandle.DevTokens,
		Store:          storeHandle.Store,
		RateLimiter:    limiter.Limiter,
		Events:         sse.NewHandler(live.Manager, log.Logger),
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         log.Logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, shutdownTimeout: cfg.Server.ShutdownTimeout}, nil
}
