// Package api provides the HTTP REST API for filesmith.
//
// Endpoints:
//
//	POST /api/files         →  materialize an artifact (file, archive, export)
//	GET  /api/assets        →  list the session's published assets
//	GET  /api/assets/{ref}  →  fetch one published asset
//	GET  /health            →  liveness probe
//	GET  /ready             →  readiness probe (store reachability)
//
// Sessions are carried in the X-Session-ID header; requests without one get
// a fresh session whose ID is echoed back in the response header.
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - ratelimit.go: per-IP token bucket rate limiting
//   - health.go: health check endpoints (/health, /ready)
//   - files.go: artifact materialization endpoint
//   - assets.go: asset listing and retrieval endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/filesmith/filesmith/internal/asset"
	"github.com/filesmith/filesmith/internal/log"
	"github.com/filesmith/filesmith/internal/materialize"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3500"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Renders of large documents can take a while; keep this generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Config contains configuration for creating the API server.
type Config struct {
	Logger       log.Logger
	Store        asset.Store               // Required
	Materializer *materialize.Materializer // Required
	RateRPS      float64                   // Tokens per second per IP (0 = default 5)
	RateBurst    int                       // Rate limiter burst size per IP (0 = default 10)
	TrustProxy   bool                      // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
}

// Server is the HTTP server for the filesmith REST API.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	limiter *rateLimiter
	trust   bool

	// Handlers
	health *HealthHandler
	files  *FilesHandler
	assets *AssetsHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("asset store is required")
	}
	if cfg.Materializer == nil {
		return nil, errors.New("materializer is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	rps := cfg.RateRPS
	if rps <= 0 {
		rps = 5.0
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 10
	}

	mux := http.NewServeMux()

	s := &Server{
		mux:     mux,
		logger:  logger,
		limiter: newRateLimiter(rps, burst),
		trust:   cfg.TrustProxy,
		health:  NewHealthHandler(cfg.Store, logger),
		files:   NewFilesHandler(cfg.Materializer, logger),
		assets:  NewAssetsHandler(cfg.Store, logger),
	}

	s.health.RegisterRoutes(mux)
	s.files.RegisterRoutes(mux)
	s.assets.RegisterRoutes(mux)

	return s, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → rate limit → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(s.limiter, s.trust, s.logger),
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
