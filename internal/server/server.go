package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/sbc-auth/internal/auth"
	"github.com/hongminglow/sbc-auth/internal/config"
	"github.com/hongminglow/sbc-auth/internal/http/handlers"
	"github.com/hongminglow/sbc-auth/internal/middleware"
	"github.com/hongminglow/sbc-auth/internal/observability"
	"github.com/hongminglow/sbc-auth/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.UserStore, logger *slog.Logger, metrics *observability.Metrics) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, store, logger, metrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the full middleware-wrapped route tree. metrics may be nil.
func NewHandler(cfg config.Config, store storage.UserStore, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	mux := http.NewServeMux()
	health := handlers.NewHealthHandler(time.Now(), store)
	health.Register(mux)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	service := auth.NewService(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens, cfg.DefaultRole)
	authHandler := handlers.NewAuthHandler(service, handlers.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
		TTL:    tokens.TTL(),
	}, logger, metrics)
	authHandler.Register(mux)

	if metrics != nil && cfg.MetricsEnabled {
		mux.Handle("/metrics", metrics.Handler())
	}

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, metrics, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
