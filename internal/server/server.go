// Package server wires the reference sync server: storage, auth and routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/postboy/internal/crypto"
	"github.com/iudanet/postboy/internal/server/config"
	"github.com/iudanet/postboy/internal/server/handlers"
	"github.com/iudanet/postboy/internal/server/jwt"
	"github.com/iudanet/postboy/internal/server/middleware"
	"github.com/iudanet/postboy/internal/server/storage/sqlite"
)

// Server HTTP сервер синхронизации
type Server struct {
	logger  *slog.Logger
	storage *sqlite.Storage
	http    *http.Server
	cfg     *config.Config
}

// New открывает хранилище и собирает маршруты. ctx ограничивает
// фоновые задачи сервера (очистку rate limiter).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	keys, err := crypto.NewKeyRing(cfg.APIKeys...)
	if err != nil {
		return nil, fmt.Errorf("failed to load api keys: %w", err)
	}

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	tokens := jwt.NewService(cfg.JWTSecret, cfg.TokenTTL)
	limiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute)

	router := NewRouter(logger, Deps{
		Storage: store,
		Keys:    keys,
		Tokens:  tokens,
		Limiter: limiter,
	})

	return &Server{
		logger:  logger,
		storage: store,
		cfg:     cfg,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
	}, nil
}

// Deps зависимости маршрутов
type Deps struct {
	Storage *sqlite.Storage
	Keys    handlers.KeyVerifier
	Tokens  *jwt.Service
	Limiter *middleware.RateLimiter
}

// NewRouter builds the HTTP routes
func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	health := handlers.NewHealthHandler(logger, deps.Storage)
	auth := handlers.NewAuthHandler(logger, deps.Keys, deps.Tokens, deps.Storage)
	sync := handlers.NewSyncHandler(logger, deps.Storage)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware(logger, "/health"))
	r.Use(middleware.RecoveryMiddleware(logger))

	r.Get("/health", health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.RateLimitMiddleware(deps.Limiter, logger)).Post("/auth/token", auth.Token)

		r.Route("/sync", func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(logger, deps.Tokens))
			r.Post("/push", sync.Push)
			r.Get("/pull", sync.Pull)
			r.Post("/resolve", sync.Resolve)
			r.Get("/conflicts", sync.Conflicts)
		})
	})

	return r
}

// Handler returns the root handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run слушает адрес из конфига до отмены ctx, затем корректно завершает
// активные запросы в пределах ShutdownTimeout
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server started", "addr", ln.Addr().String())
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server", "timeout", s.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Close closes the storage
func (s *Server) Close() error {
	return s.storage.Close()
}
