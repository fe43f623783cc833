// Package server is the composition root: it opens the store, builds the
// services and handlers, and maps them onto routes.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → repository.Store (sqlite or postgres)
//	  → auth.TokenService, auth.SessionResolver
//	  → service.CounterService, service.AuthService
//	  → handler.*
//	  → chi routes, behind auth.RequireAuthenticated where needed
//
// Nothing below this package knows which store backend is in use.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/click-counter/internal/auth"
	"github.com/sakif/click-counter/internal/config"
	"github.com/sakif/click-counter/internal/handler"
	"github.com/sakif/click-counter/internal/middleware"
	"github.com/sakif/click-counter/internal/repository"
	"github.com/sakif/click-counter/internal/repository/postgres"
	"github.com/sakif/click-counter/internal/repository/sqlite"
	"github.com/sakif/click-counter/internal/service"
)

// Server owns the router and the store. The store is closed when Start
// returns, or by Close if Start was never called.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store

	oauth handler.OAuthProvider
}

// Option customises a Server.
type Option func(*Server)

// WithOAuthProvider replaces the GitHub provider built from config. Tests
// use it to sign in without talking to github.com.
func WithOAuthProvider(p handler.OAuthProvider) Option {
	return func(s *Server) {
		s.oauth = p
	}
}

// New opens the configured store and wires every route.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.setupRoutes(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore picks the backend named by database.driver.
func openStore(cfg config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := postgres.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil

	default:
		if cfg.Database.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	}
}

// sessionSecret returns the configured secret, or a random one when none is
// set. A random secret means every restart signs everyone out.
func (s *Server) sessionSecret() (string, error) {
	if s.config.Session.Secret != "" {
		return s.config.Session.Secret, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	s.logger.Warn("session.secret not set; using a random secret, sessions will not survive a restart")
	return hex.EncodeToString(buf), nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /static/*              → static files
//	GET    /healthz               → store ping
//	GET    /logout                → clear session, redirect /login
//	GET    /auth/github           → start OAuth (only with credentials)
//	GET    /auth/github/callback  → finish OAuth (only with credentials)
//	GET    /login                 → sign-in page        [anonymous only]
//	GET    /                      → click page          [authenticated]
//	GET    /profile               → profile page        [authenticated]
//	GET    /api/{id}              → profile JSON        [authenticated]
//	GET    /api/{id}/clicks       → both counts         [authenticated]
//	POST   /api/{id}/clicks       → increment           [authenticated]
//	DELETE /api/{id}/clicks       → reset personal      [authenticated]
//
// MIDDLEWARE ORDER:
// RequestID first so the logger can print it. The logger sits outside
// Recoverer so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === Sessions ===
	secret, err := s.sessionSecret()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(secret, s.config.Session.TTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	resolver := auth.NewSessionResolver(tokens, s.store)

	requireUser := auth.RequireAuthenticated(resolver, "/login", s.logger)
	requireAnon := auth.RequireAnonymous(resolver, "/", s.logger)

	// === Services ===
	var counterOpts []service.CounterOption
	if s.config.Counter.Consistency == config.ConsistencySerialized {
		counterOpts = append(counterOpts, service.WithSerializedUpdates())
	}
	counterService := service.NewCounterService(s.store, s.store, s.logger, counterOpts...)
	authService := service.NewAuthService(s.store, tokens, s.logger)

	// === Handlers ===
	pages, err := handler.NewPageHandler(s.config.Web.TemplateDir, s.logger)
	if err != nil {
		return err
	}
	clicks := handler.NewClickHandler(counterService, s.logger)
	profile := handler.NewProfileHandler(s.logger)
	secure := s.config.SecureCookies()

	// === Public routes ===
	fileServer := http.FileServer(http.Dir(s.config.Web.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/healthz", handler.Health(s.store, s.logger))
	s.router.Get("/logout", handler.Logout(secure))

	if s.oauth == nil && s.config.GitHubEnabled() {
		s.oauth = auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		)
	}
	if s.oauth != nil {
		authHandler := handler.NewAuthHandler(s.oauth, authService, tokens, secure, s.logger)
		s.router.Get("/auth/github", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	} else {
		s.logger.Warn("GitHub OAuth credentials not set; sign-in is disabled")
	}

	s.router.With(requireAnon).Get("/login", pages.HandleLogin)

	// === Authenticated routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/", pages.HandleIndex)
		r.Get("/profile", pages.HandleProfile)

		r.Get("/api/{id}", profile.HandleProfile)
		r.Get("/api/{id}/clicks", clicks.HandleGet)
		r.Post("/api/{id}/clicks", clicks.HandleIncrement)
		r.Delete("/api/{id}/clicks", clicks.HandleReset)
	})

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Start calls it on the way out.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Give in-flight requests 30s to finish
//  3. Close the store
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", s.config.Server.BaseURL),
			slog.String("database", s.config.Database.Driver),
			slog.String("consistency", s.config.Counter.Consistency),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
