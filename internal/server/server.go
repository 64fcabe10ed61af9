// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle.
//
// This is the composition root: every dependency chain
// (DB → repository → service → handler) is assembled here, in one place,
// rather than scattered across the codebase. main.go only loads config and
// calls New/Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/debrief-app/debrief/internal/auth"
	"github.com/debrief-app/debrief/internal/config"
	"github.com/debrief-app/debrief/internal/handler"
	"github.com/debrief-app/debrief/internal/middleware"
	sqliteRepo "github.com/debrief-app/debrief/internal/repository/sqlite"
	"github.com/debrief-app/debrief/internal/service"
	"github.com/debrief-app/debrief/internal/slug"
)

// Server holds the router and the resources it owns. The database connection
// belongs to the server and is closed during graceful shutdown.
type Server struct {
	router       *chi.Mux
	config       *config.Config
	logger       *slog.Logger
	db           *sqliteRepo.DB
	loginLimiter *middleware.RateLimiter
}

// New creates a Server: opens the database, builds the service graph, and
// registers all routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly so tests can drive the full stack with
// httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes assembles the dependency graph and registers every route.
//
// Middleware order matters; it executes top to bottom:
//  1. RequestID — tags each request for tracing
//  2. RealIP — resolves the client IP from proxy headers (the rate limiter
//     keys on it)
//  3. Recoverer — panics become 500s instead of crashing the process
//  4. Logger — structured line per completed request
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret)
	if err != nil {
		return fmt.Errorf("JWT_SECRET: %w", err)
	}

	// Service graph. *sqliteRepo.DB implements all repository interfaces,
	// so it is handed to each service as the interface it needs.
	resolver := slug.NewResolver(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)
	calendarService := service.NewCalendarService(
		s.db, s.db, resolver, s.config.Provisioning.AssignSlugAtCreation, s.logger)
	eventService := service.NewEventService(s.db, s.db, s.logger)
	publicService := service.NewPublicCalendarService(s.db, s.db, s.db, s.logger)

	github := auth.NewGitHubProvider(
		s.config.Auth.GitHubClientID,
		s.config.Auth.GitHubClientSecret,
		s.config.Auth.GitHubCallbackURL,
	)

	weekStart := s.config.WeekStartDay()
	authHandler := handler.NewAuthHandler(github, authService, s.logger)
	calendarHandler := handler.NewCalendarHandler(calendarService, s.logger)
	eventHandler := handler.NewEventHandler(eventService, weekStart, s.logger)
	publicHandler := handler.NewPublicHandler(publicService, s.config.BaseURL, weekStart, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Credential endpoints sit behind a per-IP limiter: 1 req/sec with a
	// small burst is generous for humans and hostile to password guessing.
	// The server owns the limiter so shutdown can stop its pruning goroutine.
	s.loginLimiter = middleware.NewRateLimiter(rate.Limit(1), 5)

	s.router.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.loginLimiter.Limit)
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})
		r.Post("/logout", authHandler.HandleLogout)

		if s.config.Auth.GitHubClientID != "" {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		} else {
			s.logger.Warn("GITHUB_CLIENT_ID not set, GitHub sign-in disabled")
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		// Owner endpoints: a valid session is mandatory.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Get("/calendar", calendarHandler.HandleGetDefault)
			r.Patch("/calendars/{calendarID}", calendarHandler.HandleUpdateSettings)
			r.Get("/slugs/check", calendarHandler.HandleCheckSlug)

			r.Get("/calendars/{calendarID}/events", eventHandler.HandleList)
			r.Post("/calendars/{calendarID}/events", eventHandler.HandleCreate)
			r.Put("/events/{eventID}", eventHandler.HandleUpdate)
			r.Delete("/events/{eventID}", eventHandler.HandleDelete)
		})

		// Shared calendars: anonymous by design. OptionalAuth still records
		// the viewer's identity when a session cookie happens to be present,
		// so handlers can tell an owner apart from an anonymous visitor.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/public/calendars/{identifier}", publicHandler.HandleGet)
			r.Get("/public/calendars/{identifier}/feed.ics", publicHandler.HandleICS)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s
// cap), close the database so the WAL is flushed and the file lock released.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.loginLimiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.Int("port", s.config.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
