package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database"
	"github.com/kozaktomas/classroom-monitor/internal/web/handlers"
	"github.com/kozaktomas/classroom-monitor/internal/web/middleware"
)

// Server represents the web server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	tracker    *attention.Tracker
	analyzer   handlers.FrameAnalyzer
	archive    database.SummaryStore
	hub        *handlers.WarningHub
	origins    middleware.AllowedOrigins
}

// NewServer creates a new web server. analyzer and archive may be nil. The
// server registers itself as the tracker's warning hook.
func NewServer(port int, host string, tracker *attention.Tracker, analyzer handlers.FrameAnalyzer, archive database.SummaryStore) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		tracker:  tracker,
		analyzer: analyzer,
		archive:  archive,
		hub:      handlers.NewWarningHub(),
		origins:  middleware.AllowedOriginsFromEnv(),
	}
	tracker.OnWarning(s.hub.Publish)

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(s.origins))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Open event streams end when the hub closes.
	s.httpServer.RegisterOnShutdown(s.hub.Close)

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
