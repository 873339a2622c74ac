package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/classroom-monitor/internal/database"
	"github.com/kozaktomas/classroom-monitor/internal/web/handlers"
	"github.com/kozaktomas/classroom-monitor/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// A nil store must reach the handlers as a nil interface.
	var (
		writer database.SummaryWriter
		reader database.SummaryReader
	)
	if s.archive != nil {
		writer, reader = s.archive, s.archive
	}

	attentionHandler := handlers.NewAttentionHandler(s.tracker, s.analyzer, writer, s.hub)
	streamHandler := handlers.NewStreamHandler(attentionHandler, middleware.CheckOrigin(s.origins))
	historyHandler := handlers.NewHistoryHandler(reader)

	s.router.Get("/api/health", handlers.HealthCheck)

	s.router.Route("/api/attention", func(r chi.Router) {
		// Request/response endpoints
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Post("/start", attentionHandler.Start)
			r.Post("/process", attentionHandler.Process)
			r.Post("/signals", attentionHandler.Signals)
			r.Post("/stop", attentionHandler.Stop)
			r.Get("/sessions", attentionHandler.Sessions)
			r.Get("/history", historyHandler.List)
			r.Get("/history/{id}", historyHandler.Get)
		})

		// Long-lived streams
		r.Get("/sessions/{id}/events", attentionHandler.Events)
		r.Get("/stream", streamHandler.Serve)
	})
}
