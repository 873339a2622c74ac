package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kozaktomas/classroom-monitor/internal/constants"
	"github.com/kozaktomas/classroom-monitor/internal/database"
)

// HistoryHandler serves archived session summaries.
type HistoryHandler struct {
	archive database.SummaryReader
}

// NewHistoryHandler creates a history handler. A nil archive answers 503.
func NewHistoryHandler(archive database.SummaryReader) *HistoryHandler {
	return &HistoryHandler{archive: archive}
}

// List handles GET /api/attention/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "session archive not configured")
		return
	}

	limit := constants.DefaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, constants.MaxHistoryLimit)
	}

	summaries, err := h.archive.ListSummaries(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to list archived sessions: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if summaries == nil {
		summaries = []database.ArchivedSummary{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"summaries": summaries,
		"count":     len(summaries),
	})
}

// Get handles GET /api/attention/history/{id}
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "session archive not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid summary ID")
		return
	}

	summary, err := h.archive.GetSummary(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "summary not found")
		return
	}
	if err != nil {
		log.Printf("Failed to load archived session %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}
