package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/constants"
)

// sendSSEEvent writes a single named event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}

// setupSSEConnection validates the request and sets up SSE headers.
// Returns the session ID, flusher, and true on success. On failure, writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter, r *http.Request) (string, http.Flusher, bool) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing session ID")
		return "", nil, false
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return "", nil, false
	}

	// Streams outlive the server write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return sessionID, flusher, true
}

// sessionStatus is the first event of every stream.
type sessionStatus struct {
	SessionID string              `json:"session_id"`
	Active    bool                `json:"active"`
	Snapshot  *attention.Snapshot `json:"snapshot,omitempty"`
}

// Events streams the warnings of one session as server-sent events until the
// session stops, the client disconnects or the server shuts down.
func (h *AttentionHandler) Events(w http.ResponseWriter, r *http.Request) {
	sessionID, flusher, ok := setupSSEConnection(w, r)
	if !ok {
		return
	}

	eventCh := h.hub.AddListener(sessionID)
	defer h.hub.RemoveListener(sessionID, eventCh)

	status := sessionStatus{SessionID: sessionID}
	if snap, found := h.tracker.Store().Snapshot(sessionID); found {
		status.Active = true
		status.Snapshot = &snap
	}
	sendSSEEvent(w, flusher, "status", status)

	keepAlive := time.NewTicker(constants.SSEKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
			if event.Type == EventStopped {
				return
			}
		}
	}
}
