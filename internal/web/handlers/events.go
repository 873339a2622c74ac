package handlers

import (
	"sync"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/constants"
)

// Event types pushed to session listeners.
const (
	EventWarning = "warning"
	EventStopped = "stopped"
)

// SessionEvent is delivered to every listener of a session.
type SessionEvent struct {
	Type      string             `json:"type"`
	SessionID string             `json:"session_id"`
	Warning   *attention.Warning `json:"warning,omitempty"`
	Summary   *attention.Summary `json:"summary,omitempty"`
}

// WarningHub fans session events out to per-session listeners.
// Slow listeners drop events instead of blocking the frame path.
type WarningHub struct {
	mu        sync.RWMutex
	listeners map[string][]chan SessionEvent
	closed    bool
}

// NewWarningHub creates an empty hub.
func NewWarningHub() *WarningHub {
	return &WarningHub{listeners: make(map[string][]chan SessionEvent)}
}

// AddListener subscribes to the events of one session.
func (h *WarningHub) AddListener(sessionID string) chan SessionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan SessionEvent, constants.EventChannelBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.listeners[sessionID] = append(h.listeners[sessionID], ch)
	return ch
}

// RemoveListener unsubscribes and closes ch.
func (h *WarningHub) RemoveListener(sessionID string, ch chan SessionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.listeners[sessionID]
	for i, listener := range list {
		if listener == ch {
			list = append(list[:i], list[i+1:]...)
			close(ch)
			break
		}
	}
	if len(list) == 0 {
		delete(h.listeners, sessionID)
	} else {
		h.listeners[sessionID] = list
	}
}

// ListenerCount returns the number of listeners of a session.
func (h *WarningHub) ListenerCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[sessionID])
}

// Publish sends a warning to the listeners of its session. It matches
// attention.WarningFunc so it can be registered on the tracker directly.
func (h *WarningHub) Publish(sessionID string, w attention.Warning) {
	h.send(SessionEvent{Type: EventWarning, SessionID: sessionID, Warning: &w})
}

// SessionStopped tells listeners that the session has ended.
func (h *WarningHub) SessionStopped(summary attention.Summary) {
	h.send(SessionEvent{Type: EventStopped, SessionID: summary.SessionID, Summary: &summary})
}

func (h *WarningHub) send(event SessionEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, listener := range h.listeners[event.SessionID] {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// Close closes every listener so open streams return. Later listeners are
// closed immediately.
func (h *WarningHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, list := range h.listeners {
		for _, ch := range list {
			close(ch)
		}
		delete(h.listeners, id)
	}
	h.closed = true
}
