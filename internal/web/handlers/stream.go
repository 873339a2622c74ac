package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kozaktomas/classroom-monitor/internal/constants"
)

// StreamHandler serves the websocket frame stream. Each text message is a
// process request and gets exactly one reply, in order.
type StreamHandler struct {
	attention *AttentionHandler
	upgrader  websocket.Upgrader
}

// NewStreamHandler creates a websocket handler. checkOrigin may be nil to
// accept only same-origin clients.
func NewStreamHandler(attention *AttentionHandler, checkOrigin func(r *http.Request) bool) *StreamHandler {
	return &StreamHandler{
		attention: attention,
		upgrader:  websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// streamError is the reply to a message that could not be processed.
type streamError struct {
	Error string `json:"error"`
}

// Serve handles GET /api/attention/stream
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("WebSocket client connected: %s", r.RemoteAddr)
	conn.SetReadLimit(constants.WebSocketReadLimit)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("WebSocket read error from %s: %v", r.RemoteAddr, err)
			}
			log.Printf("WebSocket client disconnected: %s", r.RemoteAddr)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := h.handleMessage(r, data)

		conn.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("WebSocket write error to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

func (h *StreamHandler) handleMessage(r *http.Request, data []byte) any {
	var req processRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return streamError{Error: errInvalidRequestBody}
	}

	resp, err := h.attention.processFrame(r.Context(), req)
	if err != nil {
		var fe *frameError
		if errors.As(err, &fe) {
			return streamError{Error: fe.message}
		}
		return streamError{Error: err.Error()}
	}
	return resp
}
