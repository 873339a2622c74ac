// Package constants provides shared constants used across the codebase.
package constants

import "time"

// Handler pagination constants
const (
	// DefaultHistoryLimit is the number of archived summaries returned by default
	DefaultHistoryLimit = 20

	// MaxHistoryLimit caps the history page size
	MaxHistoryLimit = 200
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100

	// SSEKeepAliveInterval is how often an idle event stream receives a comment line
	SSEKeepAliveInterval = 15 * time.Second
)

// Request size constants
const (
	// MaxRequestBodySize bounds JSON request bodies (a 10MB frame is ~14MB as base64)
	MaxRequestBodySize = 16 << 20

	// WebSocketReadLimit bounds a single websocket message
	WebSocketReadLimit = MaxRequestBodySize

	// WebSocketWriteTimeout is the deadline for a single websocket reply
	WebSocketWriteTimeout = 10 * time.Second
)
