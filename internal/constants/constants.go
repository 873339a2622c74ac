// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Session constants
const (
	// DefaultSessionID is used when a client does not name its session
	DefaultSessionID = "default"
)

// Frame processing constants
const (
	// DefaultReplayFPS is the frame rate assumed when replaying recorded signals
	DefaultReplayFPS = 30

	// AnalyzeConcurrency is the number of frames sent to the detector in parallel
	// by the analyze command. Results are still fed to the tracker in order.
	AnalyzeConcurrency = 4
)
