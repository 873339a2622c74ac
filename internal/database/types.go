package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

// Archive reasons.
const (
	ReasonStopped = "stopped" // client called stop
	ReasonIdle    = "idle"    // evicted after the idle timeout
)

// ErrNotFound is returned when an archived summary does not exist.
var ErrNotFound = errors.New("summary not found")

// ArchivedSummary is a finished session as stored in the archive.
type ArchivedSummary struct {
	ID         uuid.UUID `json:"id"`
	Reason     string    `json:"reason"`
	ArchivedAt time.Time `json:"archived_at"`
	attention.Summary
}

// SummaryWriter persists finished sessions.
type SummaryWriter interface {
	// SaveSummary stores the summary together with all of its warnings
	SaveSummary(ctx context.Context, summary attention.Summary, reason string) (*ArchivedSummary, error)
}

// SummaryReader provides read-only access to archived sessions.
type SummaryReader interface {
	// ListSummaries returns the most recently archived summaries, newest first
	ListSummaries(ctx context.Context, limit int) ([]ArchivedSummary, error)
	// GetSummary returns one archived summary or ErrNotFound
	GetSummary(ctx context.Context, id uuid.UUID) (*ArchivedSummary, error)
}

// SummaryStore combines read and write access.
type SummaryStore interface {
	SummaryWriter
	SummaryReader
}
