// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database"
)

// MockSummaryStore is an in-memory implementation of database.SummaryStore
type MockSummaryStore struct {
	mu        sync.RWMutex
	summaries []database.ArchivedSummary // in archive order

	// Error injection
	SaveError error
	ListError error
	GetError  error
}

var _ database.SummaryStore = (*MockSummaryStore)(nil)

// NewMockSummaryStore creates a new empty mock summary store
func NewMockSummaryStore() *MockSummaryStore {
	return &MockSummaryStore{}
}

// SaveSummary archives a summary in memory
func (m *MockSummaryStore) SaveSummary(ctx context.Context, summary attention.Summary, reason string) (*database.ArchivedSummary, error) {
	if m.SaveError != nil {
		return nil, m.SaveError
	}
	archived := database.ArchivedSummary{
		ID:         uuid.New(),
		Reason:     reason,
		ArchivedAt: time.Now().UTC(),
		Summary:    summary,
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, archived)
	return &archived, nil
}

// ListSummaries returns archived summaries, newest first
func (m *MockSummaryStore) ListSummaries(ctx context.Context, limit int) ([]database.ArchivedSummary, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]database.ArchivedSummary, 0, len(m.summaries))
	for i := len(m.summaries) - 1; i >= 0; i-- {
		if limit > 0 && len(result) == limit {
			break
		}
		result = append(result, m.summaries[i])
	}
	return result, nil
}

// GetSummary retrieves an archived summary by ID
func (m *MockSummaryStore) GetSummary(ctx context.Context, id uuid.UUID) (*database.ArchivedSummary, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.summaries {
		if m.summaries[i].ID == id {
			s := m.summaries[i]
			return &s, nil
		}
	}
	return nil, database.ErrNotFound
}

// Count returns the number of archived summaries
func (m *MockSummaryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.summaries)
}
