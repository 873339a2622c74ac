package attention

import (
	"sort"
	"sync"
	"time"
)

// entry serializes access to one session. removed is set under mu once the
// session has left the store, so a caller that raced a Stop retries.
type entry struct {
	mu      sync.Mutex
	state   *SessionState
	removed bool
}

// Store maps session ids to their state. Calls for the same session are
// serialized by a per-session lock; different sessions never contend beyond
// the short map lookup.
//
// Lock order is store.mu then entry.mu; nothing takes store.mu while holding an entry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	idleTTL  time.Duration
}

// NewStore creates a store. Sessions idle longer than idleTTL are evicted by
// Sweep; zero disables eviction.
func NewStore(idleTTL time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		idleTTL:  idleTTL,
	}
}

// acquire returns the locked entry for id, creating it if needed.
func (s *Store) acquire(id string, now time.Time) *entry {
	for {
		s.mu.RLock()
		e, ok := s.sessions[id]
		s.mu.RUnlock()

		if !ok {
			s.mu.Lock()
			e, ok = s.sessions[id]
			if !ok {
				e = &entry{state: newSessionState(id, now)}
				s.sessions[id] = e
			}
			s.mu.Unlock()
		}

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// reset replaces the state of id with a fresh one.
func (s *Store) reset(id string, now time.Time) {
	e := s.acquire(id, now)
	e.state = newSessionState(id, now)
	e.mu.Unlock()
}

// remove detaches id from the store and returns its locked entry, or nil.
func (s *Store) remove(id string) *entry {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	e.removed = true
	return e
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Snapshots returns a view of every live session ordered by id.
func (s *Store) Snapshots() []Snapshot {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.sessions))
	for _, e := range s.sessions {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			snaps = append(snaps, e.state.snapshot())
		}
		e.mu.Unlock()
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].SessionID < snaps[j].SessionID })
	return snaps
}

// Snapshot returns a view of one live session.
func (s *Store) Snapshot(id string) (Snapshot, bool) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Snapshot{}, false
	}
	return e.state.snapshot(), true
}

// Sweep evicts sessions whose last frame is older than the idle TTL and
// returns their summaries.
func (s *Store) Sweep(now time.Time) []Summary {
	if s.idleTTL <= 0 {
		return nil
	}

	s.mu.Lock()
	var evicted []*entry
	for id, e := range s.sessions {
		e.mu.Lock()
		if now.Sub(e.state.LastSeenAt) > s.idleTTL {
			delete(s.sessions, id)
			e.removed = true
			evicted = append(evicted, e)
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	summaries := make([]Summary, 0, len(evicted))
	for _, e := range evicted {
		e.mu.Lock()
		summaries = append(summaries, e.state.summary(now))
		e.mu.Unlock()
	}
	return summaries
}
