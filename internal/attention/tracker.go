// Package attention turns noisy per-frame face signals into debounced,
// rate-limited attention warnings and a continuous attention score.
package attention

import (
	"context"
	"log"
	"time"
)

// WarningFunc is called after a warning has been emitted for a session.
type WarningFunc func(sessionID string, w Warning)

// EvictFunc receives the summary of a session removed for inactivity.
type EvictFunc func(s Summary)

// Tracker owns the per-session state machines.
type Tracker struct {
	policy Policy
	store  *Store
	now    func() time.Time

	onWarning WarningFunc
	onEvict   EvictFunc
}

// NewTracker creates a tracker backed by store.
func NewTracker(policy Policy, store *Store) *Tracker {
	return &Tracker{
		policy: policy,
		store:  store,
		now:    time.Now,
	}
}

// SetClock replaces the wall clock. Replays and tests drive time explicitly.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// OnWarning registers a hook invoked for every warning, outside the session lock.
func (t *Tracker) OnWarning(fn WarningFunc) {
	t.onWarning = fn
}

// OnEvict registers a hook invoked for every session evicted by the janitor.
func (t *Tracker) OnEvict(fn EvictFunc) {
	t.onEvict = fn
}

// Policy returns the thresholds in use.
func (t *Tracker) Policy() Policy {
	return t.policy
}

// Store returns the session store.
func (t *Tracker) Store() *Store {
	return t.store
}

// Start creates a fresh session, discarding any previous state under the same id.
func (t *Tracker) Start(sessionID string) {
	t.store.reset(sessionID, t.now())
}

// Process consumes one frame of signals. Unknown sessions are created on first use.
func (t *Tracker) Process(sessionID string, signals Signals) Result {
	now := t.now()
	e := t.store.acquire(sessionID, now)
	res := e.state.advance(t.policy, signals, now)
	e.mu.Unlock()

	if res.Warning != nil && t.onWarning != nil {
		t.onWarning(sessionID, *res.Warning)
	}
	return res
}

// Stop removes the session and returns its summary. Unknown sessions yield an
// empty summary.
func (t *Tracker) Stop(sessionID string) Summary {
	now := t.now()
	e := t.store.remove(sessionID)
	if e == nil {
		return Summary{
			SessionID:     sessionID,
			Warnings:      []Warning{},
			WarningCounts: map[WarningType]int{},
		}
	}
	defer e.mu.Unlock()
	return e.state.summary(now)
}

// Sweep evicts idle sessions once and reports them to the eviction hook.
func (t *Tracker) Sweep() int {
	summaries := t.store.Sweep(t.now())
	for _, s := range summaries {
		log.Printf("Evicted idle attention session %s after %.0fs", s.SessionID, s.SessionDuration)
		if t.onEvict != nil {
			t.onEvict(s)
		}
	}
	return len(summaries)
}

// RunJanitor sweeps idle sessions every interval until ctx is cancelled.
func (t *Tracker) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}
