package attention

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"
)

type recordedFrame struct {
	at      time.Time
	signals Signals
}

func drawFrames(t *rapid.T, label string) []recordedFrame {
	kinds := []func() FaceObservation{attentiveFace, closedEyesFace, lookingLeftFace}
	n := rapid.IntRange(0, 150).Draw(t, label+"_len")

	frames := make([]recordedFrame, n)
	at := epoch
	for i := range frames {
		at = at.Add(time.Duration(rapid.IntRange(1, 400).Draw(t, label+"_step_ms")) * time.Millisecond)
		frames[i].at = at
		kind := rapid.IntRange(-1, len(kinds)-1).Draw(t, label+"_kind")
		if kind >= 0 {
			frames[i].signals = frameOf(kinds[kind]())
		}
	}
	return frames
}

func runIsolated(frames []recordedFrame) []Result {
	clock := &fakeClock{}
	tr := NewTracker(DefaultPolicy(), NewStore(0))
	tr.SetClock(clock.now)

	results := make([]Result, len(frames))
	for i, f := range frames {
		clock.set(f.at)
		results[i] = tr.Process("solo", f.signals)
	}
	return results
}

func TestProcess_SessionsAreIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := drawFrames(t, "a")
		b := drawFrames(t, "b")

		clock := &fakeClock{}
		tr := NewTracker(DefaultPolicy(), NewStore(0))
		tr.SetClock(clock.now)

		var gotA, gotB []Result
		i, j := 0, 0
		for i < len(a) || j < len(b) {
			pickA := j >= len(b) || (i < len(a) && rapid.Bool().Draw(t, "pick_a"))
			if pickA {
				clock.set(a[i].at)
				gotA = append(gotA, tr.Process("a", a[i].signals))
				i++
			} else {
				clock.set(b[j].at)
				gotB = append(gotB, tr.Process("b", b[j].signals))
				j++
			}
		}

		if wantA := runIsolated(a); !reflect.DeepEqual(gotA, wantA) && len(a) > 0 {
			t.Fatalf("session a diverged when interleaved")
		}
		if wantB := runIsolated(b); !reflect.DeepEqual(gotB, wantB) && len(b) > 0 {
			t.Fatalf("session b diverged when interleaved")
		}
	})
}

func TestStore_ConcurrentSessions(t *testing.T) {
	tr := NewTracker(DefaultPolicy(), NewStore(0))

	var wg sync.WaitGroup
	summaries := make([]Summary, 16)
	for n := range summaries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("student-%d", n)
			tr.Start(id)
			for range 61 {
				tr.Process(id, frameOf())
			}
			for range n {
				tr.Process(id, frameOf(attentiveFace()))
			}
			summaries[n] = tr.Stop(id)
		}()
	}
	wg.Wait()

	for n, s := range summaries {
		if s.WarningCounts[WarningNoFace] != 1 {
			t.Errorf("session %d: expected one no_face warning, got %v", n, s.WarningCounts)
		}
		if s.FocusedFrameCount != n {
			t.Errorf("session %d: expected %d focused frames, got %d", n, n, s.FocusedFrameCount)
		}
	}
	if tr.Store().Len() != 0 {
		t.Errorf("expected empty store, got %d sessions", tr.Store().Len())
	}
}

func TestStore_Snapshots(t *testing.T) {
	tr, clock := newTestTracker()

	tr.Process("b", frameOf(closedEyesFace()))
	clock.advance(time.Second)
	tr.Process("a", frameOf(attentiveFace()))

	snaps := tr.Store().Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if snaps[0].SessionID != "a" || snaps[1].SessionID != "b" {
		t.Errorf("expected snapshots ordered by id, got %s, %s", snaps[0].SessionID, snaps[1].SessionID)
	}
	if snaps[0].AttentionLevel != 100 {
		t.Errorf("expected attention 100 for a, got %d", snaps[0].AttentionLevel)
	}
	if snaps[1].EyesClosedAt == nil || !snaps[1].EyesClosedAt.Equal(epoch) {
		t.Errorf("expected b eyes closed since epoch, got %v", snaps[1].EyesClosedAt)
	}

	one, ok := tr.Store().Snapshot("b")
	if !ok || one.SessionID != "b" {
		t.Errorf("expected snapshot of b, got %+v (ok=%v)", one, ok)
	}
	tr.Stop("b")
	if _, ok := tr.Store().Snapshot("b"); ok {
		t.Error("expected no snapshot after stop")
	}
}

func TestStore_SweepDisabled(t *testing.T) {
	store := NewStore(0)
	store.acquire("s1", epoch).mu.Unlock()

	if got := store.Sweep(epoch.Add(24 * time.Hour)); got != nil {
		t.Errorf("expected no eviction with zero TTL, got %d", len(got))
	}
	if store.Len() != 1 {
		t.Errorf("expected session kept, got %d", store.Len())
	}
}
