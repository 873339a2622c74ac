package attention

import "time"

// SessionState is the mutable per-session record. It is only touched while the
// owning store entry is locked.
type SessionState struct {
	ID string

	NoFaceStreak            int
	LookAwayStreak          int
	EyeClosureStartedAt     *time.Time
	LastSleepinessWarningAt time.Time
	AttentionLevel          int

	FocusedFrameCount int
	FaceFrameCount    int
	Warnings          []Warning

	StartedAt  time.Time
	LastSeenAt time.Time
}

func newSessionState(id string, now time.Time) *SessionState {
	return &SessionState{ID: id, StartedAt: now, LastSeenAt: now}
}

func (s *SessionState) emit(w Warning) *Warning {
	s.Warnings = append(s.Warnings, w)
	return &w
}

// advance runs one frame through the state machine.
func (s *SessionState) advance(p Policy, sig Signals, now time.Time) Result {
	s.LastSeenAt = now
	res := Result{FaceCount: len(sig.Faces)}

	if len(sig.Faces) == 0 {
		s.NoFaceStreak++
		s.LookAwayStreak = 0
		s.EyeClosureStartedAt = nil
		s.AttentionLevel = 0
		if s.NoFaceStreak > p.NoFaceFrames {
			res.Warning = s.emit(newWarning(WarningNoFace, now))
			s.NoFaceStreak = 0
		}
		return res
	}

	s.NoFaceStreak = 0
	s.FaceFrameCount++
	res.FaceDetected = true

	face := sig.Faces[0]
	eyesOpen := p.EyesOpen(face)

	var sleepy *Warning
	if eyesOpen {
		s.EyeClosureStartedAt = nil
	} else {
		if s.EyeClosureStartedAt == nil {
			started := now
			s.EyeClosureStartedAt = &started
		}
		closure := now.Sub(*s.EyeClosureStartedAt)
		res.EyeClosureDuration = closure.Seconds()
		res.IsSleepy = closure >= p.SleepinessAfter
		if res.IsSleepy && now.Sub(s.LastSleepinessWarningAt) >= p.SleepinessCooldown {
			w := newWarning(WarningSleepiness, now)
			w.ClosureDuration = closure.Seconds()
			sleepy = s.emit(w)
			s.LastSleepinessWarningAt = now
		}
	}

	score := p.Score(face, eyesOpen)
	s.AttentionLevel = score
	res.AttentionLevel = score
	res.LookingAtScreen = p.LookingAtScreen(face, eyesOpen, score)

	if res.LookingAtScreen && !face.Drowsy {
		s.LookAwayStreak = 0
		s.FocusedFrameCount++
	} else {
		s.LookAwayStreak++
		// A sleepiness warning in the same frame suppresses look-away, and the
		// streak keeps counting so the warning fires on the next eligible frame.
		if s.LookAwayStreak > p.LookAwayFrames && sleepy == nil {
			res.Warning = s.emit(newWarning(WarningLookAway, now))
			s.LookAwayStreak = 0
		}
	}

	if sleepy != nil {
		res.Warning = sleepy
	}
	return res
}

func (s *SessionState) summary(now time.Time) Summary {
	counts := make(map[WarningType]int)
	for _, w := range s.Warnings {
		counts[w.Type]++
	}
	warnings := make([]Warning, len(s.Warnings))
	copy(warnings, s.Warnings)
	return Summary{
		SessionID:           s.ID,
		TotalWarnings:       len(s.Warnings),
		Warnings:            warnings,
		WarningCounts:       counts,
		SessionDuration:     now.Sub(s.StartedAt).Seconds(),
		FocusedFrameCount:   s.FocusedFrameCount,
		FaceFrameCount:      s.FaceFrameCount,
		NoFaceStreakFinal:   s.NoFaceStreak,
		LookAwayStreakFinal: s.LookAwayStreak,
		StartedAt:           s.StartedAt,
		StoppedAt:           now,
	}
}

func (s *SessionState) snapshot() Snapshot {
	snap := Snapshot{
		SessionID:      s.ID,
		StartedAt:      s.StartedAt,
		LastSeenAt:     s.LastSeenAt,
		AttentionLevel: s.AttentionLevel,
		TotalWarnings:  len(s.Warnings),
		NoFaceStreak:   s.NoFaceStreak,
		LookAwayStreak: s.LookAwayStreak,
	}
	if s.EyeClosureStartedAt != nil {
		t := *s.EyeClosureStartedAt
		snap.EyesClosedAt = &t
	}
	return snap
}
