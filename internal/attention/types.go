package attention

import "time"

// Tilt is the coarse horizontal head orientation of a face.
type Tilt string

// Tilt values reported by head-pose estimators.
const (
	TiltLeft   Tilt = "left"
	TiltCenter Tilt = "center"
	TiltRight  Tilt = "right"
)

// Nod is the coarse vertical head orientation of a face.
type Nod string

// Nod values reported by head-pose estimators.
const (
	NodUp     Nod = "up"
	NodCenter Nod = "center"
	NodDown   Nod = "down"
)

// centered treats a missing tilt as center, matching estimators that omit the field.
func (t Tilt) centered() bool {
	return t == "" || t == TiltCenter
}

func (n Nod) centered() bool {
	return n == "" || n == NodCenter
}

// BoundingBox is a face box in pixel coordinates (x, y, width, height).
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FaceObservation carries everything the collaborators learned about one face in one frame.
// Optional signals are pointers; nil means the estimator did not produce them.
type FaceObservation struct {
	BoundingBox    BoundingBox `json:"bbox"`
	EyeAspectRatio *float64    `json:"eye_aspect_ratio,omitempty"`
	EyesDetected   *int        `json:"eyes_detected,omitempty"`
	EyeAreaRatio   *float64    `json:"eye_area_ratio,omitempty"`
	EyesOpenHint   *bool       `json:"eyes_open,omitempty"`
	HeadTilt       Tilt        `json:"head_tilt"`
	HeadNod        Nod         `json:"head_nod"`
	Drowsy         bool        `json:"is_drowsy"`
}

// Signals is the per-frame input of the tracker. Faces keep detector order;
// only the first face is scored.
type Signals struct {
	Faces []FaceObservation `json:"faces"`
}

// WarningType identifies the kind of warning emitted.
type WarningType string

// Warning types.
const (
	WarningNoFace     WarningType = "no_face"
	WarningLookAway   WarningType = "look_away"
	WarningSleepiness WarningType = "sleepiness"
)

// Severity of a warning.
type Severity string

// Severity levels.
const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// User-facing warning texts. Front-ends match on these, keep them verbatim.
const (
	MessageNoFace     = "You are not visible on screen. Please return to your seat."
	MessageLookAway   = "Please focus on the screen and pay attention to the class."
	MessageSleepiness = "You appear to be sleepy! Please open your eyes and stay alert."
)

// Warning is a debounced alert produced by the tracker.
type Warning struct {
	Type            WarningType `json:"type"`
	Message         string      `json:"message"`
	Severity        Severity    `json:"severity"`
	Timestamp       time.Time   `json:"timestamp"`
	ClosureDuration float64     `json:"closure_duration,omitempty"` // seconds, sleepiness only
	PlaySound       bool        `json:"play_sound,omitempty"`
}

func newWarning(kind WarningType, now time.Time) Warning {
	w := Warning{Type: kind, Timestamp: now}
	switch kind {
	case WarningNoFace:
		w.Message, w.Severity = MessageNoFace, SeverityHigh
	case WarningLookAway:
		w.Message, w.Severity = MessageLookAway, SeverityMedium
	case WarningSleepiness:
		w.Message, w.Severity = MessageSleepiness, SeverityHigh
		w.PlaySound = true
	}
	return w
}

// Result is the per-frame output of the tracker.
type Result struct {
	FaceDetected       bool     `json:"face_detected"`
	FaceCount          int      `json:"face_count"`
	LookingAtScreen    bool     `json:"looking_at_screen"`
	AttentionLevel     int      `json:"attention_level"`
	EyeClosureDuration float64  `json:"eye_closure_duration"` // seconds
	IsSleepy           bool     `json:"is_sleepy"`
	Warning            *Warning `json:"warning"`
}

// Summary is returned when a session stops.
type Summary struct {
	SessionID           string              `json:"session_id"`
	TotalWarnings       int                 `json:"total_warnings"`
	Warnings            []Warning           `json:"warnings"`
	WarningCounts       map[WarningType]int `json:"warning_counts"`
	SessionDuration     float64             `json:"session_duration"` // seconds
	FocusedFrameCount   int                 `json:"focused_frame_count"`
	FaceFrameCount      int                 `json:"face_detected_count"`
	NoFaceStreakFinal   int                 `json:"no_face_count"`
	LookAwayStreakFinal int                 `json:"look_away_count"`
	StartedAt           time.Time           `json:"started_at"`
	StoppedAt           time.Time           `json:"stopped_at"`
}

// Snapshot is a read-only view of a live session.
type Snapshot struct {
	SessionID      string     `json:"session_id"`
	StartedAt      time.Time  `json:"started_at"`
	LastSeenAt     time.Time  `json:"last_seen_at"`
	AttentionLevel int        `json:"attention_level"`
	TotalWarnings  int        `json:"total_warnings"`
	NoFaceStreak   int        `json:"no_face_streak"`
	LookAwayStreak int        `json:"look_away_streak"`
	EyesClosedAt   *time.Time `json:"eyes_closed_since,omitempty"`
}
