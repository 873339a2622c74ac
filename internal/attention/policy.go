package attention

import (
	"errors"
	"fmt"
	"time"
)

// Policy holds the debounce windows, cooldowns and eye thresholds of the tracker.
// Frame counts assume roughly 30 frames per second.
type Policy struct {
	// NoFaceFrames is how many consecutive face-less frames are tolerated; the next one warns.
	NoFaceFrames int `yaml:"no_face_frames"`
	// LookAwayFrames is how many consecutive inattentive frames are tolerated; the next one warns.
	LookAwayFrames int `yaml:"look_away_frames"`

	SleepinessAfter    time.Duration `yaml:"sleepiness_after"`
	SleepinessCooldown time.Duration `yaml:"sleepiness_cooldown"`

	// OpenEyeAspectRatio: eyes are open when the landmark EAR is strictly above it.
	OpenEyeAspectRatio float64 `yaml:"open_eye_aspect_ratio"`
	// MinEyeAreaRatio: two located eyes still count as closed below this share of the face box.
	MinEyeAreaRatio float64 `yaml:"min_eye_area_ratio"`

	AlertEyeAspectRatio  float64 `yaml:"alert_eye_aspect_ratio"`
	DrowsyEyeAspectRatio float64 `yaml:"drowsy_eye_aspect_ratio"`
	LookingScore         int     `yaml:"looking_score"`
}

// DefaultPolicy returns the thresholds the classroom front-ends were tuned against.
func DefaultPolicy() Policy {
	return Policy{
		NoFaceFrames:         60,
		LookAwayFrames:       45,
		SleepinessAfter:      3 * time.Second,
		SleepinessCooldown:   5 * time.Second,
		OpenEyeAspectRatio:   0.25,
		MinEyeAreaRatio:      0.025,
		AlertEyeAspectRatio:  0.3,
		DrowsyEyeAspectRatio: 0.2,
		LookingScore:         70,
	}
}

// Validate reports the first nonsensical threshold.
func (p Policy) Validate() error {
	switch {
	case p.NoFaceFrames <= 0:
		return errors.New("no_face_frames must be positive")
	case p.LookAwayFrames <= 0:
		return errors.New("look_away_frames must be positive")
	case p.SleepinessAfter <= 0:
		return errors.New("sleepiness_after must be positive")
	case p.SleepinessCooldown < 0:
		return errors.New("sleepiness_cooldown must not be negative")
	case p.DrowsyEyeAspectRatio > p.AlertEyeAspectRatio:
		return fmt.Errorf("drowsy_eye_aspect_ratio %.3f is above alert_eye_aspect_ratio %.3f",
			p.DrowsyEyeAspectRatio, p.AlertEyeAspectRatio)
	case p.LookingScore < 0 || p.LookingScore > 100:
		return fmt.Errorf("looking_score %d outside [0,100]", p.LookingScore)
	}
	return nil
}

// EyesOpen decides whether the eyes of a face are open.
//
// Eye-box counts win over everything else: fewer than two located eyes means closed,
// whatever the EAR says, and two or more are still closed when their combined area
// is too small a share of the face. Without counts the landmark EAR decides, and the
// upstream boolean is only used when neither signal exists.
func (p Policy) EyesOpen(f FaceObservation) bool {
	if f.EyesDetected != nil {
		if *f.EyesDetected <= 1 {
			return false
		}
		if f.EyeAreaRatio != nil && *f.EyeAreaRatio < p.MinEyeAreaRatio {
			return false
		}
		return true
	}
	if f.EyeAspectRatio != nil {
		return *f.EyeAspectRatio > p.OpenEyeAspectRatio
	}
	if f.EyesOpenHint != nil {
		return *f.EyesOpenHint
	}
	return false
}

// Score computes the 0-100 attention level of a present face.
func (p Policy) Score(f FaceObservation, eyesOpen bool) int {
	score := 30
	if eyesOpen {
		score += 40
	} else {
		score -= 20
	}
	if f.HeadTilt.centered() && f.HeadNod.centered() {
		score += 30
	} else {
		score -= 15
	}
	if f.EyeAspectRatio != nil {
		switch ear := *f.EyeAspectRatio; {
		case ear > p.AlertEyeAspectRatio:
			score += 10
		case ear < p.DrowsyEyeAspectRatio:
			score -= 10
		}
	}
	return min(max(score, 0), 100)
}

// LookingAtScreen reports whether a face with the given score faces the screen with open eyes.
func (p Policy) LookingAtScreen(f FaceObservation, eyesOpen bool, score int) bool {
	return f.HeadTilt.centered() && f.HeadNod.centered() && eyesOpen && score >= p.LookingScore
}
