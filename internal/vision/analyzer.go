package vision

import (
	"context"
	"fmt"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

// Analyzer turns a frame into tracker signals. Faces are detected once per
// frame and each face is handed to the eye and pose estimators, which reuse
// the detector's evidence instead of scanning the frame again.
type Analyzer struct {
	faces FaceDetector
	eyes  EyeStateEstimator
	pose  HeadPoseEstimator
}

// NewAnalyzer wires the three collaborators together.
func NewAnalyzer(faces FaceDetector, eyes EyeStateEstimator, pose HeadPoseEstimator) *Analyzer {
	return &Analyzer{faces: faces, eyes: eyes, pose: pose}
}

// NewRemoteAnalyzer builds the default pipeline around a remote face-state service.
func NewRemoteAnalyzer(detector *RemoteDetector) *Analyzer {
	return NewAnalyzer(detector, GeometryEyeEstimator{}, NewCenterOffsetPose())
}

// Analyze runs the collaborators over one frame.
func (a *Analyzer) Analyze(ctx context.Context, frame *Frame) (attention.Signals, error) {
	faces, err := a.faces.DetectFaces(ctx, frame)
	if err != nil {
		return attention.Signals{}, fmt.Errorf("detecting faces: %w", err)
	}

	signals := attention.Signals{Faces: make([]attention.FaceObservation, 0, len(faces))}
	for i, face := range faces {
		eyes, err := a.eyes.EstimateEyeState(ctx, frame, face)
		if err != nil {
			return attention.Signals{}, fmt.Errorf("estimating eye state of face %d: %w", i, err)
		}
		pose, err := a.pose.EstimateHeadPose(ctx, frame, face)
		if err != nil {
			return attention.Signals{}, fmt.Errorf("estimating head pose of face %d: %w", i, err)
		}
		signals.Faces = append(signals.Faces, attention.FaceObservation{
			BoundingBox:    ToBoundingBox(face.Box),
			EyeAspectRatio: eyes.EyeAspectRatio,
			EyesDetected:   eyes.EyesDetected,
			EyeAreaRatio:   eyes.EyeAreaRatio,
			HeadTilt:       pose.Tilt,
			HeadNod:        pose.Nod,
			Drowsy:         face.Drowsy,
		})
	}
	return signals, nil
}
