// Package vision adapts computer-vision collaborators (face detection, eye
// state and head pose) into per-frame attention signals.
package vision

import (
	"context"
	"image"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

// Face is one detected face. Detectors fill in whatever extra evidence they
// have so downstream estimators can reuse it without another pass over the frame.
type Face struct {
	Box      image.Rectangle
	Score    float64
	EyeBoxes []image.Rectangle
	LeftEye  []Point // 6-point landmarks, empty when unavailable
	RightEye []Point
	Drowsy   bool
}

// EyeState is the eye evidence for one face. Nil fields were not measured.
type EyeState struct {
	EyesDetected   *int
	EyeAreaRatio   *float64
	EyeAspectRatio *float64
}

// HeadPose is the coarse orientation of a face.
type HeadPose struct {
	Tilt    attention.Tilt
	Nod     attention.Nod
	OffsetX float64 // normalised horizontal offset from the frame centre
	OffsetY float64
}

// FaceDetector finds faces in a frame.
type FaceDetector interface {
	DetectFaces(ctx context.Context, frame *Frame) ([]Face, error)
}

// EyeStateEstimator measures eye openness for one face.
type EyeStateEstimator interface {
	EstimateEyeState(ctx context.Context, frame *Frame, face Face) (EyeState, error)
}

// HeadPoseEstimator classifies head orientation for one face.
type HeadPoseEstimator interface {
	EstimateHeadPose(ctx context.Context, frame *Frame, face Face) (HeadPose, error)
}
