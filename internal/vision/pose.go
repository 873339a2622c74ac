package vision

import (
	"context"
	"math"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

// DefaultPoseOffset is the normalised centre offset beyond which a head counts as turned.
const DefaultPoseOffset = 0.3

// CenterOffsetPose estimates head pose from where the face box sits relative
// to the frame centre. A student facing the camera is centred in it.
type CenterOffsetPose struct {
	Threshold float64
}

// NewCenterOffsetPose creates the estimator with the default threshold.
func NewCenterOffsetPose() *CenterOffsetPose {
	return &CenterOffsetPose{Threshold: DefaultPoseOffset}
}

// EstimateHeadPose implements HeadPoseEstimator.
func (p *CenterOffsetPose) EstimateHeadPose(_ context.Context, frame *Frame, face Face) (HeadPose, error) {
	box := face.Box.Canon()
	frameCenterX := frame.Width() / 2
	frameCenterY := frame.Height() / 2

	pose := HeadPose{Tilt: attention.TiltCenter, Nod: attention.NodCenter}
	if frameCenterX == 0 || frameCenterY == 0 {
		return pose, nil
	}

	faceCenterX := box.Min.X + box.Dx()/2
	faceCenterY := box.Min.Y + box.Dy()/2
	pose.OffsetX = float64(faceCenterX-frameCenterX) / float64(frameCenterX)
	pose.OffsetY = float64(faceCenterY-frameCenterY) / float64(frameCenterY)

	if math.Abs(pose.OffsetX) > p.Threshold {
		if pose.OffsetX < 0 {
			pose.Tilt = attention.TiltLeft
		} else {
			pose.Tilt = attention.TiltRight
		}
	}
	if math.Abs(pose.OffsetY) > p.Threshold {
		if pose.OffsetY < 0 {
			pose.Nod = attention.NodUp
		} else {
			pose.Nod = attention.NodDown
		}
	}
	return pose, nil
}
