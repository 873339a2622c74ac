package vision

import "context"

// GeometryEyeEstimator derives eye state from the evidence a detector attached
// to the face: landmark EAR when both eyes have 6 points, otherwise the count
// and relative area of detected eye boxes.
type GeometryEyeEstimator struct{}

// EstimateEyeState implements EyeStateEstimator.
func (GeometryEyeEstimator) EstimateEyeState(_ context.Context, _ *Frame, face Face) (EyeState, error) {
	left, okLeft := EyeAspectRatio(face.LeftEye)
	right, okRight := EyeAspectRatio(face.RightEye)
	if okLeft && okRight {
		avg := (left + right) / 2.0
		return EyeState{EyeAspectRatio: &avg}, nil
	}

	count := len(face.EyeBoxes)
	state := EyeState{EyesDetected: &count}
	if ratio, ok := EyeAreaRatio(face.Box, face.EyeBoxes); ok && count > 0 {
		state.EyeAreaRatio = &ratio
	}
	return state, nil
}
