package vision

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

func openEye() []Point {
	return []Point{{0, 5}, {3, 2}, {7, 2}, {10, 5}, {7, 8}, {3, 8}}
}

func closedEye() []Point {
	return []Point{{0, 5}, {3, 4.5}, {7, 4.5}, {10, 5}, {7, 5.5}, {3, 5.5}}
}

func TestEyeAspectRatio(t *testing.T) {
	tests := []struct {
		name     string
		eye      []Point
		expected float64
		ok       bool
	}{
		{name: "open eye", eye: openEye(), expected: 0.6, ok: true},
		{name: "closed eye", eye: closedEye(), expected: 0.1, ok: true},
		{name: "degenerate width", eye: []Point{{1, 1}, {1, 2}, {1, 2}, {1, 1}, {1, 0}, {1, 0}}, expected: 0, ok: true},
		{name: "five points", eye: openEye()[:5], ok: false},
		{name: "no points", eye: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ear, ok := EyeAspectRatio(tt.eye)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(ear-tt.expected) > 0.0001 {
				t.Errorf("EyeAspectRatio() = %v, want %v", ear, tt.expected)
			}
		})
	}
}

func TestEyeAreaRatio(t *testing.T) {
	face := image.Rect(0, 0, 100, 100)
	eyes := []image.Rectangle{image.Rect(20, 30, 40, 40), image.Rect(60, 30, 80, 40)}

	ratio, ok := EyeAreaRatio(face, eyes)
	if !ok || math.Abs(ratio-0.04) > 0.0001 {
		t.Errorf("expected ratio 0.04, got %v (ok=%v)", ratio, ok)
	}
	if _, ok := EyeAreaRatio(image.Rectangle{}, eyes); ok {
		t.Error("expected empty face box to be rejected")
	}
}

func TestCornerBoxToRect(t *testing.T) {
	r, ok := CornerBoxToRect([]float64{10.4, 20.6, 110.5, 220})
	if !ok {
		t.Fatal("expected conversion to succeed")
	}
	if r != image.Rect(10, 21, 111, 220) {
		t.Errorf("unexpected rect %v", r)
	}
	if _, ok := CornerBoxToRect([]float64{1, 2, 3}); ok {
		t.Error("expected short box to be rejected")
	}

	bb := ToBoundingBox(r)
	if bb != (attention.BoundingBox{X: 10, Y: 21, W: 101, H: 199}) {
		t.Errorf("unexpected bounding box %+v", bb)
	}
}

func TestCenterOffsetPose(t *testing.T) {
	frame := testFrame(t, 200, 100)
	pose := NewCenterOffsetPose()

	tests := []struct {
		name string
		box  image.Rectangle
		tilt attention.Tilt
		nod  attention.Nod
	}{
		{name: "centred", box: image.Rect(80, 30, 120, 70), tilt: attention.TiltCenter, nod: attention.NodCenter},
		{name: "far left", box: image.Rect(0, 30, 40, 70), tilt: attention.TiltLeft, nod: attention.NodCenter},
		{name: "far right", box: image.Rect(160, 30, 200, 70), tilt: attention.TiltRight, nod: attention.NodCenter},
		{name: "top", box: image.Rect(80, 0, 120, 20), tilt: attention.TiltCenter, nod: attention.NodUp},
		{name: "bottom right", box: image.Rect(160, 80, 200, 100), tilt: attention.TiltRight, nod: attention.NodDown},
		{name: "just inside threshold", box: image.Rect(110, 30, 150, 70), tilt: attention.TiltCenter, nod: attention.NodCenter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pose.EstimateHeadPose(context.Background(), frame, Face{Box: tt.box})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Tilt != tt.tilt || got.Nod != tt.nod {
				t.Errorf("got %s/%s, want %s/%s (offset %.2f, %.2f)", got.Tilt, got.Nod, tt.tilt, tt.nod, got.OffsetX, got.OffsetY)
			}
		})
	}
}

func TestGeometryEyeEstimator(t *testing.T) {
	ctx := context.Background()
	est := GeometryEyeEstimator{}

	t.Run("landmarks give EAR", func(t *testing.T) {
		state, err := est.EstimateEyeState(ctx, nil, Face{Box: image.Rect(0, 0, 100, 100), LeftEye: openEye(), RightEye: closedEye()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.EyeAspectRatio == nil || math.Abs(*state.EyeAspectRatio-0.35) > 0.0001 {
			t.Errorf("expected averaged EAR 0.35, got %v", state.EyeAspectRatio)
		}
		if state.EyesDetected != nil {
			t.Error("expected no eye count on the landmark path")
		}
	})

	t.Run("eye boxes give count and area", func(t *testing.T) {
		face := Face{
			Box:      image.Rect(0, 0, 100, 100),
			EyeBoxes: []image.Rectangle{image.Rect(20, 30, 40, 40), image.Rect(60, 30, 80, 40)},
		}
		state, err := est.EstimateEyeState(ctx, nil, face)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if state.EyesDetected == nil || *state.EyesDetected != 2 {
			t.Errorf("expected 2 eyes, got %v", state.EyesDetected)
		}
		if state.EyeAreaRatio == nil || math.Abs(*state.EyeAreaRatio-0.04) > 0.0001 {
			t.Errorf("expected area ratio 0.04, got %v", state.EyeAreaRatio)
		}
	})

	t.Run("no eyes found", func(t *testing.T) {
		state, _ := est.EstimateEyeState(ctx, nil, Face{Box: image.Rect(0, 0, 100, 100)})
		if state.EyesDetected == nil || *state.EyesDetected != 0 {
			t.Errorf("expected explicit zero eye count, got %v", state.EyesDetected)
		}
		if state.EyeAreaRatio != nil {
			t.Error("expected no area ratio without eyes")
		}
	})
}
