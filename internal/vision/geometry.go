package vision

import (
	"image"
	"math"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
)

// Point is a landmark position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// EyeAspectRatio computes EAR = (|p2-p6| + |p3-p5|) / (2|p1-p4|) for a 6-point eye.
// ok is false when the landmarks are not usable.
func EyeAspectRatio(eye []Point) (ear float64, ok bool) {
	if len(eye) != 6 {
		return 0, false
	}
	h := distance(eye[0], eye[3])
	if h == 0 {
		return 0, true
	}
	v1 := distance(eye[1], eye[5])
	v2 := distance(eye[2], eye[4])
	return (v1 + v2) / (2.0 * h), true
}

// EyeAreaRatio returns the combined area of the eye boxes relative to the face box.
func EyeAreaRatio(face image.Rectangle, eyes []image.Rectangle) (float64, bool) {
	faceArea := area(face)
	if faceArea == 0 {
		return 0, false
	}
	var sum int
	for _, e := range eyes {
		sum += area(e)
	}
	return float64(sum) / float64(faceArea), true
}

func area(r image.Rectangle) int {
	r = r.Canon()
	return r.Dx() * r.Dy()
}

// CornerBoxToRect converts an [x1, y1, x2, y2] box to a rectangle, rounding to pixels.
func CornerBoxToRect(bbox []float64) (image.Rectangle, bool) {
	if len(bbox) != 4 {
		return image.Rectangle{}, false
	}
	return image.Rect(
		int(math.Round(bbox[0])),
		int(math.Round(bbox[1])),
		int(math.Round(bbox[2])),
		int(math.Round(bbox[3])),
	), true
}

// ToBoundingBox converts a rectangle to the tracker's x/y/w/h box.
func ToBoundingBox(r image.Rectangle) attention.BoundingBox {
	r = r.Canon()
	return attention.BoundingBox{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}
