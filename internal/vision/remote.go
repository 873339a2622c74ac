package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	defaultDetectorURL     = "http://localhost:8000"
	defaultDetectorTimeout = 10 * time.Second
)

// RemoteDetector calls an external face-state service that locates faces,
// eyes and eye landmarks in a frame.
type RemoteDetector struct {
	baseURL string
	client  *http.Client
}

// NewRemoteDetector creates a detector client. Empty baseURL and zero timeout use defaults.
func NewRemoteDetector(baseURL string, timeout time.Duration) *RemoteDetector {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	if timeout <= 0 {
		timeout = defaultDetectorTimeout
	}
	return &RemoteDetector{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service URL.
func (d *RemoteDetector) BaseURL() string {
	return d.baseURL
}

// remoteLandmarks holds optional 6-point eye contours.
type remoteLandmarks struct {
	LeftEye  [][2]float64 `json:"left_eye"`
	RightEye [][2]float64 `json:"right_eye"`
}

// remoteFace is one face as reported by the service, boxes as [x1, y1, x2, y2].
type remoteFace struct {
	BBox      []float64        `json:"bbox"`
	DetScore  float64          `json:"det_score"`
	Eyes      [][]float64      `json:"eyes"`
	Landmarks *remoteLandmarks `json:"landmarks,omitempty"`
	IsDrowsy  bool             `json:"is_drowsy"`
}

// detectResponse is the response of the face-state endpoint.
type detectResponse struct {
	FacesCount int          `json:"faces_count"`
	Faces      []remoteFace `json:"faces"`
}

// postFrame uploads the frame as multipart form data and returns the response body.
func (d *RemoteDetector) postFrame(ctx context.Context, endpoint string, frame *Frame) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="frame.%s"`, frame.Format))
	h.Set("Content-Type", frame.MIMEType())
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(frame.Raw); err != nil {
		return nil, fmt.Errorf("failed to write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// DetectFaces implements FaceDetector.
func (d *RemoteDetector) DetectFaces(ctx context.Context, frame *Frame) ([]Face, error) {
	body, err := d.postFrame(ctx, "/detect/faces", frame)
	if err != nil {
		return nil, err
	}

	var resp detectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for _, rf := range resp.Faces {
		box, ok := CornerBoxToRect(rf.BBox)
		if !ok {
			continue
		}
		face := Face{Box: box, Score: rf.DetScore, Drowsy: rf.IsDrowsy}
		for _, e := range rf.Eyes {
			if eyeBox, ok := CornerBoxToRect(e); ok {
				face.EyeBoxes = append(face.EyeBoxes, eyeBox)
			}
		}
		if rf.Landmarks != nil {
			face.LeftEye = toPoints(rf.Landmarks.LeftEye)
			face.RightEye = toPoints(rf.Landmarks.RightEye)
		}
		faces = append(faces, face)
	}
	return faces, nil
}

func toPoints(raw [][2]float64) []Point {
	if len(raw) == 0 {
		return nil
	}
	points := make([]Point, len(raw))
	for i, p := range raw {
		points[i] = Point{X: p[0], Y: p[1]}
	}
	return points
}
