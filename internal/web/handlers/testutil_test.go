package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database"
	"github.com/kozaktomas/classroom-monitor/internal/vision"
)

var testEpoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// testClock is a manually advanced clock for tracker timing
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// stubAnalyzer returns fixed signals for every frame
type stubAnalyzer struct {
	signals attention.Signals
	err     error
	calls   int
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ *vision.Frame) (attention.Signals, error) {
	s.calls++
	return s.signals, s.err
}

// testEnv bundles an attention handler with the collaborators tests inspect
type testEnv struct {
	handler *AttentionHandler
	tracker *attention.Tracker
	hub     *WarningHub
	clock   *testClock
}

// newTestEnv wires a handler to a fresh tracker driven by a test clock.
// archive may be nil.
func newTestEnv(t *testing.T, analyzer FrameAnalyzer, archive database.SummaryWriter) *testEnv {
	t.Helper()
	clock := &testClock{t: testEpoch}
	tracker := attention.NewTracker(attention.DefaultPolicy(), attention.NewStore(0))
	tracker.SetClock(clock.now)
	hub := NewWarningHub()
	tracker.OnWarning(hub.Publish)
	return &testEnv{
		handler: NewAttentionHandler(tracker, analyzer, archive, hub),
		tracker: tracker,
		hub:     hub,
		clock:   clock,
	}
}

// postJSON invokes a handler with a JSON body
func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

// mustJSON marshals v or fails the test
func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// pngDataURL returns a tiny PNG frame encoded the way browsers send canvas captures
func pngDataURL(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// attentiveSignals is one centred face with open eyes
func attentiveSignals() attention.Signals {
	eyes := 2
	ratio := 0.04
	return attention.Signals{Faces: []attention.FaceObservation{{
		BoundingBox:  attention.BoundingBox{X: 10, Y: 10, W: 40, H: 40},
		EyesDetected: &eyes,
		EyeAreaRatio: &ratio,
		HeadTilt:     attention.TiltCenter,
		HeadNod:      attention.NodCenter,
	}}}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
