package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database/mock"
)

func newTestServer(t *testing.T, withArchive bool) (*Server, *attention.Tracker) {
	t.Helper()
	tracker := attention.NewTracker(attention.DefaultPolicy(), attention.NewStore(0))
	var srv *Server
	if withArchive {
		srv = NewServer(0, "127.0.0.1", tracker, nil, mock.NewMockSummaryStore())
	} else {
		srv = NewServer(0, "127.0.0.1", tracker, nil, nil)
	}
	return srv, tracker
}

func serve(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	srv, _ := newTestServer(t, true)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodPost, "/api/attention/start", `{"session_id":"r"}`, http.StatusOK},
		{http.MethodPost, "/api/attention/signals", `{"session_id":"r","faces":[]}`, http.StatusOK},
		{http.MethodPost, "/api/attention/process", `{"session_id":"r"}`, http.StatusBadRequest},
		{http.MethodGet, "/api/attention/sessions", "", http.StatusOK},
		{http.MethodPost, "/api/attention/stop", `{"session_id":"r"}`, http.StatusOK},
		{http.MethodGet, "/api/attention/history?limit=5", "", http.StatusOK},
		{http.MethodGet, "/api/attention/history/not-a-uuid", "", http.StatusBadRequest},
		{http.MethodGet, "/api/attention/start", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(srv, tc.method, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d\nBody: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_HistoryWithoutDatabase(t *testing.T) {
	srv, _ := newTestServer(t, false)

	rec := serve(srv, http.MethodGet, "/api/attention/history", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without archive, got %d", rec.Code)
	}

	// Stopping still works without an archive.
	rec = serve(srv, http.MethodPost, "/api/attention/stop", `{"session_id":"r"}`)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "archive_id") {
		t.Errorf("unexpected stop response %d %s", rec.Code, rec.Body.String())
	}
}

func TestServer_StopArchivesToStore(t *testing.T) {
	srv, _ := newTestServer(t, true)

	serve(srv, http.MethodPost, "/api/attention/start", `{"session_id":"lesson"}`)
	serve(srv, http.MethodPost, "/api/attention/stop", `{"session_id":"lesson"}`)

	rec := serve(srv, http.MethodGet, "/api/attention/history", "")
	var resp struct {
		Count     int `json:"count"`
		Summaries []struct {
			SessionID string `json:"session_id"`
			Reason    string `json:"reason"`
		} `json:"summaries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if resp.Count != 1 || resp.Summaries[0].SessionID != "lesson" || resp.Summaries[0].Reason != "stopped" {
		t.Errorf("unexpected history %+v", resp)
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://class.example.com")
	srv, _ := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/attention/process", nil)
	req.Header.Set("Origin", "https://class.example.com")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected preflight 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://class.example.com" {
		t.Errorf("expected allow-origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestServer_WarningsReachHub(t *testing.T) {
	srv, tracker := newTestServer(t, false)
	ch := srv.hub.AddListener("r")
	defer srv.hub.RemoveListener("r", ch)

	for range 61 {
		tracker.Process("r", attention.Signals{})
	}

	select {
	case ev := <-ch:
		if ev.Warning == nil || ev.Warning.Type != attention.WarningNoFace {
			t.Errorf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected tracker warning forwarded to hub")
	}
}
