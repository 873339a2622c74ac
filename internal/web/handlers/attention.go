package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/kozaktomas/classroom-monitor/internal/attention"
	"github.com/kozaktomas/classroom-monitor/internal/database"
	"github.com/kozaktomas/classroom-monitor/internal/vision"
)

// FrameAnalyzer turns a decoded frame into tracker signals.
type FrameAnalyzer interface {
	Analyze(ctx context.Context, frame *vision.Frame) (attention.Signals, error)
}

// AttentionHandler handles attention monitoring endpoints.
type AttentionHandler struct {
	tracker  *attention.Tracker
	analyzer FrameAnalyzer
	archive  database.SummaryWriter
	hub      *WarningHub
}

// NewAttentionHandler creates a new attention handler. analyzer and archive
// may be nil, which disables image frames and summary archiving respectively.
func NewAttentionHandler(tracker *attention.Tracker, analyzer FrameAnalyzer, archive database.SummaryWriter, hub *WarningHub) *AttentionHandler {
	return &AttentionHandler{
		tracker:  tracker,
		analyzer: analyzer,
		archive:  archive,
		hub:      hub,
	}
}

type sessionRequest struct {
	SessionID string `json:"session_id"`
}

type processRequest struct {
	SessionID string `json:"session_id"`
	Image     string `json:"image"`
}

type signalsRequest struct {
	SessionID string                      `json:"session_id"`
	Faces     []attention.FaceObservation `json:"faces"`
}

type processResponse struct {
	Status    string             `json:"status"`
	Attention attention.Result   `json:"attention"`
	Warning   *attention.Warning `json:"warning"`
}

type stopResponse struct {
	Status    string            `json:"status"`
	Summary   attention.Summary `json:"summary"`
	ArchiveID *uuid.UUID        `json:"archive_id,omitempty"`
}

// frameError carries the HTTP status and client message of a failed frame.
type frameError struct {
	status  int
	message string
	err     error
}

func (e *frameError) Error() string {
	if e.err != nil {
		return e.message + ": " + e.err.Error()
	}
	return e.message
}

func (e *frameError) Unwrap() error {
	return e.err
}

// Start handles POST /api/attention/start
func (h *AttentionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	sessionID := sessionIDOrDefault(req.SessionID)
	h.tracker.Start(sessionID)

	respondJSON(w, http.StatusOK, map[string]string{
		"status":     "success",
		"message":    "Attention monitoring started",
		"session_id": sessionID,
	})
}

// Process handles POST /api/attention/process
func (h *AttentionHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	resp, err := h.processFrame(r.Context(), req)
	if err != nil {
		var fe *frameError
		if errors.As(err, &fe) {
			respondError(w, fe.status, fe.message)
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// processFrame decodes, analyzes and tracks one image frame.
func (h *AttentionHandler) processFrame(ctx context.Context, req processRequest) (*processResponse, error) {
	if req.Image == "" {
		return nil, &frameError{status: http.StatusBadRequest, message: "No image data provided"}
	}

	frame, err := vision.DecodeBase64Frame(req.Image)
	if err != nil {
		return nil, &frameError{status: http.StatusBadRequest, message: "Failed to process image", err: err}
	}

	if h.analyzer == nil {
		return nil, &frameError{status: http.StatusServiceUnavailable, message: "frame analysis not configured"}
	}

	signals, err := h.analyzer.Analyze(ctx, frame)
	if err != nil {
		log.Printf("Frame analysis failed for session %s: %v", sanitizeForLog(req.SessionID), err)
		return nil, &frameError{status: http.StatusBadGateway, message: "face detector unavailable", err: err}
	}

	res := h.tracker.Process(sessionIDOrDefault(req.SessionID), signals)
	return &processResponse{Status: "success", Attention: res, Warning: res.Warning}, nil
}

// Signals handles POST /api/attention/signals for clients that run the
// detectors themselves and only send per-face observations.
func (h *AttentionHandler) Signals(w http.ResponseWriter, r *http.Request) {
	var req signalsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	res := h.tracker.Process(sessionIDOrDefault(req.SessionID), attention.Signals{Faces: req.Faces})
	respondJSON(w, http.StatusOK, processResponse{Status: "success", Attention: res, Warning: res.Warning})
}

// Stop handles POST /api/attention/stop
func (h *AttentionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	summary := h.tracker.Stop(sessionIDOrDefault(req.SessionID))
	h.hub.SessionStopped(summary)

	resp := stopResponse{Status: "success", Summary: summary}
	if h.archive != nil {
		archived, err := h.archive.SaveSummary(r.Context(), summary, database.ReasonStopped)
		if err != nil {
			log.Printf("Failed to archive session %s: %v", sanitizeForLog(summary.SessionID), err)
		} else {
			resp.ArchiveID = &archived.ID
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// Sessions handles GET /api/attention/sessions
func (h *AttentionHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	snapshots := h.tracker.Store().Snapshots()
	respondJSON(w, http.StatusOK, map[string]any{
		"sessions": snapshots,
		"count":    len(snapshots),
	})
}
