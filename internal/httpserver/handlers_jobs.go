package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"casedeck/internal/casedev"
)

// handleOCRSubmit handles POST /api/ocr.
func (s *HTTPServer) handleOCRSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req casedev.OCRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.client.SubmitOCR(r.Context(), req)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, SubmitResponse{ID: id})
}

// handleOCRGet handles GET /api/ocr/:id.
func (s *HTTPServer) handleOCRGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/ocr/"), "/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	job, err := s.client.GetOCRJob(r.Context(), id)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// handleTranscriptionSubmit handles POST /api/transcription.
func (s *HTTPServer) handleTranscriptionSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req casedev.TranscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.client.SubmitTranscription(r.Context(), req)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, SubmitResponse{ID: id})
}

// handleTranscriptionGet handles GET /api/transcription/:id and
// GET /api/transcription/streaming-url.
func (s *HTTPServer) handleTranscriptionGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/transcription/"), "/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	if id == "streaming-url" {
		u, expiresAt, err := s.client.StreamingURL(r.Context())
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"url":        u,
			"expires_at": expiresAt.Format(time.RFC3339),
		})
		return
	}

	job, err := s.client.GetTranscriptionJob(r.Context(), id)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, job)
}
