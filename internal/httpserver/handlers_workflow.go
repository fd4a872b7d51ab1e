package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"casedeck/internal/casedev"
	"casedeck/internal/runner"
)

// handleListWorkflows handles GET /api/workflows.
func (s *HTTPServer) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	workflows, err := s.client.ListWorkflows(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"workflows": workflows})
}

// handleWorkflowSubpath routes POST /api/workflows/:id/execute,
// POST /api/workflows/:id/execute-combined, and POST /api/workflows/:id/run.
func (s *HTTPServer) handleWorkflowSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/workflows/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	workflowID := parts[0]

	switch parts[1] {
	case "execute":
		s.handleExecute(w, r, workflowID)
	case "execute-combined":
		s.handleExecuteCombined(w, r, workflowID)
	case "run":
		s.handleRun(w, r, workflowID)
	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleExecute(w http.ResponseWriter, r *http.Request, workflowID string) {
	var req ExecuteWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Input) == 0 {
		respondError(w, http.StatusBadRequest, "input is required")
		return
	}

	result, err := s.client.Execute(r.Context(), workflowID, casedev.ExecuteRequest{
		Input:   req.Input,
		Options: req.Options,
	})
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleExecuteCombined(w http.ResponseWriter, r *http.Request, workflowID string) {
	var req CombinedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		respondError(w, http.StatusBadRequest, "at least one document is required")
		return
	}

	result, err := s.client.ExecuteCombined(r.Context(), workflowID, req.Documents)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleRun fans a workflow out over the selected documents. The guard
// rejects degenerate batches before any upstream call is made.
func (s *HTTPServer) handleRun(w http.ResponseWriter, r *http.Request, workflowID string) {
	var req RunWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if !runner.CanRun(workflowID, req.Documents) {
		respondError(w, http.StatusBadRequest, "select a workflow and at least one document before running")
		return
	}

	mode := runner.Mode(req.Mode)
	if mode == "" {
		mode = runner.ModeSeparate
	}

	batch, err := s.runner.Run(r.Context(), workflowID, req.Documents, mode)
	if err != nil {
		if errors.Is(err, runner.ErrBusy) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, RunWorkflowResponse{Results: batch.Results})
}
