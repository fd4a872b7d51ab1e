package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
)

// handleTabularSubpath routes GET /api/tabular-analysis/:id,
// POST /api/tabular-analysis/:id/run-workflow, and
// PUT /api/tabular-analysis/:id/columns.
func (s *HTTPServer) handleTabularSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tabular-analysis/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	analysisID := parts[0]

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		a, err := s.client.GetAnalysis(r.Context(), analysisID)
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, a)

	case len(parts) == 2 && parts[1] == "run-workflow":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if err := s.client.RunAnalysisWorkflow(r.Context(), analysisID); err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})

	case len(parts) == 2 && parts[1] == "columns":
		if r.Method != http.MethodPut {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req UpdateColumnsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		a, err := s.client.UpdateColumns(r.Context(), analysisID, req.Columns)
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, a)

	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}
