package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"casedeck/internal/events"
)

// EventVaultCreated is published on the bus when a vault is created through
// the API, so other surfaces can refresh their vault lists.
const EventVaultCreated = "vault.created"

// handleVaults handles GET /api/vaults (list) and POST /api/vaults (create).
func (s *HTTPServer) handleVaults(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		vaults, err := s.client.ListVaults(r.Context())
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"vaults": vaults})

	case http.MethodPost:
		var req CreateVaultRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if req.Name == "" {
			respondError(w, http.StatusBadRequest, "name is required")
			return
		}
		v, err := s.client.CreateVault(r.Context(), req.Name, req.Description)
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		if s.bus != nil {
			s.bus.Publish(events.Event{Name: EventVaultCreated, Payload: v})
		}
		respondJSON(w, http.StatusCreated, v)

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleVaultSubpath routes /api/vaults/:id/objects, /api/vaults/:id/search,
// and /api/vaults/:id/objects/:objectId/text.
func (s *HTTPServer) handleVaultSubpath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/vaults/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	vaultID := parts[0]

	switch {
	case len(parts) == 2 && parts[1] == "objects":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		objects, err := s.client.ListObjects(r.Context(), vaultID)
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"objects": objects})

	case len(parts) == 2 && parts[1] == "search":
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req SearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if req.Query == "" {
			respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		hits, err := s.client.Search(r.Context(), vaultID, req.Query, req.Limit)
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"results": hits})

	case len(parts) == 4 && parts[1] == "objects" && parts[3] == "text":
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		text, err := s.client.ObjectText(r.Context(), vaultID, parts[2])
		if err != nil {
			respondUpstreamError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"text": text})

	default:
		respondError(w, http.StatusNotFound, "not found")
	}
}
