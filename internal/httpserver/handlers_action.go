package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"casedeck/internal/action"
)

// handleActions handles GET /api/actions (list) and POST /api/actions (save).
// Definitions are validated before they are written to the library, so a
// step referencing a later step is rejected at authoring time.
func (s *HTTPServer) handleActions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		actions, err := action.List()
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"actions": actions})

	case http.MethodPost:
		var a action.Action
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
		if err := action.Save(&a); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondJSON(w, http.StatusCreated, a)

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleActionByName handles GET and DELETE /api/actions/:name, plus
// POST /api/actions/:name/run to execute the action locally.
func (s *HTTPServer) handleActionByName(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/actions/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	name := parts[0]

	if len(parts) == 2 && parts[1] == "run" {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleActionRun(w, r, name)
		return
	}
	if len(parts) != 1 {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a, err := action.Get(name)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, a)

	case http.MethodDelete:
		a, err := action.Get(name)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		if a.BuiltIn {
			respondError(w, http.StatusForbidden, "built-in actions cannot be deleted")
			return
		}
		if err := action.Delete(name); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleActionRun executes a saved action's steps in order with the provided
// input bindings.
func (s *HTTPServer) handleActionRun(w http.ResponseWriter, r *http.Request, name string) {
	a, err := action.Get(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	var body struct {
		Input map[string]any `json:"input"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}

	engine := action.NewEngine(action.NewRemoteExecutor(s.client))
	result, err := engine.Run(r.Context(), a.Definition, body.Input)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
