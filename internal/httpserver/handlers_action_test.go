package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"casedeck/internal/action"
)

// TestSaveActionRejectsForwardReference tests that POST /api/actions refuses
// a definition whose template points at a later step.
func TestSaveActionRejectsForwardReference(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	server := testServer(t, nil)

	body := `{
		"name": "bad-order",
		"definition": {"steps": [
			{"id": "first", "service": "llm", "input": {"prompt": "{{steps.second.output.text}}"}},
			{"id": "second", "service": "llm"}
		]}
	}`
	req := jsonRequest(http.MethodPost, "/api/actions", body)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d (body: %s)", w.Code, w.Body.String())
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "does not execute earlier") {
		t.Errorf("Unexpected error message: %q", resp.Error)
	}
}

// TestSaveAndGetAction tests the save / fetch round trip over the API.
func TestSaveAndGetAction(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	server := testServer(t, nil)

	body := `{
		"name": "triage",
		"description": "Classify an intake email",
		"definition": {"steps": [
			{"id": "classify", "service": "llm", "input": {"prompt": "Classify: {{input.text}}"}}
		]}
	}`
	req := jsonRequest(http.MethodPost, "/api/actions", body)
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d (body: %s)", w.Code, w.Body.String())
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/api/actions/triage", nil))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	var a action.Action
	if err := json.NewDecoder(w.Body).Decode(&a); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if a.Name != "triage" || len(a.Definition.Steps) != 1 {
		t.Errorf("Unexpected action: %+v", a)
	}
}

// TestDeleteBuiltinForbidden tests that DELETE on a built-in answers 403.
func TestDeleteBuiltinForbidden(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	server := testServer(t, nil)

	// Listing materializes the built-ins on disk first.
	req := authed(httptest.NewRequest(http.MethodGet, "/api/actions", nil))
	w := httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	req = authed(httptest.NewRequest(http.MethodDelete, "/api/actions/summarize-document", nil))
	w = httptest.NewRecorder()
	server.mux.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d (body: %s)", w.Code, w.Body.String())
	}
}
