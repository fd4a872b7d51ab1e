package httpserver

import (
	"encoding/json"
	"net/http"

	"casedeck/internal/assistant"
)

// handleAssistant handles POST /api/assistant: one conversational turn,
// including any tool calls the assistant makes against the workspace.
func (s *HTTPServer) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := assistant.Run(r.Context(), s.client, assistant.RunOptions{
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, AssistantResponse{Reply: result.Reply})
}
