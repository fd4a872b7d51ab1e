package httpserver

import "casedeck/internal/casedev"

// ErrorResponse is the uniform error body for all endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by the health check endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// CreateVaultRequest creates a new document vault
type CreateVaultRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SearchRequest runs a query over a vault's indexed documents
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SubmitResponse is returned by job submission endpoints
type SubmitResponse struct {
	ID string `json:"id"`
}

// ExecuteWorkflowRequest is the body for a single workflow execution
type ExecuteWorkflowRequest struct {
	Input   map[string]any `json:"input"`
	Options map[string]any `json:"options,omitempty"`
}

// CombinedRequest is the body for a combined workflow execution
type CombinedRequest struct {
	Documents []casedev.DocumentRef `json:"documents"`
}

// RunWorkflowRequest is the body for a fan-out run over selected documents
type RunWorkflowRequest struct {
	Documents []casedev.DocumentRef `json:"documents"`
	Mode      string                `json:"mode"` // "separate" or "combined"
}

// RunWorkflowResponse carries the normalized results of one fan-out batch
type RunWorkflowResponse struct {
	Results []casedev.ExecutionResult `json:"results"`
}

// UpdateColumnsRequest replaces an analysis column set
type UpdateColumnsRequest struct {
	Columns []casedev.ExtractionColumn `json:"columns"`
}

// AssistantRequest is one user turn addressed to the assistant
type AssistantRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// AssistantResponse is the assistant's reply
type AssistantResponse struct {
	Reply string `json:"reply"`
}
