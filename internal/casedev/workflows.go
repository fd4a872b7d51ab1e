package casedev

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Workflow is an externally defined, externally executed automation template,
// distinct from a locally authored action.
type Workflow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentRef identifies one vault document in a combined execution request.
type DocumentRef struct {
	ID      string `json:"id"`
	VaultID string `json:"vaultId"`
	Name    string `json:"name"`
}

// ExecuteRequest is the payload for a single workflow execution.
type ExecuteRequest struct {
	Input   map[string]any `json:"input"`
	Options map[string]any `json:"options,omitempty"`
}

// ExecutionOutput is the result payload of a workflow execution: inline data
// for json/text formats, a download URL for pdf.
type ExecutionOutput struct {
	Format string          `json:"format,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	URL    string          `json:"url,omitempty"`
}

// ExecutionUsage reports token accounting for an execution.
type ExecutionUsage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

// ExecutionResult is the normalized result of one workflow execution.
// DocumentName is assigned locally when running in separate mode so each
// result stays attributable after the batch settles.
type ExecutionResult struct {
	ID           string          `json:"id,omitempty"`
	Status       string          `json:"status"`
	Output       ExecutionOutput `json:"output,omitempty"`
	Usage        *ExecutionUsage `json:"usage,omitempty"`
	DurationMS   int64           `json:"duration_ms,omitempty"`
	Error        string          `json:"error,omitempty"`
	DocumentName string          `json:"document_name,omitempty"`
}

// ListWorkflows returns the workflows available to the API key.
func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var resp struct {
		Workflows []Workflow `json:"workflows"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/workflows", nil, &resp); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	return resp.Workflows, nil
}

// Execute runs a workflow once with the given input.
func (c *Client) Execute(ctx context.Context, workflowID string, req ExecuteRequest) (*ExecutionResult, error) {
	var result ExecutionResult
	path := "/workflows/" + url.PathEscape(workflowID) + "/execute"
	if err := c.doJSON(ctx, http.MethodPost, path, req, &result); err != nil {
		return nil, fmt.Errorf("execute workflow: %w", err)
	}
	return &result, nil
}

// ExecuteCombined runs a workflow once over a set of documents; the server is
// responsible for combining their content.
func (c *Client) ExecuteCombined(ctx context.Context, workflowID string, docs []DocumentRef) (*ExecutionResult, error) {
	body := map[string]any{"documents": docs}
	var result ExecutionResult
	path := "/workflows/" + url.PathEscape(workflowID) + "/execute-combined"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, fmt.Errorf("execute combined workflow: %w", err)
	}
	return &result, nil
}
