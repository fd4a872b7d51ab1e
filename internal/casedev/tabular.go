package casedev

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Column data types accepted by the extraction service.
const (
	DataTypeText    = "text"
	DataTypeNumber  = "number"
	DataTypeBoolean = "boolean"
	DataTypeDate    = "date"
)

// ExtractionColumn describes one extracted field across all documents of a
// tabular analysis. Order is a dense display rank; gaps carry no meaning.
type ExtractionColumn struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Prompt   string `json:"prompt"`
	DataType string `json:"dataType"`
	Order    int    `json:"order"`
	ModelID  string `json:"modelId,omitempty"`
}

// CellValue is one extracted cell. A nil Value means "not yet computed",
// which is distinct from a computed falsy value; Error marks a cell whose
// extraction failed.
type CellValue struct {
	Value      any      `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reasoning  string   `json:"reasoning,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	TokensUsed int      `json:"tokensUsed,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// AnalysisRow holds the extracted cells for one document. Data contains a key
// for a column only once that cell has a value; pending cells are absent.
type AnalysisRow struct {
	DocumentID string               `json:"documentId"`
	Data       map[string]CellValue `json:"data"`
}

// TabularAnalysis is the remote analysis resource: a (document x column)
// extraction over a vault's documents, filled asynchronously by the service.
type TabularAnalysis struct {
	ID        string             `json:"id"`
	Name      string             `json:"name,omitempty"`
	VaultID   string             `json:"vault_id,omitempty"`
	Status    string             `json:"status"`
	Columns   []ExtractionColumn `json:"columns,omitempty"`
	Documents []DocumentRef      `json:"documents,omitempty"`
	Rows      []AnalysisRow      `json:"rows,omitempty"`
	Error     string             `json:"error,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}

// GetAnalysis fetches the current representation of a tabular analysis.
func (c *Client) GetAnalysis(ctx context.Context, id string) (*TabularAnalysis, error) {
	var a TabularAnalysis
	if err := c.doJSON(ctx, http.MethodGet, "/tabular-analysis/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, fmt.Errorf("get tabular analysis: %w", err)
	}
	return &a, nil
}

// RunAnalysisWorkflow triggers extraction for an analysis. The call is
// fire-and-forget; progress is observed only by polling GetAnalysis.
func (c *Client) RunAnalysisWorkflow(ctx context.Context, id string) error {
	path := "/tabular-analysis/" + url.PathEscape(id) + "/run-workflow"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("run analysis workflow: %w", err)
	}
	return nil
}

// UpdateColumns replaces the analysis column set. Structural edits are a
// direct awaited call, separate from the polling loop.
func (c *Client) UpdateColumns(ctx context.Context, id string, columns []ExtractionColumn) (*TabularAnalysis, error) {
	body := map[string]any{"columns": columns}
	var a TabularAnalysis
	path := "/tabular-analysis/" + url.PathEscape(id) + "/columns"
	if err := c.doJSON(ctx, http.MethodPut, path, body, &a); err != nil {
		return nil, fmt.Errorf("update analysis columns: %w", err)
	}
	return &a, nil
}
