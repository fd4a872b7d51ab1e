package casedev

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// OCR engine identifiers accepted by the remote service.
const (
	OCREngineDoctr     = "doctr"
	OCREngineTesseract = "tesseract"
	OCREnginePaddle    = "paddle"
	OCREngineGoogle    = "google"
)

// OCRFeatures toggles optional processing on an OCR job.
type OCRFeatures struct {
	Embed  bool `json:"embed,omitempty"`
	Tables bool `json:"tables,omitempty"`
}

// OCRRequest submits a document for OCR, either by URL or by vault object
// reference. Exactly one of DocumentURL or VaultID+ObjectID must be set.
type OCRRequest struct {
	DocumentURL string      `json:"documentUrl,omitempty"`
	VaultID     string      `json:"vaultId,omitempty"`
	ObjectID    string      `json:"objectId,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	Engine      string      `json:"engine"`
	Features    OCRFeatures `json:"features"`
}

// Validate checks the request shape before any network call.
func (r OCRRequest) Validate() error {
	hasURL := r.DocumentURL != ""
	hasRef := r.VaultID != "" && r.ObjectID != ""
	if hasURL == hasRef {
		return fmt.Errorf("exactly one of documentUrl or vaultId+objectId is required")
	}
	switch r.Engine {
	case OCREngineDoctr, OCREngineTesseract, OCREnginePaddle, OCREngineGoogle:
		return nil
	}
	return fmt.Errorf("unknown OCR engine %q", r.Engine)
}

// OCRJob is the remote job representation. Result fields are populated only
// once Status is terminal; progress counters update while processing.
type OCRJob struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	Engine          string     `json:"engine,omitempty"`
	Filename        string     `json:"filename,omitempty"`
	ChunksCompleted int        `json:"chunks_completed"`
	ChunkCount      int        `json:"chunk_count"`
	Text            string     `json:"text,omitempty"`
	PageCount       int        `json:"page_count,omitempty"`
	Error           string     `json:"error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// SubmitOCR queues an OCR job and returns its id. Progress is observed by
// polling GetOCRJob.
func (c *Client) SubmitOCR(ctx context.Context, req OCRRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/ocr", req, &resp); err != nil {
		return "", fmt.Errorf("submit OCR job: %w", err)
	}
	return resp.ID, nil
}

// GetOCRJob fetches the current representation of an OCR job.
func (c *Client) GetOCRJob(ctx context.Context, id string) (*OCRJob, error) {
	var job OCRJob
	if err := c.doJSON(ctx, http.MethodGet, "/ocr/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, fmt.Errorf("get OCR job: %w", err)
	}
	return &job, nil
}
