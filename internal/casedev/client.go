package casedev

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the production Case.dev API endpoint.
	DefaultBaseURL = "https://api.case.dev"

	// maxResponseSize caps how much of an API response body we read.
	maxResponseSize = 4 << 20
)

// Client is a thin typed client for the Case.dev REST API. All substantive
// work (storage, search, OCR, transcription, workflow execution) happens on
// the remote service; the client only shapes requests and decodes responses.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a Client for the given base URL and bearer API key.
// An empty baseURL falls back to DefaultBaseURL.
func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		// No request timeout: long OCR/workflow submissions are governed by
		// the caller's context, matching the rest of the system.
		http: &http.Client{},
	}
}

// APIError is a non-2xx answer from the Case.dev API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("case.dev: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("case.dev: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusNotFound
}

// doJSON performs one API call. A nil body sends no payload; a nil out
// discards the response. Non-2xx responses become *APIError with the
// server-provided message when one is present.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("build API URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Message: extractErrorMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractErrorMessage pulls a human-readable message out of an error body.
// The API answers either {"error": "..."} or {"error": {"message": "..."}}.
func extractErrorMessage(data []byte) string {
	var wrapped struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil || len(wrapped.Error) == 0 {
		return strings.TrimSpace(string(data))
	}

	var msg string
	if err := json.Unmarshal(wrapped.Error, &msg); err == nil {
		return msg
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(wrapped.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return strings.TrimSpace(string(wrapped.Error))
}
