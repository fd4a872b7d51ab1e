package casedev

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Vault is an API-managed container of uploaded documents with search and
// indexing handled by the remote ingestion pipeline.
type Vault struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ObjectCount int       `json:"object_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VaultObject is a single document inside a vault. Status reflects the
// remote ingestion (OCR + indexing) pipeline, not any local processing.
type VaultObject struct {
	ID          string    `json:"id"`
	VaultID     string    `json:"vault_id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	Status      string    `json:"status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchHit is one vault search result.
type SearchHit struct {
	ObjectID string  `json:"object_id"`
	Name     string  `json:"name"`
	Snippet  string  `json:"snippet,omitempty"`
	Score    float64 `json:"score"`
}

// ListVaults returns all vaults visible to the API key.
func (c *Client) ListVaults(ctx context.Context) ([]Vault, error) {
	var resp struct {
		Vaults []Vault `json:"vaults"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/vaults", nil, &resp); err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	return resp.Vaults, nil
}

// CreateVault creates a new vault and returns its record.
func (c *Client) CreateVault(ctx context.Context, name, description string) (*Vault, error) {
	body := map[string]string{"name": name}
	if description != "" {
		body["description"] = description
	}
	var v Vault
	if err := c.doJSON(ctx, http.MethodPost, "/vaults", body, &v); err != nil {
		return nil, fmt.Errorf("create vault: %w", err)
	}
	return &v, nil
}

// ListObjects returns the documents in a vault.
func (c *Client) ListObjects(ctx context.Context, vaultID string) ([]VaultObject, error) {
	var resp struct {
		Objects []VaultObject `json:"objects"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/vaults/"+url.PathEscape(vaultID)+"/objects", nil, &resp); err != nil {
		return nil, fmt.Errorf("list vault objects: %w", err)
	}
	return resp.Objects, nil
}

// Search runs a remote search over a vault's indexed documents.
func (c *Client) Search(ctx context.Context, vaultID, query string, limit int) ([]SearchHit, error) {
	body := map[string]any{"query": query}
	if limit > 0 {
		body["limit"] = limit
	}
	var resp struct {
		Results []SearchHit `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/vaults/"+url.PathEscape(vaultID)+"/search", body, &resp); err != nil {
		return nil, fmt.Errorf("search vault: %w", err)
	}
	return resp.Results, nil
}

// ObjectText fetches the extracted text of an ingested document.
func (c *Client) ObjectText(ctx context.Context, vaultID, objectID string) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	path := "/vaults/" + url.PathEscape(vaultID) + "/objects/" + url.PathEscape(objectID) + "/text"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", fmt.Errorf("fetch object text: %w", err)
	}
	return resp.Text, nil
}
