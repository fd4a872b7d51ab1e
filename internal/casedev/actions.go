package casedev

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ActionRecord is the persisted, externally owned form of a locally authored
// action. Definition is kept opaque at this boundary; internal/action owns
// the typed step model.
type ActionRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Definition  json.RawMessage `json:"definition"`
	WebhookID   string          `json:"webhook_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ListActions returns the saved actions visible to the API key.
func (c *Client) ListActions(ctx context.Context) ([]ActionRecord, error) {
	var resp struct {
		Actions []ActionRecord `json:"actions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/actions", nil, &resp); err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	return resp.Actions, nil
}

// SaveAction creates or updates an action record. A record with an empty ID
// is created; otherwise it is updated in place.
func (c *Client) SaveAction(ctx context.Context, rec ActionRecord) (*ActionRecord, error) {
	var saved ActionRecord
	if rec.ID == "" {
		if err := c.doJSON(ctx, http.MethodPost, "/actions", rec, &saved); err != nil {
			return nil, fmt.Errorf("create action: %w", err)
		}
		return &saved, nil
	}
	if err := c.doJSON(ctx, http.MethodPut, "/actions/"+url.PathEscape(rec.ID), rec, &saved); err != nil {
		return nil, fmt.Errorf("update action: %w", err)
	}
	return &saved, nil
}

// DeleteAction removes a saved action.
func (c *Client) DeleteAction(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, "/actions/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete action: %w", err)
	}
	return nil
}
