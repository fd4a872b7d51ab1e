package casedev

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TranscriptionRequest submits an audio file for transcription, either by URL
// or by vault object reference.
type TranscriptionRequest struct {
	AudioURL      string   `json:"audioUrl,omitempty"`
	VaultID       string   `json:"vaultId,omitempty"`
	ObjectID      string   `json:"objectId,omitempty"`
	LanguageCode  string   `json:"languageCode,omitempty"`
	SpeakerLabels bool     `json:"speakerLabels,omitempty"`
	Punctuate     bool     `json:"punctuate,omitempty"`
	FormatText    bool     `json:"formatText,omitempty"`
	WordBoost     []string `json:"wordBoost,omitempty"`
}

// Validate checks the request shape before any network call.
func (r TranscriptionRequest) Validate() error {
	hasURL := r.AudioURL != ""
	hasRef := r.VaultID != "" && r.ObjectID != ""
	if hasURL == hasRef {
		return fmt.Errorf("exactly one of audioUrl or vaultId+objectId is required")
	}
	return nil
}

// Utterance is one speaker turn in a finished transcript.
type Utterance struct {
	Speaker    string  `json:"speaker,omitempty"`
	Text       string  `json:"text"`
	StartMS    int     `json:"start"`
	EndMS      int     `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Word is one recognized word with timing.
type Word struct {
	Text       string  `json:"text"`
	StartMS    int     `json:"start"`
	EndMS      int     `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
}

// TranscriptionJob is the remote job representation. Utterances and Words are
// populated only once Status is terminal.
type TranscriptionJob struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	Text       string      `json:"text,omitempty"`
	Utterances []Utterance `json:"utterances,omitempty"`
	Words      []Word      `json:"words,omitempty"`
	AudioMS    int         `json:"audio_duration,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SubmitTranscription queues a transcription job and returns its id.
func (c *Client) SubmitTranscription(ctx context.Context, req TranscriptionRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/transcription", req, &resp); err != nil {
		return "", fmt.Errorf("submit transcription job: %w", err)
	}
	return resp.ID, nil
}

// GetTranscriptionJob fetches the current representation of a transcription job.
func (c *Client) GetTranscriptionJob(ctx context.Context, id string) (*TranscriptionJob, error) {
	var job TranscriptionJob
	if err := c.doJSON(ctx, http.MethodGet, "/transcription/"+url.PathEscape(id), nil, &job); err != nil {
		return nil, fmt.Errorf("get transcription job: %w", err)
	}
	return &job, nil
}

// StreamingURL obtains a short-lived WebSocket URL for live microphone
// transcription. The token embedded in the URL expires; fetch a fresh one
// per session.
func (c *Client) StreamingURL(ctx context.Context) (string, time.Time, error) {
	var resp struct {
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/transcription/streaming-url", nil, &resp); err != nil {
		return "", time.Time{}, fmt.Errorf("get streaming URL: %w", err)
	}
	return resp.URL, resp.ExpiresAt, nil
}
