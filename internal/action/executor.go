package action

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"casedeck/internal/casedev"
	"casedeck/internal/config"
	"casedeck/internal/poll"
)

const llmDefaultMaxTokens = 2048

// RemoteExecutor executes steps against the live services: Case.dev for
// ocr/vault/voice/workflows and Anthropic for llm. Long-running jobs are
// polled to their terminal status before the step completes, so each step's
// output is final when later steps reference it.
type RemoteExecutor struct {
	client *casedev.Client
}

// NewRemoteExecutor returns an executor backed by the given client.
func NewRemoteExecutor(client *casedev.Client) *RemoteExecutor {
	return &RemoteExecutor{client: client}
}

func (e *RemoteExecutor) ExecuteStep(ctx context.Context, step Step, input, options map[string]any) (any, error) {
	switch step.Service {
	case ServiceLLM:
		return e.execLLM(ctx, input, options)
	case ServiceOCR:
		return e.execOCR(ctx, input, options)
	case ServiceVault:
		return e.execVault(ctx, step, input)
	case ServiceVoice:
		return e.execVoice(ctx, input, options)
	case ServiceWorkflows:
		return e.execWorkflow(ctx, step, input, options)
	}
	return nil, fmt.Errorf("unknown service %q", step.Service)
}

func (e *RemoteExecutor) execLLM(ctx context.Context, input, options map[string]any) (any, error) {
	prompt, _ := input["prompt"].(string)
	if prompt == "" {
		return nil, fmt.Errorf("llm step requires input.prompt")
	}

	p, err := config.ActiveProfile("")
	if err != nil || p.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("llm step requires an Anthropic API key in the active profile")
	}
	clientOpts := []option.RequestOption{option.WithAPIKey(p.AnthropicAPIKey)}
	if p.AnthropicBaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.AnthropicBaseURL))
	}
	llm := anthropic.NewClient(clientOpts...)

	model := anthropic.ModelClaude3_5HaikuLatest
	if m, ok := options["model"].(string); ok && m != "" {
		model = anthropic.Model(m)
	}
	maxTokens := int64(llmDefaultMaxTokens)
	if mt, ok := options["max_tokens"].(float64); ok && mt > 0 {
		maxTokens = int64(mt)
	}

	msg, err := llm.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return map[string]any{"text": text}, nil
}

func (e *RemoteExecutor) execOCR(ctx context.Context, input, options map[string]any) (any, error) {
	req := casedev.OCRRequest{Engine: casedev.OCREngineDoctr}
	if u, ok := input["document_url"].(string); ok {
		req.DocumentURL = u
	}
	if v, ok := input["vault_id"].(string); ok {
		req.VaultID = v
	}
	if o, ok := input["object_id"].(string); ok {
		req.ObjectID = o
	}
	if eng, ok := options["engine"].(string); ok && eng != "" {
		req.Engine = eng
	}

	id, err := e.client.SubmitOCR(ctx, req)
	if err != nil {
		return nil, err
	}

	job, err := poll.Until(ctx, poll.Options[*casedev.OCRJob]{
		Fetch: func(ctx context.Context) (*casedev.OCRJob, error) {
			return e.client.GetOCRJob(ctx, id)
		},
		Terminal: func(j *casedev.OCRJob) bool { return casedev.IsTerminal(j.Status) },
	})
	if err != nil {
		return nil, err
	}
	if job.Status != casedev.StatusCompleted {
		return nil, fmt.Errorf("OCR job %s ended with status %s: %s", id, job.Status, job.Error)
	}
	return map[string]any{"id": id, "text": job.Text, "page_count": job.PageCount}, nil
}

func (e *RemoteExecutor) execVault(ctx context.Context, step Step, input map[string]any) (any, error) {
	switch step.Action {
	case "get-text":
		objectID, _ := input["object_id"].(string)
		if objectID == "" {
			return nil, fmt.Errorf("vault get-text requires input.object_id")
		}
		text, err := e.client.ObjectText(ctx, step.VaultID, objectID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"text": text}, nil

	case "search":
		query, _ := input["query"].(string)
		if query == "" {
			return nil, fmt.Errorf("vault search requires input.query")
		}
		hits, err := e.client.Search(ctx, step.VaultID, query, 10)
		if err != nil {
			return nil, err
		}
		results := make([]any, 0, len(hits))
		for _, h := range hits {
			results = append(results, map[string]any{
				"object_id": h.ObjectID,
				"name":      h.Name,
				"snippet":   h.Snippet,
			})
		}
		return map[string]any{"results": results}, nil

	case "list-objects":
		objects, err := e.client.ListObjects(ctx, step.VaultID)
		if err != nil {
			return nil, err
		}
		names := make([]any, 0, len(objects))
		for _, o := range objects {
			names = append(names, map[string]any{"id": o.ID, "name": o.Name})
		}
		return map[string]any{"objects": names}, nil
	}
	return nil, fmt.Errorf("unknown vault action %q", step.Action)
}

func (e *RemoteExecutor) execVoice(ctx context.Context, input, options map[string]any) (any, error) {
	req := casedev.TranscriptionRequest{}
	if u, ok := input["audio_url"].(string); ok {
		req.AudioURL = u
	}
	if v, ok := input["vault_id"].(string); ok {
		req.VaultID = v
	}
	if o, ok := input["object_id"].(string); ok {
		req.ObjectID = o
	}
	if lang, ok := options["language_code"].(string); ok {
		req.LanguageCode = lang
	}
	if sp, ok := options["speaker_labels"].(bool); ok {
		req.SpeakerLabels = sp
	}

	id, err := e.client.SubmitTranscription(ctx, req)
	if err != nil {
		return nil, err
	}

	job, err := poll.Until(ctx, poll.Options[*casedev.TranscriptionJob]{
		Fetch: func(ctx context.Context) (*casedev.TranscriptionJob, error) {
			return e.client.GetTranscriptionJob(ctx, id)
		},
		Terminal: func(j *casedev.TranscriptionJob) bool { return casedev.IsTerminal(j.Status) },
	})
	if err != nil {
		return nil, err
	}
	if job.Status != casedev.StatusCompleted {
		return nil, fmt.Errorf("transcription job %s ended with status %s: %s", id, job.Status, job.Error)
	}
	return map[string]any{"id": id, "text": job.Text}, nil
}

func (e *RemoteExecutor) execWorkflow(ctx context.Context, step Step, input, options map[string]any) (any, error) {
	result, err := e.client.Execute(ctx, step.WorkflowID, casedev.ExecuteRequest{
		Input:   input,
		Options: options,
	})
	if err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, fmt.Errorf("workflow execution failed: %s", result.Error)
	}

	out := map[string]any{"status": result.Status, "format": result.Output.Format}
	switch result.Output.Format {
	case "json":
		var data any
		if err := json.Unmarshal(result.Output.Data, &data); err == nil {
			out["data"] = data
		}
	case "pdf":
		out["url"] = result.Output.URL
	default:
		var text string
		if err := json.Unmarshal(result.Output.Data, &text); err == nil {
			out["text"] = text
		} else {
			out["text"] = string(result.Output.Data)
		}
	}
	return out, nil
}
