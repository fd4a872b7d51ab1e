package assistant

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"casedeck/internal/casedev"
	"casedeck/internal/config"
)

const (
	defaultModel     = anthropic.ModelClaude3_5HaikuLatest
	defaultMaxTokens = 4096
)

func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a legal-operations assistant working against a Case.dev workspace.\n")
	sb.WriteString(`
## Capabilities
- Browse document vaults and search the files inside them
- Fetch a document's extracted text for review
- List available workflows and run one over vault documents
- Check the current status of OCR, transcription, and analysis jobs
- List the locally saved multi-step actions

## Guidelines
- When the user names a document loosely, call search_vault before guessing ids
- Before running a workflow, confirm the workflow and the documents with the user
- When asked about a job, call get_job_status instead of speculating
- Quote error messages from failed jobs verbatim

Keep replies short. Cite document names, not ids, when reporting back.`)

	return sb.String()
}

// RunOptions configures a single assistant turn.
type RunOptions struct {
	SessionID string          // identifies the conversation, e.g. "default"
	Message   string          // user's message
	Model     anthropic.Model // override model (optional)
}

// RunResult is the assistant's response.
type RunResult struct {
	Reply string
}

// Run processes one user message within a persistent session and returns the
// assistant's reply. The session is loaded from disk, updated, and saved back
// atomically.
func Run(ctx context.Context, client *casedev.Client, opts RunOptions) (*RunResult, error) {
	if opts.Message == "" {
		return nil, fmt.Errorf("message is required")
	}
	if opts.SessionID == "" {
		opts.SessionID = "default"
	}

	apiKey, baseURL, err := resolveCredentials()
	if err != nil {
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	llm := anthropic.NewClient(clientOpts...)

	session, err := LoadSession(opts.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	session.Messages = append(session.Messages,
		anthropic.NewBetaUserMessage(anthropic.NewBetaTextBlock(opts.Message)),
	)

	tools, err := buildTools(client)
	if err != nil {
		return nil, fmt.Errorf("build tools: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}

	runner := llm.Beta.Messages.NewToolRunner(tools, anthropic.BetaToolRunnerParams{
		BetaMessageNewParams: anthropic.BetaMessageNewParams{
			Model:     model,
			MaxTokens: defaultMaxTokens,
			System: []anthropic.BetaTextBlockParam{
				{Text: buildSystemPrompt()},
			},
			Messages: session.Messages,
		},
	})

	msg, err := runner.RunToCompletion(ctx)
	if err != nil {
		return nil, fmt.Errorf("run assistant: %w", err)
	}

	reply := extractText(msg)

	// Persist the updated conversation (full history from runner).
	session.Messages = runner.Messages()
	if saveErr := session.Save(); saveErr != nil {
		// Non-fatal: the reply is still valid.
		log.Printf("[Assistant] failed to save session %s: %v", opts.SessionID, saveErr)
	}

	return &RunResult{Reply: reply}, nil
}

// extractText pulls all text blocks from the assistant message into a single string.
func extractText(msg *anthropic.BetaMessage) string {
	if msg == nil {
		return ""
	}
	var parts []string
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.BetaTextBlock); ok && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// resolveCredentials loads the Anthropic API key and base URL from the active
// profile, falling back to environment variables.
func resolveCredentials() (apiKey, baseURL string, err error) {
	p, err := config.ActiveProfile("")
	if err == nil && p.AnthropicAPIKey != "" {
		return p.AnthropicAPIKey, p.AnthropicBaseURL, nil
	}

	apiKey = os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return "", "", fmt.Errorf("no ANTHROPIC_API_KEY in active profile or environment")
	}
	return apiKey, os.Getenv("ANTHROPIC_BASE_URL"), nil
}
