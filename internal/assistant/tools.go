package assistant

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/toolrunner"

	"casedeck/internal/action"
	"casedeck/internal/casedev"
	"casedeck/internal/runner"
)

// toolText is a convenience helper to return a plain text tool result.
func toolText(s string) anthropic.BetaToolResultBlockParamContentUnion {
	return anthropic.BetaToolResultBlockParamContentUnion{
		OfText: &anthropic.BetaTextBlockParam{Text: s},
	}
}

// buildTools constructs all tools the assistant can use against the workspace.
func buildTools(client *casedev.Client) ([]anthropic.BetaTool, error) {
	// -- list_vaults --
	type listVaultsInput struct{}
	listVaultsTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"list_vaults",
		"List all document vaults in the workspace with their ids and object counts.",
		func(ctx context.Context, _ listVaultsInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			vaults, err := client.ListVaults(ctx)
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}
			if len(vaults) == 0 {
				return toolText("No vaults in this workspace."), nil
			}
			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d vault(s):\n", len(vaults)))
			for _, v := range vaults {
				sb.WriteString(fmt.Sprintf("  - %s (id=%s, %d object(s))\n", v.Name, v.ID, v.ObjectCount))
			}
			return toolText(sb.String()), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list_vaults tool: %w", err)
	}

	// -- search_vault --
	type searchVaultInput struct {
		VaultID string `json:"vault_id" jsonschema:"required,description=Vault id from list_vaults"`
		Query   string `json:"query" jsonschema:"required,description=Search query over the vault's indexed documents"`
	}
	searchVaultTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"search_vault",
		"Search a vault's documents. Returns matching objects with ids and snippets.",
		func(ctx context.Context, input searchVaultInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			hits, err := client.Search(ctx, input.VaultID, input.Query, 10)
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}
			if len(hits) == 0 {
				return toolText(fmt.Sprintf("No results for %q.", input.Query)), nil
			}
			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d result(s) for %q:\n", len(hits), input.Query))
			for _, h := range hits {
				snippet := h.Snippet
				if len(snippet) > 200 {
					snippet = snippet[:200] + "..."
				}
				sb.WriteString(fmt.Sprintf("  - %s (object_id=%s): %s\n", h.Name, h.ObjectID, snippet))
			}
			return toolText(sb.String()), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("search_vault tool: %w", err)
	}

	// -- get_document_text --
	type getDocumentTextInput struct {
		VaultID  string `json:"vault_id" jsonschema:"required,description=Vault containing the document"`
		ObjectID string `json:"object_id" jsonschema:"required,description=Document object id"`
	}
	getDocumentTextTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"get_document_text",
		"Fetch the extracted text of a vault document. Long documents are truncated.",
		func(ctx context.Context, input getDocumentTextInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			text, err := client.ObjectText(ctx, input.VaultID, input.ObjectID)
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}
			if len(text) > 20000 {
				text = text[:20000] + "\n...[truncated]"
			}
			return toolText(text), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("get_document_text tool: %w", err)
	}

	// -- list_workflows --
	type listWorkflowsInput struct{}
	listWorkflowsTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"list_workflows",
		"List the workflows available for execution.",
		func(ctx context.Context, _ listWorkflowsInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			wfs, err := client.ListWorkflows(ctx)
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}
			if len(wfs) == 0 {
				return toolText("No workflows available."), nil
			}
			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d workflow(s):\n", len(wfs)))
			for _, w := range wfs {
				sb.WriteString(fmt.Sprintf("  - %s (id=%s): %s\n", w.Name, w.ID, w.Description))
			}
			return toolText(sb.String()), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list_workflows tool: %w", err)
	}

	// -- run_workflow --
	type runWorkflowInput struct {
		WorkflowID string   `json:"workflow_id" jsonschema:"required,description=Workflow id from list_workflows"`
		VaultID    string   `json:"vault_id" jsonschema:"required,description=Vault containing the documents"`
		ObjectIDs  []string `json:"object_ids" jsonschema:"required,description=Document object ids to run over"`
		Mode       string   `json:"mode,omitempty" jsonschema:"description=separate (one run per document, default) or combined (one run over all)"`
	}
	runWorkflowTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"run_workflow",
		"Execute a workflow over one or more vault documents and report per-document results.",
		func(ctx context.Context, input runWorkflowInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			docs, err := resolveDocs(ctx, client, input.VaultID, input.ObjectIDs)
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}

			mode := runner.Mode(input.Mode)
			if mode == "" {
				mode = runner.ModeSeparate
			}

			batch, err := runner.New(client, nil).Run(ctx, input.WorkflowID, docs, mode)
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d result(s):\n", len(batch.Results)))
			for _, r := range batch.Results {
				name := r.DocumentName
				if name == "" {
					name = "(combined)"
				}
				if r.Error != "" {
					sb.WriteString(fmt.Sprintf("  [%s] %s: %s\n", r.Status, name, r.Error))
				} else {
					sb.WriteString(fmt.Sprintf("  [%s] %s\n", r.Status, name))
				}
			}
			return toolText(sb.String()), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("run_workflow tool: %w", err)
	}

	// -- get_job_status --
	type getJobStatusInput struct {
		Kind string `json:"kind" jsonschema:"required,description=Job kind: ocr or transcription"`
		ID   string `json:"id" jsonschema:"required,description=Job id returned at submission"`
	}
	getJobStatusTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"get_job_status",
		"Get the current status of an OCR or transcription job.",
		func(ctx context.Context, input getJobStatusInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			switch input.Kind {
			case "ocr":
				job, err := client.GetOCRJob(ctx, input.ID)
				if err != nil {
					return toolText("error: " + err.Error()), nil
				}
				out := fmt.Sprintf("OCR job %s: %s (%d/%d chunks)", job.ID, job.Status, job.ChunksCompleted, job.ChunkCount)
				if job.Error != "" {
					out += "\nerror: " + job.Error
				}
				return toolText(out), nil
			case "transcription":
				job, err := client.GetTranscriptionJob(ctx, input.ID)
				if err != nil {
					return toolText("error: " + err.Error()), nil
				}
				out := fmt.Sprintf("Transcription job %s: %s", job.ID, job.Status)
				if job.Error != "" {
					out += "\nerror: " + job.Error
				}
				return toolText(out), nil
			default:
				return toolText(fmt.Sprintf("unknown job kind %q, use ocr or transcription", input.Kind)), nil
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("get_job_status tool: %w", err)
	}

	// -- list_actions --
	type listActionsInput struct{}
	listActionsTool, err := toolrunner.NewBetaToolFromJSONSchema(
		"list_actions",
		"List the locally saved multi-step actions and their step services.",
		func(ctx context.Context, _ listActionsInput) (anthropic.BetaToolResultBlockParamContentUnion, error) {
			actions, err := action.List()
			if err != nil {
				return toolText("error: " + err.Error()), nil
			}
			if len(actions) == 0 {
				return toolText("No saved actions."), nil
			}
			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d action(s):\n", len(actions)))
			for _, a := range actions {
				services := make([]string, 0, len(a.Definition.Steps))
				for _, s := range a.Definition.Steps {
					services = append(services, string(s.Service))
				}
				sb.WriteString(fmt.Sprintf("  - %s [%s]: %s\n", a.Name, strings.Join(services, " -> "), a.Description))
			}
			return toolText(sb.String()), nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("list_actions tool: %w", err)
	}

	return []anthropic.BetaTool{
		listVaultsTool,
		searchVaultTool,
		getDocumentTextTool,
		listWorkflowsTool,
		runWorkflowTool,
		getJobStatusTool,
		listActionsTool,
	}, nil
}

// resolveDocs turns object ids into document references carrying names, so
// results can be reported by document name.
func resolveDocs(ctx context.Context, client *casedev.Client, vaultID string, objectIDs []string) ([]casedev.DocumentRef, error) {
	if len(objectIDs) == 0 {
		return nil, fmt.Errorf("no object_ids provided")
	}
	objects, err := client.ListObjects(ctx, vaultID)
	if err != nil {
		return nil, fmt.Errorf("list vault objects: %w", err)
	}
	names := make(map[string]string, len(objects))
	for _, o := range objects {
		names[o.ID] = o.Name
	}

	docs := make([]casedev.DocumentRef, 0, len(objectIDs))
	for _, id := range objectIDs {
		name := names[id]
		if name == "" {
			name = id
		}
		docs = append(docs, casedev.DocumentRef{ID: id, VaultID: vaultID, Name: name})
	}
	return docs, nil
}
