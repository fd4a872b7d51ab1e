package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"casedeck/internal/action"
	"casedeck/internal/casedev"
	"casedeck/internal/runner"
)

// list_vaults

type listVaultsInput struct{}

type listVaultsOutput struct {
	Vaults []casedev.Vault `json:"vaults"`
}

func listVaultsHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, listVaultsInput) (*mcpsdk.CallToolResult, listVaultsOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input listVaultsInput) (*mcpsdk.CallToolResult, listVaultsOutput, error) {
		vaults, err := client.ListVaults(ctx)
		if err != nil {
			return nil, listVaultsOutput{}, fmt.Errorf("failed to list vaults: %w", err)
		}
		return nil, listVaultsOutput{Vaults: vaults}, nil
	}
}

// search_vault

type searchVaultInput struct {
	VaultID string `json:"vault_id" jsonschema:"Vault id to search"`
	Query   string `json:"query" jsonschema:"Search query over the vault's documents"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of results"`
}

type searchVaultOutput struct {
	Results []casedev.SearchHit `json:"results"`
}

func searchVaultHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, searchVaultInput) (*mcpsdk.CallToolResult, searchVaultOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input searchVaultInput) (*mcpsdk.CallToolResult, searchVaultOutput, error) {
		if input.VaultID == "" || input.Query == "" {
			return nil, searchVaultOutput{}, fmt.Errorf("vault_id and query are required")
		}
		hits, err := client.Search(ctx, input.VaultID, input.Query, input.Limit)
		if err != nil {
			return nil, searchVaultOutput{}, fmt.Errorf("failed to search vault: %w", err)
		}
		return nil, searchVaultOutput{Results: hits}, nil
	}
}

// get_document_text

type getDocumentTextInput struct {
	VaultID  string `json:"vault_id" jsonschema:"Vault containing the document"`
	ObjectID string `json:"object_id" jsonschema:"Document object id"`
}

type getDocumentTextOutput struct {
	Text string `json:"text"`
}

func getDocumentTextHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, getDocumentTextInput) (*mcpsdk.CallToolResult, getDocumentTextOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input getDocumentTextInput) (*mcpsdk.CallToolResult, getDocumentTextOutput, error) {
		if input.VaultID == "" || input.ObjectID == "" {
			return nil, getDocumentTextOutput{}, fmt.Errorf("vault_id and object_id are required")
		}
		text, err := client.ObjectText(ctx, input.VaultID, input.ObjectID)
		if err != nil {
			return nil, getDocumentTextOutput{}, fmt.Errorf("failed to fetch document text: %w", err)
		}
		return nil, getDocumentTextOutput{Text: text}, nil
	}
}

// submit_ocr

type submitOCRInput struct {
	DocumentURL string `json:"document_url,omitempty" jsonschema:"Public URL of the document"`
	VaultID     string `json:"vault_id,omitempty" jsonschema:"Vault containing the document"`
	ObjectID    string `json:"object_id,omitempty" jsonschema:"Document object id"`
	Engine      string `json:"engine,omitempty" jsonschema:"OCR engine: doctr tesseract paddle or google"`
}

type submitOCROutput struct {
	ID string `json:"id"`
}

func submitOCRHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, submitOCRInput) (*mcpsdk.CallToolResult, submitOCROutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input submitOCRInput) (*mcpsdk.CallToolResult, submitOCROutput, error) {
		engine := input.Engine
		if engine == "" {
			engine = casedev.OCREngineDoctr
		}
		id, err := client.SubmitOCR(ctx, casedev.OCRRequest{
			DocumentURL: input.DocumentURL,
			VaultID:     input.VaultID,
			ObjectID:    input.ObjectID,
			Engine:      engine,
		})
		if err != nil {
			return nil, submitOCROutput{}, fmt.Errorf("failed to submit OCR job: %w", err)
		}
		return nil, submitOCROutput{ID: id}, nil
	}
}

// get_job_status

type getJobStatusInput struct {
	Kind string `json:"kind" jsonschema:"Job kind: ocr or transcription"`
	ID   string `json:"id" jsonschema:"Job id returned at submission"`
}

type getJobStatusOutput struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

func getJobStatusHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, getJobStatusInput) (*mcpsdk.CallToolResult, getJobStatusOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input getJobStatusInput) (*mcpsdk.CallToolResult, getJobStatusOutput, error) {
		switch input.Kind {
		case "ocr":
			job, err := client.GetOCRJob(ctx, input.ID)
			if err != nil {
				return nil, getJobStatusOutput{}, fmt.Errorf("failed to get OCR job: %w", err)
			}
			return nil, getJobStatusOutput{
				Status: job.Status,
				Detail: fmt.Sprintf("%d/%d chunks", job.ChunksCompleted, job.ChunkCount),
				Error:  job.Error,
			}, nil
		case "transcription":
			job, err := client.GetTranscriptionJob(ctx, input.ID)
			if err != nil {
				return nil, getJobStatusOutput{}, fmt.Errorf("failed to get transcription job: %w", err)
			}
			return nil, getJobStatusOutput{Status: job.Status, Error: job.Error}, nil
		}
		return nil, getJobStatusOutput{}, fmt.Errorf("unknown job kind %q", input.Kind)
	}
}

// list_workflows

type listWorkflowsInput struct{}

type listWorkflowsOutput struct {
	Workflows []casedev.Workflow `json:"workflows"`
}

func listWorkflowsHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, listWorkflowsInput) (*mcpsdk.CallToolResult, listWorkflowsOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input listWorkflowsInput) (*mcpsdk.CallToolResult, listWorkflowsOutput, error) {
		workflows, err := client.ListWorkflows(ctx)
		if err != nil {
			return nil, listWorkflowsOutput{}, fmt.Errorf("failed to list workflows: %w", err)
		}
		return nil, listWorkflowsOutput{Workflows: workflows}, nil
	}
}

// run_workflow

type runWorkflowInput struct {
	WorkflowID string                `json:"workflow_id" jsonschema:"Workflow id to execute"`
	Documents  []casedev.DocumentRef `json:"documents" jsonschema:"Documents to run over"`
	Mode       string                `json:"mode,omitempty" jsonschema:"separate (default) or combined"`
}

type runWorkflowOutput struct {
	Results []casedev.ExecutionResult `json:"results"`
}

func runWorkflowHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, runWorkflowInput) (*mcpsdk.CallToolResult, runWorkflowOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input runWorkflowInput) (*mcpsdk.CallToolResult, runWorkflowOutput, error) {
		if !runner.CanRun(input.WorkflowID, input.Documents) {
			return nil, runWorkflowOutput{}, fmt.Errorf("workflow_id and at least one document are required")
		}
		mode := runner.Mode(input.Mode)
		if mode == "" {
			mode = runner.ModeSeparate
		}
		batch, err := runner.New(client, nil).Run(ctx, input.WorkflowID, input.Documents, mode)
		if err != nil {
			return nil, runWorkflowOutput{}, fmt.Errorf("failed to run workflow: %w", err)
		}
		return nil, runWorkflowOutput{Results: batch.Results}, nil
	}
}

// list_actions

type listActionsInput struct{}

type actionInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Steps       int    `json:"steps"`
	BuiltIn     bool   `json:"builtIn"`
}

type listActionsOutput struct {
	Actions []actionInfo `json:"actions"`
}

func listActionsHandler() func(context.Context, *mcpsdk.CallToolRequest, listActionsInput) (*mcpsdk.CallToolResult, listActionsOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input listActionsInput) (*mcpsdk.CallToolResult, listActionsOutput, error) {
		actions, err := action.List()
		if err != nil {
			return nil, listActionsOutput{}, fmt.Errorf("failed to list actions: %w", err)
		}
		infos := make([]actionInfo, 0, len(actions))
		for _, a := range actions {
			infos = append(infos, actionInfo{
				Name:        a.Name,
				Description: a.Description,
				Steps:       len(a.Definition.Steps),
				BuiltIn:     a.BuiltIn,
			})
		}
		return nil, listActionsOutput{Actions: infos}, nil
	}
}

// run_action

type runActionInput struct {
	Name  string         `json:"name" jsonschema:"Saved action name"`
	Input map[string]any `json:"input,omitempty" jsonschema:"Top-level input bindings for the action's templates"`
}

type runActionOutput struct {
	Status  string              `json:"status"`
	Results []action.StepResult `json:"results"`
}

func runActionHandler(client *casedev.Client) func(context.Context, *mcpsdk.CallToolRequest, runActionInput) (*mcpsdk.CallToolResult, runActionOutput, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input runActionInput) (*mcpsdk.CallToolResult, runActionOutput, error) {
		a, err := action.Get(input.Name)
		if err != nil {
			return nil, runActionOutput{}, err
		}
		engine := action.NewEngine(action.NewRemoteExecutor(client))
		result, err := engine.Run(ctx, a.Definition, input.Input)
		if result == nil {
			return nil, runActionOutput{}, err
		}
		// A failed step still yields a partial result list worth returning.
		return nil, runActionOutput{Status: result.Status, Results: result.Results}, nil
	}
}
