package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"casedeck/internal/casedev"
)

// RunServer starts the MCP server over stdio transport, exposing the
// workspace's vaults, jobs, workflows, and action library as tools.
func RunServer(client *casedev.Client, version string) error {
	server := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "casedeck",
			Version: version,
		},
		nil,
	)

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_vaults",
		Description: "List all document vaults in the workspace",
	}, listVaultsHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "search_vault",
		Description: "Search a vault's indexed documents by query",
	}, searchVaultHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_document_text",
		Description: "Fetch the extracted text of a vault document",
	}, getDocumentTextHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "submit_ocr",
		Description: "Submit a document for OCR by URL or vault object reference",
	}, submitOCRHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_job_status",
		Description: "Get the current status of an OCR or transcription job",
	}, getJobStatusHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_workflows",
		Description: "List the workflows available for execution",
	}, listWorkflowsHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "run_workflow",
		Description: "Execute a workflow over vault documents in separate or combined mode",
	}, runWorkflowHandler(client))

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "list_actions",
		Description: "List the locally saved multi-step actions",
	}, listActionsHandler())

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "run_action",
		Description: "Execute a saved action's steps in order with the given input",
	}, runActionHandler(client))

	return server.Run(context.Background(), &mcpsdk.StdioTransport{})
}
