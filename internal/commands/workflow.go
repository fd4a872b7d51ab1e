package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"casedeck/internal/casedev"
	"casedeck/internal/runner"
)

// WorkflowCmd is the parent command for remote workflows.
var WorkflowCmd = &cobra.Command{
	Use:     "workflow",
	Aliases: []string{"wf"},
	Short:   "List and run remote workflows",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available workflows",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		workflows, err := client.ListWorkflows(context.Background())
		if err != nil {
			fail(err)
		}
		if len(workflows) == 0 {
			fmt.Println("No workflows available.")
			return
		}
		for _, wf := range workflows {
			fmt.Printf("%-24s  %s\n", wf.ID, wf.Name)
			if wf.Description != "" {
				fmt.Printf("%-24s  %s\n", "", wf.Description)
			}
		}
	},
}

var workflowRunCmd = &cobra.Command{
	Use:   "run <workflow-id> <object-id>...",
	Short: "Run a workflow over vault documents",
	Long: "Runs a workflow over one or more vault objects. In separate mode " +
		"each document gets its own execution; in combined mode the server " +
		"receives all documents in a single call.",
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		vaultID, _ := cmd.Flags().GetString("vault")
		if vaultID == "" {
			fail(fmt.Errorf("--vault is required"))
		}
		modeStr, _ := cmd.Flags().GetString("mode")
		var mode runner.Mode
		switch modeStr {
		case "separate":
			mode = runner.ModeSeparate
		case "combined":
			mode = runner.ModeCombined
		default:
			fail(fmt.Errorf("unknown mode %q (want separate or combined)", modeStr))
		}

		client := mustClient()
		docs, err := lookupDocuments(client, vaultID, args[1:])
		if err != nil {
			fail(err)
		}

		run := runner.New(client, nil)
		batch, err := run.Run(context.Background(), args[0], docs, mode)
		if err != nil {
			fail(err)
		}
		printBatch(batch)
	},
}

func init() {
	workflowRunCmd.Flags().String("vault", "", "Vault id containing the documents")
	workflowRunCmd.Flags().String("mode", "separate", "Run mode: separate or combined")

	WorkflowCmd.AddCommand(workflowListCmd)
	WorkflowCmd.AddCommand(workflowRunCmd)
}

// lookupDocuments resolves object ids against the vault listing so each ref
// carries a display name.
func lookupDocuments(client *casedev.Client, vaultID string, objectIDs []string) ([]casedev.DocumentRef, error) {
	objects, err := client.ListObjects(context.Background(), vaultID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(objects))
	for _, obj := range objects {
		names[obj.ID] = obj.Name
	}

	docs := make([]casedev.DocumentRef, 0, len(objectIDs))
	for _, id := range objectIDs {
		name, ok := names[id]
		if !ok {
			return nil, fmt.Errorf("object %s not found in vault %s", id, vaultID)
		}
		docs = append(docs, casedev.DocumentRef{ID: id, VaultID: vaultID, Name: name})
	}
	return docs, nil
}

func printBatch(batch *runner.Batch) {
	for _, res := range batch.Results {
		label := res.DocumentName
		if label == "" {
			label = res.ID
		}
		if res.Status == casedev.StatusCompleted {
			fmt.Printf("=== %s (%s)\n", label, res.Status)
			printOutput(res.Output)
		} else {
			fmt.Printf("=== %s (%s): %s\n", label, res.Status, res.Error)
		}
	}
}

func printOutput(out casedev.ExecutionOutput) {
	switch out.Format {
	case "pdf":
		fmt.Println(out.URL)
	default:
		if len(out.Data) > 0 {
			fmt.Println(string(out.Data))
		}
	}
}
