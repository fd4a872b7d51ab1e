package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"casedeck/internal/action"
)

// ActionCmd is the parent command for the local action library.
var ActionCmd = &cobra.Command{
	Use:   "action",
	Short: "Manage and run locally authored actions",
}

var actionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List actions in the local library",
	Run: func(cmd *cobra.Command, args []string) {
		if err := action.EnsureBuiltins(); err != nil {
			fail(err)
		}
		actions, err := action.List()
		if err != nil {
			fail(err)
		}
		for _, a := range actions {
			marker := " "
			if a.BuiltIn {
				marker = "*"
			}
			services := make([]string, 0, len(a.Definition.Steps))
			for _, s := range a.Definition.Steps {
				services = append(services, string(s.Service))
			}
			fmt.Printf("%s %-24s %s\n", marker, a.Name, strings.Join(services, " -> "))
		}
	},
}

var actionShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print an action's YAML definition",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := action.Get(args[0])
		if err != nil {
			fail(err)
		}
		data, err := yaml.Marshal(a)
		if err != nil {
			fail(err)
		}
		fmt.Print(string(data))
	},
}

var actionSaveCmd = &cobra.Command{
	Use:   "save <file.yaml>",
	Short: "Validate a YAML action file and save it to the library",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fail(err)
		}
		var a action.Action
		if err := yaml.Unmarshal(data, &a); err != nil {
			fail(fmt.Errorf("parse %s: %w", args[0], err))
		}
		if err := action.Save(&a); err != nil {
			fail(err)
		}
		fmt.Printf("Saved action %q (%d steps).\n", a.Name, len(a.Definition.Steps))
	},
}

var actionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an action from the library",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := action.Get(args[0])
		if err != nil {
			fail(err)
		}
		if a.BuiltIn {
			fail(fmt.Errorf("built-in actions cannot be deleted"))
		}
		if err := action.Delete(args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("Deleted action %q.\n", args[0])
	},
}

var actionRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run an action locally",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		input := map[string]any{}
		if raw, _ := cmd.Flags().GetString("input"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &input); err != nil {
				fail(fmt.Errorf("parse --input: %w", err))
			}
		}

		if err := action.EnsureBuiltins(); err != nil {
			fail(err)
		}
		a, err := action.Get(args[0])
		if err != nil {
			fail(err)
		}

		engine := action.NewEngine(action.NewRemoteExecutor(mustClient()))
		result, runErr := engine.Run(context.Background(), a.Definition, input)
		if result != nil {
			printRunResult(result)
		}
		if runErr != nil {
			os.Exit(1)
		}
	},
}

func init() {
	actionRunCmd.Flags().String("input", "", "JSON object of top-level inputs")

	ActionCmd.AddCommand(actionListCmd)
	ActionCmd.AddCommand(actionShowCmd)
	ActionCmd.AddCommand(actionSaveCmd)
	ActionCmd.AddCommand(actionDeleteCmd)
	ActionCmd.AddCommand(actionRunCmd)
}

func printRunResult(result *action.RunResult) {
	fmt.Printf("Status: %s\n", result.Status)
	for _, step := range result.Results {
		if step.Error != "" {
			fmt.Printf("  %s: FAILED: %s\n", step.StepID, step.Error)
			continue
		}
		out, err := json.MarshalIndent(step.Output, "  ", "  ")
		if err != nil {
			out = []byte(fmt.Sprintf("%v", step.Output))
		}
		fmt.Printf("  %s:\n  %s\n", step.StepID, string(out))
	}
}
