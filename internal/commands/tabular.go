package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"casedeck/internal/casedev"
	"casedeck/internal/grid"
	"casedeck/internal/tui"
)

// TabularCmd is the parent command for tabular extraction analyses.
var TabularCmd = &cobra.Command{
	Use:     "tabular",
	Aliases: []string{"tab"},
	Short:   "Inspect and run tabular extraction analyses",
}

var tabularShowCmd = &cobra.Command{
	Use:   "show <analysis-id>",
	Short: "Print an analysis grid",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		a, err := client.GetAnalysis(context.Background(), args[0])
		if err != nil {
			fail(err)
		}
		printAnalysis(a)
	},
}

var tabularRunCmd = &cobra.Command{
	Use:   "run <analysis-id>",
	Short: "Trigger extraction and watch it to completion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		g := grid.New(client, args[0])
		if err := g.Load(context.Background()); err != nil {
			fail(err)
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			if err := client.RunAnalysisWorkflow(context.Background(), args[0]); err != nil {
				fail(err)
			}
			p := tui.NewMonitor("Extraction "+args[0], tui.AnalysisSnapshot(client, args[0]))
			if _, err := p.Run(); err != nil {
				fail(err)
			}
			return
		}

		a, err := g.RunExtraction(context.Background())
		if err != nil {
			fail(err)
		}
		printAnalysis(a)
		if a.Status != casedev.StatusCompleted {
			os.Exit(1)
		}
	},
}

var tabularColumnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Manage analysis columns",
}

var tabularColumnAddCmd = &cobra.Command{
	Use:   "add <analysis-id> <name>",
	Short: "Add an extraction column",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		prompt, _ := cmd.Flags().GetString("prompt")
		if prompt == "" {
			fail(fmt.Errorf("--prompt is required"))
		}
		dataType, _ := cmd.Flags().GetString("type")
		switch dataType {
		case casedev.DataTypeText, casedev.DataTypeNumber, casedev.DataTypeBoolean, casedev.DataTypeDate:
		default:
			fail(fmt.Errorf("unknown data type %q", dataType))
		}

		g := grid.New(mustClient(), args[0])
		if err := g.Load(context.Background()); err != nil {
			fail(err)
		}
		col := casedev.ExtractionColumn{
			ID:       uuid.NewString(),
			Name:     args[1],
			Prompt:   prompt,
			DataType: dataType,
		}
		if err := g.AddColumn(context.Background(), col); err != nil {
			fail(err)
		}
		fmt.Printf("Added column %q (%s).\n", col.Name, col.ID)
	},
}

var tabularColumnDeleteCmd = &cobra.Command{
	Use:   "delete <analysis-id> <column-id>",
	Short: "Delete an extraction column",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		g := grid.New(mustClient(), args[0])
		if err := g.Load(context.Background()); err != nil {
			fail(err)
		}
		if err := g.DeleteColumn(context.Background(), args[1]); err != nil {
			fail(err)
		}
		fmt.Printf("Deleted column %s.\n", args[1])
	},
}

func init() {
	tabularColumnAddCmd.Flags().String("prompt", "", "Extraction prompt for the column")
	tabularColumnAddCmd.Flags().String("type", casedev.DataTypeText, "Data type: text, number, boolean, date")

	tabularColumnsCmd.AddCommand(tabularColumnAddCmd)
	tabularColumnsCmd.AddCommand(tabularColumnDeleteCmd)

	TabularCmd.AddCommand(tabularShowCmd)
	TabularCmd.AddCommand(tabularRunCmd)
	TabularCmd.AddCommand(tabularColumnsCmd)
}

func printAnalysis(a *casedev.TabularAnalysis) {
	fmt.Printf("Analysis: %s\n", a.ID)
	if a.Name != "" {
		fmt.Printf("Name:     %s\n", a.Name)
	}
	fmt.Printf("Status:   %s\n", a.Status)
	if a.Error != "" {
		fmt.Printf("Error:    %s\n", a.Error)
	}

	rows := make(map[string]map[string]casedev.CellValue, len(a.Rows))
	for _, row := range a.Rows {
		rows[row.DocumentID] = row.Data
	}

	for _, doc := range a.Documents {
		fmt.Printf("\n%s\n", doc.Name)
		data := rows[doc.ID]
		for _, col := range a.Columns {
			cell, ok := data[col.ID]
			switch {
			case !ok:
				fmt.Printf("  %-20s (pending)\n", col.Name+":")
			case cell.Error != "":
				fmt.Printf("  %-20s ERROR: %s\n", col.Name+":", cell.Error)
			default:
				fmt.Printf("  %-20s %v\n", col.Name+":", cell.Value)
			}
		}
	}
}
