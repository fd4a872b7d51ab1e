package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"casedeck/internal/commands"
)

var profileFlag string

var rootCmd = &cobra.Command{
	Use:   "casedeck",
	Short: "A CLI for legal document vaults, OCR, transcription and workflows",
	Long: "casedeck drives the Case.dev legal APIs: document vaults with search, " +
		"OCR and transcription jobs, workflow runs over documents, tabular " +
		"extraction grids, a local action library and an LLM assistant.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Use a named profile instead of the default")

	rootCmd.AddCommand(commands.ProfileCmd)
	rootCmd.AddCommand(commands.VaultCmd)
	rootCmd.AddCommand(commands.OCRCmd)
	rootCmd.AddCommand(commands.TranscribeCmd)
	rootCmd.AddCommand(commands.WorkflowCmd)
	rootCmd.AddCommand(commands.TabularCmd)
	rootCmd.AddCommand(commands.ActionCmd)
	rootCmd.AddCommand(commands.AssistantCmd)
	rootCmd.AddCommand(commands.ScheduleCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		commands.SetProfileFlag(profileFlag)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
