package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionCmd prints build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("casedeck version %s (commit %s, built %s)\n", Version, Commit, Date)
	},
}
