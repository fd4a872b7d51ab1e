package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// VaultCmd is the parent command for vault operations.
var VaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Browse and search document vaults",
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all vaults",
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		vaults, err := client.ListVaults(context.Background())
		if err != nil {
			fail(err)
		}
		if len(vaults) == 0 {
			fmt.Println("No vaults.")
			return
		}
		for _, v := range vaults {
			fmt.Printf("%-30s %s  (%d object(s))\n", v.Name, v.ID, v.ObjectCount)
		}
	},
}

var vaultCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new vault",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		description, _ := cmd.Flags().GetString("description")
		client := mustClient()
		v, err := client.CreateVault(context.Background(), args[0], description)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Created vault %q (id=%s)\n", v.Name, v.ID)
	},
}

var vaultObjectsCmd = &cobra.Command{
	Use:   "objects <vault-id>",
	Short: "List the documents in a vault",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		objects, err := client.ListObjects(context.Background(), args[0])
		if err != nil {
			fail(err)
		}
		if len(objects) == 0 {
			fmt.Println("No documents in this vault.")
			return
		}
		for _, o := range objects {
			status := o.Status
			if status == "" {
				status = "-"
			}
			fmt.Printf("%-40s %-12s %s\n", o.Name, status, o.ID)
		}
	},
}

var vaultSearchCmd = &cobra.Command{
	Use:   "search <vault-id> <query>",
	Short: "Search a vault's indexed documents",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		client := mustClient()
		hits, err := client.Search(context.Background(), args[0], args[1], limit)
		if err != nil {
			fail(err)
		}
		if len(hits) == 0 {
			fmt.Println("No results.")
			return
		}
		for _, h := range hits {
			fmt.Printf("%-40s %.2f  %s\n", h.Name, h.Score, h.ObjectID)
			if h.Snippet != "" {
				fmt.Printf("   %s\n", h.Snippet)
			}
		}
	},
}

var vaultTextCmd = &cobra.Command{
	Use:   "text <vault-id> <object-id>",
	Short: "Print a document's extracted text",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := mustClient()
		text, err := client.ObjectText(context.Background(), args[0], args[1])
		if err != nil {
			fail(err)
		}
		fmt.Println(text)
	},
}

func init() {
	vaultCreateCmd.Flags().String("description", "", "Vault description")
	vaultSearchCmd.Flags().Int("limit", 10, "Maximum number of results")

	VaultCmd.AddCommand(vaultListCmd)
	VaultCmd.AddCommand(vaultCreateCmd)
	VaultCmd.AddCommand(vaultObjectsCmd)
	VaultCmd.AddCommand(vaultSearchCmd)
	VaultCmd.AddCommand(vaultTextCmd)
}
