package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"casedeck/internal/config"
)

// ProfileCmd is the parent command for credential profiles.
var ProfileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"pf"},
	Short:   "Manage API profiles",
	Long:    "Add, list, select, or remove Case.dev API profiles",
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new profile",
	Long:  "Interactively add a Case.dev API profile. Keys are read without echo.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		RunProfileAdd(args[0])
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		RunProfileList()
	},
}

var profileSelectCmd = &cobra.Command{
	Use:   "select <name>",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.SetDefault(args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("Default profile set to %q\n", args[0])
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.RemoveProfile(args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("Profile %q removed\n", args[0])
	},
}

func init() {
	ProfileCmd.AddCommand(profileAddCmd)
	ProfileCmd.AddCommand(profileListCmd)
	ProfileCmd.AddCommand(profileSelectCmd)
	ProfileCmd.AddCommand(profileRemoveCmd)
}

// RunProfileAdd interactively collects a profile's credentials.
func RunProfileAdd(name string) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("Case.dev base URL [%s]: ", "https://api.case.dev")
	baseURL, _ := reader.ReadString('\n')
	baseURL = strings.TrimSpace(baseURL)

	caseKey, err := readSecret("Case.dev API key: ")
	if err != nil {
		fail(err)
	}
	if caseKey == "" {
		fail(fmt.Errorf("a Case.dev API key is required"))
	}

	anthropicKey, err := readSecret("Anthropic API key (optional, for the assistant): ")
	if err != nil {
		fail(err)
	}

	p := config.Profile{
		Name:            name,
		CaseDevBaseURL:  baseURL,
		CaseDevAPIKey:   caseKey,
		AnthropicAPIKey: anthropicKey,
	}
	if err := config.SetProfile(p); err != nil {
		fail(err)
	}
	fmt.Printf("Profile %q saved to %s\n", name, config.ConfigPath)
}

// RunProfileList prints the configured profiles.
func RunProfileList() {
	cfg, err := config.LoadConfig()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No profiles configured. Run 'casedeck profile add <name>'.")
			return
		}
		fail(err)
	}

	if len(cfg.Profiles) == 0 {
		fmt.Println("No profiles configured. Run 'casedeck profile add <name>'.")
		return
	}
	for _, p := range cfg.Profiles {
		marker := " "
		if p.Name == cfg.Default {
			marker = "*"
		}
		assistant := ""
		if p.AnthropicAPIKey != "" {
			assistant = " (assistant enabled)"
		}
		fmt.Printf("%s %s%s\n", marker, p.Name, assistant)
	}
}

// readSecret reads a line without echo when stdin is a terminal, falling
// back to plain line input otherwise (pipes, CI).
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
