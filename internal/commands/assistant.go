package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"casedeck/internal/assistant"
)

// AssistantCmd sends one message to the legal assistant and prints the reply.
var AssistantCmd = &cobra.Command{
	Use:     "assistant <message>",
	Aliases: []string{"ask"},
	Short:   "Ask the legal assistant",
	Long: "Sends a message to the assistant, which can search vaults, read " +
		"documents, run workflows and check jobs on your behalf. Use --session " +
		"to keep a conversation going across invocations.",
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID, _ := cmd.Flags().GetString("session")
		clear, _ := cmd.Flags().GetBool("clear")

		if clear {
			if err := assistant.ClearSession(sessionID); err != nil {
				fail(err)
			}
		}

		result, err := assistant.Run(context.Background(), mustClient(), assistant.RunOptions{
			SessionID: sessionID,
			Message:   strings.Join(args, " "),
		})
		if err != nil {
			fail(err)
		}
		fmt.Println(result.Reply)
	},
}

func init() {
	AssistantCmd.Flags().String("session", "default", "Session id for conversation history")
	AssistantCmd.Flags().Bool("clear", false, "Clear the session before sending")
}
