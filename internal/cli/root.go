// Package cli implements the userdesk commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFile string

// RootCmd is the top-level command. Without a subcommand it starts the chat session.
var RootCmd = &cobra.Command{
	Use:           "userdesk",
	Short:         "Chat with your user records",
	Long:          "A terminal chatbot that creates, reads, updates and deletes user records from natural-language requests.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded before reading the environment")
}

// Execute runs RootCmd and reports a failure on stderr.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
