// Package cmd implements the therachat command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "therachat",
	Short: "Terminal client for TheraChat",
	Long: `therachat keeps a live connection to the TheraChat agent and shows the
conversation in your terminal. Without a subcommand it opens the chat view.

Run 'therachat onboard' once to store the server address and your session token.`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "chat", Title: "Chat:"},
		&cobra.Group{ID: "internal", Title: "Setup and diagnostics:"},
	)
	addChatFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
