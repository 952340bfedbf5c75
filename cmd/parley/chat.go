package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-ai/parley/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long:  `Starts a terminal chat session against the configured LLM backend. Use --thread to resume a previous conversation.`,
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		threadID, _ := cmd.Flags().GetString("thread")
		userID, _ := cmd.Flags().GetString("user")
		plain, _ := cmd.Flags().GetBool("plain")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if err := cli.RunChat(sigCtx, agent, cli.ChatOptions{
			ThreadID: threadID,
			UserID:   userID,
			Plain:    plain,
		}); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("thread", "t", "", "Thread ID to resume (default: new thread)")
	chatCmd.Flags().StringP("user", "u", "", "User ID recorded in the conversation log")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering and banners")

	// Make 'chat' the default when no subcommand is given.
	rootCmd.Run = chatCmd.Run
}
