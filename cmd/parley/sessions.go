package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley-ai/parley/pkg/adapters/sqlite"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted conversation threads",
	Long:  `List, inspect, search, and remove conversation threads from the configured store.`,
}

var sessionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List logged conversation threads",
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		userID, _ := cmd.Flags().GetString("user")
		threads, err := agent.Log().Threads(cmd.Context(), userID, 0)
		if err != nil {
			fmt.Printf("Error listing threads: %v\n", err)
			os.Exit(1)
		}

		if len(threads) == 0 {
			fmt.Println("No conversation threads found.")
			return
		}

		fmt.Println("Conversation threads:")
		for _, t := range threads {
			fmt.Printf("- %s  user=%s  entries=%d  updated=%s\n",
				t.ThreadID, t.UserID, t.EntryCount, t.UpdatedAt.Format(time.RFC3339))
		}
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <thread-id>",
	Short: "Inspect the checkpoint and log of a thread",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		threadID := args[0]

		state, err := agent.Checkpoints().Load(cmd.Context(), threadID)
		if err != nil {
			fmt.Printf("Error loading thread '%s': %v\n", threadID, err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling state: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionsRmCmd = &cobra.Command{
	Use:   "rm <thread-id>...",
	Short: "Remove one or more threads",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		hasError := false
		for _, threadID := range args {
			if err := agent.DeleteThread(cmd.Context(), threadID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", threadID, err)
				hasError = true
			} else {
				fmt.Printf("Removed thread '%s'\n", threadID)
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete threads with no recent activity",
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		hours, _ := cmd.Flags().GetInt("older-than")
		if hours <= 0 {
			fmt.Println("Error: --older-than must be positive")
			os.Exit(1)
		}

		cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
		purged, err := agent.Log().Purge(cmd.Context(), cutoff)
		if err != nil {
			fmt.Printf("Error purging threads: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Purged %d thread(s)\n", purged)
	},
}

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate conversation log statistics",
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		log, ok := agent.Log().(*sqlite.ConversationLog)
		if !ok {
			fmt.Println("Error: statistics require the sqlite store backend")
			os.Exit(1)
		}

		days, _ := cmd.Flags().GetInt("recent-days")
		stats, err := log.Statistics(cmd.Context(), time.Now().AddDate(0, 0, -days))
		if err != nil {
			fmt.Printf("Error collecting statistics: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Conversations:  %d\n", stats.Conversations)
		fmt.Printf("Entries:        %d\n", stats.Entries)
		fmt.Printf("Unique users:   %d\n", stats.UniqueUsers)
		fmt.Printf("Entries (last %dd): %d\n", days, stats.RecentEntries)
	},
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search logged user inputs",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := agent.Log().Search(cmd.Context(), args[0], limit)
		if err != nil {
			fmt.Printf("Error searching: %v\n", err)
			os.Exit(1)
		}

		if len(entries) == 0 {
			fmt.Println("No matches.")
			return
		}
		for _, e := range entries {
			fmt.Printf("[%s] %s: %s\n", e.Timestamp.Format(time.RFC3339), e.ThreadID, e.UserInput)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsLsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsRmCmd)
	sessionsCmd.AddCommand(sessionsPurgeCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)
	sessionsCmd.AddCommand(sessionsStatsCmd)

	sessionsLsCmd.Flags().StringP("user", "u", "", "Filter by user ID")
	sessionsPurgeCmd.Flags().Int("older-than", 720, "Purge threads idle for more than this many hours")
	sessionsSearchCmd.Flags().Int("limit", 50, "Maximum number of results")
	sessionsStatsCmd.Flags().Int("recent-days", 7, "Window for the recent entry count")
}
