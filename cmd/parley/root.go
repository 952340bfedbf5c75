package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/internal/cli"
	"github.com/parley-ai/parley/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley is a conversational task-completion engine",
	Long:  `Parley runs goal-directed conversations: it classifies what the user wants, collects the details step by step, and answers, with durable per-thread state.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "parley.yaml", "Path to the configuration file")
}

// loadSetup reads configuration and builds the logger shared by commands.
func loadSetup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, cli.NewLogger(cfg.Logging), nil
}

// buildAgent is the shared construction path for commands that need one.
func buildAgent(cmd *cobra.Command) (*parley.Agent, func() error, error) {
	cfg, logger, err := loadSetup(cmd)
	if err != nil {
		return nil, nil, err
	}
	return cli.BuildAgent(cfg, logger)
}
