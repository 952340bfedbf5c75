package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/pkg/domain"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the dialogue flow visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the conversation flow.`,
	Run: func(cmd *cobra.Command, args []string) {
		// The topology is static, so no backend is needed to render it.
		agent, err := parley.New(staticTopology{})
		if err != nil {
			fmt.Printf("Error building graph: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(agent.Graph().Mermaid())
	},
}

type staticTopology struct{}

func (staticTopology) ClassifyIntent(ctx context.Context, contextText string) (*domain.Classification, error) {
	return nil, nil
}

func (staticTopology) ExtractSlots(ctx context.Context, current map[string]any, missing []string, contextText string) (map[string]any, error) {
	return nil, nil
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
