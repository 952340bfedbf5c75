package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/parley-ai/parley/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the agent as an MCP server, so MCP hosts can drive conversations as tool calls.

Supported transports:
- stdio (default): Standard Input/Output. Ideal for local process integration.
- sse: Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		agent, cleanup, err := buildAgent(cmd)
		if err != nil {
			fmt.Printf("Error initializing agent: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		srv := mcp.NewServer(agent)

		switch transport {
		case "stdio":
			// Stdout carries JSON-RPC; anything else must go to Stderr.
			if err := srv.ServeStdio(); err != nil {
				fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
				os.Exit(1)
			}
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, port); err != nil {
				fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
				os.Exit(1)
			}
		default:
			fmt.Printf("Unknown transport %q (want stdio or sse)\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport to use (stdio or sse)")
	mcpCmd.Flags().Int("port", 8765, "Port for the SSE transport")
}
