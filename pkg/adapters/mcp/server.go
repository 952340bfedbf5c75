// Package mcp exposes the agent as a Model Context Protocol server, so MCP
// hosts can drive conversations as tool calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/parley-ai/parley"
)

// Server wraps an agent and exposes it over MCP transports.
type Server struct {
	agent     *parley.Agent
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(agent *parley.Agent) *Server {
	s := &Server{
		agent:     agent,
		mcpServer: server.NewMCPServer("parley-mcp", parley.Version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send a message to the assistant. Pass the same thread_id across calls to continue a conversation; omit it to start a new one."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user message")),
		mcp.WithString("thread_id", mcp.Description("Conversation thread to continue (optional)")),
		mcp.WithString("user_id", mcp.Description("User identifier for the audit log (optional)")),
		mcp.WithOutputSchema[parley.Result](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))

	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Inspect the persisted checkpoint of a conversation thread."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread to inspect")),
	)
	s.mcpServer.AddTool(stateTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		threadID := request.GetString("thread_id", "")
		state, err := s.agent.Checkpoints().Load(ctx, threadID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(state)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	listTool := mcp.NewTool("list_threads",
		mcp.WithDescription("List logged conversation threads, most recently active first."),
		mcp.WithString("user_id", mcp.Description("Filter by user (optional)")),
	)
	s.mcpServer.AddTool(listTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID := request.GetString("user_id", "")
		threads, err := s.agent.Log().Threads(ctx, userID, 0)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(threads)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	deleteTool := mcp.NewTool("delete_thread",
		mcp.WithDescription("Delete a conversation thread: its checkpoint and its log entries."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("Thread to delete")),
	)
	s.mcpServer.AddTool(deleteTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		threadID := request.GetString("thread_id", "")
		if err := s.agent.DeleteThread(ctx, threadID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("thread %q deleted", threadID)), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the dialogue flow as a Mermaid diagram."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.agent.Graph().Mermaid()), nil
	})
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (parley.Result, error) {
	message, _ := args["message"].(string)
	if message == "" {
		return parley.Result{}, fmt.Errorf("message is required")
	}

	opts := []parley.TurnOption{}
	if threadID, ok := args["thread_id"].(string); ok && threadID != "" {
		opts = append(opts, parley.WithThread(threadID))
	}
	if userID, ok := args["user_id"].(string); ok && userID != "" {
		opts = append(opts, parley.WithUser(userID))
	}

	result := s.agent.Run(ctx, message, opts...)
	return *result, nil
}
