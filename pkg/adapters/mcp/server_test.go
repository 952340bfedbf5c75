package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/pkg/domain"
)

type staticClassifier struct{}

func (staticClassifier) ClassifyIntent(ctx context.Context, contextText string) (*domain.Classification, error) {
	return &domain.Classification{
		Intent:     domain.IntentGreeting,
		Confidence: 0.95,
		Language:   "en",
	}, nil
}

func (staticClassifier) ExtractSlots(ctx context.Context, current map[string]any, missing []string, contextText string) (map[string]any, error) {
	return map[string]any{}, nil
}

func TestHandleChat(t *testing.T) {
	agent, err := parley.New(staticClassifier{})
	require.NoError(t, err)
	srv := NewServer(agent)

	result, err := srv.handleChat(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"message":   "hello",
		"thread_id": "t-mcp",
		"user_id":   "u-1",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "t-mcp", result.ThreadID)
	assert.Equal(t, domain.IntentGreeting, result.Intent)
	assert.NotEmpty(t, result.Response)
}

func TestHandleChat_RequiresMessage(t *testing.T) {
	agent, err := parley.New(staticClassifier{})
	require.NoError(t, err)
	srv := NewServer(agent)

	_, err = srv.handleChat(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{})
	assert.Error(t, err)
}
