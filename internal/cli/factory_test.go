package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-ai/parley/internal/config"
	"github.com/parley-ai/parley/internal/logging"
)

func TestBuildAgent_RequiresAPIKey(t *testing.T) {
	cfg := config.Default()

	_, _, err := BuildAgent(cfg, logging.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestBuildAgent_MemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"

	agent, cleanup, err := BuildAgent(cfg, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, agent)
	assert.Contains(t, agent.Graph().Mermaid(), "graph TD")
}

func TestBuildAgent_SQLiteBackend(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.Store.Backend = "sqlite"
	cfg.Store.DSN = filepath.Join(t.TempDir(), "parley.db")
	cfg.Privacy.EncryptionKey = "0123456789abcdef0123456789abcdef"
	cfg.Privacy.MaskPatterns = []string{"(?i)email"}

	agent, cleanup, err := BuildAgent(cfg, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, agent)
}

func TestBuildAgent_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.APIKey = "test-key"
	cfg.Store.Backend = "dynamo"

	_, _, err := BuildAgent(cfg, logging.NewNop())
	assert.Error(t, err)
}
