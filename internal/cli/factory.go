package cli

import (
	"fmt"
	"log/slog"
	"sync"

	backend "github.com/redis/go-redis/v9"

	"github.com/parley-ai/parley"
	"github.com/parley-ai/parley/internal/config"
	"github.com/parley-ai/parley/pkg/adapters/openai"
	redisadapter "github.com/parley-ai/parley/pkg/adapters/redis"
	"github.com/parley-ai/parley/pkg/adapters/sqlite"
	"github.com/parley-ai/parley/pkg/observability"
	"github.com/parley-ai/parley/pkg/persistence/middleware"
	"github.com/parley-ai/parley/pkg/ports"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildAgent assembles an agent from configuration: LLM client, persistence
// backend, at-rest protection, and metrics. The returned cleanup closes any
// resources the backend opened.
func BuildAgent(cfg config.Config, logger *slog.Logger) (*parley.Agent, func() error, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("no API key configured (set llm.api_key or PARLEY_API_KEY)")
	}

	client := openai.New(openai.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})

	opts := []parley.Option{
		parley.WithResponder(client),
		parley.WithLogger(logger),
	}

	cleanup := func() error { return nil }

	switch cfg.Store.Backend {
	case "memory":
		// The agent defaults to its in-memory store.

	case "sqlite":
		store, err := sqlite.NewStore(cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		cleanup = store.Close
		opts = append(opts,
			parley.WithCheckpointStore(wrapStore(store.Checkpoints(), cfg)),
			parley.WithConversationLog(store.Log()),
		)

	case "redis":
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		cleanup = client.Close

		storeOpts := []redisadapter.StoreOption{}
		if cfg.Store.TTL > 0 {
			storeOpts = append(storeOpts, redisadapter.WithTTL(cfg.Store.TTL))
		}
		opts = append(opts,
			parley.WithCheckpointStore(wrapStore(redisadapter.NewFromClient(client, storeOpts...), cfg)),
			parley.WithLocker(redisadapter.NewLocker(client, "parley:")),
		)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if cfg.Engine.ConfidenceThreshold > 0 {
		opts = append(opts, parley.WithConfidenceThreshold(cfg.Engine.ConfidenceThreshold))
	}
	if cfg.Engine.ChunkSize > 0 {
		opts = append(opts, parley.WithChunkSize(cfg.Engine.ChunkSize))
	}
	if cfg.Engine.TurnTimeout > 0 {
		opts = append(opts, parley.WithTurnTimeout(cfg.Engine.TurnTimeout))
	}

	m := processMetrics()
	opts = append(opts,
		parley.WithLifecycleHooks(m.Hooks()),
		parley.WithFallbackObserver(m.FallbackObserver()),
	)

	agent, err := parley.New(client, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return agent, cleanup, nil
}

var (
	metricsOnce sync.Once
	metrics     *observability.Metrics
)

// processMetrics registers the engine collectors once per process, on the
// default registry served at /metrics.
func processMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		metrics = observability.NewMetrics(prometheus.DefaultRegisterer)
	})
	return metrics
}

// wrapStore layers the configured persistence middleware over a backend.
func wrapStore(store ports.CheckpointStore, cfg config.Config) ports.CheckpointStore {
	chain := []middleware.Middleware{}
	if len(cfg.Privacy.MaskPatterns) > 0 {
		chain = append(chain, middleware.NewPIIMiddleware(cfg.Privacy.MaskPatterns))
	}
	if key, err := cfg.EncryptionKeyBytes(); err == nil && key != nil {
		chain = append(chain, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey: key,
		}))
	}
	return middleware.Chain(store, chain...)
}
