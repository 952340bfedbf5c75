// Package config loads runtime configuration for the parley commands from a
// YAML file plus environment overrides.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration tree for a parley process.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Privacy PrivacyConfig `yaml:"privacy"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LLMConfig configures the OpenAI-compatible backend.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// StoreConfig selects and configures checkpoint/log persistence.
type StoreConfig struct {
	// Backend is one of "memory", "sqlite", "redis".
	Backend string        `yaml:"backend"`
	DSN     string        `yaml:"dsn"`
	Redis   RedisConfig   `yaml:"redis"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// EngineConfig tunes dialogue behavior.
type EngineConfig struct {
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	ChunkSize           int           `yaml:"chunk_size"`
	TurnTimeout         time.Duration `yaml:"turn_timeout"`
}

// PrivacyConfig configures at-rest protection of checkpoints.
type PrivacyConfig struct {
	// EncryptionKey is a 32-byte key, hex or raw. Empty disables encryption.
	EncryptionKey string `yaml:"encryption_key"`
	// MaskPatterns are regexes matched against slot keys; matching values
	// are masked before persistence.
	MaskPatterns []string `yaml:"mask_patterns"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     30 * time.Second,
		},
		Store: StoreConfig{Backend: "memory"},
		Engine: EngineConfig{
			ConfidenceThreshold: 0.6,
			ChunkSize:           24,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv maps PARLEY_* environment variables over the loaded file. The env
// always wins so secrets never need to live in the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PARLEY_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("PARLEY_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("PARLEY_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PARLEY_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("PARLEY_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("PARLEY_REDIS_ADDR"); v != "" {
		cfg.Store.Redis.Addr = v
	}
	if v := os.Getenv("PARLEY_ENCRYPTION_KEY"); v != "" {
		cfg.Privacy.EncryptionKey = v
	}
	if v := os.Getenv("PARLEY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PARLEY_CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Engine.ConfidenceThreshold = f
		}
	}
}

// EncryptionKeyBytes decodes the configured key into the 32 bytes AES-256
// expects. A 64-character value is treated as hex, a 32-character value as
// raw bytes. Returns nil when encryption is disabled.
func (c Config) EncryptionKeyBytes() ([]byte, error) {
	key := c.Privacy.EncryptionKey
	switch len(key) {
	case 0:
		return nil, nil
	case 32:
		return []byte(key), nil
	case 64:
		out, err := hex.DecodeString(key)
		if err != nil {
			return nil, fmt.Errorf("invalid hex encryption key: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("encryption key must be 32 raw bytes or 64 hex characters")
	}
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown store backend %q (want memory, sqlite, or redis)", c.Store.Backend)
	}
	if c.Store.Backend == "sqlite" && c.Store.DSN == "" {
		return fmt.Errorf("sqlite backend requires store.dsn")
	}
	if c.Store.Backend == "redis" && c.Store.Redis.Addr == "" {
		return fmt.Errorf("redis backend requires store.redis.addr")
	}
	if c.Engine.ConfidenceThreshold < 0 || c.Engine.ConfidenceThreshold > 1 {
		return fmt.Errorf("engine.confidence_threshold must be within [0, 1]")
	}
	if key := c.Privacy.EncryptionKey; key != "" && len(key) != 32 && len(key) != 64 {
		return fmt.Errorf("privacy.encryption_key must be 32 raw bytes or 64 hex characters")
	}
	return nil
}
