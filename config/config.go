package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the question answering service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Dialogue  DialogueConfig  `mapstructure:"dialogue"`
	Grading   GradingConfig   `mapstructure:"grading"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Session   SessionConfig   `mapstructure:"session"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// LLMConfig configures the OpenAI-compatible completion provider.
// DeepSeek is the default; any provider exposing /chat/completions works.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DialogueConfig bounds the clarification exchange.
type DialogueConfig struct {
	MaxClarificationTurns int `mapstructure:"max_clarification_turns"`
	MinQueryRunes         int `mapstructure:"min_query_runes"`
}

func (d DialogueConfig) Validate() error {
	if d.MaxClarificationTurns < 1 {
		return fmt.Errorf("dialogue.max_clarification_turns must be >= 1")
	}
	if d.MinQueryRunes < 1 {
		return fmt.Errorf("dialogue.min_query_runes must be >= 1")
	}
	return nil
}

// GradingConfig overrides the compiled-in grading policy tables.
// Empty maps keep the defaults; entries merge on top of them.
type GradingConfig struct {
	AuthorityTiers   map[string]float64 `mapstructure:"authority_tiers"`
	AuthorityDefault float64            `mapstructure:"authority_default"`
	DocTypeBonus     map[string]float64 `mapstructure:"doc_type_bonus"`
	RecencyFloor     float64            `mapstructure:"recency_floor"`
	RecencySlope     float64            `mapstructure:"recency_slope"`
}

// RetrievalConfig configures the knowledge base index.
type RetrievalConfig struct {
	IndexPath string        `mapstructure:"index_path"`
	TopK      int           `mapstructure:"top_k"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (r RetrievalConfig) Validate() error {
	if strings.TrimSpace(r.IndexPath) == "" {
		return fmt.Errorf("retrieval.index_path required")
	}
	if r.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be >= 1")
	}
	return nil
}

// SessionConfig selects and tunes the session store.
type SessionConfig struct {
	Store  string        `mapstructure:"store"` // memory or redis
	TTL    time.Duration `mapstructure:"ttl"`
	Shards int           `mapstructure:"shards"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains connection settings for the redis session store.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (s SessionConfig) Validate() error {
	switch s.Store {
	case "memory":
	case "redis":
		if s.Redis.Host == "" || s.Redis.Port == "" {
			return fmt.Errorf("session.redis.host/port required when session.store is redis")
		}
	default:
		return fmt.Errorf("unsupported session.store %q (memory or redis)", s.Store)
	}
	if s.TTL <= 0 {
		return fmt.Errorf("session.ttl must be > 0")
	}
	return nil
}

// IngestConfig tunes the offline cleaning/chunking job.
type IngestConfig struct {
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
	MinChunkLen  int `mapstructure:"min_chunk_len"`
}

// LoadConfig loads config from file with env overrides (HEALTHQA_*).
// A missing config file is not an error; defaults cover every key.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("HEALTHQA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Legacy environment fallbacks from the reference deployment.
	if cfg.LLM.APIKey == "" {
		if k := os.Getenv("DEEPSEEK_API_KEY"); k != "" {
			cfg.LLM.APIKey = k
		} else if k := os.Getenv("OPENAI_API_KEY"); k != "" {
			cfg.LLM.APIKey = k
		}
	}

	if err := cfg.Dialogue.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Retrieval.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Session.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.listen", ":8000")
	v.SetDefault("general.log_level", "info")

	v.SetDefault("llm.provider", "deepseek")
	v.SetDefault("llm.base_url", "https://api.deepseek.com")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("dialogue.max_clarification_turns", 3)
	v.SetDefault("dialogue.min_query_runes", 5)

	v.SetDefault("grading.authority_default", 40.0)
	v.SetDefault("grading.recency_floor", 60.0)
	v.SetDefault("grading.recency_slope", 2.0)

	v.SetDefault("retrieval.index_path", "data/kb.bleve")
	v.SetDefault("retrieval.top_k", 5)
	v.SetDefault("retrieval.timeout", 10*time.Second)

	v.SetDefault("session.store", "memory")
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.shards", 16)
	v.SetDefault("session.redis.db", 0)

	v.SetDefault("ingest.chunk_size", 500)
	v.SetDefault("ingest.chunk_overlap", 50)
	v.SetDefault("ingest.min_chunk_len", 20)
}
