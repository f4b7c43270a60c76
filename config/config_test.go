package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.Listen != ":8000" {
		t.Fatalf("listen = %q, want :8000", cfg.General.Listen)
	}
	if cfg.LLM.Provider != "deepseek" || cfg.LLM.Model != "deepseek-chat" {
		t.Fatalf("llm defaults wrong: %+v", cfg.LLM)
	}
	if cfg.Dialogue.MaxClarificationTurns != 3 || cfg.Dialogue.MinQueryRunes != 5 {
		t.Fatalf("dialogue defaults wrong: %+v", cfg.Dialogue)
	}
	if cfg.Retrieval.TopK != 5 || cfg.Retrieval.IndexPath != "data/kb.bleve" {
		t.Fatalf("retrieval defaults wrong: %+v", cfg.Retrieval)
	}
	if cfg.Session.Store != "memory" || cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("session defaults wrong: %+v", cfg.Session)
	}
	if cfg.Ingest.ChunkSize != 500 || cfg.Ingest.ChunkOverlap != 50 || cfg.Ingest.MinChunkLen != 20 {
		t.Fatalf("ingest defaults wrong: %+v", cfg.Ingest)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
general:
  listen: ":9100"
dialogue:
  max_clarification_turns: 2
retrieval:
  top_k: 8
session:
  ttl: 10m
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.General.Listen != ":9100" {
		t.Fatalf("listen = %q, want :9100", cfg.General.Listen)
	}
	if cfg.Dialogue.MaxClarificationTurns != 2 {
		t.Fatalf("max turns = %d, want 2", cfg.Dialogue.MaxClarificationTurns)
	}
	if cfg.Retrieval.TopK != 8 {
		t.Fatalf("top_k = %d, want 8", cfg.Retrieval.TopK)
	}
	if cfg.Session.TTL != 10*time.Minute {
		t.Fatalf("ttl = %v, want 10m", cfg.Session.TTL)
	}
	// Keys absent from the file keep their defaults.
	if cfg.LLM.BaseURL != "https://api.deepseek.com" {
		t.Fatalf("base_url = %q, want default", cfg.LLM.BaseURL)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("explicitly named missing file must error")
	}
}

func TestLoadConfigAPIKeyFallback(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test-fallback")
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test-fallback" {
		t.Fatalf("api key fallback not applied: %q", cfg.LLM.APIKey)
	}
}

func TestSessionValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SessionConfig
		wantErr bool
	}{
		{"memory ok", SessionConfig{Store: "memory", TTL: time.Minute}, false},
		{"redis needs host", SessionConfig{Store: "redis", TTL: time.Minute}, true},
		{"redis ok", SessionConfig{Store: "redis", TTL: time.Minute, Redis: RedisConfig{Host: "localhost", Port: "6379"}}, false},
		{"unknown store", SessionConfig{Store: "etcd", TTL: time.Minute}, true},
		{"zero ttl", SessionConfig{Store: "memory"}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
