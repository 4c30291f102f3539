package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
provider: openai
openai:
  api_key: sk-test
  model: gpt-4o
checkpoint:
  backend: memory
approvals:
  sensitive:
    - send_email
review:
  monitored: query
  max_rejections: 2
planner:
  enabled: true
  max_critiques: 1
stream:
  addr: 127.0.0.1:8422
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q, want openai", cfg.Provider)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai = %+v", cfg.OpenAI)
	}
	if cfg.Checkpoint.Backend != "memory" {
		t.Errorf("checkpoint backend = %q, want memory", cfg.Checkpoint.Backend)
	}
	if len(cfg.Approvals.Sensitive) != 1 || cfg.Approvals.Sensitive[0] != "send_email" {
		t.Errorf("sensitive = %v", cfg.Approvals.Sensitive)
	}
	if cfg.Review.MaxRejections != 2 {
		t.Errorf("max rejections = %d, want 2", cfg.Review.MaxRejections)
	}
	if !cfg.Planner.Enabled || cfg.Planner.MaxCritiques != 1 {
		t.Errorf("planner = %+v", cfg.Planner)
	}
	if cfg.Stream.Addr != "127.0.0.1:8422" {
		t.Errorf("stream addr = %q", cfg.Stream.Addr)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := writeConfig(t, `provider: anthropic`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Checkpoint.Backend != "sqlite" {
		t.Errorf("default checkpoint backend = %q, want sqlite", cfg.Checkpoint.Backend)
	}
	if len(cfg.Approvals.Sensitive) != 2 {
		t.Errorf("default sensitive = %v, want send_email and generate_invoice", cfg.Approvals.Sensitive)
	}
	if cfg.Review.Monitored != "query" {
		t.Errorf("default monitored = %q, want query", cfg.Review.Monitored)
	}
	if cfg.Review.MaxRejections != 5 {
		t.Errorf("default max rejections = %d, want 5", cfg.Review.MaxRejections)
	}
	if cfg.Planner.Enabled {
		t.Error("planner enabled by default")
	}
}

func TestWriteTemplateRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := WriteTemplate(path); err != nil {
		t.Fatalf("WriteTemplate failed: %v", err)
	}
	if err := WriteTemplate(path); err == nil {
		t.Fatal("WriteTemplate overwrote an existing file")
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("template does not load back: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("template provider = %q, want anthropic", cfg.Provider)
	}
	if cfg.Review.Monitored != "query" || cfg.Review.MaxRejections != 5 {
		t.Errorf("template review = %+v", cfg.Review)
	}
}

func TestAPIKeyEnvExpansion(t *testing.T) {
	t.Setenv("TEST_TALLY_KEY", "sk-from-env")
	path := writeConfig(t, `
anthropic:
  api_key: ${TEST_TALLY_KEY}
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Anthropic.APIKey != "sk-from-env" {
		t.Errorf("api key = %q, want the expanded env value", cfg.Anthropic.APIKey)
	}
}
