package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
coordinator:
  max_concurrent_agents: 8
  auto_spawn: true
  stale_task_threshold: 5m
platform:
  base_url: https://example.test/api
backend:
  model: claude-sonnet-4-20250514
  use_aws_bedrock: true
  aws_region: us-west-2
tui:
  refresh_rate: 250ms
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Coordinator.MaxConcurrentAgents != 8 {
		t.Errorf("max agents: got %d", cfg.Coordinator.MaxConcurrentAgents)
	}
	if !cfg.Coordinator.AutoSpawn {
		t.Error("auto_spawn not read")
	}
	if cfg.Coordinator.StaleTaskThreshold != 5*time.Minute {
		t.Errorf("stale threshold: got %v", cfg.Coordinator.StaleTaskThreshold)
	}
	if cfg.Platform.BaseURL != "https://example.test/api" {
		t.Errorf("base url: got %q", cfg.Platform.BaseURL)
	}
	if !cfg.Backend.UseAWSBedrock || cfg.Backend.AWSRegion != "us-west-2" {
		t.Errorf("backend: %+v", cfg.Backend)
	}
	if cfg.TUI.RefreshRate != 250*time.Millisecond {
		t.Errorf("refresh rate: got %v", cfg.TUI.RefreshRate)
	}
}

func TestLoadFromPathDefaults(t *testing.T) {
	path := writeConfig(t, "platform:\n  base_url: https://example.test\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Coordinator.MaxConcurrentAgents != 4 {
		t.Errorf("expected default max agents 4, got %d", cfg.Coordinator.MaxConcurrentAgents)
	}
	if cfg.Coordinator.StaleTaskThreshold != 10*time.Minute {
		t.Errorf("expected default stale threshold 10m, got %v", cfg.Coordinator.StaleTaskThreshold)
	}
	if cfg.TUI.RefreshRate != 500*time.Millisecond {
		t.Errorf("expected default refresh 500ms, got %v", cfg.TUI.RefreshRate)
	}
	if cfg.Coordinator.AutoSpawn {
		t.Error("auto_spawn should default to false")
	}
}

func TestLoadFromPathExpandsEnv(t *testing.T) {
	t.Setenv("TEST_REGENT_KEY", "sk-from-env")
	path := writeConfig(t, "backend:\n  api_key: ${TEST_REGENT_KEY}\n")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend.APIKey != "sk-from-env" {
		t.Errorf("api key not expanded: %q", cfg.Backend.APIKey)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Coordinator.MaxConcurrentAgents != 4 {
		t.Errorf("max agents: got %d", cfg.Coordinator.MaxConcurrentAgents)
	}
	if cfg.Coordinator.StaleTaskThreshold != 10*time.Minute {
		t.Errorf("stale threshold: got %v", cfg.Coordinator.StaleTaskThreshold)
	}
	if cfg.TUI.RefreshRate != 500*time.Millisecond {
		t.Errorf("refresh rate: got %v", cfg.TUI.RefreshRate)
	}
}
