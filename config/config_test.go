package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Ask.Limit != 3 {
		t.Errorf("expected Ask.Limit=3, got %d", cfg.Ask.Limit)
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("expected provider=ollama, got %s", cfg.Embedding.Provider)
	}
	if cfg.Index.Concurrency != 4 {
		t.Errorf("expected Concurrency=4, got %d", cfg.Index.Concurrency)
	}
	if cfg.Embedding.Endpoint != "" {
		t.Errorf("expected empty embedding endpoint, got %s", cfg.Embedding.Endpoint)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "devassist.yaml")

	content := `
embedding:
  provider: mock
  endpoint: http://embed:11434
  timeout_seconds: 5
index:
  concurrency: 8
ask:
  limit: 5
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Embedding.Provider != "mock" {
		t.Errorf("expected provider=mock, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Endpoint != "http://embed:11434" {
		t.Errorf("expected explicit endpoint, got %s", cfg.Embedding.Endpoint)
	}
	if cfg.Embedding.Timeout() != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Embedding.Timeout())
	}
	if cfg.Index.Concurrency != 8 {
		t.Errorf("expected Concurrency=8, got %d", cfg.Index.Concurrency)
	}
	if cfg.Ask.Limit != 5 {
		t.Errorf("expected Limit=5, got %d", cfg.Ask.Limit)
	}
	if cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("expected untouched default model, got %s", cfg.Embedding.Model)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "devassist.yaml")
	if err := os.WriteFile(configPath, []byte("ask: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid yaml")
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".devassist"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".devassist", "config.yaml")

	content := `
inference:
  chat_model: qwen2.5-coder
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Inference.ChatModel != "qwen2.5-coder" {
		t.Errorf("expected ChatModel=qwen2.5-coder, got %s", cfg.Inference.ChatModel)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devassist.yaml")
	cfg := DefaultConfig()
	cfg.Hosting.RepoURL = "https://github.com/acme/widgets"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Hosting.RepoURL != cfg.Hosting.RepoURL {
		t.Errorf("expected RepoURL=%s, got %s", cfg.Hosting.RepoURL, loaded.Hosting.RepoURL)
	}
}

func TestSettingsDBPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.Path = filepath.Join(t.TempDir(), "nested", "settings.db")

	path, err := cfg.SettingsDBPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != cfg.Settings.Path {
		t.Errorf("expected %s, got %s", cfg.Settings.Path, path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("expected parent directory to exist: %v", err)
	}
}
