package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for devassist.
type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Hosting   HostingConfig   `yaml:"hosting"`
	Index     IndexConfig     `yaml:"index"`
	Ask       AskConfig       `yaml:"ask"`
	Logging   LoggingConfig   `yaml:"logging"`
	Settings  SettingsConfig  `yaml:"settings"`
}

// InferenceConfig points at the Ollama server used for chat.
type InferenceConfig struct {
	Host           string `yaml:"host"`
	ChatModel      string `yaml:"chat_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"`    // "ollama", "openai", "mock"
	Endpoint       string `yaml:"endpoint"`    // empty means the inference host
	Model          string `yaml:"model"`       // e.g., "nomic-embed-text"
	APIKeyEnv      string `yaml:"api_key_env"` // only read by the openai provider
	Dimension      int    `yaml:"dimension"`   // only read by the mock provider
	CacheSize      int    `yaml:"cache_size"`  // 0 disables the cache
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// HostingConfig holds GitHub API configuration.
type HostingConfig struct {
	APIBase  string `yaml:"api_base"`
	TokenEnv string `yaml:"token_env"`
	RepoURL  string `yaml:"repo_url"`
}

// IndexConfig holds ingestion configuration.
type IndexConfig struct {
	Includes    []string `yaml:"includes"`
	Excludes    []string `yaml:"excludes"`
	MaxFileSize int64    `yaml:"max_file_size"`
	MaxFiles    int      `yaml:"max_files"`
	Concurrency int      `yaml:"concurrency"`
}

// AskConfig holds retrieval-augmented prompting configuration.
type AskConfig struct {
	Limit       int `yaml:"limit"`
	MaxDocChars int `yaml:"max_doc_chars"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SettingsConfig locates the persisted settings database.
type SettingsConfig struct {
	Path string `yaml:"path"` // empty means ~/.devassist/settings.db
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Inference: InferenceConfig{
			Host:           "http://localhost:11434",
			ChatModel:      "llama3.2",
			TimeoutSeconds: 300,
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			Model:          "nomic-embed-text",
			APIKeyEnv:      "OPENAI_API_KEY",
			Dimension:      64,
			CacheSize:      1000,
			TimeoutSeconds: 120,
		},
		Hosting: HostingConfig{
			APIBase:  "https://api.github.com",
			TokenEnv: "GITHUB_TOKEN",
		},
		Index: IndexConfig{
			Includes:    []string{"**/*.go", "**/*.py", "**/*.js", "**/*.ts", "**/*.tsx", "**/*.java", "**/*.c", "**/*.cpp", "**/*.h", "**/*.rs", "**/*.md", "**/*.txt", "**/*.yaml", "**/*.json"},
			Excludes:    []string{"**/node_modules/**", "**/vendor/**", "**/.git/**", "**/dist/**", "**/build/**", "**/__pycache__/**", "**/*.min.js", "**/package-lock.json"},
			MaxFileSize: 100 * 1024,
			MaxFiles:    500,
			Concurrency: 4,
		},
		Ask: AskConfig{
			Limit:       3,
			MaxDocChars: 4000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for devassist.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "devassist.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".devassist", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SettingsDBPath returns the settings database path, creating its directory.
func (c *Config) SettingsDBPath() (string, error) {
	path := c.Settings.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, ".devassist", "settings.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	return path, nil
}
