package cli

import (
	"fmt"
	"os"
	"strings"

	"devassist/internal/adapter/cache"
	"devassist/internal/adapter/embedding"
	"devassist/internal/adapter/github"
	"devassist/internal/adapter/memstore"
	"devassist/internal/adapter/ollama"
	"devassist/internal/adapter/store"
	"devassist/internal/domain"
)

// openSettings opens the settings database named by the config.
func openSettings() (*store.BoltStore, error) {
	path, err := GetConfig().SettingsDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve settings path: %w", err)
	}
	st, err := store.NewBoltStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return st, nil
}

// runtimeSettings are config values overridden by anything saved with
// "devassist settings set".
type runtimeSettings struct {
	OllamaURL      string
	ChatModel      string
	EmbeddingModel string
	GitHubToken    string
	RepoURL        string
}

func loadRuntimeSettings() (runtimeSettings, error) {
	c := GetConfig()
	st, err := openSettings()
	if err != nil {
		return runtimeSettings{}, err
	}
	defer st.Close()

	return runtimeSettings{
		OllamaURL:      st.GetOr(store.KeyOllamaURL, c.Inference.Host),
		ChatModel:      st.GetOr(store.KeyChatModel, c.Inference.ChatModel),
		EmbeddingModel: st.GetOr(store.KeyEmbeddingModel, c.Embedding.Model),
		GitHubToken:    st.GetOr(store.KeyGitHubToken, os.Getenv(c.Hosting.TokenEnv)),
		RepoURL:        st.GetOr(store.KeyRepoURL, c.Hosting.RepoURL),
	}, nil
}

func newChatClient(rs runtimeSettings) *ollama.Client {
	return ollama.NewClient(rs.OllamaURL, logger)
}

func newHostingClient(rs runtimeSettings) *github.Client {
	return github.NewClient(GetConfig().Hosting.APIBase, rs.GitHubToken, logger)
}

// newIndex builds the similarity index bound to the configured embedding
// endpoint and model.
func newIndex(rs runtimeSettings) (*memstore.VectorIndex, error) {
	c := GetConfig()

	provider, err := embedding.NewProvider(embedding.Config{
		Provider:  c.Embedding.Provider,
		APIKeyEnv: c.Embedding.APIKeyEnv,
		Dimension: c.Embedding.Dimension,
		Timeout:   c.Embedding.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	if c.Embedding.CacheSize > 0 {
		provider = cache.NewCachedProvider(provider, c.Embedding.CacheSize)
	}

	endpoint := c.Embedding.Endpoint
	if endpoint == "" {
		endpoint = rs.OllamaURL
	}

	idx := memstore.NewVectorIndex(provider, logger)
	idx.Configure(endpoint, rs.EmbeddingModel)
	return idx, nil
}

// resolveRepo parses raw, falling back to the saved repository URL.
func resolveRepo(raw string, rs runtimeSettings) (domain.Repo, error) {
	if strings.TrimSpace(raw) == "" {
		raw = rs.RepoURL
	}
	if raw == "" {
		return domain.Repo{}, fmt.Errorf("no repository given: pass --repo or run 'devassist settings set repo_url <url>'")
	}
	repo, ok := github.ParseRepoURL(raw)
	if !ok {
		return domain.Repo{}, fmt.Errorf("invalid GitHub repository URL: %s", raw)
	}
	return repo, nil
}

// streamPrinter writes streamed chunks straight to stdout.
func streamPrinter(chunk string) {
	fmt.Print(chunk)
}
