package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"devassist/internal/port"
)

// DefaultOllamaHost is used when the index is configured with an empty endpoint.
const DefaultOllamaHost = "http://localhost:11434"

// OllamaProvider calls Ollama's /api/embeddings endpoint, one text per request.
type OllamaProvider struct {
	client *http.Client
}

var _ port.EmbeddingProvider = (*OllamaProvider)(nil)

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func NewOllamaProvider(timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaProvider{
		client: &http.Client{Timeout: timeout},
	}
}

func (p *OllamaProvider) Embed(ctx context.Context, endpoint, model, text string) ([]float32, error) {
	if endpoint == "" {
		endpoint = DefaultOllamaHost
	}

	jsonData, err := json.Marshal(ollamaEmbeddingRequest{Model: model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(endpoint, "/") + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to generate embedding: status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}
	if embResp.Embedding == nil {
		return nil, fmt.Errorf("response has no embedding field (body: %s)", preview(body))
	}
	return embResp.Embedding, nil
}
