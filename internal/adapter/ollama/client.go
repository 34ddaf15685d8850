// Package ollama is a client for the local inference server: connection
// check, model listing and streaming chat.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"devassist/internal/domain"
	"devassist/internal/port"
)

const DefaultHost = "http://localhost:11434"

// maxLineSize bounds a single NDJSON line of the chat stream.
const maxLineSize = 1 << 20

type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

var _ port.ChatClient = (*Client)(nil)

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type chatChunk struct {
	Message *domain.ChatMessage `json:"message,omitempty"`
	Done    bool                `json:"done"`
	Error   string              `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []domain.ModelInfo `json:"models"`
}

// NewClient creates a client for baseURL. The http.Client carries no timeout;
// chat streams are bounded by the caller's context instead.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultHost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		logger:  logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("inference server unreachable", zap.String("url", c.baseURL), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

func (c *Client) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch models: status %d: %s", resp.StatusCode, string(body))
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}
	if tags.Models == nil {
		return []domain.ModelInfo{}, nil
	}
	return tags.Models, nil
}

// StreamChat posts the conversation with streaming enabled and feeds every
// content fragment to onChunk. Blank lines are skipped; lines that are not
// valid JSON are logged and skipped. Cancelling ctx ends the stream quietly.
func (c *Client) StreamChat(ctx context.Context, model string, messages []domain.ChatMessage, onChunk func(string)) error {
	jsonData, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if aborted(ctx, err) {
			c.logger.Info("chat stream aborted")
			return nil
		}
		return fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chat request failed: status %d: %s", resp.StatusCode, string(body))
	}

	err = c.readStream(resp.Body, onChunk)
	if err != nil && aborted(ctx, err) {
		c.logger.Info("chat stream aborted")
		return nil
	}
	return err
}

func (c *Client) readStream(r io.Reader, onChunk func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			c.logger.Warn("skipping unparsable chat chunk", zap.ByteString("line", line), zap.Error(err))
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("chat error: %s", chunk.Error)
		}
		if chunk.Message != nil && chunk.Message.Content != "" && onChunk != nil {
			onChunk(chunk.Message.Content)
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read chat stream: %w", err)
	}
	return nil
}

func aborted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
