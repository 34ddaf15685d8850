package port

import (
	"context"

	"devassist/internal/domain"
)

// ChatClient talks to the local inference server.
type ChatClient interface {
	// CheckConnection reports whether the server answers at all.
	CheckConnection(ctx context.Context) bool

	// ListModels returns the models installed on the server.
	ListModels(ctx context.Context) ([]domain.ModelInfo, error)

	// StreamChat sends the conversation and calls onChunk for every piece of
	// assistant content as it arrives.
	StreamChat(ctx context.Context, model string, messages []domain.ChatMessage, onChunk func(string)) error
}
