package port

import "context"

// EmbeddingProvider maps text to a fixed-length vector using the model served at endpoint.
type EmbeddingProvider interface {
	// Embed fails if the endpoint is unreachable, answers with a non-success
	// status, or the response lacks the numeric embedding array.
	Embed(ctx context.Context, endpoint, model, text string) ([]float32, error)
}
