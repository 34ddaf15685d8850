package memstore

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured = errors.New("embedding model not configured")
	ErrInvalidLimit  = errors.New("query limit must not be negative")
	// ErrReconfigured is returned when the provider identity changed while an
	// embedding request was in flight; its result is discarded.
	ErrReconfigured = errors.New("embedding provider changed during request")
)

// ProviderError wraps a failed or malformed embedding call.
type ProviderError struct {
	Endpoint string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s (model %s): %v", e.Endpoint, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
