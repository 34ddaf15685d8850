package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"devassist/internal/port"
)

const DefaultSize = 1000

// CachedProvider memoizes embeddings per (endpoint, model, text).
// Failed calls are not cached.
type CachedProvider struct {
	inner port.EmbeddingProvider
	cache *lru.Cache[string, []float32]
}

var _ port.EmbeddingProvider = (*CachedProvider)(nil)

func NewCachedProvider(inner port.EmbeddingProvider, size int) *CachedProvider {
	if size <= 0 {
		size = DefaultSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &CachedProvider{
		inner: inner,
		cache: cache,
	}
}

func cacheKey(endpoint, model, text string) string {
	h := sha256.New()
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *CachedProvider) Embed(ctx context.Context, endpoint, model, text string) ([]float32, error) {
	key := cacheKey(endpoint, model, text)
	if vec, ok := c.cache.Get(key); ok {
		return clone(vec), nil
	}

	vec, err := c.inner.Embed(ctx, endpoint, model, text)
	if err != nil {
		return nil, err
	}

	c.cache.Add(key, clone(vec))
	return vec, nil
}

func (c *CachedProvider) Len() int {
	return c.cache.Len()
}

// Purge drops every cached embedding.
func (c *CachedProvider) Purge() {
	c.cache.Purge()
}

func clone(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
