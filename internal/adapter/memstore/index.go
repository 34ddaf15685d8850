// Package memstore holds the in-memory similarity index used for
// retrieval-augmented prompting. Documents live for the duration of the
// process and are never persisted.
package memstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"devassist/internal/domain"
	"devassist/internal/port"
)

// DefaultQueryLimit is the number of documents returned when the caller has no preference.
const DefaultQueryLimit = 3

// VectorIndex stores (id, content, embedding) records in insertion order and
// ranks them by cosine similarity with a linear scan.
//
// Writers are serialized by mu. The embedding call is made outside the lock,
// so a slow provider never blocks readers; the result is committed under the
// lock only if the provider binding is still the one the call started with.
type VectorIndex struct {
	mu         sync.RWMutex
	provider   port.EmbeddingProvider
	logger     *zap.Logger
	identity   domain.ProviderIdentity
	generation uint64
	docs       []domain.IndexedDocument
	dimension  int
}

var _ port.SimilarityIndex = (*VectorIndex)(nil)

func NewVectorIndex(provider port.EmbeddingProvider, logger *zap.Logger) *VectorIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorIndex{
		provider: provider,
		logger:   logger,
	}
}

// Configure binds the endpoint and model used by later Upsert and Query calls.
// Binding a different identity empties the index: embeddings from two models
// live in different vector spaces and cannot be ranked together.
func (x *VectorIndex) Configure(endpoint, model string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	next := domain.ProviderIdentity{Endpoint: endpoint, Model: model}
	if next == x.identity {
		return
	}
	if len(x.docs) > 0 {
		x.logger.Info("embedding provider changed, dropping indexed documents",
			zap.String("endpoint", endpoint),
			zap.String("model", model),
			zap.Int("dropped", len(x.docs)))
	}
	x.identity = next
	x.generation++
	x.docs = nil
	x.dimension = 0
}

// Identity returns the currently bound provider identity.
func (x *VectorIndex) Identity() domain.ProviderIdentity {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.identity
}

// Upsert embeds content and stores it under id, replacing any previous
// document with that id. The new entry goes to the end of the sequence.
// Nothing is written when the embedding call fails.
func (x *VectorIndex) Upsert(ctx context.Context, id, content string) error {
	identity, gen, err := x.binding()
	if err != nil {
		return err
	}

	vec, err := x.embed(ctx, identity, content)
	if err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.generation != gen {
		return ErrReconfigured
	}
	if len(x.docs) > 0 && len(vec) != x.dimension {
		return &ProviderError{
			Endpoint: identity.Endpoint,
			Model:    identity.Model,
			Err:      fmt.Errorf("embedding dimension mismatch: expected %d, got %d", x.dimension, len(vec)),
		}
	}

	x.removeLocked(id)
	x.docs = append(x.docs, domain.IndexedDocument{
		ID:        id,
		Content:   content,
		Embedding: vec,
	})
	x.dimension = len(vec)

	x.logger.Debug("document indexed", zap.String("id", id), zap.Int("dimension", len(vec)))
	return nil
}

// Query returns the limit documents most similar to text, best first.
func (x *VectorIndex) Query(ctx context.Context, text string, limit int) ([]domain.IndexedDocument, error) {
	scored, err := x.QueryScored(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, nil
	}
	docs := make([]domain.IndexedDocument, len(scored))
	for i, s := range scored {
		docs[i] = s.Document
	}
	return docs, nil
}

// QueryScored is Query with the cosine score of every result.
// Ties keep the documents' insertion order.
func (x *VectorIndex) QueryScored(ctx context.Context, text string, limit int) ([]domain.ScoredDocument, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	identity, gen, err := x.binding()
	if err != nil {
		return nil, err
	}
	if limit == 0 || x.Count() == 0 {
		return nil, nil
	}

	query, err := x.embed(ctx, identity, text)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.generation != gen {
		return nil, ErrReconfigured
	}
	if len(x.docs) == 0 {
		return nil, nil
	}
	if len(query) != x.dimension {
		return nil, &ProviderError{
			Endpoint: identity.Endpoint,
			Model:    identity.Model,
			Err:      fmt.Errorf("query dimension mismatch: expected %d, got %d", x.dimension, len(query)),
		}
	}

	scores := make([]domain.ScoredDocument, len(x.docs))
	for i, doc := range x.docs {
		scores[i] = domain.ScoredDocument{
			Document: doc,
			Score:    Cosine(query, doc.Embedding),
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	if limit > len(scores) {
		limit = len(scores)
	}

	results := make([]domain.ScoredDocument, limit)
	for i := 0; i < limit; i++ {
		results[i] = domain.ScoredDocument{
			Document: cloneDocument(scores[i].Document),
			Score:    scores[i].Score,
		}
	}
	return results, nil
}

// Count returns the number of indexed documents.
func (x *VectorIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Clear drops every document. The provider binding is kept.
func (x *VectorIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs = nil
	x.dimension = 0
}

// Documents returns a copy of the indexed documents in insertion order.
func (x *VectorIndex) Documents() []domain.IndexedDocument {
	x.mu.RLock()
	defer x.mu.RUnlock()
	docs := make([]domain.IndexedDocument, len(x.docs))
	for i, doc := range x.docs {
		docs[i] = cloneDocument(doc)
	}
	return docs
}

func (x *VectorIndex) binding() (domain.ProviderIdentity, uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.provider == nil || x.identity.IsZero() {
		return domain.ProviderIdentity{}, 0, ErrNotConfigured
	}
	return x.identity, x.generation, nil
}

func (x *VectorIndex) embed(ctx context.Context, identity domain.ProviderIdentity, text string) ([]float32, error) {
	vec, err := x.provider.Embed(ctx, identity.Endpoint, identity.Model, text)
	if err == nil {
		err = validateVector(vec)
	}
	if err != nil {
		return nil, &ProviderError{
			Endpoint: identity.Endpoint,
			Model:    identity.Model,
			Err:      err,
		}
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

func (x *VectorIndex) removeLocked(id string) {
	kept := x.docs[:0]
	for _, doc := range x.docs {
		if doc.ID != id {
			kept = append(kept, doc)
		}
	}
	// clear the tail so removed documents can be collected
	for i := len(kept); i < len(x.docs); i++ {
		x.docs[i] = domain.IndexedDocument{}
	}
	x.docs = kept
}

func validateVector(vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty embedding")
	}
	for i, v := range vec {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite embedding value at position %d", i)
		}
	}
	return nil
}

func cloneDocument(doc domain.IndexedDocument) domain.IndexedDocument {
	vec := make([]float32, len(doc.Embedding))
	copy(vec, doc.Embedding)
	doc.Embedding = vec
	return doc
}

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or zero magnitude score -Inf so they rank below everything else.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(-1)
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return math.Inf(-1)
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) {
		return math.Inf(-1)
	}
	return sim
}
