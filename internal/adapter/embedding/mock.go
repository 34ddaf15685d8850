package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// MockProvider returns deterministic vectors derived from the text so the
// same text always gets the same embedding. Used by tests, the benchmark and
// the browser demo.
type MockProvider struct {
	dimension int
}

func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockProvider{dimension: dimension}
}

// Embed hashes each word into a bucket, so texts sharing words point in
// similar directions.
func (p *MockProvider) Embed(ctx context.Context, endpoint, model, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, p.dimension)
	for _, word := range splitWords(text) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32()%uint32(p.dimension))]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		norm := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= norm
		}
	}
	return vec, nil
}

func (p *MockProvider) Dimension() int {
	return p.dimension
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
