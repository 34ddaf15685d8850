package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devassist/internal/adapter/embedding"
	"devassist/internal/adapter/memstore"
	"devassist/internal/domain"
)

func seededIndex(t *testing.T) *memstore.VectorIndex {
	t.Helper()
	idx := newTestIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "server.go", "http server listens on port and routes requests"))
	require.NoError(t, idx.Upsert(ctx, "cache.go", "lru cache with eviction of least recently used entries"))
	require.NoError(t, idx.Upsert(ctx, "README.md", "project overview and install instructions"))
	return idx
}

func TestAsk(t *testing.T) {
	chat := &fakeChat{chunks: []string{"The cache ", "evicts LRU entries."}}
	uc := NewAskUseCase(seededIndex(t), chat, AskOptions{Model: "llama3", Repo: "acme/widgets"}, nil)

	var streamed strings.Builder
	result, err := uc.Ask(context.Background(), "how does the lru cache eviction work?", 2, func(s string) {
		streamed.WriteString(s)
	})
	require.NoError(t, err)

	assert.Equal(t, "The cache evicts LRU entries.", result.Answer)
	assert.Equal(t, result.Answer, streamed.String())
	assert.NotEmpty(t, result.ConversationID)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "cache.go", result.Sources[0].ID)
	assert.GreaterOrEqual(t, result.Sources[0].Score, result.Sources[1].Score)

	assert.Equal(t, "llama3", chat.model)
	require.Len(t, chat.messages, 2)
	assert.Equal(t, domain.RoleSystem, chat.messages[0].Role)
	assert.Contains(t, chat.messages[0].Content, "acme/widgets")
	assert.Contains(t, chat.messages[0].Content, "### [1] cache.go")
	assert.Contains(t, chat.messages[0].Content, "lru cache with eviction")
	assert.Equal(t, domain.RoleUser, chat.messages[1].Role)
}

func TestAsk_DefaultLimit(t *testing.T) {
	uc := NewAskUseCase(seededIndex(t), &fakeChat{}, AskOptions{}, nil)
	_, sources, err := uc.BuildMessages(context.Background(), "anything", 0)
	require.NoError(t, err)
	assert.Len(t, sources, memstore.DefaultQueryLimit)
}

func TestAsk_EmptyIndex(t *testing.T) {
	uc := NewAskUseCase(newTestIndex(), &fakeChat{chunks: []string{"no idea"}}, AskOptions{}, nil)
	result, err := uc.Ask(context.Background(), "what is this?", 3, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
}

func TestAsk_EmptyQuestion(t *testing.T) {
	uc := NewAskUseCase(newTestIndex(), &fakeChat{}, AskOptions{}, nil)
	_, err := uc.Ask(context.Background(), "   ", 3, nil)
	assert.Error(t, err)
}

func TestAsk_NotConfigured(t *testing.T) {
	idx := memstore.NewVectorIndex(embedding.NewMockProvider(8), nil)
	uc := NewAskUseCase(idx, &fakeChat{}, AskOptions{}, nil)
	_, err := uc.Ask(context.Background(), "question", 3, nil)
	assert.ErrorIs(t, err, memstore.ErrNotConfigured)
}

func TestAsk_ChatError(t *testing.T) {
	uc := NewAskUseCase(seededIndex(t), &fakeChat{err: assert.AnError}, AskOptions{}, nil)
	_, err := uc.Ask(context.Background(), "question", 1, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAsk_TruncatesDocuments(t *testing.T) {
	idx := newTestIndex()
	require.NoError(t, idx.Upsert(context.Background(), "long.txt", strings.Repeat("word ", 200)))
	chat := &fakeChat{}
	uc := NewAskUseCase(idx, chat, AskOptions{MaxDocChars: 20}, nil)

	_, err := uc.Ask(context.Background(), "word", 1, nil)
	require.NoError(t, err)
	assert.Contains(t, chat.messages[0].Content, "... (truncated)")
	assert.NotContains(t, chat.messages[0].Content, strings.Repeat("word ", 10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate(0, "abc"))
	assert.Equal(t, "abc", truncate(5, "abc"))
	assert.Equal(t, "ab\n... (truncated)", truncate(2, "abc"))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a\n... (truncated)", truncate(2, "aéb"))
}
