package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"devassist/internal/adapter/memstore"
	"devassist/internal/domain"
	"devassist/internal/port"
)

// AskUseCase answers questions about the ingested code.
type AskUseCase struct {
	index       port.SimilarityIndex
	chat        port.ChatClient
	model       string
	repo        string
	maxDocChars int
	logger      *zap.Logger
}

// AskOptions tunes prompt construction.
type AskOptions struct {
	Model       string
	Repo        string
	MaxDocChars int
}

// NewAskUseCase creates a new ask use case.
func NewAskUseCase(index port.SimilarityIndex, chat port.ChatClient, opts AskOptions, logger *zap.Logger) *AskUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskUseCase{
		index:       index,
		chat:        chat,
		model:       opts.Model,
		repo:        opts.Repo,
		maxDocChars: opts.MaxDocChars,
		logger:      logger,
	}
}

// AskResult is a generated answer and the documents it was grounded on.
type AskResult struct {
	ConversationID string
	Answer         string
	Sources        []domain.Source
}

type askPromptData struct {
	Repo      string
	MaxChars  int
	Documents []domain.IndexedDocument
}

// BuildMessages retrieves context for question and renders the chat messages.
func (u *AskUseCase) BuildMessages(ctx context.Context, question string, limit int) ([]domain.ChatMessage, []domain.Source, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, nil, fmt.Errorf("question must not be empty")
	}
	if limit <= 0 {
		limit = memstore.DefaultQueryLimit
	}

	scored, err := u.index.QueryScored(ctx, question, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	docs := make([]domain.IndexedDocument, 0, len(scored))
	sources := make([]domain.Source, 0, len(scored))
	for _, s := range scored {
		docs = append(docs, s.Document)
		sources = append(sources, domain.Source{ID: s.Document.ID, Score: s.Score})
	}

	system, err := renderPrompt("ask.tmpl", askPromptData{
		Repo:      u.repo,
		MaxChars:  u.maxDocChars,
		Documents: docs,
	})
	if err != nil {
		return nil, nil, err
	}

	messages := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: question},
	}
	return messages, sources, nil
}

// Ask streams an answer to question through onChunk and returns it with its sources.
func (u *AskUseCase) Ask(ctx context.Context, question string, limit int, onChunk func(string)) (*AskResult, error) {
	id := uuid.NewString()
	log := u.logger.With(zap.String("conversation_id", id))

	messages, sources, err := u.BuildMessages(ctx, question, limit)
	if err != nil {
		return nil, err
	}
	log.Debug("context retrieved", zap.Int("sources", len(sources)), zap.String("model", u.model))

	answer, err := streamCollect(ctx, u.chat, u.model, messages, onChunk)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}
	log.Info("answer generated", zap.Int("chars", len(answer)))

	return &AskResult{
		ConversationID: id,
		Answer:         answer,
		Sources:        sources,
	}, nil
}

// streamCollect forwards chunks to onChunk and returns the concatenated text.
func streamCollect(ctx context.Context, chat port.ChatClient, model string, messages []domain.ChatMessage, onChunk func(string)) (string, error) {
	var sb strings.Builder
	err := chat.StreamChat(ctx, model, messages, func(chunk string) {
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	})
	return sb.String(), err
}
