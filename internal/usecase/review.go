package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"devassist/internal/domain"
	"devassist/internal/port"
)

// ReviewUseCase asks the model to review pull requests and branch diffs.
type ReviewUseCase struct {
	hosting       port.HostingClient
	chat          port.ChatClient
	model         string
	maxPatchChars int
	logger        *zap.Logger
}

// NewReviewUseCase creates a new review use case.
func NewReviewUseCase(hosting port.HostingClient, chat port.ChatClient, model string, maxPatchChars int, logger *zap.Logger) *ReviewUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewUseCase{
		hosting:       hosting,
		chat:          chat,
		model:         model,
		maxPatchChars: maxPatchChars,
		logger:        logger,
	}
}

type reviewPromptData struct {
	Repo     string
	Number   int
	MaxChars int
	Files    []domain.ChangedFile
}

type comparePromptData struct {
	Repo       string
	Base       string
	Head       string
	MaxChars   int
	Comparison domain.BranchComparison
}

// ReviewPullRequest streams a review of the changes in pull request number.
func (u *ReviewUseCase) ReviewPullRequest(ctx context.Context, repo domain.Repo, number int, onChunk func(string)) (string, error) {
	files, err := u.hosting.FetchPullRequestFiles(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("pull request #%d has no changed files", number)
	}

	prompt, err := renderPrompt("review.tmpl", reviewPromptData{
		Repo:     repo.String(),
		Number:   number,
		MaxChars: u.maxPatchChars,
		Files:    files,
	})
	if err != nil {
		return "", err
	}
	u.logger.Debug("reviewing pull request",
		zap.String("repo", repo.String()),
		zap.Int("number", number),
		zap.Int("files", len(files)))

	return streamCollect(ctx, u.chat, u.model, []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}}, onChunk)
}

// SummarizeComparison streams a changelog-style summary of head relative to base.
func (u *ReviewUseCase) SummarizeComparison(ctx context.Context, repo domain.Repo, base, head string, onChunk func(string)) (string, error) {
	cmp, err := u.hosting.CompareBranches(ctx, repo.Owner, repo.Name, base, head)
	if err != nil {
		return "", err
	}
	if len(cmp.Commits) == 0 && len(cmp.Files) == 0 {
		return "", fmt.Errorf("%s has no changes relative to %s", head, base)
	}

	prompt, err := renderPrompt("compare.tmpl", comparePromptData{
		Repo:       repo.String(),
		Base:       base,
		Head:       head,
		MaxChars:   u.maxPatchChars,
		Comparison: cmp,
	})
	if err != nil {
		return "", err
	}
	u.logger.Debug("summarizing comparison",
		zap.String("repo", repo.String()),
		zap.String("base", base),
		zap.String("head", head),
		zap.Int("commits", len(cmp.Commits)))

	return streamCollect(ctx, u.chat, u.model, []domain.ChatMessage{{Role: domain.RoleUser, Content: prompt}}, onChunk)
}
