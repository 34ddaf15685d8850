package usecase

import (
	"context"
	"fmt"
	"sync"

	"devassist/internal/domain"
)

type fakeHosting struct {
	tree     []domain.RepoFile
	files    map[string]string
	failPath string
	treeErr  error
	prFiles  []domain.ChangedFile
	cmp      domain.BranchComparison

	mu      sync.Mutex
	fetched []string
}

func (f *fakeHosting) FetchRepoTree(ctx context.Context, owner, repo string) ([]domain.RepoFile, error) {
	return f.tree, f.treeErr
}

func (f *fakeHosting) FetchFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, path)
	f.mu.Unlock()
	if path == f.failPath {
		return "", fmt.Errorf("boom: %s", path)
	}
	return f.files[path], nil
}

func (f *fakeHosting) FetchPullRequests(ctx context.Context, owner, repo string) ([]domain.PullRequest, error) {
	return nil, nil
}

func (f *fakeHosting) FetchBranches(ctx context.Context, owner, repo string) ([]domain.Branch, error) {
	return nil, nil
}

func (f *fakeHosting) CompareBranches(ctx context.Context, owner, repo, base, head string) (domain.BranchComparison, error) {
	return f.cmp, nil
}

func (f *fakeHosting) FetchPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error) {
	return f.prFiles, nil
}

type fakeChat struct {
	chunks   []string
	err      error
	model    string
	messages []domain.ChatMessage
}

func (f *fakeChat) CheckConnection(ctx context.Context) bool { return true }

func (f *fakeChat) ListModels(ctx context.Context) ([]domain.ModelInfo, error) {
	return nil, nil
}

func (f *fakeChat) StreamChat(ctx context.Context, model string, messages []domain.ChatMessage, onChunk func(string)) error {
	f.model = model
	f.messages = messages
	for _, c := range f.chunks {
		onChunk(c)
	}
	return f.err
}
