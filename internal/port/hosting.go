package port

import (
	"context"

	"devassist/internal/domain"
)

// HostingClient reads repositories from the source-code hosting API.
type HostingClient interface {
	FetchRepoTree(ctx context.Context, owner, repo string) ([]domain.RepoFile, error)

	FetchFileContent(ctx context.Context, owner, repo, path string) (string, error)

	FetchPullRequests(ctx context.Context, owner, repo string) ([]domain.PullRequest, error)

	FetchBranches(ctx context.Context, owner, repo string) ([]domain.Branch, error)

	CompareBranches(ctx context.Context, owner, repo, base, head string) (domain.BranchComparison, error)

	FetchPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error)
}
