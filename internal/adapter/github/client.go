// Package github wraps the GitHub REST v3 endpoints devassist reads:
// repository tree and contents, pull requests, branches and comparisons.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"devassist/internal/domain"
	"devassist/internal/port"
)

const DefaultAPIBase = "https://api.github.com"

// undecodableContent replaces file bodies whose base64 payload is corrupt.
const undecodableContent = "// Error: Could not decode file content"

var (
	ErrBadCredentials = errors.New("bad credentials: the GitHub token is invalid or expired")
	ErrRateLimited    = errors.New("rate limit exceeded: add a valid GitHub token in settings")
	ErrRepoNotFound   = errors.New("repository not found")
)

// APIError is a non-success response without a more specific mapping.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub error (%d): %s", e.Status, e.Message)
}

type Client struct {
	apiBase string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

var _ port.HostingClient = (*Client)(nil)

func NewClient(apiBase, token string, logger *zap.Logger) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		token:   strings.TrimSpace(token),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// ParseRepoURL extracts owner and repository name from a repository URL.
func ParseRepoURL(raw string) (domain.Repo, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.Repo{}, false
	}
	path := strings.TrimSuffix(u.Path, ".git")
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return domain.Repo{}, false
	}
	return domain.Repo{Owner: parts[0], Name: parts[1]}, true
}

type repoResponse struct {
	DefaultBranch string `json:"default_branch"`
}

type treeResponse struct {
	Tree      []domain.RepoFile `json:"tree"`
	Truncated bool              `json:"truncated"`
}

type contentResponse struct {
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// FetchRepoTree lists every blob on the default branch.
func (c *Client) FetchRepoTree(ctx context.Context, owner, repo string) ([]domain.RepoFile, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		msg := errorMessage(resp)
		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, ErrBadCredentials
		case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(msg), "rate limit"):
			return nil, ErrRateLimited
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s/%s", ErrRepoNotFound, owner, repo)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var meta repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode repository: %w", err)
	}
	branch := meta.DefaultBranch
	if branch == "" {
		branch = "main"
	}

	treeResp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, url.PathEscape(branch)))
	if err != nil {
		return nil, err
	}
	defer treeResp.Body.Close()

	if !ok(treeResp) {
		return nil, fmt.Errorf("failed to fetch file tree: %w", &APIError{Status: treeResp.StatusCode, Message: errorMessage(treeResp)})
	}

	var tree treeResponse
	if err := json.NewDecoder(treeResp.Body).Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to decode file tree: %w", err)
	}
	if tree.Truncated {
		c.logger.Warn("repository is too large, some files may be missing",
			zap.String("repo", owner+"/"+repo))
	}

	blobs := make([]domain.RepoFile, 0, len(tree.Tree))
	for _, item := range tree.Tree {
		if item.Type == "blob" {
			blobs = append(blobs, item)
		}
	}
	return blobs, nil
}

// FetchFileContent returns the decoded text of a file on the default branch.
func (c *Client) FetchFileContent(ctx context.Context, owner, repo, path string) (string, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path)))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return "", fmt.Errorf("failed to fetch file %s: %w", path, &APIError{Status: resp.StatusCode, Message: errorMessage(resp)})
	}

	var content contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return "", fmt.Errorf("failed to decode file %s: %w", path, err)
	}
	if content.Encoding == "base64" && content.Content != "" {
		return decodeBase64(content.Content), nil
	}
	return content.Content, nil
}

// FetchPullRequests lists open pull requests, most recently updated first.
// A failed request is logged and yields an empty list.
func (c *Client) FetchPullRequests(ctx context.Context, owner, repo string) ([]domain.PullRequest, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/pulls?state=open&sort=updated&direction=desc", owner, repo))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		c.logger.Warn("failed to fetch pull requests",
			zap.String("repo", owner+"/"+repo),
			zap.Int("status", resp.StatusCode))
		return []domain.PullRequest{}, nil
	}

	var prs []domain.PullRequest
	if err := json.NewDecoder(resp.Body).Decode(&prs); err != nil {
		return nil, fmt.Errorf("failed to decode pull requests: %w", err)
	}
	return prs, nil
}

func (c *Client) FetchBranches(ctx context.Context, owner, repo string) ([]domain.Branch, error) {
	var branches []domain.Branch
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/branches?per_page=100", owner, repo), "failed to fetch branches", &branches); err != nil {
		return nil, err
	}
	return branches, nil
}

// CompareBranches returns commits and changed files between base and head.
func (c *Client) CompareBranches(ctx context.Context, owner, repo, base, head string) (domain.BranchComparison, error) {
	var cmp domain.BranchComparison
	path := fmt.Sprintf("/repos/%s/%s/compare/%s...%s", owner, repo, url.PathEscape(base), url.PathEscape(head))
	if err := c.getJSON(ctx, path, "failed to compare branches", &cmp); err != nil {
		return domain.BranchComparison{}, err
	}
	return cmp, nil
}

func (c *Client) FetchPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]domain.ChangedFile, error) {
	var files []domain.ChangedFile
	if err := c.getJSON(ctx, fmt.Sprintf("/repos/%s/%s/pulls/%d/files", owner, repo, number), "failed to fetch PR files", &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) getJSON(ctx context.Context, path, failure string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !ok(resp) {
		return fmt.Errorf("%s: %w", failure, &APIError{Status: resp.StatusCode, Message: errorMessage(resp)})
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", failure, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func ok(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

func errorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return http.StatusText(resp.StatusCode)
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func decodeBase64(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return undecodableContent
	}
	return string(data)
}
