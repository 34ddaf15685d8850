package github

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		name  string
		ok    bool
	}{
		{"https://github.com/golang/go", "golang", "go", true},
		{"https://github.com/golang/go.git", "golang", "go", true},
		{"https://github.com/golang/go/tree/master/src", "golang", "go", true},
		{"https://github.com//golang//tools/", "golang", "tools", true},
		{"https://github.com/golang", "", "", false},
		{"not a url", "", "", false},
		{"", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.url, func(t *testing.T) {
			repo, ok := ParseRepoURL(tc.url)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.owner, repo.Owner)
			assert.Equal(t, tc.name, repo.Name)
		})
	}
}

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRepoTree(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"default_branch":"develop"}`))
		},
		"/repos/acme/widgets/git/trees/develop": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("recursive"))
			_, _ = w.Write([]byte(`{"truncated":true,"tree":[
				{"path":"cmd","type":"tree","sha":"1"},
				{"path":"cmd/main.go","type":"blob","sha":"2","size":120},
				{"path":"README.md","type":"blob","sha":"3","size":40}
			]}`))
		},
	})

	files, err := NewClient(srv.URL, "  tok  ", nil).FetchRepoTree(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "cmd/main.go", files[0].Path)
	assert.Equal(t, int64(120), files[0].Size)
}

func TestFetchRepoTree_DefaultsToMain(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets": func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{}`))
		},
		"/repos/acme/widgets/git/trees/main": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"tree":[]}`))
		},
	})

	files, err := NewClient(srv.URL, "", nil).FetchRepoTree(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFetchRepoTree_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"message":"Bad credentials"}`, ErrBadCredentials},
		{"rate limited", http.StatusForbidden, `{"message":"API rate limit exceeded for 1.2.3.4"}`, ErrRateLimited},
		{"not found", http.StatusNotFound, `{"message":"Not Found"}`, ErrRepoNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, map[string]http.HandlerFunc{
				"/repos/acme/widgets": func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
					_, _ = w.Write([]byte(tc.body))
				},
			})
			_, err := NewClient(srv.URL, "", nil).FetchRepoTree(context.Background(), "acme", "widgets")
			assert.ErrorIs(t, err, tc.target)
		})
	}
}

func TestFetchRepoTree_OtherError(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Resource not accessible by integration"}`))
		},
	})
	_, err := NewClient(srv.URL, "", nil).FetchRepoTree(context.Background(), "acme", "widgets")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Resource not accessible by integration", apiErr.Message)
}

func TestFetchFileContent(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("package main\n\nfunc main() {}\n"))
	wrapped := encoded[:10] + "\n" + encoded[10:]

	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets/contents/cmd/main.go": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"encoding":"base64","content":"` + jsonEscape(wrapped) + `"}`))
		},
		"/repos/acme/widgets/contents/broken.txt": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"encoding":"base64","content":"%%%not-base64"}`))
		},
		"/repos/acme/widgets/contents/plain.txt": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"encoding":"none","content":"raw"}`))
		},
	})
	c := NewClient(srv.URL, "", nil)
	ctx := context.Background()

	text, err := c.FetchFileContent(ctx, "acme", "widgets", "cmd/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {}\n", text)

	text, err = c.FetchFileContent(ctx, "acme", "widgets", "broken.txt")
	require.NoError(t, err)
	assert.Equal(t, undecodableContent, text)

	text, err = c.FetchFileContent(ctx, "acme", "widgets", "plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "raw", text)

	_, err = c.FetchFileContent(ctx, "acme", "widgets", "missing.go")
	assert.Error(t, err)
}

func TestFetchPullRequests(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets/pulls": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "open", q.Get("state"))
			assert.Equal(t, "updated", q.Get("sort"))
			assert.Equal(t, "desc", q.Get("direction"))
			_, _ = w.Write([]byte(`[{"id":7,"number":42,"title":"Add cache","html_url":"https://github.com/acme/widgets/pull/42","user":{"login":"octo"},"created_at":"2024-01-02T03:04:05Z"}]`))
		},
	})

	prs, err := NewClient(srv.URL, "", nil).FetchPullRequests(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	require.Len(t, prs, 1)
	assert.Equal(t, 42, prs[0].Number)
	assert.Equal(t, "octo", prs[0].User.Login)
}

func TestFetchPullRequests_FailureIsEmpty(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{})
	prs, err := NewClient(srv.URL, "", nil).FetchPullRequests(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Empty(t, prs)
}

func TestCompareBranches(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets/compare/main...feature": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"ahead","ahead_by":2,"behind_by":0,"total_commits":2,
				"files":[{"filename":"a.go","status":"modified","additions":3,"deletions":1,"patch":"@@ -1 +1 @@"}],
				"commits":[{"sha":"abc","commit":{"message":"fix","author":{"name":"Ann","date":"2024-01-01T00:00:00Z"}},"html_url":"u"}]}`))
		},
		"/repos/acme/widgets/compare/main...nope": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"No common ancestor between main and nope."}`))
		},
	})
	c := NewClient(srv.URL, "", nil)

	cmp, err := c.CompareBranches(context.Background(), "acme", "widgets", "main", "feature")
	require.NoError(t, err)
	assert.Equal(t, 2, cmp.AheadBy)
	require.Len(t, cmp.Files, 1)
	assert.Equal(t, "a.go", cmp.Files[0].Filename)
	require.Len(t, cmp.Commits, 1)
	assert.Equal(t, "Ann", cmp.Commits[0].Commit.Author.Name)

	_, err = c.CompareBranches(context.Background(), "acme", "widgets", "main", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No common ancestor")
}

func TestFetchBranchesAndPRFiles(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"/repos/acme/widgets/branches": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`[{"name":"main","commit":{"sha":"s1","url":"u"},"protected":true}]`))
		},
		"/repos/acme/widgets/pulls/42/files": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"sha":"x","filename":"a.go","status":"added","additions":10,"deletions":0,"changes":10,"patch":"+package a"}]`))
		},
	})
	c := NewClient(srv.URL, "", nil)
	ctx := context.Background()

	branches, err := c.FetchBranches(ctx, "acme", "widgets")
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.True(t, branches[0].Protected)
	assert.Equal(t, "s1", branches[0].Commit.SHA)

	files, err := c.FetchPullRequestFiles(ctx, "acme", "widgets", 42)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "+package a", files[0].Patch)

	_, err = c.FetchPullRequestFiles(ctx, "acme", "widgets", 43)
	assert.Error(t, err)
}

func jsonEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, '\\', 'n')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
