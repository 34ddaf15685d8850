package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devassist/internal/adapter/embedding"
	"devassist/internal/adapter/fs"
	"devassist/internal/adapter/memstore"
	"devassist/internal/domain"
)

func newTestIndex() *memstore.VectorIndex {
	idx := memstore.NewVectorIndex(embedding.NewMockProvider(64), nil)
	idx.Configure("", "mock")
	return idx
}

func blob(path string, size int64) domain.RepoFile {
	return domain.RepoFile{Path: path, Type: "blob", Size: size}
}

func TestIngestRepo(t *testing.T) {
	hosting := &fakeHosting{
		tree: []domain.RepoFile{
			blob("cmd/main.go", 20),
			blob("internal/config/config.go", 30),
			blob("docs/logo.png", 10),
			blob("vendor/lib/lib.go", 10),
			blob("internal/huge.go", 5000),
			blob("internal/broken.go", 10),
		},
		files: map[string]string{
			"cmd/main.go":               "package main func main start server",
			"internal/config/config.go": "package config load yaml config file",
		},
		failPath: "internal/broken.go",
	}
	idx := newTestIndex()
	walker := fs.NewWalker([]string{"**/*.go"}, []string{"vendor/**"}, 1000)
	uc := NewIngestUseCase(idx, hosting, walker, 2, 0, nil)

	var calls []int
	result, err := uc.IngestRepo(context.Background(), domain.Repo{Owner: "acme", Name: "widgets"}, func(done, total int, path string) {
		assert.Equal(t, 3, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesIndexed)
	assert.Equal(t, 3, result.FilesSkipped)
	assert.Equal(t, 1, result.FilesFailed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "internal/broken.go")
	assert.Equal(t, []int{1, 2, 3}, calls)
	assert.Equal(t, 2, idx.Count())

	sort.Strings(hosting.fetched)
	assert.Equal(t, []string{"cmd/main.go", "internal/broken.go", "internal/config/config.go"}, hosting.fetched)

	docs, err := idx.Query(context.Background(), "load yaml config", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "internal/config/config.go", docs[0].ID)
}

func TestIngestRepo_MaxFiles(t *testing.T) {
	hosting := &fakeHosting{
		tree:  []domain.RepoFile{blob("a.go", 1), blob("b.go", 1), blob("c.go", 1)},
		files: map[string]string{"a.go": "a", "b.go": "b", "c.go": "c"},
	}
	idx := newTestIndex()
	uc := NewIngestUseCase(idx, hosting, fs.NewWalker(nil, nil, 0), 1, 2, nil)

	result, err := uc.IngestRepo(context.Background(), domain.Repo{Owner: "o", Name: "r"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesIndexed)
	assert.Equal(t, 1, result.FilesSkipped)
	assert.Equal(t, 2, idx.Count())
}

func TestIngestRepo_SkipsBinary(t *testing.T) {
	hosting := &fakeHosting{
		tree:  []domain.RepoFile{blob("bin.dat", 3), blob("ok.txt", 2)},
		files: map[string]string{"bin.dat": "a\x00b", "ok.txt": "ok"},
	}
	idx := newTestIndex()
	uc := NewIngestUseCase(idx, hosting, fs.NewWalker(nil, nil, 0), 2, 0, nil)

	result, err := uc.IngestRepo(context.Background(), domain.Repo{Owner: "o", Name: "r"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesIndexed)
	assert.Equal(t, 1, result.FilesSkipped)
}

func TestIngestRepo_TreeError(t *testing.T) {
	hosting := &fakeHosting{treeErr: assert.AnError}
	uc := NewIngestUseCase(newTestIndex(), hosting, fs.NewWalker(nil, nil, 0), 1, 0, nil)

	_, err := uc.IngestRepo(context.Background(), domain.Repo{Owner: "o", Name: "r"}, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestIngestRepo_NotConfiguredAborts(t *testing.T) {
	hosting := &fakeHosting{
		tree:  []domain.RepoFile{blob("a.go", 1)},
		files: map[string]string{"a.go": "a"},
	}
	idx := memstore.NewVectorIndex(embedding.NewMockProvider(8), nil)
	uc := NewIngestUseCase(idx, hosting, fs.NewWalker(nil, nil, 0), 1, 0, nil)

	_, err := uc.IngestRepo(context.Background(), domain.Repo{Owner: "o", Name: "r"}, nil)
	assert.ErrorIs(t, err, memstore.ErrNotConfigured)
}

func TestIngestRepo_NoHosting(t *testing.T) {
	uc := NewIngestUseCase(newTestIndex(), nil, fs.NewWalker(nil, nil, 0), 1, 0, nil)
	_, err := uc.IngestRepo(context.Background(), domain.Repo{Owner: "o", Name: "r"}, nil)
	assert.Error(t, err)
}

func TestIngestDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "cache.go"), []byte("package pkg lru cache eviction"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("meeting notes"), 0644))

	idx := newTestIndex()
	uc := NewIngestUseCase(idx, nil, fs.NewWalker([]string{"**/*.go"}, nil, 0), 4, 0, nil)

	result, err := uc.IngestDir(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesIndexed)

	docs := idx.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "pkg/cache.go", docs[0].ID)
	assert.Equal(t, "package pkg lru cache eviction", docs[0].Content)
}

func TestIngestDir_Reingest(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.go")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	idx := newTestIndex()
	uc := NewIngestUseCase(idx, nil, fs.NewWalker(nil, nil, 0), 1, 0, nil)
	_, err := uc.IngestDir(context.Background(), root, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0644))
	_, err = uc.IngestDir(context.Background(), root, nil)
	require.NoError(t, err)

	docs := idx.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Content)
}
