package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"devassist/internal/adapter/fs"
	"devassist/internal/adapter/memstore"
	"devassist/internal/domain"
	"devassist/internal/port"
)

// ProgressFunc is called after each file is processed.
type ProgressFunc func(done, total int, path string)

// IngestUseCase loads source files into the similarity index.
type IngestUseCase struct {
	index       port.SimilarityIndex
	hosting     port.HostingClient
	walker      port.FileWalker
	concurrency int
	maxFiles    int
	logger      *zap.Logger
}

// NewIngestUseCase creates a new ingest use case. hosting may be nil when
// only local directories are ingested.
func NewIngestUseCase(
	index port.SimilarityIndex,
	hosting port.HostingClient,
	walker port.FileWalker,
	concurrency int,
	maxFiles int,
	logger *zap.Logger,
) *IngestUseCase {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		index:       index,
		hosting:     hosting,
		walker:      walker,
		concurrency: concurrency,
		maxFiles:    maxFiles,
		logger:      logger,
	}
}

// IngestResult contains the results of an ingestion.
type IngestResult struct {
	FilesIndexed int
	FilesSkipped int
	FilesFailed  int
	Errors       []string
	Duration     time.Duration
}

type ingestItem struct {
	id   string
	load func(ctx context.Context) (string, error)
}

// IngestRepo indexes the default branch of repo, keyed by repository path.
func (u *IngestUseCase) IngestRepo(ctx context.Context, repo domain.Repo, progress ProgressFunc) (*IngestResult, error) {
	if u.hosting == nil {
		return nil, fmt.Errorf("no hosting client configured")
	}

	tree, err := u.hosting.FetchRepoTree(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch repository tree: %w", err)
	}

	skipped := 0
	items := make([]ingestItem, 0, len(tree))
	for _, f := range tree {
		if !u.walker.Match(f.Path, f.Size) {
			skipped++
			continue
		}
		path := f.Path
		items = append(items, ingestItem{
			id: path,
			load: func(ctx context.Context) (string, error) {
				return u.hosting.FetchFileContent(ctx, repo.Owner, repo.Name, path)
			},
		})
	}

	u.logger.Info("ingesting repository",
		zap.String("repo", repo.String()),
		zap.Int("files", len(items)),
		zap.Int("filtered", skipped))

	return u.ingest(ctx, items, skipped, progress)
}

// IngestDir indexes files under root, keyed by slash-separated relative path.
func (u *IngestUseCase) IngestDir(ctx context.Context, root string, progress ProgressFunc) (*IngestResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	items := make([]ingestItem, 0, len(files))
	for _, f := range files {
		path := f.Path
		items = append(items, ingestItem{
			id: f.RelPath,
			load: func(ctx context.Context) (string, error) {
				return fs.ReadFile(path)
			},
		})
	}

	u.logger.Info("ingesting directory", zap.String("root", root), zap.Int("files", len(items)))

	return u.ingest(ctx, items, 0, progress)
}

func (u *IngestUseCase) ingest(ctx context.Context, items []ingestItem, skipped int, progress ProgressFunc) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{FilesSkipped: skipped}

	if u.maxFiles > 0 && len(items) > u.maxFiles {
		result.FilesSkipped += len(items) - u.maxFiles
		items = items[:u.maxFiles]
	}

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(path string, apply func()) {
		mu.Lock()
		defer mu.Unlock()
		apply()
		done++
		if progress != nil {
			progress(done, len(items), path)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for _, item := range items {
		item := item
		g.Go(func() error {
			content, err := item.load(gctx)
			if err == nil && !isText(content) {
				finish(item.id, func() { result.FilesSkipped++ })
				return nil
			}
			if err == nil {
				err = u.index.Upsert(gctx, item.id, content)
			}
			if err != nil {
				if fatal(gctx, err) {
					return err
				}
				u.logger.Warn("failed to ingest file", zap.String("path", item.id), zap.Error(err))
				finish(item.id, func() {
					result.FilesFailed++
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.id, err))
				})
				return nil
			}
			finish(item.id, func() { result.FilesIndexed++ })
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingestion aborted: %w", err)
	}

	sort.Strings(result.Errors)
	result.Duration = time.Since(start)
	return result, nil
}

// fatal reports errors that make continuing pointless.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, memstore.ErrNotConfigured) ||
		errors.Is(err, memstore.ErrReconfigured)
}

// isText rejects content that looks binary.
func isText(content string) bool {
	return utf8.ValidString(content) && !strings.ContainsRune(content, 0)
}
