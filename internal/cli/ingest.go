package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"devassist/internal/adapter/fs"
	"devassist/internal/adapter/github"
	"devassist/internal/adapter/memstore"
	"devassist/internal/usecase"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [repo-url|path]",
	Short: "Ingest a repository or directory into the index",
	Long: `Fetch and embed the files of a GitHub repository or a local directory.
The index lives in memory, so this command reports what would be available to
ask and search; those commands ingest again in their own process.

Examples:
  devassist ingest https://github.com/acme/widgets
  devassist ingest ./services/api
  devassist ingest                 # saved repo_url, else the --dir directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	idx, err := newIndex(rs)
	if err != nil {
		return err
	}

	source := ""
	if len(args) > 0 {
		source = args[0]
	}

	result, err := ingestSource(cmd.Context(), idx, rs, source)
	if err != nil {
		return err
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files indexed:  %d\n", result.FilesIndexed)
	fmt.Printf("  Files skipped:  %d\n", result.FilesSkipped)
	fmt.Printf("  Files failed:   %d\n", result.FilesFailed)
	fmt.Printf("  Duration:       %s\n", formatDuration(result.Duration))

	if len(result.Errors) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

// ingestSource loads source into idx. source may be a repository URL or a
// directory; empty means the saved repository, else the root directory.
func ingestSource(ctx context.Context, idx *memstore.VectorIndex, rs runtimeSettings, source string) (*usecase.IngestResult, error) {
	c := GetConfig()
	walker := fs.NewWalker(c.Index.Includes, c.Index.Excludes, c.Index.MaxFileSize)

	if source == "" {
		source = rs.RepoURL
	}

	if repo, ok := github.ParseRepoURL(source); ok {
		uc := usecase.NewIngestUseCase(idx, newHostingClient(rs), walker, c.Index.Concurrency, c.Index.MaxFiles, logger)
		fmt.Printf("Fetching %s...\n", repo)
		result, err := uc.IngestRepo(ctx, repo, newProgress("Ingesting"))
		if err != nil {
			return nil, fmt.Errorf("ingestion failed: %w", err)
		}
		return result, nil
	}

	path := GetRootDir()
	if source != "" {
		var err error
		path, err = filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	uc := usecase.NewIngestUseCase(idx, nil, walker, c.Index.Concurrency, c.Index.MaxFiles, logger)
	fmt.Printf("Scanning %s...\n", path)
	result, err := uc.IngestDir(ctx, path, newProgress("Ingesting"))
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}
	return result, nil
}

// newProgress returns a callback that draws a progress bar once the total is known.
func newProgress(label string) usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(processed, total int, currentFile string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
