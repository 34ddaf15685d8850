package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"devassist/internal/adapter/github"
	"devassist/internal/usecase"
)

var (
	askQuestion string
	askLimit    int
	askSource   string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about the code",
	Long: `Ingest the source, retrieve the most similar files and stream an answer
from the chat model.

Examples:
  devassist ask -q "where are retries configured?"
  devassist ask -q "explain the cache" --source ./pkg/cache -n 5`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to ask (required)")
	askCmd.Flags().IntVarP(&askLimit, "limit", "n", 0, "number of files to retrieve (default from config)")
	askCmd.Flags().StringVar(&askSource, "source", "", "repository URL or directory (default saved repo_url, else --dir)")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}

	chat := newChatClient(rs)
	if !chat.CheckConnection(ctx) {
		return fmt.Errorf("cannot reach Ollama at %s", chat.BaseURL())
	}

	idx, err := newIndex(rs)
	if err != nil {
		return err
	}
	if _, err := ingestSource(ctx, idx, rs, askSource); err != nil {
		return err
	}

	limit := askLimit
	if limit <= 0 {
		limit = GetConfig().Ask.Limit
	}

	uc := usecase.NewAskUseCase(idx, chat, usecase.AskOptions{
		Model:       rs.ChatModel,
		Repo:        repoLabel(askSource, rs),
		MaxDocChars: GetConfig().Ask.MaxDocChars,
	}, logger)

	fmt.Println()
	result, err := uc.Ask(ctx, askQuestion, limit, streamPrinter)
	if err != nil {
		return err
	}
	fmt.Println()

	if len(result.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for _, s := range result.Sources {
			fmt.Printf("  - %s (%.3f)\n", s.ID, s.Score)
		}
	}
	return nil
}

// repoLabel names the repository being asked about, or "" for a directory.
func repoLabel(source string, rs runtimeSettings) string {
	if source == "" {
		source = rs.RepoURL
	}
	if repo, ok := github.ParseRepoURL(source); ok {
		return repo.String()
	}
	return ""
}
