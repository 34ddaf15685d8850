package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"devassist/internal/usecase"
)

var (
	promptQuestion string
	promptLimit    int
	promptSource   string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the retrieval-augmented prompt without calling the model",
	Long: `Ingest the source, retrieve context for the question and print the chat
messages ask would send. Useful for feeding another LLM by hand.

Examples:
  devassist prompt -q "How does auth work?" > prompt.txt`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuestion, "question", "q", "", "question to build the prompt for (required)")
	promptCmd.Flags().IntVarP(&promptLimit, "limit", "n", 0, "number of files to retrieve (default from config)")
	promptCmd.Flags().StringVar(&promptSource, "source", "", "repository URL or directory (default saved repo_url, else --dir)")
	promptCmd.MarkFlagRequired("question")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	idx, err := newIndex(rs)
	if err != nil {
		return err
	}
	if _, err := ingestSource(ctx, idx, rs, promptSource); err != nil {
		return err
	}

	limit := promptLimit
	if limit <= 0 {
		limit = GetConfig().Ask.Limit
	}

	uc := usecase.NewAskUseCase(idx, nil, usecase.AskOptions{
		Repo:        repoLabel(promptSource, rs),
		MaxDocChars: GetConfig().Ask.MaxDocChars,
	}, logger)

	messages, _, err := uc.BuildMessages(ctx, promptQuestion, limit)
	if err != nil {
		return err
	}
	for _, m := range messages {
		fmt.Printf("<%s>\n%s\n</%s>\n\n", m.Role, m.Content, m.Role)
	}
	return nil
}
