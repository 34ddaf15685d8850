package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"devassist/internal/usecase"
)

var repoURL string

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List open pull requests",
	Args:  cobra.NoArgs,
	RunE:  runPRs,
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List branches",
	Args:  cobra.NoArgs,
	RunE:  runBranches,
}

var compareCmd = &cobra.Command{
	Use:   "compare <base> <head>",
	Short: "Summarize the changes between two branches",
	Long: `Compare two branches and stream a changelog-style summary from the chat model.
Use --list to print commits and files without calling the model.

Examples:
  devassist compare main feature/retries
  devassist compare v1.2.0 main --list`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

var reviewPR int

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a pull request with the chat model",
	Args:  cobra.NoArgs,
	RunE:  runReview,
}

var compareList bool

func init() {
	for _, c := range []*cobra.Command{prsCmd, branchesCmd, compareCmd, reviewCmd} {
		c.Flags().StringVar(&repoURL, "repo", "", "GitHub repository URL (default saved repo_url)")
		rootCmd.AddCommand(c)
	}
	compareCmd.Flags().BoolVar(&compareList, "list", false, "list commits and files only")
	reviewCmd.Flags().IntVar(&reviewPR, "pr", 0, "pull request number (required)")
	reviewCmd.MarkFlagRequired("pr")
}

func runPRs(cmd *cobra.Command, args []string) error {
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	repo, err := resolveRepo(repoURL, rs)
	if err != nil {
		return err
	}

	prs, err := newHostingClient(rs).FetchPullRequests(cmd.Context(), repo.Owner, repo.Name)
	if err != nil {
		return err
	}
	if len(prs) == 0 {
		fmt.Printf("No open pull requests in %s.\n", repo)
		return nil
	}
	for _, pr := range prs {
		fmt.Printf("#%-5d %s  (%s, %s)\n", pr.Number, pr.Title, pr.User.Login, pr.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runBranches(cmd *cobra.Command, args []string) error {
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	repo, err := resolveRepo(repoURL, rs)
	if err != nil {
		return err
	}

	branches, err := newHostingClient(rs).FetchBranches(cmd.Context(), repo.Owner, repo.Name)
	if err != nil {
		return err
	}
	for _, b := range branches {
		protected := ""
		if b.Protected {
			protected = " (protected)"
		}
		sha := b.Commit.SHA
		if len(sha) > 7 {
			sha = sha[:7]
		}
		fmt.Printf("%-40s %s%s\n", b.Name, sha, protected)
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	repo, err := resolveRepo(repoURL, rs)
	if err != nil {
		return err
	}
	hosting := newHostingClient(rs)
	base, head := args[0], args[1]

	if compareList {
		cmp, err := hosting.CompareBranches(ctx, repo.Owner, repo.Name, base, head)
		if err != nil {
			return err
		}
		fmt.Printf("%s is %d ahead, %d behind %s (%s)\n\n", head, cmp.AheadBy, cmp.BehindBy, base, cmp.Status)
		for _, c := range cmp.Commits {
			fmt.Printf("  %.7s %s\n", c.SHA, firstLines(c.Commit.Message, 1))
		}
		fmt.Println()
		for _, f := range cmp.Files {
			fmt.Printf("  %-9s %s (+%d -%d)\n", f.Status, f.Filename, f.Additions, f.Deletions)
		}
		return nil
	}

	uc := usecase.NewReviewUseCase(hosting, newChatClient(rs), rs.ChatModel, GetConfig().Ask.MaxDocChars, logger)
	if _, err := uc.SummarizeComparison(ctx, repo, base, head, streamPrinter); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func runReview(cmd *cobra.Command, args []string) error {
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	repo, err := resolveRepo(repoURL, rs)
	if err != nil {
		return err
	}

	uc := usecase.NewReviewUseCase(newHostingClient(rs), newChatClient(rs), rs.ChatModel, GetConfig().Ask.MaxDocChars, logger)
	if _, err := uc.ReviewPullRequest(cmd.Context(), repo, reviewPR, streamPrinter); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
