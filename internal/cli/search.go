package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"
)

var (
	searchText   string
	searchLimit  int
	searchJSON   bool
	searchSource string
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the index without calling the chat model",
	Long: `Ingest the source and print the files most similar to the query.

Examples:
  devassist search -q "http middleware"
  devassist search -q "database connection" -n 10 --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "search query (required)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "repository URL or directory (default saved repo_url, else --dir)")
	searchCmd.MarkFlagRequired("query")
}

type searchResult struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}
	idx, err := newIndex(rs)
	if err != nil {
		return err
	}
	if _, err := ingestSource(ctx, idx, rs, searchSource); err != nil {
		return err
	}

	limit := searchLimit
	if limit <= 0 {
		limit = GetConfig().Ask.Limit
	}

	scored, err := idx.QueryScored(ctx, searchText, limit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]searchResult, 0, len(scored))
	for _, s := range scored {
		results = append(results, searchResult{
			ID:      s.Document.ID,
			Score:   finiteScore(s.Score),
			Preview: firstLines(s.Document.Content, 3),
		})
	}

	if searchJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), searchText)
	for i, r := range results {
		fmt.Printf("[%d] %s (score: %.4f)\n", i+1, r.ID, r.Score)
		for _, line := range strings.Split(r.Preview, "\n") {
			fmt.Printf("    %s\n", line)
		}
		fmt.Println()
	}
	return nil
}

// finiteScore maps the -Inf given to degenerate vectors to -1 so results stay JSON-encodable.
func finiteScore(score float64) float64 {
	if math.IsInf(score, -1) {
		return -1
	}
	return score
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(strings.TrimSpace(s), "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
