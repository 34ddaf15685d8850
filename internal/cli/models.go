package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Check the Ollama connection and list installed models",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rs, err := loadRuntimeSettings()
	if err != nil {
		return err
	}

	chat := newChatClient(rs)
	if !chat.CheckConnection(ctx) {
		return fmt.Errorf("cannot reach Ollama at %s", chat.BaseURL())
	}
	fmt.Printf("Connected to %s\n\n", chat.BaseURL())

	models, err := chat.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("No models installed. Try: ollama pull " + rs.ChatModel)
		return nil
	}

	for _, m := range models {
		marker := " "
		if m.Name == rs.ChatModel || m.Name == rs.EmbeddingModel {
			marker = "*"
		}
		fmt.Printf("%s %-40s %8.1f MB  %s\n", marker, m.Name, float64(m.Size)/(1<<20), m.ModifiedAt.Format("2006-01-02"))
	}
	return nil
}
