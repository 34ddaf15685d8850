package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"devassist/internal/adapter/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and write saved settings",
	Long: `Saved settings override the config file. Known keys:
  github_token, ollama_url, chat_model, embedding_model, repo_url`,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a saved setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(st *store.BoltStore) error {
			v, ok, err := st.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %s is not set", args[0])
			}
			fmt.Println(v)
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !knownSetting(key) {
			return fmt.Errorf("unknown setting %s", key)
		}
		return withSettings(func(st *store.BoltStore) error {
			return st.Put(key, strings.TrimSpace(args[1]))
		})
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a saved setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(st *store.BoltStore) error {
			return st.Delete(args[0])
		})
	},
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSettings(func(st *store.BoltStore) error {
			all, err := st.List()
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(all))
			for k := range all {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				v := all[k]
				if k == store.KeyGitHubToken {
					v = maskSecret(v)
				}
				fmt.Printf("%-16s %s\n", k, v)
			}
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsUnsetCmd, settingsListCmd)
	rootCmd.AddCommand(settingsCmd)
}

func withSettings(fn func(st *store.BoltStore) error) error {
	st, err := openSettings()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func knownSetting(key string) bool {
	switch key {
	case store.KeyGitHubToken, store.KeyOllamaURL, store.KeyChatModel, store.KeyEmbeddingModel, store.KeyRepoURL:
		return true
	}
	return false
}

// maskSecret keeps the last four characters of a token.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
