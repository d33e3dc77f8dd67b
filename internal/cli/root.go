package cli

import (
	"github.com/spf13/cobra"

	"movie-cinema/internal/config"
)

// NewRootCmd builds the moviecinema command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "moviecinema",
		Short: "Keep a six-category movie board with seven slots per category",
		Long: `moviecinema keeps a small movie catalog grouped into six fixed categories
(Love, Action, Horror, Animation, Heist, Adventure) and shows it as a
two-column board of seven slots per category.

The catalog lives under a single storage key in SQLite, Redis or memory,
selected by STORAGE_URL. Run "moviecinema bot" to edit it from Telegram.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadDotEnv()
		},
	}

	cmd.AddCommand(
		newShowCmd(),
		newAddCmd(),
		newEditCmd(),
		newDeleteCmd(),
		newExportCmd(),
		newImportCmd(),
		newResetCmd(),
		newBotCmd(),
	)

	return cmd
}
