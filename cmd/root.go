package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/firmlink/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "firmlink",
	Short: "Organization name to canonical firm matcher",
	Long:  "Resolves free-text organization names against a canonical firm registry using a chain of exact, keyed, and fuzzy strategies, then samples results for precision validation.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
