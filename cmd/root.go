package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coverage-cli/internal/config"
	"github.com/sells-group/coverage-cli/pkg/coverage"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "coverage-cli",
	Short: "Mobile network coverage lookup",
	Long:  "Looks up mobile network coverage for an address against a coverage service, from the terminal or through a web form.",
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

// newCoverageClient builds the coverage client from the loaded config.
func newCoverageClient(c config.CoverageConfig) coverage.Client {
	return coverage.NewClient(c.BaseURL,
		coverage.WithTimeout(c.Timeout()),
		coverage.WithRateLimit(c.RateLimit),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
