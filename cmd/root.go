package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "advisory-guard",
	Short: "Citation and validation engine for advisory narratives",
	Long:  "Checks generated advisory content against its plan output: every figure must trace to the plan, citations must resolve against the knowledge base, and compliance rules must hold before content is published.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
