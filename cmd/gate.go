package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/advisory-guard/internal/gate"
)

var (
	gateBadgePath string
	gateMinScore  float64
)

var gateCmd = &cobra.Command{
	Use:   "gate <report.json>",
	Short: "Decide whether a validated advisory may be published",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		rep, err := gate.ParseReport(f)
		if err != nil {
			return err
		}

		policy := cfg.Gate
		if cmd.Flags().Changed("min-score") {
			policy.MinScore = gateMinScore
		}
		d := gate.Evaluate(rep, policy)

		fmt.Fprint(cmd.OutOrStdout(), gate.FormatMarkdown(rep, d))

		if gateBadgePath != "" {
			if err := os.WriteFile(gateBadgePath, []byte(gate.FormatBadgeJSON(d)), 0o644); err != nil {
				return eris.Wrap(err, "write badge")
			}
		}
		return d.Err()
	},
}

func init() {
	gateCmd.Flags().StringVar(&gateBadgePath, "badge", "", "write a shields.io endpoint badge to this path")
	gateCmd.Flags().Float64Var(&gateMinScore, "min-score", 0, "override gate.min_score")
	rootCmd.AddCommand(gateCmd)
}
