package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/gate"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/report"
)

var (
	validatePlanPath     string
	validateAdvisoryPath string
	validateMode         string
	validateFormat       string
	validateGate         bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate one advisory output against its plan output",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}
		mode := model.ViewMode(validateMode)
		if !mode.Valid() {
			return eris.Errorf("unknown view mode %q", validateMode)
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		req, err := loadRequest(validatePlanPath, validateAdvisoryPath)
		if err != nil {
			return err
		}
		req.ViewMode = mode

		rep := env.Engine.Validate(ctx, req)
		if err := writeReport(cmd.OutOrStdout(), rep, validateFormat); err != nil {
			return err
		}

		zap.L().Info("validation complete",
			zap.String("plan", validatePlanPath),
			zap.String("advisory", validateAdvisoryPath),
			zap.String("status", string(rep.OverallStatus)),
		)

		if validateGate {
			return gate.Evaluate(rep, cfg.Gate).Err()
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validatePlanPath, "plan", "", "path to plan output JSON (required)")
	validateCmd.Flags().StringVar(&validateAdvisoryPath, "advisory", "", "path to advisory output JSON (required)")
	validateCmd.Flags().StringVar(&validateMode, "mode", string(model.ViewAdvisoryReport), "view mode: raw_data or advisory_report")
	validateCmd.Flags().StringVar(&validateFormat, "format", "json", "output format: json or text")
	validateCmd.Flags().BoolVar(&validateGate, "gate", false, "exit non-zero when the publish gate blocks")
	_ = validateCmd.MarkFlagRequired("plan")
	_ = validateCmd.MarkFlagRequired("advisory")
	rootCmd.AddCommand(validateCmd)
}

// loadRequest reads a plan/advisory pair from disk.
func loadRequest(planPath, advisoryPath string) (report.Request, error) {
	var req report.Request

	var plan model.PlanOutput
	if err := readJSONFile(planPath, &plan); err != nil {
		return req, err
	}
	var adv model.AdvisoryOutput
	if err := readJSONFile(advisoryPath, &adv); err != nil {
		return req, err
	}

	req.Plan = &plan
	req.Advisory = &adv
	return req, nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

// writeReport renders rep as indented JSON or as markdown text.
func writeReport(w io.Writer, rep *model.ValidationReport, format string) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(rep), "encode report")
	case "text":
		_, err := fmt.Fprint(w, report.FormatText(rep))
		return eris.Wrap(err, "write report")
	default:
		return eris.Errorf("unknown format %q", format)
	}
}
