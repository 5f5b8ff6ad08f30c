package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/report"
)

const (
	planSuffix     = ".plan.json"
	advisorySuffix = ".advisory.json"
	reportSuffix   = ".report.json"
)

var (
	batchDir         string
	batchConcurrency int
	batchMode        string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Validate every plan/advisory pair in a directory",
	Long:  "Reads <name>.plan.json and <name>.advisory.json pairs from --dir and writes <name>.report.json next to them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}
		mode := model.ViewMode(batchMode)
		if !mode.Valid() {
			return eris.Errorf("unknown view mode %q", batchMode)
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		runID := uuid.NewString()
		log := zap.L().With(zap.String("run_id", runID), zap.String("dir", batchDir))

		reqs, err := loadBatch(batchDir)
		if err != nil {
			return err
		}
		for i := range reqs {
			reqs[i].ViewMode = mode
		}

		concurrency := batchConcurrency
		if concurrency == 0 {
			concurrency = cfg.Batch.MaxConcurrent
		}

		log.Info("batch starting", zap.Int("pairs", len(reqs)), zap.Int("concurrency", concurrency))
		results := env.Engine.ValidateAll(ctx, reqs, concurrency)

		summary, err := writeBatchResults(batchDir, results)
		if err != nil {
			return err
		}

		log.Info("batch complete",
			zap.Int("pass", summary[model.StatusPass]),
			zap.Int("pending", summary[model.StatusPending]),
			zap.Int("warning", summary[model.StatusWarning]),
			zap.Int("fail", summary[model.StatusFail]),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of plan/advisory pairs (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent validations (default from config)")
	batchCmd.Flags().StringVar(&batchMode, "mode", string(model.ViewAdvisoryReport), "view mode: raw_data or advisory_report")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// loadBatch finds every <name>.plan.json with a matching advisory file in dir,
// sorted by name. Plans without an advisory are skipped with a warning.
func loadBatch(dir string) ([]report.Request, error) {
	plans, err := filepath.Glob(filepath.Join(dir, "*"+planSuffix))
	if err != nil {
		return nil, eris.Wrap(err, "batch: list plans")
	}
	sort.Strings(plans)

	reqs := make([]report.Request, 0, len(plans))
	for _, planPath := range plans {
		name := strings.TrimSuffix(filepath.Base(planPath), planSuffix)
		advPath := filepath.Join(dir, name+advisorySuffix)
		if _, err := os.Stat(advPath); err != nil {
			zap.L().Warn("batch: advisory missing, skipping", zap.String("name", name))
			continue
		}

		req, err := loadRequest(planPath, advPath)
		if err != nil {
			return nil, eris.Wrapf(err, "batch: load %s", name)
		}
		req.ID = name
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// writeBatchResults writes one report file per result and tallies overall
// statuses. Results never run are logged and not written.
func writeBatchResults(dir string, results []report.Result) (map[model.CheckStatus]int, error) {
	summary := make(map[model.CheckStatus]int)
	for _, r := range results {
		if r.Err != nil || r.Report == nil {
			zap.L().Warn("batch: not validated", zap.String("name", r.ID), zap.Error(r.Err))
			continue
		}
		summary[r.Report.OverallStatus]++

		data, err := json.MarshalIndent(r.Report, "", "  ")
		if err != nil {
			return nil, eris.Wrapf(err, "batch: encode %s", r.ID)
		}
		if err := os.WriteFile(filepath.Join(dir, r.ID+reportSuffix), data, 0o644); err != nil {
			return nil, eris.Wrapf(err, "batch: write %s", r.ID)
		}
	}
	return summary, nil
}
