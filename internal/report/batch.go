package report

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/advisory-guard/internal/model"
)

// Result is the outcome of one request in a batch. Err is set only when the
// request was never run because the context ended.
type Result struct {
	ID     string                  `json:"id,omitempty"`
	Report *model.ValidationReport `json:"report,omitempty"`
	Err    error                   `json:"-"`
}

// ValidateAll validates reqs with at most concurrency in flight. Results are
// in input order. Once ctx is done no new requests are started.
func (e *Engine) ValidateAll(ctx context.Context, reqs []Request, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(reqs))
	start := time.Now()

	var failed, skipped atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		results[i].ID = req.ID
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				skipped.Add(1)
				return nil
			}
			rep := e.Validate(ctx, req)
			results[i].Report = rep
			if rep.OverallStatus == model.StatusFail {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("report: batch complete",
		zap.Int("total", len(reqs)),
		zap.Int64("failed", failed.Load()),
		zap.Int64("skipped", skipped.Load()),
		zap.Int("concurrency", concurrency),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results
}
