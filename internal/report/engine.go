// Package report combines provenance, compliance and schema checks into a
// ValidationReport for one plan/advisory pair.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/compliance"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/provenance"
)

// Report category names, in report order.
const (
	CategoryProvenance = "provenance"
	CategoryCompliance = "compliance"
	CategorySchema     = "schema"
)

// Schema check identifiers.
const (
	CheckPlanSchema     = "plan_schema"
	CheckAdvisorySchema = "advisory_schema"
)

// Request is one plan/advisory pair to validate.
type Request struct {
	ID       string                `json:"id,omitempty"`
	Plan     *model.PlanOutput     `json:"plan_output"`
	Advisory *model.AdvisoryOutput `json:"advisory_output"`
	ViewMode model.ViewMode        `json:"view_mode,omitempty"`
}

// Engine runs every validation component. It holds no per-request state and
// is safe for concurrent use.
type Engine struct {
	Provenance   *provenance.Validator
	Scanner      *compliance.Scanner
	SchemaChecks bool
}

// Validate builds the report for req. It never fails; every problem is a
// check result.
func (e *Engine) Validate(ctx context.Context, req Request) *model.ValidationReport {
	start := time.Now()

	mode := req.ViewMode
	if mode == "" {
		mode = model.ViewAdvisoryReport
	}

	categories := []model.ValidationCategory{
		model.NewCategory(CategoryProvenance, e.Provenance.Check(req.Plan, req.Advisory)),
		model.NewCategory(CategoryCompliance, e.Scanner.Scan(ctx, req.Plan, req.Advisory, mode)),
	}
	if e.SchemaChecks {
		categories = append(categories, model.NewCategory(CategorySchema, schemaChecks(req)))
	}
	rep := model.NewReport(categories...)

	observe(rep, time.Since(start))
	zap.L().Debug("report: validated",
		zap.String("id", req.ID),
		zap.String("view_mode", string(mode)),
		zap.String("status", string(rep.OverallStatus)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return rep
}

func schemaChecks(req Request) []model.ValidationCheck {
	return []model.ValidationCheck{
		schemaCheck(CheckPlanSchema, "Plan output has every required field", model.ValidatePlan(req.Plan)),
		schemaCheck(CheckAdvisorySchema, "Advisory output has every required section", model.ValidateAdvisory(req.Advisory)),
	}
}

func schemaCheck(id, desc string, problems []model.SchemaProblem) model.ValidationCheck {
	chk := model.ValidationCheck{ID: id, Description: desc, Status: model.StatusPass}
	if len(problems) == 0 {
		return chk
	}
	parts := make([]string, len(problems))
	for i, p := range problems {
		parts[i] = p.String()
	}
	chk.Status = model.StatusWarning
	chk.Details = fmt.Sprintf("%d schema problem(s): %s", len(problems), strings.Join(parts, ", "))
	chk.Recommendation = "Fix the producer so it emits the full schema."
	return chk
}
