package model

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ISO8601 is the timestamp layout required of producer timestamps.
const ISO8601 = "2006-01-02T15:04:05Z07:00"

var schemaValidate *validator.Validate

func init() {
	schemaValidate = validator.New(validator.WithRequiredStructEnabled())
	schemaValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

type planSchema struct {
	GapAnalysis          any    `json:"gap_analysis" validate:"required"`
	TargetAllocation     any    `json:"target_allocation" validate:"required"`
	ContributionSchedule any    `json:"contribution_schedule" validate:"required"`
	PlanMetrics          any    `json:"plan_metrics" validate:"required"`
	CalculationTimestamp string `json:"calculation_timestamp" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	CalculationVersion   string `json:"calculation_version" validate:"required,semver"`
}

type advisorySchema struct {
	ExecutiveSummary    []AdvisoryItem `json:"executive_summary" validate:"required"`
	PriorityActions     []AdvisoryItem `json:"priority_actions" validate:"required"`
	Strategy            []AdvisoryItem `json:"strategy" validate:"required"`
	RiskManagement      []AdvisoryItem `json:"risk_management" validate:"required"`
	TaxConsiderations   []AdvisoryItem `json:"tax_considerations" validate:"required"`
	Disclaimers         []AdvisoryItem `json:"disclaimers" validate:"required"`
	GenerationTimestamp string         `json:"generation_timestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// SchemaProblem describes one missing or malformed field.
type SchemaProblem struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (p SchemaProblem) String() string {
	return fmt.Sprintf("%s (%s)", p.Field, p.Rule)
}

// ValidatePlan reports schema problems in a plan output. A nil plan is
// reported as a single missing-document problem.
func ValidatePlan(p *PlanOutput) []SchemaProblem {
	if p == nil {
		return []SchemaProblem{{Field: "plan_output", Rule: "required"}}
	}
	return schemaProblems(planSchema{
		GapAnalysis:          p.Section(PlanSectionGapAnalysis),
		TargetAllocation:     p.Section(PlanSectionTargetAllocation),
		ContributionSchedule: p.Section(PlanSectionContributionSchedule),
		PlanMetrics:          p.Section(PlanSectionPlanMetrics),
		CalculationTimestamp: p.CalculationTimestamp,
		CalculationVersion:   p.CalculationVersion,
	})
}

// ValidateAdvisory reports schema problems in an advisory output.
func ValidateAdvisory(a *AdvisoryOutput) []SchemaProblem {
	if a == nil {
		return []SchemaProblem{{Field: "advisory_output", Rule: "required"}}
	}
	return schemaProblems(advisorySchema{
		ExecutiveSummary:    a.ExecutiveSummary,
		PriorityActions:     a.PriorityActions,
		Strategy:            a.Strategy,
		RiskManagement:      a.RiskManagement,
		TaxConsiderations:   a.TaxConsiderations,
		Disclaimers:         a.Disclaimers,
		GenerationTimestamp: a.GenerationTimestamp,
	})
}

func schemaProblems(v any) []SchemaProblem {
	err := schemaValidate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []SchemaProblem{{Field: "document", Rule: err.Error()}}
	}

	out := make([]SchemaProblem, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, SchemaProblem{Field: fe.Field(), Rule: fe.Tag()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
