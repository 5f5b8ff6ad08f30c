// Package provenance cross-checks the figures quoted in advisory text against
// the numbers produced by the plan engine.
package provenance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/advisory-guard/internal/citation"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/numeric"
)

// Check identifiers.
const (
	CheckNumbersTraceable     = "numbers_traceable"
	CheckSourceNumbersPresent = "source_numbers_present"
)

// Defaults.
const (
	DefaultThreshold   = 1000.0
	DefaultMaxExamples = 5
)

// Validator flags advisory numbers with no counterpart in the plan. Values at
// or below Threshold are never flagged.
type Validator struct {
	Threshold   float64
	MaxExamples int
	// IgnoreYears skips bare four-digit integers between 1900 and 2100.
	IgnoreYears bool
}

// New returns a Validator with default settings.
func New() *Validator {
	return &Validator{Threshold: DefaultThreshold, MaxExamples: DefaultMaxExamples}
}

// Invented returns the advisory figures above the threshold that do not
// appear in the plan in any supported representation. Each value is reported
// once, at its first occurrence.
func (v *Validator) Invented(plan *model.PlanOutput, adv *model.AdvisoryOutput) []numeric.Match {
	source := sourceNumbers(plan)
	if adv == nil {
		return nil
	}

	var out []numeric.Match
	seen := numeric.NewSet()
	for _, m := range numeric.Matches(citation.StripMarkers(adv.FullText())) {
		if m.Value <= v.Threshold {
			continue
		}
		if v.IgnoreYears && isYear(m) {
			continue
		}
		if source.ContainsAny(m.Candidates()...) || seen.Contains(m.Value) {
			continue
		}
		seen.Add(m.Value)
		out = append(out, m)
	}
	return out
}

// Check runs the provenance checks. It never fails: a missing plan yields no
// source numbers, so every large figure is reported as invented.
func (v *Validator) Check(plan *model.PlanOutput, adv *model.AdvisoryOutput) []model.ValidationCheck {
	return []model.ValidationCheck{
		v.traceable(plan, adv),
		sourcePresent(plan),
	}
}

func (v *Validator) traceable(plan *model.PlanOutput, adv *model.AdvisoryOutput) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckNumbersTraceable,
		Description: fmt.Sprintf("Every figure above %s in the narrative traces to the plan output", formatThreshold(v.Threshold)),
		Status:      model.StatusPass,
	}

	invented := v.Invented(plan, adv)
	if len(invented) == 0 {
		chk.Details = "All material figures trace to the plan output."
		return chk
	}

	limit := v.MaxExamples
	if limit <= 0 {
		limit = DefaultMaxExamples
	}
	examples := make([]string, 0, limit)
	for i, m := range invented {
		if i == limit {
			break
		}
		examples = append(examples, m.Raw)
	}

	chk.Status = model.StatusFail
	chk.Details = fmt.Sprintf("%d invented figure(s): %s", len(invented), strings.Join(examples, ", "))
	if len(invented) > limit {
		chk.Details += fmt.Sprintf(" (and %d more)", len(invented)-limit)
	}
	chk.Recommendation = "Remove the figures or regenerate the narrative from the current plan output."
	return chk
}

func sourcePresent(plan *model.PlanOutput) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckSourceNumbersPresent,
		Description: "Plan output contains numeric results",
		Status:      model.StatusPass,
	}
	n := sourceNumbers(plan).Len()
	if n == 0 {
		chk.Status = model.StatusWarning
		chk.Details = "Plan output is missing or has no numbers; every material figure is treated as invented."
		chk.Recommendation = "Re-run the plan calculation before generating advisory content."
		return chk
	}
	chk.Details = fmt.Sprintf("%d distinct source value(s).", n)
	return chk
}

func sourceNumbers(plan *model.PlanOutput) numeric.Set {
	if plan == nil {
		return numeric.NewSet()
	}
	return numeric.ExtractValue(plan.Values)
}

func isYear(m numeric.Match) bool {
	if m.Kind != numeric.KindDecimal || len(m.Raw) != 4 {
		return false
	}
	return m.Value >= 1900 && m.Value <= 2100
}

func formatThreshold(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
