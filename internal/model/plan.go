package model

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Plan output metadata keys lifted out of the numeric tree.
const (
	PlanKeyTimestamp = "calculation_timestamp"
	PlanKeyVersion   = "calculation_version"
)

// Required top-level plan sections.
const (
	PlanSectionGapAnalysis          = "gap_analysis"
	PlanSectionTargetAllocation     = "target_allocation"
	PlanSectionContributionSchedule = "contribution_schedule"
	PlanSectionPlanMetrics          = "plan_metrics"
)

// PlanOutput is the deterministic result of one planning run. It is the only
// source of numeric truth for validation and is never mutated after decode.
type PlanOutput struct {
	Values               map[string]any `json:"-"`
	CalculationTimestamp string         `json:"calculation_timestamp"`
	CalculationVersion   string         `json:"calculation_version"`
}

// Section returns the named top-level section, or nil if absent.
func (p *PlanOutput) Section(name string) any {
	if p == nil || p.Values == nil {
		return nil
	}
	return p.Values[name]
}

// UnmarshalJSON decodes a plan tree, keeping numbers as json.Number so that
// large monetary values are not rounded through float64 before normalization.
func (p *PlanOutput) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return eris.Wrap(err, "model: decode plan output")
	}

	out := PlanOutput{Values: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case PlanKeyTimestamp:
			s, _ := v.(string)
			out.CalculationTimestamp = s
		case PlanKeyVersion:
			s, _ := v.(string)
			out.CalculationVersion = s
		default:
			out.Values[k] = v
		}
	}
	*p = out
	return nil
}

// MarshalJSON flattens the plan back into a single object.
func (p PlanOutput) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Values)+2)
	for k, v := range p.Values {
		flat[k] = v
	}
	if p.CalculationTimestamp != "" {
		flat[PlanKeyTimestamp] = p.CalculationTimestamp
	}
	if p.CalculationVersion != "" {
		flat[PlanKeyVersion] = p.CalculationVersion
	}
	return json.Marshal(flat)
}
