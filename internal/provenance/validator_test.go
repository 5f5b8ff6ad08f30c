package provenance

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/advisory-guard/internal/model"
)

func plan(t *testing.T, raw string) *model.PlanOutput {
	t.Helper()
	var p model.PlanOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func advisory(summary ...string) *model.AdvisoryOutput {
	a := &model.AdvisoryOutput{Disclaimers: []model.AdvisoryItem{{Text: "Educational use only."}}}
	for _, s := range summary {
		a.ExecutiveSummary = append(a.ExecutiveSummary, model.AdvisoryItem{Text: s})
	}
	return a
}

const gapPlan = `{"gap_analysis": {"gap": 2014250}, "target_allocation": {}, "contribution_schedule": [], "plan_metrics": {}}`

func checkByID(checks []model.ValidationCheck, id string) model.ValidationCheck {
	for _, c := range checks {
		if c.ID == id {
			return c
		}
	}
	return model.ValidationCheck{}
}

func TestCheck_TracedFigurePasses(t *testing.T) {
	t.Parallel()
	checks := New().Check(plan(t, gapPlan), advisory("Your gap is $2,014,250 [plan engine]."))

	require.Len(t, checks, 2)
	assert.Equal(t, model.StatusPass, checkByID(checks, CheckNumbersTraceable).Status)
	assert.Equal(t, model.StatusPass, checkByID(checks, CheckSourceNumbersPresent).Status)
}

func TestCheck_InventedFigureFails(t *testing.T) {
	t.Parallel()
	v := New()
	p := plan(t, gapPlan)
	a := advisory("You need $5,000,000 more [plan engine].")

	invented := v.Invented(p, a)
	require.Len(t, invented, 1)
	assert.Equal(t, 5000000.0, invented[0].Value)

	chk := checkByID(v.Check(p, a), CheckNumbersTraceable)
	assert.Equal(t, model.StatusFail, chk.Status)
	assert.Contains(t, chk.Details, "$5,000,000")
	assert.NotEmpty(t, chk.Recommendation)
}

func TestInvented(t *testing.T) {
	t.Parallel()

	source := `{
		"gap_analysis": {"gap": 2014250, "target": "$3,500,000"},
		"target_allocation": {"equity": 0.73},
		"contribution_schedule": [{"year": 2026, "amount": 24000}],
		"plan_metrics": {"success_probability": 0.8125}
	}`

	tests := []struct {
		name string
		text string
		want []float64
	}{
		{"currency grouped", "Gap $2,014,250.", nil},
		{"plain", "Gap 2014250.", nil},
		{"decimal", "Gap 2014250.00 dollars.", nil},
		{"magnitude suffix", "Target of $3.5 million.", nil},
		{"formatted string source", "Target 3500000.", nil},
		{"percentage as fraction", "Allocate 73% to equity.", nil},
		{"small numbers ignored", "Save 500 a month over 30 years at 7%.", nil},
		{"threshold is exclusive", "Keep 1000 aside.", nil},
		{"invented above threshold", "Keep 1001 aside.", []float64{1001}},
		{"deduplicated", "Add $48,000 now and $48,000 later.", []float64{48000}},
		{"text order", "Add $9,000 and $7,500.", []float64{9000, 7500}},
		{"markers ignored", "Per [RT-2050] guidance.", nil},
		{"year from plan", "Start in 2026.", nil},
		{"year not in plan", "Retire in 2045.", []float64{2045}},
		{"identifier ignored", "Form W2024 applies.", nil},
	}

	v := New()
	p := plan(t, source)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got []float64
			for _, m := range v.Invented(p, advisory(tt.text)) {
				got = append(got, m.Value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInvented_IgnoreYears(t *testing.T) {
	t.Parallel()
	v := New()
	v.IgnoreYears = true
	p := plan(t, gapPlan)

	got := v.Invented(p, advisory("Retire in 2045 with 2045.50 left and $2045 saved."))
	require.Len(t, got, 2)
	assert.Equal(t, "2045.50", got[0].Raw)
	assert.Equal(t, "$2045", got[1].Raw)
}

func TestInvented_ConfigurableThreshold(t *testing.T) {
	t.Parallel()
	v := &Validator{Threshold: 10}
	got := v.Invented(plan(t, gapPlan), advisory("Buy 11 funds."))
	require.Len(t, got, 1)
	assert.Equal(t, 11.0, got[0].Value)
}

func TestCheck_MissingPlanFailsClosed(t *testing.T) {
	t.Parallel()
	v := New()
	a := advisory("Your gap is $2,014,250 [plan engine].")

	for _, p := range []*model.PlanOutput{nil, {}, plan(t, `{"gap_analysis": {}}`)} {
		checks := v.Check(p, a)
		assert.Equal(t, model.StatusFail, checkByID(checks, CheckNumbersTraceable).Status)
		assert.Equal(t, model.StatusWarning, checkByID(checks, CheckSourceNumbersPresent).Status)
	}
}

func TestCheck_NilAdvisory(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		checks := New().Check(nil, nil)
		assert.Equal(t, model.StatusPass, checkByID(checks, CheckNumbersTraceable).Status)
	})
}

func TestCheck_ExampleLimit(t *testing.T) {
	t.Parallel()
	v := &Validator{Threshold: 1000, MaxExamples: 2}
	chk := checkByID(v.Check(plan(t, gapPlan), advisory("$10,001 $10,002 $10,003 $10,004")), CheckNumbersTraceable)

	assert.Equal(t, model.StatusFail, chk.Status)
	assert.Contains(t, chk.Details, "4 invented figure(s): $10,001, $10,002 (and 2 more)")
}

// Narratives assembled only from plan figures, in any supported formatting,
// never fail provenance.
func TestCheck_PlanDerivedNarrativeNeverFails(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(7, 11))
	v := New()

	for i := range 200 {
		amounts := make([]any, 0, 4)
		var sentences []string
		for range 4 {
			n := rng.IntN(50_000_000) + 1
			amounts = append(amounts, n)
			sentences = append(sentences, fmt.Sprintf("Figure %s [plan engine].", formatAny(rng, float64(n))))
		}
		frac := float64(rng.IntN(100)) / 100
		sentences = append(sentences, fmt.Sprintf("Allocate %s to equity.", formatPercent(rng, frac)))

		raw, err := json.Marshal(map[string]any{
			"gap_analysis":          map[string]any{"amounts": amounts},
			"target_allocation":     map[string]any{"equity": frac},
			"contribution_schedule": []any{},
			"plan_metrics":          map[string]any{},
		})
		require.NoError(t, err)

		checks := v.Check(plan(t, string(raw)), advisory(sentences...))
		chk := checkByID(checks, CheckNumbersTraceable)
		require.Equal(t, model.StatusPass, chk.Status, "iteration %d: %v: %s", i, sentences, chk.Details)
	}
}

// A material figure absent from the plan is always reported.
func TestInvented_AbsentFigureAlwaysReported(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(3, 5))
	v := New()
	p := plan(t, gapPlan)

	for range 200 {
		n := rng.IntN(90_000_000) + 1001
		if n == 2014250 {
			continue
		}
		text := fmt.Sprintf("You need %s more [plan engine].", formatAny(rng, float64(n)))
		got := v.Invented(p, advisory("Your gap is $2,014,250 [plan engine].", text))
		require.Len(t, got, 1, text)
		assert.Equal(t, float64(n), got[0].Value, text)
	}
}

func formatAny(rng *rand.Rand, v float64) string {
	switch rng.IntN(4) {
	case 0:
		return "$" + group(int64(v))
	case 1:
		return fmt.Sprintf("%.0f", v)
	case 2:
		return fmt.Sprintf("%.2f", v)
	default:
		return group(int64(v))
	}
}

func formatPercent(rng *rand.Rand, frac float64) string {
	if rng.IntN(2) == 0 {
		return fmt.Sprintf("%.0f%%", frac*100)
	}
	return fmt.Sprintf("%.0f %%", frac*100)
}

func group(n int64) string {
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
