package report

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sells-group/advisory-guard/internal/citation"
	"github.com/sells-group/advisory-guard/internal/compliance"
	"github.com/sells-group/advisory-guard/internal/knowledge"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/provenance"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	docs, err := knowledge.DefaultDocuments()
	require.NoError(t, err)
	resolver := citation.NewResolver(knowledge.NewMemoryStore(docs), 0)
	return &Engine{
		Provenance: provenance.New(),
		Scanner:    compliance.NewScanner(resolver, compliance.DefaultRuleSet(), compliance.Options{}),
	}
}

func decodePlan(t *testing.T, raw string) *model.PlanOutput {
	t.Helper()
	var p model.PlanOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return &p
}

func decodeAdvisory(t *testing.T, raw string) *model.AdvisoryOutput {
	t.Helper()
	var a model.AdvisoryOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	return &a
}

const gapPlan = `{"gap_analysis": {"gap": 2014250}}`

func TestValidate_EndToEnd(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	plan := decodePlan(t, gapPlan)

	tests := []struct {
		name      string
		advisory  string
		want      model.CheckStatus
		failCheck string
		detail    string
	}{
		{
			name:     "traced figure passes",
			advisory: `{"executive_summary": ["Your gap is $2,014,250 [plan engine]."], "disclaimers": ["Educational use only."]}`,
			want:     model.StatusPass,
		},
		{
			name:      "invented figure fails",
			advisory:  `{"executive_summary": ["You need $5,000,000 more [plan engine]."], "disclaimers": ["Educational use only."]}`,
			want:      model.StatusFail,
			failCheck: provenance.CheckNumbersTraceable,
			detail:    "$5,000,000",
		},
		{
			name:      "unresolvable citation fails",
			advisory:  `{"executive_summary": ["Your gap is $2,014,250 [plan engine]. Diversify across regions [XX-999]."], "disclaimers": ["Educational use only."]}`,
			want:      model.StatusFail,
			failCheck: compliance.CheckCitationsResolvable,
			detail:    "XX-999",
		},
		{
			name:      "missing disclaimers fail",
			advisory:  `{"executive_summary": ["Your gap is $2,014,250 [plan engine]."], "disclaimers": []}`,
			want:      model.StatusFail,
			failCheck: compliance.CheckDisclaimersPresent,
		},
		{
			name:     "legacy section names",
			advisory: `{"immediate_actions": [{"text": "Close the $2,014,250 gap [plan engine].", "priority": "high"}], "disclaimers": ["Not personalized advice."]}`,
			want:     model.StatusPass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rep := e.Validate(context.Background(), Request{Plan: plan, Advisory: decodeAdvisory(t, tt.advisory)})
			assert.Equal(t, tt.want, rep.OverallStatus, FormatText(rep))
			if tt.failCheck != "" {
				chk, ok := rep.Check(tt.failCheck)
				require.True(t, ok)
				assert.Equal(t, model.StatusFail, chk.Status)
				assert.Contains(t, chk.Details, tt.detail)
			}
		})
	}
}

func TestValidate_CategoryLayout(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	rep := e.Validate(context.Background(), Request{Plan: decodePlan(t, gapPlan), Advisory: &model.AdvisoryOutput{}})

	names := make([]string, len(rep.Categories))
	for i, c := range rep.Categories {
		names[i] = c.Category
	}
	assert.Equal(t, []string{CategoryProvenance, CategoryCompliance}, names)

	e.SchemaChecks = true
	rep = e.Validate(context.Background(), Request{Plan: decodePlan(t, gapPlan), Advisory: &model.AdvisoryOutput{}})
	require.Len(t, rep.Categories, 3)
	schema := rep.Category(CategorySchema)
	require.NotNil(t, schema)
	assert.Equal(t, model.StatusWarning, schema.OverallStatus)

	chk, ok := rep.Check(CheckPlanSchema)
	require.True(t, ok)
	assert.Contains(t, chk.Details, "calculation_version (required)")
}

func TestValidate_OverallIsWorst(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	rep := e.Validate(context.Background(), Request{
		Plan:     decodePlan(t, gapPlan),
		Advisory: decodeAdvisory(t, `{"executive_summary": ["Your gap is $2,014,250 and that is a lot of money to find."], "disclaimers": ["Educational use only."]}`),
	})

	assert.Equal(t, model.StatusWarning, rep.OverallStatus)
	cov, ok := rep.Check(compliance.CheckCitationCoverage)
	require.True(t, ok)
	assert.Equal(t, model.StatusWarning, cov.Status)
	for _, c := range rep.Categories {
		assert.Equal(t, model.OverallStatus(c.Checks), c.OverallStatus)
	}
}

func TestValidate_RawDataView(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	adv := decodeAdvisory(t, `{"executive_summary": ["Your gap is $2,014,250 [plan engine]."], "disclaimers": ["Educational use only."]}`)

	rep := e.Validate(context.Background(), Request{
		Plan:     decodePlan(t, `{"gap_analysis": {"gap": 2014250, "note": "You should save more"}}`),
		Advisory: adv,
		ViewMode: model.ViewRawData,
	})
	assert.Equal(t, model.StatusFail, rep.OverallStatus)

	rep = e.Validate(context.Background(), Request{Advisory: adv, ViewMode: model.ViewRawData})
	chk, ok := rep.Check(compliance.CheckViewSeparation)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, chk.Status)
}

// Reports depend only on their inputs.
func TestValidate_Reproducible(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	req := Request{
		Plan:     decodePlan(t, gapPlan),
		Advisory: decodeAdvisory(t, `{"executive_summary": ["You need $5,000,000 more [plan engine] per [AL-001]."], "disclaimers": ["Educational use only."]}`),
	}

	first := e.Validate(context.Background(), req)
	second := e.Validate(context.Background(), req)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reports differ (-first +second):\n%s", diff)
	}
}
