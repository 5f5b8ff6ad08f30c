package compliance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/advisory-guard/internal/model"
)

func TestDefaultRuleSet(t *testing.T) {
	t.Parallel()
	rs := DefaultRuleSet()

	require.NotEmpty(t, rs.Informal)
	require.NotEmpty(t, rs.Subjective)
	assert.Contains(t, rs.DisclaimerPhrases, "educational")

	for _, r := range rs.Informal {
		assert.Equal(t, model.StatusWarning, r.Severity, r.ID)
	}
	for _, r := range rs.Subjective {
		assert.Equal(t, model.StatusFail, r.Severity, r.ID)
	}
}

func TestRule_Matches(t *testing.T) {
	t.Parallel()
	rs := DefaultRuleSet()
	byID := make(map[string]*Rule)
	for i := range rs.Subjective {
		byID[rs.Subjective[i].ID] = &rs.Subjective[i]
	}
	for i := range rs.Informal {
		byID[rs.Informal[i].ID] = &rs.Informal[i]
	}

	tests := []struct {
		rule string
		text string
		want []string
	}{
		{"subjective.recommend", "We Recommend this and recommendations follow.", []string{"Recommend", "recommendations"}},
		{"subjective.should", "You SHOULD act; you should.", []string{"SHOULD"}},
		{"subjective.should", "shoulder season", nil},
		{"subjective.worse", "worse or worst", []string{"worse", "worst"}},
		{"subjective.best", "best_case_value", nil},
		{"informal.no_brainer", "a no-brainer", []string{"no-brainer"}},
		{"informal.gonna", "Gonna retire", []string{"Gonna"}},
	}
	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.text, func(t *testing.T) {
			t.Parallel()
			r, ok := byID[tt.rule]
			require.True(t, ok)
			assert.Equal(t, tt.want, r.Matches(tt.text))
		})
	}
}

func TestParseRuleSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
		check   func(t *testing.T, rs RuleSet)
	}{
		{
			name: "override informal keeps other defaults",
			input: `
informal:
  - id: slang.yolo
    pattern: '\byolo\b'
`,
			check: func(t *testing.T, rs RuleSet) {
				require.Len(t, rs.Informal, 1)
				assert.Equal(t, model.StatusWarning, rs.Informal[0].Severity)
				assert.Equal(t, []string{"YOLO"}, rs.Informal[0].Matches("YOLO investing"))
				assert.Equal(t, len(DefaultRuleSet().Subjective), len(rs.Subjective))
				assert.Equal(t, DefaultDisclaimerPhrases, rs.DisclaimerPhrases)
			},
		},
		{
			name: "explicit severity and phrases",
			input: `
subjective:
  - id: opinion.prefer
    pattern: '\bprefer\b'
    severity: warning
disclaimer_phrases: ["for illustration"]
`,
			check: func(t *testing.T, rs RuleSet) {
				require.Len(t, rs.Subjective, 1)
				assert.Equal(t, model.StatusWarning, rs.Subjective[0].Severity)
				assert.Equal(t, []string{"for illustration"}, rs.DisclaimerPhrases)
			},
		},
		{name: "bad regex", input: "informal:\n  - id: bad\n    pattern: '('\n", wantErr: "rule bad: compile pattern"},
		{name: "bad severity", input: "informal:\n  - id: x\n    pattern: x\n    severity: pending\n", wantErr: "severity must be warning or fail"},
		{name: "missing id", input: "informal:\n  - pattern: x\n", wantErr: "has no id"},
		{name: "unknown key", input: "tone: []\n", wantErr: "decode rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rs, err := ParseRuleSet([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, rs)
		})
	}
}

func TestLoadRuleSet(t *testing.T) {
	t.Parallel()

	rs, err := LoadRuleSet("")
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRuleSet().Informal), len(rs.Informal))

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("disclaimer_phrases: [hypothetical]\n"), 0o600))
	rs, err = LoadRuleSet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hypothetical"}, rs.DisclaimerPhrases)

	_, err = LoadRuleSet(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
