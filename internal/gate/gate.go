// Package gate decides whether advisory content may be published based on its
// validation report, for use in CI pipelines and host applications.
package gate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/advisory-guard/internal/model"
)

// Policy controls what blocks publication.
type Policy struct {
	BlockOnFail bool    `yaml:"block_on_fail" mapstructure:"block_on_fail"`
	MaxWarnings int     `yaml:"max_warnings" mapstructure:"max_warnings"` // -1 = unlimited
	MinScore    float64 `yaml:"min_score" mapstructure:"min_score"`
}

// DefaultPolicy blocks on any fail and tolerates warnings.
func DefaultPolicy() Policy {
	return Policy{BlockOnFail: true, MaxWarnings: -1}
}

// Decision is the outcome of evaluating a report.
type Decision struct {
	Publish  bool     `json:"publish"`
	Score    float64  `json:"score"`
	Fails    int      `json:"fails"`
	Warnings int      `json:"warnings"`
	Pending  int      `json:"pending"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Evaluate applies policy to rep. Score is the share of passing checks among
// checks that reached a verdict; pending checks are not scored.
func Evaluate(rep *model.ValidationReport, policy Policy) Decision {
	if rep == nil {
		return Decision{Reasons: []string{"no validation report"}}
	}

	d := Decision{Publish: true}
	passed, scored := 0, 0
	var failed []string
	for _, c := range rep.AllChecks() {
		switch c.Status {
		case model.StatusPass:
			passed++
			scored++
		case model.StatusWarning:
			d.Warnings++
			scored++
		case model.StatusFail:
			d.Fails++
			scored++
			failed = append(failed, c.ID)
		case model.StatusPending:
			d.Pending++
		}
	}
	if scored > 0 {
		d.Score = float64(passed) / float64(scored)
	} else {
		d.Score = 1
	}

	if policy.BlockOnFail && d.Fails > 0 {
		d.Publish = false
		d.Reasons = append(d.Reasons, fmt.Sprintf("%d failing check(s): %s", d.Fails, strings.Join(failed, ", ")))
	}
	if policy.MaxWarnings >= 0 && d.Warnings > policy.MaxWarnings {
		d.Publish = false
		d.Reasons = append(d.Reasons, fmt.Sprintf("%d warning(s) exceed limit %d", d.Warnings, policy.MaxWarnings))
	}
	if d.Score < policy.MinScore {
		d.Publish = false
		d.Reasons = append(d.Reasons, fmt.Sprintf("score %.2f is below minimum %.2f", d.Score, policy.MinScore))
	}
	return d
}

// Err returns an error describing why publication is blocked, or nil.
func (d Decision) Err() error {
	if d.Publish {
		return nil
	}
	return eris.Errorf("gate: publication blocked: %s", strings.Join(d.Reasons, "; "))
}

// ParseReport decodes a JSON validation report.
func ParseReport(r io.Reader) (*model.ValidationReport, error) {
	var rep model.ValidationReport
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rep); err != nil {
		return nil, eris.Wrap(err, "gate: decode report")
	}
	if rep.OverallStatus == "" {
		return nil, eris.New("gate: report has no overall_status")
	}
	return &rep, nil
}

// FormatMarkdown produces a Markdown table of checks for CI summaries.
func FormatMarkdown(rep *model.ValidationReport, d Decision) string {
	var sb strings.Builder

	verdict := "Publish"
	if !d.Publish {
		verdict = "Blocked"
	}
	fmt.Fprintf(&sb, "## Advisory Gate: %s\n\n", verdict)
	sb.WriteString("| Category | Check | Status |\n")
	sb.WriteString("|:---------|:------|:------:|\n")
	for _, cat := range rep.Categories {
		for _, c := range cat.Checks {
			fmt.Fprintf(&sb, "| %s | `%s` | %s |\n", cat.Category, c.ID, c.Status)
		}
	}
	fmt.Fprintf(&sb, "| **Score** | | **%.0f%%** |\n", d.Score*100)
	for _, r := range d.Reasons {
		fmt.Fprintf(&sb, "\n- %s", r)
	}
	if len(d.Reasons) > 0 {
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatBadgeJSON produces a shields.io endpoint badge JSON.
func FormatBadgeJSON(d Decision) string {
	color := "red"
	message := "blocked"
	switch {
	case d.Publish && d.Warnings == 0:
		color, message = "brightgreen", "compliant"
	case d.Publish:
		color, message = "yellow", fmt.Sprintf("%d warning(s)", d.Warnings)
	}
	return fmt.Sprintf(`{"schemaVersion":1,"label":"advisory","message":"%s","color":"%s"}`, message, color)
}
