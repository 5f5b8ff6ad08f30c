package report

import (
	"fmt"
	"strings"

	"github.com/sells-group/advisory-guard/internal/model"
)

var statusMarks = map[model.CheckStatus]string{
	model.StatusPass:    "PASS",
	model.StatusPending: "PENDING",
	model.StatusWarning: "WARN",
	model.StatusFail:    "FAIL",
}

// FormatText renders a report as markdown for terminals and logs.
func FormatText(rep *model.ValidationReport) string {
	var b strings.Builder
	if rep == nil {
		return "# Validation Report\nNo report.\n"
	}

	fmt.Fprintf(&b, "# Validation Report: %s\n\n", strings.ToUpper(string(rep.OverallStatus)))

	counts := make(map[model.CheckStatus]int)
	for _, c := range rep.AllChecks() {
		counts[c.Status]++
	}
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Pass: %d\n", counts[model.StatusPass])
	fmt.Fprintf(&b, "- Warning: %d\n", counts[model.StatusWarning])
	fmt.Fprintf(&b, "- Fail: %d\n", counts[model.StatusFail])
	if counts[model.StatusPending] > 0 {
		fmt.Fprintf(&b, "- Pending: %d\n", counts[model.StatusPending])
	}
	b.WriteString("\n")

	for _, cat := range rep.Categories {
		fmt.Fprintf(&b, "## %s (%s)\n", titleCase(cat.Category), cat.OverallStatus)
		if len(cat.Checks) == 0 {
			b.WriteString("No checks.\n\n")
			continue
		}
		for _, c := range cat.Checks {
			fmt.Fprintf(&b, "- [%s] **%s**: %s\n", statusMarks[c.Status], c.ID, c.Description)
			if c.Details != "" && c.Status != model.StatusPass {
				fmt.Fprintf(&b, "  %s\n", c.Details)
			}
			if c.Recommendation != "" && c.Status != model.StatusPass {
				fmt.Fprintf(&b, "  Fix: %s\n", c.Recommendation)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
