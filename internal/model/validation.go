package model

// CheckStatus is the outcome of a single validation check.
type CheckStatus string

const (
	StatusPass    CheckStatus = "pass"
	StatusPending CheckStatus = "pending"
	StatusWarning CheckStatus = "warning"
	StatusFail    CheckStatus = "fail"
)

// Rank orders statuses by severity: pass < pending < warning < fail.
func (s CheckStatus) Rank() int {
	switch s {
	case StatusPass:
		return 0
	case StatusPending:
		return 1
	case StatusWarning:
		return 2
	case StatusFail:
		return 3
	default:
		return 0
	}
}

// Worst returns the more severe of two statuses.
func Worst(a, b CheckStatus) CheckStatus {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// ValidationCheck is the result of evaluating one rule.
type ValidationCheck struct {
	ID             string      `json:"id"`
	Description    string      `json:"description"`
	Status         CheckStatus `json:"status"`
	Details        string      `json:"details,omitempty"`
	Recommendation string      `json:"recommendation,omitempty"`
}

// ValidationCategory groups related checks.
type ValidationCategory struct {
	Category      string            `json:"category"`
	Checks        []ValidationCheck `json:"checks"`
	OverallStatus CheckStatus       `json:"overall_status"`
}

// NewCategory builds a category and derives its overall status.
func NewCategory(name string, checks []ValidationCheck) ValidationCategory {
	if checks == nil {
		checks = []ValidationCheck{}
	}
	return ValidationCategory{
		Category:      name,
		Checks:        checks,
		OverallStatus: OverallStatus(checks),
	}
}

// ValidationReport is the full outcome of validating one plan/advisory pair.
// It carries no identifiers or timestamps so that identical inputs always
// produce identical reports.
type ValidationReport struct {
	Categories    []ValidationCategory `json:"categories"`
	OverallStatus CheckStatus          `json:"overall_status"`
}

// NewReport assembles a report from categories in the given order.
func NewReport(categories ...ValidationCategory) *ValidationReport {
	r := &ValidationReport{
		Categories:    categories,
		OverallStatus: StatusPass,
	}
	for _, c := range categories {
		r.OverallStatus = Worst(r.OverallStatus, c.OverallStatus)
	}
	return r
}

// Category returns the named category, or nil.
func (r *ValidationReport) Category(name string) *ValidationCategory {
	for i := range r.Categories {
		if r.Categories[i].Category == name {
			return &r.Categories[i]
		}
	}
	return nil
}

// Check finds a check by id across all categories.
func (r *ValidationReport) Check(id string) (ValidationCheck, bool) {
	for _, c := range r.Categories {
		for _, chk := range c.Checks {
			if chk.ID == id {
				return chk, true
			}
		}
	}
	return ValidationCheck{}, false
}

// AllChecks flattens every check in category order.
func (r *ValidationReport) AllChecks() []ValidationCheck {
	var out []ValidationCheck
	for _, c := range r.Categories {
		out = append(out, c.Checks...)
	}
	return out
}

// OverallStatus returns the worst status among checks, or pass when empty.
func OverallStatus(checks []ValidationCheck) CheckStatus {
	status := StatusPass
	for _, c := range checks {
		status = Worst(status, c.Status)
	}
	return status
}

// ViewMode selects which presentation the content is destined for.
type ViewMode string

const (
	ViewRawData        ViewMode = "raw_data"
	ViewAdvisoryReport ViewMode = "advisory_report"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewRawData || m == ViewAdvisoryReport
}
