package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/advisory-guard/internal/citation"
	"github.com/sells-group/advisory-guard/internal/model"
)

// Check identifiers.
const (
	CheckCitationCoverage    = "citation_coverage"
	CheckCitationsResolvable = "citations_resolvable"
	CheckCitationsDeclared   = "citations_declared"
	CheckDisclaimersPresent  = "disclaimers_present"
	CheckProfessionalTone    = "professional_tone"
	CheckViewSeparation      = "view_separation"
)

// DefaultMinSentenceLength is the length above which a sentence must carry a
// citation.
const DefaultMinSentenceLength = 20

const maxListed = 5

// Input is what every compliance check sees. Citations are resolved once per
// scan from the full advisory text.
type Input struct {
	Plan      *model.PlanOutput
	Advisory  *model.AdvisoryOutput
	ViewMode  model.ViewMode
	Citations []model.Citation
}

// Check is one independent compliance rule.
type Check interface {
	ID() string
	Run(ctx context.Context, in Input) model.ValidationCheck
}

// CoverageCheck warns about claim sentences without a citation marker.
type CoverageCheck struct {
	MinLength int
}

func (CoverageCheck) ID() string { return CheckCitationCoverage }

func (c CoverageCheck) Run(_ context.Context, in Input) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckCitationCoverage,
		Description: "Substantive sentences carry a citation marker",
		Status:      model.StatusPass,
	}
	minLen := c.MinLength
	if minLen <= 0 {
		minLen = DefaultMinSentenceLength
	}

	var uncited []string
	total := 0
	for _, s := range Sentences(in.Advisory.ClaimText()) {
		if utf8.RuneCountInString(s) <= minLen {
			continue
		}
		total++
		if !citation.HasMarker(s) {
			uncited = append(uncited, s)
		}
	}

	if len(uncited) == 0 {
		chk.Details = fmt.Sprintf("%d substantive sentence(s), all cited.", total)
		return chk
	}
	chk.Status = model.StatusWarning
	chk.Details = fmt.Sprintf("%d of %d substantive sentence(s) lack a citation: %s",
		len(uncited), total, listQuoted(uncited))
	chk.Recommendation = "Add a [plan engine] or knowledge-base marker to each factual claim."
	return chk
}

// ResolvableCheck fails when any knowledge-base citation has no target.
type ResolvableCheck struct{}

func (ResolvableCheck) ID() string { return CheckCitationsResolvable }

func (ResolvableCheck) Run(_ context.Context, in Input) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckCitationsResolvable,
		Description: "Every citation marker resolves to a source",
		Status:      model.StatusPass,
	}

	var missing []string
	seen := make(map[string]bool)
	for _, c := range in.Citations {
		if c.Resolved || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		missing = append(missing, c.ID)
	}

	if len(missing) == 0 {
		chk.Details = fmt.Sprintf("%d citation(s) resolved.", len(in.Citations))
		return chk
	}
	chk.Status = model.StatusFail
	chk.Details = "citation target missing: " + strings.Join(missing, ", ")
	chk.Recommendation = "Cite an existing knowledge-base document or remove the marker."
	return chk
}

// DeclaredCheck warns when text cites knowledge-base documents that the
// advisory's citations list omits. An empty list is not checked.
type DeclaredCheck struct{}

func (DeclaredCheck) ID() string { return CheckCitationsDeclared }

func (DeclaredCheck) Run(_ context.Context, in Input) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckCitationsDeclared,
		Description: "Knowledge-base citations in the text appear in the citations list",
		Status:      model.StatusPass,
	}
	if len(in.Advisory.Citations) == 0 {
		chk.Details = "No citations list supplied."
		return chk
	}

	declared := make(map[string]bool, len(in.Advisory.Citations))
	for _, id := range in.Advisory.Citations {
		declared[strings.Trim(strings.TrimSpace(id), "[]")] = true
	}

	var undeclared []string
	seen := make(map[string]bool)
	for _, c := range in.Citations {
		if c.Kind != model.CitationKnowledgeBase || declared[c.ID] || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		undeclared = append(undeclared, c.ID)
	}

	if len(undeclared) == 0 {
		chk.Details = fmt.Sprintf("%d declared citation(s).", len(declared))
		return chk
	}
	chk.Status = model.StatusWarning
	chk.Details = "cited but not declared: " + strings.Join(undeclared, ", ")
	chk.Recommendation = "Regenerate the citations list from the markers in the text."
	return chk
}

// DisclaimerCheck fails unless a disclaimer contains a required phrase.
type DisclaimerCheck struct {
	Phrases []string
}

func (DisclaimerCheck) ID() string { return CheckDisclaimersPresent }

func (c DisclaimerCheck) Run(_ context.Context, in Input) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckDisclaimersPresent,
		Description: "A required disclaimer is present",
		Status:      model.StatusFail,
	}
	phrases := c.Phrases
	if len(phrases) == 0 {
		phrases = DefaultDisclaimerPhrases
	}

	disclaimers := in.Advisory.Disclaimers
	if len(disclaimers) == 0 {
		chk.Details = "disclaimers section is empty"
		chk.Recommendation = "Include a disclaimer stating the content is educational and not personalized advice."
		return chk
	}

	for _, d := range disclaimers {
		text := strings.ToLower(d.Text)
		for _, p := range phrases {
			if strings.Contains(text, strings.ToLower(p)) {
				chk.Status = model.StatusPass
				chk.Details = fmt.Sprintf("Disclaimer contains %q.", p)
				return chk
			}
		}
	}
	chk.Details = "no disclaimer contains a required phrase: " + listQuoted(phrases)
	chk.Recommendation = "Include a disclaimer stating the content is educational and not personalized advice."
	return chk
}

// ToneCheck flags informal language in the advisory text.
type ToneCheck struct {
	Rules []Rule
}

func (ToneCheck) ID() string { return CheckProfessionalTone }

func (c ToneCheck) Run(_ context.Context, in Input) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckProfessionalTone,
		Description: "Advisory text keeps a professional register",
		Status:      model.StatusPass,
	}
	status, hits := applyRules(c.Rules, in.Advisory.FullText())
	if len(hits) == 0 {
		chk.Details = "No informal language found."
		return chk
	}
	chk.Status = status
	chk.Details = "informal language: " + strings.Join(hits, ", ")
	chk.Recommendation = "Rephrase in a neutral, professional register."
	return chk
}

// ViewSeparationCheck keeps opinion out of the raw data view. It only applies
// in raw_data mode.
type ViewSeparationCheck struct {
	Rules []Rule
}

func (ViewSeparationCheck) ID() string { return CheckViewSeparation }

func (c ViewSeparationCheck) Run(_ context.Context, in Input) model.ValidationCheck {
	chk := model.ValidationCheck{
		ID:          CheckViewSeparation,
		Description: "Raw data view carries no advisory language",
		Status:      model.StatusPass,
	}
	if in.ViewMode != model.ViewRawData {
		chk.Details = fmt.Sprintf("Not applicable in %s view.", viewName(in.ViewMode))
		return chk
	}
	if in.Plan == nil {
		chk.Status = model.StatusPending
		chk.Details = "No plan output to inspect."
		return chk
	}

	raw, err := json.Marshal(in.Plan)
	if err != nil {
		chk.Status = model.StatusPending
		chk.Details = "plan output could not be serialized: " + err.Error()
		return chk
	}

	status, hits := applyRules(c.Rules, string(raw))
	if len(hits) == 0 {
		chk.Details = "No subjective language in plan output."
		return chk
	}
	chk.Status = status
	chk.Details = "subjective language in raw data: " + strings.Join(hits, ", ")
	chk.Recommendation = "Move opinionated wording to the advisory report view."
	return chk
}

func viewName(m model.ViewMode) string {
	if m == "" {
		return string(model.ViewAdvisoryReport)
	}
	return string(m)
}

// applyRules returns the worst severity among matching rules and one
// "rule-id (match)" entry per rule.
func applyRules(rules []Rule, text string) (model.CheckStatus, []string) {
	status := model.StatusPass
	var hits []string
	for i := range rules {
		m := rules[i].Matches(text)
		if len(m) == 0 {
			continue
		}
		status = model.Worst(status, rules[i].Severity)
		hits = append(hits, fmt.Sprintf("%s (%s)", rules[i].ID, strings.Join(m, ", ")))
	}
	sort.Strings(hits)
	return status, hits
}

func listQuoted(items []string) string {
	quoted := make([]string, 0, maxListed)
	for i, s := range items {
		if i == maxListed {
			break
		}
		quoted = append(quoted, fmt.Sprintf("%q", truncate(s, 80)))
	}
	out := strings.Join(quoted, ", ")
	if len(items) > maxListed {
		out += fmt.Sprintf(" (and %d more)", len(items)-maxListed)
	}
	return out
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
