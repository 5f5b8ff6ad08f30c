package model

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Advisory section names in display order.
const (
	SectionExecutiveSummary  = "executive_summary"
	SectionPriorityActions   = "priority_actions"
	SectionStrategy          = "strategy"
	SectionRiskManagement    = "risk_management"
	SectionTaxConsiderations = "tax_considerations"
	SectionDisclaimers       = "disclaimers"
)

// AdvisoryItem is one entry of an advisory section. On the wire it is either a
// bare string or an object with text and optional metadata.
type AdvisoryItem struct {
	Text     string `json:"text"`
	Priority string `json:"priority,omitempty"`
	Category string `json:"category,omitempty"`
	Timeline string `json:"timeline,omitempty"`
}

// UnmarshalJSON accepts both "text" and {"text": "..."} forms.
func (i *AdvisoryItem) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = AdvisoryItem{Text: s}
		return nil
	}

	type plain AdvisoryItem
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return eris.Wrap(err, "model: decode advisory item")
	}
	*i = AdvisoryItem(obj)
	return nil
}

// Section is a named, ordered list of advisory items.
type Section struct {
	Name  string
	Items []AdvisoryItem
}

// AdvisoryOutput is the narrative produced by one advisory-generation run.
type AdvisoryOutput struct {
	ExecutiveSummary    []AdvisoryItem `json:"executive_summary"`
	PriorityActions     []AdvisoryItem `json:"priority_actions"`
	Strategy            []AdvisoryItem `json:"strategy"`
	RiskManagement      []AdvisoryItem `json:"risk_management"`
	TaxConsiderations   []AdvisoryItem `json:"tax_considerations"`
	Disclaimers         []AdvisoryItem `json:"disclaimers"`
	Citations           []string       `json:"citations,omitempty"`
	GenerationTimestamp string         `json:"generation_timestamp,omitempty"`
}

// UnmarshalJSON accepts the generator's legacy section names
// (immediate_actions, twelve_month_strategy) alongside the canonical ones.
func (a *AdvisoryOutput) UnmarshalJSON(data []byte) error {
	type plain AdvisoryOutput
	var wire struct {
		plain
		ImmediateActions    []AdvisoryItem `json:"immediate_actions"`
		TwelveMonthStrategy []AdvisoryItem `json:"twelve_month_strategy"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return eris.Wrap(err, "model: decode advisory output")
	}

	out := AdvisoryOutput(wire.plain)
	if len(out.PriorityActions) == 0 {
		out.PriorityActions = wire.ImmediateActions
	}
	if len(out.Strategy) == 0 {
		out.Strategy = wire.TwelveMonthStrategy
	}
	*a = out
	return nil
}

// Sections returns all six sections in display order.
func (a *AdvisoryOutput) Sections() []Section {
	if a == nil {
		return nil
	}
	return []Section{
		{Name: SectionExecutiveSummary, Items: a.ExecutiveSummary},
		{Name: SectionPriorityActions, Items: a.PriorityActions},
		{Name: SectionStrategy, Items: a.Strategy},
		{Name: SectionRiskManagement, Items: a.RiskManagement},
		{Name: SectionTaxConsiderations, Items: a.TaxConsiderations},
		{Name: SectionDisclaimers, Items: a.Disclaimers},
	}
}

// FullText concatenates the text of every item in every section, one item
// per line.
func (a *AdvisoryOutput) FullText() string {
	return a.joinText(func(string) bool { return true })
}

// ClaimText concatenates every section except disclaimers. Disclaimers make
// no claims and are not expected to carry citations.
func (a *AdvisoryOutput) ClaimText() string {
	return a.joinText(func(name string) bool { return name != SectionDisclaimers })
}

func (a *AdvisoryOutput) joinText(include func(string) bool) string {
	var b strings.Builder
	for _, s := range a.Sections() {
		if !include(s.Name) {
			continue
		}
		for _, item := range s.Items {
			if strings.TrimSpace(item.Text) == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(item.Text)
		}
	}
	return b.String()
}
