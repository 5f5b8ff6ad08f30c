package compliance

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/advisory-guard/internal/model"
)

// Rule is one denylist entry. Pattern is a regular expression matched
// case-insensitively.
type Rule struct {
	ID       string            `yaml:"id" json:"id"`
	Pattern  string            `yaml:"pattern" json:"pattern"`
	Severity model.CheckStatus `yaml:"severity" json:"severity"`

	re *regexp.Regexp
}

// Matches returns the distinct substrings of text matched by the rule.
func (r *Rule) Matches(text string) []string {
	if r.re == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, m := range r.re.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

func (r *Rule) compile(defaultSeverity model.CheckStatus) error {
	if strings.TrimSpace(r.ID) == "" {
		return eris.Errorf("compliance: rule with pattern %q has no id", r.Pattern)
	}
	if r.Severity == "" {
		r.Severity = defaultSeverity
	}
	if r.Severity != model.StatusWarning && r.Severity != model.StatusFail {
		return eris.Errorf("compliance: rule %s: severity must be warning or fail, got %q", r.ID, r.Severity)
	}
	re, err := regexp.Compile(`(?i)` + r.Pattern)
	if err != nil {
		return eris.Wrapf(err, "compliance: rule %s: compile pattern", r.ID)
	}
	r.re = re
	return nil
}

// RuleSet holds the configurable compliance tables.
type RuleSet struct {
	Informal          []Rule   `yaml:"informal" json:"informal"`
	Subjective        []Rule   `yaml:"subjective" json:"subjective"`
	DisclaimerPhrases []string `yaml:"disclaimer_phrases" json:"disclaimer_phrases"`
}

func wordRule(id, word string, sev model.CheckStatus) Rule {
	return Rule{ID: id, Pattern: `\b(?:` + word + `)\b`, Severity: sev}
}

// DefaultDisclaimerPhrases are accepted as a valid disclaimer.
var DefaultDisclaimerPhrases = []string{
	"educational",
	"not personalized",
	"not personalised",
	"informational purposes",
}

// DefaultRuleSet returns the built-in tables.
func DefaultRuleSet() RuleSet {
	rs := RuleSet{
		Informal: []Rule{
			wordRule("informal.gonna", "gonna", model.StatusWarning),
			wordRule("informal.wanna", "wanna", model.StatusWarning),
			wordRule("informal.kinda", "kinda", model.StatusWarning),
			wordRule("informal.awesome", "awesome", model.StatusWarning),
			wordRule("informal.lol", "lol", model.StatusWarning),
			wordRule("informal.btw", "btw", model.StatusWarning),
			wordRule("informal.hey", "hey", model.StatusWarning),
			wordRule("informal.stuff", "stuff", model.StatusWarning),
			wordRule("informal.no_brainer", `no[- ]brainer`, model.StatusWarning),
			wordRule("informal.crushing_it", `crush(?:ing)? it`, model.StatusWarning),
		},
		Subjective: []Rule{
			wordRule("subjective.recommend", `recommend(?:s|ed|ation|ations)?`, model.StatusFail),
			wordRule("subjective.should", "should", model.StatusFail),
			wordRule("subjective.better", "better", model.StatusFail),
			wordRule("subjective.best", "best", model.StatusFail),
			wordRule("subjective.worse", `worse|worst`, model.StatusFail),
			wordRule("subjective.advise", `advis(?:e|es|ed|able)`, model.StatusFail),
			wordRule("subjective.suggest", `suggest(?:s|ed|ion|ions)?`, model.StatusFail),
			wordRule("subjective.ideal", `ideal(?:ly)?`, model.StatusFail),
			wordRule("subjective.must", "must", model.StatusFail),
		},
		DisclaimerPhrases: append([]string(nil), DefaultDisclaimerPhrases...),
	}
	if err := rs.compile(); err != nil {
		panic(err)
	}
	return rs
}

func (rs *RuleSet) compile() error {
	for i := range rs.Informal {
		if err := rs.Informal[i].compile(model.StatusWarning); err != nil {
			return err
		}
	}
	for i := range rs.Subjective {
		if err := rs.Subjective[i].compile(model.StatusFail); err != nil {
			return err
		}
	}
	return nil
}

// ParseRuleSet decodes YAML rule tables. Tables left empty keep their
// defaults.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil {
		return RuleSet{}, eris.Wrap(err, "compliance: decode rules")
	}

	def := DefaultRuleSet()
	if len(rs.Informal) == 0 {
		rs.Informal = def.Informal
	}
	if len(rs.Subjective) == 0 {
		rs.Subjective = def.Subjective
	}
	if len(rs.DisclaimerPhrases) == 0 {
		rs.DisclaimerPhrases = def.DisclaimerPhrases
	}
	if err := rs.compile(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// LoadRuleSet reads rule tables from a YAML file. An empty path returns the
// defaults.
func LoadRuleSet(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRuleSet(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, eris.Wrapf(err, "compliance: read rules %s", path)
	}
	return ParseRuleSet(data)
}
