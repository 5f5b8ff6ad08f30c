// Package compliance runs rule-based checks over advisory content before it
// is published: citation coverage and resolvability, disclaimers, tone and
// view-mode separation.
package compliance

import (
	"context"

	"github.com/sells-group/advisory-guard/internal/citation"
	"github.com/sells-group/advisory-guard/internal/model"
)

// Options tunes the built-in checks.
type Options struct {
	MinSentenceLength int
}

// Scanner runs a fixed list of independent checks.
type Scanner struct {
	resolver *citation.Resolver
	checks   []Check
}

// NewScanner builds a scanner with the standard checks in report order.
func NewScanner(resolver *citation.Resolver, rules RuleSet, opts Options) *Scanner {
	return NewScannerWithChecks(resolver,
		CoverageCheck{MinLength: opts.MinSentenceLength},
		ResolvableCheck{},
		DeclaredCheck{},
		DisclaimerCheck{Phrases: rules.DisclaimerPhrases},
		ToneCheck{Rules: rules.Informal},
		ViewSeparationCheck{Rules: rules.Subjective},
	)
}

// NewScannerWithChecks builds a scanner running exactly checks.
func NewScannerWithChecks(resolver *citation.Resolver, checks ...Check) *Scanner {
	return &Scanner{resolver: resolver, checks: checks}
}

// Checks returns the configured checks.
func (s *Scanner) Checks() []Check {
	return s.checks
}

// Scan resolves citations once and returns one result per check, in check
// order. A nil advisory is scanned as an empty one.
func (s *Scanner) Scan(ctx context.Context, plan *model.PlanOutput, adv *model.AdvisoryOutput, mode model.ViewMode) []model.ValidationCheck {
	if adv == nil {
		adv = &model.AdvisoryOutput{}
	}
	in := Input{Plan: plan, Advisory: adv, ViewMode: mode}
	if s.resolver != nil {
		in.Citations = s.resolver.Resolve(ctx, adv.FullText())
	}

	out := make([]model.ValidationCheck, 0, len(s.checks))
	for _, c := range s.checks {
		out = append(out, c.Run(ctx, in))
	}
	return out
}
