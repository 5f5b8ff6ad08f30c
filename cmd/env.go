package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/citation"
	"github.com/sells-group/advisory-guard/internal/compliance"
	"github.com/sells-group/advisory-guard/internal/config"
	"github.com/sells-group/advisory-guard/internal/knowledge"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/provenance"
	"github.com/sells-group/advisory-guard/internal/report"
)

// appEnv holds the shared dependencies of every command.
type appEnv struct {
	Config *config.Config
	Store  knowledge.Store
	Engine *report.Engine
}

// initEnv opens the knowledge base and assembles the validation engine.
func initEnv(ctx context.Context, c *config.Config) (*appEnv, error) {
	store, err := knowledge.Open(ctx, c.Knowledge)
	if err != nil {
		return nil, eris.Wrap(err, "open knowledge base")
	}

	engine, err := newEngine(c, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &appEnv{Config: c, Store: store, Engine: engine}, nil
}

// newEngine builds the report engine from configuration over store.
func newEngine(c *config.Config, store knowledge.Store) (*report.Engine, error) {
	rules, err := compliance.LoadRuleSet(c.Compliance.RulesPath)
	if err != nil {
		return nil, eris.Wrap(err, "load compliance rules")
	}
	// Phrases in config extend whatever the rule file declares.
	rules.DisclaimerPhrases = mergePhrases(rules.DisclaimerPhrases, c.Compliance.DisclaimerPhrases)

	lookup := time.Duration(c.Validation.LookupTimeoutMs) * time.Millisecond
	resolver := citation.NewResolver(store, lookup)

	return &report.Engine{
		Provenance: &provenance.Validator{
			Threshold:   c.Validation.InventedThreshold,
			MaxExamples: c.Validation.MaxExamples,
			IgnoreYears: c.Validation.IgnoreYears,
		},
		Scanner:      compliance.NewScanner(resolver, rules, compliance.Options{MinSentenceLength: c.Validation.MinSentenceLength}),
		SchemaChecks: c.Validation.SchemaChecks,
	}, nil
}

// Close releases the knowledge base.
func (e *appEnv) Close() {
	if e.Store == nil {
		return
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close knowledge base", zap.Error(err))
	}
}

// providers returns the configured provider profiles. The anthropic profile is
// reported as connected when an API key is configured.
func providers(c *config.Config) []model.ProviderProfile {
	out := make([]model.ProviderProfile, len(c.Providers))
	copy(out, c.Providers)
	if c.Anthropic.Key == "" {
		return out
	}
	for i := range out {
		if out[i].ID == "anthropic" {
			out[i].ClientStatus = model.ClientConnected
		}
	}
	return out
}

func mergePhrases(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, p := range append(append([]string(nil), base...), extra...) {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
