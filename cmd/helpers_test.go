package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/advisory-guard/internal/compliance"
	"github.com/sells-group/advisory-guard/internal/config"
	"github.com/sells-group/advisory-guard/internal/cost"
	"github.com/sells-group/advisory-guard/internal/gate"
	"github.com/sells-group/advisory-guard/internal/knowledge"
)

const (
	testPlanJSON = `{
  "gap_analysis": {"gap": 2014250, "required_capital": 3500000},
  "target_allocation": {"equities": 0.6, "bonds": 0.4},
  "contribution_schedule": [{"year": 2026, "amount": 24000}],
  "plan_metrics": {"success_probability": 0.73},
  "calculation_timestamp": "2026-01-05T10:00:00Z",
  "calculation_version": "1.4.0"
}`
	cleanAdvisoryJSON = `{
  "executive_summary": ["Your projected retirement gap is $2,014,250 [plan engine]."],
  "priority_actions": [{"text": "Annual contributions of $24,000 are scheduled [plan engine].", "priority": "high"}],
  "strategy": ["The target allocation is 60% equities and 40% bonds [AL-001]."],
  "risk_management": ["Rebalancing keeps the allocation near its targets [AL-002]."],
  "tax_considerations": [],
  "disclaimers": ["This content is educational and not personalized advice."]
}`
	inventedAdvisoryJSON = `{
  "executive_summary": ["Your projected retirement gap is $9,999,999 [plan engine]."],
  "disclaimers": ["This content is educational and not personalized advice."]
}`
)

// testConfig returns a configuration equal to the loaded defaults.
func testConfig() *config.Config {
	c := &config.Config{}
	c.Knowledge.Driver = knowledge.DriverMemory
	c.Validation.InventedThreshold = 1000
	c.Validation.MaxExamples = 5
	c.Validation.MinSentenceLength = 20
	c.Validation.LookupTimeoutMs = 2000
	c.Compliance.DisclaimerPhrases = compliance.DefaultDisclaimerPhrases
	c.Gate = gate.DefaultPolicy()
	c.Providers = cost.DefaultProviders()
	c.TokenBudget = cost.DefaultTokenBudget()
	c.Batch.MaxConcurrent = 4
	c.Server.Port = 8080
	c.Server.AllowedOrigins = []string{"*"}
	return c
}

// newTestEnv builds an appEnv over the built-in knowledge base.
func newTestEnv(t *testing.T, c *config.Config) *appEnv {
	t.Helper()
	docs, err := knowledge.DefaultDocuments()
	require.NoError(t, err)
	store := knowledge.NewMemoryStore(docs)

	engine, err := newEngine(c, store)
	require.NoError(t, err)
	return &appEnv{Config: c, Store: store, Engine: engine}
}
