// Package cost estimates per-request LLM cost for configured providers and
// recommends the cheapest connected provider for a token budget.
package cost

import (
	"github.com/sells-group/advisory-guard/internal/model"
)

// TokenBudget is the expected size of one advisory-generation request.
type TokenBudget struct {
	Input  int `json:"input" yaml:"input" mapstructure:"input"`
	Output int `json:"output" yaml:"output" mapstructure:"output"`
}

// DefaultTokenBudget returns the budget of a typical advisory request.
func DefaultTokenBudget() TokenBudget {
	return TokenBudget{Input: 4000, Output: 1500}
}

// Quote is a priced estimate for one provider and tier.
type Quote struct {
	ProviderID   string     `json:"provider_id"`
	Model        string     `json:"model"`
	Tier         model.Tier `json:"tier"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	CostUSD      float64    `json:"cost_usd"`
}

// Estimate returns the cost in USD of one request. Negative token counts are
// treated as zero. Pricing is per provider, so tier does not change the rate.
func Estimate(p model.ProviderProfile, _ model.Tier, inputTokens, outputTokens int) float64 {
	in := float64(max(inputTokens, 0))
	out := float64(max(outputTokens, 0))
	return (in/1000)*p.CostPer1KInput + (out/1000)*p.CostPer1KOutput
}

// QuoteFor prices a request and records the model serving the tier.
func QuoteFor(p model.ProviderProfile, tier model.Tier, budget TokenBudget) Quote {
	return Quote{
		ProviderID:   p.ID,
		Model:        p.Model(tier),
		Tier:         tier,
		InputTokens:  budget.Input,
		OutputTokens: budget.Output,
		CostUSD:      Estimate(p, tier, budget.Input, budget.Output),
	}
}

// Quotes prices every connected provider, in input order.
func Quotes(providers []model.ProviderProfile, tier model.Tier, budget TokenBudget) []Quote {
	var out []Quote
	for _, p := range providers {
		if !p.Connected() {
			continue
		}
		out = append(out, QuoteFor(p, tier, budget))
	}
	return out
}

// Recommend returns the id of the cheapest connected provider. Ties go to the
// provider listed first. The bool is false when no provider is connected;
// callers must not fall back to an arbitrary provider.
func Recommend(providers []model.ProviderProfile, tier model.Tier, budget TokenBudget) (string, bool) {
	quotes := Quotes(providers, tier, budget)
	if len(quotes) == 0 {
		return "", false
	}
	best := quotes[0]
	for _, q := range quotes[1:] {
		if q.CostUSD < best.CostUSD {
			best = q
		}
	}
	return best.ProviderID, true
}

// DefaultProviders returns the built-in provider catalogue. Every entry starts
// not configured; the caller marks providers connected once credentials are
// known.
func DefaultProviders() []model.ProviderProfile {
	return []model.ProviderProfile{
		{
			ID: "anthropic", Name: "Anthropic", Enabled: true,
			Models: map[model.Tier]string{
				model.TierDev:  "claude-haiku-4-5-20251001",
				model.TierProd: "claude-sonnet-4-5-20250929",
			},
			CostPer1KInput: 0.003, CostPer1KOutput: 0.015,
			ClientStatus: model.ClientNotConfigured,
		},
		{
			ID: "openai", Name: "OpenAI", Enabled: true,
			Models: map[model.Tier]string{
				model.TierDev:  "gpt-4o-mini",
				model.TierProd: "gpt-4o",
			},
			CostPer1KInput: 0.0025, CostPer1KOutput: 0.01,
			ClientStatus: model.ClientNotConfigured,
		},
		{
			ID: "gemini", Name: "Google Gemini", Enabled: true,
			Models: map[model.Tier]string{
				model.TierDev:  "gemini-2.0-flash",
				model.TierProd: "gemini-1.5-pro",
			},
			CostPer1KInput: 0.00125, CostPer1KOutput: 0.005,
			ClientStatus: model.ClientNotConfigured,
		},
		{
			ID: "ollama", Name: "Ollama (local)", Enabled: false,
			Models: map[model.Tier]string{
				model.TierDev:  "llama3.1:8b",
				model.TierProd: "llama3.1:70b",
			},
			ClientStatus: model.ClientNotConfigured,
		},
	}
}
