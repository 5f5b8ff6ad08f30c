package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/advisory-guard/internal/config"
	"github.com/sells-group/advisory-guard/internal/cost"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/pkg/anthropic"
)

var (
	providersTier       string
	providersInput      int
	providersOutput     int
	providersPromptPath string
	providersSystem     string
	providersProvider   string
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List providers and estimate per-request cost",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("providers"); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), providers(cfg))
	},
}

var providersEstimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price one request on every connected provider, or on --provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("providers"); err != nil {
			return err
		}
		tier, budget, err := budgetFromFlags(cmd)
		if err != nil {
			return err
		}
		if providersProvider == "" {
			return printJSON(cmd.OutOrStdout(), cost.Quotes(providers(cfg), tier, budget))
		}
		for _, p := range providers(cfg) {
			if p.ID == providersProvider {
				return printJSON(cmd.OutOrStdout(), cost.QuoteFor(p, tier, budget))
			}
		}
		return eris.Errorf("unknown provider %q", providersProvider)
	},
}

var providersRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print the cheapest connected provider for the token budget",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("providers"); err != nil {
			return err
		}
		tier, budget, err := budgetFromFlags(cmd)
		if err != nil {
			return err
		}
		id, ok := cost.Recommend(providers(cfg), tier, budget)
		if !ok {
			return eris.New("no connected provider")
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"provider_id": id,
			"tier":        tier,
			"budget":      budget,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{providersEstimateCmd, providersRecommendCmd} {
		c.Flags().StringVar(&providersTier, "tier", string(model.TierDev), "model tier: dev or prod")
		c.Flags().IntVar(&providersInput, "input-tokens", 0, "input tokens (default from token_budget)")
		c.Flags().IntVar(&providersOutput, "output-tokens", 0, "output tokens (default from token_budget)")
		c.Flags().StringVar(&providersPromptPath, "prompt", "", "count input tokens from this prompt file")
		c.Flags().StringVar(&providersSystem, "system", "", "system prompt counted with --prompt")
	}
	providersEstimateCmd.Flags().StringVar(&providersProvider, "provider", "", "price only this provider, connected or not")
	providersCmd.AddCommand(providersEstimateCmd, providersRecommendCmd)
	rootCmd.AddCommand(providersCmd)
}

// budgetFromFlags resolves the tier and token budget. A --prompt file is
// counted with the configured token counter and overrides --input-tokens.
func budgetFromFlags(cmd *cobra.Command) (model.Tier, cost.TokenBudget, error) {
	tier := model.Tier(providersTier)
	if tier != model.TierDev && tier != model.TierProd {
		return "", cost.TokenBudget{}, eris.Errorf("unknown tier %q", providersTier)
	}

	budget := cfg.TokenBudget
	if providersInput > 0 {
		budget.Input = providersInput
	}
	if providersOutput > 0 {
		budget.Output = providersOutput
	}

	if providersPromptPath != "" {
		prompt, err := os.ReadFile(providersPromptPath)
		if err != nil {
			return "", cost.TokenBudget{}, eris.Wrapf(err, "read prompt %s", providersPromptPath)
		}
		n, err := countTokens(cmd.Context(), cfg, providersSystem, string(prompt))
		if err != nil {
			return "", cost.TokenBudget{}, err
		}
		budget.Input = n
	}
	return tier, budget, nil
}

// tokenCounter uses the Anthropic count-tokens endpoint when a key is
// configured and the character heuristic otherwise.
func tokenCounter(c *config.Config) cost.TokenCounter {
	if c.Anthropic.Key == "" {
		return cost.HeuristicCounter{}
	}
	return cost.AnthropicCounter{
		Client: anthropic.NewClient(c.Anthropic.Key),
		Model:  c.Anthropic.CountModel,
	}
}

func countTokens(ctx context.Context, c *config.Config, system, prompt string) (int, error) {
	n, err := tokenCounter(c).Count(ctx, system, prompt)
	if err != nil {
		return 0, eris.Wrap(err, "count tokens")
	}
	return n, nil
}
