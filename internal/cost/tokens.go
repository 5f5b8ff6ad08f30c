package cost

import (
	"context"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/pkg/anthropic"
)

// TokenCounter estimates the input tokens of a prompt.
type TokenCounter interface {
	Count(ctx context.Context, system, prompt string) (int, error)
}

// HeuristicCounter approximates four characters per token.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(_ context.Context, system, prompt string) (int, error) {
	return heuristicTokens(system, prompt), nil
}

func heuristicTokens(parts ...string) int {
	chars := 0
	for _, p := range parts {
		chars += utf8.RuneCountInString(p)
	}
	return (chars + 3) / 4
}

// AnthropicCounter asks the Anthropic count-tokens endpoint and falls back to
// the heuristic when the call fails.
type AnthropicCounter struct {
	Client anthropic.Client
	Model  string
}

func (c AnthropicCounter) Count(ctx context.Context, system, prompt string) (int, error) {
	n, err := c.Client.CountTokens(ctx, anthropic.CountRequest{
		Model:    c.Model,
		System:   system,
		Messages: []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		fallback := heuristicTokens(system, prompt)
		zap.L().Warn("cost: token count failed, using heuristic",
			zap.String("model", c.Model),
			zap.Int("estimate", fallback),
			zap.Error(err),
		)
		return fallback, nil
	}
	return int(n), nil
}
