package anthropic

import (
	"context"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Client defines the Anthropic API operations used for cost estimation.
type Client interface {
	CountTokens(ctx context.Context, req CountRequest) (int64, error)
}

// CountRequest describes a prompt whose input tokens should be counted.
type CountRequest struct {
	Model    string
	System   string
	Messages []Message
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a new Anthropic client backed by the SDK. Extra options
// are passed to the SDK (base URL, HTTP client).
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	return &sdkClient{
		client: sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...),
	}
}

func (c *sdkClient) CountTokens(ctx context.Context, req CountRequest) (int64, error) {
	if req.Model == "" {
		return 0, eris.New("anthropic: count tokens: model is required")
	}
	if len(req.Messages) == 0 {
		return 0, eris.New("anthropic: count tokens: at least one message is required")
	}

	params := sdk.MessageCountTokensParams{
		Model:    sdk.Model(req.Model),
		Messages: toSDKMessages(req.Messages),
	}
	if req.System != "" {
		params.System = sdk.MessageCountTokensParamsSystemUnion{OfString: sdk.String(req.System)}
	}

	resp, err := c.client.Messages.CountTokens(ctx, params)
	if err != nil {
		return 0, eris.Wrap(err, "anthropic: count tokens")
	}
	return resp.InputTokens, nil
}

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}
