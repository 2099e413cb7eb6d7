// Package generation invokes the completion model that writes report text.
// The API is OpenAI-compatible; in production it points at OpenRouter.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrGenerationFailed is returned when the completion call errors or returns
// no usable choice.
var ErrGenerationFailed = errors.New("generation failed")

// Message is one (role, text) pair of the completion request.
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// Client calls a chat-completion endpoint with a fixed model. It is
// stateless and safe for concurrent use.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a completion client against the given base URL and model.
func NewClient(apiKey, baseURL, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("generation API key not configured")
	}
	if model == "" {
		return nil, fmt.Errorf("generation model not configured")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{client: &client, model: model}, nil
}

// Complete sends the ordered messages to the model and returns the generated
// text. Any transport error, empty choice list, or empty completion surfaces
// as ErrGenerationFailed.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			params = append(params, openai.SystemMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: params,
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}
	return resp.Choices[0].Message.Content, nil
}
