// Package groq implements llm.Provider against Groq's OpenAI-compatible API.
package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/pkg/llm"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1/"

// ErrMissingAPIKey is returned when no credential was configured.
var ErrMissingAPIKey = errors.New("groq: API key is not configured")

// Config holds the connection settings for the Groq client.
type Config struct {
	APIKey  string
	BaseURL string

	// HTTPClient overrides the SDK's default HTTP client. Optional.
	HTTPClient *http.Client
}

// Client sends chat completions to Groq.
type Client struct {
	client *openai.Client
	logger *zap.Logger
}

// NewClient creates a Client. The API key is required.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL),
		// The gateway makes a single attempt per submission.
		option.WithMaxRetries(0),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	client := openai.NewClient(opts...)

	return &Client{
		client: &client,
		logger: logger,
	}, nil
}

// Complete implements llm.Provider.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAIMessages(messages),
		Model:       openai.ChatModel(opts.Model),
		Temperature: openai.Float(opts.Temperature),
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
	}

	c.logger.Debug("sending completion request",
		zap.String("model", opts.Model),
		zap.Int("message_count", len(messages)),
	)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.logger.Debug("groq returned error", zap.Int("status", apiErr.StatusCode))
		}
		return "", fmt.Errorf("create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", errors.New("response contained no content")
	}

	c.logger.Debug("received completion",
		zap.String("model", resp.Model),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return content, nil
}

func toOpenAIMessages(messages []llm.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

var _ llm.Provider = (*Client)(nil)
