// Package gateway turns a conversation plus a new user message into a single
// completion request and records the resulting turn.
package gateway

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KAVYAPALLERLA/chatbot/pkg/conversation"
	"github.com/KAVYAPALLERLA/chatbot/pkg/llm"
)

// DefaultSystemInstruction is sent ahead of the first user message of a session.
const DefaultSystemInstruction = "You are a helpful assistant."

// ErrEmptyMessage is returned when the user text is empty or whitespace.
var ErrEmptyMessage = errors.New("message is empty")

// ErrProviderCallFailed wraps any failure of the completion provider:
// network, authentication, quota and malformed responses alike.
type ErrProviderCallFailed struct {
	Reason error
}

func (e ErrProviderCallFailed) Error() string {
	if e.Reason == nil {
		return "provider call failed"
	}

	return "provider call failed: " + e.Reason.Error()
}

func (e ErrProviderCallFailed) Unwrap() error {
	return e.Reason
}

// Gateway is a stateless adapter between a conversation and an llm.Provider.
type Gateway struct {
	provider          llm.Provider
	options           llm.Options
	systemInstruction string
	persistSystem     bool
	logger            *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPersistedSystemInstruction makes the gateway record the system
// instruction as the first message of the conversation it returns, instead of
// synthesizing it for the first request only.
func WithPersistedSystemInstruction() Option {
	return func(g *Gateway) {
		g.persistSystem = true
	}
}

// New creates a Gateway using the fixed llm.DefaultOptions.
func New(provider llm.Provider, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		provider:          provider,
		options:           llm.DefaultOptions(),
		systemInstruction: DefaultSystemInstruction,
		logger:            logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete sends conv followed by userText to the provider. On success it
// returns conv extended by the user message and the reply, along with the reply
// text. On failure it returns conv unchanged together with an
// ErrProviderCallFailed; the turn is not recorded and is never retried.
func (g *Gateway) Complete(ctx context.Context, conv conversation.Conversation, userText string) (conversation.Conversation, string, error) {
	if strings.TrimSpace(userText) == "" {
		return conv, "", ErrEmptyMessage
	}

	startTime := time.Now()
	first := conv.IsEmpty()
	user := llm.UserMessage(userText)

	messages := conv.All()
	if first {
		messages = append([]llm.Message{llm.SystemMessage(g.systemInstruction)}, messages...)
	}
	messages = append(messages, user)

	g.logger.Debug("requesting completion",
		zap.Int("message_count", len(messages)),
		zap.Bool("first_turn", first),
		zap.String("content_preview", truncate(userText, 50)),
	)

	reply, err := g.provider.Complete(ctx, messages, g.options)
	if err != nil {
		g.logger.Error("provider call failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return conv, "", ErrProviderCallFailed{Reason: err}
	}

	g.logger.Debug("received completion",
		zap.String("content_preview", truncate(reply, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	next := conv
	if first && g.persistSystem {
		next = next.Append(llm.SystemMessage(g.systemInstruction))
	}
	next = next.AppendTurn(llm.Turn{User: user, Assistant: llm.AssistantMessage(reply)})

	return next, reply, nil
}

// truncate shortens s to at most maxLen runes for log previews.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
