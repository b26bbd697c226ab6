package llm

import "context"

// Provider generates a single completion for an ordered list of messages.
// Implementations make exactly one attempt per call.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}
