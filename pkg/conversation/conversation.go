// Package conversation holds the ordered, append-only message history of a
// single chat session.
package conversation

import "github.com/KAVYAPALLERLA/chatbot/pkg/llm"

// Conversation is an ordered sequence of messages in insertion order.
//
// A Conversation is a value: Append and Clear return a new Conversation and
// never modify the receiver, so callers hold the state explicitly and pass it
// back into the next operation. The zero value is an empty conversation.
type Conversation struct {
	messages []llm.Message
}

// New returns a conversation holding a copy of msgs.
func New(msgs ...llm.Message) Conversation {
	return Conversation{}.Append(msgs...)
}

// Append returns a conversation with msgs added to the end.
func (c Conversation) Append(msgs ...llm.Message) Conversation {
	if len(msgs) == 0 {
		return c
	}

	// Always copy so two conversations derived from the same parent never
	// share a backing array.
	next := make([]llm.Message, 0, len(c.messages)+len(msgs))
	next = append(next, c.messages...)
	next = append(next, msgs...)
	return Conversation{messages: next}
}

// AppendTurn returns a conversation with the turn's user and assistant
// messages added, in that order.
func (c Conversation) AppendTurn(turn llm.Turn) Conversation {
	return c.Append(turn.Messages()...)
}

// Clear returns the empty conversation.
func (c Conversation) Clear() Conversation {
	return Conversation{}
}

// All returns a copy of the messages in order.
func (c Conversation) All() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c Conversation) Len() int {
	return len(c.messages)
}

// IsEmpty reports whether the conversation has no messages.
func (c Conversation) IsEmpty() bool {
	return len(c.messages) == 0
}

// Last returns the most recent message, if any.
func (c Conversation) Last() (llm.Message, bool) {
	if len(c.messages) == 0 {
		return llm.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}
