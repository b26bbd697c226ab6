package llm

// Turn is a paired user message and the assistant reply it produced.
type Turn struct {
	User      Message `json:"user"`
	Assistant Message `json:"assistant"`
}

// Messages returns the turn in conversation order.
func (t Turn) Messages() []Message {
	return []Message{t.User, t.Assistant}
}
