// Package session keeps the per-session conversation and turn-taking state of
// the chat interface in process memory.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/KAVYAPALLERLA/chatbot/pkg/conversation"
)

// ErrBusy is returned when a session already has a completion in flight.
var ErrBusy = errors.New("a response is already pending for this session")

// State is the turn-taking state of a session.
type State int

const (
	// Idle sessions accept a new submission.
	Idle State = iota
	// AwaitingResponse sessions have one completion in flight.
	AwaitingResponse
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

type entry struct {
	conv     conversation.Conversation
	state    State
	lastSeen time.Time
}

// Registry maps session ids to their state. Sessions not touched for longer
// than the TTL are dropped lazily. A zero TTL keeps sessions forever.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin moves the session to AwaitingResponse and returns its conversation.
// Unknown sessions start empty.
func (r *Registry) Begin(id string) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.touch(id)
	if e.state == AwaitingResponse {
		return e.conv, ErrBusy
	}
	e.state = AwaitingResponse
	return e.conv, nil
}

// Finish stores the conversation produced by a completed turn and returns the
// session to Idle.
func (r *Registry) Finish(id string, conv conversation.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.touch(id)
	e.conv = conv
	e.state = Idle
}

// Abandon returns the session to Idle without changing its conversation.
func (r *Registry) Abandon(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touch(id).state = Idle
}

// Snapshot returns the current conversation of the session.
func (r *Registry) Snapshot(id string) conversation.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.touch(id).conv
}

// State returns the turn-taking state of the session.
func (r *Registry) State(id string) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.touch(id).state
}

// Clear discards the session's conversation. It fails with ErrBusy while a
// completion is pending.
func (r *Registry) Clear(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.touch(id)
	if e.state == AwaitingResponse {
		return ErrBusy
	}
	e.conv = e.conv.Clear()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.prune()
	return len(r.sessions)
}

// touch returns the entry for id, creating it when missing, and refreshes its
// last use. Callers must hold r.mu.
func (r *Registry) touch(id string) *entry {
	r.prune()

	e, ok := r.sessions[id]
	if !ok {
		e = &entry{}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	return e
}

// prune drops idle sessions older than the TTL. Callers must hold r.mu.
func (r *Registry) prune() {
	if r.ttl <= 0 {
		return
	}

	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.sessions {
		if e.state == Idle && e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
