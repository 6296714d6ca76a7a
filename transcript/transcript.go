// Package transcript holds the ordered sequence of chat messages and the
// Pending-Reply flag.
package transcript

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ParseRole normalizes a role string. "assistant" is accepted for agent.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, true
	case "agent", "assistant":
		return RoleAgent, true
	default:
		return "", false
	}
}

// Message is one transcript entry. It is never modified after Append.
type Message struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is what subscribers observe after each change.
type Snapshot struct {
	Messages []Message
	Pending  bool
}

// Store is an append-only transcript.
type Store struct {
	mu       sync.Mutex
	messages []Message
	pending  bool
	subs     map[int]func(Snapshot)
	nextSub  int

	// notifyMu keeps notifications in mutation order without holding mu.
	notifyMu sync.Mutex

	newID func() string
	now   func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		subs:  make(map[int]func(Snapshot)),
		newID: newMessageID,
		now:   time.Now,
	}
}

// newMessageID returns a UUIDv7, which sorts by creation time and does not
// collide for messages created in the same millisecond.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Append adds msg at the end, filling ID and CreatedAt when empty. Appending
// an agent message clears the Pending-Reply flag in the same step.
func (s *Store) Append(msg Message) Message {
	return s.mutate(func() Message {
		msg = s.fill(msg)
		s.messages = append(s.messages, msg)
		if msg.Role == RoleAgent {
			s.pending = false
		}
		return msg
	})
}

// AppendUser adds a user message and sets the Pending-Reply flag in the same step.
func (s *Store) AppendUser(content string) Message {
	return s.mutate(func() Message {
		msg := s.fill(Message{Content: content, Role: RoleUser})
		s.messages = append(s.messages, msg)
		s.pending = true
		return msg
	})
}

// Hydrate replaces the whole transcript with msgs. Hydrating twice with the
// same content leaves a single copy.
func (s *Store) Hydrate(msgs []Message) {
	s.mutate(func() Message {
		s.messages = make([]Message, 0, len(msgs))
		for _, m := range msgs {
			s.messages = append(s.messages, s.fill(m))
		}
		return Message{}
	})
}

// Reset empties the transcript and clears the flag.
func (s *Store) Reset() {
	s.mutate(func() Message {
		s.messages = nil
		s.pending = false
		return Message{}
	})
}

// SetPending sets the Pending-Reply flag.
func (s *Store) SetPending(v bool) {
	s.mutate(func() Message {
		s.pending = v
		return Message{}
	})
}

// ClearPending clears the Pending-Reply flag.
func (s *Store) ClearPending() { s.SetPending(false) }

// Pending reports whether a reply is awaited.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Messages returns a copy of the transcript.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every change and returns a cancel func.
// fn may read from the store but must not mutate it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// mutate applies change under the lock and then notifies subscribers with
// the resulting snapshot. Notifications are not reordered across mutations.
func (s *Store) mutate(change func() Message) Message {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	msg := change()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return msg
}

// Must be called with mu held.
func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Messages: append([]Message(nil), s.messages...),
		Pending:  s.pending,
	}
}

// Must be called with mu held.
func (s *Store) fill(msg Message) Message {
	if msg.ID == "" {
		msg.ID = s.newID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	return msg
}
