package model

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one turn within a session transcript.
type Message struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// Session is a time-bounded conversation transcript keyed by an opaque id.
// A session is valid only while now - LastAccessedAt < the store's timeout;
// a stale session is logically absent even before the sweeper removes it.
type Session struct {
	ID             string
	RoleID         string
	Messages       []Message
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

func NewSession(id, roleID string, now time.Time) *Session {
	return &Session{
		ID:             id,
		RoleID:         roleID,
		Messages:       make([]Message, 0, 8),
		CreatedAt:      now,
		LastAccessedAt: now,
	}
}

func (s *Session) Append(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Snapshot returns a copy that is safe to read after the store's lock has
// been released; later writes to the live session do not reach it.
func (s *Session) Snapshot() *Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// Expired reports whether the session fell out of its sliding window.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return now.Sub(s.LastAccessedAt) >= timeout
}

func (s *Session) Touch(now time.Time) {
	s.LastAccessedAt = now
}
