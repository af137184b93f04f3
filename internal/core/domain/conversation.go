package domain

import "time"

// Role identifies who authored a turn.
type Role string

// Available turn roles.
const (
	// RoleUser is the person asking.
	RoleUser Role = "user"

	// RoleAssistant is the engine's reply.
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Turn is a single message within a session.
type Turn struct {
	// ID is a unique turn identifier.
	ID string

	// Role is who authored the turn.
	Role Role

	// Content is the message text.
	Content string

	// Intents holds the labels assigned to a user turn.
	// Empty for assistant turns.
	Intents []IntentLabel

	// CreatedAt is when the turn was recorded.
	CreatedAt time.Time
}

// Session is a conversation identified by a client-chosen key.
// Turns are ordered oldest first and trimmed to a bounded window.
type Session struct {
	// ID is the client-supplied session key.
	ID string

	// Turns holds the retained turns, oldest first.
	Turns []Turn

	// CreatedAt is when the session was first seen.
	CreatedAt time.Time

	// UpdatedAt is when the session last recorded a turn.
	UpdatedAt time.Time
}

// NewSession creates an empty session with the given key.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records a turn and bumps UpdatedAt.
func (s *Session) Append(turn Turn) {
	s.Turns = append(s.Turns, turn)
	if turn.CreatedAt.After(s.UpdatedAt) {
		s.UpdatedAt = turn.CreatedAt
	}
}

// Trim drops the oldest turns so at most max remain.
// A max of zero or less leaves the session untouched.
func (s *Session) Trim(max int) {
	if max <= 0 || len(s.Turns) <= max {
		return
	}
	s.Turns = s.Turns[len(s.Turns)-max:]
}

// LastIntents returns the labels of the most recent user turn,
// or nil when the session has none. This feeds the classifier's
// continuity boost for follow-up questions.
func (s *Session) LastIntents() []IntentLabel {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleUser {
			return s.Turns[i].Intents
		}
	}
	return nil
}

// History returns up to the last n turns, oldest first.
// A n of zero or less returns all turns.
func (s *Session) History(n int) []Turn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// ExpiredAt reports whether the session has been idle longer than ttl.
// A ttl of zero or less means sessions never expire.
func (s *Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.UpdatedAt) > ttl
}
