package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// SessionStore persists conversation sessions keyed by client-chosen
// session keys. Expiry policy lives in the core; stores only hold state.
//
// Implementations may include:
//   - In-memory map (single process, default)
//   - SQLite (survives restarts)
type SessionStore interface {
	// Get retrieves a session by key.
	// Returns domain.ErrNotFound when the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Put stores a session, replacing any previous state.
	Put(ctx context.Context, session *domain.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteIdleSince removes sessions last updated before the cutoff.
	// Returns the number of sessions removed.
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases store resources.
	Close() error
}
