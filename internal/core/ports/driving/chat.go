package driving

import (
	"context"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// ChatService answers queries within conversation sessions.
// Queries against the same session key are handled one at a time, in
// arrival order; different sessions proceed in parallel.
type ChatService interface {
	// Ask classifies the query, retrieves from the required knowledge
	// sources, and composes an answer within the session's context.
	// It always produces an answer for well-formed input; source and
	// generation failures degrade the answer instead of failing it.
	// Returns domain.ErrInvalidInput for blank queries or session keys.
	Ask(ctx context.Context, sessionID, query string) (*domain.Answer, error)

	// History returns the retained turns of a session, oldest first.
	// Returns domain.ErrNotFound for unknown or expired sessions.
	History(ctx context.Context, sessionID string) ([]domain.Turn, error)

	// Reset discards a session's conversation memory.
	// Resetting an unknown session is not an error.
	Reset(ctx context.Context, sessionID string) error
}
