package driven

import (
	"context"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// CorpusSearcher queries the versioned ruleset corpus.
//
// Implementations may include:
//   - Local markdown/plaintext files under a corpus directory
//   - A GitHub repository holding the published ruleset
type CorpusSearcher interface {
	// Search returns the corpus passages most relevant to the query,
	// best first. An empty result is not an error.
	Search(ctx context.Context, query string, limit int) ([]domain.RetrievedItem, error)

	// Ping validates the corpus is loaded and searchable.
	Ping(ctx context.Context) error
}
