package driven

import (
	"context"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// LiveDataSource queries operational data at answer time.
// This is an optional service - when nil, dynamic-data queries degrade
// to whatever the corpus can offer.
//
// Implementations may include:
//   - An MCP tool server fronting the operational spreadsheet
//   - Google Sheets queried directly
type LiveDataSource interface {
	// Query returns the live records most relevant to the query,
	// best first. An empty result is not an error.
	Query(ctx context.Context, query string, limit int) ([]domain.RetrievedItem, error)

	// Ping validates the source is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
