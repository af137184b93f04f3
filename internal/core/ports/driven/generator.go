package driven

import (
	"context"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// Generator produces answer text grounded in retrieved context.
// This is an optional service - when nil, answers fall back to extractive
// composition from the retrieved passages.
//
// Implementations may include:
//   - OpenAI (GPT-4, GPT-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type Generator interface {
	// Answer produces a response to the query grounded in the supplied
	// context items. The answer must not invent facts beyond them.
	Answer(ctx context.Context, req AnswerRequest) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to generation.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// AnswerRequest carries everything the generation backend needs.
type AnswerRequest struct {
	// Query is the user's question.
	Query string

	// Context holds the retrieved items grounding the answer, best first.
	Context []domain.RetrievedItem

	// History holds recent session turns, oldest first.
	History []domain.Turn

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64
}
