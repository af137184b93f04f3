package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSourceUnavailable indicates a single knowledge source failed to answer.
	// Retrieval continues with the remaining sources.
	ErrSourceUnavailable = errors.New("knowledge source unavailable")

	// ErrRetrievalUnavailable indicates every required knowledge source failed.
	// The engine falls back to a degraded answer.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable indicates the generation backend is not
	// configured or failed. Answers fall back to extractive composition.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrRateLimited indicates an upstream API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
