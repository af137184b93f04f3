package domain

import "time"

// SourceKind identifies a class of knowledge source.
type SourceKind string

// The closed set of knowledge source kinds.
const (
	// SourceStaticCorpus is the versioned ruleset corpus.
	SourceStaticCorpus SourceKind = "static_corpus"

	// SourceLiveData is operational data queried at answer time
	// (pricing, schedules, availability).
	SourceLiveData SourceKind = "live_data"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceStaticCorpus, SourceLiveData:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SourceKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the source kind.
func (k SourceKind) Description() string {
	switch k {
	case SourceStaticCorpus:
		return "Static Corpus (ruleset documents)"
	case SourceLiveData:
		return "Live Data (operational lookups)"
	default:
		return unknownDescription
	}
}

// AllSourceKinds returns every recognised source kind, in ranking order.
func AllSourceKinds() []SourceKind {
	return []SourceKind{
		SourceStaticCorpus,
		SourceLiveData,
	}
}

// RetrievalStatus records the outcome of one knowledge source call.
type RetrievalStatus string

// Available retrieval outcomes.
const (
	// RetrievalOK means the source answered in full.
	RetrievalOK RetrievalStatus = "ok"

	// RetrievalPartial means the source answered, but results are
	// incomplete or the call reported a non-fatal problem.
	RetrievalPartial RetrievalStatus = "partial"

	// RetrievalFailed means the source returned nothing usable.
	RetrievalFailed RetrievalStatus = "failed"
)

// IsValid returns true if the status is recognised.
func (s RetrievalStatus) IsValid() bool {
	switch s {
	case RetrievalOK, RetrievalPartial, RetrievalFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s RetrievalStatus) String() string {
	return string(s)
}

// RetrievedItem is a single unit of content returned by a knowledge source.
type RetrievedItem struct {
	// Kind is the source class that produced the item.
	Kind SourceKind

	// Title is a short human-readable heading, when the source has one.
	Title string

	// Content is the retrieved text.
	Content string

	// Score is source-assigned relevance; higher is better.
	Score float64

	// Reference locates the item within its source
	// (section id, sheet range, file path).
	Reference string
}

// Citation identifies the provenance of content used in an answer.
type Citation struct {
	// Kind is the source class the content came from.
	Kind SourceKind

	// Label is the display name of the source.
	Label string

	// Reference locates the cited content within the source.
	Reference string
}

// Key returns the identity used for citation de-duplication.
func (c Citation) Key() string {
	return string(c.Kind) + "|" + c.Reference
}

// RetrievalResult is the outcome of querying one knowledge source.
// Source failures are recorded here rather than surfaced as errors, so a
// slow or broken source degrades the answer instead of sinking it.
type RetrievalResult struct {
	// Kind identifies the source that was queried.
	Kind SourceKind

	// Status records how the call went.
	Status RetrievalStatus

	// Required is true when the routing plan needs this source for a
	// non-degraded answer.
	Required bool

	// Items holds the retrieved content, best first.
	Items []RetrievedItem

	// Err describes the failure when Status is not OK.
	Err string

	// Elapsed is how long the source call took.
	Elapsed time.Duration
}

// Failed reports whether the source produced nothing usable.
func (r RetrievalResult) Failed() bool {
	return r.Status == RetrievalFailed
}
