package domain

import "time"

// Answer is the engine's composed response to one query.
type Answer struct {
	// Text is the response shown to the user.
	Text string

	// Citations identifies the sources behind the text, in first-use order.
	// Empty for answers composed without retrieval.
	Citations []Citation

	// SourcesUsed is the set of source kinds whose items fed the answer,
	// in ranking order.
	SourcesUsed []SourceKind

	// Classification is the label set that drove retrieval.
	Classification Classification

	// Degraded is true when a required knowledge source did not answer in
	// full, or when generation fell back to extractive composition.
	Degraded bool

	// CreatedAt is when the answer was composed.
	CreatedAt time.Time
}

// CitationLabels returns the display labels of the citations, in order.
func (a Answer) CitationLabels() []string {
	labels := make([]string, 0, len(a.Citations))
	for _, c := range a.Citations {
		labels = append(labels, c.Label)
	}
	return labels
}
