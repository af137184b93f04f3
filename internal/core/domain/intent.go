package domain

const unknownDescription = "Unknown"

// IntentLabel classifies what an incoming query is asking for.
type IntentLabel string

// The closed set of intent labels.
const (
	// IntentRules is a question answerable from the ruleset corpus alone.
	IntentRules IntentLabel = "RULES"

	// IntentDynamicData is a question about operational data that changes
	// over time (pricing, schedules, availability).
	IntentDynamicData IntentLabel = "DYNAMIC_DATA"

	// IntentHybrid marks a query that needs the ruleset corpus and live
	// operational data together. It is derived, never scored directly:
	// assigned when both IntentRules and IntentDynamicData qualify.
	IntentHybrid IntentLabel = "HYBRID"

	// IntentGeneral is conversational or out-of-scope input with no
	// retrieval requirement. It is the fallback when no other label
	// qualifies.
	IntentGeneral IntentLabel = "GENERAL"
)

// IsValid returns true if the label is recognised.
func (l IntentLabel) IsValid() bool {
	switch l {
	case IntentRules, IntentDynamicData, IntentHybrid, IntentGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (l IntentLabel) String() string {
	return string(l)
}

// Description returns a human-readable description of the label.
func (l IntentLabel) Description() string {
	switch l {
	case IntentRules:
		return "Rules (ruleset corpus lookup)"
	case IntentDynamicData:
		return "Dynamic Data (live operational lookup)"
	case IntentHybrid:
		return "Hybrid (corpus + live data)"
	case IntentGeneral:
		return "General (no retrieval)"
	default:
		return unknownDescription
	}
}

// Sources returns the knowledge sources this label requires.
// IntentGeneral requires none.
func (l IntentLabel) Sources() []SourceKind {
	switch l {
	case IntentRules:
		return []SourceKind{SourceStaticCorpus}
	case IntentDynamicData:
		return []SourceKind{SourceLiveData}
	case IntentHybrid:
		return []SourceKind{SourceStaticCorpus, SourceLiveData}
	default:
		return nil
	}
}

// AllIntentLabels returns every recognised label.
func AllIntentLabels() []IntentLabel {
	return []IntentLabel{
		IntentRules,
		IntentDynamicData,
		IntentHybrid,
		IntentGeneral,
	}
}

// ScoredIntent pairs a label with classifier confidence in [0, 1].
type ScoredIntent struct {
	// Label is the assigned intent label.
	Label IntentLabel

	// Confidence is how sure the classifier is, 1.0 being certain.
	Confidence float64
}

// Classification is the classifier verdict for one query: every label that
// met the inclusion threshold, highest confidence first. An empty verdict
// never leaves the classifier; IntentGeneral fills the gap instead.
type Classification struct {
	// Intents holds the qualifying labels, highest confidence first.
	Intents []ScoredIntent
}

// Primary returns the highest-confidence label.
// Returns IntentGeneral when the classification is empty.
func (c Classification) Primary() IntentLabel {
	if len(c.Intents) == 0 {
		return IntentGeneral
	}
	return c.Intents[0].Label
}

// Has returns true if the classification includes the label.
func (c Classification) Has(label IntentLabel) bool {
	for _, in := range c.Intents {
		if in.Label == label {
			return true
		}
	}
	return false
}

// Confidence returns the confidence for a label and whether it is present.
func (c Classification) Confidence(label IntentLabel) (float64, bool) {
	for _, in := range c.Intents {
		if in.Label == label {
			return in.Confidence, true
		}
	}
	return 0, false
}

// Labels returns the bare labels, highest confidence first.
func (c Classification) Labels() []IntentLabel {
	labels := make([]IntentLabel, 0, len(c.Intents))
	for _, in := range c.Intents {
		labels = append(labels, in.Label)
	}
	return labels
}

// IsGeneral reports whether this is the no-retrieval fallback.
func (c Classification) IsGeneral() bool {
	return c.Primary() == IntentGeneral
}

// RequiredSources returns the union of knowledge sources the included
// labels require, de-duplicated, in the order the labels first demand
// them. Empty for IntentGeneral. Downstream routing preserves this
// order so composition stays deterministic.
func (c Classification) RequiredSources() []SourceKind {
	seen := make(map[SourceKind]bool)
	var kinds []SourceKind
	for _, in := range c.Intents {
		for _, kind := range in.Label.Sources() {
			if seen[kind] {
				continue
			}
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
