package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntentLabel_IsValid tests all valid and invalid intent labels
func TestIntentLabel_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		label    IntentLabel
		expected bool
	}{
		{
			name:     "RULES is valid",
			label:    IntentRules,
			expected: true,
		},
		{
			name:     "DYNAMIC_DATA is valid",
			label:    IntentDynamicData,
			expected: true,
		},
		{
			name:     "HYBRID is valid",
			label:    IntentHybrid,
			expected: true,
		},
		{
			name:     "GENERAL is valid",
			label:    IntentGeneral,
			expected: true,
		},
		{
			name:     "empty string is invalid",
			label:    IntentLabel(""),
			expected: false,
		},
		{
			name:     "lowercase rules is invalid",
			label:    IntentLabel("rules"),
			expected: false,
		},
		{
			name:     "unknown label is invalid",
			label:    IntentLabel("TRIVIA"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.label.IsValid()
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestIntentLabel_Sources tests label to knowledge source mapping
func TestIntentLabel_Sources(t *testing.T) {
	tests := []struct {
		name     string
		label    IntentLabel
		expected []SourceKind
	}{
		{
			name:     "RULES requires static corpus",
			label:    IntentRules,
			expected: []SourceKind{SourceStaticCorpus},
		},
		{
			name:     "DYNAMIC_DATA requires live data",
			label:    IntentDynamicData,
			expected: []SourceKind{SourceLiveData},
		},
		{
			name:     "HYBRID requires both sources",
			label:    IntentHybrid,
			expected: []SourceKind{SourceStaticCorpus, SourceLiveData},
		},
		{
			name:     "GENERAL requires no sources",
			label:    IntentGeneral,
			expected: nil,
		},
		{
			name:     "unknown label requires no sources",
			label:    IntentLabel("unknown"),
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.label.Sources()
			assert.Equal(t, tt.expected, result)
		})
	}
}

// TestIntentLabel_Description tests human-readable descriptions
func TestIntentLabel_Description(t *testing.T) {
	assert.Equal(t, "Rules (ruleset corpus lookup)", IntentRules.Description())
	assert.Equal(t, "Dynamic Data (live operational lookup)", IntentDynamicData.Description())
	assert.Equal(t, "Hybrid (corpus + live data)", IntentHybrid.Description())
	assert.Equal(t, "General (no retrieval)", IntentGeneral.Description())
	assert.Equal(t, unknownDescription, IntentLabel("bogus").Description())
}

// TestAllIntentLabels tests the complete label set
func TestAllIntentLabels(t *testing.T) {
	labels := AllIntentLabels()

	require.Len(t, labels, 4)
	assert.Contains(t, labels, IntentRules)
	assert.Contains(t, labels, IntentDynamicData)
	assert.Contains(t, labels, IntentHybrid)
	assert.Contains(t, labels, IntentGeneral)

	for _, label := range labels {
		assert.True(t, label.IsValid(), "Label %s should be valid", label)
	}
}

// TestClassification_Primary tests primary label selection
func TestClassification_Primary(t *testing.T) {
	tests := []struct {
		name     string
		intents  []ScoredIntent
		expected IntentLabel
	}{
		{
			name:     "empty classification falls back to GENERAL",
			intents:  nil,
			expected: IntentGeneral,
		},
		{
			name: "single label is primary",
			intents: []ScoredIntent{
				{Label: IntentRules, Confidence: 0.9},
			},
			expected: IntentRules,
		},
		{
			name: "first label is primary",
			intents: []ScoredIntent{
				{Label: IntentDynamicData, Confidence: 0.8},
				{Label: IntentRules, Confidence: 0.6},
			},
			expected: IntentDynamicData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classification{Intents: tt.intents}
			assert.Equal(t, tt.expected, c.Primary())
		})
	}
}

// TestClassification_Has tests label membership
func TestClassification_Has(t *testing.T) {
	c := Classification{
		Intents: []ScoredIntent{
			{Label: IntentRules, Confidence: 0.9},
			{Label: IntentDynamicData, Confidence: 0.7},
			{Label: IntentHybrid, Confidence: 0.7},
		},
	}

	assert.True(t, c.Has(IntentRules))
	assert.True(t, c.Has(IntentDynamicData))
	assert.True(t, c.Has(IntentHybrid))
	assert.False(t, c.Has(IntentGeneral))
}

// TestClassification_Confidence tests confidence lookup
func TestClassification_Confidence(t *testing.T) {
	c := Classification{
		Intents: []ScoredIntent{
			{Label: IntentRules, Confidence: 0.85},
		},
	}

	conf, ok := c.Confidence(IntentRules)
	require.True(t, ok)
	assert.InDelta(t, 0.85, conf, 0.001)

	_, ok = c.Confidence(IntentDynamicData)
	assert.False(t, ok)
}

// TestClassification_Labels tests bare label extraction preserves order
func TestClassification_Labels(t *testing.T) {
	c := Classification{
		Intents: []ScoredIntent{
			{Label: IntentDynamicData, Confidence: 0.9},
			{Label: IntentRules, Confidence: 0.6},
		},
	}

	assert.Equal(t, []IntentLabel{IntentDynamicData, IntentRules}, c.Labels())
	assert.Empty(t, Classification{}.Labels())
}

// TestClassification_IsGeneral tests the fallback check
func TestClassification_IsGeneral(t *testing.T) {
	general := Classification{Intents: []ScoredIntent{{Label: IntentGeneral, Confidence: 1.0}}}
	rules := Classification{Intents: []ScoredIntent{{Label: IntentRules, Confidence: 0.9}}}

	assert.True(t, general.IsGeneral())
	assert.True(t, Classification{}.IsGeneral())
	assert.False(t, rules.IsGeneral())
}

// TestClassification_RequiredSources tests source union derivation
func TestClassification_RequiredSources(t *testing.T) {
	tests := []struct {
		name     string
		intents  []ScoredIntent
		expected []SourceKind
	}{
		{
			name: "rules only needs corpus",
			intents: []ScoredIntent{
				{Label: IntentRules, Confidence: 0.9},
			},
			expected: []SourceKind{SourceStaticCorpus},
		},
		{
			name: "dynamic only needs live data",
			intents: []ScoredIntent{
				{Label: IntentDynamicData, Confidence: 0.8},
			},
			expected: []SourceKind{SourceLiveData},
		},
		{
			name: "hybrid set needs both in label order",
			intents: []ScoredIntent{
				{Label: IntentRules, Confidence: 0.8},
				{Label: IntentDynamicData, Confidence: 0.8},
				{Label: IntentHybrid, Confidence: 0.8},
			},
			expected: []SourceKind{SourceStaticCorpus, SourceLiveData},
		},
		{
			name: "dynamic leading keeps live data first",
			intents: []ScoredIntent{
				{Label: IntentDynamicData, Confidence: 0.9},
				{Label: IntentRules, Confidence: 0.6},
				{Label: IntentHybrid, Confidence: 0.6},
			},
			expected: []SourceKind{SourceLiveData, SourceStaticCorpus},
		},
		{
			name: "general needs nothing",
			intents: []ScoredIntent{
				{Label: IntentGeneral, Confidence: 1.0},
			},
			expected: nil,
		},
		{
			name:     "empty classification needs nothing",
			intents:  nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classification{Intents: tt.intents}
			assert.Equal(t, tt.expected, c.RequiredSources())
		})
	}
}
