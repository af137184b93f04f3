package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockGenerator implements driven.Generator for testing.
type mockGenerator struct {
	response string
	genErr   error
	gotReq   driven.AnswerRequest
	calls    int
}

func (m *mockGenerator) Answer(_ context.Context, req driven.AnswerRequest) (string, error) {
	m.calls++
	m.gotReq = req
	if m.genErr != nil {
		return "", m.genErr
	}
	return m.response, nil
}

func (m *mockGenerator) ModelName() string {
	return "mock-gen"
}

func (m *mockGenerator) Ping(_ context.Context) error {
	return nil
}

func (m *mockGenerator) Close() error {
	return nil
}

// --- Test helpers ---

func okResult(kind domain.SourceKind, required bool, items ...domain.RetrievedItem) domain.RetrievalResult {
	return domain.RetrievalResult{
		Kind:     kind,
		Status:   domain.RetrievalOK,
		Required: required,
		Items:    items,
	}
}

func failedResult(kind domain.SourceKind, required bool) domain.RetrievalResult {
	return domain.RetrievalResult{
		Kind:     kind,
		Status:   domain.RetrievalFailed,
		Required: required,
		Err:      "source failed",
	}
}

func item(kind domain.SourceKind, title string, score float64, ref string) domain.RetrievedItem {
	return domain.RetrievedItem{
		Kind:      kind,
		Title:     title,
		Content:   title + " content",
		Score:     score,
		Reference: ref,
	}
}

// --- Tests ---

func TestNewComposerService_Defaults(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})

	require.NotNil(t, service)
	assert.Equal(t, domain.DefaultMaxContextItems, service.maxItems)
}

func TestComposerService_Compose_Extractive(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Tires", 0.9, "rules/4.2")),
	}

	answer := service.Compose(ctx, "tread depth", classificationOf(domain.IntentRules), results, nil)

	require.NotNil(t, answer)
	assert.False(t, answer.Degraded)
	assert.Contains(t, answer.Text, "Here is the most relevant information I found:")
	assert.Contains(t, answer.Text, "Tires")
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "Series Rulebook", answer.Citations[0].Label)
	assert.Equal(t, "rules/4.2", answer.Citations[0].Reference)
	assert.Equal(t, []domain.SourceKind{domain.SourceStaticCorpus}, answer.SourcesUsed)
	assert.False(t, answer.CreatedAt.IsZero())
}

func TestComposerService_Compose_RankedByScore(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Low", 0.3, "rules/1"),
			item(domain.SourceStaticCorpus, "High", 0.9, "rules/2")),
		okResult(domain.SourceLiveData, true,
			item(domain.SourceLiveData, "Mid", 0.6, "parts!A1")),
	}

	answer := service.Compose(ctx, "q", classificationOf(domain.IntentHybrid), results, nil)

	require.Len(t, answer.Citations, 3)
	assert.Equal(t, "rules/2", answer.Citations[0].Reference)
	assert.Equal(t, "parts!A1", answer.Citations[1].Reference)
	assert.Equal(t, "rules/1", answer.Citations[2].Reference)
}

func TestComposerService_Compose_CorpusWinsScoreTies(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceLiveData, true,
			item(domain.SourceLiveData, "Live", 0.8, "parts!A1")),
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Rule", 0.8, "rules/1")),
	}

	answer := service.Compose(ctx, "q", classificationOf(domain.IntentHybrid), results, nil)

	require.Len(t, answer.Citations, 2)
	assert.Equal(t, domain.SourceStaticCorpus, answer.Citations[0].Kind)
	assert.Equal(t, domain.SourceLiveData, answer.Citations[1].Kind)
}

func TestComposerService_Compose_TruncatesToBudget(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{MaxContextItems: 2})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "A", 0.9, "rules/a"),
			item(domain.SourceStaticCorpus, "B", 0.8, "rules/b"),
			item(domain.SourceStaticCorpus, "C", 0.7, "rules/c")),
	}

	answer := service.Compose(ctx, "q", classificationOf(domain.IntentRules), results, nil)

	// Citations come only from items that made the cut.
	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "rules/a", answer.Citations[0].Reference)
	assert.Equal(t, "rules/b", answer.Citations[1].Reference)
	assert.NotContains(t, answer.Text, "C content")
}

func TestComposerService_Compose_CitationsDeduplicated(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "First", 0.9, "rules/4.2"),
			item(domain.SourceStaticCorpus, "Second", 0.8, "rules/4.2"),
			item(domain.SourceStaticCorpus, "Third", 0.7, "rules/5.0")),
	}

	answer := service.Compose(ctx, "q", classificationOf(domain.IntentRules), results, nil)

	require.Len(t, answer.Citations, 2)
	assert.Equal(t, "rules/4.2", answer.Citations[0].Reference)
	assert.Equal(t, "rules/5.0", answer.Citations[1].Reference)
}

func TestComposerService_Compose_DegradedWhenRequiredNotOK(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	tests := []struct {
		name     string
		status   domain.RetrievalStatus
		required bool
		degraded bool
	}{
		{"required failed", domain.RetrievalFailed, true, true},
		{"required partial", domain.RetrievalPartial, true, true},
		{"required ok", domain.RetrievalOK, true, false},
		{"optional failed", domain.RetrievalFailed, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := []domain.RetrievalResult{
				{
					Kind:     domain.SourceStaticCorpus,
					Status:   tt.status,
					Required: tt.required,
					Items: []domain.RetrievedItem{
						item(domain.SourceStaticCorpus, "A", 0.9, "rules/a"),
					},
				},
			}

			answer := service.Compose(ctx, "q", classificationOf(domain.IntentRules), results, nil)

			assert.Equal(t, tt.degraded, answer.Degraded)
		})
	}
}

func TestComposerService_Compose_FailedResultContributesNoItems(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	failed := failedResult(domain.SourceLiveData, true)
	// A failed source must not leak items into the context even if the
	// adapter populated some before erroring.
	failed.Items = []domain.RetrievedItem{item(domain.SourceLiveData, "Leak", 0.99, "parts!Z9")}

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Rule", 0.5, "rules/1")),
		failed,
	}

	answer := service.Compose(ctx, "q", classificationOf(domain.IntentHybrid), results, nil)

	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "rules/1", answer.Citations[0].Reference)
	assert.True(t, answer.Degraded)
	assert.NotContains(t, answer.Text, "Leak")
}

func TestComposerService_Compose_NoItems_GeneralFallback(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	answer := service.Compose(ctx, "hello", classificationOf(domain.IntentGeneral), nil, nil)

	assert.Equal(t, generalFallbackText, answer.Text)
	assert.Empty(t, answer.Citations)
	assert.Empty(t, answer.SourcesUsed)
	assert.False(t, answer.Degraded)
}

func TestComposerService_Compose_NoItems_DegradedFallback(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		failedResult(domain.SourceStaticCorpus, true),
	}

	answer := service.Compose(ctx, "tread depth", classificationOf(domain.IntentRules), results, nil)

	assert.Equal(t, degradedFallbackText, answer.Text)
	assert.True(t, answer.Degraded)
	assert.Empty(t, answer.Citations)
}

func TestComposerService_Compose_NoItems_EmptyResults(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true),
	}

	answer := service.Compose(ctx, "tread depth", classificationOf(domain.IntentRules), results, nil)

	assert.Equal(t, emptyResultText, answer.Text)
	assert.False(t, answer.Degraded)
}

func TestComposerService_Compose_GeneratorUsed(t *testing.T) {
	gen := &mockGenerator{response: "The minimum tread depth is 2mm per section 4.2."}
	service := NewComposerService(gen, ComposerConfig{})
	ctx := context.Background()

	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "earlier question"},
	}
	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Tires", 0.9, "rules/4.2")),
	}

	answer := service.Compose(ctx, "tread depth", classificationOf(domain.IntentRules), results, history)

	assert.Equal(t, "The minimum tread depth is 2mm per section 4.2.", answer.Text)
	assert.False(t, answer.Degraded)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "tread depth", gen.gotReq.Query)
	assert.Len(t, gen.gotReq.Context, 1)
	assert.Len(t, gen.gotReq.History, 1)
	assert.Equal(t, generateMaxTokens, gen.gotReq.MaxTokens)
	assert.InDelta(t, generateTemperature, gen.gotReq.Temperature, confDelta)
}

func TestComposerService_Compose_GeneratorNotCalledWithoutItems(t *testing.T) {
	gen := &mockGenerator{response: "should not appear"}
	service := NewComposerService(gen, ComposerConfig{})
	ctx := context.Background()

	answer := service.Compose(ctx, "hello", classificationOf(domain.IntentGeneral), nil, nil)

	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, generalFallbackText, answer.Text)
}

func TestComposerService_Compose_GenerationFailure_Degrades(t *testing.T) {
	gen := &mockGenerator{genErr: errors.New("model offline")}
	service := NewComposerService(gen, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Tires", 0.9, "rules/4.2")),
	}

	answer := service.Compose(ctx, "tread depth", classificationOf(domain.IntentRules), results, nil)

	assert.True(t, answer.Degraded)
	assert.Contains(t, answer.Text, "I could not compose a full answer")
	assert.Contains(t, answer.Text, "Tires")
	// Citations survive the generation failure.
	require.Len(t, answer.Citations, 1)
}

func TestComposerService_Compose_EmptyGeneration_Degrades(t *testing.T) {
	gen := &mockGenerator{response: "   \n "}
	service := NewComposerService(gen, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Tires", 0.9, "rules/4.2")),
	}

	answer := service.Compose(ctx, "tread depth", classificationOf(domain.IntentRules), results, nil)

	assert.True(t, answer.Degraded)
	assert.Contains(t, answer.Text, "I could not compose a full answer")
}

func TestComposerService_Compose_BothSourcesUsed(t *testing.T) {
	service := NewComposerService(nil, ComposerConfig{})
	ctx := context.Background()

	results := []domain.RetrievalResult{
		okResult(domain.SourceLiveData, true,
			item(domain.SourceLiveData, "Price", 0.9, "parts!B4")),
		okResult(domain.SourceStaticCorpus, true,
			item(domain.SourceStaticCorpus, "Rule", 0.7, "rules/1")),
	}

	answer := service.Compose(ctx, "q", classificationOf(domain.IntentHybrid), results, nil)

	// Ranking order for sources used, regardless of item order.
	assert.Equal(t, []domain.SourceKind{domain.SourceStaticCorpus, domain.SourceLiveData},
		answer.SourcesUsed)
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "short content unchanged",
			content:  "Minimum tread depth is 2mm.",
			expected: "Minimum tread depth is 2mm.",
		},
		{
			name:     "whitespace collapsed",
			content:  "Minimum  tread\n\ndepth   is 2mm.",
			expected: "Minimum tread depth is 2mm.",
		},
		{
			name:     "long content truncated",
			content:  strings.Repeat("a", 400),
			expected: strings.Repeat("a", snippetLength) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, snippet(tt.content))
		})
	}
}
