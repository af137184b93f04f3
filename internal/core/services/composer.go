package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// Generation call bounds.
const (
	generateMaxTokens   = 1024
	generateTemperature = 0.2
)

// snippetLength caps each extract in a fallback answer.
const snippetLength = 280

// Canned answer texts for paths where nothing useful was retrieved.
const (
	generalFallbackText = "I'm here to help with racing series rules, parts pricing, " +
		"and event schedules. Could you be more specific?"

	degradedFallbackText = "Sorry, I could not find an answer right now. " +
		"Some information sources are unavailable - please try again shortly."

	emptyResultText = "I could not find anything relevant in the rulebook or " +
		"the live data for that. Try rephrasing the question."
)

// sourceLabels maps source kinds to citation display names.
var sourceLabels = map[domain.SourceKind]string{
	domain.SourceStaticCorpus: "Series Rulebook",
	domain.SourceLiveData:     "Live Parts & Schedule Data",
}

// ComposerConfig configures answer composition.
type ComposerConfig struct {
	// MaxContextItems caps how many retrieved items feed one answer.
	// Defaults to domain.DefaultMaxContextItems.
	MaxContextItems int
}

// ComposerService assembles retrieved content into a grounded answer.
//
// Generation is fallible by design: when the backend is missing or the
// call fails, the composer falls back to an extractive answer built from
// the retrieved passages. It never returns an error.
type ComposerService struct {
	generator driven.Generator
	maxItems  int
}

// NewComposerService creates a new answer composer.
// The generator parameter is optional (can be nil); answers are then
// composed extractively.
func NewComposerService(generator driven.Generator, cfg ComposerConfig) *ComposerService {
	maxItems := cfg.MaxContextItems
	if maxItems <= 0 {
		maxItems = domain.DefaultMaxContextItems
	}

	return &ComposerService{
		generator: generator,
		maxItems:  maxItems,
	}
}

// Compose builds the answer for one query from the routed results.
//
// Items from OK and PARTIAL results are ranked by score with static
// corpus winning ties, truncated to the context budget, and cited in
// first-seen order without duplicates. The answer is degraded when any
// required source did not come back OK, or when a configured generation
// backend failed mid-request.
func (c *ComposerService) Compose(
	ctx context.Context,
	query string,
	classification domain.Classification,
	results []domain.RetrievalResult,
	history []domain.Turn,
) *domain.Answer {
	logger.Section("Answer Composition")

	items := c.rankItems(results)
	if len(items) > c.maxItems {
		logger.Debug("Truncating context: %d -> %d items", len(items), c.maxItems)
		items = items[:c.maxItems]
	}

	degraded := false
	for _, res := range results {
		if res.Required && res.Status != domain.RetrievalOK {
			degraded = true
			break
		}
	}

	answer := &domain.Answer{
		Citations:      buildCitations(items),
		SourcesUsed:    usedKinds(items),
		Classification: classification,
		Degraded:       degraded,
		CreatedAt:      time.Now(),
	}

	logger.Debug("Context: %d items, %d citations, degraded=%t",
		len(items), len(answer.Citations), degraded)

	answer.Text = c.composeText(ctx, query, classification, items, history, answer)
	return answer
}

// composeText produces the answer body, preferring the generation
// backend and falling back to extraction.
func (c *ComposerService) composeText(
	ctx context.Context,
	query string,
	classification domain.Classification,
	items []domain.RetrievedItem,
	history []domain.Turn,
	answer *domain.Answer,
) string {
	if len(items) == 0 {
		// Nothing retrieved. Without citations the answer must say so
		// plainly, never invent sources.
		switch {
		case classification.IsGeneral():
			return generalFallbackText
		case answer.Degraded:
			return degradedFallbackText
		default:
			return emptyResultText
		}
	}

	if c.generator != nil {
		text, err := c.generate(ctx, query, items, history)
		if err == nil {
			return text
		}
		logger.Warn("Generation failed, falling back to extracts: %v", err)
		answer.Degraded = true
		return c.extractiveText(items, true)
	}

	return c.extractiveText(items, false)
}

// generate invokes the generation backend with the assembled context.
func (c *ComposerService) generate(
	ctx context.Context, query string, items []domain.RetrievedItem, history []domain.Turn,
) (string, error) {
	text, err := c.generator.Answer(ctx, driven.AnswerRequest{
		Query:       query,
		Context:     items,
		History:     history,
		MaxTokens:   generateMaxTokens,
		Temperature: generateTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", domain.ErrGenerationUnavailable)
	}
	return text, nil
}

// extractiveText renders the retrieved passages directly. When fallback
// is true the text states that generation was unavailable.
func (c *ComposerService) extractiveText(items []domain.RetrievedItem, fallback bool) string {
	var b strings.Builder
	if fallback {
		b.WriteString("I could not compose a full answer, but here is the most relevant information retrieved:\n")
	} else {
		b.WriteString("Here is the most relevant information I found:\n")
	}

	for _, item := range items {
		b.WriteString("\n- ")
		if item.Title != "" {
			b.WriteString(item.Title)
			b.WriteString(": ")
		}
		b.WriteString(snippet(item.Content))
	}

	return b.String()
}

// rankItems flattens usable results into one list ordered by score,
// ties broken by source priority: the static corpus carries rule
// citations and outranks live data.
func (c *ComposerService) rankItems(results []domain.RetrievalResult) []domain.RetrievedItem {
	var items []domain.RetrievedItem
	for _, res := range results {
		if res.Failed() {
			continue
		}
		items = append(items, res.Items...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return sourceRank(items[i].Kind) < sourceRank(items[j].Kind)
	})

	return items
}

// sourceRank orders source kinds for tie-breaking.
func sourceRank(kind domain.SourceKind) int {
	for i, k := range domain.AllSourceKinds() {
		if k == kind {
			return i
		}
	}
	return len(domain.AllSourceKinds())
}

// buildCitations extracts citations from the included items,
// de-duplicated by identity, preserving first-seen order.
func buildCitations(items []domain.RetrievedItem) []domain.Citation {
	seen := make(map[string]bool)
	var citations []domain.Citation

	for _, item := range items {
		citation := domain.Citation{
			Kind:      item.Kind,
			Label:     sourceLabels[item.Kind],
			Reference: item.Reference,
		}
		if seen[citation.Key()] {
			continue
		}
		seen[citation.Key()] = true
		citations = append(citations, citation)
	}

	return citations
}

// usedKinds returns the distinct source kinds present in the included
// items, in ranking order.
func usedKinds(items []domain.RetrievedItem) []domain.SourceKind {
	present := make(map[domain.SourceKind]bool)
	for _, item := range items {
		present[item.Kind] = true
	}

	var kinds []domain.SourceKind
	for _, kind := range domain.AllSourceKinds() {
		if present[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// snippet truncates content for extractive answers.
func snippet(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) > snippetLength {
		return content[:snippetLength] + "..."
	}
	return content
}
