// Package llm holds shared prompt assembly for the generation adapters.
// Each provider package converts the neutral transcript built here into
// its own wire format.
package llm

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

// Default prompts used when no PromptStore is configured.
// These mirror the defaults shipped by the file-based prompt store.
const (
	DefaultAnswerSystemPrompt = `You are Pitwall, the assistant for a grassroots racing series. You answer
questions about the series rulebook, parts pricing, and event schedules.

Follow these rules:
1. Answer ONLY from the context and conversation provided with each question
2. Cite rulebook sections by their reference when the context includes one
3. Prices, schedules and availability come from live lookups; quote the
   retrieved values and never estimate beyond them
4. If the context does not contain the answer, say so plainly
5. Be concise

Never invent rule numbers, prices, or dates.`

	DefaultAnswerContextPrompt = `Answer the question using only the context below.

Context:
%s

Question: %s`
)

// Message is one turn of a provider-neutral chat transcript.
type Message struct {
	Role    string
	Content string
}

// LoadPrompt loads a prompt from the store, falling back to the default
// if the store is absent or the load fails.
func LoadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// AnswerMessages converts an answer request into a chat transcript: the
// session history followed by a user message wrapping the retrieved
// context around the question. The system prompt is not included;
// providers carry it in whatever slot their API expects.
func AnswerMessages(req driven.AnswerRequest, contextTemplate string) []Message {
	messages := make([]Message, 0, len(req.History)+1)
	for _, turn := range req.History {
		messages = append(messages, Message{
			Role:    turn.Role.String(),
			Content: turn.Content,
		})
	}

	messages = append(messages, Message{
		Role:    "user",
		Content: fmt.Sprintf(contextTemplate, ContextBlock(req.Context), req.Query),
	})
	return messages
}

// ContextBlock renders retrieved items as a numbered reference list.
func ContextBlock(items []domain.RetrievedItem) string {
	if len(items) == 0 {
		return "(no relevant content was retrieved)"
	}

	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, sourceName(item.Kind))
		if item.Reference != "" {
			fmt.Fprintf(&b, " (%s)", item.Reference)
		}
		if item.Title != "" {
			b.WriteString("\n")
			b.WriteString(item.Title)
		}
		b.WriteString("\n")
		b.WriteString(item.Content)
	}
	return b.String()
}

// sourceName gives the short source label used inside prompts.
func sourceName(kind domain.SourceKind) string {
	switch kind {
	case domain.SourceStaticCorpus:
		return "Rulebook"
	case domain.SourceLiveData:
		return "Live data"
	default:
		return string(kind)
	}
}
