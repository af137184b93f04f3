package driven

// PromptStore provides access to generation prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible
	// default or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem frames the assistant and its grounding rules for
	// answer generation. This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerContext wraps retrieved context around the user's question.
	// The template expects two %s placeholders: the context block, then the
	// question.
	PromptAnswerContext = "answer_context"
)

// PromptStoreAware is an optional interface for generators that can use
// custom prompts. Implementations can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the generator should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
