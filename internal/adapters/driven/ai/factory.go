// Package ai provides factory functions for creating generation adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/pitwall/internal/adapters/driven/llm/anthropic"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/pitwall/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateGenerator creates a generator and validates connectivity.
// Returns nil with no error when generation is not configured; answers then
// fall back to extractive composition.
//
// When prompts is non-nil it is injected into generators that support
// customisable prompt templates.
func CreateAndValidateGenerator(settings *domain.GeneratorSettings, prompts driven.PromptStore) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	gen, err := CreateGenerator(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'pitwall settings wizard' to fix",
			domain.ErrGenerationUnavailable, err)
	}

	if gen == nil {
		return nil, nil
	}

	if prompts != nil {
		if aware, ok := gen.(driven.PromptStoreAware); ok {
			aware.SetPromptStore(prompts)
		}
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := gen.Ping(ctx); err != nil {
		gen.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'pitwall settings wizard' to fix",
			domain.ErrGenerationUnavailable, err)
	}

	return gen, nil
}

// ValidateGeneratorConfig validates a generator configuration by creating the
// adapter and pinging it. This is intended for use in the settings wizard to
// validate credentials on configuration.
func ValidateGeneratorConfig(settings *domain.GeneratorSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	gen, err := CreateGenerator(settings)
	if err != nil {
		return err
	}
	if gen == nil {
		return nil
	}
	defer gen.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return gen.Ping(ctx)
}

// CreateGenerator creates the appropriate generator based on settings.
// Returns nil if the provider is not configured.
func CreateGenerator(settings *domain.GeneratorSettings) (driven.Generator, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaGenerator(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIGenerator(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicGenerator(settings)

	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", settings.Provider)
	}
}

// createOllamaGenerator creates an Ollama generator.
func createOllamaGenerator(settings *domain.GeneratorSettings) driven.Generator {
	return ollama.NewGenerator(ollama.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAIGenerator creates an OpenAI generator.
func createOpenAIGenerator(settings *domain.GeneratorSettings) (driven.Generator, error) {
	return openai.NewGenerator(openai.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicGenerator creates an Anthropic generator.
func createAnthropicGenerator(settings *domain.GeneratorSettings) (driven.Generator, error) {
	return anthropic.NewGenerator(anthropic.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
