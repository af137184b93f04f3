package domain

import "time"

// AIProvider identifies a service provider for answer generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// ClassifierSettings holds intent classification behaviour.
type ClassifierSettings struct {
	// InclusionThreshold is the minimum confidence for a label to be
	// included in the classification. Range [0, 1].
	InclusionThreshold float64

	// ContinuityBoost is added to a label's confidence when the previous
	// user turn in the session carried the same label. Range [0, 1].
	ContinuityBoost float64
}

// RetrievalSettings holds knowledge source call behaviour.
type RetrievalSettings struct {
	// Timeout bounds each individual source call.
	Timeout time.Duration

	// MaxContextItems caps how many retrieved items feed one answer.
	MaxContextItems int
}

// SessionSettings holds conversation memory behaviour.
type SessionSettings struct {
	// WindowSize is the maximum number of turns retained per session.
	WindowSize int

	// TTL is how long an idle session survives before expiry.
	TTL time.Duration
}

// GeneratorSettings holds generation backend configuration.
type GeneratorSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the generation backend is set up.
// An unconfigured backend is not an error: answers fall back to
// extractive composition.
func (g GeneratorSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// AppSettings holds all engine settings.
type AppSettings struct {
	// Classifier holds intent classification settings.
	Classifier ClassifierSettings

	// Retrieval holds knowledge source call settings.
	Retrieval RetrievalSettings

	// Session holds conversation memory settings.
	Session SessionSettings

	// Generator holds generation backend settings.
	Generator GeneratorSettings
}

// Default settings values.
const (
	// DefaultInclusionThreshold is the label inclusion cut-off.
	DefaultInclusionThreshold = 0.5

	// DefaultContinuityBoost favours the previous turn's labels.
	DefaultContinuityBoost = 0.15

	// DefaultRetrievalTimeout bounds each knowledge source call.
	DefaultRetrievalTimeout = 5 * time.Second

	// DefaultMaxContextItems caps context fed to one answer.
	DefaultMaxContextItems = 6

	// DefaultSessionWindow is the turns retained per session.
	DefaultSessionWindow = 12

	// DefaultSessionTTL is how long idle sessions survive.
	DefaultSessionTTL = 30 * time.Minute
)

// DefaultAppSettings returns settings with sensible defaults.
// The generator is left unconfigured by default; users must explicitly
// configure it via the settings wizard. Until then answers are extractive.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Classifier: ClassifierSettings{
			InclusionThreshold: DefaultInclusionThreshold,
			ContinuityBoost:    DefaultContinuityBoost,
		},
		Retrieval: RetrievalSettings{
			Timeout:         DefaultRetrievalTimeout,
			MaxContextItems: DefaultMaxContextItems,
		},
		Session: SessionSettings{
			WindowSize: DefaultSessionWindow,
			TTL:        DefaultSessionTTL,
		},
		// Generator is left unconfigured - user must set up via settings wizard
		Generator: GeneratorSettings{},
	}
}

// AllGeneratorProviders returns providers that support answer generation.
func AllGeneratorProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultGeneratorModels returns default models for each provider.
func DefaultGeneratorModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
