package driven

import "github.com/custodia-labs/pitwall/internal/core/domain"

// GeneratorValidator validates generation backend configurations.
// Implementations verify a configuration works by testing connectivity
// to the underlying AI service.
type GeneratorValidator interface {
	// ValidateGenerator validates a generator configuration by pinging
	// the provider. Returns nil if the configuration is valid or not
	// configured.
	ValidateGenerator(config *domain.GeneratorSettings) error
}
