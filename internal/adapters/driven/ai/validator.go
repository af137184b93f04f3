package ai

import (
	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.GeneratorValidator = (*ConfigValidator)(nil)

// ConfigValidator validates generation backend configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new generator config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateGenerator validates a generator configuration by pinging the provider.
func (v *ConfigValidator) ValidateGenerator(config *domain.GeneratorSettings) error {
	return ValidateGeneratorConfig(config)
}
