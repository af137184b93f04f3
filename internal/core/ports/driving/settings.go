package driving

import (
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// SettingsService manages engine settings.
type SettingsService interface {
	// Get retrieves current engine settings.
	Get() (*domain.AppSettings, error)

	// Save persists engine settings.
	Save(settings *domain.AppSettings) error

	// SetGenerator configures the generation backend.
	SetGenerator(provider domain.AIProvider, model, apiKey string) error

	// SetClassifier updates the inclusion threshold and continuity boost.
	SetClassifier(threshold, boost float64) error

	// SetRetrieval updates the per-source timeout and context cap.
	SetRetrieval(timeout time.Duration, maxItems int) error

	// SetSession updates the session window size and idle TTL.
	SetSession(window int, ttl time.Duration) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateGeneratorConfig validates the current generator
	// configuration by pinging the provider.
	ValidateGeneratorConfig() error
}
