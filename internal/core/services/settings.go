package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyClassifierThreshold = "classifier.inclusion_threshold"
	keyClassifierBoost     = "classifier.continuity_boost"
	keyClassifierRules     = "classifier.extra_rules_cues"
	keyClassifierDynamic   = "classifier.extra_dynamic_cues"
	keyRetrievalTimeout    = "retrieval.timeout"
	keyRetrievalMaxItems   = "retrieval.max_context_items"
	keySessionWindow       = "session.window_size"
	keySessionTTL          = "session.ttl"
	keyGenProvider         = "generator.provider"
	keyGenModel            = "generator.model"
	keyGenBaseURL          = "generator.base_url"
	keyGenAPIKey           = "generator.api_key"
)

// SettingsService manages engine settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.GeneratorValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, validator driven.GeneratorValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current engine settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Classifier: domain.ClassifierSettings{
			InclusionThreshold: s.getThreshold(keyClassifierThreshold, defaults.Classifier.InclusionThreshold),
			ContinuityBoost:    s.getThreshold(keyClassifierBoost, defaults.Classifier.ContinuityBoost),
		},
		Retrieval: domain.RetrievalSettings{
			Timeout:         s.getDuration(keyRetrievalTimeout, defaults.Retrieval.Timeout),
			MaxContextItems: s.getInt(keyRetrievalMaxItems, defaults.Retrieval.MaxContextItems),
		},
		Session: domain.SessionSettings{
			WindowSize: s.getInt(keySessionWindow, defaults.Session.WindowSize),
			TTL:        s.getDuration(keySessionTTL, defaults.Session.TTL),
		},
		Generator: domain.GeneratorSettings{
			Provider: s.getProvider(keyGenProvider, defaults.Generator.Provider),
			Model:    s.getString(keyGenModel, defaults.Generator.Model),
			BaseURL:  s.configStore.GetString(keyGenBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyGenAPIKey),
		},
	}

	return settings, nil
}

// Save persists engine settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save classifier settings
	if err := s.configStore.Set(keyClassifierThreshold, settings.Classifier.InclusionThreshold); err != nil {
		return fmt.Errorf("save inclusion threshold: %w", err)
	}
	if err := s.configStore.Set(keyClassifierBoost, settings.Classifier.ContinuityBoost); err != nil {
		return fmt.Errorf("save continuity boost: %w", err)
	}

	// Save retrieval settings
	if err := s.configStore.Set(keyRetrievalTimeout, settings.Retrieval.Timeout.String()); err != nil {
		return fmt.Errorf("save retrieval timeout: %w", err)
	}
	if err := s.configStore.Set(keyRetrievalMaxItems, settings.Retrieval.MaxContextItems); err != nil {
		return fmt.Errorf("save max context items: %w", err)
	}

	// Save session settings
	if err := s.configStore.Set(keySessionWindow, settings.Session.WindowSize); err != nil {
		return fmt.Errorf("save session window: %w", err)
	}
	if err := s.configStore.Set(keySessionTTL, settings.Session.TTL.String()); err != nil {
		return fmt.Errorf("save session ttl: %w", err)
	}

	// Save generator settings
	if err := s.configStore.Set(keyGenProvider, settings.Generator.Provider.String()); err != nil {
		return fmt.Errorf("save generator provider: %w", err)
	}
	if err := s.configStore.Set(keyGenModel, settings.Generator.Model); err != nil {
		return fmt.Errorf("save generator model: %w", err)
	}
	if err := s.configStore.Set(keyGenBaseURL, settings.Generator.BaseURL); err != nil {
		return fmt.Errorf("save generator base_url: %w", err)
	}
	if settings.Generator.APIKey != "" {
		if err := s.configStore.Set(keyGenAPIKey, settings.Generator.APIKey); err != nil {
			return fmt.Errorf("save generator api_key: %w", err)
		}
	}

	return nil
}

// SetGenerator configures the generation backend.
func (s *SettingsService) SetGenerator(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid generator provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Generator.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Generator.Model = model
	} else {
		defaults := domain.DefaultGeneratorModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.Generator.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		// Local providers need a base URL
		if settings.Generator.BaseURL == "" {
			settings.Generator.BaseURL = "http://localhost:11434"
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Generator.BaseURL = ""
	}

	// Set API key
	settings.Generator.APIKey = apiKey

	return s.Save(settings)
}

// SetClassifier updates the inclusion threshold and continuity boost.
func (s *SettingsService) SetClassifier(threshold, boost float64) error {
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("inclusion threshold must be in (0, 1], got %g", threshold)
	}
	if boost < 0 || boost > 1 {
		return fmt.Errorf("continuity boost must be in [0, 1], got %g", boost)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Classifier.InclusionThreshold = threshold
	settings.Classifier.ContinuityBoost = boost

	return s.Save(settings)
}

// SetRetrieval updates the per-source timeout and context cap.
func (s *SettingsService) SetRetrieval(timeout time.Duration, maxItems int) error {
	if timeout <= 0 {
		return fmt.Errorf("retrieval timeout must be positive, got %s", timeout)
	}
	if maxItems <= 0 {
		return fmt.Errorf("max context items must be positive, got %d", maxItems)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Retrieval.Timeout = timeout
	settings.Retrieval.MaxContextItems = maxItems

	return s.Save(settings)
}

// SetSession updates the session window size and idle TTL.
func (s *SettingsService) SetSession(window int, ttl time.Duration) error {
	if window <= 0 {
		return fmt.Errorf("session window must be positive, got %d", window)
	}
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Session.WindowSize = window
	settings.Session.TTL = ttl

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateGeneratorConfig validates the current generator configuration
// by pinging the provider.
func (s *SettingsService) ValidateGeneratorConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateGenerator(&settings.Generator)
}

// GetClassifierCues returns the operator-supplied cue extensions.
func (s *SettingsService) GetClassifierCues() (rules, dynamic []string) {
	return s.configStore.GetStringSlice(keyClassifierRules),
		s.configStore.GetStringSlice(keyClassifierDynamic)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getThreshold(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	val := s.configStore.GetFloat(key)
	if val < 0 || val > 1 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
