package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
)

// setupTestServices injects mock services so commands run without
// touching the filesystem or the network. Returns a cleanup that
// restores the previous wiring.
func setupTestServices() func() {
	oldConfigStore := configStore
	oldSettingsService := settingsService
	oldSettingsConcrete := settingsConcrete
	oldChatService := chatService

	configStore = newMockConfigStore()
	settingsService = &mockSettingsService{}
	settingsConcrete = nil
	chatService = &mockChatService{}

	return func() {
		configStore = oldConfigStore
		settingsService = oldSettingsService
		settingsConcrete = oldSettingsConcrete
		chatService = oldChatService
	}
}

// mockChatService returns a fixed grounded answer.
type mockChatService struct {
	lastSession string
	lastQuery   string
}

var _ driving.ChatService = (*mockChatService)(nil)

func (m *mockChatService) Ask(_ context.Context, sessionID, query string) (*domain.Answer, error) {
	m.lastSession = sessionID
	m.lastQuery = query
	return &domain.Answer{
		Text: "Minimum tread depth is 1.6mm per section 4.2.",
		Citations: []domain.Citation{
			{Kind: domain.SourceStaticCorpus, Label: "Series Rulebook", Reference: "section 4.2"},
		},
		SourcesUsed: []domain.SourceKind{domain.SourceStaticCorpus},
		Classification: domain.Classification{
			Intents: []domain.ScoredIntent{
				{Label: domain.IntentRules, Confidence: 0.9},
			},
		},
		CreatedAt: time.Now(),
	}, nil
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return []domain.Turn{
		{ID: "t1", Role: domain.RoleUser, Content: "What is the minimum tread depth?"},
		{ID: "t2", Role: domain.RoleAssistant, Content: "1.6mm per section 4.2."},
	}, nil
}

func (m *mockChatService) Reset(_ context.Context, _ string) error {
	return nil
}

// mockChatServiceError fails every call.
type mockChatServiceError struct{}

var _ driving.ChatService = (*mockChatServiceError)(nil)

func (m *mockChatServiceError) Ask(_ context.Context, _, _ string) (*domain.Answer, error) {
	return nil, errors.New("mock ask error")
}

func (m *mockChatServiceError) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return nil, errors.New("mock history error")
}

func (m *mockChatServiceError) Reset(_ context.Context, _ string) error {
	return errors.New("mock reset error")
}

// mockSettingsService serves defaults and records mutations.
type mockSettingsService struct {
	saved         *domain.AppSettings
	generatorSet  bool
	classifierSet bool
	retrievalSet  bool
	sessionSet    bool
}

var _ driving.SettingsService = (*mockSettingsService)(nil)

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.saved != nil {
		return m.saved, nil
	}
	settings := domain.DefaultAppSettings()
	return &settings, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.saved = settings
	return nil
}

func (m *mockSettingsService) SetGenerator(provider domain.AIProvider, model, apiKey string) error {
	m.generatorSet = true
	settings, _ := m.Get()
	settings.Generator = domain.GeneratorSettings{Provider: provider, Model: model, APIKey: apiKey}
	m.saved = settings
	return nil
}

func (m *mockSettingsService) SetClassifier(threshold, boost float64) error {
	m.classifierSet = true
	settings, _ := m.Get()
	settings.Classifier = domain.ClassifierSettings{InclusionThreshold: threshold, ContinuityBoost: boost}
	m.saved = settings
	return nil
}

func (m *mockSettingsService) SetRetrieval(timeout time.Duration, maxItems int) error {
	m.retrievalSet = true
	settings, _ := m.Get()
	settings.Retrieval = domain.RetrievalSettings{Timeout: timeout, MaxContextItems: maxItems}
	m.saved = settings
	return nil
}

func (m *mockSettingsService) SetSession(window int, ttl time.Duration) error {
	m.sessionSet = true
	settings, _ := m.Get()
	settings.Session = domain.SessionSettings{WindowSize: window, TTL: ttl}
	m.saved = settings
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateGeneratorConfig() error {
	return nil
}

// mockConfigStore is an in-memory config store.
type mockConfigStore struct {
	values map[string]any
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	if v, ok := m.values[key].(int); ok {
		return v
	}
	return 0
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	switch v := m.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	if v, ok := m.values[key].([]string); ok {
		return v
	}
	return nil
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }
func (m *mockConfigStore) Load() error { return nil }
func (m *mockConfigStore) Path() string {
	return "/tmp/pitwall-test/config.toml"
}

// Root command tests.

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "pitwall", rootCmd.Use)
}

func TestRootCmd_HasExpectedCommands(t *testing.T) {
	commands := rootCmd.Commands()
	commandNames := make([]string, 0, len(commands))
	for _, cmd := range commands {
		commandNames = append(commandNames, cmd.Name())
	}

	assert.Contains(t, commandNames, "ask")
	assert.Contains(t, commandNames, "chat")
	assert.Contains(t, commandNames, "serve")
	assert.Contains(t, commandNames, "corpus")
	assert.Contains(t, commandNames, "settings")
	assert.Contains(t, commandNames, "mcp")
	assert.Contains(t, commandNames, "version")
}

func TestRootCmd_HasVerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	assert.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestRootCmd_HasConfigDirFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config-dir")
	assert.NotNil(t, flag)
}

func TestRunCleanups_ReverseOrder(t *testing.T) {
	var order []string
	cleanups = append(cleanups,
		func() { order = append(order, "first") },
		func() { order = append(order, "second") },
	)

	runCleanups()

	assert.Equal(t, []string{"second", "first"}, order)
	assert.Nil(t, cleanups)
}

func TestHTTPAddr_FlagWins(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	assert.Equal(t, ":9999", httpAddr(":9999"))
}

func TestHTTPAddr_ConfigFallback(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_ = configStore.Set(keyHTTPAddr, "127.0.0.1:8090")

	assert.Equal(t, "127.0.0.1:8090", httpAddr(""))
}

func TestHTTPAddr_Default(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	assert.Equal(t, ":8080", httpAddr(""))
}

func TestEnsureEngine_SkipsWhenChatServiceInjected(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	injected := chatService

	err := ensureEngine(rootCmd)

	assert.NoError(t, err)
	assert.Same(t, injected, chatService)
}

func TestEnsureEngine_ErrorsWithoutSettingsService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	chatService = nil
	settingsService = nil

	err := ensureEngine(rootCmd)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestPortSuffix(t *testing.T) {
	assert.Equal(t, ":8080", portSuffix(":8080"))
	assert.Equal(t, ":8090", portSuffix("127.0.0.1:8090"))
}

func TestRootCmd_Long_MentionsCoreCommands(t *testing.T) {
	for _, want := range []string{"serve", "ask", "chat"} {
		assert.True(t, strings.Contains(rootCmd.Long, want), "long help should mention %q", want)
	}
}
