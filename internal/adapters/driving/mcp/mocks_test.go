package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer     *domain.Answer
	turns      []domain.Turn
	err        error
	gotSession string
	gotQuery   string
}

func (m *mockChatService) Ask(_ context.Context, sessionID, query string) (*domain.Answer, error) {
	m.gotSession = sessionID
	m.gotQuery = query
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.Turn, error) {
	return m.turns, m.err
}

func (m *mockChatService) Reset(_ context.Context, _ string) error {
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) SetGenerator(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetClassifier(_, _ float64) error {
	return m.err
}

func (m *mockSettingsService) SetRetrieval(_ time.Duration, _ int) error {
	return m.err
}

func (m *mockSettingsService) SetSession(_ int, _ time.Duration) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateGeneratorConfig() error {
	return m.err
}
