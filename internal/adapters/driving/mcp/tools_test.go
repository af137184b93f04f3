package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the composed answer", func(t *testing.T) {
		mockChat := &mockChatService{
			answer: &domain.Answer{
				Text: "Minimum tread depth is 3mm [Series Rulebook]. The rotor is in stock [Live Parts & Schedule Data].",
				Citations: []domain.Citation{
					{Kind: domain.SourceStaticCorpus, Label: "Series Rulebook", Reference: "rules/4.2"},
					{Kind: domain.SourceLiveData, Label: "Live Parts & Schedule Data", Reference: "Parts!A2"},
				},
				SourcesUsed: []domain.SourceKind{domain.SourceStaticCorpus, domain.SourceLiveData},
			},
		}

		ports := &Ports{Chat: mockChat}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Query: "tread depth and rotor stock?", Session: "garage-7"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, mockChat.answer.Text, output.Text)
		assert.False(t, output.Degraded)

		require.Len(t, output.Citations, 2)
		assert.Equal(t, "Series Rulebook", output.Citations[0].Source)
		assert.Equal(t, "rules/4.2", output.Citations[0].Locator)
		assert.Equal(t, "Parts!A2", output.Citations[1].Locator)

		assert.Equal(t, []string{"static_corpus", "live_data"}, output.Sources)
		assert.Equal(t, "garage-7", mockChat.gotSession)
		assert.Equal(t, "tread depth and rotor stock?", mockChat.gotQuery)
	})

	t.Run("reports degraded answers", func(t *testing.T) {
		mockChat := &mockChatService{
			answer: &domain.Answer{
				Text:     "Sorry - the information sources are unavailable right now.",
				Degraded: true,
			},
		}

		ports := &Ports{Chat: mockChat}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Query: "rotor price?"})

		require.NoError(t, err)
		assert.True(t, output.Degraded)
		assert.Empty(t, output.Citations)
	})

	t.Run("default session is mcp", func(t *testing.T) {
		mockChat := &mockChatService{answer: &domain.Answer{Text: "ok"}}
		ports := &Ports{Chat: mockChat}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Query: "hello"})

		require.NoError(t, err)
		assert.Equal(t, DefaultSession, mockChat.gotSession)
	})

	t.Run("returns error on ask failure", func(t *testing.T) {
		mockChat := &mockChatService{
			err: errors.New("session store unavailable"),
		}

		ports := &Ports{Chat: mockChat}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Query: "hello"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "session store unavailable")
	})
}
