package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPorts(t *testing.T) {
	chat := &stubChatService{}
	ports := NewPorts(chat)

	require.NotNil(t, ports)
	assert.Equal(t, chat, ports.Chat)
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("chat service is valid", func(t *testing.T) {
		ports := NewPorts(&stubChatService{})
		assert.NoError(t, ports.Validate())
	})
}
