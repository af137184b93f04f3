package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pitwall/internal/adapters/driving/tui/styles"
)

func TestNewQueryInput(t *testing.T) {
	s := styles.DefaultStyles()
	input := NewQueryInput(s)

	require.NotNil(t, input)
	assert.Equal(t, "", input.Value())
	assert.True(t, input.Focused())
}

func TestNewQueryInput_NilStyles(t *testing.T) {
	input := NewQueryInput(nil)

	require.NotNil(t, input)
	assert.NotNil(t, input.styles)
}

func TestQueryInput_Init(t *testing.T) {
	input := NewQueryInput(nil)

	cmd := input.Init()

	// Blink command should be returned
	assert.NotNil(t, cmd)
}

func TestQueryInput_Update(t *testing.T) {
	input := NewQueryInput(nil)

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}}
	updated, _ := input.Update(msg)

	assert.Equal(t, input, updated)
	assert.Equal(t, "a", input.Value())
}

func TestQueryInput_SetValue(t *testing.T) {
	input := NewQueryInput(nil)

	input.SetValue("minimum weight?")

	assert.Equal(t, "minimum weight?", input.Value())
}

func TestQueryInput_FocusBlur(t *testing.T) {
	input := NewQueryInput(nil)

	assert.True(t, input.Focused())

	input.Blur()
	assert.False(t, input.Focused())

	cmd := input.Focus()
	assert.NotNil(t, cmd)
	assert.True(t, input.Focused())
}

func TestQueryInput_SetWidth(t *testing.T) {
	input := NewQueryInput(nil)

	input.SetWidth(100)

	assert.Equal(t, 100, input.Width())
}

func TestQueryInput_SetWidth_Minimum(t *testing.T) {
	input := NewQueryInput(nil)

	input.SetWidth(10)

	assert.Equal(t, 10, input.Width())
}

func TestQueryInput_Reset(t *testing.T) {
	input := NewQueryInput(nil)
	input.SetValue("something")

	input.Reset()

	assert.Equal(t, "", input.Value())
}
