package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_Short(t *testing.T) {
	assert.Equal(t, "Ask a single question", askCmd.Short)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_HasSessionFlag(t *testing.T) {
	flag := askCmd.Flags().Lookup("session")
	require.NotNil(t, flag, "session flag should exist")
	assert.Equal(t, "s", flag.Shorthand)
	assert.Equal(t, "cli", flag.DefValue)
}

func TestAskCmd_ExecutesWithQuestion(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "What is the minimum tread depth?"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Minimum tread depth is 1.6mm")
	assert.Contains(t, buf.String(), "Sources:")
	assert.Contains(t, buf.String(), "Series Rulebook (section 4.2)")
}

func TestAskCmd_PassesSessionKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	mock := chatService.(*mockChatService)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--session", "garage-7", "Is slick tyre legal?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askSession = "cli" // Reset flag
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "garage-7", mock.lastSession)
	assert.Equal(t, "Is slick tyre legal?", mock.lastQuery)
}

func TestAskCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ask", "--json", "What is the minimum tread depth?"})
	defer func() {
		rootCmd.SetArgs(nil)
		askJSON = false // Reset flag
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"text\"")
	assert.Contains(t, buf.String(), "\"intents\"")
	assert.Contains(t, buf.String(), "\"RULES\"")
	assert.Contains(t, buf.String(), "\"citations\"")
	assert.Contains(t, buf.String(), "\"degraded\": false")
}

func TestAskCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	chatService = &mockChatServiceError{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ask", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ask failed")
}

func TestOutputAnswerText_DegradedNotice(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	outputAnswerText(rootCmd, &domain.Answer{
		Text:     "Partial answer.",
		Degraded: true,
	})

	assert.Contains(t, buf.String(), "Partial answer.")
	assert.Contains(t, buf.String(), "may be incomplete")
}

func TestOutputAnswerText_NoCitations(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	outputAnswerText(rootCmd, &domain.Answer{Text: "Hello!"})

	assert.Contains(t, buf.String(), "Hello!")
	assert.NotContains(t, buf.String(), "Sources:")
}

func TestOutputAnswerJSON_CitationWithoutLocator(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputAnswerJSON(rootCmd, &domain.Answer{
		Text: "From live data.",
		Citations: []domain.Citation{
			{Kind: domain.SourceLiveData, Label: "Live Parts & Schedule Data"},
		},
		Classification: domain.Classification{
			Intents: []domain.ScoredIntent{
				{Label: domain.IntentDynamicData, Confidence: 0.8},
			},
		},
	})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"source\": \"Live Parts \\u0026 Schedule Data\"")
	assert.NotContains(t, buf.String(), "locator")
}
