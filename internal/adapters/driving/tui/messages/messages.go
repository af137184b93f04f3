// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/pitwall/internal/core/domain"
)

// AnswerReceived carries a composed answer back to the chat view.
type AnswerReceived struct {
	Answer *domain.Answer
	Err    error
}

// HistoryLoaded carries the restored turns of the session.
type HistoryLoaded struct {
	Turns []domain.Turn
	Err   error
}

// SessionCleared signals the session memory was reset.
type SessionCleared struct {
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
