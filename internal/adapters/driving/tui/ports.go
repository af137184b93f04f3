// Package tui provides an interactive terminal chat for Pitwall.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions within sessions.
	Chat driving.ChatService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(chat driving.ChatService) *Ports {
	return &Ports{Chat: chat}
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
