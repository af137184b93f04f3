package mcp

import (
	"github.com/custodia-labs/pitwall/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions within sessions.
	Chat driving.ChatService

	// Settings reads engine settings for the settings resource.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Settings is optional; the settings resource degrades without it.
	return nil
}
