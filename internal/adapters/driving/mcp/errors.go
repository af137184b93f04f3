// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Pitwall. It lets AI assistants ask the engine questions and read
// session history and engine settings as resources.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")
