package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultSession is the session key used when a tool call names none.
// MCP hosts get their own conversation rather than sharing the web
// console's default session.
const DefaultSession = "mcp"

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query   string `json:"query" jsonschema:"the question about series rules, parts, pricing, or the race schedule"`
	Session string `json:"session,omitempty" jsonschema:"conversation key for follow-up questions (default mcp)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Text      string           `json:"text"`
	Citations []CitationOutput `json:"citations"`
	Sources   []string         `json:"sources"`
	Degraded  bool             `json:"degraded"`
}

// CitationOutput identifies one cited source.
type CitationOutput struct {
	Source  string `json:"source"`
	Locator string `json:"locator,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the series rulebook and live parts and schedule data, with citations",
	}, s.handleAsk)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	session := input.Session
	if session == "" {
		session = DefaultSession
	}

	answer, err := s.ports.Chat.Ask(ctx, session, input.Query)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Text:      answer.Text,
		Citations: make([]CitationOutput, len(answer.Citations)),
		Sources:   make([]string, len(answer.SourcesUsed)),
		Degraded:  answer.Degraded,
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			Source:  c.Label,
			Locator: c.Reference,
		}
	}
	for i, kind := range answer.SourcesUsed {
		output.Sources[i] = kind.String()
	}

	return nil, output, nil
}
