// Package mcp implements the live-data source over an MCP tool server.
//
// Operational data (parts pricing, stock, the race calendar) lives in a
// spreadsheet fronted by an MCP server exposing a lookup tool. This
// client calls that tool per query, throttled so chat traffic cannot
// hammer the backing sheet.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

var _ driven.LiveDataSource = (*Source)(nil)

// Default configuration values.
const (
	// DefaultTool is the lookup tool name.
	DefaultTool = "lookup"

	// DefaultRPS throttles tool calls per second.
	DefaultRPS = 5

	clientName    = "pitwall"
	clientVersion = "0.1.0"
)

// Config describes how to reach the live-data MCP server.
type Config struct {
	// Endpoint is the URL of a streamable HTTP MCP server.
	Endpoint string

	// Command spawns a local MCP server over stdio when no endpoint is
	// configured. Args are passed through to the process.
	Command string
	Args    []string

	// Tool is the lookup tool to call (default "lookup").
	Tool string

	// RPS caps tool calls per second (default 5).
	RPS float64
}

// transport builds the MCP transport the config describes.
func (c Config) transport() (mcp.Transport, error) {
	switch {
	case c.Endpoint != "":
		return &mcp.StreamableClientTransport{Endpoint: c.Endpoint}, nil
	case c.Command != "":
		return &mcp.CommandTransport{Command: exec.Command(c.Command, c.Args...)}, nil
	default:
		return nil, fmt.Errorf("live data: endpoint or command is required")
	}
}

// Source queries operational records through an MCP lookup tool.
type Source struct {
	session *mcp.ClientSession
	limiter *rate.Limiter
	tool    string
}

// lookupOutput is the structured shape the lookup tool returns.
type lookupOutput struct {
	Records []struct {
		Title     string  `json:"title,omitempty"`
		Record    string  `json:"record"`
		Reference string  `json:"reference,omitempty"`
		Recency   float64 `json:"recency,omitempty"`
	} `json:"records"`
}

// NewSource connects to the MCP server described by cfg.
func NewSource(ctx context.Context, cfg Config) (*Source, error) {
	transport, err := cfg.transport()
	if err != nil {
		return nil, err
	}
	return Connect(ctx, transport, cfg)
}

// Connect establishes an MCP session over the given transport. Split
// from NewSource so callers can supply their own transport.
func Connect(ctx context.Context, transport mcp.Transport, cfg Config) (*Source, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to live data server: %w", err)
	}

	tool := cfg.Tool
	if tool == "" {
		tool = DefaultTool
	}
	rps := cfg.RPS
	if rps <= 0 {
		rps = DefaultRPS
	}

	return &Source{
		session: session,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		tool:    tool,
	}, nil
}

// Query calls the lookup tool and maps its records onto retrieved
// items, preserving the server's ordering.
func (s *Source) Query(ctx context.Context, query string, limit int) ([]domain.RetrievedItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	args := map[string]any{"query": query}
	if limit > 0 {
		args["limit"] = limit
	}

	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      s.tool,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("call %q tool: %w", s.tool, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("%q tool failed: %s", s.tool, joinText(res.Content))
	}

	items, err := recordsFromResult(res)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Ping checks the MCP session is alive.
func (s *Source) Ping(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.session.Ping(ctx, nil)
}

// Close shuts down the MCP session.
func (s *Source) Close() error {
	return s.session.Close()
}

// recordsFromResult maps a tool result onto retrieved items. Structured
// content is preferred; a server that only returns text produces a
// single unreferenced item.
func recordsFromResult(res *mcp.CallToolResult) ([]domain.RetrievedItem, error) {
	if res.StructuredContent != nil {
		raw, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("re-encode structured content: %w", err)
		}
		var out lookupOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode lookup records: %w", err)
		}

		items := make([]domain.RetrievedItem, 0, len(out.Records))
		for _, rec := range out.Records {
			items = append(items, domain.RetrievedItem{
				Kind:      domain.SourceLiveData,
				Title:     rec.Title,
				Content:   rec.Record,
				Score:     rec.Recency,
				Reference: rec.Reference,
			})
		}
		return items, nil
	}

	text := joinText(res.Content)
	if text == "" {
		return nil, nil
	}
	return []domain.RetrievedItem{{
		Kind:    domain.SourceLiveData,
		Content: text,
		Score:   1,
	}}, nil
}

// joinText concatenates the text blocks of a tool result.
func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok && strings.TrimSpace(tc.Text) != "" {
			parts = append(parts, strings.TrimSpace(tc.Text))
		}
	}
	return strings.Join(parts, "\n")
}
