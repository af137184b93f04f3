package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Pitwall resources.
	uriScheme = "pitwall://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for engine settings.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "settings",
		Name:        "settings",
		Description: "Current engine settings (API keys redacted)",
		MIMEType:    "application/json",
	}, s.handleSettingsResource)

	// Template for session history.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/history",
		Name:        "session-history",
		Description: "Retained turns of a conversation session, oldest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleSettingsResource returns the engine settings with secrets redacted.
func (s *Server) handleSettingsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Settings == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "{}",
			}},
		}, nil
	}

	settings, err := s.ports.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	// API keys never leave the process through a resource read.
	type settingsInfo struct {
		Provider            string  `json:"provider"`
		Model               string  `json:"model"`
		GeneratorConfigured bool    `json:"generator_configured"`
		InclusionThreshold  float64 `json:"inclusion_threshold"`
		ContinuityBoost     float64 `json:"continuity_boost"`
		RetrievalTimeout    string  `json:"retrieval_timeout"`
		MaxContextItems     int     `json:"max_context_items"`
		SessionWindow       int     `json:"session_window"`
		SessionTTL          string  `json:"session_ttl"`
	}

	info := settingsInfo{
		Provider:            settings.Generator.Provider.String(),
		Model:               settings.Generator.Model,
		GeneratorConfigured: settings.Generator.IsConfigured(),
		InclusionThreshold:  settings.Classifier.InclusionThreshold,
		ContinuityBoost:     settings.Classifier.ContinuityBoost,
		RetrievalTimeout:    settings.Retrieval.Timeout.String(),
		MaxContextItems:     settings.Retrieval.MaxContextItems,
		SessionWindow:       settings.Session.WindowSize,
		SessionTTL:          settings.Session.TTL.String(),
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling settings: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource returns the turns of a specific session.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract sessionId from URI: pitwall://sessions/{sessionId}/history
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	turns, err := s.ports.Chat.History(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}

	type turnInfo struct {
		Role    string   `json:"role"`
		Text    string   `json:"text"`
		Intents []string `json:"intents,omitempty"`
		At      string   `json:"at"`
	}

	infos := make([]turnInfo, len(turns))
	for i, turn := range turns {
		intents := make([]string, len(turn.Intents))
		for j, label := range turn.Intents {
			intents[j] = label.String()
		}
		infos[i] = turnInfo{
			Role:    string(turn.Role),
			Text:    turn.Content,
			Intents: intents,
			At:      turn.CreatedAt.Format(time.RFC3339),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like
// pitwall://sessions/{sessionId}/history.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/history"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
