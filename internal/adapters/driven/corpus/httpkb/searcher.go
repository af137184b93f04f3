// Package httpkb implements the corpus searcher against a hosted
// knowledge-base service over HTTP.
//
// The service owns embedding and semantic ranking; this client sends the
// query and maps the ranked passages it gets back. Deployments that run
// the rulebook through a managed search index use this adapter instead
// of the local directory searcher.
package httpkb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
)

var _ driven.CorpusSearcher = (*Searcher)(nil)

// DefaultTimeout bounds each knowledge-base call.
const DefaultTimeout = 30 * time.Second

// Config holds configuration for the knowledge-base client.
type Config struct {
	// BaseURL is the root of the knowledge-base API (required).
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Searcher queries a hosted knowledge base for rulebook passages.
type Searcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// searchRequest is the knowledge-base API request format.
type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// searchResponse is the knowledge-base API response format.
type searchResponse struct {
	Results []struct {
		Title     string  `json:"title"`
		Text      string  `json:"text"`
		Reference string  `json:"reference"`
		Score     float64 `json:"score"`
	} `json:"results"`
}

// NewSearcher creates a new knowledge-base client.
func NewSearcher(cfg Config) (*Searcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("knowledge base: base URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Searcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}, nil
}

// Search asks the knowledge base for the passages most relevant to the
// query and maps them to retrieved items, preserving the service's
// ranking.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]domain.RetrievedItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	reqBody := searchRequest{Query: query}
	if limit > 0 {
		reqBody.TopK = limit
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/search",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge base error (status %d): %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]domain.RetrievedItem, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		items = append(items, domain.RetrievedItem{
			Kind:      domain.SourceStaticCorpus,
			Title:     r.Title,
			Content:   r.Text,
			Score:     r.Score,
			Reference: r.Reference,
		})
	}
	return items, nil
}

// Ping validates the knowledge base is reachable via its health
// endpoint.
func (s *Searcher) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("knowledge base: failed to create ping request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("knowledge base: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("knowledge base: API returned status %d", resp.StatusCode)
	}
	return nil
}
