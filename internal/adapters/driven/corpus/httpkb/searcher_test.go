package httpkb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pitwall/internal/core/domain"
)

func TestNewSearcher(t *testing.T) {
	t.Run("requires a base URL", func(t *testing.T) {
		searcher, err := NewSearcher(Config{})

		require.Error(t, err)
		assert.Nil(t, searcher)
		assert.Contains(t, err.Error(), "base URL is required")
	})

	t.Run("trims trailing slash from base URL", func(t *testing.T) {
		searcher, err := NewSearcher(Config{BaseURL: "http://kb.example.com/"})

		require.NoError(t, err)
		assert.Equal(t, "http://kb.example.com", searcher.baseURL)
	})
}

func TestSearcher_Search(t *testing.T) {
	t.Run("maps ranked results to retrieved items", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req searchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "minimum tread depth", req.Query)
			assert.Equal(t, 6, req.TopK)

			fmt.Fprint(w, `{"results": [
				{"title": "4.2 Tire Tread Depth", "text": "Minimum tread depth is 3mm.", "reference": "rules/4.2", "score": 0.93},
				{"title": "4.1 Minimum Weight", "text": "Cars must weigh 1200 kg.", "reference": "rules/4.1", "score": 0.41}
			]}`)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		items, err := searcher.Search(context.Background(), "minimum tread depth", 6)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, domain.SourceStaticCorpus, items[0].Kind)
		assert.Equal(t, "4.2 Tire Tread Depth", items[0].Title)
		assert.Equal(t, "Minimum tread depth is 3mm.", items[0].Content)
		assert.Equal(t, "rules/4.2", items[0].Reference)
		assert.InDelta(t, 0.93, items[0].Score, 1e-9)
		assert.Equal(t, "rules/4.1", items[1].Reference)
	})

	t.Run("sends bearer token when configured", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer kb-secret", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"results": []}`)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL, APIKey: "kb-secret"})
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), "tread depth", 3)

		require.NoError(t, err)
	})

	t.Run("omits authorization header without a key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"results": []}`)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), "tread depth", 3)

		require.NoError(t, err)
	})

	t.Run("empty result set is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results": []}`)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		items, err := searcher.Search(context.Background(), "gearbox oil", 3)

		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("blank query short-circuits without a request", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		items, err := searcher.Search(context.Background(), "   ", 3)

		require.NoError(t, err)
		assert.Empty(t, items)
		assert.False(t, called)
	})

	t.Run("error status surfaces with the body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "index rebuilding", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		items, err := searcher.Search(context.Background(), "tread depth", 3)

		require.Error(t, err)
		assert.Nil(t, items)
		assert.Contains(t, err.Error(), "status 503")
		assert.Contains(t, err.Error(), "index rebuilding")
	})

	t.Run("malformed response body fails decoding", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "not json at all")
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		_, err = searcher.Search(context.Background(), "tread depth", 3)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode response")
	})

	t.Run("cancelled context aborts the call", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results": []}`)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = searcher.Search(ctx, "tread depth", 3)

		require.Error(t, err)
	})
}

func TestSearcher_Ping(t *testing.T) {
	t.Run("succeeds on healthy service", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/health", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		assert.NoError(t, searcher.Ping(context.Background()))
	})

	t.Run("fails on unhealthy status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = searcher.Ping(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 503")
	})

	t.Run("fails when the service is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		searcher, err := NewSearcher(Config{BaseURL: server.URL})
		require.NoError(t, err)

		err = searcher.Ping(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ping failed")
	})
}
