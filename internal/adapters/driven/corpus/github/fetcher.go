// Package github fetches the published rulebook from a GitHub
// repository into the local corpus directory.
//
// Series that maintain their rulebook as markdown in a repo point
// `corpus sync` at it; the fetcher walks the repository tree, pulls the
// rulebook files under the configured path, and mirrors them locally
// where the directory searcher indexes them.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/pitwall/internal/logger"
)

const (
	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// proactiveRate throttles API calls to stay well inside GitHub's
	// unauthenticated budget of 60 requests per hour burst allowance
	// for short syncs.
	proactiveRate = 1.2

	// maxFileSize skips blobs too large to be rulebook text.
	maxFileSize = 1024 * 1024
)

// Config identifies the repository subtree holding the rulebook.
type Config struct {
	// Owner is the repository owner (required).
	Owner string

	// Repo is the repository name (required).
	Repo string

	// Ref is the branch, tag, or commit to sync from. Empty means the
	// repository's default branch.
	Ref string

	// Path is the subtree holding the rulebook. Empty means the
	// repository root.
	Path string

	// Token authenticates the sync. Optional for public repositories,
	// required for private ones.
	Token string
}

// Fetcher mirrors rulebook files from GitHub to a local directory.
type Fetcher struct {
	gh      *gh.Client
	limiter *rate.Limiter
	cfg     Config
}

// SyncResult summarises one rulebook sync.
type SyncResult struct {
	// Ref is the branch or commit the files came from.
	Ref string

	// Files is how many rulebook files were written.
	Files int

	// Bytes is the total content size written.
	Bytes int64
}

// NewFetcher creates a fetcher for the configured repository.
func NewFetcher(ctx context.Context, cfg Config) (*Fetcher, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}

	httpClient := &http.Client{Timeout: DefaultTimeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = DefaultTimeout
	}

	return &Fetcher{
		gh:      gh.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Limit(proactiveRate), 1),
		cfg:     cfg,
	}, nil
}

// Source returns the owner/repo this fetcher reads from, for display.
func (f *Fetcher) Source() string {
	return f.cfg.Owner + "/" + f.cfg.Repo
}

// Sync walks the repository tree and writes every rulebook file under
// the configured path into destDir, preserving the subtree layout.
// A blob that cannot be fetched aborts the sync; a half-synced rulebook
// with silently missing sections is worse than a failed sync.
func (f *Fetcher) Sync(ctx context.Context, destDir string) (*SyncResult, error) {
	ref := f.cfg.Ref
	if ref == "" {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		repo, _, err := f.gh.Repositories.Get(ctx, f.cfg.Owner, f.cfg.Repo)
		if err != nil {
			return nil, fmt.Errorf("get repository: %w", err)
		}
		ref = repo.GetDefaultBranch()
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	tree, _, err := f.gh.Git.GetTree(ctx, f.cfg.Owner, f.cfg.Repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree for %s: %w", ref, err)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("create corpus directory: %w", err)
	}

	result := &SyncResult{Ref: ref}
	for _, entry := range tree.Entries {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if entry.GetType() != "blob" {
			continue
		}
		rel, ok := underPath(entry.GetPath(), f.cfg.Path)
		if !ok || !rulebookFile(rel) || !fs.ValidPath(rel) {
			continue
		}
		if entry.GetSize() > maxFileSize {
			logger.Warn("Skipping oversized rulebook file %s (%d bytes)",
				entry.GetPath(), entry.GetSize())
			continue
		}

		content, err := f.fetchBlob(ctx, entry.GetSHA())
		if err != nil {
			return result, fmt.Errorf("fetch %s: %w", entry.GetPath(), err)
		}

		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return result, fmt.Errorf("create directory for %s: %w", rel, err)
		}
		if err := os.WriteFile(dest, content, 0644); err != nil {
			return result, fmt.Errorf("write %s: %w", rel, err)
		}

		result.Files++
		result.Bytes += int64(len(content))
		logger.Debug("Synced %s (%d bytes)", rel, len(content))
	}

	return result, nil
}

// Ping verifies the repository is reachable with the configured
// credentials.
func (f *Fetcher) Ping(ctx context.Context) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, _, err := f.gh.Repositories.Get(ctx, f.cfg.Owner, f.cfg.Repo); err != nil {
		return fmt.Errorf("github: %w", err)
	}
	return nil
}

// fetchBlob fetches one blob and decodes its content.
func (f *Fetcher) fetchBlob(ctx context.Context, sha string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	blob, _, err := f.gh.Git.GetBlob(ctx, f.cfg.Owner, f.cfg.Repo, sha)
	if err != nil {
		return nil, err
	}

	if blob.GetEncoding() == "base64" {
		content := strings.ReplaceAll(blob.GetContent(), "\n", "")
		return base64.StdEncoding.DecodeString(content)
	}
	return []byte(blob.GetContent()), nil
}

// underPath maps a repository path onto its corpus-relative path,
// reporting whether it falls under the configured subtree.
func underPath(entryPath, prefix string) (string, bool) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return entryPath, true
	}
	if entryPath == prefix {
		return path.Base(entryPath), true
	}
	if strings.HasPrefix(entryPath, prefix+"/") {
		return strings.TrimPrefix(entryPath, prefix+"/"), true
	}
	return "", false
}

// rulebookFile reports whether a repository path looks like rulebook
// content worth mirroring.
func rulebookFile(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown", ".txt":
		return true
	default:
		return false
	}
}
