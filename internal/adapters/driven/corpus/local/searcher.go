package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/pitwall/internal/core/domain"
	"github.com/custodia-labs/pitwall/internal/core/ports/driven"
	"github.com/custodia-labs/pitwall/internal/logger"
)

// watchDebounce coalesces bursts of filesystem events into one reload.
// Editors commonly fire several events per save.
const watchDebounce = 200 * time.Millisecond

// Searcher indexes a directory of rulebook documents and serves
// relevance-ranked section lookups. Safe for concurrent use; Load and
// the watcher swap the index atomically under a lock.
type Searcher struct {
	dir string

	mu       sync.RWMutex
	sections []section
	watcher  *fsnotify.Watcher
	closed   bool
}

var _ driven.CorpusSearcher = (*Searcher)(nil)

// New creates a searcher over the given corpus directory. The index is
// empty until Load is called.
func New(dir string) *Searcher {
	return &Searcher{dir: dir}
}

// DefaultDir returns the default corpus location, ~/.pitwall/corpus.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".pitwall", "corpus"), nil
}

// Dir returns the corpus directory this searcher reads from.
func (s *Searcher) Dir() string {
	return s.dir
}

// SectionCount returns how many sections the index currently holds.
func (s *Searcher) SectionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sections)
}

// Load walks the corpus directory and rebuilds the section index.
// Hidden files and directories are skipped; unreadable files are logged
// and skipped rather than failing the whole load.
func (s *Searcher) Load() error {
	var sections []section
	files := 0

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !corpusFile(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable corpus file %s: %v", path, err)
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			rel = d.Name()
		}
		stem := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))
		sections = append(sections, parseSections(stem, data)...)
		files++
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading corpus from %s: %w", s.dir, err)
	}

	s.mu.Lock()
	s.sections = sections
	s.mu.Unlock()

	logger.Info("Indexed %d rulebook section(s) from %d file(s) under %s",
		len(sections), files, s.dir)
	return nil
}

// Search returns the corpus sections most relevant to the query, best
// first. An empty index or a query with no scoreable terms yields an
// empty result, not an error.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]domain.RetrievedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	sections := s.sections
	s.mu.RUnlock()

	type scored struct {
		index int
		score float64
	}
	var matches []scored
	for i := range sections {
		if sc := sections[i].match(tokens); sc > 0 {
			matches = append(matches, scored{index: i, score: sc})
		}
	}

	// Best first; ties keep document order.
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	items := make([]domain.RetrievedItem, 0, len(matches))
	for _, m := range matches {
		sec := &sections[m.index]
		items = append(items, domain.RetrievedItem{
			Kind:      domain.SourceStaticCorpus,
			Title:     sec.title,
			Content:   sec.content,
			Score:     m.score,
			Reference: sec.ref,
		})
	}
	return items, nil
}

// Ping reports whether the corpus is present and indexed. It fails when
// the directory is missing or no sections have been loaded, so startup
// can warn before the first question arrives.
func (s *Searcher) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("corpus path error: %w", err)
	}

	s.mu.RLock()
	count := len(s.sections)
	s.mu.RUnlock()
	if count == 0 {
		return fmt.Errorf("no rulebook sections indexed under %s", s.dir)
	}
	return nil
}

// Watch reloads the index whenever files under the corpus directory
// change. The watcher runs until ctx is cancelled or Close is called.
// Calling Watch on a searcher that is already watching is a no-op.
func (s *Searcher) Watch(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("corpus searcher is closed")
	}
	if s.watcher != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("corpus path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating corpus watcher: %w", err)
	}

	// fsnotify does not recurse, so register every subdirectory.
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.dir && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return fmt.Errorf("watching corpus directory: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		watcher.Close()
		return fmt.Errorf("corpus searcher is closed")
	}
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(ctx, watcher)
	logger.Debug("Watching corpus directory %s", s.dir)
	return nil
}

// watchLoop drains watcher events and debounces them into index
// reloads. It exits when the context is cancelled or the watcher is
// closed.
func (s *Searcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	reload := time.NewTimer(watchDebounce)
	if !reload.Stop() {
		<-reload.C
	}
	defer reload.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !s.relevantEvent(watcher, event) {
				continue
			}
			if !reload.Stop() {
				select {
				case <-reload.C:
				default:
				}
			}
			reload.Reset(watchDebounce)

		case <-reload.C:
			if err := s.Load(); err != nil {
				logger.Warn("Corpus reload failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Corpus watcher error: %v", err)
		}
	}
}

// relevantEvent filters watcher noise. Chmod-only events and hidden
// paths are ignored. Newly created directories are added to the watch
// set so files landing in them still trigger reloads.
func (s *Searcher) relevantEvent(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watcher.Add(event.Name); err != nil {
				logger.Warn("Cannot watch new corpus directory %s: %v", event.Name, err)
			}
			return true
		}
	}

	if corpusFile(base) {
		return true
	}

	// A removed or renamed path cannot be stat'ed; an extension-less
	// name was most likely a directory holding content.
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		return filepath.Ext(base) == ""
	}
	return false
}

// Close stops the directory watcher. Safe to call more than once;
// search keeps working on the last loaded index.
func (s *Searcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.watcher == nil {
		return nil
	}
	err := s.watcher.Close()
	s.watcher = nil
	return err
}
