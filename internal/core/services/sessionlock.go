package services

import "sync"

// sessionLocks hands out per-key mutual exclusion so turns on the same
// session serialize while different sessions proceed in parallel.
// Entries are reference-counted and removed once no request holds or
// waits on them, so the arena stays bounded by in-flight sessions.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*sessionLockEntry
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

// newSessionLocks creates an empty lock arena.
func newSessionLocks() *sessionLocks {
	return &sessionLocks{
		entries: make(map[string]*sessionLockEntry),
	}
}

// acquire blocks until the key is exclusively held and returns the
// release function. Release exactly once.
func (l *sessionLocks) acquire(key string) func() {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &sessionLockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}
