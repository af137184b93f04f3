package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocks_SequentialReacquire(t *testing.T) {
	locks := newSessionLocks()

	release := locks.acquire("garage-1")
	release()
	release = locks.acquire("garage-1")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries, "released keys must not linger")
}

func TestSessionLocks_MutualExclusion(t *testing.T) {
	locks := newSessionLocks()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			release := locks.acquire("garage-1")
			defer release()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.entries)
}

func TestSessionLocks_IndependentKeys(t *testing.T) {
	locks := newSessionLocks()

	releaseFirst := locks.acquire("garage-1")

	// A different key must not block behind garage-1.
	acquired := make(chan struct{})
	go func() {
		release := locks.acquire("garage-2")
		close(acquired)
		release()
	}()

	<-acquired
	releaseFirst()
}
