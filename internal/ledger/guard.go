package ledger

import "sync"

// threadGuard serializes writers per thread partition.
//
// Locks are created on first use and retained for the life of the store;
// thread counts are bounded by the member population, so no eviction is
// needed. Unrelated threads never contend.
type threadGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newThreadGuard() *threadGuard {
	return &threadGuard{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the write lock for a thread, creating it if needed.
// Callers must invoke the returned unlock function exactly once.
func (g *threadGuard) lock(threadID string) (unlock func()) {
	g.mu.Lock()
	l, ok := g.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[threadID] = l
	}
	g.mu.Unlock()

	l.Lock()
	return l.Unlock
}
