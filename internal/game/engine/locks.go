package engine

import "sync"

// guildLocks serializes mutating operations per guild. The store commits each
// call atomically but actions span several read-then-write round trips, so
// without this two concurrent hexes on one target could both read stale doom.
type guildLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGuildLocks() *guildLocks {
	return &guildLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire locks the guild's mutex and returns its unlock function.
func (g *guildLocks) acquire(guildID string) func() {
	g.mu.Lock()
	lock, ok := g.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[guildID] = lock
	}
	g.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
