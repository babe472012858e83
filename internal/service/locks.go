package service

import (
	"sync"

	"github.com/google/uuid"
)

// learnerLocks serializes event application per learner within this process.
// Entries are reference counted and removed once the last holder releases, so
// the map does not grow with the learner population.
//
// Cross-process races are handled separately by optimistic versioning in the
// store; this lock only keeps a single instance from burning version
// conflicts against itself.
type learnerLocks struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newLearnerLocks() *learnerLocks {
	return &learnerLocks{entries: make(map[uuid.UUID]*lockEntry)}
}

// acquire blocks until the learner's lock is held and returns the release
// function. The release function must be called exactly once.
func (l *learnerLocks) acquire(learnerID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.entries[learnerID]
	if !ok {
		entry = &lockEntry{}
		l.entries[learnerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, learnerID)
		}
		l.mu.Unlock()
	}
}
