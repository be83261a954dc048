// internal/service/locks.go
package service

import "sync"

// subtreeLocks serializes mutations per year subtree. A mutation and its
// cascade hold the lock for the (user, year) root until the cascade
// settles, so two cascades over the same subtree never interleave; a
// second mutation queues on the mutex.
type subtreeLocks struct {
	mu    sync.Mutex
	locks map[string]*subtreeLock
}

type subtreeLock struct {
	mu   sync.Mutex
	refs int
}

func newSubtreeLocks() *subtreeLocks {
	return &subtreeLocks{locks: make(map[string]*subtreeLock)}
}

// acquire locks the subtree rooted at (uid, yearID) and returns the
// release func. An empty yearID locks the user's whole year set, used
// for year-level creation where the sibling set itself is read.
// Entries are refcounted and dropped when the last holder releases, so
// deleted years do not pin map entries forever.
func (l *subtreeLocks) acquire(uid, yearID string) func() {
	key := uid + "/" + yearID
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &subtreeLock{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
