package app

import (
	"context"
	"sync"
)

// sessionLocks hands out one lock per session id. Entries are dropped once
// no caller holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

// sessionLock is a one-slot semaphore so waiters can give up on ctx.
type sessionLock struct {
	slot chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock blocks until the caller owns sessionID or ctx is done, and returns the
// release func. On ctx expiry nothing is held and ctx.Err() is returned.
func (l *sessionLocks) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sessionLock{slot: make(chan struct{}, 1)}
		l.locks[sessionID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(sessionID, lock)
		return nil, ctx.Err()
	}

	return func() {
		<-lock.slot
		l.unref(sessionID, lock)
	}, nil
}

func (l *sessionLocks) unref(sessionID string, lock *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, sessionID)
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
