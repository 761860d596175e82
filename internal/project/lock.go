package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// LockFileName is the cross-process lock file inside a project directory.
const LockFileName = ".lock"

const lockRetryDelay = 100 * time.Millisecond

// Locker serializes mutating operations per project. Within a process a
// buffered channel acts as the mutex; across processes (CLI and HTTP server
// sharing a projects dir) a flock on <project>/.lock is held as well.
type Locker struct {
	store *Store

	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewLocker returns a Locker for projects in store.
func NewLocker(store *Store) *Locker {
	return &Locker{store: store, slots: make(map[string]*lockSlot)}
}

// Lock blocks until the caller holds the project, or ctx is done. The returned
// function releases both locks and must be called exactly once.
func (l *Locker) Lock(ctx context.Context, id string) (func(), error) {
	slot := l.acquireSlot(id)
	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseSlot(id, false)
		return nil, ctx.Err()
	}

	fileLock := flock.New(filepath.Join(l.store.Dir(id), LockFileName))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		l.releaseSlot(id, true)
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock project %s: %w", id, err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = fileLock.Unlock()
			l.releaseSlot(id, true)
		})
	}, nil
}

func (l *Locker) acquireSlot(id string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	return slot
}

func (l *Locker) releaseSlot(id string, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot := l.slots[id]
	if held {
		<-slot.ch
	}
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
}
