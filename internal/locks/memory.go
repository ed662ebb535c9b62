package locks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryLocker is a process-local Locker with the same TTL semantics as
// the redis implementation. It backs tests and single-node development.
type MemoryLocker struct {
	mu    sync.Mutex
	ttl   time.Duration
	held  map[string]time.Time // key -> expiry
	clock func() time.Time
}

func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryLocker{
		ttl:   ttl,
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiry, ok := l.held[key]; ok && now.Before(expiry) {
		return fmt.Errorf("%w: %s", ErrLockHeld, key)
	}
	l.held[key] = now.Add(l.ttl)
	return nil
}

func (l *MemoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
