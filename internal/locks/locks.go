// Package locks provides the distributed lock used to serialize wallet
// jobs. One lock per key; acquisition is non-blocking and callers are
// expected to retry the whole job on conflict.
package locks

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL caps how long a crashed holder can keep a key locked.
const DefaultTTL = 60 * time.Second

// ErrLockHeld is returned when the key is already locked by another
// holder. It is retryable by definition.
var ErrLockHeld = errors.New("lock already held")

// Locker serializes work on a key.
type Locker interface {
	// Acquire takes the lock or returns ErrLockHeld without blocking.
	Acquire(ctx context.Context, key string) error
	// Release frees the lock unconditionally, even when the TTL has
	// already expired it.
	Release(ctx context.Context, key string) error
}
