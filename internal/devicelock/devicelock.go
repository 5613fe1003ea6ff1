// Package devicelock serializes state transitions per device.
package devicelock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired within the wait limit.
var ErrLockTimeout = errors.New("device lock wait exceeded")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker grants exclusive access to a device id.
type Locker interface {
	// Lock waits until the key is free, the wait limit passes or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
	// TryLock returns ok=false immediately when the key is held.
	TryLock(ctx context.Context, key string) (Unlock, bool, error)
}
