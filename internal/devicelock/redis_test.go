package devicelock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLocker(t *testing.T, ttl, wait time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := OpenRedis(mr.Addr(), "", 0, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, ttl, wait), mr
}

func TestRedis_LockAndTryLock(t *testing.T) {
	l, mr := setupRedisLocker(t, 10*time.Second, 100*time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "ps-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"ps-1"))

	_, ok, err := l.TryLock(ctx, "ps-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = l.Lock(ctx, "ps-1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"ps-1"))

	u, ok, err := l.TryLock(ctx, "ps-1")
	require.NoError(t, err)
	require.True(t, ok)
	u()
}

func TestRedis_ExpiredLockIsNotReleasedByOldOwner(t *testing.T) {
	l, mr := setupRedisLocker(t, time.Second, 100*time.Millisecond)
	ctx := context.Background()

	stale, err := l.Lock(ctx, "ps-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, ok, err := l.TryLock(ctx, "ps-1")
	require.NoError(t, err)
	require.True(t, ok, "expired lock can be taken over")

	stale()
	assert.True(t, mr.Exists(keyPrefix+"ps-1"), "previous owner must not release the new holder's lock")

	fresh()
	assert.False(t, mr.Exists(keyPrefix+"ps-1"))
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedis(addr, "", 0, 200*time.Millisecond)
	assert.Error(t, err)
}
