package devicelock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it still carries the caller's token,
// so an expired and re-acquired lock is never released by its previous owner.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

const (
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = 2 * time.Second
	keyPrefix            = "rental:lock:device:"
)

// Redis is a Locker shared by every service instance pointing at the same Redis.
// Locks expire after ttl so a crashed holder cannot block a device forever.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

var _ Locker = (*Redis)(nil)

func NewRedis(client *redis.Client, ttl, wait time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl, wait: wait, retry: defaultRetryInterval}
}

// OpenRedis connects to addr and verifies the connection with a ping.
func OpenRedis(addr, password string, db int, dialTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (r *Redis) acquire(ctx context.Context, key, token string) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %q: %w", key, err)
	}
	return ok, nil
}

func (r *Redis) unlockFunc(key, token string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			_ = releaseScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err()
		})
	}
}

func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	if r.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.wait)
		defer cancel()
	}

	token := uuid.NewString()
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.acquire(ctx, key, token)
		if ok {
			return r.unlockFunc(key, token), nil
		}
		if err != nil && ctx.Err() == nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLockTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Redis) TryLock(ctx context.Context, key string) (Unlock, bool, error) {
	token := uuid.NewString()
	ok, err := r.acquire(ctx, key, token)
	if err != nil || !ok {
		return nil, false, err
	}
	return r.unlockFunc(key, token), true, nil
}
