package devicelock

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Locker. Slots are created on demand and dropped
// once no caller holds or waits for them.
type Memory struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*Memory)(nil)

// NewMemory returns a Locker whose Lock gives up after wait (no limit when wait <= 0).
func NewMemory(wait time.Duration) *Memory {
	return &Memory{slots: make(map[string]*slot), wait: wait}
}

func (m *Memory) acquireSlot(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *Memory) releaseSlot(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

func (m *Memory) unlockFunc(key string, s *slot) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			m.releaseSlot(key, s)
		})
	}
}

func (m *Memory) Lock(ctx context.Context, key string) (Unlock, error) {
	s := m.acquireSlot(key)

	var timeout <-chan time.Time
	if m.wait > 0 {
		t := time.NewTimer(m.wait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case s.ch <- struct{}{}:
		return m.unlockFunc(key, s), nil
	case <-ctx.Done():
		m.releaseSlot(key, s)
		return nil, ctx.Err()
	case <-timeout:
		m.releaseSlot(key, s)
		return nil, ErrLockTimeout
	}
}

func (m *Memory) TryLock(_ context.Context, key string) (Unlock, bool, error) {
	s := m.acquireSlot(key)
	select {
	case s.ch <- struct{}{}:
		return m.unlockFunc(key, s), true, nil
	default:
		m.releaseSlot(key, s)
		return nil, false, nil
	}
}
