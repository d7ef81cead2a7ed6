// Package lock provides domain.Locker implementations used to serialize
// mutations on the same entities.
package lock

import (
	"context"
	"slices"
	"sync"

	"groupevents/internal/domain"
)

type slot struct {
	ch   chan struct{}
	refs int
}

type localLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewLocal returns an in-process Locker keyed by entity identifier.
func NewLocal() domain.Locker {
	return &localLocker{slots: make(map[string]*slot)}
}

func (l *localLocker) acquire(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

func (l *localLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// Lock takes the keys in sorted order so that overlapping key sets cannot deadlock.
func (l *localLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = normalizeKeys(keys)
	held := make([]string, 0, len(keys))
	slots := make([]*slot, 0, len(keys))

	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-slots[i].ch
			l.release(held[i], slots[i])
		}
	}

	for _, key := range keys {
		s := l.acquire(key)
		select {
		case s.ch <- struct{}{}:
			held = append(held, key)
			slots = append(slots, s)
		case <-ctx.Done():
			l.release(key, s)
			unlock()
			return nil, ctx.Err()
		}
	}
	return unlock, nil
}

func normalizeKeys(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}
