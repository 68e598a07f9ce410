// Package syncx holds small synchronization primitives.
package syncx

import (
	"context"
	"sync"
)

// KeyedMutex serializes work per key while letting distinct keys proceed
// independently. Entries are reference counted and dropped once no goroutine
// holds or waits for them. The zero value is ready to use.
type KeyedMutex[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// Lock blocks until key is free or ctx is done. The returned unlock is safe
// to call more than once.
func (m *KeyedMutex[K]) Lock(ctx context.Context, key K) (unlock func(), err error) {
	l := m.acquire(key)

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, l)
		return nil, ctx.Err()
	}
	return m.unlocker(key, l), nil
}

// TryLock acquires key only if it is free.
func (m *KeyedMutex[K]) TryLock(key K) (unlock func(), ok bool) {
	l := m.acquire(key)

	select {
	case l.sem <- struct{}{}:
		return m.unlocker(key, l), true
	default:
		m.release(key, l)
		return nil, false
	}
}

func (m *KeyedMutex[K]) acquire(key K) *keyLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks == nil {
		m.locks = make(map[K]*keyLock)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		m.locks[key] = l
	}
	l.refs++
	return l
}

func (m *KeyedMutex[K]) unlocker(key K, l *keyLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.sem
			m.release(key, l)
		})
	}
}

func (m *KeyedMutex[K]) release(key K, l *keyLock) {
	m.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}

// Len reports how many keys are currently held or awaited.
func (m *KeyedMutex[K]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
