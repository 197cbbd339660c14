package services

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex hands out one mutex per key and drops the entry once the last
// holder releases it, so the table is bounded by concurrency rather than by
// the number of keys ever seen.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*keyedMutexEntry
}

type keyedMutexEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: make(map[uuid.UUID]*keyedMutexEntry)}
}

// Lock blocks until the key's mutex is held and returns its release func.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &keyedMutexEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

// size reports the live entry count.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
