// internal/pkg/syncutil/keyed_mutex.go
package syncutil

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex provides per-key locking. Stock mutations lock the ids of the
// items they touch so that two writers racing for the same item serialize,
// while writers on disjoint items proceed in parallel.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty lock arena.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[uuid.UUID]*entry)}
}

// Lock acquires the mutex for a single key.
func (k *KeyedMutex) Lock(id uuid.UUID) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &entry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the mutex for a single key, dropping the entry once no
// other goroutine is waiting on it.
func (k *KeyedMutex) Unlock(id uuid.UUID) {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		k.mu.Unlock()
		panic("syncutil: unlock of unheld key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// LockAll acquires the mutexes for a set of keys in a canonical order so
// that two callers locking overlapping sets cannot deadlock. Duplicate ids
// are locked once. The returned func releases everything.
func (k *KeyedMutex) LockAll(ids []uuid.UUID) (unlock func()) {
	uniq := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool {
		a, b := uniq[i], uniq[j]
		for n := 0; n < len(a); n++ {
			if a[n] != b[n] {
				return a[n] < b[n]
			}
		}
		return false
	})

	for _, id := range uniq {
		k.Lock(id)
	}
	return func() {
		// Release in reverse acquisition order.
		for i := len(uniq) - 1; i >= 0; i-- {
			k.Unlock(uniq[i])
		}
	}
}
