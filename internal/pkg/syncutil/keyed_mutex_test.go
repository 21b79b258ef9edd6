// internal/pkg/syncutil/keyed_mutex_test.go
package syncutil_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jaiswal09/medstock-be/internal/pkg/syncutil"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := syncutil.NewKeyedMutex()
	id := uuid.New()

	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			km.Lock(id)
			defer km.Unlock(id)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedMutex_DisjointKeysDoNotBlock(t *testing.T) {
	km := syncutil.NewKeyedMutex()
	a, b := uuid.New(), uuid.New()

	km.Lock(a)
	defer km.Unlock(a)

	done := make(chan struct{})
	go func() {
		km.Lock(b)
		km.Unlock(b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking a different key blocked")
	}
}

func TestKeyedMutex_UnlockUnheldPanics(t *testing.T) {
	km := syncutil.NewKeyedMutex()
	assert.Panics(t, func() { km.Unlock(uuid.New()) })
}

func TestKeyedMutex_LockAllOverlappingSetsNoDeadlock(t *testing.T) {
	km := syncutil.NewKeyedMutex()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	var wg sync.WaitGroup
	counter := 0

	// Opposite declaration orders of overlapping sets: canonical ordering
	// inside LockAll must prevent a deadlock.
	sets := [][]uuid.UUID{
		{a, b, c},
		{c, b, a},
		{b, a},
		{c, a},
	}

	for i := 0; i < 25; i++ {
		for _, set := range sets {
			wg.Add(1)
			go func(ids []uuid.UUID) {
				defer wg.Done()
				unlock := km.LockAll(ids)
				defer unlock()
				counter++
			}(set)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		assert.Equal(t, 100, counter)
	case <-time.After(5 * time.Second):
		t.Fatal("LockAll deadlocked")
	}
}

func TestKeyedMutex_LockAllDeduplicates(t *testing.T) {
	km := syncutil.NewKeyedMutex()
	id := uuid.New()

	// Duplicate ids must be locked once, otherwise this self-deadlocks.
	unlock := km.LockAll([]uuid.UUID{id, id, id})
	unlock()

	// Key released: a fresh Lock proceeds immediately.
	km.Lock(id)
	km.Unlock(id)
}
