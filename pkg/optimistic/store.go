// Package optimistic implements the snapshot / apply / rollback / reconcile
// pattern for caches that are mutated locally before the server confirms.
package optimistic

import (
	"context"
	"sync"

	"github.com/jinzhu/copier"
)

// Store holds a cached value of type T and applies optimistic mutations
// against it. A mutation snapshots the current value, applies a local
// transform, then runs the remote commit; on commit failure the snapshot is
// restored verbatim. The reconcile callback runs on every settle, success or
// failure, so the cache never diverges from server truth permanently.
type Store[T any] struct {
	mu    sync.RWMutex
	value T

	subMu   sync.Mutex
	subs    map[int]func(T)
	nextSub int
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// deepCopy clones v so callers can never alias the cached value.
func deepCopy[T any](v T) T {
	var out T
	_ = copier.CopyWithOption(&out, &v, copier.Option{DeepCopy: true})
	return out
}

// Get returns a deep copy of the cached value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(s.value)
}

// Set replaces the cached value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = deepCopy(v)
	snapshot := deepCopy(s.value)
	s.mu.Unlock()
	s.notify(snapshot)
}

// Mutate runs one optimistic mutation.
//
// apply transforms the cached value locally; commit performs the remote
// call; reconcile refreshes the cache from server truth. apply runs before
// commit so readers observe the optimistic state immediately. When commit
// fails the pre-mutation snapshot is restored exactly, and the commit error
// is returned after reconcile has run.
func (s *Store[T]) Mutate(ctx context.Context, apply func(T) T, commit func(context.Context) error, reconcile func(context.Context)) error {
	s.mu.Lock()
	snapshot := deepCopy(s.value)
	s.value = apply(deepCopy(s.value))
	applied := deepCopy(s.value)
	s.mu.Unlock()
	s.notify(applied)

	err := commit(ctx)
	if err != nil {
		s.mu.Lock()
		s.value = snapshot
		restored := deepCopy(s.value)
		s.mu.Unlock()
		s.notify(restored)
	}

	if reconcile != nil {
		reconcile(ctx)
	}
	return err
}

// Subscribe registers a callback invoked with a copy of the value on every
// change. The returned handle unsubscribes; calling it twice is harmless.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store[T]) notify(v T) {
	s.subMu.Lock()
	fns := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	// Callbacks run outside the lock so a subscriber may re-enter the store.
	for _, fn := range fns {
		fn(deepCopy(v))
	}
}
