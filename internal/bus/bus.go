// Package bus provides a small synchronous publish/subscribe primitive.
package bus

import (
	"maps"
	"slices"
	"sync"
)

// Bus fans a value out to every subscriber. Subscribers are called on the
// publisher's goroutine, outside the bus lock, so a subscriber may publish
// or unsubscribe without deadlocking.
type Bus[T any] struct {
	mu   sync.Mutex
	next int
	subs map[int]func(T)
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(T))
	}
	id := b.next
	b.next++
	b.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers v to a snapshot of the current subscribers in
// subscription order.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	ids := slices.Sorted(maps.Keys(b.subs))
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len reports the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
