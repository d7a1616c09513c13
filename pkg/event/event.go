// Package event provides a small typed observer list.
package event

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// Event is a list of subscribers invoked in subscription order. The zero value is ready to use.
// Subscribers are called outside of the internal lock, so they may subscribe or unsubscribe
// while the event fires.
type Event[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription[T]
}

// Subscribe adds fn and returns a function removing it. The returned function is idempotent.
func (e *Event[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}

	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription[T]{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.unsubscribe(id) })
	}
}

func (e *Event[T]) unsubscribe(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, s := range e.subs {
		if s.id == id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// Fire invokes every subscriber registered at the moment of the call.
func (e *Event[T]) Fire(v T) {
	e.mu.Lock()
	subs := e.subs
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (e *Event[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.subs)
}

// Clear removes all subscribers.
func (e *Event[T]) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subs = nil
}

// SubscribeAndFire subscribes fn and immediately invokes it with current.
func SubscribeAndFire[T any](e *Event[T], current T, fn func(T)) func() {
	unsubscribe := e.Subscribe(fn)
	if fn != nil {
		fn(current)
	}
	return unsubscribe
}
