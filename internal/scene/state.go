// Package scene is the small observable-object layer the layout engine runs on.
//
// State[T] wraps a value and notifies bindings synchronously when it is
// replaced. Bindings run on the goroutine that called Set, in registration
// order, before Set returns.
//
// Thread Safety Rules:
//   - Get() is safe to call from any goroutine
//   - Set() must only be called from the goroutine that owns the scene
//     (the bubbletea update loop in the viewer, the caller in tests)
//
// Example usage:
//
//	children := scene.NewState([]string{"a"})
//	unbind := children.Bind(func(v []string) {
//	    fmt.Println("children now", v)
//	})
//	children.Set([]string{"a", "b"})
//	unbind()
package scene

import (
	"sync"
	"sync/atomic"
)

// bindingSeq hands out binding IDs across all State instances.
var bindingSeq atomic.Uint64

// State wraps a value and notifies bindings when it changes.
type State[T any] struct {
	mu       sync.RWMutex
	value    T
	version  uint64
	bindings []*binding[T]
}

type binding[T any] struct {
	id     uint64
	fn     func(T)
	active bool
}

// Unbind removes a binding registered with Bind.
type Unbind func()

// NewState creates a state holding initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Version counts the Set calls made so far. Two reads with the same version
// saw the same value.
func (s *State[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set replaces the value and runs every active binding.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.version++
	// Drop unbound entries while copying so they do not accumulate.
	active := make([]*binding[T], 0, len(s.bindings))
	for _, b := range s.bindings {
		if b.active {
			active = append(active, b)
		}
	}
	s.bindings = active
	s.mu.Unlock()

	for _, b := range active {
		b.fn(v)
	}
}

// Update applies fn to the current value and sets the result.
func (s *State[T]) Update(fn func(T) T) {
	s.Set(fn(s.Get()))
}

// Bind registers fn to run after every Set.
func (s *State[T]) Bind(fn func(T)) Unbind {
	b := &binding[T]{id: bindingSeq.Add(1), fn: fn, active: true}

	s.mu.Lock()
	s.bindings = append(s.bindings, b)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		b.active = false
		s.mu.Unlock()
	}
}
