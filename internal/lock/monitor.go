// Package lock holds synchronization helpers shared by the event core.
package lock

import (
	"sync"
)

// Monitor holds a value of type T and lets any number of subscribers wait
// for it to change. Set never blocks on subscribers.
type Monitor[T any] struct {
	mu      sync.Mutex
	value   T
	version int64 // 0 means never set
	changed chan struct{}
}

// NewMonitor returns a monitor that has not been set yet.
func NewMonitor[T any]() *Monitor[T] {
	return &Monitor[T]{changed: make(chan struct{})}
}

// Set stores v and wakes every subscriber.
func (m *Monitor[T]) Set(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
	m.version++
	close(m.changed)
	m.changed = make(chan struct{})
}

// Get returns the current value and its version.
func (m *Monitor[T]) Get() Value[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Value[T]{Value: m.value, Version: m.version}
}

// Subscribe returns a subscription positioned before the current value: if
// the monitor was already set, NewValueReady is closed right away.
func (m *Monitor[T]) Subscribe() *Subscription[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := &Subscription[T]{m: m}
	if m.version > 0 {
		ch := make(chan struct{})
		close(ch)
		sub.ready = ch
	} else {
		sub.ready = m.changed
	}
	return sub
}

// Value is a snapshot of a monitor. Version is 0 when the monitor was never
// set, in which case Value is the zero T.
type Value[T any] struct {
	Value   T
	Version int64
}

// Subscription tracks what one reader has seen. It must not be shared between
// goroutines.
type Subscription[T any] struct {
	m     *Monitor[T]
	ready chan struct{}
}

// NewValueReady returns a channel closed once a value newer than the last one
// read through Value is available. Call it again after every Value.
func (s *Subscription[T]) NewValueReady() <-chan struct{} {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.ready
}

// Value reads the current value without blocking and marks it as seen.
func (s *Subscription[T]) Value() Value[T] {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.ready = s.m.changed
	return Value[T]{Value: s.m.value, Version: s.m.version}
}
