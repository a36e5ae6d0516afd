// Copyright © 2017 The virtual-kubelet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package state delivers queued events to registered callbacks.
//
// A State owns a callback registry and an event queue. Producers hand events
// to Queue from any goroutine; a Scheduler fires dispatch cycles (Flush)
// which deliver every queued event, in order, to every matching callback, in
// registration order. Callbacks run without any State lock held and may
// register or deregister callbacks themselves.
//
// A State without callbacks is Idle: no timer is armed and queued events are
// dropped. The first registration arms the scheduler.
package state

import (
	"context"
	"sync"

	"github.com/cbosdo/libvirt/event"
	"github.com/cbosdo/libvirt/internal/lock"
	"github.com/gammazero/deque"
	"k8s.io/utils/clock"
)

// Phase is the dispatch state of a State.
type Phase int

const (
	// PhaseIdle means no callbacks and no armed timer.
	PhaseIdle Phase = iota
	// PhaseArmed means callbacks exist and the timer is armed.
	PhaseArmed
	// PhaseDispatching means a dispatch cycle is running.
	PhaseDispatching
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseDispatching:
		return "dispatching"
	default:
		return "unknown"
	}
}

// FreeFunc releases the opaque value of a callback once the callback is
// gone for good.
type FreeFunc func(opaque interface{})

// State is the event registry, queue and dispatcher of one driver.
type State struct {
	mu          sync.Mutex
	callbacks   []*callback
	nextID      int
	queue       *deque.Deque[*event.Event]
	wake        Wake
	dispatching bool
	closed      bool

	scheduler Scheduler
	resolver  Resolver
	fireCtx   context.Context
	phase     *lock.Monitor[Phase]
}

// Option configures a State.
type Option func(*State)

// WithScheduler sets the timer used to fire dispatch cycles.
func WithScheduler(s Scheduler) Option {
	return func(st *State) {
		st.scheduler = s
	}
}

// WithResolver sets the resolver turning event metas into objects.
func WithResolver(r Resolver) Option {
	return func(st *State) {
		st.resolver = r
	}
}

// WithContext sets the context dispatch cycles fired by the scheduler run
// with. Its logger and tracer are used for every delivery.
func WithContext(ctx context.Context) Option {
	return func(st *State) {
		st.fireCtx = ctx
	}
}

// New creates an idle State. Without options it ticks every
// DefaultTickInterval on the real clock and resolves objects to snapshots.
func New(opts ...Option) *State {
	s := &State{
		queue:   deque.New[*event.Event](),
		fireCtx: context.Background(),
		phase:   lock.NewMonitor[Phase](),
	}
	for _, o := range opts {
		o(s)
	}
	if s.scheduler == nil {
		s.scheduler = NewTickerScheduler(clock.RealClock{}, DefaultTickInterval)
	}
	if s.resolver == nil {
		s.resolver = SnapshotResolver{}
	}
	s.phase.Set(PhaseIdle)
	return s
}

// Phase returns the current dispatch phase.
func (s *State) Phase() Phase {
	return s.phase.Get().Value
}

// WaitPhase blocks until the State is in phase want or ctx is done.
func (s *State) WaitPhase(ctx context.Context, want Phase) error {
	sub := s.phase.Subscribe()
	for {
		select {
		case <-sub.NewValueReady():
			if sub.Value().Value == want {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Pending returns the number of queued events not yet picked up by a
// dispatch cycle.
func (s *State) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

func (s *State) fire() {
	s.Flush(s.fireCtx)
}

// goIdleLocked disarms the timer once the registry is empty and hands back
// the queued events for release. Must hold s.mu.
func (s *State) goIdleLocked() []*event.Event {
	if len(s.callbacks) > 0 || s.wake == nil {
		return nil
	}

	s.wake.Cancel()
	s.wake = nil

	dropped := make([]*event.Event, 0, s.queue.Len())
	for s.queue.Len() > 0 {
		dropped = append(dropped, s.queue.PopFront())
	}
	s.phase.Set(PhaseIdle)
	return dropped
}

// release runs outside s.mu: it frees the opaque values of removed
// callbacks and drops undelivered events.
func (s *State) release(ctx context.Context, freed []*callback, dropped []*event.Event) {
	for _, cb := range freed {
		cb.free()
	}
	for _, ev := range dropped {
		record(ctx, ev.ID(), mDiscarded)
		ev.Unref()
	}
}

// Close deregisters every callback and drops every queued event. Later
// registrations fail with an Unavailable error.
func (s *State) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	var freed []*callback
	if s.dispatching {
		// the running cycle compacts them and goes idle
		for _, cb := range s.callbacks {
			cb.deleted = true
		}
	} else {
		freed = s.callbacks
		s.callbacks = nil
	}
	dropped := s.goIdleLocked()
	s.mu.Unlock()

	s.release(ctx, freed, dropped)
	recordCallbacks(ctx, 0)
}
