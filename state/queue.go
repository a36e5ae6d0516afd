package state

import (
	"context"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/event"
	"github.com/cbosdo/libvirt/log"
	"github.com/cbosdo/libvirt/trace"
	"github.com/gammazero/deque"
)

// Queue hands ev over for delivery. The caller's reference is taken over by
// the State. Queue never blocks on subscribers; when the State is idle the
// event is dropped.
func (s *State) Queue(ctx context.Context, ev *event.Event) {
	id := ev.ID()

	s.mu.Lock()
	if s.wake == nil || s.closed {
		s.mu.Unlock()
		log.G(ctx).WithField("eventID", id.String()).Debug("No event callbacks registered, dropping event")
		record(ctx, id, mDiscarded)
		ev.Unref()
		return
	}

	s.queue.PushBack(ev)
	if s.queue.Len() == 1 {
		s.wake.Kick()
	}
	s.mu.Unlock()

	record(ctx, id, mQueued)
}

// Flush runs one dispatch cycle: every event queued so far is delivered to
// every matching callback and released. If a cycle is already running,
// Flush returns right away and the events wait for the next one.
func (s *State) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.dispatching || s.queue.Len() == 0 {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	pending := s.queue
	s.queue = deque.New[*event.Event]()
	s.phase.Set(PhaseDispatching)
	s.mu.Unlock()

	ctx, span := trace.StartSpan(ctx, "state.Flush")
	defer span.End()
	ctx = span.WithField(ctx, "events", pending.Len())

	for pending.Len() > 0 {
		ev := pending.PopFront()
		s.dispatch(ctx, ev)
		ev.Unref()
	}

	s.mu.Lock()
	s.dispatching = false
	freed := s.compactLocked()
	n := s.liveLocked()
	dropped := s.goIdleLocked()
	if s.wake != nil {
		s.phase.Set(PhaseArmed)
		if s.queue.Len() > 0 {
			s.wake.Kick()
		}
	}
	s.mu.Unlock()

	s.release(ctx, freed, dropped)
	if len(freed) > 0 {
		log.G(ctx).WithField("removed", len(freed)).Debug("Purged deregistered event callbacks")
		recordCallbacks(ctx, n)
	}
	span.SetStatus(nil)
}

// dispatch delivers ev to the callbacks registered before its delivery
// started.
func (s *State) dispatch(ctx context.Context, ev *event.Event) {
	id := ev.ID()
	meta := ev.Meta()

	ctx, span := trace.StartSpan(ctx, "state.dispatch")
	defer span.End()
	ctx = span.WithFields(ctx, log.Fields{
		"eventID": id.String(),
		"uuid":    meta.UUID.String(),
	})

	s.mu.Lock()
	count := len(s.callbacks)
	s.mu.Unlock()

	var err error
	for i := 0; i < count; i++ {
		s.mu.Lock()
		cb := s.callbacks[i]
		match := cb.matches(id, meta)
		s.mu.Unlock()
		if !match {
			continue
		}

		if e := s.deliver(ctx, cb, id, meta, ev.Payload()); e != nil {
			err = e
			record(ctx, id, mSkipped)
			continue
		}
		record(ctx, id, mDelivered)
	}
	span.SetStatus(err)
}

func (s *State) deliver(ctx context.Context, cb *callback, id event.ID, meta event.Meta, p event.Payload) error {
	logger := log.G(ctx).WithField("callbackID", cb.id)

	call, ok := dispatchers[id]
	if !ok {
		err := errdefs.Unsupportedf("unexpected event ID %d", int(id))
		logger.WithError(err).Warn("Skipping event delivery")
		return err
	}

	obj, err := s.resolver.Resolve(ctx, cb.conn, id.Namespace(), meta)
	if err != nil {
		logger.WithError(err).Warn("Could not resolve event object, skipping delivery")
		return err
	}

	if !call(ctx, cb.conn, obj, p, cb.cb, cb.opaque) {
		err := errdefs.Unsupportedf("callback %T cannot receive %s events", cb.cb, id)
		logger.WithError(err).Warn("Skipping event delivery")
		return err
	}
	return nil
}

// Drain runs dispatch cycles until the queue is empty and no cycle is
// running, or ctx is done.
func (s *State) Drain(ctx context.Context) error {
	for {
		s.Flush(ctx)

		s.mu.Lock()
		busy := s.dispatching
		empty := s.queue.Len() == 0
		sub := s.phase.Subscribe()
		sub.Value()
		s.mu.Unlock()

		if !busy {
			if empty {
				return nil
			}
			continue
		}

		// another cycle is running, wait for it to end
		select {
		case <-sub.NewValueReady():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
