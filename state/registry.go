package state

import (
	"context"
	"reflect"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/event"
	"github.com/cbosdo/libvirt/log"
	"github.com/pkg/errors"
)

type callback struct {
	id         int
	conn       Conn
	eventID    event.ID
	filter     *event.Meta
	cb         Callback
	opaque     interface{}
	freeOpaque FreeFunc
	deleted    bool
}

func (c *callback) matches(id event.ID, meta event.Meta) bool {
	if c.deleted || c.eventID != id {
		return false
	}
	return c.filter == nil || c.filter.UUID == meta.UUID
}

func (c *callback) free() {
	if c.freeOpaque != nil {
		c.freeOpaque(c.opaque)
	}
}

// funcPointer identifies the function behind a callback. Closures created
// from the same literal share it.
func funcPointer(cb Callback) uintptr {
	v := reflect.ValueOf(cb)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}

func sameFunc(a, b Callback) bool {
	pa := funcPointer(a)
	return pa != 0 && pa == funcPointer(b)
}

// Register adds cb for conn and returns its callback id. The event kind is
// the one cb is shaped for. With a filter, only events about the object
// with the filter UUID are delivered; the filter name and id are
// informational.
//
// opaque is passed to every call of cb. freeOpaque, if set, is called with
// it once the callback is deregistered, and never while cb may still run.
func (s *State) Register(ctx context.Context, conn Conn, filter *event.Meta, cb Callback, opaque interface{}, freeOpaque FreeFunc) (int, error) {
	if err := validate(conn, cb); err != nil {
		return -1, err
	}

	entry := &callback{
		conn:       conn,
		eventID:    cb.EventID(),
		cb:         cb,
		opaque:     opaque,
		freeOpaque: freeOpaque,
	}
	if filter != nil {
		f := *filter
		entry.filter = &f
	}

	s.mu.Lock()
	err := s.addLocked(entry)
	n := s.liveLocked()
	s.mu.Unlock()
	if err != nil {
		return -1, err
	}

	log.G(ctx).WithFields(log.Fields{
		"callbackID": entry.id,
		"eventID":    entry.eventID.String(),
	}).Debug("Registered event callback")
	recordCallbacks(ctx, n)
	return entry.id, nil
}

// RegisterLegacy adds an unfiltered domain lifecycle callback. Registering
// the same function twice on one connection is a Conflict. It returns the number of lifecycle
// callbacks now registered on conn.
func (s *State) RegisterLegacy(ctx context.Context, conn Conn, cb LifecycleFunc, opaque interface{}, freeOpaque FreeFunc) (int, error) {
	if cb == nil {
		return -1, errdefs.InvalidInput("missing callback")
	}
	if err := validate(conn, cb); err != nil {
		return -1, err
	}

	entry := &callback{
		conn:       conn,
		eventID:    event.IDLifecycle,
		cb:         cb,
		opaque:     opaque,
		freeOpaque: freeOpaque,
	}

	s.mu.Lock()
	for _, c := range s.callbacks {
		if !c.deleted && c.conn == conn && c.eventID == event.IDLifecycle && c.filter == nil && sameFunc(c.cb, cb) {
			s.mu.Unlock()
			return -1, errdefs.Conflict("event callback already tracked")
		}
	}
	err := s.addLocked(entry)
	count := 0
	for _, c := range s.callbacks {
		if !c.deleted && c.conn == conn && c.eventID == event.IDLifecycle {
			count++
		}
	}
	n := s.liveLocked()
	s.mu.Unlock()
	if err != nil {
		return -1, err
	}

	log.G(ctx).WithField("callbackID", entry.id).Debug("Registered legacy lifecycle callback")
	recordCallbacks(ctx, n)
	return count, nil
}

func validate(conn Conn, cb Callback) error {
	if conn == nil {
		return errdefs.InvalidInput("missing connection")
	}
	if cb == nil {
		return errdefs.InvalidInput("missing callback")
	}
	if !cb.EventID().Known() {
		return errdefs.InvalidInputf("unknown event id %d", int(cb.EventID()))
	}
	return nil
}

// addLocked appends entry, arming the scheduler if this is the first
// callback. Must hold s.mu.
func (s *State) addLocked(entry *callback) error {
	if s.closed {
		return errdefs.Unavailable("event state is closed")
	}

	s.callbacks = append(s.callbacks, entry)

	if s.wake == nil {
		w, err := s.scheduler.Arm(s.fire)
		if err != nil {
			s.callbacks = s.callbacks[:len(s.callbacks)-1]
			return errdefs.AsUnavailable(errors.Wrap(err, "could not initialize event timer"))
		}
		s.wake = w
		if !s.dispatching {
			s.phase.Set(PhaseArmed)
		}
		if s.queue.Len() > 0 {
			w.Kick()
		}
	}

	entry.id = s.nextID
	s.nextID++
	return nil
}

// Deregister removes the callback with the given id from conn and returns
// the number of callbacks still registered.
func (s *State) Deregister(ctx context.Context, conn Conn, id int) (int, error) {
	return s.remove(ctx, func(c *callback) bool {
		return c.id == id && c.conn == conn
	}, "could not find event callback %d for removal", id)
}

// DeregisterCallback removes the callback registered on conn with the same
// function as cb for the same event kind.
func (s *State) DeregisterCallback(ctx context.Context, conn Conn, cb Callback) (int, error) {
	if cb == nil {
		return -1, errdefs.InvalidInput("missing callback")
	}
	id := cb.EventID()
	return s.remove(ctx, func(c *callback) bool {
		return c.conn == conn && c.eventID == id && sameFunc(c.cb, cb)
	}, "could not find %s event callback for removal", id)
}

func (s *State) remove(ctx context.Context, match func(*callback) bool, format string, arg interface{}) (int, error) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.callbacks {
		if !c.deleted && match(c) {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return -1, errdefs.NotFoundf(format, arg)
	}

	entry := s.callbacks[idx]
	var freed []*callback
	if s.dispatching {
		entry.deleted = true
	} else {
		s.callbacks = append(s.callbacks[:idx], s.callbacks[idx+1:]...)
		freed = []*callback{entry}
	}
	remaining := s.liveLocked()
	dropped := s.goIdleLocked()
	s.mu.Unlock()

	log.G(ctx).WithFields(log.Fields{
		"callbackID": entry.id,
		"eventID":    entry.eventID.String(),
		"deferred":   freed == nil,
	}).Debug("Deregistered event callback")

	s.release(ctx, freed, dropped)
	recordCallbacks(ctx, remaining)
	return remaining, nil
}

// compactLocked drops callbacks deregistered during a dispatch cycle and
// returns them. Must hold s.mu.
func (s *State) compactLocked() []*callback {
	var removed []*callback
	kept := s.callbacks[:0]
	for _, c := range s.callbacks {
		if c.deleted {
			removed = append(removed, c)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(s.callbacks); i++ {
		s.callbacks[i] = nil
	}
	s.callbacks = kept
	return removed
}

// EventID returns the event kind the live callback id on conn listens for.
func (s *State) EventID(conn Conn, id int) (event.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.callbacks {
		if !c.deleted && c.id == id && c.conn == conn {
			return c.eventID, nil
		}
	}
	return -1, errdefs.NotFoundf("no event callback %d", id)
}

// Count returns the number of live callbacks.
func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked()
}

func (s *State) liveLocked() int {
	n := 0
	for _, c := range s.callbacks {
		if !c.deleted {
			n++
		}
	}
	return n
}
