package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbosdo/libvirt/event"
	"github.com/google/uuid"
)

type testConn struct {
	uri string
}

func (c *testConn) URI() string { return c.uri }

// manualScheduler only fires when the test calls Flush itself.
type manualScheduler struct {
	mu      sync.Mutex
	err     error
	armed   int
	kicks   int
	cancels int
	fire    func()
}

func (m *manualScheduler) Arm(fire func()) (Wake, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.armed++
	m.fire = fire
	return &manualWake{m: m}, nil
}

func (m *manualScheduler) counts() (armed, kicks, cancels int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.armed, m.kicks, m.cancels
}

type manualWake struct {
	m         *manualScheduler
	cancelled bool
}

func (w *manualWake) Kick() {
	w.m.mu.Lock()
	if !w.cancelled {
		w.m.kicks++
	}
	w.m.mu.Unlock()
}

func (w *manualWake) Cancel() {
	w.m.mu.Lock()
	if !w.cancelled {
		w.cancelled = true
		w.m.cancels++
	}
	w.m.mu.Unlock()
}

// liveTracker counts owned event fields not yet released.
type liveTracker struct {
	mu   sync.Mutex
	live int
}

func (t *liveTracker) Acquire(string) {
	t.mu.Lock()
	t.live++
	t.mu.Unlock()
}

func (t *liveTracker) Release(string) {
	t.mu.Lock()
	t.live--
	t.mu.Unlock()
}

func (t *liveTracker) outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

func newTestState(opts ...Option) (*State, *manualScheduler) {
	sched := &manualScheduler{}
	return New(append([]Option{WithScheduler(sched)}, opts...)...), sched
}

var (
	vm1 = event.Meta{ID: 1, Name: "vm1", UUID: uuid.MustParse("77a6fc12-07b5-9415-8abb-a803613f2a40")}
	vm2 = event.Meta{ID: 2, Name: "vm2", UUID: uuid.MustParse("4dea22b3-1d52-d8f3-2516-782e98ab3fa0")}
)

func lifecycle(meta event.Meta, detail int, opts ...event.Option) *event.Event {
	ev, err := event.NewLifecycle(meta, event.LifecycleStarted, detail, opts...)
	if err != nil {
		panic(err)
	}
	return ev
}

// recorder collects what callbacks see, in order.
type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func (r *recorder) lifecycle(name string) LifecycleFunc {
	return func(_ context.Context, _ Conn, obj Object, typ event.LifecycleType, detail int, _ interface{}) {
		r.add(fmt.Sprintf("%s:%s:%s:%d", name, obj.Meta().Name, typ, detail))
	}
}
