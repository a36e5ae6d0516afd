package state

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/event"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func TestFlushDeliversInQueueOrder(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	_, err := st.Register(ctx, conn, nil, rec.lifecycle("a"), nil, nil)
	assert.NilError(t, err)

	for i := 1; i <= 3; i++ {
		st.Queue(ctx, lifecycle(vm1, i))
	}
	assert.Check(t, is.Equal(st.Pending(), 3))
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{
		"a:vm1:started:1",
		"a:vm1:started:2",
		"a:vm1:started:3",
	}))
	assert.Check(t, is.Equal(st.Pending(), 0))
}

func TestFlushDeliversInRegistrationOrder(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	for _, name := range []string{"a", "b", "c"} {
		_, err := st.Register(ctx, conn, nil, rec.lifecycle(name), nil, nil)
		assert.NilError(t, err)
	}
	st.Queue(ctx, lifecycle(vm1, 0))
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{
		"a:vm1:started:0",
		"b:vm1:started:0",
		"c:vm1:started:0",
	}))
}

func TestEachMatchingCallbackCalledOncePerEvent(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	_, err := st.Register(ctx, conn, nil, rec.lifecycle("all"), nil, nil)
	assert.NilError(t, err)
	filter := vm2
	_, err = st.Register(ctx, conn, &filter, rec.lifecycle("vm2only"), nil, nil)
	assert.NilError(t, err)
	_, err = st.Register(ctx, conn, nil, RebootFunc(func(context.Context, Conn, Object, interface{}) {
		rec.add("reboot")
	}), nil, nil)
	assert.NilError(t, err)

	st.Queue(ctx, lifecycle(vm1, 0))
	st.Queue(ctx, lifecycle(vm2, 1))
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{
		"all:vm1:started:0",
		"all:vm2:started:1",
		"vm2only:vm2:started:1",
	}))
}

func TestDeregisterDuringDispatch(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	var (
		mu    sync.Mutex
		freed []string
	)
	free := func(opaque interface{}) {
		mu.Lock()
		freed = append(freed, opaque.(string))
		mu.Unlock()
	}
	freedCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(freed)
	}

	var idA, idB int
	a := LifecycleFunc(func(ctx context.Context, conn Conn, obj Object, _ event.LifecycleType, detail int, opaque interface{}) {
		rec.add("a")
		if detail != 0 {
			return
		}
		remaining, err := st.Deregister(ctx, conn, idB)
		assert.Check(t, err)
		assert.Check(t, is.Equal(remaining, 1))
		_, err = st.Deregister(ctx, conn, idA)
		assert.Check(t, err)
		// flagged only, nothing freed while the cycle runs
		assert.Check(t, is.Equal(freedCount(), 0))
		_, err = st.Deregister(ctx, conn, idB)
		assert.Check(t, errdefs.IsNotFound(err))
	})

	var err error
	idA, err = st.Register(ctx, conn, nil, a, "a", free)
	assert.NilError(t, err)
	idB, err = st.Register(ctx, conn, nil, rec.lifecycle("b"), "b", free)
	assert.NilError(t, err)

	st.Queue(ctx, lifecycle(vm1, 0))
	st.Queue(ctx, lifecycle(vm1, 1))
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{"a"}))
	mu.Lock()
	assert.Check(t, is.DeepEqual(freed, []string{"a", "b"}))
	mu.Unlock()
	assert.Check(t, is.Equal(st.Count(), 0))
	assert.Check(t, is.Equal(st.Phase(), PhaseIdle))
}

func TestSelfDeregisterDuringCycle(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	var (
		mu    sync.Mutex
		frees int
	)
	free := func(interface{}) {
		mu.Lock()
		frees++
		mu.Unlock()
	}
	freeCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return frees
	}

	var id1 int
	first := LifecycleFunc(func(ctx context.Context, conn Conn, obj Object, typ event.LifecycleType, detail int, opaque interface{}) {
		rec.add(fmt.Sprintf("first:%d", detail))
		_, err := st.Deregister(ctx, conn, id1)
		assert.Check(t, err)
		assert.Check(t, is.Equal(freeCount(), 0))
	})

	var err error
	id1, err = st.Register(ctx, conn, nil, first, "first", free)
	assert.NilError(t, err)
	_, err = st.Register(ctx, conn, nil, LifecycleFunc(func(_ context.Context, _ Conn, _ Object, _ event.LifecycleType, detail int, _ interface{}) {
		rec.add(fmt.Sprintf("second:%d", detail))
	}), nil, nil)
	assert.NilError(t, err)

	for detail := 1; detail <= 3; detail++ {
		st.Queue(ctx, lifecycle(vm1, detail))
	}
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{"first:1", "second:1", "second:2", "second:3"}))
	assert.Check(t, is.Equal(freeCount(), 1))
	assert.Check(t, is.Equal(st.Count(), 1))
	assert.Check(t, is.Equal(st.Phase(), PhaseArmed))
}

func TestRegisterDuringDispatchWaitsForNextEvent(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	var once sync.Once
	a := LifecycleFunc(func(ctx context.Context, conn Conn, _ Object, _ event.LifecycleType, _ int, _ interface{}) {
		rec.add("a")
		once.Do(func() {
			_, err := st.Register(ctx, conn, nil, rec.lifecycle("late"), nil, nil)
			assert.Check(t, err)
		})
	})
	_, err := st.Register(ctx, conn, nil, a, nil, nil)
	assert.NilError(t, err)

	st.Queue(ctx, lifecycle(vm1, 0))
	st.Queue(ctx, lifecycle(vm1, 1))
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{"a", "a", "late:vm1:started:1"}))
}

func TestIdleDiscardsQueuedEvents(t *testing.T) {
	ctx := context.Background()
	st, sched := newTestState()
	conn := &testConn{uri: "test:///default"}
	tr := &liveTracker{}
	freed := 0

	id, err := st.Register(ctx, conn, nil, (&recorder{}).lifecycle("a"), nil, func(interface{}) { freed++ })
	assert.NilError(t, err)
	assert.Check(t, is.Equal(st.Phase(), PhaseArmed))

	for i := 0; i < 5; i++ {
		st.Queue(ctx, lifecycle(vm1, i, event.WithTracker(tr)))
	}
	assert.Check(t, tr.outstanding() > 0)

	remaining, err := st.Deregister(ctx, conn, id)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(remaining, 0))
	assert.Check(t, is.Equal(freed, 1))

	assert.Check(t, is.Equal(tr.outstanding(), 0))
	assert.Check(t, is.Equal(st.Pending(), 0))
	assert.Check(t, is.Equal(st.Phase(), PhaseIdle))
	_, _, cancels := sched.counts()
	assert.Check(t, is.Equal(cancels, 1))
}

func TestQueueWhileIdleDropsEvent(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	tr := &liveTracker{}

	st.Queue(ctx, lifecycle(vm1, 0, event.WithTracker(tr)))
	assert.Check(t, is.Equal(tr.outstanding(), 0))
	assert.Check(t, is.Equal(st.Pending(), 0))
}

func TestQueueKicksOnFirstEvent(t *testing.T) {
	ctx := context.Background()
	st, sched := newTestState()
	conn := &testConn{uri: "test:///default"}

	_, err := st.Register(ctx, conn, nil, (&recorder{}).lifecycle("a"), nil, nil)
	assert.NilError(t, err)

	st.Queue(ctx, lifecycle(vm1, 0))
	st.Queue(ctx, lifecycle(vm1, 1))
	armed, kicks, _ := sched.counts()
	assert.Check(t, is.Equal(armed, 1))
	assert.Check(t, is.Equal(kicks, 1))

	st.Flush(ctx)
	st.Queue(ctx, lifecycle(vm1, 2))
	_, kicks, _ = sched.counts()
	assert.Check(t, is.Equal(kicks, 2))
}

func TestSchedulerFailureRollsBackRegistration(t *testing.T) {
	ctx := context.Background()
	st, sched := newTestState()
	sched.err = errors.New("no event loop")
	conn := &testConn{uri: "test:///default"}

	id, err := st.Register(ctx, conn, nil, (&recorder{}).lifecycle("a"), nil, nil)
	assert.Check(t, errdefs.IsUnavailable(err))
	assert.Check(t, is.ErrorContains(err, "no event loop"))
	assert.Check(t, is.Equal(id, -1))
	assert.Check(t, is.Equal(st.Count(), 0))
	assert.Check(t, is.Equal(st.Phase(), PhaseIdle))

	sched.err = nil
	id, err = st.Register(ctx, conn, nil, (&recorder{}).lifecycle("a"), nil, nil)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(id, 0))
}

func TestRegisterLegacyRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	other := &testConn{uri: "test:///other"}
	rec := &recorder{}
	cb := rec.lifecycle("legacy")

	n, err := st.RegisterLegacy(ctx, conn, cb, nil, nil)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, 1))

	_, err = st.RegisterLegacy(ctx, conn, cb, nil, nil)
	assert.Check(t, errdefs.IsConflict(err))
	assert.Check(t, is.ErrorContains(err, "already tracked"))

	n, err = st.RegisterLegacy(ctx, other, cb, nil, nil)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, 1))

	n, err = st.RegisterLegacy(ctx, conn, legacyCallback, nil, nil)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, 2))

	remaining, err := st.DeregisterCallback(ctx, conn, cb)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(remaining, 2))

	_, err = st.DeregisterCallback(ctx, conn, cb)
	assert.Check(t, errdefs.IsNotFound(err))

	n, err = st.RegisterLegacy(ctx, conn, cb, nil, nil)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(n, 2))
}

func legacyCallback(context.Context, Conn, Object, event.LifecycleType, int, interface{}) {}

// rogueCallback claims reboot events without being a RebootFunc.
type rogueCallback struct{}

func (rogueCallback) EventID() event.ID { return event.IDReboot }

func TestMismatchedCallbackShapeIsSkipped(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}

	_, err := st.Register(ctx, conn, nil, rogueCallback{}, nil, nil)
	assert.NilError(t, err)
	_, err = st.Register(ctx, conn, nil, RebootFunc(func(_ context.Context, _ Conn, obj Object, _ interface{}) {
		rec.add("reboot:" + obj.Meta().Name)
	}), nil, nil)
	assert.NilError(t, err)

	ev, err := event.NewReboot(vm1)
	assert.NilError(t, err)
	st.Queue(ctx, ev)
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{"reboot:vm1"}))
}

func TestEventWithoutDispatcherIsSkipped(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	rec := &recorder{}
	tr := &liveTracker{}

	_, err := st.Register(ctx, conn, nil, RebootFunc(func(context.Context, Conn, Object, interface{}) {
		rec.add("reboot")
	}), nil, nil)
	assert.NilError(t, err)
	_, err = st.Register(ctx, conn, nil, rec.lifecycle("lifecycle"), nil, nil)
	assert.NilError(t, err)

	// a kind accepted at registration but with no typed dispatcher
	reboot := dispatchers[event.IDReboot]
	delete(dispatchers, event.IDReboot)
	defer func() { dispatchers[event.IDReboot] = reboot }()

	ev, err := event.NewReboot(vm1, event.WithTracker(tr))
	assert.NilError(t, err)
	st.Queue(ctx, ev)
	st.Queue(ctx, lifecycle(vm1, 4, event.WithTracker(tr)))
	st.Flush(ctx)

	assert.Check(t, is.DeepEqual(rec.get(), []string{"lifecycle:vm1:started:4"}))
	assert.Check(t, is.Equal(tr.outstanding(), 0))
	assert.Check(t, is.Equal(st.Count(), 2))
}

type unknownCallback struct{}

func (unknownCallback) EventID() event.ID { return event.MakeID(event.NamespaceDomain, 99) }

func TestRegisterRejectsUnknownEventID(t *testing.T) {
	st, _ := newTestState()
	_, err := st.Register(context.Background(), &testConn{}, nil, unknownCallback{}, nil, nil)
	assert.Check(t, errdefs.IsInvalidInput(err))

	_, err = st.Register(context.Background(), nil, nil, rogueCallback{}, nil, nil)
	assert.Check(t, errdefs.IsInvalidInput(err))
}

func TestEventIDQuery(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}

	id, err := st.Register(ctx, conn, nil, NetworkLifecycleFunc(func(context.Context, Conn, Object, event.NetworkLifecycleType, interface{}) {}), nil, nil)
	assert.NilError(t, err)

	got, err := st.EventID(conn, id)
	assert.NilError(t, err)
	assert.Check(t, is.Equal(got, event.IDNetworkLifecycle))

	_, err = st.EventID(&testConn{uri: "test:///default"}, id)
	assert.Check(t, errdefs.IsNotFound(err))

	_, err = st.Deregister(ctx, conn, id)
	assert.NilError(t, err)
	_, err = st.EventID(conn, id)
	assert.Check(t, errdefs.IsNotFound(err))
}

func TestCallbackIDsAreNotReused(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	cb := (&recorder{}).lifecycle("a")

	first, err := st.Register(ctx, conn, nil, cb, nil, nil)
	assert.NilError(t, err)
	_, err = st.Deregister(ctx, conn, first)
	assert.NilError(t, err)
	second, err := st.Register(ctx, conn, nil, cb, nil, nil)
	assert.NilError(t, err)
	assert.Check(t, second > first)
}

func TestResolverFailureSkipsDelivery(t *testing.T) {
	ctx := context.Background()
	gone := &testConn{uri: "test:///gone"}
	st, _ := newTestState(WithResolver(ResolverFunc(func(ctx context.Context, conn Conn, ns event.Namespace, meta event.Meta) (Object, error) {
		if conn == gone {
			return nil, errdefs.NotFoundf("no domain with matching uuid '%s'", meta.UUID)
		}
		return SnapshotResolver{}.Resolve(ctx, conn, ns, meta)
	})))
	rec := &recorder{}

	_, err := st.Register(ctx, gone, nil, rec.lifecycle("gone"), nil, nil)
	assert.NilError(t, err)
	_, err = st.Register(ctx, &testConn{uri: "test:///default"}, nil, rec.lifecycle("ok"), nil, nil)
	assert.NilError(t, err)

	st.Queue(ctx, lifecycle(vm1, 0))
	st.Flush(ctx)
	assert.Check(t, is.DeepEqual(rec.get(), []string{"ok:vm1:started:0"}))
}

func TestGraphicsCallbackGetsCopies(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	tr := &liveTracker{}

	var got *event.GraphicsAddress
	_, err := st.Register(ctx, conn, nil, GraphicsFunc(func(_ context.Context, _ Conn, _ Object, phase event.GraphicsPhase, local, remote *event.GraphicsAddress, scheme string, subject []event.GraphicsSubjectIdentity, _ interface{}) {
		assert.Check(t, is.Equal(phase, event.GraphicsDisconnect))
		assert.Check(t, is.Equal(scheme, "vnc"))
		assert.Check(t, is.Len(subject, 1))
		local.Node = "scribbled"
		got = remote
	}), nil, nil)
	assert.NilError(t, err)

	ev, err := event.NewGraphics(vm1, event.GraphicsDisconnect,
		&event.GraphicsAddress{Family: event.GraphicsIPv4, Node: "127.0.0.1", Service: "5900"},
		&event.GraphicsAddress{Family: event.GraphicsIPv4, Node: "10.1.1.1", Service: "50000"},
		"vnc", []event.GraphicsSubjectIdentity{{Type: "saslUsername", Name: "fred"}},
		event.WithTracker(tr))
	assert.NilError(t, err)

	held := ev.Ref()
	st.Queue(ctx, ev)
	st.Flush(ctx)

	assert.Check(t, is.Equal(held.Payload().(event.Graphics).Local.Node, "127.0.0.1"))
	assert.Check(t, is.Equal(got.Node, "10.1.1.1"))
	held.Unref()
	assert.Check(t, is.Equal(tr.outstanding(), 0))
}

func TestCloseRejectsRegistration(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}
	freed := 0

	_, err := st.Register(ctx, conn, nil, (&recorder{}).lifecycle("a"), nil, func(interface{}) { freed++ })
	assert.NilError(t, err)
	st.Queue(ctx, lifecycle(vm1, 0))

	st.Close(ctx)
	assert.Check(t, is.Equal(freed, 1))
	assert.Check(t, is.Equal(st.Count(), 0))
	assert.Check(t, is.Equal(st.Pending(), 0))
	assert.Check(t, is.Equal(st.Phase(), PhaseIdle))

	_, err = st.Register(ctx, conn, nil, (&recorder{}).lifecycle("a"), nil, nil)
	assert.Check(t, errdefs.IsUnavailable(err))
}

func TestConcurrentProducers(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestState()
	conn := &testConn{uri: "test:///default"}

	var (
		mu    sync.Mutex
		calls int
	)
	_, err := st.Register(ctx, conn, nil, BalloonChangeFunc(func(context.Context, Conn, Object, uint64, interface{}) {
		mu.Lock()
		calls++
		mu.Unlock()
	}), nil, nil)
	assert.NilError(t, err)

	const producers, perProducer = 8, 50
	group, gctx := errgroup.WithContext(ctx)
	for p := 0; p < producers; p++ {
		group.Go(func() error {
			for i := 0; i < perProducer; i++ {
				ev, err := event.NewBalloonChange(vm1, uint64(i))
				if err != nil {
					return err
				}
				st.Queue(gctx, ev)
				if i%10 == 0 {
					st.Flush(gctx)
				}
			}
			return nil
		})
	}
	assert.NilError(t, group.Wait())
	assert.NilError(t, st.Drain(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Check(t, is.Equal(calls, producers*perProducer))
}

func TestWaitPhase(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	st, _ := newTestState()

	assert.NilError(t, st.WaitPhase(ctx, PhaseIdle))

	done := make(chan error, 1)
	go func() { done <- st.WaitPhase(ctx, PhaseArmed) }()
	_, err := st.Register(ctx, &testConn{}, nil, rogueCallback{}, nil, nil)
	assert.NilError(t, err)
	assert.NilError(t, <-done)

	short, cancelShort := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancelShort()
	assert.Check(t, is.Equal(st.WaitPhase(short, PhaseDispatching), context.DeadlineExceeded))
}
