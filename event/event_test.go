package event

import (
	"sync"
	"testing"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/google/uuid"
	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

var testMeta = Meta{
	ID:   1,
	Name: "vm1",
	UUID: uuid.MustParse("77a6fc12-07b5-9415-8abb-a803613f2a40"),
}

// countingTracker records live owned fields.
type countingTracker struct {
	mu       sync.Mutex
	live     map[string]int
	acquired int
	released int
}

func newCountingTracker() *countingTracker {
	return &countingTracker{live: make(map[string]int)}
}

func (c *countingTracker) Acquire(field string) {
	c.mu.Lock()
	c.live[field]++
	c.acquired++
	c.mu.Unlock()
}

func (c *countingTracker) Release(field string) {
	c.mu.Lock()
	c.live[field]--
	if c.live[field] == 0 {
		delete(c.live, field)
	}
	c.released++
	c.mu.Unlock()
}

func (c *countingTracker) outstanding() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.live))
	for k, v := range c.live {
		out[k] = v
	}
	return out
}

func TestIDEncoding(t *testing.T) {
	assert.Check(t, is.Equal(MakeID(NamespaceDomain, 15), IDDeviceRemoved))
	assert.Check(t, is.Equal(int(IDNetworkLifecycle), 256))
	assert.Check(t, is.Equal(IDNetworkLifecycle.Namespace(), NamespaceNetwork))
	assert.Check(t, is.Equal(IDNetworkLifecycle.Kind(), Kind(0)))
	assert.Check(t, is.Equal(IDBlockJob.Kind(), Kind(8)))
	assert.Check(t, is.Equal(IDBlockJob.Namespace(), NamespaceDomain))
}

func TestIDNames(t *testing.T) {
	assert.Check(t, is.Equal(IDLifecycle.String(), "domain.lifecycle"))
	assert.Check(t, is.Equal(IDNetworkLifecycle.String(), "network.lifecycle"))
	assert.Check(t, is.Equal(MakeID(NamespaceDomain, 200).String(), "domain.200"))
	assert.Check(t, !MakeID(NamespaceDomain, 200).Known())

	ids := KnownIDs()
	assert.Check(t, is.Len(ids, 17))
	for _, id := range ids {
		parsed, err := ParseID(id.String())
		assert.NilError(t, err)
		assert.Check(t, is.Equal(parsed, id))
	}

	_, err := ParseID("domain.teleport")
	assert.Check(t, errdefs.IsInvalidInput(err))
}

func TestEnumText(t *testing.T) {
	var typ LifecycleType
	assert.NilError(t, typ.UnmarshalText([]byte("Crashed")))
	assert.Check(t, is.Equal(typ, LifecycleCrashed))
	assert.Check(t, is.Equal(typ.String(), "crashed"))

	var action WatchdogAction
	assert.NilError(t, action.UnmarshalText([]byte("6")))
	assert.Check(t, is.Equal(action, WatchdogInjectNMI))

	var reason TrayChangeReason
	assert.Check(t, errdefs.IsInvalidInput(reason.UnmarshalText([]byte("ajar"))))
	assert.Check(t, is.Equal(BlockJobStatus(42).String(), "42"))
}

func TestNewRejectsMismatchedPayload(t *testing.T) {
	tr := newCountingTracker()
	ev, err := New(IDReboot, testMeta, Lifecycle{}, WithTracker(tr))
	assert.Check(t, errdefs.IsInvalidInput(err))
	assert.Check(t, ev == nil)
	assert.Check(t, is.Equal(tr.acquired, 0))

	_, err = New(IDReboot, testMeta, nil)
	assert.Check(t, errdefs.IsInvalidInput(err))

	_, err = NewReboot(Meta{UUID: testMeta.UUID})
	assert.Check(t, errdefs.IsInvalidInput(err))
}

func TestNewCopiesOwnedData(t *testing.T) {
	local := &GraphicsAddress{Family: GraphicsIPv4, Node: "127.0.0.1", Service: "5900"}
	remote := &GraphicsAddress{Family: GraphicsIPv6, Node: "::1", Service: "49152"}
	subject := []GraphicsSubjectIdentity{{Type: "x509dname", Name: "CN=client"}}

	ev, err := NewGraphics(testMeta, GraphicsConnect, local, remote, "vnc", subject)
	assert.NilError(t, err)
	defer ev.Unref()

	local.Node = "10.0.0.1"
	subject[0].Name = "CN=mallory"

	g := ev.Payload().(Graphics)
	assert.Check(t, is.Equal(g.Local.Node, "127.0.0.1"))
	assert.Check(t, is.Equal(g.Subject[0].Name, "CN=client"))

	c := g.Clone()
	c.Remote.Node = "changed"
	c.Subject[0].Type = "changed"
	g = ev.Payload().(Graphics)
	assert.Check(t, is.Equal(g.Remote.Node, "::1"))
	assert.Check(t, is.Equal(g.Subject[0].Type, "x509dname"))
}

func TestGraphicsDisposalReleasesEverything(t *testing.T) {
	tr := newCountingTracker()
	ev, err := NewGraphics(testMeta, GraphicsInitialize,
		&GraphicsAddress{Family: GraphicsIPv4, Node: "127.0.0.1", Service: "5900"},
		&GraphicsAddress{Family: GraphicsIPv4, Node: "192.168.1.20", Service: "41234"},
		"vnc",
		[]GraphicsSubjectIdentity{{Type: "x509dname", Name: "CN=a"}, {Type: "saslUsername", Name: "fred"}},
		WithTracker(tr))
	assert.NilError(t, err)

	// name, 2 addresses of 3 fields, auth scheme, subject list, 2x2 identities
	assert.Check(t, is.Equal(tr.acquired, 1+6+1+1+4))

	ev.Ref()
	ev.Unref()
	assert.Check(t, is.Equal(tr.released, 0))

	ev.Unref()
	assert.Check(t, is.Equal(tr.released, tr.acquired))
	assert.Check(t, is.Len(tr.outstanding(), 0))
}

func TestGraphicsOptionalAddresses(t *testing.T) {
	tr := newCountingTracker()
	ev, err := NewGraphics(testMeta, GraphicsConnect,
		&GraphicsAddress{Family: GraphicsIPv4, Node: "127.0.0.1", Service: "5900"},
		nil, "vnc", nil, WithTracker(tr))
	assert.NilError(t, err)

	// name, local address of 3 fields, auth scheme
	assert.Check(t, is.Equal(tr.acquired, 1+3+1))
	g := ev.Payload().(Graphics)
	assert.Check(t, g.Remote == nil)
	assert.Check(t, is.Equal(g.Local.Node, "127.0.0.1"))

	ev.Unref()
	assert.Check(t, is.Equal(tr.released, tr.acquired))
	assert.Check(t, is.Len(tr.outstanding(), 0))

	tr = newCountingTracker()
	ev, err = NewGraphics(testMeta, GraphicsDisconnect, nil, nil, "", nil, WithTracker(tr))
	assert.NilError(t, err)
	g = ev.Payload().(Graphics)
	assert.Check(t, g.Local == nil && g.Remote == nil)
	assert.Check(t, g.Clone().Local == nil)
	ev.Unref()
	assert.Check(t, is.Equal(tr.released, tr.acquired))
	assert.Check(t, is.Len(tr.outstanding(), 0))
}

func TestDisposalPerKind(t *testing.T) {
	type ctor func(...Option) (*Event, error)
	for name, newEvent := range map[string]ctor{
		"lifecycle": func(o ...Option) (*Event, error) { return NewLifecycle(testMeta, LifecycleStarted, 0, o...) },
		"ioError":   func(o ...Option) (*Event, error) { return NewIOError(testMeta, "/dev/sda", "virtio-disk0", IOErrorPause, o...) },
		"ioErrorReason": func(o ...Option) (*Event, error) {
			return NewIOErrorReason(testMeta, "/dev/sda", "virtio-disk0", IOErrorReport, "enospc", o...)
		},
		"blockJob": func(o ...Option) (*Event, error) { return NewBlockJob(testMeta, "/img", BlockJobPull, BlockJobCompleted, o...) },
		"diskChange": func(o ...Option) (*Event, error) {
			return NewDiskChange(testMeta, "/old.iso", "", "ide0-1-0", DiskChangeMissingOnStart, o...)
		},
		"trayChange":    func(o ...Option) (*Event, error) { return NewTrayChange(testMeta, "ide0-1-0", TrayOpen, o...) },
		"deviceRemoved": func(o ...Option) (*Event, error) { return NewDeviceRemoved(testMeta, "net0", o...) },
		"balloon":       func(o ...Option) (*Event, error) { return NewBalloonChange(testMeta, 1048576, o...) },
		"network":       func(o ...Option) (*Event, error) { return NewNetworkLifecycle(testMeta, NetworkStarted, o...) },
	} {
		t.Run(name, func(t *testing.T) {
			tr := newCountingTracker()
			ev, err := newEvent(WithTracker(tr))
			assert.NilError(t, err)
			assert.Check(t, tr.acquired > 0)
			ev.Unref()
			assert.Check(t, is.Len(tr.outstanding(), 0))
			assert.Check(t, is.Equal(tr.released, tr.acquired))
		})
	}
}

func TestConstructionFailureReleasesAcquiredFields(t *testing.T) {
	tr := newCountingTracker()
	ev, err := NewGraphics(testMeta, GraphicsConnect,
		&GraphicsAddress{Family: GraphicsIPv4, Node: "127.0.0.1", Service: "5900"},
		&GraphicsAddress{Family: GraphicsAddressFamily(9)},
		"vnc", nil, WithTracker(tr))
	assert.Check(t, errdefs.IsInvalidInput(err))
	assert.Check(t, ev == nil)
	assert.Check(t, tr.acquired > 0)
	assert.Check(t, is.Equal(tr.released, tr.acquired))
	assert.Check(t, is.Len(tr.outstanding(), 0))

	tr = newCountingTracker()
	_, err = NewGraphics(testMeta, GraphicsConnect,
		&GraphicsAddress{Family: GraphicsUnix, Node: "/run/vnc.sock"},
		&GraphicsAddress{Family: GraphicsUnix, Node: "/run/vnc.sock"},
		"none", []GraphicsSubjectIdentity{{Type: "x509dname", Name: "CN=a"}, {Name: "anonymous"}},
		WithTracker(tr))
	assert.Check(t, errdefs.IsInvalidInput(err))
	assert.Check(t, is.Len(tr.outstanding(), 0))
}

func TestUseAfterDisposePanics(t *testing.T) {
	ev, err := NewReboot(testMeta)
	assert.NilError(t, err)
	ev.Unref()

	assert.Check(t, panics(func() { ev.Payload() }))
	assert.Check(t, panics(func() { ev.Unref() }))
}

func TestConcurrentUnrefDisposesOnce(t *testing.T) {
	tr := newCountingTracker()
	ev, err := NewDeviceRemoved(testMeta, "net0", WithTracker(tr))
	assert.NilError(t, err)

	const holders = 16
	for i := 1; i < holders; i++ {
		ev.Ref()
	}

	var wg sync.WaitGroup
	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ev.Unref()
		}()
	}
	wg.Wait()

	assert.Check(t, is.Equal(tr.released, tr.acquired))
}

func panics(f func()) (did bool) {
	defer func() {
		if recover() != nil {
			did = true
		}
	}()
	f()
	return false
}
