package state

import (
	"context"

	"github.com/cbosdo/libvirt/event"
)

// Conn is a client connection owning callbacks. Connections are compared
// with ==, so implementations must be comparable, typically pointers.
type Conn interface {
	URI() string
}

// Object is the handle on the object an event is about, as handed to
// subscribers.
type Object interface {
	Namespace() event.Namespace
	Meta() event.Meta
}

// Resolver turns the meta snapshot of an event into an object handle for a
// given connection.
type Resolver interface {
	Resolve(ctx context.Context, conn Conn, ns event.Namespace, meta event.Meta) (Object, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, conn Conn, ns event.Namespace, meta event.Meta) (Object, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, conn Conn, ns event.Namespace, meta event.Meta) (Object, error) {
	return f(ctx, conn, ns, meta)
}

// Snapshot is an Object made from nothing but the event meta.
type Snapshot struct {
	NS   event.Namespace
	Info event.Meta
}

func (s Snapshot) Namespace() event.Namespace { return s.NS }
func (s Snapshot) Meta() event.Meta           { return s.Info }

// SnapshotResolver resolves every event to a Snapshot of its meta. It is the
// default when no Resolver is configured.
type SnapshotResolver struct{}

// Resolve implements Resolver.
func (SnapshotResolver) Resolve(_ context.Context, _ Conn, ns event.Namespace, meta event.Meta) (Object, error) {
	return Snapshot{NS: ns, Info: meta}, nil
}
