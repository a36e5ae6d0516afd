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

package event

import (
	"fmt"

	"github.com/cbosdo/libvirt/errdefs"
	"go.uber.org/atomic"
)

// Event is an immutable, reference counted notification about one object.
//
// New returns an event holding one reference. Every holder calls Unref once
// when done; the last Unref disposes of the event. Calling any method on a
// disposed event panics.
type Event struct {
	refs     atomic.Int32
	disposed atomic.Bool

	id      ID
	meta    Meta
	payload Payload
	tracker Tracker
}

// New builds an event of kind id about the object described by meta.
//
// All owned data in meta and payload is copied. The payload must belong to
// id, otherwise an InvalidInput error is returned and nothing is retained.
func New(id ID, meta Meta, payload Payload, opts ...Option) (*Event, error) {
	if payload == nil {
		return nil, errdefs.InvalidInputf("missing payload for %s event", id)
	}
	if payload.EventID() != id {
		return nil, errdefs.InvalidInputf("%T payload does not belong to %s events", payload, id)
	}
	if meta.Name == "" {
		return nil, errdefs.InvalidInputf("missing object name for %s event", id)
	}

	e := &Event{id: id, tracker: nopTracker{}}
	for _, o := range opts {
		o(e)
	}

	a := &acquirer{t: e.tracker}
	e.meta = Meta{ID: meta.ID, Name: a.str("meta.name", meta.Name), UUID: meta.UUID}

	p, err := copyPayload(a, payload)
	if err != nil {
		a.rollback()
		return nil, err
	}
	e.payload = p
	e.refs.Store(1)
	return e, nil
}

func copyPayload(a *acquirer, p Payload) (Payload, error) {
	switch p := p.(type) {
	case Lifecycle, Reboot, RTCChange, Watchdog, ControlError, PMWakeup,
		PMSuspend, PMSuspendDisk, BalloonChange, NetworkLifecycle:
		return p, nil
	case IOError:
		return IOError{
			SrcPath:  a.str("ioError.srcPath", p.SrcPath),
			DevAlias: a.str("ioError.devAlias", p.DevAlias),
			Action:   p.Action,
		}, nil
	case IOErrorReason:
		return IOErrorReason{
			SrcPath:  a.str("ioError.srcPath", p.SrcPath),
			DevAlias: a.str("ioError.devAlias", p.DevAlias),
			Action:   p.Action,
			Reason:   a.str("ioError.reason", p.Reason),
		}, nil
	case Graphics:
		return copyGraphics(a, p)
	case BlockJob:
		return BlockJob{Path: a.str("blockJob.path", p.Path), Type: p.Type, Status: p.Status}, nil
	case DiskChange:
		return DiskChange{
			OldSrcPath: a.str("diskChange.oldSrcPath", p.OldSrcPath),
			NewSrcPath: a.str("diskChange.newSrcPath", p.NewSrcPath),
			DevAlias:   a.str("diskChange.devAlias", p.DevAlias),
			Reason:     p.Reason,
		}, nil
	case TrayChange:
		return TrayChange{DevAlias: a.str("trayChange.devAlias", p.DevAlias), Reason: p.Reason}, nil
	case DeviceRemoved:
		return DeviceRemoved{DevAlias: a.str("deviceRemoved.devAlias", p.DevAlias)}, nil
	default:
		return nil, errdefs.InvalidInputf("unsupported payload %T", p)
	}
}

func copyGraphics(a *acquirer, g Graphics) (Payload, error) {
	out := Graphics{Phase: g.Phase}

	var err error
	if out.Local, err = copyGraphicsAddress(a, "graphics.local", g.Local); err != nil {
		return nil, err
	}
	if out.Remote, err = copyGraphicsAddress(a, "graphics.remote", g.Remote); err != nil {
		return nil, err
	}
	out.AuthScheme = a.str("graphics.authScheme", g.AuthScheme)

	if g.Subject != nil {
		a.mark("graphics.subject")
		out.Subject = make([]GraphicsSubjectIdentity, 0, len(g.Subject))
		for i, id := range g.Subject {
			if id.Type == "" {
				return nil, errdefs.InvalidInputf("graphics subject identity %d has no type", i)
			}
			out.Subject = append(out.Subject, GraphicsSubjectIdentity{
				Type: a.str(subjectField(i, "type"), id.Type),
				Name: a.str(subjectField(i, "name"), id.Name),
			})
		}
	}
	return out, nil
}

func copyGraphicsAddress(a *acquirer, field string, addr *GraphicsAddress) (*GraphicsAddress, error) {
	if addr == nil {
		return nil, nil
	}
	if !addr.Family.valid() {
		return nil, errdefs.InvalidInputf("invalid %s address family %d", field, addr.Family)
	}
	a.mark(field)
	return &GraphicsAddress{
		Family:  addr.Family,
		Node:    a.str(field+".node", addr.Node),
		Service: a.str(field+".service", addr.Service),
	}, nil
}

func releaseGraphicsAddress(t Tracker, field string, addr *GraphicsAddress) {
	if addr == nil {
		return
	}
	t.Release(field)
	t.Release(field + ".node")
	t.Release(field + ".service")
}

func subjectField(i int, name string) string {
	return fmt.Sprintf("graphics.subject[%d].%s", i, name)
}

func (e *Event) live() {
	if e.disposed.Load() {
		panic(fmt.Sprintf("event: use of disposed %s event", e.id))
	}
}

// ID returns the kind of the event.
func (e *Event) ID() ID {
	e.live()
	return e.id
}

// Meta returns the identity of the object the event is about.
func (e *Event) Meta() Meta {
	e.live()
	return e.meta
}

// Payload returns the kind-specific data. It is shared with every holder of
// the event and must not be modified; use Graphics.Clone to hand a graphics
// payload to code that may keep it.
func (e *Event) Payload() Payload {
	e.live()
	return e.payload
}

// Ref adds a holder and returns e.
func (e *Event) Ref() *Event {
	if e.refs.Inc() <= 1 {
		panic(fmt.Sprintf("event: Ref of disposed %s event", e.id))
	}
	return e
}

// Unref drops a holder. The last one disposes of the event.
func (e *Event) Unref() {
	switch n := e.refs.Dec(); {
	case n == 0:
		e.dispose()
	case n < 0:
		panic(fmt.Sprintf("event: Unref of disposed %s event", e.id))
	}
}

func (e *Event) dispose() {
	if !e.disposed.CompareAndSwap(false, true) {
		return
	}

	t := e.tracker
	switch p := e.payload.(type) {
	case IOError:
		t.Release("ioError.srcPath")
		t.Release("ioError.devAlias")
	case IOErrorReason:
		t.Release("ioError.srcPath")
		t.Release("ioError.devAlias")
		t.Release("ioError.reason")
	case Graphics:
		releaseGraphicsAddress(t, "graphics.local", p.Local)
		releaseGraphicsAddress(t, "graphics.remote", p.Remote)
		t.Release("graphics.authScheme")
		if p.Subject != nil {
			for i := range p.Subject {
				t.Release(subjectField(i, "type"))
				t.Release(subjectField(i, "name"))
			}
			t.Release("graphics.subject")
		}
	case BlockJob:
		t.Release("blockJob.path")
	case DiskChange:
		t.Release("diskChange.oldSrcPath")
		t.Release("diskChange.newSrcPath")
		t.Release("diskChange.devAlias")
	case TrayChange:
		t.Release("trayChange.devAlias")
	case DeviceRemoved:
		t.Release("deviceRemoved.devAlias")
	}
	t.Release("meta.name")

	e.payload = nil
	e.meta = Meta{}
}
