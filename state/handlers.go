package state

import (
	"context"

	"github.com/cbosdo/libvirt/event"
)

// Callback is a subscriber function. Its type decides which event kind it
// receives: a LifecycleFunc only ever gets domain lifecycle events.
type Callback interface {
	EventID() event.ID
}

// Callback shapes, one per event kind. Every shape gets the connection it
// was registered on, the resolved object and the opaque value given at
// registration.
type (
	LifecycleFunc        func(ctx context.Context, conn Conn, obj Object, typ event.LifecycleType, detail int, opaque interface{})
	RebootFunc           func(ctx context.Context, conn Conn, obj Object, opaque interface{})
	RTCChangeFunc        func(ctx context.Context, conn Conn, obj Object, offset int64, opaque interface{})
	WatchdogFunc         func(ctx context.Context, conn Conn, obj Object, action event.WatchdogAction, opaque interface{})
	IOErrorFunc          func(ctx context.Context, conn Conn, obj Object, srcPath, devAlias string, action event.IOErrorAction, opaque interface{})
	IOErrorReasonFunc    func(ctx context.Context, conn Conn, obj Object, srcPath, devAlias string, action event.IOErrorAction, reason string, opaque interface{})
	GraphicsFunc         func(ctx context.Context, conn Conn, obj Object, phase event.GraphicsPhase, local, remote *event.GraphicsAddress, authScheme string, subject []event.GraphicsSubjectIdentity, opaque interface{})
	ControlErrorFunc     func(ctx context.Context, conn Conn, obj Object, opaque interface{})
	BlockJobFunc         func(ctx context.Context, conn Conn, obj Object, path string, typ event.BlockJobType, status event.BlockJobStatus, opaque interface{})
	DiskChangeFunc       func(ctx context.Context, conn Conn, obj Object, oldSrcPath, newSrcPath, devAlias string, reason event.DiskChangeReason, opaque interface{})
	TrayChangeFunc       func(ctx context.Context, conn Conn, obj Object, devAlias string, reason event.TrayChangeReason, opaque interface{})
	PMWakeupFunc         func(ctx context.Context, conn Conn, obj Object, opaque interface{})
	PMSuspendFunc        func(ctx context.Context, conn Conn, obj Object, opaque interface{})
	PMSuspendDiskFunc    func(ctx context.Context, conn Conn, obj Object, opaque interface{})
	BalloonChangeFunc    func(ctx context.Context, conn Conn, obj Object, actualKiB uint64, opaque interface{})
	DeviceRemovedFunc    func(ctx context.Context, conn Conn, obj Object, devAlias string, opaque interface{})
	NetworkLifecycleFunc func(ctx context.Context, conn Conn, obj Object, typ event.NetworkLifecycleType, opaque interface{})
)

func (LifecycleFunc) EventID() event.ID        { return event.IDLifecycle }
func (RebootFunc) EventID() event.ID           { return event.IDReboot }
func (RTCChangeFunc) EventID() event.ID        { return event.IDRTCChange }
func (WatchdogFunc) EventID() event.ID         { return event.IDWatchdog }
func (IOErrorFunc) EventID() event.ID          { return event.IDIOError }
func (IOErrorReasonFunc) EventID() event.ID    { return event.IDIOErrorReason }
func (GraphicsFunc) EventID() event.ID         { return event.IDGraphics }
func (ControlErrorFunc) EventID() event.ID     { return event.IDControlError }
func (BlockJobFunc) EventID() event.ID         { return event.IDBlockJob }
func (DiskChangeFunc) EventID() event.ID       { return event.IDDiskChange }
func (TrayChangeFunc) EventID() event.ID       { return event.IDTrayChange }
func (PMWakeupFunc) EventID() event.ID         { return event.IDPMWakeup }
func (PMSuspendFunc) EventID() event.ID        { return event.IDPMSuspend }
func (PMSuspendDiskFunc) EventID() event.ID    { return event.IDPMSuspendDisk }
func (BalloonChangeFunc) EventID() event.ID    { return event.IDBalloonChange }
func (DeviceRemovedFunc) EventID() event.ID    { return event.IDDeviceRemoved }
func (NetworkLifecycleFunc) EventID() event.ID { return event.IDNetworkLifecycle }

// dispatchFunc makes the typed call for one event kind. It reports false
// when the callback or payload does not have the shape of that kind.
type dispatchFunc func(ctx context.Context, conn Conn, obj Object, p event.Payload, cb Callback, opaque interface{}) bool

func typed[F Callback, P event.Payload](call func(context.Context, Conn, Object, F, P, interface{})) dispatchFunc {
	return func(ctx context.Context, conn Conn, obj Object, p event.Payload, cb Callback, opaque interface{}) bool {
		f, ok := cb.(F)
		if !ok {
			return false
		}
		payload, ok := p.(P)
		if !ok {
			return false
		}
		call(ctx, conn, obj, f, payload, opaque)
		return true
	}
}

var dispatchers = map[event.ID]dispatchFunc{
	event.IDLifecycle: typed(func(ctx context.Context, conn Conn, obj Object, f LifecycleFunc, p event.Lifecycle, opaque interface{}) {
		f(ctx, conn, obj, p.Type, p.Detail, opaque)
	}),
	event.IDReboot: typed(func(ctx context.Context, conn Conn, obj Object, f RebootFunc, _ event.Reboot, opaque interface{}) {
		f(ctx, conn, obj, opaque)
	}),
	event.IDRTCChange: typed(func(ctx context.Context, conn Conn, obj Object, f RTCChangeFunc, p event.RTCChange, opaque interface{}) {
		f(ctx, conn, obj, p.Offset, opaque)
	}),
	event.IDWatchdog: typed(func(ctx context.Context, conn Conn, obj Object, f WatchdogFunc, p event.Watchdog, opaque interface{}) {
		f(ctx, conn, obj, p.Action, opaque)
	}),
	event.IDIOError: typed(func(ctx context.Context, conn Conn, obj Object, f IOErrorFunc, p event.IOError, opaque interface{}) {
		f(ctx, conn, obj, p.SrcPath, p.DevAlias, p.Action, opaque)
	}),
	event.IDIOErrorReason: typed(func(ctx context.Context, conn Conn, obj Object, f IOErrorReasonFunc, p event.IOErrorReason, opaque interface{}) {
		f(ctx, conn, obj, p.SrcPath, p.DevAlias, p.Action, p.Reason, opaque)
	}),
	event.IDGraphics: typed(func(ctx context.Context, conn Conn, obj Object, f GraphicsFunc, p event.Graphics, opaque interface{}) {
		// subscribers get their own copy
		g := p.Clone()
		f(ctx, conn, obj, g.Phase, g.Local, g.Remote, g.AuthScheme, g.Subject, opaque)
	}),
	event.IDControlError: typed(func(ctx context.Context, conn Conn, obj Object, f ControlErrorFunc, _ event.ControlError, opaque interface{}) {
		f(ctx, conn, obj, opaque)
	}),
	event.IDBlockJob: typed(func(ctx context.Context, conn Conn, obj Object, f BlockJobFunc, p event.BlockJob, opaque interface{}) {
		f(ctx, conn, obj, p.Path, p.Type, p.Status, opaque)
	}),
	event.IDDiskChange: typed(func(ctx context.Context, conn Conn, obj Object, f DiskChangeFunc, p event.DiskChange, opaque interface{}) {
		f(ctx, conn, obj, p.OldSrcPath, p.NewSrcPath, p.DevAlias, p.Reason, opaque)
	}),
	event.IDTrayChange: typed(func(ctx context.Context, conn Conn, obj Object, f TrayChangeFunc, p event.TrayChange, opaque interface{}) {
		f(ctx, conn, obj, p.DevAlias, p.Reason, opaque)
	}),
	event.IDPMWakeup: typed(func(ctx context.Context, conn Conn, obj Object, f PMWakeupFunc, _ event.PMWakeup, opaque interface{}) {
		f(ctx, conn, obj, opaque)
	}),
	event.IDPMSuspend: typed(func(ctx context.Context, conn Conn, obj Object, f PMSuspendFunc, _ event.PMSuspend, opaque interface{}) {
		f(ctx, conn, obj, opaque)
	}),
	event.IDPMSuspendDisk: typed(func(ctx context.Context, conn Conn, obj Object, f PMSuspendDiskFunc, _ event.PMSuspendDisk, opaque interface{}) {
		f(ctx, conn, obj, opaque)
	}),
	event.IDBalloonChange: typed(func(ctx context.Context, conn Conn, obj Object, f BalloonChangeFunc, p event.BalloonChange, opaque interface{}) {
		f(ctx, conn, obj, p.Actual, opaque)
	}),
	event.IDDeviceRemoved: typed(func(ctx context.Context, conn Conn, obj Object, f DeviceRemovedFunc, p event.DeviceRemoved, opaque interface{}) {
		f(ctx, conn, obj, p.DevAlias, opaque)
	}),
	event.IDNetworkLifecycle: typed(func(ctx context.Context, conn Conn, obj Object, f NetworkLifecycleFunc, p event.NetworkLifecycle, opaque interface{}) {
		f(ctx, conn, obj, p.Type, opaque)
	}),
}
