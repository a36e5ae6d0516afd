package run

import (
	"context"
	"sort"
	"time"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/event"
	"github.com/cbosdo/libvirt/log"
	"github.com/cbosdo/libvirt/state"
	"github.com/cenkalti/backoff/v4"
)

// watchConn is the connection the daemon's own watcher registers on.
type watchConn struct {
	uri string
}

func (c *watchConn) URI() string { return c.uri }

func objectLogger(ctx context.Context, obj state.Object, id event.ID) log.Logger {
	m := obj.Meta()
	return log.G(ctx).WithFields(log.Fields{
		"event":     id.String(),
		"namespace": obj.Namespace().String(),
		"object":    m.Name,
		"uuid":      m.UUID.String(),
	})
}

// watchCallbacks returns one logging callback per known event kind, in
// event id order.
func watchCallbacks() []state.Callback {
	cbs := []state.Callback{
		state.LifecycleFunc(func(ctx context.Context, _ state.Conn, obj state.Object, typ event.LifecycleType, detail int, _ interface{}) {
			objectLogger(ctx, obj, event.IDLifecycle).WithField("detail", detail).Infof("%s", typ)
		}),
		state.RebootFunc(func(ctx context.Context, _ state.Conn, obj state.Object, _ interface{}) {
			objectLogger(ctx, obj, event.IDReboot).Info("reboot")
		}),
		state.RTCChangeFunc(func(ctx context.Context, _ state.Conn, obj state.Object, offset int64, _ interface{}) {
			objectLogger(ctx, obj, event.IDRTCChange).Infof("rtc-change: %d", offset)
		}),
		state.WatchdogFunc(func(ctx context.Context, _ state.Conn, obj state.Object, action event.WatchdogAction, _ interface{}) {
			objectLogger(ctx, obj, event.IDWatchdog).Infof("watchdog: %s", action)
		}),
		state.IOErrorFunc(func(ctx context.Context, _ state.Conn, obj state.Object, srcPath, devAlias string, action event.IOErrorAction, _ interface{}) {
			objectLogger(ctx, obj, event.IDIOError).Infof("io-error: %s (%s) %s", srcPath, devAlias, action)
		}),
		state.IOErrorReasonFunc(func(ctx context.Context, _ state.Conn, obj state.Object, srcPath, devAlias string, action event.IOErrorAction, reason string, _ interface{}) {
			objectLogger(ctx, obj, event.IDIOErrorReason).Infof("io-error-reason: %s (%s) %s due to %s", srcPath, devAlias, action, reason)
		}),
		state.GraphicsFunc(func(ctx context.Context, _ state.Conn, obj state.Object, phase event.GraphicsPhase, local, remote *event.GraphicsAddress, authScheme string, subject []event.GraphicsSubjectIdentity, _ interface{}) {
			l := objectLogger(ctx, obj, event.IDGraphics).WithField("auth", authScheme)
			if local != nil {
				l = l.WithField("local", local.Node+":"+local.Service)
			}
			if remote != nil {
				l = l.WithField("remote", remote.Node+":"+remote.Service)
			}
			for _, id := range subject {
				l = l.WithField("identity."+id.Type, id.Name)
			}
			l.Infof("graphics: %s", phase)
		}),
		state.ControlErrorFunc(func(ctx context.Context, _ state.Conn, obj state.Object, _ interface{}) {
			objectLogger(ctx, obj, event.IDControlError).Info("control error")
		}),
		state.BlockJobFunc(func(ctx context.Context, _ state.Conn, obj state.Object, path string, typ event.BlockJobType, status event.BlockJobStatus, _ interface{}) {
			objectLogger(ctx, obj, event.IDBlockJob).Infof("block-job: %s for %s %s", typ, path, status)
		}),
		state.DiskChangeFunc(func(ctx context.Context, _ state.Conn, obj state.Object, oldSrcPath, newSrcPath, devAlias string, reason event.DiskChangeReason, _ interface{}) {
			objectLogger(ctx, obj, event.IDDiskChange).Infof("disk-change: %s old: %s new: %s reason: %s", devAlias, oldSrcPath, newSrcPath, reason)
		}),
		state.TrayChangeFunc(func(ctx context.Context, _ state.Conn, obj state.Object, devAlias string, reason event.TrayChangeReason, _ interface{}) {
			objectLogger(ctx, obj, event.IDTrayChange).Infof("tray-change: %s %s", devAlias, reason)
		}),
		state.PMWakeupFunc(func(ctx context.Context, _ state.Conn, obj state.Object, _ interface{}) {
			objectLogger(ctx, obj, event.IDPMWakeup).Info("pm-wakeup")
		}),
		state.PMSuspendFunc(func(ctx context.Context, _ state.Conn, obj state.Object, _ interface{}) {
			objectLogger(ctx, obj, event.IDPMSuspend).Info("pm-suspend")
		}),
		state.PMSuspendDiskFunc(func(ctx context.Context, _ state.Conn, obj state.Object, _ interface{}) {
			objectLogger(ctx, obj, event.IDPMSuspendDisk).Info("pm-suspend-disk")
		}),
		state.BalloonChangeFunc(func(ctx context.Context, _ state.Conn, obj state.Object, actual uint64, _ interface{}) {
			objectLogger(ctx, obj, event.IDBalloonChange).Infof("balloon-change: %d KiB", actual)
		}),
		state.DeviceRemovedFunc(func(ctx context.Context, _ state.Conn, obj state.Object, devAlias string, _ interface{}) {
			objectLogger(ctx, obj, event.IDDeviceRemoved).Infof("device-removed: %s", devAlias)
		}),
		state.NetworkLifecycleFunc(func(ctx context.Context, _ state.Conn, obj state.Object, typ event.NetworkLifecycleType, _ interface{}) {
			objectLogger(ctx, obj, event.IDNetworkLifecycle).Infof("%s", typ)
		}),
	}
	sort.Slice(cbs, func(i, j int) bool { return cbs[i].EventID() < cbs[j].EventID() })
	return cbs
}

// watch registers the logging callbacks on st and returns their ids.
func watch(ctx context.Context, st *state.State, conn state.Conn, filter *event.Meta) ([]int, error) {
	var ids []int
	for _, cb := range watchCallbacks() {
		id, err := st.Register(ctx, conn, filter, cb, nil, nil)
		if err != nil {
			for _, registered := range ids {
				st.Deregister(ctx, conn, registered) //nolint:errcheck
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// watchWithRetry calls watch until it succeeds, b gives up, or the error is
// not a temporary one. Only an unavailable scheduler is worth retrying.
func watchWithRetry(ctx context.Context, st *state.State, conn state.Conn, filter *event.Meta, b backoff.BackOff) ([]int, error) {
	var ids []int
	op := func() error {
		var err error
		ids, err = watch(ctx, st, conn, filter)
		if err != nil && (errdefs.IsInvalidInput(err) || !errdefs.IsUnavailable(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		log.G(ctx).WithError(err).WithField("retryIn", next).Warn("Could not start watching events")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return ids, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return b
}
