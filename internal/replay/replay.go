// Package replay reads scripted event sequences and feeds them to a queue.
//
// A script is a YAML document listing events in order:
//
//	events:
//	  - kind: domain.lifecycle
//	    object: {id: 1, name: vm1, uuid: 77a6fc12-07b5-9415-8abb-a803613f2a40}
//	    delay: 10ms
//	    lifecycle: {type: started, detail: 0}
//
// Each kind with data has its own block; kinds without data need none.
package replay

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/event"
	"github.com/cbosdo/libvirt/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
	"k8s.io/utils/clock"
)

// Script is a decoded event script.
type Script struct {
	Events []Step `yaml:"events"`
}

// Object identifies the object an event is about.
type Object struct {
	ID   int       `yaml:"id"`
	Name string    `yaml:"name"`
	UUID uuid.UUID `yaml:"uuid"`
}

// Step is one scripted event, queued after Delay.
type Step struct {
	KindName string        `yaml:"kind"`
	Object   Object        `yaml:"object"`
	Delay    time.Duration `yaml:"delay"`

	// Kind is parsed from KindName by Decode.
	Kind event.ID `yaml:"-"`

	Lifecycle     *Lifecycle     `yaml:"lifecycle,omitempty"`
	RTCChange     *RTCChange     `yaml:"rtcChange,omitempty"`
	Watchdog      *Watchdog      `yaml:"watchdog,omitempty"`
	IOError       *IOError       `yaml:"ioError,omitempty"`
	Graphics      *Graphics      `yaml:"graphics,omitempty"`
	BlockJob      *BlockJob      `yaml:"blockJob,omitempty"`
	DiskChange    *DiskChange    `yaml:"diskChange,omitempty"`
	TrayChange    *TrayChange    `yaml:"trayChange,omitempty"`
	BalloonChange *BalloonChange `yaml:"balloonChange,omitempty"`
	DeviceRemoved *DeviceRemoved `yaml:"deviceRemoved,omitempty"`
	Network       *Network       `yaml:"network,omitempty"`
}

type Lifecycle struct {
	Type   event.LifecycleType `yaml:"type"`
	Detail int                 `yaml:"detail"`
}

type RTCChange struct {
	Offset int64 `yaml:"offset"`
}

type Watchdog struct {
	Action event.WatchdogAction `yaml:"action"`
}

// IOError serves both io-error and io-error-reason; Reason is only used by
// the latter.
type IOError struct {
	SrcPath  string              `yaml:"srcPath"`
	DevAlias string              `yaml:"devAlias"`
	Action   event.IOErrorAction `yaml:"action"`
	Reason   string              `yaml:"reason"`
}

type GraphicsAddress struct {
	Family  event.GraphicsAddressFamily `yaml:"family"`
	Node    string                      `yaml:"node"`
	Service string                      `yaml:"service"`
}

type GraphicsIdentity struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

type Graphics struct {
	Phase      event.GraphicsPhase `yaml:"phase"`
	Local      *GraphicsAddress    `yaml:"local"`
	Remote     *GraphicsAddress    `yaml:"remote"`
	AuthScheme string              `yaml:"authScheme"`
	Subject    []GraphicsIdentity  `yaml:"subject"`
}

type BlockJob struct {
	Path   string               `yaml:"path"`
	Type   event.BlockJobType   `yaml:"type"`
	Status event.BlockJobStatus `yaml:"status"`
}

type DiskChange struct {
	OldSrcPath string                 `yaml:"oldSrcPath"`
	NewSrcPath string                 `yaml:"newSrcPath"`
	DevAlias   string                 `yaml:"devAlias"`
	Reason     event.DiskChangeReason `yaml:"reason"`
}

type TrayChange struct {
	DevAlias string                 `yaml:"devAlias"`
	Reason   event.TrayChangeReason `yaml:"reason"`
}

type BalloonChange struct {
	Actual uint64 `yaml:"actual"`
}

type DeviceRemoved struct {
	DevAlias string `yaml:"devAlias"`
}

type Network struct {
	Type event.NetworkLifecycleType `yaml:"type"`
}

// Decode reads a script from r. Unknown fields are rejected.
func Decode(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.SetStrict(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return &s, nil
		}
		return nil, errdefs.AsInvalidInput(errors.Wrap(err, "error decoding event script"))
	}
	for i := range s.Events {
		step := &s.Events[i]
		if step.KindName == "" {
			return nil, errdefs.InvalidInputf("event %d: missing kind", i)
		}
		id, err := event.ParseID(step.KindName)
		if err != nil {
			return nil, errors.Wrapf(err, "event %d", i)
		}
		step.Kind = id
	}
	return &s, nil
}

// Load reads the script at path.
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading event script %s", path)
	}
	s, err := Decode(bytes.NewReader(b))
	return s, errors.Wrap(err, path)
}

func (s *Step) missing(block string) error {
	return errdefs.InvalidInputf("%s event requires a %s block", s.Kind, block)
}

// Event builds the event described by the step.
func (s *Step) Event(opts ...event.Option) (*event.Event, error) {
	meta := event.Meta{ID: s.Object.ID, Name: s.Object.Name, UUID: s.Object.UUID}

	switch s.Kind {
	case event.IDLifecycle:
		if s.Lifecycle == nil {
			return nil, s.missing("lifecycle")
		}
		return event.NewLifecycle(meta, s.Lifecycle.Type, s.Lifecycle.Detail, opts...)
	case event.IDReboot:
		return event.NewReboot(meta, opts...)
	case event.IDRTCChange:
		if s.RTCChange == nil {
			return nil, s.missing("rtcChange")
		}
		return event.NewRTCChange(meta, s.RTCChange.Offset, opts...)
	case event.IDWatchdog:
		if s.Watchdog == nil {
			return nil, s.missing("watchdog")
		}
		return event.NewWatchdog(meta, s.Watchdog.Action, opts...)
	case event.IDIOError:
		if s.IOError == nil {
			return nil, s.missing("ioError")
		}
		return event.NewIOError(meta, s.IOError.SrcPath, s.IOError.DevAlias, s.IOError.Action, opts...)
	case event.IDIOErrorReason:
		if s.IOError == nil {
			return nil, s.missing("ioError")
		}
		return event.NewIOErrorReason(meta, s.IOError.SrcPath, s.IOError.DevAlias, s.IOError.Action, s.IOError.Reason, opts...)
	case event.IDGraphics:
		if s.Graphics == nil {
			return nil, s.missing("graphics")
		}
		g := s.Graphics
		var subject []event.GraphicsSubjectIdentity
		for _, id := range g.Subject {
			subject = append(subject, event.GraphicsSubjectIdentity{Type: id.Type, Name: id.Name})
		}
		return event.NewGraphics(meta, g.Phase, graphicsAddress(g.Local), graphicsAddress(g.Remote), g.AuthScheme, subject, opts...)
	case event.IDControlError:
		return event.NewControlError(meta, opts...)
	case event.IDBlockJob:
		if s.BlockJob == nil {
			return nil, s.missing("blockJob")
		}
		return event.NewBlockJob(meta, s.BlockJob.Path, s.BlockJob.Type, s.BlockJob.Status, opts...)
	case event.IDDiskChange:
		if s.DiskChange == nil {
			return nil, s.missing("diskChange")
		}
		d := s.DiskChange
		return event.NewDiskChange(meta, d.OldSrcPath, d.NewSrcPath, d.DevAlias, d.Reason, opts...)
	case event.IDTrayChange:
		if s.TrayChange == nil {
			return nil, s.missing("trayChange")
		}
		return event.NewTrayChange(meta, s.TrayChange.DevAlias, s.TrayChange.Reason, opts...)
	case event.IDPMWakeup:
		return event.NewPMWakeup(meta, opts...)
	case event.IDPMSuspend:
		return event.NewPMSuspend(meta, opts...)
	case event.IDPMSuspendDisk:
		return event.NewPMSuspendDisk(meta, opts...)
	case event.IDBalloonChange:
		if s.BalloonChange == nil {
			return nil, s.missing("balloonChange")
		}
		return event.NewBalloonChange(meta, s.BalloonChange.Actual, opts...)
	case event.IDDeviceRemoved:
		if s.DeviceRemoved == nil {
			return nil, s.missing("deviceRemoved")
		}
		return event.NewDeviceRemoved(meta, s.DeviceRemoved.DevAlias, opts...)
	case event.IDNetworkLifecycle:
		if s.Network == nil {
			return nil, s.missing("network")
		}
		return event.NewNetworkLifecycle(meta, s.Network.Type, opts...)
	default:
		return nil, errdefs.InvalidInputf("unknown event kind %s", s.Kind)
	}
}

func graphicsAddress(a *GraphicsAddress) *event.GraphicsAddress {
	if a == nil {
		return nil
	}
	return &event.GraphicsAddress{Family: a.Family, Node: a.Node, Service: a.Service}
}

// Queuer accepts events for delivery, taking over the caller's reference.
type Queuer interface {
	Queue(ctx context.Context, ev *event.Event)
}

// Play queues every step of the script in order, waiting for each step's
// delay on clk first. It stops at the first step that cannot be built.
func (s *Script) Play(ctx context.Context, clk clock.Clock, q Queuer, opts ...event.Option) error {
	for i := range s.Events {
		step := &s.Events[i]
		if step.Delay > 0 {
			select {
			case <-clk.After(step.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		ev, err := step.Event(opts...)
		if err != nil {
			return errors.Wrapf(err, "event %d", i)
		}
		log.G(ctx).WithFields(log.Fields{
			"eventID": step.Kind.String(),
			"uuid":    step.Object.UUID.String(),
		}).Debug("Replaying event")
		q.Queue(ctx, ev)
	}
	return nil
}
