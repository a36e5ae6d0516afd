package event

import (
	"strconv"
	"strings"

	"github.com/cbosdo/libvirt/errdefs"
)

// names maps small integer enums to their text form.
type names []string

func (n names) name(v int) string {
	if v >= 0 && v < len(n) {
		return n[v]
	}
	return strconv.Itoa(v)
}

func (n names) parse(what string, text []byte) (int, error) {
	s := string(text)
	for i, name := range n {
		if strings.EqualFold(name, s) {
			return i, nil
		}
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	return 0, errdefs.InvalidInputf("unknown %s %q", what, s)
}

// LifecycleType is the kind of domain state transition.
type LifecycleType int

const (
	LifecycleDefined LifecycleType = iota
	LifecycleUndefined
	LifecycleStarted
	LifecycleSuspended
	LifecycleResumed
	LifecycleStopped
	LifecycleShutdown
	LifecyclePMSuspended
	LifecycleCrashed
)

var lifecycleTypeNames = names{"defined", "undefined", "started", "suspended", "resumed", "stopped", "shutdown", "pmsuspended", "crashed"}

func (t LifecycleType) String() string { return lifecycleTypeNames.name(int(t)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LifecycleType) UnmarshalText(text []byte) error {
	v, err := lifecycleTypeNames.parse("lifecycle type", text)
	*t = LifecycleType(v)
	return err
}

// WatchdogAction is what the hypervisor did when the watchdog fired.
type WatchdogAction int

const (
	WatchdogNone WatchdogAction = iota
	WatchdogPause
	WatchdogReset
	WatchdogPoweroff
	WatchdogShutdown
	WatchdogDebug
	WatchdogInjectNMI
)

var watchdogActionNames = names{"none", "pause", "reset", "poweroff", "shutdown", "debug", "inject-nmi"}

func (a WatchdogAction) String() string { return watchdogActionNames.name(int(a)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *WatchdogAction) UnmarshalText(text []byte) error {
	v, err := watchdogActionNames.parse("watchdog action", text)
	*a = WatchdogAction(v)
	return err
}

// IOErrorAction is what the hypervisor did after an I/O error.
type IOErrorAction int

const (
	IOErrorNone IOErrorAction = iota
	IOErrorPause
	IOErrorReport
)

var ioErrorActionNames = names{"none", "pause", "report"}

func (a IOErrorAction) String() string { return ioErrorActionNames.name(int(a)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *IOErrorAction) UnmarshalText(text []byte) error {
	v, err := ioErrorActionNames.parse("io error action", text)
	*a = IOErrorAction(v)
	return err
}

// GraphicsPhase is the stage of a graphics client session.
type GraphicsPhase int

const (
	GraphicsConnect GraphicsPhase = iota
	GraphicsInitialize
	GraphicsDisconnect
)

var graphicsPhaseNames = names{"connect", "initialize", "disconnect"}

func (p GraphicsPhase) String() string { return graphicsPhaseNames.name(int(p)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *GraphicsPhase) UnmarshalText(text []byte) error {
	v, err := graphicsPhaseNames.parse("graphics phase", text)
	*p = GraphicsPhase(v)
	return err
}

// GraphicsAddressFamily is the socket family of a graphics endpoint.
type GraphicsAddressFamily int

const (
	GraphicsIPv4 GraphicsAddressFamily = iota
	GraphicsIPv6
	GraphicsUnix
)

var graphicsAddressFamilyNames = names{"ipv4", "ipv6", "unix"}

func (f GraphicsAddressFamily) String() string { return graphicsAddressFamilyNames.name(int(f)) }

func (f GraphicsAddressFamily) valid() bool { return f >= GraphicsIPv4 && f <= GraphicsUnix }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *GraphicsAddressFamily) UnmarshalText(text []byte) error {
	v, err := graphicsAddressFamilyNames.parse("graphics address family", text)
	*f = GraphicsAddressFamily(v)
	return err
}

// BlockJobType is the kind of block job that reported.
type BlockJobType int

const (
	BlockJobUnknown BlockJobType = iota
	BlockJobPull
	BlockJobCopy
	BlockJobCommit
	BlockJobActiveCommit
)

var blockJobTypeNames = names{"unknown", "pull", "copy", "commit", "active-commit"}

func (t BlockJobType) String() string { return blockJobTypeNames.name(int(t)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *BlockJobType) UnmarshalText(text []byte) error {
	v, err := blockJobTypeNames.parse("block job type", text)
	*t = BlockJobType(v)
	return err
}

// BlockJobStatus is the outcome reported by a block job.
type BlockJobStatus int

const (
	BlockJobCompleted BlockJobStatus = iota
	BlockJobFailed
	BlockJobCanceled
	BlockJobReady
)

var blockJobStatusNames = names{"completed", "failed", "canceled", "ready"}

func (s BlockJobStatus) String() string { return blockJobStatusNames.name(int(s)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *BlockJobStatus) UnmarshalText(text []byte) error {
	v, err := blockJobStatusNames.parse("block job status", text)
	*s = BlockJobStatus(v)
	return err
}

// DiskChangeReason explains a disk source change.
type DiskChangeReason int

const (
	DiskChangeMissingOnStart DiskChangeReason = iota
	DiskChangeDropMissingOnStart
)

var diskChangeReasonNames = names{"missing-on-start", "drop-missing-on-start"}

func (r DiskChangeReason) String() string { return diskChangeReasonNames.name(int(r)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *DiskChangeReason) UnmarshalText(text []byte) error {
	v, err := diskChangeReasonNames.parse("disk change reason", text)
	*r = DiskChangeReason(v)
	return err
}

// TrayChangeReason tells whether a removable media tray opened or closed.
type TrayChangeReason int

const (
	TrayOpen TrayChangeReason = iota
	TrayClose
)

var trayChangeReasonNames = names{"open", "close"}

func (r TrayChangeReason) String() string { return trayChangeReasonNames.name(int(r)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TrayChangeReason) UnmarshalText(text []byte) error {
	v, err := trayChangeReasonNames.parse("tray change reason", text)
	*r = TrayChangeReason(v)
	return err
}

// NetworkLifecycleType is the kind of network state transition.
type NetworkLifecycleType int

const (
	NetworkDefined NetworkLifecycleType = iota
	NetworkUndefined
	NetworkStarted
	NetworkStopped
)

var networkLifecycleTypeNames = names{"defined", "undefined", "started", "stopped"}

func (t NetworkLifecycleType) String() string { return networkLifecycleTypeNames.name(int(t)) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NetworkLifecycleType) UnmarshalText(text []byte) error {
	v, err := networkLifecycleTypeNames.parse("network lifecycle type", text)
	*t = NetworkLifecycleType(v)
	return err
}
