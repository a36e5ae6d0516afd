package event

// Payload is the kind-specific part of an event. The set of payloads is
// closed: only the types in this package implement it.
type Payload interface {
	// EventID is the id of the kind this payload belongs to.
	EventID() ID
	payload()
}

// Lifecycle reports a domain state transition. Detail depends on Type.
type Lifecycle struct {
	Type   LifecycleType
	Detail int
}

// Reboot reports a guest reboot.
type Reboot struct{}

// RTCChange reports a guest clock adjustment, in seconds relative to UTC.
type RTCChange struct {
	Offset int64
}

// Watchdog reports a fired watchdog device.
type Watchdog struct {
	Action WatchdogAction
}

// IOError reports an I/O error on a disk.
type IOError struct {
	SrcPath  string
	DevAlias string
	Action   IOErrorAction
}

// IOErrorReason is IOError with the driver's reason attached.
type IOErrorReason struct {
	SrcPath  string
	DevAlias string
	Action   IOErrorAction
	Reason   string
}

// GraphicsAddress is one end of a graphics session.
type GraphicsAddress struct {
	Family  GraphicsAddressFamily
	Node    string
	Service string
}

// GraphicsSubjectIdentity is one identity of an authenticated client, such
// as an x509 distinguished name or a SASL user name.
type GraphicsSubjectIdentity struct {
	Type string
	Name string
}

// Graphics reports a graphics client connecting, authenticating or leaving.
type Graphics struct {
	Phase      GraphicsPhase
	Local      *GraphicsAddress
	Remote     *GraphicsAddress
	AuthScheme string
	Subject    []GraphicsSubjectIdentity
}

// Clone returns a copy of g that shares nothing with it.
func (g Graphics) Clone() Graphics {
	out := g
	if g.Local != nil {
		l := *g.Local
		out.Local = &l
	}
	if g.Remote != nil {
		r := *g.Remote
		out.Remote = &r
	}
	if g.Subject != nil {
		out.Subject = append([]GraphicsSubjectIdentity(nil), g.Subject...)
	}
	return out
}

// ControlError reports that the hypervisor control channel broke.
type ControlError struct{}

// BlockJob reports the status of a block job on Path.
type BlockJob struct {
	Path   string
	Type   BlockJobType
	Status BlockJobStatus
}

// DiskChange reports a disk source replaced or dropped. Either path may be
// empty.
type DiskChange struct {
	OldSrcPath string
	NewSrcPath string
	DevAlias   string
	Reason     DiskChangeReason
}

// TrayChange reports a removable media tray opening or closing.
type TrayChange struct {
	DevAlias string
	Reason   TrayChangeReason
}

// PMWakeup reports a guest woken up from a power management suspend.
type PMWakeup struct{}

// PMSuspend reports a guest suspended to memory.
type PMSuspend struct{}

// PMSuspendDisk reports a guest suspended to disk.
type PMSuspendDisk struct{}

// BalloonChange reports the new current memory of the guest, in KiB.
type BalloonChange struct {
	Actual uint64
}

// DeviceRemoved reports the completed hot-unplug of a device.
type DeviceRemoved struct {
	DevAlias string
}

// NetworkLifecycle reports a virtual network state transition.
type NetworkLifecycle struct {
	Type NetworkLifecycleType
}

func (Lifecycle) EventID() ID        { return IDLifecycle }
func (Reboot) EventID() ID           { return IDReboot }
func (RTCChange) EventID() ID        { return IDRTCChange }
func (Watchdog) EventID() ID         { return IDWatchdog }
func (IOError) EventID() ID          { return IDIOError }
func (IOErrorReason) EventID() ID    { return IDIOErrorReason }
func (Graphics) EventID() ID         { return IDGraphics }
func (ControlError) EventID() ID     { return IDControlError }
func (BlockJob) EventID() ID         { return IDBlockJob }
func (DiskChange) EventID() ID       { return IDDiskChange }
func (TrayChange) EventID() ID       { return IDTrayChange }
func (PMWakeup) EventID() ID         { return IDPMWakeup }
func (PMSuspend) EventID() ID        { return IDPMSuspend }
func (PMSuspendDisk) EventID() ID    { return IDPMSuspendDisk }
func (BalloonChange) EventID() ID    { return IDBalloonChange }
func (DeviceRemoved) EventID() ID    { return IDDeviceRemoved }
func (NetworkLifecycle) EventID() ID { return IDNetworkLifecycle }

func (Lifecycle) payload()        {}
func (Reboot) payload()           {}
func (RTCChange) payload()        {}
func (Watchdog) payload()         {}
func (IOError) payload()          {}
func (IOErrorReason) payload()    {}
func (Graphics) payload()         {}
func (ControlError) payload()     {}
func (BlockJob) payload()         {}
func (DiskChange) payload()       {}
func (TrayChange) payload()       {}
func (PMWakeup) payload()         {}
func (PMSuspend) payload()        {}
func (PMSuspendDisk) payload()    {}
func (BalloonChange) payload()    {}
func (DeviceRemoved) payload()    {}
func (NetworkLifecycle) payload() {}
