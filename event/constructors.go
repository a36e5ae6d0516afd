package event

// NewLifecycle builds a domain lifecycle event.
func NewLifecycle(meta Meta, typ LifecycleType, detail int, opts ...Option) (*Event, error) {
	return New(IDLifecycle, meta, Lifecycle{Type: typ, Detail: detail}, opts...)
}

func NewReboot(meta Meta, opts ...Option) (*Event, error) {
	return New(IDReboot, meta, Reboot{}, opts...)
}

func NewRTCChange(meta Meta, offset int64, opts ...Option) (*Event, error) {
	return New(IDRTCChange, meta, RTCChange{Offset: offset}, opts...)
}

func NewWatchdog(meta Meta, action WatchdogAction, opts ...Option) (*Event, error) {
	return New(IDWatchdog, meta, Watchdog{Action: action}, opts...)
}

func NewIOError(meta Meta, srcPath, devAlias string, action IOErrorAction, opts ...Option) (*Event, error) {
	return New(IDIOError, meta, IOError{SrcPath: srcPath, DevAlias: devAlias, Action: action}, opts...)
}

func NewIOErrorReason(meta Meta, srcPath, devAlias string, action IOErrorAction, reason string, opts ...Option) (*Event, error) {
	return New(IDIOErrorReason, meta, IOErrorReason{SrcPath: srcPath, DevAlias: devAlias, Action: action, Reason: reason}, opts...)
}

// NewGraphics builds a graphics session event. local and remote may be nil
// when the endpoint is unknown; subject may be nil when the client is not
// authenticated yet.
func NewGraphics(meta Meta, phase GraphicsPhase, local, remote *GraphicsAddress, authScheme string, subject []GraphicsSubjectIdentity, opts ...Option) (*Event, error) {
	return New(IDGraphics, meta, Graphics{
		Phase:      phase,
		Local:      local,
		Remote:     remote,
		AuthScheme: authScheme,
		Subject:    subject,
	}, opts...)
}

func NewControlError(meta Meta, opts ...Option) (*Event, error) {
	return New(IDControlError, meta, ControlError{}, opts...)
}

func NewBlockJob(meta Meta, path string, typ BlockJobType, status BlockJobStatus, opts ...Option) (*Event, error) {
	return New(IDBlockJob, meta, BlockJob{Path: path, Type: typ, Status: status}, opts...)
}

func NewDiskChange(meta Meta, oldSrcPath, newSrcPath, devAlias string, reason DiskChangeReason, opts ...Option) (*Event, error) {
	return New(IDDiskChange, meta, DiskChange{
		OldSrcPath: oldSrcPath,
		NewSrcPath: newSrcPath,
		DevAlias:   devAlias,
		Reason:     reason,
	}, opts...)
}

func NewTrayChange(meta Meta, devAlias string, reason TrayChangeReason, opts ...Option) (*Event, error) {
	return New(IDTrayChange, meta, TrayChange{DevAlias: devAlias, Reason: reason}, opts...)
}

func NewPMWakeup(meta Meta, opts ...Option) (*Event, error) {
	return New(IDPMWakeup, meta, PMWakeup{}, opts...)
}

func NewPMSuspend(meta Meta, opts ...Option) (*Event, error) {
	return New(IDPMSuspend, meta, PMSuspend{}, opts...)
}

func NewPMSuspendDisk(meta Meta, opts ...Option) (*Event, error) {
	return New(IDPMSuspendDisk, meta, PMSuspendDisk{}, opts...)
}

// NewBalloonChange builds a balloon event; actual is in KiB.
func NewBalloonChange(meta Meta, actual uint64, opts ...Option) (*Event, error) {
	return New(IDBalloonChange, meta, BalloonChange{Actual: actual}, opts...)
}

func NewDeviceRemoved(meta Meta, devAlias string, opts ...Option) (*Event, error) {
	return New(IDDeviceRemoved, meta, DeviceRemoved{DevAlias: devAlias}, opts...)
}

// NewNetworkLifecycle builds a network lifecycle event.
func NewNetworkLifecycle(meta Meta, typ NetworkLifecycleType, opts ...Option) (*Event, error) {
	return New(IDNetworkLifecycle, meta, NetworkLifecycle{Type: typ}, opts...)
}
