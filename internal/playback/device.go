package playback

// DeviceErrorKind classifies a device-reported failure.
type DeviceErrorKind int

const (
	DeviceErrNetwork DeviceErrorKind = iota
	DeviceErrDecode
	DeviceErrUnsupported
	DeviceErrSecurity
	DeviceErrAborted
)

// DeviceError is a failure reported by the audio device for the currently
// loaded source.
type DeviceError struct {
	Kind    DeviceErrorKind
	Message string
}

func (e DeviceError) Error() string {
	return e.Message
}

// Listener receives device callbacks. The controller supplies one bound to
// the session that armed it; callbacks from a torn-down session are dropped.
type Listener interface {
	// MetadataLoaded fires when duration metadata is available. Playback is
	// not started by the device on its own.
	MetadataLoaded(duration float64)
	// TimeUpdated fires as the playhead advances.
	TimeUpdated(position float64)
	// Playing fires when audible playback actually starts or resumes.
	Playing()
	// Ended fires when the track runs out.
	Ended()
	// Failed fires when the device cannot load or decode the current source.
	Failed(err DeviceError)
}

// Device is a single audio output handle. The controller guarantees at most
// one live Device exists per application instance.
//
// Close must pause the device and detach the listener; no callback may be
// delivered after Close returns. A missed detach is how one session's events
// leak into the next.
type Device interface {
	// Load begins fetching the given source without starting playback.
	Load(url string)
	// Play starts or resumes playback. It must only be called on a code path
	// traceable to a user gesture; runtimes that block unsolicited audio
	// reject it otherwise.
	Play() error
	// Pause halts playback, keeping the session.
	Pause()
	// Seek moves the playhead, in seconds.
	Seek(position float64)
	// CanPlay reports whether the runtime can natively decode the source.
	CanPlay(url string) bool
	// Close tears the handle down.
	Close()
}

// DeviceFactory builds the device handle for a new session. The host
// environment wires in the real audio output; tests supply fakes.
type DeviceFactory func(l Listener) Device
