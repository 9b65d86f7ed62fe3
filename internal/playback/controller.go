package playback

import (
	"sync"

	"github.com/google/uuid"
	apierrors "github.com/thirtyvoice/backend/internal/errors"
	"github.com/thirtyvoice/backend/internal/logger"
	"go.uber.org/zap"
)

// FirstPlayFunc is invoked at most once per play session, on the first
// transition into StatePlaying. Typically wired to the listen telemetry
// endpoint.
type FirstPlayFunc func(targetID, sessionToken string)

// Controller owns the single playback session of an application instance.
// Exactly one Controller exists per instance, constructed at startup; every
// caller holds the same handle, so starting any track silences whatever was
// playing before.
//
// Mutations happen under one mutex, but device calls are issued outside it:
// a device may deliver callbacks synchronously, and those re-enter the
// controller. Events are bound to the session generation that armed them, so
// a stale device that fires after teardown mutates nothing.
type Controller struct {
	mu        sync.Mutex
	newDevice DeviceFactory

	device Device
	gen    uint64

	targetID    string
	state       State
	elapsed     float64
	duration    float64
	lastErr     *Error
	token       string
	primaryURL  string
	fallbackURL string
	activeURL   string

	playRequested  bool
	listenReported bool
	onFirstPlay    FirstPlayFunc

	subs []chan Session
}

func NewController(factory DeviceFactory) *Controller {
	return &Controller{
		newDevice: factory,
		state:     StateIdle,
	}
}

// Subscribe returns the session state stream. Snapshots are published after
// every transition; slow consumers miss intermediate snapshots rather than
// blocking the controller.
func (c *Controller) Subscribe() <-chan Session {
	ch := make(chan Session, 32)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Play starts playback of targetID, or toggles pause/resume when targetID is
// already the active session. Must be called from a user gesture.
func (c *Controller) Play(targetID, primaryURL, fallbackURL string, onFirstPlay FirstPlayFunc) {
	c.mu.Lock()

	if targetID == c.targetID && c.device != nil && c.state != StateError {
		// Same track: a resume, not a new session. No re-fetch, and the
		// listen callback stays armed-or-spent as it was.
		switch c.state {
		case StateLoading:
			// First load still in flight; the pending play will fire when
			// metadata arrives.
			c.mu.Unlock()
			return
		case StatePlaying:
			dev := c.device
			c.state = StatePaused
			snap := c.snapshotLocked()
			c.mu.Unlock()
			dev.Pause()
			c.publish(snap)
			return
		default: // paused, ended
			dev, gen := c.device, c.gen
			c.mu.Unlock()
			if err := dev.Play(); err != nil {
				c.failPlay(gen, err)
			}
			return
		}
	}

	// New session. Tear down the previous device first; bumping the
	// generation orphans any callback it has in flight.
	prev := c.device
	c.device = nil
	c.gen++
	gen := c.gen

	c.targetID = targetID
	c.state = StateLoading
	c.elapsed = 0
	c.duration = 0
	c.lastErr = nil
	c.token = uuid.New().String()
	c.primaryURL = primaryURL
	c.fallbackURL = fallbackURL
	c.playRequested = true
	c.listenReported = false
	c.onFirstPlay = onFirstPlay
	c.mu.Unlock()

	// The old handle is fully closed before the new one exists; at no point
	// are two devices attached.
	if prev != nil {
		prev.Close()
	}

	c.mu.Lock()
	if c.gen != gen {
		// Another Play raced in while we were closing; it owns the session.
		c.mu.Unlock()
		return
	}
	dev := c.newDevice(&boundListener{c: c, gen: gen})
	c.device = dev

	// Prefer the encoding the runtime reports as natively playable. The
	// fallback is otherwise reserved for a device-reported error; it is
	// never tried speculatively.
	c.activeURL = primaryURL
	if fallbackURL != "" && !dev.CanPlay(primaryURL) && dev.CanPlay(fallbackURL) {
		c.activeURL = fallbackURL
	}
	activeURL := c.activeURL
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	dev.Load(activeURL)
}

// Pause halts the active session, if any.
func (c *Controller) Pause() {
	c.mu.Lock()
	if c.device == nil || c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	dev := c.device
	c.state = StatePaused
	snap := c.snapshotLocked()
	c.mu.Unlock()

	dev.Pause()
	c.publish(snap)
}

// Seek moves the playhead. No-op without an active session.
func (c *Controller) Seek(position float64) {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return
	}
	dev := c.device
	c.elapsed = position
	snap := c.snapshotLocked()
	c.mu.Unlock()

	dev.Seek(position)
	c.publish(snap)
}

// Stop tears the session down and returns to idle. Callers use it to force
// silence; the next Play starts a fresh session.
func (c *Controller) Stop() {
	c.mu.Lock()
	prev := c.device
	c.device = nil
	c.gen++

	c.targetID = ""
	c.state = StateIdle
	c.elapsed = 0
	c.duration = 0
	c.lastErr = nil
	c.token = ""
	c.playRequested = false
	c.listenReported = false
	c.onFirstPlay = nil
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	c.publish(snap)
}

// boundListener forwards device events to the controller, tagged with the
// generation that armed them.
type boundListener struct {
	c   *Controller
	gen uint64
}

func (l *boundListener) MetadataLoaded(duration float64) {
	c := l.c
	c.mu.Lock()
	if l.gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.duration = duration
	shouldPlay := c.playRequested
	dev := c.device
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	if shouldPlay && dev != nil {
		// Still inside the call chain of the user's Play gesture.
		if err := dev.Play(); err != nil {
			c.failPlay(l.gen, err)
		}
	}
}

func (l *boundListener) TimeUpdated(position float64) {
	c := l.c
	c.mu.Lock()
	if l.gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.elapsed = position
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (l *boundListener) Playing() {
	c := l.c
	c.mu.Lock()
	if l.gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StatePlaying
	c.lastErr = nil

	var fire FirstPlayFunc
	var target, token string
	if !c.listenReported {
		c.listenReported = true
		fire = c.onFirstPlay
		target = c.targetID
		token = c.token
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(snap)
	if fire != nil {
		fire(target, token)
	}
}

func (l *boundListener) Ended() {
	c := l.c
	c.mu.Lock()
	if l.gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateEnded
	c.elapsed = 0
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (l *boundListener) Failed(err DeviceError) {
	c := l.c
	c.mu.Lock()
	if l.gen != c.gen {
		c.mu.Unlock()
		return
	}

	// Fallback-on-error: swap to the alternate encoding once, only when the
	// failing source is the primary.
	if c.activeURL == c.primaryURL && c.fallbackURL != "" && c.fallbackURL != c.activeURL {
		c.activeURL = c.fallbackURL
		c.state = StateLoading
		dev := c.device
		fallbackURL := c.fallbackURL
		snap := c.snapshotLocked()
		c.mu.Unlock()

		logger.Warn("primary encoding failed, retrying with fallback",
			zap.String("target_id", snap.TargetID),
			zap.String("cause", err.Message),
		)
		c.publish(snap)
		if dev != nil {
			dev.Load(fallbackURL)
		}
		return
	}

	c.state = StateError
	c.lastErr = classifyDeviceError(err)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	logger.Error("playback failed",
		zap.String("target_id", snap.TargetID),
		zap.String("code", string(snap.Err.Code)),
		zap.String("cause", err.Message),
	)
	c.publish(snap)
}

// failPlay handles an error returned by Device.Play, which surfaces outside
// the listener path.
func (c *Controller) failPlay(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	c.lastErr = &Error{
		Code:      apierrors.ErrNetworkFailure,
		Message:   "Playback failed. Please try again.",
		Retryable: true,
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	logger.Error("device play failed",
		zap.String("target_id", snap.TargetID),
		zap.Error(err),
	)
	c.publish(snap)
}

func (c *Controller) snapshotLocked() Session {
	return Session{
		TargetID: c.targetID,
		State:    c.state,
		Elapsed:  c.elapsed,
		Duration: c.duration,
		Err:      c.lastErr,
		Token:    c.token,
	}
}

func (c *Controller) publish(snap Session) {
	c.mu.Lock()
	subs := c.subs
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// classifyDeviceError maps a device failure to the user-facing cause.
func classifyDeviceError(err DeviceError) *Error {
	switch err.Kind {
	case DeviceErrNetwork:
		return &Error{
			Code:      apierrors.ErrNetworkFailure,
			Message:   "Network error: could not load audio. Please check your connection.",
			Retryable: true,
		}
	case DeviceErrDecode:
		return &Error{
			Code:      apierrors.ErrDecodeFailure,
			Message:   "Audio format error: file is corrupted or unsupported.",
			Retryable: true,
		}
	case DeviceErrUnsupported:
		return &Error{
			Code:      apierrors.ErrUnsupportedFormat,
			Message:   "Audio format not supported on this device.",
			Retryable: true,
		}
	case DeviceErrSecurity:
		return &Error{
			Code:      apierrors.ErrNetworkFailure,
			Message:   "Security error: cannot load insecure audio from a secure page.",
			Retryable: true,
		}
	default:
		return &Error{
			Code:      apierrors.ErrNetworkFailure,
			Message:   "Audio unavailable or server error.",
			Retryable: true,
		}
	}
}
