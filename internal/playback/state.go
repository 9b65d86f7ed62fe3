package playback

import (
	apierrors "github.com/thirtyvoice/backend/internal/errors"
)

// State is the playback session lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
	StateError   State = "error"
)

// Error is a terminal playback failure surfaced to the user after every
// fallback is exhausted.
type Error struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	// Retryable means tapping play again restarts the session from the
	// beginning; it never resumes an errored session.
	Retryable bool `json:"retryable"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Session is an immutable snapshot of the controller's state, published on
// the subscription stream after every transition.
type Session struct {
	TargetID string  `json:"target_id,omitempty"`
	State    State   `json:"state"`
	Elapsed  float64 `json:"elapsed"`
	Duration float64 `json:"duration"`
	Err      *Error  `json:"error,omitempty"`
	// Token identifies this play session; it is handed to the first-play
	// callback so listen telemetry can dedupe server-side.
	Token string `json:"token,omitempty"`
}
