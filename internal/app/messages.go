package app

import "github.com/jwulff/cutter/internal/mpv"

// PlayerEventMsg wraps an event streamed from the player.
type PlayerEventMsg struct {
	Event mpv.Event
}

// PlayerEventErrorMsg is sent when the event stream fails. No further
// events are read after it.
type PlayerEventErrorMsg struct {
	Err error
}

// PlayerErrorMsg carries a failed player command.
type PlayerErrorMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
