// Package mpv drives an mpv process over its JSON IPC socket, which carries
// newline-delimited JSON in both directions.
package mpv

import (
	"encoding/json"
	"fmt"
)

// Command is sent from a client to mpv.
type Command struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

// Response is returned by mpv after processing a command. mpv writes events
// on the same connection, so a line with Event set is not a response.
type Response struct {
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID int             `json:"request_id,omitempty"`
	Event     string          `json:"event,omitempty"`
}

// OK reports whether mpv accepted the command.
func (r Response) OK() bool { return r.Error == "success" }

// Float decodes Data as a number.
func (r Response) Float() (float64, error) {
	var f float64
	if err := json.Unmarshal(r.Data, &f); err != nil {
		return 0, fmt.Errorf("decode %s: %w", r.Data, err)
	}
	return f, nil
}

// Event is pushed by mpv to every connected client.
type Event struct {
	Event     string          `json:"event"`
	ID        int             `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
}

// Seconds decodes a numeric property-change payload. ok is false when the
// property is unavailable, which mpv reports as a missing or null data field.
func (e Event) Seconds() (sec float64, ok bool) {
	if len(e.Data) == 0 {
		return 0, false
	}
	var f *float64
	if err := json.Unmarshal(e.Data, &f); err != nil || f == nil {
		return 0, false
	}
	return *f, true
}

// Flag decodes a boolean property-change payload.
func (e Event) Flag() (b bool, ok bool) {
	if len(e.Data) == 0 {
		return false, false
	}
	if err := json.Unmarshal(e.Data, &b); err != nil {
		return false, false
	}
	return b, true
}

// Observed property ids. mpv echoes them back in property-change events.
const (
	ObserveTimePos = iota + 1
	ObserveDuration
	ObservePause
)

// Property names observed by the player.
const (
	PropTimePos  = "time-pos"
	PropDuration = "duration"
	PropPause    = "pause"
)

// Cmd builds a Command from its arguments.
func Cmd(args ...any) Command { return Command{Command: args} }

func (c Command) name() string {
	if len(c.Command) == 0 {
		return "command"
	}
	return fmt.Sprint(c.Command[0])
}
