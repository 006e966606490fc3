package cutting

import (
	"context"
	"errors"
	"fmt"
)

// DefaultProgram is the playback program checked before a session starts.
const DefaultProgram = "mpv"

// Unbounded is passed to Player.PlayRange as the end to play to the end of
// the media.
const Unbounded = -1

// ErrPlayerUnavailable is returned when the playback program is not installed.
var ErrPlayerUnavailable = errors.New("playback program not found")

// Status is the outcome of a session.
type Status int

const (
	Rejected Status = iota
	Accepted
)

func (s Status) String() string {
	if s == Accepted {
		return "accepted"
	}
	return "rejected"
}

// Player is the playback engine. Position and Duration report whole seconds
// and must not block.
type Player interface {
	Load(source string) error
	Position() int
	Duration() int
	PlayRange(begin, end int) error
}

// Modal runs the interactive part of a session and blocks until the user
// accepts or cancels it.
type Modal interface {
	Run(ctx context.Context, d *Dialog) (Status, error)
}

// Notifier shows a user-visible message.
type Notifier interface {
	Critical(title, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Critical(title, message string) { f(title, message) }

// Config wires a Dialog to its collaborators. Selector, Program and
// Available have defaults.
type Config struct {
	Title     string
	Program   string
	Player    Player
	Selector  RangeSelector
	Modal     Modal
	Notifier  Notifier
	Available func(program string) bool
}

// Dialog mediates between the player and the range selector for one
// interactive session at a time. It is not safe for concurrent use.
type Dialog struct {
	title     string
	program   string
	player    Player
	sel       RangeSelector
	modal     Modal
	notifier  Notifier
	available func(string) bool
	source    string
}

// New returns a Dialog that starts out selecting the entire media.
func New(cfg Config) *Dialog {
	d := &Dialog{
		title:     cfg.Title,
		program:   cfg.Program,
		player:    cfg.Player,
		sel:       cfg.Selector,
		modal:     cfg.Modal,
		notifier:  cfg.Notifier,
		available: cfg.Available,
	}
	if d.title == "" {
		d.title = "Interactive Cutting"
	}
	if d.program == "" {
		d.program = DefaultProgram
	}
	if d.sel == nil {
		d.sel = NewSelector()
	}
	if d.available == nil {
		d.available = func(string) bool { return true }
	}
	d.sel.SetFromBegin(true)
	d.sel.SetToEnd(true)
	return d
}

// Title returns the dialog title.
func (d *Dialog) Title() string { return d.title }

// Program returns the playback program name.
func (d *Dialog) Program() string { return d.program }

// Source returns the media loaded by the current session.
func (d *Dialog) Source() string { return d.source }

// Selector returns the range selector backing the dialog.
func (d *Dialog) Selector() RangeSelector { return d.sel }

// Player returns the playback engine.
func (d *Dialog) Player() Player { return d.player }

// Available reports whether the playback program is installed.
func (d *Dialog) Available() bool {
	return d.available(d.program)
}

// Selection returns a copy of the current range.
func (d *Dialog) Selection() TimeRange {
	return TimeRange{
		BeginTime: d.sel.BeginTime(),
		EndTime:   d.sel.EndTime(),
		FromBegin: d.sel.FromBegin(),
		ToEnd:     d.sel.ToEnd(),
	}
}

// Exec loads source and runs the modal session. If the playback program is
// missing the user is told so and the session is rejected without running.
func (d *Dialog) Exec(ctx context.Context, source string) (Status, error) {
	if !d.Available() {
		if d.notifier != nil {
			d.notifier.Critical(d.title, fmt.Sprintf("%s not found", d.program))
		}
		return Rejected, fmt.Errorf("%s: %w", d.program, ErrPlayerUnavailable)
	}
	if d.player == nil || d.modal == nil {
		return Rejected, errors.New("dialog has no player or modal")
	}
	d.sel.SetMaxTime(0)
	if err := d.player.Load(source); err != nil {
		return Rejected, fmt.Errorf("load %s: %w", source, err)
	}
	d.source = source
	status, err := d.modal.Run(ctx, d)
	if err != nil {
		return Rejected, fmt.Errorf("run session: %w", err)
	}
	return status, nil
}

// ExecRange seeds the selection from r, runs the session, and writes the
// selection back into r only if it was accepted.
func (d *Dialog) ExecRange(ctx context.Context, source string, r Range) (Status, error) {
	// The bound belongs to the previous media; seeding must not be clamped.
	d.sel.SetMaxTime(0)
	copyRange(d.sel, r)
	status, err := d.Exec(ctx, source)
	if err != nil || status != Accepted {
		return status, err
	}
	copyRange(r, d.sel)
	return status, nil
}

// ExecJob seeds the selection from job's begin and duration, runs the
// session on job.Source, and updates job only if it was accepted.
func (d *Dialog) ExecJob(ctx context.Context, job *Job) (Status, error) {
	d.sel.SetMaxTime(0)
	seedFromJob(d.sel, *job)
	status, err := d.Exec(ctx, job.Source)
	if err != nil || status != Accepted {
		return status, err
	}
	emitToJob(job, d.sel)
	return status, nil
}

// MarkBegin sets the begin time to the current playback position. The
// from-begin flag is not changed.
func (d *Dialog) MarkBegin() {
	d.sel.SetBeginTime(d.player.Position())
}

// MarkEnd sets the end time to the current playback position. The to-end
// flag is not changed.
func (d *Dialog) MarkEnd() {
	d.sel.SetEndTime(d.player.Position())
}

// ToggleFromBegin flips the from-begin flag.
func (d *Dialog) ToggleFromBegin() {
	d.sel.SetFromBegin(!d.sel.FromBegin())
}

// ToggleToEnd flips the to-end flag.
func (d *Dialog) ToggleToEnd() {
	d.sel.SetToEnd(!d.sel.ToEnd())
}

// NudgeBegin moves the begin time by delta seconds, never below zero.
func (d *Dialog) NudgeBegin(delta int) {
	d.sel.SetBeginTime(max(0, d.sel.BeginTime()+delta))
}

// NudgeEnd moves the end time by delta seconds, never below zero.
func (d *Dialog) NudgeEnd(delta int) {
	d.sel.SetEndTime(max(0, d.sel.EndTime()+delta))
}

// EffectiveBounds returns the range to play: begin is 0 when FromBegin is
// set and end is Unbounded when ToEnd is set.
func (d *Dialog) EffectiveBounds() (begin, end int) {
	begin, end = d.sel.BeginTime(), d.sel.EndTime()
	if d.sel.FromBegin() {
		begin = 0
	}
	if d.sel.ToEnd() {
		end = Unbounded
	}
	return begin, end
}

// PlaySelection plays the selected range.
func (d *Dialog) PlaySelection() error {
	begin, end := d.EffectiveBounds()
	if err := d.player.PlayRange(begin, end); err != nil {
		return fmt.Errorf("play selection: %w", err)
	}
	return nil
}

// PlayerStateChanged picks up a newly known media duration as the
// selector's upper bound. It reports whether the bound changed.
func (d *Dialog) PlayerStateChanged() bool {
	duration := d.player.Duration()
	if duration > 0 && duration != d.sel.MaxTime() {
		d.sel.SetMaxTime(duration)
		return true
	}
	return false
}
