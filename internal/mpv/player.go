package mpv

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultProgram is the mpv executable name.
const DefaultProgram = "mpv"

var errNotStarted = errors.New("player not started")

// Options configures a Player. Zero values select the defaults.
type Options struct {
	Program     string
	SocketPath  string
	ExtraArgs   []string
	DialTimeout time.Duration
}

// Player runs one mpv process and tracks its playback state. It uses two
// connections, one for commands and one for the event stream. Observe and
// the accessors are meant to be called from a single goroutine.
type Player struct {
	opts Options

	proc     *exec.Cmd
	client   *Client // commands
	evClient *Client // property-change events

	position float64
	duration float64
	paused   bool

	// Seeks sent by this player whose playback-restart has not been seen.
	// Seek may run on another goroutine than Observe.
	seeking atomic.Int32

	// PlayRange state. The stop point is armed once a position inside
	// [rangeFrom, stopAt) is seen, or once the restart of PlayRange's own
	// seek arrives, so frames from before the seek are ignored.
	rangeFrom int
	stopAt    int
	armed     bool
}

// New returns a player that launches mpv on the first Load.
func New(opts Options) *Player {
	if opts.Program == "" {
		opts.Program = DefaultProgram
	}
	if opts.SocketPath == "" {
		opts.SocketPath = SocketPath()
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return &Player{opts: opts, stopAt: -1, paused: true}
}

// Attach returns a player over already connected clients. Close still sends
// quit but has no process to wait for.
func Attach(client, evClient *Client) *Player {
	p := New(Options{})
	p.client = client
	p.evClient = evClient
	return p
}

// Start launches mpv, connects to its socket and subscribes to property
// changes. Calling Start on a running player is a no-op.
func (p *Player) Start() error {
	if p.client != nil {
		return nil
	}

	os.Remove(p.opts.SocketPath)
	args := append([]string{
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
		"--force-window=yes",
		"--input-ipc-server=" + p.opts.SocketPath,
	}, p.opts.ExtraArgs...)
	proc := exec.Command(p.opts.Program, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.opts.Program, err)
	}
	p.proc = proc
	log.Printf("mpv: started pid %d on %s", proc.Process.Pid, p.opts.SocketPath)

	if err := waitForSocket(p.opts.SocketPath, p.opts.DialTimeout); err != nil {
		p.kill()
		return err
	}

	var client, evClient *Client
	var g errgroup.Group
	g.Go(func() (err error) {
		client, err = Connect(p.opts.SocketPath)
		return err
	})
	g.Go(func() (err error) {
		evClient, err = Connect(p.opts.SocketPath)
		return err
	})
	if err := g.Wait(); err != nil {
		if client != nil {
			client.Close()
		}
		if evClient != nil {
			evClient.Close()
		}
		p.kill()
		return err
	}
	if err := p.use(client, evClient); err != nil {
		p.kill()
		return err
	}
	return nil
}

// use installs the two connections and subscribes on the event one. On
// failure both are closed, so a later Start dials again.
func (p *Player) use(client, evClient *Client) error {
	p.client = client
	p.evClient = evClient
	if err := p.subscribe(); err != nil {
		p.closeClients()
		return err
	}
	return nil
}

func (p *Player) closeClients() {
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	if p.evClient != nil {
		p.evClient.Close()
		p.evClient = nil
	}
}

// subscribe asks mpv to push the properties the player caches. The requests
// do not wait for answers, so no early property-change event is lost on the
// event connection.
func (p *Player) subscribe() error {
	for id, name := range map[int]string{
		ObserveTimePos:  PropTimePos,
		ObserveDuration: PropDuration,
		ObservePause:    PropPause,
	} {
		if err := p.evClient.Send(Cmd("observe_property", id, name)); err != nil {
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}
	return nil
}

// Load replaces the current file with source, starting mpv if needed.
func (p *Player) Load(source string) error {
	if err := p.Start(); err != nil {
		return err
	}
	if _, err := p.client.SendCommand(Cmd("loadfile", source, "replace")); err != nil {
		return err
	}
	p.position = 0
	p.duration = 0
	p.seeking.Store(0)
	p.disarm()
	return nil
}

// Position returns the last reported playback position in whole seconds.
func (p *Player) Position() int { return int(p.position) }

// Duration returns the media duration in whole seconds, or 0 while unknown.
func (p *Player) Duration() int { return int(p.duration) }

// Paused reports whether playback is paused.
func (p *Player) Paused() bool { return p.paused }

// PlayRange seeks to begin and plays until end. An end below zero plays to
// the end of the media. An empty range only seeks.
func (p *Player) PlayRange(begin, end int) error {
	if p.client == nil {
		return errNotStarted
	}
	p.disarm()
	if _, err := p.client.SendCommand(Cmd("seek", begin, "absolute")); err != nil {
		return err
	}
	p.seeking.Add(1)
	p.position = float64(begin)
	if end >= 0 {
		if end <= begin {
			return p.setPause(true)
		}
		p.rangeFrom = begin
		p.stopAt = end
	}
	return p.setPause(false)
}

func (p *Player) disarm() {
	p.stopAt = -1
	p.armed = false
}

// inRange reports whether sec lies in the pending range. Seeks land on the
// nearest keyframe, so up to a second before the begin counts.
func (p *Player) inRange(sec float64) bool {
	return sec >= float64(p.rangeFrom)-1 && sec < float64(p.stopAt)
}

// TogglePause flips between playing and paused.
func (p *Player) TogglePause() error {
	if p.client == nil {
		return errNotStarted
	}
	_, err := p.client.SendCommand(Cmd("cycle", PropPause))
	return err
}

// Seek moves the playback position by delta seconds.
func (p *Player) Seek(delta int) error {
	if p.client == nil {
		return errNotStarted
	}
	if _, err := p.client.SendCommand(Cmd("seek", delta, "relative")); err != nil {
		return err
	}
	p.seeking.Add(1)
	return nil
}

func (p *Player) setPause(paused bool) error {
	_, err := p.client.SendCommand(Cmd("set_property", PropPause, paused))
	return err
}

// NextEvent blocks for the next event from mpv.
func (p *Player) NextEvent() (Event, error) {
	if p.evClient == nil {
		return Event{}, errNotStarted
	}
	return p.evClient.ReadEvent()
}

// Observe applies ev to the cached playback state and reports whether that
// state changed. Reaching the stop point of PlayRange pauses playback.
func (p *Player) Observe(ev Event) (bool, error) {
	switch ev.Event {
	case "property-change":
		switch ev.Name {
		case PropTimePos:
			sec, ok := ev.Seconds()
			if !ok {
				return false, nil
			}
			p.position = sec
			if p.stopAt < 0 {
				return true, nil
			}
			if !p.armed {
				p.armed = p.inRange(sec)
				return true, nil
			}
			if sec >= float64(p.stopAt) {
				p.disarm()
				if p.client != nil {
					return true, p.setPause(true)
				}
			}
			return true, nil

		case PropDuration:
			sec, _ := ev.Seconds()
			changed := sec != p.duration
			p.duration = sec
			return changed, nil

		case PropPause:
			paused, ok := ev.Flag()
			if !ok {
				return false, nil
			}
			changed := paused != p.paused
			p.paused = paused
			return changed, nil
		}

	case "playback-restart":
		// Only the last outstanding seek is PlayRange's; earlier restarts
		// belong to seeks made before it.
		if p.seeking.Load() > 0 && p.seeking.Add(-1) == 0 && p.stopAt >= 0 {
			p.armed = true
		}
		return false, nil

	case "file-loaded":
		return true, nil

	case "end-file":
		p.disarm()
		if ev.Reason == "error" {
			return true, fmt.Errorf("playback failed: %s", ev.FileError)
		}
		return true, nil
	}

	return false, nil
}

// Close quits mpv and closes both connections.
func (p *Player) Close() error {
	if p.client != nil {
		p.client.SetDeadline(time.Now().Add(time.Second))
		p.client.Send(Cmd("quit"))
	}
	p.closeClients()
	if p.proc == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.proc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		p.proc.Process.Kill()
		<-done
	}
	p.proc = nil
	os.Remove(p.opts.SocketPath)
	return nil
}

func (p *Player) kill() {
	if p.proc != nil {
		p.proc.Process.Kill()
		p.proc.Wait()
		p.proc = nil
	}
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("mpv socket %s did not appear within %v", path, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
