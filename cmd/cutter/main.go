// Command cutter plays a media file and lets the user mark the begin and end
// of the part to keep. It works on a file directly or on a queued conversion
// job, whose range is updated when the selection is accepted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/jwulff/cutter/internal/app"
	"github.com/jwulff/cutter/internal/cutting"
	"github.com/jwulff/cutter/internal/db"
	"github.com/jwulff/cutter/internal/exepath"
	"github.com/jwulff/cutter/internal/mpv"

	tea "github.com/charmbracelet/bubbletea"
)

const unset = -1

type options struct {
	begin   int
	end     int
	jobID   int64
	add     bool
	list    bool
	output  string
	dbPath  string
	program string
	socket  string
	logPath string
}

func parseFlags() (options, []string) {
	var o options
	flag.IntVar(&o.begin, "begin", unset, "begin time in seconds (default: from the start)")
	flag.IntVar(&o.end, "end", unset, "end time in seconds (default: to the end)")
	flag.Int64Var(&o.jobID, "job", 0, "id of a queued conversion job to cut")
	flag.BoolVar(&o.add, "add", false, "queue a conversion job for the file instead of opening it")
	flag.BoolVar(&o.list, "list", false, "list queued conversion jobs")
	flag.StringVar(&o.output, "o", "", "output path stored with -add")
	flag.StringVar(&o.dbPath, "db", db.DefaultDBPath(), "job database path")
	flag.StringVar(&o.program, "player", mpv.DefaultProgram, "playback program")
	flag.StringVar(&o.socket, "socket", mpv.SocketPath(), "player IPC socket path")
	flag.StringVar(&o.logPath, "log", "", "write debug log to this file")
	flag.Parse()
	return o, flag.Args()
}

func main() {
	os.Exit(run())
}

func run() int {
	o, args := parseFlags()

	if o.logPath == "" && os.Getenv("CUTTER_DEBUG") != "" {
		o.logPath = "cutter-debug.log"
	}
	if o.logPath != "" {
		f, err := tea.LogToFile(o.logPath, "cutter")
		if err != nil {
			printError(err)
			return 1
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	var status cutting.Status
	switch {
	case o.list:
		err = listJobs(o)
		status = cutting.Accepted
	case o.add:
		err = addJob(o, args)
		status = cutting.Accepted
	case o.jobID != 0:
		status, err = cutJob(ctx, o)
	default:
		status, err = cutFile(ctx, o, args)
	}

	if err != nil {
		// The dialog already told the user the player is missing.
		if !errors.Is(err, cutting.ErrPlayerUnavailable) {
			printError(err)
		}
		return 1
	}
	if status != cutting.Accepted {
		color.Yellow("cancelled")
		return 1
	}
	return 0
}

// newDialog wires the mpv player and the terminal modal into a dialog.
func newDialog(o options) (*cutting.Dialog, *mpv.Player) {
	player := mpv.New(mpv.Options{Program: o.program, SocketPath: o.socket})
	d := cutting.New(cutting.Config{
		Program:   o.program,
		Player:    player,
		Modal:     app.Modal{Player: player},
		Notifier:  cutting.NotifierFunc(critical),
		Available: exepath.Available,
	})
	return d, player
}

func cutFile(ctx context.Context, o options, args []string) (cutting.Status, error) {
	if len(args) != 1 {
		flag.Usage()
		return cutting.Rejected, errors.New("expected exactly one media file")
	}

	r := cutting.NewSelector()
	if o.begin != unset {
		r.SetBeginTime(o.begin)
		r.SetFromBegin(false)
	}
	if o.end != unset {
		r.SetEndTime(o.end)
		r.SetToEnd(false)
	}

	d, player := newDialog(o)
	defer player.Close()

	status, err := d.ExecRange(ctx, args[0], r)
	if err != nil || status != cutting.Accepted {
		return status, err
	}
	log.Printf("accepted range %+v for %s", r.TimeRange(), args[0])
	printRange(args[0], r.TimeRange())
	return status, nil
}

func cutJob(ctx context.Context, o options) (cutting.Status, error) {
	store, err := db.Open(o.dbPath)
	if err != nil {
		return cutting.Rejected, err
	}
	defer store.Close()

	queued, err := store.Job(o.jobID)
	if err != nil {
		return cutting.Rejected, err
	}
	job := &cutting.Job{
		Source:       queued.Source,
		TimeBegin:    queued.TimeBegin,
		TimeDuration: queued.TimeDuration,
	}

	d, player := newDialog(o)
	defer player.Close()

	status, err := d.ExecJob(ctx, job)
	if err != nil || status != cutting.Accepted {
		return status, err
	}
	if err := store.UpdateJobRange(queued.ID, job.TimeBegin, job.TimeDuration); err != nil {
		return cutting.Rejected, err
	}
	log.Printf("job %d: begin %d duration %d", queued.ID, job.TimeBegin, job.TimeDuration)
	printJob(queued.ID, job)
	return status, nil
}

func addJob(o options, args []string) error {
	if len(args) != 1 {
		flag.Usage()
		return errors.New("expected exactly one media file")
	}

	begin, duration := 0, 0
	if o.begin != unset {
		begin = o.begin
	}
	if o.end != unset {
		if o.end <= begin {
			return fmt.Errorf("end %d must be after begin %d", o.end, begin)
		}
		duration = o.end - begin
	}

	store, err := db.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	job, err := store.AddJob(args[0], o.output, begin, duration)
	if err != nil {
		return err
	}
	printJob(job.ID, &cutting.Job{Source: job.Source, TimeBegin: job.TimeBegin, TimeDuration: job.TimeDuration})
	return nil
}

func listJobs(o options) error {
	store, err := db.Open(o.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	jobs, err := store.Jobs()
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs")
		return nil
	}
	for _, j := range jobs {
		printJob(j.ID, &cutting.Job{Source: j.Source, TimeBegin: j.TimeBegin, TimeDuration: j.TimeDuration})
	}
	return nil
}

func printRange(source string, r cutting.TimeRange) {
	color.Set(color.FgYellow)
	fmt.Print("input: ")
	color.Set(color.FgGreen)
	fmt.Printf("%s\n", source)
	color.Set(color.FgYellow)
	fmt.Print("begin: ")
	color.Set(color.FgMagenta)
	if r.FromBegin {
		fmt.Println("start")
	} else {
		fmt.Println(app.FormatTime(r.BeginTime))
	}
	color.Set(color.FgYellow)
	fmt.Print("end: ")
	color.Set(color.FgMagenta)
	if r.ToEnd {
		fmt.Println("end")
	} else {
		fmt.Println(app.FormatTime(r.EndTime))
	}
	color.Unset()
}

func printJob(id int64, job *cutting.Job) {
	color.Set(color.FgYellow)
	fmt.Printf("job %d: ", id)
	color.Set(color.FgGreen)
	fmt.Printf("%s\n", job.Source)
	color.Set(color.FgYellow)
	fmt.Print("  begin: ")
	color.Set(color.FgMagenta)
	fmt.Printf("%s", app.FormatTime(job.TimeBegin))
	color.Set(color.FgYellow)
	fmt.Print("  duration: ")
	color.Set(color.FgMagenta)
	if job.TimeDuration == 0 {
		fmt.Println("to end")
	} else {
		fmt.Println(app.FormatTime(job.TimeDuration))
	}
	color.Unset()
}

func critical(title, message string) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "%s: ", title)
	color.New(color.FgRed).Fprintln(os.Stderr, message)
}

func printError(err error) {
	color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
}
