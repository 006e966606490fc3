// Package jobserver exposes the conversion job queue as MCP tools, so an
// agent can list jobs, queue new ones and set the range a job converts.
package jobserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jwulff/cutter/internal/cutting"
	"github.com/jwulff/cutter/internal/db"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Name is the server name reported to MCP clients.
const Name = "cutter"

// Tool names.
const (
	ToolListJobs     = "list_jobs"
	ToolGetJob       = "get_job"
	ToolAddJob       = "add_job"
	ToolSetJobRange  = "set_job_range"
	ToolSetSelection = "set_job_selection"
)

// Store is the part of db.Store the tools use.
type Store interface {
	Jobs() ([]db.Job, error)
	Job(id int64) (*db.Job, error)
	AddJob(source, output string, timeBegin, timeDuration int) (*db.Job, error)
	UpdateJobRange(id int64, timeBegin, timeDuration int) error
}

// JobResult is the JSON form of a job returned by every tool.
type JobResult struct {
	ID           int64      `json:"id"`
	Source       string     `json:"source"`
	Output       string     `json:"output,omitempty"`
	TimeBegin    int        `json:"time_begin"`
	TimeDuration int        `json:"time_duration"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func jobResult(j *db.Job) JobResult {
	return JobResult{
		ID:           j.ID,
		Source:       j.Source,
		Output:       j.Output,
		TimeBegin:    j.TimeBegin,
		TimeDuration: j.TimeDuration,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

// ListResult wraps the job list; structured tool output must be an object.
type ListResult struct {
	Jobs []JobResult `json:"jobs"`
}

type handlers struct {
	store Store
}

// New returns an MCP server whose tools read and update store.
func New(store Store, version string) *server.MCPServer {
	s := server.NewMCPServer(Name, version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Conversion jobs cut a media file to time_begin..time_begin+time_duration, "+
			"in whole seconds. time_begin 0 means from the start and time_duration 0 means to the end."),
	)
	h := handlers{store: store}

	s.AddTool(mcp.NewTool(ToolListJobs,
		mcp.WithDescription("List queued conversion jobs, oldest first"),
		mcp.WithReadOnlyHintAnnotation(true),
	), h.listJobs)

	s.AddTool(mcp.NewTool(ToolGetJob,
		mcp.WithDescription("Get one conversion job"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Job id")),
	), h.getJob)

	s.AddTool(mcp.NewTool(ToolAddJob,
		mcp.WithDescription("Queue a conversion job for a media file"),
		mcp.WithString("source", mcp.Required(), mcp.Description("Path of the media file")),
		mcp.WithString("output", mcp.Description("Path to write the converted file to")),
		mcp.WithNumber("time_begin", mcp.Min(0), mcp.DefaultNumber(0),
			mcp.Description("Begin in seconds; 0 converts from the start")),
		mcp.WithNumber("time_duration", mcp.Min(0), mcp.DefaultNumber(0),
			mcp.Description("Length in seconds; 0 converts to the end")),
	), h.addJob)

	s.AddTool(mcp.NewTool(ToolSetJobRange,
		mcp.WithDescription("Set a job's begin and duration"),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Job id")),
		mcp.WithNumber("time_begin", mcp.Required(), mcp.Min(0),
			mcp.Description("Begin in seconds; 0 converts from the start")),
		mcp.WithNumber("time_duration", mcp.Required(), mcp.Min(0),
			mcp.Description("Length in seconds; 0 converts to the end")),
	), h.setJobRange)

	s.AddTool(mcp.NewTool(ToolSetSelection,
		mcp.WithDescription("Set a job's range from a begin/end selection"),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Job id")),
		mcp.WithNumber("begin_time", mcp.Min(0), mcp.Description("Begin in seconds, ignored with from_begin")),
		mcp.WithNumber("end_time", mcp.Min(0), mcp.Description("End in seconds, ignored with to_end")),
		mcp.WithBoolean("from_begin", mcp.Description("Convert from the start of the media")),
		mcp.WithBoolean("to_end", mcp.Description("Convert to the end of the media")),
	), h.setSelection)

	return s
}

func (h handlers) listJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobs, err := h.store.Jobs()
	if err != nil {
		return nil, err
	}
	res := ListResult{Jobs: make([]JobResult, 0, len(jobs))}
	for i := range jobs {
		res.Jobs = append(res.Jobs, jobResult(&jobs[i]))
	}
	return mcp.NewToolResultJSON(res)
}

func (h handlers) getJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return h.jobResult(int64(id))
}

func (h handlers) addJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if source == "" {
		return mcp.NewToolResultError("source must not be empty"), nil
	}
	begin := req.GetInt("time_begin", 0)
	duration := req.GetInt("time_duration", 0)
	if begin < 0 || duration < 0 {
		return mcp.NewToolResultError("time_begin and time_duration must not be negative"), nil
	}

	job, err := h.store.AddJob(source, req.GetString("output", ""), begin, duration)
	if err != nil {
		return nil, err
	}
	log.Printf("jobserver: queued job %d for %s", job.ID, job.Source)
	return mcp.NewToolResultJSON(jobResult(job))
}

func (h handlers) setJobRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	begin, err := req.RequireInt("time_begin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration, err := req.RequireInt("time_duration")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if begin < 0 || duration < 0 {
		return mcp.NewToolResultError("time_begin and time_duration must not be negative"), nil
	}
	return h.updateRange(int64(id), begin, duration)
}

// setSelection takes the begin/end form the cutting dialog edits and stores
// it as begin+duration.
func (h handlers) setSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r := cutting.TimeRange{
		BeginTime: req.GetInt("begin_time", 0),
		EndTime:   req.GetInt("end_time", 0),
		FromBegin: req.GetBool("from_begin", false),
		ToEnd:     req.GetBool("to_end", false),
	}
	begin, duration := r.JobRange()
	if begin < 0 {
		return mcp.NewToolResultError("begin_time must not be negative"), nil
	}
	// A zero duration would silently mean "to the end".
	if !r.ToEnd && duration <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("end_time %d must be after begin %d", r.EndTime, begin)), nil
	}
	return h.updateRange(int64(id), begin, duration)
}

func (h handlers) updateRange(id int64, begin, duration int) (*mcp.CallToolResult, error) {
	if err := h.store.UpdateJobRange(id, begin, duration); err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	log.Printf("jobserver: job %d: begin %d duration %d", id, begin, duration)
	return h.jobResult(id)
}

func (h handlers) jobResult(id int64) (*mcp.CallToolResult, error) {
	job, err := h.store.Job(id)
	if err != nil {
		if errors.Is(err, db.ErrJobNotFound) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultJSON(jobResult(job))
}
