package jobserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwulff/cutter/internal/db"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createTestServer returns a tool server over a fresh job database.
func createTestServer(t *testing.T) (*server.MCPServer, *db.Store) {
	t.Helper()

	store, err := db.Open(filepath.Join(t.TempDir(), "jobs.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store, "test"), store
}

// callTool invokes a registered tool the way the MCP server dispatches it.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	tool := s.GetTool(name)
	if tool == nil {
		t.Fatalf("tool %s not registered", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := tool.Handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return text.Text
}

func decodeJob(t *testing.T, res *mcp.CallToolResult) JobResult {
	t.Helper()

	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	var j JobResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &j); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return j
}

func TestToolsRegistered(t *testing.T) {
	s, _ := createTestServer(t)

	tools := s.ListTools()
	for _, name := range []string{ToolListJobs, ToolGetJob, ToolAddJob, ToolSetJobRange, ToolSetSelection} {
		if tools[name] == nil {
			t.Errorf("%s not registered", name)
		}
	}
}

func TestAddAndGetJob(t *testing.T) {
	s, _ := createTestServer(t)

	added := decodeJob(t, callTool(t, s, ToolAddJob, map[string]any{
		"source":        "/media/talk.mkv",
		"output":        "/out/talk.mp4",
		"time_begin":    float64(30),
		"time_duration": float64(45),
	}))
	if added.ID == 0 {
		t.Fatal("expected a job id")
	}
	if added.Source != "/media/talk.mkv" || added.TimeBegin != 30 || added.TimeDuration != 45 {
		t.Errorf("added = %+v", added)
	}

	got := decodeJob(t, callTool(t, s, ToolGetJob, map[string]any{"id": float64(added.ID)}))
	if got.ID != added.ID || got.Output != "/out/talk.mp4" {
		t.Errorf("got = %+v, want %+v", got, added)
	}
}

func TestAddJobDefaultsToEntireMedia(t *testing.T) {
	s, _ := createTestServer(t)

	added := decodeJob(t, callTool(t, s, ToolAddJob, map[string]any{"source": "a.mp4"}))
	if added.TimeBegin != 0 || added.TimeDuration != 0 {
		t.Errorf("added = %+v, want begin 0 duration 0", added)
	}
}

func TestAddJobRejectsBadArguments(t *testing.T) {
	s, store := createTestServer(t)

	if res := callTool(t, s, ToolAddJob, map[string]any{}); !res.IsError {
		t.Error("missing source should be a tool error")
	}
	res := callTool(t, s, ToolAddJob, map[string]any{"source": "a.mp4", "time_begin": float64(-1)})
	if !res.IsError {
		t.Error("negative begin should be a tool error")
	}

	jobs, err := store.Jobs()
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("rejected calls queued %d jobs", len(jobs))
	}
}

func TestListJobs(t *testing.T) {
	s, store := createTestServer(t)

	res := callTool(t, s, ToolListJobs, nil)
	var list ListResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Jobs) != 0 {
		t.Errorf("empty store listed %d jobs", len(list.Jobs))
	}

	store.AddJob("a.mp4", "", 0, 0)
	store.AddJob("b.mp4", "", 10, 5)

	res = callTool(t, s, ToolListJobs, nil)
	if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Jobs) != 2 {
		t.Fatalf("listed %d jobs, want 2", len(list.Jobs))
	}
	if list.Jobs[0].Source != "a.mp4" || list.Jobs[1].TimeBegin != 10 {
		t.Errorf("jobs = %+v", list.Jobs)
	}
}

func TestGetJobNotFound(t *testing.T) {
	s, _ := createTestServer(t)

	res := callTool(t, s, ToolGetJob, map[string]any{"id": float64(99)})
	if !res.IsError {
		t.Fatal("unknown job should be a tool error")
	}
	if !strings.Contains(resultText(t, res), "not found") {
		t.Errorf("error = %q", resultText(t, res))
	}
}

func TestSetJobRange(t *testing.T) {
	s, store := createTestServer(t)
	job, err := store.AddJob("a.mp4", "", 0, 0)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	got := decodeJob(t, callTool(t, s, ToolSetJobRange, map[string]any{
		"id":            float64(job.ID),
		"time_begin":    float64(12),
		"time_duration": float64(28),
	}))
	if got.TimeBegin != 12 || got.TimeDuration != 28 {
		t.Errorf("job = %+v, want begin 12 duration 28", got)
	}
	if got.UpdatedAt == nil {
		t.Error("expected updated_at after a range change")
	}

	res := callTool(t, s, ToolSetJobRange, map[string]any{
		"id":            float64(job.ID + 1),
		"time_begin":    float64(0),
		"time_duration": float64(0),
	})
	if !res.IsError {
		t.Error("unknown job should be a tool error")
	}
}

func TestSetSelectionConvertsToBeginDuration(t *testing.T) {
	s, store := createTestServer(t)
	job, err := store.AddJob("a.mp4", "", 0, 0)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	got := decodeJob(t, callTool(t, s, ToolSetSelection, map[string]any{
		"id":         float64(job.ID),
		"begin_time": float64(30),
		"end_time":   float64(75),
	}))
	if got.TimeBegin != 30 || got.TimeDuration != 45 {
		t.Errorf("bounded selection = %+v, want begin 30 duration 45", got)
	}

	// Flags win over the numeric fields.
	got = decodeJob(t, callTool(t, s, ToolSetSelection, map[string]any{
		"id":         float64(job.ID),
		"begin_time": float64(30),
		"end_time":   float64(75),
		"from_begin": true,
		"to_end":     true,
	}))
	if got.TimeBegin != 0 || got.TimeDuration != 0 {
		t.Errorf("entire media selection = %+v, want begin 0 duration 0", got)
	}
}

func TestSetSelectionRejectsEmptyRange(t *testing.T) {
	s, store := createTestServer(t)
	job, err := store.AddJob("a.mp4", "", 5, 10)
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	res := callTool(t, s, ToolSetSelection, map[string]any{
		"id":         float64(job.ID),
		"begin_time": float64(40),
		"end_time":   float64(40),
	})
	if !res.IsError {
		t.Fatal("an empty bounded range should be a tool error")
	}

	stored, err := store.Job(job.ID)
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if stored.TimeBegin != 5 || stored.TimeDuration != 10 {
		t.Errorf("rejected selection changed job: %+v", stored)
	}
}
