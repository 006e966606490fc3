package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// mockMPV accepts connections on a Unix socket and answers every command
// with success, echoing its request_id. Lines in before are written ahead
// of each response to simulate interleaved events.
type mockMPV struct {
	mu       sync.Mutex
	commands [][]any
	before   []string
	data     json.RawMessage
}

func (m *mockMPV) recorded() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]any(nil), m.commands...)
}

func startMockMPV(t *testing.T, m *mockMPV) string {
	t.Helper()

	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() {
		ln.Close()
		os.Remove(sockPath)
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go m.serve(conn)
		}
	}()

	return sockPath
}

func (m *mockMPV) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd Command
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			return
		}
		m.mu.Lock()
		m.commands = append(m.commands, cmd.Command)
		before := m.before
		data := m.data
		m.mu.Unlock()

		for _, line := range before {
			conn.Write([]byte(line + "\n"))
		}
		resp, _ := json.Marshal(Response{Error: "success", RequestID: cmd.RequestID, Data: data})
		conn.Write(append(resp, '\n'))
	}
}

func TestClientSendCommand(t *testing.T) {
	m := &mockMPV{data: json.RawMessage(`12.5`)}
	sockPath := startMockMPV(t, m)

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	got, err := client.SendCommand(Cmd("get_property", PropTimePos))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !got.OK() {
		t.Errorf("error = %q, want success", got.Error)
	}
	f, err := got.Float()
	if err != nil {
		t.Fatalf("float: %v", err)
	}
	if f != 12.5 {
		t.Errorf("data = %v, want 12.5", f)
	}

	cmds := m.recorded()
	if len(cmds) != 1 || cmds[0][0] != "get_property" || cmds[0][1] != PropTimePos {
		t.Errorf("commands = %v", cmds)
	}
}

func TestClientSkipsInterleavedEvents(t *testing.T) {
	m := &mockMPV{before: []string{
		`{"event":"playback-restart"}`,
		`{"event":"property-change","id":1,"name":"time-pos","data":3.0}`,
	}}
	sockPath := startMockMPV(t, m)

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	for i := 0; i < 2; i++ {
		resp, err := client.SendCommand(Cmd("cycle", PropPause))
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		if resp.Event != "" {
			t.Errorf("send %d returned event %q as response", i, resp.Event)
		}
	}
}

func TestClientErrorResponse(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		if !scanner.Scan() {
			return
		}
		var cmd Command
		json.Unmarshal(scanner.Bytes(), &cmd)
		resp, _ := json.Marshal(Response{Error: "property unavailable", RequestID: cmd.RequestID})
		conn.Write(append(resp, '\n'))
	}()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	resp, err := client.SendCommand(Cmd("get_property", PropDuration))
	if err == nil {
		t.Fatal("expected error for non-success response")
	}
	if resp.Error != "property unavailable" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestClientConnectFailure(t *testing.T) {
	_, err := Connect("/nonexistent/path/mpv.sock")
	if err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}

func TestClientReadEvents(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		lines := []string{
			`{"error":"success","request_id":1}`,
			`{"event":"property-change","id":2,"name":"duration","data":93.4}`,
			`{"event":"end-file","reason":"eof"}`,
		}
		for _, l := range lines {
			conn.Write([]byte(l + "\n"))
		}
	}()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != "property-change" || ev1.Name != PropDuration {
		t.Errorf("event1 = %+v", ev1)
	}
	if sec, ok := ev1.Seconds(); !ok || sec != 93.4 {
		t.Errorf("event1 seconds = %v, %v", sec, ok)
	}

	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != "end-file" || ev2.Reason != "eof" {
		t.Errorf("event2 = %+v", ev2)
	}
}

func TestClientDeadline(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "mpv.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	// Reads commands and never answers.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
		}
	}()

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if err := client.Send(Cmd("quit")); err != nil {
		t.Fatalf("send: %v", err)
	}
	client.SetDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := client.SendCommand(Cmd("get_property", PropDuration)); err == nil {
		t.Error("expected a timeout from a silent player")
	}
}
