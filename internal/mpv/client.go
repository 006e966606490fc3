package mpv

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// SocketPath returns the default IPC socket path for a player launched by
// this process.
func SocketPath() string {
	return filepath.Join(os.TempDir(), "cutter-mpv-"+strconv.Itoa(os.Getpid())+".sock")
}

// Client talks to mpv over a Unix socket.
type Client struct {
	conn    net.Conn
	scanner *bufio.Scanner
	mu      sync.Mutex
	nextID  int
}

// Connect dials the mpv IPC socket.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to mpv: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB buffer

	return &Client{conn: conn, scanner: scanner}, nil
}

// Close shuts down the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SetDeadline bounds every later read and write on the connection. A zero
// time clears it.
func (c *Client) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// Send writes a command without waiting for its response. mpv's answer is
// left on the connection, where ReadEvent skips it.
func (c *Client) Send(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	cmd.RequestID = c.nextID
	return c.write(cmd)
}

// SendCommand sends a command and waits for its response, skipping any
// events mpv interleaves on the connection. A response whose error is not
// "success" is returned along with a non-nil error.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	cmd.RequestID = c.nextID
	if err := c.write(cmd); err != nil {
		return Response{}, err
	}

	for {
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return Response{}, fmt.Errorf("read response: %w", err)
			}
			return Response{}, fmt.Errorf("connection closed")
		}

		var resp Response
		if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
			return Response{}, fmt.Errorf("unmarshal response: %w", err)
		}
		if resp.Event != "" {
			continue
		}
		if resp.RequestID != 0 && resp.RequestID != cmd.RequestID {
			continue
		}
		if !resp.OK() {
			return resp, fmt.Errorf("mpv %s: %s", cmd.name(), resp.Error)
		}
		return resp, nil
	}
}

func (c *Client) write(cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// ReadEvent reads the next event line. Blocks until data arrives. Responses
// to commands sent on this client are skipped.
func (c *Client) ReadEvent() (Event, error) {
	for {
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return Event{}, fmt.Errorf("read event: %w", err)
			}
			return Event{}, fmt.Errorf("connection closed")
		}

		var ev Event
		if err := json.Unmarshal(c.scanner.Bytes(), &ev); err != nil {
			return Event{}, fmt.Errorf("unmarshal event: %w", err)
		}
		if ev.Event == "" {
			continue
		}
		return ev, nil
	}
}
