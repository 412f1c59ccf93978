package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"

	"github.com/rrwm/riverbsp/internal/wm"
)

// Client talks to a running daemon's status socket.
type Client struct {
	path string
}

// NewClient returns a client for the socket at path. An empty path
// uses the default location.
func NewClient(path string) *Client {
	if path == "" {
		path = SocketPath()
	}
	return &Client{path: path}
}

func (c *Client) dial() (net.Conn, error) {
	conn, err := net.Dial("unix", c.path)
	if err != nil {
		return nil, fmt.Errorf("is the daemon running? dial %s: %w", c.path, err)
	}
	return conn, nil
}

// Subscribe streams tag status updates for one output, invoking fn for
// every frame until the connection drops or fn returns an error. An
// empty output subscribes to the daemon's first output.
func (c *Client) Subscribe(output string, fn func([]wm.TagState) error) error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	req := "subscribe"
	if output != "" {
		req += " " + output
	}
	if _, err := fmt.Fprintln(conn, req); err != nil {
		return err
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var states []wm.TagState
		if err := json.Unmarshal(scanner.Bytes(), &states); err != nil {
			return fmt.Errorf("bad status frame: %w", err)
		}
		if err := fn(states); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Windows asks the daemon for its managed window list.
func (c *Client) Windows() ([]wm.WindowInfo, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := fmt.Fprintln(conn, "windows"); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading window list: %w", err)
	}
	var windows []wm.WindowInfo
	if err := json.Unmarshal(line, &windows); err != nil {
		return nil, fmt.Errorf("bad window list: %w", err)
	}
	return windows, nil
}
