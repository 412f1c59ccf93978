// Package ipc exposes the status socket consumed by waybar and the
// query CLI. The wire format is line-delimited JSON over a unix socket.
package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/wm"
)

// SocketPath returns the status socket location, preferring the
// runtime dir so the socket dies with the session.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "riverbsp.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("riverbsp-%d.sock", os.Getuid()))
}

// subscriber is one connected status stream. Payloads are pushed over a
// buffered channel; a slow reader gets frames dropped, never blocks us.
type subscriber struct {
	conn   net.Conn
	out    chan []byte
	output string
	last   []byte
}

// Server owns the unix socket and fans state snapshots out to
// subscribers. Publish is called from the dispatch goroutine; accept
// and writer goroutines never touch window-manager state.
type Server struct {
	listener net.Listener
	path     string

	mu   sync.Mutex
	subs map[*subscriber]struct{}
	snap wm.Snapshot
	seen bool
}

// Listen binds the status socket, replacing a stale one from a
// previous run.
func Listen(path string) (*Server, error) {
	if _, err := os.Stat(path); err == nil {
		logger.Debug("removing stale status socket", "path", path)
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to restrict socket permissions: %w", err)
	}

	s := &Server{
		listener: l,
		path:     path,
		subs:     make(map[*subscriber]struct{}),
	}
	go s.accept()
	logger.Info("status socket listening", "path", path)
	return s, nil
}

// Close shuts the listener, disconnects subscribers and removes the
// socket file.
func (s *Server) Close() error {
	err := s.listener.Close()
	s.mu.Lock()
	for sub := range s.subs {
		close(sub.out)
		delete(s.subs, sub)
	}
	s.mu.Unlock()
	os.Remove(s.path)
	return err
}

// Publish renders the snapshot for every subscriber and queues the
// frames. Identical consecutive frames are suppressed per subscriber.
func (s *Server) Publish(snap wm.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.seen = true

	for sub := range s.subs {
		payload, err := renderStatus(snap, sub.output)
		if err != nil {
			logger.Error("status encode failed", "error", err)
			return
		}
		if bytes.Equal(payload, sub.last) {
			continue
		}
		sub.last = append(sub.last[:0], payload...)
		select {
		case sub.out <- payload:
		default:
			logger.Debug("dropping status frame for slow subscriber")
		}
	}
}

// renderStatus encodes the tag bar for one output as a single JSON
// line. An empty output name means the first output in name order.
func renderStatus(snap wm.Snapshot, output string) ([]byte, error) {
	states, ok := snap.Status[output]
	if !ok {
		if output != "" {
			states = []wm.TagState{}
		} else {
			var first string
			for name := range snap.Status {
				if first == "" || name < first {
					first = name
				}
			}
			states = snap.Status[first]
		}
	}
	if states == nil {
		states = []wm.TagState{}
	}
	payload, err := json.Marshal(states)
	if err != nil {
		return nil, err
	}
	return append(payload, '\n'), nil
}

func (s *Server) accept() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.serve(conn)
	}
}

// serve reads the single request line and either streams status frames
// or answers a one-shot query.
func (s *Server) serve(conn net.Conn) {
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		conn.Close()
		return
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		conn.Close()
		return
	}

	switch fields[0] {
	case "subscribe":
		var output string
		if len(fields) > 1 {
			output = fields[1]
		}
		s.subscribe(conn, output)
	case "windows":
		s.mu.Lock()
		windows := s.snap.Windows
		s.mu.Unlock()
		if windows == nil {
			windows = []wm.WindowInfo{}
		}
		if payload, err := json.Marshal(windows); err == nil {
			conn.Write(append(payload, '\n'))
		}
		conn.Close()
	default:
		logger.Debug("unknown ipc request", "request", fields[0])
		conn.Close()
	}
}

func (s *Server) subscribe(conn net.Conn, output string) {
	sub := &subscriber{
		conn:   conn,
		out:    make(chan []byte, 8),
		output: output,
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	// Prime the stream with the current state so waybar shows tags
	// immediately instead of waiting for the next change.
	if s.seen {
		if payload, err := renderStatus(s.snap, output); err == nil {
			sub.last = append(sub.last[:0], payload...)
			sub.out <- payload
		}
	}
	s.mu.Unlock()

	go s.writeLoop(sub)
}

func (s *Server) writeLoop(sub *subscriber) {
	defer func() {
		sub.conn.Close()
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
	}()
	for payload := range sub.out {
		if _, err := sub.conn.Write(payload); err != nil {
			return
		}
	}
}
