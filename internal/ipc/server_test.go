package ipc

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrwm/riverbsp/internal/wm"
)

func testSnapshot(focusedTag int) wm.Snapshot {
	states := []wm.TagState{
		{Icon: "1", Style: "empty"},
		{Icon: "2", Style: "empty"},
	}
	states[focusedTag-1].Style = "focused"
	return wm.Snapshot{
		Status: map[string][]wm.TagState{"DP-1": states},
		Windows: []wm.WindowInfo{
			{ID: 10, AppID: "foot", Output: "DP-1", Tags: 1, Focused: true},
		},
	}
}

func startServer(t *testing.T) (*Server, *Client) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riverbsp.sock")
	srv, err := Listen(path)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv, NewClient(path)
}

var errDone = errors.New("done")

func TestSubscribeReceivesCurrentStateFirst(t *testing.T) {
	srv, client := startServer(t)
	srv.Publish(testSnapshot(1))

	var got []wm.TagState
	err := client.Subscribe("DP-1", func(states []wm.TagState) error {
		got = states
		return errDone
	})
	require.ErrorIs(t, err, errDone)
	require.Len(t, got, 2)
	assert.Equal(t, "focused", got[0].Style)
}

func TestSubscribeStreamsChangesAndSuppressesDuplicates(t *testing.T) {
	srv, client := startServer(t)
	srv.Publish(testSnapshot(1))

	frames := make(chan []wm.TagState, 4)
	go client.Subscribe("DP-1", func(states []wm.TagState) error {
		frames <- states
		return nil
	})

	first := <-frames
	assert.Equal(t, "focused", first[0].Style)

	// An identical publish must not produce a frame; the changed one
	// right after must, and it must be the next frame received.
	srv.Publish(testSnapshot(1))
	srv.Publish(testSnapshot(2))

	select {
	case second := <-frames:
		assert.Equal(t, "empty", second[0].Style)
		assert.Equal(t, "focused", second[1].Style)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame after state change")
	}
}

func TestSubscribeUnknownOutputGetsEmptyBar(t *testing.T) {
	srv, client := startServer(t)
	srv.Publish(testSnapshot(1))

	var got []wm.TagState
	err := client.Subscribe("HDMI-A-9", func(states []wm.TagState) error {
		got = states
		return errDone
	})
	require.ErrorIs(t, err, errDone)
	assert.Empty(t, got)
}

func TestStalledSubscriberNeverBlocksPublish(t *testing.T) {
	srv, client := startServer(t)

	// A subscriber that never reads its stream.
	stalled, err := net.Dial("unix", srv.path)
	require.NoError(t, err)
	defer stalled.Close()
	_, err = stalled.Write([]byte("subscribe DP-1\n"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	// Publishing must stay prompt regardless; frames for the stalled
	// reader get dropped, not queued without bound.
	done := make(chan struct{})
	go func() {
		for tag := 1; tag <= 2; tag++ {
			for i := 0; i < 50; i++ {
				srv.Publish(testSnapshot(tag))
			}
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a stalled subscriber")
	}

	// A healthy client still gets the current state.
	var got []wm.TagState
	err = client.Subscribe("DP-1", func(states []wm.TagState) error {
		got = states
		return errDone
	})
	require.ErrorIs(t, err, errDone)
	assert.Equal(t, "focused", got[1].Style)
}

func TestWindowsQuery(t *testing.T) {
	srv, client := startServer(t)
	srv.Publish(testSnapshot(1))

	windows, err := client.Windows()
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, uint32(10), windows[0].ID)
	assert.Equal(t, "foot", windows[0].AppID)
	assert.True(t, windows[0].Focused)
}

func TestWindowsQueryBeforeFirstPublish(t *testing.T) {
	_, client := startServer(t)

	windows, err := client.Windows()
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestListenReplacesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "riverbsp.sock")

	// Simulate a crashed daemon leaving the socket behind.
	require.NoError(t, os.WriteFile(path, nil, 0600))

	second, err := Listen(path)
	require.NoError(t, err)
	defer second.Close()

	srvSnap := testSnapshot(1)
	second.Publish(srvSnap)
	windows, err := NewClient(path).Windows()
	require.NoError(t, err)
	assert.Len(t, windows, 1)
}
