// Package protocols provides the low-level proxy for the river window
// management protocol. The wire handling comes from wlturbo; this file only
// encodes requests and decodes events for the manager global.
package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface name for the window management global.
const WindowManagementInterface = "river_window_management_v1"

// WindowManagementVersion is the highest protocol version we speak.
const WindowManagementVersion = 3

// Request opcodes.
const (
	opcodeDestroy         = 0
	opcodeProposeGeometry = 1
	opcodeCommitLayout    = 2
	opcodeFocusWindow     = 3
	opcodeCloseWindow     = 4
	opcodeSetFullscreen   = 5
	opcodeGrabKey         = 6
	opcodeSetXkbConfig    = 7
)

// Event opcodes.
const (
	eventOutputAdded    = 0
	eventOutputRemoved  = 1
	eventOutputResized  = 2
	eventOutputRescaled = 3
	eventWindowMapped   = 4
	eventWindowUnmapped = 5
	eventKeyPressed     = 6
	eventFocusChanged   = 7
)

// WindowManagerHandler receives decoded manager events.
type WindowManagerHandler interface {
	HandleOutputAdded(id uint32, name string, physW, physH, refreshMHz, scaleMilli int32)
	HandleOutputRemoved(id uint32)
	HandleOutputResized(id uint32, physW, physH int32)
	HandleOutputRescaled(id uint32, scaleMilli int32)
	HandleWindowMapped(id uint32, appID string)
	HandleWindowUnmapped(id uint32)
	HandleKeyPressed(keysym, mods uint32)
	HandleFocusChanged(view uint32)
}

// WindowManager is the client-side proxy for river_window_management_v1.
type WindowManager struct {
	wl.BaseProxy
	handler WindowManagerHandler
}

// NewWindowManager creates a window manager proxy registered on the context.
func NewWindowManager(ctx *wl.Context) *WindowManager {
	m := &WindowManager{}
	ctx.Register(m)
	return m
}

// SetHandler sets the event handler.
func (m *WindowManager) SetHandler(h WindowManagerHandler) {
	m.handler = h
}

// ProposeGeometry proposes the placement of one window within a tag layout.
func (m *WindowManager) ProposeGeometry(view, tag uint32, x, y, w, h, border int32) error {
	return m.Context().SendRequest(m, opcodeProposeGeometry, view, tag, x, y, w, h, border)
}

// CommitLayout atomically applies all geometries proposed for (output, tag)
// since the last commit.
func (m *WindowManager) CommitLayout(output, tag uint32) error {
	return m.Context().SendRequest(m, opcodeCommitLayout, output, tag)
}

// FocusWindow asks the compositor to give keyboard focus to the window.
func (m *WindowManager) FocusWindow(view uint32) error {
	return m.Context().SendRequest(m, opcodeFocusWindow, view)
}

// CloseWindow asks the window to close. The unmap arrives as an event.
func (m *WindowManager) CloseWindow(view uint32) error {
	return m.Context().SendRequest(m, opcodeCloseWindow, view)
}

// SetFullscreen toggles the compositor-side fullscreen state of a window.
func (m *WindowManager) SetFullscreen(view uint32, fullscreen bool) error {
	state := uint32(0)
	if fullscreen {
		state = 1
	}
	return m.Context().SendRequest(m, opcodeSetFullscreen, view, state)
}

// GrabKey registers a key combination; presses arrive as key_pressed events.
func (m *WindowManager) GrabKey(keysym, mods uint32) error {
	return m.Context().SendRequest(m, opcodeGrabKey, keysym, mods)
}

// SetXkbConfig forwards xkb rule names for the seat's keyboards.
func (m *WindowManager) SetXkbConfig(layout, variant, options, model string) error {
	return m.Context().SendRequest(m, opcodeSetXkbConfig, layout, variant, options, model)
}

// Destroy destroys the proxy.
func (m *WindowManager) Destroy() error {
	err := m.Context().SendRequest(m, opcodeDestroy)
	m.Context().Unregister(m)
	return err
}

// Dispatch handles incoming events.
func (m *WindowManager) Dispatch(event *wl.Event) {
	if m.handler == nil {
		return
	}

	switch event.Opcode {
	case eventOutputAdded:
		id := event.Uint32()
		name := event.String()
		physW := event.Int32()
		physH := event.Int32()
		refresh := event.Int32()
		scale := event.Int32()
		m.handler.HandleOutputAdded(id, name, physW, physH, refresh, scale)
	case eventOutputRemoved:
		m.handler.HandleOutputRemoved(event.Uint32())
	case eventOutputResized:
		id := event.Uint32()
		physW := event.Int32()
		physH := event.Int32()
		m.handler.HandleOutputResized(id, physW, physH)
	case eventOutputRescaled:
		id := event.Uint32()
		scale := event.Int32()
		m.handler.HandleOutputRescaled(id, scale)
	case eventWindowMapped:
		id := event.Uint32()
		appID := event.String()
		m.handler.HandleWindowMapped(id, appID)
	case eventWindowUnmapped:
		m.handler.HandleWindowUnmapped(event.Uint32())
	case eventKeyPressed:
		keysym := event.Uint32()
		mods := event.Uint32()
		m.handler.HandleKeyPressed(keysym, mods)
	case eventFocusChanged:
		m.handler.HandleFocusChanged(event.Uint32())
	}
}
