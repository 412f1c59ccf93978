// Package transport defines the contract between the window manager core
// and the compositor. The concrete Wayland adapter lives in wayland.go; the
// core only ever sees this interface, which keeps the protocol plumbing out
// of the state machine and lets tests drive it with a fake.
package transport

import "errors"

// ErrConnectionLost reports that the compositor went away. There is no
// recovery: callers terminate cleanly.
var ErrConnectionLost = errors.New("compositor connection lost")

// Placement is one view geometry proposed to the compositor.
type Placement struct {
	View       uint32
	X, Y, W, H int32
	Border     int32
}

// OutputInfo describes an output as reported by the compositor.
type OutputInfo struct {
	ID         uint32
	Name       string
	PhysWidth  int32
	PhysHeight int32
	RefreshMHz int32
	ScaleMilli int32
}

// ViewInfo describes a mapped view as reported by the compositor.
type ViewInfo struct {
	ID    uint32
	AppID string
}

// Conn is the outbound half of the protocol contract. Requests are
// synchronous from the caller's point of view: they are flushed before the
// next inbound event is dispatched.
type Conn interface {
	// Events delivers inbound compositor events in arrival order. The
	// channel closes after a fatal transport error.
	Events() <-chan Event

	// ProposeLayout submits the computed geometries for one (output, tag)
	// pair and returns the geometries the compositor settled on, normally
	// an echo of the proposal.
	ProposeLayout(output uint32, tag int, placements []Placement) ([]Placement, error)

	RequestFocus(view uint32) error
	RequestClose(view uint32) error
	SetFullscreen(view uint32, fullscreen bool) error

	// GrabKey asks the compositor to route the key combination to us as
	// KeyPressed events.
	GrabKey(keysym uint32, mods uint32) error

	// SetKeyboardLayout forwards the xkb rule names from the configuration.
	SetKeyboardLayout(layout, variant, options, model string) error

	ListOutputs() ([]OutputInfo, error)
	ListViews() ([]ViewInfo, error)

	Close() error
}

// Event is an inbound compositor event. The concrete types below form the
// closed set the dispatch loop switches over.
type Event interface{ isEvent() }

// OutputAdded announces a new output. Physical size and scale are raw; the
// state core derives the logical rectangle from the configuration rules.
type OutputAdded struct {
	ID         uint32
	Name       string
	PhysWidth  int32
	PhysHeight int32
	RefreshMHz int32
	ScaleMilli int32
}

// OutputRemoved announces an output hotplug-remove.
type OutputRemoved struct {
	ID uint32
}

// OutputResized carries a new physical size for an existing output.
type OutputResized struct {
	ID         uint32
	PhysWidth  int32
	PhysHeight int32
}

// OutputRescaled carries a new scale, in thousandths.
type OutputRescaled struct {
	ID         uint32
	ScaleMilli int32
}

// ViewMapped announces a newly mapped window.
type ViewMapped struct {
	ID    uint32
	AppID string
}

// ViewUnmapped announces a window going away.
type ViewUnmapped struct {
	ID uint32
}

// KeyPressed reports a grabbed key combination. Keysym is already resolved
// through the active keyboard layout; Mods is the modifier bitmask defined
// in internal/binds.
type KeyPressed struct {
	Keysym uint32
	Mods   uint32
}

// FocusChanged reports a compositor-driven focus change, e.g. click-to-focus.
type FocusChanged struct {
	View uint32
}

// ConnectionLost is the final event before Events() closes.
type ConnectionLost struct {
	Err error
}

func (OutputAdded) isEvent()    {}
func (OutputRemoved) isEvent()  {}
func (OutputResized) isEvent()  {}
func (OutputRescaled) isEvent() {}
func (ViewMapped) isEvent()     {}
func (ViewUnmapped) isEvent()   {}
func (KeyPressed) isEvent()     {}
func (FocusChanged) isEvent()   {}
func (ConnectionLost) isEvent() {}
