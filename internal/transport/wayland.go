package transport

import (
	"fmt"
	"sync"

	"github.com/bnema/wlturbo/wl"

	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/transport/protocols"
)

// WaylandConn is the production Conn: it speaks the river window management
// protocol over the session's Wayland socket.
type WaylandConn struct {
	display *wl.Display
	manager *protocols.WindowManager

	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	outputs map[uint32]OutputInfo
	views   map[uint32]ViewInfo
}

// eventBuffer bounds the inbound queue. The dispatch loop drains it promptly;
// hitting the cap means the core stalled, and the pump blocking is the
// correct backpressure.
const eventBuffer = 64

// DialWayland connects to $WAYLAND_DISPLAY, binds the river window
// management global and begins pumping events. A compositor without the
// global is a hard error: nothing works without it.
func DialWayland() (*WaylandConn, error) {
	display, err := wl.Connect("")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display: %w", err)
	}

	registry := display.GetRegistry()

	c := &WaylandConn{
		display: display,
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
		outputs: make(map[uint32]OutputInfo),
		views:   make(map[uint32]ViewInfo),
	}

	finder := &globalFinder{}
	registry.AddGlobalHandler(finder)
	if err := display.Roundtrip(); err != nil {
		display.Close()
		return nil, fmt.Errorf("registry roundtrip: %w", err)
	}

	if finder.name == 0 {
		display.Close()
		return nil, fmt.Errorf("%s not advertised by the compositor", protocols.WindowManagementInterface)
	}

	version := finder.version
	if version > protocols.WindowManagementVersion {
		version = protocols.WindowManagementVersion
	}

	manager := protocols.NewWindowManager(display.Context())
	if err := registry.Bind(finder.name, protocols.WindowManagementInterface, version, manager); err != nil {
		display.Close()
		return nil, fmt.Errorf("bind %s: %w", protocols.WindowManagementInterface, err)
	}
	manager.SetHandler(c)
	c.manager = manager

	// Sync so the initial burst of output/window events is queued before the
	// caller starts reading.
	if err := display.Roundtrip(); err != nil {
		display.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}

	go c.pump()

	logger.Infof("connected to compositor, %s v%d", protocols.WindowManagementInterface, version)
	return c, nil
}

// globalFinder records the river window management global during the
// registry roundtrip.
type globalFinder struct {
	name    uint32
	version uint32
}

func (f *globalFinder) HandleRegistryGlobal(e wl.RegistryGlobalEvent) {
	if e.Interface == protocols.WindowManagementInterface {
		f.name = e.Name
		f.version = e.Version
	}
}

// pump drives the connection. Each roundtrip flushes pending requests and
// dispatches every queued inbound event; the sync reply is the blocking
// wait. A failed roundtrip means the compositor is gone.
func (c *WaylandConn) pump() {
	for {
		select {
		case <-c.done:
			return
		default:
		}
		if err := c.display.Roundtrip(); err != nil {
			select {
			case <-c.done:
			default:
				logger.Errorf("compositor connection lost: %v", err)
				c.events <- ConnectionLost{Err: fmt.Errorf("%w: %v", ErrConnectionLost, err)}
			}
			close(c.events)
			return
		}
	}
}

// Events implements Conn.
func (c *WaylandConn) Events() <-chan Event { return c.events }

// ProposeLayout implements Conn. Geometries are proposed one window at a
// time and applied atomically by the commit; the compositor takes the
// proposal as-is, so the settled geometries are the proposal.
func (c *WaylandConn) ProposeLayout(output uint32, tag int, placements []Placement) ([]Placement, error) {
	for _, p := range placements {
		if err := c.manager.ProposeGeometry(p.View, uint32(tag), p.X, p.Y, p.W, p.H, p.Border); err != nil {
			return nil, fmt.Errorf("propose geometry for view %d: %w", p.View, err)
		}
	}
	if err := c.manager.CommitLayout(output, uint32(tag)); err != nil {
		return nil, fmt.Errorf("commit layout: %w", err)
	}
	return placements, nil
}

// RequestFocus implements Conn.
func (c *WaylandConn) RequestFocus(view uint32) error {
	return c.manager.FocusWindow(view)
}

// RequestClose implements Conn.
func (c *WaylandConn) RequestClose(view uint32) error {
	return c.manager.CloseWindow(view)
}

// SetFullscreen implements Conn.
func (c *WaylandConn) SetFullscreen(view uint32, fullscreen bool) error {
	return c.manager.SetFullscreen(view, fullscreen)
}

// GrabKey implements Conn.
func (c *WaylandConn) GrabKey(keysym, mods uint32) error {
	return c.manager.GrabKey(keysym, mods)
}

// SetKeyboardLayout implements Conn.
func (c *WaylandConn) SetKeyboardLayout(layout, variant, options, model string) error {
	return c.manager.SetXkbConfig(layout, variant, options, model)
}

// ListOutputs implements Conn from the adapter's mirror of announced state.
func (c *WaylandConn) ListOutputs() ([]OutputInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]OutputInfo, 0, len(c.outputs))
	for _, o := range c.outputs {
		out = append(out, o)
	}
	return out, nil
}

// ListViews implements Conn from the adapter's mirror of announced state.
func (c *WaylandConn) ListViews() ([]ViewInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ViewInfo, 0, len(c.views))
	for _, v := range c.views {
		out = append(out, v)
	}
	return out, nil
}

// Close implements Conn.
func (c *WaylandConn) Close() error {
	close(c.done)
	if c.manager != nil {
		if err := c.manager.Destroy(); err != nil {
			logger.Debugf("manager destroy: %v", err)
		}
	}
	c.display.Close()
	return nil
}

// Protocol event handlers below run on the pump goroutine and forward
// decoded events to the dispatch loop.

func (c *WaylandConn) HandleOutputAdded(id uint32, name string, physW, physH, refreshMHz, scaleMilli int32) {
	c.mu.Lock()
	c.outputs[id] = OutputInfo{
		ID: id, Name: name,
		PhysWidth: physW, PhysHeight: physH,
		RefreshMHz: refreshMHz, ScaleMilli: scaleMilli,
	}
	c.mu.Unlock()
	c.events <- OutputAdded{
		ID: id, Name: name,
		PhysWidth: physW, PhysHeight: physH,
		RefreshMHz: refreshMHz, ScaleMilli: scaleMilli,
	}
}

func (c *WaylandConn) HandleOutputRemoved(id uint32) {
	c.mu.Lock()
	delete(c.outputs, id)
	c.mu.Unlock()
	c.events <- OutputRemoved{ID: id}
}

func (c *WaylandConn) HandleOutputResized(id uint32, physW, physH int32) {
	c.mu.Lock()
	if o, ok := c.outputs[id]; ok {
		o.PhysWidth, o.PhysHeight = physW, physH
		c.outputs[id] = o
	}
	c.mu.Unlock()
	c.events <- OutputResized{ID: id, PhysWidth: physW, PhysHeight: physH}
}

func (c *WaylandConn) HandleOutputRescaled(id uint32, scaleMilli int32) {
	c.mu.Lock()
	if o, ok := c.outputs[id]; ok {
		o.ScaleMilli = scaleMilli
		c.outputs[id] = o
	}
	c.mu.Unlock()
	c.events <- OutputRescaled{ID: id, ScaleMilli: scaleMilli}
}

func (c *WaylandConn) HandleWindowMapped(id uint32, appID string) {
	c.mu.Lock()
	c.views[id] = ViewInfo{ID: id, AppID: appID}
	c.mu.Unlock()
	c.events <- ViewMapped{ID: id, AppID: appID}
}

func (c *WaylandConn) HandleWindowUnmapped(id uint32) {
	c.mu.Lock()
	delete(c.views, id)
	c.mu.Unlock()
	c.events <- ViewUnmapped{ID: id}
}

func (c *WaylandConn) HandleKeyPressed(keysym, mods uint32) {
	c.events <- KeyPressed{Keysym: keysym, Mods: mods}
}

func (c *WaylandConn) HandleFocusChanged(view uint32) {
	c.events <- FocusChanged{View: view}
}
