package wm

import (
	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/transport"
	"github.com/rrwm/riverbsp/internal/wm/layout"
)

// TreeKey addresses the layout tree of one tag on one output.
type TreeKey struct {
	Output uint32
	Tag    int // 1-based
}

// Notifier receives a fresh snapshot after every state mutation that is
// visible to status consumers.
type Notifier interface {
	Publish(Snapshot)
}

// State holds everything the window manager knows: outputs, views and
// the per-(output, tag) layout trees. It is owned by the single
// dispatch goroutine and has no internal locking.
type State struct {
	conn transport.Conn
	cfg  *config.Config

	outputs map[uint32]*Output
	views   map[uint32]*View
	trees   map[TreeKey]*layout.Tree

	// active is the output receiving new views and directional commands.
	active uint32

	// history remembers the last focused view per (output, tag) so tag
	// switches restore focus instead of picking arbitrarily.
	history map[TreeKey]uint32

	// focusSeq stamps views with a monotonic counter on focus, used to
	// break directional-neighbor ties toward the most recently focused.
	focusSeq map[uint32]uint64
	seq      uint64

	notifier Notifier
	reload   func() error

	// nextAutoX is where the next autopositioned output lands.
	nextAutoX      int32
	startupFocused bool
}

// NewState builds an empty State bound to a transport connection.
func NewState(conn transport.Conn, cfg *config.Config) *State {
	return &State{
		conn:     conn,
		cfg:      cfg,
		outputs:  make(map[uint32]*Output),
		views:    make(map[uint32]*View),
		trees:    make(map[TreeKey]*layout.Tree),
		history:  make(map[TreeKey]uint32),
		focusSeq: make(map[uint32]uint64),
	}
}

// SetNotifier installs the status sink. Pass nil to disable publishing.
func (s *State) SetNotifier(n Notifier) { s.notifier = n }

// SetReloadHandler installs the callback run by the reload action.
func (s *State) SetReloadHandler(fn func() error) { s.reload = fn }

// SetConfig swaps in a freshly loaded configuration and re-arranges
// every output so gap and border changes take effect immediately.
func (s *State) SetConfig(cfg *config.Config) {
	s.cfg = cfg
	for _, out := range s.outputs {
		s.arrangeOutput(out)
	}
	s.notify()
}

func (s *State) layoutOptions() layout.Options {
	return layout.Options{
		Gap:          int32(s.cfg.Window.Gaps),
		BorderWidth:  int32(s.cfg.Window.Active.Border.Width),
		SmartBorders: s.cfg.Window.SmartBorders,
	}
}

func (s *State) tree(key TreeKey) *layout.Tree {
	t, ok := s.trees[key]
	if !ok {
		t = layout.New()
		s.trees[key] = t
	}
	return t
}

func (s *State) activeOutput() *Output {
	return s.outputs[s.active]
}

// HandleOutputAdded registers a new output, applies its config rule and
// adopts any views parked while no output existed.
func (s *State) HandleOutputAdded(ev transport.OutputAdded) {
	if _, ok := s.outputs[ev.ID]; ok {
		logger.Warn("duplicate output announcement ignored", "output", ev.ID, "name", ev.Name)
		return
	}

	var rule *config.OutputRule
	if r, ok := s.cfg.RuleFor(ev.Name); ok {
		rule = &r
	}
	out, err := newOutput(ev, rule, s.nextAutoX)
	if err != nil {
		logger.Warn("bad output rule, using advertised geometry", "output", ev.Name, "error", err)
		out, _ = newOutput(ev, nil, s.nextAutoX)
	}
	s.outputs[out.ID] = out
	if !out.positioned {
		s.nextAutoX += out.Logical.W
	}

	if out.FocusAtStartup && !s.startupFocused {
		s.active = out.ID
		s.startupFocused = true
	} else if s.activeOutput() == nil {
		s.active = out.ID
	}

	// Re-home views that lost their output.
	for _, v := range s.views {
		if v.Output != 0 {
			continue
		}
		v.Output = out.ID
		v.eachTag(func(tag int) {
			s.tree(TreeKey{out.ID, tag}).Insert(v.ID, 0, out.Logical, int32(s.cfg.Window.Gaps))
		})
		if out.Focused == 0 {
			s.focusView(out, v.ID)
		}
	}

	logger.Info("output added", "output", out.Name, "id", out.ID,
		"logical", out.Logical, "scale", out.Scale)
	s.arrangeOutput(out)
	s.notify()
}

// HandleOutputRemoved migrates the output's views to the lowest-ID
// survivor, or parks them when this was the last output.
func (s *State) HandleOutputRemoved(ev transport.OutputRemoved) {
	out, ok := s.outputs[ev.ID]
	if !ok {
		logger.Warn("removal of unknown output ignored", "output", ev.ID)
		return
	}
	delete(s.outputs, ev.ID)
	for key := range s.trees {
		if key.Output == ev.ID {
			delete(s.trees, key)
		}
	}
	for key := range s.history {
		if key.Output == ev.ID {
			delete(s.history, key)
		}
	}

	fb := s.lowestOutput()
	for _, v := range s.views {
		if v.Output != ev.ID {
			continue
		}
		if fb == nil {
			v.Output = 0
			continue
		}
		v.Output = fb.ID
		v.eachTag(func(tag int) {
			key := TreeKey{fb.ID, tag}
			s.tree(key).Insert(v.ID, s.history[key], fb.Logical, int32(s.cfg.Window.Gaps))
		})
	}

	if s.active == ev.ID {
		s.active = 0
		if fb != nil {
			s.active = fb.ID
			if out.Focused != 0 {
				s.focusView(fb, out.Focused)
			}
		}
	}
	logger.Info("output removed", "output", out.Name, "id", out.ID)
	if fb != nil {
		s.arrangeOutput(fb)
	}
	s.notify()
}

// HandleOutputResized recomputes the logical area and re-arranges.
func (s *State) HandleOutputResized(ev transport.OutputResized) {
	out, ok := s.outputs[ev.ID]
	if !ok {
		logger.Warn("resize of unknown output ignored", "output", ev.ID)
		return
	}
	out.resize(ev.PhysWidth, ev.PhysHeight)
	logger.Debug("output resized", "output", out.Name, "logical", out.Logical)
	s.arrangeOutput(out)
	s.notify()
}

// HandleOutputRescaled recomputes the logical area for a new scale.
func (s *State) HandleOutputRescaled(ev transport.OutputRescaled) {
	out, ok := s.outputs[ev.ID]
	if !ok {
		logger.Warn("rescale of unknown output ignored", "output", ev.ID)
		return
	}
	out.rescale(ev.ScaleMilli)
	logger.Debug("output rescaled", "output", out.Name, "scale", out.Scale)
	s.arrangeOutput(out)
	s.notify()
}

// HandleViewMapped inserts the new view on the active output's displayed
// tags, splitting the focused leaf, and gives it focus.
func (s *State) HandleViewMapped(ev transport.ViewMapped) {
	if _, ok := s.views[ev.ID]; ok {
		logger.Warn("duplicate view mapping ignored", "view", ev.ID)
		return
	}

	v := &View{ID: ev.ID, AppID: ev.AppID, Tags: 1}
	s.views[ev.ID] = v

	out := s.activeOutput()
	if out == nil {
		logger.Warn("view mapped with no output, parking it", "view", ev.ID, "app", ev.AppID)
		return
	}
	v.Output = out.ID
	if out.Tags != 0 {
		v.Tags = out.Tags
	}

	v.eachTag(func(tag int) {
		s.tree(TreeKey{out.ID, tag}).Insert(v.ID, out.Focused, out.Logical, int32(s.cfg.Window.Gaps))
	})
	logger.Debug("view mapped", "view", v.ID, "app", v.AppID, "output", out.Name, "tags", v.Tags)
	s.focusView(out, v.ID)
	s.arrangeOutput(out)
	s.notify()
}

// HandleViewUnmapped removes the view from all its trees and passes
// focus to another view on the same tag when it held it.
func (s *State) HandleViewUnmapped(ev transport.ViewUnmapped) {
	v, ok := s.views[ev.ID]
	if !ok {
		logger.Warn("unmapping of unknown view ignored", "view", ev.ID)
		return
	}
	delete(s.views, ev.ID)
	delete(s.focusSeq, ev.ID)

	out := s.outputs[v.Output]
	v.eachTag(func(tag int) {
		key := TreeKey{v.Output, tag}
		if t, ok := s.trees[key]; ok {
			t.Remove(v.ID)
			if t.Empty() {
				delete(s.trees, key)
			}
		}
		if s.history[key] == v.ID {
			delete(s.history, key)
			if t, ok := s.trees[key]; ok {
				if leaves := t.Leaves(); len(leaves) > 0 {
					s.history[key] = leaves[0]
				}
			}
		}
	})

	if out == nil {
		return
	}
	logger.Debug("view unmapped", "view", v.ID, "app", v.AppID)
	if out.Focused == v.ID {
		out.Focused = 0
		if succ := s.restoreCandidate(out); succ != 0 {
			s.focusView(out, succ)
		}
	}
	s.arrangeOutput(out)
	s.notify()
}

// HandleFocusChanged records a compositor-initiated focus move.
func (s *State) HandleFocusChanged(ev transport.FocusChanged) {
	v, ok := s.views[ev.View]
	if !ok {
		logger.Warn("focus change to unknown view ignored", "view", ev.View)
		return
	}
	out := s.outputs[v.Output]
	if out == nil {
		return
	}
	s.active = out.ID
	out.Focused = v.ID
	s.stampFocus(out, v)
	s.notify()
}

// focusView makes the view focused in our state and asks the compositor
// to match.
func (s *State) focusView(out *Output, id uint32) {
	v, ok := s.views[id]
	if !ok {
		return
	}
	out.Focused = id
	s.active = out.ID
	s.stampFocus(out, v)
	if err := s.conn.RequestFocus(id); err != nil {
		logger.Warn("focus request failed", "view", id, "error", err)
	}
}

func (s *State) stampFocus(out *Output, v *View) {
	s.seq++
	s.focusSeq[v.ID] = s.seq
	v.eachTag(func(tag int) {
		if out.Tags&(1<<(tag-1)) != 0 {
			s.history[TreeKey{out.ID, tag}] = v.ID
		}
	})
}

// restoreCandidate picks the view to focus after a tag switch or an
// unmap: remembered history first, then any leaf on a displayed tag.
func (s *State) restoreCandidate(out *Output) uint32 {
	for t := 1; t <= MaxTags; t++ {
		if out.Tags&(1<<(t-1)) == 0 {
			continue
		}
		key := TreeKey{out.ID, t}
		if id, ok := s.history[key]; ok {
			if _, alive := s.views[id]; alive {
				return id
			}
		}
	}
	for t := 1; t <= MaxTags; t++ {
		if out.Tags&(1<<(t-1)) == 0 {
			continue
		}
		if tree, ok := s.trees[TreeKey{out.ID, t}]; ok {
			if leaves := tree.Leaves(); len(leaves) > 0 {
				return leaves[0]
			}
		}
	}
	return 0
}

func (s *State) lowestOutput() *Output {
	var best *Output
	for _, o := range s.outputs {
		if best == nil || o.ID < best.ID {
			best = o
		}
	}
	return best
}

// occupiedMask ORs the tag masks of every view on the output.
func (s *State) occupiedMask(outputID uint32) uint32 {
	var mask uint32
	for _, v := range s.views {
		if v.Output == outputID {
			mask |= v.Tags
		}
	}
	return mask
}

// arrangeOutput lays out every displayed tag of the output, proposes
// the geometries and commits, then records what the compositor settled
// on. Degenerate committed rectangles keep the previous geometry.
func (s *State) arrangeOutput(out *Output) {
	opts := s.layoutOptions()
	for tag := 1; tag <= MaxTags; tag++ {
		if out.Tags&(1<<(tag-1)) == 0 {
			continue
		}
		tree, ok := s.trees[TreeKey{out.ID, tag}]
		if !ok || tree.Empty() {
			continue
		}

		placements := tree.Arrange(layout.Rect{W: out.Logical.W, H: out.Logical.H}, opts)
		proposal := make([]transport.Placement, 0, len(placements))
		for _, p := range placements {
			rect := p.Rect
			border := p.Border
			if v, ok := s.views[p.View]; ok && v.Fullscreen {
				rect = layout.Rect{W: out.Logical.W, H: out.Logical.H}
				border = 0
			}
			proposal = append(proposal, transport.Placement{
				View: p.View,
				X:    rect.X, Y: rect.Y, W: rect.W, H: rect.H,
				Border: border,
			})
		}

		committed, err := s.conn.ProposeLayout(out.ID, tag, proposal)
		if err != nil {
			logger.Error("layout commit failed", "output", out.Name, "tag", tag, "error", err)
			continue
		}
		for _, p := range committed {
			v, ok := s.views[p.View]
			if !ok {
				continue
			}
			if p.W <= 0 || p.H <= 0 {
				logger.Warn("degenerate geometry kept out of state",
					"view", p.View, "w", p.W, "h", p.H)
				continue
			}
			v.Geometry = layout.Rect{X: p.X, Y: p.Y, W: p.W, H: p.H}
		}
	}
}

func (s *State) notify() {
	if s.notifier != nil {
		s.notifier.Publish(s.snapshot())
	}
}
