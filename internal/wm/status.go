package wm

import (
	"strconv"

	"github.com/rrwm/riverbsp/internal/transport"
)

// TagState is one tag cell in the waybar status line.
type TagState struct {
	Icon  string `json:"icon"`
	Style string `json:"style"`
}

// WindowInfo is one managed window in a windows query response.
type WindowInfo struct {
	ID      uint32 `json:"id"`
	AppID   string `json:"app_id"`
	Output  string `json:"output"`
	Tags    uint32 `json:"tags"`
	Focused bool   `json:"focused"`
}

// Snapshot is an immutable copy of the status-relevant state, built on
// the dispatch goroutine and handed to the notifier so status consumers
// never touch live state.
type Snapshot struct {
	Status  map[string][]TagState
	Windows []WindowInfo
}

// defaultTagIcons labels tags past the configured icon list.
var defaultTagIcons = []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}

func (s *State) tagIcon(tag int) string {
	icons := s.cfg.Waybar.TagIcons
	if len(icons) == 0 {
		icons = defaultTagIcons
	}
	if tag <= len(icons) {
		return icons[tag-1]
	}
	return strconv.Itoa(tag)
}

// TagStatus renders the tag bar for one output. The bar shows every tag
// up to one past the highest occupied or displayed tag, capped at
// MaxTags, so an empty tag is always reachable at the right edge.
func (s *State) TagStatus(out *Output) []TagState {
	occupied := s.occupiedMask(out.ID)
	bound := highestTag(occupied | out.Tags)
	if bound < MaxTags {
		bound++
	}

	states := make([]TagState, 0, bound)
	for tag := 1; tag <= bound; tag++ {
		bit := uint32(1) << (tag - 1)
		style := s.cfg.Waybar.EmptyStyle
		switch {
		case out.Tags&bit != 0:
			style = s.cfg.Waybar.FocusedStyle
		case occupied&bit != 0:
			style = s.cfg.Waybar.OccupiedStyle
		}
		states = append(states, TagState{Icon: s.tagIcon(tag), Style: style})
	}
	return states
}

// highestTag returns the 1-based index of the highest set bit, 0 for an
// empty mask.
func highestTag(mask uint32) int {
	for t := MaxTags; t >= 1; t-- {
		if mask&(1<<(t-1)) != 0 {
			return t
		}
	}
	return 0
}

func (s *State) snapshot() Snapshot {
	snap := Snapshot{Status: make(map[string][]TagState, len(s.outputs))}
	for _, out := range s.outputs {
		snap.Status[out.Name] = s.TagStatus(out)
	}
	for _, v := range s.views {
		var name string
		var focused bool
		if out := s.outputs[v.Output]; out != nil {
			name = out.Name
			focused = out.Focused == v.ID
		}
		snap.Windows = append(snap.Windows, WindowInfo{
			ID:      v.ID,
			AppID:   v.AppID,
			Output:  name,
			Tags:    v.Tags,
			Focused: focused,
		})
	}
	return snap
}

// WindowList answers the windows query from live state. It must only be
// called from the dispatch goroutine; IPC consumers get snapshots.
func (s *State) WindowList() []WindowInfo {
	return s.snapshot().Windows
}

// CurrentLayout reports the committed geometry of every view visible on
// the given output.
func (s *State) CurrentLayout(outputID uint32) []transport.Placement {
	out, ok := s.outputs[outputID]
	if !ok {
		return nil
	}
	var placements []transport.Placement
	seen := make(map[uint32]bool)
	for tag := 1; tag <= MaxTags; tag++ {
		if out.Tags&(1<<(tag-1)) == 0 {
			continue
		}
		tree, ok := s.trees[TreeKey{out.ID, tag}]
		if !ok {
			continue
		}
		for _, id := range tree.Leaves() {
			if seen[id] {
				continue
			}
			seen[id] = true
			v := s.views[id]
			if v == nil {
				continue
			}
			placements = append(placements, transport.Placement{
				View: id,
				X:    v.Geometry.X, Y: v.Geometry.Y,
				W: v.Geometry.W, H: v.Geometry.H,
			})
		}
	}
	return placements
}
