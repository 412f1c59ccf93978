package wm

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/wm/layout"
)

// Execute runs a binding's action sequence in order. Each action is
// isolated: a failure is logged and the rest of the sequence still runs.
func (s *State) Execute(actions []Action) {
	for _, a := range actions {
		if err := s.apply(a); err != nil {
			logger.Warn("action failed", "action", a.String(), "error", err)
		}
	}
}

func (s *State) apply(a Action) error {
	switch a.Kind {
	case ActionCloseFocused:
		return s.closeFocused()
	case ActionToggleFullscreen:
		return s.toggleFullscreen()
	case ActionFocusDirection:
		return s.focusDirection(a.Dir)
	case ActionFocusTag:
		return s.focusTag(a.Tag)
	case ActionFocusOutput:
		return s.focusOutputDirection(a.Dir)
	case ActionMoveToTag:
		return s.moveToTag(a.Tag)
	case ActionMoveDirection:
		return s.moveDirection(a.Dir)
	case ActionSpawn:
		return spawn(a.Argv)
	case ActionShell:
		return spawn([]string{"sh", "-c", a.Command})
	case ActionReload:
		if s.reload == nil {
			return fmt.Errorf("no reload handler installed")
		}
		return s.reload()
	default:
		return fmt.Errorf("unhandled action kind %d", a.Kind)
	}
}

var errNoFocus = errors.New("no focused view")

func (s *State) focusedView() (*Output, *View, error) {
	out := s.activeOutput()
	if out == nil {
		return nil, nil, fmt.Errorf("no output")
	}
	v := s.views[out.Focused]
	if v == nil {
		return out, nil, errNoFocus
	}
	return out, v, nil
}

func (s *State) closeFocused() error {
	_, v, err := s.focusedView()
	if err != nil {
		return err
	}
	return s.conn.RequestClose(v.ID)
}

func (s *State) toggleFullscreen() error {
	out, v, err := s.focusedView()
	if err != nil {
		return err
	}
	v.Fullscreen = !v.Fullscreen
	if err := s.conn.SetFullscreen(v.ID, v.Fullscreen); err != nil {
		return err
	}
	s.arrangeOutput(out)
	s.notify()
	return nil
}

// focusDirection moves focus to the best geometric neighbor, or cycles
// to the adjacent tag when the focused view already sits on the edge.
func (s *State) focusDirection(dir layout.Direction) error {
	out, v, err := s.focusedView()
	if err != nil {
		if errors.Is(err, errNoFocus) {
			// Empty tag: directional focus still cycles tags.
			return s.cycleTag(out, dir)
		}
		return err
	}
	if n := s.findNeighbor(out, v, dir); n != nil {
		s.focusView(out, n.ID)
		s.notify()
		return nil
	}
	return s.cycleTag(out, dir)
}

// cycleTag switches the output to the adjacent tag in the direction,
// wrapping within the occupied bound, and focuses the entering-edge
// view of the destination so repeated presses traverse seamlessly.
func (s *State) cycleTag(out *Output, dir layout.Direction) error {
	cur := highestTag(out.Tags)
	if cur == 0 {
		cur = 1
	}
	bound := highestTag(s.occupiedMask(out.ID))
	if bound < cur {
		bound = cur
	}
	if bound < 2 {
		return nil // nowhere to go
	}

	next := cur
	switch dir {
	case layout.Right, layout.Down:
		next++
		if next > bound {
			next = 1
		}
	default:
		next--
		if next < 1 {
			next = bound
		}
	}

	s.showTag(out, next)
	key := TreeKey{out.ID, next}
	if tree, ok := s.trees[key]; ok {
		if id, ok := tree.EdgeLeaf(dir.Opposite()); ok {
			s.focusView(out, id)
		}
	}
	s.arrangeOutput(out)
	s.notify()
	return nil
}

func (s *State) showTag(out *Output, tag int) {
	out.Tags = 1 << (tag - 1)
	out.Focused = 0
}

func (s *State) focusTag(tag int) error {
	out := s.activeOutput()
	if out == nil {
		return fmt.Errorf("no output")
	}
	if out.Tags == 1<<(tag-1) {
		return nil
	}
	s.showTag(out, tag)
	if id := s.restoreCandidate(out); id != 0 {
		s.focusView(out, id)
	}
	logger.Debug("tag focused", "output", out.Name, "tag", tag)
	s.arrangeOutput(out)
	s.notify()
	return nil
}

func (s *State) focusOutputDirection(dir layout.Direction) error {
	out := s.activeOutput()
	if out == nil {
		return fmt.Errorf("no output")
	}
	target := s.nearestOutput(out, dir)
	if target == nil {
		return nil
	}
	s.active = target.ID
	if target.Focused != 0 {
		s.focusView(target, target.Focused)
	} else if id := s.restoreCandidate(target); id != 0 {
		s.focusView(target, id)
	}
	s.notify()
	return nil
}

// moveToTag sends the focused view to a single tag and follows it. The
// view enters at the destination's left edge.
func (s *State) moveToTag(tag int) error {
	out, v, err := s.focusedView()
	if err != nil {
		return err
	}
	if v.Tags == 1<<(tag-1) {
		return nil
	}
	s.detachView(v)
	v.Tags = 1 << (tag - 1)
	s.tree(TreeKey{out.ID, tag}).InsertEdge(v.ID, layout.Left)

	s.showTag(out, tag)
	s.focusView(out, v.ID)
	s.arrangeOutput(out)
	s.notify()
	return nil
}

// moveDirection swaps the focused view with its neighbor, or pushes it
// to the adjacent tag when it already sits on the edge. A pushed view
// enters the destination from the edge it left through.
func (s *State) moveDirection(dir layout.Direction) error {
	out, v, err := s.focusedView()
	if err != nil {
		return err
	}

	if n := s.findNeighbor(out, v, dir); n != nil {
		cur := highestTag(out.Tags)
		if cur == 0 {
			return nil
		}
		tree, ok := s.trees[TreeKey{out.ID, cur}]
		if !ok {
			return nil
		}
		tree.Swap(v.ID, n.ID)
		s.arrangeOutput(out)
		s.notify()
		return nil
	}

	cur := highestTag(out.Tags)
	if cur == 0 {
		cur = 1
	}
	// One empty tag past the highest occupied stays reachable so a view
	// can always be pushed onto a fresh tag.
	bound := highestTag(s.occupiedMask(out.ID))
	if bound < MaxTags {
		bound++
	}

	next := cur
	switch dir {
	case layout.Right, layout.Down:
		next++
		if next > bound {
			next = 1
		}
	default:
		next--
		if next < 1 {
			next = bound
		}
	}
	if next == cur {
		return nil
	}

	s.detachView(v)
	v.Tags = 1 << (next - 1)
	s.tree(TreeKey{out.ID, next}).InsertEdge(v.ID, dir.Opposite())

	s.showTag(out, next)
	s.focusView(out, v.ID)
	s.arrangeOutput(out)
	s.notify()
	return nil
}

// detachView removes the view from every tree it occupies, pruning
// empty trees and stale history entries.
func (s *State) detachView(v *View) {
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
		}
	})
}

// spawn starts a detached child in its own session so it survives us
// and never becomes our zombie.
func spawn(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn %q: %w", argv[0], err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("spawned process exited", "cmd", argv[0], "error", err)
		}
	}()
	return nil
}
