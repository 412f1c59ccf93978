// Package layout implements the persistent binary-space-partition tree that
// tiles the views of one (output, tag) pair.
package layout

// Rect is a rectangle in the output's logical coordinate space.
type Rect struct {
	X, Y, W, H int32
}

// Inset returns the rectangle shrunk by d on every side. A rectangle too
// small to inset collapses rather than inverting.
func (r Rect) Inset(d int32) Rect {
	if r.W < 2*d || r.H < 2*d {
		return Rect{X: r.X, Y: r.Y}
	}
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

// Center returns the rectangle's center point.
func (r Rect) Center() (int32, int32) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int32) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Overlaps reports whether two rectangles intersect with positive area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Direction is a cardinal direction in the logical coordinate space.
type Direction uint8

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	default:
		return "down"
	}
}

// Opposite returns the reverse direction, used to pick the entry edge when
// focus or a view crosses to an adjacent tag or output.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	default:
		return Up
	}
}

// Axis is the split orientation of an internal tree node.
type Axis uint8

const (
	// SplitVertical places children side by side (divides width).
	SplitVertical Axis = iota
	// SplitHorizontal stacks children (divides height).
	SplitHorizontal
)

func (a Axis) String() string {
	if a == SplitVertical {
		return "vertical"
	}
	return "horizontal"
}
