package wm

import "github.com/rrwm/riverbsp/internal/wm/layout"

// overlapBonus rewards candidates whose edge actually faces the current
// window, so a directly adjacent window beats a nearer diagonal one.
const overlapBonus = 1000

// findNeighbor picks the best view in the given direction among the
// views visible on the output, judging by committed geometry. Candidates
// must lie strictly past the matching edge. The score is the edge
// distance minus a bonus proportional to the perpendicular overlap;
// ties go to the most recently focused candidate.
func (s *State) findNeighbor(out *Output, from *View, dir layout.Direction) *View {
	var best *View
	var bestScore int64

	for _, v := range s.views {
		if v.ID == from.ID || v.Output != out.ID || v.Tags&out.Tags == 0 {
			continue
		}
		score, ok := directionalScore(from.Geometry, v.Geometry, dir)
		if !ok {
			continue
		}
		if best == nil || score < bestScore ||
			(score == bestScore && s.focusSeq[v.ID] > s.focusSeq[best.ID]) {
			best = v
			bestScore = score
		}
	}
	return best
}

func directionalScore(from, to layout.Rect, dir layout.Direction) (int64, bool) {
	var dist int64
	switch dir {
	case layout.Left:
		dist = int64(from.X) - int64(to.X+to.W)
	case layout.Right:
		dist = int64(to.X) - int64(from.X+from.W)
	case layout.Up:
		dist = int64(from.Y) - int64(to.Y+to.H)
	case layout.Down:
		dist = int64(to.Y) - int64(from.Y+from.H)
	}
	if dist < 0 {
		return 0, false
	}

	var overlap int64
	switch dir {
	case layout.Left, layout.Right:
		overlap = axisOverlap(from.Y, from.H, to.Y, to.H)
	default:
		overlap = axisOverlap(from.X, from.W, to.X, to.W)
	}
	if overlap > 0 {
		dist -= overlapBonus
	}
	return dist, true
}

func axisOverlap(a, aLen, b, bLen int32) int64 {
	lo := max(a, b)
	hi := min(a+aLen, b+bLen)
	if hi <= lo {
		return 0
	}
	return int64(hi - lo)
}

// nearestOutput picks the output whose logical center is closest in the
// given direction from the current output's center. A single hop only;
// ties break toward the lower output ID.
func (s *State) nearestOutput(from *Output, dir layout.Direction) *Output {
	fx, fy := from.Logical.Center()

	var best *Output
	var bestDist int64
	for _, o := range s.outputs {
		if o.ID == from.ID {
			continue
		}
		cx, cy := o.Logical.Center()
		var ahead bool
		switch dir {
		case layout.Left:
			ahead = cx < fx
		case layout.Right:
			ahead = cx > fx
		case layout.Up:
			ahead = cy < fy
		case layout.Down:
			ahead = cy > fy
		}
		if !ahead {
			continue
		}
		dx, dy := int64(cx-fx), int64(cy-fy)
		dist := dx*dx + dy*dy
		if best == nil || dist < bestDist ||
			(dist == bestDist && o.ID < best.ID) {
			best = o
			bestDist = dist
		}
	}
	return best
}
