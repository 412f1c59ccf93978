package layout

import "math"

// nodeID indexes the tree's node arena. Parent/child links are indices so
// that sibling promotion on removal is a pair of link rewrites instead of a
// subtree copy.
type nodeID int32

const noNode nodeID = -1

type node struct {
	parent nodeID
	first  nodeID
	second nodeID

	// Internal nodes only.
	axis     Axis
	fraction float64

	// Leaves only.
	view uint32
}

func (n *node) isLeaf() bool { return n.first == noNode }

// Tree is a full binary tree whose leaves biject onto the views of one
// (output, tag) pair. Trees are derived state: they are rebuilt from view
// membership and never persisted.
type Tree struct {
	nodes  []node
	free   []nodeID
	root   nodeID
	leaves map[uint32]nodeID
}

// Options control how Arrange turns the tree into geometry.
type Options struct {
	Gap          int32
	BorderWidth  int32
	SmartBorders bool
}

// Placement is the computed geometry for one view.
type Placement struct {
	View   uint32
	Rect   Rect
	Border int32
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: noNode, leaves: make(map[uint32]nodeID)}
}

// Len returns the number of leaves.
func (t *Tree) Len() int { return len(t.leaves) }

// Empty reports whether the tree has no leaves.
func (t *Tree) Empty() bool { return len(t.leaves) == 0 }

// Contains reports whether the view has a leaf in this tree.
func (t *Tree) Contains(view uint32) bool {
	_, ok := t.leaves[view]
	return ok
}

// Leaves returns the view of every leaf in tree order.
func (t *Tree) Leaves() []uint32 {
	if t.root == noNode {
		return nil
	}
	out := make([]uint32, 0, len(t.leaves))
	t.walk(t.root, func(id nodeID) {
		out = append(out, t.nodes[id].view)
	})
	return out
}

func (t *Tree) walk(id nodeID, fn func(nodeID)) {
	n := &t.nodes[id]
	if n.isLeaf() {
		fn(id)
		return
	}
	t.walk(n.first, fn)
	t.walk(n.second, fn)
}

func (t *Tree) alloc(n node) nodeID {
	if len(t.free) > 0 {
		id := t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[id] = n
		return id
	}
	t.nodes = append(t.nodes, n)
	return nodeID(len(t.nodes) - 1)
}

func (t *Tree) release(id nodeID) {
	t.nodes[id] = node{parent: noNode, first: noNode, second: noNode}
	t.free = append(t.free, id)
}

// Insert adds view by splitting the target leaf. When target is not a leaf
// of this tree the first leaf is split instead; an empty tree makes the view
// the root. The split axis follows the target leaf's longer dimension within
// area, ties alternating on depth parity; the new view takes the second
// child, default fraction 0.5.
func (t *Tree) Insert(view, target uint32, area Rect, gap int32) {
	if t.Contains(view) {
		return
	}
	if t.root == noNode {
		t.root = t.alloc(node{parent: noNode, first: noNode, second: noNode, view: view})
		t.leaves[view] = t.root
		return
	}

	tgt, ok := t.leaves[target]
	if !ok {
		tgt = t.firstLeaf(t.root)
	}

	rect, depth := t.leafRect(tgt, area, gap)
	axis := SplitVertical
	switch {
	case rect.W > rect.H:
		axis = SplitVertical
	case rect.H > rect.W:
		axis = SplitHorizontal
	default:
		if depth%2 == 1 {
			axis = SplitHorizontal
		}
	}

	old := t.nodes[tgt].view
	first := t.alloc(node{parent: tgt, first: noNode, second: noNode, view: old})
	second := t.alloc(node{parent: tgt, first: noNode, second: noNode, view: view})
	t.nodes[tgt].first = first
	t.nodes[tgt].second = second
	t.nodes[tgt].axis = axis
	t.nodes[tgt].fraction = 0.5
	t.leaves[old] = first
	t.leaves[view] = second
}

// InsertEdge adds view at the named edge of the tree by wrapping the current
// root in a new container. Used when a view enters from an adjacent tag or
// output so it lands where it crossed over.
func (t *Tree) InsertEdge(view uint32, edge Direction) {
	if t.Contains(view) {
		return
	}
	if t.root == noNode {
		t.root = t.alloc(node{parent: noNode, first: noNode, second: noNode, view: view})
		t.leaves[view] = t.root
		return
	}

	axis := SplitVertical
	if edge == Up || edge == Down {
		axis = SplitHorizontal
	}

	leaf := t.alloc(node{first: noNode, second: noNode, view: view})
	wrap := t.alloc(node{parent: noNode, axis: axis, fraction: 0.5})
	oldRoot := t.root
	if edge == Left || edge == Up {
		t.nodes[wrap].first = leaf
		t.nodes[wrap].second = oldRoot
	} else {
		t.nodes[wrap].first = oldRoot
		t.nodes[wrap].second = leaf
	}
	t.nodes[leaf].parent = wrap
	t.nodes[oldRoot].parent = wrap
	t.root = wrap
	t.leaves[view] = leaf
}

// Remove deletes the view's leaf and promotes its sibling subtree into the
// freed parent slot, leaving the sibling's internal structure unchanged.
// Removing an unknown view is a no-op.
func (t *Tree) Remove(view uint32) {
	id, ok := t.leaves[view]
	if !ok {
		return
	}
	delete(t.leaves, view)

	parent := t.nodes[id].parent
	if parent == noNode {
		t.root = noNode
		t.release(id)
		return
	}

	p := &t.nodes[parent]
	sibling := p.first
	if sibling == id {
		sibling = p.second
	}

	grand := p.parent
	t.nodes[sibling].parent = grand
	if grand == noNode {
		t.root = sibling
	} else if t.nodes[grand].first == parent {
		t.nodes[grand].first = sibling
	} else {
		t.nodes[grand].second = sibling
	}

	t.release(id)
	t.release(parent)
}

// Swap exchanges the positions of two leaves, keeping the tree structure.
func (t *Tree) Swap(a, b uint32) {
	na, okA := t.leaves[a]
	nb, okB := t.leaves[b]
	if !okA || !okB || na == nb {
		return
	}
	t.nodes[na].view, t.nodes[nb].view = b, a
	t.leaves[a], t.leaves[b] = nb, na
}

// EdgeLeaf returns the view on the named physical edge of the tree: the leaf
// reached by descending toward dir at every split on that axis. Splits on
// the perpendicular axis descend into the second child. Used to pick the
// entry view when focus wraps into a tag.
func (t *Tree) EdgeLeaf(dir Direction) (uint32, bool) {
	if t.root == noNode {
		return 0, false
	}
	id := t.root
	for !t.nodes[id].isLeaf() {
		n := &t.nodes[id]
		switch {
		case n.axis == SplitVertical && dir == Left:
			id = n.first
		case n.axis == SplitVertical && dir == Right:
			id = n.second
		case n.axis == SplitHorizontal && dir == Up:
			id = n.first
		case n.axis == SplitHorizontal && dir == Down:
			id = n.second
		default:
			id = n.second
		}
	}
	return t.nodes[id].view, true
}

// Arrange computes one non-overlapping placement per leaf, tiling area minus
// the outer gap. Recomputing from an unchanged tree yields bit-identical
// results. A single leaf with smart borders collapses gap and border to
// zero.
func (t *Tree) Arrange(area Rect, opts Options) []Placement {
	if t.root == noNode {
		return nil
	}
	if len(t.leaves) == 1 && opts.SmartBorders {
		return []Placement{{View: t.nodes[t.root].view, Rect: area, Border: 0}}
	}

	out := make([]Placement, 0, len(t.leaves))
	t.arrange(t.root, area.Inset(opts.Gap), opts, &out)
	return out
}

func (t *Tree) arrange(id nodeID, r Rect, opts Options, out *[]Placement) {
	n := &t.nodes[id]
	if n.isLeaf() {
		*out = append(*out, Placement{View: n.view, Rect: r, Border: opts.BorderWidth})
		return
	}
	a, b := splitRect(r, n.axis, n.fraction, opts.Gap)
	t.arrange(n.first, a, opts, out)
	t.arrange(n.second, b, opts, out)
}

// splitRect divides r along axis. The children's extents sum to the parent's
// extent minus one gap.
func splitRect(r Rect, axis Axis, fraction float64, gap int32) (Rect, Rect) {
	if axis == SplitVertical {
		first := int32(math.Round(fraction * float64(r.W-gap)))
		if first < 0 {
			first = 0
		}
		a := Rect{X: r.X, Y: r.Y, W: first, H: r.H}
		b := Rect{X: r.X + first + gap, Y: r.Y, W: r.W - gap - first, H: r.H}
		return a, b
	}
	first := int32(math.Round(fraction * float64(r.H-gap)))
	if first < 0 {
		first = 0
	}
	a := Rect{X: r.X, Y: r.Y, W: r.W, H: first}
	b := Rect{X: r.X, Y: r.Y + first + gap, W: r.W, H: r.H - gap - first}
	return a, b
}

func (t *Tree) firstLeaf(id nodeID) nodeID {
	for !t.nodes[id].isLeaf() {
		id = t.nodes[id].first
	}
	return id
}

// leafRect computes the rectangle the leaf currently occupies under area,
// along with its depth. Walks the root path once; used by Insert to choose
// the split axis.
func (t *Tree) leafRect(id nodeID, area Rect, gap int32) (Rect, int) {
	var path []nodeID
	for cur := id; cur != noNode; cur = t.nodes[cur].parent {
		path = append(path, cur)
	}

	r := area.Inset(gap)
	depth := 0
	for i := len(path) - 1; i > 0; i-- {
		n := &t.nodes[path[i]]
		a, b := splitRect(r, n.axis, n.fraction, gap)
		if n.first == path[i-1] {
			r = a
		} else {
			r = b
		}
		depth++
	}
	return r, depth
}
