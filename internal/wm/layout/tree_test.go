package layout

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

var testArea = Rect{X: 0, Y: 0, W: 1920, H: 1080}

func insertAll(t *Tree, views ...uint32) {
	focused := uint32(0)
	for _, v := range views {
		t.Insert(v, focused, testArea, 2)
		focused = v
	}
}

func TestInsertRemoveLeafSet(t *testing.T) {
	tr := New()
	insertAll(tr, 1, 2, 3, 4, 5)

	want := []uint32{1, 2, 3, 4, 5}
	got := tr.Leaves()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("leaves = %v, want %v", got, want)
	}

	tr.Remove(3)
	tr.Remove(1)
	got = tr.Leaves()
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	if !reflect.DeepEqual(got, []uint32{2, 4, 5}) {
		t.Fatalf("leaves after remove = %v", got)
	}
}

func TestRandomSequencesKeepMembership(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := New()
	live := map[uint32]bool{}
	next := uint32(1)

	for i := 0; i < 500; i++ {
		if len(live) == 0 || rng.Intn(3) != 0 {
			tr.Insert(next, pickAny(live), testArea, 2)
			live[next] = true
			next++
		} else {
			v := pickAny(live)
			tr.Remove(v)
			delete(live, v)
		}

		leaves := tr.Leaves()
		if len(leaves) != len(live) {
			t.Fatalf("step %d: %d leaves, %d live views", i, len(leaves), len(live))
		}
		seen := map[uint32]bool{}
		for _, v := range leaves {
			if seen[v] {
				t.Fatalf("step %d: duplicate leaf %d", i, v)
			}
			seen[v] = true
			if !live[v] {
				t.Fatalf("step %d: stale leaf %d", i, v)
			}
		}
	}
}

func pickAny(m map[uint32]bool) uint32 {
	for v := range m {
		return v
	}
	return 0
}

func TestArrangeIdempotent(t *testing.T) {
	tr := New()
	insertAll(tr, 1, 2, 3, 4)

	opts := Options{Gap: 4, BorderWidth: 2, SmartBorders: true}
	first := tr.Arrange(testArea, opts)
	second := tr.Arrange(testArea, opts)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recompute differs:\n%v\n%v", first, second)
	}
}

func TestSumInvariant(t *testing.T) {
	tr := New()
	insertAll(tr, 1, 2, 3, 4, 5, 6, 7)

	var gap int32 = 6
	var check func(id nodeID, r Rect)
	check = func(id nodeID, r Rect) {
		n := &tr.nodes[id]
		if n.isLeaf() {
			return
		}
		a, b := splitRect(r, n.axis, n.fraction, gap)
		if n.axis == SplitVertical {
			if a.W+b.W != r.W-gap {
				t.Fatalf("vertical split: %d + %d != %d - %d", a.W, b.W, r.W, gap)
			}
		} else {
			if a.H+b.H != r.H-gap {
				t.Fatalf("horizontal split: %d + %d != %d - %d", a.H, b.H, r.H, gap)
			}
		}
		check(n.first, a)
		check(n.second, b)
	}
	check(tr.root, testArea.Inset(gap))
}

func TestSingleLeafCollapse(t *testing.T) {
	tr := New()
	tr.Insert(1, 0, testArea, 4)

	smart := tr.Arrange(testArea, Options{Gap: 4, BorderWidth: 2, SmartBorders: true})
	if len(smart) != 1 {
		t.Fatalf("placements = %d", len(smart))
	}
	if smart[0].Rect != testArea || smart[0].Border != 0 {
		t.Errorf("smart borders: got %+v border %d, want full area border 0", smart[0].Rect, smart[0].Border)
	}

	plain := tr.Arrange(testArea, Options{Gap: 4, BorderWidth: 2, SmartBorders: false})
	if plain[0].Rect != testArea.Inset(4) || plain[0].Border != 2 {
		t.Errorf("plain borders: got %+v border %d", plain[0].Rect, plain[0].Border)
	}
}

// The spec scenario: 1920x1080, gap 2, insert A B C, then close B.
func TestThreeViewScenario(t *testing.T) {
	const a, b, c = 1, 2, 3
	tr := New()
	tr.Insert(a, 0, testArea, 2)
	tr.Insert(b, a, testArea, 2)
	tr.Insert(c, b, testArea, 2)

	opts := Options{Gap: 2, BorderWidth: 2, SmartBorders: true}
	checkTiling := func(placements []Placement, want int) {
		t.Helper()
		if len(placements) != want {
			t.Fatalf("placements = %d, want %d", len(placements), want)
		}
		inset := testArea.Inset(2)
		bounds := placements[0].Rect
		for i, p := range placements {
			r := p.Rect
			if r.X < inset.X || r.Y < inset.Y || r.X+r.W > inset.X+inset.W || r.Y+r.H > inset.Y+inset.H {
				t.Errorf("placement %d escapes inset rect: %+v", i, r)
			}
			for j, q := range placements[i+1:] {
				if r.Overlaps(q.Rect) {
					t.Errorf("placements %d and %d overlap", i, i+1+j)
				}
			}
			bounds = union(bounds, r)
		}
		if bounds != inset {
			t.Errorf("union bounds %+v, want %+v", bounds, inset)
		}
	}

	checkTiling(tr.Arrange(testArea, opts), 3)

	tr.Remove(b)
	after := tr.Arrange(testArea, opts)
	checkTiling(after, 2)
	got := map[uint32]bool{}
	for _, p := range after {
		got[p.View] = true
	}
	if !got[a] || !got[c] {
		t.Errorf("views after close = %v, want A and C", got)
	}
}

func union(a, b Rect) Rect {
	x1, y1 := a.X, a.Y
	if b.X < x1 {
		x1 = b.X
	}
	if b.Y < y1 {
		y1 = b.Y
	}
	x2, y2 := a.X+a.W, a.Y+a.H
	if b.X+b.W > x2 {
		x2 = b.X + b.W
	}
	if b.Y+b.H > y2 {
		y2 = b.Y + b.H
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func TestRemovePreservesSiblingStructure(t *testing.T) {
	tr := New()
	insertAll(tr, 1, 2, 3, 4)
	before := tr.Leaves()

	tr.Remove(1)
	after := tr.Leaves()
	// Tree order of the survivors must be unchanged by the promotion.
	var want []uint32
	for _, v := range before {
		if v != 1 {
			want = append(want, v)
		}
	}
	if !reflect.DeepEqual(after, want) {
		t.Errorf("leaf order after promotion = %v, want %v", after, want)
	}
}

func TestEdgeLeaf(t *testing.T) {
	tr := New()
	// 1 | (2 / 3): wide area splits vertically first, then the right pane
	// (taller than wide) splits horizontally.
	tr.Insert(1, 0, testArea, 2)
	tr.Insert(2, 1, testArea, 2)
	tr.Insert(3, 2, testArea, 2)

	if v, _ := tr.EdgeLeaf(Left); v != 1 {
		t.Errorf("left edge = %d, want 1", v)
	}
	if v, _ := tr.EdgeLeaf(Up); v == 1 {
		t.Errorf("top edge should be in the right pane")
	}
	if _, ok := New().EdgeLeaf(Left); ok {
		t.Error("empty tree reported an edge leaf")
	}
}

func TestInsertEdge(t *testing.T) {
	tr := New()
	insertAll(tr, 1, 2)
	tr.InsertEdge(3, Left)

	if v, _ := tr.EdgeLeaf(Left); v != 3 {
		t.Errorf("left edge after InsertEdge = %d, want 3", v)
	}
	if tr.Len() != 3 {
		t.Errorf("len = %d", tr.Len())
	}

	tr2 := New()
	tr2.InsertEdge(9, Down)
	if v, _ := tr2.EdgeLeaf(Down); v != 9 {
		t.Errorf("edge insert into empty tree = %d, want 9", v)
	}
}

func TestSwap(t *testing.T) {
	tr := New()
	insertAll(tr, 1, 2, 3)
	before := tr.Arrange(testArea, Options{Gap: 2})

	rectOf := func(ps []Placement, v uint32) Rect {
		for _, p := range ps {
			if p.View == v {
				return p.Rect
			}
		}
		t.Fatalf("view %d missing", v)
		return Rect{}
	}

	tr.Swap(1, 3)
	after := tr.Arrange(testArea, Options{Gap: 2})
	if rectOf(after, 3) != rectOf(before, 1) || rectOf(after, 1) != rectOf(before, 3) {
		t.Error("swap did not exchange geometries")
	}

	// Swapping with an unknown view is a no-op.
	tr.Swap(1, 99)
	if !reflect.DeepEqual(tr.Arrange(testArea, Options{Gap: 2}), after) {
		t.Error("swap with unknown view changed the tree")
	}
}

func TestTieBreakAlternatesByDepth(t *testing.T) {
	square := Rect{W: 1000, H: 1000}
	tr := New()
	tr.Insert(1, 0, square, 0)
	tr.Insert(2, 1, square, 0)

	// Root split of a square area is vertical (depth 0).
	if tr.nodes[tr.root].axis != SplitVertical {
		t.Errorf("root axis = %v, want vertical", tr.nodes[tr.root].axis)
	}
}
