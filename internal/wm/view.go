package wm

import "github.com/rrwm/riverbsp/internal/wm/layout"

// MaxTags is the number of addressable tags per output.
const MaxTags = 32

// View is one mapped toplevel window as the compositor reported it.
type View struct {
	ID    uint32
	AppID string

	// Output is the ID of the output the view lives on, 0 while the view
	// is parked because no output exists.
	Output uint32

	// Tags is the bitmask of tags the view occupies, bit n for tag n+1.
	Tags uint32

	// Geometry is the last committed layout rectangle. It is only
	// replaced by well formed proposals, a degenerate proposal keeps the
	// previous value.
	Geometry layout.Rect

	Fullscreen bool
}

// On reports whether the view occupies the given 1-based tag.
func (v *View) On(tag int) bool {
	return v.Tags&(1<<(tag-1)) != 0
}

// eachTag calls fn for every 1-based tag in the view's mask.
func (v *View) eachTag(fn func(tag int)) {
	for t := 1; t <= MaxTags; t++ {
		if v.Tags&(1<<(t-1)) != 0 {
			fn(t)
		}
	}
}
