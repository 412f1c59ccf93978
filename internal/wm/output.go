package wm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/transport"
	"github.com/rrwm/riverbsp/internal/wm/layout"
)

// Transform is the output rotation/flip applied by the compositor.
type Transform uint8

const (
	TransformNormal Transform = iota
	Transform90
	Transform180
	Transform270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

// swapsAxes reports whether the transform exchanges width and height.
func (t Transform) swapsAxes() bool {
	switch t {
	case Transform90, Transform270, TransformFlipped90, TransformFlipped270:
		return true
	}
	return false
}

func parseTransform(s string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return TransformNormal, nil
	case "90":
		return Transform90, nil
	case "180":
		return Transform180, nil
	case "270":
		return Transform270, nil
	case "flipped":
		return TransformFlipped, nil
	case "flipped-90":
		return TransformFlipped90, nil
	case "flipped-180":
		return TransformFlipped180, nil
	case "flipped-270":
		return TransformFlipped270, nil
	}
	return TransformNormal, fmt.Errorf("unknown transform %q", s)
}

// parseMode parses "WxH" or "WxH@Hz" into pixels and millihertz.
// A zero refresh means "keep the compositor's choice".
func parseMode(s string) (w, h, refreshMHz int32, err error) {
	mode, hz, hasHz := strings.Cut(s, "@")
	ws, hs, ok := strings.Cut(mode, "x")
	if !ok {
		return 0, 0, 0, fmt.Errorf("mode %q is not WxH[@Hz]", s)
	}
	wi, err := strconv.ParseInt(strings.TrimSpace(ws), 10, 32)
	if err != nil || wi <= 0 {
		return 0, 0, 0, fmt.Errorf("mode %q has a bad width", s)
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(hs), 10, 32)
	if err != nil || hi <= 0 {
		return 0, 0, 0, fmt.Errorf("mode %q has a bad height", s)
	}
	if hasHz {
		hf, err := strconv.ParseFloat(strings.TrimSpace(hz), 64)
		if err != nil || hf <= 0 {
			return 0, 0, 0, fmt.Errorf("mode %q has a bad refresh rate", s)
		}
		refreshMHz = int32(math.Round(hf * 1000))
	}
	return int32(wi), int32(hi), refreshMHz, nil
}

// parsePosition parses "x,y" into logical coordinates.
func parsePosition(s string) (x, y int32, err error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("position %q is not x,y", s)
	}
	xi, err := strconv.ParseInt(strings.TrimSpace(xs), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("position %q has a bad x", s)
	}
	yi, err := strconv.ParseInt(strings.TrimSpace(ys), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("position %q has a bad y", s)
	}
	return int32(xi), int32(yi), nil
}

// Output is one connected output with its resolved configuration.
type Output struct {
	ID   uint32
	Name string

	PhysW, PhysH int32
	RefreshMHz   int32
	Scale        float64
	Transform    Transform

	// Logical is the usable area in layout coordinates, already scaled
	// and transform-swapped.
	Logical layout.Rect

	// Tags is the bitmask of currently displayed tags.
	Tags uint32

	// Focused is the view holding focus on this output, 0 when none.
	Focused uint32

	FocusAtStartup bool
	positioned     bool
}

// newOutput resolves the compositor-advertised geometry against the
// matching config rule. Autopositioned outputs are packed left to right
// at y=0 in arrival order.
func newOutput(ev transport.OutputAdded, rule *config.OutputRule, autoX int32) (*Output, error) {
	out := &Output{
		ID:         ev.ID,
		Name:       ev.Name,
		PhysW:      ev.PhysWidth,
		PhysH:      ev.PhysHeight,
		RefreshMHz: ev.RefreshMHz,
		Scale:      1.0,
		Tags:       1,
	}
	if ev.ScaleMilli > 0 {
		out.Scale = float64(ev.ScaleMilli) / 1000
	}

	x, y := autoX, int32(0)
	if rule != nil {
		out.FocusAtStartup = rule.FocusAtStartup
		if rule.Mode != "" {
			w, h, hz, err := parseMode(rule.Mode)
			if err != nil {
				return nil, err
			}
			out.PhysW, out.PhysH = w, h
			if hz > 0 {
				out.RefreshMHz = hz
			}
		}
		if rule.Scale > 0 {
			out.Scale = rule.Scale
		}
		t, err := parseTransform(rule.Transform)
		if err != nil {
			return nil, err
		}
		out.Transform = t
		if rule.Position != "" {
			px, py, err := parsePosition(rule.Position)
			if err != nil {
				return nil, err
			}
			x, y = px, py
			out.positioned = true
		}
	}

	out.Logical = layout.Rect{X: x, Y: y, W: out.logicalW(), H: out.logicalH()}
	return out, nil
}

func (o *Output) logicalW() int32 {
	w, h := o.PhysW, o.PhysH
	if o.Transform.swapsAxes() {
		w = h
	}
	return int32(math.Ceil(float64(w) / o.Scale))
}

func (o *Output) logicalH() int32 {
	w, h := o.PhysW, o.PhysH
	if o.Transform.swapsAxes() {
		h = w
	}
	return int32(math.Ceil(float64(h) / o.Scale))
}

// resize updates the physical mode and recomputes the logical area in place.
func (o *Output) resize(w, h int32) {
	o.PhysW, o.PhysH = w, h
	o.Logical.W, o.Logical.H = o.logicalW(), o.logicalH()
}

// rescale updates the scale factor and recomputes the logical area.
func (o *Output) rescale(scaleMilli int32) {
	if scaleMilli <= 0 {
		return
	}
	o.Scale = float64(scaleMilli) / 1000
	o.Logical.W, o.Logical.H = o.logicalW(), o.logicalH()
}
