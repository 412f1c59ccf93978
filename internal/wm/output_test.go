package wm

import (
	"testing"

	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/transport"
)

func TestParseMode(t *testing.T) {
	w, h, hz, err := parseMode("2560x1440@144")
	if err != nil {
		t.Fatalf("parseMode failed: %v", err)
	}
	if w != 2560 || h != 1440 || hz != 144000 {
		t.Errorf("got %dx%d@%d", w, h, hz)
	}

	w, h, hz, err = parseMode("1920x1080")
	if err != nil {
		t.Fatalf("parseMode failed: %v", err)
	}
	if w != 1920 || h != 1080 || hz != 0 {
		t.Errorf("got %dx%d@%d", w, h, hz)
	}

	if _, _, hz, _ = parseMode("1920x1080@59.95"); hz != 59950 {
		t.Errorf("fractional refresh: got %d, want 59950", hz)
	}

	for _, bad := range []string{"", "1920", "x1080", "0x1080", "1920x-1", "1920x1080@0", "1920x1080@fast"} {
		if _, _, _, err := parseMode(bad); err == nil {
			t.Errorf("parseMode(%q) should have failed", bad)
		}
	}
}

func TestNewOutputAppliesRule(t *testing.T) {
	ev := transport.OutputAdded{
		ID: 1, Name: "DP-1",
		PhysWidth: 1920, PhysHeight: 1080,
		ScaleMilli: 1000,
	}
	rule := &config.OutputRule{
		Mode:      "2560x1440@144",
		Scale:     1.5,
		Transform: "90",
		Position:  "100,200",
	}

	out, err := newOutput(ev, rule, 0)
	if err != nil {
		t.Fatalf("newOutput failed: %v", err)
	}
	if out.PhysW != 2560 || out.PhysH != 1440 {
		t.Errorf("mode not applied: %dx%d", out.PhysW, out.PhysH)
	}
	if out.RefreshMHz != 144000 {
		t.Errorf("refresh not applied: %d", out.RefreshMHz)
	}
	// 90 degrees swaps axes before scaling: ceil(1440/1.5) x ceil(2560/1.5)
	if out.Logical.W != 960 || out.Logical.H != 1707 {
		t.Errorf("logical size = %dx%d, want 960x1707", out.Logical.W, out.Logical.H)
	}
	if out.Logical.X != 100 || out.Logical.Y != 200 {
		t.Errorf("position not applied: %d,%d", out.Logical.X, out.Logical.Y)
	}
}

func TestNewOutputDefaults(t *testing.T) {
	ev := transport.OutputAdded{
		ID: 2, Name: "HDMI-A-1",
		PhysWidth: 3840, PhysHeight: 2160,
		ScaleMilli: 2000,
	}

	out, err := newOutput(ev, nil, 1920)
	if err != nil {
		t.Fatalf("newOutput failed: %v", err)
	}
	if out.Scale != 2.0 {
		t.Errorf("advertised scale not kept: %v", out.Scale)
	}
	if out.Logical.W != 1920 || out.Logical.H != 1080 {
		t.Errorf("logical size = %dx%d, want 1920x1080", out.Logical.W, out.Logical.H)
	}
	if out.Logical.X != 1920 {
		t.Errorf("autoposition not applied: x=%d", out.Logical.X)
	}
	if out.Tags != 1 {
		t.Errorf("new output should show tag 1, got mask %b", out.Tags)
	}
}

func TestOutputResizeAndRescale(t *testing.T) {
	ev := transport.OutputAdded{ID: 1, Name: "DP-1", PhysWidth: 1920, PhysHeight: 1080}
	out, _ := newOutput(ev, nil, 0)

	out.resize(2560, 1440)
	if out.Logical.W != 2560 || out.Logical.H != 1440 {
		t.Errorf("resize: logical = %dx%d", out.Logical.W, out.Logical.H)
	}

	out.rescale(1250)
	if out.Logical.W != 2048 || out.Logical.H != 1152 {
		t.Errorf("rescale: logical = %dx%d, want 2048x1152", out.Logical.W, out.Logical.H)
	}
}
