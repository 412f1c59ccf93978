package wm

import (
	"testing"

	"github.com/rrwm/riverbsp/internal/wm/layout"
)

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
	}{
		{"close", Action{Kind: ActionCloseFocused}},
		{"fullscreen", Action{Kind: ActionToggleFullscreen}},
		{"reload", Action{Kind: ActionReload}},
		{"focus left", Action{Kind: ActionFocusDirection, Dir: layout.Left}},
		{"focus DOWN", Action{Kind: ActionFocusDirection, Dir: layout.Down}},
		{"focus 3", Action{Kind: ActionFocusTag, Tag: 3}},
		{"focus right-output", Action{Kind: ActionFocusOutput, Dir: layout.Right}},
		{"move up", Action{Kind: ActionMoveDirection, Dir: layout.Up}},
		{"move 9", Action{Kind: ActionMoveToTag, Tag: 9}},
		{"spawn foot -e tmux", Action{Kind: ActionSpawn, Argv: []string{"foot", "-e", "tmux"}}},
		{"shell wpctl set-mute @DEFAULT_SINK@ toggle", Action{Kind: ActionShell, Command: "wpctl set-mute @DEFAULT_SINK@ toggle"}},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.in)
		if err != nil {
			t.Errorf("ParseAction(%q) failed: %v", tc.in, err)
			continue
		}
		if got.Kind != tc.want.Kind || got.Dir != tc.want.Dir || got.Tag != tc.want.Tag || got.Command != tc.want.Command {
			t.Errorf("ParseAction(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		if len(got.Argv) != len(tc.want.Argv) {
			t.Errorf("ParseAction(%q) argv = %v, want %v", tc.in, got.Argv, tc.want.Argv)
		}
	}
}

func TestParseActionRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"teleport",
		"focus",
		"focus left right",
		"focus 0",
		"focus 33",
		"focus sideways",
		"move left-output", // windows do not move across outputs
		"spawn",
		"shell",
	}
	for _, in := range bad {
		if _, err := ParseAction(in); err == nil {
			t.Errorf("ParseAction(%q) should have failed", in)
		}
	}
}
