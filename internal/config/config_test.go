package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "riverbsp.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	SetConfigPath(writeConfig(t, ""))
	defer SetConfigPath("")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if c.Window.Gaps != 4 {
		t.Errorf("expected default gaps 4, got %d", c.Window.Gaps)
	}
	if !c.Window.SmartBorders {
		t.Error("expected smart_borders on by default")
	}
	if c.Window.Active.Border.Width != 2 {
		t.Errorf("expected default border width 2, got %d", c.Window.Active.Border.Width)
	}
	if c.Input.Keyboard.Layout != "us" {
		t.Errorf("expected default layout us, got %q", c.Input.Keyboard.Layout)
	}
	if c.Waybar.FocusedStyle != "focused" {
		t.Errorf("expected default focused style, got %q", c.Waybar.FocusedStyle)
	}
}

func TestLoadFullConfig(t *testing.T) {
	SetConfigPath(writeConfig(t, `
[input.keyboard]
layout = "de"
variant = "nodeadkeys"
numlock = true

[window]
smart_borders = false
gaps = 8

[window.active.border]
width = 3
color = "#ff79c6"

[waybar]
tag_icons = ["一", "二", "三"]
focused_style = "active"

[output."DP-1"]
focus_at_startup = true
mode = "2560x1440@144"
scale = 1.5
transform = "90"
position = "0,0"

[keybindings.super]
q = "close"
h = "focus left"

[keybindings."super+shift"]
h = ["move left", "focus left"]
`))
	defer SetConfigPath("")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if c.Input.Keyboard.Layout != "de" || c.Input.Keyboard.Variant != "nodeadkeys" {
		t.Errorf("keyboard section not parsed: %+v", c.Input.Keyboard)
	}
	if !c.Input.Keyboard.Numlock {
		t.Error("numlock not parsed")
	}
	if c.Window.Gaps != 8 || c.Window.SmartBorders {
		t.Errorf("window section not parsed: %+v", c.Window)
	}
	if c.Window.Active.Border.Width != 3 || c.Window.Active.Border.Color != "#ff79c6" {
		t.Errorf("border section not parsed: %+v", c.Window.Active.Border)
	}
	if len(c.Waybar.TagIcons) != 3 || c.Waybar.TagIcons[0] != "一" {
		t.Errorf("tag icons not parsed: %v", c.Waybar.TagIcons)
	}

	// viper lowercases map keys, RuleFor must still match the output name
	rule, ok := c.RuleFor("DP-1")
	if !ok {
		t.Fatalf("output rule missing, got %v", c.Output)
	}
	if !rule.FocusAtStartup || rule.Mode != "2560x1440@144" || rule.Scale != 1.5 {
		t.Errorf("output rule not parsed: %+v", rule)
	}

	if len(c.Keybindings) != 2 {
		t.Fatalf("expected 2 keybinding groups, got %d", len(c.Keybindings))
	}
	super := c.Keybindings["super"]
	if super["q"] != "close" {
		t.Errorf("super+q binding not parsed: %v", super)
	}
	if _, ok := c.Keybindings["super+shift"]["h"].([]interface{}); !ok {
		t.Errorf("action list not preserved: %T", c.Keybindings["super+shift"]["h"])
	}
}

func TestLoadRejectsInvalidTOML(t *testing.T) {
	SetConfigPath(writeConfig(t, `[window
gaps = 8`))
	defer SetConfigPath("")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"negative gaps", "[window]\ngaps = -1"},
		{"negative border", "[window.active.border]\nwidth = -2"},
		{"negative scale", `[output."DP-1"]` + "\nscale = -1.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			SetConfigPath(writeConfig(t, tc.content))
			defer SetConfigPath("")
			if _, err := Load(); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestReloadIsAllOrNothing(t *testing.T) {
	path := writeConfig(t, "[window]\ngaps = 8")
	SetConfigPath(path)
	defer SetConfigPath("")

	if err := Init(); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if Get().Window.Gaps != 8 {
		t.Fatalf("expected gaps 8, got %d", Get().Window.Gaps)
	}

	// Break the file; a failed Load must leave the global untouched.
	if err := os.WriteFile(path, []byte("[window\ngaps = 12"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected Load() to fail on broken file")
	}
	if Get().Window.Gaps != 8 {
		t.Errorf("failed reload mutated config: gaps = %d", Get().Window.Gaps)
	}

	// Fix the file; the new value should come through.
	if err := os.WriteFile(path, []byte("[window]\ngaps = 12"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load()
	if err != nil {
		t.Fatalf("Load() failed after fixing file: %v", err)
	}
	Set(c)
	if Get().Window.Gaps != 12 {
		t.Errorf("expected gaps 12 after reload, got %d", Get().Window.Gaps)
	}
}
