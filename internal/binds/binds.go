// Package binds turns the keybindings section of the config into a
// lookup table from grabbed key events to action sequences.
package binds

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rrwm/riverbsp/internal/config"
	"github.com/rrwm/riverbsp/internal/logger"
	"github.com/rrwm/riverbsp/internal/wm"
)

// Modifier is a bitmask of held modifier keys. The values match what
// the compositor reports in key events.
type Modifier uint32

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// ParseModifiers parses a combo string like "super+shift" into a mask.
// "none" means no modifiers. Separators may be "+", "-" or "_".
func ParseModifiers(s string) (Modifier, error) {
	var mods Modifier
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '+' || r == '-' || r == '_'
	})
	if len(parts) == 0 {
		return 0, fmt.Errorf("empty modifier combo")
	}
	for _, p := range parts {
		switch p {
		case "none":
			// explicit no-modifier marker
		case "shift":
			mods |= ModShift
		case "ctrl", "control":
			mods |= ModCtrl
		case "alt", "meta", "mod1":
			mods |= ModAlt
		case "super", "logo", "win", "mod4":
			mods |= ModSuper
		default:
			return 0, fmt.Errorf("unknown modifier %q", p)
		}
	}
	return mods, nil
}

// namedKeysyms covers the non-printable keys config files reach for.
// Printable single characters map straight to their codepoint.
var namedKeysyms = map[string]uint32{
	"space":     0x0020,
	"return":    0xff0d,
	"enter":     0xff0d,
	"kp_enter":  0xff8d,
	"escape":    0xff1b,
	"esc":       0xff1b,
	"tab":       0xff09,
	"backspace": 0xff08,
	"delete":    0xffff,
	"insert":    0xff63,
	"home":      0xff50,
	"end":       0xff57,
	"left":      0xff51,
	"up":        0xff52,
	"right":     0xff53,
	"down":      0xff54,
	"prior":     0xff55,
	"page_up":   0xff55,
	"next":      0xff56,
	"page_down": 0xff56,
	"print":     0xff61,
	"menu":      0xff67,

	"comma":        0x002c,
	"period":       0x002e,
	"slash":        0x002f,
	"semicolon":    0x003b,
	"apostrophe":   0x0027,
	"minus":        0x002d,
	"equal":        0x003d,
	"grave":        0x0060,
	"backslash":    0x005c,
	"bracketleft":  0x005b,
	"bracketright": 0x005d,

	"xf86audioraisevolume":  0x1008ff13,
	"xf86audiolowervolume":  0x1008ff11,
	"xf86audiomute":         0x1008ff12,
	"xf86audioplay":         0x1008ff14,
	"xf86audionext":         0x1008ff17,
	"xf86audioprev":         0x1008ff16,
	"xf86monbrightnessup":   0x1008ff02,
	"xf86monbrightnessdown": 0x1008ff03,
}

// KeysymFromName resolves a key name to its keysym value. Letters are
// case-folded so "Q" and "q" grab the same key, shift being a modifier.
func KeysymFromName(name string) (uint32, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return 0, fmt.Errorf("empty key name")
	}

	if len(n) == 1 {
		r := rune(n[0])
		if r > 0x20 && r < 0x7f {
			return uint32(r), nil
		}
	}
	if sym, ok := namedKeysyms[n]; ok {
		return sym, nil
	}
	if rest, ok := strings.CutPrefix(n, "f"); ok {
		if num, err := strconv.Atoi(rest); err == nil && num >= 1 && num <= 24 {
			return 0xffbe + uint32(num-1), nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

type comboKey struct {
	mods Modifier
	sym  uint32
}

// Binding is one resolved keybinding ready to be grabbed.
type Binding struct {
	Mods    Modifier
	Keysym  uint32
	Actions []wm.Action
	Combo   string
}

// Resolver maps grabbed key events to their action sequences. Lookups
// are exact: the modifier mask must match the binding bit for bit.
type Resolver struct {
	table    map[comboKey][]wm.Action
	bindings []Binding
}

// Build parses the config's keybindings. Malformed entries are logged
// and skipped so one typo does not take the whole keymap down.
func Build(cfg *config.Config) *Resolver {
	r := &Resolver{table: make(map[comboKey][]wm.Action)}

	for combo, keys := range cfg.Keybindings {
		mods, err := ParseModifiers(combo)
		if err != nil {
			logger.Warn("skipping keybinding group", "combo", combo, "error", err)
			continue
		}
		for keyName, raw := range keys {
			sym, err := KeysymFromName(keyName)
			if err != nil {
				logger.Warn("skipping keybinding", "combo", combo, "key", keyName, "error", err)
				continue
			}
			actions, err := parseActions(raw)
			if err != nil {
				logger.Warn("skipping keybinding", "combo", combo, "key", keyName, "error", err)
				continue
			}
			ck := comboKey{mods, sym}
			if _, dup := r.table[ck]; dup {
				logger.Warn("duplicate keybinding, keeping the first", "combo", combo, "key", keyName)
				continue
			}
			r.table[ck] = actions
			r.bindings = append(r.bindings, Binding{
				Mods:    mods,
				Keysym:  sym,
				Actions: actions,
				Combo:   combo + "+" + keyName,
			})
		}
	}
	logger.Debug("keybindings built", "count", len(r.bindings))
	return r
}

// parseActions accepts a single action string or a list of them.
func parseActions(raw interface{}) ([]wm.Action, error) {
	switch v := raw.(type) {
	case string:
		a, err := wm.ParseAction(v)
		if err != nil {
			return nil, err
		}
		return []wm.Action{a}, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("empty action list")
		}
		actions := make([]wm.Action, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("action list entries must be strings, got %T", item)
			}
			a, err := wm.ParseAction(s)
			if err != nil {
				return nil, err
			}
			actions = append(actions, a)
		}
		return actions, nil
	default:
		return nil, fmt.Errorf("action must be a string or a list, got %T", raw)
	}
}

// Lookup resolves a key event to its bound actions.
func (r *Resolver) Lookup(mods, keysym uint32) ([]wm.Action, bool) {
	actions, ok := r.table[comboKey{Modifier(mods), keysym}]
	return actions, ok
}

// Bindings lists every resolved binding, for key-grab registration.
func (r *Resolver) Bindings() []Binding {
	return r.bindings
}
