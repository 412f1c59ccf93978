package wm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rrwm/riverbsp/internal/wm/layout"
)

// ActionKind enumerates the closed set of actions a binding can trigger.
type ActionKind uint8

const (
	ActionCloseFocused ActionKind = iota
	ActionToggleFullscreen
	ActionFocusDirection
	ActionFocusTag
	ActionFocusOutput
	ActionMoveToTag
	ActionMoveDirection
	ActionSpawn
	ActionShell
	ActionReload
)

// Action is one executable command. The set is closed: the executor
// switches over Kind exhaustively and there is nothing to extend.
type Action struct {
	Kind ActionKind

	Dir     layout.Direction // FocusDirection, FocusOutput, MoveDirection
	Tag     int              // FocusTag, MoveToTag; 1-based
	Argv    []string         // Spawn
	Command string           // Shell
}

func (a Action) String() string {
	switch a.Kind {
	case ActionCloseFocused:
		return "close"
	case ActionToggleFullscreen:
		return "fullscreen"
	case ActionFocusDirection:
		return "focus " + a.Dir.String()
	case ActionFocusTag:
		return fmt.Sprintf("focus %d", a.Tag)
	case ActionFocusOutput:
		return "focus " + a.Dir.String() + "-output"
	case ActionMoveToTag:
		return fmt.Sprintf("move %d", a.Tag)
	case ActionMoveDirection:
		return "move " + a.Dir.String()
	case ActionSpawn:
		return "spawn " + strings.Join(a.Argv, " ")
	case ActionShell:
		return "shell " + a.Command
	default:
		return "reload"
	}
}

// ParseAction turns a config action string into an Action. The syntax is
// "<verb> [args...]": focus/move take a direction, a tag number or a
// direction-output target; spawn takes an argv; shell takes the rest of the
// line verbatim.
func ParseAction(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("empty action")
	}

	verb := strings.ToLower(fields[0])
	rest := fields[1:]

	switch verb {
	case "close", "close-focused":
		return Action{Kind: ActionCloseFocused}, nil
	case "fullscreen", "toggle-fullscreen":
		return Action{Kind: ActionToggleFullscreen}, nil
	case "reload", "reload-configuration":
		return Action{Kind: ActionReload}, nil
	case "focus":
		return parseTarget(ActionFocusDirection, ActionFocusTag, ActionFocusOutput, rest)
	case "move":
		return parseTarget(ActionMoveDirection, ActionMoveToTag, 0, rest)
	case "spawn":
		if len(rest) == 0 {
			return Action{}, fmt.Errorf("spawn needs a command")
		}
		return Action{Kind: ActionSpawn, Argv: rest}, nil
	case "shell":
		if len(rest) == 0 {
			return Action{}, fmt.Errorf("shell needs a command")
		}
		cmd := strings.TrimSpace(strings.TrimPrefix(s, fields[0]))
		return Action{Kind: ActionShell, Command: cmd}, nil
	default:
		return Action{}, fmt.Errorf("unknown action %q", verb)
	}
}

func parseTarget(dirKind, tagKind, outputKind ActionKind, args []string) (Action, error) {
	if len(args) != 1 {
		return Action{}, fmt.Errorf("focus/move need exactly one target, got %v", args)
	}
	arg := strings.ToLower(args[0])

	if target, ok := strings.CutSuffix(arg, "-output"); ok {
		if outputKind == 0 {
			return Action{}, fmt.Errorf("windows cannot be moved with %q, use a direction or tag", arg)
		}
		dir, err := parseDirection(target)
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: outputKind, Dir: dir}, nil
	}

	if dir, err := parseDirection(arg); err == nil {
		return Action{Kind: dirKind, Dir: dir}, nil
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > MaxTags {
		return Action{}, fmt.Errorf("target %q is neither a direction nor a tag 1..%d", arg, MaxTags)
	}
	return Action{Kind: tagKind, Tag: n}, nil
}

func parseDirection(s string) (layout.Direction, error) {
	switch s {
	case "left":
		return layout.Left, nil
	case "right":
		return layout.Right, nil
	case "up":
		return layout.Up, nil
	case "down":
		return layout.Down, nil
	}
	return layout.Left, fmt.Errorf("unknown direction %q", s)
}
