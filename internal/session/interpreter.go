package session

import "strings"

// Action is what the loop should do with a console line.
type Action int

const (
	ActionNone Action = iota
	ActionSetFilter
	ActionActivateSecondary
	ActionUsageError
	ActionSendScheduled
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSetFilter:
		return "set-filter"
	case ActionActivateSecondary:
		return "activate-secondary"
	case ActionUsageError:
		return "usage-error"
	case ActionSendScheduled:
		return "send-scheduled"
	default:
		return "unknown"
	}
}

// Command is an interpreted console line. Target is the filter target for
// ActionSetFilter and ActionSendScheduled; Body is the message text.
type Command struct {
	Action Action
	Target string
	Body   string
}

// Interpreter classifies console lines.
type Interpreter struct {
	FilterPrefix     string
	SecondaryKeyword string
}

// Interpret maps a line to a command given the current filter target.
// Blank lines are ActionNone.
func (in Interpreter) Interpret(filter, line string) Command {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return Command{Action: ActionNone}
	case in.FilterPrefix != "" && strings.HasPrefix(line, in.FilterPrefix):
		return Command{Action: ActionSetFilter, Target: strings.TrimSpace(line[len(in.FilterPrefix):])}
	case trimmed == in.SecondaryKeyword:
		return Command{Action: ActionActivateSecondary}
	case filter == "":
		return Command{Action: ActionUsageError}
	default:
		return Command{Action: ActionSendScheduled, Target: filter, Body: trimmed}
	}
}
