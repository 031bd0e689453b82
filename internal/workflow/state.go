package workflow

import "fmt"

// State is a workflow lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSelectingParams
	StateLoading
	StateReady
	StateSubmitting
	StateError
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateSelectingParams: "selecting_params",
	StateLoading:         "loading",
	StateReady:           "ready",
	StateSubmitting:      "submitting",
	StateError:           "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Mode is the workflow entry point.
type Mode string

const (
	// ModeCreate records a new session (POST).
	ModeCreate Mode = "create"
	// ModeUpdate revises a saved record (PUT).
	ModeUpdate Mode = "update"
)

// ParseMode validates a raw mode string.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(raw) {
	case ModeCreate:
		return ModeCreate, true
	case ModeUpdate:
		return ModeUpdate, true
	default:
		return "", false
	}
}
