// Package rig sequences logical actions onto the turntable-and-claw rig.
//
// Button presses are translated into Actions by a Keymap. Control actions
// (flush, terminate) are handled by the caller straight away; the others go
// through a Queue to a single Executor, which runs them one at a time and
// waits for the motors to report idle before taking the next one.
package rig

import "fmt"

// Action is one discrete maneuver the rig understands.
type Action uint8

const (
	FlushQueue Action = iota
	Terminate
	RotateLeft
	RotateRight
	RotateDouble
	ClawHold
	ClawUnhold
	ClawFlip
)

var actionNames = [...]string{
	FlushQueue:   "flush",
	Terminate:    "terminate",
	RotateLeft:   "rotate_left",
	RotateRight:  "rotate_right",
	RotateDouble: "rotate_double",
	ClawHold:     "claw_hold",
	ClawUnhold:   "claw_unhold",
	ClawFlip:     "claw_flip",
}

// AllActions returns every action in declaration order.
func AllActions() []Action {
	return []Action{FlushQueue, Terminate, RotateLeft, RotateRight, RotateDouble, ClawHold, ClawUnhold, ClawFlip}
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// IsControl reports whether a is a control signal. Control signals never
// enter the queue.
func (a Action) IsControl() bool {
	return a == FlushQueue || a == Terminate
}

// ParseAction returns the action named s.
func ParseAction(s string) (Action, error) {
	for i, name := range actionNames {
		if name == s {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	if int(a) >= len(actionNames) {
		return nil, fmt.Errorf("unknown action %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
