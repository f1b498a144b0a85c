package rig

import (
	"fmt"

	"github.com/gwillem/cuberig/pkg/robot"
)

// Button is a single button transition on the gamepad.
type Button struct {
	ID      int
	Pressed bool
}

// Keymap translates button transitions into actions.
type Keymap map[Button]Action

// DefaultKeymap returns the PS3 layout the rig was built around. Only
// presses are mapped.
func DefaultKeymap() Keymap {
	km := Keymap{
		{ID: 1, Pressed: true}:  FlushQueue,
		{ID: 2, Pressed: true}:  Terminate,
		{ID: 4, Pressed: true}:  RotateDouble,
		{ID: 5, Pressed: true}:  RotateRight,
		{ID: 7, Pressed: true}:  RotateLeft,
		{ID: 10, Pressed: true}: ClawHold,
		{ID: 11, Pressed: true}: ClawUnhold,
	}
	for id := 12; id <= 15; id++ {
		km[Button{ID: id, Pressed: true}] = ClawFlip
	}
	return km
}

// KeymapFromBindings builds a keymap from configured bindings. An empty
// list yields the default keymap.
func KeymapFromBindings(bindings []robot.ButtonBinding) (Keymap, error) {
	if len(bindings) == 0 {
		return DefaultKeymap(), nil
	}
	km := make(Keymap, len(bindings))
	for _, b := range bindings {
		a, err := ParseAction(b.Action)
		if err != nil {
			return nil, fmt.Errorf("button %d: %w", b.Button, err)
		}
		km[Button{ID: b.Button, Pressed: b.Pressed}] = a
	}
	return km, nil
}

// Translate returns the action bound to a button transition, if any.
func (k Keymap) Translate(id int, pressed bool) (Action, bool) {
	a, ok := k[Button{ID: id, Pressed: pressed}]
	return a, ok
}
