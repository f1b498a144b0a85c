package rig

import (
	"encoding/json"
	"testing"

	"github.com/gwillem/cuberig/pkg/robot"
)

func TestDefaultKeymap(t *testing.T) {
	km := DefaultKeymap()

	tests := []struct {
		button  int
		pressed bool
		want    Action
		ok      bool
	}{
		{1, true, FlushQueue, true},
		{2, true, Terminate, true},
		{7, true, RotateLeft, true},
		{5, true, RotateRight, true},
		{4, true, RotateDouble, true},
		{10, true, ClawHold, true},
		{11, true, ClawUnhold, true},
		{12, true, ClawFlip, true},
		{15, true, ClawFlip, true},
		{7, false, 0, false}, // releases are unmapped
		{3, true, 0, false},
		{16, true, 0, false},
	}

	for _, tt := range tests {
		got, ok := km.Translate(tt.button, tt.pressed)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Translate(%d, %v) = %s, %v; want %s, %v", tt.button, tt.pressed, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeymapFromBindings(t *testing.T) {
	km, err := KeymapFromBindings([]robot.ButtonBinding{
		{Button: 3, Pressed: true, Action: "claw_hold"},
		{Button: 3, Pressed: false, Action: "claw_unhold"},
		{Button: 9, Pressed: true, Action: "terminate"},
	})
	if err != nil {
		t.Fatalf("KeymapFromBindings: %v", err)
	}
	if len(km) != 3 {
		t.Errorf("len = %d, want 3", len(km))
	}
	if a, ok := km.Translate(3, false); !ok || a != ClawUnhold {
		t.Errorf("Translate(3, false) = %s, %v", a, ok)
	}
	if _, ok := km.Translate(1, true); ok {
		t.Error("custom bindings must replace the defaults")
	}

	if _, err := KeymapFromBindings([]robot.ButtonBinding{{Button: 1, Action: "dance"}}); err == nil {
		t.Error("expected an error for an unknown action")
	}

	km, err = KeymapFromBindings(nil)
	if err != nil || len(km) != len(DefaultKeymap()) {
		t.Errorf("empty bindings should give the default keymap, got %d entries, %v", len(km), err)
	}
}

func TestAction_ParseAndString(t *testing.T) {
	for _, a := range AllActions() {
		parsed, err := ParseAction(a.String())
		if err != nil {
			t.Errorf("ParseAction(%q): %v", a, err)
			continue
		}
		if parsed != a {
			t.Errorf("ParseAction(%q) = %s", a, parsed)
		}
	}
	if _, err := ParseAction("rotate_up"); err == nil {
		t.Error("expected error for unknown name")
	}
	if s := Action(42).String(); s != "action(42)" {
		t.Errorf("String() of unknown action = %q", s)
	}
}

func TestAction_IsControl(t *testing.T) {
	for _, a := range AllActions() {
		want := a == FlushQueue || a == Terminate
		if a.IsControl() != want {
			t.Errorf("%s.IsControl() = %v", a, a.IsControl())
		}
	}
}

func TestAction_JSON(t *testing.T) {
	var m map[string]Action
	if err := json.Unmarshal([]byte(`{"x": "claw_flip", "y": "flush"}`), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m["x"] != ClawFlip || m["y"] != FlushQueue {
		t.Errorf("decoded %v", m)
	}

	data, err := json.Marshal([]Action{RotateDouble})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["rotate_double"]` {
		t.Errorf("Marshal = %s", data)
	}

	if err := json.Unmarshal([]byte(`"spin"`), new(Action)); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestState_Orientation(t *testing.T) {
	tests := []struct {
		rotation, want int
	}{
		{0, 0}, {90, 90}, {360, 0}, {450, 90}, {-90, 270}, {-360, 0}, {-450, 270},
	}
	for _, tt := range tests {
		if got := (State{TableRotation: tt.rotation}).Orientation(); got != tt.want {
			t.Errorf("Orientation(%d) = %d, want %d", tt.rotation, got, tt.want)
		}
	}
}
