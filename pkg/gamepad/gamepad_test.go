package gamepad

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/holoplot/go-evdev"
)

func TestButtonIndex(t *testing.T) {
	codes := []evdev.EvCode{
		evdev.KEY_A,
		evdev.BTN_MISC,
		evdev.BTN_EAST,
		evdev.BTN_SOUTH,
		evdev.BTN_TL,
		evdev.BTN_SOUTH,
		evdev.BTN_TRIGGER_HAPPY1,
	}
	index := buttonIndex(codes)

	want := map[evdev.EvCode]int{
		evdev.BTN_SOUTH:          0,
		evdev.BTN_EAST:           1,
		evdev.BTN_TL:             2,
		evdev.BTN_TRIGGER_HAPPY1: 3,
		evdev.BTN_MISC:           4,
	}
	if len(index) != len(want) {
		t.Fatalf("len(index) = %d, want %d", len(index), len(want))
	}
	for code, id := range want {
		if got, ok := index[code]; !ok || got != id {
			t.Errorf("index[%v] = %d (present %v), want %d", code, got, ok, id)
		}
	}
	if _, ok := index[evdev.KEY_A]; ok {
		t.Error("keyboard key got a button number")
	}
}

func TestDecode(t *testing.T) {
	index := buttonIndex([]evdev.EvCode{evdev.BTN_SOUTH, evdev.BTN_EAST})

	tests := []struct {
		name   string
		ev     evdev.InputEvent
		want   Event
		wantOK bool
	}{
		{
			name:   "press",
			ev:     evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_EAST, Value: 1},
			want:   Event{Button: 1, Pressed: true, Code: evdev.BTN_EAST},
			wantOK: true,
		},
		{
			name:   "release",
			ev:     evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 0},
			want:   Event{Button: 0, Pressed: false, Code: evdev.BTN_SOUTH},
			wantOK: true,
		},
		{
			name: "autorepeat",
			ev:   evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_SOUTH, Value: 2},
		},
		{
			name: "unknown code",
			ev:   evdev.InputEvent{Type: evdev.EV_KEY, Code: evdev.BTN_MODE, Value: 1},
		},
		{
			name: "axis",
			ev:   evdev.InputEvent{Type: evdev.EV_ABS, Code: evdev.ABS_X, Value: 1},
		},
		{
			name: "sync",
			ev:   evdev.InputEvent{Type: evdev.EV_SYN},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decode(tt.ev, index)
			if ok != tt.wantOK {
				t.Fatalf("decode() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsGamepad(t *testing.T) {
	tests := []struct {
		name  string
		codes []evdev.EvCode
		want  bool
	}{
		{"gamepad", []evdev.EvCode{evdev.BTN_SOUTH, evdev.BTN_EAST}, true},
		{"joystick", []evdev.EvCode{evdev.BTN_TRIGGER}, true},
		{"keyboard", []evdev.EvCode{evdev.KEY_A, evdev.KEY_ENTER}, false},
		{"mouse", []evdev.EvCode{evdev.BTN_LEFT, evdev.BTN_RIGHT}, false},
		{"none", nil, false},
	}

	for _, tt := range tests {
		if got := isGamepad(tt.codes); got != tt.want {
			t.Errorf("%s: isGamepad() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := &Source{
		Device: "/nonexistent/cuberig-gamepad",
		Retry:  backoff.NewConstantBackOff(5 * time.Millisecond),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := s.Run(ctx, Handlers{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v, want context.DeadlineExceeded", err)
	}
}

func TestRunGivesUpWithStopBackOff(t *testing.T) {
	added := false
	s := &Source{
		Device: "/nonexistent/cuberig-gamepad",
		Retry:  &backoff.StopBackOff{},
	}

	err := s.Run(context.Background(), Handlers{Added: func(string) { added = true }})
	if err == nil {
		t.Fatal("expected open error")
	}
	if added {
		t.Error("Added called for a device that never opened")
	}
}
