// Package gamepad reads button events from a Linux evdev gamepad and keeps
// reconnecting when the device goes away.
package gamepad

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/holoplot/go-evdev"
)

// ErrNoGamepad is returned when no matching input device is present.
var ErrNoGamepad = errors.New("no gamepad found")

// Event is a single button transition.
type Event struct {
	Button  int
	Pressed bool
	Code    evdev.EvCode
}

// Handlers receive device and button notifications. Nil handlers are skipped.
type Handlers struct {
	Added   func(name string)
	Removed func(name string)
	Key     func(button int, pressed bool)
}

// Source selects the gamepad to read.
type Source struct {
	// Device is a /dev/input path or the kernel device name. Empty picks
	// the first device with gamepad or joystick buttons.
	Device string

	// Retry is the delay between reconnect attempts; nil uses an
	// exponential backoff capped at 5s.
	Retry backoff.BackOff
}

// Run opens the gamepad and forwards its button events until ctx is done,
// reopening the device whenever it disconnects.
func (s *Source) Run(ctx context.Context, h Handlers) error {
	b := s.Retry
	if b == nil {
		eb := backoff.NewExponentialBackOff()
		eb.MaxInterval = 5 * time.Second
		b = eb
	}

	for {
		dev, name, err := s.open()
		if err == nil {
			b.Reset()
			s.serve(ctx, dev, name, h)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := b.NextBackOff()
		if wait == backoff.Stop {
			if err == nil {
				err = fmt.Errorf("%s disconnected", name)
			}
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// serve reads events from dev until it fails or ctx is done.
func (s *Source) serve(ctx context.Context, dev *evdev.InputDevice, name string, h Handlers) {
	index := buttonIndex(dev.CapableEvents(evdev.EV_KEY))

	// Closing a non-blocking device unblocks ReadOne.
	if err := dev.NonBlock(); err == nil {
		stop := context.AfterFunc(ctx, func() { dev.Close() })
		defer stop()
	}
	defer dev.Close()

	if h.Added != nil {
		h.Added(name)
	}
	defer func() {
		if h.Removed != nil {
			h.Removed(name)
		}
	}()

	for {
		ev, err := dev.ReadOne()
		if err != nil {
			return
		}
		e, ok := decode(*ev, index)
		if !ok || h.Key == nil {
			continue
		}
		h.Key(e.Button, e.Pressed)
	}
}

func (s *Source) open() (*evdev.InputDevice, string, error) {
	if strings.HasPrefix(s.Device, "/") {
		return openPath(s.Device)
	}

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, "", fmt.Errorf("list input devices: %w", err)
	}
	for _, p := range paths {
		if s.Device != "" && p.Name != s.Device {
			continue
		}
		dev, name, err := openPath(p.Path)
		if err != nil {
			continue
		}
		if s.Device != "" || isGamepad(dev.CapableEvents(evdev.EV_KEY)) {
			return dev, name, nil
		}
		dev.Close()
	}
	if s.Device != "" {
		return nil, "", fmt.Errorf("%s: %w", s.Device, ErrNoGamepad)
	}
	return nil, "", ErrNoGamepad
}

func openPath(path string) (*evdev.InputDevice, string, error) {
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	name, err := dev.Name()
	if err != nil || name == "" {
		name = path
	}
	return dev, name, nil
}

// isGamepad reports whether codes include a joystick or gamepad button.
func isGamepad(codes []evdev.EvCode) bool {
	for _, c := range codes {
		if c >= evdev.BTN_JOYSTICK && c < evdev.BTN_DIGI {
			return true
		}
	}
	return false
}

// buttonIndex numbers key codes the way the kernel joystick interface
// (joydev) does: codes from BTN_JOYSTICK upwards first, then the BTN_MISC
// block below it. Codes under BTN_MISC (keyboard keys) get no number.
func buttonIndex(codes []evdev.EvCode) map[evdev.EvCode]int {
	sorted := slices.Clone(codes)
	slices.SortFunc(sorted, func(a, b evdev.EvCode) int {
		return joydevRank(a) - joydevRank(b)
	})
	sorted = slices.Compact(sorted)

	index := make(map[evdev.EvCode]int, len(sorted))
	for _, c := range sorted {
		if c < evdev.BTN_MISC {
			continue
		}
		index[c] = len(index)
	}
	return index
}

// joydevRank orders codes with BTN_JOYSTICK and above ahead of the rest.
func joydevRank(c evdev.EvCode) int {
	if c >= evdev.BTN_JOYSTICK {
		return int(c) - evdev.BTN_JOYSTICK
	}
	return int(c) + 0x10000
}

// decode turns a raw key event into a button transition. Autorepeat and
// non-key events are dropped.
func decode(ev evdev.InputEvent, index map[evdev.EvCode]int) (Event, bool) {
	if ev.Type != evdev.EV_KEY {
		return Event{}, false
	}
	if ev.Value != 0 && ev.Value != 1 {
		return Event{}, false
	}
	button, ok := index[ev.Code]
	if !ok {
		return Event{}, false
	}
	return Event{Button: button, Pressed: ev.Value == 1, Code: ev.Code}, true
}
