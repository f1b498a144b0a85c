package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/gwillem/cuberig/pkg/gamepad"
	"github.com/gwillem/cuberig/pkg/rig"
)

type ButtonsCommand struct {
	Device string `short:"d" long:"device" description:"Gamepad path or name (default: from config, else first gamepad)"`
}

func (c *ButtonsCommand) Execute(args []string) error {
	cfg := loadConfig()
	keymap, err := rig.KeymapFromBindings(cfg.Buttons)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid button bindings: %v\n", err)
		os.Exit(1)
	}

	device := c.Device
	if device == "" {
		device = cfg.Gamepad
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Println(headerStyle.Render("Gamepad Buttons"))
	fmt.Println(dimStyle.Render("Press buttons to see their numbers, Ctrl+C to stop"))
	fmt.Println()

	pad := &gamepad.Source{Device: device}
	err = pad.Run(ctx, gamepad.Handlers{
		Added: func(name string) {
			fmt.Println(successStyle.Render("Connected: " + name))
		},
		Removed: func(name string) {
			fmt.Println(dimStyle.Render("Disconnected: " + name))
		},
		Key: func(button int, pressed bool) {
			state := "released"
			if pressed {
				state = "pressed "
			}
			line := fmt.Sprintf("  button %2d %s", button, state)
			if action, ok := keymap.Translate(button, pressed); ok {
				line += "  -> " + subHeaderStyle.Render(action.String())
			}
			fmt.Println(line)
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
