// Package cuberig drives a Rubik's cube rig: a turntable that rotates the
// cube and a claw that holds and flips it, commanded from a gamepad.
//
// Button presses become actions. Flush and terminate take effect at once;
// every other action goes through a small bounded queue to a single
// executor that runs one motor move at a time and waits for the servos to
// settle before starting the next.
//
// # Installation
//
//	go install github.com/gwillem/cuberig/cmd/cuberig@latest
//
// # Usage
//
// First, run setup to find the servos and record the home position:
//
//	cuberig setup
//
// Then drive the rig:
//
//	cuberig run
//
// Use "cuberig run --simulate" to try the controls without hardware, and
// "cuberig buttons" to see how your gamepad numbers its buttons.
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/cuberig: CLI with run, setup, buttons and jog commands
//   - pkg/rig: actions, keymap, queue and the executor state machine
//   - pkg/robot: servo driver, simulator, discovery and configuration
//   - pkg/teleop: controller wiring gamepad events to the executor
//   - pkg/gamepad: evdev gamepad input with reconnect
package cuberig
