package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/gwillem/cuberig/pkg/rig"
	"github.com/gwillem/cuberig/pkg/robot"
)

type Options struct {
	Config string `short:"c" long:"config" description:"Configuration file (default: cuberig.json)"`

	Run     RunCommand     `command:"run" description:"Drive the rig from the gamepad"`
	Setup   SetupCommand   `command:"setup" description:"Find the servos and identify table and claw"`
	Buttons ButtonsCommand `command:"buttons" description:"Print gamepad button events"`
	Jog     JogCommand     `command:"jog" description:"Turn a motor by quarter turns from the keyboard"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Cube rig - gamepad control for a turntable-and-claw Rubik's cube rig"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// driver is a rig driver that can also report measured angles and be closed.
type driver interface {
	rig.Driver
	Degrees(ctx context.Context, motor robot.MotorName) (int, error)
	Close() error
}

func configPath() string {
	if opts.Config == "" {
		return robot.DefaultConfigFile
	}
	return opts.Config
}

func loadConfig() *robot.Config {
	cfg, err := robot.LoadConfigFrom(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", configPath(), err)
		os.Exit(1)
	}
	return cfg
}

// openDriver connects to the rig, waiting for it to appear if necessary.
func openDriver(ctx context.Context, cfg *robot.Config) (driver, error) {
	if cfg.Simulate {
		fmt.Println("Using simulated rig")
		return robot.NewSimRig(), nil
	}

	fmt.Println("Connecting to rig...")
	r, err := robot.ConnectRig(ctx, cfg, func(err error, next time.Duration) {
		fmt.Fprintf(os.Stderr, "  %v, retrying in %s\n", err, next.Round(100*time.Millisecond))
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func executorConfig(cfg *robot.Config) rig.ExecutorConfig {
	return rig.ExecutorConfig{
		QuarterTurn:  cfg.QuarterTurn,
		ClawHold:     cfg.ClawHold,
		ClawFlip:     cfg.ClawFlip,
		Power:        cfg.Power,
		PollInterval: cfg.PollInterval(),
		UnwindTable:  cfg.UnwindTable,
	}
}
