package rig

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/cuberig/pkg/robot"
)

// ErrNotExecutable is returned when the executor is handed a control signal.
var ErrNotExecutable = errors.New("action cannot be executed")

// ExecutorConfig holds the motion parameters of the rig.
type ExecutorConfig struct {
	QuarterTurn  int           // table degrees per quarter turn
	ClawHold     int           // claw degrees from open to holding
	ClawFlip     int           // claw degrees from open to fully flipped
	Power        uint          // motor power percentage
	PollInterval time.Duration // how often to ask the driver whether a move is done

	// UnwindTable turns the table the other way round whenever a rotation
	// would take its accumulated angle out of [0, 360).
	UnwindTable bool
}

// DefaultExecutorConfig returns the motion parameters the rig was tuned with.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		QuarterTurn:  90,
		ClawHold:     75,
		ClawFlip:     90,
		Power:        50,
		PollInterval: 100 * time.Millisecond,
	}
}

// Validate reports the first inconsistency in the configuration.
func (c ExecutorConfig) Validate() error {
	switch {
	case c.QuarterTurn <= 0:
		return fmt.Errorf("quarter turn must be positive, got %d", c.QuarterTurn)
	case c.ClawHold <= 0 || c.ClawFlip <= c.ClawHold:
		return fmt.Errorf("need 0 < claw hold < claw flip, got %d and %d", c.ClawHold, c.ClawFlip)
	case c.Power == 0 || c.Power > 100:
		return fmt.Errorf("power must be in 1..100, got %d", c.Power)
	case c.PollInterval <= 0:
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	return nil
}

// ExecutorOption customises an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the function used for progress and error messages.
func WithLogger(logf func(format string, args ...any)) ExecutorOption {
	return func(e *Executor) { e.logf = logf }
}

// WithStepHook sets a function called on the executor goroutine after every
// action run by Run, with the resulting state and the action's error.
func WithStepHook(fn func(a Action, s State, err error)) ExecutorOption {
	return func(e *Executor) { e.onStep = fn }
}

// Executor runs actions against a Driver one at a time. It is the only
// writer of the rig State.
type Executor struct {
	driver Driver
	cfg    ExecutorConfig
	state  State

	logf   func(format string, args ...any)
	onStep func(a Action, s State, err error)
}

// NewExecutor creates an executor for driver. The rig is assumed to start
// with the table at 0 degrees and the claw open.
func NewExecutor(driver Driver, cfg ExecutorConfig, opts ...ExecutorOption) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Executor{
		driver: driver,
		cfg:    cfg,
		logf:   func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// State returns a copy of the rig state. It must not be called while Run
// is executing on another goroutine; use WithStepHook to observe the state
// from elsewhere.
func (e *Executor) State() State {
	return e.state
}

// Run executes queued actions until ctx is done. Each action, including
// every motor command inside it, completes before the next one is taken
// from the queue. Action failures are logged and reported to the step hook;
// Run itself only returns ctx.Err().
func (e *Executor) Run(ctx context.Context, q *Queue) error {
	for {
		a, err := q.Dequeue(ctx)
		if err != nil {
			return err
		}

		e.logf("Executing %s", a)
		err = e.Execute(ctx, a)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			e.logf("%s failed: %v", a, err)
		} else {
			e.logf("Table at %d°, claw %s", e.state.Orientation(), clawWord(e.state.ClawHolding))
		}
		if e.onStep != nil {
			e.onStep(a, e.state, err)
		}
	}
}

// Execute runs a single action to completion, waiting for every motor to
// report idle before returning.
func (e *Executor) Execute(ctx context.Context, a Action) error {
	var err error
	switch a {
	case RotateLeft:
		err = e.rotateTable(ctx, -e.cfg.QuarterTurn)
	case RotateRight:
		err = e.rotateTable(ctx, e.cfg.QuarterTurn)
	case RotateDouble:
		err = e.rotateTable(ctx, 2*e.cfg.QuarterTurn)
	case ClawHold:
		err = e.hold(ctx)
	case ClawUnhold:
		err = e.unhold(ctx)
	case ClawFlip:
		err = e.flip(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrNotExecutable, a)
	}
	if err != nil {
		return err
	}
	return e.waitIdle(ctx, robot.AllMotors()...)
}

func (e *Executor) rotateTable(ctx context.Context, degrees int) error {
	degrees = e.tableDelta(degrees)
	if err := e.command(ctx, robot.Table, degrees); err != nil {
		return err
	}
	e.state.TableRotation += degrees
	return e.waitIdle(ctx, robot.Table)
}

// tableDelta applies the unwind policy to a requested table rotation.
func (e *Executor) tableDelta(degrees int) int {
	if !e.cfg.UnwindTable {
		return degrees
	}
	next := e.state.TableRotation + degrees
	switch {
	case next >= 360:
		return degrees - 360
	case next < 0:
		return degrees + 360
	}
	return degrees
}

func (e *Executor) hold(ctx context.Context) error {
	if e.state.ClawHolding {
		return nil
	}
	if err := e.command(ctx, robot.Claw, e.cfg.ClawHold); err != nil {
		return err
	}
	e.state.ClawHolding = true
	return e.waitIdle(ctx, robot.Claw)
}

func (e *Executor) unhold(ctx context.Context) error {
	if !e.state.ClawHolding {
		return nil
	}
	if err := e.command(ctx, robot.Claw, -e.cfg.ClawHold); err != nil {
		return err
	}
	e.state.ClawHolding = false
	return e.waitIdle(ctx, robot.Claw)
}

// flip grips the cube, tips it over and then returns the claw to the
// posture it started in.
func (e *Executor) flip(ctx context.Context) error {
	wasHolding := e.state.ClawHolding
	if err := e.hold(ctx); err != nil {
		return err
	}

	delta := e.cfg.ClawFlip - e.cfg.ClawHold
	if err := e.command(ctx, robot.Claw, delta); err != nil {
		return err
	}
	if err := e.waitIdle(ctx, robot.Claw); err != nil {
		return err
	}

	if wasHolding {
		if err := e.command(ctx, robot.Claw, -delta); err != nil {
			return err
		}
	} else {
		if err := e.command(ctx, robot.Claw, -e.cfg.ClawFlip); err != nil {
			return err
		}
		e.state.ClawHolding = false
	}
	return e.waitIdle(ctx, robot.Claw)
}

func (e *Executor) command(ctx context.Context, motor robot.MotorName, degrees int) error {
	if err := e.driver.Issue(ctx, motor, degrees, e.cfg.Power); err != nil {
		return fmt.Errorf("move %s by %d: %w", motor, degrees, err)
	}
	return nil
}

// waitIdle polls the driver until every motor reports idle. There is no
// timeout: a motor that never settles stalls the executor until ctx is done.
// TODO: add a watchdog that halts the rig when a move overruns its expected
// duration by a wide margin.
func (e *Executor) waitIdle(ctx context.Context, motors ...robot.MotorName) error {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if e.allIdle(ctx, motors) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (e *Executor) allIdle(ctx context.Context, motors []robot.MotorName) bool {
	for _, m := range motors {
		idle, err := e.driver.Idle(ctx, m)
		if err != nil {
			e.logf("Poll %s: %v", m, err)
			return false
		}
		if !idle {
			return false
		}
	}
	return true
}

func clawWord(holding bool) string {
	if holding {
		return "holding"
	}
	return "open"
}
