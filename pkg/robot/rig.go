package robot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
)

const (
	// maxDegreesPerSecond is the table/claw speed at 100% power.
	maxDegreesPerSecond = 360
	// idleTolerance is how close (in steps) a servo must be to its target
	// before it counts as idle.
	idleTolerance = 10
)

var (
	// ErrUnknownMotor is returned when a command names a motor the rig does not have.
	ErrUnknownMotor = errors.New("unknown motor")
	// ErrOutOfRange is returned when a claw move would leave the servo's
	// single-turn range.
	ErrOutOfRange = errors.New("target out of range")
)

// Rig drives the table and claw servos on a Feetech bus.
//
// Commands are relative: every Issue moves a servo by the given number of
// degrees from its previous target. Position servos cannot wind past a full
// turn, so table targets are folded into the single-turn range; the table
// still ends up in the commanded orientation. Claw targets are never folded,
// since that would swing the claw the long way round.
type Rig struct {
	bus         *feetech.Bus
	servos      map[MotorName]*feetech.Servo
	calibration Calibration

	mu      sync.Mutex
	targets map[MotorName]int
}

// NewRig opens the bus on port and attaches to the table and claw servos.
func NewRig(ctx context.Context, port string, cal Calibration) (*Rig, error) {
	// Open serial bus
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: 1_000_000,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	r, err := attachRig(ctx, bus, cal)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return r, nil
}

func attachRig(ctx context.Context, bus *feetech.Bus, cal Calibration) (*Rig, error) {
	r := &Rig{
		bus:         bus,
		servos:      make(map[MotorName]*feetech.Servo),
		calibration: cal,
		targets:     make(map[MotorName]int),
	}

	for _, name := range AllMotors() {
		mc, ok := cal[name]
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrUnknownMotor)
		}
		servo := feetech.NewServo(bus, mc.ID, nil)
		if err := servo.DetectModel(ctx); err != nil {
			return nil, fmt.Errorf("ping %s servo %d: %w", name, mc.ID, err)
		}
		pos, err := servo.Position(ctx)
		if err != nil {
			return nil, fmt.Errorf("read %s position: %w", name, err)
		}
		if err := servo.Enable(ctx); err != nil {
			return nil, fmt.Errorf("enable %s: %w", name, err)
		}
		r.servos[name] = servo
		r.targets[name] = pos
	}

	return r, nil
}

// Close disables torque on both servos and closes the bus.
func (r *Rig) Close() error {
	ctx := context.Background()
	var errs []error
	for _, name := range AllMotors() {
		if err := r.servos[name].Disable(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disable %s: %w", name, err))
		}
	}
	if err := r.bus.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Issue starts a relative move of motor by degrees. It returns once the
// command is on the bus; use Idle to learn when the move has finished.
// A claw move that would leave the servo range fails with ErrOutOfRange
// and leaves the servo where it is.
func (r *Rig) Issue(ctx context.Context, motor MotorName, degrees int, power uint) error {
	servo, ok := r.servos[motor]
	if !ok {
		return fmt.Errorf("%s: %w", motor, ErrUnknownMotor)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.targets[motor]
	target := prev + r.calibration[motor].DegreesToSteps(degrees)
	if motor == Table {
		target = WrapSteps(target)
	} else if target < 0 || target >= StepsPerTurn {
		return fmt.Errorf("move %s to step %d: %w", motor, target, ErrOutOfRange)
	}

	travel := (target - prev) * 360 / StepsPerTurn
	if err := servo.SetPositionWithTime(ctx, target, MoveTime(travel, power)); err != nil {
		return fmt.Errorf("move %s: %w", motor, err)
	}
	r.targets[motor] = target
	return nil
}

// Idle reports whether motor has stopped at its last commanded target.
func (r *Rig) Idle(ctx context.Context, motor MotorName) (bool, error) {
	servo, ok := r.servos[motor]
	if !ok {
		return false, fmt.Errorf("%s: %w", motor, ErrUnknownMotor)
	}

	r.mu.Lock()
	target := r.targets[motor]
	r.mu.Unlock()

	moving, err := servo.Moving(ctx)
	if err != nil {
		return false, fmt.Errorf("read %s moving: %w", motor, err)
	}
	if moving {
		return false, nil
	}
	pos, err := servo.Position(ctx)
	if err != nil {
		return false, fmt.Errorf("read %s position: %w", motor, err)
	}
	return stepDistance(pos, target) <= idleTolerance, nil
}

// HaltAll stops both servos where they are by re-targeting them to their
// present position. It is safe to call while another goroutine is
// issuing commands.
func (r *Rig) HaltAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, name := range AllMotors() {
		servo := r.servos[name]
		pos, err := servo.Position(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s position: %w", name, err))
			continue
		}
		if err := servo.SetPosition(ctx, pos); err != nil {
			errs = append(errs, fmt.Errorf("halt %s: %w", name, err))
			continue
		}
		r.targets[name] = pos
	}
	return errors.Join(errs...)
}

// Degrees reads the measured angle of motor relative to its homing offset.
func (r *Rig) Degrees(ctx context.Context, motor MotorName) (int, error) {
	servo, ok := r.servos[motor]
	if !ok {
		return 0, fmt.Errorf("%s: %w", motor, ErrUnknownMotor)
	}
	pos, err := servo.Position(ctx)
	if err != nil {
		return 0, fmt.Errorf("read %s position: %w", motor, err)
	}
	return r.calibration[motor].StepsToDegrees(pos), nil
}

// MoveTime returns how long, in milliseconds, a move of degrees takes at the
// given power percentage.
func MoveTime(degrees int, power uint) int {
	if power == 0 || power > 100 {
		power = 100
	}
	if degrees < 0 {
		degrees = -degrees
	}
	return degrees * 1000 * 100 / (maxDegreesPerSecond * int(power))
}

// stepDistance is the shortest distance between two raw positions on the
// single-turn circle.
func stepDistance(a, b int) int {
	d := WrapSteps(a - b)
	if d > StepsPerTurn/2 {
		d = StepsPerTurn - d
	}
	return d
}
