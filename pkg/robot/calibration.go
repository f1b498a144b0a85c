package robot

import "math"

// StepsPerTurn is the resolution of an STS-series servo over one revolution.
const StepsPerTurn = 4096

// MotorCalibration holds calibration data for a single motor.
type MotorCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`    // 1 inverts the direction of rotation
	HomingOffset int `json:"homing_offset"` // raw position that reads as 0 degrees
}

// Calibration holds calibration data for all motors, keyed by motor name.
type Calibration map[MotorName]MotorCalibration

// DefaultCalibration returns the calibration of a freshly assembled rig:
// table on servo 1, claw on servo 2, no offsets.
func DefaultCalibration() Calibration {
	return Calibration{
		Table: MotorCalibration{ID: 1},
		Claw:  MotorCalibration{ID: 2},
	}
}

// DegreesToSteps converts a relative rotation in degrees to raw servo steps,
// honouring the drive mode.
func (c MotorCalibration) DegreesToSteps(degrees int) int {
	steps := int(math.Round(float64(degrees) * StepsPerTurn / 360))
	if c.DriveMode == 1 {
		steps = -steps
	}
	return steps
}

// StepsToDegrees converts a raw servo position to degrees relative to the
// homing offset.
func (c MotorCalibration) StepsToDegrees(raw int) int {
	steps := raw - c.HomingOffset
	if c.DriveMode == 1 {
		steps = -steps
	}
	return int(math.Round(float64(steps) * 360 / StepsPerTurn))
}

// WrapSteps folds a raw position into the single-turn range [0, StepsPerTurn).
func WrapSteps(raw int) int {
	return ((raw % StepsPerTurn) + StepsPerTurn) % StepsPerTurn
}

// MotorIDs returns the servo IDs for all motors in the calibration.
func (c Calibration) MotorIDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllMotors() to ensure consistent ordering
	for _, name := range AllMotors() {
		if mc, ok := c[name]; ok {
			ids = append(ids, mc.ID)
		}
	}
	return ids
}

// ByID returns motor name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (MotorName, MotorCalibration, bool) {
	for name, mc := range c {
		if mc.ID == id {
			return name, mc, true
		}
	}
	return "", MotorCalibration{}, false
}
