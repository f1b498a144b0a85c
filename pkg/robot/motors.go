// Package robot provides the motor drivers and configuration for the cube rig.
package robot

// MotorName identifies a motor in the rig.
type MotorName string

// Motor names for the turntable-and-claw rig.
const (
	Table MotorName = "table"
	Claw  MotorName = "claw"
)

// AllMotors returns all motor names in order (matching default servo IDs 1-2).
func AllMotors() []MotorName {
	return []MotorName{
		Table,
		Claw,
	}
}
