package rig

import (
	"context"

	"github.com/gwillem/cuberig/pkg/robot"
)

// Driver issues motor commands. robot.Rig and robot.SimRig implement it.
type Driver interface {
	// Issue starts moving motor by degrees (signed) at power percent and
	// returns without waiting for the move to finish.
	Issue(ctx context.Context, motor robot.MotorName, degrees int, power uint) error

	// Idle reports whether motor has finished its last move.
	Idle(ctx context.Context, motor robot.MotorName) (bool, error)

	// HaltAll stops every motor. It must be safe to call concurrently with
	// Issue and Idle.
	HaltAll(ctx context.Context) error
}
