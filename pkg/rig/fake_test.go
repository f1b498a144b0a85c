package rig

import (
	"context"
	"sync"

	"github.com/gwillem/cuberig/pkg/robot"
)

type call struct {
	motor   robot.MotorName
	degrees int
}

// fakeDriver records every Issue and keeps each motor busy for busyPolls
// calls to Idle. It flags any Issue made while a motor has not yet been
// reported idle.
type fakeDriver struct {
	mu        sync.Mutex
	calls     []call
	busyPolls int
	pending   map[robot.MotorName]int
	reported  map[robot.MotorName]bool
	issueErr  error
	stalled   bool
	overlap   bool
	halts     int
}

func newFakeDriver(busyPolls int) *fakeDriver {
	return &fakeDriver{
		busyPolls: busyPolls,
		pending:   map[robot.MotorName]int{robot.Table: 0, robot.Claw: 0},
		reported:  map[robot.MotorName]bool{robot.Table: true, robot.Claw: true},
	}
}

func (f *fakeDriver) Issue(_ context.Context, motor robot.MotorName, degrees int, _ uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.issueErr != nil {
		return f.issueErr
	}
	for _, ok := range f.reported {
		if !ok {
			f.overlap = true
		}
	}
	f.calls = append(f.calls, call{motor, degrees})
	f.pending[motor] = f.busyPolls
	f.reported[motor] = false
	return nil
}

func (f *fakeDriver) Idle(_ context.Context, motor robot.MotorName) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stalled {
		return false, nil
	}
	if f.pending[motor] > 0 {
		f.pending[motor]--
		return false, nil
	}
	f.reported[motor] = true
	return true, nil
}

func (f *fakeDriver) HaltAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.halts++
	return nil
}

func (f *fakeDriver) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeDriver) sawOverlap() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlap
}
