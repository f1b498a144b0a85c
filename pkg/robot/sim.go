package robot

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SimRig is an in-memory stand-in for Rig. Moves take as long as they would
// on the real servos, so the rest of the system sees realistic timing.
type SimRig struct {
	now func() time.Time

	mu        sync.Mutex
	degrees   map[MotorName]int
	busyUntil map[MotorName]time.Time
}

// NewSimRig creates a simulated rig with both motors at 0 degrees.
func NewSimRig() *SimRig {
	return newSimRig(time.Now)
}

func newSimRig(now func() time.Time) *SimRig {
	s := &SimRig{
		now:       now,
		degrees:   make(map[MotorName]int),
		busyUntil: make(map[MotorName]time.Time),
	}
	for _, name := range AllMotors() {
		s.degrees[name] = 0
		s.busyUntil[name] = time.Time{}
	}
	return s
}

// Issue starts a simulated move.
func (s *SimRig) Issue(_ context.Context, motor MotorName, degrees int, power uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.degrees[motor]; !ok {
		return fmt.Errorf("%s: %w", motor, ErrUnknownMotor)
	}
	s.degrees[motor] += degrees
	s.busyUntil[motor] = s.now().Add(time.Duration(MoveTime(degrees, power)) * time.Millisecond)
	return nil
}

// Idle reports whether the simulated move has run its course.
func (s *SimRig) Idle(_ context.Context, motor MotorName) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.busyUntil[motor]
	if !ok {
		return false, fmt.Errorf("%s: %w", motor, ErrUnknownMotor)
	}
	return !s.now().Before(until), nil
}

// HaltAll ends every simulated move immediately.
func (s *SimRig) HaltAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for name := range s.busyUntil {
		s.busyUntil[name] = now
	}
	return nil
}

// Degrees returns the accumulated commanded rotation of motor.
func (s *SimRig) Degrees(_ context.Context, motor MotorName) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.degrees[motor]
	if !ok {
		return 0, fmt.Errorf("%s: %w", motor, ErrUnknownMotor)
	}
	return d, nil
}

// Close is a no-op, present so SimRig can stand in wherever a Rig is closed.
func (s *SimRig) Close() error {
	return nil
}
