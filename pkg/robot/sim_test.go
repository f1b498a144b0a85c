package robot

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestSimRig_MoveTakesTime(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	sim := newSimRig(clock.now)

	if idle, _ := sim.Idle(ctx, Table); !idle {
		t.Fatal("fresh rig should be idle")
	}

	if err := sim.Issue(ctx, Table, 90, 50); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if idle, _ := sim.Idle(ctx, Table); idle {
		t.Error("table should be busy right after Issue")
	}
	if idle, _ := sim.Idle(ctx, Claw); !idle {
		t.Error("claw should not be affected by a table move")
	}

	clock.t = clock.t.Add(499 * time.Millisecond)
	if idle, _ := sim.Idle(ctx, Table); idle {
		t.Error("table should still be busy at 499ms")
	}
	clock.t = clock.t.Add(time.Millisecond)
	if idle, _ := sim.Idle(ctx, Table); !idle {
		t.Error("table should be idle at 500ms")
	}

	deg, err := sim.Degrees(ctx, Table)
	if err != nil || deg != 90 {
		t.Errorf("Degrees = %d, %v; want 90", deg, err)
	}
}

func TestSimRig_HaltAll(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	sim := newSimRig(clock.now)

	sim.Issue(ctx, Table, 180, 10)
	sim.Issue(ctx, Claw, 75, 10)
	if err := sim.HaltAll(ctx); err != nil {
		t.Fatalf("HaltAll: %v", err)
	}
	for _, name := range AllMotors() {
		if idle, _ := sim.Idle(ctx, name); !idle {
			t.Errorf("%s should be idle after HaltAll", name)
		}
	}
}

func TestSimRig_UnknownMotor(t *testing.T) {
	sim := NewSimRig()
	err := sim.Issue(context.Background(), MotorName("wrist"), 10, 50)
	if !errors.Is(err, ErrUnknownMotor) {
		t.Errorf("Issue on unknown motor = %v, want ErrUnknownMotor", err)
	}
}

func TestMoveTime(t *testing.T) {
	tests := []struct {
		degrees  int
		power    uint
		expected int
	}{
		{90, 50, 500},
		{-90, 50, 500},
		{360, 100, 1000},
		{180, 0, 500}, // out of range power counts as full power
		{0, 50, 0},
	}

	for _, tt := range tests {
		if got := MoveTime(tt.degrees, tt.power); got != tt.expected {
			t.Errorf("MoveTime(%d, %d) = %d, want %d", tt.degrees, tt.power, got, tt.expected)
		}
	}
}

func TestStepDistance(t *testing.T) {
	tests := []struct {
		a, b, expected int
	}{
		{100, 100, 0},
		{100, 110, 10},
		{4090, 5, 11},
		{0, 2048, 2048},
	}
	for _, tt := range tests {
		if got := stepDistance(tt.a, tt.b); got != tt.expected {
			t.Errorf("stepDistance(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.expected)
		}
	}
}
