package robot

import (
	"testing"
)

func TestMotorCalibration_DegreesToSteps(t *testing.T) {
	tests := []struct {
		name     string
		cal      MotorCalibration
		degrees  int
		expected int
	}{
		{"quarter", MotorCalibration{}, 90, 1024},
		{"negative quarter", MotorCalibration{}, -90, -1024},
		{"half", MotorCalibration{}, 180, 2048},
		{"full", MotorCalibration{}, 360, 4096},
		{"claw hold", MotorCalibration{}, 75, 853},
		{"inverted", MotorCalibration{DriveMode: 1}, 90, -1024},
		{"zero", MotorCalibration{DriveMode: 1}, 0, 0},
	}

	for _, tt := range tests {
		got := tt.cal.DegreesToSteps(tt.degrees)
		if got != tt.expected {
			t.Errorf("%s: DegreesToSteps(%d) = %d, want %d", tt.name, tt.degrees, got, tt.expected)
		}
	}
}

func TestMotorCalibration_StepsToDegrees(t *testing.T) {
	tests := []struct {
		cal      MotorCalibration
		raw      int
		expected int
	}{
		{MotorCalibration{}, 0, 0},
		{MotorCalibration{}, 1024, 90},
		{MotorCalibration{HomingOffset: 2048}, 2048, 0},
		{MotorCalibration{HomingOffset: 2048}, 3072, 90},
		{MotorCalibration{HomingOffset: 2048}, 1024, -90},
		{MotorCalibration{HomingOffset: 2048, DriveMode: 1}, 1024, 90},
	}

	for _, tt := range tests {
		got := tt.cal.StepsToDegrees(tt.raw)
		if got != tt.expected {
			t.Errorf("StepsToDegrees(%d) with %+v = %d, want %d", tt.raw, tt.cal, got, tt.expected)
		}
	}
}

func TestMotorCalibration_RoundTrip(t *testing.T) {
	cal := MotorCalibration{HomingOffset: 1000, DriveMode: 1}

	// Test round-trip: degrees -> steps -> degrees
	for deg := -360; deg <= 360; deg += 15 {
		raw := cal.HomingOffset + cal.DegreesToSteps(deg)
		back := cal.StepsToDegrees(raw)
		if back != deg {
			t.Errorf("Round-trip failed: %d -> %d -> %d", deg, raw, back)
		}
	}
}

func TestWrapSteps(t *testing.T) {
	tests := []struct {
		raw, expected int
	}{
		{0, 0},
		{4095, 4095},
		{4096, 0},
		{5120, 1024},
		{-1, 4095},
		{-1024, 3072},
	}

	for _, tt := range tests {
		if got := WrapSteps(tt.raw); got != tt.expected {
			t.Errorf("WrapSteps(%d) = %d, want %d", tt.raw, got, tt.expected)
		}
	}
}

func TestCalibration_MotorIDs(t *testing.T) {
	cal := Calibration{
		Claw:  MotorCalibration{ID: 7},
		Table: MotorCalibration{ID: 3},
	}

	ids := cal.MotorIDs()
	expected := []int{3, 7}

	if len(ids) != len(expected) {
		t.Fatalf("MotorIDs returned %d IDs, want %d", len(ids), len(expected))
	}

	for i, id := range ids {
		if id != expected[i] {
			t.Errorf("MotorIDs()[%d] = %d, want %d", i, id, expected[i])
		}
	}
}

func TestCalibration_ByID(t *testing.T) {
	cal := Calibration{
		Table: MotorCalibration{ID: 1, HomingOffset: 100},
		Claw:  MotorCalibration{ID: 2, HomingOffset: 300},
	}

	// Test finding existing ID
	name, mc, ok := cal.ByID(2)
	if !ok {
		t.Fatal("ByID(2) returned false")
	}
	if name != Claw {
		t.Errorf("ByID(2) returned name %s, want claw", name)
	}
	if mc.HomingOffset != 300 {
		t.Errorf("ByID(2) returned wrong calibration: %+v", mc)
	}

	// Test non-existing ID
	_, _, ok = cal.ByID(99)
	if ok {
		t.Error("ByID(99) should return false")
	}
}
