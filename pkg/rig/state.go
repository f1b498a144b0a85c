package rig

// State is the logical posture of the rig. It is owned by the Executor.
type State struct {
	// TableRotation accumulates every commanded table rotation in degrees.
	// It may leave [0, 360); only its value mod 360 is meaningful.
	TableRotation int
	ClawHolding   bool
}

// Orientation returns the table orientation in [0, 360).
func (s State) Orientation() int {
	return ((s.TableRotation % 360) + 360) % 360
}
