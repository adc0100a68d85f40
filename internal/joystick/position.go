package joystick

// Position is one joystick sample: the raw 8-bit readings for both axes.
// A fresh value is produced on every poll cycle.
type Position struct {
	X uint8
	Y uint8
}

// FromSwitches synthesizes a position from the four switch contacts of a
// digital joystick, so switch-type sticks flow through the same
// classification path as analog ones. An engaged switch drives its axis to
// the rail; a released pair rests at mid-range. Opposing switches held
// together cancel out to mid-range.
func FromSwitches(up, down, left, right bool) Position {
	pos := Position{X: AxisMax / 2, Y: AxisMax / 2}
	switch {
	case right && !left:
		pos.X = AxisMax
	case left && !right:
		pos.X = 0
	}
	switch {
	case up && !down:
		pos.Y = AxisMax
	case down && !up:
		pos.Y = 0
	}
	return pos
}
