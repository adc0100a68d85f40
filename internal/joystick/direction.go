package joystick

// Direction is the classified joystick position: the rest position,
// one of the four cardinal directions, or one of the four diagonals.
type Direction int

const (
	Center Direction = iota
	North
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

// directionLabels are the display labels, indexed by Direction.
var directionLabels = [...]string{
	Center:    "C",
	North:     "N",
	South:     "S",
	East:      "E",
	West:      "W",
	NorthEast: "NE",
	NorthWest: "NW",
	SouthEast: "SE",
	SouthWest: "SW",
}

// String returns the display label for the direction, or "?" for a value
// outside the known set.
func (d Direction) String() string {
	if d < Center || int(d) >= len(directionLabels) {
		return "?"
	}
	return directionLabels[d]
}
