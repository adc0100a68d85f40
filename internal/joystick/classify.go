package joystick

// rule pairs a zone predicate with the direction it selects.
type rule struct {
	dir   Direction
	match func(z Zones, x, y uint8) bool
}

// rules are evaluated top to bottom and the first match wins. The order is
// part of the contract: the center dead zone masks everything, diagonals
// are checked before cardinals so corner readings are not taken for a
// cardinal, and the bands leave gaps between them. Anything that matches no
// rule resolves to Center.
var rules = []rule{
	{Center, func(z Zones, x, y uint8) bool {
		return z.IsCentered(x, y)
	}},
	{NorthEast, func(z Zones, x, y uint8) bool {
		return x > z.DiagonalHigh && y > z.DiagonalHigh
	}},
	{NorthWest, func(z Zones, x, y uint8) bool {
		return x < z.DiagonalLow && y > AxisMax-z.DiagonalLow
	}},
	{SouthEast, func(z Zones, x, y uint8) bool {
		return x > z.DiagonalHigh && y < z.DiagonalLow
	}},
	{SouthWest, func(z Zones, x, y uint8) bool {
		return x < z.DiagonalLow && y < z.DiagonalLow
	}},
	{North, func(z Zones, x, y uint8) bool {
		return y >= z.NorthY && x >= z.CenterXMin && x <= z.CenterXMax
	}},
	{South, func(z Zones, x, y uint8) bool {
		return y <= z.SouthY && x >= z.CenterXMin && x <= z.CenterXMax
	}},
	{East, func(z Zones, x, y uint8) bool {
		return x >= z.EastX && y >= z.CenterYMin && y <= z.EastWestYMax
	}},
	{West, func(z Zones, x, y uint8) bool {
		return x <= z.WestX && y >= z.CenterYMin && y <= z.EastWestYMax
	}},
}

// Classify maps an axis pair onto one of the nine directions. It is a pure
// total function over the full 8-bit domain.
func (z Zones) Classify(x, y uint8) Direction {
	for _, r := range rules {
		if r.match(z, x, y) {
			return r.dir
		}
	}
	return Center
}
