package joystick

import "fmt"

// AxisMax is the highest value an 8-bit axis sample can take.
const AxisMax = 255

// Zones holds the threshold calibration that maps axis samples onto
// directions. All values are in the 8-bit axis domain. A Zones value is
// treated as read-only once handed to a classifier; calibration updates
// replace the whole value.
type Zones struct {
	// Center dead zone bounds. The stick is considered at rest while both
	// axes lie inside this rectangle.
	CenterXMin uint8
	CenterXMax uint8
	CenterYMin uint8
	CenterYMax uint8

	// Cardinal thresholds. The orthogonal axis must additionally lie
	// within the matching center band.
	NorthY uint8
	SouthY uint8
	EastX  uint8
	WestX  uint8

	// Diagonal corner thresholds.
	DiagonalLow  uint8
	DiagonalHigh uint8

	// EastWestYMax is the upper Y bound for the East/West bands. The stock
	// calibration carries over the original firmware behavior, which reused
	// the center X maximum here and so gave East/West a wider Y band than
	// the center zone. Kept as its own field so deployments can correct it.
	EastWestYMax uint8
}

// DefaultZones returns the stock calibration.
func DefaultZones() Zones {
	return Zones{
		CenterXMin:   70,
		CenterXMax:   180,
		CenterYMin:   110,
		CenterYMax:   160,
		NorthY:       240,
		SouthY:       50,
		EastX:        240,
		WestX:        70,
		DiagonalLow:  50,
		DiagonalHigh: 230,
		EastWestYMax: 180,
	}
}

// Validate checks the ordering invariants between the thresholds. The uint8
// fields keep every value inside the axis domain by construction.
func (z Zones) Validate() error {
	if z.CenterXMin >= z.CenterXMax {
		return fmt.Errorf("center X bounds inverted: min %d >= max %d", z.CenterXMin, z.CenterXMax)
	}
	if z.CenterYMin >= z.CenterYMax {
		return fmt.Errorf("center Y bounds inverted: min %d >= max %d", z.CenterYMin, z.CenterYMax)
	}
	if z.DiagonalLow >= z.DiagonalHigh {
		return fmt.Errorf("diagonal thresholds inverted: low %d >= high %d", z.DiagonalLow, z.DiagonalHigh)
	}
	return nil
}

// IsCentered reports whether the position lies inside the center dead zone.
func (z Zones) IsCentered(x, y uint8) bool {
	return x >= z.CenterXMin && x <= z.CenterXMax &&
		y >= z.CenterYMin && y <= z.CenterYMax
}
