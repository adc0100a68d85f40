package core

import (
	"fmt"

	"joystick-service/internal/hardware"
	"joystick-service/internal/joystick"
)

// PositionReader samples both axes of an analog joystick and
// combines them into a single position.
type PositionReader struct {
	sampler  Sampler
	xChannel int
	yChannel int
}

func NewPositionReader(sampler Sampler) *PositionReader {
	return &PositionReader{
		sampler:  sampler,
		xChannel: hardware.ChannelX,
		yChannel: hardware.ChannelY,
	}
}

func (r *PositionReader) Read() (joystick.Position, error) {
	x, err := r.sampler.Sample8(r.xChannel)
	if err != nil {
		return joystick.Position{}, fmt.Errorf("read x axis: %w", err)
	}
	y, err := r.sampler.Sample8(r.yChannel)
	if err != nil {
		return joystick.Position{}, fmt.Errorf("read y axis: %w", err)
	}
	return joystick.Position{X: x, Y: y}, nil
}
