package hardware

import (
	"fmt"
	"os"
)

// IIOSampler reads joystick axis voltages from a Linux industrial-I/O ADC
// via sysfs. Reads are blocking and synchronous; the kernel driver owns the
// conversion timing.
type IIOSampler struct {
	device string
	bits   uint
}

// NewIIOSampler creates a sampler for the named IIO device. bits is the raw
// sample width the driver reports.
func NewIIOSampler(device string, bits uint) *IIOSampler {
	return &IIOSampler{device: device, bits: bits}
}

// SampleRaw reads the raw converter value for a channel.
func (s *IIOSampler) SampleRaw(channel int) (int, error) {
	path := fmt.Sprintf("/sys/bus/iio/devices/%s/in_voltage%d_raw", s.device, channel)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return -1, fmt.Errorf("ADC sysfs not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return -1, fmt.Errorf("failed reading %s: %w", path, err)
	}

	var value int
	if _, err := fmt.Sscanf(string(data), "%d", &value); err != nil {
		return -1, fmt.Errorf("failed parsing ADC value: %w", err)
	}

	return value, nil
}

// Sample8 reads a channel and scales the raw value onto the 8-bit axis
// domain.
func (s *IIOSampler) Sample8(channel int) (uint8, error) {
	raw, err := s.SampleRaw(channel)
	if err != nil {
		return 0, err
	}
	return Scale8(raw, s.bits), nil
}

// Scale8 maps a raw ADC reading of the given bit width onto 0..255.
// Out-of-range readings clamp to the nearest rail.
func Scale8(raw int, bits uint) uint8 {
	if raw < 0 {
		return 0
	}
	if raw > (1<<bits)-1 {
		return 255
	}
	switch {
	case bits > 8:
		return uint8(raw >> (bits - 8))
	case bits < 8:
		return uint8(raw << (8 - bits))
	default:
		return uint8(raw)
	}
}

// ToPercent maps an 8-bit axis value onto 0..100.
func ToPercent(v uint8) uint8 {
	return uint8(uint16(v) * 100 / 255)
}

// Centered shifts a raw reading of the given bit width so the mid-range
// rest position maps to zero, giving a signed deflection.
func Centered(raw int, bits uint) int {
	return raw - (1 << (bits - 1))
}
