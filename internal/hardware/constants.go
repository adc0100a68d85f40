package hardware

const (
	// Fixed ADC channel assignment for the joystick axes.
	ChannelX = 0
	ChannelY = 1

	// DefaultIIODevice is the industrial-I/O device exposing the joystick
	// ADC channels under /sys/bus/iio/devices.
	DefaultIIODevice = "iio:device0"

	// DefaultADCBits is the raw sample width of the converter. Readings are
	// scaled down to the 8-bit axis domain.
	DefaultADCBits = 12

	// GpioKeysInput is the event device the gpio-keys driver exposes for
	// switch-type joysticks.
	GpioKeysInput = "/dev/input/by-path/platform-gpio-keys-event"

	LcdRows = 2
	LcdCols = 16
)

// LcdMappings assigns GPIO chip/line pairs to the character display pins:
// register select, enable, and the eight data bus lines.
var LcdMappings = map[string]struct {
	Chip int
	Line int
}{
	"rs": {2, 0},
	"en": {2, 1},
	"d0": {3, 0},
	"d1": {3, 1},
	"d2": {3, 2},
	"d3": {3, 3},
	"d4": {3, 4},
	"d5": {3, 5},
	"d6": {3, 6},
	"d7": {3, 7},
}
