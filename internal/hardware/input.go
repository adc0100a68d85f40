package hardware

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"joystick-service/internal/logger"
)

const (
	evKey = 0x01

	// Keycodes the gpio-keys driver reports for the switch contacts of a
	// digital joystick.
	keyUp    = 103 // KEY_UP
	keyLeft  = 105 // KEY_LEFT
	keyRight = 106 // KEY_RIGHT
	keyDown  = 108 // KEY_DOWN
	keyPress = 28  // KEY_ENTER, stick push button

	// EVIOCGKEY(128) snapshot of the current key state bit array.
	eviocgkey = 0x80804518
)

// inputEvent mirrors the kernel input_event layout on 32-bit time systems.
type inputEvent struct {
	Sec   int32
	Usec  int32
	Type  uint16
	Code  uint16
	Value int32
}

// InputCallback is invoked when a switch channel changes state.
type InputCallback func(channel string, pressed bool) error

// EventInput reads a switch-type joystick delivered as Linux input events.
type EventInput struct {
	logger     *logger.Logger
	devicePath string
	file       *os.File
	callbacks  map[string]InputCallback
	activeKeys map[uint16]bool
	mu         sync.RWMutex
	stopChan   chan struct{}
}

func NewEventInput(devicePath string, l *logger.Logger) *EventInput {
	return &EventInput{
		logger:     l.WithTag("EventInput"),
		devicePath: devicePath,
		callbacks:  make(map[string]InputCallback),
		activeKeys: make(map[uint16]bool),
		stopChan:   make(chan struct{}),
	}
}

// Initialize opens the event device, snapshots the current switch states,
// and starts the monitor goroutine.
func (in *EventInput) Initialize() error {
	in.logger.Infof("Opening input device: %s", in.devicePath)

	var err error
	in.file, err = os.OpenFile(in.devicePath, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open input device %s: %w", in.devicePath, err)
	}

	if err := in.readInitialState(); err != nil {
		in.logger.Warnf("Failed to read initial switch states: %v", err)
	}

	go in.monitor()
	return nil
}

func (in *EventInput) readInitialState() error {
	buffer := make([]byte, 128)
	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		in.file.Fd(),
		uintptr(eviocgkey),
		uintptr(unsafe.Pointer(&buffer[0])),
	)
	if errno != 0 {
		return fmt.Errorf("EVIOCGKEY ioctl failed: %v", errno)
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	for _, code := range []uint16{keyUp, keyDown, keyLeft, keyRight, keyPress} {
		byteOffset := int(code / 8)
		bitOffset := code % 8
		if byteOffset < len(buffer) && buffer[byteOffset]&(1<<bitOffset) != 0 {
			in.activeKeys[code] = true
			in.logger.Infof("Initial state: %s (code %d) is engaged", mapKeycode(code), code)
		}
	}

	return nil
}

func (in *EventInput) monitor() {
	defer in.file.Close()

	buffer := make([]byte, 16)
	in.logger.Debugf("Starting input event monitoring")

	for {
		select {
		case <-in.stopChan:
			in.logger.Debugf("Stopping input monitoring")
			return
		default:
			n, err := in.file.Read(buffer)
			if err != nil {
				select {
				case <-in.stopChan:
					return
				default:
				}
				in.logger.Warnf("Error reading input: %v", err)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			if n != len(buffer) {
				in.logger.Warnf("Incomplete read: got %d bytes, expected %d", n, len(buffer))
				continue
			}

			ev := inputEvent{
				Sec:   int32(binary.LittleEndian.Uint32(buffer[0:4])),
				Usec:  int32(binary.LittleEndian.Uint32(buffer[4:8])),
				Type:  binary.LittleEndian.Uint16(buffer[8:10]),
				Code:  binary.LittleEndian.Uint16(buffer[10:12]),
				Value: int32(binary.LittleEndian.Uint32(buffer[12:16])),
			}

			if ev.Type == evKey {
				in.handleKeyEvent(ev)
			}
		}
	}
}

func (in *EventInput) handleKeyEvent(ev inputEvent) {
	// Value 2 is a key repeat; only presses and releases matter here.
	if ev.Value > 1 {
		return
	}

	channel := mapKeycode(ev.Code)
	if channel == "" {
		in.logger.Debugf("Unknown key code: %d", ev.Code)
		return
	}

	pressed := ev.Value == 1

	in.mu.Lock()
	if pressed {
		in.activeKeys[ev.Code] = true
	} else {
		delete(in.activeKeys, ev.Code)
	}
	callback, exists := in.callbacks[channel]
	in.mu.Unlock()

	in.logger.Debugf("Switch %s => %v", channel, pressed)

	if exists {
		if err := callback(channel, pressed); err != nil {
			in.logger.Warnf("Error in callback for %s: %v", channel, err)
		}
	}
}

func mapKeycode(code uint16) string {
	switch code {
	case keyUp:
		return "up"
	case keyDown:
		return "down"
	case keyLeft:
		return "left"
	case keyRight:
		return "right"
	case keyPress:
		return "press"
	default:
		return ""
	}
}

func keycodeForChannel(channel string) uint16 {
	switch channel {
	case "up":
		return keyUp
	case "down":
		return keyDown
	case "left":
		return keyLeft
	case "right":
		return keyRight
	case "press":
		return keyPress
	default:
		return 0
	}
}

// RegisterCallback installs the handler invoked on switch changes.
func (in *EventInput) RegisterCallback(channel string, callback InputCallback) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.callbacks[channel] = callback
}

// Pressed reports the current state of a switch channel from the tracked
// key states.
func (in *EventInput) Pressed(channel string) (bool, error) {
	keycode := keycodeForChannel(channel)
	if keycode == 0 {
		return false, fmt.Errorf("unknown input channel: %s", channel)
	}

	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.activeKeys[keycode], nil
}

// Cleanup stops the monitor and releases the event device.
func (in *EventInput) Cleanup() {
	close(in.stopChan)

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.file != nil {
		in.file.Close()
		in.logger.Infof("Closed input device")
	}
}
