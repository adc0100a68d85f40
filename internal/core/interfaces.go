package core

import (
	"context"

	"github.com/librescoot/librefsm"

	"joystick-service/internal/hardware"
	"joystick-service/internal/messaging"
	"joystick-service/internal/types"
)

// MessagingClient defines the Redis operations needed by JoystickSystem
type MessagingClient interface {
	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening() error
	Close() error

	// State management
	GetServiceState() (types.ServiceState, error)
	PublishServiceState(state types.ServiceState) error

	// Samples
	PublishDirection(label string) error
	PublishPosition(x, y uint8) error
	PublishButtonEvent(pressed bool) error

	// Settings
	GetHashField(hash, field string) (string, error)
}

// Sampler produces 8-bit axis readings for an ADC channel.
type Sampler interface {
	Sample8(channel int) (uint8, error)
}

// Display is the rendering surface the polling loop writes to.
type Display interface {
	Initialize() error
	Cleanup()
	ShowText(row, col int, text string) error
	ShowInt(row, col, value int) error
	Clear() error
}

// StateMachine is the slice of the librefsm machine the system drives.
type StateMachine interface {
	Start(ctx context.Context) error
	SetState(id librefsm.StateID) error
	CurrentState() librefsm.StateID
	SendSync(event librefsm.Event) error
	OnStateChange(fn func(from, to librefsm.StateID))
}

// DigitalInput reads a switch-type joystick.
type DigitalInput interface {
	Initialize() error
	Cleanup()
	RegisterCallback(channel string, callback hardware.InputCallback)
	Pressed(channel string) (bool, error)
}
