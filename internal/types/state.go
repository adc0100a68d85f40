package types

// ServiceState is the run state of the sampling service, published to Redis
// on every transition.
type ServiceState string

const (
	StateInit         ServiceState = "init"
	StateRunning      ServiceState = "running"
	StatePaused       ServiceState = "paused"
	StateShuttingDown ServiceState = "shutting-down"
)

// DisplayMode selects what the polling loop renders.
type DisplayMode string

const (
	// ModeDirection shows the classified direction label, updated only when
	// the direction changes.
	ModeDirection DisplayMode = "direction"
	// ModeCoordinates shows the raw X/Y axis values, updated every poll.
	ModeCoordinates DisplayMode = "coordinates"
	// ModeOff keeps the display blank; classification and publishing
	// continue.
	ModeOff DisplayMode = "off"
)
