package fsm

import "github.com/librescoot/librefsm"

// Service run states
const (
	StateInit         librefsm.StateID = "init"
	StateRunning      librefsm.StateID = "running"
	StatePaused       librefsm.StateID = "paused"
	StateShuttingDown librefsm.StateID = "shutting-down"
)

// Service events
const (
	// External commands (from Redis)
	EvRun   librefsm.EventID = "run"
	EvPause librefsm.EventID = "pause"
	EvStop  librefsm.EventID = "stop"

	// Process lifecycle
	EvShutdown librefsm.EventID = "shutdown"
)
