package fsm

import "github.com/librescoot/librefsm"

// Actions defines the state entry/exit hooks and guards the service
// implements. Entering Running starts the polling loop; leaving it stops
// the loop.
type Actions interface {
	EnterRunning(c *librefsm.Context) error
	ExitRunning(c *librefsm.Context) error
	EnterPaused(c *librefsm.Context) error
	EnterShuttingDown(c *librefsm.Context) error

	// HardwareReady gates the first transition out of Init.
	HardwareReady(c *librefsm.Context) bool
}

// NewDefinition creates the service run-state machine definition.
func NewDefinition(actions Actions) *librefsm.Definition {
	return librefsm.NewDefinition().
		State(StateInit).
		State(StateRunning,
			librefsm.WithOnEnter(actions.EnterRunning),
			librefsm.WithOnExit(actions.ExitRunning),
		).
		State(StatePaused,
			librefsm.WithOnEnter(actions.EnterPaused),
		).
		State(StateShuttingDown,
			librefsm.WithOnEnter(actions.EnterShuttingDown),
		).

		// From Init
		Transition(StateInit, EvRun, StateRunning,
			librefsm.WithGuard(actions.HardwareReady),
		).
		Transition(StateInit, EvPause, StatePaused).

		// Running <-> Paused
		Transition(StateRunning, EvPause, StatePaused).
		Transition(StatePaused, EvRun, StateRunning,
			librefsm.WithGuard(actions.HardwareReady),
		).

		// Stop and shutdown are terminal
		Transition(StateInit, EvStop, StateShuttingDown).
		Transition(StateRunning, EvStop, StateShuttingDown).
		Transition(StatePaused, EvStop, StateShuttingDown).
		Transition(StateInit, EvShutdown, StateShuttingDown).
		Transition(StateRunning, EvShutdown, StateShuttingDown).
		Transition(StatePaused, EvShutdown, StateShuttingDown).
		Initial(StateInit)
}
