package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/librescoot/librefsm"

	"joystick-service/internal/fsm"
	"joystick-service/internal/joystick"
	"joystick-service/internal/logger"
	"joystick-service/internal/messaging"
	"joystick-service/internal/types"
)

// Config carries the startup options for the joystick system.
type Config struct {
	PollInterval time.Duration
	DisplayMode  types.DisplayMode
}

// JoystickSystem polls the joystick, classifies the stick position into
// one of nine directions and pushes changes to the display and Redis.
type JoystickSystem struct {
	logger  *logger.Logger
	redis   MessagingClient
	display Display
	reader  *PositionReader
	input   DigitalInput

	machine StateMachine

	mu            sync.RWMutex
	zones         joystick.Zones
	displayMode   types.DisplayMode
	pollInterval  time.Duration
	lastDirection joystick.Direction
	state         types.ServiceState

	hardwareReady bool

	pollStop chan struct{}
	pollWg   sync.WaitGroup

	// pollMu serializes poll cycles between the ticker and the switch
	// edge callbacks, keeping the direction change check atomic.
	pollMu sync.Mutex
}

// NewJoystickSystem wires the system together. Exactly one of sampler or
// input must be non-nil: sampler for an analog stick, input for a
// switch-type one.
func NewJoystickSystem(redis MessagingClient, sampler Sampler, display Display, input DigitalInput, l *logger.Logger, config Config) *JoystickSystem {
	s := &JoystickSystem{
		logger:        l,
		redis:         redis,
		display:       display,
		input:         input,
		zones:         joystick.DefaultZones(),
		displayMode:   config.DisplayMode,
		pollInterval:  config.PollInterval,
		lastDirection: joystick.Center,
		state:         types.StateInit,
	}
	if sampler != nil {
		s.reader = NewPositionReader(sampler)
	}
	if s.pollInterval <= 0 {
		s.pollInterval = 100 * time.Millisecond
	}
	if s.displayMode == "" {
		s.displayMode = types.ModeDirection
	}
	return s
}

// Start connects to Redis, brings up the display and input hardware and
// starts the state machine. It restores a previously saved paused state.
func (s *JoystickSystem) Start(ctx context.Context) error {
	if s.reader == nil && s.input == nil {
		return fmt.Errorf("no joystick input configured")
	}

	s.redis.SetCallbacks(messaging.Callbacks{
		DisplayModeCallback:  s.handleDisplayModeRequest,
		StateCallback:        s.handleStateRequest,
		PollIntervalCallback: s.handlePollIntervalRequest,
		SettingsCallback:     s.handleSettingsUpdate,
	})

	if err := s.redis.Connect(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if err := s.display.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	if err := s.drawModeChrome(s.getDisplayMode()); err != nil {
		return fmt.Errorf("failed to draw display layout: %w", err)
	}

	if s.input != nil {
		if err := s.input.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize digital input: %w", err)
		}
		for _, channel := range []string{"up", "down", "left", "right"} {
			s.input.RegisterCallback(channel, s.handleSwitchEdge)
		}
		s.input.RegisterCallback("press", s.handleButtonEdge)
	}
	s.hardwareReady = true

	if err := s.initFSM(ctx); err != nil {
		return fmt.Errorf("failed to initialize state machine: %w", err)
	}

	// A service restart should come back paused if that is how it was
	// left, otherwise start polling straight away.
	saved, err := s.redis.GetServiceState()
	if err != nil {
		s.logger.Warnf("Could not read saved service state: %v", err)
		saved = types.StateInit
	}
	if saved == types.StatePaused {
		if err := s.machine.SetState(fsm.StatePaused); err != nil {
			return fmt.Errorf("failed to restore paused state: %w", err)
		}
		s.setState(types.StatePaused)
		if err := s.redis.PublishServiceState(types.StatePaused); err != nil {
			s.logger.Errorf("Failed to publish service state: %v", err)
		}
		s.logger.Infof("Restored paused state")
	} else {
		if err := s.sendEvent(fsm.EvRun); err != nil {
			return fmt.Errorf("failed to enter running state: %w", err)
		}
	}

	if err := s.redis.StartListening(); err != nil {
		return fmt.Errorf("failed to start Redis listeners: %w", err)
	}

	return nil
}

// Shutdown stops polling and releases the hardware.
func (s *JoystickSystem) Shutdown() {
	s.logger.Infof("Shutting down joystick system")
	if s.machine != nil {
		if err := s.sendEvent(fsm.EvShutdown); err != nil {
			s.logger.Warnf("Shutdown transition failed: %v", err)
		}
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Warnf("Error closing Redis client: %v", err)
	}
	s.display.Cleanup()
	if s.input != nil {
		s.input.Cleanup()
	}
}

func (s *JoystickSystem) initFSM(ctx context.Context) error {
	machine, err := fsm.NewDefinition(s).Build()
	if err != nil {
		return err
	}
	s.machine = machine
	s.machine.OnStateChange(func(from, to librefsm.StateID) {
		state := stateIDToServiceState(to)
		s.setState(state)
		s.logger.Infof("State transition: %s -> %s", from, to)
		if err := s.redis.PublishServiceState(state); err != nil {
			s.logger.Errorf("Failed to publish service state: %v", err)
		}
	})
	return s.machine.Start(ctx)
}

func (s *JoystickSystem) sendEvent(event librefsm.EventID) error {
	return s.machine.SendSync(librefsm.Event{ID: event})
}

func stateIDToServiceState(id librefsm.StateID) types.ServiceState {
	switch id {
	case fsm.StateInit:
		return types.StateInit
	case fsm.StateRunning:
		return types.StateRunning
	case fsm.StatePaused:
		return types.StatePaused
	case fsm.StateShuttingDown:
		return types.StateShuttingDown
	}
	return types.ServiceState(id)
}

// EnterRunning starts the polling goroutine.
func (s *JoystickSystem) EnterRunning(c *librefsm.Context) error {
	s.mu.Lock()
	if s.pollStop != nil {
		s.mu.Unlock()
		return nil
	}
	stop := make(chan struct{})
	s.pollStop = stop
	s.mu.Unlock()

	s.pollWg.Add(1)
	go s.pollLoop(stop)
	return nil
}

// ExitRunning stops the polling goroutine and waits for it to finish.
func (s *JoystickSystem) ExitRunning(c *librefsm.Context) error {
	s.mu.Lock()
	if s.pollStop != nil {
		close(s.pollStop)
		s.pollStop = nil
	}
	s.mu.Unlock()
	s.pollWg.Wait()
	return nil
}

func (s *JoystickSystem) EnterPaused(c *librefsm.Context) error {
	s.logger.Infof("Polling paused")
	return nil
}

func (s *JoystickSystem) EnterShuttingDown(c *librefsm.Context) error {
	if err := s.display.Clear(); err != nil {
		s.logger.Warnf("Failed to clear display: %v", err)
	}
	return nil
}

func (s *JoystickSystem) HardwareReady(c *librefsm.Context) bool {
	return s.hardwareReady
}

func (s *JoystickSystem) pollLoop(stop chan struct{}) {
	defer s.pollWg.Done()

	interval := s.getPollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Infof("Polling started, interval %s", interval)

	for {
		select {
		case <-stop:
			s.logger.Infof("Polling stopped")
			return
		case <-ticker.C:
			if err := s.pollOnce(); err != nil {
				s.logger.Warnf("Poll cycle failed: %v", err)
			}
			if next := s.getPollInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
				s.logger.Infof("Poll interval now %s", interval)
			}
		}
	}
}

// pollOnce reads the stick, classifies it and dispatches the direction
// if it changed since the previous cycle. Overlapping cycles run one at
// a time so a change never dispatches twice.
func (s *JoystickSystem) pollOnce() error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	pos, err := s.readPosition()
	if err != nil {
		return err
	}

	s.mu.RLock()
	zones := s.zones
	mode := s.displayMode
	last := s.lastDirection
	s.mu.RUnlock()

	direction := zones.Classify(pos.X, pos.Y)

	if mode == types.ModeCoordinates {
		if err := s.showCoordinates(pos); err != nil {
			s.logger.Warnf("Failed to render coordinates: %v", err)
		}
		if err := s.redis.PublishPosition(pos.X, pos.Y); err != nil {
			s.logger.Errorf("Failed to publish position: %v", err)
		}
	}

	if direction == last {
		return nil
	}

	s.mu.Lock()
	s.lastDirection = direction
	s.mu.Unlock()

	s.logger.Infof("Direction changed: %s -> %s (x=%d y=%d)", last, direction, pos.X, pos.Y)

	if mode == types.ModeDirection {
		if err := s.showDirection(direction); err != nil {
			s.logger.Warnf("Failed to render direction: %v", err)
		}
	}
	return s.redis.PublishDirection(direction.String())
}

func (s *JoystickSystem) readPosition() (joystick.Position, error) {
	if s.reader != nil {
		return s.reader.Read()
	}
	up, err := s.input.Pressed("up")
	if err != nil {
		return joystick.Position{}, fmt.Errorf("read up switch: %w", err)
	}
	down, err := s.input.Pressed("down")
	if err != nil {
		return joystick.Position{}, fmt.Errorf("read down switch: %w", err)
	}
	left, err := s.input.Pressed("left")
	if err != nil {
		return joystick.Position{}, fmt.Errorf("read left switch: %w", err)
	}
	right, err := s.input.Pressed("right")
	if err != nil {
		return joystick.Position{}, fmt.Errorf("read right switch: %w", err)
	}
	return joystick.FromSwitches(up, down, left, right), nil
}

// handleSwitchEdge makes a switch-type stick feel immediate instead of
// waiting out the remainder of the poll interval.
func (s *JoystickSystem) handleSwitchEdge(channel string, pressed bool) error {
	s.logger.Debugf("Switch %s %v", channel, pressed)
	if s.getState() != types.StateRunning {
		return nil
	}
	return s.pollOnce()
}

// handleButtonEdge publishes the stick push button state.
func (s *JoystickSystem) handleButtonEdge(channel string, pressed bool) error {
	s.logger.Debugf("Button %v", pressed)
	return s.redis.PublishButtonEvent(pressed)
}

// showDirection blanks the label field before writing so a short label
// never leaves trailing characters from a longer one.
func (s *JoystickSystem) showDirection(direction joystick.Direction) error {
	if err := s.display.ShowText(1, 0, "  "); err != nil {
		return err
	}
	return s.display.ShowText(1, 0, direction.String())
}

func (s *JoystickSystem) showCoordinates(pos joystick.Position) error {
	if err := s.display.ShowText(0, 2, "   "); err != nil {
		return err
	}
	if err := s.display.ShowInt(0, 2, int(pos.X)); err != nil {
		return err
	}
	if err := s.display.ShowText(0, 8, "   "); err != nil {
		return err
	}
	return s.display.ShowInt(0, 8, int(pos.Y))
}

// drawModeChrome draws the static parts of the active display layout.
func (s *JoystickSystem) drawModeChrome(mode types.DisplayMode) error {
	if err := s.display.Clear(); err != nil {
		return err
	}
	switch mode {
	case types.ModeDirection:
		if err := s.display.ShowText(0, 0, "Direction:"); err != nil {
			return err
		}
		return s.display.ShowText(1, 0, s.getLastDirection().String())
	case types.ModeCoordinates:
		return s.display.ShowText(0, 0, "X=    Y=")
	case types.ModeOff:
		return nil
	}
	return fmt.Errorf("unknown display mode: %s", mode)
}

func (s *JoystickSystem) getPollInterval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollInterval
}

func (s *JoystickSystem) getDisplayMode() types.DisplayMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayMode
}

func (s *JoystickSystem) getLastDirection() joystick.Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastDirection
}

func (s *JoystickSystem) getState() types.ServiceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *JoystickSystem) setState(state types.ServiceState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
