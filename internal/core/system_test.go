package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"joystick-service/internal/fsm"
	"joystick-service/internal/hardware"
	"joystick-service/internal/joystick"
	"joystick-service/internal/logger"
	"joystick-service/internal/messaging"
	"joystick-service/internal/types"
)

// Mock MessagingClient
type mockMessagingClient struct {
	callbacks messaging.Callbacks
	mu        sync.Mutex

	// Track method calls
	publishedStates     []types.ServiceState
	publishedDirections []string
	publishedPositions  []struct{ x, y uint8 }
	publishedButtons    []bool
	hashFieldRequests   []string

	// Return values
	serviceState    types.ServiceState
	serviceStateErr error
	hashFieldValue  string
}

func newMockMessagingClient() *mockMessagingClient {
	return &mockMessagingClient{serviceState: types.StateInit}
}

func (m *mockMessagingClient) SetCallbacks(callbacks messaging.Callbacks) { m.callbacks = callbacks }
func (m *mockMessagingClient) Connect() error                            { return nil }
func (m *mockMessagingClient) StartListening() error                     { return nil }
func (m *mockMessagingClient) Close() error                              { return nil }

func (m *mockMessagingClient) GetServiceState() (types.ServiceState, error) {
	return m.serviceState, m.serviceStateErr
}

func (m *mockMessagingClient) PublishServiceState(state types.ServiceState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedStates = append(m.publishedStates, state)
	return nil
}

func (m *mockMessagingClient) PublishDirection(label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedDirections = append(m.publishedDirections, label)
	return nil
}

func (m *mockMessagingClient) PublishPosition(x, y uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedPositions = append(m.publishedPositions, struct{ x, y uint8 }{x, y})
	return nil
}

func (m *mockMessagingClient) PublishButtonEvent(pressed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedButtons = append(m.publishedButtons, pressed)
	return nil
}

// directions returns a copy of the published direction labels.
func (m *mockMessagingClient) directions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.publishedDirections...)
}

func (m *mockMessagingClient) GetHashField(hash, field string) (string, error) {
	m.hashFieldRequests = append(m.hashFieldRequests, field)
	return m.hashFieldValue, nil
}

// Mock Sampler. Each scripted position is served for one full poll cycle;
// the Y axis is sampled second, so reading it advances the cursor. The
// last position repeats.
type mockSampler struct {
	script []joystick.Position
	cursor int
	err    error
}

func (m *mockSampler) Sample8(channel int) (uint8, error) {
	if m.err != nil {
		return 0, m.err
	}
	pos := m.script[m.cursor]
	if channel == hardware.ChannelY {
		if m.cursor < len(m.script)-1 {
			m.cursor++
		}
		return pos.Y, nil
	}
	return pos.X, nil
}

// Mock Display
type mockDisplay struct {
	texts []struct {
		row, col int
		text     string
	}
	ints []struct{ row, col, value int }

	clears      int
	initialized bool
	cleanedUp   bool
}

func (m *mockDisplay) Initialize() error { m.initialized = true; return nil }
func (m *mockDisplay) Cleanup()          { m.cleanedUp = true }
func (m *mockDisplay) Clear() error      { m.clears++; return nil }

func (m *mockDisplay) ShowText(row, col int, text string) error {
	m.texts = append(m.texts, struct {
		row, col int
		text     string
	}{row, col, text})
	return nil
}

func (m *mockDisplay) ShowInt(row, col, value int) error {
	m.ints = append(m.ints, struct{ row, col, value int }{row, col, value})
	return nil
}

// lastText returns the most recent text written, or "" if none.
func (m *mockDisplay) lastText() string {
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1].text
}

// Mock DigitalInput
type mockDigitalInput struct {
	pressed   map[string]bool
	callbacks map[string]hardware.InputCallback
	cleanedUp bool
}

func newMockDigitalInput() *mockDigitalInput {
	return &mockDigitalInput{
		pressed:   make(map[string]bool),
		callbacks: make(map[string]hardware.InputCallback),
	}
}

func (m *mockDigitalInput) Initialize() error { return nil }
func (m *mockDigitalInput) Cleanup()          { m.cleanedUp = true }

func (m *mockDigitalInput) RegisterCallback(channel string, callback hardware.InputCallback) {
	m.callbacks[channel] = callback
}

func (m *mockDigitalInput) Pressed(channel string) (bool, error) {
	return m.pressed[channel], nil
}

// SimulateEdge triggers an input callback
func (m *mockDigitalInput) SimulateEdge(channel string, pressed bool) error {
	m.pressed[channel] = pressed
	if cb, ok := m.callbacks[channel]; ok {
		return cb(channel, pressed)
	}
	return nil
}

// Test helpers

func newTestJoystickSystem(script ...joystick.Position) (*JoystickSystem, *mockDisplay, *mockMessagingClient) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	if len(script) == 0 {
		script = []joystick.Position{{X: 128, Y: 128}}
	}
	display := &mockDisplay{}
	redis := newMockMessagingClient()
	system := NewJoystickSystem(redis, &mockSampler{script: script}, display, nil, l, Config{})
	return system, display, redis
}

// initTestFSM initializes the state machine for a test system
func initTestFSM(t *testing.T, system *JoystickSystem) {
	t.Helper()
	if err := system.initFSM(context.Background()); err != nil {
		t.Fatalf("Failed to initialize FSM: %v", err)
	}
}

// ===== Basic Construction Tests =====

func TestNewJoystickSystem(t *testing.T) {
	system, display, redis := newTestJoystickSystem()

	if system == nil {
		t.Fatal("NewJoystickSystem returned nil")
	}
	if system.redis != redis {
		t.Error("redis not set correctly")
	}
	if system.display != display {
		t.Error("display not set correctly")
	}
	if system.reader == nil {
		t.Error("expected a position reader for an analog sampler")
	}
	if system.lastDirection != joystick.Center {
		t.Errorf("Expected initial direction Center, got %v", system.lastDirection)
	}
	if system.displayMode != types.ModeDirection {
		t.Errorf("Expected default display mode direction, got %v", system.displayMode)
	}
	if system.pollInterval != 100*time.Millisecond {
		t.Errorf("Expected default poll interval 100ms, got %v", system.pollInterval)
	}
}

func TestStartWithoutInputFails(t *testing.T) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	system := NewJoystickSystem(newMockMessagingClient(), nil, &mockDisplay{}, nil, l, Config{})

	if err := system.Start(context.Background()); err == nil {
		t.Error("Expected Start to fail with no sampler and no digital input")
	}
}

// ===== Polling Tests =====

func TestPollOnceDispatchesOnlyOnChange(t *testing.T) {
	system, display, redis := newTestJoystickSystem(
		joystick.Position{X: 128, Y: 128}, // center
		joystick.Position{X: 255, Y: 128}, // east
		joystick.Position{X: 255, Y: 128}, // east again
		joystick.Position{X: 128, Y: 128}, // back to center
	)

	for i := 0; i < 4; i++ {
		if err := system.pollOnce(); err != nil {
			t.Fatalf("pollOnce cycle %d failed: %v", i, err)
		}
	}

	// The initial direction is Center, so only the two changes dispatch.
	want := []string{"E", "C"}
	if len(redis.publishedDirections) != len(want) {
		t.Fatalf("Expected %d direction publishes, got %v", len(want), redis.publishedDirections)
	}
	for i, label := range want {
		if redis.publishedDirections[i] != label {
			t.Errorf("Publish %d: expected %q, got %q", i, label, redis.publishedDirections[i])
		}
	}
	if display.lastText() != "C" {
		t.Errorf("Expected display to end on C, got %q", display.lastText())
	}
}

func TestPollOnceCoordinatesModePublishesEveryCycle(t *testing.T) {
	system, display, redis := newTestJoystickSystem(
		joystick.Position{X: 128, Y: 128},
		joystick.Position{X: 130, Y: 126},
	)
	system.displayMode = types.ModeCoordinates

	for i := 0; i < 2; i++ {
		if err := system.pollOnce(); err != nil {
			t.Fatalf("pollOnce cycle %d failed: %v", i, err)
		}
	}

	if len(redis.publishedPositions) != 2 {
		t.Fatalf("Expected 2 position publishes, got %d", len(redis.publishedPositions))
	}
	if redis.publishedPositions[1].x != 130 || redis.publishedPositions[1].y != 126 {
		t.Errorf("Expected position (130,126), got %+v", redis.publishedPositions[1])
	}
	// Both samples classify as Center, so no direction change fires.
	if len(redis.publishedDirections) != 0 {
		t.Errorf("Expected no direction publishes, got %v", redis.publishedDirections)
	}
	// X and Y cells are rewritten every cycle.
	if len(display.ints) != 4 {
		t.Errorf("Expected 4 ShowInt calls, got %d", len(display.ints))
	}
}

func TestPollOnceOffModeStillPublishesDirections(t *testing.T) {
	system, display, redis := newTestJoystickSystem(
		joystick.Position{X: 128, Y: 255}, // north
	)
	system.displayMode = types.ModeOff

	if err := system.pollOnce(); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}

	if len(redis.publishedDirections) != 1 || redis.publishedDirections[0] != "N" {
		t.Errorf("Expected direction N published, got %v", redis.publishedDirections)
	}
	if len(display.texts) != 0 || len(display.ints) != 0 {
		t.Error("Expected no display writes in off mode")
	}
}

func TestConcurrentPollCyclesDispatchOnce(t *testing.T) {
	// The ticker goroutine and a switch edge callback can both enter
	// pollOnce; the change check must stay atomic across them so a
	// single direction change never dispatches twice.
	system, _, redis := newTestJoystickSystem(
		joystick.Position{X: 255, Y: 128}, // pinned east
	)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if err := system.pollOnce(); err != nil {
					t.Errorf("pollOnce failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got := redis.directions()
	if len(got) != 1 || got[0] != "E" {
		t.Errorf("Expected exactly one E dispatch, got %v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] == got[i-1] {
			t.Errorf("Duplicate consecutive dispatch at %d: %v", i, got)
		}
	}
}

// ===== Display Mode Handler Tests =====

func TestHandleDisplayModeRequestDirection(t *testing.T) {
	system, display, _ := newTestJoystickSystem()

	err := system.handleDisplayModeRequest("direction")
	if err != nil {
		t.Fatalf("handleDisplayModeRequest failed: %v", err)
	}
	if display.clears != 1 {
		t.Errorf("Expected one clear, got %d", display.clears)
	}
	if len(display.texts) != 2 || display.texts[0].text != "Direction:" {
		t.Errorf("Expected direction layout, got %+v", display.texts)
	}
	if display.lastText() != "C" {
		t.Errorf("Expected current direction label C, got %q", display.lastText())
	}
}

func TestHandleDisplayModeRequestCoordinates(t *testing.T) {
	system, display, _ := newTestJoystickSystem()

	err := system.handleDisplayModeRequest("coordinates")
	if err != nil {
		t.Fatalf("handleDisplayModeRequest failed: %v", err)
	}
	if system.getDisplayMode() != types.ModeCoordinates {
		t.Errorf("Expected coordinates mode, got %v", system.getDisplayMode())
	}
	if display.lastText() != "X=    Y=" {
		t.Errorf("Expected coordinate layout header, got %q", display.lastText())
	}
}

func TestHandleDisplayModeRequestInvalid(t *testing.T) {
	system, display, _ := newTestJoystickSystem()

	if err := system.handleDisplayModeRequest("blinkenlights"); err == nil {
		t.Error("Expected error for invalid display mode")
	}
	if system.getDisplayMode() != types.ModeDirection {
		t.Error("Display mode should be unchanged after invalid request")
	}
	if display.clears != 0 {
		t.Error("Display should not be touched by an invalid request")
	}
}

// ===== Poll Interval Handler Tests =====

func TestHandlePollIntervalRequest(t *testing.T) {
	system, _, _ := newTestJoystickSystem()

	if err := system.handlePollIntervalRequest(250); err != nil {
		t.Fatalf("handlePollIntervalRequest failed: %v", err)
	}
	if system.getPollInterval() != 250*time.Millisecond {
		t.Errorf("Expected 250ms, got %v", system.getPollInterval())
	}
}

func TestHandlePollIntervalRequestRejectsNonPositive(t *testing.T) {
	system, _, _ := newTestJoystickSystem()

	for _, ms := range []int{0, -50} {
		if err := system.handlePollIntervalRequest(ms); err == nil {
			t.Errorf("Expected error for interval %d", ms)
		}
	}
	if system.getPollInterval() != 100*time.Millisecond {
		t.Errorf("Interval should be unchanged, got %v", system.getPollInterval())
	}
}

// ===== Settings Handler Tests =====

func TestHandleSettingsUpdatePollInterval(t *testing.T) {
	system, _, redis := newTestJoystickSystem()
	redis.hashFieldValue = "40"

	if err := system.handleSettingsUpdate("joystick.poll-interval-ms"); err != nil {
		t.Fatalf("handleSettingsUpdate failed: %v", err)
	}
	if system.getPollInterval() != 40*time.Millisecond {
		t.Errorf("Expected 40ms, got %v", system.getPollInterval())
	}
}

func TestHandleSettingsUpdateZoneChangesClassification(t *testing.T) {
	system, _, redis := newTestJoystickSystem()

	// (210,128) falls between the center band and the stock east
	// threshold, so it classifies as Center.
	if got := system.zones.Classify(210, 128); got != joystick.Center {
		t.Fatalf("Precondition failed: expected Center, got %v", got)
	}

	redis.hashFieldValue = "200"
	if err := system.handleSettingsUpdate("joystick.zone.east-x"); err != nil {
		t.Fatalf("handleSettingsUpdate failed: %v", err)
	}

	if got := system.zones.Classify(210, 128); got != joystick.East {
		t.Errorf("Expected East after lowering east-x to 200, got %v", got)
	}
}

func TestHandleSettingsUpdateRejectsInvalidZone(t *testing.T) {
	system, _, redis := newTestJoystickSystem()

	// center-x-min above center-x-max would invert the dead zone.
	redis.hashFieldValue = "250"
	if err := system.handleSettingsUpdate("joystick.zone.center-x-min"); err == nil {
		t.Error("Expected error for inverted center band")
	}
	if system.zones.CenterXMin != joystick.DefaultZones().CenterXMin {
		t.Error("Zones should be unchanged after a rejected update")
	}
}

func TestHandleSettingsUpdateUnknownZone(t *testing.T) {
	system, _, redis := newTestJoystickSystem()
	redis.hashFieldValue = "10"

	if err := system.handleSettingsUpdate("joystick.zone.frobnicate"); err == nil {
		t.Error("Expected error for unknown zone name")
	}
}

func TestHandleSettingsUpdateIgnoresForeignKeys(t *testing.T) {
	system, _, redis := newTestJoystickSystem()

	if err := system.handleSettingsUpdate("vehicle.seatbox.button"); err != nil {
		t.Errorf("Foreign settings key should be ignored, got %v", err)
	}
	if len(redis.hashFieldRequests) != 0 {
		t.Errorf("Foreign key should not be fetched, got %v", redis.hashFieldRequests)
	}
}

// ===== Digital Input Tests =====

func TestPollOnceDigitalSwitches(t *testing.T) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	input := newMockDigitalInput()
	redis := newMockMessagingClient()
	system := NewJoystickSystem(redis, nil, &mockDisplay{}, input, l, Config{})

	input.pressed["up"] = true
	input.pressed["right"] = true

	if err := system.pollOnce(); err != nil {
		t.Fatalf("pollOnce failed: %v", err)
	}
	if len(redis.publishedDirections) != 1 || redis.publishedDirections[0] != "NE" {
		t.Errorf("Expected NE from up+right, got %v", redis.publishedDirections)
	}
}

func TestSwitchEdgeTriggersImmediatePoll(t *testing.T) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	input := newMockDigitalInput()
	redis := newMockMessagingClient()
	system := NewJoystickSystem(redis, nil, &mockDisplay{}, input, l, Config{})
	input.callbacks["up"] = system.handleSwitchEdge

	// Edges are ignored outside the running state.
	if err := input.SimulateEdge("up", true); err != nil {
		t.Fatalf("SimulateEdge failed: %v", err)
	}
	if len(redis.publishedDirections) != 0 {
		t.Errorf("Expected no publish while not running, got %v", redis.publishedDirections)
	}

	system.setState(types.StateRunning)
	input.pressed["up"] = false
	if err := input.SimulateEdge("up", true); err != nil {
		t.Fatalf("SimulateEdge failed: %v", err)
	}
	if len(redis.publishedDirections) != 1 || redis.publishedDirections[0] != "N" {
		t.Errorf("Expected N published on edge, got %v", redis.publishedDirections)
	}
}

func TestButtonEdgePublishes(t *testing.T) {
	l := logger.NewLogger(nil, logger.LogLevelError)
	input := newMockDigitalInput()
	redis := newMockMessagingClient()
	system := NewJoystickSystem(redis, nil, &mockDisplay{}, input, l, Config{})
	input.callbacks["press"] = system.handleButtonEdge

	if err := input.SimulateEdge("press", true); err != nil {
		t.Fatalf("SimulateEdge failed: %v", err)
	}
	if err := input.SimulateEdge("press", false); err != nil {
		t.Fatalf("SimulateEdge failed: %v", err)
	}

	want := []bool{true, false}
	if len(redis.publishedButtons) != len(want) {
		t.Fatalf("Expected %d button events, got %v", len(want), redis.publishedButtons)
	}
	for i, pressed := range want {
		if redis.publishedButtons[i] != pressed {
			t.Errorf("Button event %d: expected %v, got %v", i, pressed, redis.publishedButtons[i])
		}
	}
}

// ===== State Machine Tests =====

func TestStateRequestRunAndPause(t *testing.T) {
	system, _, redis := newTestJoystickSystem()
	system.hardwareReady = true
	initTestFSM(t, system)

	if err := system.handleStateRequest("run"); err != nil {
		t.Fatalf("run request failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if system.machine.CurrentState() != fsm.StateRunning {
		t.Fatalf("Expected running, got %v", system.machine.CurrentState())
	}
	system.mu.RLock()
	polling := system.pollStop != nil
	system.mu.RUnlock()
	if !polling {
		t.Error("Expected poll loop to be started")
	}

	if err := system.handleStateRequest("pause"); err != nil {
		t.Fatalf("pause request failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if system.machine.CurrentState() != fsm.StatePaused {
		t.Fatalf("Expected paused, got %v", system.machine.CurrentState())
	}
	system.mu.RLock()
	polling = system.pollStop != nil
	system.mu.RUnlock()
	if polling {
		t.Error("Expected poll loop to be stopped")
	}

	// Repeated requests for the current state are no-ops.
	if err := system.handleStateRequest("pause"); err != nil {
		t.Errorf("Repeated pause should be a no-op, got %v", err)
	}

	found := map[types.ServiceState]bool{}
	for _, s := range redis.publishedStates {
		found[s] = true
	}
	if !found[types.StateRunning] || !found[types.StatePaused] {
		t.Errorf("Expected running and paused state publishes, got %v", redis.publishedStates)
	}
}

func TestStateRequestRunBlockedUntilHardwareReady(t *testing.T) {
	system, _, _ := newTestJoystickSystem()
	initTestFSM(t, system)

	system.handleStateRequest("run")
	time.Sleep(50 * time.Millisecond)
	if system.machine.CurrentState() == fsm.StateRunning {
		t.Error("Guard should block run before hardware is ready")
	}
}

func TestStateRequestInvalid(t *testing.T) {
	system, _, _ := newTestJoystickSystem()
	system.hardwareReady = true
	initTestFSM(t, system)

	if err := system.handleStateRequest("fly"); err == nil {
		t.Error("Expected error for invalid state request")
	}
}

// ===== Full Lifecycle Tests =====

func TestStartAndShutdown(t *testing.T) {
	system, display, _ := newTestJoystickSystem(
		joystick.Position{X: 128, Y: 128},
	)

	if err := system.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if !display.initialized {
		t.Error("Expected display to be initialized")
	}
	if system.machine.CurrentState() != fsm.StateRunning {
		t.Errorf("Expected running after start, got %v", system.machine.CurrentState())
	}

	system.Shutdown()
	time.Sleep(50 * time.Millisecond)

	if system.machine.CurrentState() != fsm.StateShuttingDown {
		t.Errorf("Expected shutting-down, got %v", system.machine.CurrentState())
	}
	if !display.cleanedUp {
		t.Error("Expected display cleanup")
	}
}

func TestStartRestoresPausedState(t *testing.T) {
	system, _, redis := newTestJoystickSystem()
	redis.serviceState = types.StatePaused

	if err := system.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if system.machine.CurrentState() != fsm.StatePaused {
		t.Errorf("Expected restored paused state, got %v", system.machine.CurrentState())
	}
	system.mu.RLock()
	polling := system.pollStop != nil
	system.mu.RUnlock()
	if polling {
		t.Error("Poll loop should not run while paused")
	}

	system.Shutdown()
}
