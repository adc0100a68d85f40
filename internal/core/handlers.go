package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"joystick-service/internal/fsm"
	"joystick-service/internal/types"
)

const (
	settingsHash      = "settings"
	settingPollMs     = "joystick.poll-interval-ms"
	settingZonePrefix = "joystick.zone."
)

func (s *JoystickSystem) handleDisplayModeRequest(mode string) error {
	m := types.DisplayMode(mode)
	switch m {
	case types.ModeDirection, types.ModeCoordinates, types.ModeOff:
	default:
		return fmt.Errorf("invalid display mode: %s", mode)
	}

	s.mu.Lock()
	s.displayMode = m
	s.mu.Unlock()

	s.logger.Infof("Display mode set to %s", m)
	return s.drawModeChrome(m)
}

func (s *JoystickSystem) handleStateRequest(action string) error {
	switch action {
	case "run":
		if s.machine.CurrentState() == fsm.StateRunning {
			return nil
		}
		return s.sendEvent(fsm.EvRun)
	case "pause":
		if s.machine.CurrentState() == fsm.StatePaused {
			return nil
		}
		return s.sendEvent(fsm.EvPause)
	case "stop":
		return s.sendEvent(fsm.EvStop)
	}
	return fmt.Errorf("invalid state request: %s", action)
}

func (s *JoystickSystem) handlePollIntervalRequest(ms int) error {
	if ms <= 0 {
		return fmt.Errorf("poll interval must be positive, got %d", ms)
	}
	s.mu.Lock()
	s.pollInterval = time.Duration(ms) * time.Millisecond
	s.mu.Unlock()
	s.logger.Infof("Poll interval set to %dms", ms)
	return nil
}

// handleSettingsUpdate reacts to a settings publish by re-reading the
// changed key. Keys for other services are ignored.
func (s *JoystickSystem) handleSettingsUpdate(key string) error {
	switch {
	case key == settingPollMs:
		value, err := s.redis.GetHashField(settingsHash, key)
		if err != nil {
			return err
		}
		if value == "" {
			return nil
		}
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid poll interval setting %q: %w", value, err)
		}
		return s.handlePollIntervalRequest(ms)
	case strings.HasPrefix(key, settingZonePrefix):
		return s.handleZoneSetting(strings.TrimPrefix(key, settingZonePrefix), key)
	}
	return nil
}

func (s *JoystickSystem) handleZoneSetting(name, key string) error {
	value, err := s.redis.GetHashField(settingsHash, key)
	if err != nil {
		return err
	}
	if value == "" {
		return nil
	}
	n, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid threshold %q for zone %s: %w", value, name, err)
	}
	threshold := uint8(n)

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := s.zones
	switch name {
	case "center-x-min":
		updated.CenterXMin = threshold
	case "center-x-max":
		updated.CenterXMax = threshold
	case "center-y-min":
		updated.CenterYMin = threshold
	case "center-y-max":
		updated.CenterYMax = threshold
	case "north-y":
		updated.NorthY = threshold
	case "south-y":
		updated.SouthY = threshold
	case "east-x":
		updated.EastX = threshold
	case "west-x":
		updated.WestX = threshold
	case "diagonal-low":
		updated.DiagonalLow = threshold
	case "diagonal-high":
		updated.DiagonalHigh = threshold
	case "east-west-y-max":
		updated.EastWestYMax = threshold
	default:
		return fmt.Errorf("unknown zone threshold: %s", name)
	}

	if err := updated.Validate(); err != nil {
		return fmt.Errorf("rejecting zone update %s=%d: %w", name, threshold, err)
	}
	s.zones = updated
	s.logger.Infof("Zone threshold %s set to %d", name, threshold)
	return nil
}
