package hardware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"joystick-service/internal/logger"
)

// HD44780 command set, 8-bit bus.
const (
	lcdCmdFunctionSet = 0x38 // 8-bit, 2 lines, 5x7 font
	lcdCmdDisplayOn   = 0x0C // display on, cursor off
	lcdCmdClear       = 0x01
	lcdCmdEntryMode   = 0x06 // increment cursor, no shift

	lcdEnablePulse  = 50 * time.Microsecond
	lcdCommandDelay = 2 * time.Millisecond
)

// rowAddrs are the DDRAM base addresses of the two display rows.
var rowAddrs = [LcdRows]uint8{0x80, 0xC0}

// dataLines indexes LcdMappings for the bus, LSB first.
var dataLines = [8]string{"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7"}

// CharDisplay drives an HD44780-compatible 16x2 character display over GPIO
// lines. No cycle-accurate timing is modeled; the fixed settle delays are
// generous for any controller clone.
type CharDisplay struct {
	logger *logger.Logger
	chips  map[int]*gpiocdev.Chip
	lines  map[string]*gpiocdev.Line
	mu     sync.Mutex
}

func NewCharDisplay(l *logger.Logger) *CharDisplay {
	return &CharDisplay{
		logger: l.WithTag("CharDisplay"),
		chips:  make(map[int]*gpiocdev.Chip),
		lines:  make(map[string]*gpiocdev.Line),
	}
}

// Initialize requests the GPIO lines and runs the controller setup sequence.
func (d *CharDisplay) Initialize() error {
	d.logger.Infof("Initializing character display")

	for name, mapping := range LcdMappings {
		chip, ok := d.chips[mapping.Chip]
		if !ok {
			var err error
			chip, err = gpiocdev.NewChip(fmt.Sprintf("gpiochip%d", mapping.Chip))
			if err != nil {
				return fmt.Errorf("failed to open GPIO chip %d: %w", mapping.Chip, err)
			}
			d.chips[mapping.Chip] = chip
		}

		line, err := chip.RequestLine(mapping.Line,
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer("joystick-service"))
		if err != nil {
			return fmt.Errorf("failed to request GPIO line %d: %w", mapping.Line, err)
		}
		d.lines[name] = line
		d.logger.Debugf("Configured LCD pin %s: chip=%d, line=%d", name, mapping.Chip, mapping.Line)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, cmd := range []uint8{lcdCmdFunctionSet, lcdCmdDisplayOn, lcdCmdClear, lcdCmdEntryMode} {
		if err := d.command(cmd); err != nil {
			return fmt.Errorf("display setup command %#02x: %w", cmd, err)
		}
	}

	d.logger.Infof("Character display ready")
	return nil
}

// command latches a command byte (register select low).
func (d *CharDisplay) command(cmd uint8) error {
	if err := d.lines["rs"].SetValue(0); err != nil {
		return err
	}
	if err := d.writeBus(cmd); err != nil {
		return err
	}
	if err := d.pulseEnable(); err != nil {
		return err
	}
	time.Sleep(lcdCommandDelay)
	return nil
}

// data latches a character byte (register select high).
func (d *CharDisplay) data(b uint8) error {
	if err := d.lines["rs"].SetValue(1); err != nil {
		return err
	}
	if err := d.writeBus(b); err != nil {
		return err
	}
	return d.pulseEnable()
}

func (d *CharDisplay) writeBus(b uint8) error {
	for i, name := range dataLines {
		if err := d.lines[name].SetValue(int(b>>i) & 1); err != nil {
			return fmt.Errorf("failed to set LCD data line %s: %w", name, err)
		}
	}
	return nil
}

func (d *CharDisplay) pulseEnable() error {
	if err := d.lines["en"].SetValue(1); err != nil {
		return err
	}
	time.Sleep(lcdEnablePulse)
	if err := d.lines["en"].SetValue(0); err != nil {
		return err
	}
	time.Sleep(lcdEnablePulse)
	return nil
}

func (d *CharDisplay) setCursor(row, col int) error {
	if row < 0 || row >= LcdRows {
		return fmt.Errorf("row %d out of range", row)
	}
	if col < 0 || col >= LcdCols {
		return fmt.Errorf("column %d out of range", col)
	}
	return d.command(rowAddrs[row] + uint8(col))
}

// ShowText writes a string starting at the given cell. Text running past
// the last column is truncated.
func (d *CharDisplay) ShowText(row, col int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.setCursor(row, col); err != nil {
		return err
	}
	for i := 0; i < len(text) && col+i < LcdCols; i++ {
		if err := d.data(text[i]); err != nil {
			return fmt.Errorf("failed to write character %d: %w", i, err)
		}
	}
	return nil
}

// ShowInt writes a decimal value starting at the given cell.
func (d *CharDisplay) ShowInt(row, col, value int) error {
	return d.ShowText(row, col, strconv.Itoa(value))
}

// Clear blanks the display and homes the cursor.
func (d *CharDisplay) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.command(lcdCmdClear)
}

// Cleanup releases the GPIO lines and chips.
func (d *CharDisplay) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for name, line := range d.lines {
		line.Close()
		d.logger.Debugf("Closed GPIO line for %s", name)
	}
	for id, chip := range d.chips {
		chip.Close()
		d.logger.Debugf("Closed GPIO chip %d", id)
	}
}
