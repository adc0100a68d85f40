package hardware

import (
	"fmt"
	"io"
	"strconv"
	"sync"
)

// ConsoleDisplay mirrors the character display onto a writer, one frame per
// update. It keeps a cell buffer so partial writes render the way they
// would on the real panel.
type ConsoleDisplay struct {
	w     io.Writer
	cells [LcdRows][LcdCols]byte
	mu    sync.Mutex
}

func NewConsoleDisplay(w io.Writer) *ConsoleDisplay {
	d := &ConsoleDisplay{w: w}
	d.blank()
	return d
}

func (d *ConsoleDisplay) blank() {
	for r := 0; r < LcdRows; r++ {
		for c := 0; c < LcdCols; c++ {
			d.cells[r][c] = ' '
		}
	}
}

func (d *ConsoleDisplay) Initialize() error { return nil }

func (d *ConsoleDisplay) Cleanup() {}

func (d *ConsoleDisplay) ShowText(row, col int, text string) error {
	if row < 0 || row >= LcdRows {
		return fmt.Errorf("row %d out of range", row)
	}
	if col < 0 || col >= LcdCols {
		return fmt.Errorf("column %d out of range", col)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < len(text) && col+i < LcdCols; i++ {
		d.cells[row][col+i] = text[i]
	}
	return d.render()
}

func (d *ConsoleDisplay) ShowInt(row, col, value int) error {
	return d.ShowText(row, col, strconv.Itoa(value))
}

func (d *ConsoleDisplay) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blank()
	return d.render()
}

func (d *ConsoleDisplay) render() error {
	_, err := fmt.Fprintf(d.w, "|%s|\n|%s|\n", d.cells[0][:], d.cells[1][:])
	return err
}
