package hardware

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleDisplayRendersFrame(t *testing.T) {
	var buf bytes.Buffer
	d := NewConsoleDisplay(&buf)

	if err := d.ShowText(0, 0, "Direction:"); err != nil {
		t.Fatalf("ShowText failed: %v", err)
	}
	if err := d.ShowText(1, 0, "NE"); err != nil {
		t.Fatalf("ShowText failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "|Direction:      |") {
		t.Errorf("missing first row, got:\n%s", out)
	}
	if !strings.Contains(out, "|NE              |") {
		t.Errorf("missing second row, got:\n%s", out)
	}
}

func TestConsoleDisplayTruncatesAtLastColumn(t *testing.T) {
	var buf bytes.Buffer
	d := NewConsoleDisplay(&buf)

	if err := d.ShowText(0, 14, "XYZ"); err != nil {
		t.Fatalf("ShowText failed: %v", err)
	}
	if !strings.Contains(buf.String(), "|              XY|") {
		t.Errorf("text not truncated at column 15, got:\n%s", buf.String())
	}
}

func TestConsoleDisplayRejectsOutOfRange(t *testing.T) {
	d := NewConsoleDisplay(&bytes.Buffer{})

	if err := d.ShowText(2, 0, "x"); err == nil {
		t.Error("expected error for row out of range")
	}
	if err := d.ShowText(0, 16, "x"); err == nil {
		t.Error("expected error for column out of range")
	}
}

func TestConsoleDisplayShowInt(t *testing.T) {
	var buf bytes.Buffer
	d := NewConsoleDisplay(&buf)

	if err := d.ShowInt(0, 2, 255); err != nil {
		t.Fatalf("ShowInt failed: %v", err)
	}
	if !strings.Contains(buf.String(), "|  255           |") {
		t.Errorf("value not rendered, got:\n%s", buf.String())
	}
}
