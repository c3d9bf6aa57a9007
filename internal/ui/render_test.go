package ui

import (
	"math"
	"regexp"
	"strings"
	"testing"
)

// Styles degrade to plain text when the test binary has no TTY, but strip
// escape sequences anyway so the assertions hold under any color profile.
var ansiSeq = regexp.MustCompile("\x1b\\[[0-9;]*m")

func plain(s string) string {
	return ansiSeq.ReplaceAllString(s, "")
}

func TestCanvasCellGlyphs(t *testing.T) {
	c := newCanvas(4, 1)
	c.set(1, 0, colGreen) // top pixel only
	c.set(2, 1, colGreen) // bottom pixel only
	c.set(3, 0, colGreen) // both pixels
	c.set(3, 1, colGreen)

	if got := plain(c.String()); got != " ▀▄█" {
		t.Errorf("canvas cells = %q, want %q", got, " ▀▄█")
	}
}

func TestCanvasMixedColorsUseUpperHalfBlock(t *testing.T) {
	c := newCanvas(1, 1)
	c.set(0, 0, colRed)
	c.set(0, 1, colBlue)

	if got := plain(c.String()); got != "▀" {
		t.Errorf("mixed-color cell = %q, want upper half block", got)
	}
}

func TestCanvasRowCount(t *testing.T) {
	c := newCanvas(10, 4)
	out := c.String()
	if n := strings.Count(out, "\n"); n != 3 {
		t.Errorf("4-row canvas has %d newlines, want 3", n)
	}
	if strings.HasSuffix(out, "\n") {
		t.Error("canvas output should not end with a newline")
	}
}

func TestCanvasSetIgnoresOutOfRange(t *testing.T) {
	c := newCanvas(2, 2)
	c.set(-1, 0, colRed)
	c.set(2, 0, colRed)
	c.set(0, -1, colRed)
	c.set(0, 4, colRed)

	if got := strings.TrimSpace(plain(c.String())); got != "" {
		t.Errorf("out-of-range sets drew %q", got)
	}
}

func TestCanvasVlineAcceptsReversedRange(t *testing.T) {
	c := newCanvas(3, 2)
	c.vline(1, 3, 0, colCyan)
	for y := 0; y <= 3; y++ {
		if c.at(1, y) != colCyan {
			t.Errorf("pixel (1,%d) = %d, want %d", y, c.at(1, y), colCyan)
		}
	}
	if c.at(0, 0) != colNone || c.at(2, 3) != colNone {
		t.Error("vline touched neighboring columns")
	}
}

func TestCanvasLineHitsEndpoints(t *testing.T) {
	c := newCanvas(8, 4)
	c.line(0, 0, 7, 7, colWhite)
	if c.at(0, 0) != colWhite {
		t.Error("line missing start point")
	}
	if c.at(7, 7) != colWhite {
		t.Error("line missing end point")
	}
}

func TestCanvasLineSteepSlope(t *testing.T) {
	c := newCanvas(2, 4)
	c.line(0, 0, 1, 7, colGreen)
	// A steep line must not leave vertical gaps.
	for y := 0; y < 8; y++ {
		if c.at(0, y) == colNone && c.at(1, y) == colNone {
			t.Errorf("steep line has a gap at pixel row %d", y)
		}
	}
}

func TestDBFS(t *testing.T) {
	if got := dbfs(1.0); got != 0 {
		t.Errorf("dbfs(1.0) = %v, want 0", got)
	}
	if got := dbfs(0.5); math.Abs(got-(-6.0206)) > 0.001 {
		t.Errorf("dbfs(0.5) = %v, want about -6.02", got)
	}
	if got := dbfs(0); got != -180 {
		t.Errorf("dbfs(0) = %v, want -180", got)
	}
}

func TestHbar(t *testing.T) {
	if got := hbar(0.5, 10); got != "█████░░░░░" {
		t.Errorf("hbar(0.5, 10) = %q", got)
	}
	if got := hbar(-1, 4); got != "░░░░" {
		t.Errorf("hbar(-1, 4) = %q", got)
	}
	if got := hbar(2, 4); got != "████" {
		t.Errorf("hbar(2, 4) = %q", got)
	}
}

func TestLevelColor(t *testing.T) {
	cases := []struct {
		db   float64
		want uint8
	}{
		{0, colRed},
		{-0.5, colRed},
		{-3, colYellow},
		{-6, colYellow},
		{-6.1, colGreen},
		{-40, colGreen},
	}
	for _, tc := range cases {
		if got := levelColor(tc.db); got != tc.want {
			t.Errorf("levelColor(%v) = %d, want %d", tc.db, got, tc.want)
		}
	}
}

func TestHeatColorBounds(t *testing.T) {
	if got := heatColor(-120); got != heatRamp[0] {
		t.Errorf("heatColor below floor = %d, want transparent", got)
	}
	if got := heatColor(0); got != colWhite {
		t.Errorf("heatColor(0) = %d, want %d", got, colWhite)
	}
	if got := heatColor(-45); got == heatRamp[0] || got == colWhite {
		t.Errorf("heatColor(-45) = %d, want a mid-ramp color", got)
	}
}
