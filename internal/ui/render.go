package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette indices used by the pixel canvas. Index 0 is transparent.
const (
	colNone   = 0
	colGrid   = 1
	colGreen  = 2
	colYellow = 3
	colOrange = 4
	colRed    = 5
	colCyan   = 6
	colBlue   = 7
	colViolet = 8
	colWhite  = 9
	colTeal   = 10
	colNavy   = 11
	colPurple = 12
	colPink   = 13
	colAmber  = 14
	colGray   = 15
)

var pixelColors = []string{
	"", "238", "40", "220", "208", "196", "45", "39",
	"135", "255", "30", "17", "54", "161", "214", "243",
}

// Magnitude ramp for the spectrogram, cold to hot.
var heatRamp = []uint8{colNone, colNavy, colPurple, colViolet, colPink, colRed, colOrange, colYellow, colWhite}

// Intensity ramp for the persistence scope, faint to bright.
var glowRamp = []uint8{colNavy, colTeal, colBlue, colCyan, colWhite}

// Pre-computed pixel styles to avoid allocations in the render loop.
var (
	pixelStyles [16]lipgloss.Style
	pixelBg     [16][16]lipgloss.Style
)

func init() {
	for i, c := range pixelColors {
		if c != "" {
			pixelStyles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
		}
	}
	for i, fg := range pixelColors {
		for j, bg := range pixelColors {
			if fg != "" && bg != "" {
				pixelBg[i][j] = lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
			}
		}
	}
}

// canvas is a pixel grid at double vertical resolution, rendered with
// half-block characters so each character cell carries two pixels.
type canvas struct {
	w, h int // character cells
	pix  []uint8
}

func newCanvas(w, h int) *canvas {
	return &canvas{w: w, h: h, pix: make([]uint8, w*h*2)}
}

// pixelHeight is the number of pixel rows, twice the character height.
func (c *canvas) pixelHeight() int {
	return c.h * 2
}

func (c *canvas) set(x, y int, color uint8) {
	if x < 0 || x >= c.w || y < 0 || y >= c.h*2 {
		return
	}
	c.pix[y*c.w+x] = color
}

func (c *canvas) at(x, y int) uint8 {
	if x < 0 || x >= c.w || y < 0 || y >= c.h*2 {
		return colNone
	}
	return c.pix[y*c.w+x]
}

func (c *canvas) vline(x, y0, y1 int, color uint8) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.set(x, y, color)
	}
}

func (c *canvas) hline(x0, x1, y int, color uint8) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.set(x, y, color)
	}
}

// line draws between two pixels with a simple DDA walk.
func (c *canvas) line(x0, y0, x1, y1 int, color uint8) {
	dx := x1 - x0
	dy := y1 - y0
	steps := dx
	if steps < 0 {
		steps = -steps
	}
	if dy > steps {
		steps = dy
	} else if -dy > steps {
		steps = -dy
	}
	if steps == 0 {
		c.set(x0, y0, color)
		return
	}
	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		c.set(x, y, color)
	}
}

func (c *canvas) String() string {
	var result strings.Builder
	ph := c.h * 2
	for cy := 0; cy < c.h; cy++ {
		for cx := 0; cx < c.w; cx++ {
			topY := cy * 2
			botY := cy*2 + 1
			var top, bot uint8
			if topY < ph {
				top = c.pix[topY*c.w+cx]
			}
			if botY < ph {
				bot = c.pix[botY*c.w+cx]
			}
			switch {
			case top == 0 && bot == 0:
				result.WriteString(" ")
			case top == bot:
				result.WriteString(pixelStyles[top].Render("█"))
			case bot == 0:
				result.WriteString(pixelStyles[top].Render("▀"))
			case top == 0:
				result.WriteString(pixelStyles[bot].Render("▄"))
			default:
				result.WriteString(pixelBg[top][bot].Render("▀"))
			}
		}
		if cy < c.h-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// dbfs converts a linear amplitude to decibels with a -180 dB floor.
func dbfs(v float64) float64 {
	if v <= 1e-9 {
		return -180
	}
	return 20 * math.Log10(v)
}

// hbar renders a horizontal level bar of the given width, filled to frac.
func hbar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// levelColor picks a meter color for a dBFS level.
func levelColor(db float64) uint8 {
	switch {
	case db >= -1:
		return colRed
	case db >= -6:
		return colYellow
	default:
		return colGreen
	}
}

// heatColor maps a magnitude in dBFS onto the spectrogram ramp.
func heatColor(db float64) uint8 {
	const floor = -90.0
	if db <= floor {
		return heatRamp[0]
	}
	frac := (db - floor) / -floor
	if frac > 1 {
		frac = 1
	}
	idx := int(frac * float64(len(heatRamp)-1))
	return heatRamp[idx]
}
