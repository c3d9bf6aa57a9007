package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/meterdeck/meterdeck/pkg/dsp/analysis"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// amplitudeY maps a [-1, 1] sample onto pixel rows, +1 at the top.
func amplitudeY(v float64, pixelRows int) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int((1 - v) / 2 * float64(pixelRows-1))
}

func renderWaveform(snap *engine.Snapshot, w, h int) string {
	c := newCanvas(w, h)
	ph := c.pixelHeight()
	c.hline(0, w-1, ph/2, colGrid)

	n := len(snap.Waveform)
	if n == 0 {
		return c.String()
	}

	for x := 0; x < w; x++ {
		b0 := x * n / w
		b1 := (x + 1) * n / w
		if b1 <= b0 {
			b1 = b0 + 1
		}

		mn := float32(1)
		mx := float32(-1)
		var bands [3]float64
		for b := b0; b < b1 && b < n; b++ {
			bucket := &snap.Waveform[b]
			for ch := 0; ch < 2; ch++ {
				if bucket.Min[ch] < mn {
					mn = bucket.Min[ch]
				}
				if bucket.Max[ch] > mx {
					mx = bucket.Max[ch]
				}
				for band := 0; band < 3; band++ {
					bands[band] += float64(bucket.Bands[ch][band])
				}
			}
		}
		if mn > mx {
			continue // bucket not yet filled
		}

		color := uint8(colBlue)
		if bands[analysis.BandMid] >= bands[analysis.BandLow] && bands[analysis.BandMid] >= bands[analysis.BandHigh] {
			color = colGreen
		} else if bands[analysis.BandHigh] >= bands[analysis.BandLow] {
			color = colYellow
		}

		c.vline(x, amplitudeY(float64(mx), ph), amplitudeY(float64(mn), ph), color)
	}
	return c.String()
}

// logBinRange maps a screen column onto FFT bins along a 20 Hz .. 20 kHz
// log axis.
func logBinRange(x, w int, sampleRate float64, bins int) (int, int) {
	fLo := 20.0
	fHi := sampleRate / 2
	if fHi > 20000 {
		fHi = 20000
	}
	binWidth := sampleRate / float64(2*bins)
	ratio := fHi / fLo
	f0 := fLo * math.Pow(ratio, float64(x)/float64(w))
	f1 := fLo * math.Pow(ratio, float64(x+1)/float64(w))
	i0 := int(f0 / binWidth)
	i1 := int(f1 / binWidth)
	if i1 <= i0 {
		i1 = i0 + 1
	}
	if i0 >= bins {
		i0 = bins - 1
	}
	if i1 > bins {
		i1 = bins
	}
	return i0, i1
}

func renderSpectrum(snap *engine.Snapshot, w, h int) string {
	c := newCanvas(w, h)
	ph := c.pixelHeight()

	bins := len(snap.Spectrum)
	if bins == 0 || snap.SampleRate <= 0 {
		return c.String()
	}

	const floor = -90.0
	for x := 0; x < w; x++ {
		i0, i1 := logBinRange(x, w, snap.SampleRate, bins)

		var mag, avg float32
		for i := i0; i < i1; i++ {
			if snap.Spectrum[i] > mag {
				mag = snap.Spectrum[i]
			}
			if snap.SpectrumAverage[i] > avg {
				avg = snap.SpectrumAverage[i]
			}
		}

		db := dbfs(float64(mag))
		if db > floor {
			frac := (db - floor) / -floor
			if frac > 1 {
				frac = 1
			}
			top := int((1 - frac) * float64(ph-1))
			c.vline(x, top, ph-1, levelColor(db))
		}

		avgDB := dbfs(float64(avg))
		if avgDB > floor {
			frac := (avgDB - floor) / -floor
			if frac > 1 {
				frac = 1
			}
			c.set(x, int((1-frac)*float64(ph-1)), colWhite)
		}
	}
	return c.String()
}

func renderSpectrogram(snap *engine.Snapshot, w, h int) string {
	c := newCanvas(w, h)
	ph := c.pixelHeight()

	cols := len(snap.Spectrogram)
	bins := analysis.SpectrumBins
	if cols == 0 || snap.SampleRate <= 0 {
		return c.String()
	}

	fLo := 20.0
	fHi := snap.SampleRate / 2
	if fHi > 20000 {
		fHi = 20000
	}
	binWidth := snap.SampleRate / float64(2*bins)
	ratio := fHi / fLo

	for sx := 0; sx < w; sx++ {
		age := w - 1 - sx
		idx := snap.SpectrogramCursor - 1 - age
		if idx < 0 {
			if !snap.SpectrogramWrapped {
				continue
			}
			idx += cols
			if idx < 0 {
				continue
			}
		}
		column := snap.Spectrogram[idx]
		if len(column) < bins {
			continue
		}

		for y := 0; y < ph; y++ {
			frac := 1 - float64(y)/float64(ph-1)
			f := fLo * math.Pow(ratio, frac)
			bin := int(f / binWidth)
			if bin >= bins {
				bin = bins - 1
			}
			color := heatColor(dbfs(float64(column[bin])))
			if color != colNone {
				c.set(sx, y, color)
			}
		}
	}
	return c.String()
}

func renderScope(snap *engine.Snapshot, w, h int) string {
	c := newCanvas(w, h)
	ph := c.pixelHeight()
	c.hline(0, w-1, ph/2, colGrid)

	n := len(snap.Oscilloscope)
	if n == 0 {
		return c.String()
	}

	prevY := 0
	for x := 0; x < w; x++ {
		i := x * n / w
		y := amplitudeY(float64(snap.Oscilloscope[i]), ph)
		if x == 0 {
			c.set(x, y, colCyan)
		} else {
			c.line(x-1, prevY, x, y, colCyan)
		}
		prevY = y
	}
	return c.String()
}

func fmtLUFS(v float64) string {
	if v <= -99.5 {
		return "  -inf"
	}
	return fmt.Sprintf("%6.1f", v)
}

func fmtDB(v float64) string {
	if v <= -99.5 {
		return "  -inf"
	}
	return fmt.Sprintf("%6.1f", v)
}

// loudnessFrac maps a LUFS value onto the -45..0 display range.
func loudnessFrac(v float64) float64 {
	return (v + 45) / 45
}

func loudnessColor(v float64) uint8 {
	switch {
	case v >= -10:
		return colRed
	case v >= -18:
		return colYellow
	default:
		return colGreen
	}
}

func renderLoudness(snap *engine.Snapshot, cfg engine.LoudnessDisplayConfig, longHist []float64, tickSeconds float64, w, h int) string {
	var b strings.Builder
	lines := 0
	put := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
		lines++
	}

	barW := w - 28
	if barW < 8 {
		barW = 8
	}
	loud := snap.Loudness

	put("")
	put(fmt.Sprintf("  %s %s LUFS  %s",
		labelStyle.Render("Momentary "),
		valueStyle.Render(fmtLUFS(loud.Momentary)),
		pixelStyles[loudnessColor(loud.Momentary)].Render(hbar(loudnessFrac(loud.Momentary), barW))))
	put(fmt.Sprintf("  %s %s LUFS  %s",
		labelStyle.Render("Short-term"),
		valueStyle.Render(fmtLUFS(loud.ShortTerm)),
		pixelStyles[loudnessColor(loud.ShortTerm)].Render(hbar(loudnessFrac(loud.ShortTerm), barW))))
	put(fmt.Sprintf("  %s %s LUFS  %s",
		labelStyle.Render("Integrated"),
		valueStyle.Render(fmtLUFS(loud.Integrated)),
		pixelStyles[colCyan].Render(hbar(loudnessFrac(loud.Integrated), barW))))

	delta := loud.Integrated - cfg.TargetLoudness
	deltaStyle := goodStyle
	if loud.Integrated <= -99.5 {
		deltaStyle = dimStyle
	} else if math.Abs(delta) > 3 {
		deltaStyle = badStyle
	} else if math.Abs(delta) > 1 {
		deltaStyle = warnStyle
	}
	put(fmt.Sprintf("  %s %s LU     %s",
		labelStyle.Render("Range     "),
		valueStyle.Render(fmtLUFS(loud.Range)),
		dimStyle.Render(fmt.Sprintf("max M %s   max S %s", fmtLUFS(loud.MaxMomentary), fmtLUFS(loud.MaxShortTerm)))))
	put(fmt.Sprintf("  %s %s LUFS  %s",
		labelStyle.Render("Target    "),
		valueStyle.Render(fmtLUFS(cfg.TargetLoudness)),
		deltaStyle.Render(fmt.Sprintf("delta %+.1f LU", delta))))
	put("")

	m := snap.Meters
	for ch := 0; ch < 2; ch++ {
		name := "L"
		if ch == 1 {
			name = "R"
		}
		peakDB := dbfs(m.Peak[ch])
		bar := pixelStyles[levelColor(peakDB)].Render(hbar((peakDB+60)/60, barW))
		clip := "    "
		if m.Clip[ch] {
			clip = badStyle.Render("CLIP")
		}
		put(fmt.Sprintf("  %s %s dB    %s %s  %s",
			labelStyle.Render(name+" peak    "),
			valueStyle.Render(fmtDB(peakDB)), bar, clip,
			dimStyle.Render(fmt.Sprintf("max %s", fmtDB(dbfs(m.MaxPeak[ch]))))))
	}
	put(fmt.Sprintf("  %s L %s  R %s dB",
		labelStyle.Render("VU        "),
		valueStyle.Render(fmtDB(dbfs(m.VU[0]))),
		valueStyle.Render(fmtDB(dbfs(m.VU[1])))))
	if cfg.ShowRMSOverlay {
		put(fmt.Sprintf("  %s fast %s  slow %s dB",
			labelStyle.Render("RMS       "),
			valueStyle.Render(fmtDB(dbfs(m.RMSFast))),
			valueStyle.Render(fmtDB(dbfs(m.RMSSlow)))))
	}
	put("")
	put(dimStyle.Render(fmt.Sprintf("  Short-term history (%d s)", cfg.HistoryWindowSeconds)))

	stripH := h - lines
	if stripH >= 2 {
		values := longHist
		perValue := tickSeconds
		if cfg.HistoryWindowSeconds <= 20 {
			// The engine's display ring covers 20 s at a finer cadence.
			values = snap.LoudnessHistory
			perValue = snap.HistoryIntervalSeconds
		}
		b.WriteString(historyStrip(values, perValue, cfg.HistoryWindowSeconds, cfg.TargetLoudness, w, stripH))
		lines += stripH
	}
	for lines < h {
		b.WriteString("\n")
		lines++
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// historyStrip plots loudness values against the target over the window.
func historyStrip(values []float64, perValue float64, windowSeconds int, target float64, w, h int) string {
	c := newCanvas(w, h)
	ph := c.pixelHeight()

	ty := int((1 - loudnessFrac(target)) * float64(ph-1))
	c.hline(0, w-1, ty, colGrid)

	if len(values) == 0 || perValue <= 0 {
		return c.String()
	}

	need := int(float64(windowSeconds)/perValue + 0.5)
	if need > len(values) {
		need = len(values)
	}
	if need < 1 {
		need = 1
	}

	for x := 0; x < w; x++ {
		idx := len(values) - need + x*need/w
		if idx < 0 || idx >= len(values) {
			continue
		}
		v := values[idx]
		if v <= -99.5 {
			continue
		}
		frac := loudnessFrac(v)
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		color := uint8(colBlue)
		switch {
		case v > target+1:
			color = colRed
		case v >= target-1:
			color = colGreen
		}
		c.vline(x, int((1-frac)*float64(ph-1)), ph-1, color)
	}
	// Redraw the target line over the bars.
	c.hline(0, w-1, ty, colGray)
	return c.String()
}

// markerBar renders a centered indicator bar with a marker at frac [0,1].
func markerBar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	} else if frac > 1 {
		frac = 1
	}
	pos := int(frac * float64(width-1))
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i == pos {
			b.WriteString("█")
		} else if i == width/2 {
			b.WriteString("┊")
		} else {
			b.WriteString("░")
		}
	}
	return b.String()
}

func scopeDims(w, h int) (int, int) {
	sw := 2 * h
	maxW := w - 30
	if maxW < 12 {
		return w, h
	}
	if sw > maxW {
		sw = maxW
	}
	if sw < 12 {
		sw = 12
	}
	return sw, h
}

// scopePoint transforms an (L, R) pair into scope coordinates for the view
// mode. x and y come back in [-1, 1] before scaling.
func scopePoint(l, r float32, mode int) (float64, float64) {
	if mode == engine.ViewLeftRight {
		return float64(r), float64(l)
	}
	const sqrtHalf = 0.7071067811865476
	side := (float64(l) - float64(r)) * sqrtHalf
	mid := (float64(l) + float64(r)) * sqrtHalf
	return side, mid
}

func renderStereo(snap *engine.Snapshot, cfg engine.StereoDisplayConfig, persist []float64, frozen [][2]float32, corrHist []float64, tickSeconds float64, w, h int) string {
	sw, sh := scopeDims(w, h)
	c := newCanvas(sw, sh)
	ph := c.pixelHeight()

	c.hline(0, sw-1, ph/2, colGrid)
	c.vline(sw/2, 0, ph-1, colGrid)

	liss := snap.Lissajous
	if cfg.Freeze && frozen != nil {
		liss = frozen
	}

	if cfg.DisplayMode == engine.DisplayPersistence && len(persist) == sw*ph {
		for y := 0; y < ph; y++ {
			for x := 0; x < sw; x++ {
				v := persist[y*sw+x]
				if v < 0.03 {
					continue
				}
				idx := 0
				switch {
				case v >= 0.8:
					idx = 4
				case v >= 0.55:
					idx = 3
				case v >= 0.33:
					idx = 2
				case v >= 0.15:
					idx = 1
				}
				c.set(x, y, glowRamp[idx])
			}
		}
	} else {
		prevX, prevY := -1, -1
		for _, pt := range liss {
			px, py := scopePoint(pt[0], pt[1], cfg.ViewMode)
			px *= cfg.ScopeScale
			py *= cfg.ScopeScale
			if px > 1 {
				px = 1
			} else if px < -1 {
				px = -1
			}
			x := int((px + 1) / 2 * float64(sw-1))
			y := amplitudeY(py, ph)
			if cfg.DisplayMode == engine.DisplayLines && prevX >= 0 {
				c.line(prevX, prevY, x, y, colCyan)
			} else {
				c.set(x, y, colCyan)
			}
			prevX, prevY = x, y
		}
	}

	scope := c.String()
	if sw >= w-12 {
		return scope
	}

	// Side panel
	var b strings.Builder
	lines := 0
	put := func(s string) {
		b.WriteString(s)
		b.WriteString("\n")
		lines++
	}

	st := snap.Stereo
	barW := w - sw - 6
	if barW > 24 {
		barW = 24
	}

	put("")
	put(fmt.Sprintf("%s %s", labelStyle.Render("Correlation"), valueStyle.Render(fmt.Sprintf("%+.2f", st.Correlation))))
	put(dimStyle.Render("-1 ") + pixelStyles[colCyan].Render(markerBar((st.Correlation+1)/2, barW)) + dimStyle.Render(" +1"))
	put(fmt.Sprintf("%s %s %%", labelStyle.Render("Width      "), valueStyle.Render(fmt.Sprintf("%3.0f", st.Width*100))))
	put(fmt.Sprintf("%s %s dB", labelStyle.Render("Balance    "), valueStyle.Render(fmt.Sprintf("%+.1f", st.BalanceDB))))
	put(dimStyle.Render(" L ") + pixelStyles[colAmber].Render(markerBar((st.BalanceDB+24)/48, barW)) + dimStyle.Render(" R"))
	put(fmt.Sprintf("%s %s dB", labelStyle.Render("Mid        "), valueStyle.Render(fmtDB(dbfs(st.MidRMS)))))
	put(fmt.Sprintf("%s %s dB", labelStyle.Render("Side       "), valueStyle.Render(fmtDB(dbfs(st.SideRMS)))))
	put("")

	mode := "mid/side"
	if cfg.ViewMode == engine.ViewLeftRight {
		mode = "left/right"
	}
	style := "lines"
	switch cfg.DisplayMode {
	case engine.DisplayDots:
		style = "dots"
	case engine.DisplayPersistence:
		style = fmt.Sprintf("persist %.1fs", cfg.TrailSeconds)
	}
	frozenTag := ""
	if cfg.Freeze {
		frozenTag = warnStyle.Render("  FROZEN")
	}
	put(dimStyle.Render(fmt.Sprintf("%s · %s · x%.2g", mode, style, cfg.ScopeScale)) + frozenTag)
	put(dimStyle.Render(fmt.Sprintf("Correlation (%d s)", cfg.HistoryWindowSeconds)))

	stripH := sh - lines
	if stripH >= 2 {
		b.WriteString(corrStrip(corrHist, tickSeconds, cfg.HistoryWindowSeconds, w-sw-1, stripH))
		lines += stripH
	}
	for lines < sh {
		b.WriteString("\n")
		lines++
	}
	panel := strings.TrimSuffix(b.String(), "\n")

	return lipgloss.JoinHorizontal(lipgloss.Top, scope, " ", panel)
}

// corrStrip plots recent correlation values, +1 at the top.
func corrStrip(values []float64, perValue float64, windowSeconds, w, h int) string {
	c := newCanvas(w, h)
	ph := c.pixelHeight()
	c.hline(0, w-1, ph/2, colGrid)

	if len(values) == 0 || perValue <= 0 {
		return c.String()
	}
	need := int(float64(windowSeconds)/perValue + 0.5)
	if need > len(values) {
		need = len(values)
	}
	if need < 1 {
		need = 1
	}
	prevY := -1
	for x := 0; x < w; x++ {
		idx := len(values) - need + x*need/w
		if idx < 0 || idx >= len(values) {
			continue
		}
		y := amplitudeY(values[idx], ph)
		if prevY >= 0 {
			c.line(x-1, prevY, x, y, colCyan)
		} else {
			c.set(x, y, colCyan)
		}
		prevY = y
	}
	return c.String()
}
