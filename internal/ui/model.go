// Package ui is the terminal front end: a tabbed set of meter views fed by
// engine snapshots on a fixed tick.
package ui

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/meterdeck/meterdeck/internal/config"
	"github.com/meterdeck/meterdeck/internal/logging"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

const tickInterval = 33 * time.Millisecond

// Bounded consumer-side history rings, sized for the largest windows the
// views can show at the tick rate.
const (
	corrHistMax = 750
	loudHistMax = 3700
)

const (
	viewWaveform = iota
	viewSpectrum
	viewSpectrogram
	viewScope
	viewLoudness
	viewStereo
	viewCount
)

var viewNames = [viewCount]string{"Waveform", "Spectrum", "Spectrogram", "Scope", "Loudness", "Stereo"}

var loudnessTargets = []float64{-9, -14, -16, -18, -23}

type tickMsg time.Time

// SourceInfoMsg updates the header's source description. Sent by main once
// the source is running.
type SourceInfoMsg struct {
	Desc       string
	SampleRate float64
	Channels   int
}

// StatusMsg surfaces a transient message in the footer.
type StatusMsg struct {
	Text string
}

type Model struct {
	eng      *engine.Engine
	stateDir string

	snap     engine.Snapshot
	haveSnap bool

	width  int
	height int
	active int

	loudness engine.LoudnessDisplayConfig
	stereo   engine.StereoDisplayConfig

	sourceDesc string

	corrHist []float64
	loudHist []float64

	// Persistence scope intensity grid, sized to the current scope area.
	persist  []float64
	persistW int
	persistH int

	// Lissajous capture held while the scope is frozen.
	frozen [][2]float32

	status      string
	statusUntil time.Time
}

func NewModel(eng *engine.Engine, stateDir string, st config.State) Model {
	active := st.ActiveView
	if active < 0 || active >= viewCount {
		active = 0
	}
	eng.SetLoudnessDisplay(st.Loudness)
	eng.SetStereoDisplay(st.Stereo)
	return Model{
		eng:        eng,
		stateDir:   stateDir,
		active:     active,
		loudness:   eng.LoudnessDisplay(),
		stereo:     eng.StereoDisplay(),
		sourceDesc: "starting...",
	}
}

func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.eng.FillSnapshot(&m.snap, false) {
			m.haveSnap = true
			m.corrHist = appendBounded(m.corrHist, m.snap.Stereo.Correlation, corrHistMax)
			m.loudHist = appendBounded(m.loudHist, m.snap.Loudness.ShortTerm, loudHistMax)
			if m.active == viewStereo && m.stereo.DisplayMode == engine.DisplayPersistence && !m.stereo.Freeze {
				m.updatePersistence()
			}
		}
		return m, tick()

	case SourceInfoMsg:
		m.sourceDesc = msg.Desc

	case StatusMsg:
		return m.withStatus(msg.Text), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.saveSettings()
		return m, tea.Quit
	case "tab":
		m.active = (m.active + 1) % viewCount
		return m, nil
	case "shift+tab":
		m.active = (m.active + viewCount - 1) % viewCount
		return m, nil
	case "1", "2", "3", "4", "5", "6":
		m.active = int(msg.String()[0] - '1')
		return m, nil
	case "r":
		m.eng.ResetStatistics()
		return m.withStatus("statistics reset"), nil
	case "c":
		report := buildReport(&m.snap, m.loudness, m.sourceDesc, time.Now())
		if err := clipboard.WriteAll(report); err != nil {
			return m.withStatus("clipboard: " + err.Error()), nil
		}
		return m.withStatus("report copied to clipboard"), nil
	case "e":
		return m.exportHistory()
	}

	switch m.active {
	case viewLoudness:
		switch msg.String() {
		case "t":
			m.loudness.TargetLoudness = cycleTarget(m.loudness.TargetLoudness)
			m.applyLoudness()
		case "o":
			m.loudness.ShowRMSOverlay = !m.loudness.ShowRMSOverlay
			m.applyLoudness()
		case "w":
			m.loudness.HistoryWindowSeconds = cycleWindow(m.loudness.HistoryWindowSeconds, []int{20, 60, 120})
			m.applyLoudness()
		}
	case viewStereo:
		switch msg.String() {
		case "m":
			if m.stereo.ViewMode == engine.ViewMidSide {
				m.stereo.ViewMode = engine.ViewLeftRight
			} else {
				m.stereo.ViewMode = engine.ViewMidSide
			}
			m.applyStereo()
			m.clearPersistence()
		case "d":
			m.stereo.DisplayMode++
			if m.stereo.DisplayMode > engine.DisplayPersistence {
				m.stereo.DisplayMode = engine.DisplayLines
			}
			m.applyStereo()
			m.clearPersistence()
		case "+", "=":
			m.stereo.ScopeScale *= 1.25
			m.applyStereo()
		case "-":
			m.stereo.ScopeScale /= 1.25
			m.applyStereo()
		case "f", " ":
			m.stereo.Freeze = !m.stereo.Freeze
			if m.stereo.Freeze {
				m.frozen = append([][2]float32(nil), m.snap.Lissajous...)
			} else {
				m.frozen = nil
			}
			m.applyStereo()
		case "w":
			m.stereo.HistoryWindowSeconds = cycleWindow(m.stereo.HistoryWindowSeconds, []int{3, 6, 12, 24})
			m.applyStereo()
		case "[":
			m.stereo.TrailSeconds -= 0.2
			m.applyStereo()
		case "]":
			m.stereo.TrailSeconds += 0.2
			m.applyStereo()
		}
	}
	return m, nil
}

// applyLoudness pushes the edited config through the engine and reads the
// sanitized result back.
func (m *Model) applyLoudness() {
	m.eng.SetLoudnessDisplay(m.loudness)
	m.loudness = m.eng.LoudnessDisplay()
}

func (m *Model) applyStereo() {
	m.eng.SetStereoDisplay(m.stereo)
	m.stereo = m.eng.StereoDisplay()
}

func (m Model) withStatus(text string) Model {
	m.status = text
	m.statusUntil = time.Now().Add(3 * time.Second)
	return m
}

func (m Model) saveSettings() {
	st := config.State{
		ActiveView: m.active,
		Loudness:   m.loudness,
		Stereo:     m.stereo,
	}
	if err := config.SaveFile(m.stateDir, st); err != nil {
		logging.Errorf("saving settings: %v", err)
	}
}

func (m Model) exportHistory() (tea.Model, tea.Cmd) {
	var snap engine.Snapshot
	if !m.eng.FillSnapshot(&snap, true) {
		return m.withStatus("engine busy, try again"), nil
	}
	path, seconds, err := writeHistoryWAV(&snap, m.stateDir, time.Now())
	logging.Export(path, seconds, snap.Channels, err)
	if err != nil {
		return m.withStatus("export failed: " + err.Error()), nil
	}
	return m.withStatus(fmt.Sprintf("exported %.1f s to %s", seconds, filepath.Base(path))), nil
}

func (m Model) bodyHeight() int {
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	return h
}

// updatePersistence decays the scope intensity grid and deposits the
// current block's trace.
func (m *Model) updatePersistence() {
	w, h := scopeDims(m.width, m.bodyHeight())
	ph := h * 2
	if w < 1 || ph < 2 {
		return
	}
	if m.persistW != w || m.persistH != ph {
		m.persist = make([]float64, w*ph)
		m.persistW = w
		m.persistH = ph
	}

	decay := math.Exp(-tickInterval.Seconds() / m.stereo.TrailSeconds)
	for i := range m.persist {
		m.persist[i] *= decay
	}

	for _, pt := range m.snap.Lissajous {
		px, py := scopePoint(pt[0], pt[1], m.stereo.ViewMode)
		px *= m.stereo.ScopeScale
		py *= m.stereo.ScopeScale
		if px > 1 {
			px = 1
		} else if px < -1 {
			px = -1
		}
		x := int((px + 1) / 2 * float64(w-1))
		y := amplitudeY(py, ph)
		m.persist[y*w+x] = 1
	}
}

func (m *Model) clearPersistence() {
	for i := range m.persist {
		m.persist[i] = 0
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderBody())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	tabActive   = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	tabInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

func (m Model) renderHeader() string {
	line1 := titleStyle.Render("meterdeck") + "  " + dimStyle.Render(m.sourceDesc)

	layout := "mono"
	if m.snap.Channels == 2 {
		layout = "stereo"
	}
	tr := m.snap.Transport
	state := "stopped"
	if tr.Playing {
		state = "playing"
	}
	beat := tr.PPQ - tr.BarStartPPQ
	line2 := dimStyle.Render(fmt.Sprintf("%.0f Hz · %s · %.1f BPM %d/%d · beat %.1f · %s",
		m.snap.SampleRate, layout, tr.BPM, tr.Numerator, tr.Denominator, beat+1, state))

	return line1 + "\n" + line2
}

func (m Model) renderTabs() string {
	var b strings.Builder
	for i, name := range viewNames {
		label := fmt.Sprintf(" %d %s ", i+1, name)
		if i == m.active {
			b.WriteString(tabActive.Render(label))
		} else {
			b.WriteString(tabInactive.Render(label))
		}
	}
	return b.String()
}

func (m Model) renderBody() string {
	bodyH := m.bodyHeight()
	if !m.haveSnap {
		return dimStyle.Render("  waiting for audio...") + strings.Repeat("\n", bodyH-1)
	}
	switch m.active {
	case viewWaveform:
		return renderWaveform(&m.snap, m.width, bodyH)
	case viewSpectrum:
		return renderSpectrum(&m.snap, m.width, bodyH)
	case viewSpectrogram:
		return renderSpectrogram(&m.snap, m.width, bodyH)
	case viewScope:
		return renderScope(&m.snap, m.width, bodyH)
	case viewLoudness:
		return renderLoudness(&m.snap, m.loudness, m.loudHist, tickInterval.Seconds(), m.width, bodyH)
	default:
		return renderStereo(&m.snap, m.stereo, m.persist, m.frozen, m.corrHist, tickInterval.Seconds(), m.width, bodyH)
	}
}

func (m Model) renderFooter() string {
	var help string
	switch m.active {
	case viewLoudness:
		help = "t target · o rms · w window · "
	case viewStereo:
		help = "m axes · d style · f freeze · +/- scale · [/] trail · w window · "
	}
	line1 := ""
	if m.status != "" && time.Now().Before(m.statusUntil) {
		line1 = statusStyle.Render("  " + m.status)
	}
	line2 := dimStyle.Render("  " + help + "tab views · r reset stats · c copy report · e export wav · q quit")
	return line1 + "\n" + line2
}

func appendBounded(s []float64, v float64, max int) []float64 {
	if len(s) >= max {
		copy(s, s[1:])
		s = s[:len(s)-1]
	}
	return append(s, v)
}

// cycleTarget steps through the common loudness targets, picking the entry
// after the one closest to the current value.
func cycleTarget(current float64) float64 {
	best := 0
	bestDist := math.Abs(loudnessTargets[0] - current)
	for i, t := range loudnessTargets[1:] {
		if d := math.Abs(t - current); d < bestDist {
			best = i + 1
			bestDist = d
		}
	}
	return loudnessTargets[(best+1)%len(loudnessTargets)]
}

func cycleWindow(current int, allowed []int) int {
	for i, w := range allowed {
		if w == current {
			return allowed[(i+1)%len(allowed)]
		}
	}
	return allowed[0]
}
