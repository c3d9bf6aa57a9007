package engine

// Stereo view selects which pair of axes the scope plots.
const (
	ViewMidSide   = 1
	ViewLeftRight = 2
)

// Scope drawing styles.
const (
	DisplayLines       = 1
	DisplayDots        = 2
	DisplayPersistence = 3
)

// LoudnessDisplayConfig drives the loudness meter view. Values arriving from
// persisted state or key handlers pass through sanitize before use.
type LoudnessDisplayConfig struct {
	TargetLoudness       float64
	ShowRMSOverlay       bool
	HistoryWindowSeconds int
}

// DefaultLoudnessDisplay is the out-of-the-box loudness view: the common
// streaming target with a 20 s history strip.
func DefaultLoudnessDisplay() LoudnessDisplayConfig {
	return LoudnessDisplayConfig{
		TargetLoudness:       -14.0,
		HistoryWindowSeconds: 20,
	}
}

var loudnessHistoryWindows = []int{20, 60, 120}

func (c LoudnessDisplayConfig) sanitize() LoudnessDisplayConfig {
	c.TargetLoudness = clampFloat(c.TargetLoudness, -36.0, -6.0)
	c.HistoryWindowSeconds = nearestInt(c.HistoryWindowSeconds, loudnessHistoryWindows)
	return c
}

// StereoDisplayConfig drives the stereo field view.
type StereoDisplayConfig struct {
	ViewMode             int
	DisplayMode          int
	ScopeScale           float64
	HistoryWindowSeconds int
	Freeze               bool
	TrailSeconds         float64
}

// DefaultStereoDisplay is the out-of-the-box stereo view.
func DefaultStereoDisplay() StereoDisplayConfig {
	return StereoDisplayConfig{
		ViewMode:             ViewMidSide,
		DisplayMode:          DisplayLines,
		ScopeScale:           1.0,
		HistoryWindowSeconds: 6,
		TrailSeconds:         0.6,
	}
}

var stereoHistoryWindows = []int{3, 6, 12, 24}

func (c StereoDisplayConfig) sanitize() StereoDisplayConfig {
	if c.ViewMode != ViewLeftRight {
		c.ViewMode = ViewMidSide
	}
	c.DisplayMode = clampInt(c.DisplayMode, DisplayLines, DisplayPersistence)
	c.ScopeScale = clampFloat(c.ScopeScale, 0.5, 2.0)
	c.HistoryWindowSeconds = nearestInt(c.HistoryWindowSeconds, stereoHistoryWindows)
	c.TrailSeconds = clampFloat(c.TrailSeconds, 0.2, 3.0)
	return c
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// nearestInt snaps v to the closest member of allowed, preferring the
// smaller member on ties.
func nearestInt(v int, allowed []int) int {
	best := allowed[0]
	bestDist := distance(v, best)
	for _, a := range allowed[1:] {
		if d := distance(v, a); d < bestDist {
			best = a
			bestDist = d
		}
	}
	return best
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
