package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/meterdeck/meterdeck/pkg/dsp/analysis"
	"github.com/meterdeck/meterdeck/pkg/engine"
)

// buildReport formats the current measurement state as plain text for the
// clipboard, suitable for pasting into session notes or a delivery email.
func buildReport(snap *engine.Snapshot, cfg engine.LoudnessDisplayConfig, sourceDesc string, now time.Time) string {
	loud := snap.Loudness
	met := snap.Meters
	st := snap.Stereo

	var b strings.Builder
	fmt.Fprintf(&b, "meterdeck report · %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "source: %s · %.0f Hz · %d ch\n", sourceDesc, snap.SampleRate, snap.Channels)
	b.WriteString("\n")

	b.WriteString("loudness (EBU R128)\n")
	fmt.Fprintf(&b, "  integrated      %s LUFS", reportLUFS(loud.Integrated))
	if loud.Integrated > analysis.LoudnessFloor {
		fmt.Fprintf(&b, "  (target %.1f, delta %+.1f LU)", cfg.TargetLoudness, loud.Integrated-cfg.TargetLoudness)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  range           %.1f LU\n", loud.Range)
	fmt.Fprintf(&b, "  momentary max   %s LUFS\n", reportLUFS(loud.MaxMomentary))
	fmt.Fprintf(&b, "  short-term max  %s LUFS\n", reportLUFS(loud.MaxShortTerm))
	b.WriteString("\n")

	b.WriteString("levels\n")
	fmt.Fprintf(&b, "  peak L  %s dBFS (max %s)%s\n",
		reportDB(dbfs(met.Peak[0])), reportDB(dbfs(met.MaxPeak[0])), clipMark(met.Clip[0]))
	fmt.Fprintf(&b, "  peak R  %s dBFS (max %s)%s\n",
		reportDB(dbfs(met.Peak[1])), reportDB(dbfs(met.MaxPeak[1])), clipMark(met.Clip[1]))
	fmt.Fprintf(&b, "  rms     fast %s dBFS · slow %s dBFS\n",
		reportDB(dbfs(met.RMSFast)), reportDB(dbfs(met.RMSSlow)))
	b.WriteString("\n")

	b.WriteString("stereo\n")
	fmt.Fprintf(&b, "  correlation %+.2f · width %.0f%% · balance %+.1f dB\n",
		st.Correlation, st.Width*100, st.BalanceDB)
	fmt.Fprintf(&b, "  mid %s dBFS · side %s dBFS\n",
		reportDB(dbfs(st.MidRMS)), reportDB(dbfs(st.SideRMS)))

	return b.String()
}

func reportLUFS(v float64) string {
	if v <= analysis.LoudnessFloor+0.5 {
		return "-inf"
	}
	return fmt.Sprintf("%.1f", v)
}

func reportDB(v float64) string {
	if v <= -120 {
		return "-inf"
	}
	return fmt.Sprintf("%.1f", v)
}

func clipMark(clipped bool) string {
	if clipped {
		return "  CLIP"
	}
	return ""
}
