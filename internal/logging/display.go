package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/thunderwild/internal/audio"
	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/processor"
)

// DisplayResult is one file's detection outcome for the console
type DisplayResult struct {
	InputPath  string
	OutputPath string
	Metadata   *audio.Metadata
	Preprocess *processor.Report // nil when skipped
	Counts     map[detection.Stage]int
	Events     []detection.Event
	Tips       []DetectionTip
	Compliance []string // from metadata.ComplianceNotice
}

// DisplayDetectionResults prints a detection summary for one file.
// Used by --plain mode in place of the terminal UI.
func DisplayDetectionResults(w io.Writer, r DisplayResult) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "DETECTION: %s\n", filepath.Base(r.InputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if m := r.Metadata; m != nil {
		fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(m.Duration))
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", m.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(m.Channels))
	}
	if r.OutputPath != "" {
		fmt.Fprintf(w, "Events CSV:  %s\n", r.OutputPath)
	}
	fmt.Fprintln(w)

	if r.Preprocess != nil && r.Preprocess.Measurements != nil {
		m := r.Preprocess.Measurements
		writeAnalysisSection(w, "INPUT LEVELS")
		fmt.Fprintf(w, "  Peak Level:     %s dBFS\n", formatMetricDB(m.PeakDB, 1))
		fmt.Fprintf(w, "  RMS Level:      %s dBFS\n", formatMetricDB(m.RMSDB, 1))
		fmt.Fprintf(w, "  Noise Floor:    %s dBFS (%s)\n", formatMetricDB(m.NoiseFloor, 1), interpretNoiseFloor(m.NoiseFloor))
		fmt.Fprintf(w, "  Centroid:       %.0f Hz (%s)\n", m.SpectralCentroid, interpretCentroid(m.SpectralCentroid))
		for _, note := range r.Preprocess.Adjustments {
			fmt.Fprintf(w, "  Adjusted:       %s\n", note)
		}
		fmt.Fprintln(w)
	}

	if len(r.Counts) > 0 {
		writeAnalysisSection(w, "CANDIDATES")
		fmt.Fprintf(w, "  Energy:         %d intervals\n", r.Counts[detection.StageEnergyIntervals])
		fmt.Fprintf(w, "  Spectral flux:  %d intervals\n", r.Counts[detection.StageFluxIntervals])
		fmt.Fprintf(w, "  Merged:         %d intervals\n", r.Counts[detection.StageMerged])
		fmt.Fprintln(w)
	}

	writeAnalysisSection(w, fmt.Sprintf("EVENTS (%d)", len(r.Events)))
	if len(r.Events) == 0 {
		fmt.Fprintln(w, "  No events detected")
	}
	for i, ev := range r.Events {
		fmt.Fprintf(w, "  #%d: %s at %s, peak %s dBFS at %s\n", i+1,
			formatMetricWithUnit(ev.Duration, 2, "s"),
			formatTimestamp(time.Duration(ev.Start*float64(time.Second))),
			formatMetricPeak(ev.PeakAmplitude, 1),
			formatTimestamp(time.Duration(ev.PeakTime*float64(time.Second))))
	}

	if len(r.Tips) > 0 {
		fmt.Fprintln(w)
		writeAnalysisSection(w, "TIPS")
		for _, tip := range r.Tips {
			fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
		}
	}

	if len(r.Compliance) > 0 {
		fmt.Fprintln(w)
		writeAnalysisSection(w, "USAGE")
		for _, line := range r.Compliance {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w)
}

// writeAnalysisSection writes a section header for console output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// formatDurationHMS formats seconds as "Xh Ym Zs", "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
