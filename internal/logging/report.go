package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/processor"
)

// ============================================================================
// Measurement Interpretation
// ============================================================================

// interpretCentroid describes where the energy of the recording sits.
//
// Reference values for thunder:
// - Distant rolling thunder: below 100 Hz
// - Rumble: 100-300 Hz
// - Near peals: 300-1000 Hz
// - Close cracks: 1-3 kHz
//
// Centroids above that usually mean rain, wind or traffic dominate.
func interpretCentroid(hz float64) string {
	switch {
	case hz <= 0 || math.IsNaN(hz):
		return "no spectrum"
	case hz < 100:
		return "deep, distant rumble"
	case hz < 300:
		return "rumble"
	case hz < 1000:
		return "peal"
	case hz < 3000:
		return "crack, close strike"
	default:
		return "bright, rain or wind likely"
	}
}

// interpretCrest describes peak-to-RMS ratio in dB.
// Isolated strikes over quiet backgrounds are strongly impulsive.
func interpretCrest(db float64) string {
	switch {
	case db < 10:
		return "continuous, little contrast"
	case db < 20:
		return "moderate transients"
	default:
		return "impulsive"
	}
}

// interpretHum describes how far the mains series stands above its neighbours.
func interpretHum(db float64) string {
	switch {
	case db < 6:
		return "none"
	case db < 10:
		return "faint"
	default:
		return "mains hum present"
	}
}

// interpretNoiseFloor describes the background level in dBFS.
func interpretNoiseFloor(db float64) string {
	switch {
	case db <= DigitalSilenceThreshold:
		return "digital silence"
	case db < -60:
		return "quiet"
	case db < noisyFloorDB:
		return "typical outdoor"
	default:
		return "noisy"
	}
}

// writeSection writes a section header with title and dashed underline.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains everything needed to write a text analysis report
type ReportData struct {
	InputPath  string
	EventsPath string // report is written next to this file

	StartTime      time.Time
	EndTime        time.Time
	LoadTime       time.Duration
	PreprocessTime time.Duration // 0 when pre-processing was skipped
	DetectTime     time.Duration

	SampleRate   int
	Channels     int
	DurationSecs float64

	// Preprocess is nil when pre-processing was skipped.
	// Processed measures the signal handed to detection.
	Preprocess *processor.Report
	Processed  *processor.AudioMeasurements

	Detection detection.Config
	Counts    map[detection.Stage]int
	Events    []detection.Event
}

// ReportPath returns the text report path for an events file:
// storm-events.csv → storm-events.log
func ReportPath(eventsPath string) string {
	return strings.TrimSuffix(eventsPath, filepath.Ext(eventsPath)) + ".log"
}

// Summary builds the tip input for the report's run
func (d ReportData) Summary() *DetectionSummary {
	s := &DetectionSummary{
		Duration: d.DurationSecs,
		Events:   d.Events,
		Counts:   d.Counts,
		Config:   d.Detection,
	}
	if d.Preprocess != nil {
		s.Measurements = d.Preprocess.Measurements
	}
	return s
}

// GenerateReport writes the text analysis report alongside the events file.
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - stage timings
// 3. Pre-processing - stages applied and adaptive adjustments
// 4. Signal Measurements - Input/Processed table
// 5. Detection Parameters
// 6. Candidates - item counts per detection stage
// 7. Events
// 8. Detection Tips
func GenerateReport(data ReportData) error {
	f, err := os.Create(ReportPath(data.EventsPath))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)
	return f.Close()
}

// WriteReport writes the text analysis report to w
func WriteReport(w io.Writer, data ReportData) {
	writeReportHeader(w, data)
	writeProcessingSummary(w, data)
	writePreprocessing(w, data.Preprocess)
	writeMeasurementTable(w, data)
	writeDetectionParameters(w, data.Detection)
	writeCandidateCounts(w, data.Counts)
	writeEventTable(w, data.Events)
	writeTips(w, GenerateDetectionTips(data.Summary()))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo (downmixed)"
	default:
		return fmt.Sprintf("%d channels (downmixed)", channels)
	}
}

func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Thunderwild Analysis Report")
	fmt.Fprintln(w, "===========================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(data.DurationSecs*float64(time.Second))))
	fmt.Fprintf(w, "Format: %d Hz, %s\n", data.SampleRate, channelName(data.Channels))
	fmt.Fprintln(w)
}

func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	fmt.Fprintf(w, "Load:            %s\n", formatDuration(data.LoadTime))
	if data.Preprocess != nil {
		fmt.Fprintf(w, "Pre-processing:  %s\n", formatDuration(data.PreprocessTime))
	} else {
		fmt.Fprintln(w, "Pre-processing:  skipped")
	}
	fmt.Fprintf(w, "Detection:       %s\n", formatDuration(data.DetectTime))

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:           %s", formatDuration(totalTime))
	if data.DurationSecs > 0 && totalTime > 0 {
		audioDuration := time.Duration(data.DurationSecs * float64(time.Second))
		fmt.Fprintf(w, " (%.0fx real-time)", float64(audioDuration)/float64(totalTime))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func writePreprocessing(w io.Writer, r *processor.Report) {
	writeSection(w, "Pre-processing")
	if r == nil {
		fmt.Fprintln(w, "Status: SKIPPED")
		fmt.Fprintln(w)
		return
	}
	cfg := r.Config

	switch {
	case r.BandpassApplied:
		fmt.Fprintf(w, "Band-pass:     APPLIED %.0f-%.0f Hz, order %d\n", r.BandpassLow, r.BandpassHigh, r.BandpassOrder)
	case cfg.Bandpass.Enabled:
		fmt.Fprintln(w, "Band-pass:     SKIPPED")
	default:
		fmt.Fprintln(w, "Band-pass:     DISABLED")
	}

	switch {
	case r.NoiseReduced:
		fmt.Fprintf(w, "Noise:         APPLIED %s, %.2fs profile\n", cfg.NoiseReduction.Method, cfg.NoiseReduction.ProfileDuration)
	case cfg.NoiseReduction.Enabled:
		fmt.Fprintln(w, "Noise:         SKIPPED")
	default:
		fmt.Fprintln(w, "Noise:         DISABLED")
	}

	switch {
	case len(r.HumCentres) > 0:
		centres := make([]string, len(r.HumCentres))
		for i, c := range r.HumCentres {
			centres[i] = fmt.Sprintf("%.0f", c)
		}
		fmt.Fprintf(w, "Hum notch:     APPLIED %s Hz (Q %.0f)\n", strings.Join(centres, ", "), cfg.Hum.Q)
	case cfg.Hum.Enabled:
		fmt.Fprintln(w, "Hum notch:     SKIPPED")
	default:
		fmt.Fprintln(w, "Hum notch:     DISABLED")
	}

	if r.NormaliseApplied {
		fmt.Fprintf(w, "Normalisation: APPLIED %s to %.1f dBFS (gain %s dB)\n",
			cfg.Normalize.Method, cfg.Normalize.TargetDB, formatMetricSigned(r.NormaliseGainDB, 1))
	} else {
		fmt.Fprintln(w, "Normalisation: DISABLED")
	}

	if len(r.Adjustments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Adaptive adjustments:")
		for _, note := range r.Adjustments {
			fmt.Fprintf(w, "  - %s\n", note)
		}
	}
	fmt.Fprintln(w)
}

// writeMeasurementTable compares the input with the signal handed to detection
func writeMeasurementTable(w io.Writer, data ReportData) {
	var input *processor.AudioMeasurements
	if data.Preprocess != nil {
		input = data.Preprocess.Measurements
	}
	if input == nil && data.Processed == nil {
		return
	}
	writeSection(w, "Signal Measurements")

	values := func(get func(*processor.AudioMeasurements) float64) []float64 {
		out := []float64{math.NaN(), math.NaN()}
		if input != nil {
			out[0] = get(input)
		}
		if data.Processed != nil {
			out[1] = get(data.Processed)
		}
		return out
	}
	// Interpret the signal detection actually saw
	interpretOf := func(get func(*processor.AudioMeasurements) float64, interpret func(float64) string) string {
		if data.Processed != nil {
			return interpret(get(data.Processed))
		}
		return interpret(get(input))
	}

	peak := func(m *processor.AudioMeasurements) float64 { return m.PeakDB }
	rms := func(m *processor.AudioMeasurements) float64 { return m.RMSDB }
	crest := func(m *processor.AudioMeasurements) float64 { return m.CrestFactorDB }
	floor := func(m *processor.AudioMeasurements) float64 { return m.NoiseFloor }
	dc := func(m *processor.AudioMeasurements) float64 { return m.DCOffset }
	clipped := func(m *processor.AudioMeasurements) float64 { return m.ClippedRatio * 100 }
	centroid := func(m *processor.AudioMeasurements) float64 { return m.SpectralCentroid }
	hum := func(m *processor.AudioMeasurements) float64 { return m.HumProminence() }

	table := NewMetricTable()
	table.AddDBRow("Peak Level", values(peak), 1, "dBFS", "")
	table.AddDBRow("RMS Level", values(rms), 1, "dBFS", "")
	table.AddMetricRow("Crest Factor", values(crest), 1, "dB", interpretOf(crest, interpretCrest))
	table.AddDBRow("Noise Floor", values(floor), 1, "dBFS", interpretOf(floor, interpretNoiseFloor))
	table.AddMetricRow("DC Offset", values(dc), 5, "", "")
	table.AddMetricRow("Clipped", values(clipped), 3, "%", "")
	table.AddMetricRow("Spectral Centroid", values(centroid), 0, "Hz", interpretOf(centroid, interpretCentroid))
	table.AddDBRow("Hum Prominence", values(hum), 1, "dB", interpretOf(hum, interpretHum))

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w)
}

func writeDetectionParameters(w io.Writer, cfg detection.Config) {
	writeSection(w, "Detection Parameters")
	fmt.Fprintf(w, "Energy threshold:    %g of envelope maximum\n", cfg.EnergyThreshold)
	fmt.Fprintf(w, "Spectral threshold:  %g of flux maximum\n", cfg.SpectralThreshold)
	fmt.Fprintf(w, "Frame:               %s window, %s hop\n",
		formatMetricWithUnit(cfg.WindowSize*1000, 0, "ms"), formatMetricWithUnit(cfg.HopLength*1000, 0, "ms"))
	fmt.Fprintf(w, "Spectral flux:       %d-point FFT, %d sample hop\n", cfg.NFFT, cfg.FluxHop)
	fmt.Fprintf(w, "Merge gap:           %s\n", formatMetricWithUnit(cfg.MergeGap, 3, "s"))
	fmt.Fprintf(w, "Minimum duration:    %s\n", formatMetricWithUnit(cfg.MinDuration, 3, "s"))
	fmt.Fprintln(w)
}

// candidateStages are the Observer stages shown in the candidates table
var candidateStages = []struct {
	stage detection.Stage
	label string
}{
	{detection.StageEnergyEnvelope, "Energy frames"},
	{detection.StageSpectralFlux, "Flux frames"},
	{detection.StageEnergyIntervals, "Energy intervals"},
	{detection.StageFluxIntervals, "Flux intervals"},
	{detection.StageMerged, "Merged intervals"},
	{detection.StageEvents, "Events"},
}

func writeCandidateCounts(w io.Writer, counts map[detection.Stage]int) {
	if len(counts) == 0 {
		return
	}
	writeSection(w, "Candidates")
	table := NewMetricTable("Count")
	for _, c := range candidateStages {
		n, ok := counts[c.stage]
		if !ok {
			table.AddRow(c.label, nil, "", "")
			continue
		}
		table.AddMetricRow(c.label, []float64{float64(n)}, 0, "", "")
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w)
}

func writeEventTable(w io.Writer, events []detection.Event) {
	writeSection(w, fmt.Sprintf("Events (%d)", len(events)))
	if len(events) == 0 {
		fmt.Fprintln(w, "No events detected")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "%4s  %10s  %10s  %10s  %10s  %10s\n", "#", "Start", "End", "Duration", "Peak At", "Peak dBFS")
	for i, ev := range events {
		fmt.Fprintf(w, "%4d  %10s  %10s  %10s  %10s  %10s\n", i+1,
			formatTimestamp(time.Duration(ev.Start*float64(time.Second))),
			formatTimestamp(time.Duration(ev.End*float64(time.Second))),
			formatMetricWithUnit(ev.Duration, 2, "s"),
			formatTimestamp(time.Duration(ev.PeakTime*float64(time.Second))),
			formatMetricPeak(ev.PeakAmplitude, 1))
	}
	fmt.Fprintln(w)
}

func writeTips(w io.Writer, tips []DetectionTip) {
	if len(tips) == 0 {
		return
	}
	writeSection(w, "Detection Tips")
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 72, "   "))
	}
	fmt.Fprintln(w)
}

// formatTimestamp formats a position in the recording, e.g. "1m 32.5s" or "24.00s".
func formatTimestamp(d time.Duration) string {
	totalSeconds := d.Seconds()
	if totalSeconds < 60 {
		return fmt.Sprintf("%.2fs", totalSeconds)
	}

	minutes := int(totalSeconds) / 60
	seconds := math.Mod(totalSeconds, 60)

	if minutes >= 60 {
		hours := minutes / 60
		minutes = minutes % 60
		return fmt.Sprintf("%dh %dm %.0fs", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %.1fs", minutes, seconds)
}
