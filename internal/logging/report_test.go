package logging

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linuxmatters/thunderwild/internal/audio"
	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/export"
	"github.com/linuxmatters/thunderwild/internal/metadata"
	"github.com/linuxmatters/thunderwild/internal/processor"
)

var reportEvents = []detection.Event{
	{Start: 1, End: 2, Duration: 1, PeakTime: 1.5, PeakAmplitude: 0.5},
	{Start: 4, End: 7, Duration: 3, PeakTime: 4.25, PeakAmplitude: -0.25},
}

var reportTime = time.Date(2024, time.June, 1, 18, 30, 0, 0, time.UTC)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0.00s"},
		{24, "24.00s"},
		{92.5, "1m 32.5s"},
		{3725, "1h 2m 5s"},
	}
	for _, tt := range tests {
		got := formatTimestamp(time.Duration(tt.seconds * float64(time.Second)))
		if got != tt.want {
			t.Errorf("formatTimestamp(%vs) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{125 * time.Second, "2m 5s"},
		{3725 * time.Second, "1h 2m 5s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestInterpretCentroid(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{0, "no spectrum"},
		{math.NaN(), "no spectrum"},
		{60, "deep, distant rumble"},
		{150, "rumble"},
		{500, "peal"},
		{2000, "crack, close strike"},
		{5000, "bright, rain or wind likely"},
	}
	for _, tt := range tests {
		if got := interpretCentroid(tt.hz); got != tt.want {
			t.Errorf("interpretCentroid(%v) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}

func TestReportPath(t *testing.T) {
	if got := ReportPath(filepath.Join("out", "storm-events.csv")); got != filepath.Join("out", "storm-events.log") {
		t.Errorf("ReportPath() = %q", got)
	}
}

func testPreprocessReport() *processor.Report {
	return &processor.Report{
		Measurements: &processor.AudioMeasurements{
			PeakDB:           -3,
			RMSDB:            -20,
			CrestFactorDB:    17,
			NoiseFloor:       -55,
			SpectralCentroid: 150,
			HumProminence50:  -120,
			HumProminence60:  -120,
		},
		Adjustments:     []string{"bandpass high edge lowered to 3600 Hz"},
		BandpassApplied: true,
		BandpassLow:     20,
		BandpassHigh:    6000,
		BandpassOrder:   4,
		Config:          processor.DefaultConfig(),
	}
}

func TestGenerateReport(t *testing.T) {
	dir := t.TempDir()
	data := ReportData{
		InputPath:      "/recordings/storm.wav",
		EventsPath:     filepath.Join(dir, "storm-events.csv"),
		StartTime:      reportTime,
		EndTime:        reportTime.Add(2 * time.Second),
		LoadTime:       100 * time.Millisecond,
		PreprocessTime: 500 * time.Millisecond,
		DetectTime:     time.Second,
		SampleRate:     48000,
		Channels:       2,
		DurationSecs:   8,
		Preprocess:     testPreprocessReport(),
		Processed:      &processor.AudioMeasurements{PeakDB: -3.5, RMSDB: -21, NoiseFloor: -70, SpectralCentroid: 140},
		Detection:      detection.DefaultConfig(),
		Counts: map[detection.Stage]int{
			detection.StageEnergyEnvelope:  801,
			detection.StageSpectralFlux:    750,
			detection.StageEnergyIntervals: 2,
			detection.StageFluxIntervals:   3,
			detection.StageMerged:          2,
			detection.StageEvents:          2,
		},
		Events: reportEvents,
	}

	if err := GenerateReport(data); err != nil {
		t.Fatalf("GenerateReport() error = %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "storm-events.log"))
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	report := string(content)

	for _, want := range []string{
		"Thunderwild Analysis Report\n",
		"File: storm.wav\n",
		"Format: 48000 Hz, stereo (downmixed)\n",
		"Total:           2.0s (4x real-time)\n",
		"Band-pass:     APPLIED 20-6000 Hz, order 4\n",
		"Noise:         DISABLED\n",
		"  - bandpass high edge lowered to 3600 Hz\n",
		"Signal Measurements\n",
		"Input  Processed",
		"Merge gap:           0.500 s\n",
		"Energy intervals",
		"Events (2)\n",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}

	// 8 s recording triggers the short recording tip
	if !strings.Contains(report, "Detection Tips\n") || !strings.Contains(report, "only 8.0s long") {
		t.Errorf("report missing short recording tip:\n%s", report)
	}
	// Interpretation follows the processed signal
	if !strings.Contains(report, "rumble") || !strings.Contains(report, "quiet") {
		t.Errorf("report missing interpretations:\n%s", report)
	}
}

func TestWriteReportSkippedPreprocessing(t *testing.T) {
	var buf bytes.Buffer
	WriteReport(&buf, ReportData{
		InputPath:    "storm.wav",
		StartTime:    reportTime,
		EndTime:      reportTime,
		DurationSecs: 60,
		Detection:    detection.DefaultConfig(),
	})
	report := buf.String()

	for _, want := range []string{"Pre-processing:  skipped\n", "Status: SKIPPED\n", "No events detected\n", "No thunder events were detected"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
	for _, absent := range []string{"Signal Measurements", "Candidates\n", "real-time"} {
		if strings.Contains(report, absent) {
			t.Errorf("report contains %q\n%s", absent, report)
		}
	}
}

func TestWriteMarkdownReport(t *testing.T) {
	dir := t.TempDir()
	vizDir := filepath.Join(dir, "viz")
	if err := os.MkdirAll(vizDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(vizDir, "waveform.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	clock := clockwork.NewFakeClockAt(reportTime)
	meta, err := metadata.New("https://example.com/storm", map[string]any{"detection": map[string]any{"merge_gap": 0.5}}, clock)
	if err != nil {
		t.Fatal(err)
	}

	nan := math.NaN()
	features := &export.Table{
		Header: []string{"event_id", "start", "end", "duration", "rms", "label"},
		Rows: [][]float64{
			{0, 1, 2, 1, 0.1, nan},
			{1, 4, 7, 3, 0.3, nan},
		},
	}

	outPath := filepath.Join(dir, "report", "report.md")
	err = SaveMarkdownReport(outPath, MarkdownData{
		Events:   reportEvents,
		Features: features,
		Metadata: meta,
		VizDir:   vizDir,
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("SaveMarkdownReport() error = %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	report := string(content)

	for _, want := range []string{
		"# Thunder Acoustic Analysis Report\n\n**Generated:** 2024-06-01 18:30:00\n",
		"- **Source:** https://example.com/storm\n",
		"- **Video ID:** " + meta.VideoID + "\n",
		"- **Analysis Date:** 2024-06-01T18:30:00Z\n",
		"- **Config Hash:** `" + meta.ConfigHash + "`\n",
		"### Ethics Notice\n",
		"- Research purposes only\n",
		"- Cite the original creator when publishing\n",
		"**Total Events Detected:** 2\n",
		"- **Mean Duration:** 2.000 seconds\n",
		"- **Std Duration:** 1.414 seconds\n",
		"- **Min Duration:** 1.000 seconds\n",
		"- **Max Duration:** 3.000 seconds\n",
		"- **Mean Peak Amplitude:** 0.1250\n",
		"- **Max Peak Amplitude:** 0.5000\n",
		"| 1 | 1.00 | 2.00 | 1.00 | 0.5000 |\n",
		"| 2 | 4.00 | 7.00 | 3.00 | -0.2500 |\n",
		"**Total Features Extracted:** 1\n",
		"| rms | 2.000e-01 | 1.414e-01 | 1.000e-01 | 3.000e-01 |\n",
		"### Waveform with Events\n\n![Waveform](../viz/waveform.png)\n",
		"```yaml\ndetection:\n",
		"merge_gap: 0.5\n",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
	if strings.Contains(report, "Spectrogram") {
		t.Error("report links a spectrogram that does not exist")
	}
	if strings.Contains(report, "| label |") {
		t.Error("non-numeric column summarised")
	}
	if !strings.HasSuffix(report, "---\n\n*Report generated by Thunderwild dev*\n") {
		t.Errorf("report footer = %q", report[max(0, len(report)-60):])
	}
}

func TestWriteMarkdownReportMinimal(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMarkdownReport(&buf, MarkdownData{
		Version: "1.2.3",
		Clock:   clockwork.NewFakeClockAt(reportTime),
	})
	if err != nil {
		t.Fatalf("WriteMarkdownReport() error = %v", err)
	}
	report := buf.String()

	for _, want := range []string{"- **Source:** N/A\n", "**Total Events Detected:** 0\n", "```yaml\n{}\n```\n", "Thunderwild 1.2.3"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q\n%s", want, report)
		}
	}
	for _, absent := range []string{"Ethics Notice", "Event Statistics", "Feature Extraction", "Visualizations"} {
		if strings.Contains(report, absent) {
			t.Errorf("report contains %q", absent)
		}
	}
}

func TestDisplayDetectionResults(t *testing.T) {
	var buf bytes.Buffer
	DisplayDetectionResults(&buf, DisplayResult{
		InputPath:  "/recordings/storm.wav",
		OutputPath: "storm-events.csv",
		Metadata:   &audio.Metadata{Duration: 95, SampleRate: 44100, Channels: 1},
		Preprocess: testPreprocessReport(),
		Counts:     map[detection.Stage]int{detection.StageEnergyIntervals: 2, detection.StageFluxIntervals: 3, detection.StageMerged: 2},
		Events:     reportEvents[:1],
		Tips:       []DetectionTip{{Priority: 5, RuleID: "test", Message: "Record a few seconds either side."}},
		Compliance: []string{"Source: storm.wav", "Research purposes only"},
	})
	out := buf.String()

	for _, want := range []string{
		"DETECTION: storm.wav\n",
		"Duration:    1m 35s\n",
		"Channels:    mono\n",
		"Noise Floor:    -55.0 dBFS (typical outdoor)\n",
		"Adjusted:       bandpass high edge lowered to 3600 Hz\n",
		"Spectral flux:  3 intervals\n",
		"EVENTS (1)\n",
		"#1: 1.00 s at 1.00s, peak -6.0 dBFS at 1.50s\n",
		"  - Record a few seconds either side.\n",
		"USAGE\n  Source: storm.wav\n  Research purposes only\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
