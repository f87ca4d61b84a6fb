package logging

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/jonboulle/clockwork"
	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/export"
	"github.com/linuxmatters/thunderwild/internal/metadata"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// maxFeatureStats is how many feature columns the Markdown report summarises
const maxFeatureStats = 10

// featureStatsExcluded are identifying columns, not features
var featureStatsExcluded = []string{"event_id", "start", "end", "duration"}

// vizFiles are the plot images linked when present in the visualisation directory
var vizFiles = []struct {
	file, title, alt string
}{
	{"waveform.png", "Waveform with Events", "Waveform"},
	{"spectrogram.png", "Spectrogram", "Spectrogram"},
	{"feature_histograms.png", "Feature Distributions", "Feature Histograms"},
}

// MarkdownData is the input to WriteMarkdownReport
type MarkdownData struct {
	Events   []detection.Event
	Features *export.Table      // nil when no features file was given
	Metadata *metadata.Metadata // nil renders N/A fields

	// VizDir holds plot images; links are relative to OutputPath's directory
	VizDir     string
	OutputPath string

	Version string
	Clock   clockwork.Clock // nil uses real time
}

// SaveMarkdownReport writes the Markdown report to path, creating parent directories
func SaveMarkdownReport(path string, data MarkdownData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if data.OutputPath == "" {
		data.OutputPath = path
	}
	if err := WriteMarkdownReport(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteMarkdownReport writes a Markdown summary of a detection run:
// metadata, ethics notice, event statistics, feature statistics,
// visualisations, the analysis configuration and a footer.
func WriteMarkdownReport(w io.Writer, data MarkdownData) error {
	clock := data.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "# Thunder Acoustic Analysis Report\n\n")
	fmt.Fprintf(bw, "**Generated:** %s\n\n", clock.Now().Format("2006-01-02 15:04:05"))

	writeMarkdownMetadata(bw, data.Metadata)
	writeMarkdownEvents(bw, data.Events)
	writeMarkdownFeatures(bw, data.Features)
	writeMarkdownViz(bw, data.VizDir, data.OutputPath)
	if err := writeMarkdownConfig(bw, data.Metadata); err != nil {
		return err
	}

	version := data.Version
	if version == "" && data.Metadata != nil {
		version = data.Metadata.Version
	}
	fmt.Fprint(bw, "---\n\n")
	fmt.Fprintf(bw, "*Report generated by Thunderwild %s*\n", version)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func writeMarkdownMetadata(w io.Writer, m *metadata.Metadata) {
	fmt.Fprint(w, "## Metadata\n\n")
	if m == nil {
		m = &metadata.Metadata{}
	}
	analysed := ""
	if !m.AnalysisTimestamp.IsZero() {
		analysed = m.AnalysisTimestamp.Format("2006-01-02T15:04:05Z07:00")
	}
	fmt.Fprintf(w, "- **Source:** %s\n", orNA(m.SourceURL))
	fmt.Fprintf(w, "- **Video ID:** %s\n", orNA(m.VideoID))
	fmt.Fprintf(w, "- **Analysis Date:** %s\n", orNA(analysed))
	fmt.Fprintf(w, "- **Version:** %s\n", orNA(m.Version))
	fmt.Fprintf(w, "- **Config Hash:** `%s`\n\n", orNA(m.ConfigHash))

	if m.CitationRequired {
		fmt.Fprint(w, "### Ethics Notice\n\n")
		fmt.Fprint(w, "⚠️ **Citation Required:** Please cite the original creator.\n")
		for _, line := range metadata.ComplianceNotice(m) {
			fmt.Fprintf(w, "- %s\n", line)
		}
		fmt.Fprintln(w)
	}
}

func writeMarkdownEvents(w io.Writer, events []detection.Event) {
	fmt.Fprint(w, "## Event Detection Summary\n\n")
	fmt.Fprintf(w, "**Total Events Detected:** %d\n\n", len(events))
	if len(events) == 0 {
		return
	}

	durations := make([]float64, len(events))
	peaks := make([]float64, len(events))
	for i, ev := range events {
		durations[i] = ev.Duration
		peaks[i] = ev.PeakAmplitude
	}

	fmt.Fprint(w, "### Event Statistics\n\n")
	fmt.Fprintf(w, "- **Mean Duration:** %.3f seconds\n", stat.Mean(durations, nil))
	fmt.Fprintf(w, "- **Std Duration:** %.3f seconds\n", stat.StdDev(durations, nil))
	fmt.Fprintf(w, "- **Min Duration:** %.3f seconds\n", floats.Min(durations))
	fmt.Fprintf(w, "- **Max Duration:** %.3f seconds\n\n", floats.Max(durations))
	fmt.Fprintf(w, "- **Mean Peak Amplitude:** %.4f\n", stat.Mean(peaks, nil))
	fmt.Fprintf(w, "- **Max Peak Amplitude:** %.4f\n\n", floats.Max(peaks))

	fmt.Fprint(w, "### Detected Events\n\n")
	fmt.Fprint(w, "| Event | Start (s) | End (s) | Duration (s) | Peak Amplitude |\n")
	fmt.Fprint(w, "|-------|-----------|---------|--------------|----------------|\n")
	for i, ev := range events {
		fmt.Fprintf(w, "| %d | %.2f | %.2f | %.2f | %.4f |\n", i+1, ev.Start, ev.End, ev.Duration, ev.PeakAmplitude)
	}
	fmt.Fprintln(w)
}

// featureStatColumns returns the summarised feature columns of t with their
// values, NaN cells removed
func featureStatColumns(t *export.Table) ([]string, [][]float64) {
	var names []string
	var columns [][]float64
	for _, name := range t.Header {
		if slices.Contains(featureStatsExcluded, name) {
			continue
		}
		var values []float64
		for _, v := range t.Column(name) {
			if !math.IsNaN(v) {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		names = append(names, name)
		columns = append(columns, values)
	}
	return names, columns
}

func writeMarkdownFeatures(w io.Writer, t *export.Table) {
	if t == nil || len(t.Rows) == 0 {
		return
	}
	names, columns := featureStatColumns(t)

	fmt.Fprint(w, "## Feature Extraction Summary\n\n")
	fmt.Fprintf(w, "**Total Features Extracted:** %d\n\n", len(names))

	fmt.Fprint(w, "### Feature Statistics\n\n")
	fmt.Fprint(w, "| Feature | Mean | Std | Min | Max |\n")
	fmt.Fprint(w, "|---------|------|-----|-----|-----|\n")
	for i := 0; i < min(len(names), maxFeatureStats); i++ {
		col := columns[i]
		fmt.Fprintf(w, "| %s | %.3e | %.3e | %.3e | %.3e |\n",
			names[i], stat.Mean(col, nil), stat.StdDev(col, nil), floats.Min(col), floats.Max(col))
	}
	fmt.Fprintln(w)
}

func writeMarkdownViz(w io.Writer, vizDir, outputPath string) {
	if vizDir == "" {
		return
	}
	if info, err := os.Stat(vizDir); err != nil || !info.IsDir() {
		return
	}
	fmt.Fprint(w, "## Visualizations\n\n")
	for _, v := range vizFiles {
		path := filepath.Join(vizDir, v.file)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		link := path
		if rel, err := filepath.Rel(filepath.Dir(outputPath), path); err == nil {
			link = rel
		}
		fmt.Fprintf(w, "### %s\n\n", v.title)
		fmt.Fprintf(w, "![%s](%s)\n\n", v.alt, filepath.ToSlash(link))
	}
}

// writeMarkdownConfig renders the run configuration recorded in the metadata
// as YAML. JSON is valid YAML, so the stored encoding decodes directly.
func writeMarkdownConfig(w io.Writer, m *metadata.Metadata) error {
	fmt.Fprint(w, "## Analysis Configuration\n\n")
	fmt.Fprint(w, "```yaml\n")

	config := map[string]any{}
	if m != nil && len(m.Config) > 0 {
		if err := yaml.Unmarshal(m.Config, &config); err != nil {
			return fmt.Errorf("failed to decode metadata config: %w", err)
		}
	}
	out, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	w.Write(out)
	fmt.Fprint(w, "```\n\n")
	return nil
}
