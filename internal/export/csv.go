// Package export reads and writes detection results as CSV files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/distance"
	"github.com/linuxmatters/thunderwild/internal/features"
)

// ErrNoEvents is returned when there are no rows to write
var ErrNoEvents = errors.New("no events to write")

// EventColumns is the header of an events CSV file
var EventColumns = []string{"start", "end", "duration", "peak_time", "peak_amplitude"}

// featureColumns precede the energy band columns in a features CSV file
var featureColumns = []string{
	"event_id", "start", "end", "duration", "peak_time",
	"peak_amplitude", "rms", "crest_factor", "zero_crossing_rate", "attack_time", "decay_time",
	"spectral_centroid", "spectral_bandwidth", "spectral_rolloff", "spectral_slope", "dominant_frequency",
	"kurtosis", "skewness",
}

var strikeColumns = []string{"flash_time", "time_delay", "distance_m", "distance_km", "category"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// create opens path for writing, creating parent directories
func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

// writeFile runs write against a CSV writer on path
func writeFile(path string, write func(w *csv.Writer) error) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func eventRecord(ev detection.Event) []string {
	return []string{
		formatFloat(ev.Start),
		formatFloat(ev.End),
		formatFloat(ev.Duration),
		formatFloat(ev.PeakTime),
		formatFloat(ev.PeakAmplitude),
	}
}

// WriteEvents writes one row per event under the EventColumns header.
// Zero events produce a header-only file.
func WriteEvents(w io.Writer, events []detection.Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(EventColumns); err != nil {
		return fmt.Errorf("failed to write events header: %w", err)
	}
	for _, ev := range events {
		if err := cw.Write(eventRecord(ev)); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEventsCSV writes events to path
func WriteEventsCSV(path string, events []detection.Event) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	if err := WriteEvents(f, events); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadEventsCSV reads an events file. Columns are matched by header name;
// start and end are required, a missing duration is derived from them.
func ReadEventsCSV(path string) ([]detection.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()
	return ReadEvents(f)
}

// ReadEvents parses events CSV data
func ReadEvents(r io.Reader) ([]detection.Event, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read events header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, required := range []string{"start", "end"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("events file has no %q column", required)
		}
	}

	var events []detection.Event
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read events line %d: %w", line, err)
		}

		field := func(name string) (float64, bool, error) {
			i, ok := index[name]
			if !ok || i >= len(rec) || rec[i] == "" {
				return 0, false, nil
			}
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return 0, false, fmt.Errorf("line %d: invalid %s %q: %w", line, name, rec[i], err)
			}
			return v, true, nil
		}

		var ev detection.Event
		var ok bool
		if ev.Start, _, err = field("start"); err != nil {
			return nil, err
		}
		if ev.End, _, err = field("end"); err != nil {
			return nil, err
		}
		if ev.Duration, ok, err = field("duration"); err != nil {
			return nil, err
		} else if !ok {
			ev.Duration = ev.End - ev.Start
		}
		if ev.PeakTime, _, err = field("peak_time"); err != nil {
			return nil, err
		}
		if ev.PeakAmplitude, _, err = field("peak_amplitude"); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// WriteFeaturesCSV writes one row per non-empty feature set. Band columns
// follow the fixed columns, named after the bands of the first row, then
// mfcc_mean_<k> and mfcc_std_<k> for each coefficient.
func WriteFeaturesCSV(path string, set []features.EventFeatures) error {
	var rows []features.EventFeatures
	for _, f := range set {
		if !f.Empty {
			rows = append(rows, f)
		}
	}
	if len(rows) == 0 {
		return ErrNoEvents
	}

	header := append([]string(nil), featureColumns...)
	for _, b := range rows[0].Bands {
		header = append(header, b.Name())
	}
	for k := range rows[0].MFCCMean {
		header = append(header, fmt.Sprintf("mfcc_mean_%d", k))
	}
	for k := range rows[0].MFCCStd {
		header = append(header, fmt.Sprintf("mfcc_std_%d", k))
	}

	return writeFile(path, func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write features header: %w", err)
		}
		for _, f := range rows {
			rec := []string{
				strconv.Itoa(f.EventID),
				formatFloat(f.Event.Start),
				formatFloat(f.Event.End),
				formatFloat(f.Event.Duration),
				formatFloat(f.Event.PeakTime),
				formatFloat(f.PeakAmplitude),
				formatFloat(f.RMS),
				formatFloat(f.CrestFactor),
				formatFloat(f.ZeroCrossingRate),
				formatFloat(f.AttackTime),
				formatFloat(f.DecayTime),
				formatFloat(f.SpectralCentroid),
				formatFloat(f.SpectralBandwidth),
				formatFloat(f.SpectralRolloff),
				formatFloat(f.SpectralSlope),
				formatFloat(f.DominantFrequency),
				formatFloat(f.Kurtosis),
				formatFloat(f.Skewness),
			}
			for _, b := range f.Bands {
				rec = append(rec, formatFloat(b.Energy))
			}
			for _, v := range f.MFCCMean {
				rec = append(rec, formatFloat(v))
			}
			for _, v := range f.MFCCStd {
				rec = append(rec, formatFloat(v))
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write features for event %d: %w", f.EventID, err)
			}
		}
		return nil
	})
}

// WriteStrikesCSV writes events with their flash alignment. Alignment
// columns are left empty for events with no preceding flash.
func WriteStrikesCSV(path string, strikes []distance.Strike) error {
	if len(strikes) == 0 {
		return ErrNoEvents
	}
	header := append(append([]string(nil), EventColumns...), strikeColumns...)

	return writeFile(path, func(w *csv.Writer) error {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write strikes header: %w", err)
		}
		for _, s := range strikes {
			rec := eventRecord(s.Event)
			if a := s.Alignment; a != nil {
				rec = append(rec,
					formatFloat(a.FlashTime),
					formatFloat(a.TimeDelay),
					formatFloat(a.Distance),
					formatFloat(a.Distance/1000),
					string(a.Category),
				)
			} else {
				rec = append(rec, "", "", "", "", "")
			}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write strike: %w", err)
			}
		}
		return nil
	})
}

// Table is a CSV file read as numeric columns. Cells that do not parse as
// numbers are NaN.
type Table struct {
	Header []string
	Rows   [][]float64
}

// Column returns the values of the named column, or nil if absent
func (t *Table) Column(name string) []float64 {
	for i, h := range t.Header {
		if h != name {
			continue
		}
		col := make([]float64, len(t.Rows))
		for r, row := range t.Rows {
			col[r] = math.NaN()
			if i < len(row) {
				col[r] = row[i]
			}
		}
		return col
	}
	return nil
}

// ReadTable reads any CSV file with a header row, such as a features file
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t := &Table{}
	if len(records) == 0 {
		return t, nil
	}
	t.Header = records[0]
	for _, rec := range records[1:] {
		row := make([]float64, len(rec))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				v = math.NaN()
			}
			row[i] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
