package processor

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestButterworthQ(t *testing.T) {
	tests := []struct {
		order int
		want  []float64
	}{
		{1, []float64{}},
		{2, []float64{0.70711}},
		{3, []float64{1.0}},
		{4, []float64{0.54120, 1.30656}},
		{5, []float64{0.61803, 1.61803}},
	}

	for _, tt := range tests {
		got := butterworthQ(tt.order)
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-4), cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("butterworthQ(%d) mismatch (-want +got):\n%s", tt.order, diff)
		}
	}
}

func TestBandpass(t *testing.T) {
	const sr = 48000

	tests := []struct {
		name    string
		freq    float64
		minGain float64
		maxGain float64
	}{
		{"passband_1kHz", 1000, 0.95, 1.05},
		{"passband_200Hz", 200, 0.95, 1.05},
		{"below_band_10Hz", 10, 0, 0.15},
		{"above_band_12kHz", 12000, 0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := generateTestSignal(TestSignalOptions{
				DurationSecs: 2,
				SampleRate:   sr,
				Tones:        []float64{tt.freq},
				ToneLevel:    -6,
			})

			out, ok := Bandpass(sig.Samples, sr, 20, 6000, 4)
			if !ok {
				t.Fatal("Bandpass() reported invalid range")
			}

			// Skip the first second to let the filter settle
			in := toneAmplitude(sig.Samples, sr, tt.freq, sr)
			got := toneAmplitude(out, sr, tt.freq, sr) / in
			if got < tt.minGain || got > tt.maxGain {
				t.Errorf("gain at %.0f Hz = %.3f, want within [%.2f, %.2f]", tt.freq, got, tt.minGain, tt.maxGain)
			}
		})
	}
}

func TestBandpassInvalidRange(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3}

	tests := []struct {
		name      string
		sr        int
		low, high float64
		order     int
	}{
		{"zero_low", 48000, 0, 6000, 4},
		{"high_at_nyquist", 8000, 20, 4000, 4},
		{"inverted", 48000, 6000, 20, 4},
		{"zero_order", 48000, 20, 6000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Bandpass(samples, tt.sr, tt.low, tt.high, tt.order)
			if ok {
				t.Error("Bandpass() ok = true, want false")
			}
			if diff := cmp.Diff(samples, out); diff != "" {
				t.Errorf("Bandpass() changed samples for an invalid range:\n%s", diff)
			}
		})
	}
}

func TestBandpassDoesNotModifyInput(t *testing.T) {
	sig := generateTestSignal(TestSignalOptions{DurationSecs: 0.1, Tones: []float64{440}, ToneLevel: -6})
	before := append([]float64(nil), sig.Samples...)
	_, _ = Bandpass(sig.Samples, sig.SampleRate, 20, 6000, 4)
	if diff := cmp.Diff(before, sig.Samples); diff != "" {
		t.Error("Bandpass() modified its input")
	}
}

func TestHumNotch(t *testing.T) {
	const sr = 16000
	sig := generateTestSignal(TestSignalOptions{
		DurationSecs: 3,
		SampleRate:   sr,
		Tones:        []float64{50, 100, 1000},
		ToneLevel:    -12,
	})

	out, centres := HumNotch(sig.Samples, sr, 50, 4, 30)

	if diff := cmp.Diff([]float64{50, 100, 150, 200}, centres); diff != "" {
		t.Errorf("HumNotch() centres mismatch (-want +got):\n%s", diff)
	}

	for _, tc := range []struct {
		freq     float64
		maxRatio float64
		minRatio float64
	}{
		{50, 0.05, 0},
		{100, 0.05, 0},
		{1000, 1.05, 0.95},
	} {
		ratio := toneAmplitude(out, sr, tc.freq, sr) / toneAmplitude(sig.Samples, sr, tc.freq, sr)
		if ratio > tc.maxRatio || ratio < tc.minRatio {
			t.Errorf("ratio at %.0f Hz = %.3f, want within [%.2f, %.2f]", tc.freq, ratio, tc.minRatio, tc.maxRatio)
		}
	}
}

func TestHumNotchAboveNyquist(t *testing.T) {
	samples := []float64{0, 1, 0, -1}
	out, centres := HumNotch(samples, 80, 60, 4, 30)
	if len(centres) != 0 {
		t.Errorf("centres = %v, want none above 40 Hz Nyquist", centres)
	}
	if diff := cmp.Diff(samples, out); diff != "" {
		t.Error("HumNotch() changed samples with no notches applied")
	}
}

func TestDbConversions(t *testing.T) {
	tests := []struct {
		db     float64
		linear float64
	}{
		{0, 1},
		{-20, 0.1},
		{-6.0206, 0.5},
	}
	for _, tt := range tests {
		if got := DbToLinear(tt.db); math.Abs(got-tt.linear) > 1e-4 {
			t.Errorf("DbToLinear(%v) = %v, want %v", tt.db, got, tt.linear)
		}
		if got := LinearToDb(tt.linear); math.Abs(got-tt.db) > 1e-3 {
			t.Errorf("LinearToDb(%v) = %v, want %v", tt.linear, got, tt.db)
		}
	}
	if got := LinearToDb(0); got != -120 {
		t.Errorf("LinearToDb(0) = %v, want -120", got)
	}
}
