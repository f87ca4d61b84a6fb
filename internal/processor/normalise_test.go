package processor

import (
	"math"
	"testing"
)

func TestNormalise(t *testing.T) {
	sig := generateTestSignal(TestSignalOptions{DurationSecs: 1, SampleRate: 8000, Tones: []float64{100}, ToneLevel: -30})

	tests := []struct {
		name     string
		method   string
		targetDB float64
		measure  func([]float64) float64
	}{
		{"peak_to_minus_1", NormalisePeak, -1, peakLevel},
		{"rms_to_minus_20", NormaliseRMS, -20, rmsLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, gain, err := Normalise(sig.Samples, tt.targetDB, tt.method)
			if err != nil {
				t.Fatalf("Normalise() error = %v", err)
			}
			if got := LinearToDb(tt.measure(out)); math.Abs(got-tt.targetDB) > 1e-6 {
				t.Errorf("level after Normalise = %.4f dB, want %.4f dB", got, tt.targetDB)
			}
			if gain <= 1 {
				t.Errorf("gain = %v, want > 1 for a -30 dB tone", gain)
			}
		})
	}
}

func TestNormaliseSilence(t *testing.T) {
	silent := make([]float64, 100)
	for _, method := range []string{NormalisePeak, NormaliseRMS} {
		out, gain, err := Normalise(silent, -20, method)
		if err != nil {
			t.Fatalf("Normalise(%s) error = %v", method, err)
		}
		if gain != 1 {
			t.Errorf("Normalise(%s) gain = %v, want 1", method, gain)
		}
		if len(out) != len(silent) {
			t.Errorf("Normalise(%s) returned %d samples, want %d", method, len(out), len(silent))
		}
	}
}

func TestNormaliseUnknownMethod(t *testing.T) {
	if _, _, err := Normalise([]float64{0.5}, -20, "lufs"); err == nil {
		t.Error("Normalise(lufs) error = nil, want error")
	}
}
