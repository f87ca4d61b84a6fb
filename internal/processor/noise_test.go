package processor

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReduceNoise(t *testing.T) {
	const sr = 16000
	sig := generateTestSignal(TestSignalOptions{DurationSecs: 3, SampleRate: sr, NoiseLevel: -40})
	burstStart := int(1.5 * sr)
	for i := burstStart; i < burstStart+sr/2; i++ {
		sig.Samples[i] += DbToLinear(-10) * math.Sin(2*math.Pi*200*float64(i)/sr)
	}
	before := append([]float64(nil), sig.Samples...)

	out, ok := ReduceNoise(sig.Samples, sr, 0.5)
	if !ok {
		t.Fatal("ReduceNoise() skipped, want applied")
	}
	if len(out) != len(sig.Samples) {
		t.Fatalf("len = %d, want %d", len(out), len(sig.Samples))
	}
	if diff := cmp.Diff(before, sig.Samples); diff != "" {
		t.Error("ReduceNoise() modified its input")
	}

	// Noise-only stretch clear of the burst's frames
	noise := func(s []float64) float64 { return LinearToDb(rmsLevel(s[sr/2 : int(1.2*sr)])) }
	if drop := noise(sig.Samples) - noise(out); drop < 3 {
		t.Errorf("noise floor dropped %.1f dB, want at least 3 dB", drop)
	}

	burst := func(s []float64) float64 { return LinearToDb(rmsLevel(s[int(1.6*sr):int(1.9*sr)])) }
	if diff := math.Abs(burst(sig.Samples) - burst(out)); diff > 0.5 {
		t.Errorf("burst level changed by %.2f dB, want under 0.5 dB", diff)
	}
}

func TestReduceNoiseProfileTooLong(t *testing.T) {
	sig := generateTestSignal(TestSignalOptions{DurationSecs: 0.25, SampleRate: 8000, NoiseLevel: -30})
	out, ok := ReduceNoise(sig.Samples, sig.SampleRate, 0.5)
	if ok {
		t.Error("ReduceNoise() applied, want skipped for a profile longer than the signal")
	}
	if diff := cmp.Diff(sig.Samples, out); diff != "" {
		t.Error("skipped ReduceNoise() changed the samples")
	}
}

func TestPreprocessNoiseReduction(t *testing.T) {
	tests := []struct {
		name        string
		duration    float64
		method      string
		wantReduced bool
		wantNote    string
	}{
		{"applied", 2, NoiseSpectralSubtraction, true, ""},
		{"profile_exceeds_audio", 0.3, NoiseSpectralSubtraction, false, "noise profile exceeds"},
		{"unknown_method", 2, "wiener", false, "unknown method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := generateTestSignal(TestSignalOptions{DurationSecs: tt.duration, SampleRate: 8000, Tones: []float64{300}, ToneLevel: -10, NoiseLevel: -40})
			cfg := DefaultConfig()
			cfg.Adaptive = false
			cfg.Bandpass.Enabled = false
			cfg.NoiseReduction.Enabled = true
			cfg.NoiseReduction.Method = tt.method

			var stages []string
			_, report, err := Preprocess(sig, cfg, func(stage string, _ float64) {
				stages = append(stages, stage)
			})
			if err != nil {
				t.Fatalf("Preprocess() error = %v", err)
			}
			if report.NoiseReduced != tt.wantReduced {
				t.Errorf("NoiseReduced = %v, want %v", report.NoiseReduced, tt.wantReduced)
			}
			if diff := cmp.Diff([]string{"analysis", "noise_reduction", "complete"}, stages); diff != "" {
				t.Errorf("progress stages mismatch (-want +got):\n%s", diff)
			}
			if tt.wantNote != "" && !strings.Contains(strings.Join(report.Adjustments, "\n"), tt.wantNote) {
				t.Errorf("Adjustments = %v, want a note containing %q", report.Adjustments, tt.wantNote)
			}
		})
	}
}
