package processor

import (
	"math"
	"testing"

	"github.com/linuxmatters/thunderwild/internal/detection"
)

func TestAnalyzeAudioLevels(t *testing.T) {
	sig := generateTestSignal(TestSignalOptions{
		DurationSecs: 1,
		SampleRate:   16000,
		Tones:        []float64{440},
		ToneLevel:    -6,
	})
	m := AnalyzeAudio(sig)

	if math.Abs(m.PeakDB-(-6)) > 0.05 {
		t.Errorf("PeakDB = %.3f, want -6", m.PeakDB)
	}
	// A sine has a crest factor of sqrt(2), about 3.01 dB
	if math.Abs(m.CrestFactorDB-3.01) > 0.05 {
		t.Errorf("CrestFactorDB = %.3f, want 3.01", m.CrestFactorDB)
	}
	if math.Abs(m.DCOffset) > 1e-3 {
		t.Errorf("DCOffset = %v, want ~0", m.DCOffset)
	}
	if m.ClippedSamples != 0 {
		t.Errorf("ClippedSamples = %d, want 0", m.ClippedSamples)
	}
	// Leakage from the zero-padded edge frame pulls the centroid upwards
	if m.SpectralCentroid < 440 || m.SpectralCentroid > 700 {
		t.Errorf("SpectralCentroid = %.1f Hz, want within [440, 700] Hz", m.SpectralCentroid)
	}

	high := AnalyzeAudio(generateTestSignal(TestSignalOptions{
		DurationSecs: 1,
		SampleRate:   16000,
		Tones:        []float64{3000},
		ToneLevel:    -6,
	}))
	if high.SpectralCentroid <= m.SpectralCentroid {
		t.Errorf("centroid of 3 kHz tone %.1f Hz not above 440 Hz tone %.1f Hz", high.SpectralCentroid, m.SpectralCentroid)
	}
}

func TestAnalyzeAudioClipping(t *testing.T) {
	samples := make([]float64, 1000)
	for i := 0; i < 10; i++ {
		samples[i*100] = 1.0
	}
	m := AnalyzeAudio(detection.Signal{Samples: samples, SampleRate: 1000})
	if m.ClippedSamples != 10 {
		t.Errorf("ClippedSamples = %d, want 10", m.ClippedSamples)
	}
	if math.Abs(m.ClippedRatio-0.01) > 1e-12 {
		t.Errorf("ClippedRatio = %v, want 0.01", m.ClippedRatio)
	}
}

func TestAnalyzeAudioHum(t *testing.T) {
	tests := []struct {
		name       string
		tones      []float64
		wantHum    bool
		wantFreqHz float64
	}{
		{"hum_50Hz", []float64{50, 100, 150}, true, 50},
		{"hum_60Hz", []float64{60, 120, 180}, true, 60},
		{"noise_only", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := generateTestSignal(TestSignalOptions{
				DurationSecs: 4,
				SampleRate:   16000,
				Tones:        tt.tones,
				ToneLevel:    -20,
				NoiseLevel:   -40,
			})
			m := AnalyzeAudio(sig)

			got := m.HumProminence() >= humProminenceThreshold
			if got != tt.wantHum {
				t.Errorf("hum detected = %v (%.1f dB), want %v", got, m.HumProminence(), tt.wantHum)
			}
			if tt.wantHum && m.HumFrequency != tt.wantFreqHz {
				t.Errorf("HumFrequency = %v, want %v", m.HumFrequency, tt.wantFreqHz)
			}
		})
	}
}

func TestAnalyzeAudioNoiseFloor(t *testing.T) {
	sig := generateTestSignal(TestSignalOptions{DurationSecs: 2, SampleRate: 8000, NoiseLevel: -40})
	m := AnalyzeAudio(sig)

	// Uniform noise of amplitude A has RMS A/sqrt(3), about 4.8 dB below A
	want := -40 - 4.77
	if math.Abs(m.NoiseFloor-want) > 1.5 {
		t.Errorf("NoiseFloor = %.2f dB, want ~%.2f dB", m.NoiseFloor, want)
	}
}

func TestAnalyzeAudioEmpty(t *testing.T) {
	m := AnalyzeAudio(detection.Signal{SampleRate: 48000})
	if m.Peak != 0 || m.HumProminence() != humMinProminence {
		t.Errorf("AnalyzeAudio(empty) = %+v, want zero levels", m)
	}
}
