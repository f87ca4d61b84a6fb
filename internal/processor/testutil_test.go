package processor

import (
	"math"
	"math/cmplx"

	"github.com/linuxmatters/thunderwild/internal/detection"
)

// TestSignalOptions configures the synthetic signal to generate
type TestSignalOptions struct {
	DurationSecs float64   // Total duration in seconds (default: 2)
	SampleRate   int       // Sample rate (default: 48000)
	Tones        []float64 // Sine frequencies in Hz
	ToneLevel    float64   // Per-tone level in dBFS (e.g., -20.0)
	NoiseLevel   float64   // White noise level in dBFS (0 = no noise)
}

// generateTestSignal creates a synthetic signal of summed tones and noise.
func generateTestSignal(opts TestSignalOptions) detection.Signal {
	if opts.SampleRate == 0 {
		opts.SampleRate = 48000
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 2.0
	}

	n := int(opts.DurationSecs * float64(opts.SampleRate))
	samples := make([]float64, n)

	toneAmp := 0.0
	if opts.ToneLevel < 0 {
		toneAmp = DbToLinear(opts.ToneLevel)
	}
	noiseAmp := 0.0
	if opts.NoiseLevel < 0 {
		noiseAmp = DbToLinear(opts.NoiseLevel)
	}

	// Simple LCG random number generator for deterministic noise
	rngState := uint32(12345)
	nextRandom := func() float64 {
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	for i := range samples {
		tm := float64(i) / float64(opts.SampleRate)
		var s float64
		for _, f := range opts.Tones {
			s += toneAmp * math.Sin(2*math.Pi*f*tm)
		}
		if noiseAmp > 0 {
			s += noiseAmp * nextRandom()
		}
		samples[i] = s
	}
	return detection.Signal{Samples: samples, SampleRate: opts.SampleRate}
}

// toneAmplitude estimates the amplitude of a sinusoid at freq over
// samples[from:] by single-bin correlation.
func toneAmplitude(samples []float64, sampleRate int, freq float64, from int) float64 {
	seg := samples[from:]
	var acc complex128
	for i, s := range seg {
		phase := -2 * math.Pi * freq * float64(i+from) / float64(sampleRate)
		acc += complex(s, 0) * cmplx.Exp(complex(0, phase))
	}
	return 2 * cmplx.Abs(acc) / float64(len(seg))
}
