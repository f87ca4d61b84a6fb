package processor

import (
	"fmt"
	"math"
)

// Normalisation methods
const (
	NormalisePeak = "peak"
	NormaliseRMS  = "rms"
)

// Normalise scales samples so their peak or RMS level reaches targetDB dBFS.
// Silent input is returned unchanged with a gain of 1.
// Returns the scaled copy and the linear gain applied.
func Normalise(samples []float64, targetDB float64, method string) ([]float64, float64, error) {
	var level float64
	switch method {
	case NormalisePeak:
		level = peakLevel(samples)
	case NormaliseRMS:
		level = rmsLevel(samples)
	default:
		return nil, 0, fmt.Errorf("unknown normalisation method: %q", method)
	}

	if level == 0 {
		return samples, 1, nil
	}

	gain := DbToLinear(targetDB) / level
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out, gain, nil
}

func peakLevel(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func rmsLevel(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
