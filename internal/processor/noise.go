package processor

import (
	"math"
	"math/cmplx"

	"github.com/linuxmatters/thunderwild/internal/dsp"
)

// NoiseSpectralSubtraction is the only noise reduction method
const NoiseSpectralSubtraction = "spectral_subtraction"

// Spectral subtraction framing
const (
	noiseNFFT = 2048
	noiseHop  = 512

	defaultNoiseProfileSecs = 0.5
)

// NoiseReductionConfig controls the spectral subtraction stage. The noise
// profile is the opening ProfileDuration seconds of the recording, which
// should hold no thunder.
type NoiseReductionConfig struct {
	Enabled         bool    `yaml:"enabled" json:"enabled"`
	Method          string  `yaml:"method" json:"method"`
	ProfileDuration float64 `yaml:"noise_profile_duration" json:"noise_profile_duration"` // seconds
}

// ReduceNoise subtracts the mean noise power of the profile from every STFT
// bin, clamping at zero, and resynthesises the signal with the original
// phase. It returns false, leaving samples untouched, when the profile is
// longer than the signal.
func ReduceNoise(samples []float64, sampleRate int, profileDuration float64) ([]float64, bool) {
	profileLen := int(profileDuration * float64(sampleRate))
	if profileLen > len(samples) || profileLen <= 0 {
		return samples, false
	}

	stft := dsp.NewSTFT(noiseNFFT, noiseHop)
	noise := stft.Spectrum(samples[:profileLen])
	noisePower := make([]float64, stft.Bins())
	for _, frame := range noise {
		for f, c := range frame {
			m := cmplx.Abs(c)
			noisePower[f] += m * m
		}
	}
	for f := range noisePower {
		noisePower[f] /= float64(len(noise))
	}

	frames := stft.Spectrum(samples)
	for _, frame := range frames {
		for f, c := range frame {
			m := cmplx.Abs(c)
			if m == 0 {
				continue
			}
			power := max(m*m-noisePower[f], 0)
			// keep the phase, rescale the magnitude
			frame[f] = c * complex(math.Sqrt(power)/m, 0)
		}
	}
	return stft.Inverse(frames, len(samples)), true
}
