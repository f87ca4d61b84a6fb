package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above
const (
	melLinearStep = 200.0 / 3 // Hz per mel below the break
	melBreakHz    = 1000.0
	melBreakMel   = melBreakHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27

// HzToMel converts a frequency to the Slaney mel scale
func HzToMel(hz float64) float64 {
	if hz >= melBreakHz {
		return melBreakMel + math.Log(hz/melBreakHz)/melLogStep
	}
	return hz / melLinearStep
}

// MelToHz is the inverse of HzToMel
func MelToHz(mel float64) float64 {
	if mel >= melBreakMel {
		return melBreakHz * math.Exp(melLogStep*(mel-melBreakMel))
	}
	return mel * melLinearStep
}

// MelFilterbank returns mels triangular filters over the nfft/2+1 STFT bins,
// spaced evenly in mel between fmin and fmax. Each filter is scaled by
// 2/(bandwidth in Hz) so that all filters have roughly equal area.
func MelFilterbank(sampleRate, nfft, mels int, fmin, fmax float64) [][]float64 {
	bins := nfft/2 + 1
	binHz := make([]float64, bins)
	for i := range binHz {
		binHz[i] = float64(i) * float64(sampleRate) / float64(nfft)
	}

	lo, hi := HzToMel(fmin), HzToMel(fmax)
	edges := make([]float64, mels+2)
	for i := range edges {
		edges[i] = MelToHz(lo + (hi-lo)*float64(i)/float64(mels+1))
	}

	filters := make([][]float64, mels)
	for m := range filters {
		left, centre, right := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (right - left)
		w := make([]float64, bins)
		for b, f := range binHz {
			rising := (f - left) / (centre - left)
			falling := (right - f) / (right - centre)
			w[b] = math.Max(0, math.Min(rising, falling)) * norm
		}
		filters[m] = w
	}
	return filters
}

// MFCC defaults
const (
	DefaultMels       = 128
	DefaultMFCCCoeffs = 13

	powerFloor = 1e-10 // smallest power taken to dB
	dbRange    = 80.0  // dB kept below the spectrogram maximum
)

// MFCC computes mel-frequency cepstral coefficients from STFT magnitudes.
// An MFCC is not safe for concurrent use.
type MFCC struct {
	Coeffs int

	filters [][]float64
	dct     *fourier.QuarterWaveFFT
	cos     []float64
}

// NewMFCC prepares coeffs coefficients from a mels band filterbank covering
// 0 Hz to Nyquist. coeffs is capped at mels.
func NewMFCC(sampleRate, nfft, mels, coeffs int) *MFCC {
	if mels < 2 {
		mels = DefaultMels
	}
	if coeffs <= 0 {
		coeffs = DefaultMFCCCoeffs
	}
	return &MFCC{
		Coeffs:  min(coeffs, mels),
		filters: MelFilterbank(sampleRate, nfft, mels, 0, float64(sampleRate)/2),
		dct:     fourier.NewQuarterWaveFFT(mels),
		cos:     make([]float64, mels),
	}
}

// Compute returns the coefficients of every frame. The mel power spectrogram
// is converted to dB, floored 80 dB below its overall maximum, and each frame
// is transformed with an orthonormal DCT-II.
func (m *MFCC) Compute(mags [][]float64) [][]float64 {
	if len(mags) == 0 {
		return nil
	}

	melDB := make([][]float64, len(mags))
	peak := math.Inf(-1)
	for t, frame := range mags {
		row := make([]float64, len(m.filters))
		for i, w := range m.filters {
			var power float64
			for b, mag := range frame {
				power += w[b] * mag * mag
			}
			row[i] = 10 * math.Log10(math.Max(power, powerFloor))
			peak = math.Max(peak, row[i])
		}
		melDB[t] = row
	}

	n := float64(len(m.filters))
	first, rest := math.Sqrt(1/n), math.Sqrt(2/n)
	out := make([][]float64, len(mags))
	for t, row := range melDB {
		for i := range row {
			row[i] = math.Max(row[i], peak-dbRange)
		}
		// CosSequence yields four times the unnormalised DCT-II
		m.cos = m.dct.CosSequence(m.cos, row)
		coeffs := make([]float64, m.Coeffs)
		for k := range coeffs {
			scale := rest
			if k == 0 {
				scale = first
			}
			coeffs[k] = m.cos[k] / 4 * scale
		}
		out[t] = coeffs
	}
	return out
}
