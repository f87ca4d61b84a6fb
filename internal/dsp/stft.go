package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFT computes magnitude spectrograms with a fixed FFT size and hop.
// An STFT is not safe for concurrent use; create one per goroutine.
type STFT struct {
	NFFT int
	Hop  int

	fft    *fourier.FFT
	window []float64
	frame  []float64
	coeffs []complex128
}

// NewSTFT creates an STFT with a periodic Hann window of nfft samples.
func NewSTFT(nfft, hop int) *STFT {
	return &STFT{
		NFFT:   nfft,
		Hop:    hop,
		fft:    fourier.NewFFT(nfft),
		window: HannWindow(nfft),
		frame:  make([]float64, nfft),
		coeffs: make([]complex128, nfft/2+1),
	}
}

// Bins returns the number of frequency bins per frame (nfft/2 + 1).
func (s *STFT) Bins() int {
	return s.NFFT/2 + 1
}

// Magnitudes returns |X[t][f]| for every centred frame t and bin f.
// The signal is zero padded by nfft/2 on both sides, giving 1 + len/hop frames.
func (s *STFT) Magnitudes(samples []float64) [][]float64 {
	count := FrameCount(len(samples), s.NFFT, s.Hop)
	if count == 0 {
		return nil
	}

	padded := PadCentre(samples, s.NFFT/2)
	mags := make([][]float64, count)
	for t := 0; t < count; t++ {
		start := t * s.Hop
		for i, w := range s.window {
			s.frame[i] = padded[start+i] * w
		}
		s.coeffs = s.fft.Coefficients(s.coeffs, s.frame)

		row := make([]float64, len(s.coeffs))
		for f, c := range s.coeffs {
			row[f] = cmplx.Abs(c)
		}
		mags[t] = row
	}
	return mags
}

// MeanMagnitude returns the per-bin magnitude averaged over every frame,
// without holding the full spectrogram in memory.
func (s *STFT) MeanMagnitude(samples []float64) []float64 {
	count := FrameCount(len(samples), s.NFFT, s.Hop)
	mean := make([]float64, s.Bins())
	if count == 0 {
		return mean
	}

	padded := PadCentre(samples, s.NFFT/2)
	for t := 0; t < count; t++ {
		start := t * s.Hop
		for i, w := range s.window {
			s.frame[i] = padded[start+i] * w
		}
		s.coeffs = s.fft.Coefficients(s.coeffs, s.frame)
		for f, c := range s.coeffs {
			mean[f] += cmplx.Abs(c)
		}
	}
	for f := range mean {
		mean[f] /= float64(count)
	}
	return mean
}

// BinFrequencies returns the centre frequency in Hz of each bin.
func (s *STFT) BinFrequencies(sampleRate int) []float64 {
	freqs := make([]float64, s.Bins())
	for i := range freqs {
		freqs[i] = s.fft.Freq(i) * float64(sampleRate)
	}
	return freqs
}

// Spectrum returns the complex coefficients X[t][f] of every centred frame,
// using the same framing as Magnitudes.
func (s *STFT) Spectrum(samples []float64) [][]complex128 {
	count := FrameCount(len(samples), s.NFFT, s.Hop)
	if count == 0 {
		return nil
	}

	padded := PadCentre(samples, s.NFFT/2)
	frames := make([][]complex128, count)
	for t := 0; t < count; t++ {
		start := t * s.Hop
		for i, w := range s.window {
			s.frame[i] = padded[start+i] * w
		}
		frames[t] = s.fft.Coefficients(nil, s.frame)
	}
	return frames
}

// windowSumFloor bounds the overlap-add normaliser away from zero
const windowSumFloor = 1e-8

// Inverse resynthesises length samples from frames produced by Spectrum.
// Each frame is inverse transformed, windowed and overlap-added, and the sum
// is divided by the summed squared window before the centre padding is
// removed. Samples no frame covers are zero.
func (s *STFT) Inverse(frames [][]complex128, length int) []float64 {
	pad := s.NFFT / 2
	total := max((len(frames)-1)*s.Hop+s.NFFT, length+2*pad)
	out := make([]float64, total)
	norm := make([]float64, total)

	scale := 1 / float64(s.NFFT)
	for t, coeffs := range frames {
		s.frame = s.fft.Sequence(s.frame, coeffs)
		start := t * s.Hop
		for i, w := range s.window {
			out[start+i] += s.frame[i] * scale * w
			norm[start+i] += w * w
		}
	}

	y := make([]float64, length)
	for i := range y {
		j := i + pad
		if norm[j] > windowSumFloor {
			y[i] = out[j] / norm[j]
		}
	}
	return y
}
