// Package processor handles audio analysis and pre-processing ahead of detection
package processor

import (
	"math"

	"github.com/linuxmatters/thunderwild/internal/mains"
)

// biquad is a second-order IIR section in transposed direct form II.
// Coefficients are normalised so a0 = 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	z1, z2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.z1
	f.z1 = f.b1*x - f.a1*y + f.z2
	f.z2 = f.b2*x - f.a2*y
	return y
}

// newBiquad normalises raw coefficients by a0
func newBiquad(b0, b1, b2, a0, a1, a2 float64) *biquad {
	return &biquad{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

// Second-order sections from the Audio EQ Cookbook (RBJ).
// These are bilinear transforms pre-warped at the cutoff, so a cascade
// with Butterworth Q values gives a Butterworth response.

func lowpassBiquad(fc, sampleRate, q float64) *biquad {
	w0 := 2 * math.Pi * fc / sampleRate
	cosW, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	return newBiquad((1-cosW)/2, 1-cosW, (1-cosW)/2, 1+alpha, -2*cosW, 1-alpha)
}

func highpassBiquad(fc, sampleRate, q float64) *biquad {
	w0 := 2 * math.Pi * fc / sampleRate
	cosW, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	return newBiquad((1+cosW)/2, -(1 + cosW), (1+cosW)/2, 1+alpha, -2*cosW, 1-alpha)
}

func notchBiquad(fc, sampleRate, q float64) *biquad {
	w0 := 2 * math.Pi * fc / sampleRate
	cosW, alpha := math.Cos(w0), math.Sin(w0)/(2*q)
	return newBiquad(1, -2*cosW, 1, 1+alpha, -2*cosW, 1-alpha)
}

// First-order sections for odd Butterworth orders, expressed as a biquad
// with b2 = a2 = 0.

func lowpassFirstOrder(fc, sampleRate float64) *biquad {
	k := math.Tan(math.Pi * fc / sampleRate)
	return newBiquad(k, k, 0, 1+k, k-1, 0)
}

func highpassFirstOrder(fc, sampleRate float64) *biquad {
	k := math.Tan(math.Pi * fc / sampleRate)
	return newBiquad(1, -1, 0, 1+k, k-1, 0)
}

// butterworthQ returns the Q of each second-order section of an order-n
// Butterworth filter. Odd orders also need one first-order section.
func butterworthQ(order int) []float64 {
	qs := make([]float64, 0, order/2)
	for k := 0; k < order/2; k++ {
		var theta float64
		if order%2 == 0 {
			theta = math.Pi * float64(2*k+1) / float64(2*order)
		} else {
			theta = math.Pi * float64(k+1) / float64(order)
		}
		qs = append(qs, 1/(2*math.Cos(theta)))
	}
	return qs
}

// cascade is a chain of sections applied in order
type cascade []*biquad

func (c cascade) apply(samples []float64) []float64 {
	out := make([]float64, len(samples))
	copy(out, samples)
	for _, s := range c {
		for i, x := range out {
			out[i] = s.process(x)
		}
	}
	return out
}

func butterworth(order int, fc, sampleRate float64, highpass bool) cascade {
	var c cascade
	for _, q := range butterworthQ(order) {
		if highpass {
			c = append(c, highpassBiquad(fc, sampleRate, q))
		} else {
			c = append(c, lowpassBiquad(fc, sampleRate, q))
		}
	}
	if order%2 == 1 {
		if highpass {
			c = append(c, highpassFirstOrder(fc, sampleRate))
		} else {
			c = append(c, lowpassFirstOrder(fc, sampleRate))
		}
	}
	return c
}

// Bandpass applies an order-n Butterworth high-pass at low followed by an
// order-n Butterworth low-pass at high.
// Returns the input unchanged and false when the band is not inside
// (0, Nyquist) or low >= high.
func Bandpass(samples []float64, sampleRate int, low, high float64, order int) ([]float64, bool) {
	nyquist := float64(sampleRate) / 2
	if low <= 0 || high >= nyquist || low >= high || order < 1 {
		return samples, false
	}

	sr := float64(sampleRate)
	chain := append(butterworth(order, low, sr, true), butterworth(order, high, sr, false)...)
	return chain.apply(samples), true
}

// HumNotch removes mains hum with a notch at the fundamental and each of
// its first harmonics-1 multiples below Nyquist. A zero fundamental is taken
// from the system timezone. Returns the notch centres actually applied.
func HumNotch(samples []float64, sampleRate int, fundamental float64, harmonics int, q float64) ([]float64, []float64) {
	if fundamental <= 0 {
		fundamental = float64(mains.Frequency())
	}
	if q <= 0 {
		q = defaultHumQ
	}

	centres := mains.Harmonics(fundamental, harmonics, float64(sampleRate)/2)
	if len(centres) == 0 {
		return samples, nil
	}

	chain := make(cascade, 0, len(centres))
	for _, fc := range centres {
		chain = append(chain, notchBiquad(fc, float64(sampleRate), q))
	}
	return chain.apply(samples), centres
}

// DbToLinear converts decibel value to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

// LinearToDb converts linear amplitude to decibel value.
// Inverse of DbToLinear.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return -120.0 // Practical floor for audio
	}
	return 20.0 * math.Log10(linear)
}
