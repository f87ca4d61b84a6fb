package dsp

import (
	"math"
	"testing"
)

func TestFrameCount(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		frameLen int
		hop      int
		want     int
	}{
		{"exact_multiple", 4800, 2400, 480, 11},
		{"remainder", 1000, 100, 30, 34},
		{"short_signal", 10, 2048, 512, 1},
		{"single_sample", 1, 4, 2, 1},
		{"zero_hop", 100, 10, 0, 0},
		{"empty", 0, 10, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FrameCount(tt.n, tt.frameLen, tt.hop)
			if got != tt.want {
				t.Errorf("FrameCount(%d, %d, %d) = %d, want %d", tt.n, tt.frameLen, tt.hop, got, tt.want)
			}
		})
	}
}

func TestRMSFrames(t *testing.T) {
	t.Run("constant_signal_interior", func(t *testing.T) {
		samples := make([]float64, 1000)
		for i := range samples {
			samples[i] = 0.5
		}
		rms := RMSFrames(samples, 100, 50)
		if len(rms) != FrameCount(1000, 100, 50) {
			t.Fatalf("len(rms) = %d, want %d", len(rms), FrameCount(1000, 100, 50))
		}
		// Interior frames see only signal, so RMS equals the amplitude
		if math.Abs(rms[5]-0.5) > 1e-12 {
			t.Errorf("interior RMS = %v, want 0.5", rms[5])
		}
		// First frame is half padding: sqrt(0.5 * 0.25)
		want := math.Sqrt(0.125)
		if math.Abs(rms[0]-want) > 1e-12 {
			t.Errorf("edge RMS = %v, want %v", rms[0], want)
		}
	})

	t.Run("silence", func(t *testing.T) {
		rms := RMSFrames(make([]float64, 500), 64, 16)
		for i, v := range rms {
			if v != 0 {
				t.Fatalf("rms[%d] = %v, want 0", i, v)
			}
		}
	})
}

func TestHannWindow(t *testing.T) {
	w := HannWindow(8)
	if w[0] != 0 {
		t.Errorf("w[0] = %v, want 0", w[0])
	}
	// Periodic window peaks at n/2
	if math.Abs(w[4]-1) > 1e-12 {
		t.Errorf("w[4] = %v, want 1", w[4])
	}
	// Symmetric around n/2
	if math.Abs(w[1]-w[7]) > 1e-12 {
		t.Errorf("w[1] = %v, w[7] = %v, want equal", w[1], w[7])
	}
}

func TestZeroCrossings(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    int
	}{
		{"alternating", []float64{1, -1, 1, -1}, 3},
		{"silence", []float64{0, 0, 0}, 0},
		{"single", []float64{0.3}, 0},
		{"through_zero", []float64{-1, 0, 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ZeroCrossings(tt.samples); got != tt.want {
				t.Errorf("ZeroCrossings(%v) = %d, want %d", tt.samples, got, tt.want)
			}
		})
	}
}

func TestSTFTMagnitudes(t *testing.T) {
	const (
		sampleRate = 8000
		nfft       = 256
		hop        = 64
		freq       = 1000.0
	)

	samples := make([]float64, sampleRate)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}

	stft := NewSTFT(nfft, hop)
	mags := stft.Magnitudes(samples)

	if len(mags) != 1+len(samples)/hop {
		t.Fatalf("frames = %d, want %d", len(mags), 1+len(samples)/hop)
	}
	if len(mags[0]) != stft.Bins() {
		t.Fatalf("bins = %d, want %d", len(mags[0]), stft.Bins())
	}

	// A 1 kHz tone at 8 kHz / 256 bins lands exactly on bin 32
	mid := mags[len(mags)/2]
	best := 0
	for f := range mid {
		if mid[f] > mid[best] {
			best = f
		}
	}
	if best != 32 {
		t.Errorf("peak bin = %d, want 32", best)
	}

	freqs := stft.BinFrequencies(sampleRate)
	if math.Abs(freqs[best]-freq) > 1e-9 {
		t.Errorf("bin frequency = %v, want %v", freqs[best], freq)
	}
}

func TestSTFTInverseReconstructs(t *testing.T) {
	const sampleRate = 8000
	samples := make([]float64, 3000)
	for i := range samples {
		tm := float64(i) / sampleRate
		samples[i] = 0.5*math.Sin(2*math.Pi*440*tm) + 0.25*math.Sin(2*math.Pi*1250*tm)
	}

	stft := NewSTFT(256, 64)
	got := stft.Inverse(stft.Spectrum(samples), len(samples))
	if len(got) != len(samples) {
		t.Fatalf("len = %d, want %d", len(got), len(samples))
	}
	for i := range samples {
		if math.Abs(got[i]-samples[i]) > 1e-9 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], samples[i])
		}
	}
}

func TestMelScale(t *testing.T) {
	for _, hz := range []float64{0, 200, 999, 1000, 4000, 11025} {
		if got := MelToHz(HzToMel(hz)); math.Abs(got-hz) > 1e-9 {
			t.Errorf("MelToHz(HzToMel(%v)) = %v", hz, got)
		}
	}
	if got := HzToMel(1000); math.Abs(got-15) > 1e-12 {
		t.Errorf("HzToMel(1000) = %v, want 15", got)
	}

	filters := MelFilterbank(16000, 512, 40, 0, 8000)
	if len(filters) != 40 || len(filters[0]) != 257 {
		t.Fatalf("filterbank shape = %dx%d, want 40x257", len(filters), len(filters[0]))
	}
	for m, w := range filters {
		peak := 0
		for b := range w {
			if w[b] < 0 {
				t.Fatalf("filter %d bin %d weight %v < 0", m, b, w[b])
			}
			if w[b] > w[peak] {
				peak = b
			}
		}
		if m > 0 && w[peak] == 0 {
			t.Errorf("filter %d is empty", m)
		}
	}
}

func TestMFCCSilence(t *testing.T) {
	const mels = 40
	mfcc := NewMFCC(16000, 512, mels, 13)
	mags := make([][]float64, 5)
	for i := range mags {
		mags[i] = make([]float64, 257)
	}

	coeffs := mfcc.Compute(mags)
	if len(coeffs) != 5 || len(coeffs[0]) != 13 {
		t.Fatalf("shape = %dx%d, want 5x13", len(coeffs), len(coeffs[0]))
	}
	// Every band sits at the -100 dB floor, so only c0 is non-zero
	want := -100 * math.Sqrt(mels)
	for _, frame := range coeffs {
		if math.Abs(frame[0]-want) > 1e-9 {
			t.Errorf("c0 = %v, want %v", frame[0], want)
		}
		for k := 1; k < len(frame); k++ {
			if math.Abs(frame[k]) > 1e-9 {
				t.Errorf("c%d = %v, want 0", k, frame[k])
			}
		}
	}
}

func TestMFCCCoeffsCappedAtMels(t *testing.T) {
	if got := NewMFCC(8000, 256, 8, 20).Coeffs; got != 8 {
		t.Errorf("Coeffs = %d, want 8", got)
	}
	if got := NewMFCC(8000, 256, 0, 0).Coeffs; got != DefaultMFCCCoeffs {
		t.Errorf("Coeffs = %d, want %d", got, DefaultMFCCCoeffs)
	}
}
