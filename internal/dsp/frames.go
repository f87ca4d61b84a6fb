// Package dsp provides the framing, windowing and STFT primitives shared by
// event detection and feature extraction.
//
// Every routine here pins its padding and window conventions explicitly so
// that frame counts and timestamps are reproducible bit for bit:
//   - frames are centred: the signal is padded with frameLen/2 zeros on both
//     sides before slicing
//   - frame i starts at padded sample i*hop
//   - windows are periodic (FFT-style) Hann windows
package dsp

import "math"

// PadCentre returns a copy of samples with pad zeros prepended and appended.
func PadCentre(samples []float64, pad int) []float64 {
	if pad < 0 {
		pad = 0
	}
	out := make([]float64, len(samples)+2*pad)
	copy(out[pad:], samples)
	return out
}

// FrameCount returns the number of centred frames of frameLen samples at the
// given hop that fit over n input samples.
// Returns 0 for non-positive frame or hop lengths.
func FrameCount(n, frameLen, hop int) int {
	if frameLen <= 0 || hop <= 0 || n <= 0 {
		return 0
	}
	padded := n + 2*(frameLen/2)
	if padded < frameLen {
		return 0
	}
	return 1 + (padded-frameLen)/hop
}

// FrameTimes returns the timestamp in seconds of each of count frames.
// Frame i is stamped at i*hop/sampleRate.
func FrameTimes(count, hop, sampleRate int) []float64 {
	times := make([]float64, count)
	for i := range times {
		times[i] = float64(i*hop) / float64(sampleRate)
	}
	return times
}

// RMSFrames computes the root-mean-square amplitude of each centred frame.
// No window function is applied; every sample in the frame has equal weight.
func RMSFrames(samples []float64, frameLen, hop int) []float64 {
	count := FrameCount(len(samples), frameLen, hop)
	if count == 0 {
		return nil
	}

	padded := PadCentre(samples, frameLen/2)
	rms := make([]float64, count)
	for i := 0; i < count; i++ {
		start := i * hop
		var sum float64
		for _, s := range padded[start : start+frameLen] {
			sum += s * s
		}
		rms[i] = math.Sqrt(sum / float64(frameLen))
	}
	return rms
}

// HannWindow returns a periodic Hann window of length n.
// w[i] = 0.5 - 0.5*cos(2*pi*i/n)
func HannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// ZeroCrossings counts sign changes between consecutive samples.
// Zero is treated as positive, so a run of silence never counts as a crossing.
func ZeroCrossings(samples []float64) int {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] < 0) != (samples[i] < 0) {
			crossings++
		}
	}
	return crossings
}
