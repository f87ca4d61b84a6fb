package detection

import (
	"math"

	"github.com/linuxmatters/thunderwild/internal/dsp"
)

// frameSamples converts a duration in seconds to a whole number of samples,
// truncating and never returning less than 1.
func frameSamples(seconds float64, sampleRate int) int {
	n := int(seconds * float64(sampleRate))
	if n < 1 {
		return 1
	}
	return n
}

// EnergyEnvelope computes the RMS amplitude of centred frames of windowSize
// seconds every hopLength seconds. Frame i is stamped at i*hop/sampleRate.
func EnergyEnvelope(sig Signal, windowSize, hopLength float64) FrameSeries {
	frameLen := frameSamples(windowSize, sig.SampleRate)
	hop := frameSamples(hopLength, sig.SampleRate)

	rms := dsp.RMSFrames(sig.Samples, frameLen, hop)
	times := dsp.FrameTimes(len(rms), hop, sig.SampleRate)

	series := make(FrameSeries, len(rms))
	for i := range rms {
		series[i] = FramePoint{Time: times[i], Value: rms[i]}
	}
	return series
}

// SpectralFlux computes the L2 norm of the magnitude difference between
// consecutive STFT frames. The point for frames (t-1, t) is stamped at
// t*hop/sampleRate, so the series starts at the second frame.
func SpectralFlux(sig Signal, nfft, hop int) FrameSeries {
	mags := dsp.NewSTFT(nfft, hop).Magnitudes(sig.Samples)
	if len(mags) < 2 {
		return nil
	}

	series := make(FrameSeries, 0, len(mags)-1)
	for t := 1; t < len(mags); t++ {
		prev, cur := mags[t-1], mags[t]
		var sum float64
		for f := range cur {
			d := cur[f] - prev[f]
			sum += d * d
		}
		series = append(series, FramePoint{
			Time:  float64(t*hop) / float64(sig.SampleRate),
			Value: math.Sqrt(sum),
		})
	}
	return series
}
