package detection

import "math/rand"

// burst describes a constant-amplitude segment of an otherwise silent signal.
type burst struct {
	start     float64 // seconds
	duration  float64 // seconds
	amplitude float64
}

// silentWithBursts builds a signal of the given length with constant bursts.
func silentWithBursts(duration float64, sampleRate int, bursts ...burst) Signal {
	samples := make([]float64, int(duration*float64(sampleRate)))
	for _, b := range bursts {
		lo := int(b.start * float64(sampleRate))
		hi := int((b.start + b.duration) * float64(sampleRate))
		for i := lo; i < hi && i < len(samples); i++ {
			samples[i] = b.amplitude
		}
	}
	return Signal{Samples: samples, SampleRate: sampleRate}
}

// noisyBursts builds a signal with a low noise floor and a few random noise
// bursts, deterministic for a given seed.
func noisyBursts(seed int64, duration float64, sampleRate int) Signal {
	rng := rand.New(rand.NewSource(seed))
	samples := make([]float64, int(duration*float64(sampleRate)))
	for i := range samples {
		samples[i] = (rng.Float64()*2 - 1) * 0.001
	}

	count := 1 + rng.Intn(4)
	for b := 0; b < count; b++ {
		start := rng.Intn(len(samples))
		length := int((0.05 + rng.Float64()*0.6) * float64(sampleRate))
		amp := 0.2 + rng.Float64()*0.8
		for i := start; i < start+length && i < len(samples); i++ {
			samples[i] = (rng.Float64()*2 - 1) * amp
		}
	}
	return Signal{Samples: samples, SampleRate: sampleRate}
}
