package processor

import (
	"math"
	"sort"

	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/dsp"
	"github.com/linuxmatters/thunderwild/internal/mains"
	"gonum.org/v1/gonum/stat"
)

// Analysis constants
const (
	analysisFrameSecs   = 0.05   // RMS frame for noise floor estimation
	analysisNFFT        = 8192   // long FFT for hum resolution (~6 Hz at 48 kHz)
	clipThreshold       = 0.999  // |sample| at or above counts as clipped
	noiseFloorQuantile  = 0.1    // quietest 10% of frames
	humHarmonicsChecked = 4      // fundamental plus three harmonics
	humNeighbourNear    = 4      // bins either side excluded from the reference band
	humNeighbourFar     = 12     // outer edge of the reference band
	humMinProminence    = -120.0 // dB, reported when no hum bins can be measured
)

// AudioMeasurements contains whole-file level and spectral measurements
// taken before any filtering.
type AudioMeasurements struct {
	Peak          float64 `json:"peak"`            // linear
	PeakDB        float64 `json:"peak_db"`         // dBFS
	RMS           float64 `json:"rms"`             // linear
	RMSDB         float64 `json:"rms_db"`          // dBFS
	CrestFactorDB float64 `json:"crest_factor_db"` // peak/RMS in dB
	DCOffset      float64 `json:"dc_offset"`       // mean sample value
	NoiseFloor    float64 `json:"noise_floor"`     // dBFS, 10th percentile of frame RMS

	ClippedSamples int     `json:"clipped_samples"`
	ClippedRatio   float64 `json:"clipped_ratio"`

	SpectralCentroid float64 `json:"spectral_centroid"` // Hz, of the mean spectrum

	// Hum prominence of the 50 and 60 Hz series above the neighbouring bins
	HumProminence50 float64 `json:"hum_prominence_50"` // dB
	HumProminence60 float64 `json:"hum_prominence_60"` // dB
	// HumFrequency is whichever of 50/60 Hz is more prominent
	HumFrequency float64 `json:"hum_frequency"`
}

// HumProminence returns the prominence of the dominant mains series
func (m *AudioMeasurements) HumProminence() float64 {
	return math.Max(m.HumProminence50, m.HumProminence60)
}

// AnalyzeAudio measures levels, noise floor, clipping and mains hum.
func AnalyzeAudio(sig detection.Signal) *AudioMeasurements {
	m := &AudioMeasurements{
		HumProminence50: humMinProminence,
		HumProminence60: humMinProminence,
	}
	if len(sig.Samples) == 0 || sig.SampleRate <= 0 {
		return m
	}

	m.Peak = peakLevel(sig.Samples)
	m.RMS = rmsLevel(sig.Samples)
	m.PeakDB = LinearToDb(m.Peak)
	m.RMSDB = LinearToDb(m.RMS)
	if m.RMS > 0 {
		m.CrestFactorDB = m.PeakDB - m.RMSDB
	}
	m.DCOffset = stat.Mean(sig.Samples, nil)

	for _, s := range sig.Samples {
		if math.Abs(s) >= clipThreshold {
			m.ClippedSamples++
		}
	}
	m.ClippedRatio = float64(m.ClippedSamples) / float64(len(sig.Samples))

	m.NoiseFloor = noiseFloor(sig)

	nfft := analysisNFFT
	for nfft > 256 && nfft > len(sig.Samples) {
		nfft /= 2
	}
	stft := dsp.NewSTFT(nfft, nfft)
	spectrum := stft.MeanMagnitude(sig.Samples)
	freqs := stft.BinFrequencies(sig.SampleRate)

	m.SpectralCentroid = centroid(spectrum, freqs)

	binWidth := float64(sig.SampleRate) / float64(nfft)
	nyquist := float64(sig.SampleRate) / 2
	m.HumProminence50 = humProminence(spectrum, binWidth, mains.Harmonics(50, humHarmonicsChecked, nyquist))
	m.HumProminence60 = humProminence(spectrum, binWidth, mains.Harmonics(60, humHarmonicsChecked, nyquist))
	m.HumFrequency = 50
	if m.HumProminence60 > m.HumProminence50 {
		m.HumFrequency = 60
	}

	return m
}

// noiseFloor estimates the background level from the quietest frames
func noiseFloor(sig detection.Signal) float64 {
	frameLen := int(analysisFrameSecs * float64(sig.SampleRate))
	if frameLen < 1 {
		frameLen = 1
	}
	rms := dsp.RMSFrames(sig.Samples, frameLen, frameLen)
	if len(rms) == 0 {
		return LinearToDb(0)
	}
	sort.Float64s(rms)
	return LinearToDb(stat.Quantile(noiseFloorQuantile, stat.Empirical, rms, nil))
}

// centroid returns the magnitude-weighted mean frequency
func centroid(spectrum, freqs []float64) float64 {
	var total float64
	for _, v := range spectrum {
		total += v
	}
	if total == 0 {
		return 0
	}
	return stat.Mean(freqs, spectrum)
}

// humProminence averages, over the given centres, how far the peak bin near
// each centre stands above the mean of a reference band on both sides.
func humProminence(spectrum []float64, binWidth float64, centres []float64) float64 {
	var sum float64
	var n int
	for _, fc := range centres {
		bin := int(math.Round(fc / binWidth))
		if bin-humNeighbourFar < 1 || bin+humNeighbourFar >= len(spectrum) {
			continue
		}

		peak := math.Max(spectrum[bin], math.Max(spectrum[bin-1], spectrum[bin+1]))

		var ref float64
		var refN int
		for d := humNeighbourNear; d <= humNeighbourFar; d++ {
			ref += spectrum[bin-d] + spectrum[bin+d]
			refN += 2
		}
		ref /= float64(refN)

		if ref <= 0 {
			if peak > 0 {
				// A pure tone over digital silence
				sum += 120
				n++
			}
			continue
		}
		sum += LinearToDb(peak / ref)
		n++
	}
	if n == 0 {
		return humMinProminence
	}
	return sum / float64(n)
}
