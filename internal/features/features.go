// Package features extracts acoustic descriptors from detected thunder events.
//
// Every event is measured over its sample range [int(start·sr), int(end·sr))
// of the signal it was detected in: time-domain levels and envelope timing,
// STFT-based spectral shape, amplitude distribution statistics, energy in
// configurable frequency bands and MFCC summaries.
package features

import (
	"fmt"
	"math"

	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/dsp"
	"gonum.org/v1/gonum/stat"
)

// Extraction defaults
const (
	DefaultNFFT            = 2048
	DefaultHopLength       = 512
	DefaultRolloffPercent  = 0.85 // fraction of spectral magnitude below the rolloff
	DefaultAttackThreshold = 0.1  // fraction of peak that marks onset and release

	logFloor = 1e-10 // added before taking log magnitude
)

// Config holds feature extraction settings
type Config struct {
	// EnergyBands lists [low, high] frequency pairs in Hz, inclusive
	EnergyBands     [][]float64 `yaml:"energy_bands" json:"energy_bands"`
	NFFT            int         `yaml:"n_fft" json:"n_fft"`
	HopLength       int         `yaml:"hop_length" json:"hop_length"` // samples
	RolloffPercent  float64     `yaml:"rolloff_percent" json:"rolloff_percent"`
	AttackThreshold float64     `yaml:"attack_threshold" json:"attack_threshold"`
	Mels            int         `yaml:"n_mels" json:"n_mels"`
	MFCCCoeffs      int         `yaml:"mfcc_coeffs" json:"mfcc_coeffs"`
}

// DefaultConfig returns sub-bass, low and mid bands with a 2048-point STFT
func DefaultConfig() Config {
	return Config{
		EnergyBands:     [][]float64{{20, 100}, {100, 500}, {500, 6000}},
		NFFT:            DefaultNFFT,
		HopLength:       DefaultHopLength,
		RolloffPercent:  DefaultRolloffPercent,
		AttackThreshold: DefaultAttackThreshold,
		Mels:            dsp.DefaultMels,
		MFCCCoeffs:      dsp.DefaultMFCCCoeffs,
	}
}

// Band is a frequency range with the spectral energy measured inside it
type Band struct {
	Low    float64 `json:"low"`  // Hz
	High   float64 `json:"high"` // Hz
	Energy float64 `json:"energy"`
}

// Name returns the column name used for the band, e.g. energy_20_100Hz
func (b Band) Name() string {
	return fmt.Sprintf("energy_%g_%gHz", b.Low, b.High)
}

// EventFeatures contains every descriptor measured for one event.
// Empty is set when the event covers no samples; all measurements are then zero.
type EventFeatures struct {
	EventID int             `json:"event_id"`
	Event   detection.Event `json:"event"`
	Empty   bool            `json:"empty,omitempty"`

	// Time domain
	PeakAmplitude    float64 `json:"peak_amplitude"`     // max |x|
	RMS              float64 `json:"rms"`                // linear
	CrestFactor      float64 `json:"crest_factor"`       // peak / RMS, linear
	ZeroCrossingRate float64 `json:"zero_crossing_rate"` // crossings per second
	AttackTime       float64 `json:"attack_time"`        // seconds, onset to peak
	DecayTime        float64 `json:"decay_time"`         // seconds, peak to release

	// Frequency domain, averaged over STFT frames
	SpectralCentroid  float64 `json:"spectral_centroid"`  // Hz
	SpectralBandwidth float64 `json:"spectral_bandwidth"` // Hz
	SpectralRolloff   float64 `json:"spectral_rolloff"`   // Hz
	SpectralSlope     float64 `json:"spectral_slope"`     // log magnitude per Hz
	DominantFrequency float64 `json:"dominant_frequency"` // Hz

	// Statistical
	Kurtosis float64 `json:"kurtosis"` // excess
	Skewness float64 `json:"skewness"`
	Bands    []Band  `json:"bands"`

	// Time-frequency, per coefficient over STFT frames
	MFCCMean []float64 `json:"mfcc_mean"`
	MFCCStd  []float64 `json:"mfcc_std"` // population
}

// Extractor measures events of a single signal. It reuses one STFT across
// events and is not safe for concurrent use.
type Extractor struct {
	config Config
	stft   *dsp.STFT
	mfcc   *dsp.MFCC
	freqs  []float64
	sig    detection.Signal
}

// NewExtractor prepares an extractor for sig. Zero config fields take defaults.
func NewExtractor(sig detection.Signal, config Config) *Extractor {
	config = config.withDefaults()
	stft := dsp.NewSTFT(config.NFFT, config.HopLength)
	return &Extractor{
		config: config,
		stft:   stft,
		mfcc:   dsp.NewMFCC(sig.SampleRate, config.NFFT, config.Mels, config.MFCCCoeffs),
		freqs:  stft.BinFrequencies(sig.SampleRate),
		sig:    sig,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.NFFT <= 0 {
		c.NFFT = def.NFFT
	}
	if c.HopLength <= 0 {
		c.HopLength = def.HopLength
	}
	if c.RolloffPercent <= 0 || c.RolloffPercent > 1 {
		c.RolloffPercent = def.RolloffPercent
	}
	if c.AttackThreshold <= 0 || c.AttackThreshold >= 1 {
		c.AttackThreshold = def.AttackThreshold
	}
	if c.Mels < 2 {
		c.Mels = def.Mels
	}
	if c.MFCCCoeffs <= 0 {
		c.MFCCCoeffs = def.MFCCCoeffs
	}
	if c.EnergyBands == nil {
		c.EnergyBands = def.EnergyBands
	}
	return c
}

// ExtractAll measures every event in order. EventID is the index into events.
func ExtractAll(sig detection.Signal, events []detection.Event, config Config) []EventFeatures {
	ex := NewExtractor(sig, config)
	out := make([]EventFeatures, len(events))
	for i, ev := range events {
		out[i] = ex.Extract(i, ev)
	}
	return out
}

// Segment returns the samples covered by ev, clipped to the signal
func Segment(sig detection.Signal, ev detection.Event) []float64 {
	sr := float64(sig.SampleRate)
	start := int(ev.Start * sr)
	end := int(ev.End * sr)
	if start < 0 {
		start = 0
	}
	if end > len(sig.Samples) {
		end = len(sig.Samples)
	}
	if start >= end {
		return nil
	}
	return sig.Samples[start:end]
}

// Extract measures a single event
func (e *Extractor) Extract(id int, ev detection.Event) EventFeatures {
	f := EventFeatures{EventID: id, Event: ev}

	seg := Segment(e.sig, ev)
	if len(seg) == 0 {
		f.Empty = true
		return f
	}
	sr := float64(e.sig.SampleRate)

	e.timeDomain(&f, seg, sr)
	mags := e.stft.Magnitudes(seg)
	e.spectral(&f, mags)
	f.Bands = e.bandEnergy(mags)
	f.MFCCMean, f.MFCCStd = e.cepstral(mags)

	f.Kurtosis = finite(stat.ExKurtosis(seg, nil))
	f.Skewness = finite(stat.Skew(seg, nil))
	return f
}

func (e *Extractor) timeDomain(f *EventFeatures, seg []float64, sr float64) {
	peakIdx := 0
	var sumSq float64
	for i, s := range seg {
		if math.Abs(s) > math.Abs(seg[peakIdx]) {
			peakIdx = i
		}
		sumSq += s * s
	}
	f.PeakAmplitude = math.Abs(seg[peakIdx])
	f.RMS = math.Sqrt(sumSq / float64(len(seg)))
	if f.RMS > 0 {
		f.CrestFactor = f.PeakAmplitude / f.RMS
	}
	f.ZeroCrossingRate = float64(dsp.ZeroCrossings(seg)) / float64(len(seg)) * sr

	threshold := e.config.AttackThreshold * f.PeakAmplitude
	for i := 0; i < peakIdx; i++ {
		if math.Abs(seg[i]) > threshold {
			f.AttackTime = float64(peakIdx-i) / sr
			break
		}
	}
	for i := peakIdx; i < len(seg); i++ {
		if math.Abs(seg[i]) < threshold {
			f.DecayTime = float64(i-peakIdx) / sr
			break
		}
	}
}

// spectral fills the per-frame spectral shape measures, averaged over frames.
// Silent frames contribute zero centroid, bandwidth and rolloff.
func (e *Extractor) spectral(f *EventFeatures, mags [][]float64) {
	if len(mags) == 0 {
		return
	}
	bins := len(e.freqs)
	meanMag := make([]float64, bins)
	meanLog := make([]float64, bins)

	var centroid, bandwidth, rolloff float64
	for _, frame := range mags {
		var total float64
		for b, m := range frame {
			total += m
			meanMag[b] += m
			meanLog[b] += math.Log(m + logFloor)
		}
		if total == 0 {
			continue
		}
		centroid += stat.Mean(e.freqs, frame)
		bandwidth += math.Sqrt(stat.Moment(2, e.freqs, frame))
		rolloff += e.rolloff(frame, total)
	}

	n := float64(len(mags))
	f.SpectralCentroid = centroid / n
	f.SpectralBandwidth = bandwidth / n
	f.SpectralRolloff = rolloff / n

	dominant := 0
	for b := range meanMag {
		meanMag[b] /= n
		meanLog[b] /= n
		if meanMag[b] > meanMag[dominant] {
			dominant = b
		}
	}
	f.DominantFrequency = e.freqs[dominant]

	_, slope := stat.LinearRegression(e.freqs, meanLog, nil, false)
	f.SpectralSlope = finite(slope)
}

// rolloff returns the lowest bin frequency below which RolloffPercent of the
// frame's magnitude lies
func (e *Extractor) rolloff(frame []float64, total float64) float64 {
	target := e.config.RolloffPercent * total
	var cum float64
	for b, m := range frame {
		cum += m
		if cum >= target {
			return e.freqs[b]
		}
	}
	return e.freqs[len(e.freqs)-1]
}

// bandEnergy sums squared magnitude over every frame for bins inside each band
func (e *Extractor) bandEnergy(mags [][]float64) []Band {
	bands := make([]Band, 0, len(e.config.EnergyBands))
	for _, pair := range e.config.EnergyBands {
		if len(pair) != 2 {
			continue
		}
		band := Band{Low: pair[0], High: pair[1]}
		for _, frame := range mags {
			for b, m := range frame {
				if e.freqs[b] >= band.Low && e.freqs[b] <= band.High {
					band.Energy += m * m
				}
			}
		}
		bands = append(bands, band)
	}
	return bands
}

// cepstral returns the mean and standard deviation of each MFCC over frames
func (e *Extractor) cepstral(mags [][]float64) (mean, std []float64) {
	frames := e.mfcc.Compute(mags)
	if len(frames) == 0 {
		return nil, nil
	}
	mean = make([]float64, e.mfcc.Coeffs)
	std = make([]float64, e.mfcc.Coeffs)
	track := make([]float64, len(frames))
	for k := range mean {
		for t, c := range frames {
			track[t] = c[k]
		}
		mean[k], std[k] = stat.PopMeanStdDev(track, nil)
	}
	return mean, std
}

// finite maps NaN and Inf, which gonum returns for degenerate input, to zero
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
