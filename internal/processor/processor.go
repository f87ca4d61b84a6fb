package processor

import (
	"fmt"

	"github.com/linuxmatters/thunderwild/internal/detection"
)

// BandpassConfig controls the Butterworth band-pass stage
type BandpassConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Low     float64 `yaml:"low" json:"low"`   // Hz
	High    float64 `yaml:"high" json:"high"` // Hz
	Order   int     `yaml:"order" json:"order"`
}

// HumConfig controls the mains hum notch stage
type HumConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Auto enables the notch when AnalyzeAudio measures hum
	Auto      bool    `yaml:"auto" json:"auto"`
	Frequency float64 `yaml:"frequency" json:"frequency"` // Hz, 0 = from timezone
	Harmonics int     `yaml:"harmonics" json:"harmonics"` // notches including the fundamental
	Q         float64 `yaml:"q" json:"q"`
}

// NormalizeConfig controls the gain stage
type NormalizeConfig struct {
	Enabled  bool    `yaml:"enabled" json:"enabled"`
	TargetDB float64 `yaml:"target_db" json:"target_db"`
	Method   string  `yaml:"method" json:"method"` // peak or rms
}

// Config holds the pre-processing chain settings.
// Stages run in the order band-pass, noise reduction, hum notch, normalise.
type Config struct {
	// Adaptive tunes the stages from AnalyzeAudio measurements before running
	Adaptive  bool            `yaml:"adaptive" json:"adaptive"`
	Bandpass       BandpassConfig       `yaml:"bandpass" json:"bandpass"`
	NoiseReduction NoiseReductionConfig `yaml:"noise_reduction" json:"noise_reduction"`
	Hum            HumConfig            `yaml:"hum" json:"hum"`
	Normalize      NormalizeConfig      `yaml:"normalize" json:"normalize"`
}

// DefaultConfig returns the default pre-processing chain: a 20-6000 Hz
// order-4 band-pass with automatic hum detection and no gain change.
func DefaultConfig() Config {
	return Config{
		Adaptive: true,
		Bandpass: BandpassConfig{
			Enabled: true,
			Low:     defaultBandpassLow,
			High:    defaultBandpassHigh,
			Order:   defaultBandpassOrder,
		},
		NoiseReduction: NoiseReductionConfig{
			Method:          NoiseSpectralSubtraction,
			ProfileDuration: defaultNoiseProfileSecs,
		},
		Hum: HumConfig{
			Auto:      true,
			Harmonics: defaultHumHarmonics,
			Q:         defaultHumQ,
		},
		Normalize: NormalizeConfig{
			Enabled:  false,
			TargetDB: defaultNormaliseDB,
			Method:   NormaliseRMS,
		},
	}
}

// Report records what pre-processing did
type Report struct {
	Measurements *AudioMeasurements `json:"measurements"`
	// Adjustments lists adaptive tuning changes
	Adjustments []string `json:"adjustments,omitempty"`

	BandpassApplied bool    `json:"bandpass_applied"`
	BandpassLow     float64 `json:"bandpass_low,omitempty"`
	BandpassHigh    float64 `json:"bandpass_high,omitempty"`
	BandpassOrder   int     `json:"bandpass_order,omitempty"`

	NoiseReduced bool `json:"noise_reduced"`

	HumCentres []float64 `json:"hum_centres,omitempty"`

	NormaliseApplied bool    `json:"normalise_applied"`
	NormaliseGainDB  float64 `json:"normalise_gain_db,omitempty"`

	// Config is the chain as run, after adaptive tuning
	Config Config `json:"config"`
}

// Preprocess measures the signal, optionally adapts the chain, and runs the
// enabled stages on a copy. The input signal is never modified.
// progressCallback may be nil; it is called with the stage name and the
// fraction of stages complete.
func Preprocess(sig detection.Signal, config Config, progressCallback func(stage string, progress float64)) (detection.Signal, *Report, error) {
	progress := func(stage string, p float64) {
		if progressCallback != nil {
			progressCallback(stage, p)
		}
	}

	report := &Report{}
	progress("analysis", 0)
	report.Measurements = AnalyzeAudio(sig)

	if config.Adaptive {
		report.Adjustments = AdaptConfig(&config, report.Measurements, sig.SampleRate)
	} else {
		sanitizeConfig(&config)
	}
	report.Config = config

	samples := make([]float64, len(sig.Samples))
	copy(samples, sig.Samples)

	if config.Bandpass.Enabled {
		progress("bandpass", 0.2)
		filtered, ok := Bandpass(samples, sig.SampleRate, config.Bandpass.Low, config.Bandpass.High, config.Bandpass.Order)
		if ok {
			samples = filtered
			report.BandpassApplied = true
			report.BandpassLow = config.Bandpass.Low
			report.BandpassHigh = config.Bandpass.High
			report.BandpassOrder = config.Bandpass.Order
		} else {
			report.Adjustments = append(report.Adjustments, fmt.Sprintf("bandpass skipped: invalid range %.0f-%.0f Hz at %d Hz",
				config.Bandpass.Low, config.Bandpass.High, sig.SampleRate))
		}
	}

	if config.NoiseReduction.Enabled {
		progress("noise_reduction", 0.4)
		if config.NoiseReduction.Method != NoiseSpectralSubtraction {
			report.Adjustments = append(report.Adjustments, fmt.Sprintf("noise reduction skipped: unknown method %q",
				config.NoiseReduction.Method))
		} else if reduced, ok := ReduceNoise(samples, sig.SampleRate, config.NoiseReduction.ProfileDuration); ok {
			samples = reduced
			report.NoiseReduced = true
		} else {
			report.Adjustments = append(report.Adjustments, fmt.Sprintf("noise reduction skipped: %.2fs noise profile exceeds %.2fs of audio",
				config.NoiseReduction.ProfileDuration, sig.Duration()))
		}
	}

	if config.Hum.Enabled {
		progress("hum", 0.6)
		samples, report.HumCentres = HumNotch(samples, sig.SampleRate, config.Hum.Frequency, config.Hum.Harmonics, config.Hum.Q)
	}

	if config.Normalize.Enabled {
		progress("normalise", 0.8)
		normalised, gain, err := Normalise(samples, config.Normalize.TargetDB, config.Normalize.Method)
		if err != nil {
			return detection.Signal{}, nil, fmt.Errorf("failed to normalise audio: %w", err)
		}
		samples = normalised
		report.NormaliseApplied = true
		report.NormaliseGainDB = LinearToDb(gain)
	}

	progress("complete", 1)
	return detection.Signal{Samples: samples, SampleRate: sig.SampleRate}, report, nil
}
