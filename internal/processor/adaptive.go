package processor

import (
	"fmt"
	"math"
)

// Adaptive tuning constants.
// These thresholds and limits control how pre-processing adapts to the
// measurements taken by AnalyzeAudio.
const (
	// Band-pass limits relative to Nyquist
	bandpassMaxNyquistRatio = 0.9 // cap the upper edge below Nyquist
	bandpassMinWidthRatio   = 2.0 // high must be at least this multiple of low

	// Hum notch enabled when the mains series stands this far above its neighbours
	humProminenceThreshold = 10.0 // dB

	// Normalisation headroom
	normaliseMaxPeakDB = -0.1 // dBFS - never push peaks past this

	defaultBandpassLow   = 20.0
	defaultBandpassHigh  = 6000.0
	defaultBandpassOrder = 4
	defaultHumHarmonics  = 4
	defaultHumQ          = 30.0
	defaultNormaliseDB   = -20.0
	maxFilterOrder       = 8
	maxHumHarmonics      = 8
	minHumQ              = 1.0
	maxHumQ              = 100.0
)

// AdaptConfig tunes pre-processing parameters from the measurements.
// It updates config in place and returns a note for each change made.
func AdaptConfig(config *Config, measurements *AudioMeasurements, sampleRate int) []string {
	var notes []string
	notes = append(notes, tuneBandpass(config, sampleRate)...)
	notes = append(notes, tuneHumFilter(config, measurements)...)
	notes = append(notes, tuneNormalise(config, measurements)...)

	sanitizeConfig(config)
	return notes
}

// tuneBandpass keeps the band inside the usable range for the sample rate.
//
// Strategy:
// - Upper edge at or above Nyquist is pulled down to 90% of Nyquist so low
//   sample rate recordings are still filtered rather than skipped
// - If that leaves the band narrower than an octave, the filter is disabled
func tuneBandpass(config *Config, sampleRate int) []string {
	if !config.Bandpass.Enabled || sampleRate <= 0 {
		return nil
	}

	nyquist := float64(sampleRate) / 2
	limit := nyquist * bandpassMaxNyquistRatio
	var notes []string

	if config.Bandpass.High >= limit {
		notes = append(notes, fmt.Sprintf("bandpass high %.0f Hz lowered to %.0f Hz for %d Hz audio",
			config.Bandpass.High, limit, sampleRate))
		config.Bandpass.High = limit
	}

	if config.Bandpass.High < config.Bandpass.Low*bandpassMinWidthRatio {
		notes = append(notes, fmt.Sprintf("bandpass disabled: %.0f-%.0f Hz is narrower than an octave",
			config.Bandpass.Low, config.Bandpass.High))
		config.Bandpass.Enabled = false
	}
	return notes
}

// tuneHumFilter enables the mains notch when hum is measured.
//
// Strategy:
// - Only applies when Hum.Auto is set; an explicit Hum.Enabled is respected
// - Prominent 50 or 60 Hz series → enable notch at the measured fundamental
// - Configured frequency of 0 (timezone lookup) is replaced by the measurement
func tuneHumFilter(config *Config, measurements *AudioMeasurements) []string {
	if !config.Hum.Auto || config.Hum.Enabled || measurements == nil {
		return nil
	}

	prominence := measurements.HumProminence()
	if prominence < humProminenceThreshold {
		return nil
	}

	config.Hum.Enabled = true
	if config.Hum.Frequency <= 0 {
		config.Hum.Frequency = measurements.HumFrequency
	}
	return []string{fmt.Sprintf("hum notch enabled at %.0f Hz (%.1f dB above neighbours)",
		config.Hum.Frequency, prominence)}
}

// tuneNormalise lowers the normalisation target when reaching it would push
// peaks past normaliseMaxPeakDB. Only RMS normalisation can do that; peak
// targets above the limit are clamped directly.
func tuneNormalise(config *Config, measurements *AudioMeasurements) []string {
	if !config.Normalize.Enabled || measurements == nil || measurements.Peak == 0 {
		return nil
	}

	var resultingPeakDB float64
	switch config.Normalize.Method {
	case NormaliseRMS:
		if measurements.RMS == 0 {
			return nil
		}
		resultingPeakDB = config.Normalize.TargetDB + measurements.CrestFactorDB
	case NormalisePeak:
		resultingPeakDB = config.Normalize.TargetDB
	default:
		return nil
	}

	excess := resultingPeakDB - normaliseMaxPeakDB
	if excess <= 0 {
		return nil
	}

	old := config.Normalize.TargetDB
	config.Normalize.TargetDB -= excess
	return []string{fmt.Sprintf("normalise target %.1f dB lowered to %.1f dB to keep peaks below %.1f dBFS",
		old, config.Normalize.TargetDB, normaliseMaxPeakDB)}
}

// sanitizeConfig ensures no NaN, Inf or out-of-range values remain after tuning
func sanitizeConfig(config *Config) {
	config.Bandpass.Low = sanitizeFloat(config.Bandpass.Low, defaultBandpassLow)
	config.Bandpass.High = sanitizeFloat(config.Bandpass.High, defaultBandpassHigh)
	if config.Bandpass.Order < 1 || config.Bandpass.Order > maxFilterOrder {
		config.Bandpass.Order = defaultBandpassOrder
	}

	config.Hum.Frequency = sanitizeFloat(config.Hum.Frequency, 0)
	if config.Hum.Q = sanitizeFloat(config.Hum.Q, defaultHumQ); config.Hum.Q <= 0 {
		config.Hum.Q = defaultHumQ
	}
	config.Hum.Q = clamp(config.Hum.Q, minHumQ, maxHumQ)
	if config.Hum.Harmonics < 1 || config.Hum.Harmonics > maxHumHarmonics {
		config.Hum.Harmonics = defaultHumHarmonics
	}

	config.Normalize.TargetDB = sanitizeFloat(config.Normalize.TargetDB, defaultNormaliseDB)

	if p := sanitizeFloat(config.NoiseReduction.ProfileDuration, 0); p <= 0 {
		config.NoiseReduction.ProfileDuration = defaultNoiseProfileSecs
	}
}

// sanitizeFloat returns defaultVal if val is NaN or Inf
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}

// clamp restricts val to the range [min, max]
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
