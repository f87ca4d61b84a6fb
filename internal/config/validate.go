package config

import (
	"fmt"
	"math"

	"github.com/linuxmatters/thunderwild/internal/distance"
	"github.com/linuxmatters/thunderwild/internal/processor"
)

// Validation limits
const (
	minSampleRate      = 8000
	maxSampleRate      = 96000
	minOverlapPercent  = 25.0
	maxEnergyThreshDB  = -10.0
	minEnergyThreshDB  = -50.0
	defaultEnergyDB    = -25.0
	maxFilterOrder     = 8
	minSpeedOfSound    = 330.0
	maxSpeedOfSound    = 350.0
	minReferenceTemp   = -40.0
	maxReferenceTemp   = 50.0
	speedTempTolerance = 1.0 // m/s
)

// SectionReport lists the problems found in one configuration section
type SectionReport struct {
	Section string         `json:"section"`
	Params  map[string]any `json:"params"`
	Issues  []string       `json:"issues"`
}

// OK reports whether the section has no issues
func (r SectionReport) OK() bool {
	return len(r.Issues) == 0
}

// TotalIssues counts issues across reports
func TotalIssues(reports []SectionReport) int {
	n := 0
	for _, r := range reports {
		n += len(r.Issues)
	}
	return n
}

// Validate checks the configuration for values that are out of range,
// inconsistent with each other or likely to produce poor detections.
// Sections are reported in the order audio, preprocessing, detect,
// features, distance.
func Validate(cfg *Config) []SectionReport {
	return []SectionReport{
		validateAudio(cfg),
		validatePreprocessing(cfg),
		validateDetect(cfg),
		validateFeatures(cfg),
		validateDistance(cfg),
	}
}

func (c *Config) nyquist() float64 {
	return float64(c.Audio.SampleRate) / 2
}

func validateAudio(cfg *Config) SectionReport {
	a := cfg.Audio
	r := SectionReport{
		Section: "audio",
		Params: map[string]any{
			"sample_rate":  a.SampleRate,
			"highpass_hz":  a.HighpassHz,
			"lowpass_hz":   a.LowpassHz,
			"min_duration": a.MinDuration,
			"max_duration": a.MaxDuration,
		},
	}

	if a.SampleRate < minSampleRate {
		r.Issues = append(r.Issues, fmt.Sprintf("Sample rate too low: %d Hz (recommend >= 16000 Hz)", a.SampleRate))
	}
	if a.SampleRate > maxSampleRate {
		r.Issues = append(r.Issues, fmt.Sprintf("Sample rate very high: %d Hz (may be unnecessary)", a.SampleRate))
	}
	if a.HighpassHz >= a.LowpassHz {
		r.Issues = append(r.Issues, fmt.Sprintf("Invalid frequency range: %g-%g Hz", a.HighpassHz, a.LowpassHz))
	}
	if a.LowpassHz > cfg.nyquist() {
		r.Issues = append(r.Issues, fmt.Sprintf("Lowpass %g Hz exceeds Nyquist limit %g Hz", a.LowpassHz, cfg.nyquist()))
	}
	if a.MinDuration > a.MaxDuration {
		r.Issues = append(r.Issues, fmt.Sprintf("Min duration %gs > max duration %gs", a.MinDuration, a.MaxDuration))
	}
	return r
}

func validatePreprocessing(cfg *Config) SectionReport {
	p := cfg.Preprocessing
	r := SectionReport{
		Section: "preprocessing",
		Params: map[string]any{
			"bandpass_enabled": p.Bandpass.Enabled,
			"bandpass_low":     p.Bandpass.Low,
			"bandpass_high":    p.Bandpass.High,
			"bandpass_order":   p.Bandpass.Order,
			"hum_enabled":      p.Hum.Enabled,
			"hum_auto":         p.Hum.Auto,
			"hum_frequency":    p.Hum.Frequency,
			"normalize":        p.Normalize.Enabled,
			"noise_reduction":  p.NoiseReduction.Enabled,
		},
	}

	if p.Bandpass.Enabled {
		if p.Bandpass.Order < 1 || p.Bandpass.Order > maxFilterOrder {
			r.Issues = append(r.Issues, fmt.Sprintf("Band-pass order %d outside 1-%d", p.Bandpass.Order, maxFilterOrder))
		}
		if p.Bandpass.Low <= 0 || p.Bandpass.Low >= p.Bandpass.High {
			r.Issues = append(r.Issues, fmt.Sprintf("Invalid band-pass range: %g-%g Hz", p.Bandpass.Low, p.Bandpass.High))
		}
		if p.Bandpass.High >= cfg.nyquist() {
			r.Issues = append(r.Issues, fmt.Sprintf("Band-pass high %g Hz at or above Nyquist %g Hz", p.Bandpass.High, cfg.nyquist()))
		}
	}
	if p.Hum.Frequency != 0 && p.Hum.Frequency != 50 && p.Hum.Frequency != 60 {
		r.Issues = append(r.Issues, fmt.Sprintf("Hum frequency %g Hz is not a mains frequency (0, 50 or 60)", p.Hum.Frequency))
	}
	if nr := p.NoiseReduction; nr.Enabled {
		if nr.Method != processor.NoiseSpectralSubtraction {
			r.Issues = append(r.Issues, fmt.Sprintf("Unknown noise reduction method %q (%s)", nr.Method, processor.NoiseSpectralSubtraction))
		}
		if nr.ProfileDuration <= 0 || nr.ProfileDuration > cfg.Audio.MinDuration {
			r.Issues = append(r.Issues, fmt.Sprintf("Noise profile %gs outside (0, min duration %gs]", nr.ProfileDuration, cfg.Audio.MinDuration))
		}
	}
	if p.Normalize.Enabled && p.Normalize.Method != processor.NormalisePeak && p.Normalize.Method != processor.NormaliseRMS {
		r.Issues = append(r.Issues, fmt.Sprintf("Unknown normalize method %q (peak or rms)", p.Normalize.Method))
	}
	return r
}

// validateDetect checks the effective detection timing in milliseconds,
// whichever section it was configured in
func validateDetect(cfg *Config) SectionReport {
	d := cfg.Detection
	frameMS := d.WindowSize * 1000
	hopMS := d.HopLength * 1000
	mergeMS := d.MergeGap * 1000
	minEventMS := d.MinDuration * 1000
	energyDB := defaultEnergyDB
	if cfg.Detect.EnergyThreshDB != nil {
		energyDB = *cfg.Detect.EnergyThreshDB
	}

	r := SectionReport{
		Section: "detect",
		Params: map[string]any{
			"frame_len_ms":       frameMS,
			"hop_len_ms":         hopMS,
			"energy_thresh_db":   energyDB,
			"merge_gap_ms":       mergeMS,
			"min_event_ms":       minEventMS,
			"energy_threshold":   d.EnergyThreshold,
			"spectral_threshold": d.SpectralThreshold,
		},
	}

	if hopMS > frameMS {
		r.Issues = append(r.Issues, fmt.Sprintf("Hop length %gms > frame length %gms", hopMS, frameMS))
	}
	if frameMS > 0 {
		if overlap := (frameMS - hopMS) / frameMS * 100; overlap < minOverlapPercent {
			r.Issues = append(r.Issues, fmt.Sprintf("Low overlap: %.1f%% (recommend >= 50%%)", overlap))
		}
	}
	if energyDB > maxEnergyThreshDB {
		r.Issues = append(r.Issues, fmt.Sprintf("Energy threshold very high: %g dB (may miss events)", energyDB))
	}
	if energyDB < minEnergyThreshDB {
		r.Issues = append(r.Issues, fmt.Sprintf("Energy threshold very low: %g dB (may detect noise)", energyDB))
	}
	if minEventMS > mergeMS {
		r.Issues = append(r.Issues, fmt.Sprintf("Min event %gms > merge gap %gms", minEventMS, mergeMS))
	}
	if d.EnergyThreshold <= 0 || d.EnergyThreshold >= 1 {
		r.Issues = append(r.Issues, fmt.Sprintf("Energy threshold %g outside (0, 1)", d.EnergyThreshold))
	}
	if d.SpectralThreshold <= 0 || d.SpectralThreshold >= 1 {
		r.Issues = append(r.Issues, fmt.Sprintf("Spectral threshold %g outside (0, 1)", d.SpectralThreshold))
	}
	if !powerOfTwo(d.NFFT) {
		r.Issues = append(r.Issues, fmt.Sprintf("Flux n_fft %d is not a power of two", d.NFFT))
	}
	if d.FluxHop > d.NFFT {
		r.Issues = append(r.Issues, fmt.Sprintf("Flux hop %d > n_fft %d", d.FluxHop, d.NFFT))
	}
	return r
}

func validateFeatures(cfg *Config) SectionReport {
	f := cfg.Features
	r := SectionReport{
		Section: "features",
		Params: map[string]any{
			"n_fft":            f.NFFT,
			"hop_length":       f.HopLength,
			"rolloff_percent":  f.RolloffPercent,
			"attack_threshold": f.AttackThreshold,
			"energy_bands":     len(f.EnergyBands),
			"n_mels":           f.Mels,
			"mfcc_coeffs":      f.MFCCCoeffs,
		},
	}

	if f.Mels < 20 {
		r.Issues = append(r.Issues, fmt.Sprintf("Too few mel bands: %d (recommend >= 40)", f.Mels))
	}
	if f.Mels > 128 {
		r.Issues = append(r.Issues, fmt.Sprintf("Very many mel bands: %d (may be slow)", f.Mels))
	}
	if f.MFCCCoeffs > f.Mels {
		r.Issues = append(r.Issues, fmt.Sprintf("%d MFCC coefficients from %d mel bands; only %d are computed",
			f.MFCCCoeffs, f.Mels, f.Mels))
	}

	if !powerOfTwo(f.NFFT) {
		r.Issues = append(r.Issues, fmt.Sprintf("n_fft %d is not a power of two", f.NFFT))
	}
	if f.HopLength > f.NFFT {
		r.Issues = append(r.Issues, fmt.Sprintf("Hop length %d > n_fft %d", f.HopLength, f.NFFT))
	}
	if f.RolloffPercent <= 0 || f.RolloffPercent > 1 {
		r.Issues = append(r.Issues, fmt.Sprintf("Rolloff percent %g outside (0, 1]", f.RolloffPercent))
	}

	binWidth := 0.0
	if f.NFFT > 0 {
		binWidth = float64(cfg.Audio.SampleRate) / float64(f.NFFT)
	}
	for _, band := range f.EnergyBands {
		if len(band) != 2 {
			r.Issues = append(r.Issues, fmt.Sprintf("Energy band %v needs [low, high]", band))
			continue
		}
		low, high := band[0], band[1]
		if low >= high {
			r.Issues = append(r.Issues, fmt.Sprintf("Invalid energy band: %g-%g Hz", low, high))
			continue
		}
		if high > cfg.nyquist() {
			r.Issues = append(r.Issues, fmt.Sprintf("Energy band %g-%g Hz exceeds Nyquist %g Hz", low, high, cfg.nyquist()))
		}
		// At least two bins per band
		if binWidth > (high-low)/2 {
			r.Issues = append(r.Issues, fmt.Sprintf("n_fft %d gives %.1f Hz bins, too coarse for the %g-%g Hz band",
				f.NFFT, binWidth, low, high))
		}
	}
	return r
}

func powerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func validateDistance(cfg *Config) SectionReport {
	d := cfg.Distance
	r := SectionReport{
		Section: "distance",
		Params: map[string]any{
			"speed_of_sound":          d.SpeedOfSound,
			"reference_temp":          d.ReferenceTemp,
			"temperature_uncertainty": d.TemperatureUncertainty,
			"time_delay_uncertainty":  d.TimeDelayUncertainty,
			"enable_flash_alignment":  d.EnableFlashAlignment,
		},
	}

	if d.SpeedOfSound < minSpeedOfSound || d.SpeedOfSound > maxSpeedOfSound {
		r.Issues = append(r.Issues, fmt.Sprintf("Speed of sound %g m/s outside typical range (330-350 m/s)", d.SpeedOfSound))
	}
	if d.ReferenceTemp < minReferenceTemp || d.ReferenceTemp > maxReferenceTemp {
		r.Issues = append(r.Issues, fmt.Sprintf("Reference temperature %g°C outside typical range", d.ReferenceTemp))
	}
	if expected := distance.SpeedOfSound(d.ReferenceTemp); math.Abs(d.SpeedOfSound-expected) > speedTempTolerance {
		r.Issues = append(r.Issues, fmt.Sprintf("Speed of sound %g m/s inconsistent with temp %g°C (expected %.1f m/s)",
			d.SpeedOfSound, d.ReferenceTemp, expected))
	}
	if d.TemperatureUncertainty < 0 || d.TimeDelayUncertainty < 0 {
		r.Issues = append(r.Issues, "Uncertainties must not be negative")
	}
	return r
}
