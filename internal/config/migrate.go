package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MigrationHeader is written above migrated configuration files
const MigrationHeader = "# Thunderwild configuration, migrated from the seconds-only layout\n"

// Legacy defaults used when the old file leaves a value out
const (
	legacyWindowSize    = 0.02
	legacyHopLength     = 0.01
	legacyMergeGap      = 0.3
	legacyMinDuration   = 0.15
	legacyEnergyDB      = -25
	legacySpectral      = 0.1
	legacyBitDepth      = 24
	legacyChannels      = 1
	legacyNFFT          = 2048
	legacySTFTHop       = 512
	legacyMels          = 64
	legacyMFCC          = 13
	legacyWavelet       = "morlet"
	legacyDPI           = 160
	legacySpectrogramDB = 80
)

type migratedAudio struct {
	SampleRate int     `yaml:"sample_rate"`
	BitDepth   int     `yaml:"bit_depth"`
	Channels   int     `yaml:"channels"`
	HighpassHz float64 `yaml:"highpass_hz"`
	LowpassHz  float64 `yaml:"lowpass_hz"`
	Normalize  bool    `yaml:"normalize"`
}

type migratedDetect struct {
	FrameLenMS           int     `yaml:"frame_len_ms"`
	HopLenMS             int     `yaml:"hop_len_ms"`
	EnergyThreshDB       float64 `yaml:"energy_thresh_db"`
	MergeGapMS           int     `yaml:"merge_gap_ms"`
	MinEventMS           int     `yaml:"min_event_ms"`
	SpectralChangeThresh float64 `yaml:"spectral_change_thresh"`
}

type migratedViz struct {
	SpectrogramDBRange float64 `yaml:"spectrogram_db_range"`
	DPI                int     `yaml:"dpi"`
}

// migrated fixes the section order of the output; sections the migration
// does not know about are carried through in Extra
type migrated struct {
	Audio         migratedAudio  `yaml:"audio"`
	Preprocessing map[string]any `yaml:"preprocessing"`
	Detect        migratedDetect `yaml:"detect"`
	Detection     map[string]any `yaml:"detection"`
	Features      map[string]any `yaml:"features"`
	Viz           migratedViz    `yaml:"viz"`
	Visualization map[string]any `yaml:"visualization"`
	Distance      map[string]any `yaml:"distance"`
	Extra         map[string]any `yaml:",inline"`
}

// Migrate converts a legacy configuration, with preprocessing, detection and
// features in seconds and samples, into the sectioned layout that adds audio,
// detect (milliseconds) and viz. The legacy sections are kept alongside so
// older tools keep working.
func Migrate(old map[string]any) ([]byte, error) {
	if old == nil {
		old = map[string]any{}
	}

	preprocess := section(old, "preprocessing")
	bandpass := section(preprocess, "bandpass")
	normalize := section(preprocess, "normalize")

	m := migrated{
		Preprocessing: preprocess,
		Extra:         map[string]any{},
	}

	sampleRate := int(number(preprocess, "sample_rate", DefaultSampleRate))
	m.Audio = migratedAudio{
		SampleRate: sampleRate,
		BitDepth:   int(number(preprocess, "bit_depth", legacyBitDepth)),
		Channels:   int(number(preprocess, "channels", legacyChannels)),
		HighpassHz: number(bandpass, "low_cutoff", number(bandpass, "low", 20)),
		LowpassHz:  number(bandpass, "high_cutoff", number(bandpass, "high", 6000)),
		Normalize:  boolean(normalize, "enabled", true),
	}

	detectionOld := section(old, "detection")
	m.Detection = detectionOld
	m.Detect = migratedDetect{
		FrameLenMS:           secondsToMS(number(detectionOld, "window_size", legacyWindowSize)),
		HopLenMS:             secondsToMS(number(detectionOld, "hop_length", legacyHopLength)),
		EnergyThreshDB:       legacyEnergyDB,
		MergeGapMS:           secondsToMS(number(detectionOld, "merge_gap", legacyMergeGap)),
		MinEventMS:           secondsToMS(number(detectionOld, "min_duration", legacyMinDuration)),
		SpectralChangeThresh: number(detectionOld, "spectral_threshold", legacySpectral),
	}

	featuresOld := section(old, "features")
	timeFreq := section(featuresOld, "time_frequency")
	stft := section(timeFreq, "stft")
	mfcc := section(timeFreq, "mfcc")
	cwt := section(timeFreq, "cwt")
	nfft := number(stft, "n_fft", legacyNFFT)
	hop := number(stft, "hop_length", legacySTFTHop)

	m.Features = map[string]any{
		"stft_win_ms": int(nfft / float64(sampleRate) * 1000),
		"stft_hop_ms": int(hop / float64(sampleRate) * 1000),
		"n_mels":      int(number(mfcc, "n_mels", legacyMels)),
		"mfcc_n":      int(number(mfcc, "n_mfcc", legacyMFCC)),
		"mfcc_coeffs": int(number(mfcc, "n_mfcc", legacyMFCC)),
		"cwt_wavelet": text(cwt, "wavelet", legacyWavelet),
	}
	for k, v := range featuresOld {
		m.Features[k] = v
	}

	visualization := section(old, "visualization")
	spectrogram := section(visualization, "spectrogram")
	m.Visualization = visualization
	m.Viz = migratedViz{
		SpectrogramDBRange: number(spectrogram, "vmax", 0) - number(spectrogram, "vmin", -legacySpectrogramDB),
		DPI:                int(number(visualization, "dpi", legacyDPI)),
	}

	distanceOld := section(old, "distance")
	m.Distance = map[string]any{
		"enable_flash_alignment": true,
		"speed_of_sound":         number(distanceOld, "speed_of_sound", 343.5),
		"reference_temp":         number(distanceOld, "reference_temp", 20),
	}
	for k, v := range distanceOld {
		m.Distance[k] = v
	}

	known := map[string]bool{
		"audio": true, "preprocessing": true, "detect": true, "detection": true,
		"features": true, "viz": true, "visualization": true, "distance": true,
	}
	for k, v := range old {
		if !known[k] {
			m.Extra[k] = v
		}
	}

	var buf bytes.Buffer
	buf.WriteString(MigrationHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&m); err != nil {
		return nil, fmt.Errorf("failed to encode migrated config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode migrated config: %w", err)
	}
	return buf.Bytes(), nil
}

// MigrateYAML parses a legacy YAML document and migrates it
func MigrateYAML(data []byte) ([]byte, error) {
	var old map[string]any
	if err := yaml.Unmarshal(data, &old); err != nil {
		return nil, fmt.Errorf("failed to parse legacy config: %w", err)
	}
	return Migrate(old)
}

// secondsToMS truncates toward zero, so 12.5 ms becomes 12
func secondsToMS(s float64) int {
	return int(s * 1000)
}

// section returns the mapping stored under key, or an empty map
func section(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

// number reads an integer or float value, falling back to def
func number(m map[string]any, key string, def float64) float64 {
	switch v := m[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return def
	}
}

func boolean(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func text(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}
