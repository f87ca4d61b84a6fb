// Package config loads the thunderwild YAML configuration file.
//
// A configuration file is divided into sections, one per pipeline stage:
//
//	audio:          input sample rate and duration limits
//	preprocessing:  band-pass, hum notch and normalisation
//	detection:      event detection parameters in seconds
//	detect:         the same parameters in milliseconds (legacy layout)
//	features:       feature extraction
//	distance:       flash-to-thunder distance estimation
//
// Absent keys keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/linuxmatters/thunderwild/internal/audio"
	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/distance"
	"github.com/linuxmatters/thunderwild/internal/features"
	"github.com/linuxmatters/thunderwild/internal/processor"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when the configuration file does not exist
var ErrNotFound = errors.New("config file not found")

// DefaultSampleRate is the sample rate the pipeline is tuned for
const DefaultSampleRate = 48000

// AudioConfig describes the expected input audio
type AudioConfig struct {
	SampleRate  int     `yaml:"sample_rate" json:"sample_rate"`
	HighpassHz  float64 `yaml:"highpass_hz" json:"highpass_hz"`
	LowpassHz   float64 `yaml:"lowpass_hz" json:"lowpass_hz"`
	MinDuration float64 `yaml:"min_duration" json:"min_duration"` // seconds
	MaxDuration float64 `yaml:"max_duration" json:"max_duration"` // seconds
}

// DetectMS is the millisecond form of the detection parameters.
// Unset fields are nil so that Load can tell them apart from zero.
type DetectMS struct {
	FrameLenMS           *float64 `yaml:"frame_len_ms,omitempty" json:"frame_len_ms,omitempty"`
	HopLenMS             *float64 `yaml:"hop_len_ms,omitempty" json:"hop_len_ms,omitempty"`
	EnergyThreshDB       *float64 `yaml:"energy_thresh_db,omitempty" json:"energy_thresh_db,omitempty"`
	MergeGapMS           *float64 `yaml:"merge_gap_ms,omitempty" json:"merge_gap_ms,omitempty"`
	MinEventMS           *float64 `yaml:"min_event_ms,omitempty" json:"min_event_ms,omitempty"`
	SpectralChangeThresh *float64 `yaml:"spectral_change_thresh,omitempty" json:"spectral_change_thresh,omitempty"`
}

// Config is the complete pipeline configuration
type Config struct {
	Audio         AudioConfig      `yaml:"audio" json:"audio"`
	Preprocessing processor.Config `yaml:"preprocessing" json:"preprocessing"`
	Detection     detection.Config `yaml:"detection" json:"detection"`
	Detect        DetectMS         `yaml:"detect,omitempty" json:"detect,omitempty"`
	Features      features.Config  `yaml:"features" json:"features"`
	Distance      distance.Config  `yaml:"distance" json:"distance"`
}

// Default returns the built-in configuration
func Default() *Config {
	prep := processor.DefaultConfig()
	return &Config{
		Audio: AudioConfig{
			SampleRate:  DefaultSampleRate,
			HighpassHz:  prep.Bandpass.Low,
			LowpassHz:   prep.Bandpass.High,
			MinDuration: audio.DefaultMinDuration,
			MaxDuration: audio.DefaultMaxDuration,
		},
		Preprocessing: prep,
		Detection:     detection.DefaultConfig(),
		Features:      features.DefaultConfig(),
		Distance:      distance.DefaultConfig(),
	}
}

// Load reads a YAML configuration file over the defaults.
// Values in the detect section fill detection keys the file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration bytes over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Which detection keys were written explicitly
	var present struct {
		Detection map[string]any `yaml:"detection"`
	}
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDetectMS(present.Detection)

	return cfg, nil
}

// applyDetectMS copies millisecond values into detection fields whose key
// is absent from the detection section
func (c *Config) applyDetectMS(explicit map[string]any) {
	set := func(key string, src *float64, dst *float64, divisor float64) {
		if src == nil {
			return
		}
		if _, ok := explicit[key]; ok {
			return
		}
		*dst = *src / divisor
	}

	const msPerSecond = 1000
	set("window_size", c.Detect.FrameLenMS, &c.Detection.WindowSize, msPerSecond)
	set("hop_length", c.Detect.HopLenMS, &c.Detection.HopLength, msPerSecond)
	set("merge_gap", c.Detect.MergeGapMS, &c.Detection.MergeGap, msPerSecond)
	set("min_duration", c.Detect.MinEventMS, &c.Detection.MinDuration, msPerSecond)
	set("spectral_threshold", c.Detect.SpectralChangeThresh, &c.Detection.SpectralThreshold, 1)
}

// Write encodes cfg as YAML to path
func Write(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Marshal encodes cfg as YAML
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
