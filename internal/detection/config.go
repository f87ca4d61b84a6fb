package detection

// Config holds the detection parameters. Durations are in seconds.
type Config struct {
	// EnergyThreshold is relative to the envelope maximum (0-1)
	EnergyThreshold float64 `yaml:"energy_threshold" json:"energy_threshold"`
	// SpectralThreshold is relative to the flux maximum (0-1)
	SpectralThreshold float64 `yaml:"spectral_threshold" json:"spectral_threshold"`

	WindowSize  float64 `yaml:"window_size" json:"window_size"`
	HopLength   float64 `yaml:"hop_length" json:"hop_length"`
	MergeGap    float64 `yaml:"merge_gap" json:"merge_gap"`
	MinDuration float64 `yaml:"min_duration" json:"min_duration"`

	// STFT size and hop for spectral flux, in samples
	NFFT    int `yaml:"n_fft" json:"n_fft"`
	FluxHop int `yaml:"flux_hop_length" json:"flux_hop_length"`
}

// Default detection parameters
const (
	DefaultEnergyThreshold   = 0.01
	DefaultSpectralThreshold = 0.1
	DefaultWindowSize        = 0.05
	DefaultHopLength         = 0.01
	DefaultMergeGap          = 0.5
	DefaultMinDuration       = 0.1
	DefaultNFFT              = 2048
	DefaultFluxHop           = 512

	// FluxWindowRadius is the half-width in seconds of the candidate
	// interval emitted around each spectral flux peak.
	FluxWindowRadius = 0.5
)

// DefaultConfig returns the built-in detection parameters.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold:   DefaultEnergyThreshold,
		SpectralThreshold: DefaultSpectralThreshold,
		WindowSize:        DefaultWindowSize,
		HopLength:         DefaultHopLength,
		MergeGap:          DefaultMergeGap,
		MinDuration:       DefaultMinDuration,
		NFFT:              DefaultNFFT,
		FluxHop:           DefaultFluxHop,
	}
}

// sized fills frame and FFT sizes that cannot be zero.
// Thresholds, merge gap and minimum duration are used as given.
func (c Config) sized() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.HopLength <= 0 {
		c.HopLength = DefaultHopLength
	}
	if c.NFFT <= 0 {
		c.NFFT = DefaultNFFT
	}
	if c.FluxHop <= 0 {
		c.FluxHop = DefaultFluxHop
	}
	return c
}
