// Package distance estimates lightning strike distance from the delay between
// a visible flash and the arrival of its thunder.
package distance

import (
	"sort"

	"github.com/linuxmatters/thunderwild/internal/detection"
)

// Speed of sound model, c = speedAtZero + speedPerDegree·T
const (
	speedAtZero    = 331.3 // m/s at 0 °C
	speedPerDegree = 0.606 // m/s per °C
)

// Defaults for distance estimation
const (
	DefaultTemperature            = 20.0  // °C
	DefaultTemperatureUncertainty = 5.0   // °C
	DefaultTimeDelayUncertainty   = 0.1   // seconds
	DefaultSpeedOfSound           = 343.5 // m/s, near 20 °C
)

// Category boundaries in metres
const (
	veryCloseLimit = 1000.0
	closeLimit     = 5000.0
	moderateLimit  = 15000.0
)

// Category is a coarse strike distance classification
type Category string

const (
	VeryClose Category = "very_close" // < 1 km
	Close     Category = "close"      // 1-5 km
	Moderate  Category = "moderate"   // 5-15 km
	Distant   Category = "distant"    // > 15 km
)

// Config holds distance estimation settings
type Config struct {
	SpeedOfSound           float64 `yaml:"speed_of_sound" json:"speed_of_sound"` // m/s, informational
	ReferenceTemp          float64 `yaml:"reference_temp" json:"reference_temp"` // °C
	TemperatureUncertainty float64 `yaml:"temperature_uncertainty" json:"temperature_uncertainty"`
	TimeDelayUncertainty   float64 `yaml:"time_delay_uncertainty" json:"time_delay_uncertainty"`
	EnableFlashAlignment   bool    `yaml:"enable_flash_alignment" json:"enable_flash_alignment"`
}

// DefaultConfig returns the default distance settings at 20 °C
func DefaultConfig() Config {
	return Config{
		SpeedOfSound:           DefaultSpeedOfSound,
		ReferenceTemp:          DefaultTemperature,
		TemperatureUncertainty: DefaultTemperatureUncertainty,
		TimeDelayUncertainty:   DefaultTimeDelayUncertainty,
		EnableFlashAlignment:   true,
	}
}

// Estimate is a distance with lower and upper bounds, in metres
type Estimate struct {
	Distance float64 `json:"distance_m"`
	Lower    float64 `json:"lower_m"`
	Upper    float64 `json:"upper_m"`
}

// FlashAlignment links an event to the flash that preceded it
type FlashAlignment struct {
	FlashTime float64  `json:"flash_time"` // seconds
	TimeDelay float64  `json:"time_delay"` // seconds, event start minus flash
	Distance  float64  `json:"distance_m"`
	Category  Category `json:"category"`
}

// Strike is a detected event with an optional flash alignment.
// Alignment is nil when no flash precedes the event.
type Strike struct {
	detection.Event
	Alignment *FlashAlignment `json:"alignment,omitempty"`
}

// SpeedOfSound returns the speed of sound in air at the given temperature (°C)
func SpeedOfSound(temperature float64) float64 {
	return speedAtZero + speedPerDegree*temperature
}

// EstimateDistance converts a flash-to-thunder delay in seconds to metres
func EstimateDistance(timeDelay, temperature float64) float64 {
	return SpeedOfSound(temperature) * timeDelay
}

// EstimateWithUncertainty bounds the distance by taking the shorter delay at
// the colder temperature for the lower bound and the longer delay at the
// warmer temperature for the upper bound.
func EstimateWithUncertainty(timeDelay, timeUncertainty, temperature, tempUncertainty float64) Estimate {
	return Estimate{
		Distance: EstimateDistance(timeDelay, temperature),
		Lower:    SpeedOfSound(temperature-tempUncertainty) * (timeDelay - timeUncertainty),
		Upper:    SpeedOfSound(temperature+tempUncertainty) * (timeDelay + timeUncertainty),
	}
}

// Classify places a distance in metres into a Category
func Classify(metres float64) Category {
	switch {
	case metres < veryCloseLimit:
		return VeryClose
	case metres < closeLimit:
		return Close
	case metres < moderateLimit:
		return Moderate
	default:
		return Distant
	}
}

// AlignFlashes pairs each event with the latest flash strictly before its
// start. Events with no preceding flash are returned without an alignment.
// flashTimes need not be sorted and is not modified.
func AlignFlashes(events []detection.Event, flashTimes []float64, temperature float64) []Strike {
	flashes := make([]float64, len(flashTimes))
	copy(flashes, flashTimes)
	sort.Float64s(flashes)

	strikes := make([]Strike, len(events))
	for i, ev := range events {
		strikes[i] = Strike{Event: ev}

		// First flash at or after the start; the one before it is the latest preceding
		idx := sort.SearchFloat64s(flashes, ev.Start)
		if idx == 0 {
			continue
		}
		flash := flashes[idx-1]
		delay := ev.Start - flash
		d := EstimateDistance(delay, temperature)
		strikes[i].Alignment = &FlashAlignment{
			FlashTime: flash,
			TimeDelay: delay,
			Distance:  d,
			Category:  Classify(d),
		}
	}
	return strikes
}

// Aligned counts strikes that have a flash alignment
func Aligned(strikes []Strike) int {
	n := 0
	for _, s := range strikes {
		if s.Alignment != nil {
			n++
		}
	}
	return n
}
