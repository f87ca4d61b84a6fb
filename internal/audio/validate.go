package audio

import (
	"errors"
	"fmt"
	"math"

	"github.com/linuxmatters/thunderwild/internal/detection"
)

// Default duration limits in seconds
const (
	DefaultMinDuration = 1.0
	DefaultMaxDuration = 3600.0
)

// Validation errors, matched with errors.Is
var (
	ErrEmptyAudio = errors.New("audio is empty")
	ErrNonFinite  = errors.New("audio contains NaN or Inf values")
	ErrTooShort   = errors.New("audio too short")
	ErrTooLong    = errors.New("audio too long")
)

// Validate checks that a signal is fit for detection: non-empty, finite and
// between minDuration and maxDuration seconds long. A non-positive limit
// disables that check.
func Validate(sig detection.Signal, minDuration, maxDuration float64) error {
	if len(sig.Samples) == 0 {
		return ErrEmptyAudio
	}
	if sig.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sig.SampleRate)
	}

	for i, s := range sig.Samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: first at sample %d", ErrNonFinite, i)
		}
	}

	duration := sig.Duration()
	if minDuration > 0 && duration < minDuration {
		return fmt.Errorf("%w: %.2fs < %gs", ErrTooShort, duration, minDuration)
	}
	if maxDuration > 0 && duration > maxDuration {
		return fmt.Errorf("%w: %.2fs > %gs", ErrTooLong, duration, maxDuration)
	}
	return nil
}
