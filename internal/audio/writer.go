package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/linuxmatters/thunderwild/internal/detection"
)

// ErrFileExists is returned by Save when the target exists and overwrite is off
var ErrFileExists = errors.New("file already exists")

// DefaultBitDepth is the bit depth used when Save is given an unsupported one
const DefaultBitDepth = 24

// Save writes a mono signal as integer PCM WAV at 16, 24 or 32 bits.
// Samples are clipped to [-1, 1]. Parent directories are created as needed.
func Save(filename string, sig detection.Signal, bitDepth int, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(filename); err == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, filename)
		}
	}

	switch bitDepth {
	case 16, 24, 32:
	default:
		bitDepth = DefaultBitDepth
	}

	if dir := filepath.Dir(filename); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	full := math.Exp2(float64(bitDepth-1)) - 1
	data := make([]int, len(sig.Samples))
	for i, s := range sig.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, s)) * full))
	}

	enc := wav.NewEncoder(f, sig.SampleRate, bitDepth, 1, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sig.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}
	return nil
}
