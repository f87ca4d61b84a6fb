// Package audio provides WAV file I/O and sanity checks for detection input
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"
	"github.com/linuxmatters/thunderwild/internal/detection"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag
const wavFormatPCM = 1

// ErrUnsupportedFormat is returned for WAV files that are not integer PCM
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Format     string
}

// Info reads the WAV header and PCM chunk size without decoding samples
func Info(filename string) (*Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("not a valid WAV file: %s", filename)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate PCM data: %w", err)
	}

	meta := headerMetadata(dec)
	if bytesPerFrame := meta.Channels * meta.BitDepth / 8; bytesPerFrame > 0 {
		meta.Frames = int(dec.PCMLen()) / bytesPerFrame
	}
	if meta.SampleRate > 0 {
		meta.Duration = float64(meta.Frames) / float64(meta.SampleRate)
	}
	return meta, nil
}

// Load decodes a PCM WAV file into a mono signal.
// Integer samples are scaled to [-1, 1) by the source bit depth and
// multi-channel audio is downmixed by averaging.
func Load(filename string) (detection.Signal, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return detection.Signal{}, nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return detection.Signal{}, nil, fmt.Errorf("not a valid WAV file: %s", filename)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return detection.Signal{}, nil, fmt.Errorf("%w: WAV format tag %d in %s", ErrUnsupportedFormat, dec.WavAudioFormat, filename)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return detection.Signal{}, nil, fmt.Errorf("failed to read PCM buffer: %w", err)
	}

	meta := headerMetadata(dec)
	channels := meta.Channels
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels < 1 {
		channels = 1
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = meta.BitDepth
	}

	samples := downmix(buf.Data, channels, bitDepth)
	meta.Frames = len(samples)
	if meta.SampleRate > 0 {
		meta.Duration = float64(len(samples)) / float64(meta.SampleRate)
	}

	return detection.Signal{Samples: samples, SampleRate: meta.SampleRate}, meta, nil
}

func headerMetadata(dec *wav.Decoder) *Metadata {
	format := "PCM"
	if dec.WavAudioFormat != wavFormatPCM {
		format = fmt.Sprintf("format_%d", dec.WavAudioFormat)
	}
	return &Metadata{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Format:     format,
	}
}

// downmix converts interleaved integer PCM to mono float samples
func downmix(data []int, channels, bitDepth int) []float64 {
	scale, offset := sampleScale(bitDepth)
	frames := len(data) / channels

	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// sampleScale returns the divisor and zero offset for a PCM bit depth.
// 8-bit WAV is unsigned with silence at 128.
func sampleScale(bitDepth int) (scale, offset float64) {
	if bitDepth <= 8 {
		return 128, 128
	}
	return math.Exp2(float64(bitDepth - 1)), 0
}
