package audio

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TestAudioOptions configures the synthetic audio to generate
type TestAudioOptions struct {
	DurationSecs float64 // Total duration in seconds
	SampleRate   int     // Sample rate (default: 48000)
	Channels     int     // Channel count (default: 1)
	ToneFreq     float64 // Sine wave frequency in Hz (0 = no tone)
	ToneLevel    float64 // Tone level in dBFS (e.g., -6.0)
	// RightInverted writes the negated tone to the second channel so a
	// stereo downmix cancels to silence
	RightInverted bool
}

// generateTestAudio writes a synthetic 16-bit PCM WAV file into t.TempDir()
// and returns its path.
func generateTestAudio(t *testing.T, opts TestAudioOptions) string {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 48000
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 2.0
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}

	frames := int(opts.DurationSecs * float64(opts.SampleRate))
	samples := make([]int16, frames*opts.Channels)

	toneAmp := 0.0
	if opts.ToneFreq > 0 && opts.ToneLevel < 0 {
		toneAmp = math.Pow(10.0, opts.ToneLevel/20.0)
	}

	maxInt16 := float64(math.MaxInt16)
	for i := 0; i < frames; i++ {
		tm := float64(i) / float64(opts.SampleRate)
		v := toneAmp * math.Sin(2.0*math.Pi*opts.ToneFreq*tm)
		for c := 0; c < opts.Channels; c++ {
			s := v
			if c == 1 && opts.RightInverted {
				s = -v
			}
			samples[i*opts.Channels+c] = int16(s * maxInt16)
		}
	}

	path := filepath.Join(t.TempDir(), "thunderwild-test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := writeWAV(f, samples, opts.SampleRate, opts.Channels); err != nil {
		f.Close()
		t.Fatalf("failed to write WAV file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close test file: %v", err)
	}
	return path
}

// writeWAV writes interleaved 16-bit PCM with a canonical 44-byte header
func writeWAV(f *os.File, samples []int16, sampleRate, numChannels int) error {
	const bitsPerSample = 16

	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	header := []any{
		[]byte("RIFF"), uint32(fileSize), []byte("WAVE"),
		[]byte("fmt "), uint32(16), uint16(1), uint16(numChannels),
		uint32(sampleRate), uint32(byteRate), uint16(blockAlign), uint16(bitsPerSample),
		[]byte("data"), uint32(dataSize),
	}
	for _, field := range header {
		if err := binary.Write(f, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return binary.Write(f, binary.LittleEndian, samples)
}
