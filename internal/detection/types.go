// Package detection segments a mono audio signal into thunder events.
//
// Two onset signals are computed from the same buffer: a short-time RMS
// energy envelope and the spectral flux of an STFT. Each is segmented into
// candidate intervals independently, the candidates are fused and merged,
// and every surviving interval is turned into an Event carrying its
// sample-level peak.
//
// Everything in this package is a pure function of its inputs. Nothing
// logs; callers that want diagnostics pass an Observer to Detect.
package detection

// Signal is a mono sample buffer at a fixed sample rate.
// Callers must supply a non-empty buffer of finite values; the detection
// routines do not re-validate it.
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// FramePoint is one (time, value) sample of a frame series.
type FramePoint struct {
	Time  float64
	Value float64
}

// FrameSeries is a sequence of frame values in strictly increasing time.
type FrameSeries []FramePoint

// Max returns the largest value in the series, or 0 for an empty series.
func (fs FrameSeries) Max() float64 {
	if len(fs) == 0 {
		return 0
	}
	m := fs[0].Value
	for _, p := range fs[1:] {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}

// LastTime returns the timestamp of the final frame, or 0 for an empty series.
func (fs FrameSeries) LastTime() float64 {
	if len(fs) == 0 {
		return 0
	}
	return fs[len(fs)-1].Time
}

// Interval is a span of time in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

// Event is a detected thunder event.
// PeakAmplitude keeps the sign of the sample at PeakTime.
type Event struct {
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Duration      float64 `json:"duration"`
	PeakTime      float64 `json:"peak_time"`
	PeakAmplitude float64 `json:"peak_amplitude"`
}

// Interval returns the event's time span.
func (e Event) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}
