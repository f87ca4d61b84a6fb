package detection

import "math"

// DetailEvents locates the sample-level peak of each interval and builds the
// final events. The interval is sliced at [round(start*sr), round(end*sr))
// clamped to the buffer; an interval whose slice is empty is dropped.
func DetailEvents(sig Signal, intervals []Interval) []Event {
	sr := float64(sig.SampleRate)
	n := len(sig.Samples)

	events := make([]Event, 0, len(intervals))
	for _, iv := range intervals {
		lo := clampIndex(int(math.Round(iv.Start*sr)), n)
		hi := clampIndex(int(math.Round(iv.End*sr)), n)
		if hi <= lo {
			continue
		}

		segment := sig.Samples[lo:hi]
		idx := 0
		peak := math.Abs(segment[0])
		for i, s := range segment[1:] {
			if a := math.Abs(s); a > peak {
				peak = a
				idx = i + 1
			}
		}

		events = append(events, Event{
			Start:         iv.Start,
			End:           iv.End,
			Duration:      iv.End - iv.Start,
			PeakTime:      iv.Start + float64(idx)/sr,
			PeakAmplitude: segment[idx],
		})
	}
	return events
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
