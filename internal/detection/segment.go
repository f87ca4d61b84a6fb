package detection

import "math"

// SegmentEnergy thresholds an energy envelope into candidate intervals.
//
// The scan is a two-state machine. A frame is above when its value is
// strictly greater than relThreshold * max. Entering a run records the frame
// time as the start; the first frame below closes the run at that frame's
// time. A run still open after the last frame closes at the last frame time,
// which yields a zero-length interval when the run began on that frame.
func SegmentEnergy(series FrameSeries, relThreshold float64) []Interval {
	threshold := relThreshold * series.Max()

	var intervals []Interval
	inside := false
	var start float64

	for _, p := range series {
		above := p.Value > threshold
		switch {
		case above && !inside:
			start = p.Time
			inside = true
		case !above && inside:
			intervals = append(intervals, Interval{Start: start, End: p.Time})
			inside = false
		}
	}

	if inside {
		intervals = append(intervals, Interval{Start: start, End: series.LastTime()})
	}
	return intervals
}

// FindPeaks returns the indices of strict local maxima whose value is at
// least minHeight. The first and last points have only one neighbour and
// are never peaks. Plateaus do not count.
func FindPeaks(series FrameSeries, minHeight float64) []int {
	var peaks []int
	for i := 1; i < len(series)-1; i++ {
		v := series[i].Value
		if v > series[i-1].Value && v > series[i+1].Value && v >= minHeight {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// SegmentFluxPeaks emits a window of FluxWindowRadius seconds either side of
// every flux peak above relThreshold * max, clipped to [0, last frame time].
//
// There is no minimum peak spacing, so closely spaced transients produce
// overlapping windows. MergeIntervals folds them back together.
func SegmentFluxPeaks(series FrameSeries, relThreshold float64) []Interval {
	threshold := relThreshold * series.Max()
	last := series.LastTime()

	peaks := FindPeaks(series, threshold)
	intervals := make([]Interval, 0, len(peaks))
	for _, i := range peaks {
		p := series[i].Time
		intervals = append(intervals, Interval{
			Start: math.Max(0, p-FluxWindowRadius),
			End:   math.Min(last, p+FluxWindowRadius),
		})
	}
	return intervals
}
