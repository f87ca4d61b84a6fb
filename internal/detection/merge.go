package detection

import "sort"

// Fuse concatenates energy and flux candidates, energy first. Duplicates are
// kept; the merge step absorbs them.
func Fuse(energy, flux []Interval) []Interval {
	all := make([]Interval, 0, len(energy)+len(flux))
	all = append(all, energy...)
	return append(all, flux...)
}

// MergeIntervals sorts candidates by start and greedily merges any interval
// that begins no more than mergeGap after the running end. Merged spans
// shorter than minDuration are dropped.
//
// The sort is stable, so equal starts keep their input order. The input
// slice is not modified.
func MergeIntervals(candidates []Interval, mergeGap, minDuration float64) []Interval {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]Interval, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var merged []Interval
	cur := sorted[0]
	for _, iv := range sorted[1:] {
		if iv.Start-cur.End <= mergeGap {
			if iv.End > cur.End {
				cur.End = iv.End
			}
			continue
		}
		if cur.Duration() >= minDuration {
			merged = append(merged, cur)
		}
		cur = iv
	}
	if cur.Duration() >= minDuration {
		merged = append(merged, cur)
	}
	return merged
}
