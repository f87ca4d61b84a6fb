package distance

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/linuxmatters/thunderwild/internal/detection"
)

func TestSpeedOfSound(t *testing.T) {
	tests := []struct {
		temp float64
		want float64
	}{
		{0, 331.3},
		{20, 343.42},
		{-10, 325.24},
	}
	for _, tt := range tests {
		if got := SpeedOfSound(tt.temp); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("SpeedOfSound(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
}

func TestEstimateDistance(t *testing.T) {
	if got := EstimateDistance(3, 20); math.Abs(got-1030.26) > 1e-9 {
		t.Errorf("EstimateDistance(3, 20) = %v, want 1030.26", got)
	}
	if got := EstimateDistance(0, 20); got != 0 {
		t.Errorf("EstimateDistance(0, 20) = %v, want 0", got)
	}
}

func TestEstimateWithUncertainty(t *testing.T) {
	got := EstimateWithUncertainty(3, 0.1, 20, 5)
	want := Estimate{
		Distance: 343.42 * 3,
		Lower:    340.39 * 2.9,
		Upper:    346.45 * 3.1,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("EstimateWithUncertainty() mismatch (-want +got):\n%s", diff)
	}
	if !(got.Lower < got.Distance && got.Distance < got.Upper) {
		t.Errorf("bounds not ordered: %+v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		metres float64
		want   Category
	}{
		{500, VeryClose},
		{999.9, VeryClose},
		{1000, Close},
		{4999, Close},
		{5000, Moderate},
		{14999, Moderate},
		{15000, Distant},
		{40000, Distant},
	}
	for _, tt := range tests {
		if got := Classify(tt.metres); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.metres, got, tt.want)
		}
	}
}

func TestAlignFlashes(t *testing.T) {
	events := []detection.Event{
		{Start: 0.2, End: 1.0},
		{Start: 3.5, End: 4.0},
		{Start: 13.2, End: 14.0},
		{Start: 30.1, End: 31.0},
	}
	// Unsorted on purpose; 10.2 is the latest before 13.2
	flashes := []float64{25.7, 0.5, 10.2}
	before := append([]float64(nil), flashes...)

	strikes := AlignFlashes(events, flashes, 20)
	if len(strikes) != len(events) {
		t.Fatalf("len(strikes) = %d, want %d", len(strikes), len(events))
	}
	if diff := cmp.Diff(before, flashes); diff != "" {
		t.Error("AlignFlashes() modified flashTimes")
	}

	if strikes[0].Alignment != nil {
		t.Errorf("strike 0 aligned to %+v, want no preceding flash", strikes[0].Alignment)
	}

	tests := []struct {
		idx      int
		flash    float64
		delay    float64
		category Category
	}{
		{1, 0.5, 3.0, Close},
		{2, 10.2, 3.0, Close},
		{3, 25.7, 4.4, Close},
	}
	for _, tt := range tests {
		a := strikes[tt.idx].Alignment
		if a == nil {
			t.Errorf("strike %d has no alignment", tt.idx)
			continue
		}
		if a.FlashTime != tt.flash {
			t.Errorf("strike %d FlashTime = %v, want %v", tt.idx, a.FlashTime, tt.flash)
		}
		if math.Abs(a.TimeDelay-tt.delay) > 1e-9 {
			t.Errorf("strike %d TimeDelay = %v, want %v", tt.idx, a.TimeDelay, tt.delay)
		}
		if math.Abs(a.Distance-EstimateDistance(tt.delay, 20)) > 1e-6 {
			t.Errorf("strike %d Distance = %v, want %v", tt.idx, a.Distance, EstimateDistance(tt.delay, 20))
		}
		if a.Category != tt.category {
			t.Errorf("strike %d Category = %q, want %q", tt.idx, a.Category, tt.category)
		}
	}

	if got := Aligned(strikes); got != 3 {
		t.Errorf("Aligned() = %d, want 3", got)
	}
}

func TestAlignFlashesStrictlyBefore(t *testing.T) {
	events := []detection.Event{{Start: 2.0, End: 3.0}}

	strikes := AlignFlashes(events, []float64{2.0}, 20)
	if strikes[0].Alignment != nil {
		t.Errorf("flash at the event start aligned: %+v", strikes[0].Alignment)
	}

	strikes = AlignFlashes(events, nil, 20)
	if strikes[0].Alignment != nil || strikes[0].Event != events[0] {
		t.Errorf("AlignFlashes(no flashes) = %+v, want bare event", strikes[0])
	}
}
