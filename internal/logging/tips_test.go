package logging

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/processor"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth int
		indent   string
		want     string
	}{
		{
			name:     "short_text_no_wrap",
			text:     "Hello world",
			maxWidth: 20,
			indent:   "  ",
			want:     "Hello world",
		},
		{
			name:     "long_text_wraps",
			text:     "Try lowering the energy threshold for distant storms",
			maxWidth: 30,
			indent:   "  ",
			want:     "Try lowering the energy\n  threshold for distant storms",
		},
		{
			name:     "single_long_word",
			text:     "supercalifragilisticexpialidocious",
			maxWidth: 10,
			indent:   "  ",
			want:     "supercalifragilisticexpialidocious",
		},
		{
			name:     "empty_input",
			text:     "",
			maxWidth: 20,
			indent:   "  ",
			want:     "",
		},
		{
			name:     "multiple_wraps",
			text:     "one two three four five six seven eight nine ten",
			maxWidth: 15,
			indent:   "    ",
			want:     "one two three\n    four five six\n    seven eight\n    nine ten",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.maxWidth, tt.indent)
			if got != tt.want {
				t.Errorf("wrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func ruleIDs(tips []DetectionTip) []string {
	ids := make([]string, len(tips))
	for i, tip := range tips {
		ids[i] = tip.RuleID
	}
	return ids
}

// cleanMeasurements describes a recording that fires no level rules
func cleanMeasurements() *processor.AudioMeasurements {
	return &processor.AudioMeasurements{PeakDB: -6, NoiseFloor: -60}
}

func TestGenerateDetectionTips(t *testing.T) {
	cfg := detection.DefaultConfig()

	tests := []struct {
		name        string
		summary     *DetectionSummary
		want        []string // RuleIDs in order
		wantMessage string   // substring of the first tip
	}{
		{
			name: "clean_run_no_tips",
			summary: &DetectionSummary{
				Duration:     60,
				Events:       []detection.Event{{Start: 10, End: 14, Duration: 4}},
				Counts:       map[detection.Stage]int{detection.StageEnergyIntervals: 2, detection.StageFluxIntervals: 3},
				Measurements: cleanMeasurements(),
				Config:       cfg,
			},
			want: []string{},
		},
		{
			name: "silent_recording_suppresses_others",
			summary: &DetectionSummary{
				Duration:     5,
				Measurements: &processor.AudioMeasurements{PeakDB: -120, NoiseFloor: -120},
				Config:       cfg,
			},
			want: []string{"silent_recording"},
		},
		{
			name: "no_events_names_thresholds",
			summary: &DetectionSummary{
				Duration:     60,
				Measurements: cleanMeasurements(),
				Config:       cfg,
			},
			want:        []string{"no_events"},
			wantMessage: "energy threshold (currently 0.01)",
		},
		{
			name: "event_covers_file_suppresses_flux_and_edge",
			summary: &DetectionSummary{
				Duration:     20,
				Events:       []detection.Event{{Start: 0, End: 18, Duration: 18}},
				Counts:       map[detection.Stage]int{detection.StageEnergyIntervals: 1, detection.StageFluxIntervals: 10},
				Measurements: cleanMeasurements(),
				Config:       cfg,
			},
			want:        []string{"event_covers_file"},
			wantMessage: "covers 90% of the recording",
		},
		{
			name: "flux_only",
			summary: &DetectionSummary{
				Duration:     30,
				Events:       []detection.Event{{Start: 4, End: 6, Duration: 2}},
				Counts:       map[detection.Stage]int{detection.StageEnergyIntervals: 0, detection.StageFluxIntervals: 1},
				Measurements: cleanMeasurements(),
				Config:       cfg,
			},
			want:        []string{"flux_only"},
			wantMessage: "fixed 1s windows",
		},
		{
			name: "flux_dominates",
			summary: &DetectionSummary{
				Duration:     60,
				Events:       []detection.Event{{Start: 10, End: 14, Duration: 4}},
				Counts:       map[detection.Stage]int{detection.StageEnergyIntervals: 2, detection.StageFluxIntervals: 7},
				Measurements: cleanMeasurements(),
				Config:       cfg,
			},
			want:        []string{"flux_dominates"},
			wantMessage: "7 candidates against 2",
		},
		{
			name: "priority_ordering",
			summary: &DetectionSummary{
				Duration:     5,
				Events:       []detection.Event{{Start: 0, End: 4.5, Duration: 4.5}},
				Counts:       map[detection.Stage]int{detection.StageEnergyIntervals: 1, detection.StageFluxIntervals: 5},
				Measurements: &processor.AudioMeasurements{PeakDB: 0, ClippedRatio: 0.01, NoiseFloor: -30},
				Config:       cfg,
			},
			want:        []string{"clipping", "event_covers_file", "noise_floor", "short_recording"},
			wantMessage: "1.0% of samples",
		},
		{
			name: "five_rules_at_cap",
			summary: &DetectionSummary{
				Duration:     5,
				Events:       []detection.Event{{Start: 0, End: 1, Duration: 1}},
				Counts:       map[detection.Stage]int{detection.StageFluxIntervals: 2},
				Measurements: &processor.AudioMeasurements{PeakDB: -1, ClippedRatio: 0.01, NoiseFloor: -30},
				Config:       cfg,
			},
			want: []string{"clipping", "flux_only", "noise_floor", "short_recording", "event_at_edge"},
		},
		{
			name: "no_measurements",
			summary: &DetectionSummary{
				Duration: 60,
				Events:   []detection.Event{{Start: 59.8, End: 60, Duration: 0.2}},
				Config:   cfg,
			},
			want: []string{"event_at_edge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tips := GenerateDetectionTips(tt.summary)
			if diff := cmp.Diff(tt.want, ruleIDs(tips)); diff != "" {
				t.Errorf("GenerateDetectionTips() rules mismatch (-want +got):\n%s", diff)
			}
			if len(tips) > MaxDetectionTips {
				t.Errorf("len(tips) = %d, want <= %d", len(tips), MaxDetectionTips)
			}
			if tt.wantMessage != "" && len(tips) > 0 && !strings.Contains(tips[0].Message, tt.wantMessage) {
				t.Errorf("first tip message = %q, want substring %q", tips[0].Message, tt.wantMessage)
			}
		})
	}
}

func TestGenerateDetectionTipsNil(t *testing.T) {
	if tips := GenerateDetectionTips(nil); tips != nil {
		t.Errorf("GenerateDetectionTips(nil) = %v, want nil", tips)
	}
}
