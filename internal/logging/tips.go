package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/processor"
)

// DetectionTip is a single piece of actionable advice derived from a
// detection run.
type DetectionTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "no_events")
}

// MaxDetectionTips is the maximum number of tips to return.
const MaxDetectionTips = 5

// Tip thresholds
const (
	clippedRatioLimit     = 0.001 // fraction of samples at full scale
	eventCoverageLimit    = 0.8   // single event share of the recording
	fluxDominanceRatio    = 3     // flux candidates per energy candidate
	shortRecordingSecs    = 10.0  // seconds
	noisyFloorDB          = -40.0 // dBFS
	silentPeakDB          = -90.0 // dBFS, below this nothing can be detected
	edgeToleranceFraction = 0.01  // of the recording, for edge-touching events
)

// DetectionSummary is what the tip rules look at.
// Measurements is whole-file analysis of the input and may be nil.
type DetectionSummary struct {
	Duration     float64 // seconds
	Events       []detection.Event
	Counts       map[detection.Stage]int
	Measurements *processor.AudioMeasurements
	Config       detection.Config
}

type tipRule func(s *DetectionSummary) *DetectionTip

// GenerateDetectionTips evaluates the run and returns prioritised tips.
func GenerateDetectionTips(s *DetectionSummary) []DetectionTip {
	if s == nil {
		return nil
	}

	rules := []tipRule{
		tipSilentRecording,
		tipNoEvents,
		tipClipping,
		tipEventCoversFile,
		tipFluxOnly,
		tipFluxDominates,
		tipNoisyFloor,
		tipShortRecording,
		tipEventAtEdge,
	}

	var tips []DetectionTip
	fired := make(map[string]bool)
	for _, rule := range rules {
		if tip := rule(s); tip != nil {
			tips = append(tips, *tip)
			fired[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, fired)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxDetectionTips {
		tips = tips[:MaxDetectionTips]
	}
	return tips
}

// applyExclusions drops tips made redundant by a more specific one.
// A silent recording explains everything else about the run; one event
// spanning the file already says the flux windows have been merged together.
func applyExclusions(tips []DetectionTip, fired map[string]bool) []DetectionTip {
	var result []DetectionTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "no_events", "short_recording", "noise_floor":
			if fired["silent_recording"] {
				continue
			}
		case "flux_dominates", "event_at_edge":
			if fired["event_covers_file"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipSilentRecording fires when the input peak is too low to hold any event.
func tipSilentRecording(s *DetectionSummary) *DetectionTip {
	if s.Measurements == nil || s.Measurements.PeakDB > silentPeakDB {
		return nil
	}
	return &DetectionTip{
		Priority: 10,
		RuleID:   "silent_recording",
		Message:  "The recording is silent or nearly so - check the right file and channel were exported.",
	}
}

// tipNoEvents fires when detection returned nothing.
func tipNoEvents(s *DetectionSummary) *DetectionTip {
	if len(s.Events) > 0 {
		return nil
	}
	return &DetectionTip{
		Priority: 10,
		RuleID:   "no_events",
		Message: fmt.Sprintf("No thunder events were detected - try lowering the energy threshold (currently %g) "+
			"or the spectral threshold (currently %g).", s.Config.EnergyThreshold, s.Config.SpectralThreshold),
	}
}

// tipClipping fires when enough samples sit at full scale to distort peaks.
func tipClipping(s *DetectionSummary) *DetectionTip {
	if s.Measurements == nil || s.Measurements.ClippedRatio <= clippedRatioLimit {
		return nil
	}
	return &DetectionTip{
		Priority: 9,
		RuleID:   "clipping",
		Message: fmt.Sprintf("%.1f%% of samples are at full scale - peak amplitudes and crest factors of loud strikes will be understated.",
			s.Measurements.ClippedRatio*100),
	}
}

// tipEventCoversFile fires when one event spans most of the recording.
// Usually a merge gap too wide for the storm's strike rate.
func tipEventCoversFile(s *DetectionSummary) *DetectionTip {
	if s.Duration <= 0 {
		return nil
	}
	for _, ev := range s.Events {
		if ev.Duration > eventCoverageLimit*s.Duration {
			return &DetectionTip{
				Priority: 8,
				RuleID:   "event_covers_file",
				Message: fmt.Sprintf("One event covers %.0f%% of the recording - reduce the merge gap (currently %gs) "+
					"or raise the energy threshold to split it.", ev.Duration/s.Duration*100, s.Config.MergeGap),
			}
		}
	}
	return nil
}

// tipFluxOnly fires when events exist but the energy segmenter found none,
// so every boundary comes from a fixed window around a flux peak.
func tipFluxOnly(s *DetectionSummary) *DetectionTip {
	if len(s.Events) == 0 || s.Counts[detection.StageEnergyIntervals] > 0 || s.Counts[detection.StageFluxIntervals] == 0 {
		return nil
	}
	return &DetectionTip{
		Priority: 7,
		RuleID:   "flux_only",
		Message: fmt.Sprintf("All events came from spectral flux peaks, so their boundaries are fixed %gs windows "+
			"rather than measured onsets.", 2*detection.FluxWindowRadius),
	}
}

// tipFluxDominates fires when flux candidates far outnumber energy candidates.
// Closely spaced transients each get their own overlapping window.
func tipFluxDominates(s *DetectionSummary) *DetectionTip {
	energy := s.Counts[detection.StageEnergyIntervals]
	flux := s.Counts[detection.StageFluxIntervals]
	if energy == 0 || flux <= fluxDominanceRatio*energy {
		return nil
	}
	return &DetectionTip{
		Priority: 6,
		RuleID:   "flux_dominates",
		Message: fmt.Sprintf("Spectral flux produced %d candidates against %d from energy - rain or crackle may be "+
			"adding peaks; consider raising the spectral threshold.", flux, energy),
	}
}

// tipNoisyFloor fires when the background is loud enough to hold the
// energy envelope above threshold.
func tipNoisyFloor(s *DetectionSummary) *DetectionTip {
	if s.Measurements == nil || s.Measurements.NoiseFloor <= noisyFloorDB {
		return nil
	}
	return &DetectionTip{
		Priority: 6,
		RuleID:   "noise_floor",
		Message: fmt.Sprintf("The background noise floor is high (%.1f dBFS) - wind or rain may be triggering detections; "+
			"enable the band-pass filter or raise the energy threshold.", s.Measurements.NoiseFloor),
	}
}

// tipShortRecording fires for recordings shorter than a long rumble.
func tipShortRecording(s *DetectionSummary) *DetectionTip {
	if s.Duration <= 0 || s.Duration >= shortRecordingSecs {
		return nil
	}
	return &DetectionTip{
		Priority: 5,
		RuleID:   "short_recording",
		Message: fmt.Sprintf("The recording is only %.1fs long - rolling thunder can outlast that, so events may be cut off.",
			s.Duration),
	}
}

// tipEventAtEdge fires when an event touches either end of the recording.
func tipEventAtEdge(s *DetectionSummary) *DetectionTip {
	if len(s.Events) == 0 || s.Duration <= 0 {
		return nil
	}
	tolerance := edgeToleranceFraction * s.Duration
	first, last := s.Events[0], s.Events[len(s.Events)-1]
	if first.Start > tolerance && last.End < s.Duration-tolerance {
		return nil
	}
	return &DetectionTip{
		Priority: 4,
		RuleID:   "event_at_edge",
		Message:  "An event touches the start or end of the recording and is probably truncated - record a few seconds either side of the storm.",
	}
}
