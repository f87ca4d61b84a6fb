package ui

// Detection phases reported in ProgressMsg
const (
	PhasePreprocess = 1
	PhaseDetect     = 2
)

// ProgressMsg represents a progress update from the pipeline
type ProgressMsg struct {
	Phase    int     // PhasePreprocess or PhaseDetect
	Stage    string  // pre-processing stage or detection.Stage name
	Progress float64 // 0.0 to 1.0 within the phase
	Count    int     // items the detection stage produced, 0 for pre-processing
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex  int
	Events     int
	Duration   float64 // seconds of audio
	PeakLevel  float64 // dBFS of the loudest event, 0 when there are none
	OutputPath string
	Error      error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
