// Package ui provides the Bubbletea terminal user interface for thunderwild
package ui

import (
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusPreprocessing
	StatusDetecting
	StatusComplete
	StatusError
)

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath  string
	OutputPath string
	Status     FileStatus

	// Phase tracking
	CurrentPhase int
	Stage        string

	// Progress tracking (percentage-based)
	Progress    float64 // 0.0 to 1.0 within the phase
	StartTime   time.Time
	ElapsedTime time.Duration

	// Item counts reported by detection stages so far
	Counts map[string]int

	// Completion results
	Events    int
	Duration  float64
	PeakLevel float64

	Error error
}

// Model is the Bubbletea model for the detection UI
type Model struct {
	// File queue
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int
	TotalEvents    int

	// Global state
	StartTime time.Time
	Done      bool

	// Channel for receiving progress updates from the pipeline
	ProgressChan chan tea.Msg

	// Terminal dimensions
	Width  int
	Height int

	log logrus.FieldLogger
}

// NewModel creates a new UI model with the given input files.
// Message handling is traced to logger at debug level; nil discards it.
func NewModel(inputFiles []string, logger logrus.FieldLogger) Model {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1, // No file processing yet
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100),
		log:          logger.WithField("component", "ui"),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update routes pipeline messages to their handlers. Every pipeline message
// re-arms the wait on ProgressChan; AllCompleteMsg ends the program.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key := msg.String(); key == "q" || key == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		m.log.Debugf("window size: %dx%d", m.Width, m.Height)
		return m, nil

	case ProgressMsg:
		m.onProgress(msg)
	case FileStartMsg:
		m.onFileStart(msg)
	case FileCompleteMsg:
		m.onFileComplete(msg)

	case AllCompleteMsg:
		m.log.Debug("all files complete")
		m.Done = true
		return m, tea.Quit

	default:
		return m, nil
	}
	return m, waitForProgress(m.ProgressChan)
}

// active returns the file being processed, or nil before the first start
func (m *Model) active() *FileProgress {
	if m.CurrentIndex < 0 || m.CurrentIndex >= len(m.Files) {
		return nil
	}
	return &m.Files[m.CurrentIndex]
}

func (m *Model) onProgress(msg ProgressMsg) {
	m.log.WithField("stage", msg.Stage).Debugf("progress: phase %d, %.1f%%", msg.Phase, msg.Progress*100)
	if file := m.active(); file != nil {
		*file = updateFileProgress(*file, msg)
	}
}

func (m *Model) onFileStart(msg FileStartMsg) {
	m.log.WithField("file", msg.FileName).Debugf("file start: index=%d", msg.FileIndex)
	if msg.FileIndex < 0 || msg.FileIndex >= len(m.Files) {
		return
	}
	m.CurrentIndex = msg.FileIndex
	file := m.active()
	file.Status = StatusPreprocessing
	file.CurrentPhase = PhasePreprocess
	file.StartTime = time.Now()
}

func (m *Model) onFileComplete(msg FileCompleteMsg) {
	m.log.Debugf("file complete: index=%d", msg.FileIndex)
	file := m.active()
	if file == nil {
		return
	}
	file.ElapsedTime = time.Since(file.StartTime)
	file.OutputPath = msg.OutputPath
	if msg.Error != nil {
		file.Status = StatusError
		file.Error = msg.Error
		m.FailedFiles++
		return
	}

	file.Status = StatusComplete
	file.Events = msg.Events
	file.Duration = msg.Duration
	file.PeakLevel = msg.PeakLevel
	m.CompletedFiles++
	m.TotalEvents += msg.Events
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\nCurrent: %d\n", len(m.Files), m.CurrentIndex)
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	fp.Progress = msg.Progress
	fp.CurrentPhase = msg.Phase
	fp.Stage = msg.Stage
	fp.ElapsedTime = time.Since(fp.StartTime)

	switch msg.Phase {
	case PhasePreprocess:
		fp.Status = StatusPreprocessing
	case PhaseDetect:
		fp.Status = StatusDetecting
		if fp.Counts == nil {
			fp.Counts = make(map[string]int)
		}
		fp.Counts[msg.Stage] = msg.Count
	}

	return fp
}

// waitForProgress creates a command that waits for progress messages
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
