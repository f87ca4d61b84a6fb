package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/linuxmatters/thunderwild/internal/audio"
	"github.com/linuxmatters/thunderwild/internal/cli"
	"github.com/linuxmatters/thunderwild/internal/config"
	"github.com/linuxmatters/thunderwild/internal/detection"
	"github.com/linuxmatters/thunderwild/internal/export"
	"github.com/linuxmatters/thunderwild/internal/logging"
	"github.com/linuxmatters/thunderwild/internal/metadata"
	"github.com/linuxmatters/thunderwild/internal/processor"
	"github.com/linuxmatters/thunderwild/internal/ui"
	"github.com/sirupsen/logrus"
)

// DetectCmd runs pre-processing and event detection over each file
type DetectCmd struct {
	Files  []string `arg:"" name:"files" help:"WAV recordings to analyse" type:"existingfile"`
	Config string   `short:"c" type:"path" help:"Path to YAML config file (optional)"`

	EnergyThreshold   *float64 `help:"Energy threshold relative to the envelope maximum (overrides config)" placeholder:"ratio"`
	SpectralThreshold *float64 `help:"Spectral flux threshold relative to its maximum (overrides config)" placeholder:"ratio"`
	MergeGap          *float64 `help:"Merge events closer than this many seconds (overrides config)" placeholder:"secs"`

	OutputDir    string `short:"o" type:"path" help:"Directory for events and metadata (default: alongside each input)"`
	Source       string `help:"Source URL recorded in run metadata (default: input path)"`
	NoPreprocess  bool   `help:"Detect on the raw signal"`
	SaveProcessed bool   `help:"Write the pre-processed signal as <name>-processed.wav"`
	SaveConfig    bool   `help:"Write the effective configuration as <name>-config.yaml"`
	Logs          bool   `help:"Save detailed analysis logs"`
	Plain         bool   `help:"Print results to the console instead of the interactive UI"`
}

// detectStages orders the detection stages for progress reporting
var detectStages = []detection.Stage{
	detection.StageEnergyEnvelope,
	detection.StageSpectralFlux,
	detection.StageEnergyIntervals,
	detection.StageFluxIntervals,
	detection.StageMerged,
	detection.StageEvents,
}

// fileResult is everything one detect run produced for a file
type fileResult struct {
	EventsPath string
	Report     logging.ReportData
	Meta       *audio.Metadata
	Compliance []string
}

// Run detects thunder in every file. A failing file is reported and the
// remaining files are still processed.
func (c *DetectCmd) Run(g *Globals) error {
	log := g.log
	if c.Plain {
		teeStdout(log)
	}

	cfg, err := loadConfig(c.Config, log)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)

	if c.Plain {
		return c.runPlain(cfg, log, g.clock)
	}

	// Create the Bubbletea UI model
	model := ui.NewModel(c.Files, log)

	// Start the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Start processing in background
	go func() {
		for i, inputPath := range c.Files {
			fileLog := log.WithField("file", inputPath)
			fileLog.Debugf("sending FileStartMsg for file %d", i)
			p.Send(ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			})

			result, err := c.processFile(inputPath, cfg, fileLog, g.clock, func(msg tea.Msg) { p.Send(msg) })
			if err != nil {
				fileLog.WithError(err).Error("detection failed")
				p.Send(ui.FileCompleteMsg{
					FileIndex: i,
					Error:     err,
				})
				continue
			}

			complete := ui.FileCompleteMsg{
				FileIndex:  i,
				Events:     len(result.Report.Events),
				Duration:   result.Report.DurationSecs,
				OutputPath: result.EventsPath,
			}
			if result.Report.Processed != nil {
				complete.PeakLevel = result.Report.Processed.PeakDB
			}
			p.Send(complete)
		}

		log.Debug("sending AllCompleteMsg")
		p.Send(ui.AllCompleteMsg{})
	}()

	// Run the program
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	if m, ok := final.(ui.Model); ok && m.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed; see %s", m.FailedFiles, m.TotalFiles, debugLogFile)
	}
	return nil
}

func (c *DetectCmd) runPlain(cfg *config.Config, log *logrus.Logger, clock clockwork.Clock) error {
	failed := 0
	for _, inputPath := range c.Files {
		fileLog := log.WithField("file", inputPath)
		result, err := c.processFile(inputPath, cfg, fileLog, clock, nil)
		if err != nil {
			fileLog.WithError(err).Error("detection failed")
			cli.PrintError(fmt.Sprintf("%s: %v", inputPath, err))
			failed++
			continue
		}

		logging.DisplayDetectionResults(os.Stdout, logging.DisplayResult{
			InputPath:  inputPath,
			OutputPath: result.EventsPath,
			Metadata:   result.Meta,
			Preprocess: result.Report.Preprocess,
			Counts:     result.Report.Counts,
			Events:     result.Report.Events,
			Tips:       logging.GenerateDetectionTips(result.Report.Summary()),
			Compliance: result.Compliance,
		})
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(c.Files))
	}
	return nil
}

// applyOverrides copies explicitly given flags over the loaded config
func (c *DetectCmd) applyOverrides(cfg *config.Config) {
	if c.EnergyThreshold != nil {
		cfg.Detection.EnergyThreshold = *c.EnergyThreshold
	}
	if c.SpectralThreshold != nil {
		cfg.Detection.SpectralThreshold = *c.SpectralThreshold
	}
	if c.MergeGap != nil {
		cfg.Detection.MergeGap = *c.MergeGap
	}
}

// outputPaths returns the events CSV and metadata paths for an input file
func (c *DetectCmd) outputPaths(inputPath string) (events, meta string) {
	return c.outputPath(inputPath, "-events.csv"), c.outputPath(inputPath, "-meta.json")
}

// outputPath names an output for inputPath: <dir>/<name><suffix>
func (c *DetectCmd) outputPath(inputPath, suffix string) string {
	dir := c.OutputDir
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	name := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(dir, name+suffix)
}

// processFile loads, pre-processes and analyses one file, then writes its
// events, metadata and optional outputs. Timings come from clock. send may be nil.
func (c *DetectCmd) processFile(inputPath string, cfg *config.Config, log logrus.FieldLogger, clock clockwork.Clock, send func(tea.Msg)) (*fileResult, error) {
	if send == nil {
		send = func(tea.Msg) {}
	}
	fileStartTime := clock.Now()

	// Reject over-long recordings from the header before decoding them
	info, err := audio.Info(inputPath)
	if err != nil {
		return nil, err
	}
	if cfg.Audio.MaxDuration > 0 && info.Duration > cfg.Audio.MaxDuration {
		return nil, fmt.Errorf("failed to validate %s: %w: %.1fs > %.1fs",
			filepath.Base(inputPath), audio.ErrTooLong, info.Duration, cfg.Audio.MaxDuration)
	}

	sig, meta, err := audio.Load(inputPath)
	if err != nil {
		return nil, err
	}
	if err := audio.Validate(sig, cfg.Audio.MinDuration, cfg.Audio.MaxDuration); err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", filepath.Base(inputPath), err)
	}
	if cfg.Audio.SampleRate > 0 && meta.SampleRate != cfg.Audio.SampleRate {
		log.Warnf("sample rate %d Hz differs from configured %d Hz", meta.SampleRate, cfg.Audio.SampleRate)
	}
	loadTime := clock.Since(fileStartTime)
	log.WithFields(logrus.Fields{
		"samples":     len(sig.Samples),
		"sample_rate": sig.SampleRate,
		"duration":    sig.Duration(),
	}).Info("audio loaded")

	processed := sig
	var prep *processor.Report
	var preprocessTime time.Duration
	if !c.NoPreprocess {
		preprocessStart := clock.Now()
		processed, prep, err = processor.Preprocess(sig, cfg.Preprocessing, func(stage string, progress float64) {
			log.WithField("stage", stage).Debugf("pre-processing %.0f%%", progress*100)
			send(ui.ProgressMsg{Phase: ui.PhasePreprocess, Stage: stage, Progress: progress})
		})
		if err != nil {
			return nil, err
		}
		preprocessTime = clock.Since(preprocessStart)
		for _, note := range prep.Adjustments {
			log.Info(note)
		}

		if c.SaveProcessed {
			path := c.outputPath(inputPath, "-processed.wav")
			if err := audio.Save(path, processed, meta.BitDepth, true); err != nil {
				return nil, err
			}
			log.WithField("path", path).Info("pre-processed audio saved")
		}
	}

	detectStart := clock.Now()
	counts := make(map[detection.Stage]int, len(detectStages))
	events := detection.Detect(processed, cfg.Detection, func(stage detection.Stage, count int) {
		counts[stage] = count
		log.WithFields(logrus.Fields{"stage": stage, "count": count}).Debug("detection stage complete")
		send(ui.ProgressMsg{
			Phase:    ui.PhaseDetect,
			Stage:    string(stage),
			Progress: stageProgress(stage),
			Count:    count,
		})
	})
	detectTime := clock.Since(detectStart)

	if len(events) == 0 {
		log.Warn("no events detected; adjust thresholds if needed")
	}
	for i, ev := range events {
		log.WithField("events", len(events)).Infof("event %d: %.2fs - %.2fs (duration: %.2fs, peak: %.4f)",
			i+1, ev.Start, ev.End, ev.Duration, ev.PeakAmplitude)
	}

	eventsPath, metaPath := c.outputPaths(inputPath)
	if err := export.WriteEventsCSV(eventsPath, events); err != nil {
		return nil, err
	}
	log.WithField("path", eventsPath).Info("events saved")

	source := c.Source
	if source == "" {
		source = inputPath
	}
	runMeta, err := metadata.New(source, cfg, clock)
	if err != nil {
		return nil, err
	}
	runMeta.Version = version
	if err := metadata.Save(runMeta.WithResults(len(events), sig.Duration()), metaPath); err != nil {
		return nil, err
	}
	log.WithField("path", metaPath).Info("metadata saved")

	compliance := metadata.ComplianceNotice(runMeta)
	for _, line := range compliance {
		log.WithField("run_id", runMeta.RunID).Info(line)
	}

	if c.SaveConfig {
		path := c.outputPath(inputPath, "-config.yaml")
		if err := config.Write(path, cfg); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{"path": path, "config_hash": runMeta.ConfigHash}).Info("configuration saved")
	}

	report := logging.ReportData{
		InputPath:      inputPath,
		EventsPath:     eventsPath,
		StartTime:      fileStartTime,
		EndTime:        clock.Now(),
		LoadTime:       loadTime,
		PreprocessTime: preprocessTime,
		DetectTime:     detectTime,
		SampleRate:     meta.SampleRate,
		Channels:       meta.Channels,
		DurationSecs:   meta.Duration,
		Preprocess:     prep,
		Processed:      processor.AnalyzeAudio(processed),
		Detection:      cfg.Detection,
		Counts:         counts,
		Events:         events,
	}

	// Generate analysis report if --logs flag is set
	if c.Logs {
		if err := logging.GenerateReport(report); err != nil {
			log.WithError(err).Warn("failed to generate log file")
		}
	}

	return &fileResult{EventsPath: eventsPath, Report: report, Meta: meta, Compliance: compliance}, nil
}

// stageProgress is the fraction of detection complete once stage has run
func stageProgress(stage detection.Stage) float64 {
	for i, s := range detectStages {
		if s == stage {
			return float64(i+1) / float64(len(detectStages))
		}
	}
	return 0
}
