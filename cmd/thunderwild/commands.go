package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/thunderwild/internal/audio"
	"github.com/linuxmatters/thunderwild/internal/cli"
	"github.com/linuxmatters/thunderwild/internal/config"
	"github.com/linuxmatters/thunderwild/internal/distance"
	"github.com/linuxmatters/thunderwild/internal/export"
	"github.com/linuxmatters/thunderwild/internal/features"
	"github.com/linuxmatters/thunderwild/internal/logging"
	"github.com/linuxmatters/thunderwild/internal/metadata"
	"github.com/sirupsen/logrus"
)

// FeaturesCmd measures each event of an events file in its recording
type FeaturesCmd struct {
	Audio  string `arg:"" type:"existingfile" help:"WAV recording the events were detected in"`
	Events string `short:"e" required:"" type:"existingfile" help:"Events CSV written by detect"`
	Output string `short:"o" type:"path" help:"Features CSV (default: <events>-features.csv)"`
	Config string `short:"c" type:"path" help:"Path to YAML config file (optional)"`
}

func (c *FeaturesCmd) Run(g *Globals) error {
	log := g.log.WithField("file", c.Audio)
	cfg, err := loadConfig(c.Config, log)
	if err != nil {
		return err
	}

	sig, _, err := audio.Load(c.Audio)
	if err != nil {
		return err
	}
	events, err := export.ReadEventsCSV(c.Events)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("%w in %s; run detect first", export.ErrNoEvents, c.Events)
	}
	log.WithField("events", len(events)).Info("extracting features")

	set := features.ExtractAll(sig, events, cfg.Features)
	output := c.Output
	if output == "" {
		output = siblingPath(c.Events, "-features.csv")
	}
	if err := export.WriteFeaturesCSV(output, set); err != nil {
		return err
	}
	log.WithField("path", output).Info("features saved")
	cli.PrintSuccess(os.Stdout, fmt.Sprintf("Features for %d event(s) saved: %s", len(set), output))
	return nil
}

// DistanceCmd pairs events with lightning flash times
type DistanceCmd struct {
	Events      string   `short:"e" required:"" type:"existingfile" help:"Events CSV written by detect"`
	Flashes     string   `short:"f" required:"" type:"existingfile" help:"CSV of flash times in seconds, column flash_time or the first column"`
	Temperature *float64 `short:"t" help:"Air temperature in °C (default: config reference_temp)" placeholder:"celsius"`
	Output      string   `short:"o" type:"path" help:"Strikes CSV (default: <events>-strikes.csv)"`
	Config      string   `short:"c" type:"path" help:"Path to YAML config file (optional)"`
}

func (c *DistanceCmd) Run(g *Globals) error {
	log := g.log.WithField("file", c.Events)
	cfg, err := loadConfig(c.Config, log)
	if err != nil {
		return err
	}
	if !cfg.Distance.EnableFlashAlignment {
		return errors.New("flash alignment is disabled in the distance config")
	}

	temperature := cfg.Distance.ReferenceTemp
	if c.Temperature != nil {
		temperature = *c.Temperature
	}

	events, err := export.ReadEventsCSV(c.Events)
	if err != nil {
		return err
	}
	flashes, err := readFlashTimes(c.Flashes)
	if err != nil {
		return err
	}

	strikes := distance.AlignFlashes(events, flashes, temperature)
	for _, s := range strikes {
		if s.Alignment == nil {
			continue
		}
		est := distance.EstimateWithUncertainty(s.Alignment.TimeDelay, cfg.Distance.TimeDelayUncertainty,
			temperature, cfg.Distance.TemperatureUncertainty)
		log.WithFields(logrus.Fields{
			"event_start": s.Start,
			"flash_time":  s.Alignment.FlashTime,
			"category":    s.Alignment.Category,
		}).Infof("strike at %.0f m (%.0f-%.0f m)", est.Distance, est.Lower, est.Upper)
	}

	output := c.Output
	if output == "" {
		output = siblingPath(c.Events, "-strikes.csv")
	}
	if err := export.WriteStrikesCSV(output, strikes); err != nil {
		return err
	}
	cli.PrintSuccess(os.Stdout, fmt.Sprintf("%d of %d event(s) aligned to a flash at %.1f °C (%.1f m/s): %s",
		distance.Aligned(strikes), len(strikes), temperature, distance.SpeedOfSound(temperature), output))
	return nil
}

// readFlashTimes reads flash times from a CSV with a header row
func readFlashTimes(path string) ([]float64, error) {
	table, err := export.ReadTable(path)
	if err != nil {
		return nil, err
	}
	column := table.Column("flash_time")
	if column == nil && len(table.Header) > 0 {
		column = table.Column(table.Header[0])
	}

	var times []float64
	for _, v := range column {
		if !math.IsNaN(v) {
			times = append(times, v)
		}
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("no flash times in %s", path)
	}
	return times, nil
}

// ReportCmd renders the Markdown report for a finished analysis
type ReportCmd struct {
	Events   string `short:"e" required:"" type:"existingfile" help:"Events CSV written by detect"`
	Features string `type:"existingfile" help:"Features CSV written by features (optional)"`
	Meta     string `type:"existingfile" help:"Metadata JSON written by detect (optional)"`
	Config   string `short:"c" type:"existingfile" help:"Configuration the run should have used; checked against the metadata hash"`
	VizDir   string `type:"path" help:"Directory holding waveform, spectrogram and histogram plots"`
	Output   string `short:"o" type:"path" default:"report.md" help:"Markdown report path"`
}

func (c *ReportCmd) Run(g *Globals) error {
	events, err := export.ReadEventsCSV(c.Events)
	if err != nil {
		return err
	}

	if c.Config != "" && c.Meta == "" {
		return errors.New("--config needs --meta to check against")
	}

	data := logging.MarkdownData{
		Events:  events,
		VizDir:  c.VizDir,
		Version: version,
		Clock:   g.clock,
	}
	if c.Features != "" {
		if data.Features, err = export.ReadTable(c.Features); err != nil {
			return err
		}
	}
	if c.Meta != "" {
		if data.Metadata, err = metadata.Load(c.Meta); err != nil {
			return err
		}
	}
	if c.Config != "" {
		ok, err := reproducible(data.Metadata, c.Config)
		if err != nil {
			return err
		}
		if !ok {
			g.log.WithFields(logrus.Fields{"config": c.Config, "meta": c.Meta}).Warn("config hash differs from the analysed run")
			cli.PrintWarning(fmt.Sprintf("%s does not match the configuration recorded in %s", c.Config, c.Meta))
		}
	}

	if err := logging.SaveMarkdownReport(c.Output, data); err != nil {
		return err
	}
	g.log.WithFields(logrus.Fields{"path": c.Output, "events": len(events)}).Info("report saved")
	cli.PrintSuccess(os.Stdout, "Report saved: "+c.Output)
	return nil
}

// reproducible reports whether the config at path hashes the same as the
// configuration recorded in meta
func reproducible(meta *metadata.Metadata, path string) (bool, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return false, err
	}
	expected, err := metadata.New(meta.SourceURL, cfg, nil)
	if err != nil {
		return false, err
	}
	return metadata.VerifyReproducibility(expected, meta), nil
}

// ValidateConfigCmd prints the validation report and fails on any issue
type ValidateConfigCmd struct {
	Config string `arg:"" type:"existingfile" help:"Configuration YAML file"`
	JSON   bool   `help:"Output as JSON"`
}

func (c *ValidateConfigCmd) Run(g *Globals) error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	reports := config.Validate(cfg)
	total := config.TotalIssues(reports)

	if c.JSON {
		if err := writeValidationJSON(os.Stdout, reports, total); err != nil {
			return err
		}
	} else {
		writeValidationReport(os.Stdout, c.Config, cfg, reports, total)
	}

	if total > 0 {
		return fmt.Errorf("found %d issue(s) in %s", total, c.Config)
	}
	return nil
}

func writeValidationJSON(w io.Writer, reports []config.SectionReport, total int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	out := struct {
		Results     []config.SectionReport `json:"results"`
		TotalIssues int                    `json:"total_issues"`
	}{reports, total}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode validation report: %w", err)
	}
	return nil
}

func writeValidationReport(w io.Writer, path string, cfg *config.Config, reports []config.SectionReport, total int) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "Configuration: %s\n\n", path)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Configuration Validation Report")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	for _, r := range reports {
		fmt.Fprintf(w, "[%s]\n", strings.ToUpper(r.Section))
		fmt.Fprintf(w, "  Parameters: %d entries\n", len(r.Params))
		if r.OK() {
			fmt.Fprintln(w, "  ✓ No issues")
		} else {
			fmt.Fprintf(w, "  ⚠ Issues found: %d\n", len(r.Issues))
			for _, issue := range r.Issues {
				fmt.Fprintf(w, "    - %s\n", issue)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, rule)
	if total == 0 {
		fmt.Fprintln(w, "✓ Configuration is valid!")
	} else {
		fmt.Fprintf(w, "⚠ Found %d issue(s)\n", total)
	}
	fmt.Fprintln(w, rule)

	sr := float64(cfg.Audio.SampleRate)
	det := cfg.Detection
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Computed Values:")
	fmt.Fprintf(w, "  Sample rate: %d Hz\n", cfg.Audio.SampleRate)
	fmt.Fprintf(w, "  Nyquist frequency: %g Hz\n", sr/2)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Detection frame: %gms = %d samples\n", det.WindowSize*1000, int(det.WindowSize*sr))
	fmt.Fprintf(w, "  Detection hop: %gms = %d samples\n", det.HopLength*1000, int(det.HopLength*sr))
	if det.WindowSize > 0 {
		fmt.Fprintf(w, "  Frame overlap: %.1f%%\n", (det.WindowSize-det.HopLength)/det.WindowSize*100)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  STFT window: %d samples = %.1fms\n", cfg.Features.NFFT, float64(cfg.Features.NFFT)/sr*1000)
	fmt.Fprintf(w, "  STFT hop: %d samples = %.1fms\n", cfg.Features.HopLength, float64(cfg.Features.HopLength)/sr*1000)
	if cfg.Features.NFFT > 0 {
		fmt.Fprintf(w, "  STFT overlap: %.1f%%\n", float64(cfg.Features.NFFT-cfg.Features.HopLength)/float64(cfg.Features.NFFT)*100)
	}
}

// MigrateConfigCmd rewrites a legacy configuration in the sectioned layout
type MigrateConfigCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Legacy configuration YAML file"`
	Output string `arg:"" type:"path" help:"Migrated configuration YAML file"`
	DryRun bool   `help:"Print the migrated configuration without saving"`
}

func (c *MigrateConfigCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read legacy config: %w", err)
	}
	migrated, err := config.MigrateYAML(data)
	if err != nil {
		return err
	}

	if c.DryRun {
		rule := strings.Repeat("=", 60)
		fmt.Printf("%s\nMigrated Configuration (dry run)\n%s\n", rule, rule)
		os.Stdout.Write(migrated)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.Output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(c.Output, migrated, 0o644); err != nil {
		return fmt.Errorf("failed to write migrated config: %w", err)
	}
	g.log.WithFields(logrus.Fields{"input": c.Input, "output": c.Output}).Info("config migrated")
	cli.PrintSuccess(os.Stdout, "Migrated configuration saved: "+c.Output)
	fmt.Println()
	fmt.Println("Validation recommended:")
	fmt.Printf("  thunderwild validate-config %s\n", c.Output)
	return nil
}

// siblingPath swaps a trailing -events.csv (or any extension) for suffix
func siblingPath(eventsPath, suffix string) string {
	base := strings.TrimSuffix(eventsPath, filepath.Ext(eventsPath))
	return strings.TrimSuffix(base, "-events") + suffix
}
