package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"
	"github.com/linuxmatters/thunderwild/internal/cli"
	"github.com/linuxmatters/thunderwild/internal/config"
	"github.com/sirupsen/logrus"
)

var (
	version = "0.0.1"
)

const debugLogFile = "thunderwild-debug.log"

// versionFlag prints the styled version banner and exits
type versionFlag bool

func (v versionFlag) BeforeReset(app *kong.Kong, vars kong.Vars) error {
	cli.PrintVersion(vars["version"])
	app.Exit(0)
	return nil
}

// Globals are flags shared by every command
type Globals struct {
	Version  versionFlag `short:"v" help:"Show version information"`
	LogLevel string      `help:"Debug log level" enum:"debug,info,warn,error" default:"info"`

	log   *logrus.Logger
	clock clockwork.Clock
}

// CLI defines the command-line interface
type CLI struct {
	Globals

	Detect         DetectCmd         `cmd:"" help:"Detect thunder events in WAV recordings"`
	Features       FeaturesCmd       `cmd:"" help:"Extract acoustic features for detected events"`
	Distance       DistanceCmd       `cmd:"" help:"Estimate strike distances from flash times"`
	Report         ReportCmd         `cmd:"" help:"Build a Markdown analysis report"`
	ValidateConfig ValidateConfigCmd `cmd:"" name:"validate-config" help:"Check a configuration file for problems"`
	MigrateConfig  MigrateConfigCmd  `cmd:"" name:"migrate-config" help:"Convert a legacy configuration file"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("thunderwild"),
		kong.Description("Thunder event detection for field recordings"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	log, closeLog := newLogger(cliArgs.LogLevel)
	defer closeLog()
	cliArgs.log = log
	cliArgs.clock = clockwork.NewRealClock()

	log.WithField("command", ctx.Command()).Info("thunderwild " + version)
	if err := ctx.Run(&cliArgs.Globals); err != nil {
		log.WithError(err).Error("command failed")
		closeLog()
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// newLogger opens the debug log file. When the file cannot be created the
// logger discards everything.
func newLogger(level string) (*logrus.Logger, func()) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}

	debugLog, err := os.Create(debugLogFile)
	if err != nil {
		log.SetOutput(io.Discard)
		return log, func() {}
	}
	log.SetOutput(debugLog)
	return log, func() { debugLog.Close() }
}

// teeStdout adds stdout to the logger's output, used by --plain runs
func teeStdout(log *logrus.Logger) {
	log.SetOutput(io.MultiWriter(log.Out, os.Stdout))
}

// loadConfig returns the defaults when path is empty
func loadConfig(path string, log logrus.FieldLogger) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	reports := config.Validate(cfg)
	for _, r := range reports {
		for _, issue := range r.Issues {
			log.WithField("section", r.Section).Warn(issue)
		}
	}
	if n := config.TotalIssues(reports); n > 0 {
		cli.PrintWarning(fmt.Sprintf("%s has %d configuration issue(s); run validate-config for details", path, n))
	}
	return cfg, nil
}
