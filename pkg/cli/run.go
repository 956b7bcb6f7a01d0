package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/driver/appium"
	"github.com/devicelab-dev/pageflow/pkg/logger"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/scenarios"
	"github.com/devicelab-dev/pageflow/pkg/suite"
)

// newBackend opens native sessions for the run command.
var newBackend = func() core.Backend { return appium.NewBackend() }

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run scenarios against the selected environment",
	ArgsUsage: "[scenario or tag...]",
	Description: `Runs the rider app scenarios. Arguments select scenarios by name or tag;
without arguments every scenario runs.

Examples:
  pageflow run
  pageflow run successfullyLogin
  pageflow run --workers 3 --retries 0 smoke`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Number of parallel sessions",
			Value:   1,
			EnvVars: []string{"PAGEFLOW_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "retries",
			Usage:   "Times a failed scenario is run again",
			Value:   suite.DefaultRetryLimit,
			EnvVars: []string{"PAGEFLOW_RETRIES"},
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Directory for reports (default: ./reports/<timestamp>)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Write reports directly into --output without a timestamp folder",
		},
		&cli.StringFlag{
			Name:  "log-dir",
			Usage: "Directory for per-unit log files (default: <output>/logs)",
		},
	},
	Action: runScenarios,
}

// RunConfig holds everything the run command resolved from flags.
type RunConfig struct {
	Filters   []string
	OutputDir string
	LogDir    string
	Workers   int
	Retries   int
	Verbose   bool
}

func runScenarios(c *cli.Context) error {
	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"))
	if err != nil {
		return err
	}
	cfg := &RunConfig{
		Filters:   c.Args().Slice(),
		OutputDir: outputDir,
		LogDir:    c.String("log-dir"),
		Workers:   c.Int("workers"),
		Retries:   c.Int("retries"),
		Verbose:   c.Bool("verbose"),
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.OutputDir, "logs")
	}
	if cfg.Retries < 0 {
		return fmt.Errorf("--retries must not be negative")
	}

	selected := scenarios.Select(scenarios.All(), cfg.Filters...)
	if len(selected) == 0 {
		return fmt.Errorf("no scenario matches %s", strings.Join(cfg.Filters, ", "))
	}

	env, err := loadEnvironment(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := logger.Init(filepath.Join(cfg.OutputDir, "pageflow.log")); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	if cfg.Verbose {
		logger.SetLevel("debug")
	}
	if err := logger.RouteUnits(cfg.LogDir); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", err)
	}

	logger.Info("=== Run started ===")
	logger.Info("Environment: %s", env.Name)
	logger.Info("Output directory: %s", cfg.OutputDir)
	logger.Info("Scenarios: %d, workers: %d, retries: %d", len(selected), cfg.Workers, cfg.Retries)

	sink := report.NewJSONSink(cfg.OutputDir)
	s, err := suite.New(suite.Config{
		Env:      env,
		Backend:  newBackend(),
		Reporter: report.New(sink),
		Workers:  cfg.Workers,
		Retry:    suite.LimitRetry{Limit: cfg.Retries},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := s.Run(ctx, selected)
	if res != nil {
		printSummary(c.App.Writer, res)
		fmt.Fprintf(c.App.Writer, "\n  Report: %s\n", sink.Path())
	}
	if runErr != nil {
		return runErr
	}
	if res.Status == core.StatusFailed {
		return fmt.Errorf("%d of %d scenarios failed", res.Failed, res.Total)
	}
	return nil
}

// resolveOutputDir determines the report directory.
//   - No --output: ./reports/<timestamp>/
//   - --output given: <output>/<timestamp>/
//   - --output + --flatten: <output>/
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = "./reports"
	}
	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}
