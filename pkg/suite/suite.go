// Package suite runs scenarios across parallel execution units, one automation
// session per unit, with test-level retries and a single report per run.
package suite

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/pageflow/pkg/caps"
	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
	"github.com/devicelab-dev/pageflow/pkg/report"
	"github.com/devicelab-dev/pageflow/pkg/session"
)

const separator = " -------- "

// Config wires a suite.
type Config struct {
	Env      *config.Environment
	Backend  core.Backend
	Reporter *report.Reporter
	// Workers is the number of parallel units. Zero means 1.
	Workers int
	// Retry defaults to LimitRetry{Limit: DefaultRetryLimit}.
	Retry RetryPolicy
}

// Suite runs scenarios against one environment.
type Suite struct {
	env      *config.Environment
	registry *session.Registry
	reporter *report.Reporter
	workers  int
	retry    RetryPolicy
}

// New creates a suite from cfg.
func New(cfg Config) (*Suite, error) {
	if cfg.Env == nil {
		return nil, core.ErrInvalidConfig.WithMessage("no environment")
	}
	if cfg.Backend == nil {
		return nil, core.ErrInvalidConfig.WithMessage("no backend")
	}
	if cfg.Reporter == nil {
		cfg.Reporter = report.New(nil)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Retry == nil {
		cfg.Retry = LimitRetry{Limit: DefaultRetryLimit}
	}
	return &Suite{
		env:      cfg.Env,
		registry: session.NewRegistry(cfg.Env, cfg.Backend),
		reporter: cfg.Reporter,
		workers:  cfg.Workers,
		retry:    cfg.Retry,
	}, nil
}

// Registry returns the session registry shared by the units.
func (s *Suite) Registry() *session.Registry { return s.registry }

// TestResult is the outcome of one scenario after all its attempts.
type TestResult struct {
	Name     string
	Unit     string
	Status   core.TestStatus
	Attempts int
	Error    string
	Duration time.Duration
}

// Result is the outcome of a run.
type Result struct {
	Status   core.TestStatus
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
	Tests    []TestResult
}

type workItem struct {
	scenario Scenario
	index    int
}

// Run executes scenarios using a work queue served by the suite's units.
// Sessions are closed and the report is flushed even when ctx is cancelled;
// scenarios not started by then are reported as skipped. A configuration
// error aborts the run before any session is opened or test recorded.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) (*Result, error) {
	if len(scenarios) == 0 {
		return nil, core.ErrInvalidConfig.WithMessage("no scenarios to run")
	}
	if err := s.preflight(); err != nil {
		logger.Error("Run aborted: %v", err)
		return nil, err
	}

	s.reporter.SetMeta(s.env.Summary())
	start := time.Now()

	queue := make(chan workItem, len(scenarios))
	for i, sc := range scenarios {
		queue <- workItem{scenario: sc, index: i}
	}
	close(queue)

	results := make([]TestResult, len(scenarios))
	workers := s.workers
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	var g errgroup.Group
	for i := 1; i <= workers; i++ {
		unit := fmt.Sprintf("unit-%d", i)
		g.Go(func() error {
			for item := range queue {
				// Each index is written by exactly one unit.
				results[item.index] = s.runScenario(ctx, unit, item.scenario)
			}
			return nil
		})
	}
	_ = g.Wait()

	s.registry.CloseAll()
	flushErr := s.reporter.Flush()

	res := buildResult(results, time.Since(start))
	if flushErr != nil {
		return res, fmt.Errorf("write report: %w", flushErr)
	}
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("run interrupted: %w", err)
	}
	return res, nil
}

// preflight resolves what every session will be opened with.
func (s *Suite) preflight() error {
	if _, err := caps.FromEnvironment(s.env); err != nil {
		return err
	}
	_, err := caps.ResolveEndpoint(s.env.DriverMode)
	return err
}

func (s *Suite) runScenario(ctx context.Context, unit string, sc Scenario) TestResult {
	start := time.Now()
	res := TestResult{Name: sc.Name, Unit: unit}

	for failures := 0; ; {
		if ctx.Err() != nil {
			s.skip(unit, sc, ctx.Err())
			res.Status = core.StatusSkipped
			res.Error = ctx.Err().Error()
			break
		}

		res.Attempts++
		retry, err := s.attempt(ctx, unit, sc, failures)
		if err == nil {
			res.Status = core.StatusPassed
			res.Error = ""
			break
		}
		failures++
		res.Status = core.StatusFailed
		res.Error = err.Error()
		if !retry {
			break
		}
	}

	res.Duration = time.Since(start)
	return res
}

// attempt runs sc once on unit and reports it. failures counts the earlier
// failed attempts. The test record is Skipped when the retry policy will run
// the scenario again.
func (s *Suite) attempt(ctx context.Context, unit string, sc Scenario, failures int) (retry bool, err error) {
	log := logger.ForUnit(unit).WithField("test", sc.Name)
	s.reporter.StartTest(unit, sc.Name)
	s.reporter.ResetStepCounter(unit)
	log.Info(separator + "Starting test " + sc.Name + separator)

	var shooter core.Screenshotter
	h, err := s.registry.Get(unit)
	if err == nil {
		s.registry.Reset(unit)
		shooter = h
		err = s.execute(ctx, unit, h, sc, s.reporter.ForUnit(unit, shooter))
	}

	retry = err != nil && ctx.Err() == nil && s.retry.ShouldRetry(sc.Name, failures+1, err)
	s.finish(unit, shooter, err, retry)
	if h != nil {
		if cerr := h.Close(); cerr != nil {
			log.WithError(cerr).Warn("close session")
		}
	}
	log.Info(separator + "Finished test " + sc.Name + separator)
	return retry, err
}

func (s *Suite) execute(ctx context.Context, unit string, h *session.Handle, sc Scenario, steps *report.Steps) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scenario %s panicked: %v", sc.Name, r)
		}
	}()
	t := &T{
		ctx:      ctx,
		unit:     unit,
		handle:   h,
		steps:    steps,
		timeouts: s.env.Timeouts,
	}
	return sc.Run(t)
}

func (s *Suite) finish(unit string, shooter core.Screenshotter, err error, retry bool) {
	log := logger.ForUnit(unit)
	capture := s.env.Capture

	if path := logger.UnitLogPath(unit); path != "" {
		s.reporter.AddInfo(unit, "The test logs have been saved in: "+path)
	}

	status := core.StatusPassed
	switch {
	case err == nil:
		log.Info("Test passed")
		if capture.ShouldCapture(core.StatusPassed) {
			s.reporter.AddScreenshot(unit, shooter, "Screenshot of passed test")
		}
	case retry:
		status = core.StatusSkipped
		log.WithError(err).Info("Test failure skipped, retry test")
		if capture.ShouldCapture(core.StatusSkipped) {
			s.reporter.AddScreenshot(unit, shooter, "Screenshot of skipped test")
		}
	default:
		status = core.StatusFailed
		log.WithError(err).Error("Test failed")
		if capture.ShouldCapture(core.StatusFailed) {
			s.reporter.AddScreenshot(unit, shooter, "Screenshot of failed test")
		}
	}

	for _, line := range s.env.Summary() {
		s.reporter.AddInfo(unit, separator+line+separator)
	}

	switch status {
	case core.StatusPassed:
		s.reporter.ReportPass(unit, "Test passed")
	case core.StatusSkipped:
		s.reporter.ReportInfo(unit, "Test failure skipped, retry test: "+err.Error())
	default:
		s.reporter.ReportFail(unit, err.Error())
	}
	s.reporter.EndTest(unit, status, err)
}

func (s *Suite) skip(unit string, sc Scenario, cause error) {
	s.reporter.StartTest(unit, sc.Name)
	s.reporter.ResetStepCounter(unit)
	s.reporter.ReportInfo(unit, "Test skipped: "+cause.Error())
	s.reporter.EndTest(unit, core.StatusSkipped, nil)
}

func buildResult(tests []TestResult, d time.Duration) *Result {
	res := &Result{Total: len(tests), Duration: d, Tests: tests}
	for _, t := range tests {
		switch t.Status {
		case core.StatusPassed:
			res.Passed++
		case core.StatusFailed:
			res.Failed++
		case core.StatusSkipped:
			res.Skipped++
		}
	}
	res.Status = core.StatusPassed
	if res.Failed > 0 {
		res.Status = core.StatusFailed
	}
	return res
}
