package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/pageflow/pkg/core"
	"github.com/devicelab-dev/pageflow/pkg/logger"
)

// Reporter collects events from every execution unit.
// All state sits behind one mutex, held only for appends and counter updates.
type Reporter struct {
	sink  Sink
	runID string
	start time.Time

	mu       sync.Mutex
	counters map[string]int         // unit -> next step number
	current  map[string]*TestRecord // unit -> running test
	tests    []*TestRecord          // in start order
	meta     []string
}

// New creates a reporter that flushes to sink.
func New(sink Sink) *Reporter {
	return &Reporter{
		sink:     sink,
		runID:    uuid.NewString(),
		start:    time.Now(),
		counters: make(map[string]int),
		current:  make(map[string]*TestRecord),
	}
}

// RunID returns the id of this run.
func (r *Reporter) RunID() string {
	return r.runID
}

// SetMeta sets the run-level description lines (environment, device, ...).
func (r *Reporter) SetMeta(lines []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta = append([]string(nil), lines...)
}

// StartTest opens a new test attempt for unit and returns its id.
func (r *Reporter) StartTest(unit, name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	attempt := 1
	for _, t := range r.tests {
		if t.Name == name {
			attempt++
		}
	}
	rec := &TestRecord{
		ID:        fmt.Sprintf("test-%03d", len(r.tests)+1),
		Name:      name,
		Unit:      unit,
		Attempt:   attempt,
		Status:    core.StatusRunning,
		StartTime: time.Now(),
		Events:    []Event{},
	}
	r.tests = append(r.tests, rec)
	r.current[unit] = rec
	return rec.ID
}

// ResetStepCounter restarts unit's numbering at 1.
func (r *Reporter) ResetStepCounter(unit string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[unit] = 1
}

// AddInfo records an informational step.
func (r *Reporter) AddInfo(unit, message string) {
	r.append(unit, KindInfo, message, "")
}

// AddScreenshot captures the screen and records it as a step. A capture
// failure is logged and the step is recorded without media.
func (r *Reporter) AddScreenshot(unit string, shooter core.Screenshotter, message string) {
	media := r.capture(unit, shooter)
	r.append(unit, KindScreenshot, message, media)
}

// ReportPass records the passing verdict of the unit's test.
func (r *Reporter) ReportPass(unit, message string) {
	r.append(unit, KindPass, message, "")
}

// ReportFail records the failing verdict of the unit's test.
func (r *Reporter) ReportFail(unit, message string) {
	r.append(unit, KindFail, message, "")
}

// ReportInfo records a neutral verdict, used for skipped tests.
func (r *Reporter) ReportInfo(unit, message string) {
	r.append(unit, KindInfo, message, "")
}

// EndTest closes the unit's running test with status.
func (r *Reporter) EndTest(unit string, status core.TestStatus, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.current[unit]
	if !ok {
		return
	}
	now := time.Now()
	rec.Status = status
	rec.EndTime = &now
	rec.Duration = now.Sub(rec.StartTime).Milliseconds()
	if err != nil {
		rec.Error = err.Error()
	}
	delete(r.current, unit)
}

// Tests returns a snapshot of every test attempt so far.
func (r *Reporter) Tests() []TestRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Flush writes every test, events in submission order, to the sink.
// Calling it again rewrites the same content.
func (r *Reporter) Flush() error {
	r.mu.Lock()
	rep := &Report{
		Version:   Version,
		RunID:     r.runID,
		StartTime: r.start,
		EndTime:   time.Now(),
		Meta:      append([]string(nil), r.meta...),
		Tests:     r.snapshotLocked(),
	}
	r.mu.Unlock()

	for _, t := range rep.Tests {
		rep.Summary.Total++
		switch t.Status {
		case core.StatusPassed:
			rep.Summary.Passed++
		case core.StatusFailed:
			rep.Summary.Failed++
		case core.StatusSkipped:
			rep.Summary.Skipped++
		}
	}

	if r.sink == nil {
		return nil
	}
	if err := r.sink.Write(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("report written: %d tests, %d passed, %d failed, %d skipped",
		rep.Summary.Total, rep.Summary.Passed, rep.Summary.Failed, rep.Summary.Skipped)
	return nil
}

// ForUnit returns a view bound to unit that screenshots through shooter.
func (r *Reporter) ForUnit(unit string, shooter core.Screenshotter) *Steps {
	return &Steps{reporter: r, unit: unit, shooter: shooter}
}

func (r *Reporter) append(unit string, kind EventKind, message, media string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.counters[unit]
	if !ok {
		step = 1
	}
	r.counters[unit] = step + 1

	ev := Event{
		Step:      step,
		Kind:      kind,
		Message:   message,
		Media:     media,
		Timestamp: time.Now(),
		Unit:      unit,
	}

	rec, ok := r.current[unit]
	if !ok {
		logger.ForUnit(unit).Warnf("event outside of a test dropped: %s", ev.Label())
		return
	}
	rec.Events = append(rec.Events, ev)
	logger.ForUnit(unit).WithField("test", rec.Name).Info(ev.Label())
}

func (r *Reporter) capture(unit string, shooter core.Screenshotter) string {
	if shooter == nil {
		return ""
	}
	png, err := shooter.Screenshot()
	if err != nil {
		logger.ForUnit(unit).WithError(err).Warn("screenshot failed")
		return ""
	}
	if r.sink == nil || len(png) == 0 {
		return ""
	}

	r.mu.Lock()
	testID := ""
	if rec, ok := r.current[unit]; ok {
		testID = rec.ID
	}
	r.mu.Unlock()

	path, err := r.sink.SaveMedia(testID, png)
	if err != nil {
		logger.ForUnit(unit).WithError(err).Warn("failed to save screenshot")
		return ""
	}
	return path
}

func (r *Reporter) snapshotLocked() []TestRecord {
	out := make([]TestRecord, len(r.tests))
	for i, t := range r.tests {
		out[i] = *t
		out[i].Events = append([]Event(nil), t.Events...)
		if t.EndTime != nil {
			end := *t.EndTime
			out[i].EndTime = &end
		}
	}
	return out
}

// Steps is the reporter as seen by one execution unit.
type Steps struct {
	reporter *Reporter
	unit     string
	shooter  core.Screenshotter
}

// Unit returns the bound execution unit.
func (s *Steps) Unit() string {
	return s.unit
}

// Info records an informational step.
func (s *Steps) Info(message string) {
	s.reporter.AddInfo(s.unit, message)
}

// Infof records a formatted informational step.
func (s *Steps) Infof(format string, args ...interface{}) {
	s.reporter.AddInfo(s.unit, fmt.Sprintf(format, args...))
}

// Screenshot records a step with the current screen attached.
func (s *Steps) Screenshot(message string) {
	s.reporter.AddScreenshot(s.unit, s.shooter, message)
}
