// Package report records numbered test steps per execution unit and writes
// them to a sink when the suite ends.
//
// Layout written by JSONSink:
//   - report.json: run summary and every test attempt with its events
//   - assets/: screenshots referenced by events
package report

import (
	"strconv"
	"time"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// EventKind classifies a report event.
type EventKind string

// Event kinds.
const (
	KindInfo       EventKind = "info"
	KindScreenshot EventKind = "screenshot"
	KindPass       EventKind = "pass"
	KindFail       EventKind = "fail"
)

// Event is one numbered step of a test.
type Event struct {
	Step      int       `json:"step"`
	Kind      EventKind `json:"kind"`
	Message   string    `json:"message"`
	Media     string    `json:"media,omitempty"` // Path relative to the report directory
	Timestamp time.Time `json:"timestamp"`
	Unit      string    `json:"unit"`
}

// Label returns the "N - message" form shown in reports.
func (e Event) Label() string {
	return strconv.Itoa(e.Step) + " - " + e.Message
}

// TestRecord is one attempt of one test.
type TestRecord struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Attempt   int             `json:"attempt"`
	Status    core.TestStatus `json:"status"`
	Error     string          `json:"error,omitempty"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	Duration  int64           `json:"duration,omitempty"` // milliseconds
	Events    []Event         `json:"events"`
}

// Summary counts test attempts by final status.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// Report is everything a sink receives on flush.
type Report struct {
	Version   string       `json:"version"`
	RunID     string       `json:"runId"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Meta      []string     `json:"meta,omitempty"`
	Summary   Summary      `json:"summary"`
	Tests     []TestRecord `json:"tests"`
}
