// Package logger is the process-wide log facade. It writes through logrus and
// can additionally route each execution unit's entries into its own file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// UnitField is the entry field that carries the execution unit id.
const UnitField = "unit"

var (
	std     = newLogger()
	logFile *os.File
	units   *unitHook
	mu      sync.Mutex
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000000",
	})
	return l
}

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	std.SetOutput(f)
	return nil
}

// SetOutput sends log output to w instead of the log file.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// SetLevel sets the minimum level; unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// RouteUnits additionally writes every entry that carries a unit field to
// <dir>/<unit>.log.
func RouteUnits(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create unit log dir: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if units != nil {
		units.close()
	}
	units = &unitHook{
		dir:   dir,
		files: make(map[string]*os.File),
		formatter: &logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000000",
		},
	}
	hooks := make(logrus.LevelHooks)
	hooks.Add(units)
	std.ReplaceHooks(hooks)
	return nil
}

// UnitLogPath returns the file RouteUnits writes for unit, or "" if routing is off.
func UnitLogPath(unit string) string {
	mu.Lock()
	defer mu.Unlock()

	if units == nil {
		return ""
	}
	return units.path(unit)
}

// Close closes the log file and any per-unit files.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	std.ReplaceHooks(make(logrus.LevelHooks))
	std.SetOutput(io.Discard)
	if units != nil {
		units.close()
		units = nil
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// ForUnit returns an entry tagged with the execution unit id.
func ForUnit(unit string) *logrus.Entry {
	return std.WithField(UnitField, unit)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	std.Infof(format, v...)
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	std.Debugf(format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	std.Errorf(format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	std.Warnf(format, v...)
}

// unitHook appends unit-tagged entries to one file per unit.
type unitHook struct {
	mu        sync.Mutex
	dir       string
	files     map[string]*os.File
	formatter logrus.Formatter
}

func (h *unitHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *unitHook) Fire(entry *logrus.Entry) error {
	unit, ok := entry.Data[UnitField].(string)
	if !ok || unit == "" {
		return nil
	}

	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.files[unit]
	if !ok {
		f, err = os.OpenFile(h.path(unit), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		h.files[unit] = f
	}
	_, err = f.Write(line)
	return err
}

func (h *unitHook) path(unit string) string {
	return filepath.Join(h.dir, filepath.Base(unit)+".log")
}

func (h *unitHook) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for unit, f := range h.files {
		f.Close()
		delete(h.files, unit)
	}
}
