package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Sink persists media and the final report.
type Sink interface {
	// SaveMedia stores a PNG and returns a path relative to the report.
	SaveMedia(testID string, png []byte) (string, error)
	// Write stores the whole report.
	Write(rep *Report) error
}

// JSONSink writes report.json and an assets/ directory under Dir.
type JSONSink struct {
	Dir string
}

// NewJSONSink creates a sink rooted at dir.
func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{Dir: dir}
}

// Path returns the report file path.
func (s *JSONSink) Path() string {
	return filepath.Join(s.Dir, "report.json")
}

// SaveMedia writes png to assets/<uuid>.png.
func (s *JSONSink) SaveMedia(testID string, png []byte) (string, error) {
	assetsDir := filepath.Join(s.Dir, "assets")
	if err := ensureDir(assetsDir); err != nil {
		return "", err
	}

	name := uuid.NewString() + ".png"
	if err := os.WriteFile(filepath.Join(assetsDir, name), png, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot for %s: %w", testID, err)
	}
	return filepath.ToSlash(filepath.Join("assets", name)), nil
}

// Write atomically replaces report.json.
func (s *JSONSink) Write(rep *Report) error {
	if err := ensureDir(s.Dir); err != nil {
		return err
	}
	return atomicWriteJSON(s.Path(), rep)
}

// ensureDir creates dir and its parents.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// atomicWriteJSON writes v to a temp file next to path and renames it into
// place, so readers never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}

// MemorySink keeps everything in memory, for tests.
type MemorySink struct {
	mu     sync.Mutex
	media  map[string][]byte
	writes int
	last   *Report

	// MediaErr makes SaveMedia fail.
	MediaErr error
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{media: make(map[string][]byte)}
}

// SaveMedia stores png under a generated name.
func (s *MemorySink) SaveMedia(testID string, png []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.MediaErr != nil {
		return "", s.MediaErr
	}
	path := fmt.Sprintf("mem/%s/%d.png", testID, len(s.media)+1)
	s.media[path] = png
	return path, nil
}

// Write stores rep.
func (s *MemorySink) Write(rep *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	s.last = rep
	return nil
}

// Last returns the most recently written report.
func (s *MemorySink) Last() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Writes returns how many times Write was called.
func (s *MemorySink) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Media returns the stored bytes for path.
func (s *MemorySink) Media(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media[path]
}
