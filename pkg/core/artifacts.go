// Package core provides the session, command and error model shared by every
// pageflow package.
package core

// Screenshotter captures the current screen as PNG.
type Screenshotter interface {
	Screenshot() ([]byte, error)
}

// ScreenshotFunc adapts a function to Screenshotter.
type ScreenshotFunc func() ([]byte, error)

// Screenshot calls f.
func (f ScreenshotFunc) Screenshot() ([]byte, error) { return f() }

// Common content types
const (
	ContentTypePNG  = "image/png"
	ContentTypeText = "text/plain"
)

// CaptureConfig controls when a screenshot is attached to a finished test
type CaptureConfig struct {
	CaptureOnFailure bool `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSkip    bool `yaml:"captureOnSkip" json:"captureOnSkip"`       // Default: true
	CaptureOnSuccess bool `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
}

// DefaultCaptureConfig returns the defaults: failed and skipped tests get a screenshot.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		CaptureOnFailure: true,
		CaptureOnSkip:    true,
		CaptureOnSuccess: false,
	}
}

// ShouldCapture returns true if a screenshot should be captured for the given status
func (c CaptureConfig) ShouldCapture(status TestStatus) bool {
	switch status {
	case StatusFailed:
		return c.CaptureOnFailure
	case StatusSkipped:
		return c.CaptureOnSkip
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}

// NullScreenshotter is a no-op implementation for testing
type NullScreenshotter struct{}

// Screenshot returns nil (no-op)
func (NullScreenshotter) Screenshot() ([]byte, error) { return nil, nil }
