// Package config loads the per-environment settings a suite runs against.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

// DefaultEnvironment is used when no environment name is given.
const DefaultEnvironment = "prod"

// Environment represents one environment file (<configDir>/<name>.yaml).
type Environment struct {
	Name string `yaml:"-"`

	// Device settings
	Platform       string `yaml:"platform"`
	Device         string `yaml:"device"`
	OSVersion      string `yaml:"osVersion"`
	AutomationName string `yaml:"automationName"`

	// App under test
	App         string `yaml:"app"`
	AppPackage  string `yaml:"appPackage"`
	AppActivity string `yaml:"appActivity"`
	AppVersion  string `yaml:"appVersion"`
	Locale      string `yaml:"locale"`
	Language    string `yaml:"language"`

	// Execution settings
	DriverMode       string `yaml:"driverMode"` // Only "local" is supported
	Branch           string `yaml:"branch"`
	BuildName        string `yaml:"buildName"`
	Project          string `yaml:"project"`
	AdbExecTimeoutMs int    `yaml:"adbExecTimeoutMs"`

	// Extra capabilities merged over the derived ones
	Capabilities map[string]interface{} `yaml:"capabilities"`

	Timeouts Timeouts           `yaml:"timeouts"`
	Capture  core.CaptureConfig `yaml:"capture"`
}

// Timeouts holds every wait budget used by screens and widgets.
type Timeouts struct {
	Screen    time.Duration `yaml:"screen"`    // Screen load
	Widget    time.Duration `yaml:"widget"`    // Widget load
	Element   time.Duration `yaml:"element"`   // Visibility of a single element
	Poll      time.Duration `yaml:"poll"`      // Interval between checks
	Scroll    time.Duration `yaml:"scroll"`    // Settle time after a scroll gesture
	Press     time.Duration `yaml:"press"`     // Short swipe press duration
	LongPress time.Duration `yaml:"longPress"` // Long swipe press duration
}

// DefaultTimeouts returns the budgets used when the file sets none.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Screen:    10 * time.Second,
		Widget:    30 * time.Second,
		Element:   5 * time.Second,
		Poll:      500 * time.Millisecond,
		Scroll:    2 * time.Second,
		Press:     1500 * time.Millisecond,
		LongPress: 2000 * time.Millisecond,
	}
}

// Overrides holds values supplied on the command line or through the
// process environment. Empty fields leave the file value untouched.
type Overrides struct {
	Device     string
	OSVersion  string
	App        string
	AppVersion string
	DriverMode string
	Branch     string
}

// Load loads an environment from a file.
func Load(path string) (*Environment, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("cannot read environment file %s", path)).
			WithCause(err)
	}

	var env Environment
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("cannot parse environment file %s", path)).
			WithCause(err)
	}

	env.applyDefaults()
	return &env, nil
}

// LoadEnvironment looks for <name>.yaml or <name>.yml in dir.
// An empty name selects DefaultEnvironment.
func LoadEnvironment(dir, name string) (*Environment, error) {
	if name == "" {
		name = DefaultEnvironment
	}

	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		_, err := os.Stat(path)
		if err == nil {
			env, err := Load(path)
			if err != nil {
				return nil, err
			}
			env.Name = name
			return env, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, core.ErrInvalidConfig.WithCause(err)
		}
	}

	return nil, core.ErrInvalidConfig.
		WithMessage(fmt.Sprintf("environment %q not found in %s", name, dir)).
		WithDetails(map[string]interface{}{"environment": name, "dir": dir})
}

// Apply overwrites file values with every non-empty override.
func (e *Environment) Apply(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&e.Device, o.Device)
	set(&e.OSVersion, o.OSVersion)
	set(&e.App, o.App)
	set(&e.AppVersion, o.AppVersion)
	set(&e.DriverMode, o.DriverMode)
	set(&e.Branch, o.Branch)
}

// Summary returns the lines describing this environment in reports.
func (e *Environment) Summary() []string {
	return []string{
		"Environment: " + e.Name,
		"App version: " + e.AppVersion,
		"Device: " + e.Device,
		"Branch name: " + e.Branch,
	}
}

func (e *Environment) applyDefaults() {
	if e.Platform == "" {
		e.Platform = "Android"
	}
	if e.AutomationName == "" {
		e.AutomationName = "UiAutomator2"
	}
	if e.DriverMode == "" {
		e.DriverMode = "local"
	}
	if e.BuildName == "" {
		e.BuildName = "Local Test"
	}
	if e.Project == "" {
		e.Project = "App"
	}
	if e.AdbExecTimeoutMs == 0 {
		e.AdbExecTimeoutMs = 50000
	}

	def := DefaultTimeouts()
	fill := func(dst *time.Duration, v time.Duration) {
		if *dst <= 0 {
			*dst = v
		}
	}
	fill(&e.Timeouts.Screen, def.Screen)
	fill(&e.Timeouts.Widget, def.Widget)
	fill(&e.Timeouts.Element, def.Element)
	fill(&e.Timeouts.Poll, def.Poll)
	fill(&e.Timeouts.Scroll, def.Scroll)
	fill(&e.Timeouts.Press, def.Press)
	fill(&e.Timeouts.LongPress, def.LongPress)

	if e.Capture == (core.CaptureConfig{}) {
		e.Capture = core.DefaultCaptureConfig()
	}
}
