// Package caps builds the immutable capability set a session is opened with.
package caps

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/devicelab-dev/pageflow/pkg/config"
	"github.com/devicelab-dev/pageflow/pkg/core"
)

// Capability keys
const (
	PlatformName    = "platformName"
	DeviceName      = "appium:deviceName"
	PlatformVersion = "appium:platformVersion"
	App             = "appium:app"
	AutomationName  = "appium:automationName"
	AppPackage      = "appium:appPackage"
	AppActivity     = "appium:appActivity"
	Language        = "appium:language"
	Locale          = "appium:locale"
	SkipDeviceInit  = "appium:skipDeviceInitialization"
	AdbExecTimeout  = "appium:adbExecTimeout"
	DisableAnim     = "appium:disableWindowAnimation"
	BuildName       = "pageflow:build"
	Project         = "pageflow:project"
)

// Required lists the keys every capability set must carry.
var Required = []string{PlatformName, DeviceName, PlatformVersion, App, AutomationName}

// Redacted replaces secret values in logs and printed output.
const Redacted = "********"

// Capabilities is an immutable map of scalar capability values.
type Capabilities struct {
	values map[string]interface{}
}

// Get returns the value for key.
func (c Capabilities) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// String returns the value for key formatted as text, or "" if absent.
func (c Capabilities) String(key string) string {
	v, ok := c.values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

// Len returns the number of capabilities.
func (c Capabilities) Len() int {
	return len(c.values)
}

// Keys returns the capability keys in sorted order.
func (c Capabilities) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsMap returns a copy suitable for handing to a backend.
func (c Capabilities) AsMap() map[string]interface{} {
	out := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Redact returns a copy with secret-like values masked.
func (c Capabilities) Redact() map[string]interface{} {
	out := c.AsMap()
	for k := range out {
		if IsSecret(k) {
			out[k] = Redacted
		}
	}
	return out
}

// IsSecret reports whether a capability key names a credential.
func IsSecret(key string) bool {
	k := strings.ToLower(key)
	if i := strings.LastIndex(k, ":"); i >= 0 {
		k = k[i+1:]
	}
	if k == "key" {
		return true
	}
	for _, marker := range []string{"accesskey", "password", "token", "secret", "username"} {
		if strings.Contains(k, marker) {
			return true
		}
	}
	return false
}

// Builder accumulates capabilities. The first invalid value is kept and
// reported by Build.
type Builder struct {
	values map[string]interface{}
	err    error
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string]interface{})}
}

// Set stores a scalar value under key.
func (b *Builder) Set(key string, value interface{}) *Builder {
	if b.err != nil {
		return b
	}
	if key == "" {
		b.err = core.ErrInvalidConfig.WithMessage("capability key must not be empty")
		return b
	}
	if !isScalar(value) {
		b.err = core.ErrInvalidConfig.
			WithMessage(fmt.Sprintf("capability %s must be a scalar, got %T", key, value)).
			WithDetails(map[string]interface{}{"key": key})
		return b
	}
	b.values[key] = value
	return b
}

// SetString stores value under key unless it is empty.
func (b *Builder) SetString(key, value string) *Builder {
	if value == "" {
		return b
	}
	return b.Set(key, value)
}

// Merge sets every entry of m.
func (b *Builder) Merge(m map[string]interface{}) *Builder {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b
}

// Build validates and freezes the capabilities.
func (b *Builder) Build() (Capabilities, error) {
	if b.err != nil {
		return Capabilities{}, b.err
	}

	var missing []string
	for _, key := range Required {
		v, ok := b.values[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Capabilities{}, core.ErrMissingRequired.
			WithMessage("missing required capabilities: " + strings.Join(missing, ", ")).
			WithDetails(map[string]interface{}{"missing": missing})
	}

	values := make(map[string]interface{}, len(b.values))
	for k, v := range b.values {
		values[k] = v
	}
	return Capabilities{values: values}, nil
}

// FromEnvironment derives the capability set for env.
func FromEnvironment(env *config.Environment) (Capabilities, error) {
	if env == nil {
		return Capabilities{}, core.ErrInvalidConfig.WithMessage("no environment loaded")
	}

	b := NewBuilder().
		SetString(PlatformName, env.Platform).
		SetString(DeviceName, env.Device).
		SetString(PlatformVersion, env.OSVersion).
		SetString(App, env.App).
		SetString(AutomationName, env.AutomationName).
		SetString(AppPackage, env.AppPackage).
		SetString(AppActivity, env.AppActivity).
		SetString(Language, env.Language).
		SetString(Locale, env.Locale).
		SetString(BuildName, env.BuildName).
		SetString(Project, env.Project).
		Set(DisableAnim, true).
		Set(SkipDeviceInit, true)
	if env.AdbExecTimeoutMs > 0 {
		b.Set(AdbExecTimeout, env.AdbExecTimeoutMs)
	}
	b.Merge(env.Capabilities)

	return b.Build()
}

func isScalar(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
