package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pageflow/pkg/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "staging.yaml", `
platform: Android
device: Pixel 7
osVersion: "14"
app: /tmp/rider.apk
appPackage: com.hdw.james.rider
appActivity: com.hdw.james.rider.viewlayer.launcher.LauncherActivity
appVersion: 3.2.1
locale: FR
language: en
branch: main
capabilities:
  appium:newCommandTimeout: 120
timeouts:
  screen: 3s
  poll: 100ms
`)

	env, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Pixel 7", env.Device)
	assert.Equal(t, "14", env.OSVersion)
	assert.Equal(t, "com.hdw.james.rider", env.AppPackage)
	assert.Equal(t, 120, env.Capabilities["appium:newCommandTimeout"])
	assert.Equal(t, 3*time.Second, env.Timeouts.Screen)
	assert.Equal(t, 100*time.Millisecond, env.Timeouts.Poll)

	// Defaults fill what the file leaves out
	assert.Equal(t, 30*time.Second, env.Timeouts.Widget)
	assert.Equal(t, "UiAutomator2", env.AutomationName)
	assert.Equal(t, "local", env.DriverMode)
	assert.Equal(t, 50000, env.AdbExecTimeoutMs)
	assert.Equal(t, core.DefaultCaptureConfig(), env.Capture)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "prod.yaml", "device: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, core.IsConfigError(err))
}

func TestLoadEnvironment_DefaultsToProd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prod.yaml", "device: emulator-5554\n")

	env, err := LoadEnvironment(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "prod", env.Name)
	assert.Equal(t, "emulator-5554", env.Device)
}

func TestLoadEnvironment_YmlExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "qa.yml", "branch: release\n")

	env, err := LoadEnvironment(dir, "qa")
	require.NoError(t, err)
	assert.Equal(t, "qa", env.Name)
	assert.Equal(t, "release", env.Branch)
}

func TestLoadEnvironment_Missing(t *testing.T) {
	_, err := LoadEnvironment(t.TempDir(), "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidConfig))
	assert.Contains(t, err.Error(), `"nowhere"`)
}

func TestApply_OverridesNonEmpty(t *testing.T) {
	env := &Environment{Device: "file-device", Branch: "main", AppVersion: "1.0"}
	env.Apply(Overrides{Device: "cli-device", AppVersion: ""})

	assert.Equal(t, "cli-device", env.Device)
	assert.Equal(t, "main", env.Branch)
	assert.Equal(t, "1.0", env.AppVersion)
}

func TestSummary(t *testing.T) {
	env := &Environment{Name: "prod", AppVersion: "3.2.1", Device: "Pixel 7", Branch: "main"}
	assert.Equal(t, []string{
		"Environment: prod",
		"App version: 3.2.1",
		"Device: Pixel 7",
		"Branch name: main",
	}, env.Summary())
}
