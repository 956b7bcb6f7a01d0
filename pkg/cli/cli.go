// Package cli provides the command-line interface for pageflow.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pageflow/pkg/config"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "env",
		Aliases: []string{"e"},
		Usage:   "Environment to run against (<config-dir>/<env>.yaml)",
		Value:   config.DefaultEnvironment,
		EnvVars: []string{"PAGEFLOW_ENV"},
	},
	&cli.StringFlag{
		Name:    "config-dir",
		Usage:   "Directory holding the environment files",
		Value:   "config",
		EnvVars: []string{"PAGEFLOW_CONFIG_DIR"},
	},
	&cli.StringFlag{
		Name:    "device",
		Usage:   "Device name, overrides the environment file",
		EnvVars: []string{"PAGEFLOW_DEVICE"},
	},
	&cli.StringFlag{
		Name:    "os-version",
		Usage:   "Platform version, overrides the environment file",
		EnvVars: []string{"PAGEFLOW_OS_VERSION"},
	},
	&cli.StringFlag{
		Name:    "app",
		Usage:   "App binary path or URL, overrides the environment file",
		EnvVars: []string{"PAGEFLOW_APP"},
	},
	&cli.StringFlag{
		Name:    "app-version",
		Usage:   "App version shown in reports",
		EnvVars: []string{"PAGEFLOW_APP_VERSION"},
	},
	&cli.StringFlag{
		Name:    "driver-mode",
		Usage:   "Where sessions are opened (local)",
		EnvVars: []string{"PAGEFLOW_DRIVER_MODE"},
	},
	&cli.StringFlag{
		Name:    "branch",
		Usage:   "Branch name shown in reports",
		EnvVars: []string{"PAGEFLOW_BRANCH"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"PAGEFLOW_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pageflow",
		Usage:   "Page-object test runner for the rider app",
		Version: Version,
		Description: `pageflow drives the rider app through Appium and runs its end-to-end
scenarios across parallel sessions.

Examples:
  pageflow run
  pageflow run --workers 3 smoke
  pageflow --env staging caps`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			capsCommand,
		},
	}
}

// loadEnvironment reads the selected environment file and applies the
// override flags on top of it.
func loadEnvironment(c *cli.Context) (*config.Environment, error) {
	env, err := config.LoadEnvironment(c.String("config-dir"), c.String("env"))
	if err != nil {
		return nil, err
	}
	env.Apply(config.Overrides{
		Device:     c.String("device"),
		OSVersion:  c.String("os-version"),
		App:        c.String("app"),
		AppVersion: c.String("app-version"),
		DriverMode: c.String("driver-mode"),
		Branch:     c.String("branch"),
	})
	return env, nil
}
