package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/pageflow/pkg/caps"
)

var capsCommand = &cli.Command{
	Name:  "caps",
	Usage: "Print the capabilities a session would be opened with",
	Description: `Resolves the environment, derives the capability set and prints it as
YAML together with the server endpoint. Credentials are masked.`,
	Action: printCaps,
}

type capsOutput struct {
	Environment  string                 `yaml:"environment"`
	Endpoint     string                 `yaml:"endpoint"`
	Capabilities map[string]interface{} `yaml:"capabilities"`
}

func printCaps(c *cli.Context) error {
	env, err := loadEnvironment(c)
	if err != nil {
		return err
	}
	endpoint, err := caps.ResolveEndpoint(env.DriverMode)
	if err != nil {
		return err
	}
	set, err := caps.FromEnvironment(env)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(capsOutput{
		Environment:  env.Name,
		Endpoint:     endpoint,
		Capabilities: set.Redact(),
	}); err != nil {
		return fmt.Errorf("encode capabilities: %w", err)
	}
	return enc.Close()
}
