// Command pageflow runs the rider app scenarios.
package main

import "github.com/devicelab-dev/pageflow/pkg/cli"

func main() {
	cli.Execute()
}
