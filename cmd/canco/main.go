// Command canco runs the canvas relay and its journal tools.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/canco/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
