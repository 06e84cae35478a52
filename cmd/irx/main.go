// Command irx runs rewrite pipelines over synthetic IR workloads.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/irx/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
