// Package main is the rdflift command line tool.
//
// Commands:
//   - compile: Compile CUE/YAML mapping specs to SPARQL queries
//   - validate: Check specs and the queries they produce
//   - export: Print specs as YAML
//   - list, show: Read the SQLite query catalog
//
// Configuration is read from rdflift.yaml (discovered upward from the
// working directory) and RDFLIFT_* environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rdflift/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rdflift:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
