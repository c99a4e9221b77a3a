// Command atlas is the minimal CLI front end exercising the core
// pipeline end to end (run/build/ast/typecheck), grounded in the
// teacher's cmd/dwscript: a thin main.go delegating everything to an
// internal cmd package built on spf13/cobra.
package main

import (
	"os"

	"github.com/atlas-lang/atlas/cmd/atlas/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
