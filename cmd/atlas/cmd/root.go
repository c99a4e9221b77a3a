// Package cmd implements the atlas CLI's subcommands on top of
// spf13/cobra, grounded in the teacher's cmd/dwscript/cmd package: a
// package-level rootCmd, one file per subcommand, global flags
// registered in init(). Exit codes follow spec.md §6 exactly: 0
// success, 1 user error (diagnostics already printed to stderr), 2
// internal error.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "atlas",
	Short:   "Atlas language compiler and runtime",
	Version: Version,
	Long: `atlas is the reference toolchain for the Atlas scripting language:
a statically typed, expression-oriented language with ownership-flavored
parameter passing, evaluated by either a bytecode VM or a tree-walking
interpreter that are required to agree on every observable result.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose diagnostic output")
}

// internalError marks an error that should exit 2 rather than 1 — a
// bug in atlas itself (a panic recovered, an invariant the typechecker
// should have caught slipping through to the VM) rather than a mistake
// in the user's program.
type internalError struct{ err error }

func (e *internalError) Error() string { return e.err.Error() }
func (e *internalError) Unwrap() error { return e.err }

func wrapInternal(err error) error {
	if err == nil {
		return nil
	}
	return &internalError{err: err}
}

// Execute runs the CLI and maps the result to spec.md §6's exit code,
// exiting the process directly (mirroring the teacher's own
// Execute/os.Exit split in cmd/dwscript/main.go).
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	code := 1
	var ierr *internalError
	if errors.As(err, &ierr) {
		code = 2
	}
	os.Exit(code)
	return err
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
