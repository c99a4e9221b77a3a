package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/atlas-lang/atlas"
	"github.com/atlas-lang/atlas/internal/security"
	"github.com/atlas-lang/atlas/internal/value"
	"github.com/spf13/cobra"
)

var (
	evalExpr     string
	engineFlag   string
	securityMode string
	jsonDiags    bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run an Atlas program",
	Long: `Execute an Atlas program from a file or an inline expression.

Examples:
  # Run a script file on the bytecode VM (the default)
  atlas run script.atl

  # Evaluate inline code on the tree-walking interpreter
  atlas run -e "1 + 2 * 3" --engine interpreter

  # Run under the strict security profile
  atlas run script.atl --security strict`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().StringVar(&engineFlag, "engine", "vm", "engine to run on: vm|interpreter")
	runCmd.Flags().StringVar(&securityMode, "security", "standard", "security profile: none|standard|strict")
	runCmd.Flags().BoolVar(&jsonDiags, "json", false, "print diagnostics as JSON")
}

func readSource(args []string) (src, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("either provide a file path or use -e for inline code")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
	}
	return string(data), args[0], nil
}

func securityContext(mode string) (*security.Context, error) {
	switch mode {
	case "none":
		return security.None(), nil
	case "standard":
		return security.Standard(), nil
	case "strict":
		return security.Strict(), nil
	default:
		return nil, fmt.Errorf("unknown security profile %q", mode)
	}
}

func parseEngine(name string) (atlas.Engine, error) {
	switch name {
	case "vm":
		return atlas.EngineVM, nil
	case "interpreter":
		return atlas.EngineInterpreter, nil
	default:
		return 0, fmt.Errorf("unknown engine %q (want vm or interpreter)", name)
	}
}

func runScript(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(args)
	if err != nil {
		return err
	}
	engine, err := parseEngine(engineFlag)
	if err != nil {
		return err
	}
	sec, err := securityContext(securityMode)
	if err != nil {
		return err
	}

	s := atlas.NewSession(sec, os.Stdout)
	bag := s.Parse(src)
	if bag.HasErrors() {
		printDiagnostics(bag, src, filename, jsonDiags)
		return fmt.Errorf("compilation failed with %d error(s)", len(bag.All()))
	}
	if engine == atlas.EngineVM {
		if err := s.Compile(); err != nil {
			return wrapInternal(fmt.Errorf("bytecode compilation failed: %w", err))
		}
	}

	result, rerr := s.Run(context.Background(), engine)
	if rerr != nil {
		printDiagnostics(wrapSingle(rerr), src, filename, jsonDiags)
		return fmt.Errorf("execution failed")
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "=> %s\n", describeResult(result))
	}
	return nil
}

func describeResult(v value.Value) string {
	if v == nil {
		return "null"
	}
	return v.String()
}
