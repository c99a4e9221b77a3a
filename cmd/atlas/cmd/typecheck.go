package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atlas-lang/atlas/internal/parser"
	"github.com/atlas-lang/atlas/internal/symbols"
	"github.com/atlas-lang/atlas/internal/typecheck"
	"github.com/spf13/cobra"
)

var typecheckCmd = &cobra.Command{
	Use:   "typecheck <file>",
	Short: "Typecheck an Atlas file without running it",
	Long: `Parse, bind, and typecheck an Atlas file, printing either "ok" or
the accumulated diagnostics. Exits 1 if any error-level diagnostic was
produced, matching spec.md §6's exit code contract.`,
	Args: cobra.ExactArgs(1),
	RunE: runTypecheck,
}

func init() {
	rootCmd.AddCommand(typecheckCmd)
	typecheckCmd.Flags().Bool("dump", false, "print the resolved-type dump as JSON instead of ok/errors")
}

func runTypecheck(c *cobra.Command, args []string) error {
	filename := args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	src := string(data)

	prog, bag := parser.Parse(src)
	_, bindBag := symbols.Bind(prog)
	bag.Extend(bindBag)
	if bag.HasErrors() {
		printDiagnostics(bag, src, filename, jsonDiags)
		return fmt.Errorf("binding failed with %d error(s)", len(bag.All()))
	}

	result, checkBag := typecheck.Check(prog)
	bag.Extend(checkBag)
	if bag.HasErrors() {
		printDiagnostics(bag, src, filename, jsonDiags)
		return fmt.Errorf("typechecking failed with %d error(s)", len(bag.All()))
	}

	dumpFlag, _ := c.Flags().GetBool("dump")
	if dumpFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(typecheck.Dump(result))
	}
	fmt.Println("ok")
	return nil
}
