package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atlas-lang/atlas/internal/ast"
	"github.com/atlas-lang/atlas/internal/parser"
	"github.com/spf13/cobra"
)

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Dump the parsed AST as JSON",
	Long: `Parse an Atlas file and print its AST as deterministic JSON
(ast.Dump), for debugging the parser without running semantic analysis.`,
	Args: cobra.ExactArgs(1),
	RunE: dumpAST,
}

func init() {
	rootCmd.AddCommand(astCmd)
}

func dumpAST(_ *cobra.Command, args []string) error {
	filename := args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	src := string(data)

	prog, bag := parser.Parse(src)
	if bag.HasErrors() {
		printDiagnostics(bag, src, filename, jsonDiags)
		return fmt.Errorf("parsing failed with %d error(s)", len(bag.All()))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(dumpProgram(prog))
}

func dumpProgram(prog *ast.Program) any {
	items := make([]any, len(prog.Items))
	for i, it := range prog.Items {
		items[i] = ast.Dump(it)
	}
	return map[string]any{"ast_version": 1, "items": items}
}
