package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atlas-lang/atlas"
	"github.com/atlas-lang/atlas/internal/bytecode"
	"github.com/spf13/cobra"
)

var (
	outputFile  string
	disassemble bool
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile an Atlas file to bytecode",
	Long: `Compile an Atlas program to bytecode and save it as a .atb file,
grounded in the teacher's "compile" subcommand but renamed to the more
common Go-tool verb: the .atb format round-trips exactly through
internal/bytecode.Serialize/Deserialize.

Examples:
  atlas build script.atl
  atlas build script.atl -o out.atb
  atlas build script.atl --disassemble`,
	Args: cobra.ExactArgs(1),
	RunE: buildScript,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input>.atb)")
	buildCmd.Flags().BoolVar(&disassemble, "disassemble", false, "print disassembled bytecode to stderr")
}

func buildScript(_ *cobra.Command, args []string) error {
	filename := args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	src := string(data)

	bc, bag, err := atlas.Compile(src, nil)
	if bag != nil && bag.HasErrors() {
		printDiagnostics(bag, src, filename, jsonDiags)
		return fmt.Errorf("compilation failed with %d error(s)", len(bag.All()))
	}
	if err != nil {
		return wrapInternal(fmt.Errorf("bytecode compilation failed: %w", err))
	}

	if disassemble {
		for _, fn := range bc.Functions {
			fmt.Fprintf(os.Stderr, "== %s ==\n", fn.Name)
			fmt.Fprint(os.Stderr, bytecode.Disassemble(fn))
			fmt.Fprintln(os.Stderr)
		}
	}

	out, err := bytecode.Serialize(bc)
	if err != nil {
		return wrapInternal(fmt.Errorf("failed to serialize bytecode: %w", err))
	}

	outPath := outputFile
	if outPath == "" {
		ext := filepath.Ext(filename)
		if ext != "" {
			outPath = strings.TrimSuffix(filename, ext) + ".atb"
		} else {
			outPath = filename + ".atb"
		}
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", outPath, err)
	}

	fmt.Printf("Compiled %s -> %s\n", filename, outPath)
	return nil
}
