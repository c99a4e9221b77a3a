package cmd

import (
	"fmt"
	"os"

	"github.com/atlas-lang/atlas/internal/diag"
	"github.com/atlas-lang/atlas/internal/span"
)

// wrapSingle lifts one runtime diagnostic into a Bag so run-time and
// compile-time errors share the same printDiagnostics path.
func wrapSingle(d *diag.Diagnostic) *diag.Bag {
	var bag diag.Bag
	bag.Add(d)
	return &bag
}

// printDiagnostics writes bag's diagnostics to stderr, human-readable
// by default or as the deterministic JSON document (spec.md §6) when
// asJSON is set, grounded in the teacher's errors.FormatErrors.
func printDiagnostics(bag *diag.Bag, source, filename string, asJSON bool) {
	lt := span.NewLineTable(source)
	sorted := bag.Sorted(lt)
	if asJSON {
		doc := diag.ToDocument(sorted, source, lt)
		data, err := doc.MarshalDeterministic()
		if err != nil {
			fmt.Fprintf(os.Stderr, "atlas: failed to encode diagnostics: %v\n", err)
			return
		}
		os.Stderr.Write(data)
		return
	}
	for _, d := range sorted {
		d.File = filename
		fmt.Fprintln(os.Stderr, d.Format(source, lt))
	}
}
