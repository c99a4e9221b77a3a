package diag

import (
	"sort"

	"github.com/atlas-lang/atlas/internal/span"
	"github.com/maruel/natural"
)

// sortDiagnostics orders diagnostics by (file, line, column, code).
// File names compare with "natural" ordering (embedded numeric runs
// compare numerically) so that a golden-test corpus spanning many files
// named like "case2.atl" and "case10.atl" sorts the way a human expects
// rather than lexicographically.
func sortDiagnostics(diags []*Diagnostic, lt *span.LineTable) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.File != b.File {
			return natural.Less(a.File, b.File)
		}
		pa, pb := lt.Position(a.Span.Start), lt.Position(b.Span.Start)
		if pa.Line != pb.Line {
			return pa.Line < pb.Line
		}
		if pa.Column != pb.Column {
			return pa.Column < pb.Column
		}
		return a.Code < b.Code
	})
}
