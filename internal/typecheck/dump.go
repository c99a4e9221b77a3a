package typecheck

import "sort"

// Dump converts a Result into a deterministic, JSON-friendly value for
// the typecheck-dump external interface (spec.md §6), the sibling of
// ast.Dump. Entries are sorted by source span rather than emitted in
// map-iteration order, which Go does not guarantee is stable.
func Dump(result *Result) any {
	exprs := make([]any, 0, len(result.ExprTypes))
	type exprEntry struct {
		start, end int
		entry      map[string]any
	}
	exprList := make([]exprEntry, 0, len(result.ExprTypes))
	for e, t := range result.ExprTypes {
		s := e.Span()
		exprList = append(exprList, exprEntry{
			start: s.Start, end: s.End,
			entry: map[string]any{
				"span": map[string]any{"start": s.Start, "end": s.End},
				"expr": e.String(),
				"type": t.String(),
			},
		})
	}
	sort.Slice(exprList, func(i, j int) bool {
		if exprList[i].start != exprList[j].start {
			return exprList[i].start < exprList[j].start
		}
		return exprList[i].end < exprList[j].end
	})
	for _, e := range exprList {
		exprs = append(exprs, e.entry)
	}

	type fnEntry struct {
		name  string
		start int
		entry map[string]any
	}
	fnList := make([]fnEntry, 0, len(result.FnTypes))
	for fn, ft := range result.FnTypes {
		s := fn.Span()
		fnList = append(fnList, fnEntry{
			name: fn.Name, start: s.Start,
			entry: map[string]any{
				"name": fn.Name,
				"span": map[string]any{"start": s.Start, "end": s.End},
				"type": ft.String(),
			},
		})
	}
	sort.Slice(fnList, func(i, j int) bool {
		if fnList[i].name != fnList[j].name {
			return fnList[i].name < fnList[j].name
		}
		return fnList[i].start < fnList[j].start
	})
	fns := make([]any, 0, len(fnList))
	for _, f := range fnList {
		fns = append(fns, f.entry)
	}

	return map[string]any{
		"kind":       "TypecheckResult",
		"expr_types": exprs,
		"fn_types":   fns,
	}
}
