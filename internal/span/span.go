// Package span tracks byte-offset source ranges and maps them to
// human-readable line/column positions.
package span

import "fmt"

// Span is a half-open byte range [Start, End) into a source buffer.
// Every AST node, token, and diagnostic carries one.
type Span struct {
	Start int
	End   int
}

// New creates a Span from [start, end).
func New(start, end int) Span {
	return Span{Start: start, End: end}
}

// Dummy returns a zero-length span at the origin, used by synthesized
// nodes that have no real source location (e.g. desugared code).
func Dummy() Span {
	return Span{}
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// IsEmpty reports whether the span covers zero bytes.
func (s Span) IsEmpty() bool {
	return s.Start >= s.End
}

// Contains reports whether offset falls within the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// ContainsSpan reports whether other is entirely within s.
func (s Span) ContainsSpan(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Overlaps reports whether the two spans share any byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	return Span{
		Start: min(s.Start, other.Start),
		End:   max(s.End, other.End),
	}
}

// After returns the empty span immediately following s, useful for
// pointing at "end of input" or "insert here" diagnostics.
func (s Span) After() Span {
	return Span{Start: s.End, End: s.End}
}

// WithinSource reports whether the span lies within a buffer of the
// given length. Every diagnostic emitted by the compiler must satisfy
// this (spec invariant: span containment).
func (s Span) WithinSource(sourceLen int) bool {
	return s.Start >= 0 && s.End >= s.Start && s.End <= sourceLen
}

func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Position is a 1-indexed line/column pair plus the originating byte
// offset, used for human-readable diagnostics.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LineTable maps byte offsets to 1-indexed line/column positions in
// O(log n) by precomputing the byte offset at which each line starts.
// Columns are counted in runes, not bytes, so multi-byte UTF-8
// characters (emoji, combining marks, ...) each count as one column —
// the same tradeoff the teacher's lexer makes for its Position type.
type LineTable struct {
	source      string
	lineOffsets []int // lineOffsets[i] = byte offset of the first byte of line i+1
}

// NewLineTable builds a line-offset table for source. Building is a
// single linear pass; lookups are logarithmic.
func NewLineTable(source string) *LineTable {
	offsets := []int{0}
	for i, b := range []byte(source) {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &LineTable{source: source, lineOffsets: offsets}
}

// Position converts a byte offset into a line/column Position.
func (t *LineTable) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(t.source) {
		offset = len(t.source)
	}

	line := sort_searchLastLE(t.lineOffsets, offset)
	lineStart := t.lineOffsets[line]
	column := runeCount(t.source[lineStart:offset]) + 1

	return Position{Line: line + 1, Column: column, Offset: offset}
}

// sort_searchLastLE returns the largest index i such that offsets[i] <= x,
// via binary search over the sorted offsets slice.
func sort_searchLastLE(offsets []int, x int) int {
	lo, hi := 0, len(offsets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if offsets[mid] <= x {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
