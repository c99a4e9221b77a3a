// Package diag implements Atlas's coded, levelled, span-bearing
// diagnostics: the records produced by the lexer, parser, binder, and
// typechecker, and the human/JSON renderings consumed by embedders.
//
// The accumulate-and-continue shape (a Bag collects diagnostics while
// its owning stage keeps producing partial output) and the caret-under-
// the-span rendering are both generalized from the teacher's
// internal/errors.CompilerError.Format/FormatWithContext.
package diag

import (
	"fmt"
	"strings"

	"github.com/atlas-lang/atlas/internal/span"
)

// Level is the severity of a diagnostic.
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

func (l Level) String() string {
	if l == LevelWarning {
		return "warning"
	}
	return "error"
}

// Code is a coded diagnostic identifier, e.g. "AT1001". The prefix
// groups diagnostics by stage per spec.md §7:
//
//	AT0xxx runtime   AT1xxx syntax   AT2xxx warnings
//	AT3xxx semantic  AT5xxx modules  AT9xxx internal
type Code string

// Diagnostic is a single coded, levelled, span-bearing error or warning.
type Diagnostic struct {
	Code    Code
	Level   Level
	Message string
	Span    span.Span
	File    string
	Label   string   // optional: short annotation under the caret
	Help    string   // optional: a "help:" hint
	Related []string // optional: related diagnostic messages
}

// New constructs a Diagnostic. Level defaults to LevelError; use
// Warning for AT2xxx-style warnings.
func New(code Code, msg string, sp span.Span) *Diagnostic {
	return &Diagnostic{Code: code, Level: LevelError, Message: msg, Span: sp}
}

// Warning constructs a warning-level Diagnostic.
func Warning(code Code, msg string, sp span.Span) *Diagnostic {
	d := New(code, msg, sp)
	d.Level = LevelWarning
	return d
}

// WithHelp attaches a help hint and returns the receiver for chaining.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help
	return d
}

// WithLabel attaches a caret label and returns the receiver for chaining.
func (d *Diagnostic) WithLabel(label string) *Diagnostic {
	d.Label = label
	return d
}

// Error implements the error interface so a Diagnostic can be returned
// anywhere plain Go error handling expects one.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

// Format renders a human-readable diagnostic with a source snippet and
// a caret under the offending span, in the style
// "file:line:col: level[code]: message".
func (d *Diagnostic) Format(source string, lt *span.LineTable) string {
	pos := lt.Position(d.Span.Start)

	var sb strings.Builder
	file := d.File
	if file == "" {
		file = "<input>"
	}
	fmt.Fprintf(&sb, "%s:%d:%d: %s[%s]: %s\n", file, pos.Line, pos.Column, d.Level, d.Code, d.Message)

	if line := sourceLine(source, pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+pos.Column-1))
		width := d.Span.Len()
		if width < 1 {
			width = 1
		}
		sb.WriteString(strings.Repeat("^", width))
		if d.Label != "" {
			sb.WriteString(" ")
			sb.WriteString(d.Label)
		}
		sb.WriteString("\n")
	}

	if d.Help != "" {
		fmt.Fprintf(&sb, "help: %s\n", d.Help)
	}
	for _, r := range d.Related {
		fmt.Fprintf(&sb, "note: %s\n", r)
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Bag accumulates diagnostics for one compilation stage. Every stage
// (lexer, parser, binder, typechecker) owns a Bag and returns it
// alongside its (possibly partial) output, so downstream stages can run
// on incomplete results and the user sees as many diagnostics as
// possible per invocation.
type Bag struct {
	diags []*Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.diags = append(b.diags, d)
}

// Errorf is a convenience for Add(New(...)).
func (b *Bag) Errorf(code Code, sp span.Span, format string, args ...any) {
	b.Add(New(code, fmt.Sprintf(format, args...), sp))
}

// Warnf is a convenience for Add(Warning(...)).
func (b *Bag) Warnf(code Code, sp span.Span, format string, args ...any) {
	b.Add(Warning(code, fmt.Sprintf(format, args...), sp))
}

// HasErrors reports whether the bag contains any error-level diagnostic
// (warnings alone do not count).
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// All returns every diagnostic added so far, in insertion order.
func (b *Bag) All() []*Diagnostic {
	return b.diags
}

// Extend appends another bag's diagnostics onto this one, preserving
// the other bag's insertion order at the tail.
func (b *Bag) Extend(other *Bag) {
	if other == nil {
		return
	}
	b.diags = append(b.diags, other.diags...)
}

// Sorted returns a copy of the diagnostics sorted deterministically by
// (file, line, column, code), as required for golden-test stability
// across runs and platforms. File names sort "naturally" so that
// a2.atl precedes a10.atl.
func (b *Bag) Sorted(lt *span.LineTable) []*Diagnostic {
	out := make([]*Diagnostic, len(b.diags))
	copy(out, b.diags)
	sortDiagnostics(out, lt)
	return out
}
