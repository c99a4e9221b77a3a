package diag

import (
	"bytes"
	"encoding/json"

	"github.com/atlas-lang/atlas/internal/span"
)

// DiagVersion is embedded in every JSON diagnostics document so tool
// consumers can detect a format change.
const DiagVersion = 1

// jsonSpan mirrors span.Span with explicit field names for the wire
// format (spec.md §6: `span: {start,end}`).
type jsonSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// jsonDiagnostic is the deterministic, fixed-key-order wire shape for a
// single Diagnostic, matching spec.md §6 exactly.
type jsonDiagnostic struct {
	Level    string    `json:"level"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	File     string    `json:"file"`
	Line     int       `json:"line"`
	Column   int       `json:"column"`
	Span     jsonSpan  `json:"span"`
	Snippet  string    `json:"snippet,omitempty"`
	Label    string    `json:"label,omitempty"`
	Help     string    `json:"help,omitempty"`
	Related  []string  `json:"related,omitempty"`
}

// Document is the top-level JSON document produced for tool
// consumption: a version field plus the ordered diagnostics.
type Document struct {
	Version     int              `json:"version"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

// ToDocument converts a sorted diagnostic slice into the wire Document,
// resolving each diagnostic's line/column and source snippet.
func ToDocument(diags []*Diagnostic, source string, lt *span.LineTable) Document {
	out := make([]jsonDiagnostic, 0, len(diags))
	for _, d := range diags {
		pos := lt.Position(d.Span.Start)
		out = append(out, jsonDiagnostic{
			Level:   d.Level.String(),
			Code:    string(d.Code),
			Message: d.Message,
			File:    d.File,
			Line:    pos.Line,
			Column:  pos.Column,
			Span:    jsonSpan{Start: d.Span.Start, End: d.Span.End},
			Snippet: sourceLine(source, pos.Line),
			Label:   d.Label,
			Help:    d.Help,
			Related: d.Related,
		})
	}
	return Document{Version: DiagVersion, Diagnostics: out}
}

// MarshalDeterministic encodes the document with two-space indentation,
// no trailing whitespace, and a single trailing newline — the exact
// shape spec.md §6 requires for byte-identical diagnostic JSON across
// runs.
func (doc Document) MarshalDeterministic() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	// json.Encoder.Encode already appends exactly one trailing newline.
	return buf.Bytes(), nil
}
