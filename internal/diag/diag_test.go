package diag

import (
	"strings"
	"testing"

	"github.com/atlas-lang/atlas/internal/span"
)

func TestBagHasErrors(t *testing.T) {
	var b Bag
	if b.HasErrors() {
		t.Fatal("empty bag should have no errors")
	}
	b.Warnf(WarnUnused, span.New(0, 1), "x is unused")
	if b.HasErrors() {
		t.Fatal("warnings alone should not count as errors")
	}
	b.Errorf(ErrTypeMismatch, span.New(0, 1), "expected number, got string")
	if !b.HasErrors() {
		t.Fatal("expected HasErrors after adding an error")
	}
}

func TestFormatCaret(t *testing.T) {
	source := "let x: number = \"hello\";"
	lt := span.NewLineTable(source)
	d := New(ErrTypeMismatch, "expected number, got string", span.New(16, 23))
	out := d.Format(source, lt)
	if !strings.Contains(out, "error[AT3004]") {
		t.Fatalf("missing level/code: %s", out)
	}
	if !strings.Contains(out, "^^^^^^^") {
		t.Fatalf("caret should span the literal: %s", out)
	}
}

func TestSortedDeterministic(t *testing.T) {
	lt := span.NewLineTable("a\nb\nc\n")
	var b Bag
	b.Add(&Diagnostic{Code: "AT3004", File: "case10.atl", Span: span.New(0, 1)})
	b.Add(&Diagnostic{Code: "AT3004", File: "case2.atl", Span: span.New(0, 1)})
	sorted := b.Sorted(lt)
	if sorted[0].File != "case2.atl" || sorted[1].File != "case10.atl" {
		t.Fatalf("expected natural file ordering, got %v, %v", sorted[0].File, sorted[1].File)
	}
}

func TestMarshalDeterministicIsStable(t *testing.T) {
	lt := span.NewLineTable("x")
	doc := ToDocument([]*Diagnostic{New(ErrTypeMismatch, "bad", span.New(0, 1))}, "x", lt)
	a, err := doc.MarshalDeterministic()
	if err != nil {
		t.Fatal(err)
	}
	b, err := doc.MarshalDeterministic()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("expected byte-identical encodings")
	}
	if !strings.HasSuffix(string(a), "\n") {
		t.Fatal("expected trailing newline")
	}
}

func TestCodeRegistryHasNoGaps(t *testing.T) {
	for _, c := range AllCodes() {
		if Describe(c) == "" {
			t.Errorf("code %s has no description", c)
		}
	}
}

func TestSpanContainment(t *testing.T) {
	source := "let x = 1;"
	d := New(ErrTypeMismatch, "bad", span.New(4, 5))
	if !d.Span.WithinSource(len(source)) {
		t.Fatal("diagnostic span must lie within the source buffer")
	}
}
