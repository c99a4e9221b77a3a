package span

import "testing"

func TestSpanMerge(t *testing.T) {
	a := New(0, 5)
	b := New(3, 10)
	got := a.Merge(b)
	if got.Start != 0 || got.End != 10 {
		t.Fatalf("Merge() = %v, want 0..10", got)
	}
}

func TestSpanLen(t *testing.T) {
	if New(5, 10).Len() != 5 {
		t.Fatal("expected len 5")
	}
	if New(5, 5).Len() != 0 {
		t.Fatal("expected len 0 for empty span")
	}
}

func TestSpanContains(t *testing.T) {
	s := New(5, 10)
	cases := map[int]bool{4: false, 5: true, 9: true, 10: false, 15: false}
	for offset, want := range cases {
		if got := s.Contains(offset); got != want {
			t.Errorf("Contains(%d) = %v, want %v", offset, got, want)
		}
	}
}

func TestSpanOverlaps(t *testing.T) {
	a, b, c := New(0, 5), New(3, 8), New(10, 15)
	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Fatal("expected overlap")
	}
	if a.Overlaps(c) || c.Overlaps(a) {
		t.Fatal("expected no overlap")
	}
}

func TestSpanWithinSource(t *testing.T) {
	if !New(0, 5).WithinSource(5) {
		t.Fatal("span should fit exactly")
	}
	if New(0, 6).WithinSource(5) {
		t.Fatal("span should not fit")
	}
	if New(-1, 3).WithinSource(5) {
		t.Fatal("negative start should not fit")
	}
}

func TestLineTablePosition(t *testing.T) {
	src := "let x = 1;\nlet y = 2;\n"
	lt := NewLineTable(src)

	pos := lt.Position(0)
	if pos.Line != 1 || pos.Column != 1 {
		t.Fatalf("Position(0) = %+v, want 1:1", pos)
	}

	// "let y" starts right after the first newline, at offset 11.
	pos = lt.Position(11)
	if pos.Line != 2 || pos.Column != 1 {
		t.Fatalf("Position(11) = %+v, want 2:1", pos)
	}
}

func TestLineTableUnicodeColumns(t *testing.T) {
	// "Δ" is a 2-byte rune but must count as a single column.
	src := "// Δx"
	lt := NewLineTable(src)
	offsetOfX := len("// Δ") // byte offset right after the multi-byte rune
	pos := lt.Position(offsetOfX)
	if pos.Column != 5 {
		t.Fatalf("Column = %d, want 5 (runes: /, /, space, Δ, x)", pos.Column)
	}
}
