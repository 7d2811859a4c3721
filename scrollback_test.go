package termkit

import "testing"

func TestMemoryScrollbackRingBuffer(t *testing.T) {
	s := NewMemoryScrollback(2)
	s.Push([]Cell{{Char: 'A'}})
	s.Push([]Cell{{Char: 'B'}})
	s.Push([]Cell{{Char: 'C'}})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.Line(0)[0].Char != 'B' {
		t.Fatalf("Line(0) = %v, want B (A should have been evicted)", s.Line(0))
	}
	if s.Line(1)[0].Char != 'C' {
		t.Fatalf("Line(1) = %v, want C", s.Line(1))
	}
}

func TestMemoryScrollbackClear(t *testing.T) {
	s := NewMemoryScrollback(10)
	s.Push([]Cell{{Char: 'A'}})
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", s.Len())
	}
}

func TestMemoryScrollbackSetMaxLinesTrims(t *testing.T) {
	s := NewMemoryScrollback(10)
	for _, c := range "ABCDE" {
		s.Push([]Cell{{Char: c}})
	}
	s.SetMaxLines(2)
	if s.Len() != 2 {
		t.Fatalf("Len() after SetMaxLines(2) = %d, want 2", s.Len())
	}
	if s.Line(0)[0].Char != 'D' {
		t.Fatalf("Line(0) = %v, want D", s.Line(0))
	}
}
