package termkit

// MemoryScrollback is an in-memory ScrollbackProvider backed by a ring
// buffer. Pushing past MaxLines discards the oldest retained line.
type MemoryScrollback struct {
	lines    [][]Cell
	maxLines int
}

// NewMemoryScrollback creates an in-memory scrollback store retaining up
// to maxLines lines. A non-positive maxLines disables retention.
func NewMemoryScrollback(maxLines int) *MemoryScrollback {
	return &MemoryScrollback{maxLines: maxLines}
}

func (m *MemoryScrollback) Push(line []Cell) {
	if m.maxLines <= 0 {
		return
	}
	cp := make([]Cell, len(line))
	copy(cp, line)
	m.lines = append(m.lines, cp)
	if len(m.lines) > m.maxLines {
		m.lines = m.lines[len(m.lines)-m.maxLines:]
	}
}

func (m *MemoryScrollback) Len() int { return len(m.lines) }

func (m *MemoryScrollback) Line(index int) []Cell {
	if index < 0 || index >= len(m.lines) {
		return nil
	}
	return m.lines[index]
}

func (m *MemoryScrollback) Clear() { m.lines = nil }

func (m *MemoryScrollback) SetMaxLines(max int) {
	m.maxLines = max
	if max > 0 && len(m.lines) > max {
		m.lines = m.lines[len(m.lines)-max:]
	}
}

func (m *MemoryScrollback) MaxLines() int { return m.maxLines }

var _ ScrollbackProvider = (*MemoryScrollback)(nil)
