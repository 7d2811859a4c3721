package termkit

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nullsector/termkit/trace"
)

func TestNewDefaults(t *testing.T) {
	term := New()
	if term.Rows() != DefaultRows || term.Cols() != DefaultCols {
		t.Fatalf("got %dx%d, want %dx%d", term.Rows(), term.Cols(), DefaultRows, DefaultCols)
	}
	row, col := term.CursorPos()
	if row != 0 || col != 0 {
		t.Fatalf("cursor = (%d,%d), want (0,0)", row, col)
	}
	if !term.CursorVisible() {
		t.Fatal("cursor should be visible by default")
	}
}

func TestWriteSimpleText(t *testing.T) {
	term := New(WithSize(5, 20))
	term.WriteString("hello")
	if got := term.LineContent(0); got != "hello" {
		t.Fatalf("LineContent(0) = %q, want %q", got, "hello")
	}
	_, col := term.CursorPos()
	if col != 5 {
		t.Fatalf("cursor col = %d, want 5", col)
	}
}

func TestSGRColorsAndReset(t *testing.T) {
	term := New(WithSize(3, 20))
	term.WriteString("\x1b[31mred\x1b[0mplain")
	if got := term.LineContent(0); got != "redplain" {
		t.Fatalf("LineContent(0) = %q", got)
	}
	redCell := term.Cell(0, 0)
	if redCell.Char != 'r' {
		t.Fatalf("expected 'r' at (0,0), got %q", redCell.Char)
	}
	plainCell := term.Cell(0, 3)
	if plainCell.Char != 'p' {
		t.Fatalf("expected 'p' at (0,3), got %q", plainCell.Char)
	}
}

// Pending-wrap: a printable character that lands exactly in the last
// column sets PendingWrap but does not advance to the next row until
// another printable character arrives.
func TestPendingWrapDeferred(t *testing.T) {
	term := New(WithSize(3, 5))
	term.WriteString("abcde")
	row, col := term.CursorPos()
	if row != 0 || col != 4 {
		t.Fatalf("cursor = (%d,%d), want (0,4)", row, col)
	}
	if !term.cursor.PendingWrap {
		t.Fatal("expected PendingWrap set after filling last column")
	}

	term.WriteString("f")
	row, col = term.CursorPos()
	if row != 1 || col != 1 {
		t.Fatalf("cursor after wrap = (%d,%d), want (1,1)", row, col)
	}
	if term.LineContent(1) != "f" {
		t.Fatalf("LineContent(1) = %q, want %q", term.LineContent(1), "f")
	}
}

func TestPendingWrapClearedByCursorMovement(t *testing.T) {
	term := New(WithSize(3, 5))
	term.WriteString("abcde")
	term.WriteString("\r")
	if term.cursor.PendingWrap {
		t.Fatal("CR should clear PendingWrap")
	}
}

func TestCombiningMarkAttachesToPriorCell(t *testing.T) {
	term := New(WithSize(3, 10))
	term.WriteString("é") // e + combining acute accent
	cell := term.Cell(0, 0)
	if cell.Char != 'e' {
		t.Fatalf("expected 'e', got %q", cell.Char)
	}
	if len(cell.Combining) != 1 || cell.Combining[0] != '́' {
		t.Fatalf("expected combining mark attached, got %v", cell.Combining)
	}
	_, col := term.CursorPos()
	if col != 1 {
		t.Fatalf("cursor col = %d, want 1 (combining mark must not advance cursor)", col)
	}
}

// Scenario 1 from the spec: cursor positioning clamps to buffer bounds.
func TestCursorClampOnCUP(t *testing.T) {
	term := New(WithSize(24, 80))
	term.WriteString("\x1b[100;200H")
	row, col := term.CursorPos()
	if row != 23 || col != 79 {
		t.Fatalf("cursor = (%d,%d), want (23,79)", row, col)
	}
}

// Scenario 2 from the spec: erase-to-end-of-display from an interior
// cursor position.
func TestEraseInDisplayFromCursor(t *testing.T) {
	term := New(WithSize(10, 20))
	for row := 0; row < 10; row++ {
		term.WriteString("\x1b[" + itoa(row+1) + ";1H" + strings.Repeat("X", 20))
	}
	term.WriteString("\x1b[5;9H")
	term.WriteString("\x1b[0J")

	for row := 0; row < 10; row++ {
		for col := 0; col < 20; col++ {
			cell := term.Cell(row, col)
			shouldBeErased := row > 4 || (row == 4 && col >= 8)
			if shouldBeErased && cell.Char != ' ' {
				t.Fatalf("cell (%d,%d) = %q, want space", row, col, cell.Char)
			}
			if !shouldBeErased && cell.Char != 'X' {
				t.Fatalf("cell (%d,%d) = %q, want 'X'", row, col, cell.Char)
			}
		}
	}
}

// Erase operations must paint cleared cells with the terminal's current
// SGR, not the hardcoded default — a background set via SGR before the
// erase should still be visible afterward.
func TestEraseUsesCurrentBackground(t *testing.T) {
	term := New(WithSize(3, 10))
	term.WriteString("\x1b[41m") // red background
	term.WriteString(strings.Repeat("X", 30))
	term.WriteString("\x1b[2;1H\x1b[0K") // EL, erase whole middle line
	term.WriteString("\x1b[2J")          // ED, erase entire display

	for row := 0; row < 3; row++ {
		for col := 0; col < 10; col++ {
			cell := term.Cell(row, col)
			if cell.Char != ' ' {
				t.Fatalf("cell (%d,%d) = %q, want space after erase", row, col, cell.Char)
			}
			idx, ok := cell.Bg.(*IndexedColor)
			if !ok || idx.Index != 1 {
				t.Fatalf("cell (%d,%d) background = %v, want red (index 1)", row, col, cell.Bg)
			}
		}
	}
}

// Scenario 3 from the spec: scrolling up moves rows into scrollback in
// order, oldest-pushed first.
func TestScrollUpPushesScrollbackInOrder(t *testing.T) {
	term := New(WithSize(5, 10), WithScrollback(NewMemoryScrollback(100)))
	labels := []byte{'A', 'B', 'C', 'D', 'E'}
	for row, label := range labels {
		term.WriteString("\x1b[" + itoa(row+1) + ";1H" + strings.Repeat(string(label), 10))
	}
	term.WriteString("\x1b[2S")

	if term.LineContent(0) != strings.Repeat("C", 10) {
		t.Fatalf("row 0 = %q, want all C", term.LineContent(0))
	}
	if term.LineContent(3) != "" || term.LineContent(4) != "" {
		t.Fatalf("bottom rows should be blank after scroll")
	}
	if term.ScrollbackLen() != 2 {
		t.Fatalf("ScrollbackLen() = %d, want 2", term.ScrollbackLen())
	}
	first := term.ScrollbackLine(0)
	if len(first) == 0 || first[0].Char != 'A' {
		t.Fatalf("scrollback[0] should start with A row")
	}
	second := term.ScrollbackLine(1)
	if len(second) == 0 || second[0].Char != 'B' {
		t.Fatalf("scrollback[1] should start with B row")
	}
}

func TestAlternateScreenSwitch(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("primary")
	term.WriteString("\x1b[?1049h")
	if !term.IsAlternateScreen() {
		t.Fatal("expected alternate screen active")
	}
	term.WriteString("alt")
	if term.LineContent(0) != "alt" {
		t.Fatalf("alt screen content = %q", term.LineContent(0))
	}
	term.WriteString("\x1b[?1049l")
	if term.IsAlternateScreen() {
		t.Fatal("expected primary screen restored")
	}
	if term.LineContent(0) != "primary" {
		t.Fatalf("primary content after restore = %q", term.LineContent(0))
	}
}

func TestCursorVisibilityToggle(t *testing.T) {
	term := New()
	term.WriteString("\x1b[?25l")
	if term.CursorVisible() {
		t.Fatal("expected cursor hidden")
	}
	term.WriteString("\x1b[?25h")
	if !term.CursorVisible() {
		t.Fatal("expected cursor visible")
	}
}

func TestScrollingRegionConstrainsLineFeed(t *testing.T) {
	term := New(WithSize(6, 10))
	term.WriteString("\x1b[2;4r") // rows 2-4 (1-based) scroll region
	term.WriteString("\x1b[2;1H")
	for i := 0; i < 5; i++ {
		term.WriteString("x\r\n")
	}
	row, _ := term.CursorPos()
	if row < 1 || row > 3 {
		t.Fatalf("cursor row %d should stay within scroll region [1,3]", row)
	}
}

// Scenario 8 from the spec at the Terminal.Write level: a UTF-8 sequence
// split across two Write calls must still decode correctly.
func TestUTF8SplitAcrossWrites(t *testing.T) {
	term := New(WithSize(5, 20))
	term.Write([]byte{0xE4, 0xB8})
	term.Write([]byte{0x96, 0xE7, 0x95, 0x8C})

	if term.LineContent(0) != "世界" {
		t.Fatalf("LineContent(0) = %q", term.LineContent(0))
	}
	_, col := term.CursorPos()
	if col != 4 {
		t.Fatalf("cursor col = %d, want 4 (two wide runes)", col)
	}
}

func TestResizePreservesTopLeftContent(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString("hello world")
	term.Resize(30, 5)
	if term.Rows() != 5 || term.Cols() != 30 {
		t.Fatalf("dimensions after resize = %dx%d, want 30x5", term.Cols(), term.Rows())
	}
	if term.LineContent(0) != "hello world" {
		t.Fatalf("LineContent(0) after resize = %q", term.LineContent(0))
	}
}

func TestResizeClampsCursor(t *testing.T) {
	term := New(WithSize(10, 20))
	term.WriteString("\x1b[10;20H")
	term.Resize(5, 3)
	row, col := term.CursorPos()
	if row > 2 || col > 4 {
		t.Fatalf("cursor (%d,%d) should clamp within new 3x5 dimensions", row, col)
	}
}

func TestSelectionExtraction(t *testing.T) {
	term := New(WithSize(3, 20))
	term.WriteString("hello world")
	term.SetSelection(Position{Row: 0, Col: 0}, Position{Row: 0, Col: 4})
	if got := term.GetSelectedText(); got != "hello" {
		t.Fatalf("GetSelectedText() = %q, want %q", got, "hello")
	}
	term.ClearSelection()
	if term.HasSelection() {
		t.Fatal("expected selection cleared")
	}
}

func TestSearchFindsAllOccurrences(t *testing.T) {
	term := New(WithSize(3, 20))
	term.WriteString("foo bar foo")
	matches := term.Search("foo")
	if len(matches) != 2 {
		t.Fatalf("Search() found %d matches, want 2", len(matches))
	}
}

func TestBellProviderInvoked(t *testing.T) {
	var rang bool
	term := New(WithBell(bellFunc(func() { rang = true })))
	term.WriteString("\a")
	if !rang {
		t.Fatal("expected bell provider invoked")
	}
}

func TestTitleProviderInvoked(t *testing.T) {
	var got string
	term := New(WithTitle(titleFunc{set: func(s string) { got = s }}))
	term.WriteString("\x1b]2;my title\x07")
	if got != "my title" {
		t.Fatalf("title = %q, want %q", got, "my title")
	}
	if term.Title() != "my title" {
		t.Fatalf("Title() = %q", term.Title())
	}
}

func TestDSRCursorPositionReport(t *testing.T) {
	var buf strings.Builder
	term := New(WithSize(10, 10), WithResponse(&buf))
	term.WriteString("\x1b[3;4H\x1b[6n")
	if buf.String() != "\x1b[3;4R" {
		t.Fatalf("DSR response = %q, want %q", buf.String(), "\x1b[3;4R")
	}
}

func TestConcurrentReadersDuringWrite(t *testing.T) {
	term := New(WithSize(10, 20))
	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			term.WriteString("line\r\n")
			time.Sleep(time.Microsecond)
		}
		close(done)
	}()

	for {
		select {
		case <-done:
			wg.Wait()
			return
		default:
			_ = term.Rows()
			_ = term.HasDirty()
		}
	}
}

func TestResetToInitialState(t *testing.T) {
	term := New(WithSize(5, 10))
	term.WriteString("\x1b[31mtext")
	term.WriteString("\x1bc")
	if term.LineContent(0) != "" {
		t.Fatalf("LineContent(0) after RIS = %q, want empty", term.LineContent(0))
	}
	row, col := term.CursorPos()
	if row != 0 || col != 0 {
		t.Fatalf("cursor after RIS = (%d,%d), want (0,0)", row, col)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

type bellFunc func()

func (f bellFunc) Ring() { f() }

type titleFunc struct {
	set func(string)
}

func (t titleFunc) SetTitle(s string) { t.set(s) }
func (t titleFunc) PushTitle()        {}
func (t titleFunc) PopTitle()         {}

func TestTraceSinkRecordsInputAndOutput(t *testing.T) {
	sink := trace.NewMemorySink()
	var responses []byte
	term := New(
		WithTrace(sink),
		WithResponse(responseFunc(func(b []byte) { responses = append(responses, b...) })),
	)

	term.WriteString("hi\x1b[6n")

	recs := sink.Records()
	var sawInput, sawOutput bool
	for _, r := range recs {
		if r.Direction == trace.Input {
			sawInput = true
		}
		if r.Direction == trace.Output {
			sawOutput = true
		}
	}
	if !sawInput {
		t.Fatal("expected at least one input record")
	}
	if !sawOutput {
		t.Fatal("expected at least one output record for the DSR reply")
	}
	if len(responses) == 0 {
		t.Fatal("expected a DSR response to have been written")
	}
}

type responseFunc func([]byte)

func (f responseFunc) Write(b []byte) (int, error) {
	f(b)
	return len(b), nil
}
