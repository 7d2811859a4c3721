package termkit

import (
	"image/color"
	"sync"
	"time"

	"github.com/nullsector/termkit/mouse"
	"github.com/nullsector/termkit/rpc"
	"github.com/nullsector/termkit/trace"
	"github.com/nullsector/termkit/vtparse"
)

// TerminalMode is a bitmask of terminal behavior flags. Multiple modes can
// be active simultaneously.
type TerminalMode uint32

const (
	ModeCursorKeys TerminalMode = 1 << iota
	ModeColumnMode
	ModeInsert
	ModeOrigin
	ModeLineWrap
	ModeLineFeedNewLine
	ModeShowCursor
	ModeBracketedPaste
	ModeKeypadApplication
	ModeFocusReporting
)

const (
	// DefaultRows is the default terminal height in character rows.
	DefaultRows = 24
	// DefaultCols is the default terminal width in character columns.
	DefaultCols = 80
)

// Selection defines a rectangular text region in the terminal. Start and
// End are normalized so Start is always before or equal to End.
type Selection struct {
	Start  Position
	End    Position
	Active bool
}

// Terminal emulates a VT100/xterm-compatible terminal without a display.
// It maintains a primary buffer (with scrollback) and an alternate buffer
// (without), switching between them on ?1049h/l. Writes are parsed by an
// internal vtparse.Parser that dispatches directly back into Terminal's own
// methods; Terminal implements vtparse.Handler itself rather than depending
// on an external ANSI-code library. All exported methods are safe for
// concurrent use via an internal RWMutex, but Write/WriteString must not be
// called concurrently with themselves on the same instance — the parser is
// a single-threaded cooperative component.
type Terminal struct {
	mu sync.RWMutex

	rows int
	cols int

	primaryBuffer   *Grid
	alternateBuffer *Grid
	activeBuffer    *Grid

	cursor      *Cursor
	savedCursor *SavedCursor

	template CellTemplate

	activeCharset int

	scrollTop    int // inclusive, 0-based
	scrollBottom int // exclusive, 0-based

	modes TerminalMode

	title      string
	titleStack []string

	currentHyperlink *Hyperlink

	selection Selection

	scrollbackStorage ScrollbackProvider

	responseProvider  ResponseProvider
	bellProvider      BellProvider
	titleProvider     TitleProvider
	apcProvider       APCProvider
	pmProvider        PMProvider
	sosProvider       SOSProvider
	clipboardProvider ClipboardProvider
	recordingProvider RecordingProvider
	traceSink         trace.Sink

	parser    *vtparse.Parser
	rpcRouter *rpc.Router

	mouseState *mouse.State
}

// Option configures a Terminal during construction.
type Option func(*Terminal)

// WithSize sets the terminal dimensions. Values <= 0 are replaced with
// defaults (24x80).
func WithSize(rows, cols int) Option {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return func(t *Terminal) {
		t.rows = rows
		t.cols = cols
	}
}

// WithResponse sets the writer for terminal responses (cursor position
// reports, DA replies, mouse reports). If nil, responses are discarded.
func WithResponse(p ResponseProvider) Option {
	return func(t *Terminal) { t.responseProvider = p }
}

// WithBell sets the handler for bell/beep events. Defaults to a no-op.
func WithBell(p BellProvider) Option {
	return func(t *Terminal) { t.bellProvider = p }
}

// WithTitle sets the handler for window title changes. Defaults to a no-op.
func WithTitle(p TitleProvider) Option {
	return func(t *Terminal) { t.titleProvider = p }
}

// WithAPC sets the handler for Application Program Command sequences.
func WithAPC(p APCProvider) Option {
	return func(t *Terminal) { t.apcProvider = p }
}

// WithPM sets the handler for Privacy Message sequences.
func WithPM(p PMProvider) Option {
	return func(t *Terminal) { t.pmProvider = p }
}

// WithSOS sets the handler for Start of String sequences.
func WithSOS(p SOSProvider) Option {
	return func(t *Terminal) { t.sosProvider = p }
}

// WithClipboard sets the handler for OSC 52 clipboard operations.
func WithClipboard(p ClipboardProvider) Option {
	return func(t *Terminal) { t.clipboardProvider = p }
}

// WithScrollback sets the storage for scrollback lines. Lines scrolled off
// the top of the primary buffer are pushed here.
func WithScrollback(storage ScrollbackProvider) Option {
	return func(t *Terminal) { t.scrollbackStorage = storage }
}

// WithRecording sets the handler for capturing raw input bytes before
// parsing, useful for replay or trace sinks.
func WithRecording(p RecordingProvider) Option {
	return func(t *Terminal) { t.recordingProvider = p }
}

// WithMouseTracking sets the initial mouse tracking configuration.
func WithMouseTracking(cfg mouse.TrackingConfig) Option {
	return func(t *Terminal) { t.mouseState = mouse.New(cfg) }
}

// WithTrace attaches a trace sink that receives every decoded input and
// output byte run as a Record, schema (time, escape_seq, printable,
// direction). Defaults to a no-op sink. Pass trace.GlobalSink() to route
// through the process-wide trace singleton instead of a per-Terminal one.
func WithTrace(sink trace.Sink) Option {
	return func(t *Terminal) { t.traceSink = sink }
}

// WithRPCRouter attaches an RPC router as the parser's private-use CSI
// siphon. Private-use sequences the router declines (or any, if router is
// nil) are delivered to the ordinary CSI handler unchanged.
func WithRPCRouter(r *rpc.Router) Option {
	return func(t *Terminal) { t.rpcRouter = r }
}

// New creates a terminal with the given options, defaulting to 24x80 with
// line wrap and cursor visible.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		rows:              DefaultRows,
		cols:              DefaultCols,
		bellProvider:      SilentBell{},
		titleProvider:     SilentTitle{},
		apcProvider:       SilentAPC{},
		pmProvider:        SilentPM{},
		sosProvider:       SilentSOS{},
		clipboardProvider: SilentClipboard{},
		recordingProvider: SilentRecording{},
		traceSink:         trace.NoopSink{},
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.scrollbackStorage == nil {
		t.scrollbackStorage = DisabledScrollback{}
	}
	t.primaryBuffer = NewGridWithScrollback(t.rows, t.cols, t.scrollbackStorage)
	t.alternateBuffer = NewGrid(t.rows, t.cols)
	t.activeBuffer = t.primaryBuffer

	t.cursor = NewCursor()
	t.template = NewCellTemplate()

	t.scrollTop = 0
	t.scrollBottom = t.rows

	t.modes = ModeLineWrap | ModeShowCursor

	if t.mouseState == nil {
		t.mouseState = mouse.New(mouse.TrackingConfig{Mode: mouse.Off})
	}

	var sink vtparse.RPCSink
	if t.rpcRouter != nil {
		sink = t.rpcRouter
	}
	t.parser = vtparse.NewParser(t, sink)

	return t
}

// Rows returns the terminal height in character rows.
func (t *Terminal) Rows() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rows
}

// Cols returns the terminal width in character columns.
func (t *Terminal) Cols() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cols
}

// Cell returns the cell at (row, col) in the active buffer, or nil if out
// of bounds.
func (t *Terminal) Cell(row, col int) *Cell {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.Cell(row, col)
}

// CursorPos returns the current cursor position (0-based).
func (t *Terminal) CursorPos() (row, col int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Row, t.cursor.Col
}

// CursorVisible returns true if the cursor is currently visible (DECTCEM).
func (t *Terminal) CursorVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Visible
}

// CursorStyle returns the current cursor rendering style.
func (t *Terminal) CursorStyle() CursorStyle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursor.Style
}

// Title returns the current window title string.
func (t *Terminal) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// HasMode returns true if the specified mode flag is enabled.
func (t *Terminal) HasMode(mode TerminalMode) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes&mode != 0
}

// IsAlternateScreen returns true if the alternate buffer is currently
// active.
func (t *Terminal) IsAlternateScreen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer == t.alternateBuffer
}

// ScrollRegion returns the current scrolling boundaries: top inclusive,
// bottom exclusive, both 0-based.
func (t *Terminal) ScrollRegion() (top, bottom int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scrollTop, t.scrollBottom
}

// Resize changes the terminal dimensions. Height change preserves rows
// top-to-bottom; width change truncates/pads each row with no reflow.
// Cursor column clamps to w-1; cursor row clamps to h-1, or drops by
// (oldHeight-newHeight) if the terminal shrank and the cursor would
// otherwise fall above the new top. Dimensions always equal the requested
// (w,h) after a valid call. Invalid dimensions (<=0) are ignored.
func (t *Terminal) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	oldH := t.rows

	t.primaryBuffer.Resize(h, w)
	t.alternateBuffer.Resize(h, w)
	t.rows, t.cols = h, w

	if h < oldH {
		t.cursor.Row = clamp(t.cursor.Row-(oldH-h), 0, h-1)
	} else {
		t.cursor.Row = clamp(t.cursor.Row, 0, h-1)
	}
	t.cursor.Col = clamp(t.cursor.Col, 0, w-1)
	t.cursor.PendingWrap = false

	if t.scrollTop >= h || t.scrollBottom > h || t.scrollTop >= t.scrollBottom {
		t.scrollTop = 0
		t.scrollBottom = h
	}
}

// Write processes raw bytes, parsing escape sequences and updating
// terminal state. Implements io.Writer. Not safe to call concurrently with
// itself on the same Terminal.
func (t *Terminal) Write(data []byte) (int, error) {
	t.recordingProvider.Record(data)
	if t.traceSink != nil {
		t.traceSink.Emit(trace.Record{
			Time:      time.Now(),
			EscapeSeq: trace.EscapeString(data),
			Printable: isPrintableRun(data),
			Direction: trace.Input,
		})
	}
	t.parser.Advance(data)
	return len(data), nil
}

// isPrintableRun reports whether data contains no C0 control bytes (other
// than tab) and no ESC, i.e. it decodes as plain text rather than a
// control or escape sequence.
func isPrintableRun(data []byte) bool {
	for _, b := range data {
		if b == 0x1b || (b < 0x20 && b != '\t') {
			return false
		}
	}
	return true
}

// WriteString converts s to bytes and calls Write.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// SetResponseProvider sets the response provider at runtime.
func (t *Terminal) SetResponseProvider(p ResponseProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responseProvider = p
}

// ResponseProvider returns the current response provider.
func (t *Terminal) ResponseProvider() ResponseProvider {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.responseProvider
}

// SetBellProvider sets the bell provider at runtime.
func (t *Terminal) SetBellProvider(p BellProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bellProvider = p
}

// SetTitleProvider sets the title provider at runtime.
func (t *Terminal) SetTitleProvider(p TitleProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.titleProvider = p
}

// SetClipboardProvider sets the clipboard provider at runtime.
func (t *Terminal) SetClipboardProvider(p ClipboardProvider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clipboardProvider = p
}

// writeResponse writes bytes back via the response provider if set.
func (t *Terminal) writeResponse(data []byte) {
	t.mu.RLock()
	provider := t.responseProvider
	sink := t.traceSink
	t.mu.RUnlock()
	if sink != nil {
		sink.Emit(trace.Record{
			Time:      time.Now(),
			EscapeSeq: trace.EscapeString(data),
			Printable: isPrintableRun(data),
			Direction: trace.Output,
		})
	}
	if provider != nil {
		provider.Write(data)
	}
}

func (t *Terminal) writeResponseString(s string) {
	t.writeResponse([]byte(s))
}

// --- Scrollback ---

// ScrollbackLen returns the number of lines stored in scrollback (primary
// buffer only; the alternate buffer never has scrollback).
func (t *Terminal) ScrollbackLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primaryBuffer.ScrollbackLen()
}

// ScrollbackLine returns a line from scrollback, 0 being the oldest.
func (t *Terminal) ScrollbackLine(index int) []Cell {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primaryBuffer.ScrollbackLine(index)
}

// ClearScrollback removes all stored scrollback lines.
func (t *Terminal) ClearScrollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primaryBuffer.ClearScrollback()
}

// SetMaxScrollback sets the maximum number of retained scrollback lines.
func (t *Terminal) SetMaxScrollback(max int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primaryBuffer.SetMaxScrollback(max)
}

// MaxScrollback returns the current maximum scrollback capacity.
func (t *Terminal) MaxScrollback() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primaryBuffer.MaxScrollback()
}

// --- Dirty tracking ---

// HasDirty returns true if any cell in the active buffer changed since the
// last ClearDirty call.
func (t *Terminal) HasDirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.HasDirty()
}

// DirtyCells returns positions of all cells modified since the last
// ClearDirty call.
func (t *Terminal) DirtyCells() []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.DirtyCells()
}

// ClearDirty marks all cells in the active buffer as clean.
func (t *Terminal) ClearDirty() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeBuffer.ClearAllDirty()
}

// --- Selection ---

// SetSelection sets the active text selection, normalizing so Start comes
// before End.
func (t *Terminal) SetSelection(start, end Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if end.Before(start) {
		start, end = end, start
	}
	t.selection = Selection{Start: start, End: end, Active: true}
}

// ClearSelection deactivates the current selection.
func (t *Terminal) ClearSelection() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selection.Active = false
}

// GetSelection returns the current selection state.
func (t *Terminal) GetSelection() Selection {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selection
}

// HasSelection returns true if a selection is currently active.
func (t *Terminal) HasSelection() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.selection.Active
}

// IsSelected returns true if (row, col) falls within the active selection.
func (t *Terminal) IsSelected(row, col int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.selection.Active {
		return false
	}
	pos := Position{Row: row, Col: col}
	if pos.Before(t.selection.Start) || t.selection.End.Before(pos) {
		return false
	}
	return true
}

// GetSelectedText extracts the text content within the active selection.
func (t *Terminal) GetSelectedText() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.selection.Active {
		return ""
	}
	start, end := t.selection.Start, t.selection.End
	var result []rune
	for row := start.Row; row <= end.Row && row < t.rows; row++ {
		startCol, endCol := 0, t.cols
		if row == start.Row {
			startCol = start.Col
		}
		if row == end.Row {
			endCol = end.Col + 1
		}
		for col := startCol; col < endCol && col < t.cols; col++ {
			cell := t.activeBuffer.Cell(row, col)
			if cell != nil && !cell.IsWideSpacer() {
				if cell.Char == 0 {
					result = append(result, ' ')
				} else {
					result = append(result, cell.Char)
				}
			}
		}
		if row < end.Row {
			result = append(result, '\n')
		}
	}
	return string(result)
}

// --- Content access ---

// LineContent returns the text content of a line, trimming trailing spaces.
func (t *Terminal) LineContent(row int) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeBuffer.LineContent(row)
}

// String returns the visible screen content as a newline-separated string,
// omitting trailing empty lines. Implements fmt.Stringer.
func (t *Terminal) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lines := make([]string, t.rows)
	lastNonEmpty := -1
	for row := 0; row < t.rows; row++ {
		lines[row] = t.activeBuffer.LineContent(row)
		if lines[row] != "" {
			lastNonEmpty = row
		}
	}
	if lastNonEmpty < 0 {
		return ""
	}

	result := ""
	for i, line := range lines[:lastNonEmpty+1] {
		if i > 0 {
			result += "\n"
		}
		result += line
	}
	return result
}

// Search finds all occurrences of pattern in the visible screen content.
func (t *Terminal) Search(pattern string) []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pattern == "" {
		return nil
	}
	var matches []Position
	patternRunes := []rune(pattern)
	for row := 0; row < t.rows; row++ {
		lineRunes := []rune(t.activeBuffer.LineContent(row))
		for col := 0; col <= len(lineRunes)-len(patternRunes); col++ {
			if runesEqual(lineRunes[col:col+len(patternRunes)], patternRunes) {
				matches = append(matches, Position{Row: row, Col: col})
			}
		}
	}
	return matches
}

// SearchScrollback finds all occurrences of pattern in scrollback lines.
// Returned rows are negative, with -1 the most recent scrollback line.
func (t *Terminal) SearchScrollback(pattern string) []Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if pattern == "" {
		return nil
	}
	var matches []Position
	patternRunes := []rune(pattern)
	scrollbackLen := t.primaryBuffer.ScrollbackLen()

	for i := 0; i < scrollbackLen; i++ {
		line := t.primaryBuffer.ScrollbackLine(i)
		if line == nil {
			continue
		}
		var lineRunes []rune
		for _, cell := range line {
			if cell.IsWideSpacer() {
				continue
			}
			if cell.Char == 0 {
				lineRunes = append(lineRunes, ' ')
			} else {
				lineRunes = append(lineRunes, cell.Char)
			}
		}
		for col := 0; col <= len(lineRunes)-len(patternRunes); col++ {
			if runesEqual(lineRunes[col:col+len(patternRunes)], patternRunes) {
				matches = append(matches, Position{Row: -(scrollbackLen - i), Col: col})
			}
		}
	}
	return matches
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Mouse ---

// SetMouseTracking replaces the tracking mode configuration.
func (t *Terminal) SetMouseTracking(cfg mouse.TrackingConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mouseState.Config = cfg
}

// MouseTracking returns the current tracking configuration.
func (t *Terminal) MouseTracking() mouse.TrackingConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mouseState.Config
}

// ProcessMouseEvent feeds a mouse event through the tracking state machine.
// If the routing rule says it must be handled locally, it is applied to the
// state (for position bookkeeping) and reported=false is returned without
// writing to the response provider. Otherwise it is encoded per the active
// tracking config and written out, and reported=true.
func (t *Terminal) ProcessMouseEvent(e mouse.Event) (reported, ok bool) {
	t.mu.Lock()
	local := t.mouseState.ShouldHandleLocally(e)
	_, ok = t.mouseState.Process(e)
	cfg := t.mouseState.Config
	t.mu.Unlock()

	if !ok || local {
		return false, ok
	}
	t.writeResponse(mouse.Encode(cfg, e))
	return true, true
}

// MouseState exposes the underlying state machine for inspection (e.g. to
// check IsConsistent or force Recover after an external fault).
func (t *Terminal) MouseState() *mouse.State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mouseState
}

// --- RPC ---

// SetRPCRouter replaces the parser's private-use CSI siphon at runtime.
func (t *Terminal) SetRPCRouter(r *rpc.Router) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rpcRouter = r
	var sink vtparse.RPCSink
	if r != nil {
		sink = r
	}
	t.parser.SetRPCSink(sink)
}

var _ color.Color = (*IndexedColor)(nil)
var _ color.Color = (*NamedColor)(nil)
