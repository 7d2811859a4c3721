package termkit

import (
	"fmt"
	"image/color"
	"time"

	"github.com/nullsector/termkit/mouse"
	"github.com/nullsector/termkit/trace"
	"github.com/nullsector/termkit/vtparse"
)

// Print implements vtparse.Handler. It places a printable scalar at the
// cursor, applying the pending-wrap model: if the cursor already sits in
// the last column with PendingWrap set by a previous Print, the line wraps
// (with scroll if needed) before this character is placed. Width-0 runes
// (combining marks) attach to the previous cell instead of occupying a
// column of their own.
func (t *Terminal) Print(r rune, width int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if width == 0 {
		t.attachCombining(r)
		return
	}

	if t.cursor.PendingWrap {
		t.lineFeed()
		t.cursor.Col = 0
		t.cursor.PendingWrap = false
	}

	if t.cursor.Col+width > t.cols {
		t.lineFeed()
		t.cursor.Col = 0
		t.cursor.PendingWrap = false
	}

	cell := t.template.Cell
	cell.Char = r
	cell.Hyperlink = t.currentHyperlink
	if width == 2 {
		cell.SetFlag(CellFlagWideChar)
	}
	t.activeBuffer.SetCell(t.cursor.Row, t.cursor.Col, cell)

	if width == 2 && t.cursor.Col+1 < t.cols {
		spacer := NewCell()
		spacer.SetFlag(CellFlagWideCharSpacer)
		t.activeBuffer.SetCell(t.cursor.Row, t.cursor.Col+1, spacer)
	}

	t.cursor.Col += width

	if t.cursor.Col >= t.cols {
		t.cursor.Col = t.cols - 1
		if t.modes&ModeLineWrap != 0 {
			t.cursor.PendingWrap = true
		}
	}
}

// attachCombining appends a zero-width rune to the cell immediately behind
// the cursor (the last character actually printed).
func (t *Terminal) attachCombining(r rune) {
	col := t.cursor.Col
	if t.cursor.PendingWrap || col > 0 {
		if t.cursor.PendingWrap {
			col = t.cols - 1
		} else {
			col--
		}
	} else {
		return
	}
	cell := t.activeBuffer.Cell(t.cursor.Row, col)
	if cell == nil {
		return
	}
	cell.Combining = append(cell.Combining, r)
	cell.MarkDirty()
}

// lineFeed advances the cursor row by one, scrolling the active region if
// already at the bottom margin.
func (t *Terminal) lineFeed() {
	if t.cursor.Row == t.scrollBottom-1 {
		t.activeBuffer.ScrollUp(t.scrollTop, t.scrollBottom, 1)
	} else if t.cursor.Row < t.rows-1 {
		t.cursor.Row++
	}
}

// reverseLineFeed moves the cursor up one row, scrolling down if already
// at the top margin.
func (t *Terminal) reverseLineFeed() {
	if t.cursor.Row == t.scrollTop {
		t.activeBuffer.ScrollDown(t.scrollTop, t.scrollBottom, 1)
	} else if t.cursor.Row > 0 {
		t.cursor.Row--
	}
}

// Execute implements vtparse.Handler for C0 control bytes.
func (t *Terminal) Execute(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch b {
	case '\a': // BEL
		t.bellProvider.Ring()
	case '\b': // BS
		if t.cursor.Col > 0 {
			t.cursor.Col--
		}
		t.cursor.PendingWrap = false
	case '\t': // HT
		t.cursor.Col = t.activeBuffer.NextTabStop(t.cursor.Col)
		t.cursor.PendingWrap = false
	case '\n', '\v', '\f': // LF, VT, FF
		t.lineFeed()
		t.cursor.PendingWrap = false
		if t.modes&ModeLineFeedNewLine != 0 {
			t.cursor.Col = 0
		}
	case '\r': // CR
		t.cursor.Col = 0
		t.cursor.PendingWrap = false
	case 0x0E: // SO - shift to G1
		t.activeCharset = 1
	case 0x0F: // SI - shift to G0
		t.activeCharset = 0
	}
}

// EscDispatch implements vtparse.Handler for simple escape sequences.
func (t *Terminal) EscDispatch(intermediates []byte, final byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(intermediates) == 0 {
		switch final {
		case 'D': // IND
			t.lineFeed()
			t.cursor.PendingWrap = false
		case 'E': // NEL
			t.lineFeed()
			t.cursor.Col = 0
			t.cursor.PendingWrap = false
		case 'M': // RI
			t.reverseLineFeed()
			t.cursor.PendingWrap = false
		case '7': // DECSC
			t.saveCursor()
		case '8': // DECRC
			t.restoreCursor()
		case 'c': // RIS
			t.resetToInitialState()
		}
		return
	}

	// Charset designation (ESC ( / ) / * / + <final>) is accepted but not
	// translated: G0/G1 both resolve as plain ASCII.
}

func (t *Terminal) saveCursor() {
	t.savedCursor = &SavedCursor{
		Row:          t.cursor.Row,
		Col:          t.cursor.Col,
		Attrs:        t.template,
		OriginMode:   t.modes&ModeOrigin != 0,
		CharsetIndex: t.activeCharset,
	}
}

func (t *Terminal) restoreCursor() {
	if t.savedCursor == nil {
		t.cursor.Row, t.cursor.Col = 0, 0
		return
	}
	t.cursor.Row = clamp(t.savedCursor.Row, 0, t.rows-1)
	t.cursor.Col = clamp(t.savedCursor.Col, 0, t.cols-1)
	t.cursor.PendingWrap = false
	t.template = t.savedCursor.Attrs
	if t.savedCursor.OriginMode {
		t.modes |= ModeOrigin
	} else {
		t.modes &^= ModeOrigin
	}
	t.activeCharset = t.savedCursor.CharsetIndex
}

func (t *Terminal) resetToInitialState() {
	def := NewCellTemplate()
	t.primaryBuffer.BlankAll(def)
	t.alternateBuffer.BlankAll(def)
	t.activeBuffer = t.primaryBuffer
	t.cursor = NewCursor()
	t.template = def
	t.scrollTop = 0
	t.scrollBottom = t.rows
	t.modes = ModeLineWrap | ModeShowCursor
	t.title = ""
	t.titleStack = nil
	t.currentHyperlink = nil
	t.selection = Selection{}
	t.activeCharset = 0
}

// CsiDispatch implements vtparse.Handler for complete CSI sequences.
func (t *Terminal) CsiDispatch(prefix byte, params *vtparse.Params, intermediates []byte, final byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch prefix {
	case '?':
		t.csiDEC(params, final)
		return
	case '>':
		if final == 'c' {
			t.writeResponseStringLocked(">1;10;0c")
		}
		return
	}

	switch final {
	case 'A': // CUU
		n := clampParamDefault1(params, 0)
		t.cursor.Row = clamp(t.cursor.Row-n, t.scrollTop, t.rows-1)
		t.cursor.PendingWrap = false
	case 'B': // CUD
		n := clampParamDefault1(params, 0)
		t.cursor.Row = clamp(t.cursor.Row+n, 0, t.scrollBottom-1)
		t.cursor.PendingWrap = false
	case 'C': // CUF
		n := clampParamDefault1(params, 0)
		t.cursor.Col = clamp(t.cursor.Col+n, 0, t.cols-1)
		t.cursor.PendingWrap = false
	case 'D': // CUB
		n := clampParamDefault1(params, 0)
		t.cursor.Col = clamp(t.cursor.Col-n, 0, t.cols-1)
		t.cursor.PendingWrap = false
	case 'E': // CNL
		n := clampParamDefault1(params, 0)
		t.cursor.Row = clamp(t.cursor.Row+n, 0, t.rows-1)
		t.cursor.Col = 0
		t.cursor.PendingWrap = false
	case 'F': // CPL
		n := clampParamDefault1(params, 0)
		t.cursor.Row = clamp(t.cursor.Row-n, 0, t.rows-1)
		t.cursor.Col = 0
		t.cursor.PendingWrap = false
	case 'G', '`': // CHA / HPA
		col := params.Get(0, 1) - 1
		t.cursor.Col = clamp(col, 0, t.cols-1)
		t.cursor.PendingWrap = false
	case 'd': // VPA
		row := params.Get(0, 1) - 1
		t.cursor.Row = clamp(row, 0, t.rows-1)
		t.cursor.PendingWrap = false
	case 'H', 'f': // CUP / HVP
		row := params.Get(0, 1) - 1
		col := params.Get(1, 1) - 1
		t.cursor.Row = clamp(row, 0, t.rows-1)
		t.cursor.Col = clamp(col, 0, t.cols-1)
		t.cursor.PendingWrap = false
	case 'I': // CHT
		n := clampParamDefault1(params, 0)
		for i := 0; i < n; i++ {
			t.cursor.Col = t.activeBuffer.NextTabStop(t.cursor.Col)
		}
	case 'Z': // CBT
		n := clampParamDefault1(params, 0)
		for i := 0; i < n; i++ {
			t.cursor.Col = t.activeBuffer.PrevTabStop(t.cursor.Col)
		}
	case 'J': // ED
		t.eraseInDisplay(params.Get(0, 0))
	case 'K': // EL
		t.eraseInLine(params.Get(0, 0))
	case 'L': // IL
		n := clampParamDefault1(params, 0)
		t.activeBuffer.InsertLines(t.cursor.Row, n, t.scrollBottom)
	case 'M': // DL
		n := clampParamDefault1(params, 0)
		t.activeBuffer.DeleteLines(t.cursor.Row, n, t.scrollBottom)
	case 'S': // SU
		n := clampParamDefault1(params, 0)
		t.activeBuffer.ScrollUp(t.scrollTop, t.scrollBottom, n)
	case 'T': // SD
		n := clampParamDefault1(params, 0)
		t.activeBuffer.ScrollDown(t.scrollTop, t.scrollBottom, n)
	case '@': // ICH
		n := clampParamDefault1(params, 0)
		t.activeBuffer.InsertBlanks(t.cursor.Row, t.cursor.Col, n, t.template)
	case 'P': // DCH
		n := clampParamDefault1(params, 0)
		t.activeBuffer.DeleteChars(t.cursor.Row, t.cursor.Col, n, t.template)
	case 'X': // ECH
		n := clampParamDefault1(params, 0)
		end := t.cursor.Col + n
		if end > t.cols {
			end = t.cols
		}
		t.activeBuffer.BlankRange(t.cursor.Row, t.cursor.Col, end, t.template)
	case 'g': // TBC
		switch params.Get(0, 0) {
		case 0:
			t.activeBuffer.ClearTabStop(t.cursor.Col)
		case 3:
			t.activeBuffer.ClearAllTabStops()
		}
	case 'm': // SGR
		t.applySGR(vtparse.DecodeSGR(params))
	case 'r': // DECSTBM
		top := params.Get(0, 1) - 1
		bottom := params.Get(1, t.rows)
		if top < 0 {
			top = 0
		}
		if bottom > t.rows {
			bottom = t.rows
		}
		if top < bottom {
			t.scrollTop = top
			t.scrollBottom = bottom
		} else {
			t.scrollTop = 0
			t.scrollBottom = t.rows
		}
		t.cursor.Row, t.cursor.Col = t.scrollTop, 0
		t.cursor.PendingWrap = false
	case 'n': // DSR
		if params.Get(0, 0) == 6 {
			t.writeResponseStringLocked(fmt.Sprintf("\x1b[%d;%dR", t.cursor.Row+1, t.cursor.Col+1))
		}
	case 'c': // DA
		t.writeResponseStringLocked("\x1b[?1;2c")
	case 's': // SCOSC
		t.saveCursor()
	case 'u': // SCORC
		t.restoreCursor()
	}
}

func clampParamDefault1(p *vtparse.Params, i int) int {
	n := p.Get(i, 1)
	if n <= 0 {
		n = 1
	}
	return n
}

// eraseInDisplay implements ED (CSI J). Erased cells take on the
// terminal's current graphic rendition, not the hardcoded default: a
// background color set via SGR before the erase still paints the
// cleared region.
func (t *Terminal) eraseInDisplay(mode int) {
	switch mode {
	case 0:
		t.activeBuffer.BlankRange(t.cursor.Row, t.cursor.Col, t.cols, t.template)
		for row := t.cursor.Row + 1; row < t.rows; row++ {
			t.activeBuffer.BlankRow(row, t.template)
		}
	case 1:
		t.activeBuffer.BlankRange(t.cursor.Row, 0, t.cursor.Col+1, t.template)
		for row := 0; row < t.cursor.Row; row++ {
			t.activeBuffer.BlankRow(row, t.template)
		}
	case 2, 3:
		t.activeBuffer.BlankAll(t.template)
	}
}

// eraseInLine implements EL (CSI K), with the same current-SGR fill
// policy as eraseInDisplay.
func (t *Terminal) eraseInLine(mode int) {
	switch mode {
	case 0:
		t.activeBuffer.BlankRange(t.cursor.Row, t.cursor.Col, t.cols, t.template)
	case 1:
		t.activeBuffer.BlankRange(t.cursor.Row, 0, t.cursor.Col+1, t.template)
	case 2:
		t.activeBuffer.BlankRow(t.cursor.Row, t.template)
	}
}

// csiDEC handles private-mode (prefix '?') CSI sequences: DECSET/DECRST
// (h/l) only; any other final is ignored. The modes cover the DEC superset
// xterm exposes (cursor keys, origin, autowrap, alt screen, cursor
// visibility, bracketed paste, mouse tracking variants, focus reporting).
func (t *Terminal) csiDEC(params *vtparse.Params, final byte) {
	if final != 'h' && final != 'l' {
		return
	}
	set := final == 'h'

	for i := 0; i < params.Len(); i++ {
		mode := params.Get(i, 0)
		switch mode {
		case 1: // DECCKM
			t.setMode(ModeCursorKeys, set)
		case 3: // DECCOLM
			t.setMode(ModeColumnMode, set)
		case 6: // DECOM
			t.setMode(ModeOrigin, set)
			t.cursor.Row, t.cursor.Col = 0, 0
		case 7: // DECAWM
			t.setMode(ModeLineWrap, set)
		case 9, 1000, 1002, 1003: // mouse tracking variants
			t.setMouseMode(mode, set)
		case 25: // DECTCEM
			t.cursor.Visible = set
		case 1004: // focus reporting
			t.setMode(ModeFocusReporting, set)
		case 1006: // SGR mouse encoding
			t.mouseState.Config.SGR = set
		case 1049: // alt screen + save/restore cursor
			t.setAltScreen(set)
		case 47, 1047: // alt screen (no cursor save)
			if set {
				t.activeBuffer = t.alternateBuffer
			} else {
				t.activeBuffer = t.primaryBuffer
			}
		case 2004: // bracketed paste
			t.setMode(ModeBracketedPaste, set)
		}
	}
}

func (t *Terminal) setMode(mode TerminalMode, on bool) {
	if on {
		t.modes |= mode
	} else {
		t.modes &^= mode
	}
}

func (t *Terminal) setMouseMode(csiMode int, on bool) {
	if !on {
		t.mouseState.Config.Mode = mouse.Off
		return
	}
	switch csiMode {
	case 9, 1000:
		t.mouseState.Config.Mode = mouse.Click
	case 1002:
		t.mouseState.Config.Mode = mouse.Button
	case 1003:
		t.mouseState.Config.Mode = mouse.Any
	}
}

func (t *Terminal) setAltScreen(enter bool) {
	if enter {
		if t.activeBuffer != t.alternateBuffer {
			t.saveCursor()
			t.alternateBuffer.BlankAll(NewCellTemplate())
			t.activeBuffer = t.alternateBuffer
			t.cursor.Row, t.cursor.Col = 0, 0
			t.cursor.PendingWrap = false
		}
	} else {
		if t.activeBuffer == t.alternateBuffer {
			t.activeBuffer = t.primaryBuffer
			t.restoreCursor()
		}
	}
}

// applySGR folds a decoded SGR attribute list into the current cell
// template used for subsequent Print calls.
func (t *Terminal) applySGR(attrs []vtparse.SGRAttr) {
	for _, a := range attrs {
		switch a.Kind {
		case vtparse.SGRReset:
			t.template = NewCellTemplate()
		case vtparse.SGRBold:
			t.template.SetFlag(CellFlagBold)
		case vtparse.SGRDim:
			t.template.SetFlag(CellFlagDim)
		case vtparse.SGRItalic:
			t.template.SetFlag(CellFlagItalic)
		case vtparse.SGRUnderline:
			t.template.ClearFlag(underlineFlags)
			t.template.SetFlag(CellFlagUnderline)
		case vtparse.SGRDoubleUnderline:
			t.template.ClearFlag(underlineFlags)
			t.template.SetFlag(CellFlagDoubleUnderline)
		case vtparse.SGRCurlyUnderline:
			t.template.ClearFlag(underlineFlags)
			t.template.SetFlag(CellFlagCurlyUnderline)
		case vtparse.SGRDottedUnderline:
			t.template.ClearFlag(underlineFlags)
			t.template.SetFlag(CellFlagDottedUnderline)
		case vtparse.SGRDashedUnderline:
			t.template.ClearFlag(underlineFlags)
			t.template.SetFlag(CellFlagDashedUnderline)
		case vtparse.SGRBlinkSlow:
			t.template.SetFlag(CellFlagBlinkSlow)
		case vtparse.SGRBlinkFast:
			t.template.SetFlag(CellFlagBlinkFast)
		case vtparse.SGRReverse:
			t.template.SetFlag(CellFlagReverse)
		case vtparse.SGRHidden:
			t.template.SetFlag(CellFlagHidden)
		case vtparse.SGRStrike:
			t.template.SetFlag(CellFlagStrike)
		case vtparse.SGRNoBoldDim:
			t.template.ClearFlag(CellFlagBold | CellFlagDim)
		case vtparse.SGRNoItalic:
			t.template.ClearFlag(CellFlagItalic)
		case vtparse.SGRNoUnderline:
			t.template.ClearFlag(underlineFlags)
		case vtparse.SGRNoBlink:
			t.template.ClearFlag(CellFlagBlinkSlow | CellFlagBlinkFast)
		case vtparse.SGRNoReverse:
			t.template.ClearFlag(CellFlagReverse)
		case vtparse.SGRNoHidden:
			t.template.ClearFlag(CellFlagHidden)
		case vtparse.SGRNoStrike:
			t.template.ClearFlag(CellFlagStrike)
		case vtparse.SGRForeground:
			t.template.Fg = sgrColorToColor(a.Color)
		case vtparse.SGRBackground:
			t.template.Bg = sgrColorToColor(a.Color)
		case vtparse.SGRUnderlineColor:
			t.template.UnderlineColor = sgrColorToColor(a.Color)
		case vtparse.SGRDefaultForeground:
			t.template.Fg = &NamedColor{Name: NamedColorForeground}
		case vtparse.SGRDefaultBackground:
			t.template.Bg = &NamedColor{Name: NamedColorBackground}
		case vtparse.SGRDefaultUnderlineColor:
			t.template.UnderlineColor = nil
		}
	}
}

const underlineFlags = CellFlagUnderline | CellFlagDoubleUnderline | CellFlagCurlyUnderline | CellFlagDottedUnderline | CellFlagDashedUnderline

func sgrColorToColor(c vtparse.SGRColor) color.Color {
	switch c.Kind {
	case vtparse.SGRColorIndexed16:
		return &IndexedColor{Index: c.Index}
	case vtparse.SGRColorIndexed256:
		return &IndexedColor{Index: c.Index}
	case vtparse.SGRColorTrueColor:
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	default:
		return nil
	}
}

// OscDispatch implements vtparse.Handler for OSC payloads. SOS, PM and APC
// payloads arrive here too, led by their introducer byte ('X', '^', '_'),
// and are passed without that byte to the matching provider.
func (t *Terminal) OscDispatch(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(data) > 0 {
		payload := append([]byte(nil), data[1:]...)
		switch data[0] {
		case '_':
			t.apcProvider.Receive(payload)
			return
		case '^':
			t.pmProvider.Receive(payload)
			return
		case 'X':
			t.sosProvider.Receive(payload)
			return
		}
	}
	t.dispatchOSC(data)
}

// DcsHook/DcsPut/DcsUnhook implement vtparse.Handler. DCS is accepted by
// the parser (required for state-machine conformance) but no payload is
// currently actionable, so these are no-ops.
func (t *Terminal) DcsHook(prefix byte, params *vtparse.Params, intermediates []byte, final byte) {}
func (t *Terminal) DcsPut(b byte)                                                                 {}
func (t *Terminal) DcsUnhook()                                                                    {}

// writeResponseStringLocked writes a response while t.mu is already held.
func (t *Terminal) writeResponseStringLocked(s string) {
	data := []byte(s)
	if t.traceSink != nil {
		t.traceSink.Emit(trace.Record{
			Time:      time.Now(),
			EscapeSeq: trace.EscapeString(data),
			Printable: isPrintableRun(data),
			Direction: trace.Output,
		})
	}
	if t.responseProvider != nil {
		t.responseProvider.Write(data)
	}
}

var _ vtparse.Handler = (*Terminal)(nil)
