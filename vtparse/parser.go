package vtparse

// state is one node of the classical VT500 parser state machine.
type state int

const (
	stateGround state = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateOscString
	stateDcsEntry
	stateDcsParam
	stateDcsIntermediate
	stateDcsPassthrough
	stateDcsIgnore
	stateSosPmApcString
)

const maxIntermediates = 8

// Parser is the VT500-style escape-sequence state machine. It consumes
// raw bytes via Advance/AdvanceByte and dispatches structured events to a
// Handler. A Parser is not safe for concurrent use and is not re-entrant:
// Advance must not be called again from within a Handler callback it
// triggered.
type Parser struct {
	state state
	dec   *Decoder

	intermediates []byte
	params        paramBuilder
	prefix        byte // CSI/DCS private marker: 0, '<', '=', '>', '?'

	oscBuf     []byte
	oscAwaitST bool // saw ESC inside a string payload, waiting to see if '\' follows

	handler Handler
	rpc     RPCSink

	// raw records the bytes of the sequence currently being
	// accumulated, so the RPC siphon can hand the caller the original
	// bytes rather than a re-serialized approximation.
	raw []byte
}

// NewParser returns a Parser dispatching to h. rpc may be nil.
func NewParser(h Handler, rpc RPCSink) *Parser {
	return &Parser{
		state:   stateGround,
		dec:     NewDecoder(),
		handler: h,
		rpc:     rpc,
	}
}

// SetRPCSink replaces the RPC siphon (nil disables siphoning).
func (p *Parser) SetRPCSink(rpc RPCSink) { p.rpc = rpc }

// InGround reports whether the parser is currently in its initial state,
// i.e. no partial sequence is pending.
func (p *Parser) InGround() bool { return p.state == stateGround }

// Advance feeds a chunk of bytes through the parser.
func (p *Parser) Advance(data []byte) {
	for _, b := range data {
		p.AdvanceByte(b)
	}
}

// AdvanceByte feeds a single byte through the parser.
func (p *Parser) AdvanceByte(b byte) {
	// C1 controls and the decoder's UTF-8 machinery only apply in Ground;
	// everywhere else the parser walks raw bytes directly since CSI/OSC/DCS
	// payloads are always within the 7-bit repertoire.
	if p.state == stateGround {
		p.dec.Feed(b, p.emitGround)
		return
	}
	p.step(b)
}

// Flush finalizes any pending multi-byte scalar and returns the parser to
// Ground, discarding any in-progress sequence without dispatching it.
func (p *Parser) Flush() {
	p.dec.Flush(p.emitGround)
	p.reset()
}

func (p *Parser) reset() {
	p.state = stateGround
	p.intermediates = p.intermediates[:0]
	p.params.reset()
	p.prefix = 0
	p.oscBuf = p.oscBuf[:0]
	p.raw = p.raw[:0]
}

func (p *Parser) emitGround(e Event) {
	switch e.Kind {
	case EventScalar:
		p.handler.Print(e.Rune, e.Width)
	case EventC0:
		if e.Byte == 0x1B {
			p.enterEscape()
			return
		}
		p.handler.Execute(e.Byte)
	case EventInvalid:
		// Decode error: recovered locally, nothing observable.
	}
}

func (p *Parser) enterEscape() {
	p.state = stateEscape
	p.intermediates = p.intermediates[:0]
	p.raw = append(p.raw[:0], 0x1B)
}

func isIntermediateByte(b byte) bool { return b >= 0x20 && b <= 0x2F }
func isCsiParamByte(b byte) bool     { return b >= 0x30 && b <= 0x3F }
func isDigitByte(b byte) bool        { return b >= 0x30 && b <= 0x39 }
func isFinalByte(b byte) bool        { return b >= 0x40 && b <= 0x7E }
func isC0(b byte) bool               { return b < 0x20 || b == 0x7F }

func (p *Parser) inStringPayload() bool {
	switch p.state {
	case stateOscString, stateSosPmApcString, stateDcsPassthrough, stateDcsIgnore:
		return true
	default:
		return false
	}
}

func (p *Parser) step(b byte) {
	p.raw = append(p.raw, b)

	// CAN/SUB abort any sequence in progress and return to Ground.
	if b == 0x18 || b == 0x1A {
		p.handler.Execute(b)
		p.reset()
		return
	}
	if b == 0x1B && !p.inStringPayload() {
		// A fresh ESC abandons whatever was in progress (except inside
		// string payloads, which use ESC \ as their own terminator and
		// are handled by their own branch below).
		p.enterEscape()
		return
	}

	switch p.state {
	case stateEscape:
		p.stepEscape(b)
	case stateEscapeIntermediate:
		p.stepEscapeIntermediate(b)
	case stateCsiEntry:
		p.stepCsiEntry(b)
	case stateCsiParam:
		p.stepCsiParam(b)
	case stateCsiIntermediate:
		p.stepCsiIntermediate(b)
	case stateCsiIgnore:
		p.stepCsiIgnore(b)
	case stateOscString:
		p.stepOscString(b)
	case stateDcsEntry:
		p.stepDcsEntry(b)
	case stateDcsParam:
		p.stepDcsParam(b)
	case stateDcsIntermediate:
		p.stepDcsIntermediate(b)
	case stateDcsPassthrough:
		p.stepDcsPassthrough(b)
	case stateDcsIgnore:
		p.stepDcsIgnore(b)
	case stateSosPmApcString:
		p.stepSosPmApcString(b)
	}
}

func (p *Parser) stepEscape(b byte) {
	switch {
	case isC0(b):
		p.handler.Execute(b)
	case b == '[':
		p.state = stateCsiEntry
		p.params.reset()
		p.prefix = 0
		p.intermediates = p.intermediates[:0]
	case b == ']':
		p.state = stateOscString
		p.oscBuf = p.oscBuf[:0]
	case b == 'P':
		p.state = stateDcsEntry
		p.params.reset()
		p.prefix = 0
		p.intermediates = p.intermediates[:0]
	case b == 'X' || b == '^' || b == '_':
		p.state = stateSosPmApcString
		p.oscBuf = append(p.oscBuf[:0], b)
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
		p.state = stateEscapeIntermediate
	case isFinalByte(b):
		p.handler.EscDispatch(p.intermediates, b)
		p.reset()
	default:
		p.reset()
	}
}

func (p *Parser) stepEscapeIntermediate(b byte) {
	switch {
	case isC0(b):
		p.handler.Execute(b)
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
	case isFinalByte(b):
		p.handler.EscDispatch(p.intermediates, b)
		p.reset()
	default:
		p.reset()
	}
}

func (p *Parser) stepCsiEntry(b byte) {
	switch {
	case isC0(b):
		p.handler.Execute(b)
	case b == '<' || b == '=' || b == '>' || b == '?':
		p.prefix = b
		p.state = stateCsiParam
	case isDigitByte(b):
		p.params.digit(int(b - '0'))
		p.state = stateCsiParam
	case b == ';':
		p.params.groupSeparator()
		p.state = stateCsiParam
	case b == ':':
		p.params.subSeparator()
		p.state = stateCsiParam
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
		p.state = stateCsiIntermediate
	case isFinalByte(b):
		p.dispatchCsi(b)
	default:
		p.state = stateCsiIgnore
	}
}

func (p *Parser) stepCsiParam(b byte) {
	switch {
	case isC0(b):
		p.handler.Execute(b)
	case isDigitByte(b):
		p.params.digit(int(b - '0'))
	case b == ';':
		p.params.groupSeparator()
	case b == ':':
		p.params.subSeparator()
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
		p.state = stateCsiIntermediate
	case isFinalByte(b):
		p.dispatchCsi(b)
	case b == '<' || b == '=' || b == '>' || b == '?':
		// A second private marker mid-params is malformed; ignore the rest.
		p.state = stateCsiIgnore
	default:
		p.state = stateCsiIgnore
	}
}

func (p *Parser) stepCsiIntermediate(b byte) {
	switch {
	case isC0(b):
		p.handler.Execute(b)
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
	case isFinalByte(b):
		p.dispatchCsi(b)
	default:
		p.state = stateCsiIgnore
	}
}

func (p *Parser) stepCsiIgnore(b byte) {
	switch {
	case isC0(b):
		p.handler.Execute(b)
	case isFinalByte(b):
		p.reset()
	}
	// Everything else (0x20-0x3F) is absorbed silently until a final byte.
}

func (p *Parser) dispatchCsi(final byte) {
	params := p.params.finish()

	if p.prefix == '>' && isRPCFinal(final) && p.rpc != nil {
		raw := append([]byte(nil), p.raw...)
		if p.rpc.HandleRPC(params, final, raw) {
			p.reset()
			return
		}
	}

	p.handler.CsiDispatch(p.prefix, params, p.intermediates, final)
	p.reset()
}

func isRPCFinal(final byte) bool {
	return final == 'F' || final == 'Q' || final == 'R' || final == 'E'
}

func (p *Parser) stepOscString(b byte) {
	switch {
	case b == 0x07: // BEL terminator
		p.handler.OscDispatch(p.oscBuf)
		p.reset()
	case b == 0x1B:
		p.oscAwaitST = true
	case p.oscAwaitST:
		p.oscAwaitST = false
		if b == '\\' {
			p.handler.OscDispatch(p.oscBuf)
			p.reset()
			return
		}
		// Not a real ST: ESC started a new sequence instead.
		p.oscBuf = append(p.oscBuf, 0x1B)
		p.enterEscapeFromString(b)
	case isC0(b) && b != 0x1B:
		// Other C0 bytes are tolerated inside OSC payloads by most
		// terminals; xterm ignores them rather than aborting the string.
	default:
		p.oscBuf = append(p.oscBuf, b)
	}
}

func (p *Parser) enterEscapeFromString(b byte) {
	p.reset()
	p.state = stateEscape
	p.step(b)
}

func (p *Parser) stepSosPmApcString(b byte) {
	switch {
	case b == 0x1B:
		p.oscAwaitST = true
	case p.oscAwaitST:
		p.oscAwaitST = false
		if b == '\\' {
			// SOS/PM/APC payloads are delivered as a generic OSC-shaped
			// dispatch; callers distinguish by the leading introducer
			// byte that was appended as the first payload byte.
			p.handler.OscDispatch(p.oscBuf)
			p.reset()
			return
		}
		p.oscBuf = append(p.oscBuf, 0x1B)
		p.enterEscapeFromString(b)
	default:
		p.oscBuf = append(p.oscBuf, b)
	}
}

func (p *Parser) stepDcsEntry(b byte) {
	switch {
	case isC0(b):
		// ignored inside DCS entry
	case b == '<' || b == '=' || b == '>' || b == '?':
		p.prefix = b
		p.state = stateDcsParam
	case isDigitByte(b):
		p.params.digit(int(b - '0'))
		p.state = stateDcsParam
	case b == ';':
		p.params.groupSeparator()
		p.state = stateDcsParam
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
		p.state = stateDcsIntermediate
	case isFinalByte(b):
		p.enterDcsPassthrough(b)
	default:
		p.state = stateDcsIgnore
	}
}

func (p *Parser) stepDcsParam(b byte) {
	switch {
	case isC0(b):
	case isDigitByte(b):
		p.params.digit(int(b - '0'))
	case b == ';':
		p.params.groupSeparator()
	case b == ':':
		p.params.subSeparator()
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
		p.state = stateDcsIntermediate
	case isFinalByte(b):
		p.enterDcsPassthrough(b)
	default:
		p.state = stateDcsIgnore
	}
}

func (p *Parser) stepDcsIntermediate(b byte) {
	switch {
	case isC0(b):
	case isIntermediateByte(b):
		p.intermediates = appendIntermediate(p.intermediates, b)
	case isFinalByte(b):
		p.enterDcsPassthrough(b)
	default:
		p.state = stateDcsIgnore
	}
}

func (p *Parser) enterDcsPassthrough(final byte) {
	params := p.params.finish()
	p.handler.DcsHook(p.prefix, params, p.intermediates, final)
	p.state = stateDcsPassthrough
}

func (p *Parser) stepDcsPassthrough(b byte) {
	if b == 0x1B {
		p.oscAwaitST = true
		return
	}
	if p.oscAwaitST {
		p.oscAwaitST = false
		if b == '\\' {
			p.handler.DcsUnhook()
			p.reset()
			return
		}
		p.handler.DcsPut(0x1B)
		p.enterEscapeFromString(b)
		return
	}
	p.handler.DcsPut(b)
}

func (p *Parser) stepDcsIgnore(b byte) {
	if b == 0x1B {
		p.oscAwaitST = true
		return
	}
	if p.oscAwaitST {
		p.oscAwaitST = false
		if b == '\\' {
			p.reset()
			return
		}
		p.enterEscapeFromString(b)
	}
}

func appendIntermediate(buf []byte, b byte) []byte {
	if len(buf) >= maxIntermediates {
		return buf
	}
	return append(buf, b)
}
