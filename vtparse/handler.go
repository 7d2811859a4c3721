package vtparse

// Handler receives the structured events a Parser dispatches while walking
// a byte stream. Implementations own all terminal semantics; the parser
// itself carries none.
type Handler interface {
	// Print is called for every printable scalar decoded in Ground state.
	Print(r rune, width int)
	// Execute is called for a C0/C1 control byte.
	Execute(b byte)
	// EscDispatch is called for a simple escape sequence: ESC intermediates* final.
	EscDispatch(intermediates []byte, final byte)
	// CsiDispatch is called for a complete CSI sequence. prefix is one of
	// 0 (none), '<', '=', '>', '?'.
	CsiDispatch(prefix byte, params *Params, intermediates []byte, final byte)
	// OscDispatch is called with the raw OSC payload (without ESC ] or terminator).
	// SOS, PM and APC payloads are delivered here as well, with their
	// introducer byte ('X', '^' or '_') as the first byte of data.
	OscDispatch(data []byte)
	// DcsHook opens a DCS string; DcsPut streams its payload a byte at a
	// time; DcsUnhook closes it.
	DcsHook(prefix byte, params *Params, intermediates []byte, final byte)
	DcsPut(b byte)
	DcsUnhook()
}

// RPCSink optionally intercepts private-use CSI sequences that look like
// RPC frames (prefix '>' and final in {F,Q,R,E}) before they would
// otherwise reach Handler.CsiDispatch. Implementations decide for
// themselves whether RPC is currently enabled; returning false tells the
// parser to fall back to an ordinary CsiDispatch call, so a disabled sink
// is fully transparent to the standard-sequence observer.
type RPCSink interface {
	HandleRPC(params *Params, final byte, raw []byte) (handled bool)
}

// BaseHandler provides no-op implementations of every Handler method so
// that embedders only need to override what they care about.
type BaseHandler struct{}

func (BaseHandler) Print(r rune, width int)                                         {}
func (BaseHandler) Execute(b byte)                                                  {}
func (BaseHandler) EscDispatch(intermediates []byte, final byte)                    {}
func (BaseHandler) CsiDispatch(prefix byte, params *Params, im []byte, final byte)   {}
func (BaseHandler) OscDispatch(data []byte)                                         {}
func (BaseHandler) DcsHook(prefix byte, params *Params, im []byte, final byte)       {}
func (BaseHandler) DcsPut(b byte)                                                   {}
func (BaseHandler) DcsUnhook()                                                      {}

var _ Handler = BaseHandler{}
