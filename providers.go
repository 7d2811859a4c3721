package termkit

import "io"

// ResponseProvider is where Terminal writes the bytes it needs to send
// back upstream: cursor position reports, device attribute replies,
// mouse event encodings. In a PTY-backed setup this is the PTY's write
// side; wiring it to anything that implements io.Writer works equally
// well (a channel-backed writer, a test buffer, a network socket).
type ResponseProvider = io.Writer

// DiscardResponse throws every response away. Useful when a caller only
// cares about reading screen state and never needs to answer queries
// the emulated program sends upstream.
type DiscardResponse struct{}

func (DiscardResponse) Write(p []byte) (n int, err error) {
	return len(p), nil
}

// --- Bell ---

// BellProvider is notified when a BEL (0x07) byte arrives.
type BellProvider interface {
	Ring()
}

// SilentBell swallows bell events.
type SilentBell struct{}

func (SilentBell) Ring() {}

// --- Title ---

// TitleProvider is notified of window-title activity driven by OSC 0/2
// (set) and OSC 22/23 (push/pop); OSC 1 is ignored. Terminal owns the title string and its
// stack itself; PushTitle/PopTitle are pure notifications fired after
// Terminal has already updated its own state, so a provider can mirror
// the change into a window manager, tab label, or similar without
// needing to track the stack on its own.
type TitleProvider interface {
	SetTitle(title string)
	PushTitle()
	PopTitle()
}

// SilentTitle ignores every title event.
type SilentTitle struct{}

func (SilentTitle) SetTitle(title string) {}
func (SilentTitle) PushTitle()            {}
func (SilentTitle) PopTitle()             {}

// --- Application Program Command ---

// APCProvider receives the payload of an Application Program Command
// sequence (OSC-adjacent, introduced by ESC _).
type APCProvider interface {
	Receive(data []byte)
}

// SilentAPC discards APC payloads.
type SilentAPC struct{}

func (SilentAPC) Receive(data []byte) {}

// --- Privacy Message ---

// PMProvider receives the payload of a Privacy Message sequence (ESC ^).
type PMProvider interface {
	Receive(data []byte)
}

// SilentPM discards PM payloads.
type SilentPM struct{}

func (SilentPM) Receive(data []byte) {}

// --- Start of String ---

// SOSProvider receives the payload of a Start of String sequence (ESC X).
type SOSProvider interface {
	Receive(data []byte)
}

// SilentSOS discards SOS payloads.
type SilentSOS struct{}

func (SilentSOS) Receive(data []byte) {}

var _ ResponseProvider = DiscardResponse{}

// ClipboardProvider backs OSC 52 clipboard read/write. clipboard is the
// selection byte xterm uses: 'c' for the system clipboard, 'p' for the
// primary selection.
type ClipboardProvider interface {
	Read(clipboard byte) string
	Write(clipboard byte, data []byte)
}

// ScrollbackProvider stores the lines a grid scrolls off its top edge.
// Swap in disk-backed or size-bounded implementations as needed; the
// default, DisabledScrollback, retains nothing.
type ScrollbackProvider interface {
	// Push appends a line, evicting the oldest once MaxLines is exceeded.
	Push(line []Cell)
	// Len reports how many lines are currently stored.
	Len() int
	// Line fetches the line at index (0 = oldest), or nil if out of range.
	Line(index int) []Cell
	// Clear discards every stored line.
	Clear()
	// SetMaxLines caps retained lines, trimming the oldest if needed.
	SetMaxLines(max int)
	// MaxLines reports the current cap.
	MaxLines() int
}

// --- Clipboard ---

// SilentClipboard answers every read with "" and drops every write.
type SilentClipboard struct{}

func (SilentClipboard) Read(clipboard byte) string       { return "" }
func (SilentClipboard) Write(clipboard byte, data []byte) {}

// --- Scrollback ---

// DisabledScrollback retains nothing. The alternate screen uses this
// since xterm never accumulates scrollback there.
type DisabledScrollback struct{}

func (DisabledScrollback) Push(line []Cell)      {}
func (DisabledScrollback) Len() int              { return 0 }
func (DisabledScrollback) Line(index int) []Cell { return nil }
func (DisabledScrollback) Clear()                {}
func (DisabledScrollback) SetMaxLines(max int)   {}
func (DisabledScrollback) MaxLines() int         { return 0 }

// --- Recording ---

// RecordingProvider captures the raw byte stream Terminal.Write receives,
// before any parsing, for replay or offline inspection.
type RecordingProvider interface {
	Record(data []byte)
	// Data returns everything captured since the last Clear.
	Data() []byte
	Clear()
}

// SilentRecording captures nothing.
type SilentRecording struct{}

func (SilentRecording) Record([]byte) {}
func (SilentRecording) Data() []byte  { return nil }
func (SilentRecording) Clear()        {}

var _ BellProvider = (*SilentBell)(nil)
var _ TitleProvider = (*SilentTitle)(nil)
var _ APCProvider = (*SilentAPC)(nil)
var _ PMProvider = (*SilentPM)(nil)
var _ SOSProvider = (*SilentSOS)(nil)
var _ ClipboardProvider = (*SilentClipboard)(nil)
var _ ScrollbackProvider = (*DisabledScrollback)(nil)
var _ RecordingProvider = (*SilentRecording)(nil)
