// Package termkit provides an embeddable VT100/xterm-compatible terminal
// emulator core, with no display attached.
//
// It is built for:
//   - Testing terminal applications without a GUI
//   - Building terminal multiplexers and recorders
//   - Embedding a terminal pane in a larger application
//   - Automated testing of CLI tools and screen scraping
//
// # Quick Start
//
// Create a terminal and write ANSI sequences to it:
//
//	term := termkit.New()
//	term.WriteString("\x1b[31mHello \x1b[32mWorld\x1b[0m!")
//	fmt.Println(term.String()) // "Hello World!"
//
// # Architecture
//
// The root package is organized around these core types:
//
//   - [Terminal]: the emulator; implements vtparse.Handler directly
//   - [Grid]: a 2D grid of cells with scrollback support
//   - [Cell]: a single character with colors, attributes, and combining marks
//   - [Cursor]: tracks position, visibility, style, and pending-wrap state
//
// Byte decoding and the VT500 escape-sequence state machine live in the
// vtparse subpackage; Terminal registers itself as vtparse.Handler and is
// driven entirely through vtparse.Parser.Advance. Mouse tracking state and
// wire encoding live in the mouse subpackage. An out-of-band RPC channel
// multiplexed over private-use CSI sequences lives in the rpc subpackage.
//
// # Terminal
//
// Terminal is the main entry point. It implements [io.Writer] so raw bytes
// containing ANSI escape sequences can be streamed directly into it:
//
//	term := termkit.New(
//	    termkit.WithSize(24, 80),
//	    termkit.WithScrollback(storage),
//	    termkit.WithResponse(ptyWriter),
//	)
//
//	cmd := exec.Command("ls", "-la", "--color")
//	cmd.Stdout = term
//
// # Providers
//
// Side effects that escape sequences trigger (bell, title changes,
// clipboard access, scrollback storage, APC/PM/SOS payloads, input
// recording) are delegated to small provider interfaces so callers can
// plug in their own policy. Every provider has a silent/discarding default,
// so Terminal works out of the box with zero configuration.
//
// # Sessions and shells
//
// The session subpackage multiplexes several independent Terminal+shell
// pairs behind a Manager, switching which one is Active and routing input
// to it. The shell subpackage defines the CustomShell contract a pluggable,
// possibly non-process command interpreter must satisfy, and a Bridge that
// enforces its start/stop/dispose lifecycle.
//
// # Tracing
//
// The trace subpackage defines an optional sink that receives every
// decoded input and output byte run, tagged with direction and time, for
// durable out-of-process inspection. Attach one with [WithTrace]; the
// default is a no-op.
//
// # Concurrency
//
// All exported Terminal methods other than Write/WriteString are safe for
// concurrent use. Write/WriteString must not be called concurrently with
// themselves on the same Terminal: the parser is a single cooperative
// state machine, not a thread pool.
//
// # Conformance and scope
//
// Terminal implements the classical VT500 state machine (ground, escape,
// CSI, OSC, DCS, SOS/PM/APC), cursor movement, scrolling regions, line and
// character insertion/deletion, SGR text attributes, the primary/alternate
// screen split, mouse tracking (X10, normal, button-event, any-event, with
// SGR encoding), and an RPC channel over private-use CSI sequences.
// Charset designation (SCS, e.g. ESC ( 0 for DEC line drawing) is accepted
// at the parser level for conformance but not translated: G0 and G1 both
// always resolve to plain ASCII. Sixel and Kitty graphics protocols are
// out of scope.
package termkit
