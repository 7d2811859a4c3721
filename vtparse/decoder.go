// Package vtparse implements the byte-stream decoder and escape-sequence
// parser that drive a VT100/xterm-compatible screen model. It knows nothing
// about cursors, buffers or attributes; it only turns bytes into the
// classical VT500 dispatch events and hands them to a Handler.
package vtparse

import (
	"unicode/utf8"

	"github.com/unilibs/uniwidth"
)

// EventKind classifies a decoded byte-stream event.
type EventKind int

const (
	// EventScalar is a decoded Unicode scalar value ready for printing.
	EventScalar EventKind = iota
	// EventC0 is a single C0/C1 control byte (0x00-0x1F, 0x7F).
	EventC0
	// EventInvalid marks a byte or byte sequence that could not be decoded.
	EventInvalid
)

// Event is one decoded unit from the byte stream.
type Event struct {
	Kind  EventKind
	Rune  rune
	Width int
	Byte  byte
}

// Decoder converts an arbitrary byte stream into a sequence of Events,
// resilient to UTF-8 sequences split across Feed calls and to invalid
// bytes. It never panics.
type Decoder struct {
	pending []byte
	need    int
}

// NewDecoder returns a Decoder with no buffered state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed decodes a single input byte, invoking emit zero or more times
// (zero while a multi-byte sequence is still incomplete).
func (d *Decoder) Feed(b byte, emit func(Event)) {
	if len(d.pending) == 0 {
		switch {
		case b < 0x20 || b == 0x7F:
			emit(Event{Kind: EventC0, Byte: b})
		case b < 0x80:
			emit(Event{Kind: EventScalar, Rune: rune(b), Width: 1})
		case b&0xE0 == 0xC0:
			d.pending = append(d.pending[:0], b)
			d.need = 2
		case b&0xF0 == 0xE0:
			d.pending = append(d.pending[:0], b)
			d.need = 3
		case b&0xF8 == 0xF0:
			d.pending = append(d.pending[:0], b)
			d.need = 4
		default:
			emit(Event{Kind: EventInvalid, Byte: b})
		}
		return
	}

	if b&0xC0 != 0x80 {
		// Incompatible continuation byte: flush the stale prefix and
		// reprocess b from a clean state.
		d.pending = d.pending[:0]
		d.need = 0
		emit(Event{Kind: EventInvalid})
		d.Feed(b, emit)
		return
	}

	d.pending = append(d.pending, b)
	if len(d.pending) < d.need {
		return
	}

	r, size := utf8.DecodeRune(d.pending)
	if r == utf8.RuneError && size <= 1 {
		emit(Event{Kind: EventInvalid})
	} else {
		emit(Event{Kind: EventScalar, Rune: r, Width: RuneWidth(r)})
	}
	d.pending = d.pending[:0]
	d.need = 0
}

// FeedBytes decodes every byte in data in order.
func (d *Decoder) FeedBytes(data []byte, emit func(Event)) {
	for _, b := range data {
		d.Feed(b, emit)
	}
}

// Flush emits Invalid for any incomplete multi-byte prefix still buffered
// and resets the decoder to a clean state.
func (d *Decoder) Flush(emit func(Event)) {
	if len(d.pending) > 0 {
		emit(Event{Kind: EventInvalid})
		d.pending = d.pending[:0]
		d.need = 0
	}
}

// RuneWidth returns the terminal display width of r: 0 for combining marks
// and most control characters, 1 for normal runes, 2 for wide (CJK/emoji)
// runes.
func RuneWidth(r rune) int {
	return uniwidth.RuneWidth(r)
}
