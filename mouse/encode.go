package mouse

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"
)

func ansiButton(e Event) ansi.MouseButton {
	if e.Type == Wheel {
		if e.WheelDir == WheelUp {
			return ansi.MouseWheelUp
		}
		return ansi.MouseWheelDown
	}
	switch e.Button {
	case ButtonLeft:
		return ansi.MouseLeft
	case ButtonMiddle:
		return ansi.MouseMiddle
	case ButtonRight:
		return ansi.MouseRight
	default:
		return ansi.MouseNone
	}
}

// EncodeX10 renders e as a 6-byte X10/X11 mouse report: ESC[M b x y, each
// of b/x/y offset by 32 and clamped so the underlying value never exceeds
// 223.
func EncodeX10(e Event) []byte {
	code := ansi.EncodeMouseButton(ansiButton(e), e.Type == Motion, e.Mods.Shift, e.Mods.Alt, e.Mods.Ctrl)
	enc := func(v int) byte {
		if v < 0 {
			v = 0
		}
		if v > 223 {
			v = 223
		}
		return byte(v + 32)
	}
	return []byte{0x1b, '[', 'M', enc(int(code)), enc(e.Col), enc(e.Row)}
}

// EncodeSGR renders e as an SGR mouse report: ESC[<code;x;y M (press or
// motion) or m (release), using unclamped decimal coordinates.
func EncodeSGR(e Event) []byte {
	code := ansi.EncodeMouseButton(ansiButton(e), e.Type == Motion, e.Mods.Shift, e.Mods.Alt, e.Mods.Ctrl)
	final := 'M'
	if e.Type == Release {
		final = 'm'
	}
	return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", code, e.Col, e.Row, final))
}

// Encode dispatches to EncodeSGR or EncodeX10 per the tracking config.
func Encode(cfg TrackingConfig, e Event) []byte {
	if cfg.SGR {
		return EncodeSGR(e)
	}
	return EncodeX10(e)
}
