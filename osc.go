package termkit

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"
)

// dispatchOSC routes an Operating System Command payload by its leading
// numeric code. t.mu is already held by the caller (OscDispatch).
func (t *Terminal) dispatchOSC(data []byte) {
	code, rest, ok := splitOSC(data)
	if !ok {
		return
	}

	switch code {
	case 0, 2: // icon name + window title, or window title alone
		title := string(rest)
		t.title = title
		t.titleProvider.SetTitle(title)
	case 1: // icon name only; termkit has no separate icon-name slot
	case 4: // change palette color Pi -> rgb:rr/gg/bb — parsed, not applied
	case 7: // current working directory, file://host/path
	case 8: // hyperlink: OSC 8 ; params ; uri ST
		t.handleHyperlink(rest)
	case 9: // bell-like desktop notification
		t.bellProvider.Ring()
	case 10, 11, 12: // dynamic fg/bg/cursor color query or set
		t.handleDynamicColor(code, rest)
	case 22: // push window title onto the title stack
		t.titleStack = append(t.titleStack, t.title)
		t.titleProvider.PushTitle()
	case 23: // pop window title off the title stack
		if n := len(t.titleStack); n > 0 {
			t.title = t.titleStack[n-1]
			t.titleStack = t.titleStack[:n-1]
			t.titleProvider.PopTitle()
			t.titleProvider.SetTitle(t.title)
		}
	case 52: // clipboard: OSC 52 ; c|p|... ; base64-data-or-"?" ST
		t.handleClipboard(rest)
	case 104: // reset palette color
	case 133: // shell-integration prompt markers, not tracked
	}
}

// splitOSC separates the leading decimal code from the remainder of an OSC
// payload at the first ';'. Returns ok=false if no numeric code is present.
func splitOSC(data []byte) (code int, rest []byte, ok bool) {
	i := bytes.IndexByte(data, ';')
	var numPart []byte
	if i < 0 {
		numPart = data
		rest = nil
	} else {
		numPart = data[:i]
		rest = data[i+1:]
	}
	if len(numPart) == 0 {
		return 0, nil, false
	}
	for _, b := range numPart {
		if b < '0' || b > '9' {
			return 0, nil, false
		}
		code = code*10 + int(b-'0')
	}
	return code, rest, true
}

func (t *Terminal) handleHyperlink(rest []byte) {
	// params ; uri — params is a ':'-separated list of key=value pairs, of
	// which only id= is meaningful here.
	parts := bytes.SplitN(rest, []byte{';'}, 2)
	if len(parts) != 2 {
		return
	}
	params, uri := parts[0], parts[1]
	if len(uri) == 0 {
		t.currentHyperlink = nil
		return
	}
	id := ""
	for _, kv := range bytes.Split(params, []byte{':'}) {
		if bytes.HasPrefix(kv, []byte("id=")) {
			id = string(kv[3:])
		}
	}
	t.currentHyperlink = &Hyperlink{ID: id, URI: string(uri)}
}

func (t *Terminal) handleClipboard(rest []byte) {
	parts := bytes.SplitN(rest, []byte{';'}, 2)
	if len(parts) != 2 || len(parts[0]) == 0 {
		return
	}
	clipboard := parts[0][0]
	payload := parts[1]

	if string(payload) == "?" {
		content := t.clipboardProvider.Read(clipboard)
		if content == "" {
			return
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(content))
		t.writeResponseStringLocked("\x1b]52;" + string(clipboard) + ";" + encoded + "\x07")
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return
	}
	t.clipboardProvider.Write(clipboard, decoded)
}

// handleDynamicColor answers OSC 10/11/12 queries ("?" payload) with the
// current foreground/background/cursor color; set requests are accepted
// but not applied since termkit's palette is resolved at render time, not
// stored as mutable terminal state.
func (t *Terminal) handleDynamicColor(code int, rest []byte) {
	if string(rest) != "?" {
		return
	}
	c := DefaultForeground
	switch code {
	case 11:
		c = DefaultBackground
	case 12:
		c = DefaultCursorColor
	}
	t.writeResponseStringLocked(formatOSCColor(code, c))
}

func formatOSCColor(code int, c color.RGBA) string {
	return fmt.Sprintf("\x1b]%d;rgb:%02x%02x/%02x%02x/%02x%02x\x07", code, c.R, c.R, c.G, c.G, c.B, c.B)
}
