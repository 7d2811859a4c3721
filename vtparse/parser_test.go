package vtparse

import (
	"reflect"
	"testing"
)

type recordingHandler struct {
	BaseHandler
	printed []rune
	executed []byte
	csis    []csiCall
	escapes []escCall
	oscs    [][]byte
}

type csiCall struct {
	prefix byte
	params [][]int
	inter  []byte
	final  byte
}

type escCall struct {
	inter []byte
	final byte
}

func (h *recordingHandler) Print(r rune, width int) { h.printed = append(h.printed, r) }
func (h *recordingHandler) Execute(b byte)          { h.executed = append(h.executed, b) }
func (h *recordingHandler) EscDispatch(inter []byte, final byte) {
	h.escapes = append(h.escapes, escCall{append([]byte(nil), inter...), final})
}
func (h *recordingHandler) CsiDispatch(prefix byte, params *Params, inter []byte, final byte) {
	h.csis = append(h.csis, csiCall{prefix, append([][]int(nil), params.All()...), append([]byte(nil), inter...), final})
}
func (h *recordingHandler) OscDispatch(data []byte) {
	h.oscs = append(h.oscs, append([]byte(nil), data...))
}

func TestParserGroundAfterFlush(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	p.Advance([]byte("\x1b[1;2"))
	if p.InGround() {
		t.Fatalf("parser should not be in Ground mid-sequence")
	}
	p.Flush()
	if !p.InGround() {
		t.Fatalf("parser must return to Ground after Flush")
	}
}

func TestParserCsiParams(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	p.Advance([]byte("\x1b[100;200H"))
	if len(h.csis) != 1 {
		t.Fatalf("expected 1 CSI dispatch, got %d", len(h.csis))
	}
	got := h.csis[0]
	if got.final != 'H' || got.prefix != 0 {
		t.Fatalf("unexpected dispatch: %+v", got)
	}
	want := [][]int{{100}, {200}}
	if !reflect.DeepEqual(got.params, want) {
		t.Fatalf("params = %v, want %v", got.params, want)
	}
}

func TestParserCsiDefaultParams(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	p.Advance([]byte("\x1b[H"))
	if len(h.csis) != 1 || len(h.csis[0].params) != 0 {
		t.Fatalf("expected CSI H with no explicit params, got %+v", h.csis)
	}

	h2 := &recordingHandler{}
	p2 := NewParser(h2, nil)
	p2.Advance([]byte("\x1b[1;;3m"))
	want := [][]int{{1}, {DefaultParam}, {3}}
	if !reflect.DeepEqual(h2.csis[0].params, want) {
		t.Fatalf("params = %v, want %v", h2.csis[0].params, want)
	}
}

func TestParserPrivatePrefix(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	p.Advance([]byte("\x1b[?25h"))
	if len(h.csis) != 1 || h.csis[0].prefix != '?' || h.csis[0].final != 'h' {
		t.Fatalf("unexpected dispatch: %+v", h.csis)
	}
}

func TestParserOscBelTerminated(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	p.Advance([]byte("\x1b]0;my title\x07"))
	if len(h.oscs) != 1 || string(h.oscs[0]) != "0;my title" {
		t.Fatalf("unexpected OSC dispatch: %+v", h.oscs)
	}
}

func TestParserOscStTerminated(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	p.Advance([]byte("\x1b]2;title\x1b\\"))
	if len(h.oscs) != 1 || string(h.oscs[0]) != "2;title" {
		t.Fatalf("unexpected OSC dispatch: %+v", h.oscs)
	}
}

func TestParserMalformedCsiRecoversToGround(t *testing.T) {
	h := &recordingHandler{}
	p := NewParser(h, nil)
	// A second private-marker byte mid-params is malformed; it should be
	// absorbed without corrupting subsequent dispatch.
	p.Advance([]byte("\x1b[1<0\x1b[5H"))
	if !p.InGround() {
		t.Fatalf("parser should recover to Ground after a malformed sequence")
	}
	found := false
	for _, c := range h.csis {
		if c.final == 'H' {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the well-formed CSI H after the malformed sequence to still dispatch")
	}
}

type rpcStub struct {
	enabled bool
	calls   int
}

func (r *rpcStub) HandleRPC(params *Params, final byte, raw []byte) bool {
	if !r.enabled {
		return false
	}
	r.calls++
	return true
}

func TestParserRPCSiphon(t *testing.T) {
	h := &recordingHandler{}
	rpc := &rpcStub{enabled: true}
	p := NewParser(h, rpc)
	p.Advance([]byte("\x1b[>1500;1;F"))
	if rpc.calls != 1 {
		t.Fatalf("expected RPC sink invoked once, got %d", rpc.calls)
	}
	if len(h.csis) != 0 {
		t.Fatalf("RPC-siphoned sequence must not reach CsiDispatch, got %+v", h.csis)
	}
}

func TestParserRPCDisabledFallsThroughToCsi(t *testing.T) {
	h := &recordingHandler{}
	rpc := &rpcStub{enabled: false}
	pEnabled := NewParser(h, rpc)
	pEnabled.Advance([]byte("\x1b[>1500;1;F"))

	h2 := &recordingHandler{}
	pDisabled := NewParser(h2, nil)
	pDisabled.Advance([]byte("\x1b[>1500;1;F"))

	if !reflect.DeepEqual(h.csis, h2.csis) {
		t.Fatalf("RPC-disabled parser must dispatch identically to one with no RPC sink at all: %+v vs %+v", h.csis, h2.csis)
	}
	if len(h.csis) != 1 || h.csis[0].prefix != '>' || h.csis[0].final != 'F' {
		t.Fatalf("unexpected fallback dispatch: %+v", h.csis)
	}
}
