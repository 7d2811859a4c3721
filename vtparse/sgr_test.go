package vtparse

import "testing"

func paramsFrom(groups [][]int) *Params {
	return &Params{groups: groups}
}

func TestDecodeSGRBasic(t *testing.T) {
	attrs := DecodeSGR(paramsFrom([][]int{{1}, {31}}))
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(attrs))
	}
	if attrs[0].Kind != SGRBold {
		t.Errorf("attrs[0].Kind = %v, want SGRBold", attrs[0].Kind)
	}
	if attrs[1].Kind != SGRForeground || attrs[1].Color.Kind != SGRColorIndexed16 || attrs[1].Color.Index != 1 {
		t.Errorf("attrs[1] = %+v, want red foreground", attrs[1])
	}
}

func TestDecodeSGREmptyIsReset(t *testing.T) {
	attrs := DecodeSGR(paramsFrom(nil))
	if len(attrs) != 1 || attrs[0].Kind != SGRReset {
		t.Fatalf("empty SGR params must decode to a single reset, got %+v", attrs)
	}
}

func TestDecodeSGRTrueColorSemicolon(t *testing.T) {
	attrs := DecodeSGR(paramsFrom([][]int{{38}, {2}, {10}, {20}, {30}}))
	if len(attrs) != 1 || attrs[0].Kind != SGRForeground {
		t.Fatalf("unexpected decode: %+v", attrs)
	}
	c := attrs[0].Color
	if c.Kind != SGRColorTrueColor || c.R != 10 || c.G != 20 || c.B != 30 {
		t.Fatalf("color = %+v, want truecolor (10,20,30)", c)
	}
}

func TestDecodeSGRTrueColorColon(t *testing.T) {
	attrs := DecodeSGR(paramsFrom([][]int{{38, 2, DefaultParam, 10, 20, 30}}))
	if len(attrs) != 1 || attrs[0].Kind != SGRForeground {
		t.Fatalf("unexpected decode: %+v", attrs)
	}
	c := attrs[0].Color
	if c.Kind != SGRColorTrueColor || c.R != 10 || c.G != 20 || c.B != 30 {
		t.Fatalf("color = %+v, want truecolor (10,20,30)", c)
	}
}

func TestDecodeSGR256Color(t *testing.T) {
	attrs := DecodeSGR(paramsFrom([][]int{{48}, {5}, {200}}))
	if len(attrs) != 1 || attrs[0].Kind != SGRBackground {
		t.Fatalf("unexpected decode: %+v", attrs)
	}
	if attrs[0].Color.Kind != SGRColorIndexed256 || attrs[0].Color.Index != 200 {
		t.Fatalf("color = %+v, want indexed256(200)", attrs[0].Color)
	}
}

func TestSGRRoundTrip(t *testing.T) {
	cases := [][]SGRAttr{
		{{Kind: SGRBold}},
		{{Kind: SGRForeground, Color: SGRColor{Kind: SGRColorIndexed16, Index: 3}}},
		{{Kind: SGRForeground, Color: SGRColor{Kind: SGRColorIndexed256, Index: 142}}},
		{{Kind: SGRBackground, Color: SGRColor{Kind: SGRColorTrueColor, R: 1, G: 2, B: 3}}},
	}
	for _, want := range cases {
		encoded := "\x1b[" + EncodeSGR(want) + "m"
		h := &recordingHandler{}
		p := NewParser(h, nil)
		p.Advance([]byte(encoded))
		if len(h.csis) != 1 {
			t.Fatalf("encode %q did not round-trip through the parser: %+v", encoded, h.csis)
		}
		got := DecodeSGR(paramsFrom(h.csis[0].params))
		if len(got) != len(want) || got[0].Kind != want[0].Kind || got[0].Color != want[0].Color {
			t.Errorf("round trip mismatch for %+v: got %+v", want, got)
		}
	}
}
