package vtparse

import "strconv"

// SGRColorKind tags which color representation an SGRAttr color carries.
type SGRColorKind int

const (
	SGRColorDefault SGRColorKind = iota
	SGRColorIndexed16
	SGRColorIndexed256
	SGRColorTrueColor
)

// SGRColor is a tagged-variant color value decoded from an SGR sequence.
type SGRColor struct {
	Kind  SGRColorKind
	Index int
	R, G, B uint8
}

// SGRAttrKind tags the kind of attribute update an SGRAttr carries.
type SGRAttrKind int

const (
	SGRReset SGRAttrKind = iota
	SGRBold
	SGRDim
	SGRItalic
	SGRUnderline
	SGRDoubleUnderline
	SGRCurlyUnderline
	SGRDottedUnderline
	SGRDashedUnderline
	SGRBlinkSlow
	SGRBlinkFast
	SGRReverse
	SGRHidden
	SGRStrike
	SGRNoBoldDim
	SGRNoItalic
	SGRNoUnderline
	SGRNoBlink
	SGRNoReverse
	SGRNoHidden
	SGRNoStrike
	SGRForeground
	SGRBackground
	SGRUnderlineColor
	SGRDefaultForeground
	SGRDefaultBackground
	SGRDefaultUnderlineColor
)

// SGRAttr is a single decomposed SGR update.
type SGRAttr struct {
	Kind  SGRAttrKind
	Color SGRColor
}

// DecodeSGR reduces a CSI 'm' parameter list to a typed attribute-update
// list. Both colon (38:2::r:g:b) and semicolon (38;2;r;g;b) extended-color
// forms are accepted. An empty params list is equivalent to a single
// reset (SGR 0).
func DecodeSGR(params *Params) []SGRAttr {
	n := params.Len()
	if n == 0 {
		return []SGRAttr{{Kind: SGRReset}}
	}

	var out []SGRAttr
	for i := 0; i < n; i++ {
		code := params.Get(i, 0)
		switch code {
		case 0:
			out = append(out, SGRAttr{Kind: SGRReset})
		case 1:
			out = append(out, SGRAttr{Kind: SGRBold})
		case 2:
			out = append(out, SGRAttr{Kind: SGRDim})
		case 3:
			out = append(out, SGRAttr{Kind: SGRItalic})
		case 4:
			switch params.GetSub(i, 1, 1) {
			case 2:
				out = append(out, SGRAttr{Kind: SGRDoubleUnderline})
			case 3:
				out = append(out, SGRAttr{Kind: SGRCurlyUnderline})
			case 4:
				out = append(out, SGRAttr{Kind: SGRDottedUnderline})
			case 5:
				out = append(out, SGRAttr{Kind: SGRDashedUnderline})
			default:
				out = append(out, SGRAttr{Kind: SGRUnderline})
			}
		case 5:
			out = append(out, SGRAttr{Kind: SGRBlinkSlow})
		case 6:
			out = append(out, SGRAttr{Kind: SGRBlinkFast})
		case 7:
			out = append(out, SGRAttr{Kind: SGRReverse})
		case 8:
			out = append(out, SGRAttr{Kind: SGRHidden})
		case 9:
			out = append(out, SGRAttr{Kind: SGRStrike})
		case 21:
			out = append(out, SGRAttr{Kind: SGRDoubleUnderline})
		case 22:
			out = append(out, SGRAttr{Kind: SGRNoBoldDim})
		case 23:
			out = append(out, SGRAttr{Kind: SGRNoItalic})
		case 24:
			out = append(out, SGRAttr{Kind: SGRNoUnderline})
		case 25:
			out = append(out, SGRAttr{Kind: SGRNoBlink})
		case 27:
			out = append(out, SGRAttr{Kind: SGRNoReverse})
		case 28:
			out = append(out, SGRAttr{Kind: SGRNoHidden})
		case 29:
			out = append(out, SGRAttr{Kind: SGRNoStrike})
		case 30, 31, 32, 33, 34, 35, 36, 37:
			out = append(out, SGRAttr{Kind: SGRForeground, Color: SGRColor{Kind: SGRColorIndexed16, Index: code - 30}})
		case 38:
			color, consumed := decodeExtendedColor(params, i)
			out = append(out, SGRAttr{Kind: SGRForeground, Color: color})
			i += consumed
		case 39:
			out = append(out, SGRAttr{Kind: SGRDefaultForeground})
		case 40, 41, 42, 43, 44, 45, 46, 47:
			out = append(out, SGRAttr{Kind: SGRBackground, Color: SGRColor{Kind: SGRColorIndexed16, Index: code - 40}})
		case 48:
			color, consumed := decodeExtendedColor(params, i)
			out = append(out, SGRAttr{Kind: SGRBackground, Color: color})
			i += consumed
		case 49:
			out = append(out, SGRAttr{Kind: SGRDefaultBackground})
		case 58:
			color, consumed := decodeExtendedColor(params, i)
			out = append(out, SGRAttr{Kind: SGRUnderlineColor, Color: color})
			i += consumed
		case 59:
			out = append(out, SGRAttr{Kind: SGRDefaultUnderlineColor})
		case 90, 91, 92, 93, 94, 95, 96, 97:
			out = append(out, SGRAttr{Kind: SGRForeground, Color: SGRColor{Kind: SGRColorIndexed16, Index: code - 90 + 8}})
		case 100, 101, 102, 103, 104, 105, 106, 107:
			out = append(out, SGRAttr{Kind: SGRBackground, Color: SGRColor{Kind: SGRColorIndexed16, Index: code - 100 + 8}})
		default:
			// Unrecognized SGR code: ignored per spec edge policy.
		}
	}
	return out
}

// decodeExtendedColor handles the 38/48/58 "extended color" forms and
// returns the color plus how many additional top-level groups (beyond the
// introducer at index i) it consumed in the semicolon form. In the colon
// form everything lives in group i's sub-parameters, so consumed is 0.
func decodeExtendedColor(params *Params, i int) (SGRColor, int) {
	if params.SubLen(i) > 1 {
		mode := params.GetSub(i, 1, 0)
		switch mode {
		case 5:
			return SGRColor{Kind: SGRColorIndexed256, Index: params.GetSub(i, 2, 0)}, 0
		case 2:
			sub := params.SubLen(i)
			if sub >= 6 {
				return SGRColor{
					Kind: SGRColorTrueColor,
					R:    uint8(params.GetSub(i, 3, 0)),
					G:    uint8(params.GetSub(i, 4, 0)),
					B:    uint8(params.GetSub(i, 5, 0)),
				}, 0
			}
			return SGRColor{
				Kind: SGRColorTrueColor,
				R:    uint8(params.GetSub(i, 2, 0)),
				G:    uint8(params.GetSub(i, 3, 0)),
				B:    uint8(params.GetSub(i, 4, 0)),
			}, 0
		}
		return SGRColor{}, 0
	}

	mode := params.Get(i+1, 0)
	switch mode {
	case 5:
		return SGRColor{Kind: SGRColorIndexed256, Index: params.Get(i+2, 0)}, 2
	case 2:
		return SGRColor{
			Kind: SGRColorTrueColor,
			R:    uint8(params.Get(i+2, 0)),
			G:    uint8(params.Get(i+3, 0)),
			B:    uint8(params.Get(i+4, 0)),
		}, 4
	}
	return SGRColor{}, 1
}

// EncodeSGR renders attrs back to the body of a CSI 'm' sequence (without
// "ESC[" or the final 'm'), using the semicolon extended-color form.
func EncodeSGR(attrs []SGRAttr) string {
	if len(attrs) == 0 {
		return "0"
	}
	var parts []string
	for _, a := range attrs {
		switch a.Kind {
		case SGRReset:
			parts = append(parts, "0")
		case SGRBold:
			parts = append(parts, "1")
		case SGRDim:
			parts = append(parts, "2")
		case SGRItalic:
			parts = append(parts, "3")
		case SGRUnderline:
			parts = append(parts, "4")
		case SGRDoubleUnderline:
			parts = append(parts, "4:2")
		case SGRCurlyUnderline:
			parts = append(parts, "4:3")
		case SGRDottedUnderline:
			parts = append(parts, "4:4")
		case SGRDashedUnderline:
			parts = append(parts, "4:5")
		case SGRBlinkSlow:
			parts = append(parts, "5")
		case SGRBlinkFast:
			parts = append(parts, "6")
		case SGRReverse:
			parts = append(parts, "7")
		case SGRHidden:
			parts = append(parts, "8")
		case SGRStrike:
			parts = append(parts, "9")
		case SGRNoBoldDim:
			parts = append(parts, "22")
		case SGRNoItalic:
			parts = append(parts, "23")
		case SGRNoUnderline:
			parts = append(parts, "24")
		case SGRNoBlink:
			parts = append(parts, "25")
		case SGRNoReverse:
			parts = append(parts, "27")
		case SGRNoHidden:
			parts = append(parts, "28")
		case SGRNoStrike:
			parts = append(parts, "29")
		case SGRForeground:
			parts = append(parts, encodeColor(a.Color, 30, 38)...)
		case SGRBackground:
			parts = append(parts, encodeColor(a.Color, 40, 48)...)
		case SGRUnderlineColor:
			parts = append(parts, encodeColor(a.Color, -1, 58)...)
		case SGRDefaultForeground:
			parts = append(parts, "39")
		case SGRDefaultBackground:
			parts = append(parts, "49")
		case SGRDefaultUnderlineColor:
			parts = append(parts, "59")
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ";"
		}
		out += p
	}
	return out
}

func encodeColor(c SGRColor, base16, extended int) []string {
	switch c.Kind {
	case SGRColorIndexed16:
		if base16 < 0 {
			return []string{strconv.Itoa(extended), "5", strconv.Itoa(c.Index)}
		}
		if c.Index < 8 {
			return []string{strconv.Itoa(base16 + c.Index)}
		}
		return []string{strconv.Itoa(base16 + 60 + c.Index - 8)}
	case SGRColorIndexed256:
		return []string{strconv.Itoa(extended), "5", strconv.Itoa(c.Index)}
	case SGRColorTrueColor:
		return []string{strconv.Itoa(extended), "2", strconv.Itoa(int(c.R)), strconv.Itoa(int(c.G)), strconv.Itoa(int(c.B))}
	default:
		return nil
	}
}
