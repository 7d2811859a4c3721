package termkit

import "github.com/unilibs/uniwidth"

// columnSpan returns how many grid columns r occupies when drawn: 2 for
// wide glyphs (CJK, fullwidth forms, most emoji), 1 for ordinary glyphs,
// 0 for combining marks and control characters that attach to a
// neighboring cell instead of claiming one of their own.
func columnSpan(r rune) int {
	return uniwidth.RuneWidth(r)
}

// spansTwoCols reports whether r needs a trailing spacer cell behind it.
func spansTwoCols(r rune) bool {
	return uniwidth.RuneWidth(r) == 2
}

// DisplayWidth sums columnSpan across s, giving the number of grid
// columns needed to render the whole string.
func DisplayWidth(s string) int {
	return uniwidth.StringWidth(s)
}
