package vt

// charset identifies a G0/G1 designation. Only ASCII and the DEC special
// graphics set are honored; other designators fall back to ASCII.
type charset int

const (
	charsetASCII charset = iota
	charsetDECSpecial
)

func charsetFor(designator byte) charset {
	if designator == '0' {
		return charsetDECSpecial
	}
	return charsetASCII
}

// decSpecial maps the DEC special-graphics positions onto their Unicode
// box-drawing equivalents. Runes outside the map pass through unchanged.
var decSpecial = map[rune]rune{
	'`': '◆',
	'a': '▒',
	'b': '␉',
	'c': '␌',
	'd': '␍',
	'e': '␊',
	'f': '°',
	'g': '±',
	'h': '␤',
	'i': '␋',
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'o': '⎺',
	'p': '⎻',
	'q': '─',
	'r': '⎼',
	's': '⎽',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
	'y': '≤',
	'z': '≥',
	'{': 'π',
	'|': '≠',
	'}': '£',
	'~': '·',
}

func (c charset) translate(r rune) rune {
	if c == charsetDECSpecial {
		if mapped, ok := decSpecial[r]; ok {
			return mapped
		}
	}
	return r
}
