package vt

// StyleFlags is a bit-set of the text styles a cell can carry. Bits are
// independent; SGR handling is the only writer.
type StyleFlags uint16

const (
	StyleBold StyleFlags = 1 << iota
	StyleDim
	StyleItalic
	StyleUnderline
	StyleBlink
	StyleInverse
	StyleInvisible
	StyleStrikethrough
	StyleDoubleUnderline
	StyleCurlyUnderline
)

// underlineAny covers every underline variant, cleared together by SGR 24.
const underlineAny = StyleUnderline | StyleDoubleUnderline | StyleCurlyUnderline

func (s StyleFlags) Has(flag StyleFlags) bool {
	return s&flag != 0
}

func (s *StyleFlags) Set(flag StyleFlags) {
	*s |= flag
}

func (s *StyleFlags) Clear(flag StyleFlags) {
	*s &^= flag
}

// Attribute is the full rendition state applied to written cells: colors,
// style bits and the optional underline color (SGR 58/59).
type Attribute struct {
	FG             Color
	BG             Color
	Style          StyleFlags
	UnderlineColor *Color
}

// DefaultAttribute returns the reset rendition: default colors, no styles.
func DefaultAttribute() Attribute {
	return Attribute{}
}

// Equal reports whether two attributes render identically.
func (a Attribute) Equal(b Attribute) bool {
	if a.FG != b.FG || a.BG != b.BG || a.Style != b.Style {
		return false
	}
	switch {
	case a.UnderlineColor == nil && b.UnderlineColor == nil:
		return true
	case a.UnderlineColor == nil || b.UnderlineColor == nil:
		return false
	default:
		return *a.UnderlineColor == *b.UnderlineColor
	}
}
