package vt

// selectGraphicRendition walks the SGR parameter list against the active
// buffer's current rendition. Extended-color introducers (38/48/58) consume
// their sub-parameters by advancing the iterator; a malformed sub-sequence
// abandons the remainder rather than misaligning it.
func (e *Emulator) selectGraphicRendition(params Params) {
	buf := e.active()
	attr := buf.Attr()
	defer func() { buf.SetAttr(attr) }()

	if params.Len() == 0 {
		attr = DefaultAttribute()
		return
	}

	for i := 0; i < params.Len(); i++ {
		switch v := params.Value(i); v {
		case 0:
			attr = DefaultAttribute()
		case 1:
			attr.Style.Set(StyleBold)
		case 2:
			attr.Style.Set(StyleDim)
		case 3:
			attr.Style.Set(StyleItalic)
		case 4:
			attr.Style.Clear(underlineAny)
			attr.Style.Set(StyleUnderline)
		case 5, 6:
			attr.Style.Set(StyleBlink)
		case 7:
			attr.Style.Set(StyleInverse)
		case 8:
			attr.Style.Set(StyleInvisible)
		case 9:
			attr.Style.Set(StyleStrikethrough)
		case 21:
			attr.Style.Clear(underlineAny)
			attr.Style.Set(StyleDoubleUnderline)
		case 22:
			// ECMA-48 clears both weight attributes together.
			attr.Style.Clear(StyleBold | StyleDim)
		case 23:
			attr.Style.Clear(StyleItalic)
		case 24:
			attr.Style.Clear(underlineAny)
		case 25:
			attr.Style.Clear(StyleBlink)
		case 27:
			attr.Style.Clear(StyleInverse)
		case 28:
			attr.Style.Clear(StyleInvisible)
		case 29:
			attr.Style.Clear(StyleStrikethrough)
		case 30, 31, 32, 33, 34, 35, 36, 37:
			attr.FG = IndexColor(uint8(v - 30))
		case 38:
			color, consumed, ok := extendedColor(params, i)
			if !ok {
				return
			}
			attr.FG = color
			i += consumed
		case 39:
			attr.FG = DefaultColor()
		case 40, 41, 42, 43, 44, 45, 46, 47:
			attr.BG = IndexColor(uint8(v - 40))
		case 48:
			color, consumed, ok := extendedColor(params, i)
			if !ok {
				return
			}
			attr.BG = color
			i += consumed
		case 49:
			attr.BG = DefaultColor()
		case 58:
			color, consumed, ok := extendedColor(params, i)
			if !ok {
				return
			}
			attr.UnderlineColor = &color
			i += consumed
		case 59:
			attr.UnderlineColor = nil
		case 90, 91, 92, 93, 94, 95, 96, 97:
			attr.FG = IndexColor(uint8(v - 90 + 8))
		case 100, 101, 102, 103, 104, 105, 106, 107:
			attr.BG = IndexColor(uint8(v - 100 + 8))
		}
	}
}

// extendedColor parses the `5;n` (256-color) and `2;r;g;b` (true color)
// sub-sequences following SGR 38/48/58 at index i. The returned count is how
// many extra parameters the caller must skip.
func extendedColor(params Params, i int) (Color, int, bool) {
	switch params.Value(i + 1) {
	case 5:
		if i+2 >= params.Len() {
			return Color{}, 0, false
		}
		return IndexColor(uint8(params.Value(i + 2))), 2, true
	case 2:
		if i+4 >= params.Len() {
			return Color{}, 0, false
		}
		return RGBColor(
			uint8(params.Value(i+2)),
			uint8(params.Value(i+3)),
			uint8(params.Value(i+4)),
		), 4, true
	default:
		return Color{}, 0, false
	}
}
