package vt

// Cell is one grid position. A wide (width-2) glyph occupies two columns: the
// first carries the rune, the second is a continuation placeholder with the
// same attribute and no glyph of its own. Continuation cells never render
// independently.
type Cell struct {
	Rune         rune
	Width        int // 1 or 2; continuation cells report 1
	Attr         Attribute
	Continuation bool
}

// blankCell returns an erased cell carrying the given attribute.
func blankCell(attr Attribute) Cell {
	return Cell{Rune: ' ', Width: 1, Attr: attr}
}

// IsBlank reports whether the cell holds no visible glyph.
func (c Cell) IsBlank() bool {
	return c.Continuation || c.Rune == ' ' || c.Rune == 0
}

// Line is one row of the grid. Wrapped marks rows whose last character was
// forced onto the next row by autowrap, so text extraction can join the two
// halves without inserting a newline.
type Line struct {
	Cells   []Cell
	Wrapped bool
}

func newLine(cols int, attr Attribute) Line {
	cells := make([]Cell, cols)
	for i := range cells {
		cells[i] = blankCell(attr)
	}
	return Line{Cells: cells}
}

// clone returns a deep copy, used when a line crosses into scrollback.
func (l Line) clone() Line {
	cells := make([]Cell, len(l.Cells))
	copy(cells, l.Cells)
	return Line{Cells: cells, Wrapped: l.Wrapped}
}

// isBlank reports whether every cell in the line is blank.
func (l Line) isBlank() bool {
	for _, c := range l.Cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// String renders the line's glyphs, skipping continuation cells. Trailing
// blanks are preserved; callers trim as needed.
func (l Line) String() string {
	runes := make([]rune, 0, len(l.Cells))
	for _, c := range l.Cells {
		if c.Continuation {
			continue
		}
		r := c.Rune
		if r == 0 {
			r = ' '
		}
		runes = append(runes, r)
	}
	return string(runes)
}
