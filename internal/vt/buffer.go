package vt

import (
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

// EraseMode selects the span for the erase families (ED/EL).
type EraseMode int

const (
	EraseToEnd EraseMode = iota
	EraseToStart
	EraseAll
	EraseScrollback
)

// CursorState is the mutable cursor: position plus the wrap/origin flags
// that travel with it. WrapNext is the deferred-wrap flag: writing into the
// last column does not wrap immediately, the wrap happens lazily on the next
// write.
type CursorState struct {
	X, Y       int
	OriginMode bool
	AutoWrap   bool
	WrapNext   bool
}

// SavedCursor is the DECSC snapshot: position, rendition and the two cursor
// modes. Scroll region and tab stops are deliberately outside its scope.
type SavedCursor struct {
	X, Y       int
	Attr       Attribute
	OriginMode bool
	AutoWrap   bool
}

// Buffer is a mutable grid of cells plus cursor, current rendition, scroll
// region, tab stops and a capped scrollback ring. All coordinates are
// 0-indexed and every accessor clamps rather than failing: the buffer
// processes untrusted geometry and must never panic.
type Buffer struct {
	cols, rows int
	lines      []Line

	scrollback    []Line
	maxScrollback int

	cursor       CursorState
	saved        *SavedCursor
	attr         Attribute
	scrollTop    int
	scrollBottom int
	tabStops     map[int]bool
}

// NewBuffer returns a blank cols x rows grid. maxScrollback 0 disables the
// scrollback ring (the alternate screen runs this way).
func NewBuffer(cols, rows, maxScrollback int) *Buffer {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	b := &Buffer{
		cols:          cols,
		rows:          rows,
		maxScrollback: maxScrollback,
		cursor:        CursorState{AutoWrap: true},
		scrollBottom:  rows - 1,
	}
	b.lines = make([]Line, rows)
	for i := range b.lines {
		b.lines[i] = newLine(cols, DefaultAttribute())
	}
	b.resetTabStops()
	return b
}

func (b *Buffer) resetTabStops() {
	b.tabStops = make(map[int]bool)
	for i := 8; i < b.cols; i += 8 {
		b.tabStops[i] = true
	}
}

// === Snapshot access ===

func (b *Buffer) Cols() int { return b.cols }
func (b *Buffer) Rows() int { return b.rows }

// Cursor returns the current cursor state.
func (b *Buffer) Cursor() CursorState { return b.cursor }

// Attr returns the current rendition applied to written cells.
func (b *Buffer) Attr() Attribute { return b.attr }

// Line returns visible row y, or nil when out of range.
func (b *Buffer) Line(y int) *Line {
	if y < 0 || y >= b.rows {
		return nil
	}
	return &b.lines[y]
}

// Cell returns the cell at (x, y), or a blank when out of range.
func (b *Buffer) Cell(x, y int) Cell {
	if y < 0 || y >= b.rows || x < 0 || x >= b.cols {
		return blankCell(DefaultAttribute())
	}
	return b.lines[y].Cells[x]
}

// ScrollbackLen returns the number of retained history lines.
func (b *Buffer) ScrollbackLen() int { return len(b.scrollback) }

// ScrollbackLine returns history line i, oldest first, or nil out of range.
func (b *Buffer) ScrollbackLine(i int) *Line {
	if i < 0 || i >= len(b.scrollback) {
		return nil
	}
	return &b.scrollback[i]
}

// ScrollRegion returns the active top and bottom margins, inclusive.
func (b *Buffer) ScrollRegion() (top, bottom int) {
	return b.scrollTop, b.scrollBottom
}

// === Rendition and cursor modes ===

// SetAttr replaces the current rendition.
func (b *Buffer) SetAttr(attr Attribute) { b.attr = attr }

// SetAutoWrap toggles DECAWM for this buffer. Disabling clears a pending
// deferred wrap.
func (b *Buffer) SetAutoWrap(on bool) {
	b.cursor.AutoWrap = on
	if !on {
		b.cursor.WrapNext = false
	}
}

// SetOriginMode toggles DECOM and homes the cursor, per the DEC manuals.
func (b *Buffer) SetOriginMode(on bool) {
	b.cursor.OriginMode = on
	b.cursor.WrapNext = false
	if on {
		b.cursor.X = 0
		b.cursor.Y = b.scrollTop
	} else {
		b.cursor.X = 0
		b.cursor.Y = 0
	}
}

// === Writing ===

// WriteRune resolves the glyph's display width, applies any pending deferred
// wrap, and places the cell (plus continuation for wide glyphs) at the
// cursor. Zero-width input is dropped: combining beyond single-codepoint
// width classification is out of scope.
func (b *Buffer) WriteRune(r rune) {
	w := runewidth.RuneWidth(r)
	if w <= 0 {
		return
	}
	if w > 2 {
		w = 2
	}

	if b.cursor.WrapNext {
		if b.cursor.AutoWrap {
			b.lines[b.cursor.Y].Wrapped = true
			b.LineFeed()
			b.cursor.X = 0
		}
		b.cursor.WrapNext = false
	}

	// A wide glyph that no longer fits wraps (or is pinned) before writing.
	if w == 2 && b.cursor.X+w > b.cols {
		if b.cursor.AutoWrap {
			b.lines[b.cursor.Y].Wrapped = true
			b.LineFeed()
			b.cursor.X = 0
		} else {
			b.cursor.X = b.cols - w
			if b.cursor.X < 0 {
				b.cursor.X = 0
			}
		}
	}

	y := b.cursor.Y
	if y < 0 {
		y = 0
	}
	if y >= b.rows {
		y = b.rows - 1
	}
	x := b.cursor.X
	if x >= b.cols {
		x = b.cols - 1
	}

	b.clearWideAt(x, y)
	b.lines[y].Cells[x] = Cell{Rune: r, Width: w, Attr: b.attr}
	if w == 2 && x+1 < b.cols {
		b.clearWideAt(x+1, y)
		b.lines[y].Cells[x+1] = Cell{Rune: 0, Width: 1, Attr: b.attr, Continuation: true}
	}

	if x+w >= b.cols {
		b.cursor.X = b.cols - 1
		b.cursor.WrapNext = true
	} else {
		b.cursor.X = x + w
	}
}

// clearWideAt repairs a wide glyph that position (x, y) would half-overwrite,
// blanking both of its columns so no orphan continuation survives.
func (b *Buffer) clearWideAt(x, y int) {
	c := b.lines[y].Cells[x]
	switch {
	case c.Continuation && x > 0:
		b.lines[y].Cells[x-1] = blankCell(b.lines[y].Cells[x-1].Attr)
		b.lines[y].Cells[x] = blankCell(c.Attr)
	case c.Width == 2 && x+1 < b.cols:
		b.lines[y].Cells[x+1] = blankCell(b.lines[y].Cells[x+1].Attr)
	}
}

// === Cursor motion ===

// CarriageReturn moves the cursor to column 0.
func (b *Buffer) CarriageReturn() {
	b.cursor.X = 0
	b.cursor.WrapNext = false
}

// Backspace moves the cursor one column left, stopping at the margin.
func (b *Buffer) Backspace() {
	if b.cursor.WrapNext {
		b.cursor.WrapNext = false
		return
	}
	if b.cursor.X > 0 {
		b.cursor.X--
	}
}

// LineFeed moves the cursor down one row, scrolling the region when the
// cursor sits on its bottom margin.
func (b *Buffer) LineFeed() {
	b.cursor.WrapNext = false
	switch {
	case b.cursor.Y == b.scrollBottom:
		b.ScrollUp(1)
	case b.cursor.Y < b.rows-1:
		b.cursor.Y++
	}
}

// ReverseIndex moves the cursor up one row, scrolling the region down when
// the cursor sits on its top margin.
func (b *Buffer) ReverseIndex() {
	b.cursor.WrapNext = false
	switch {
	case b.cursor.Y == b.scrollTop:
		b.ScrollDown(1)
	case b.cursor.Y > 0:
		b.cursor.Y--
	}
}

// MoveCursor places the cursor at (x, y), clamped into bounds. In origin
// mode y is relative to the scroll region and confined to it.
func (b *Buffer) MoveCursor(x, y int) {
	b.cursor.WrapNext = false
	if b.cursor.OriginMode {
		y += b.scrollTop
		if y < b.scrollTop {
			y = b.scrollTop
		}
		if y > b.scrollBottom {
			y = b.scrollBottom
		}
	} else {
		if y < 0 {
			y = 0
		}
		if y >= b.rows {
			y = b.rows - 1
		}
	}
	if x < 0 {
		x = 0
	}
	if x >= b.cols {
		x = b.cols - 1
	}
	b.cursor.X = x
	b.cursor.Y = y
}

// MoveCursorRelative offsets the cursor by (dx, dy) without scrolling,
// clamped to the screen (or the scroll region vertically when the cursor
// starts inside it).
func (b *Buffer) MoveCursorRelative(dx, dy int) {
	b.cursor.WrapNext = false
	top, bottom := 0, b.rows-1
	if b.cursor.Y >= b.scrollTop && b.cursor.Y <= b.scrollBottom {
		top, bottom = b.scrollTop, b.scrollBottom
	}
	y := b.cursor.Y + dy
	if y < top {
		y = top
	}
	if y > bottom {
		y = bottom
	}
	x := b.cursor.X + dx
	if x < 0 {
		x = 0
	}
	if x >= b.cols {
		x = b.cols - 1
	}
	b.cursor.X = x
	b.cursor.Y = y
}

// === Tab stops ===

// SetTabStop marks the current column as a tab stop.
func (b *Buffer) SetTabStop() {
	b.tabStops[b.cursor.X] = true
}

// ClearTabStop clears the current column's stop (mode 0) or all stops
// (mode 3), the two TBC forms xterm honors.
func (b *Buffer) ClearTabStop(mode int) {
	switch mode {
	case 0:
		delete(b.tabStops, b.cursor.X)
	case 3:
		b.tabStops = make(map[int]bool)
	}
}

// Tab advances to the next tab stop, n times.
func (b *Buffer) Tab(n int) {
	if n < 1 {
		n = 1
	}
	b.cursor.WrapNext = false
	for ; n > 0; n-- {
		x := b.cols - 1
		for i := b.cursor.X + 1; i < b.cols; i++ {
			if b.tabStops[i] {
				x = i
				break
			}
		}
		b.cursor.X = x
	}
}

// BackTab moves to the previous tab stop, n times.
func (b *Buffer) BackTab(n int) {
	if n < 1 {
		n = 1
	}
	b.cursor.WrapNext = false
	for ; n > 0; n-- {
		x := 0
		for i := b.cursor.X - 1; i > 0; i-- {
			if b.tabStops[i] {
				x = i
				break
			}
		}
		b.cursor.X = x
	}
}

// === Scrolling ===

// ScrollUp shifts the scroll region up by n lines. Lines leaving from the
// top of the whole screen (region top == 0) are retained in scrollback;
// vacated lines are blanked with the current rendition.
func (b *Buffer) ScrollUp(n int) {
	if n < 1 {
		return
	}
	span := b.scrollBottom - b.scrollTop + 1
	if n > span {
		n = span
	}
	if b.scrollTop == 0 {
		for i := 0; i < n; i++ {
			b.pushScrollback(b.lines[b.scrollTop+i])
		}
	}
	for y := b.scrollTop; y <= b.scrollBottom; y++ {
		if y+n <= b.scrollBottom {
			b.lines[y] = b.lines[y+n]
		} else {
			b.lines[y] = newLine(b.cols, b.attr)
		}
	}
}

// ScrollDown shifts the scroll region down by n lines. Nothing enters
// scrollback; vacated top lines are blanked with the current rendition.
func (b *Buffer) ScrollDown(n int) {
	if n < 1 {
		return
	}
	span := b.scrollBottom - b.scrollTop + 1
	if n > span {
		n = span
	}
	for y := b.scrollBottom; y >= b.scrollTop; y-- {
		if y-n >= b.scrollTop {
			b.lines[y] = b.lines[y-n]
		} else {
			b.lines[y] = newLine(b.cols, b.attr)
		}
	}
}

func (b *Buffer) pushScrollback(l Line) {
	if b.maxScrollback <= 0 || l.isBlank() {
		return
	}
	b.scrollback = append(b.scrollback, l.clone())
	if len(b.scrollback) > b.maxScrollback {
		// Oldest-first eviction; hitting the cap is normal operation.
		over := len(b.scrollback) - b.maxScrollback
		b.scrollback = append(b.scrollback[:0], b.scrollback[over:]...)
	}
}

// === Scroll region ===

// SetScrollRegion sets the top/bottom margins from 1-based DECSTBM
// coordinates; zeros select the full screen. Invalid regions reset to full.
func (b *Buffer) SetScrollRegion(top, bottom int) {
	if top < 1 {
		top = 1
	}
	if bottom < 1 || bottom > b.rows {
		bottom = b.rows
	}
	if top >= bottom {
		top, bottom = 1, b.rows
	}
	b.scrollTop = top - 1
	b.scrollBottom = bottom - 1
}

// === Erase family ===

func (b *Buffer) eraseCells(y, x0, x1 int) {
	if y < 0 || y >= b.rows {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > b.cols {
		x1 = b.cols
	}
	for x := x0; x < x1; x++ {
		b.lines[y].Cells[x] = blankCell(b.attr)
	}
	if x1 >= b.cols {
		b.lines[y].Wrapped = false
	}
}

// EraseInLine clears part of the cursor's row to the current-rendition
// blank. The cursor does not move.
func (b *Buffer) EraseInLine(mode EraseMode) {
	switch mode {
	case EraseToEnd:
		b.eraseCells(b.cursor.Y, b.cursor.X, b.cols)
	case EraseToStart:
		b.eraseCells(b.cursor.Y, 0, b.cursor.X+1)
	case EraseAll:
		b.eraseCells(b.cursor.Y, 0, b.cols)
	}
}

// EraseInDisplay clears part of the screen. EraseScrollback discards the
// history ring and nothing else (CSI 3 J).
func (b *Buffer) EraseInDisplay(mode EraseMode) {
	switch mode {
	case EraseToEnd:
		b.eraseCells(b.cursor.Y, b.cursor.X, b.cols)
		for y := b.cursor.Y + 1; y < b.rows; y++ {
			b.eraseCells(y, 0, b.cols)
		}
	case EraseToStart:
		for y := 0; y < b.cursor.Y; y++ {
			b.eraseCells(y, 0, b.cols)
		}
		b.eraseCells(b.cursor.Y, 0, b.cursor.X+1)
	case EraseAll:
		for y := 0; y < b.rows; y++ {
			b.eraseCells(y, 0, b.cols)
		}
	case EraseScrollback:
		b.scrollback = nil
	}
}

// EraseCharacters blanks n cells from the cursor rightward (ECH).
func (b *Buffer) EraseCharacters(n int) {
	if n < 1 {
		n = 1
	}
	b.eraseCells(b.cursor.Y, b.cursor.X, b.cursor.X+n)
}

// === Insert / delete ===

// InsertLines inserts n blank lines at the cursor row, shifting rows below
// down within the scroll region. No-op outside the region.
func (b *Buffer) InsertLines(n int) {
	if b.cursor.Y < b.scrollTop || b.cursor.Y > b.scrollBottom {
		return
	}
	if n < 1 {
		n = 1
	}
	if n > b.scrollBottom-b.cursor.Y+1 {
		n = b.scrollBottom - b.cursor.Y + 1
	}
	for y := b.scrollBottom; y >= b.cursor.Y+n; y-- {
		b.lines[y] = b.lines[y-n]
	}
	for y := b.cursor.Y; y < b.cursor.Y+n; y++ {
		b.lines[y] = newLine(b.cols, b.attr)
	}
	b.cursor.X = 0
	b.cursor.WrapNext = false
}

// DeleteLines removes n lines at the cursor row, shifting rows below up
// within the scroll region. No-op outside the region.
func (b *Buffer) DeleteLines(n int) {
	if b.cursor.Y < b.scrollTop || b.cursor.Y > b.scrollBottom {
		return
	}
	if n < 1 {
		n = 1
	}
	if n > b.scrollBottom-b.cursor.Y+1 {
		n = b.scrollBottom - b.cursor.Y + 1
	}
	for y := b.cursor.Y; y <= b.scrollBottom; y++ {
		if y+n <= b.scrollBottom {
			b.lines[y] = b.lines[y+n]
		} else {
			b.lines[y] = newLine(b.cols, b.attr)
		}
	}
	b.cursor.X = 0
	b.cursor.WrapNext = false
}

// InsertCharacters inserts n blanks at the cursor, shifting the rest of the
// line right; cells pushed past the margin are lost.
func (b *Buffer) InsertCharacters(n int) {
	if n < 1 {
		n = 1
	}
	if n > b.cols-b.cursor.X {
		n = b.cols - b.cursor.X
	}
	line := b.lines[b.cursor.Y].Cells
	copy(line[b.cursor.X+n:], line[b.cursor.X:b.cols-n])
	for x := b.cursor.X; x < b.cursor.X+n; x++ {
		line[x] = blankCell(b.attr)
	}
}

// DeleteCharacters removes n cells at the cursor, shifting the rest of the
// line left and filling the tail with blanks.
func (b *Buffer) DeleteCharacters(n int) {
	if n < 1 {
		n = 1
	}
	if n > b.cols-b.cursor.X {
		n = b.cols - b.cursor.X
	}
	line := b.lines[b.cursor.Y].Cells
	copy(line[b.cursor.X:], line[b.cursor.X+n:])
	for x := b.cols - n; x < b.cols; x++ {
		line[x] = blankCell(b.attr)
	}
}

// === Save / restore ===

// SaveCursor snapshots position, rendition and the origin/autowrap flags
// (DECSC scope; scroll region and tab stops stay live).
func (b *Buffer) SaveCursor() {
	b.saved = &SavedCursor{
		X:          b.cursor.X,
		Y:          b.cursor.Y,
		Attr:       b.attr,
		OriginMode: b.cursor.OriginMode,
		AutoWrap:   b.cursor.AutoWrap,
	}
}

// RestoreCursor applies the DECSC snapshot; with none saved it homes the
// cursor and resets the rendition, matching xterm.
func (b *Buffer) RestoreCursor() {
	b.cursor.WrapNext = false
	if b.saved == nil {
		b.cursor.X, b.cursor.Y = 0, 0
		b.attr = DefaultAttribute()
		b.cursor.OriginMode = false
		return
	}
	b.cursor.X = b.saved.X
	b.cursor.Y = b.saved.Y
	b.attr = b.saved.Attr
	b.cursor.OriginMode = b.saved.OriginMode
	b.cursor.AutoWrap = b.saved.AutoWrap
	if b.cursor.X >= b.cols {
		b.cursor.X = b.cols - 1
	}
	if b.cursor.Y >= b.rows {
		b.cursor.Y = b.rows - 1
	}
}

// === Alignment ===

// FillAlignment floods the screen with 'E' (DECALN).
func (b *Buffer) FillAlignment() {
	for y := 0; y < b.rows; y++ {
		for x := 0; x < b.cols; x++ {
			b.lines[y].Cells[x] = Cell{Rune: 'E', Width: 1}
		}
		b.lines[y].Wrapped = false
	}
	b.cursor = CursorState{AutoWrap: b.cursor.AutoWrap}
	b.scrollTop = 0
	b.scrollBottom = b.rows - 1
}

// === Resize ===

// Resize adjusts the grid in place without reflowing wrapped lines. Columns
// truncate or pad per line; shrinking rows pushes non-blank top rows into
// scrollback, growing appends blanks at the bottom. Tab stops are recomputed
// and the cursor clamped.
func (b *Buffer) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	if cols != b.cols {
		for y := range b.lines {
			b.lines[y] = resizeLine(b.lines[y], cols)
		}
		for i := range b.scrollback {
			b.scrollback[i] = resizeLine(b.scrollback[i], cols)
		}
		b.cols = cols
	}
	for b.rows > rows {
		b.pushScrollback(b.lines[0])
		b.lines = b.lines[1:]
		b.rows--
		if b.cursor.Y > 0 {
			b.cursor.Y--
		}
	}
	for b.rows < rows {
		b.lines = append(b.lines, newLine(b.cols, DefaultAttribute()))
		b.rows++
	}

	if b.scrollBottom >= b.rows {
		b.scrollBottom = b.rows - 1
	}
	if b.scrollTop > b.scrollBottom {
		b.scrollTop = 0
		b.scrollBottom = b.rows - 1
	}
	if b.cursor.X >= b.cols {
		b.cursor.X = b.cols - 1
	}
	if b.cursor.Y >= b.rows {
		b.cursor.Y = b.rows - 1
	}
	b.cursor.WrapNext = false
	b.resetTabStops()
}

func resizeLine(l Line, cols int) Line {
	switch {
	case len(l.Cells) > cols:
		l.Cells = l.Cells[:cols]
		// Truncation may split a wide glyph at the new margin.
		if cols > 0 && l.Cells[cols-1].Width == 2 {
			l.Cells[cols-1] = blankCell(l.Cells[cols-1].Attr)
		}
	case len(l.Cells) < cols:
		for len(l.Cells) < cols {
			l.Cells = append(l.Cells, blankCell(DefaultAttribute()))
		}
	}
	return l
}

// === Reset / extraction ===

// Clear blanks the whole grid and homes the cursor; scrollback survives.
func (b *Buffer) Clear() {
	for y := 0; y < b.rows; y++ {
		b.lines[y] = newLine(b.cols, DefaultAttribute())
	}
	b.cursor = CursorState{AutoWrap: b.cursor.AutoWrap}
	b.attr = DefaultAttribute()
}

// Reset restores construction state: blank grid, default modes, full-screen
// scroll region, 8-column tab stops, no saved cursor, empty scrollback.
func (b *Buffer) Reset() {
	b.Clear()
	b.cursor = CursorState{AutoWrap: true}
	b.saved = nil
	b.scrollTop = 0
	b.scrollBottom = b.rows - 1
	b.scrollback = nil
	b.resetTabStops()
}

// ExtractText returns the visible rows [y0, y1] as text. Rows that wrapped
// onto the next row are joined without a newline so logical lines survive
// extraction; trailing blanks are trimmed per physical row.
func (b *Buffer) ExtractText(y0, y1 int) string {
	if y0 < 0 {
		y0 = 0
	}
	if y1 >= b.rows {
		y1 = b.rows - 1
	}
	var sb strings.Builder
	for y := y0; y <= y1; y++ {
		sb.WriteString(strings.TrimRight(b.lines[y].String(), " "))
		if y < y1 && !b.lines[y].Wrapped {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
