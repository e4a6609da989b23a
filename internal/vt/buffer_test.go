package vt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termweave/internal/vt"
)

func write(b *vt.Buffer, s string) {
	for _, r := range s {
		b.WriteRune(r)
	}
}

func rowText(b *vt.Buffer, y int) string {
	return strings.TrimRight(b.Line(y).String(), " ")
}

func TestWriteAdvancesCursor(t *testing.T) {
	b := vt.NewBuffer(80, 24, 0)
	write(b, "abc")
	assert.Equal(t, "abc", rowText(b, 0))
	assert.Equal(t, 3, b.Cursor().X)
	assert.Equal(t, 0, b.Cursor().Y)
}

func TestDeferredWrap(t *testing.T) {
	b := vt.NewBuffer(5, 3, 0)
	write(b, "abcde")

	// Filling the last column pins the cursor instead of wrapping.
	cur := b.Cursor()
	assert.Equal(t, 4, cur.X)
	assert.Equal(t, 0, cur.Y)
	assert.True(t, cur.WrapNext)

	// The next glyph performs the wrap.
	write(b, "f")
	assert.Equal(t, "abcde", rowText(b, 0))
	assert.Equal(t, "f", rowText(b, 1))
	assert.True(t, b.Line(0).Wrapped)
	assert.Equal(t, 1, b.Cursor().X)
	assert.Equal(t, 1, b.Cursor().Y)
}

func TestDeferredWrapCancelledByCR(t *testing.T) {
	b := vt.NewBuffer(5, 3, 0)
	write(b, "abcde")
	b.CarriageReturn()
	assert.False(t, b.Cursor().WrapNext)
	write(b, "X")
	assert.Equal(t, "Xbcde", rowText(b, 0))
	assert.Equal(t, 0, b.Cursor().Y)
}

func TestBackspaceEatsPendingWrap(t *testing.T) {
	b := vt.NewBuffer(5, 3, 0)
	write(b, "abcde")
	b.Backspace()
	cur := b.Cursor()
	assert.False(t, cur.WrapNext)
	assert.Equal(t, 4, cur.X)
	b.Backspace()
	assert.Equal(t, 3, b.Cursor().X)
}

func TestAutoWrapDisabled(t *testing.T) {
	b := vt.NewBuffer(5, 3, 0)
	b.SetAutoWrap(false)
	write(b, "abcdefg")
	// Overflow overwrites the final column in place.
	assert.Equal(t, "abcdg", rowText(b, 0))
	assert.Equal(t, 0, b.Cursor().Y)
	assert.Equal(t, 4, b.Cursor().X)
}

func TestWideGlyph(t *testing.T) {
	b := vt.NewBuffer(6, 3, 0)
	write(b, "世a")
	first := b.Cell(0, 0)
	assert.Equal(t, '世', first.Rune)
	assert.Equal(t, 2, first.Width)
	assert.True(t, b.Cell(1, 0).Continuation)
	assert.Equal(t, 'a', b.Cell(2, 0).Rune)
	assert.Equal(t, 3, b.Cursor().X)
}

func TestWideGlyphWrapsWhenSplit(t *testing.T) {
	b := vt.NewBuffer(5, 3, 0)
	write(b, "abcd世")
	// No room for both columns at x=4; the glyph moves to the next row.
	assert.Equal(t, "abcd", rowText(b, 0))
	assert.True(t, b.Line(0).Wrapped)
	assert.Equal(t, '世', b.Cell(0, 1).Rune)
}

func TestOverwritingWideGlyphRepairsBothCells(t *testing.T) {
	b := vt.NewBuffer(6, 3, 0)
	write(b, "世")
	b.MoveCursor(1, 0)
	write(b, "x")
	assert.Equal(t, ' ', b.Cell(0, 0).Rune)
	assert.Equal(t, 'x', b.Cell(1, 0).Rune)
	assert.False(t, b.Cell(1, 0).Continuation)
}

func TestLineFeedScrollsAtBottom(t *testing.T) {
	b := vt.NewBuffer(10, 3, 50)
	write(b, "l0")
	b.CarriageReturn()
	b.LineFeed()
	write(b, "l1")
	b.CarriageReturn()
	b.LineFeed()
	write(b, "l2")
	b.CarriageReturn()
	b.LineFeed() // bottom row, scrolls

	assert.Equal(t, "l1", rowText(b, 0))
	assert.Equal(t, "l2", rowText(b, 1))
	assert.Equal(t, "", rowText(b, 2))
	require.Equal(t, 1, b.ScrollbackLen())
	assert.Equal(t, "l0", strings.TrimRight(b.ScrollbackLine(0).String(), " "))
}

func TestBlankLinesSkipScrollback(t *testing.T) {
	b := vt.NewBuffer(10, 3, 50)
	for i := 0; i < 6; i++ {
		b.LineFeed()
	}
	assert.Equal(t, 0, b.ScrollbackLen())
}

func TestScrollbackCapEvictsOldest(t *testing.T) {
	b := vt.NewBuffer(10, 2, 3)
	write(b, "l0")
	for i := 1; i < 10; i++ {
		b.CarriageReturn()
		b.LineFeed()
		write(b, "l"+string(rune('0'+i)))
	}
	require.Equal(t, 3, b.ScrollbackLen())
	assert.Equal(t, "l5", strings.TrimRight(b.ScrollbackLine(0).String(), " "))
	assert.Equal(t, "l7", strings.TrimRight(b.ScrollbackLine(2).String(), " "))
}

func TestScrollRegion(t *testing.T) {
	b := vt.NewBuffer(10, 6, 50)
	for i := 0; i < 6; i++ {
		b.MoveCursor(0, i)
		write(b, "r"+string(rune('0'+i)))
	}
	b.SetScrollRegion(3, 5) // rows 2..4, 0-based
	b.MoveCursor(0, 4)
	b.LineFeed()

	assert.Equal(t, "r0", rowText(b, 0))
	assert.Equal(t, "r1", rowText(b, 1))
	assert.Equal(t, "r3", rowText(b, 2))
	assert.Equal(t, "r4", rowText(b, 3))
	assert.Equal(t, "", rowText(b, 4))
	assert.Equal(t, "r5", rowText(b, 5))
	// Region scrolls never reach scrollback.
	assert.Equal(t, 0, b.ScrollbackLen())
}

func TestScrollRegionInvalidResetsToFull(t *testing.T) {
	b := vt.NewBuffer(10, 6, 0)
	b.SetScrollRegion(5, 2)
	top, bottom := b.ScrollRegion()
	assert.Equal(t, 0, top)
	assert.Equal(t, 5, bottom)
}

func TestReverseIndexAtTopScrollsDown(t *testing.T) {
	b := vt.NewBuffer(10, 3, 0)
	write(b, "top")
	b.MoveCursor(0, 0)
	b.ReverseIndex()
	assert.Equal(t, "", rowText(b, 0))
	assert.Equal(t, "top", rowText(b, 1))
	assert.Equal(t, 0, b.Cursor().Y)
}

func TestOriginMode(t *testing.T) {
	b := vt.NewBuffer(10, 8, 0)
	b.SetScrollRegion(3, 6) // rows 2..5
	b.SetOriginMode(true)

	cur := b.Cursor()
	assert.Equal(t, 0, cur.X)
	assert.Equal(t, 2, cur.Y)

	b.MoveCursor(0, 0)
	assert.Equal(t, 2, b.Cursor().Y)
	b.MoveCursor(0, 99)
	assert.Equal(t, 5, b.Cursor().Y)
}

func TestEraseInLine(t *testing.T) {
	cases := []struct {
		name string
		mode vt.EraseMode
		want string
	}{
		{"to end", vt.EraseToEnd, "ab"},
		{"to start", vt.EraseToStart, "   de"},
		{"all", vt.EraseAll, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := vt.NewBuffer(5, 2, 0)
			write(b, "abcde")
			b.MoveCursor(2, 0)
			b.EraseInLine(tc.mode)
			assert.Equal(t, tc.want, rowText(b, 0))
			assert.Equal(t, 2, b.Cursor().X)
		})
	}
}

func TestEraseInDisplay(t *testing.T) {
	build := func() *vt.Buffer {
		b := vt.NewBuffer(5, 3, 0)
		for i := 0; i < 3; i++ {
			b.MoveCursor(0, i)
			write(b, "xxxxx")
		}
		b.MoveCursor(2, 1)
		return b
	}

	b := build()
	b.EraseInDisplay(vt.EraseToEnd)
	assert.Equal(t, "xxxxx", rowText(b, 0))
	assert.Equal(t, "xx", rowText(b, 1))
	assert.Equal(t, "", rowText(b, 2))

	b = build()
	b.EraseInDisplay(vt.EraseToStart)
	assert.Equal(t, "", rowText(b, 0))
	assert.Equal(t, "   xx", rowText(b, 1))
	assert.Equal(t, "xxxxx", rowText(b, 2))

	b = build()
	b.EraseInDisplay(vt.EraseAll)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "", rowText(b, i))
	}
}

func TestEraseScrollbackLeavesScreen(t *testing.T) {
	b := vt.NewBuffer(10, 2, 50)
	write(b, "keep")
	b.CarriageReturn()
	b.LineFeed()
	write(b, "a")
	b.CarriageReturn()
	b.LineFeed()
	require.Equal(t, 1, b.ScrollbackLen())

	b.EraseInDisplay(vt.EraseScrollback)
	assert.Equal(t, 0, b.ScrollbackLen())
	assert.Equal(t, "a", rowText(b, 0))
}

func TestEraseCharacters(t *testing.T) {
	b := vt.NewBuffer(6, 1, 0)
	write(b, "abcdef")
	b.MoveCursor(1, 0)
	b.EraseCharacters(3)
	assert.Equal(t, "a   ef", b.Line(0).String())
}

func TestInsertDeleteLines(t *testing.T) {
	b := vt.NewBuffer(10, 4, 0)
	for i := 0; i < 4; i++ {
		b.MoveCursor(0, i)
		write(b, "r"+string(rune('0'+i)))
	}

	b.MoveCursor(3, 1)
	b.InsertLines(1)
	assert.Equal(t, []string{"r0", "", "r1", "r2"}, gridText(b))
	assert.Equal(t, 0, b.Cursor().X)

	b.MoveCursor(0, 1)
	b.DeleteLines(1)
	assert.Equal(t, []string{"r0", "r1", "r2", ""}, gridText(b))
}

func gridText(b *vt.Buffer) []string {
	out := make([]string, b.Rows())
	for i := range out {
		out[i] = rowText(b, i)
	}
	return out
}

func TestInsertDeleteLinesOutsideRegionIgnored(t *testing.T) {
	b := vt.NewBuffer(10, 6, 0)
	write(b, "keep")
	b.SetScrollRegion(3, 6)
	b.MoveCursor(0, 0)
	b.InsertLines(2)
	b.DeleteLines(2)
	assert.Equal(t, "keep", rowText(b, 0))
}

func TestInsertDeleteCharacters(t *testing.T) {
	b := vt.NewBuffer(6, 1, 0)
	write(b, "abcdef")
	b.MoveCursor(2, 0)
	b.InsertCharacters(2)
	assert.Equal(t, "ab  cd", b.Line(0).String())

	b.DeleteCharacters(2)
	assert.Equal(t, "abcd  ", b.Line(0).String())
}

func TestTabStops(t *testing.T) {
	b := vt.NewBuffer(40, 2, 0)
	b.Tab(1)
	assert.Equal(t, 8, b.Cursor().X)
	b.Tab(2)
	assert.Equal(t, 24, b.Cursor().X)
	b.BackTab(1)
	assert.Equal(t, 16, b.Cursor().X)

	b.MoveCursor(3, 0)
	b.SetTabStop()
	b.MoveCursor(0, 0)
	b.Tab(1)
	assert.Equal(t, 3, b.Cursor().X)

	b.ClearTabStop(3)
	b.MoveCursor(0, 0)
	b.Tab(1)
	// No stops left: tab runs to the last column.
	assert.Equal(t, 39, b.Cursor().X)
}

func TestSaveRestoreCursor(t *testing.T) {
	b := vt.NewBuffer(20, 5, 0)
	attr := vt.DefaultAttribute()
	attr.Style.Set(vt.StyleBold)
	b.SetAttr(attr)
	b.MoveCursor(7, 3)
	b.SaveCursor()

	b.MoveCursor(0, 0)
	b.SetAttr(vt.DefaultAttribute())
	b.RestoreCursor()

	assert.Equal(t, 7, b.Cursor().X)
	assert.Equal(t, 3, b.Cursor().Y)
	assert.True(t, b.Attr().Style.Has(vt.StyleBold))
}

func TestRestoreWithoutSaveHomesCursor(t *testing.T) {
	b := vt.NewBuffer(20, 5, 0)
	attr := vt.DefaultAttribute()
	attr.Style.Set(vt.StyleItalic)
	b.SetAttr(attr)
	b.MoveCursor(7, 3)
	b.RestoreCursor()

	assert.Equal(t, 0, b.Cursor().X)
	assert.Equal(t, 0, b.Cursor().Y)
	assert.True(t, b.Attr().Equal(vt.DefaultAttribute()))
}

func TestFillAlignment(t *testing.T) {
	b := vt.NewBuffer(4, 2, 0)
	b.MoveCursor(2, 1)
	b.FillAlignment()
	assert.Equal(t, "EEEE", b.Line(0).String())
	assert.Equal(t, "EEEE", b.Line(1).String())
	assert.Equal(t, 0, b.Cursor().X)
	assert.Equal(t, 0, b.Cursor().Y)
}

func TestResizeColumns(t *testing.T) {
	b := vt.NewBuffer(8, 2, 0)
	write(b, "abcdefgh")
	b.Resize(4, 2)
	assert.Equal(t, "abcd", b.Line(0).String())
	assert.Equal(t, 3, b.Cursor().X)

	b.Resize(8, 2)
	assert.Equal(t, "abcd    ", b.Line(0).String())
}

func TestResizeShrinkRowsKeepsHistory(t *testing.T) {
	b := vt.NewBuffer(10, 4, 50)
	for i := 0; i < 4; i++ {
		b.MoveCursor(0, i)
		write(b, "r"+string(rune('0'+i)))
	}
	b.MoveCursor(0, 3)
	b.Resize(10, 2)

	assert.Equal(t, []string{"r2", "r3"}, gridText(b))
	require.Equal(t, 2, b.ScrollbackLen())
	assert.Equal(t, "r0", strings.TrimRight(b.ScrollbackLine(0).String(), " "))
	assert.Equal(t, 1, b.Cursor().Y)
}

func TestResizeGrowRowsAppendsBlanks(t *testing.T) {
	b := vt.NewBuffer(10, 2, 0)
	write(b, "top")
	b.Resize(10, 4)
	assert.Equal(t, []string{"top", "", "", ""}, gridText(b))
}

func TestResizeSameSizeIsNoop(t *testing.T) {
	b := vt.NewBuffer(10, 4, 10)
	write(b, "stay")
	b.MoveCursor(2, 1)
	b.Resize(10, 4)
	assert.Equal(t, "stay", rowText(b, 0))
	assert.Equal(t, 2, b.Cursor().X)
	assert.Equal(t, 1, b.Cursor().Y)
	assert.Equal(t, 0, b.ScrollbackLen())
}

func TestResizeSplitWideGlyphAtMargin(t *testing.T) {
	b := vt.NewBuffer(6, 1, 0)
	write(b, "ab世")
	b.Resize(3, 1)
	// The wide glyph's first column lands on the new margin and is blanked.
	assert.Equal(t, "ab ", b.Line(0).String())
}

func TestExtractTextJoinsWrappedRows(t *testing.T) {
	b := vt.NewBuffer(5, 3, 0)
	write(b, "abcdefgh")
	b.CarriageReturn()
	b.LineFeed()
	write(b, "next")
	assert.Equal(t, "abcdefgh\nnext", b.ExtractText(0, 2))
}

func TestClearKeepsScrollback(t *testing.T) {
	b := vt.NewBuffer(10, 2, 50)
	write(b, "old")
	b.CarriageReturn()
	b.LineFeed()
	write(b, "x")
	b.CarriageReturn()
	b.LineFeed()
	require.Equal(t, 1, b.ScrollbackLen())

	b.Clear()
	assert.Equal(t, 1, b.ScrollbackLen())
	assert.Equal(t, "", rowText(b, 0))

	b.Reset()
	assert.Equal(t, 0, b.ScrollbackLen())
}
