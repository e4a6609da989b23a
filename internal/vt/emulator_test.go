package vt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termweave/internal/vt"
)

func newEmu(cols, rows int) *vt.Emulator {
	return vt.NewEmulator(cols, rows, 100)
}

func feedStr(e *vt.Emulator, s string) {
	e.Feed([]byte(s))
}

func screenRow(e *vt.Emulator, y int) string {
	return strings.TrimRight(e.Line(y).String(), " ")
}

type fakeNotifier struct {
	bells  int
	titles []string
}

func (n *fakeNotifier) Bell()                     { n.bells++ }
func (n *fakeNotifier) TitleChanged(title string) { n.titles = append(n.titles, title) }

func TestPrintAndNewlines(t *testing.T) {
	e := newEmu(20, 4)
	feedStr(e, "hello\r\nworld")
	assert.Equal(t, "hello", screenRow(e, 0))
	assert.Equal(t, "world", screenRow(e, 1))
	assert.Equal(t, 5, e.CursorX())
	assert.Equal(t, 1, e.CursorY())
}

func TestCursorAddressing(t *testing.T) {
	cases := []struct {
		name  string
		input string
		x, y  int
	}{
		{"cup", "\x1b[3;5H", 4, 2},
		{"cup defaults", "\x1b[H", 0, 0},
		{"cup partial", "\x1b[;7H", 6, 0},
		{"cuu clamps", "\x1b[3;5H\x1b[9A", 4, 0},
		{"cud", "\x1b[2B", 0, 2},
		{"cuf", "\x1b[4C", 4, 0},
		{"cub stops at margin", "\x1b[5D", 0, 0},
		{"cha", "\x1b[3;3H\x1b[7G", 6, 2},
		{"vpa", "\x1b[3;3H\x1b[5d", 2, 4},
		{"cnl", "\x1b[3;5H\x1b[E", 0, 3},
		{"hvp", "\x1b[2;2f", 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEmu(20, 5)
			feedStr(e, tc.input)
			assert.Equal(t, tc.x, e.CursorX())
			assert.Equal(t, tc.y, e.CursorY())
		})
	}
}

func TestEraseDisplayAndHome(t *testing.T) {
	e := newEmu(10, 3)
	feedStr(e, "aaa\r\nbbb\r\nccc")
	feedStr(e, "\x1b[2J\x1b[H")
	for y := 0; y < 3; y++ {
		assert.Equal(t, "", screenRow(e, y))
	}
	assert.Equal(t, 0, e.CursorX())
	assert.Equal(t, 0, e.CursorY())
}

func TestEraseDefaultsToCursorForward(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "abcdef\x1b[4G\x1b[J")
	assert.Equal(t, "abc", screenRow(e, 0))

	e = newEmu(10, 2)
	feedStr(e, "abcdef\x1b[4G\x1b[K")
	assert.Equal(t, "abc", screenRow(e, 0))
}

func TestEraseCharactersCSI(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "abcdef\x1b[2G\x1b[3X")
	assert.Equal(t, "a   ef", e.Line(0).String()[:6])
}

func TestSGRBoldAndColor(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b[1;31mX\x1b[0mY")

	x := e.Line(0).Cells[0]
	assert.True(t, x.Attr.Style.Has(vt.StyleBold))
	assert.Equal(t, vt.IndexColor(1), x.Attr.FG)

	y := e.Line(0).Cells[1]
	assert.True(t, y.Attr.Equal(vt.DefaultAttribute()))
}

func TestSGRExtendedColors(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b[38;5;196m\x1b[48;2;10;20;30mZ")
	z := e.Line(0).Cells[0]
	assert.Equal(t, vt.IndexColor(196), z.Attr.FG)
	assert.Equal(t, vt.RGBColor(10, 20, 30), z.Attr.BG)
}

func TestSGRMalformedExtendedColorIgnored(t *testing.T) {
	e := newEmu(10, 2)
	// Truncated 38;5 with no index: the introducer and everything after it
	// is abandoned, earlier parameters stick.
	feedStr(e, "\x1b[1;38;5mW")
	w := e.Line(0).Cells[0]
	assert.True(t, w.Attr.Style.Has(vt.StyleBold))
	assert.True(t, w.Attr.FG.IsDefault())
}

func TestSGREmptyIsReset(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b[1;31m\x1b[mP")
	p := e.Line(0).Cells[0]
	assert.True(t, p.Attr.Equal(vt.DefaultAttribute()))
}

func TestSGRBrightAndUnderlineVariants(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b[91;4ma")
	a := e.Line(0).Cells[0]
	assert.Equal(t, vt.IndexColor(9), a.Attr.FG)
	assert.True(t, a.Attr.Style.Has(vt.StyleUnderline))

	feedStr(e, "\x1b[21mb")
	b := e.Line(0).Cells[1]
	assert.True(t, b.Attr.Style.Has(vt.StyleDoubleUnderline))
	assert.False(t, b.Attr.Style.Has(vt.StyleUnderline))

	feedStr(e, "\x1b[24mc")
	c := e.Line(0).Cells[2]
	assert.False(t, c.Attr.Style.Has(vt.StyleDoubleUnderline))
}

func TestAlternateScreen1049(t *testing.T) {
	e := newEmu(20, 6)
	feedStr(e, "primary\x1b[5;3H")
	feedStr(e, "\x1b[?1049h")

	require.True(t, e.IsAltScreen())
	assert.Equal(t, "", screenRow(e, 0))
	feedStr(e, "fullscreen")
	assert.Equal(t, "fullscreen", screenRow(e, 0))

	feedStr(e, "\x1b[?1049l")
	require.False(t, e.IsAltScreen())
	assert.Equal(t, "primary", screenRow(e, 0))
	// Cursor returns to where 1049h saved it.
	assert.Equal(t, 2, e.CursorX())
	assert.Equal(t, 4, e.CursorY())
}

func TestAlternateScreenIdempotent(t *testing.T) {
	e := newEmu(20, 6)
	feedStr(e, "\x1b[?1049h\x1b[?1049h")
	feedStr(e, "x")
	feedStr(e, "\x1b[?1049l\x1b[?1049l")
	assert.False(t, e.IsAltScreen())
}

func TestAlternateScreenNoScrollback(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b[?1049h")
	feedStr(e, "a\r\nb\r\nc\r\nd")
	assert.Equal(t, 0, e.Screens().Active().ScrollbackLen())
	feedStr(e, "\x1b[?1049l")
	assert.Equal(t, 0, e.Screens().Main().ScrollbackLen())
}

func TestTitleAndIconName(t *testing.T) {
	n := &fakeNotifier{}
	e := newEmu(10, 2)
	e.SetNotifier(n)

	feedStr(e, "\x1b]2;window\x07")
	assert.Equal(t, "window", e.Title())
	assert.Equal(t, "", e.IconName())

	feedStr(e, "\x1b]0;both\x1b\\")
	assert.Equal(t, "both", e.Title())
	assert.Equal(t, "both", e.IconName())

	feedStr(e, "\x1b]1;icon\x07")
	assert.Equal(t, "icon", e.IconName())
	assert.Equal(t, "both", e.Title())

	assert.Equal(t, []string{"window", "both"}, n.titles)
}

func TestBellNotifies(t *testing.T) {
	n := &fakeNotifier{}
	e := newEmu(10, 2)
	e.SetNotifier(n)
	feedStr(e, "a\x07b\x07")
	assert.Equal(t, 2, n.bells)
	assert.Equal(t, "ab", screenRow(e, 0))
}

func TestDeviceStatusReports(t *testing.T) {
	var sent []string
	e := newEmu(20, 5)
	e.SetSender(func(b []byte) { sent = append(sent, string(b)) })

	feedStr(e, "\x1b[5n")
	feedStr(e, "\x1b[3;5H\x1b[6n")
	assert.Equal(t, []string{"\x1b[0n", "\x1b[3;5R"}, sent)
}

func TestCursorReportOriginRelative(t *testing.T) {
	var sent []string
	e := newEmu(20, 8)
	e.SetSender(func(b []byte) { sent = append(sent, string(b)) })

	feedStr(e, "\x1b[3;6r\x1b[?6h\x1b[6n")
	require.Len(t, sent, 1)
	assert.Equal(t, "\x1b[1;1R", sent[0])
}

func TestDeviceAttributes(t *testing.T) {
	var sent []string
	e := newEmu(20, 5)
	e.SetSender(func(b []byte) { sent = append(sent, string(b)) })

	feedStr(e, "\x1b[c")
	feedStr(e, "\x1b[>c")
	assert.Equal(t, []string{"\x1b[?6c", "\x1b[>1;10;0c"}, sent)
}

func TestRepliesDroppedWithoutSender(t *testing.T) {
	e := newEmu(20, 5)
	feedStr(e, "\x1b[6n\x1b[c")
	assert.Equal(t, 0, e.CursorX())
}

func TestInsertMode(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "abc\x1b[4h\x1b[1;1HX")
	assert.Equal(t, "Xabc", screenRow(e, 0))
	feedStr(e, "\x1b[4l\x1b[1;1HY")
	assert.Equal(t, "Yabc", screenRow(e, 0))
}

func TestNewlineMode(t *testing.T) {
	e := newEmu(10, 4)
	feedStr(e, "\x1b[20ha\nb")
	assert.Equal(t, "a", screenRow(e, 0))
	assert.Equal(t, "b", screenRow(e, 1))
	assert.Equal(t, 1, e.CursorX())
}

func TestAutoWrapMode(t *testing.T) {
	e := newEmu(5, 3)
	feedStr(e, "\x1b[?7labcdefg")
	assert.Equal(t, "abcdg", screenRow(e, 0))
	assert.Equal(t, 0, e.CursorY())

	feedStr(e, "\x1b[?7h\x1b[1;5Hxy")
	assert.Equal(t, 1, e.CursorY())
}

func TestCursorVisibilityMode(t *testing.T) {
	e := newEmu(10, 2)
	assert.True(t, e.CursorVisible())
	feedStr(e, "\x1b[?25l")
	assert.False(t, e.CursorVisible())
	feedStr(e, "\x1b[?25h")
	assert.True(t, e.CursorVisible())
}

func TestModeFlags(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b[?1h\x1b[?2004h\x1b[?1000h\x1b[?1006h")
	m := e.Modes()
	assert.True(t, m.Has(vt.ModeAppCursor))
	assert.True(t, m.Has(vt.ModeBracketedPaste))
	assert.True(t, m.Has(vt.ModeMouseButtons))
	assert.True(t, m.Has(vt.ModeMouseSGR))
	assert.True(t, m.MouseReporting())

	feedStr(e, "\x1b[?1000l")
	assert.False(t, e.Modes().MouseReporting())
}

func TestSaveRestoreCursor1048(t *testing.T) {
	e := newEmu(20, 5)
	feedStr(e, "\x1b[4;7H\x1b[?1048h")
	feedStr(e, "\x1b[H\x1b[?1048l")
	assert.Equal(t, 6, e.CursorX())
	assert.Equal(t, 3, e.CursorY())
}

func TestDECSCAndDECRC(t *testing.T) {
	e := newEmu(20, 5)
	feedStr(e, "\x1b[2;3H\x1b7\x1b[H\x1b8")
	assert.Equal(t, 2, e.CursorX())
	assert.Equal(t, 1, e.CursorY())
}

func TestScrollRegionHomesCursor(t *testing.T) {
	e := newEmu(20, 8)
	feedStr(e, "\x1b[4;6H\x1b[2;5r")
	assert.Equal(t, 0, e.CursorX())
	assert.Equal(t, 0, e.CursorY())
	top, bottom := e.Screens().Active().ScrollRegion()
	assert.Equal(t, 1, top)
	assert.Equal(t, 4, bottom)
}

func TestDECSpecialGraphics(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b(0qx\x1b(Bq")
	assert.Equal(t, '─', e.Line(0).Cells[0].Rune)
	assert.Equal(t, '│', e.Line(0).Cells[1].Rune)
	assert.Equal(t, 'q', e.Line(0).Cells[2].Rune)
}

func TestShiftOutUsesG1(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "\x1b)0q\x0eq\x0fq")
	assert.Equal(t, 'q', e.Line(0).Cells[0].Rune)
	assert.Equal(t, '─', e.Line(0).Cells[1].Rune)
	assert.Equal(t, 'q', e.Line(0).Cells[2].Rune)
}

func TestAlignmentPattern(t *testing.T) {
	e := newEmu(4, 2)
	feedStr(e, "\x1b#8")
	assert.Equal(t, "EEEE", e.Line(0).String())
	assert.Equal(t, "EEEE", e.Line(1).String())
}

func TestFullReset(t *testing.T) {
	e := newEmu(10, 3)
	feedStr(e, "\x1b]2;t\x07\x1b[1;31mstuff\x1b[?25l\x1b[?1049h")
	feedStr(e, "\x1bc")

	assert.False(t, e.IsAltScreen())
	assert.Equal(t, "", e.Title())
	assert.Equal(t, "", screenRow(e, 0))
	assert.True(t, e.CursorVisible())
	assert.Equal(t, 0, e.CursorX())
	assert.Equal(t, 0, e.CursorY())
}

func TestReverseIndexEsc(t *testing.T) {
	e := newEmu(10, 3)
	feedStr(e, "top\x1b[H\x1bM")
	assert.Equal(t, "", screenRow(e, 0))
	assert.Equal(t, "top", screenRow(e, 1))
}

func TestNelAndInd(t *testing.T) {
	e := newEmu(10, 4)
	feedStr(e, "ab\x1bEcd\x1bDef")
	assert.Equal(t, "ab", screenRow(e, 0))
	assert.Equal(t, "cd", screenRow(e, 1))
	// IND keeps the column.
	assert.Equal(t, "  ef", screenRow(e, 2))
}

func TestScrollbackThroughEmulator(t *testing.T) {
	e := newEmu(10, 3)
	feedStr(e, "l0\r\nl1\r\nl2\r\nl3")
	main := e.Screens().Main()
	require.Equal(t, 1, main.ScrollbackLen())
	assert.Equal(t, "l0", strings.TrimRight(main.ScrollbackLine(0).String(), " "))

	feedStr(e, "\x1b[3J")
	assert.Equal(t, 0, main.ScrollbackLen())
	assert.Equal(t, "l1", screenRow(e, 0))
}

func TestWideRunesThroughEmulator(t *testing.T) {
	e := newEmu(10, 2)
	feedStr(e, "日本")
	assert.Equal(t, '日', e.Line(0).Cells[0].Rune)
	assert.True(t, e.Line(0).Cells[1].Continuation)
	assert.Equal(t, '本', e.Line(0).Cells[2].Rune)
	assert.Equal(t, 4, e.CursorX())
}

func TestResizeThroughEmulator(t *testing.T) {
	e := newEmu(10, 4)
	feedStr(e, "keep")
	e.Resize(20, 6)
	assert.Equal(t, 20, e.Cols())
	assert.Equal(t, 6, e.Rows())
	assert.Equal(t, "keep", screenRow(e, 0))
}
