package vt

import (
	"fmt"

	runewidth "github.com/mattn/go-runewidth"
)

// Notifier receives out-of-band events the emulator cannot act on itself.
// Implementations must be fast; calls happen on the feed path.
type Notifier interface {
	Bell()
	TitleChanged(title string)
}

// Emulator interprets parser events against the current terminal modes and
// issues the corresponding buffer mutations. It is the single orchestrator:
// everything downstream of Feed happens synchronously on the caller's
// goroutine, so all snapshot reads are safe immediately after Feed returns.
type Emulator struct {
	parser  *Parser
	screens *ScreenManager
	modes   ModeSet

	title    string
	iconName string

	g0, g1  charset
	shifted bool // SO selects G1 until SI

	cursorStyle int // DECSCUSR; tracked, not rendered

	send     func([]byte)
	notifier Notifier
}

// NewEmulator builds a terminal engine at the given geometry. maxScrollback
// bounds the primary buffer's history ring.
func NewEmulator(cols, rows, maxScrollback int) *Emulator {
	e := &Emulator{
		screens: NewScreenManager(cols, rows, maxScrollback),
		modes:   ResetModes(),
	}
	e.parser = NewParser(e)
	return e
}

// SetSender installs the outbound callback used for DSR/DA replies. The
// transport owns delivery; the emulator never blocks on it.
func (e *Emulator) SetSender(send func([]byte)) {
	e.send = send
}

// SetNotifier installs the bell/title listener.
func (e *Emulator) SetNotifier(n Notifier) {
	e.notifier = n
}

// Feed pushes inbound terminal output through the parser. This is the sole
// entry point for transports; it must be called from one goroutine at a
// time.
func (e *Emulator) Feed(data []byte) {
	e.parser.Feed(data)
}

// Resize applies new geometry to both screens. The channel must be resized
// symmetrically by the caller so the child process agrees on the size.
func (e *Emulator) Resize(cols, rows int) {
	e.screens.Resize(cols, rows)
}

// === Snapshot read interface ===

func (e *Emulator) Cols() int { return e.active().Cols() }
func (e *Emulator) Rows() int { return e.active().Rows() }

// Line returns visible row y of the active screen, or nil out of range.
func (e *Emulator) Line(y int) *Line { return e.active().Line(y) }

// ExtractText returns the visible text between rows y0 and y1 inclusive,
// joining soft-wrapped lines.
func (e *Emulator) ExtractText(y0, y1 int) string { return e.active().ExtractText(y0, y1) }

func (e *Emulator) CursorX() int { return e.active().Cursor().X }
func (e *Emulator) CursorY() int { return e.active().Cursor().Y }

func (e *Emulator) CursorVisible() bool { return e.modes.Has(ModeCursorVisible) }

func (e *Emulator) IsAltScreen() bool { return e.screens.IsAlternate() }

func (e *Emulator) Title() string    { return e.title }
func (e *Emulator) IconName() string { return e.iconName }

// Modes returns the current mode bit-set.
func (e *Emulator) Modes() ModeSet { return e.modes }

// Screens exposes the screen manager for scrollback readers and tests.
func (e *Emulator) Screens() *ScreenManager { return e.screens }

func (e *Emulator) active() *Buffer { return e.screens.Active() }

// Reset performs the RIS full reset: parser state, both screens, modes,
// charsets and title.
func (e *Emulator) Reset() {
	e.parser.Reset()
	e.screens.ExitAlternate()
	e.screens.Main().Reset()
	e.modes = ResetModes()
	e.g0, e.g1 = charsetASCII, charsetASCII
	e.shifted = false
	e.cursorStyle = 0
	e.title = ""
	e.iconName = ""
}

func (e *Emulator) reply(format string, args ...any) {
	if e.send == nil {
		return
	}
	e.send([]byte(fmt.Sprintf(format, args...)))
}

// === Parser events ===

func (e *Emulator) Print(r rune) {
	cs := e.g0
	if e.shifted {
		cs = e.g1
	}
	r = cs.translate(r)
	buf := e.active()
	if e.modes.Has(ModeInsert) {
		buf.InsertCharacters(runewidth.RuneWidth(r))
	}
	buf.WriteRune(r)
}

func (e *Emulator) Execute(b byte) {
	buf := e.active()
	switch b {
	case 0x07: // BEL
		if e.notifier != nil {
			e.notifier.Bell()
		}
	case 0x08: // BS
		buf.Backspace()
	case 0x09: // HT
		buf.Tab(1)
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		buf.LineFeed()
		if e.modes.Has(ModeNewline) {
			buf.CarriageReturn()
		}
	case 0x0D: // CR
		buf.CarriageReturn()
	case 0x0E: // SO
		e.shifted = true
	case 0x0F: // SI
		e.shifted = false
	case 0x84: // IND
		buf.LineFeed()
	case 0x85: // NEL
		buf.LineFeed()
		buf.CarriageReturn()
	case 0x88: // HTS
		buf.SetTabStop()
	case 0x8D: // RI
		buf.ReverseIndex()
	}
}

func (e *Emulator) Esc(intermediates []byte, final byte) {
	buf := e.active()
	if len(intermediates) > 0 {
		switch intermediates[0] {
		case '#':
			if final == '8' { // DECALN
				buf.FillAlignment()
			}
		case '(':
			e.g0 = charsetFor(final)
		case ')':
			e.g1 = charsetFor(final)
		}
		return
	}
	switch final {
	case '7': // DECSC
		buf.SaveCursor()
	case '8': // DECRC
		buf.RestoreCursor()
	case 'D': // IND
		buf.LineFeed()
	case 'E': // NEL
		buf.LineFeed()
		buf.CarriageReturn()
	case 'H': // HTS
		buf.SetTabStop()
	case 'M': // RI
		buf.ReverseIndex()
	case 'c': // RIS
		e.Reset()
	case '=': // DECKPAM
		e.modes.Set(ModeAppKeypad)
	case '>': // DECKPNM
		e.modes.Clear(ModeAppKeypad)
	}
}

func (e *Emulator) CSI(params Params, intermediates []byte, final byte) {
	buf := e.active()
	if len(intermediates) > 0 {
		if intermediates[0] == ' ' && final == 'q' { // DECSCUSR
			e.cursorStyle = params.Value(0)
		}
		return
	}
	switch final {
	case '@': // ICH
		buf.InsertCharacters(params.Param(0, 1))
	case 'A': // CUU
		buf.MoveCursorRelative(0, -params.Param(0, 1))
	case 'B', 'e': // CUD, VPR
		buf.MoveCursorRelative(0, params.Param(0, 1))
	case 'C', 'a': // CUF, HPR
		buf.MoveCursorRelative(params.Param(0, 1), 0)
	case 'D': // CUB
		buf.MoveCursorRelative(-params.Param(0, 1), 0)
	case 'E': // CNL
		buf.MoveCursorRelative(0, params.Param(0, 1))
		buf.CarriageReturn()
	case 'F': // CPL
		buf.MoveCursorRelative(0, -params.Param(0, 1))
		buf.CarriageReturn()
	case 'G', '`': // CHA, HPA
		buf.MoveCursorRelative(params.Param(0, 1)-1-buf.Cursor().X, 0)
	case 'H', 'f': // CUP, HVP
		buf.MoveCursor(params.Param(1, 1)-1, params.Param(0, 1)-1)
	case 'I': // CHT
		buf.Tab(params.Param(0, 1))
	case 'J': // ED; explicit 0 is meaningful here, no default substitution
		buf.EraseInDisplay(eraseMode(params.Value(0)))
	case 'K': // EL
		buf.EraseInLine(eraseMode(params.Value(0)))
	case 'L': // IL
		buf.InsertLines(params.Param(0, 1))
	case 'M': // DL
		buf.DeleteLines(params.Param(0, 1))
	case 'P': // DCH
		buf.DeleteCharacters(params.Param(0, 1))
	case 'S': // SU
		buf.ScrollUp(params.Param(0, 1))
	case 'T': // SD
		buf.ScrollDown(params.Param(0, 1))
	case 'X': // ECH
		buf.EraseCharacters(params.Param(0, 1))
	case 'Z': // CBT
		buf.BackTab(params.Param(0, 1))
	case 'd': // VPA
		buf.MoveCursor(buf.Cursor().X, params.Param(0, 1)-1)
	case 'g': // TBC; explicit 0 is meaningful
		buf.ClearTabStop(params.Value(0))
	case 'h':
		e.setModes(params, true)
	case 'l':
		e.setModes(params, false)
	case 'm':
		e.selectGraphicRendition(params)
	case 'n':
		e.deviceStatusReport(params)
	case 'c':
		e.deviceAttributes(params)
	case 'r': // DECSTBM; also homes the cursor
		buf.SetScrollRegion(params.Param(0, 1), params.Param(1, buf.Rows()))
		buf.MoveCursor(0, 0)
	case 's': // SCOSC
		if params.Prefix == 0 {
			buf.SaveCursor()
		}
	case 'u': // SCORC
		buf.RestoreCursor()
	case 't':
		// Window manipulation; out of scope for the engine.
	}
}

func eraseMode(v int) EraseMode {
	switch v {
	case 1:
		return EraseToStart
	case 2:
		return EraseAll
	case 3:
		return EraseScrollback
	default:
		return EraseToEnd
	}
}

// setModes handles SM/RM and, with the '?' prefix, DECSET/DECRST. The same
// final byte means different things with and without the prefix; the two
// tables are kept strictly apart.
func (e *Emulator) setModes(params Params, on bool) {
	if !params.Private() {
		for i := 0; i < params.Len(); i++ {
			switch params.Value(i) {
			case 4: // IRM
				e.modes.Apply(ModeInsert, on)
			case 20: // LNM
				e.modes.Apply(ModeNewline, on)
			}
		}
		return
	}
	for i := 0; i < params.Len(); i++ {
		e.setPrivateMode(params.Value(i), on)
	}
}

func (e *Emulator) setPrivateMode(mode int, on bool) {
	buf := e.active()
	switch mode {
	case 1: // DECCKM
		e.modes.Apply(ModeAppCursor, on)
	case 3: // DECCOLM; column switching clears the screen and homes
		buf.EraseInDisplay(EraseAll)
		buf.MoveCursor(0, 0)
	case 6: // DECOM
		e.modes.Apply(ModeOrigin, on)
		buf.SetOriginMode(on)
	case 7: // DECAWM
		e.modes.Apply(ModeAutoWrap, on)
		buf.SetAutoWrap(on)
	case 8: // DECARM
		e.modes.Apply(ModeAutoRepeat, on)
	case 25: // DECTCEM
		e.modes.Apply(ModeCursorVisible, on)
	case 47:
		if on {
			e.enterAlt(false)
		} else {
			e.exitAlt(false)
		}
	case 1000:
		e.modes.Apply(ModeMouseButtons, on)
	case 1002:
		e.modes.Apply(ModeMouseDrag, on)
	case 1003:
		e.modes.Apply(ModeMouseMotion, on)
	case 1006:
		e.modes.Apply(ModeMouseSGR, on)
	case 1047:
		if on {
			e.enterAlt(false)
		} else {
			e.exitAlt(false)
		}
	case 1048:
		if on {
			e.screens.Main().SaveCursor()
		} else {
			e.screens.Main().RestoreCursor()
		}
	case 1049:
		// Save on entry, restore on the matching exit. Breaking this
		// pairing is an observable bug in full-screen programs.
		if on {
			e.enterAlt(true)
		} else {
			e.exitAlt(true)
		}
	case 2004:
		e.modes.Apply(ModeBracketedPaste, on)
	}
}

func (e *Emulator) enterAlt(saveCursor bool) {
	if e.screens.IsAlternate() {
		return
	}
	if saveCursor {
		e.screens.Main().SaveCursor()
	}
	e.screens.EnterAlternate()
	e.modes.Set(ModeAltScreen)
}

func (e *Emulator) exitAlt(restoreCursor bool) {
	if !e.screens.IsAlternate() {
		return
	}
	e.screens.ExitAlternate()
	e.modes.Clear(ModeAltScreen)
	if restoreCursor {
		e.screens.Main().RestoreCursor()
	}
}

func (e *Emulator) deviceStatusReport(params Params) {
	switch params.Value(0) {
	case 5: // operating status
		e.reply("\x1b[0n")
	case 6: // cursor position report, origin-relative when DECOM is on
		buf := e.active()
		cur := buf.Cursor()
		row := cur.Y + 1
		if cur.OriginMode {
			top, _ := buf.ScrollRegion()
			row = cur.Y - top + 1
		}
		e.reply("\x1b[%d;%dR", row, cur.X+1)
	}
}

func (e *Emulator) deviceAttributes(params Params) {
	switch params.Prefix {
	case '>': // secondary DA: VT220-class, firmware version, keyboard
		e.reply("\x1b[>1;10;0c")
	case 0, '?': // primary DA: VT102
		if params.Value(0) == 0 {
			e.reply("\x1b[?6c")
		}
	}
}

func (e *Emulator) OSC(code int, data []byte) {
	switch code {
	case 0:
		e.title = string(data)
		e.iconName = string(data)
		if e.notifier != nil {
			e.notifier.TitleChanged(e.title)
		}
	case 1:
		e.iconName = string(data)
	case 2:
		e.title = string(data)
		if e.notifier != nil {
			e.notifier.TitleChanged(e.title)
		}
	default:
		// Palette, clipboard and cursor-color codes are recognized but
		// deliberately not acted on.
	}
}

func (e *Emulator) DCS(data []byte) {
	// DECRQSS and friends are not implemented.
}
