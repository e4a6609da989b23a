package vt

import "fmt"

// MouseEventType distinguishes press, release and motion reports.
type MouseEventType int

const (
	MousePress MouseEventType = iota
	MouseRelease
	MouseMotion
)

// Mouse buttons use the xterm numbering; wheel buttons start at 64.
const (
	MouseButtonLeft    = 0
	MouseButtonMiddle  = 1
	MouseButtonRight   = 2
	MouseButtonNone    = 3
	MouseWheelUp       = 64
	MouseWheelDown     = 65
)

// MouseEvent is a single pointer event in 0-indexed cell coordinates.
type MouseEvent struct {
	Col, Row int
	Button   int
	Type     MouseEventType
	Mods     ModMask
}

// EncodeMouse renders a mouse event for the active reporting mode, or ""
// when the event should not be reported. Legacy X10 encoding offsets each
// byte by 32 and saturates at 255; SGR reporting has no such cap and
// distinguishes release by the trailing 'm'.
func EncodeMouse(ev MouseEvent, modes ModeSet) string {
	if !modes.MouseReporting() {
		return ""
	}
	switch ev.Type {
	case MouseMotion:
		if !modes.Has(ModeMouseMotion) {
			// Drag mode reports motion only while a button is held.
			if !modes.Has(ModeMouseDrag) || ev.Button == MouseButtonNone {
				return ""
			}
		}
	case MouseRelease, MousePress:
		// Always reported once any tracking mode is on.
	}

	button := ev.Button
	if ev.Type == MouseMotion {
		button += 32
	}
	if ev.Mods&ModShift != 0 {
		button += 4
	}
	if ev.Mods&ModAlt != 0 {
		button += 8
	}
	if ev.Mods&ModCtrl != 0 {
		button += 16
	}

	if modes.Has(ModeMouseSGR) {
		final := byte('M')
		if ev.Type == MouseRelease {
			final = 'm'
		}
		return fmt.Sprintf("\x1b[<%d;%d;%d%c", button, ev.Col+1, ev.Row+1, final)
	}

	if ev.Type == MouseRelease {
		button = MouseButtonNone
	}
	return fmt.Sprintf("\x1b[M%c%c%c",
		x10Byte(button+32), x10Byte(ev.Col+1+32), x10Byte(ev.Row+1+32))
}

func x10Byte(v int) byte {
	if v > 255 {
		v = 255
	}
	if v < 0 {
		v = 0
	}
	return byte(v)
}
