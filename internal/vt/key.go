package vt

import (
	"fmt"
	"unicode"
)

// ModMask is the xterm modifier bit-set. The wire encoding for modified
// function keys is 1 + shift + 2*alt + 4*ctrl.
type ModMask int

const (
	ModShift ModMask = 1 << iota
	ModAlt
	ModCtrl
)

// Key is a single key press: either a printable codepoint or one of the
// named Key* constants, plus modifiers.
type Key struct {
	Code rune
	Mods ModMask
}

// Named keys live in the Unicode private use area so they can share the rune
// namespace with printable input.
const (
	KeyUp rune = 0xE000 + iota
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPgUp
	KeyPgDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyEnter
	KeyTab
	KeyBackspace
	KeyEscape
)

type keycode struct {
	number int
	final  byte
}

// xtermKeymap carries the CSI encodings used whenever modifiers are present:
// CSI number ; modifier final.
var xtermKeymap = map[rune]keycode{
	KeyUp:     {1, 'A'},
	KeyDown:   {1, 'B'},
	KeyRight:  {1, 'C'},
	KeyLeft:   {1, 'D'},
	KeyEnd:    {1, 'F'},
	KeyHome:   {1, 'H'},
	KeyInsert: {2, '~'},
	KeyDelete: {3, '~'},
	KeyPgUp:   {5, '~'},
	KeyPgDown: {6, '~'},
	KeyF1:     {1, 'P'},
	KeyF2:     {1, 'Q'},
	KeyF3:     {1, 'R'},
	KeyF4:     {1, 'S'},
	KeyF5:     {15, '~'},
	KeyF6:     {17, '~'},
	KeyF7:     {18, '~'},
	KeyF8:     {19, '~'},
	KeyF9:     {20, '~'},
	KeyF10:    {21, '~'},
	KeyF11:    {23, '~'},
	KeyF12:    {24, '~'},
}

// normalKeymap is the unmodified encoding of the cursor block.
var normalKeymap = map[rune]string{
	KeyUp:    "\x1b[A",
	KeyDown:  "\x1b[B",
	KeyRight: "\x1b[C",
	KeyLeft:  "\x1b[D",
	KeyEnd:   "\x1b[F",
	KeyHome:  "\x1b[H",
}

// applicationKeymap replaces the cursor block when DECCKM is set.
var applicationKeymap = map[rune]string{
	KeyUp:    "\x1bOA",
	KeyDown:  "\x1bOB",
	KeyRight: "\x1bOC",
	KeyLeft:  "\x1bOD",
	KeyEnd:   "\x1bOF",
	KeyHome:  "\x1bOH",
}

// fnKeymap is the unmodified F1-F4 SS3 block; F5+ use CSI ~ forms already
// covered by xtermKeymap.
var fnKeymap = map[rune]string{
	KeyF1: "\x1bOP",
	KeyF2: "\x1bOQ",
	KeyF3: "\x1bOR",
	KeyF4: "\x1bOS",
}

// EncodeKey maps a key press to the byte sequence a shell expects.
// appCursor selects DECCKM application encodings for the cursor block. The
// empty string means the key has no encoding.
func EncodeKey(k Key, appCursor bool) string {
	switch k.Code {
	case KeyEnter:
		if k.Mods&ModAlt != 0 {
			return "\x1b\r"
		}
		return "\r"
	case KeyTab:
		if k.Mods&ModShift != 0 {
			return "\x1b[Z"
		}
		return "\t"
	case KeyBackspace:
		if k.Mods&ModAlt != 0 {
			return "\x1b\x7f"
		}
		return "\x7f"
	case KeyEscape:
		return "\x1b"
	}

	if kc, ok := xtermKeymap[k.Code]; ok {
		if k.Mods == 0 {
			if s, ok := fnKeymap[k.Code]; ok {
				return s
			}
			if appCursor {
				if s, ok := applicationKeymap[k.Code]; ok {
					return s
				}
			}
			if s, ok := normalKeymap[k.Code]; ok {
				return s
			}
			return fmt.Sprintf("\x1b[%d%c", kc.number, kc.final)
		}
		return fmt.Sprintf("\x1b[%d;%d%c", kc.number, modifierCode(k.Mods), kc.final)
	}

	if k.Code >= 0xE000 && k.Code <= 0xF8FF {
		return ""
	}
	return encodeRune(k.Code, k.Mods)
}

// modifierCode implements the xterm arithmetic: 1 + shift + 2*alt + 4*ctrl.
func modifierCode(mods ModMask) int {
	code := 1
	if mods&ModShift != 0 {
		code += 1
	}
	if mods&ModAlt != 0 {
		code += 2
	}
	if mods&ModCtrl != 0 {
		code += 4
	}
	return code
}

func encodeRune(r rune, mods ModMask) string {
	var s string
	switch {
	case mods&ModCtrl != 0:
		s = string(ctrlFold(r))
	default:
		s = string(r)
	}
	if mods&ModAlt != 0 {
		return "\x1b" + s
	}
	return s
}

// ctrlFold maps a letter (and the classic punctuation set) onto its C0
// control byte; anything else passes through.
func ctrlFold(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z':
		return r - 0x60
	case r >= 'A' && r <= 'Z':
		return r - 0x40
	case r == ' ', r == '@':
		return 0
	case r == '[':
		return 0x1b
	case r == '\\':
		return 0x1c
	case r == ']':
		return 0x1d
	case r == '^':
		return 0x1e
	case r == '_', r == '/':
		return 0x1f
	case r == '?':
		return 0x7f
	}
	if unicode.IsPrint(r) {
		return r
	}
	return r
}
