package vt

// ModeSet is a bit-set of the independent boolean terminal modes toggled by
// SM/RM and DECSET/DECRST. All bits default to clear except the trio
// restored by ResetModes.
type ModeSet uint32

const (
	// ANSI modes (SM/RM).
	ModeInsert ModeSet = 1 << iota // IRM
	ModeNewline                    // LNM: LF implies CR

	// DEC private modes (DECSET/DECRST).
	ModeAppCursor     // DECCKM
	ModeOrigin        // DECOM
	ModeAutoWrap      // DECAWM
	ModeAutoRepeat    // DECARM
	ModeCursorVisible // DECTCEM
	ModeAppKeypad     // DECKPAM
	ModeAltScreen
	ModeBracketedPaste
	ModeMouseButtons // 1000: press/release
	ModeMouseDrag    // 1002: + drag motion
	ModeMouseMotion  // 1003: + all motion
	ModeMouseSGR     // 1006: SGR report encoding
)

func (m ModeSet) Has(flag ModeSet) bool {
	return m&flag != 0
}

func (m *ModeSet) Set(flag ModeSet) {
	*m |= flag
}

func (m *ModeSet) Clear(flag ModeSet) {
	*m &^= flag
}

func (m *ModeSet) Apply(flag ModeSet, on bool) {
	if on {
		m.Set(flag)
	} else {
		m.Clear(flag)
	}
}

// ResetModes returns the power-on set: autowrap, visible cursor and
// autorepeat, everything else off.
func ResetModes() ModeSet {
	return ModeAutoWrap | ModeCursorVisible | ModeAutoRepeat
}

// MouseReporting reports whether any mouse tracking mode is active.
func (m ModeSet) MouseReporting() bool {
	return m.Has(ModeMouseButtons) || m.Has(ModeMouseDrag) || m.Has(ModeMouseMotion)
}
