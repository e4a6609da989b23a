package vt

// ScreenManager owns the primary buffer for the terminal's lifetime and an
// alternate buffer that exists only while a full-screen program holds it.
// Exactly one buffer is active at a time.
type ScreenManager struct {
	main *Buffer
	alt  *Buffer
}

// NewScreenManager creates the primary buffer at the given geometry.
// Scrollback accumulates on the primary buffer only.
func NewScreenManager(cols, rows, maxScrollback int) *ScreenManager {
	return &ScreenManager{
		main: NewBuffer(cols, rows, maxScrollback),
	}
}

// Active returns the buffer mutations currently apply to.
func (m *ScreenManager) Active() *Buffer {
	if m.alt != nil {
		return m.alt
	}
	return m.main
}

// Main returns the primary buffer regardless of which is active.
func (m *ScreenManager) Main() *Buffer {
	return m.main
}

// IsAlternate reports whether the alternate screen is active.
func (m *ScreenManager) IsAlternate() bool {
	return m.alt != nil
}

// EnterAlternate allocates a fresh zero-scrollback buffer sized to match the
// primary and makes it active. Calling while already alternate is a no-op.
func (m *ScreenManager) EnterAlternate() {
	if m.alt != nil {
		return
	}
	alt := NewBuffer(m.main.Cols(), m.main.Rows(), 0)
	alt.SetAutoWrap(m.main.Cursor().AutoWrap)
	m.alt = alt
}

// ExitAlternate discards the alternate buffer, exposing the primary screen
// exactly as it was. Calling while already primary is a no-op.
func (m *ScreenManager) ExitAlternate() {
	m.alt = nil
}

// Resize applies the new geometry to both buffers so the primary screen is
// consistent when the alternate is dropped.
func (m *ScreenManager) Resize(cols, rows int) {
	m.main.Resize(cols, rows)
	if m.alt != nil {
		m.alt.Resize(cols, rows)
	}
}
