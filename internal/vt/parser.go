package vt

import "unicode/utf8"

// Handler receives the discrete events the Parser extracts from the byte
// stream. The parser knows framing, the handler knows meaning.
type Handler interface {
	Print(r rune)
	Execute(b byte)
	Esc(intermediates []byte, final byte)
	CSI(params Params, intermediates []byte, final byte)
	OSC(code int, data []byte)
	DCS(data []byte)
}

// Params carries accumulated CSI parameters. A separator with no leading
// digit stores 0; Param applies the ECMA-48 "zero means default" convention,
// which is what nearly every CSI code wants. Handlers that treat an explicit
// zero as meaningful read Value directly.
type Params struct {
	values []int
	// Prefix is the private-marker byte seen at CSI entry ('?', '>', '<',
	// '='), or 0 for a standard sequence.
	Prefix byte
}

// Len returns the number of accumulated parameters.
func (p Params) Len() int {
	return len(p.values)
}

// Param returns parameter i, substituting def when the parameter is absent
// or zero.
func (p Params) Param(i, def int) int {
	if i >= len(p.values) || p.values[i] == 0 {
		return def
	}
	return p.values[i]
}

// Value returns parameter i verbatim, or 0 when absent.
func (p Params) Value(i int) int {
	if i >= len(p.values) {
		return 0
	}
	return p.values[i]
}

// Private reports whether the sequence carried the DEC '?' marker.
func (p Params) Private() bool {
	return p.Prefix == '?'
}

type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateEscapeIntermediate
	stateCsiEntry
	stateCsiParam
	stateCsiIntermediate
	stateCsiIgnore
	stateOscString
	stateDcsEntry
	stateDcsParam
	stateDcsPassthrough
	stateSosPmApcString
)

// Accumulation caps. Streams are untrusted; nothing the parser holds may
// grow without bound.
const (
	maxParams        = 32
	maxParamValue    = 65535
	maxIntermediates = 4
	maxStringLen     = 4096
)

// Parser is a long-lived finite state machine over a raw terminal byte
// stream. It never fails: every byte either produces an event or a silent
// state transition, and malformed sequences are abandoned in favor of
// forward progress.
type Parser struct {
	handler Handler
	state   parserState

	params        []int
	curParam      int
	paramSeen     bool
	prefix        byte
	intermediates []byte

	oscCode    int
	oscHasCode bool
	oscData    []byte
	strData    []byte
	// escPending is set inside OSC/DCS/SOS strings after a raw ESC byte:
	// a following '\' is the ST terminator, anything else abandons the
	// string and is reprocessed through the Escape state.
	escPending bool

	// Interleaved UTF-8 decode state.
	utf8Buf [utf8.UTFMax]byte
	utf8Len int
	utf8Exp int
}

// NewParser returns a parser in the Ground state delivering events to h.
func NewParser(h Handler) *Parser {
	return &Parser{handler: h}
}

// Reset returns the state machine to Ground and drops any partial sequence.
func (p *Parser) Reset() {
	p.state = stateGround
	p.clearSequence()
	p.utf8Len = 0
	p.utf8Exp = 0
	p.escPending = false
}

// Feed consumes a chunk of raw bytes. Sequences may span chunk boundaries.
func (p *Parser) Feed(data []byte) {
	for _, b := range data {
		p.advance(b)
	}
}

func (p *Parser) clearSequence() {
	p.params = p.params[:0]
	p.curParam = 0
	p.paramSeen = false
	p.prefix = 0
	p.intermediates = p.intermediates[:0]
	p.oscCode = 0
	p.oscHasCode = false
	p.oscData = p.oscData[:0]
	p.strData = p.strData[:0]
}

func (p *Parser) advance(b byte) {
	// A pending multi-byte rune is only continued by 0x80-0xBF bytes;
	// anything else silently aborts it and is processed normally.
	if p.utf8Exp > 0 {
		if b >= 0x80 && b <= 0xBF {
			p.utf8Buf[p.utf8Len] = b
			p.utf8Len++
			if p.utf8Len == p.utf8Exp {
				r, _ := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
				p.utf8Len = 0
				p.utf8Exp = 0
				if r != utf8.RuneError && p.state == stateGround {
					p.handler.Print(r)
				}
			}
			return
		}
		p.utf8Len = 0
		p.utf8Exp = 0
	}

	switch p.state {
	case stateGround:
		p.ground(b)
	case stateEscape:
		p.escape(b)
	case stateEscapeIntermediate:
		p.escapeIntermediate(b)
	case stateCsiEntry:
		p.csiEntry(b)
	case stateCsiParam:
		p.csiParam(b)
	case stateCsiIntermediate:
		p.csiIntermediate(b)
	case stateCsiIgnore:
		p.csiIgnore(b)
	case stateOscString:
		p.oscString(b)
	case stateDcsEntry, stateDcsParam:
		p.dcsEntry(b)
	case stateDcsPassthrough:
		p.dcsPassthrough(b)
	case stateSosPmApcString:
		p.sosPmApcString(b)
	}
}

func (p *Parser) ground(b byte) {
	switch {
	case b == 0x1B:
		p.state = stateEscape
		p.clearSequence()
	case b < 0x20:
		p.handler.Execute(b)
	case b == 0x7F:
		// DEL is ignored on output.
	case b <= 0x7E:
		p.handler.Print(rune(b))
	case b >= 0xC0:
		p.startUTF8(b)
	case b >= 0x80 && b <= 0x9F:
		p.c1(b)
	default:
		// Stray continuation byte with no pending rune.
	}
}

// c1 handles 8-bit C1 controls in Ground: the string introducers jump
// straight to their entry states, the rest go to the handler.
func (p *Parser) c1(b byte) {
	switch b {
	case 0x9B: // CSI
		p.clearSequence()
		p.state = stateCsiEntry
	case 0x9D: // OSC
		p.clearSequence()
		p.state = stateOscString
	case 0x90: // DCS
		p.clearSequence()
		p.state = stateDcsEntry
	case 0x98, 0x9E, 0x9F: // SOS, PM, APC
		p.clearSequence()
		p.state = stateSosPmApcString
	default:
		p.handler.Execute(b)
	}
}

func (p *Parser) startUTF8(b byte) {
	switch {
	case b&0xE0 == 0xC0:
		p.utf8Exp = 2
	case b&0xF0 == 0xE0:
		p.utf8Exp = 3
	case b&0xF8 == 0xF0:
		p.utf8Exp = 4
	default:
		// 0xF8-0xFF is never valid UTF-8.
		return
	}
	p.utf8Buf[0] = b
	p.utf8Len = 1
}

func (p *Parser) escape(b byte) {
	switch {
	case b == 0x1B:
		// ESC mid-sequence restarts; always prefer forward progress.
		p.clearSequence()
	case b == 0x18 || b == 0x1A: // CAN, SUB
		p.state = stateGround
	case b == '[':
		p.clearSequence()
		p.state = stateCsiEntry
	case b == ']':
		p.clearSequence()
		p.state = stateOscString
	case b == 'P':
		p.clearSequence()
		p.state = stateDcsEntry
	case b == 'X' || b == '^' || b == '_':
		p.clearSequence()
		p.state = stateSosPmApcString
	case b >= 0x20 && b <= 0x2F:
		p.collect(b)
		p.state = stateEscapeIntermediate
	case b >= 0x30 && b <= 0x7E:
		p.handler.Esc(p.intermediates, b)
		p.state = stateGround
	case b < 0x20:
		p.handler.Execute(b)
	default:
		p.state = stateGround
	}
}

func (p *Parser) escapeIntermediate(b byte) {
	switch {
	case b == 0x1B:
		p.clearSequence()
		p.state = stateEscape
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case b >= 0x20 && b <= 0x2F:
		p.collect(b)
	case b >= 0x30 && b <= 0x7E:
		p.handler.Esc(p.intermediates, b)
		p.state = stateGround
	case b < 0x20:
		p.handler.Execute(b)
	default:
		p.state = stateGround
	}
}

func (p *Parser) csiEntry(b byte) {
	switch {
	case b == 0x1B:
		p.clearSequence()
		p.state = stateEscape
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case b >= '0' && b <= '9':
		p.accumulate(b)
		p.state = stateCsiParam
	case b == ';':
		p.pushParam()
		p.state = stateCsiParam
	case b == ':':
		p.state = stateCsiIgnore
	case b == '?' || b == '>' || b == '<' || b == '=':
		p.prefix = b
		p.state = stateCsiParam
	case b >= 0x20 && b <= 0x2F:
		p.collect(b)
		p.state = stateCsiIntermediate
	case b >= 0x40 && b <= 0x7E:
		p.dispatchCSI(b)
	case b < 0x20:
		p.handler.Execute(b)
	default:
		p.state = stateCsiIgnore
	}
}

func (p *Parser) csiParam(b byte) {
	switch {
	case b == 0x1B:
		p.clearSequence()
		p.state = stateEscape
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case b >= '0' && b <= '9':
		p.accumulate(b)
	case b == ';':
		p.pushParam()
	case b == ':':
		p.state = stateCsiIgnore
	case b >= 0x20 && b <= 0x2F:
		p.collect(b)
		p.state = stateCsiIntermediate
	case b >= 0x40 && b <= 0x7E:
		p.dispatchCSI(b)
	case b < 0x20:
		p.handler.Execute(b)
	default:
		p.state = stateCsiIgnore
	}
}

func (p *Parser) csiIntermediate(b byte) {
	switch {
	case b == 0x1B:
		p.clearSequence()
		p.state = stateEscape
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case b >= 0x20 && b <= 0x2F:
		p.collect(b)
	case b >= 0x40 && b <= 0x7E:
		p.dispatchCSI(b)
	case b < 0x20:
		p.handler.Execute(b)
	default:
		p.state = stateCsiIgnore
	}
}

// csiIgnore swallows a malformed control sequence through its final byte.
func (p *Parser) csiIgnore(b byte) {
	switch {
	case b == 0x1B:
		p.clearSequence()
		p.state = stateEscape
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case b >= 0x40 && b <= 0x7E:
		p.state = stateGround
	}
}

func (p *Parser) dispatchCSI(final byte) {
	// A sequence with no digits and no separators dispatches with zero
	// parameters rather than a phantom 0.
	if p.paramSeen {
		p.pushParam()
	}
	params := Params{values: p.params, Prefix: p.prefix}
	p.handler.CSI(params, p.intermediates, final)
	p.state = stateGround
}

func (p *Parser) accumulate(b byte) {
	p.paramSeen = true
	p.curParam = p.curParam*10 + int(b-'0')
	if p.curParam > maxParamValue {
		p.curParam = maxParamValue
	}
}

func (p *Parser) pushParam() {
	p.paramSeen = true
	if len(p.params) < maxParams {
		p.params = append(p.params, p.curParam)
	}
	p.curParam = 0
}

func (p *Parser) collect(b byte) {
	if len(p.intermediates) < maxIntermediates {
		p.intermediates = append(p.intermediates, b)
	}
}

func (p *Parser) oscString(b byte) {
	if p.escPending {
		p.escPending = false
		if b == '\\' {
			p.dispatchOSC()
			return
		}
		// Not ST: abandon the string, reprocess through Escape.
		p.clearSequence()
		p.state = stateEscape
		p.escape(b)
		return
	}
	switch {
	case b == 0x07 || b == 0x9C: // BEL or 8-bit ST
		p.dispatchOSC()
	case b == 0x1B:
		p.escPending = true
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case !p.oscHasCode && b >= '0' && b <= '9':
		p.oscCode = p.oscCode*10 + int(b-'0')
		if p.oscCode > maxParamValue {
			p.oscCode = maxParamValue
		}
	case !p.oscHasCode && b == ';':
		p.oscHasCode = true
	default:
		p.oscHasCode = true
		if len(p.oscData) < maxStringLen {
			p.oscData = append(p.oscData, b)
		}
	}
}

func (p *Parser) dispatchOSC() {
	p.handler.OSC(p.oscCode, p.oscData)
	p.state = stateGround
}

// dcsEntry accumulates the (unused) DCS parameter section, then passes
// through. DCS content is collected but otherwise uninterpreted.
func (p *Parser) dcsEntry(b byte) {
	switch {
	case b == 0x1B:
		p.clearSequence()
		p.state = stateEscape
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	case b >= '0' && b <= '9' || b == ';' || b == ':':
		p.state = stateDcsParam
	case b == '?' || b == '>' || b == '<' || b == '=':
		p.state = stateDcsParam
	case b >= 0x40 && b <= 0x7E:
		p.state = stateDcsPassthrough
	}
}

func (p *Parser) dcsPassthrough(b byte) {
	if p.escPending {
		p.escPending = false
		if b == '\\' {
			p.handler.DCS(p.strData)
			p.state = stateGround
			return
		}
		p.clearSequence()
		p.state = stateEscape
		p.escape(b)
		return
	}
	switch {
	case b == 0x9C:
		p.handler.DCS(p.strData)
		p.state = stateGround
	case b == 0x1B:
		p.escPending = true
	case b == 0x18 || b == 0x1A:
		p.state = stateGround
	default:
		if len(p.strData) < maxStringLen {
			p.strData = append(p.strData, b)
		}
	}
}

// sosPmApcString swallows SOS/PM/APC strings entirely.
func (p *Parser) sosPmApcString(b byte) {
	if p.escPending {
		p.escPending = false
		if b == '\\' {
			p.state = stateGround
			return
		}
		p.clearSequence()
		p.state = stateEscape
		p.escape(b)
		return
	}
	switch b {
	case 0x9C, 0x07:
		p.state = stateGround
	case 0x1B:
		p.escPending = true
	case 0x18, 0x1A:
		p.state = stateGround
	}
}
