package vt

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// parserState is the escape-sequence parser's current state. The parser
// is a condensed form of the VT500 state diagram: control strings other
// than OSC share a single discard state.
type parserState int

const (
	stateGround parserState = iota
	stateEscape
	stateCSI
	stateOSC
	stateString
)

// Parser limits. Input beyond these is dropped, never an error: a hostile
// or broken child must not be able to grow our buffers without bound.
const (
	maxParams     = 32
	maxParamValue = 65535
	maxOSCLength  = 4096
)

// Feed interprets a chunk of child output, mutating the screen state and
// returning the events the chunk caused, in order. Escape sequences and
// multi-byte characters split across chunks are carried over to the next
// call. The returned slice is owned by the caller.
func (e *Emulator) Feed(p []byte) []Event {
	for _, b := range p {
		e.advance(b)
	}
	events := e.events
	e.events = nil
	return events
}

// FeedString is Feed for string input.
func (e *Emulator) FeedString(s string) []Event {
	return e.Feed([]byte(s))
}

func (e *Emulator) advance(b byte) {
	switch e.state {
	case stateEscape:
		e.advanceEscape(b)
	case stateCSI:
		e.advanceCSI(b)
	case stateOSC:
		e.advanceOSC(b)
	case stateString:
		e.advanceString(b)
	default:
		e.advanceGround(b)
	}
}

// ===========================================================================
// Ground state: printable text, UTF-8 assembly and C0 controls
// ===========================================================================

func (e *Emulator) advanceGround(b byte) {
	if e.utf8Need > 0 {
		if b&0xc0 == 0x80 {
			e.utf8Buf[e.utf8Len] = b
			e.utf8Len++
			if e.utf8Len == e.utf8Need {
				r, _ := utf8.DecodeRune(e.utf8Buf[:e.utf8Len])
				e.utf8Need = 0
				e.print(r)
			}
			return
		}
		// The rune never completed. Degrade it and reprocess b.
		e.utf8Need = 0
		e.print(utf8.RuneError)
	}

	switch {
	case b == 0x1b:
		e.startEscape()
	case b < 0x20 || b == 0x7f:
		e.control(b)
	case b < 0x80:
		e.print(rune(b))
	case b >= 0xc2 && b <= 0xdf:
		e.startUTF8(b, 2)
	case b >= 0xe0 && b <= 0xef:
		e.startUTF8(b, 3)
	case b >= 0xf0 && b <= 0xf4:
		e.startUTF8(b, 4)
	default:
		// Bytes that can never start a valid UTF-8 sequence.
		e.print(utf8.RuneError)
	}
}

func (e *Emulator) startUTF8(b byte, need int) {
	e.utf8Buf[0] = b
	e.utf8Len = 1
	e.utf8Need = need
}

// control executes a C0 control. Most controls act even in the middle of
// an escape sequence, so the non-ground states route here too.
func (e *Emulator) control(b byte) {
	switch b {
	case 0x07: // BEL
		e.emit(BellEvent{})
	case 0x08: // BS
		if e.scr.cur.X > 0 {
			e.scr.cur.X--
		}
		e.scr.cur.wrapNext = false
	case 0x09: // HT
		e.horizontalTab(1)
	case 0x0a, 0x0b, 0x0c: // LF, VT, FF
		e.linefeed()
	case 0x0d: // CR
		e.carriageReturn()
	case 0x0e: // SO
		e.gl = 1
	case 0x0f: // SI
		e.gl = 0
	}
	// NUL, DEL and the rest are ignored.
}

// startEscape enters the escape state, discarding any sequence in flight.
func (e *Emulator) startEscape() {
	e.state = stateEscape
	e.intermediate = 0
}

func (e *Emulator) startCSI() {
	e.state = stateCSI
	e.params = e.params[:0]
	e.curVal = -1
	e.primaryVal = -1
	e.curSubs = nil
	e.inSub = false
	e.csiIgnore = false
	e.intermediate = 0
	e.private = 0
}

func (e *Emulator) startOSC() {
	e.state = stateOSC
	e.oscBuf.Reset()
	e.oscEsc = false
}

// ===========================================================================
// Escape state
// ===========================================================================

func (e *Emulator) advanceEscape(b byte) {
	switch {
	case b == 0x18 || b == 0x1a: // CAN, SUB
		e.state = stateGround
		return
	case b == 0x1b:
		e.startEscape()
		return
	case b < 0x20 || b == 0x7f:
		e.control(b)
		return
	case b >= 0x20 && b <= 0x2f:
		if e.intermediate == 0 {
			e.intermediate = b
		}
		return
	case b >= 0x80:
		// Malformed. Reprocess the byte as text.
		e.state = stateGround
		e.advanceGround(b)
		return
	}

	// Final byte: dispatch and return to ground unless the sequence
	// continues in another state.
	e.state = stateGround

	switch e.intermediate {
	case '#':
		if b == '8' { // DECALN
			e.alignmentTest()
		}
		return
	case '(':
		e.charsets[0] = charsetFromDesignator(b)
		return
	case ')':
		e.charsets[1] = charsetFromDesignator(b)
		return
	case 0:
	default:
		return
	}

	switch b {
	case '[':
		e.startCSI()
	case ']':
		e.startOSC()
	case 'P', 'X', '^', '_': // DCS, SOS, PM, APC
		e.state = stateString
		e.oscEsc = false
	case '7': // DECSC
		e.scr.saveCursor(e.modes.origin, e.gl)
	case '8': // DECRC
		origin, gl := e.scr.restoreCursor()
		e.modes.origin = origin
		e.gl = gl
	case 'D': // IND
		e.index()
	case 'E': // NEL
		e.index()
		e.carriageReturn()
	case 'H': // HTS
		if x := e.scr.cur.X; x < len(e.tabstops) {
			e.tabstops[x] = true
		}
	case 'M': // RI
		e.reverseIndex()
	case 'Z': // DECID
		e.respond("\x1b[?6c")
	case 'c': // RIS
		e.fullReset()
	case '=': // DECKPAM
		e.modes.appKeypad = true
	case '>': // DECKPNM
		e.modes.appKeypad = false
	case '\\': // ST with nothing open
	}
}

// ===========================================================================
// CSI state
// ===========================================================================

func (e *Emulator) advanceCSI(b byte) {
	switch {
	case b == 0x18 || b == 0x1a:
		e.state = stateGround
		return
	case b == 0x1b:
		e.startEscape()
		return
	case b < 0x20 || b == 0x7f:
		e.control(b)
		return
	case b >= 0x80:
		e.state = stateGround
		e.advanceGround(b)
		return
	}

	switch {
	case b >= '0' && b <= '9':
		if e.intermediate != 0 {
			e.csiIgnore = true
			return
		}
		d := int(b - '0')
		if e.curVal < 0 {
			e.curVal = 0
		}
		e.curVal = e.curVal*10 + d
		if e.curVal > maxParamValue {
			e.curVal = maxParamValue
		}
	case b == ';':
		e.finishParam()
	case b == ':':
		if e.inSub {
			e.curSubs = append(e.curSubs, e.curVal)
		} else {
			e.primaryVal = e.curVal
			e.inSub = true
		}
		e.curVal = -1
	case b >= 0x3c && b <= 0x3f: // < = > ?
		// Private markers are only valid before any parameter.
		if len(e.params) > 0 || e.curVal >= 0 || e.inSub || e.intermediate != 0 {
			e.csiIgnore = true
			return
		}
		e.private = b
	case b >= 0x20 && b <= 0x2f:
		if e.intermediate == 0 {
			e.intermediate = b
		}
	default: // 0x40..0x7e: final byte
		e.finishParam()
		e.state = stateGround
		if !e.csiIgnore {
			e.dispatchCSI(b)
		}
	}
}

// finishParam closes the parameter under construction, enforcing the
// parameter-count cap.
func (e *Emulator) finishParam() {
	var p csiParam
	if e.inSub {
		e.curSubs = append(e.curSubs, e.curVal)
		p = csiParam{val: e.primaryVal, subs: e.curSubs}
	} else {
		p = csiParam{val: e.curVal}
	}
	if len(e.params) < maxParams {
		e.params = append(e.params, p)
	}
	e.curVal = -1
	e.primaryVal = -1
	e.curSubs = nil
	e.inSub = false
}

// ===========================================================================
// OSC and other control strings
// ===========================================================================

func (e *Emulator) advanceOSC(b byte) {
	if e.oscEsc {
		e.oscEsc = false
		if b == '\\' { // ST
			e.state = stateGround
			e.dispatchOSC(e.oscBuf.String())
			return
		}
		// ESC followed by anything else abandons the string and starts
		// a fresh escape sequence.
		e.startEscape()
		e.advanceEscape(b)
		return
	}

	switch {
	case b == 0x07: // BEL terminator
		e.state = stateGround
		e.dispatchOSC(e.oscBuf.String())
	case b == 0x1b:
		e.oscEsc = true
	case b == 0x18 || b == 0x1a:
		e.state = stateGround
	case b < 0x20:
		// Other controls are not part of the string.
	default:
		if e.oscBuf.Len() < maxOSCLength {
			e.oscBuf.WriteByte(b)
		}
	}
}

// advanceString discards a DCS/SOS/PM/APC control string up to its
// terminator. We implement none of them; swallowing the payload keeps it
// from being printed.
func (e *Emulator) advanceString(b byte) {
	if e.oscEsc {
		e.oscEsc = false
		if b == '\\' {
			e.state = stateGround
			return
		}
		e.startEscape()
		e.advanceEscape(b)
		return
	}
	switch b {
	case 0x1b:
		e.oscEsc = true
	case 0x18, 0x1a, 0x07:
		e.state = stateGround
	}
}

// ===========================================================================
// Printing
// ===========================================================================

// print places one decoded rune on the grid, honoring the active charset,
// character width, insert mode and pending wrap.
func (e *Emulator) print(r rune) {
	r = mapCharset(r, e.charsets[e.gl])
	w := runewidth.RuneWidth(r)
	if w == 0 {
		e.combine(r)
		return
	}
	s := string(r)
	e.printCell(s, w)
	e.lastPrinted = s
	e.lastWidth = w
}

// printCell writes a grapheme of the given display width at the cursor.
func (e *Emulator) printCell(content string, width int) {
	scr := e.scr
	if width > scr.Width() {
		return
	}

	if scr.cur.wrapNext {
		if e.modes.autowrap {
			scr.setWrapped(scr.cur.Y, true)
			e.index()
			scr.cur.X = 0
		}
		scr.cur.wrapNext = false
	}

	// A wide character that no longer fits on the row either wraps early
	// or, without autowrap, backs up to overwrite the final two columns.
	if width == 2 && scr.cur.X >= scr.Width()-1 {
		if e.modes.autowrap {
			scr.setCell(scr.cur.X, scr.cur.Y, blankCell(scr.cur.Pen))
			scr.setWrapped(scr.cur.Y, true)
			e.index()
			scr.cur.X = 0
		} else {
			scr.cur.X = scr.Width() - 2
		}
	}

	if e.modes.insert {
		scr.insertCells(scr.cur.X, scr.cur.Y, width, blankCell(scr.cur.Pen))
	}

	pen := scr.cur.Pen
	scr.setCell(scr.cur.X, scr.cur.Y, Cell{
		Content: content,
		Width:   width,
		FG:      pen.FG,
		BG:      pen.BG,
		Attr:    pen.Attr,
	})
	if width == 2 {
		scr.setCell(scr.cur.X+1, scr.cur.Y, Cell{
			Width: 0,
			FG:    pen.FG,
			BG:    pen.BG,
			Attr:  pen.Attr,
		})
	}

	if scr.cur.X+width >= scr.Width() {
		scr.cur.X = scr.Width() - 1
		scr.cur.wrapNext = e.modes.autowrap
	} else {
		scr.cur.X += width
	}
}

// combine appends a zero-width rune to the most recently written cell.
// Combining marks with no base character are dropped.
func (e *Emulator) combine(r rune) {
	scr := e.scr
	x, y := scr.cur.X, scr.cur.Y
	if !scr.cur.wrapNext {
		x--
	}
	if x >= 0 && x < scr.Width() {
		if c := scr.CellAt(x, y); c != nil && c.Width == 0 {
			x--
		}
	}
	c := scr.CellAt(x, y)
	if c == nil || c.Content == "" || c.Width == 0 {
		return
	}
	c.Content += string(r)
	if e.lastPrinted != "" {
		e.lastPrinted += string(r)
	}
}

// ===========================================================================
// Cursor movement shared by controls and sequences
// ===========================================================================

// index moves the cursor down one row, scrolling when it sits on the
// scrolling region's bottom margin. This is the only path that can push
// rows into scrollback.
func (e *Emulator) index() {
	scr := e.scr
	_, bottom := scr.Region()
	switch {
	case scr.cur.Y == bottom:
		e.scrollRegionUp(1)
	case scr.cur.Y < scr.Height()-1:
		scr.cur.Y++
	}
	scr.cur.wrapNext = false
}

// reverseIndex moves the cursor up one row, scrolling the region down when
// it sits on the top margin. Never touches scrollback.
func (e *Emulator) reverseIndex() {
	scr := e.scr
	top, bottom := scr.Region()
	switch {
	case scr.cur.Y == top:
		scr.scrollDown(top, bottom, 1, blankCell(scr.cur.Pen))
		e.clearSelection()
	case scr.cur.Y > 0:
		scr.cur.Y--
	}
	scr.cur.wrapNext = false
}

func (e *Emulator) linefeed() {
	e.index()
	if e.modes.newline {
		e.carriageReturn()
	}
}

func (e *Emulator) carriageReturn() {
	e.scr.cur.X = 0
	e.scr.cur.wrapNext = false
}

// horizontalTab advances the cursor to the n-th following tab stop, or the
// last column when none remain.
func (e *Emulator) horizontalTab(n int) {
	scr := e.scr
	x := scr.cur.X
	for n > 0 && x < scr.Width()-1 {
		x++
		if x < len(e.tabstops) && e.tabstops[x] {
			n--
		}
	}
	scr.cur.X = x
	scr.cur.wrapNext = false
}

// backwardTab moves the cursor to the n-th preceding tab stop, or column
// zero when none remain.
func (e *Emulator) backwardTab(n int) {
	scr := e.scr
	x := scr.cur.X
	for n > 0 && x > 0 {
		x--
		if x < len(e.tabstops) && e.tabstops[x] {
			n--
		}
	}
	scr.cur.X = x
	scr.cur.wrapNext = false
}

// scrollRegionUp scrolls the active region up by n rows, feeding
// scrollback when the region covers the whole primary screen.
func (e *Emulator) scrollRegionUp(n int) {
	scr := e.scr
	top, bottom := scr.Region()
	push := scr == e.scrs[0] && scr.fullRegion()
	dropped := scr.scrollUp(top, bottom, n, push, blankCell(scr.cur.Pen))
	if push {
		e.shiftSelection(dropped)
	} else {
		e.clearSelection()
	}
}

// ===========================================================================
// Resets
// ===========================================================================

// alignmentTest fills the screen with E, the DECALN pattern.
func (e *Emulator) alignmentTest() {
	scr := e.scr
	scr.resetRegion()
	scr.clear(Cell{Content: "E", Width: 1})
	scr.setCursor(0, 0)
}

// fullReset implements RIS: both screens cleared, every mode back to its
// configured default. Scrollback and the window title survive, matching
// xterm.
func (e *Emulator) fullReset() {
	for _, scr := range e.scrs {
		scr.clear(emptyCell)
		scr.cur = Cursor{Visible: true}
		scr.saved = nil
		scr.resetRegion()
	}
	e.scr = e.scrs[0]

	e.modes = modes{
		autowrap:    e.cfg.Autowrap,
		cursorBlink: e.cfg.CursorBlink,
	}
	e.charsets = [2]Charset{}
	e.gl = 0
	e.cursorShape = e.cfg.CursorShape
	e.cursorBlink = e.cfg.CursorBlink
	e.lastPrinted = ""
	e.lastWidth = 0
	e.resetTabStops()

	for i := range e.colors {
		e.colors[i] = nil
	}
	for i := range 16 {
		if e.cfg.ANSI[i] != nil {
			e.colors[i] = e.cfg.ANSI[i]
		}
	}
	e.fgColor = nil
	e.bgColor = nil
	e.curColor = nil

	e.clearSelection()
}
