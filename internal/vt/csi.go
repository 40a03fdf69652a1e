package vt

import "fmt"

// csiParam is one CSI parameter: its primary value, -1 when omitted, plus
// any colon-separated sub-parameters (used by SGR 38/48/58).
type csiParam struct {
	val  int
	subs []int
}

// param returns parameter i, or def when the parameter is absent or was
// omitted.
func (e *Emulator) param(i, def int) int {
	if i >= len(e.params) || e.params[i].val < 0 {
		return def
	}
	return e.params[i].val
}

func (e *Emulator) dispatchCSI(final byte) {
	scr := e.scr

	switch e.intermediate {
	case ' ':
		if final == 'q' && e.private == 0 { // DECSCUSR
			e.setCursorStyle(e.param(0, 0))
		}
		return
	case 0:
	default:
		return
	}

	if e.private == '?' {
		switch final {
		case 'h':
			e.setPrivateModes(true)
		case 'l':
			e.setPrivateModes(false)
		}
		return
	}
	if e.private != 0 {
		// CSI > / CSI = families (XTVERSION and friends): ignored.
		return
	}

	switch final {
	case 'A': // CUU
		e.cursorUp(e.param(0, 1))
	case 'B': // CUD
		e.cursorDown(e.param(0, 1))
	case 'C': // CUF
		e.cursorForward(e.param(0, 1))
	case 'D': // CUB
		e.cursorBack(e.param(0, 1))
	case 'E': // CNL
		e.cursorDown(e.param(0, 1))
		e.carriageReturn()
	case 'F': // CPL
		e.cursorUp(e.param(0, 1))
		e.carriageReturn()
	case 'G', '`': // CHA, HPA
		scr.setCursor(e.param(0, 1)-1, scr.cur.Y)
	case 'd': // VPA
		e.setCursorPos(e.param(0, 1)-1, scr.cur.X)
	case 'H', 'f': // CUP, HVP
		e.setCursorPos(e.param(0, 1)-1, e.param(1, 1)-1)
	case 'I': // CHT
		e.horizontalTab(e.param(0, 1))
	case 'Z': // CBT
		e.backwardTab(e.param(0, 1))
	case '@': // ICH
		scr.insertCells(scr.cur.X, scr.cur.Y, e.param(0, 1), blankCell(scr.cur.Pen))
		scr.cur.wrapNext = false
	case 'P': // DCH
		scr.deleteCells(scr.cur.X, scr.cur.Y, e.param(0, 1), blankCell(scr.cur.Pen))
		scr.cur.wrapNext = false
	case 'X': // ECH
		scr.eraseCells(scr.cur.X, scr.cur.Y, e.param(0, 1), blankCell(scr.cur.Pen))
		scr.cur.wrapNext = false
	case 'L': // IL
		scr.insertLines(scr.cur.Y, e.param(0, 1), blankCell(scr.cur.Pen))
		scr.cur.wrapNext = false
		e.clearSelection()
	case 'M': // DL
		scr.deleteLines(scr.cur.Y, e.param(0, 1), blankCell(scr.cur.Pen))
		scr.cur.wrapNext = false
		e.clearSelection()
	case 'S': // SU
		top, bottom := scr.Region()
		scr.scrollUp(top, bottom, e.param(0, 1), false, blankCell(scr.cur.Pen))
		e.clearSelection()
	case 'T': // SD
		top, bottom := scr.Region()
		scr.scrollDown(top, bottom, e.param(0, 1), blankCell(scr.cur.Pen))
		e.clearSelection()
	case 'J': // ED
		e.eraseDisplay(e.param(0, 0))
	case 'K': // EL
		e.eraseLine(e.param(0, 0))
	case 'b': // REP
		e.repeatLast(e.param(0, 1))
	case 'c': // DA1
		if e.param(0, 0) == 0 {
			e.respond("\x1b[?6c")
		}
	case 'g': // TBC
		switch e.param(0, 0) {
		case 0:
			if x := scr.cur.X; x < len(e.tabstops) {
				e.tabstops[x] = false
			}
		case 3:
			for i := range e.tabstops {
				e.tabstops[i] = false
			}
		}
	case 'h': // SM
		e.setAnsiModes(true)
	case 'l': // RM
		e.setAnsiModes(false)
	case 'm': // SGR
		e.dispatchSGR()
	case 'n': // DSR
		e.deviceStatus(e.param(0, 0))
	case 'r': // DECSTBM
		top := e.param(0, 1) - 1
		bottom := e.param(1, scr.Height()) - 1
		scr.setRegion(top, bottom)
		e.setCursorPos(0, 0)
	case 's': // SCOSC
		scr.saveCursor(e.modes.origin, e.gl)
	case 'u': // SCORC
		origin, gl := scr.restoreCursor()
		e.modes.origin = origin
		e.gl = gl
	}
}

// ===========================================================================
// Cursor movement
// ===========================================================================

// cursorUp moves up n rows. A cursor at or below the top margin stops at
// the margin; one above it stops at the screen edge.
func (e *Emulator) cursorUp(n int) {
	scr := e.scr
	top, _ := scr.Region()
	limit := 0
	if scr.cur.Y >= top {
		limit = top
	}
	y := scr.cur.Y - n
	if y < limit {
		y = limit
	}
	scr.cur.Y = y
	scr.cur.wrapNext = false
}

// cursorDown mirrors cursorUp against the bottom margin.
func (e *Emulator) cursorDown(n int) {
	scr := e.scr
	_, bottom := scr.Region()
	limit := scr.Height() - 1
	if scr.cur.Y <= bottom {
		limit = bottom
	}
	y := scr.cur.Y + n
	if y > limit {
		y = limit
	}
	scr.cur.Y = y
	scr.cur.wrapNext = false
}

func (e *Emulator) cursorForward(n int) {
	e.scr.setCursor(e.scr.cur.X+n, e.scr.cur.Y)
}

func (e *Emulator) cursorBack(n int) {
	e.scr.setCursor(e.scr.cur.X-n, e.scr.cur.Y)
}

// setCursorPos addresses the cursor with 0-based coordinates, applying
// origin mode: when set, rows are relative to the top margin and confined
// to the region.
func (e *Emulator) setCursorPos(row, col int) {
	scr := e.scr
	if e.modes.origin {
		top, bottom := scr.Region()
		row += top
		if row > bottom {
			row = bottom
		}
		if row < top {
			row = top
		}
	}
	scr.setCursor(col, row)
}

// ===========================================================================
// Erasing
// ===========================================================================

func (e *Emulator) eraseDisplay(mode int) {
	scr := e.scr
	blank := blankCell(scr.cur.Pen)
	switch mode {
	case 0: // cursor to end of screen
		scr.clearLine(scr.cur.Y, scr.cur.X, scr.Width()-1, blank)
		scr.setWrapped(scr.cur.Y, false)
		for y := scr.cur.Y + 1; y < scr.Height(); y++ {
			scr.clearLine(y, 0, scr.Width()-1, blank)
			scr.setWrapped(y, false)
		}
	case 1: // start of screen to cursor
		for y := 0; y < scr.cur.Y; y++ {
			scr.clearLine(y, 0, scr.Width()-1, blank)
			scr.setWrapped(y, false)
		}
		scr.clearLine(scr.cur.Y, 0, scr.cur.X, blank)
	case 2: // whole screen
		scr.clear(blank)
	case 3: // scrollback
		e.sb.Clear()
		e.clearSelection()
		return
	}
	scr.cur.wrapNext = false
}

func (e *Emulator) eraseLine(mode int) {
	scr := e.scr
	blank := blankCell(scr.cur.Pen)
	switch mode {
	case 0:
		scr.clearLine(scr.cur.Y, scr.cur.X, scr.Width()-1, blank)
		scr.setWrapped(scr.cur.Y, false)
	case 1:
		scr.clearLine(scr.cur.Y, 0, scr.cur.X, blank)
	case 2:
		scr.clearLine(scr.cur.Y, 0, scr.Width()-1, blank)
		scr.setWrapped(scr.cur.Y, false)
	}
	scr.cur.wrapNext = false
}

// repeatLast implements REP: the last graphic character is printed again n
// times, wrapping as if typed.
func (e *Emulator) repeatLast(n int) {
	if e.lastPrinted == "" {
		return
	}
	for range n {
		e.printCell(e.lastPrinted, e.lastWidth)
	}
}

// ===========================================================================
// Modes and reports
// ===========================================================================

func (e *Emulator) setAnsiModes(on bool) {
	for i := range e.params {
		switch e.params[i].val {
		case 4: // IRM
			e.modes.insert = on
		case 20: // LNM
			e.modes.newline = on
		}
	}
}

func (e *Emulator) setPrivateModes(on bool) {
	for i := range e.params {
		switch e.params[i].val {
		case 1: // DECCKM
			e.modes.cursorKeys = on
		case 3: // DECCOLM: the column switch itself is the host's call,
			// but the documented side effects still apply.
			e.scr.clear(blankCell(e.scr.cur.Pen))
			e.scr.resetRegion()
			e.scr.setCursor(0, 0)
		case 5: // DECSCNM
			e.modes.reverseVideo = on
		case 6: // DECOM
			e.modes.origin = on
			e.setCursorPos(0, 0)
		case 7: // DECAWM
			e.modes.autowrap = on
			if !on {
				e.scr.cur.wrapNext = false
			}
		case 9:
			e.setMouseMode(MouseX10, on)
		case 12:
			e.modes.cursorBlink = on
			e.cursorBlink = on
		case 25: // DECTCEM
			e.scr.cur.Visible = on
		case 47:
			e.switchScreen(on)
		case 1000:
			e.setMouseMode(MouseNormal, on)
		case 1002:
			e.setMouseMode(MouseButton, on)
		case 1003:
			e.setMouseMode(MouseAny, on)
		case 1004:
			e.modes.focusEvents = on
		case 1006:
			e.modes.mouseSGR = on
		case 1047:
			if on {
				e.switchScreen(true)
			} else {
				if e.modes.altScreen {
					e.scr.clear(blankCell(e.scr.cur.Pen))
				}
				e.switchScreen(false)
			}
		case 1048:
			if on {
				e.scr.saveCursor(e.modes.origin, e.gl)
			} else {
				origin, gl := e.scr.restoreCursor()
				e.modes.origin = origin
				e.gl = gl
			}
		case 1049:
			if on {
				if !e.modes.altScreen {
					e.scr.saveCursor(e.modes.origin, e.gl)
					e.switchScreen(true)
					e.scr.clear(blankCell(e.scr.cur.Pen))
				}
			} else {
				if e.modes.altScreen {
					e.switchScreen(false)
					origin, gl := e.scr.restoreCursor()
					e.modes.origin = origin
					e.gl = gl
				}
			}
		case 2004:
			e.modes.bracketedPaste = on
		}
	}
}

// setMouseMode turns a tracking mode on, or turns tracking off entirely.
// Resetting any tracking mode disables tracking, matching xterm.
func (e *Emulator) setMouseMode(m MouseMode, on bool) {
	if on {
		e.modes.mouse = m
	} else {
		e.modes.mouse = MouseOff
	}
}

// switchScreen activates the primary or alternate screen. The cursor
// carries over; the selection does not survive the switch.
func (e *Emulator) switchScreen(toAlt bool) {
	to := e.scrs[0]
	if toAlt {
		to = e.scrs[1]
	}
	if e.scr == to {
		return
	}
	to.cur = e.scr.cur
	to.cur.X = to.clampX(to.cur.X)
	to.cur.Y = to.clampY(to.cur.Y)
	to.cur.wrapNext = false
	e.scr = to
	e.modes.altScreen = toAlt
	e.clearSelection()
}

// deviceStatus answers DSR queries on behalf of the terminal.
func (e *Emulator) deviceStatus(mode int) {
	switch mode {
	case 5: // operating status: always fine
		e.respond("\x1b[0n")
	case 6: // cursor position report
		scr := e.scr
		y := scr.cur.Y
		if e.modes.origin {
			top, _ := scr.Region()
			y -= top
		}
		e.respond(fmt.Sprintf("\x1b[%d;%dR", y+1, scr.cur.X+1))
	}
}

func (e *Emulator) setCursorStyle(n int) {
	switch n {
	case 0:
		e.cursorShape = e.cfg.CursorShape
		e.cursorBlink = e.cfg.CursorBlink
	case 1:
		e.cursorShape, e.cursorBlink = CursorBlock, true
	case 2:
		e.cursorShape, e.cursorBlink = CursorBlock, false
	case 3:
		e.cursorShape, e.cursorBlink = CursorUnderline, true
	case 4:
		e.cursorShape, e.cursorBlink = CursorUnderline, false
	case 5:
		e.cursorShape, e.cursorBlink = CursorBar, true
	case 6:
		e.cursorShape, e.cursorBlink = CursorBar, false
	}
}
