package vt

// dispatchSGR applies a Select Graphic Rendition sequence to the active
// pen. The pen only affects cells written afterwards; previously written
// cells keep the attributes they were written with.
func (e *Emulator) dispatchSGR() {
	pen := &e.scr.cur.Pen
	if len(e.params) == 0 {
		*pen = Pen{}
		return
	}

	for i := 0; i < len(e.params); i++ {
		param := e.params[i].val
		if param < 0 {
			param = 0
		}
		switch param {
		case 0: // Reset
			*pen = Pen{}
		case 1: // Bold
			pen.Attr |= AttrBold
		case 2: // Dim/Faint
			pen.Attr |= AttrFaint
		case 3: // Italic
			pen.Attr |= AttrItalic
		case 4: // Underline, with optional style sub-parameter (4:3 etc.)
			if s := e.params[i].subs; len(s) > 0 && s[0] == 0 {
				pen.Attr &^= AttrUnderline
			} else {
				pen.Attr |= AttrUnderline
			}
		case 5, 6: // Blink, either speed
			pen.Attr |= AttrBlink
		case 7: // Reverse
			pen.Attr |= AttrInverse
		case 8: // Conceal
			pen.Attr |= AttrConceal
		case 9: // Strikethrough
			pen.Attr |= AttrStrikethrough
		case 21: // Double underline, rendered as plain underline
			pen.Attr |= AttrUnderline
		case 22: // Normal intensity
			pen.Attr &^= AttrBold | AttrFaint
		case 23: // Not italic
			pen.Attr &^= AttrItalic
		case 24: // Not underlined
			pen.Attr &^= AttrUnderline
		case 25: // Blink off
			pen.Attr &^= AttrBlink
		case 27: // Positive
			pen.Attr &^= AttrInverse
		case 28: // Reveal
			pen.Attr &^= AttrConceal
		case 29: // Not crossed out
			pen.Attr &^= AttrStrikethrough
		case 30, 31, 32, 33, 34, 35, 36, 37: // Foreground
			pen.FG = IndexedColor(uint8(param - 30))
		case 38: // Foreground, 256-color or truecolor
			c, n, ok := e.readSGRColor(i)
			if ok {
				pen.FG = c
			}
			i += n - 1
		case 39: // Default foreground
			pen.FG = Color{}
		case 40, 41, 42, 43, 44, 45, 46, 47: // Background
			pen.BG = IndexedColor(uint8(param - 40))
		case 48: // Background, 256-color or truecolor
			c, n, ok := e.readSGRColor(i)
			if ok {
				pen.BG = c
			}
			i += n - 1
		case 49: // Default background
			pen.BG = Color{}
		case 58: // Underline color: not stored, but its payload must be
			// consumed so the following parameters parse correctly.
			_, n, _ := e.readSGRColor(i)
			i += n - 1
		case 59: // Default underline color
		case 90, 91, 92, 93, 94, 95, 96, 97: // Bright foreground
			pen.FG = IndexedColor(uint8(param - 90 + 8))
		case 100, 101, 102, 103, 104, 105, 106, 107: // Bright background
			pen.BG = IndexedColor(uint8(param - 100 + 8))
		}
	}
}

// readSGRColor decodes the extended color payload of SGR 38/48/58 at
// parameter index i. Both forms are understood: the legacy semicolon form
// (38;5;n and 38;2;r;g;b) and the colon sub-parameter form (38:5:n and
// 38:2::r:g:b, with or without the colorspace slot). Returns the color,
// the total number of parameters consumed including i itself, and whether
// the payload was well formed.
func (e *Emulator) readSGRColor(i int) (Color, int, bool) {
	if s := e.params[i].subs; len(s) > 0 {
		switch s[0] {
		case 5:
			if len(s) >= 2 && inByteRange(s[1]) {
				return IndexedColor(uint8(s[1])), 1, true
			}
		case 2:
			rgb := s[1:]
			if len(rgb) >= 4 {
				// 38:2:colorspace:r:g:b
				rgb = rgb[1:]
			}
			if len(rgb) >= 3 && inByteRange(rgb[0]) && inByteRange(rgb[1]) && inByteRange(rgb[2]) {
				return RGBColor(uint8(rgb[0]), uint8(rgb[1]), uint8(rgb[2])), 1, true
			}
		}
		return Color{}, 1, false
	}

	switch e.param(i+1, -1) {
	case 5:
		n := e.param(i+2, -1)
		if inByteRange(n) {
			return IndexedColor(uint8(n)), 3, true
		}
		return Color{}, 3, false
	case 2:
		r := e.param(i+2, -1)
		g := e.param(i+3, -1)
		b := e.param(i+4, -1)
		if inByteRange(r) && inByteRange(g) && inByteRange(b) {
			return RGBColor(uint8(r), uint8(g), uint8(b)), 5, true
		}
		return Color{}, 5, false
	}
	// Unknown payload: consume only the introducer so the rest of the
	// sequence still parses.
	return Color{}, 1, false
}

func inByteRange(v int) bool {
	return v >= 0 && v <= 255
}
