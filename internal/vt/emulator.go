// Package vt implements a terminal screen state machine: a VT100/xterm
// style escape-sequence interpreter driving a cell grid with scrollback,
// selection and search.
//
// The emulator performs no I/O and starts no goroutines. Bytes read from
// a pty are handed to Feed, which applies their effects synchronously and
// returns the notable events they caused (title changes, bells, reports
// owed to the child). Feed is not re-entrant; callers that render from
// another goroutine must guard the emulator with their own lock.
package vt

import (
	"image/color"
	"strings"
)

// MouseMode is the pointer-tracking mode requested by the child process.
type MouseMode int

const (
	// MouseOff disables pointer tracking.
	MouseOff MouseMode = iota
	// MouseX10 reports button presses only (mode 9).
	MouseX10
	// MouseNormal reports presses and releases (mode 1000).
	MouseNormal
	// MouseButton adds motion while a button is held (mode 1002).
	MouseButton
	// MouseAny reports all motion (mode 1003).
	MouseAny
)

// CursorShape is the shape requested via DECSCUSR.
type CursorShape int

const (
	// CursorBlock is the default full-cell cursor.
	CursorBlock CursorShape = iota
	// CursorUnderline is a low horizontal bar.
	CursorUnderline
	// CursorBar is a vertical beam.
	CursorBar
)

// modes holds the terminal mode flags toggled by SM/RM.
type modes struct {
	insert         bool // IRM, mode 4
	newline        bool // LNM, mode 20
	cursorKeys     bool // DECCKM, ?1: application cursor keys
	origin         bool // DECOM, ?6: region-relative addressing
	autowrap       bool // DECAWM, ?7
	reverseVideo   bool // DECSCNM, ?5
	cursorBlink    bool // ?12
	appKeypad      bool // DECKPAM / DECKPNM
	bracketedPaste bool // ?2004
	focusEvents    bool // ?1004
	altScreen      bool // ?47 / ?1047 / ?1049
	mouse          MouseMode
	mouseSGR       bool // ?1006
}

// Config is the construction-time configuration for an Emulator. Use
// DefaultConfig as a starting point; the zero value of individual fields
// falls back to the documented defaults, except ScrollbackLines where 0
// genuinely means "no scrollback".
type Config struct {
	// Cols and Rows are the initial grid dimensions. Values below 1
	// default to 80x24.
	Cols, Rows int

	// ScrollbackLines bounds the history. 0 disables scrollback.
	ScrollbackLines int

	// Autowrap is the initial DECAWM state.
	Autowrap bool

	// WordChars lists the characters treated as word constituents (in
	// addition to letters and digits) by word selection.
	WordChars string

	// TabWidth is the default tab stop interval. Values below 1 default
	// to 8.
	TabWidth int

	// Foreground, Background and Cursor are the default colors. Nil
	// entries fall back to white-on-black.
	Foreground, Background, Cursor color.Color

	// ANSI is the base 16-color palette. Nil entries fall back to the
	// standard xterm colors.
	ANSI [16]color.Color

	// CursorShape and CursorBlink are the initial cursor presentation,
	// until the child overrides them via DECSCUSR.
	CursorShape CursorShape
	CursorBlink bool

	// AudibleBell and VisibleBell record how the surrounding layer
	// should present BEL. The emulator only carries them.
	AudibleBell bool
	VisibleBell bool
}

// DefaultConfig returns the stock configuration: an 80x24 grid, 10000
// lines of scrollback, autowrap on and the xterm palette.
func DefaultConfig() Config {
	return Config{
		Cols:            80,
		Rows:            24,
		ScrollbackLines: 10000,
		Autowrap:        true,
		WordChars:       "-./?%&#_~",
		TabWidth:        8,
		CursorBlink:     true,
		AudibleBell:     true,
	}
}

// Emulator is a virtual terminal: a grid of cells, a cursor, scrollback
// and the state machine that interprets the child's byte stream.
type Emulator struct {
	cfg Config

	// The terminal's indexed 256 colors. Nil entries resolve to the
	// fixed xterm values.
	colors [256]color.Color

	// Primary and alternate screens, and the currently active one. Only
	// the primary feeds scrollback.
	scrs [2]*Screen
	scr  *Screen

	sb *Scrollback

	modes modes

	// Default and dynamically set (OSC 10/11/12) colors.
	defaultFg, defaultBg, defaultCur color.Color
	fgColor, bgColor, curColor       color.Color

	// G0/G1 character sets and the active one.
	charsets [2]Charset
	gl       int

	// Parser state. Sequences and partial UTF-8 runes persist across
	// Feed calls.
	state        parserState
	params       []csiParam
	curVal       int
	primaryVal   int
	curSubs      []int
	inSub        bool
	csiIgnore    bool
	intermediate byte
	private      byte
	oscBuf       strings.Builder
	oscEsc       bool
	utf8Buf      [4]byte
	utf8Len      int
	utf8Need     int

	// The last printed character, for REP.
	lastPrinted string
	lastWidth   int

	tabstops []bool

	cursorShape CursorShape
	cursorBlink bool

	title    string
	iconName string

	sel       Selection
	selActive bool

	// Events accumulated by the current Feed call.
	events []Event
}

// NewEmulator creates an emulator from cfg.
func NewEmulator(cfg Config) *Emulator {
	if cfg.Cols < 1 {
		cfg.Cols = 80
	}
	if cfg.Rows < 1 {
		cfg.Rows = 24
	}
	if cfg.TabWidth < 1 {
		cfg.TabWidth = 8
	}
	if cfg.ScrollbackLines < 0 {
		cfg.ScrollbackLines = 0
	}

	e := &Emulator{cfg: cfg}
	e.sb = NewScrollback(cfg.ScrollbackLines)
	e.scrs[0] = NewScreen(cfg.Cols, cfg.Rows, e.sb)
	e.scrs[1] = NewScreen(cfg.Cols, cfg.Rows, nil)
	e.scr = e.scrs[0]

	e.defaultFg = cfg.Foreground
	if e.defaultFg == nil {
		e.defaultFg = color.White
	}
	e.defaultBg = cfg.Background
	if e.defaultBg == nil {
		e.defaultBg = color.Black
	}
	e.defaultCur = cfg.Cursor
	if e.defaultCur == nil {
		e.defaultCur = color.White
	}
	for i := range 16 {
		if cfg.ANSI[i] != nil {
			e.colors[i] = cfg.ANSI[i]
		}
	}

	e.modes.autowrap = cfg.Autowrap
	e.modes.cursorBlink = cfg.CursorBlink
	e.cursorShape = cfg.CursorShape
	e.cursorBlink = cfg.CursorBlink
	e.resetTabStops()
	return e
}

// Config returns the configuration the emulator was constructed with.
func (e *Emulator) Config() Config {
	return e.cfg
}

// Width returns the number of columns.
func (e *Emulator) Width() int { return e.scr.Width() }

// Height returns the number of rows.
func (e *Emulator) Height() int { return e.scr.Height() }

// CellAt returns the cell at (x, y) on the active screen, or nil when out
// of bounds. The returned cell is read-only.
func (e *Emulator) CellAt(x, y int) *Cell {
	return e.scr.CellAt(x, y)
}

// RowWrapped reports whether visible row y soft-wraps onto the next row.
func (e *Emulator) RowWrapped(y int) bool {
	return e.scr.Wrapped(y)
}

// CursorPosition returns the cursor's screen-relative position.
func (e *Emulator) CursorPosition() Position {
	c := e.scr.Cursor()
	return Position{X: c.X, Y: c.Y}
}

// CursorVisible reports whether the child has the cursor shown (DECTCEM).
func (e *Emulator) CursorVisible() bool {
	return e.scr.Cursor().Visible
}

// CursorShape returns the shape last requested via DECSCUSR, or the
// configured default.
func (e *Emulator) CursorShape() CursorShape { return e.cursorShape }

// CursorBlink reports whether the cursor should blink.
func (e *Emulator) CursorBlink() bool { return e.cursorBlink }

// Title returns the window title last set via OSC 0/2.
func (e *Emulator) Title() string { return e.title }

// IconName returns the icon name last set via OSC 0/1.
func (e *Emulator) IconName() string { return e.iconName }

// AltScreenActive reports whether the alternate screen is in use.
func (e *Emulator) AltScreenActive() bool { return e.modes.altScreen }

// BracketedPaste reports whether bracketed paste mode (2004) is on.
func (e *Emulator) BracketedPaste() bool { return e.modes.bracketedPaste }

// CursorKeysApplication reports DECCKM, which changes the encoding the
// child expects for arrow keys.
func (e *Emulator) CursorKeysApplication() bool { return e.modes.cursorKeys }

// FocusReporting reports whether the child asked for focus events (1004).
func (e *Emulator) FocusReporting() bool { return e.modes.focusEvents }

// KeypadApplication reports DECKPAM, the application keypad encoding.
func (e *Emulator) KeypadApplication() bool { return e.modes.appKeypad }

// ReverseVideo reports DECSCNM, the screen-wide inverse mode.
func (e *Emulator) ReverseVideo() bool { return e.modes.reverseVideo }

// MouseReporting returns the tracking mode requested by the child and
// whether it asked for SGR encoding.
func (e *Emulator) MouseReporting() (MouseMode, bool) {
	return e.modes.mouse, e.modes.mouseSGR
}

// ScrollbackLen returns the number of rows retained in scrollback.
func (e *Emulator) ScrollbackLen() int { return e.sb.Len() }

// ScrollbackLine returns the cells of scrollback row index (0 = oldest).
// The second return is false when the index is outside retained history.
func (e *Emulator) ScrollbackLine(index int) ([]Cell, bool) {
	line := e.sb.Line(index)
	if line == nil {
		return nil, false
	}
	return line.Cells, true
}

// ScrollbackLineWrapped reports the wrap flag of scrollback row index.
func (e *Emulator) ScrollbackLineWrapped(index int) bool {
	line := e.sb.Line(index)
	return line != nil && line.Wrapped
}

// ClearScrollback discards all retained history.
func (e *Emulator) ClearScrollback() {
	e.sb.Clear()
	e.clearSelection()
}

// SetScrollbackMaxLines rebounds the history, keeping the most recent
// rows. 0 disables scrollback.
func (e *Emulator) SetScrollbackMaxLines(maxLines int) {
	e.sb.SetMaxLines(maxLines)
	e.clearSelection()
}

// TotalRows returns the height of the buffer-absolute address space:
// scrollback plus the visible grid.
func (e *Emulator) TotalRows() int {
	return e.sb.Len() + e.scr.Height()
}

// Resize changes the grid size, preserving content per the resize policy:
// height shrink scrolls into scrollback as needed to keep the cursor,
// width shrink truncates without reflow. The selection is invalidated.
// Sizes below 1x1 are clamped, never rejected.
func (e *Emulator) Resize(rows, cols int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	e.scrs[0].Resize(cols, rows)
	e.scrs[1].Resize(cols, rows)
	e.resetTabStops()
	e.clearSelection()
}

// VisibleText returns the active screen's text, one row per line with
// trailing blank cells and trailing blank rows trimmed.
func (e *Emulator) VisibleText() string {
	lastRow := -1
	for y := e.scr.Height() - 1; y >= 0; y-- {
		if strings.TrimSpace(rowText(e.scr.Row(y))) != "" {
			lastRow = y
			break
		}
	}
	var b strings.Builder
	for y := 0; y <= lastRow; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(rowText(e.scr.Row(y)), " "))
	}
	return b.String()
}

// rowText flattens a row's cells into a string. Continuation cells
// contribute nothing; blank cells contribute a space.
func rowText(cells []Cell) string {
	var b strings.Builder
	for _, c := range cells {
		if c.Width == 0 {
			continue
		}
		if c.Content == "" {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(c.Content)
	}
	return b.String()
}

// ForegroundColor returns the effective default foreground, honoring any
// OSC 10 override.
func (e *Emulator) ForegroundColor() color.Color {
	if e.fgColor != nil {
		return e.fgColor
	}
	return e.defaultFg
}

// BackgroundColor returns the effective default background, honoring any
// OSC 11 override.
func (e *Emulator) BackgroundColor() color.Color {
	if e.bgColor != nil {
		return e.bgColor
	}
	return e.defaultBg
}

// CursorColor returns the effective cursor color, honoring any OSC 12
// override.
func (e *Emulator) CursorColor() color.Color {
	if e.curColor != nil {
		return e.curColor
	}
	return e.defaultCur
}

// PaletteColor resolves indexed color i, taking any OSC 4 overrides into
// account. Out-of-range indexes resolve to the default foreground.
func (e *Emulator) PaletteColor(i int) color.Color {
	if i < 0 || i > 255 {
		return e.ForegroundColor()
	}
	if e.colors[i] != nil {
		return e.colors[i]
	}
	if i < 16 {
		return defaultPalette[i]
	}
	return ansi256(i)
}

// SetPaletteColor overrides indexed color i, as OSC 4 would.
func (e *Emulator) SetPaletteColor(i int, c color.Color) {
	if i < 0 || i > 255 {
		return
	}
	e.colors[i] = c
}

// SetThemeColors replaces the default foreground, background and cursor
// colors and the base 16-color palette, retinting existing content since
// cells store palette indices rather than resolved colors.
func (e *Emulator) SetThemeColors(fg, bg, cur color.Color, ansi [16]color.Color) {
	if fg != nil {
		e.defaultFg = fg
	}
	if bg != nil {
		e.defaultBg = bg
	}
	if cur != nil {
		e.defaultCur = cur
	}
	for i := range 16 {
		if ansi[i] != nil {
			e.colors[i] = ansi[i]
		}
	}
}

// ResolveColor maps a cell color selector to a concrete color using the
// current palette. inverse handles the screen-wide DECSCNM swap at the
// call site, not here.
func (e *Emulator) ResolveColor(c Color, background bool) color.Color {
	switch c.Kind {
	case ColorIndexed:
		return e.PaletteColor(int(c.Index))
	case ColorRGB:
		return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	default:
		if background {
			return e.BackgroundColor()
		}
		return e.ForegroundColor()
	}
}

func (e *Emulator) resetTabStops() {
	w := e.scr.Width()
	e.tabstops = make([]bool, w)
	for x := e.cfg.TabWidth; x < w; x += e.cfg.TabWidth {
		e.tabstops[x] = true
	}
}

// line returns the row at a buffer-absolute index: scrollback first, then
// the active screen. Nil when out of range.
func (e *Emulator) line(absY int) *Line {
	sbLen := e.sb.Len()
	if absY < 0 {
		return nil
	}
	if absY < sbLen {
		return e.sb.Line(absY)
	}
	y := absY - sbLen
	if y >= e.scr.Height() {
		return nil
	}
	return &e.scr.lines[y]
}

// emit queues an event for the current Feed call to return.
func (e *Emulator) emit(ev Event) {
	e.events = append(e.events, ev)
}

// respond queues bytes owed to the child process.
func (e *Emulator) respond(s string) {
	e.emit(ResponseEvent{Data: []byte(s)})
}
