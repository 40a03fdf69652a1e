package vt

// Line is one terminal row: its cells plus whether it soft-wraps onto the
// following row.
type Line struct {
	Cells   []Cell
	Wrapped bool
}

// Cursor tracks the insertion point and the pen applied to new cells.
type Cursor struct {
	X, Y    int
	Visible bool
	Pen     Pen

	// wrapNext defers autowrap: after the last column is written the
	// cursor stays put and the wrap happens on the next printable.
	wrapNext bool
}

// savedCursor is one DECSC snapshot.
type savedCursor struct {
	x, y     int
	pen      Pen
	origin   bool
	gl       int
	wrapNext bool
}

// Screen is a rows x cols cell grid with a cursor, a scrolling region and
// an optional scrollback sink. The emulator owns two of these (primary and
// alternate); only the primary feeds scrollback.
type Screen struct {
	lines  []Line
	width  int
	height int

	cur   Cursor
	saved []savedCursor

	// Scrolling region, inclusive rows. Defaults to the full grid.
	top    int
	bottom int

	sb *Scrollback
}

// NewScreen creates a screen of the given size. sb may be nil for screens
// that never feed scrollback (the alternate screen).
func NewScreen(width, height int, sb *Scrollback) *Screen {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	s := &Screen{
		width:  width,
		height: height,
		sb:     sb,
		cur:    Cursor{Visible: true},
	}
	s.lines = make([]Line, height)
	for y := range s.lines {
		s.lines[y] = newLine(width)
	}
	s.resetRegion()
	return s
}

func newLine(width int) Line {
	cells := make([]Cell, width)
	for x := range cells {
		cells[x] = emptyCell
	}
	return Line{Cells: cells}
}

// Width returns the number of columns.
func (s *Screen) Width() int { return s.width }

// Height returns the number of rows.
func (s *Screen) Height() int { return s.height }

// Cursor returns the current cursor state.
func (s *Screen) Cursor() Cursor { return s.cur }

// CellAt returns a pointer to the cell at (x, y), or nil when out of
// bounds. The cell must be treated as read-only by callers outside this
// package.
func (s *Screen) CellAt(x, y int) *Cell {
	if y < 0 || y >= s.height || x < 0 || x >= s.width {
		return nil
	}
	return &s.lines[y].Cells[x]
}

// Row returns the cells of row y, or nil when out of bounds.
func (s *Screen) Row(y int) []Cell {
	if y < 0 || y >= s.height {
		return nil
	}
	return s.lines[y].Cells
}

// Wrapped reports whether row y soft-wraps onto the next row.
func (s *Screen) Wrapped(y int) bool {
	if y < 0 || y >= s.height {
		return false
	}
	return s.lines[y].Wrapped
}

func (s *Screen) setWrapped(y int, wrapped bool) {
	if y >= 0 && y < s.height {
		s.lines[y].Wrapped = wrapped
	}
}

// Region returns the scrolling region as inclusive top and bottom rows.
func (s *Screen) Region() (top, bottom int) { return s.top, s.bottom }

// fullRegion reports whether the scrolling region spans the whole grid.
func (s *Screen) fullRegion() bool {
	return s.top == 0 && s.bottom == s.height-1
}

// setRegion sets the scrolling region. Out-of-range or inverted bounds
// reset to the full grid, matching DECSTBM's tolerance for nonsense.
func (s *Screen) setRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= s.height || bottom < 0 {
		bottom = s.height - 1
	}
	if top >= bottom {
		top, bottom = 0, s.height-1
	}
	s.top, s.bottom = top, bottom
}

func (s *Screen) resetRegion() {
	s.top, s.bottom = 0, s.height-1
}

// clampX clamps a column into [0, width).
func (s *Screen) clampX(x int) int {
	if x < 0 {
		return 0
	}
	if x >= s.width {
		return s.width - 1
	}
	return x
}

// clampY clamps a row into [0, height).
func (s *Screen) clampY(y int) int {
	if y < 0 {
		return 0
	}
	if y >= s.height {
		return s.height - 1
	}
	return y
}

// setCursor places the cursor, clamped to the grid, clearing any pending
// wrap.
func (s *Screen) setCursor(x, y int) {
	s.cur.X = s.clampX(x)
	s.cur.Y = s.clampY(y)
	s.cur.wrapNext = false
}

// setCell writes a cell, maintaining the wide-character invariant: writing
// over the head of a wide character blanks its continuation, and writing
// over a continuation blanks its head.
func (s *Screen) setCell(x, y int, c Cell) {
	if y < 0 || y >= s.height || x < 0 || x >= s.width {
		return
	}
	row := s.lines[y].Cells
	old := row[x]
	if old.Width == 0 && x > 0 && row[x-1].Width == 2 {
		row[x-1] = Cell{Content: " ", Width: 1, BG: row[x-1].BG}
	}
	if old.Width == 2 && x+1 < s.width && row[x+1].Width == 0 {
		row[x+1] = Cell{Content: " ", Width: 1, BG: row[x+1].BG}
	}
	row[x] = c
}

// fill overwrites every cell in the inclusive rectangle with c.
func (s *Screen) fill(x0, y0, x1, y1 int, c Cell) {
	y0, y1 = s.clampY(y0), s.clampY(y1)
	x0, x1 = s.clampX(x0), s.clampX(x1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			s.lines[y].Cells[x] = c
		}
	}
}

// clearLine blanks columns [x0, x1] of row y.
func (s *Screen) clearLine(y, x0, x1 int, c Cell) {
	if y < 0 || y >= s.height {
		return
	}
	x0, x1 = s.clampX(x0), s.clampX(x1)
	row := s.lines[y].Cells
	for x := x0; x <= x1; x++ {
		row[x] = c
	}
}

// scrollUp shifts rows [top, bottom] up by n, blank-filling the bottom
// with fill. When push is true, rows leaving the top are appended to the
// scrollback. Returns the number of scrollback rows evicted (dropped from
// the FIFO because the store was at capacity).
func (s *Screen) scrollUp(top, bottom, n int, push bool, fill Cell) int {
	if top < 0 || bottom >= s.height || top > bottom || n <= 0 {
		return 0
	}
	if n > bottom-top+1 {
		n = bottom - top + 1
	}
	dropped := 0
	if push && s.sb != nil {
		for i := 0; i < n; i++ {
			if s.sb.PushLine(s.lines[top+i]) {
				dropped++
			}
		}
	}
	for y := top; y+n <= bottom; y++ {
		s.lines[y] = s.lines[y+n]
	}
	for y := bottom - n + 1; y <= bottom; y++ {
		line := newLine(s.width)
		for x := range line.Cells {
			line.Cells[x] = fill
		}
		s.lines[y] = line
	}
	return dropped
}

// scrollDown shifts rows [top, bottom] down by n, blank-filling the top.
// Rows leaving the bottom are discarded; nothing is ever pushed to
// scrollback on a downward scroll.
func (s *Screen) scrollDown(top, bottom, n int, fill Cell) {
	if top < 0 || bottom >= s.height || top > bottom || n <= 0 {
		return
	}
	if n > bottom-top+1 {
		n = bottom - top + 1
	}
	for y := bottom; y-n >= top; y-- {
		s.lines[y] = s.lines[y-n]
	}
	for y := top; y < top+n && y <= bottom; y++ {
		line := newLine(s.width)
		for x := range line.Cells {
			line.Cells[x] = fill
		}
		s.lines[y] = line
	}
}

// insertLines inserts n blank lines at row y, shifting rows below down
// within the scrolling region. No-op when y lies outside the region.
func (s *Screen) insertLines(y, n int, fill Cell) {
	if y < s.top || y > s.bottom {
		return
	}
	s.scrollDown(y, s.bottom, n, fill)
}

// deleteLines removes n lines at row y, shifting rows below up within the
// scrolling region. No-op when y lies outside the region.
func (s *Screen) deleteLines(y, n int, fill Cell) {
	if y < s.top || y > s.bottom {
		return
	}
	s.scrollUp(y, s.bottom, n, false, fill)
}

// insertCells inserts n blank cells at (x, y), shifting the remainder of
// the row right. Cells pushed past the right edge are lost.
func (s *Screen) insertCells(x, y, n int, fill Cell) {
	if y < 0 || y >= s.height || x < 0 || x >= s.width || n <= 0 {
		return
	}
	if n > s.width-x {
		n = s.width - x
	}
	row := s.lines[y].Cells
	copy(row[x+n:], row[x:s.width-n])
	for i := x; i < x+n; i++ {
		row[i] = fill
	}
}

// deleteCells removes n cells at (x, y), shifting the remainder of the row
// left and blank-filling the tail.
func (s *Screen) deleteCells(x, y, n int, fill Cell) {
	if y < 0 || y >= s.height || x < 0 || x >= s.width || n <= 0 {
		return
	}
	if n > s.width-x {
		n = s.width - x
	}
	row := s.lines[y].Cells
	copy(row[x:], row[x+n:])
	for i := s.width - n; i < s.width; i++ {
		row[i] = fill
	}
}

// eraseCells blanks n cells starting at (x, y) without shifting.
func (s *Screen) eraseCells(x, y, n int, fill Cell) {
	if n <= 0 {
		return
	}
	s.clearLine(y, x, x+n-1, fill)
}

// saveCursor pushes a cursor snapshot (DECSC).
func (s *Screen) saveCursor(origin bool, gl int) {
	s.saved = append(s.saved, savedCursor{
		x:        s.cur.X,
		y:        s.cur.Y,
		pen:      s.cur.Pen,
		origin:   origin,
		gl:       gl,
		wrapNext: s.cur.wrapNext,
	})
}

// restoreCursor pops the most recent snapshot (DECRC). Restoring with an
// empty stack homes the cursor and resets the pen, which is what hardware
// terminals do on an unpaired restore.
func (s *Screen) restoreCursor() (origin bool, gl int) {
	if len(s.saved) == 0 {
		s.cur.X, s.cur.Y = 0, 0
		s.cur.Pen = Pen{}
		s.cur.wrapNext = false
		return false, 0
	}
	sc := s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
	s.cur.X = s.clampX(sc.x)
	s.cur.Y = s.clampY(sc.y)
	s.cur.Pen = sc.pen
	s.cur.wrapNext = sc.wrapNext
	return sc.origin, sc.gl
}

// Resize grows or shrinks the grid in place. Shrinking the height scrolls
// just enough to keep the cursor visible (feeding scrollback on the
// primary screen); remaining excess rows are dropped from the bottom.
// Columns truncate or pad; content is never reflowed. Returns the number
// of scrollback rows evicted, as for scrollUp.
func (s *Screen) Resize(width, height int) int {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	dropped := 0

	if height < s.height && s.cur.Y >= height {
		scroll := s.cur.Y - (height - 1)
		dropped = s.scrollUp(0, s.height-1, scroll, true, emptyCell)
		s.cur.Y -= scroll
	}

	if height != s.height {
		if height < s.height {
			s.lines = s.lines[:height]
		} else {
			for len(s.lines) < height {
				s.lines = append(s.lines, newLine(width))
			}
		}
		s.height = height
	}

	if width != s.width {
		for y := range s.lines {
			cells := s.lines[y].Cells
			if width < len(cells) {
				s.lines[y].Cells = cells[:width]
				// A truncated row must not end mid-character: repair a
				// stranded continuation cell or orphaned wide head.
				if last := &s.lines[y].Cells[width-1]; last.Width != 1 {
					*last = emptyCell
				}
			} else {
				for len(cells) < width {
					cells = append(cells, emptyCell)
				}
				s.lines[y].Cells = cells
			}
		}
		s.width = width
	}

	s.cur.X = s.clampX(s.cur.X)
	s.cur.Y = s.clampY(s.cur.Y)
	s.cur.wrapNext = false
	s.resetRegion()
	return dropped
}

// clear blanks the whole grid and resets wrap flags.
func (s *Screen) clear(fill Cell) {
	for y := range s.lines {
		s.lines[y].Wrapped = false
		for x := range s.lines[y].Cells {
			s.lines[y].Cells[x] = fill
		}
	}
}
