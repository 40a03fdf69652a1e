package vt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Selection is an inclusive cell range in buffer-absolute coordinates:
// row 0 is the oldest retained scrollback row and the visible grid
// follows the history, so a selection can span both.
type Selection struct {
	Start, End Position
}

// SetSelection selects the inclusive range between two positions, in
// either order. Positions outside the buffer are clamped.
func (e *Emulator) SetSelection(start, end Position) {
	start = e.clampAbs(start)
	end = e.clampAbs(end)
	if end.Y < start.Y || (end.Y == start.Y && end.X < start.X) {
		start, end = end, start
	}
	e.sel = Selection{Start: start, End: end}
	e.selActive = true
}

// Selection returns the active selection. The second return is false when
// nothing is selected.
func (e *Emulator) Selection() (Selection, bool) {
	return e.sel, e.selActive
}

// ClearSelection removes the selection.
func (e *Emulator) ClearSelection() {
	e.clearSelection()
}

func (e *Emulator) clearSelection() {
	e.sel = Selection{}
	e.selActive = false
}

// shiftSelection keeps the selection anchored to its content when
// scrollback eviction renumbers the buffer: every retained row's absolute
// index drops by the number of evicted rows.
func (e *Emulator) shiftSelection(dropped int) {
	if !e.selActive || dropped == 0 {
		return
	}
	e.sel.Start.Y -= dropped
	e.sel.End.Y -= dropped
	if e.sel.End.Y < 0 {
		e.clearSelection()
		return
	}
	if e.sel.Start.Y < 0 {
		e.sel.Start = Position{X: 0, Y: 0}
	}
}

// SelectWord selects the word containing pos. Letters, digits and the
// configured extra word characters are word constituents; anything else,
// including blanks, is a boundary. Selecting on a boundary cell selects
// just that cell.
func (e *Emulator) SelectWord(pos Position) {
	pos = e.clampAbs(pos)
	line := e.line(pos.Y)
	if line == nil {
		return
	}
	cells := line.Cells
	start, end := pos.X, pos.X

	// Land on the head of a wide character before scanning.
	for start > 0 && cells[start].Width == 0 {
		start--
		end = start
	}

	if e.isWordCell(cells[start]) {
		for start > 0 && e.isWordCellAt(cells, start-1) {
			start--
		}
		for end < len(cells)-1 && e.isWordCellAt(cells, end+1) {
			end++
		}
		// Include the continuation cell of a trailing wide character.
		if end < len(cells)-1 && cells[end+1].Width == 0 {
			end++
		}
	}
	e.sel = Selection{Start: Position{X: start, Y: pos.Y}, End: Position{X: end, Y: pos.Y}}
	e.selActive = true
}

// SelectLine selects the full logical line containing pos, following
// soft-wrap markers in both directions.
func (e *Emulator) SelectLine(pos Position) {
	pos = e.clampAbs(pos)
	top := pos.Y
	for top > 0 {
		prev := e.line(top - 1)
		if prev == nil || !prev.Wrapped {
			break
		}
		top--
	}
	bottom := pos.Y
	for {
		cur := e.line(bottom)
		if cur == nil || !cur.Wrapped {
			break
		}
		if e.line(bottom+1) == nil {
			break
		}
		bottom++
	}
	endX := 0
	if line := e.line(bottom); line != nil {
		endX = len(line.Cells) - 1
	}
	e.sel = Selection{Start: Position{X: 0, Y: top}, End: Position{X: endX, Y: bottom}}
	e.selActive = true
}

// SelectedText flattens the selection to a string. Rows joined by a soft
// wrap concatenate without a newline; hard line breaks become newlines.
// Trailing blanks on each hard line are dropped.
func (e *Emulator) SelectedText() string {
	if !e.selActive {
		return ""
	}
	var b strings.Builder
	for y := e.sel.Start.Y; y <= e.sel.End.Y; y++ {
		line := e.line(y)
		if line == nil {
			continue
		}
		x0, x1 := 0, len(line.Cells)-1
		if y == e.sel.Start.Y {
			x0 = e.sel.Start.X
		}
		if y == e.sel.End.Y && e.sel.End.X < x1 {
			x1 = e.sel.End.X
		}
		var row strings.Builder
		for x := x0; x <= x1 && x < len(line.Cells); x++ {
			c := line.Cells[x]
			if c.Width == 0 {
				continue
			}
			if c.Content == "" {
				row.WriteByte(' ')
				continue
			}
			row.WriteString(c.Content)
		}
		text := row.String()
		if !line.Wrapped {
			text = strings.TrimRight(text, " ")
		}
		b.WriteString(text)
		if y < e.sel.End.Y && !line.Wrapped {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// clampAbs clamps a buffer-absolute position to addressable cells.
func (e *Emulator) clampAbs(pos Position) Position {
	total := e.TotalRows()
	if pos.Y < 0 {
		pos.Y = 0
	}
	if pos.Y >= total {
		pos.Y = total - 1
	}
	width := e.scr.Width()
	if line := e.line(pos.Y); line != nil {
		width = len(line.Cells)
	}
	if pos.X < 0 {
		pos.X = 0
	}
	if pos.X >= width {
		pos.X = width - 1
	}
	return pos
}

func (e *Emulator) isWordCellAt(cells []Cell, x int) bool {
	// A continuation cell belongs to whatever its head is.
	if cells[x].Width == 0 && x > 0 {
		return e.isWordCell(cells[x-1])
	}
	return e.isWordCell(cells[x])
}

func (e *Emulator) isWordCell(c Cell) bool {
	if c.Empty() {
		return false
	}
	r, _ := utf8.DecodeRuneInString(c.Content)
	return unicode.IsLetter(r) || unicode.IsDigit(r) ||
		strings.ContainsRune(e.cfg.WordChars, r)
}
