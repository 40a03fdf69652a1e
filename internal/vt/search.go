package vt

import "strings"

// SearchDirection selects which way Search walks the buffer.
type SearchDirection int

const (
	// SearchForward walks toward newer rows.
	SearchForward SearchDirection = iota
	// SearchBackward walks toward older rows.
	SearchBackward
)

// SearchMatch locates one match: its buffer-absolute row and the
// inclusive column span it covers, continuation cells included.
type SearchMatch struct {
	Line   int
	StartX int
	EndX   int
}

// Search finds the pattern nearest to from in the given direction,
// scanning scrollback and the visible grid as one buffer. Matching is
// case-sensitive and confined to single rows. Forward search returns the
// first match starting at or after from; backward search the last match
// starting at or before it. With wrapAround the scan continues from the
// opposite end, visiting every row at most once more.
func (e *Emulator) Search(pattern string, from Position, dir SearchDirection, wrapAround bool) (SearchMatch, bool) {
	if pattern == "" || e.TotalRows() == 0 {
		return SearchMatch{}, false
	}
	from = e.clampAbs(from)
	total := e.TotalRows()

	if dir == SearchForward {
		for y := from.Y; y < total; y++ {
			minCol := 0
			if y == from.Y {
				minCol = from.X
			}
			if m, ok := e.searchRow(y, pattern, minCol, -1, false); ok {
				return m, true
			}
		}
		if wrapAround {
			for y := 0; y <= from.Y; y++ {
				if m, ok := e.searchRow(y, pattern, 0, -1, false); ok {
					return m, true
				}
			}
		}
		return SearchMatch{}, false
	}

	for y := from.Y; y >= 0; y-- {
		maxCol := -1
		if y == from.Y {
			maxCol = from.X
		}
		if m, ok := e.searchRow(y, pattern, 0, maxCol, true); ok {
			return m, true
		}
	}
	if wrapAround {
		for y := total - 1; y >= from.Y; y-- {
			if m, ok := e.searchRow(y, pattern, 0, -1, true); ok {
				return m, true
			}
		}
	}
	return SearchMatch{}, false
}

// searchRow scans one row for the pattern. minCol bounds the earliest
// permitted start column; maxCol, when non-negative, the latest. With
// last set the furthest qualifying match wins instead of the first.
func (e *Emulator) searchRow(y int, pattern string, minCol, maxCol int, last bool) (SearchMatch, bool) {
	line := e.line(y)
	if line == nil {
		return SearchMatch{}, false
	}
	text, cols := flattenRow(line.Cells)
	if text == "" {
		return SearchMatch{}, false
	}

	var best SearchMatch
	found := false
	off := 0
	for {
		i := strings.Index(text[off:], pattern)
		if i < 0 {
			break
		}
		i += off
		start := cols[i]
		if maxCol >= 0 && start > maxCol {
			break
		}
		if start >= minCol {
			end := cols[i+len(pattern)-1]
			if line.Cells[end].Width == 2 {
				end++
			}
			best = SearchMatch{Line: y, StartX: start, EndX: end}
			found = true
			if !last {
				return best, true
			}
		}
		off = i + 1
	}
	return best, found
}

// flattenRow renders a row's cells as a search string, with the starting
// column of every byte. Continuation cells contribute nothing; blank
// cells contribute a space.
func flattenRow(cells []Cell) (string, []int) {
	var b strings.Builder
	cols := make([]int, 0, len(cells))
	for x, c := range cells {
		if c.Width == 0 {
			continue
		}
		s := c.Content
		if s == "" {
			s = " "
		}
		for range len(s) {
			cols = append(cols, x)
		}
		b.WriteString(s)
	}
	return b.String(), cols
}
