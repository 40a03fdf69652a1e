package vt

// Scrollback stores rows that have scrolled off the top of the visible
// screen. It is a ring buffer, so pushing is O(1) with no slice
// reallocation, and the oldest row is discarded first once the buffer is
// at capacity. A maximum of 0 disables scrollback entirely: every push is
// dropped immediately.
type Scrollback struct {
	// lines stores the scrollback rows in a ring buffer
	lines []Line
	// maxLines is the maximum number of rows to keep
	maxLines int
	// head is the index of the oldest row in the ring buffer
	head int
	// tail is the index where the next row will be inserted
	tail int
	// full indicates whether the ring buffer is at capacity
	full bool
}

// NewScrollback creates a scrollback buffer bounded at maxLines rows.
// maxLines <= 0 disables scrollback.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines < 0 {
		maxLines = 0
	}
	sb := &Scrollback{maxLines: maxLines}
	if maxLines > 0 {
		sb.lines = make([]Line, maxLines)
	}
	return sb
}

// PushLine appends a copy of line. If the buffer is at capacity the oldest
// row is overwritten; PushLine reports whether that happened so callers
// can shift any buffer-absolute indices they hold. Pushing to a disabled
// buffer drops the row and reports false.
func (sb *Scrollback) PushLine(line Line) bool {
	if sb.maxLines == 0 {
		return false
	}

	// Copy to avoid aliasing the screen's cells.
	cells := make([]Cell, len(line.Cells))
	copy(cells, line.Cells)
	sb.lines[sb.tail] = Line{Cells: cells, Wrapped: line.Wrapped}

	sb.tail = (sb.tail + 1) % sb.maxLines

	evicted := sb.full
	if sb.full {
		sb.head = (sb.head + 1) % sb.maxLines
	}
	if sb.tail == sb.head {
		sb.full = true
	}
	return evicted
}

// Len returns the number of rows currently retained.
func (sb *Scrollback) Len() int {
	if sb.maxLines == 0 {
		return 0
	}
	if sb.full {
		return sb.maxLines
	}
	if sb.tail >= sb.head {
		return sb.tail - sb.head
	}
	return sb.maxLines - sb.head + sb.tail
}

// Line returns the row at index. Index 0 is the oldest retained row and
// Len()-1 the newest. Out-of-range indexes return nil; requesting history
// that has been evicted is not an error.
func (sb *Scrollback) Line(index int) *Line {
	if index < 0 || index >= sb.Len() {
		return nil
	}
	return &sb.lines[(sb.head+index)%sb.maxLines]
}

// Clear removes all retained rows.
func (sb *Scrollback) Clear() {
	sb.head = 0
	sb.tail = 0
	sb.full = false
	for i := range sb.lines {
		sb.lines[i] = Line{}
	}
}

// MaxLines returns the configured capacity.
func (sb *Scrollback) MaxLines() int {
	return sb.maxLines
}

// SetMaxLines changes the capacity, keeping the most recent rows when
// shrinking. Setting 0 disables scrollback and discards all history.
func (sb *Scrollback) SetMaxLines(maxLines int) {
	if maxLines < 0 {
		maxLines = 0
	}
	if maxLines == sb.maxLines {
		return
	}
	if maxLines == 0 {
		sb.lines = nil
		sb.maxLines = 0
		sb.head, sb.tail = 0, 0
		sb.full = false
		return
	}

	oldLen := sb.Len()
	newLines := make([]Line, maxLines)
	newLen := min(oldLen, maxLines)

	// Copy the most recent newLen rows, skipping the oldest on downsizing.
	start := oldLen - newLen
	for i := 0; i < newLen; i++ {
		newLines[i] = sb.lines[(sb.head+start+i)%sb.maxLines]
	}

	sb.lines = newLines
	sb.maxLines = maxLines
	sb.head = 0
	sb.tail = newLen % maxLines
	sb.full = newLen == maxLines
}
