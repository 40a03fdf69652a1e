package input

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/app"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
	"github.com/Gaurav-Gosain/tinyvt/internal/vt"
)

// maxWordScan bounds word motion so a degenerate buffer cannot spin.
const maxWordScan = 2000

// handleCopyModeKey dispatches a key press to the handler for the
// current copy mode state.
func handleCopyModeKey(msg tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	s.Lock()
	defer s.Unlock()

	cm := s.CopyMode
	if cm == nil || !cm.Active {
		return a, nil
	}

	if cm.State == terminal.CopyModeSearch {
		return handleSearchInput(msg, a, s, cm)
	}
	return handleNavigationKey(msg, a, s, cm)
}

// handleNavigationKey covers the normal and visual states: configured
// actions first, then the hardcoded vim motions.
func handleNavigationKey(msg tea.KeyPressMsg, a *app.App, s *terminal.Session, cm *terminal.CopyMode) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Digits accumulate a count prefix; a leading 0 is the
	// start-of-line motion instead.
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		if (key[0] != '0' || cm.PendingCount > 0) && cm.PendingCount < 100000 {
			cm.PendingCount = cm.PendingCount*10 + int(key[0]-'0')
			return a, nil
		}
	}

	count := max(cm.PendingCount, 1)
	cm.PendingCount = 0

	if a.KeybindRegistry != nil {
		if action := a.KeybindRegistry.GetAction(key); action != "" {
			if model, cmd, handled := runCopyAction(action, a, s, cm, count); handled {
				return model, cmd
			}
		}
	}

	moved := false
	for range count {
		if !moveCopyCursor(key, s, cm) {
			break
		}
		moved = true
	}
	if moved {
		afterMove(s, cm)
		return a, nil
	}

	if key == "esc" {
		// Escape hatch even when the binding was removed
		model, cmd, _ := runCopyAction("exit", a, s, cm, 1)
		return model, cmd
	}
	return a, nil
}

// runCopyAction executes a configured copy mode action. The second
// return is false when the action name is unknown.
func runCopyAction(action string, a *app.App, s *terminal.Session, cm *terminal.CopyMode, count int) (tea.Model, tea.Cmd, bool) {
	inVisual := cm.State == terminal.CopyModeVisualChar || cm.State == terminal.CopyModeVisualLine

	switch action {
	case "exit":
		if inVisual {
			// Drop back to navigation, keep copy mode open
			cm.State = terminal.CopyModeNormal
			s.Terminal.ClearSelection()
			s.ContentDirty = true
			return a, nil, true
		}
		s.ExitCopyMode()
		a.InteractionMode = false
		return a, nil, true

	case "copy":
		text := s.Terminal.SelectedText()
		if text == "" {
			return a, nil, true
		}
		s.ExitCopyMode()
		a.InteractionMode = false
		a.ShowNotification(fmt.Sprintf("Copied %d chars", utf8.RuneCountInString(text)),
			"success", config.NotificationDuration)
		return a, tea.SetClipboard(text), true

	case "visual":
		toggleVisual(s, cm, terminal.CopyModeVisualChar, inVisual)
		return a, nil, true

	case "visual_line":
		toggleVisual(s, cm, terminal.CopyModeVisualLine, inVisual)
		return a, nil, true

	case "search_fwd":
		openSearch(s, cm, false)
		return a, nil, true

	case "search_back":
		openSearch(s, cm, true)
		return a, nil, true

	case "next_match":
		for range count {
			stepMatch(s, cm, 1)
		}
		afterMove(s, cm)
		return a, nil, true

	case "prev_match":
		for range count {
			stepMatch(s, cm, -1)
		}
		afterMove(s, cm)
		return a, nil, true

	case "halfpage_up":
		_, rows := viewport(s)
		for range count * max(rows/2, 1) {
			moveUp(s, cm)
		}
		afterMove(s, cm)
		return a, nil, true

	case "halfpage_down":
		_, rows := viewport(s)
		for range count * max(rows/2, 1) {
			moveDown(s, cm)
		}
		afterMove(s, cm)
		return a, nil, true

	case "top":
		moveToTop(s, cm)
		afterMove(s, cm)
		return a, nil, true

	case "bottom":
		moveToBottom(s, cm)
		afterMove(s, cm)
		return a, nil, true
	}
	return a, nil, false
}

// toggleVisual enters the given visual state, or leaves it when pressed
// again, the way v and V toggle in vim.
func toggleVisual(s *terminal.Session, cm *terminal.CopyMode, state terminal.CopyModeState, inVisual bool) {
	if cm.State == state {
		cm.State = terminal.CopyModeNormal
		s.Terminal.ClearSelection()
	} else {
		if !inVisual {
			cm.VisualAnchor = cursorAbs(s, cm)
		}
		cm.State = state
		updateVisualSelection(s, cm)
	}
	s.ContentDirty = true
}

// openSearch switches to the search prompt.
func openSearch(s *terminal.Session, cm *terminal.CopyMode, backward bool) {
	cm.State = terminal.CopyModeSearch
	cm.SearchBackward = backward
	cm.SearchQuery = ""
	cm.Matches = nil
	cm.CurrentMatch = -1
	s.ContentDirty = true
}

// afterMove refreshes the selection in visual state and marks the
// screen dirty.
func afterMove(s *terminal.Session, cm *terminal.CopyMode) {
	if cm.State == terminal.CopyModeVisualChar || cm.State == terminal.CopyModeVisualLine {
		updateVisualSelection(s, cm)
	}
	s.ContentDirty = true
}

// =============================================================================
// Search
// =============================================================================

// handleSearchInput accumulates the query, searching as it grows.
func handleSearchInput(msg tea.KeyPressMsg, a *app.App, s *terminal.Session, cm *terminal.CopyMode) (tea.Model, tea.Cmd) {
	key := msg.Key()

	switch key.Code {
	case tea.KeyEnter:
		cm.State = terminal.CopyModeNormal
		if len(cm.Matches) == 0 && cm.SearchQuery != "" {
			a.ShowNotification("No matches for "+cm.SearchQuery, "warning", config.NotificationDuration)
		}
	case tea.KeyEscape:
		cm.State = terminal.CopyModeNormal
		cm.SearchQuery = ""
		cm.Matches = nil
		cm.CurrentMatch = -1
	case tea.KeyBackspace:
		if cm.SearchQuery != "" {
			runes := []rune(cm.SearchQuery)
			cm.SearchQuery = string(runes[:len(runes)-1])
			runSearch(s, cm)
		}
	default:
		if key.Text != "" {
			cm.SearchQuery += key.Text
			runSearch(s, cm)
		}
	}
	s.ContentDirty = true
	return a, nil
}

// runSearch recomputes the match list for the current query and jumps
// to the nearest match in the search direction.
func runSearch(s *terminal.Session, cm *terminal.CopyMode) {
	if s.SearchIgnoreCase {
		cm.Matches = foldedMatches(s, cm.SearchQuery)
	} else {
		cm.Matches = collectMatches(s.Terminal, cm.SearchQuery)
	}
	cm.CurrentMatch = -1
	if len(cm.Matches) == 0 {
		return
	}

	absY := absoluteY(s, cm)
	if cm.SearchBackward {
		for i := len(cm.Matches) - 1; i >= 0; i-- {
			m := cm.Matches[i]
			if m.Line < absY || (m.Line == absY && m.StartX <= cm.CursorX) {
				cm.CurrentMatch = i
				break
			}
		}
		if cm.CurrentMatch < 0 && s.WrapSearch {
			cm.CurrentMatch = len(cm.Matches) - 1
		}
	} else {
		for i, m := range cm.Matches {
			if m.Line > absY || (m.Line == absY && m.StartX >= cm.CursorX) {
				cm.CurrentMatch = i
				break
			}
		}
		if cm.CurrentMatch < 0 && s.WrapSearch {
			cm.CurrentMatch = 0
		}
	}
	jumpToMatch(s, cm)
}

// collectMatches enumerates every match in the buffer, capped so a
// pathological query cannot stall the UI.
func collectMatches(em *vt.Emulator, query string) []vt.SearchMatch {
	if query == "" {
		return nil
	}
	const maxMatches = 1000
	var matches []vt.SearchMatch
	from := vt.Position{}
	for len(matches) < maxMatches {
		m, ok := em.Search(query, from, vt.SearchForward, false)
		if !ok {
			break
		}
		matches = append(matches, m)
		// Resume just past the match start; crossing to the next row
		// keeps the position from clamping back onto the same match.
		if m.StartX+1 < em.Width() {
			from = vt.Position{X: m.StartX + 1, Y: m.Line}
		} else if m.Line+1 < em.TotalRows() {
			from = vt.Position{X: 0, Y: m.Line + 1}
		} else {
			break
		}
	}
	return matches
}

// foldedMatches is the case-insensitive variant of collectMatches: the
// query and the row text are both lower-cased before matching. The
// emulator's own search stays case-sensitive.
func foldedMatches(s *terminal.Session, query string) []vt.SearchMatch {
	if query == "" {
		return nil
	}
	const maxMatches = 1000
	query = strings.ToLower(query)

	var matches []vt.SearchMatch
	for y := range s.Terminal.TotalRows() {
		text, cols := flattenRowFolded(s, y)
		off := 0
		for off < len(text) {
			i := strings.Index(text[off:], query)
			if i < 0 {
				break
			}
			i += off
			end := cols[i+len(query)-1]
			if cell := cellAt(s, end, y); cell != nil && cell.Width == 2 {
				end++
			}
			matches = append(matches, vt.SearchMatch{Line: y, StartX: cols[i], EndX: end})
			if len(matches) >= maxMatches {
				return matches
			}
			off = i + 1
		}
	}
	return matches
}

// flattenRowFolded renders one buffer row lower-cased, with the source
// column of every byte. Lower-casing maps rune to rune, so columns
// survive the fold even when byte widths change.
func flattenRowFolded(s *terminal.Session, absY int) (string, []int) {
	width, _ := viewport(s)
	var b strings.Builder
	cols := make([]int, 0, width)
	for x := range width {
		cell := cellAt(s, x, absY)
		if cell == nil {
			break
		}
		if cell.Width == 0 {
			continue
		}
		t := cell.Content
		if t == "" {
			t = " "
		}
		t = strings.ToLower(t)
		for range len(t) {
			cols = append(cols, x)
		}
		b.WriteString(t)
	}
	return b.String(), cols
}

// stepMatch advances n/N through the match list. A backward search
// flips the meaning, matching vim.
func stepMatch(s *terminal.Session, cm *terminal.CopyMode, step int) {
	n := len(cm.Matches)
	if n == 0 {
		return
	}
	if cm.SearchBackward {
		step = -step
	}

	var next int
	if cm.CurrentMatch < 0 {
		if step > 0 {
			next = 0
		} else {
			next = n - 1
		}
	} else {
		next = cm.CurrentMatch + step
	}
	if next < 0 || next >= n {
		if !s.WrapSearch {
			return
		}
		next = (next%n + n) % n
	}
	cm.CurrentMatch = next
	jumpToMatch(s, cm)
}

// jumpToMatch scrolls the viewport so the current match is visible,
// centered when it lives in scrollback.
func jumpToMatch(s *terminal.Session, cm *terminal.CopyMode) {
	if cm.CurrentMatch < 0 || cm.CurrentMatch >= len(cm.Matches) {
		return
	}
	m := cm.Matches[cm.CurrentMatch]
	sbLen := s.Terminal.ScrollbackLen()
	_, rows := viewport(s)

	offset := 0
	if m.Line < sbLen {
		offset = min(sbLen-m.Line+rows/2, sbLen)
	}
	cm.ScrollOffset = offset
	cm.CursorY = min(max(m.Line-sbLen+offset, 0), rows-1)
	cm.CursorX = min(m.StartX, s.Terminal.Width()-1)
}

// =============================================================================
// Visual Selection
// =============================================================================

// updateVisualSelection projects the anchor and cursor onto the
// emulator selection. Line state widens it to whole rows.
func updateVisualSelection(s *terminal.Session, cm *terminal.CopyMode) {
	anchor := cm.VisualAnchor
	cur := cursorAbs(s, cm)

	if cm.State == terminal.CopyModeVisualLine {
		startY, endY := anchor.Y, cur.Y
		if startY > endY {
			startY, endY = endY, startY
		}
		s.Terminal.SetSelection(
			vt.Position{X: 0, Y: startY},
			vt.Position{X: s.Terminal.Width() - 1, Y: endY},
		)
		return
	}
	s.Terminal.SetSelection(anchor, cur)
}

// =============================================================================
// Cursor Movement
// =============================================================================

// viewport returns the copy mode view dimensions, which match the
// emulator grid.
func viewport(s *terminal.Session) (cols, rows int) {
	return s.Terminal.Width(), s.Terminal.Height()
}

// absoluteY converts the viewport-relative cursor row into a buffer
// absolute row.
func absoluteY(s *terminal.Session, cm *terminal.CopyMode) int {
	return s.Terminal.ScrollbackLen() - cm.ScrollOffset + cm.CursorY
}

func cursorAbs(s *terminal.Session, cm *terminal.CopyMode) vt.Position {
	return vt.Position{X: cm.CursorX, Y: absoluteY(s, cm)}
}

// moveCopyCursor applies one step of a vim motion. Returns false for
// keys that are not motions.
func moveCopyCursor(key string, s *terminal.Session, cm *terminal.CopyMode) bool {
	cols, rows := viewport(s)

	switch key {
	case "h", "left":
		if cm.CursorX > 0 {
			cm.CursorX--
		}
	case "l", "right":
		if cm.CursorX < cols-1 {
			cm.CursorX++
		}
	case "k", "up":
		moveUp(s, cm)
	case "j", "down":
		moveDown(s, cm)
	case "w":
		moveWordForward(s, cm)
	case "b":
		moveWordBackward(s, cm)
	case "e":
		moveWordEnd(s, cm)
	case "0", "home":
		cm.CursorX = 0
	case "^":
		cm.CursorX = lineStartX(s, absoluteY(s, cm))
	case "$", "end":
		cm.CursorX = lineEndX(s, absoluteY(s, cm))
	case "H":
		cm.CursorY = 0
	case "M":
		cm.CursorY = rows / 2
	case "L":
		cm.CursorY = rows - 1
	case "ctrl+f":
		for range max(rows-1, 1) {
			moveDown(s, cm)
		}
	case "ctrl+b":
		for range max(rows-1, 1) {
			moveUp(s, cm)
		}
	default:
		return false
	}
	return true
}

// moveUp scrolls once the cursor reaches the middle of the viewport, so
// context stays visible above it.
func moveUp(s *terminal.Session, cm *terminal.CopyMode) {
	_, rows := viewport(s)
	switch {
	case cm.CursorY > rows/2:
		cm.CursorY--
	case cm.ScrollOffset < s.Terminal.ScrollbackLen():
		cm.ScrollOffset++
	case cm.CursorY > 0:
		cm.CursorY--
	}
}

func moveDown(s *terminal.Session, cm *terminal.CopyMode) {
	_, rows := viewport(s)
	switch {
	case cm.CursorY < rows/2:
		cm.CursorY++
	case cm.ScrollOffset > 0:
		cm.ScrollOffset--
	case cm.CursorY < rows-1:
		cm.CursorY++
	}
}

// moveToTop jumps to the oldest scrollback row.
func moveToTop(s *terminal.Session, cm *terminal.CopyMode) {
	cm.ScrollOffset = s.Terminal.ScrollbackLen()
	cm.CursorX = 0
	cm.CursorY = 0
}

// moveToBottom jumps back to the live screen.
func moveToBottom(s *terminal.Session, cm *terminal.CopyMode) {
	_, rows := viewport(s)
	cm.ScrollOffset = 0
	cm.CursorX = 0
	cm.CursorY = rows - 1
}

// setCursorAbs places the copy cursor on an absolute buffer row,
// scrolling the viewport when the target is outside it.
func setCursorAbs(s *terminal.Session, cm *terminal.CopyMode, x, absY int) {
	sbLen := s.Terminal.ScrollbackLen()
	_, rows := viewport(s)

	top := sbLen - cm.ScrollOffset
	switch {
	case absY < top:
		cm.ScrollOffset = sbLen - absY
	case absY >= top+rows:
		cm.ScrollOffset = sbLen - absY + rows - 1
	}
	cm.ScrollOffset = min(max(cm.ScrollOffset, 0), sbLen)
	cm.CursorY = min(max(absY-(sbLen-cm.ScrollOffset), 0), rows-1)
	cm.CursorX = x
}

// =============================================================================
// Word Motion
// =============================================================================

type charClass int

const (
	charSpace charClass = iota
	charWord
	charOther
)

// charTypeAt classifies a cell for vim-style word motion: whitespace,
// word constituents, or other punctuation.
func charTypeAt(s *terminal.Session, x, absY int) charClass {
	cell := cellAt(s, x, absY)
	if cell == nil || cell.Content == "" || cell.Content == " " {
		return charSpace
	}
	r, _ := utf8.DecodeRuneInString(cell.Content)
	switch {
	case r == ' ' || r == '\t':
		return charSpace
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return charWord
	default:
		return charOther
	}
}

// cellAt resolves a cell across scrollback and the live screen. absY
// counts from the oldest scrollback row.
func cellAt(s *terminal.Session, x, absY int) *vt.Cell {
	if x < 0 || absY < 0 {
		return nil
	}
	sbLen := s.Terminal.ScrollbackLen()
	if absY < sbLen {
		line, ok := s.Terminal.ScrollbackLine(absY)
		if !ok || x >= len(line) {
			return nil
		}
		return &line[x]
	}
	return s.Terminal.CellAt(x, absY-sbLen)
}

// cellAfter steps one cell forward, wrapping to the next row.
func cellAfter(s *terminal.Session, x, absY int) (int, int, bool) {
	cols, _ := viewport(s)
	if x+1 < cols {
		return x + 1, absY, true
	}
	if absY+1 < s.Terminal.TotalRows() {
		return 0, absY + 1, true
	}
	return x, absY, false
}

// cellBefore steps one cell backward, wrapping to the previous row.
func cellBefore(s *terminal.Session, x, absY int) (int, int, bool) {
	cols, _ := viewport(s)
	if x > 0 {
		return x - 1, absY, true
	}
	if absY > 0 {
		return cols - 1, absY - 1, true
	}
	return x, absY, false
}

// moveWordForward implements w: leave the current run, skip whitespace,
// land on the start of the next word.
func moveWordForward(s *terminal.Session, cm *terminal.CopyMode) {
	x, absY := cm.CursorX, absoluteY(s, cm)
	start := charTypeAt(s, x, absY)

	scan := 0
	for start != charSpace {
		nx, ny, ok := cellAfter(s, x, absY)
		if !ok || scan > maxWordScan {
			setCursorAbs(s, cm, x, absY)
			return
		}
		x, absY = nx, ny
		scan++
		if charTypeAt(s, x, absY) != start {
			break
		}
	}
	for charTypeAt(s, x, absY) == charSpace {
		nx, ny, ok := cellAfter(s, x, absY)
		if !ok || scan > maxWordScan {
			break
		}
		x, absY = nx, ny
		scan++
	}
	setCursorAbs(s, cm, x, absY)
}

// moveWordBackward implements b: step back, skip whitespace, then walk
// to the start of that run.
func moveWordBackward(s *terminal.Session, cm *terminal.CopyMode) {
	x, absY := cm.CursorX, absoluteY(s, cm)
	px, py, ok := cellBefore(s, x, absY)
	if !ok {
		return
	}
	x, absY = px, py

	scan := 0
	for charTypeAt(s, x, absY) == charSpace {
		px, py, ok := cellBefore(s, x, absY)
		if !ok || scan > maxWordScan {
			setCursorAbs(s, cm, x, absY)
			return
		}
		x, absY = px, py
		scan++
	}
	ct := charTypeAt(s, x, absY)
	for scan <= maxWordScan {
		px, py, ok := cellBefore(s, x, absY)
		if !ok || charTypeAt(s, px, py) != ct {
			break
		}
		x, absY = px, py
		scan++
	}
	setCursorAbs(s, cm, x, absY)
}

// moveWordEnd implements e: step forward, skip whitespace, then walk to
// the end of that run.
func moveWordEnd(s *terminal.Session, cm *terminal.CopyMode) {
	x, absY := cm.CursorX, absoluteY(s, cm)
	nx, ny, ok := cellAfter(s, x, absY)
	if !ok {
		return
	}
	x, absY = nx, ny

	scan := 0
	for charTypeAt(s, x, absY) == charSpace {
		nx, ny, ok := cellAfter(s, x, absY)
		if !ok || scan > maxWordScan {
			setCursorAbs(s, cm, x, absY)
			return
		}
		x, absY = nx, ny
		scan++
	}
	ct := charTypeAt(s, x, absY)
	for scan <= maxWordScan {
		nx, ny, ok := cellAfter(s, x, absY)
		if !ok || charTypeAt(s, nx, ny) != ct {
			break
		}
		x, absY = nx, ny
		scan++
	}
	setCursorAbs(s, cm, x, absY)
}

// lineStartX is the first non-blank column, for the ^ motion.
func lineStartX(s *terminal.Session, absY int) int {
	cols, _ := viewport(s)
	for x := range cols {
		if charTypeAt(s, x, absY) != charSpace {
			return x
		}
	}
	return 0
}

// lineEndX is the last non-blank column, for the $ motion.
func lineEndX(s *terminal.Session, absY int) int {
	cols, _ := viewport(s)
	for x := cols - 1; x >= 0; x-- {
		if charTypeAt(s, x, absY) != charSpace {
			return x
		}
	}
	return 0
}
