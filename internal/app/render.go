package app

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/pool"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
	"github.com/Gaurav-Gosain/tinyvt/internal/theme"
	"github.com/Gaurav-Gosain/tinyvt/internal/vt"
	"github.com/charmbracelet/x/ansi"
)

// highlight identifies the overlay drawn on top of a cell's own style,
// lowest precedence first.
type highlight int

const (
	hlNone highlight = iota
	hlSelection
	hlSearch
	hlSearchCurrent
	hlCopyCursor
)

// runKey is the batching key: consecutive cells with equal keys share one
// escape sequence. Cell colors are palette selectors, so comparison is
// exact without resolving.
type runKey struct {
	fg   vt.Color
	bg   vt.Color
	attr vt.AttrMask
	kind highlight
}

// styleToANSI converts a lipgloss.Style to raw ANSI codes, bypassing the
// layout logic in Style.Render.
func styleToANSI(s lipgloss.Style) (prefix string, suffix string) {
	var te ansi.Style

	fg := s.GetForeground()
	bg := s.GetBackground()

	if _, ok := fg.(lipgloss.NoColor); !ok && fg != nil {
		te = te.ForegroundColor(ansi.Color(fg))
	}
	if _, ok := bg.(lipgloss.NoColor); !ok && bg != nil {
		te = te.BackgroundColor(ansi.Color(bg))
	}

	if s.GetBold() {
		te = te.Bold()
	}
	if s.GetItalic() {
		te = te.Italic(true)
	}
	if s.GetUnderline() {
		te = te.Underline(true)
	}
	if s.GetStrikethrough() {
		te = te.Strikethrough(true)
	}
	if s.GetBlink() {
		te = te.Blink(true)
	}
	if s.GetFaint() {
		te = te.Faint()
	}
	if s.GetReverse() {
		te = te.Reverse(true)
	}

	ansiStr := te.String()
	if ansiStr != "" {
		return ansiStr, "\x1b[0m"
	}
	return "", ""
}

// renderStyledText applies ANSI styling to text without Style.Render.
func renderStyledText(style lipgloss.Style, text string) string {
	prefix, suffix := styleToANSI(style)
	if prefix == "" {
		return text
	}
	return prefix + text + suffix
}

// overlayStyle builds a style from a theme background/foreground pair.
func overlayStyle(bg, fg color.Color) lipgloss.Style {
	return lipgloss.NewStyle().Background(bg).Foreground(fg)
}

// cellPrefix builds the escape sequence for a run of cells. Default
// colors emit nothing so the host terminal's own defaults apply.
func cellPrefix(em *vt.Emulator, key runKey, invertAll bool) string {
	var te ansi.Style

	if key.attr.Contains(vt.AttrBold) {
		te = te.Bold()
	}
	if key.attr.Contains(vt.AttrFaint) {
		te = te.Faint()
	}
	if key.attr.Contains(vt.AttrItalic) {
		te = te.Italic(true)
	}
	if key.attr.Contains(vt.AttrUnderline) {
		te = te.Underline(true)
	}
	if key.attr.Contains(vt.AttrBlink) {
		te = te.Blink(true)
	}
	if key.attr.Contains(vt.AttrStrikethrough) {
		te = te.Strikethrough(true)
	}
	// A cell's own inverse and a screen-wide inverse cancel out
	if key.attr.Contains(vt.AttrInverse) != invertAll {
		te = te.Reverse(true)
	}
	if key.fg.Kind != vt.ColorDefault {
		te = te.ForegroundColor(ansi.Color(em.ResolveColor(key.fg, false)))
	}
	if key.bg.Kind != vt.ColorDefault {
		te = te.BackgroundColor(ansi.Color(em.ResolveColor(key.bg, true)))
	}

	return te.String()
}

// View assembles the frame.
func (a *App) View() tea.View {
	var view tea.View

	if a.quitting {
		view.SetContent("")
		return view
	}

	view.SetContent(a.renderFrame())
	view.AltScreen = true
	view.MouseMode = tea.MouseModeAllMotion
	view.ReportFocus = true
	view.DisableBracketedPasteMode = false

	return view
}

// renderFrame lays out the terminal content, the copy mode search bar
// and the status bar.
func (a *App) renderFrame() string {
	if a.Session == nil || a.Width < 1 || a.Height < 1 {
		return ""
	}

	if a.ShowHelp {
		return a.renderHelp()
	}

	content := a.renderSession()

	if searchBar := a.searchBarLine(); searchBar != "" {
		lines := strings.Split(content, "\n")
		if len(lines) > 0 {
			lines[len(lines)-1] = searchBar
		}
		content = strings.Join(lines, "\n")
	}

	if a.ShowStatusBar {
		content += "\n" + a.renderStatusBar()
	}

	return content
}

// searchBarLine renders the incremental search prompt shown on the
// bottom row while typing a copy mode search. Empty when not searching.
func (a *App) searchBarLine() string {
	s := a.Session
	s.Lock()
	defer s.Unlock()

	cm := s.CopyMode
	if cm == nil || !cm.Active || cm.State != terminal.CopyModeSearch {
		return ""
	}

	prompt := "/"
	if cm.SearchBackward {
		prompt = "?"
	}
	text := prompt + cm.SearchQuery + "█"
	count := ""
	if len(cm.Matches) > 0 {
		count = fmt.Sprintf(" %d/%d ", cm.CurrentMatch+1, len(cm.Matches))
	}

	pad := a.Width - ansi.StringWidth(text) - ansi.StringWidth(count)
	if pad < 0 {
		text = ansi.Truncate(text, max(a.Width-ansi.StringWidth(count), 0), "")
		pad = 0
	}
	return renderStyledText(overlayStyle(theme.CopyModeSearchBar()),
		text+strings.Repeat(" ", pad)+count)
}

// renderSession renders the emulator grid, the scrollback viewport and
// the copy mode overlays into ANSI-styled lines.
func (a *App) renderSession() string {
	s := a.Session

	s.Lock()
	defer s.Unlock()

	// The visible bell inverts the whole frame; those frames are never
	// cached so the invert disappears on its own.
	flash := time.Now().Before(s.FlashUntil)

	if !s.ContentDirty && s.CachedContent != "" && !flash {
		return s.CachedContent
	}

	em := s.Terminal
	rows := a.TerminalHeight()
	cols := max(a.Width, 1)
	maxY := min(rows, em.Height())
	maxX := min(cols, em.Width())

	invertAll := flash != em.ReverseVideo()

	scrollbackLen := em.ScrollbackLen()
	scrollOffset := 0
	inCopyMode := s.CopyMode != nil && s.CopyMode.Active
	if inCopyMode {
		scrollOffset = min(s.CopyMode.ScrollOffset, scrollbackLen)
	}

	// Overlay styles resolved once per frame
	var hlStyles [hlCopyCursor + 1]lipgloss.Style
	hlStyles[hlCopyCursor] = overlayStyle(theme.CopyModeCursor()).Bold(true)
	hlStyles[hlSearchCurrent] = overlayStyle(theme.CopyModeSearchCurrent()).Bold(true)
	hlStyles[hlSearch] = overlayStyle(theme.CopyModeSearchOther())
	if inCopyMode {
		hlStyles[hlSelection] = overlayStyle(theme.CopyModeVisualSelection()).Bold(true)
	} else {
		hlStyles[hlSelection] = overlayStyle(theme.MouseSelection())
	}

	searchRows, currentRows := a.searchHighlightRows(maxY, maxX, scrollbackLen, scrollOffset)
	selStart, selEnd, haveSel := selectionBounds(em)

	cursor := em.CursorPosition()
	drawCursor := !inCopyMode && em.CursorVisible() && !s.ProcessExited
	cursorShape := em.CursorShape()

	builder := pool.GetStringBuilder()
	defer pool.PutStringBuilder(builder)
	builder.Grow(maxX * maxY * 2)

	batch := pool.GetStringBuilder()
	defer pool.PutStringBuilder(batch)

	var prev runKey
	flushRun := func() {
		if batch.Len() == 0 {
			return
		}
		text := batch.String()
		if prev.kind != hlNone {
			builder.WriteString(renderStyledText(hlStyles[prev.kind], text))
		} else if prefix := cellPrefix(em, prev, invertAll); prefix != "" {
			builder.WriteString(prefix)
			builder.WriteString(text)
			builder.WriteString("\x1b[0m")
		} else {
			builder.WriteString(text)
		}
		batch.Reset()
	}

	for y := range maxY {
		if y > 0 {
			builder.WriteByte('\n')
		}

		// Rows above the offset come from scrollback, the rest from the
		// live screen.
		var screenY, sbIndex int
		fromScrollback := y < scrollOffset
		if fromScrollback {
			sbIndex = scrollbackLen - scrollOffset + y
		} else {
			screenY = y - scrollOffset
		}

		var sbLine []vt.Cell
		if fromScrollback {
			sbLine, _ = em.ScrollbackLine(sbIndex)
		}

		// Buffer-absolute row for selection mapping
		absY := sbIndex
		if !fromScrollback {
			absY = scrollbackLen + screenY
		}

		prev = runKey{}
		batch.Reset()

		for x := 0; x < maxX; {
			var cell *vt.Cell
			if fromScrollback {
				if x < len(sbLine) {
					cell = &sbLine[x]
				}
			} else if screenY < em.Height() {
				cell = em.CellAt(x, screenY)
			}

			char := " "
			width := 1
			var key runKey
			if cell != nil {
				if cell.Content != "" {
					char = cell.Content
				}
				if cell.Width > 1 {
					width = cell.Width
				}
				key = runKey{fg: cell.FG, bg: cell.BG, attr: cell.Attr}
			}
			if key.attr.Contains(vt.AttrConceal) {
				char = strings.Repeat(" ", width)
			}

			switch {
			case inCopyMode && x == s.CopyMode.CursorX && y == s.CopyMode.CursorY:
				key.kind = hlCopyCursor
			case currentRows[y] != nil && currentRows[y][x]:
				key.kind = hlSearchCurrent
			case searchRows[y] != nil && searchRows[y][x]:
				key.kind = hlSearch
			case haveSel && inSelection(selStart, selEnd, x, absY):
				key.kind = hlSelection
			}

			// The child's cursor folds into the run key: underline shape
			// adds an underline, block and bar invert the cell.
			if drawCursor && key.kind == hlNone && !fromScrollback &&
				x == cursor.X && screenY == cursor.Y {
				if cursorShape == vt.CursorUnderline {
					key.attr |= vt.AttrUnderline
				} else {
					key.attr ^= vt.AttrInverse
				}
			}

			if x > 0 && key != prev {
				flushRun()
			}
			prev = key
			batch.WriteString(char)

			x += width
		}
		flushRun()
	}

	content := builder.String()
	if !flash {
		s.CachedContent = content
		s.ContentDirty = false
	}
	return content
}

// searchHighlightRows maps the copy mode search matches onto viewport
// rows. Returns per-row cell sets for plain matches and for the current
// match. Caller holds the session lock.
func (a *App) searchHighlightRows(maxY, maxX, scrollbackLen, scrollOffset int) (searchRows, currentRows map[int]map[int]bool) {
	cm := a.Session.CopyMode
	if cm == nil || !cm.Active || len(cm.Matches) == 0 {
		return nil, nil
	}

	searchRows = make(map[int]map[int]bool)
	currentRows = make(map[int]map[int]bool)

	for i, match := range cm.Matches {
		var viewportY int
		if match.Line < scrollbackLen {
			if scrollOffset == 0 || match.Line < scrollbackLen-scrollOffset {
				continue // scrolled out of view
			}
			viewportY = match.Line - (scrollbackLen - scrollOffset)
		} else {
			viewportY = scrollOffset + (match.Line - scrollbackLen)
		}
		if viewportY < 0 || viewportY >= maxY {
			continue
		}

		target := searchRows
		if i == cm.CurrentMatch {
			target = currentRows
		}
		if target[viewportY] == nil {
			target[viewportY] = make(map[int]bool)
		}
		for x := match.StartX; x <= match.EndX && x < maxX; x++ {
			target[viewportY][x] = true
		}
	}
	return searchRows, currentRows
}

// selectionBounds fetches the emulator's selection endpoints. Start is
// never after end.
func selectionBounds(em *vt.Emulator) (start, end vt.Position, ok bool) {
	sel, ok := em.Selection()
	if !ok {
		return vt.Position{}, vt.Position{}, false
	}
	return sel.Start, sel.End, true
}

// inSelection reports whether buffer-absolute cell (x, absY) lies in the
// span: partial first and last rows, full rows between.
func inSelection(start, end vt.Position, x, absY int) bool {
	if absY < start.Y || absY > end.Y {
		return false
	}
	if absY == start.Y && x < start.X {
		return false
	}
	if absY == end.Y && x > end.X {
		return false
	}
	return true
}

// renderStatusBar draws the single-line bar under the terminal: session
// title and mode indicators on the left, host and child statistics plus
// the cursor position (or the latest notification) on the right.
func (a *App) renderStatusBar() string {
	s := a.Session

	s.Lock()
	title := s.Title
	if s.Name != "" {
		title = s.Name
	}
	statusBell := s.StatusBell
	exited := s.ProcessExited
	exitCode := s.ExitCode
	inCopyMode := s.CopyMode != nil && s.CopyMode.Active
	scrollOffset := 0
	if inCopyMode {
		scrollOffset = s.CopyMode.ScrollOffset
	}
	scrollbackLen := s.Terminal.ScrollbackLen()
	cur := s.Terminal.CursorPosition()
	s.Unlock()

	barStyle := overlayStyle(theme.StatusBarBg(), theme.StatusBarFg())
	black := lipgloss.Color("0")

	left := renderStyledText(overlayStyle(theme.StatusBarTitle(), black).Bold(true), " tinyvt ")
	left += renderStyledText(barStyle, " "+title+" ")

	if inCopyMode {
		indicator := " COPY "
		if scrollOffset > 0 {
			indicator = fmt.Sprintf(" COPY %d/%d ", scrollOffset, scrollbackLen)
		}
		left += renderStyledText(overlayStyle(theme.StatusBarCopyMode(), black).Bold(true), indicator)
	}
	if statusBell {
		left += renderStyledText(overlayStyle(theme.StatusBarBell(), black), " BEL ")
	}
	if exited {
		left += renderStyledText(overlayStyle(theme.NotificationError(), black).Bold(true),
			fmt.Sprintf(" exited (%d) ", exitCode))
	}

	var right string
	if n := len(a.Notifications); n > 0 {
		notif := a.Notifications[n-1]
		right = renderStyledText(
			overlayStyle(theme.StatusBarBg(), a.notificationColor(notif.Type)).Bold(true),
			" "+notif.Message+" ")
	} else {
		var parts []string
		if !a.IsSSHMode {
			// Host stats describe the server, not the remote client.
			parts = append(parts, a.CPUGraph(), fmt.Sprintf("RAM:%3.0f%%", a.RAMUsage))
		}
		if a.ChildName != "" {
			parts = append(parts, fmt.Sprintf("%s %.0f%% %s", a.ChildName, a.ChildCPU, FormatBytes(a.ChildRSS)))
		}
		parts = append(parts, fmt.Sprintf("%d:%d", cur.Y+1, cur.X+1))
		right = renderStyledText(overlayStyle(theme.StatusBarBg(), theme.StatusBarAccent()),
			" "+strings.Join(parts, " | ")+" ")
	}

	gap := a.Width - ansi.StringWidth(left) - ansi.StringWidth(right)
	if gap < 0 {
		right = ""
		left = ansi.Truncate(left, a.Width, "")
		gap = max(a.Width-ansi.StringWidth(left), 0)
	}

	return left + renderStyledText(barStyle, strings.Repeat(" ", gap)) + right
}

// notificationColor maps a notification type to its accent color.
func (a *App) notificationColor(notifType string) color.Color {
	switch notifType {
	case "error":
		return theme.NotificationError()
	case "success":
		return theme.NotificationSuccess()
	case "warning":
		return theme.StatusBarBell()
	default:
		return theme.NotificationInfo()
	}
}

// renderHelp draws the fullscreen keybinding reference.
func (a *App) renderHelp() string {
	sections := config.GetKeybindings(a.KeybindRegistry)

	keyStyle := lipgloss.NewStyle().Foreground(theme.HelpKeyBadge()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.HelpGray())
	titleStyle := lipgloss.NewStyle().Foreground(theme.StatusBarTitle()).Bold(true)

	var lines []string
	lines = append(lines, renderStyledText(titleStyle, " tinyvt keybindings "), "")
	for _, section := range sections {
		lines = append(lines, renderStyledText(titleStyle, section.Title))
		for _, b := range section.Bindings {
			lines = append(lines, "  "+renderStyledText(keyStyle, fmt.Sprintf("%-22s", b.Key))+" "+b.Description)
		}
		lines = append(lines, "")
	}
	lines = append(lines, renderStyledText(dimStyle, "press ? or esc to close, j/k to scroll"))

	visible := max(a.Height-1, 1)
	maxScroll := max(len(lines)-visible, 0)
	a.HelpScroll = min(max(a.HelpScroll, 0), maxScroll)
	end := min(a.HelpScroll+visible, len(lines))

	builder := pool.GetStringBuilder()
	defer pool.PutStringBuilder(builder)
	for i, line := range lines[a.HelpScroll:end] {
		if i > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(ansi.Truncate(line, a.Width, ""))
	}
	return builder.String()
}
