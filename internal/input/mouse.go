package input

import (
	"bytes"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/app"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
	"github.com/Gaurav-Gosain/tinyvt/internal/vt"
	"github.com/charmbracelet/x/ansi"
)

const (
	// wheelScrollLines is how many rows one wheel tick moves.
	wheelScrollLines = 3

	// multiClickWindow is the double/triple click detection window.
	multiClickWindow = 500 * time.Millisecond
)

// mouseEventKind distinguishes press, release and motion for encoding.
type mouseEventKind int

const (
	mousePress mouseEventKind = iota
	mouseRelease
	mouseMotion
)

// encodeMouseEvent translates a host mouse event into the escape
// sequence the child's reporting mode calls for, or nil when the mode
// excludes the event. Caller must hold the session lock.
func encodeMouseEvent(em *vt.Emulator, m tea.Mouse, kind mouseEventKind) []byte {
	mode, sgr := em.MouseReporting()
	if mode == vt.MouseOff {
		return nil
	}

	b := ansiMouseButton(m.Button)
	wheel := b == ansi.MouseWheelUp || b == ansi.MouseWheelDown

	switch kind {
	case mousePress:
		if b == ansi.MouseNone {
			return nil
		}
	case mouseRelease:
		// X10 tracking is press-only, and wheel ticks have no release.
		if mode == vt.MouseX10 || wheel || b == ansi.MouseNone {
			return nil
		}
	case mouseMotion:
		if mode == vt.MouseX10 || mode == vt.MouseNormal {
			return nil
		}
		// Button-event tracking (1002) wants motion only while a
		// button is held; any-event tracking (1003) wants it all.
		if mode == vt.MouseButton && b == ansi.MouseNone {
			return nil
		}
	}

	shift := m.Mod&tea.ModShift != 0
	alt := m.Mod&tea.ModAlt != 0
	ctrl := m.Mod&tea.ModCtrl != 0
	if mode == vt.MouseX10 {
		// X10 tracking predates modifier reporting
		shift, alt, ctrl = false, false, false
	}

	if sgr {
		code := ansi.EncodeMouseButton(b, kind == mouseMotion, shift, alt, ctrl)
		return []byte(ansi.MouseSgr(code, m.X, m.Y, kind == mouseRelease))
	}

	// Legacy encoding stores coordinates in single bytes.
	if m.X > 222 || m.Y > 222 {
		return nil
	}
	if kind == mouseRelease {
		// Legacy encoding reports every release as button 3
		b = ansi.MouseNone
	}
	code := ansi.EncodeMouseButton(b, kind == mouseMotion, shift, alt, ctrl)
	return []byte(ansi.MouseX10(code, m.X, m.Y))
}

// ansiMouseButton maps a bubbletea button onto the x/ansi code space.
func ansiMouseButton(b tea.MouseButton) ansi.MouseButton {
	switch b {
	case tea.MouseLeft:
		return ansi.MouseLeft
	case tea.MouseMiddle:
		return ansi.MouseMiddle
	case tea.MouseRight:
		return ansi.MouseRight
	case tea.MouseWheelUp:
		return ansi.MouseWheelUp
	case tea.MouseWheelDown:
		return ansi.MouseWheelDown
	default:
		return ansi.MouseNone
	}
}

// handleMouseClick forwards the press to the child when it is tracking
// the mouse; otherwise the click starts a selection, with double and
// triple clicks widening it to word and line.
func handleMouseClick(msg tea.MouseClickMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	if s == nil {
		return a, nil
	}
	mouse := msg.Mouse()
	if mouse.Y >= a.TerminalHeight() {
		// Status bar row
		return a, nil
	}

	if s.InCopyMode() {
		return copyModeMouseClick(mouse, a)
	}

	s.Lock()
	if raw := encodeMouseEvent(s.Terminal, mouse, mousePress); raw != nil {
		s.Unlock()
		_ = s.SendInput(raw)
		return a, nil
	}

	if mouse.Button == tea.MouseMiddle {
		// Middle click pastes, terminal tradition
		s.Unlock()
		return a, tea.ReadClipboard
	}
	if mouse.Button != tea.MouseLeft {
		s.Unlock()
		return a, nil
	}

	now := time.Now()
	pos := vt.Position{X: mouse.X, Y: s.Terminal.ScrollbackLen() + mouse.Y}
	if now.Sub(s.LastClick) < multiClickWindow && pos == s.LastClickPos {
		s.ClickCount++
	} else {
		s.ClickCount = 1
	}
	s.LastClick = now
	s.LastClickPos = pos

	var clip tea.Cmd
	switch s.ClickCount {
	case 2:
		s.Terminal.SelectWord(pos)
		s.Selecting = false
		if text := s.Terminal.SelectedText(); text != "" {
			clip = tea.SetClipboard(text)
		}
	case 3:
		s.Terminal.SelectLine(pos)
		s.Selecting = false
		s.ClickCount = 0
		if text := s.Terminal.SelectedText(); text != "" {
			clip = tea.SetClipboard(text)
		}
	default:
		s.Terminal.ClearSelection()
		s.Selecting = true
		s.SelectAnchor = pos
	}
	s.ContentDirty = true
	a.InteractionMode = s.Selecting
	s.Unlock()
	return a, clip
}

// handleMouseMotion extends an in-progress selection, or forwards the
// motion when the child asked for it.
func handleMouseMotion(msg tea.MouseMotionMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	if s == nil {
		return a, nil
	}
	mouse := msg.Mouse()

	if s.InCopyMode() {
		return copyModeMouseDrag(mouse, a)
	}

	s.Lock()
	if raw := encodeMouseEvent(s.Terminal, mouse, mouseMotion); raw != nil {
		s.Unlock()
		_ = s.SendInput(raw)
		return a, nil
	}

	if s.Selecting && mouse.Button == tea.MouseLeft {
		y := min(mouse.Y, a.TerminalHeight()-1)
		end := vt.Position{X: mouse.X, Y: s.Terminal.ScrollbackLen() + y}
		s.Terminal.SetSelection(s.SelectAnchor, end)
		s.ContentDirty = true
	}
	s.Unlock()
	return a, nil
}

// handleMouseRelease completes a drag selection and copies it to the
// host clipboard via OSC 52.
func handleMouseRelease(msg tea.MouseReleaseMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	if s == nil {
		return a, nil
	}
	mouse := msg.Mouse()

	if s.InCopyMode() {
		return a, nil
	}

	s.Lock()
	if raw := encodeMouseEvent(s.Terminal, mouse, mouseRelease); raw != nil {
		s.Unlock()
		_ = s.SendInput(raw)
		return a, nil
	}

	var clip tea.Cmd
	if s.Selecting {
		s.Selecting = false
		a.InteractionMode = false
		if text := s.Terminal.SelectedText(); text != "" {
			clip = tea.SetClipboard(text)
		}
	}
	s.Unlock()
	return a, clip
}

// handleMouseWheel forwards wheel ticks when the child tracks the
// mouse. Otherwise alternate screen apps get arrow keys (the
// alternateScroll fallback) and the primary screen scrolls into copy
// mode.
func handleMouseWheel(msg tea.MouseWheelMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	if s == nil {
		return a, nil
	}
	mouse := msg.Mouse()
	if mouse.Button != tea.MouseWheelUp && mouse.Button != tea.MouseWheelDown {
		return a, nil
	}

	if s.InCopyMode() {
		return copyModeMouseWheel(mouse, a)
	}

	s.Lock()
	if raw := encodeMouseEvent(s.Terminal, mouse, mousePress); raw != nil {
		s.Unlock()
		_ = s.SendInput(raw)
		return a, nil
	}

	if s.Terminal.AltScreenActive() {
		final := byte('A')
		if mouse.Button == tea.MouseWheelDown {
			final = 'B'
		}
		intro := byte('[')
		if s.Terminal.CursorKeysApplication() {
			intro = 'O'
		}
		s.Unlock()
		_ = s.SendInput(bytes.Repeat([]byte{0x1b, intro, final}, wheelScrollLines))
		return a, nil
	}

	if mouse.Button == tea.MouseWheelUp && s.Terminal.ScrollbackLen() > 0 {
		s.EnterCopyMode()
		s.CopyMode.ScrollOffset = min(wheelScrollLines, s.Terminal.ScrollbackLen())
		a.InteractionMode = true
	}
	s.Unlock()
	return a, nil
}

// copyModeMouseClick moves the copy mode cursor, dragging the selection
// along in visual state.
func copyModeMouseClick(mouse tea.Mouse, a *app.App) (tea.Model, tea.Cmd) {
	if mouse.Button != tea.MouseLeft {
		return a, nil
	}
	s := a.Session
	s.Lock()
	defer s.Unlock()
	cm := s.CopyMode
	if cm == nil {
		return a, nil
	}

	_, rows := viewport(s)
	cm.CursorX = min(mouse.X, s.Terminal.Width()-1)
	cm.CursorY = min(mouse.Y, rows-1)
	if cm.State == terminal.CopyModeVisualChar || cm.State == terminal.CopyModeVisualLine {
		updateVisualSelection(s, cm)
	}
	s.ContentDirty = true
	return a, nil
}

// copyModeMouseDrag starts a character-wise visual selection on the
// first drag and extends it afterwards.
func copyModeMouseDrag(mouse tea.Mouse, a *app.App) (tea.Model, tea.Cmd) {
	if mouse.Button != tea.MouseLeft {
		return a, nil
	}
	s := a.Session
	s.Lock()
	defer s.Unlock()
	cm := s.CopyMode
	if cm == nil {
		return a, nil
	}

	if cm.State == terminal.CopyModeNormal {
		cm.VisualAnchor = cursorAbs(s, cm)
		cm.State = terminal.CopyModeVisualChar
	}
	_, rows := viewport(s)
	cm.CursorX = min(mouse.X, s.Terminal.Width()-1)
	cm.CursorY = min(mouse.Y, rows-1)
	updateVisualSelection(s, cm)
	s.ContentDirty = true
	return a, nil
}

// copyModeMouseWheel scrolls the copy mode viewport. Scrolling down to
// the live screen leaves copy mode, matching the way it was entered.
func copyModeMouseWheel(mouse tea.Mouse, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	s.Lock()
	defer s.Unlock()
	cm := s.CopyMode
	if cm == nil {
		return a, nil
	}

	switch mouse.Button {
	case tea.MouseWheelUp:
		cm.ScrollOffset = min(cm.ScrollOffset+wheelScrollLines, s.Terminal.ScrollbackLen())
	case tea.MouseWheelDown:
		cm.ScrollOffset -= wheelScrollLines
		if cm.ScrollOffset <= 0 {
			cm.ScrollOffset = 0
			if cm.State == terminal.CopyModeNormal {
				s.ExitCopyMode()
				a.InteractionMode = false
				return a, nil
			}
		}
	default:
		return a, nil
	}

	if cm.State == terminal.CopyModeVisualChar || cm.State == terminal.CopyModeVisualLine {
		updateVisualSelection(s, cm)
	}
	s.ContentDirty = true
	return a, nil
}
