package input

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/app"
)

// HandleInput routes input messages to the key, mouse and clipboard
// handlers. The app package calls it through the handler registered at
// startup.
func HandleInput(msg tea.Msg, a *app.App) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return handleKeyPress(msg, a)
	case tea.MouseClickMsg:
		return handleMouseClick(msg, a)
	case tea.MouseMotionMsg:
		return handleMouseMotion(msg, a)
	case tea.MouseReleaseMsg:
		return handleMouseRelease(msg, a)
	case tea.MouseWheelMsg:
		return handleMouseWheel(msg, a)
	case tea.PasteMsg:
		return handlePaste(msg, a)
	case tea.ClipboardMsg:
		return handleClipboard(msg, a)
	}
	return a, nil
}

// handleKeyPress sends a key to the overlay, copy mode, a configured
// action, or the child, in that order.
func handleKeyPress(msg tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	if s == nil {
		return a.Quit()
	}

	// A keystroke acknowledges the bell shown in the status bar.
	s.Lock()
	s.StatusBell = false
	exited := s.ProcessExited
	s.Unlock()

	// With keep-open, the child is gone and any key closes the app.
	if exited {
		return a.Quit()
	}

	if a.ShowHelp {
		return handleHelpKey(msg, a)
	}

	if s.InCopyMode() {
		return handleCopyModeKey(msg, a)
	}

	key := msg.String()
	if a.KeybindRegistry != nil {
		if action := a.KeybindRegistry.GetAction(key); action != "" {
			if dispatcher := GetDispatcher(); dispatcher.HasAction(action) {
				return dispatcher.Dispatch(action, msg, a)
			}
		}
	}

	// Everything else belongs to the child.
	s.Lock()
	appCursor := s.Terminal.CursorKeysApplication()
	s.Unlock()

	if raw := encodeKey(msg, appCursor); len(raw) > 0 {
		// A write error means the child is gone; the exit path will
		// close the app on the next tick.
		_ = s.SendInput(raw)
	}
	return a, nil
}

// handleHelpKey drives the help overlay: q, esc or ? closes it, j/k
// scroll.
func handleHelpKey(msg tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "esc", "q", "?":
		a.ShowHelp = false
		a.HelpScroll = 0
	case "j", "down":
		a.HelpScroll++
	case "k", "up":
		a.HelpScroll = max(a.HelpScroll-1, 0)
	default:
		// The toggle binding closes it too
		if a.KeybindRegistry != nil && a.KeybindRegistry.GetAction(key) == "toggle_help" {
			a.ShowHelp = false
			a.HelpScroll = 0
		}
	}
	return a, nil
}

// handlePaste forwards host bracketed paste to the child, which gets
// its own paste markers when it asked for them.
func handlePaste(msg tea.PasteMsg, a *app.App) (tea.Model, tea.Cmd) {
	if a.Session == nil {
		return a, nil
	}
	_ = a.Session.Paste(msg.Content)
	return a, nil
}

// handleClipboard completes an OSC 52 clipboard read by pasting the
// content into the child.
func handleClipboard(msg tea.ClipboardMsg, a *app.App) (tea.Model, tea.Cmd) {
	a.ClipboardContent = msg.Content
	if a.Session == nil || a.ClipboardContent == "" {
		return a, nil
	}
	_ = a.Session.Paste(a.ClipboardContent)
	return a, nil
}
