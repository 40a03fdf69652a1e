package input

import (
	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/app"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
)

// ActionHandler handles one configured session action.
type ActionHandler func(msg tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd)

// ActionDispatcher maps action names to their handlers, so keybindings
// stay data and the handlers stay small.
type ActionDispatcher struct {
	handlers map[string]ActionHandler
}

// NewActionDispatcher creates a dispatcher with all session actions
// registered.
func NewActionDispatcher() *ActionDispatcher {
	d := &ActionDispatcher{handlers: make(map[string]ActionHandler)}
	d.registerHandlers()
	return d
}

// Register adds a handler for an action name.
func (d *ActionDispatcher) Register(action string, handler ActionHandler) {
	d.handlers[action] = handler
}

// HasAction reports whether a handler is registered for the action.
func (d *ActionDispatcher) HasAction(action string) bool {
	_, ok := d.handlers[action]
	return ok
}

// Dispatch routes an action to its handler. Unknown actions are a
// no-op.
func (d *ActionDispatcher) Dispatch(action string, msg tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	if handler, ok := d.handlers[action]; ok {
		return handler(msg, a)
	}
	return a, nil
}

func (d *ActionDispatcher) registerHandlers() {
	d.Register("enter_copy_mode", handleEnterCopyMode)
	d.Register("search", handleSearchAction)
	d.Register("paste_clipboard", handlePasteClipboard)
	d.Register("clear_scrollback", handleClearScrollback)
	d.Register("toggle_statusbar", handleToggleStatusBar)
	d.Register("toggle_help", handleToggleHelp)
	d.Register("quit", handleQuit)
}

var globalDispatcher = NewActionDispatcher()

// GetDispatcher returns the process-wide action dispatcher.
func GetDispatcher() *ActionDispatcher {
	return globalDispatcher
}

// =============================================================================
// Session Action Handlers
// =============================================================================

func handleEnterCopyMode(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	s.Lock()
	s.EnterCopyMode()
	s.Unlock()
	a.InteractionMode = true
	return a, nil
}

// handleSearchAction opens copy mode straight into the forward search
// prompt.
func handleSearchAction(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	s.Lock()
	s.EnterCopyMode()
	openSearch(s, s.CopyMode, false)
	s.Unlock()
	a.InteractionMode = true
	return a, nil
}

// handlePasteClipboard requests the host clipboard via OSC 52; the
// resulting ClipboardMsg completes the paste.
func handlePasteClipboard(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	return a, tea.ReadClipboard
}

func handleClearScrollback(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	s := a.Session
	s.Lock()
	s.Terminal.ClearScrollback()
	s.ContentDirty = true
	s.Unlock()
	a.ShowNotification("Scrollback cleared", "info", config.NotificationDuration)
	return a, nil
}

func handleToggleStatusBar(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	a.ToggleStatusBar()
	return a, nil
}

func handleToggleHelp(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	a.ShowHelp = !a.ShowHelp
	a.HelpScroll = 0
	return a, nil
}

func handleQuit(_ tea.KeyPressMsg, a *app.App) (tea.Model, tea.Cmd) {
	return a.Quit()
}
