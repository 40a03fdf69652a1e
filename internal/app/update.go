package app

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
)

// TickerMsg is the periodic tick driving terminal content updates.
type TickerMsg time.Time

// SessionExitMsg signals that the child process has exited.
type SessionExitMsg struct {
	SessionID string
}

// ConfigReloadedMsg carries a freshly loaded configuration from the
// file watcher.
type ConfigReloadedMsg struct {
	Config *config.UserConfig
}

// InputHandler handles input messages. The input package registers its
// handler at startup, which keeps app free of a circular dependency on
// it.
type InputHandler func(msg tea.Msg, a *App) (tea.Model, tea.Cmd)

var inputHandler InputHandler

// SetInputHandler registers the input handler. Must be called before
// the program starts.
func SetInputHandler(handler InputHandler) {
	inputHandler = handler
}

// Init starts the tick loop and the exit listener.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		TickCmd(),
		ListenForSessionExit(a.ExitChan),
	)
}

// ListenForSessionExit waits for the child process to exit.
func ListenForSessionExit(exitChan chan string) tea.Cmd {
	return func() tea.Msg {
		sessionID, ok := <-exitChan
		if !ok {
			return nil
		}
		return SessionExitMsg{SessionID: sessionID}
	}
}

// TickCmd generates tick messages at the normal frame rate.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second/config.NormalFPS, func(t time.Time) tea.Msg {
		return TickerMsg(t)
	})
}

// SlowTickCmd generates tick messages at the reduced rate used while
// the user is dragging a selection.
func SlowTickCmd() tea.Cmd {
	return tea.Tick(time.Second/config.InteractionFPS, func(t time.Time) tea.Msg {
		return TickerMsg(t)
	})
}

// Update handles all incoming messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TickerMsg:
		return a.handleTick()

	case SessionExitMsg:
		if a.Session == nil || msg.SessionID != a.Session.ID {
			return a, ListenForSessionExit(a.ExitChan)
		}
		if a.Session.KeepOpen {
			// Keep the final screen visible; any key quits.
			a.Session.MarkContentDirty()
			return a, ListenForSessionExit(a.ExitChan)
		}
		return a.Quit()

	case ConfigReloadedMsg:
		a.ApplyConfig(msg.Config)
		a.ShowNotification("Configuration reloaded", "success", config.NotificationDuration)
		return a, nil

	case tea.KeyPressMsg, tea.MouseClickMsg, tea.MouseMotionMsg,
		tea.MouseReleaseMsg, tea.MouseWheelMsg, tea.ClipboardMsg,
		tea.PasteMsg, tea.PasteStartMsg, tea.PasteEndMsg:
		if inputHandler != nil {
			return inputHandler(msg, a)
		}
		return a, nil

	case tea.WindowSizeMsg:
		a.Width = msg.Width
		a.Height = msg.Height
		a.ResizeSession()
		return a, nil

	case tea.MouseMsg:
		// Catch-all so unhandled mouse events don't leak
		return a, nil

	case tea.FocusMsg:
		a.forwardFocusEvent(true)
		return a, nil

	case tea.BlurMsg:
		a.forwardFocusEvent(false)
		return a, nil

	case tea.KeyboardEnhancementsMsg:
		a.KeyboardEnhancementsEnabled = msg.SupportsKeyDisambiguation()
		return a, nil
	}

	return a, nil
}

// handleTick runs the per-frame housekeeping: exit detection, stats,
// notifications, bells, and OSC 52 clipboard writes.
func (a *App) handleTick() (tea.Model, tea.Cmd) {
	if a.Session == nil {
		return a.Quit()
	}

	// Catch an exit even if the channel message was missed
	if a.Session.ProcessExited && !a.Session.KeepOpen {
		return a.Quit()
	}

	a.UpdateStats()
	a.CleanupNotifications()

	cmds := []tea.Cmd{}

	// Ring the host bell for any BEL the child sent since last tick
	if a.Session.TakeBell() && a.BellSink != nil {
		_, _ = a.BellSink.Write([]byte("\a"))
	}

	// The child can set the host clipboard via OSC 52
	for _, text := range a.Session.TakeClipboard() {
		cmds = append(cmds, tea.SetClipboard(text))
	}

	nextTick := TickCmd()
	if a.InteractionMode {
		nextTick = SlowTickCmd()
	}
	cmds = append(cmds, nextTick)

	if len(cmds) > 1 {
		return a, tea.Batch(cmds...)
	}
	return a, nextTick
}

// forwardFocusEvent passes host focus changes through to the child when
// it asked for focus reporting (mode 1004).
func (a *App) forwardFocusEvent(focused bool) {
	if a.Session == nil {
		return
	}
	a.Session.Lock()
	reporting := a.Session.Terminal.FocusReporting()
	a.Session.Unlock()
	if !reporting {
		return
	}
	if focused {
		_ = a.Session.SendInput([]byte("\x1b[I"))
	} else {
		_ = a.Session.SendInput([]byte("\x1b[O"))
	}
}
