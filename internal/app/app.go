// Package app provides the tinyvt application model: a single terminal
// session rendered fullscreen, with a status bar, copy mode and
// notifications layered on top.
package app

import (
	"io"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
	"github.com/Gaurav-Gosain/tinyvt/internal/theme"
	"github.com/google/uuid"
)

// App is the bubbletea model. It owns one session and the chrome around
// it.
type App struct {
	Session *terminal.Session

	// Host terminal dimensions
	Width  int
	Height int

	ShowStatusBar bool
	ShowHelp      bool
	HelpScroll    int

	Config          *config.UserConfig
	KeybindRegistry *config.KeybindRegistry

	Notifications []Notification

	// ClipboardContent caches the last host clipboard read, so a paste
	// that raced the async read can still complete.
	ClipboardContent string

	// ExitChan receives the session ID when the child process exits.
	ExitChan chan string

	// BellSink is where audible bells go: the host stdout locally, the
	// ssh channel when serving remote sessions.
	BellSink io.Writer

	IsSSHMode bool

	// KeyboardEnhancementsEnabled is set when the host terminal
	// supports the kitty keyboard protocol.
	KeyboardEnhancementsEnabled bool

	// InteractionMode drops the tick rate while the user is dragging a
	// selection.
	InteractionMode bool

	// Host and child process stats for the status bar
	CPUHistory      []float64
	RAMUsage        float64
	ChildName       string
	ChildCPU        float64
	ChildRSS        uint64
	LastStatsUpdate time.Time

	quitting bool
}

// Notification is a transient status message overlaid on the screen.
type Notification struct {
	ID        string
	Message   string
	Type      string // "info", "success", "warning", "error"
	StartTime time.Time
	Duration  time.Duration
}

// New builds the application model around an existing session.
func New(session *terminal.Session, cfg *config.UserConfig, registry *config.KeybindRegistry, exitChan chan string) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if registry == nil {
		registry = config.NewKeybindRegistry(cfg)
	}
	return &App{
		Session:         session,
		ShowStatusBar:   cfg.Appearance.StatusBar,
		Config:          cfg,
		KeybindRegistry: registry,
		ExitChan:        exitChan,
		BellSink:        os.Stdout,
	}
}

func createID() string {
	return uuid.New().String()
}

// Quit tears down the session and stops the program. Closing here
// rather than after Run returns means remote front-ends that own the
// program loop cannot leak the child process.
func (a *App) Quit() (tea.Model, tea.Cmd) {
	a.quitting = true
	if a.Session != nil {
		a.Session.Close()
	}
	return a, tea.Quit
}

// ShowNotification queues a transient message. Type selects the accent
// color: "info", "success", "warning" or "error".
func (a *App) ShowNotification(message, notifType string, duration time.Duration) {
	a.Notifications = append(a.Notifications, Notification{
		ID:        createID(),
		Message:   message,
		Type:      notifType,
		StartTime: time.Now(),
		Duration:  duration,
	})
}

// CleanupNotifications removes expired notifications.
func (a *App) CleanupNotifications() {
	now := time.Now()
	var active []Notification
	for _, notif := range a.Notifications {
		if now.Sub(notif.StartTime) < notif.Duration {
			active = append(active, notif)
		}
	}
	a.Notifications = active
}

// TerminalHeight is the number of rows the session gets: everything
// except the status bar.
func (a *App) TerminalHeight() int {
	h := a.Height
	if a.ShowStatusBar {
		h -= config.StatusBarHeight
	}
	return max(h, 1)
}

// ResizeSession propagates the current layout to the session.
func (a *App) ResizeSession() {
	if a.Session == nil {
		return
	}
	a.Session.Resize(max(a.Width, 1), a.TerminalHeight())
}

// ToggleStatusBar flips status bar visibility and re-fits the session.
func (a *App) ToggleStatusBar() {
	a.ShowStatusBar = !a.ShowStatusBar
	a.ResizeSession()
}

// ApplyConfig installs a freshly loaded configuration: keybindings,
// theme, appearance and status bar visibility. Called from the config
// file watcher.
func (a *App) ApplyConfig(cfg *config.UserConfig) {
	a.Config = cfg
	a.KeybindRegistry = config.NewKeybindRegistry(cfg)
	_ = theme.Initialize(cfg.Appearance.Theme)
	if a.ShowStatusBar != cfg.Appearance.StatusBar {
		a.ToggleStatusBar()
	}
	if a.Session != nil {
		a.Session.ReloadAppearance(cfg)
	}
}
