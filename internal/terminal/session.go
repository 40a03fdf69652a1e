// Package terminal manages the lifecycle of a terminal session: the child
// process on its PTY, the emulator that interprets its output, and the
// interactive state layered on top (copy mode, selection, search).
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	log "charm.land/log/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/pool"
	"github.com/Gaurav-Gosain/tinyvt/internal/theme"
	"github.com/Gaurav-Gosain/tinyvt/internal/vt"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/xpty"
)

// CopyModeState represents the current state of copy mode
type CopyModeState int

const (
	// CopyModeNormal is navigation mode (vim normal mode)
	CopyModeNormal CopyModeState = iota
	// CopyModeSearch is search input mode (after / or ?)
	CopyModeSearch
	// CopyModeVisualChar is character-wise visual selection
	CopyModeVisualChar
	// CopyModeVisualLine is line-wise visual selection
	CopyModeVisualLine
)

// CopyMode holds the state for vim-style copy mode. The cursor is
// viewport-relative; the selection itself lives in the emulator in
// buffer-absolute coordinates.
type CopyMode struct {
	Active bool
	State  CopyModeState

	// Cursor position relative to the viewport
	CursorX int
	CursorY int

	// ScrollOffset is how many lines the viewport is scrolled back
	ScrollOffset int

	// VisualAnchor is where visual selection started (buffer-absolute)
	VisualAnchor vt.Position

	// Search state
	SearchQuery    string
	SearchBackward bool // true for ? (backward), false for / (forward)
	Matches        []vt.SearchMatch
	CurrentMatch   int

	// Count prefix (e.g. 10j moves down 10 times)
	PendingCount int
}

// Session is one terminal session: a child process attached to a PTY
// whose output drives a vt.Emulator.
type Session struct {
	ID          string
	Name        string // user-assigned session name
	Title       string // window title, updated by the application via OSC
	StaticTitle bool   // keep the title fixed, ignoring OSC updates

	Width  int // emulator columns
	Height int // emulator rows

	Terminal *vt.Emulator
	Pty      xpty.Pty
	Cmd      *exec.Cmd

	// Render cache
	ContentDirty  bool
	CachedContent string

	// Bell state: StatusBell shows in the status bar until the next
	// keystroke, FlashUntil inverts the screen for the visible bell.
	StatusBell   bool
	FlashUntil   time.Time
	BellAudible  bool // ring the host bell on BEL
	BellVisible  bool // flash the screen on BEL
	PendingBell  bool // audible bell waiting for the host
	pendingPaste []string

	// Mouse selection state
	Selecting    bool
	SelectAnchor vt.Position
	LastClick    time.Time
	LastClickPos vt.Position
	ClickCount   int

	CopyMode *CopyMode

	ProcessExited bool
	ExitCode      int
	KeepOpen      bool // stay open after the child exits

	// Copy mode search defaults
	WrapSearch       bool // wrap past either end of the buffer
	SearchIgnoreCase bool // lower-case both sides before matching

	termMu     sync.Mutex   // guards Terminal and the fields above it mutates
	ioMu       sync.RWMutex // guards Pty and Cmd against Close
	cancelFunc context.CancelFunc
}

// Options configures a new session.
type Options struct {
	ID          string
	Name        string
	Title       string
	StaticTitle bool     // keep Title fixed, ignoring OSC updates
	Command     []string // argv; empty means the configured shell
	Dir         string
	Width       int
	Height      int
	Config      *config.UserConfig
	KeepOpen    bool
	ExitChan    chan string
}

// NewSession spawns the child process on a fresh PTY and starts the
// output reader. Returns nil if the PTY or process cannot be created.
func NewSession(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	width := max(opts.Width, 1)
	height := max(opts.Height, 1)

	emulator := vt.NewEmulator(buildEmulatorConfig(cfg, width, height))

	argv := opts.Command
	if len(argv) == 0 {
		argv = []string{detectShell(cfg.Terminal.Shell)}
	}

	title := opts.Title
	if title == "" {
		title = filepath.Base(argv[0])
	}

	s := &Session{
		ID:               opts.ID,
		Name:             opts.Name,
		Title:            title,
		StaticTitle:      opts.StaticTitle,
		Width:            width,
		Height:           height,
		Terminal:         emulator,
		ContentDirty:     true,
		BellAudible:      cfg.Bell.Audible,
		BellVisible:      cfg.Bell.Visible,
		KeepOpen:         opts.KeepOpen,
		WrapSearch:       cfg.Search.WrapAround,
		SearchIgnoreCase: cfg.Search.IgnoreCase,
	}

	// #nosec G204 - the command is intentionally user-controlled
	cmd := exec.Command(argv[0], argv[1:]...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	termType, colorTerm := getTerminalEnv(cfg.Terminal.Term)
	env := append(os.Environ(), "TERM="+termType, "TINYVT_SESSION="+opts.ID)
	if colorTerm != "" {
		env = append(env, "COLORTERM="+colorTerm)
	}
	cmd.Env = env

	ptyInstance, err := xpty.NewPty(width, height)
	if err != nil {
		log.Error("failed to allocate PTY", "error", err)
		return nil
	}

	configurePTYCommand(cmd)

	if err := ptyInstance.Start(cmd); err != nil {
		log.Error("failed to start child process", "command", argv[0], "error", err)
		_ = ptyInstance.Close()
		return nil
	}

	// Some PTY implementations only accept a resize once the process
	// is running.
	_ = ptyInstance.Resize(width, height)

	ctx, cancel := context.WithCancel(context.Background())
	s.Pty = ptyInstance
	s.Cmd = cmd
	s.cancelFunc = cancel

	s.readLoop(ctx)

	// Monitor process lifecycle
	go func() {
		defer func() {
			if r := recover(); r != nil {
				_ = r
			}
		}()

		_ = xpty.WaitProcess(ctx, cmd)

		s.termMu.Lock()
		s.ProcessExited = true
		if cmd.ProcessState != nil {
			s.ExitCode = cmd.ProcessState.ExitCode()
		}
		s.ContentDirty = true
		exitCode := s.ExitCode
		s.termMu.Unlock()

		log.Debug("child process exited", "session", s.ID, "code", exitCode)

		cancel()

		// Give the reader a moment to drain final output
		time.Sleep(config.ProcessWaitDelay)

		if opts.ExitChan != nil {
			select {
			case opts.ExitChan <- s.ID:
			case <-ctx.Done():
			default:
			}
		}
	}()

	return s
}

// buildEmulatorConfig maps the user configuration onto the emulator's,
// layering config file colors over the active theme.
func buildEmulatorConfig(cfg *config.UserConfig, width, height int) vt.Config {
	vtCfg := vt.DefaultConfig()
	vtCfg.Cols = width
	vtCfg.Rows = height
	vtCfg.ScrollbackLines = cfg.Terminal.ScrollbackLines
	vtCfg.Autowrap = cfg.Terminal.Autowrap
	if cfg.Terminal.WordChars != "" {
		vtCfg.WordChars = cfg.Terminal.WordChars
	}
	if cfg.Terminal.TabWidth > 0 {
		vtCfg.TabWidth = cfg.Terminal.TabWidth
	}

	vtCfg.Foreground = theme.Override(cfg.Appearance.Foreground, theme.TerminalFg())
	vtCfg.Background = theme.Override(cfg.Appearance.Background, theme.TerminalBg())
	vtCfg.Cursor = theme.Override(cfg.Appearance.CursorColor, theme.TerminalCursor())

	palette := theme.GetANSIPalette()
	for i, hex := range cfg.Appearance.Palette {
		if i >= len(palette) {
			break
		}
		palette[i] = theme.Override(hex, palette[i])
	}
	vtCfg.ANSI = palette

	switch cfg.Appearance.CursorShape {
	case "underline":
		vtCfg.CursorShape = vt.CursorUnderline
	case "bar":
		vtCfg.CursorShape = vt.CursorBar
	default:
		vtCfg.CursorShape = vt.CursorBlock
	}
	vtCfg.CursorBlink = cfg.Appearance.CursorBlink
	vtCfg.AudibleBell = cfg.Bell.Audible
	vtCfg.VisibleBell = cfg.Bell.Visible

	return vtCfg
}

// readLoop pumps PTY output into the emulator and dispatches the events
// each chunk produces. Responses (DSR, DA, DECRQM and friends) go straight
// back to the PTY, so replies always reflect the state that produced them.
func (s *Session) readLoop(ctx context.Context) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				_ = r
			}
		}()

		bufPtr := pool.GetByteSlice()
		buf := *bufPtr
		defer pool.PutByteSlice(bufPtr)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				s.ioMu.RLock()
				pty := s.Pty
				s.ioMu.RUnlock()
				if pty == nil {
					return
				}

				n, err := pty.Read(buf)
				if err != nil {
					if err != io.EOF && !strings.Contains(err.Error(), "file already closed") &&
						!strings.Contains(err.Error(), "input/output error") {
						// Log unexpected errors for debugging
						_ = err
					}
					return
				}
				if n > 0 {
					s.termMu.Lock()
					events := s.Terminal.Feed(buf[:n])
					s.ContentDirty = true
					s.termMu.Unlock()
					s.dispatchEvents(events)
				}
			}
		}
	}()
}

// dispatchEvents acts on the events one Feed produced.
func (s *Session) dispatchEvents(events []vt.Event) {
	for _, ev := range events {
		switch ev := ev.(type) {
		case vt.ResponseEvent:
			s.ioMu.RLock()
			if s.Pty != nil {
				_, _ = s.Pty.Write(ev.Data)
			}
			s.ioMu.RUnlock()
		case vt.TitleEvent:
			s.termMu.Lock()
			if !s.StaticTitle {
				s.Title = ev.Title
			}
			s.termMu.Unlock()
		case vt.IconNameEvent:
			// Icon names have no home in a fullscreen TUI; the title
			// already covers the status bar.
		case vt.BellEvent:
			s.termMu.Lock()
			s.StatusBell = true
			if s.BellAudible {
				s.PendingBell = true
			}
			if s.BellVisible {
				s.FlashUntil = time.Now().Add(config.BellFlashDuration)
			}
			s.termMu.Unlock()
		case vt.ClipboardEvent:
			s.termMu.Lock()
			s.pendingPaste = append(s.pendingPaste, ev.Text)
			s.termMu.Unlock()
		}
	}
}

// Lock acquires the terminal mutex. Hold it while reading emulator state
// so the reader goroutine cannot mutate the grid mid-snapshot.
func (s *Session) Lock() { s.termMu.Lock() }

// Unlock releases the terminal mutex.
func (s *Session) Unlock() { s.termMu.Unlock() }

// TakeClipboard returns and clears any clipboard text the child set via
// OSC 52, oldest first.
func (s *Session) TakeClipboard() []string {
	s.termMu.Lock()
	defer s.termMu.Unlock()
	texts := s.pendingPaste
	s.pendingPaste = nil
	return texts
}

// TakeBell reports and clears a pending audible bell.
func (s *Session) TakeBell() bool {
	s.termMu.Lock()
	defer s.termMu.Unlock()
	pending := s.PendingBell
	s.PendingBell = false
	return pending
}

// FlashActive reports whether the visible bell flash is still showing.
func (s *Session) FlashActive() bool {
	s.termMu.Lock()
	defer s.termMu.Unlock()
	return time.Now().Before(s.FlashUntil)
}

// Resize resizes the emulator and the PTY.
func (s *Session) Resize(width, height int) {
	if s.Terminal == nil {
		return
	}

	width = max(width, 1)
	height = max(height, 1)
	sizeChanged := s.Width != width || s.Height != height

	s.termMu.Lock()
	s.Terminal.Resize(height, width)
	s.Width = width
	s.Height = height
	s.ContentDirty = true
	s.termMu.Unlock()

	s.ioMu.RLock()
	if s.Pty != nil {
		if err := s.Pty.Resize(width, height); err != nil {
			// Not fatal, the emulator side is already resized
			_ = err
		}
	}
	s.ioMu.RUnlock()

	if sizeChanged && s.Pty != nil {
		s.TriggerRedraw()
	}
}

// Close tears down the PTY, the child process, and the reader.
func (s *Session) Close() {
	if s == nil {
		return
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
		s.cancelFunc = nil
	}

	s.ioMu.Lock()

	if s.Pty != nil {
		_ = s.Pty.Close()
		s.Pty = nil
	}

	// Kill the process with a timeout so a wedged child cannot hang
	// shutdown.
	if s.Cmd != nil && s.Cmd.Process != nil {
		cmd := s.Cmd
		done := make(chan bool, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					_ = r
				}
			}()
			_ = cmd.Process.Kill()
			_ = cmd.Wait()
			done <- true
		}()

		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
		}
		s.Cmd = nil
	}

	s.ioMu.Unlock()

	s.termMu.Lock()
	s.CachedContent = ""
	s.CopyMode = nil
	s.termMu.Unlock()
}

// SendInput writes input bytes to the child's PTY.
func (s *Session) SendInput(input []byte) error {
	if s == nil {
		return fmt.Errorf("session is nil")
	}

	s.ioMu.RLock()
	defer s.ioMu.RUnlock()

	if s.Pty == nil {
		return fmt.Errorf("no PTY available")
	}

	n, err := s.Pty.Write(input)
	if err != nil {
		return fmt.Errorf("failed to write to PTY: %w", err)
	}
	if n < len(input) {
		return fmt.Errorf("partial write to PTY: wrote %d of %d bytes", n, len(input))
	}
	return nil
}

// Paste sends pasted text to the child, wrapped in bracketed paste
// markers when the child has enabled them.
func (s *Session) Paste(text string) error {
	s.termMu.Lock()
	bracketed := s.Terminal.BracketedPaste()
	s.termMu.Unlock()

	if bracketed {
		return s.SendInput([]byte("\x1b[200~" + text + "\x1b[201~"))
	}
	return s.SendInput([]byte(text))
}

// MarkContentDirty flags the session for re-rendering.
func (s *Session) MarkContentDirty() {
	s.termMu.Lock()
	s.ContentDirty = true
	s.termMu.Unlock()
}

// DisplayTitle is what the status bar shows: the session name when set,
// otherwise the window title.
func (s *Session) DisplayTitle() string {
	s.termMu.Lock()
	defer s.termMu.Unlock()
	if s.Name != "" {
		return s.Name
	}
	return s.Title
}

// EnterCopyMode activates copy mode with the cursor on the current
// cursor row. Caller must hold the terminal lock.
func (s *Session) EnterCopyMode() {
	if s.CopyMode == nil {
		s.CopyMode = &CopyMode{}
	}
	cm := s.CopyMode
	cm.Active = true
	cm.State = CopyModeNormal
	pos := s.Terminal.CursorPosition()
	cm.CursorX = pos.X
	cm.CursorY = pos.Y
	cm.ScrollOffset = 0
	cm.PendingCount = 0
	s.ContentDirty = true
}

// ExitCopyMode leaves copy mode and clears selection and search
// highlights. Caller must hold the terminal lock.
func (s *Session) ExitCopyMode() {
	if s.CopyMode == nil {
		return
	}
	s.CopyMode.Active = false
	s.CopyMode.SearchQuery = ""
	s.CopyMode.Matches = nil
	s.CopyMode.ScrollOffset = 0
	s.Terminal.ClearSelection()
	s.ContentDirty = true
}

// InCopyMode reports whether copy mode is active.
func (s *Session) InCopyMode() bool {
	s.termMu.Lock()
	defer s.termMu.Unlock()
	return s.CopyMode != nil && s.CopyMode.Active
}

// detectShell picks the shell to run: the configured one, then $SHELL,
// then well-known paths.
func detectShell(configured string) string {
	if configured != "" {
		return configured
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	if runtime.GOOS == "windows" {
		shells := []string{"powershell.exe", "pwsh.exe", "cmd.exe"}
		for _, shell := range shells {
			if _, err := exec.LookPath(shell); err == nil {
				return shell
			}
		}
		return "cmd.exe"
	}

	shells := []string{"/bin/bash", "/bin/zsh", "/bin/fish", "/bin/sh"}
	for _, shell := range shells {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

var (
	localEnvOnce   sync.Once
	localTermType  string
	localColorTerm string
)

// getTerminalEnv returns TERM and COLORTERM values for child processes.
// An explicit config value wins; otherwise the host terminal's
// capabilities are detected once and cached.
func getTerminalEnv(configured string) (termType, colorTerm string) {
	if configured != "" {
		return configured, os.Getenv("COLORTERM")
	}

	localEnvOnce.Do(func() {
		// colorprofile handles TERM, COLORTERM, NO_COLOR, CLICOLOR and
		// tmux detection in one place.
		profile := colorprofile.Detect(os.Stdout, os.Environ())
		localTermType, localColorTerm = profileToEnv(profile)
	})
	return localTermType, localColorTerm
}

// profileToEnv converts a colorprofile.Profile to TERM and COLORTERM
// values. colorTerm may be empty.
func profileToEnv(profile colorprofile.Profile) (termType, colorTerm string) {
	parentTerm := os.Getenv("TERM")

	switch profile {
	case colorprofile.TrueColor:
		// Preserve a parent TERM that already advertises the right
		// capabilities, otherwise upgrade.
		if parentTerm != "" && (strings.Contains(parentTerm, "256color") ||
			strings.Contains(parentTerm, "truecolor") ||
			parentTerm == "xterm-direct" ||
			parentTerm == "alacritty" ||
			parentTerm == "kitty" ||
			strings.HasPrefix(parentTerm, "kitty-")) {
			termType = parentTerm
		} else {
			termType = "xterm-256color"
		}
		colorTerm = "truecolor"

	case colorprofile.ANSI256:
		if parentTerm != "" && strings.Contains(parentTerm, "256color") {
			termType = parentTerm
		} else if strings.HasPrefix(parentTerm, "screen") {
			termType = "screen-256color"
		} else if strings.HasPrefix(parentTerm, "tmux") {
			termType = "tmux-256color"
		} else {
			termType = "xterm-256color"
		}
		colorTerm = ""

	case colorprofile.ANSI:
		if parentTerm != "" && parentTerm != "dumb" {
			termType = parentTerm
		} else {
			termType = "xterm"
		}
		colorTerm = ""

	case colorprofile.Ascii, colorprofile.NoTTY:
		termType = "dumb"
		colorTerm = ""

	default:
		termType = "xterm-256color"
		colorTerm = ""
	}

	return termType, colorTerm
}

// ReloadAppearance re-applies theme and config colors to a running
// session. Used when the config file changes on disk.
func (s *Session) ReloadAppearance(cfg *config.UserConfig) {
	s.termMu.Lock()
	defer s.termMu.Unlock()

	fg := theme.Override(cfg.Appearance.Foreground, theme.TerminalFg())
	bg := theme.Override(cfg.Appearance.Background, theme.TerminalBg())
	cursor := theme.Override(cfg.Appearance.CursorColor, theme.TerminalCursor())

	palette := theme.GetANSIPalette()
	for i, hex := range cfg.Appearance.Palette {
		if i >= len(palette) {
			break
		}
		palette[i] = theme.Override(hex, palette[i])
	}
	s.Terminal.SetThemeColors(fg, bg, cursor, palette)

	s.Terminal.SetScrollbackMaxLines(cfg.Terminal.ScrollbackLines)
	s.BellAudible = cfg.Bell.Audible
	s.BellVisible = cfg.Bell.Visible
	s.WrapSearch = cfg.Search.WrapAround
	s.SearchIgnoreCase = cfg.Search.IgnoreCase
	s.ContentDirty = true
}
