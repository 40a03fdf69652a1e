package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	log "charm.land/log/v2"
	"github.com/Gaurav-Gosain/sip"
	"github.com/charmbracelet/colorprofile"
	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/Gaurav-Gosain/tinyvt/internal/app"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/input"
	"github.com/Gaurav-Gosain/tinyvt/internal/server"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
	"github.com/Gaurav-Gosain/tinyvt/internal/theme"
	"github.com/Gaurav-Gosain/tinyvt/internal/vt"
)

// filterMouseMotion drops mouse motion events nobody is listening for.
// Motion passes through while a selection drag or copy mode is active,
// or when the child has enabled a mouse reporting mode.
func filterMouseMotion(model tea.Model, msg tea.Msg) tea.Msg {
	if _, ok := msg.(tea.MouseMotionMsg); !ok {
		return msg
	}

	a, ok := model.(*app.App)
	if !ok || a.Session == nil {
		return msg
	}

	if a.InteractionMode {
		return msg
	}

	a.Session.Lock()
	mode, _ := a.Session.Terminal.MouseReporting()
	a.Session.Unlock()
	if mode != vt.MouseOff {
		return msg
	}

	return nil
}

// loadConfig loads the user configuration, applies CLI overrides and
// initializes the theme.
func loadConfig() *config.UserConfig {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		log.Warn("failed to load config, using defaults", "error", err)
		userConfig = config.DefaultConfig()
	}

	config.ApplyOverrides(config.Overrides{
		ThemeName:       themeName,
		ScrollbackLines: scrollbackLines,
	}, userConfig)

	_ = theme.Initialize(userConfig.Appearance.Theme)
	return userConfig
}

func runLocal(args []string) error {
	if debugMode {
		log.SetLevel(log.DebugLevel)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tinyvt must be run in a terminal")
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				log.Warn("failed to close CPU profile file", "error", closeErr)
			}
		}()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	userConfig := loadConfig()

	app.SetInputHandler(input.HandleInput)

	keybindRegistry := config.NewKeybindRegistry(userConfig)

	if debugMode {
		configPath, _ := config.GetConfigPath()
		log.Debug("configuration", "path", configPath)
	}

	// Size the PTY to the real terminal up front so the shell never
	// sees the 80x24 fallback.
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		width, height = 80, 24
	}
	sessionHeight := height
	if userConfig.Appearance.StatusBar {
		sessionHeight -= config.StatusBarHeight
	}

	exitChan := make(chan string, 1)
	session := terminal.NewSession(terminal.Options{
		ID:          uuid.New().String(),
		Name:        sessionName,
		Title:       windowTitle,
		StaticTitle: windowTitle != "",
		Command:     childArgv(args),
		Dir:         workDir,
		Width:       width,
		Height:      max(sessionHeight, 1),
		Config:      userConfig,
		KeepOpen:    keepOpen,
		ExitChan:    exitChan,
	})
	if session == nil {
		return fmt.Errorf("failed to start terminal session")
	}

	model := app.New(session, userConfig, keybindRegistry, exitChan)
	model.Width = width
	model.Height = height

	p := tea.NewProgram(
		model,
		tea.WithFPS(config.NormalFPS),
		tea.WithoutSignalHandler(),
		tea.WithFilter(filterMouseMotion),
	)

	// Reload the config when the file changes on disk.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if err := config.Watch(watchCtx, func(cfg *config.UserConfig) {
		p.Send(app.ConfigReloadedMsg{Config: cfg})
	}); err != nil {
		log.Debug("config watcher unavailable", "error", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Send(tea.QuitMsg{})
	}()

	finalModel, err := p.Run()

	if finalApp, ok := finalModel.(*app.App); ok && finalApp.Session != nil {
		finalApp.Session.Close()
	} else {
		session.Close()
	}

	terminal.ResetTerminal()

	if err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}

func runShare(shareHost, sharePort, shareKeyPath string) error {
	if debugMode {
		log.SetLevel(log.DebugLevel)
		server.SetLogLevel(log.DebugLevel)
	}

	loadConfig()

	app.SetInputHandler(input.HandleInput)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	cfg := &server.SSHConfig{
		Host:    shareHost,
		Port:    sharePort,
		KeyPath: shareKeyPath,
		Command: childArgv(nil),
		Dir:     workDir,
	}
	if err := server.StartSSHServer(ctx, cfg); err != nil {
		return fmt.Errorf("SSH server error: %w", err)
	}
	return nil
}

func runWeb(webHost, webPort string, readOnly bool, maxConnections int) error {
	if debugMode {
		log.SetLevel(log.DebugLevel)
	}

	// Force TrueColor before any styles are created: stdout is not a
	// TTY under the web server, so profile detection would strip all
	// colors.
	lipgloss.Writer.Profile = colorprofile.TrueColor
	_ = os.Setenv("TERM", "xterm-256color")
	_ = os.Setenv("COLORTERM", "truecolor")

	loadConfig()

	app.SetInputHandler(input.HandleInput)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	sipConfig := sip.DefaultConfig()
	sipConfig.Host = webHost
	sipConfig.Port = webPort
	sipConfig.ReadOnly = readOnly
	sipConfig.MaxConnections = maxConnections
	sipConfig.Debug = debugMode

	srv := sip.NewServer(sipConfig)
	return srv.Serve(ctx, createWebHandler)
}

// createWebHandler builds a tinyvt instance for one browser session.
func createWebHandler(sess sip.Session) (tea.Model, []tea.ProgramOption) {
	pty := sess.Pty()

	width := pty.Width
	height := pty.Height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	userConfig := loadConfig()
	registry := config.NewKeybindRegistry(userConfig)

	sessionHeight := height
	if userConfig.Appearance.StatusBar {
		sessionHeight -= config.StatusBarHeight
	}

	exitChan := make(chan string, 1)
	session := terminal.NewSession(terminal.Options{
		ID:       uuid.New().String(),
		Command:  childArgv(nil),
		Dir:      workDir,
		Width:    width,
		Height:   max(sessionHeight, 1),
		Config:   userConfig,
		ExitChan: exitChan,
	})
	if session == nil {
		return nil, nil
	}

	model := app.New(session, userConfig, registry, exitChan)
	model.Width = width
	model.Height = height
	model.IsSSHMode = true
	// No host console to ring a bell on; the visible flash still works.
	model.BellSink = nil

	return model, []tea.ProgramOption{
		tea.WithFPS(config.NormalFPS),
	}
}
