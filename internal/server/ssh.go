// Package server exposes the terminal over SSH. Each connection gets
// its own child process and emulator, sized to the client PTY and torn
// down when the connection closes.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	log "charm.land/log/v2"
	"charm.land/wish/v2"
	"charm.land/wish/v2/bubbletea"
	"charm.land/wish/v2/logging"
	"github.com/charmbracelet/ssh"
	"github.com/google/uuid"

	"github.com/Gaurav-Gosain/tinyvt/internal/app"
	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/input"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
)

// Package-level logger
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "ssh",
})

// SetLogLevel sets the logging level for the server package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// SSHConfig holds the listen address and host key for the SSH server.
type SSHConfig struct {
	Host    string
	Port    string
	KeyPath string // empty means ~/.ssh/tinyvt_host_key

	Command []string // argv for each connection; empty means the shell
	Dir     string
}

// StartSSHServer runs the SSH server until ctx is cancelled.
func StartSSHServer(ctx context.Context, cfg *SSHConfig) error {
	hostKeyPath := cfg.KeyPath
	if hostKeyPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}
		hostKeyPath = filepath.Join(homeDir, ".ssh", "tinyvt_host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return fmt.Errorf("failed to create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(cfg.Host, cfg.Port)),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithMiddleware(
			bubbletea.Middleware(makeTeaHandler(cfg)),
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create SSH server: %w", err)
	}

	logger.Info("starting SSH server", "host", cfg.Host, "port", cfg.Port)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("stopping SSH server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("SSH server error: %w", err)
	}
}

// makeTeaHandler builds the per-connection bubbletea handler. Every
// connection spawns a fresh child process; closing the connection kills
// it.
func makeTeaHandler(cfg *SSHConfig) bubbletea.Handler {
	return func(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
		pty, _, active := sshSession.Pty()
		if !active {
			wish.Fatalln(sshSession, "no active terminal; use: ssh -t")
			return nil, nil
		}

		width := pty.Window.Width
		height := pty.Window.Height
		if width <= 0 {
			width = 80
		}
		if height <= 0 {
			height = 24
		}

		userConfig, err := config.LoadUserConfig()
		if err != nil {
			logger.Warn("failed to load config, using defaults", "error", err)
			userConfig = config.DefaultConfig()
		}
		registry := config.NewKeybindRegistry(userConfig)

		app.SetInputHandler(input.HandleInput)

		sessionHeight := height
		if userConfig.Appearance.StatusBar {
			sessionHeight -= config.StatusBarHeight
		}

		exitChan := make(chan string, 1)
		session := terminal.NewSession(terminal.Options{
			ID:       uuid.New().String(),
			Name:     sshSession.User(),
			Command:  cfg.Command,
			Dir:      cfg.Dir,
			Width:    width,
			Height:   max(sessionHeight, 1),
			Config:   userConfig,
			ExitChan: exitChan,
		})
		if session == nil {
			wish.Fatalln(sshSession, "failed to start terminal session")
			return nil, nil
		}

		go func() {
			<-sshSession.Context().Done()
			session.Close()
		}()

		model := app.New(session, userConfig, registry, exitChan)
		model.Width = width
		model.Height = height
		model.IsSSHMode = true
		// Ring the bell on the client, not the server console.
		model.BellSink = sshSession

		return model, []tea.ProgramOption{
			tea.WithFPS(config.NormalFPS),
		}
	}
}
