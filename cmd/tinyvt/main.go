// Package main implements tinyvt, a single-window terminal emulator
// for the terminal: a child process runs on a PTY, its output drives a
// VT emulator, and the screen is drawn as a Bubble Tea view. Scrollback,
// copy mode with vim-style navigation and search, themes, and SSH/web
// sharing are built in.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/fang"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/Gaurav-Gosain/tinyvt/internal/config"
	"github.com/Gaurav-Gosain/tinyvt/internal/theme"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode  bool
	cpuProfile string

	execCommand     string
	workDir         string
	keepOpen        bool
	windowTitle     string
	sessionName     string
	themeName       string
	scrollbackLines int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tinyvt",
		Short: "A tiny terminal emulator in your terminal",
		Long: `tinyvt - a tiny terminal emulator in your terminal

Runs a shell (or any command) on a PTY and renders it through a
built-in VT emulator: scrollback, mouse reporting, copy mode with
vim-style navigation and search, selectable themes, and a status bar
with process stats. The same screen can be served over SSH or in the
browser.`,
		Example: `  # Run your shell
  tinyvt

  # Run a specific command and close when it exits
  tinyvt -e htop

  # Keep the window open after the command exits
  tinyvt -k -e "ls -la"

  # Pick a theme and a bigger scrollback
  tinyvt --theme dracula --scrollback-lines 50000

  # Serve over SSH
  tinyvt share --port 2222

  # Serve in the browser
  tinyvt web --port 7681`,
		Version: version,
		RunE: func(_ *cobra.Command, args []string) error {
			return runLocal(args)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&execCommand, "command", "e", "", "Command to run instead of the shell")
	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "d", "", "Working directory for the child process")
	rootCmd.PersistentFlags().BoolVarP(&keepOpen, "keep", "k", false, "Keep the window open after the command exits")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Color theme to use (e.g., dracula, nord, tokyo_night)")
	rootCmd.PersistentFlags().IntVar(&scrollbackLines, "scrollback-lines", 0, "Lines to keep in scrollback (default: 10000, min: 100, max: 1000000)")

	rootCmd.Flags().StringVarP(&windowTitle, "title", "t", "", "Static title (disables OSC title updates)")
	rootCmd.Flags().StringVarP(&sessionName, "name", "n", "", "Session name shown in the status bar")
	rootCmd.Flags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")

	// share command variables
	var sharePort, shareHost, shareKeyPath string

	shareCmd := &cobra.Command{
		Use:   "share",
		Short: "Serve tinyvt over SSH",
		Long: `Serve tinyvt over SSH

Every connection gets its own shell on a fresh PTY, sized to the
client's terminal and killed when the connection closes. A host key is
generated automatically if none is given.`,
		Example: `  # Start SSH server on the default port
  tinyvt share

  # Start on a custom port
  tinyvt share --port 2222

  # Serve a specific command
  tinyvt share -e htop

  # Specify a host key
  tinyvt share --key-path /path/to/host_key`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runShare(shareHost, sharePort, shareKeyPath)
		},
	}

	shareCmd.Flags().StringVar(&sharePort, "port", "2222", "SSH server port")
	shareCmd.Flags().StringVar(&shareHost, "host", "localhost", "SSH server host")
	shareCmd.Flags().StringVar(&shareKeyPath, "key-path", "", "Path to SSH host key (auto-generated if not specified)")

	// web command variables
	var webPort, webHost string
	var webReadOnly bool
	var webMaxConnections int

	webCmd := &cobra.Command{
		Use:   "web",
		Short: "Serve tinyvt in the browser",
		Long: `Serve tinyvt in the browser

Serves the terminal through xterm.js with WebTransport (HTTP/3 over
QUIC) and automatic WebSocket fallback, powered by sip
(github.com/Gaurav-Gosain/sip). Each browser tab gets its own shell.`,
		Example: `  # Start web server on the default port (7681)
  tinyvt web

  # Bind to all interfaces for remote access
  tinyvt web --host 0.0.0.0 --port 8080

  # View only, no input
  tinyvt web --read-only

  # Limit concurrent connections
  tinyvt web --max-connections 10`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runWeb(webHost, webPort, webReadOnly, webMaxConnections)
		},
	}

	webCmd.Flags().StringVar(&webPort, "port", "7681", "Web server port")
	webCmd.Flags().StringVar(&webHost, "host", "localhost", "Web server host")
	webCmd.Flags().BoolVar(&webReadOnly, "read-only", false, "Disable input from clients (view only)")
	webCmd.Flags().IntVar(&webMaxConnections, "max-connections", 0, "Maximum concurrent connections (0 = unlimited)")

	// Config command group
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tinyvt configuration",
		Long:  `Manage the tinyvt configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			return printConfigPath()
		},
	}

	configEditCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit configuration in $EDITOR",
		Long: `Open the tinyvt configuration file in your default editor

The editor is determined by checking $EDITOR, $VISUAL, or common
editors like vim, vi, nano, and emacs in that order.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return editConfigFile()
		},
	}

	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long: `Reset the tinyvt configuration file to default settings

This will overwrite your existing configuration after confirmation.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return resetConfigToDefaults()
		},
	}

	configCmd.AddCommand(configPathCmd, configEditCmd, configResetCmd)

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List available color themes",
		Long: `List every available color theme

Themes come from the bubbletint registry. Use one with --theme or set
it in the configuration file.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return listThemes()
		},
	}

	// Keybinds command group
	keybindsCmd := &cobra.Command{
		Use:     "keybinds",
		Aliases: []string{"keys", "kb"},
		Short:   "View keybinding configuration",
	}

	keybindsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all keybindings",
		Long:  `Display all configured keybindings in a formatted table`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return listKeybindings()
		},
	}

	keybindsCmd.AddCommand(keybindsListCmd)

	rootCmd.AddCommand(shareCmd, webCmd, configCmd, themesCmd, keybindsCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}

// childArgv builds the argv for the child process from -e and any
// positional arguments. Empty means the configured shell.
func childArgv(args []string) []string {
	if execCommand == "" {
		return nil
	}
	return append([]string{execCommand}, args...)
}

// printConfigPath prints the config file path
func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

// editConfigFile opens the config file in $EDITOR
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Ensure config file exists (create default if needed)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if _, err := config.LoadUserConfig(); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"vim", "vi", "nano", "emacs"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Please set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	// Check if config exists and ask for confirmation
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Warning: This will overwrite your existing configuration at:\n")
		fmt.Printf("  %s\n\n", configPath)
		fmt.Printf("Are you sure you want to reset to defaults? (yes/no): ")

		var response string
		_, _ = fmt.Scanln(&response)
		response = strings.ToLower(strings.TrimSpace(response))

		if response != "yes" && response != "y" {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	defaultCfg := config.DefaultConfig()

	var sb strings.Builder
	sb.WriteString("# tinyvt Configuration File\n")
	sb.WriteString("# Customize the terminal, appearance, bell, search and keybindings.\n")
	sb.WriteString("# Multiple keys can be bound to the same action.\n")
	sb.WriteString("#\n")
	sb.WriteString("# Configuration location: " + configPath + "\n")
	sb.WriteString("# Documentation: https://github.com/Gaurav-Gosain/tinyvt\n\n")

	data, err := toml.Marshal(defaultCfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	sb.Write(data)

	if err := os.WriteFile(configPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Configuration reset to defaults\n")
	fmt.Printf("  Location: %s\n", configPath)
	fmt.Println("\nYou can customize it with: tinyvt config edit")
	return nil
}

// listThemes prints every registered theme in a pretty table.
func listThemes() error {
	themes := theme.ListThemes()

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.CLITableHeader()).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	rows := [][]string{}
	for _, t := range themes {
		rows = append(rows, []string{t.ID, t.Fg, t.Bg})
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.CLITableBorder())).
		Headers("Theme", "Foreground", "Background").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Println()
	fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(theme.CLITableKey()).Render("Available Themes"))
	fmt.Println(tbl.Render())

	note := lipgloss.NewStyle().
		Foreground(theme.CLITableDim()).
		Italic(true).
		Render(fmt.Sprintf("%d themes. Use with: tinyvt --theme <name>", len(rows)))
	fmt.Println(note)
	fmt.Println()
	return nil
}

// listKeybindings prints all configured keybindings in a pretty table
func listKeybindings() error {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintln(os.Stderr, "Using default keybindings...")
		userConfig = config.DefaultConfig()
	}

	registry := config.NewKeybindRegistry(userConfig)
	printKeybindingsTable(registry)
	return nil
}

// printKeybindingsTable prints keybindings in a pretty table format
func printKeybindingsTable(registry *config.KeybindRegistry) {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.CLITableHeader()).
		Padding(0, 1)

	cellStyle := lipgloss.NewStyle().
		Padding(0, 1)

	sections := []struct {
		Title   string
		Actions []string
	}{
		{
			Title: "Session",
			Actions: []string{
				"enter_copy_mode", "search", "paste_clipboard",
				"clear_scrollback", "toggle_statusbar", "toggle_help", "quit",
			},
		},
		{
			Title: "Copy Mode",
			Actions: []string{
				"exit", "copy", "visual", "visual_line",
				"search_fwd", "search_back", "next_match", "prev_match",
				"halfpage_up", "halfpage_down", "top", "bottom",
			},
		},
	}

	fmt.Println()
	fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(theme.CLITableKey()).Render("tinyvt Keybindings"))
	fmt.Println()

	for _, section := range sections {
		rows := [][]string{}

		for _, action := range section.Actions {
			keys := registry.GetKeys(action)
			if len(keys) == 0 {
				continue // Skip unbound actions
			}

			desc := config.ActionDescriptions[action]
			if desc == "" {
				desc = action
			}

			rows = append(rows, []string{strings.Join(keys, ", "), desc})
		}

		if len(rows) == 0 {
			continue
		}

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(theme.CLITableBorder())).
			Headers("Keys", "Action").
			Rows(rows...).
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == -1 {
					return headerStyle
				}
				return cellStyle
			})

		fmt.Println(lipgloss.NewStyle().Bold(true).Foreground(theme.CLITableKey()).Render(section.Title))
		fmt.Println(t.Render())
		fmt.Println()
	}

	note := lipgloss.NewStyle().
		Foreground(theme.CLITableDim()).
		Italic(true).
		Render("Everything else goes to the child process. Movement keys inside copy mode (h/j/k/l, w/b/e, 0/$, H/M/L) are fixed.")
	fmt.Println(note)
	fmt.Println()
}
