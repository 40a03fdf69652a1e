// Package config manages the tinyvt configuration file, keybindings, and
// tunable runtime constants.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

// Frame rates for the render loop.
const (
	// NormalFPS is the target frame rate for terminal output.
	NormalFPS = 60
	// InteractionFPS is the reduced rate used while the user is paging
	// through scrollback or copy mode, where latency matters less.
	InteractionFPS = 30
)

// Timing constants.
const (
	// ProcessWaitDelay is how long to wait after the child exits before
	// collecting its final output.
	ProcessWaitDelay = 100 * time.Millisecond
	// StatsUpdateInterval is how often the status bar refreshes child
	// process CPU and memory readings.
	StatsUpdateInterval = 2 * time.Second
	// BellFlashDuration is how long the visible bell inverts the screen.
	BellFlashDuration = 150 * time.Millisecond
	// NotificationDuration is the default lifetime of a status message.
	NotificationDuration = 2 * time.Second
	// ConfigReloadDebounce coalesces rapid file change events from
	// editors that write configs in multiple syscalls.
	ConfigReloadDebounce = 250 * time.Millisecond
)

// StatusBarHeight is the number of rows reserved for the status bar.
const StatusBarHeight = 1

// Scrollback limits applied to config and CLI flag values.
const (
	MinScrollbackLines = 100
	MaxScrollbackLines = 1000000
)

// TerminalConfig controls the emulator and the child process.
type TerminalConfig struct {
	Shell           string `toml:"shell"`
	Term            string `toml:"term"`
	ScrollbackLines int    `toml:"scrollback_lines"`
	Autowrap        bool   `toml:"autowrap"`
	WordChars       string `toml:"word_chars"`
	TabWidth        int    `toml:"tab_width"`
}

// AppearanceConfig controls colors and the cursor.
type AppearanceConfig struct {
	Theme       string   `toml:"theme"`
	Foreground  string   `toml:"foreground"`
	Background  string   `toml:"background"`
	CursorColor string   `toml:"cursor_color"`
	CursorShape string   `toml:"cursor_shape"`
	CursorBlink bool     `toml:"cursor_blink"`
	Palette     []string `toml:"palette"`
	StatusBar   bool     `toml:"status_bar"`
}

// BellConfig controls how BEL is presented.
type BellConfig struct {
	Audible bool `toml:"audible"`
	Visible bool `toml:"visible"`
}

// SearchConfig controls copy mode search defaults.
type SearchConfig struct {
	WrapAround bool `toml:"wrap_around"`
	IgnoreCase bool `toml:"ignore_case"`
}

// KeybindingsConfig maps actions to key lists per section.
type KeybindingsConfig struct {
	Session  map[string][]string `toml:"session"`
	CopyMode map[string][]string `toml:"copy_mode"`
}

// UserConfig is the full TOML configuration surface.
type UserConfig struct {
	Terminal    TerminalConfig    `toml:"terminal"`
	Appearance  AppearanceConfig  `toml:"appearance"`
	Bell        BellConfig        `toml:"bell"`
	Search      SearchConfig      `toml:"search"`
	Keybindings KeybindingsConfig `toml:"keybindings"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *UserConfig {
	return &UserConfig{
		Terminal: TerminalConfig{
			Shell:           "",
			Term:            "",
			ScrollbackLines: 10000,
			Autowrap:        true,
			WordChars:       "-./?%&#_~",
			TabWidth:        8,
		},
		Appearance: AppearanceConfig{
			Theme:       "",
			CursorShape: "block",
			CursorBlink: true,
			StatusBar:   true,
		},
		Bell: BellConfig{
			Audible: true,
			Visible: false,
		},
		Search: SearchConfig{
			WrapAround: true,
			IgnoreCase: true,
		},
		Keybindings: KeybindingsConfig{
			Session: map[string][]string{
				"enter_copy_mode":  {"shift+pgup"},
				"search":           {"ctrl+shift+f"},
				"paste_clipboard":  {"ctrl+shift+v"},
				"clear_scrollback": {"ctrl+shift+l"},
				"toggle_statusbar": {"ctrl+shift+s"},
				"toggle_help":      {"ctrl+shift+h"},
				"quit":             {"ctrl+shift+q"},
			},
			CopyMode: map[string][]string{
				"exit":          {"q", "esc"},
				"copy":          {"y", "enter"},
				"visual":        {"v"},
				"visual_line":   {"V"},
				"search_fwd":    {"/"},
				"search_back":   {"?"},
				"next_match":    {"n"},
				"prev_match":    {"N"},
				"halfpage_up":   {"ctrl+u", "pgup"},
				"halfpage_down": {"ctrl+d", "pgdown"},
				"top":           {"g"},
				"bottom":        {"G"},
			},
		},
	}
}

// ActionDescriptions holds human readable descriptions for actions,
// used by `tinyvt config keys` and the help overlay.
var ActionDescriptions = map[string]string{
	"enter_copy_mode":  "Enter copy mode (scrollback, selection, search)",
	"search":           "Enter copy mode with search prompt open",
	"paste_clipboard":  "Paste clipboard into the terminal",
	"clear_scrollback": "Clear the scrollback buffer",
	"toggle_statusbar": "Show or hide the status bar",
	"toggle_help":      "Show or hide the help overlay",
	"quit":             "Quit tinyvt",
	"exit":             "Exit copy mode",
	"copy":             "Copy the selection and exit copy mode",
	"visual":           "Start character-wise selection",
	"visual_line":      "Start line-wise selection",
	"search_fwd":       "Search forward",
	"search_back":      "Search backward",
	"next_match":       "Jump to next match",
	"prev_match":       "Jump to previous match",
	"halfpage_up":      "Scroll half a page up",
	"halfpage_down":    "Scroll half a page down",
	"top":              "Jump to the oldest scrollback line",
	"bottom":           "Jump back to live output",
}

// configFileName is the file under the XDG config directory.
const configFileName = "tinyvt/tinyvt.toml"

// GetConfigPath returns the path of the configuration file, creating the
// parent directory if needed.
func GetConfigPath() (string, error) {
	path, err := xdg.ConfigFile(configFileName)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// LoadUserConfig reads the configuration file, creating it with defaults
// on first run. Missing keys fall back to their default values.
func LoadUserConfig() (*UserConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := DefaultConfig()
		if writeErr := SaveConfig(cfg); writeErr != nil {
			return cfg, fmt.Errorf("failed to write default config: %w", writeErr)
		}
		return cfg, nil
	}
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config: %w", err)
	}

	clampConfig(cfg)
	return cfg, nil
}

// SaveConfig writes the configuration to disk with a documentation header.
func SaveConfig(cfg *UserConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# tinyvt configuration file\n")
	sb.WriteString("# Colors accept hex values like \"#1a1b26\"; theme names come from\n")
	sb.WriteString("# `tinyvt themes`. Keybindings map actions to arrays of keys.\n")
	sb.WriteString("#\n")
	sb.WriteString("# Location: " + path + "\n\n")

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	sb.Write(data)

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// clampConfig keeps numeric settings inside supported ranges.
func clampConfig(cfg *UserConfig) {
	if cfg.Terminal.ScrollbackLines != 0 {
		if cfg.Terminal.ScrollbackLines < MinScrollbackLines {
			cfg.Terminal.ScrollbackLines = MinScrollbackLines
		}
		if cfg.Terminal.ScrollbackLines > MaxScrollbackLines {
			cfg.Terminal.ScrollbackLines = MaxScrollbackLines
		}
	}
	if cfg.Terminal.TabWidth <= 0 {
		cfg.Terminal.TabWidth = 8
	}
	switch cfg.Appearance.CursorShape {
	case "block", "underline", "bar":
	default:
		cfg.Appearance.CursorShape = "block"
	}
}

// Overrides carries CLI flag values that take precedence over the file.
type Overrides struct {
	ThemeName       string
	ScrollbackLines int
	Shell           string
	Term            string
}

// ApplyOverrides mutates cfg with any non-zero override values.
func ApplyOverrides(o Overrides, cfg *UserConfig) {
	if cfg == nil {
		return
	}
	if o.ThemeName != "" {
		cfg.Appearance.Theme = o.ThemeName
	}
	if o.ScrollbackLines > 0 {
		cfg.Terminal.ScrollbackLines = o.ScrollbackLines
	}
	if o.Shell != "" {
		cfg.Terminal.Shell = o.Shell
	}
	if o.Term != "" {
		cfg.Terminal.Term = o.Term
	}
	clampConfig(cfg)
}
