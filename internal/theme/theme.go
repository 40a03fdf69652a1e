// Package theme provides color themes and styling for the tinyvt terminal.
package theme

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	tint "github.com/lrstanley/bubbletint/v2"
)

var enabled bool

// Initialize sets up the theme registry with the specified theme name.
// Call this once at application startup.
// If themeName is empty, theming will be disabled and standard terminal colors will be used.
func Initialize(themeName string) error {
	// If no theme specified, disable theming
	if themeName == "" {
		enabled = false
		return nil
	}

	enabled = true
	tint.NewDefaultRegistry()

	// Try to set the theme by ID
	ok := tint.SetTintID(themeName)
	if !ok {
		// Theme not found, set to default
		tint.SetTintID("default")
	}

	return nil
}

// IsEnabled returns true if theming is enabled
func IsEnabled() bool {
	return enabled
}

// Current returns the currently active theme.
// Returns nil if theming is disabled.
func Current() *tint.Tint {
	if !enabled {
		return nil
	}
	return tint.Current()
}

// GetANSIPalette returns the 16 ANSI colors (0-15) from the current theme.
// These are injected into the terminal emulator.
func GetANSIPalette() [16]color.Color {
	t := Current()
	if t == nil {
		// Fallback to default xterm colors
		return [16]color.Color{
			lipgloss.Color("#000000"), lipgloss.Color("#cd0000"), lipgloss.Color("#00cd00"), lipgloss.Color("#cdcd00"),
			lipgloss.Color("#0000ee"), lipgloss.Color("#cd00cd"), lipgloss.Color("#00cdcd"), lipgloss.Color("#e5e5e5"),
			lipgloss.Color("#7f7f7f"), lipgloss.Color("#ff0000"), lipgloss.Color("#00ff00"), lipgloss.Color("#ffff00"),
			lipgloss.Color("#5c5cff"), lipgloss.Color("#ff00ff"), lipgloss.Color("#00ffff"), lipgloss.Color("#ffffff"),
		}
	}
	return [16]color.Color{
		t.Black,        // 0
		t.Red,          // 1
		t.Green,        // 2
		t.Yellow,       // 3
		t.Blue,         // 4
		t.Purple,       // 5
		t.Cyan,         // 6
		t.White,        // 7
		t.BrightBlack,  // 8
		t.BrightRed,    // 9
		t.BrightGreen,  // 10
		t.BrightYellow, // 11
		t.BrightBlue,   // 12
		t.BrightPurple, // 13
		t.BrightCyan,   // 14
		t.BrightWhite,  // 15
	}
}

// Terminal colors for the emulator
func TerminalFg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#e5e5e5")
	}
	return t.Fg
}

func TerminalBg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#000000")
	}
	return t.Bg
}

func TerminalCursor() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ff00")
	}
	return t.Cursor
}

// Override returns the color parsed from hex when set, otherwise the
// fallback. Config file colors win over theme colors this way.
func Override(hex string, fallback color.Color) color.Color {
	hex = strings.TrimSpace(hex)
	if strings.HasPrefix(hex, "#") && (len(hex) == 4 || len(hex) == 7) {
		return lipgloss.Color(hex)
	}
	return fallback
}

// Copy mode colors
func CopyModeCursor() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ffff"), lipgloss.Color("#000000")
	}
	return t.BrightCyan, t.Black
}

func CopyModeVisualSelection() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#cd00cd"), lipgloss.Color("#ffffff")
	}
	return t.Purple, t.BrightWhite
}

func CopyModeSearchCurrent() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ff00ff"), lipgloss.Color("#000000")
	}
	return t.BrightPurple, t.Black
}

func CopyModeSearchOther() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ffff00"), lipgloss.Color("#000000")
	}
	return t.Yellow, t.Black
}

func CopyModeSearchBar() (bg color.Color, fg color.Color) {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ffff00"), lipgloss.Color("#000000")
	}
	return t.Yellow, t.Black
}

// Mouse selection colors
func MouseSelection() (bg color.Color, fg color.Color) {
	return lipgloss.Color("62"), lipgloss.Color("15")
}

// Status bar colors
func StatusBarBg() color.Color {
	return lipgloss.Color("#2a2a3e")
}

func StatusBarFg() color.Color {
	return lipgloss.Color("#a0a0a8")
}

func StatusBarTitle() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ff00")
	}
	return t.BrightGreen
}

func StatusBarAccent() color.Color {
	return lipgloss.Color("#a0a0b0")
}

func StatusBarBell() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#ffff00")
	}
	return t.Yellow
}

func StatusBarCopyMode() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00ffff")
	}
	return t.BrightCyan
}

// Notification colors
func NotificationError() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#cd0000")
	}
	return t.Red
}

func NotificationSuccess() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#00cd00")
	}
	return t.Green
}

func NotificationInfo() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#0000ee")
	}
	return t.Blue
}

func NotificationBg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#000000")
	}
	return t.Bg
}

func NotificationFg() color.Color {
	t := Current()
	if t == nil {
		return lipgloss.Color("#e5e5e5")
	}
	return t.Fg
}

// Help menu colors
func HelpKeyBadge() color.Color {
	return lipgloss.Color("5") // Purple/magenta
}

func HelpGray() color.Color {
	return lipgloss.Color("8")
}

func HelpBorder() color.Color {
	return lipgloss.Color("14")
}

// CLI table colors
func CLITableHeader() color.Color {
	return lipgloss.Color("12")
}

func CLITableBorder() color.Color {
	return lipgloss.Color("14")
}

func CLITableKey() color.Color {
	return lipgloss.Color("11")
}

func CLITableDim() color.Color {
	return lipgloss.Color("8")
}

// ThemeInfo describes one registered theme for the themes listing.
type ThemeInfo struct {
	ID string
	Fg string
	Bg string
}

// ListThemes returns every registered theme with its foreground and
// background colors as hex strings. The registry's current tint is
// restored before returning.
func ListThemes() []ThemeInfo {
	tint.NewDefaultRegistry()
	ids := tint.TintIDs()

	var current string
	if t := tint.Current(); t != nil {
		current = t.ID
	}

	themes := make([]ThemeInfo, 0, len(ids))
	for _, id := range ids {
		if !tint.SetTintID(id) {
			continue
		}
		t := tint.Current()
		if t == nil {
			continue
		}
		themes = append(themes, ThemeInfo{
			ID: id,
			Fg: ColorToString(t.Fg),
			Bg: ColorToString(t.Bg),
		})
	}

	if current != "" {
		tint.SetTintID(current)
	}
	return themes
}

// ColorToString converts a color.Color to a hex string
func ColorToString(c color.Color) string {
	if c == nil {
		return "#000000"
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns values in range 0-65535, convert to 0-255
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	// Format as hex string
	return fmt.Sprintf("#%02x%02x%02x", r8, g8, b8)
}
