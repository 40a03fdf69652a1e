package config

// Keybinding represents a single keybinding entry
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection represents a section of related keybindings
type KeybindingSection struct {
	Title     string
	Condition string // Empty for always shown, "copy" for copy mode, "!copy" for live mode
	Bindings  []Keybinding
}

// GetKeybindings returns all keybinding sections for the help overlay.
// If registry is provided, it generates bindings dynamically from user config.
// If registry is nil, it falls back to hard-coded defaults.
func GetKeybindings(registry *KeybindRegistry) []KeybindingSection {
	if registry == nil {
		return getDefaultKeybindings()
	}

	sections := []KeybindingSection{}

	session := KeybindingSection{
		Title:    "SESSION",
		Bindings: []Keybinding{},
	}
	addBinding(&session, registry, "enter_copy_mode", "Enter copy mode")
	addBinding(&session, registry, "search", "Search scrollback")
	addBinding(&session, registry, "paste_clipboard", "Paste clipboard")
	addBinding(&session, registry, "clear_scrollback", "Clear scrollback")
	addBinding(&session, registry, "toggle_statusbar", "Toggle status bar")
	addBinding(&session, registry, "toggle_help", "Toggle this help")
	addBinding(&session, registry, "quit", "Quit")
	if len(session.Bindings) > 0 {
		sections = append(sections, session)
	}

	copyMode := KeybindingSection{
		Title:     "COPY MODE",
		Condition: "copy",
		Bindings:  []Keybinding{},
	}
	addBinding(&copyMode, registry, "visual", "Select characters")
	addBinding(&copyMode, registry, "visual_line", "Select lines")
	addBinding(&copyMode, registry, "copy", "Copy selection")
	addBinding(&copyMode, registry, "search_fwd", "Search forward")
	addBinding(&copyMode, registry, "search_back", "Search backward")
	addBinding(&copyMode, registry, "next_match", "Next match")
	addBinding(&copyMode, registry, "prev_match", "Previous match")
	addBinding(&copyMode, registry, "halfpage_up", "Half page up")
	addBinding(&copyMode, registry, "halfpage_down", "Half page down")
	addBinding(&copyMode, registry, "top", "Oldest line")
	addBinding(&copyMode, registry, "bottom", "Back to live output")
	addBinding(&copyMode, registry, "exit", "Exit copy mode")
	if len(copyMode.Bindings) > 0 {
		sections = append(sections, copyMode)
	}

	sections = append(sections, getStaticHelpSections()...)
	return sections
}

// addBinding adds a keybinding to a section if the action has keys configured
func addBinding(section *KeybindingSection, registry *KeybindRegistry, action, description string) {
	keys := registry.GetKeysForDisplay(action)
	if keys != "" {
		section.Bindings = append(section.Bindings, Keybinding{
			Key:         keys,
			Description: description,
		})
	}
}

// getDefaultKeybindings returns the original hard-coded keybindings (used as fallback)
func getDefaultKeybindings() []KeybindingSection {
	sections := []KeybindingSection{
		{
			Title: "SESSION",
			Bindings: []Keybinding{
				{"Shift+PgUp", "Enter copy mode"},
				{"Ctrl+Shift+F", "Search scrollback"},
				{"Ctrl+Shift+V", "Paste clipboard"},
				{"Ctrl+Shift+L", "Clear scrollback"},
				{"Ctrl+Shift+S", "Toggle status bar"},
				{"Ctrl+Shift+H", "Toggle this help"},
				{"Ctrl+Shift+Q", "Quit"},
			},
		},
		{
			Title:     "COPY MODE",
			Condition: "copy",
			Bindings: []Keybinding{
				{"v", "Select characters"},
				{"V", "Select lines"},
				{"y, Enter", "Copy selection"},
				{"/ , ?", "Search forward/backward"},
				{"n, N", "Next/previous match"},
				{"Ctrl+U, PgUp", "Half page up"},
				{"Ctrl+D, PgDown", "Half page down"},
				{"g, G", "Oldest line / live output"},
				{"q, Esc", "Exit copy mode"},
			},
		},
	}
	sections = append(sections, getStaticHelpSections()...)
	return sections
}

// getStaticHelpSections returns help sections that don't need dynamic binding info
func getStaticHelpSections() []KeybindingSection {
	return []KeybindingSection{
		{
			Title:     "MOVEMENT:",
			Condition: "copy",
			Bindings: []Keybinding{
				{"h/j/k/l, arrows", "Move cursor"},
				{"w, b, e", "Word forward/back/end"},
				{"0, $", "Start/end of line"},
				{"H, M, L", "Top/middle/bottom of view"},
			},
		},
		{
			Title:     "MOUSE:",
			Condition: "!copy",
			Bindings: []Keybinding{
				{"Wheel ↑", "Enter copy mode scrolled"},
				{"Drag", "Select text"},
				{"Double click", "Select word"},
				{"Triple click", "Select line"},
			},
		},
	}
}
