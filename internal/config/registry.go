package config

import (
	"sort"
	"strings"
)

// KeybindRegistry resolves between actions and the keys bound to them.
// Keys are stored in normalized form so lookups are insensitive to
// modifier order and casing.
type KeybindRegistry struct {
	actionToKeys map[string][]string
	keyToAction  map[string]string
	normalizer   *KeyNormalizer
}

// NewKeybindRegistry builds a registry from the configured keybindings.
// Later sections win when the same key appears twice.
func NewKeybindRegistry(cfg *UserConfig) *KeybindRegistry {
	r := &KeybindRegistry{
		actionToKeys: make(map[string][]string),
		keyToAction:  make(map[string]string),
		normalizer:   NewKeyNormalizer(),
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r.addSection(cfg.Keybindings.Session)
	r.addSection(cfg.Keybindings.CopyMode)
	return r
}

func (r *KeybindRegistry) addSection(section map[string][]string) {
	// Iterate in sorted order so duplicate-key resolution is stable.
	actions := make([]string, 0, len(section))
	for action := range section {
		actions = append(actions, action)
	}
	sort.Strings(actions)

	for _, action := range actions {
		for _, key := range section[action] {
			variants := r.normalizer.NormalizeKey(key)
			if len(variants) == 0 {
				continue
			}
			r.actionToKeys[action] = append(r.actionToKeys[action], variants[0])
			for _, v := range variants {
				r.keyToAction[v] = action
			}
		}
	}
}

// GetKeys returns the normalized keys bound to an action, or an empty
// slice when the action has no bindings.
func (r *KeybindRegistry) GetKeys(action string) []string {
	keys := r.actionToKeys[action]
	if keys == nil {
		return []string{}
	}
	return keys
}

// GetAction returns the action bound to a key, or "" when unbound.
func (r *KeybindRegistry) GetAction(key string) string {
	variants := r.normalizer.NormalizeKey(key)
	for _, v := range variants {
		if action, ok := r.keyToAction[v]; ok {
			return action
		}
	}
	return ""
}

// GetKeysForDisplay returns the keys for an action formatted for help
// text, like "Ctrl+U, PgUp".
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	keys := r.GetKeys(action)
	display := make([]string, 0, len(keys))
	for _, key := range keys {
		display = append(display, formatKeyForDisplay(key))
	}
	return strings.Join(display, ", ")
}

// formatKeyForDisplay capitalizes each part of a normalized key.
func formatKeyForDisplay(key string) string {
	parts := strings.Split(key, "+")
	for i, part := range parts {
		switch part {
		case "ctrl":
			parts[i] = "Ctrl"
		case "alt":
			parts[i] = "Alt"
		case "shift":
			parts[i] = "Shift"
		case "super":
			parts[i] = "Super"
		case "pgup":
			parts[i] = "PgUp"
		case "pgdown":
			parts[i] = "PgDown"
		case "esc":
			parts[i] = "Esc"
		case "enter":
			parts[i] = "Enter"
		case "space":
			parts[i] = "Space"
		case "tab":
			parts[i] = "Tab"
		case "backspace":
			parts[i] = "Backspace"
		default:
			if len(part) > 1 {
				parts[i] = strings.ToUpper(part[:1]) + part[1:]
			} else {
				parts[i] = part
			}
		}
	}
	return strings.Join(parts, "+")
}

// KeyNormalizer converts key strings into a canonical form and expands
// aliases, so "Ctrl+Return" and "ctrl+enter" resolve identically.
type KeyNormalizer struct {
	aliases map[string][]string
}

// NewKeyNormalizer returns a normalizer with the standard alias table.
func NewKeyNormalizer() *KeyNormalizer {
	return &KeyNormalizer{
		aliases: map[string][]string{
			"enter":    {"enter", "return"},
			"return":   {"return", "enter"},
			"esc":      {"esc", "escape"},
			"escape":   {"escape", "esc"},
			"pgup":     {"pgup", "pageup"},
			"pageup":   {"pageup", "pgup"},
			"pgdown":   {"pgdown", "pagedown"},
			"pagedown": {"pagedown", "pgdown"},
			"space":    {"space", " "},
		},
	}
}

// knownModifiers in canonical order.
var knownModifiers = []string{"ctrl", "alt", "shift", "super"}

// NormalizeKey returns the canonical form of a key followed by any alias
// variants. The first element is the preferred form. An empty or invalid
// key returns nil.
func (n *KeyNormalizer) NormalizeKey(key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	parts := strings.Split(key, "+")
	base := strings.ToLower(parts[len(parts)-1])
	// A single uppercase letter implies shift; preserve case for letters
	// so "V" and "v" stay distinct bindings.
	if len(parts[len(parts)-1]) == 1 {
		base = parts[len(parts)-1]
	}

	mods := make(map[string]bool)
	for _, part := range parts[:len(parts)-1] {
		mods[strings.ToLower(part)] = true
	}

	var prefix strings.Builder
	for _, mod := range knownModifiers {
		if mods[mod] {
			prefix.WriteString(mod)
			prefix.WriteString("+")
		}
	}

	bases, ok := n.aliases[base]
	if !ok {
		bases = []string{base}
	}

	variants := make([]string, 0, len(bases))
	for _, b := range bases {
		variants = append(variants, prefix.String()+b)
	}
	return variants
}

// ValidateKey reports whether a key string can be parsed, and a reason
// when it cannot.
func (n *KeyNormalizer) ValidateKey(key string) (bool, string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, "empty key"
	}

	parts := strings.Split(key, "+")
	for _, part := range parts[:len(parts)-1] {
		mod := strings.ToLower(part)
		valid := false
		for _, known := range knownModifiers {
			if mod == known {
				valid = true
				break
			}
		}
		if !valid {
			return false, "unknown modifier: " + part
		}
	}

	if parts[len(parts)-1] == "" {
		return false, "missing key after modifier"
	}
	return true, ""
}
