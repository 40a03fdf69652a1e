package input

import (
	"bytes"
	"testing"

	tea "charm.land/bubbletea/v2"
)

// =============================================================================
// Key Encoding Tests
// =============================================================================

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		name      string
		msg       tea.KeyPressMsg
		appCursor bool
		want      []byte
	}{
		{
			name: "plain letter",
			msg:  tea.KeyPressMsg{Code: 'a', Text: "a"},
			want: []byte("a"),
		},
		{
			name: "shifted letter uses text",
			msg:  tea.KeyPressMsg{Code: 'a', ShiftedCode: 'A', Text: "A", Mod: tea.ModShift},
			want: []byte("A"),
		},
		{
			name: "unicode text",
			msg:  tea.KeyPressMsg{Code: 'é', Text: "é"},
			want: []byte("é"),
		},
		{
			name: "enter",
			msg:  tea.KeyPressMsg{Code: tea.KeyEnter},
			want: []byte{'\r'},
		},
		{
			name: "tab",
			msg:  tea.KeyPressMsg{Code: tea.KeyTab},
			want: []byte{'\t'},
		},
		{
			name: "backspace",
			msg:  tea.KeyPressMsg{Code: tea.KeyBackspace},
			want: []byte{0x7f},
		},
		{
			name: "escape",
			msg:  tea.KeyPressMsg{Code: tea.KeyEscape},
			want: []byte{0x1b},
		},
		{
			name: "space",
			msg:  tea.KeyPressMsg{Code: tea.KeySpace, Text: " "},
			want: []byte(" "),
		},
		{
			name: "ctrl+c",
			msg:  tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl},
			want: []byte{0x03},
		},
		{
			name: "ctrl+z",
			msg:  tea.KeyPressMsg{Code: 'z', Mod: tea.ModCtrl},
			want: []byte{0x1a},
		},
		{
			name: "ctrl+space is NUL",
			msg:  tea.KeyPressMsg{Code: tea.KeySpace, Mod: tea.ModCtrl},
			want: []byte{0x00},
		},
		{
			name: "ctrl+backslash",
			msg:  tea.KeyPressMsg{Code: '\\', Mod: tea.ModCtrl},
			want: []byte{0x1c},
		},
		{
			name: "ctrl+question is DEL",
			msg:  tea.KeyPressMsg{Code: '?', Mod: tea.ModCtrl},
			want: []byte{0x7f},
		},
		{
			name: "alt+x gets ESC prefix",
			msg:  tea.KeyPressMsg{Code: 'x', Mod: tea.ModAlt},
			want: []byte{0x1b, 'x'},
		},
		{
			name: "alt+backspace",
			msg:  tea.KeyPressMsg{Code: tea.KeyBackspace, Mod: tea.ModAlt},
			want: []byte{0x1b, 0x7f},
		},
		{
			name: "up arrow normal mode",
			msg:  tea.KeyPressMsg{Code: tea.KeyUp},
			want: []byte("\x1b[A"),
		},
		{
			name:      "up arrow application mode",
			msg:       tea.KeyPressMsg{Code: tea.KeyUp},
			appCursor: true,
			want:      []byte("\x1bOA"),
		},
		{
			name:      "home application mode",
			msg:       tea.KeyPressMsg{Code: tea.KeyHome},
			appCursor: true,
			want:      []byte("\x1bOH"),
		},
		{
			name: "end normal mode",
			msg:  tea.KeyPressMsg{Code: tea.KeyEnd},
			want: []byte("\x1b[F"),
		},
		{
			name: "ctrl+right",
			msg:  tea.KeyPressMsg{Code: tea.KeyRight, Mod: tea.ModCtrl},
			want: []byte("\x1b[1;5C"),
		},
		{
			name: "shift+alt+up",
			msg:  tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModShift | tea.ModAlt},
			want: []byte("\x1b[1;4A"),
		},
		{
			name:      "modified arrow ignores application mode",
			msg:       tea.KeyPressMsg{Code: tea.KeyUp, Mod: tea.ModCtrl},
			appCursor: true,
			want:      []byte("\x1b[1;5A"),
		},
		{
			name: "delete",
			msg:  tea.KeyPressMsg{Code: tea.KeyDelete},
			want: []byte("\x1b[3~"),
		},
		{
			name: "ctrl+delete",
			msg:  tea.KeyPressMsg{Code: tea.KeyDelete, Mod: tea.ModCtrl},
			want: []byte("\x1b[3;5~"),
		},
		{
			name: "insert",
			msg:  tea.KeyPressMsg{Code: tea.KeyInsert},
			want: []byte("\x1b[2~"),
		},
		{
			name: "page up",
			msg:  tea.KeyPressMsg{Code: tea.KeyPgUp},
			want: []byte("\x1b[5~"),
		},
		{
			name: "shift+page down",
			msg:  tea.KeyPressMsg{Code: tea.KeyPgDown, Mod: tea.ModShift},
			want: []byte("\x1b[6;2~"),
		},
		{
			name: "f1 uses SS3",
			msg:  tea.KeyPressMsg{Code: tea.KeyF1},
			want: []byte("\x1bOP"),
		},
		{
			name: "f4 uses SS3",
			msg:  tea.KeyPressMsg{Code: tea.KeyF4},
			want: []byte("\x1bOS"),
		},
		{
			name: "shift+f1 switches to CSI",
			msg:  tea.KeyPressMsg{Code: tea.KeyF1, Mod: tea.ModShift},
			want: []byte("\x1b[1;2P"),
		},
		{
			name: "f5",
			msg:  tea.KeyPressMsg{Code: tea.KeyF5},
			want: []byte("\x1b[15~"),
		},
		{
			name: "ctrl+f12",
			msg:  tea.KeyPressMsg{Code: tea.KeyF12, Mod: tea.ModCtrl},
			want: []byte("\x1b[24;5~"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeKey(tt.msg, tt.appCursor)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("encodeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModParam(t *testing.T) {
	tests := []struct {
		mod  tea.KeyMod
		want int
	}{
		{0, 1},
		{tea.ModShift, 2},
		{tea.ModAlt, 3},
		{tea.ModShift | tea.ModAlt, 4},
		{tea.ModCtrl, 5},
		{tea.ModShift | tea.ModCtrl, 6},
		{tea.ModAlt | tea.ModCtrl, 7},
		{tea.ModShift | tea.ModAlt | tea.ModCtrl, 8},
	}

	for _, tt := range tests {
		if got := modParam(tt.mod); got != tt.want {
			t.Errorf("modParam(%v) = %d, want %d", tt.mod, got, tt.want)
		}
	}
}
