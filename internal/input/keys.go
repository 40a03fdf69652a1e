// Package input translates host input events into the byte sequences a
// child terminal expects on its PTY, and drives copy mode: vim-style
// scrollback navigation, selection and search.
package input

import (
	"strconv"

	tea "charm.land/bubbletea/v2"
)

// encodeKey converts a key press into the bytes to write to the child
// PTY. appCursor selects SS3 encoding for the cursor keys, which is
// what DECCKM application mode asks for.
func encodeKey(msg tea.KeyPressMsg, appCursor bool) []byte {
	key := msg.Key()

	if key.Mod != 0 {
		if key.Mod&tea.ModCtrl != 0 {
			if b, ok := controlBytes(key.Code); ok {
				return b
			}
		}
		if key.Mod&tea.ModAlt != 0 {
			if b := escPrefixBytes(key); b != nil {
				return b
			}
		}
		if b := modifiedSpecialBytes(key); b != nil {
			return b
		}
	}

	switch key.Code {
	case tea.KeyEnter:
		return []byte{'\r'}
	case tea.KeyTab:
		return []byte{'\t'}
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyEscape:
		return []byte{0x1b}
	case tea.KeySpace:
		return []byte{' '}
	case tea.KeyInsert:
		return tildeSequence(2, 1)
	case tea.KeyDelete:
		return tildeSequence(3, 1)
	case tea.KeyPgUp:
		return tildeSequence(5, 1)
	case tea.KeyPgDown:
		return tildeSequence(6, 1)
	}

	if final := cursorFinal(key.Code); final != 0 {
		intro := byte('[')
		if appCursor {
			intro = 'O'
		}
		return []byte{0x1b, intro, final}
	}

	if seq := functionKeySequence(key.Code, 1); seq != nil {
		return seq
	}

	// Key.Text carries the produced text, covering shifted keys and
	// anything outside ASCII.
	if key.Text != "" {
		return []byte(key.Text)
	}
	if key.Code >= 32 && key.Code <= 126 {
		return []byte{byte(key.Code)}
	}
	return nil
}

// controlBytes maps a ctrl combination onto its C0 control code.
func controlBytes(code rune) ([]byte, bool) {
	switch code {
	case tea.KeySpace, '@':
		return []byte{0x00}, true
	case tea.KeyBackspace:
		return []byte{0x08}, true
	case tea.KeyTab:
		return []byte{0x09}, true
	case tea.KeyEnter:
		return []byte{0x0a}, true
	case tea.KeyEscape, '[':
		return []byte{0x1b}, true
	case '\\':
		return []byte{0x1c}, true
	case ']':
		return []byte{0x1d}, true
	case '^':
		return []byte{0x1e}, true
	case '_':
		return []byte{0x1f}, true
	case '?':
		return []byte{0x7f}, true
	}
	switch {
	case code >= 'a' && code <= 'z':
		return []byte{byte(code-'a') + 1}, true
	case code >= 'A' && code <= 'Z':
		return []byte{byte(code-'A') + 1}, true
	}
	return nil, false
}

// escPrefixBytes renders an alt combination as ESC plus the base key.
// Returns nil for keys that need CSI modifier encoding instead.
func escPrefixBytes(key tea.Key) []byte {
	if key.Code == tea.KeyBackspace {
		return []byte{0x1b, 0x7f}
	}
	if key.Code == tea.KeyEnter {
		return []byte{0x1b, '\r'}
	}
	if key.Text != "" && len(key.Text) == 1 {
		return []byte{0x1b, key.Text[0]}
	}
	if key.Code >= 32 && key.Code <= 126 {
		return []byte{0x1b, byte(key.Code)}
	}
	return nil
}

// modifiedSpecialBytes renders cursor, edit and function keys carrying
// a CSI modifier parameter (1 + shift:1 + alt:2 + ctrl:4).
func modifiedSpecialBytes(key tea.Key) []byte {
	mod := modParam(key.Mod)
	if mod <= 1 {
		return nil
	}
	if final := cursorFinal(key.Code); final != 0 {
		return []byte{0x1b, '[', '1', ';', byte('0' + mod), final}
	}
	switch key.Code {
	case tea.KeyInsert:
		return tildeSequence(2, mod)
	case tea.KeyDelete:
		return tildeSequence(3, mod)
	case tea.KeyPgUp:
		return tildeSequence(5, mod)
	case tea.KeyPgDown:
		return tildeSequence(6, mod)
	}
	return functionKeySequence(key.Code, mod)
}

// modParam is the xterm modifier parameter for CSI sequences.
func modParam(mod tea.KeyMod) int {
	p := 1
	if mod&tea.ModShift != 0 {
		p++
	}
	if mod&tea.ModAlt != 0 {
		p += 2
	}
	if mod&tea.ModCtrl != 0 {
		p += 4
	}
	return p
}

// cursorFinal returns the final byte of a cursor key sequence, or 0 for
// anything that is not a cursor key. Home and End ride along because
// they share the encoding.
func cursorFinal(code rune) byte {
	switch code {
	case tea.KeyUp:
		return 'A'
	case tea.KeyDown:
		return 'B'
	case tea.KeyRight:
		return 'C'
	case tea.KeyLeft:
		return 'D'
	case tea.KeyHome:
		return 'H'
	case tea.KeyEnd:
		return 'F'
	}
	return 0
}

// functionKeySequence encodes F1-F12. F1-F4 use SS3 finals unless a
// modifier forces the CSI form; F5-F12 use CSI tilde numbers.
func functionKeySequence(code rune, mod int) []byte {
	if code >= tea.KeyF1 && code <= tea.KeyF4 {
		final := byte('P') + byte(code-tea.KeyF1)
		if mod > 1 {
			return []byte{0x1b, '[', '1', ';', byte('0' + mod), final}
		}
		return []byte{0x1b, 'O', final}
	}

	var num int
	switch code {
	case tea.KeyF5:
		num = 15
	case tea.KeyF6:
		num = 17
	case tea.KeyF7:
		num = 18
	case tea.KeyF8:
		num = 19
	case tea.KeyF9:
		num = 20
	case tea.KeyF10:
		num = 21
	case tea.KeyF11:
		num = 23
	case tea.KeyF12:
		num = 24
	default:
		return nil
	}
	return tildeSequence(num, mod)
}

// tildeSequence builds ESC[{num}~, with the modifier parameter spliced
// in when present.
func tildeSequence(num, mod int) []byte {
	seq := append([]byte{0x1b, '['}, strconv.Itoa(num)...)
	if mod > 1 {
		seq = append(seq, ';', byte('0'+mod))
	}
	return append(seq, '~')
}
