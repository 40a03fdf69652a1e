package terminal

import "os"

// resetSequence restores the host terminal: full reset, mouse tracking
// and focus reporting off, SGR mouse encoding off, cursor shown, alt
// screen left, attributes cleared.
const resetSequence = "\033c" +
	"\033[?1000l" +
	"\033[?1002l" +
	"\033[?1003l" +
	"\033[?1004l" +
	"\033[?1006l" +
	"\033[?25h" +
	"\033[?47l" +
	"\033[0m" +
	"\r\n"

// ResetTerminal returns the host terminal to a clean state. Called on
// exit paths where the TUI framework may not have restored everything,
// such as after a panic or a forced shutdown.
func ResetTerminal() {
	_, _ = os.Stdout.WriteString(resetSequence)
	_ = os.Stdout.Sync()
}
