//go:build !windows

package terminal

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// TriggerRedraw nudges the child to repaint after a resize by sending
// SIGWINCH. Some applications miss the size change the PTY delivers and
// only react to the signal.
func (s *Session) TriggerRedraw() {
	// Delay slightly so the PTY resize has completed before the signal
	// arrives.
	go func() {
		time.Sleep(20 * time.Millisecond)

		s.ioMu.RLock()
		var process *os.Process
		if s.Cmd != nil {
			process = s.Cmd.Process
		}
		s.ioMu.RUnlock()

		if process != nil {
			_ = process.Signal(os.Signal(unix.SIGWINCH)) // Best effort
		}
	}()
}
