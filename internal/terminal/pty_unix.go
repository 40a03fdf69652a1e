//go:build !windows

package terminal

import (
	"os/exec"
	"syscall"
)

// configurePTYCommand makes the PTY the controlling terminal of the
// child. Shells like fish refuse job control without one. Ctty is the
// FD number in the child (0 = stdin, which xpty wires to the PTY
// slave).
func configurePTYCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}
}
