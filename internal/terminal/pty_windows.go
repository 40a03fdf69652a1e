//go:build windows

package terminal

import "os/exec"

// configurePTYCommand is a no-op on Windows: ConPTY wires the terminal
// up itself, no SysProcAttr setup needed.
func configurePTYCommand(_ *exec.Cmd) {}
