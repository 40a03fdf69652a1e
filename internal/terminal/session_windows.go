//go:build windows

package terminal

// TriggerRedraw is a no-op on Windows: ConPTY propagates resizes to the
// child itself, there is no SIGWINCH to deliver.
func (s *Session) TriggerRedraw() {}
