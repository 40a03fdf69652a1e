package vt

// Event is a notable occurrence produced while feeding bytes to the
// emulator. Feed returns the events raised by the chunk it consumed, in
// order, so the surrounding layer can react (retitle the window, ring the
// bell, answer a query) without registering callbacks.
type Event interface {
	isEvent()
}

// TitleEvent is raised when the child sets the window title (OSC 0/2).
type TitleEvent struct {
	Title string
}

// IconNameEvent is raised when the child sets the icon name (OSC 0/1).
type IconNameEvent struct {
	Name string
}

// BellEvent is raised for each BEL received in ground state.
type BellEvent struct{}

// ResponseEvent carries bytes the emulator owes the child process, such
// as cursor position reports and device attribute replies. The caller is
// responsible for writing them back to the pty.
type ResponseEvent struct {
	Data []byte
}

// ClipboardEvent is raised when the child writes the clipboard via
// OSC 52. Text is the decoded payload.
type ClipboardEvent struct {
	Text string
}

func (TitleEvent) isEvent()     {}
func (IconNameEvent) isEvent()  {}
func (BellEvent) isEvent()      {}
func (ResponseEvent) isEvent()  {}
func (ClipboardEvent) isEvent() {}
