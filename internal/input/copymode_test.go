package input

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/Gaurav-Gosain/tinyvt/internal/app"
	"github.com/Gaurav-Gosain/tinyvt/internal/terminal"
	"github.com/Gaurav-Gosain/tinyvt/internal/vt"
)

// newCopySession builds a detached session around a bare emulator, no
// PTY or child process, feeds it one line per string and enters copy
// mode.
func newCopySession(cols, rows int, lines []string) *terminal.Session {
	em := vt.NewEmulator(vt.Config{Cols: cols, Rows: rows, ScrollbackLines: 100})
	for i, line := range lines {
		if i > 0 {
			em.Feed([]byte("\r\n"))
		}
		em.Feed([]byte(line))
	}
	s := &terminal.Session{
		Terminal:   em,
		Width:      cols,
		Height:     rows,
		WrapSearch: true,
	}
	s.EnterCopyMode()
	return s
}

// =============================================================================
// Cursor Motion Tests
// =============================================================================

func TestMoveCopyCursorMotions(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		startX int
		startY int
		wantX  int
		wantY  int
	}{
		{"h at left edge stays", "h", 0, 0, 0, 0},
		{"h moves left", "h", 3, 0, 2, 0},
		{"l moves right", "l", 0, 0, 1, 0},
		{"l at right edge stays", "l", 9, 0, 9, 0},
		{"j moves down", "j", 0, 0, 0, 1},
		{"k at top stays without scrollback", "k", 2, 0, 2, 0},
		{"k moves up", "k", 2, 3, 2, 2},
		{"0 jumps to column zero", "0", 5, 1, 0, 1},
		{"caret jumps to first non-blank", "^", 5, 1, 2, 1},
		{"dollar jumps to last non-blank", "$", 0, 0, 4, 0},
		{"H jumps to viewport top", "H", 3, 2, 3, 0},
		{"M jumps to viewport middle", "M", 3, 0, 3, 2},
		{"L jumps to viewport bottom", "L", 3, 0, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newCopySession(10, 4, []string{"alpha", "  beta", "gamma", "delta"})
			cm := s.CopyMode
			cm.CursorX, cm.CursorY = tt.startX, tt.startY
			if !moveCopyCursor(tt.key, s, cm) {
				t.Fatalf("moveCopyCursor(%q) not handled", tt.key)
			}
			if cm.CursorX != tt.wantX || cm.CursorY != tt.wantY {
				t.Errorf("cursor = (%d,%d), want (%d,%d)",
					cm.CursorX, cm.CursorY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMoveCopyCursorRejectsNonMotions(t *testing.T) {
	s := newCopySession(10, 4, []string{"alpha"})
	if moveCopyCursor("q", s, s.CopyMode) {
		t.Error("q is not a motion")
	}
}

func TestWordMotions(t *testing.T) {
	// Columns: f(0) o o _ b(4) a r ,(7) _ b(9) a z(11)
	tests := []struct {
		name  string
		key   string
		start int
		want  int
	}{
		{"w to next word", "w", 0, 4},
		{"w stops on punctuation", "w", 4, 7},
		{"w from punctuation to word", "w", 7, 9},
		{"b to start of word", "b", 11, 9},
		{"b over space onto punctuation", "b", 9, 7},
		{"e to end of word", "e", 0, 2},
		{"e skips space to next end", "e", 2, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newCopySession(20, 4, []string{"foo bar, baz"})
			cm := s.CopyMode
			cm.CursorX, cm.CursorY = tt.start, 0
			if !moveCopyCursor(tt.key, s, cm) {
				t.Fatalf("moveCopyCursor(%q) not handled", tt.key)
			}
			if cm.CursorX != tt.want || cm.CursorY != 0 {
				t.Errorf("cursor = (%d,%d), want (%d,0)", cm.CursorX, cm.CursorY, tt.want)
			}
		})
	}
}

func TestWordForwardWrapsToNextRow(t *testing.T) {
	s := newCopySession(10, 4, []string{"one", "two"})
	cm := s.CopyMode
	cm.CursorX, cm.CursorY = 0, 0

	moveWordForward(s, cm)
	if cm.CursorX != 0 || cm.CursorY != 1 {
		t.Errorf("cursor = (%d,%d), want (0,1)", cm.CursorX, cm.CursorY)
	}
}

func TestCountPrefix(t *testing.T) {
	s := newCopySession(10, 8, []string{"a", "b", "c", "d", "e", "f", "g", "h"})
	cm := s.CopyMode
	cm.CursorX, cm.CursorY = 0, 0
	a := &app.App{Session: s}

	press := func(r rune) {
		handleNavigationKey(tea.KeyPressMsg{Code: r, Text: string(r)}, a, s, cm)
	}

	press('3')
	press('0')
	if cm.PendingCount != 30 {
		t.Fatalf("PendingCount = %d, want 30", cm.PendingCount)
	}

	// The count applies to the next motion and then resets. 30j clamps
	// at the bottom of the buffer.
	press('j')
	if cm.CursorY != 7 {
		t.Errorf("CursorY = %d, want 7", cm.CursorY)
	}
	if cm.PendingCount != 0 {
		t.Errorf("PendingCount = %d, want 0 after motion", cm.PendingCount)
	}

	// A leading zero is the start-of-line motion, not a count
	cm.CursorX = 5
	press('0')
	if cm.CursorX != 0 {
		t.Errorf("CursorX = %d, want 0", cm.CursorX)
	}
	if cm.PendingCount != 0 {
		t.Errorf("PendingCount = %d, want 0", cm.PendingCount)
	}
}

func TestEscapeExitsWithoutBinding(t *testing.T) {
	s := newCopySession(10, 4, []string{"alpha"})
	cm := s.CopyMode
	a := &app.App{Session: s, InteractionMode: true}

	// No registry configured: esc still leaves copy mode
	handleNavigationKey(tea.KeyPressMsg{Code: tea.KeyEscape}, a, s, cm)
	if cm.Active {
		t.Error("esc should exit copy mode")
	}
	if a.InteractionMode {
		t.Error("esc should return input to the child")
	}
}

// =============================================================================
// Visual Selection Tests
// =============================================================================

func TestVisualSelection(t *testing.T) {
	s := newCopySession(10, 4, []string{"abcdef", "ghijkl"})
	cm := s.CopyMode
	a := &app.App{Session: s}
	cm.CursorX, cm.CursorY = 1, 0

	if _, _, ok := runCopyAction("visual", a, s, cm, 1); !ok {
		t.Fatal("visual action not handled")
	}
	if cm.State != terminal.CopyModeVisualChar {
		t.Fatalf("State = %v, want CopyModeVisualChar", cm.State)
	}
	if got := s.Terminal.SelectedText(); got != "b" {
		t.Errorf("SelectedText() = %q, want %q", got, "b")
	}

	cm.CursorX = 4
	updateVisualSelection(s, cm)
	if got := s.Terminal.SelectedText(); got != "bcde" {
		t.Errorf("SelectedText() = %q, want %q", got, "bcde")
	}

	// V from v keeps the anchor and widens to whole rows
	runCopyAction("visual_line", a, s, cm, 1)
	if cm.State != terminal.CopyModeVisualLine {
		t.Fatalf("State = %v, want CopyModeVisualLine", cm.State)
	}
	cm.CursorY = 1
	updateVisualSelection(s, cm)
	if got := s.Terminal.SelectedText(); got != "abcdef\nghijkl" {
		t.Errorf("SelectedText() = %q, want %q", got, "abcdef\nghijkl")
	}

	// Pressing V again drops back to normal and clears the selection
	runCopyAction("visual_line", a, s, cm, 1)
	if cm.State != terminal.CopyModeNormal {
		t.Errorf("State = %v, want CopyModeNormal", cm.State)
	}
	if got := s.Terminal.SelectedText(); got != "" {
		t.Errorf("SelectedText() = %q, want empty after toggle off", got)
	}
}

func TestExitStepsOutOfVisualFirst(t *testing.T) {
	s := newCopySession(10, 4, []string{"abc"})
	cm := s.CopyMode
	a := &app.App{Session: s, InteractionMode: true}

	runCopyAction("visual", a, s, cm, 1)
	runCopyAction("exit", a, s, cm, 1)
	if cm.State != terminal.CopyModeNormal || !cm.Active {
		t.Fatal("first exit should leave visual state but stay in copy mode")
	}
	if _, ok := s.Terminal.Selection(); ok {
		t.Error("selection should be cleared on leaving visual state")
	}

	runCopyAction("exit", a, s, cm, 1)
	if cm.Active {
		t.Error("second exit should leave copy mode")
	}
	if a.InteractionMode {
		t.Error("exit should return input to the child")
	}
}

func TestCopyAction(t *testing.T) {
	s := newCopySession(10, 4, []string{"hello"})
	cm := s.CopyMode
	a := &app.App{Session: s, InteractionMode: true}

	// Nothing selected: stay in copy mode, no clipboard write
	_, cmd, ok := runCopyAction("copy", a, s, cm, 1)
	if !ok {
		t.Fatal("copy action not handled")
	}
	if cmd != nil || !cm.Active {
		t.Error("copy with no selection should be a no-op")
	}

	s.Terminal.SetSelection(vt.Position{X: 0, Y: 0}, vt.Position{X: 4, Y: 0})
	_, cmd, _ = runCopyAction("copy", a, s, cm, 1)
	if cmd == nil {
		t.Error("copy should emit a clipboard command")
	}
	if cm.Active {
		t.Error("copy should leave copy mode")
	}
	if a.InteractionMode {
		t.Error("copy should return input to the child")
	}
	if len(a.Notifications) != 1 {
		t.Errorf("got %d notifications, want 1", len(a.Notifications))
	}
}

// =============================================================================
// Search Tests
// =============================================================================

func searchLines() []string {
	// Four visible rows; the first two lines scroll into history.
	// "foo" sits at absolute rows 0 (x=3), 2 (x=0) and 5 (x=0).
	return []string{"xx foo", "yy", "foo bar", "zz", "oo", "foo"}
}

func TestSearchMatchStepping(t *testing.T) {
	s := newCopySession(10, 4, searchLines())
	if got := s.Terminal.ScrollbackLen(); got != 2 {
		t.Fatalf("ScrollbackLen() = %d, want 2", got)
	}
	cm := s.CopyMode

	if collectMatches(s.Terminal, "") != nil {
		t.Error("empty query should match nothing")
	}

	cm.SearchQuery = "foo"
	cm.CursorX, cm.CursorY, cm.ScrollOffset = 0, 3, 0 // bottom row
	runSearch(s, cm)

	if len(cm.Matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(cm.Matches))
	}
	// Nearest forward match is on the cursor row itself
	if cm.CurrentMatch != 2 {
		t.Fatalf("CurrentMatch = %d, want 2", cm.CurrentMatch)
	}
	if cm.CursorX != 0 || cm.CursorY != 3 {
		t.Errorf("cursor = (%d,%d), want (0,3)", cm.CursorX, cm.CursorY)
	}

	// n past the last match wraps to the first, up in scrollback
	stepMatch(s, cm, 1)
	if cm.CurrentMatch != 0 {
		t.Fatalf("CurrentMatch = %d, want 0 after wrap", cm.CurrentMatch)
	}
	if cm.ScrollOffset != 2 || cm.CursorX != 3 || cm.CursorY != 0 {
		t.Errorf("offset=%d cursor=(%d,%d), want offset=2 cursor=(3,0)",
			cm.ScrollOffset, cm.CursorX, cm.CursorY)
	}

	// N before the first wraps to the last
	stepMatch(s, cm, -1)
	if cm.CurrentMatch != 2 {
		t.Errorf("CurrentMatch = %d, want 2 after backward wrap", cm.CurrentMatch)
	}

	s.WrapSearch = false
	stepMatch(s, cm, 1)
	if cm.CurrentMatch != 2 {
		t.Errorf("CurrentMatch = %d, want 2 with wraparound off", cm.CurrentMatch)
	}
}

func TestStepMatchFollowsSearchDirection(t *testing.T) {
	s := newCopySession(10, 4, searchLines())
	cm := s.CopyMode
	cm.Matches = collectMatches(s.Terminal, "foo")
	cm.SearchBackward = true
	cm.CurrentMatch = 1

	// In a backward search, n walks toward older rows
	stepMatch(s, cm, 1)
	if cm.CurrentMatch != 0 {
		t.Errorf("CurrentMatch = %d, want 0", cm.CurrentMatch)
	}

	// With no current match yet, n starts from the nearest end
	cm.CurrentMatch = -1
	cm.SearchBackward = false
	stepMatch(s, cm, 1)
	if cm.CurrentMatch != 0 {
		t.Errorf("CurrentMatch = %d, want 0 from unanchored step", cm.CurrentMatch)
	}
}

func TestBackwardSearchPicksPrecedingMatch(t *testing.T) {
	s := newCopySession(10, 4, searchLines())
	cm := s.CopyMode
	cm.SearchBackward = true
	cm.SearchQuery = "foo"
	cm.CursorX, cm.CursorY, cm.ScrollOffset = 0, 1, 0 // absolute row 3
	runSearch(s, cm)
	if cm.CurrentMatch != 1 {
		t.Errorf("CurrentMatch = %d, want 1", cm.CurrentMatch)
	}

	// From the top of the buffer every match is ahead; wrap to the last
	cm.CursorX, cm.CursorY, cm.ScrollOffset = 0, 0, 2
	runSearch(s, cm)
	if cm.CurrentMatch != 2 {
		t.Errorf("CurrentMatch = %d, want 2 after wrap", cm.CurrentMatch)
	}
}

func TestSearchIgnoreCase(t *testing.T) {
	s := newCopySession(10, 4, []string{"Foo", "fOO bar"})
	cm := s.CopyMode

	cm.SearchQuery = "foo"
	cm.CursorX, cm.CursorY, cm.ScrollOffset = 0, 0, 0
	runSearch(s, cm)
	if len(cm.Matches) != 0 {
		t.Fatalf("case-sensitive search found %d matches, want 0", len(cm.Matches))
	}

	s.SearchIgnoreCase = true
	runSearch(s, cm)
	if len(cm.Matches) != 2 {
		t.Fatalf("folded search found %d matches, want 2", len(cm.Matches))
	}
	if m := cm.Matches[0]; m.Line != 0 || m.StartX != 0 || m.EndX != 2 {
		t.Errorf("match[0] = %+v, want row 0 cols 0-2", m)
	}
	if cm.CurrentMatch != 0 {
		t.Errorf("CurrentMatch = %d, want 0", cm.CurrentMatch)
	}
}

func TestSearchInputEditing(t *testing.T) {
	s := newCopySession(10, 4, searchLines())
	cm := s.CopyMode
	a := &app.App{Session: s}

	openSearch(s, cm, false)
	if cm.State != terminal.CopyModeSearch {
		t.Fatalf("State = %v, want CopyModeSearch", cm.State)
	}

	cm.CursorX, cm.CursorY, cm.ScrollOffset = 0, 0, 2 // top of the buffer
	for _, r := range "foo" {
		handleSearchInput(tea.KeyPressMsg{Code: r, Text: string(r)}, a, s, cm)
	}
	if cm.SearchQuery != "foo" {
		t.Fatalf("SearchQuery = %q, want %q", cm.SearchQuery, "foo")
	}
	if len(cm.Matches) != 3 || cm.CurrentMatch != 0 {
		t.Errorf("matches=%d current=%d, want 3 and 0", len(cm.Matches), cm.CurrentMatch)
	}

	handleSearchInput(tea.KeyPressMsg{Code: tea.KeyBackspace}, a, s, cm)
	if cm.SearchQuery != "fo" {
		t.Errorf("SearchQuery = %q, want %q", cm.SearchQuery, "fo")
	}

	handleSearchInput(tea.KeyPressMsg{Code: tea.KeyEscape}, a, s, cm)
	if cm.State != terminal.CopyModeNormal || cm.SearchQuery != "" || cm.Matches != nil {
		t.Error("escape should abandon the search")
	}

	// Backspace removes whole runes, not bytes
	openSearch(s, cm, false)
	handleSearchInput(tea.KeyPressMsg{Code: 'é', Text: "é"}, a, s, cm)
	handleSearchInput(tea.KeyPressMsg{Code: tea.KeyBackspace}, a, s, cm)
	if cm.SearchQuery != "" {
		t.Errorf("SearchQuery = %q, want empty after rune backspace", cm.SearchQuery)
	}
}

func TestSearchEnterWithNoMatches(t *testing.T) {
	s := newCopySession(10, 4, []string{"plain text"})
	cm := s.CopyMode
	a := &app.App{Session: s}

	openSearch(s, cm, false)
	handleSearchInput(tea.KeyPressMsg{Code: 'q', Text: "q"}, a, s, cm)
	handleSearchInput(tea.KeyPressMsg{Code: tea.KeyEnter}, a, s, cm)
	if cm.State != terminal.CopyModeNormal {
		t.Errorf("State = %v, want CopyModeNormal", cm.State)
	}
	if len(a.Notifications) != 1 {
		t.Errorf("got %d notifications, want a no-match warning", len(a.Notifications))
	}
}

// =============================================================================
// Scroll Tests
// =============================================================================

func TestScrollNavigation(t *testing.T) {
	s := newCopySession(10, 4, []string{"l0", "l1", "l2", "l3", "l4", "l5"})
	cm := s.CopyMode

	moveToTop(s, cm)
	if cm.ScrollOffset != 2 || cm.CursorX != 0 || cm.CursorY != 0 {
		t.Fatalf("offset=%d cursor=(%d,%d), want offset=2 cursor=(0,0)",
			cm.ScrollOffset, cm.CursorX, cm.CursorY)
	}
	if got := absoluteY(s, cm); got != 0 {
		t.Errorf("absoluteY() = %d, want 0 at top", got)
	}

	moveToBottom(s, cm)
	if cm.ScrollOffset != 0 || cm.CursorY != 3 {
		t.Fatalf("offset=%d CursorY=%d, want offset=0 CursorY=3",
			cm.ScrollOffset, cm.CursorY)
	}

	// Moving up scrolls once the cursor reaches the middle of the view
	moveUp(s, cm)
	moveUp(s, cm)
	if cm.CursorY != 2 || cm.ScrollOffset != 1 {
		t.Errorf("CursorY=%d offset=%d, want CursorY=2 offset=1",
			cm.CursorY, cm.ScrollOffset)
	}

	// Direct placement scrolls the viewport to reach rows outside it
	setCursorAbs(s, cm, 1, 5)
	if cm.ScrollOffset != 0 || cm.CursorX != 1 || cm.CursorY != 3 {
		t.Errorf("offset=%d cursor=(%d,%d), want offset=0 cursor=(1,3)",
			cm.ScrollOffset, cm.CursorX, cm.CursorY)
	}
}
