package vt

import (
	"testing"
)

func newTestEmulator(cols, rows, scrollback int) *Emulator {
	cfg := DefaultConfig()
	cfg.Cols = cols
	cfg.Rows = rows
	cfg.ScrollbackLines = scrollback
	return NewEmulator(cfg)
}

func cellContent(t *testing.T, e *Emulator, x, y int) string {
	t.Helper()
	c := e.CellAt(x, y)
	if c == nil {
		t.Fatalf("CellAt(%d, %d) returned nil", x, y)
	}
	return c.Content
}

// TestPrintEcho tests that plain printable bytes land on the grid in order
func TestPrintEcho(t *testing.T) {
	e := newTestEmulator(80, 24, 0)
	e.Feed([]byte("hello"))

	want := "hello"
	for i, r := range want {
		if got := cellContent(t, e, i, 0); got != string(r) {
			t.Errorf("Cell %d: expected %q, got %q", i, string(r), got)
		}
	}
	if pos := e.CursorPosition(); pos.X != 5 || pos.Y != 0 {
		t.Errorf("Expected cursor at (5, 0), got (%d, %d)", pos.X, pos.Y)
	}
}

// TestAutowrap tests deferred wrapping and the soft-wrap row flag
func TestAutowrap(t *testing.T) {
	e := newTestEmulator(5, 3, 0)
	e.Feed([]byte("abcde"))

	// The cursor parks on the last column until the next printable.
	if pos := e.CursorPosition(); pos.X != 4 || pos.Y != 0 {
		t.Fatalf("Expected cursor parked at (4, 0), got (%d, %d)", pos.X, pos.Y)
	}
	if e.RowWrapped(0) {
		t.Error("Row 0 should not be marked wrapped before the wrap happens")
	}

	e.Feed([]byte("f"))
	if !e.RowWrapped(0) {
		t.Error("Row 0 should be marked wrapped after overflowing")
	}
	if got := cellContent(t, e, 0, 1); got != "f" {
		t.Errorf("Expected %q at (0, 1), got %q", "f", got)
	}
	if pos := e.CursorPosition(); pos.X != 1 || pos.Y != 1 {
		t.Errorf("Expected cursor at (1, 1), got (%d, %d)", pos.X, pos.Y)
	}
}

// TestAutowrapDisabled tests that without DECAWM the last column is overwritten
func TestAutowrapDisabled(t *testing.T) {
	e := newTestEmulator(5, 3, 0)
	e.Feed([]byte("\x1b[?7labcdefg"))

	if got := e.VisibleText(); got != "abcdg" {
		t.Errorf("Expected %q, got %q", "abcdg", got)
	}
	if e.RowWrapped(0) {
		t.Error("Row should never wrap with autowrap disabled")
	}
}

// TestPendingWrapCanceled tests that CR and cursor movement cancel a pending wrap
func TestPendingWrapCanceled(t *testing.T) {
	e := newTestEmulator(5, 3, 0)
	e.Feed([]byte("abcde\rX"))

	if got := e.VisibleText(); got != "Xbcde" {
		t.Errorf("Expected %q, got %q", "Xbcde", got)
	}
	if e.RowWrapped(0) {
		t.Error("Canceled wrap should not mark the row wrapped")
	}
}

// TestUTF8AcrossFeeds tests multi-byte characters split over Feed calls
func TestUTF8AcrossFeeds(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	e.Feed([]byte{0xe4})
	e.Feed([]byte{0xb8})
	e.Feed([]byte{0xad}) // 中

	c := e.CellAt(0, 0)
	if c.Content != "中" || c.Width != 2 {
		t.Errorf("Expected wide cell %q width 2, got %q width %d", "中", c.Content, c.Width)
	}
	if cont := e.CellAt(1, 0); cont.Width != 0 {
		t.Errorf("Expected continuation cell at (1, 0), got width %d", cont.Width)
	}
	if pos := e.CursorPosition(); pos.X != 2 {
		t.Errorf("Expected cursor at column 2, got %d", pos.X)
	}
}

// TestInvalidUTF8 tests that undecodable bytes degrade to the replacement rune
func TestInvalidUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []string
	}{
		{"StrayContinuation", []byte{0x80, 'A'}, []string{"�", "A"}},
		{"TruncatedSequence", []byte{0xe4, 'A'}, []string{"�", "A"}},
		{"ImpossibleByte", []byte{0xff}, []string{"�"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(10, 3, 0)
			e.Feed(tt.input)
			for i, want := range tt.want {
				if got := cellContent(t, e, i, 0); got != want {
					t.Errorf("Cell %d: expected %q, got %q", i, want, got)
				}
			}
		})
	}
}

// TestCombiningMark tests that zero-width runes attach to the previous cell
func TestCombiningMark(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	e.Feed([]byte("éx"))

	if got := cellContent(t, e, 0, 0); got != "é" {
		t.Errorf("Expected combined cell %q, got %q", "é", got)
	}
	if got := cellContent(t, e, 1, 0); got != "x" {
		t.Errorf("Expected %q at column 1, got %q", "x", got)
	}
}

// TestCombiningMarkAtWrap tests combining input while a wrap is pending
func TestCombiningMarkAtWrap(t *testing.T) {
	e := newTestEmulator(3, 2, 0)
	e.Feed([]byte("abe"))
	e.Feed([]byte("́"))

	if got := cellContent(t, e, 2, 0); got != "é" {
		t.Errorf("Expected combined cell %q at the margin, got %q", "é", got)
	}
}

// TestWideCharAtMargin tests early wrapping of a wide character that cannot fit
func TestWideCharAtMargin(t *testing.T) {
	e := newTestEmulator(5, 3, 0)
	e.Feed([]byte("abcd中"))

	if !e.RowWrapped(0) {
		t.Error("Row 0 should wrap when the wide character does not fit")
	}
	if got := cellContent(t, e, 0, 1); got != "中" {
		t.Errorf("Expected %q at (0, 1), got %q", "中", got)
	}
	if c := e.CellAt(4, 0); c.Content != " " {
		t.Errorf("Expected the unfillable margin cell blanked, got %q", c.Content)
	}
}

// TestControlCharacters tests BS, HT, CR and LF
func TestControlCharacters(t *testing.T) {
	e := newTestEmulator(20, 5, 0)

	e.Feed([]byte("ab\bX"))
	if got := e.VisibleText(); got != "aX" {
		t.Errorf("Backspace: expected %q, got %q", "aX", got)
	}

	e.Feed([]byte("\r\n\tT"))
	if got := cellContent(t, e, 8, 1); got != "T" {
		t.Errorf("Tab: expected %q at column 8, got %q", "T", got)
	}
}

// TestBellEvent tests that BEL produces an event without touching the grid
func TestBellEvent(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	events := e.Feed([]byte("a\x07b"))

	bells := 0
	for _, ev := range events {
		if _, ok := ev.(BellEvent); ok {
			bells++
		}
	}
	if bells != 1 {
		t.Errorf("Expected 1 bell event, got %d", bells)
	}
	if got := e.VisibleText(); got != "ab" {
		t.Errorf("Expected %q, got %q", "ab", got)
	}
}

// TestCSISplitAcrossFeeds tests that sequences survive chunk boundaries
func TestCSISplitAcrossFeeds(t *testing.T) {
	e := newTestEmulator(20, 5, 0)
	e.Feed([]byte("\x1b"))
	e.Feed([]byte("[3;"))
	e.Feed([]byte("5"))
	e.Feed([]byte("H"))

	if pos := e.CursorPosition(); pos.X != 4 || pos.Y != 2 {
		t.Errorf("Expected cursor at (4, 2), got (%d, %d)", pos.X, pos.Y)
	}
}

// TestMalformedCSIDiscarded tests that broken sequences vanish without side effects
func TestMalformedCSIDiscarded(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"UnknownFinal", "ab\x1b[99}cd", "abcd"},
		{"PrivateMarkerMidSequence", "ab\x1b[1;?25lcd", "abcd"},
		{"CanceledByCAN", "ab\x1b[12\x18cd", "abcd"},
		{"DigitsAfterIntermediate", "ab\x1b[1 2mcd", "abcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(20, 5, 0)
			e.Feed([]byte(tt.input))
			if got := e.VisibleText(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestCursorMovement tests the CUU/CUD/CUF/CUB family and CUP
func TestCursorMovement(t *testing.T) {
	tests := []struct {
		name  string
		input string
		x, y  int
	}{
		{"Home", "\x1b[H", 0, 0},
		{"Absolute", "\x1b[10;20H", 19, 9},
		{"AbsoluteClamped", "\x1b[99;99H", 19, 9},
		{"Up", "\x1b[5;5H\x1b[2A", 4, 2},
		{"UpClamped", "\x1b[5;5H\x1b[99A", 4, 0},
		{"Down", "\x1b[5;5H\x1b[3B", 4, 7},
		{"Forward", "\x1b[5;5H\x1b[2C", 6, 4},
		{"Back", "\x1b[5;5H\x1b[2D", 2, 4},
		{"NextLine", "\x1b[5;5H\x1b[2E", 0, 6},
		{"PrevLine", "\x1b[5;5H\x1b[2F", 0, 2},
		{"Column", "\x1b[5;5H\x1b[10G", 9, 4},
		{"Row", "\x1b[5;5H\x1b[8d", 4, 7},
		{"HVP", "\x1b[3;4f", 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(20, 10, 0)
			e.Feed([]byte(tt.input))
			if pos := e.CursorPosition(); pos.X != tt.x || pos.Y != tt.y {
				t.Errorf("Expected cursor at (%d, %d), got (%d, %d)", tt.x, tt.y, pos.X, pos.Y)
			}
		})
	}
}

// TestEraseDisplay tests the ED variants
func TestEraseDisplay(t *testing.T) {
	setup := func() *Emulator {
		e := newTestEmulator(5, 3, 0)
		e.Feed([]byte("aaaaa\r\nbbbbb\r\nccccc"))
		return e
	}

	t.Run("ToEnd", func(t *testing.T) {
		e := setup()
		e.Feed([]byte("\x1b[2;3H\x1b[J"))
		if got := e.VisibleText(); got != "aaaaa\nbb" {
			t.Errorf("Expected %q, got %q", "aaaaa\nbb", got)
		}
	})
	t.Run("ToStart", func(t *testing.T) {
		e := setup()
		e.Feed([]byte("\x1b[2;3H\x1b[1J"))
		if got := e.VisibleText(); got != "\n   bb\nccccc" {
			t.Errorf("Expected %q, got %q", "\n   bb\nccccc", got)
		}
	})
	t.Run("All", func(t *testing.T) {
		e := setup()
		e.Feed([]byte("\x1b[2J"))
		if got := e.VisibleText(); got != "" {
			t.Errorf("Expected empty screen, got %q", got)
		}
	})
}

// TestEraseLine tests the EL variants
func TestEraseLine(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"ToEnd", "\x1b[K", "ab"},
		{"ToStart", "\x1b[1K", "   de"},
		{"Whole", "\x1b[2K", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(5, 2, 0)
			e.Feed([]byte("abcde\x1b[1;3H" + tt.seq))
			if got := e.VisibleText(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestInsertDeleteCells tests ICH, DCH and ECH
func TestInsertDeleteCells(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want string
	}{
		{"Insert", "\x1b[2@", "ab  cde"},
		{"Delete", "\x1b[2P", "abe"},
		{"Erase", "\x1b[2X", "ab  e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(10, 2, 0)
			e.Feed([]byte("abcde\x1b[1;3H" + tt.seq))
			if got := e.VisibleText(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

// TestInsertDeleteLines tests IL and DL inside and outside the region
func TestInsertDeleteLines(t *testing.T) {
	t.Run("Insert", func(t *testing.T) {
		e := newTestEmulator(5, 4, 0)
		e.Feed([]byte("aa\r\nbb\r\ncc\r\ndd\x1b[2;1H\x1b[L"))
		if got := e.VisibleText(); got != "aa\n\nbb\ncc" {
			t.Errorf("Expected %q, got %q", "aa\n\nbb\ncc", got)
		}
	})
	t.Run("Delete", func(t *testing.T) {
		e := newTestEmulator(5, 4, 0)
		e.Feed([]byte("aa\r\nbb\r\ncc\r\ndd\x1b[2;1H\x1b[M"))
		if got := e.VisibleText(); got != "aa\ncc\ndd" {
			t.Errorf("Expected %q, got %q", "aa\ncc\ndd", got)
		}
	})
	t.Run("OutsideRegionIgnored", func(t *testing.T) {
		e := newTestEmulator(5, 4, 0)
		e.Feed([]byte("aa\r\nbb\r\ncc\r\ndd\x1b[2;3r\x1b[4;1H\x1b[M"))
		if got := e.VisibleText(); got != "aa\nbb\ncc\ndd" {
			t.Errorf("Expected %q, got %q", "aa\nbb\ncc\ndd", got)
		}
	})
}

// TestInsertMode tests IRM shifting existing content right
func TestInsertMode(t *testing.T) {
	e := newTestEmulator(10, 2, 0)
	e.Feed([]byte("abc\x1b[1;1H\x1b[4hX\x1b[4l"))

	if got := e.VisibleText(); got != "Xabc" {
		t.Errorf("Expected %q, got %q", "Xabc", got)
	}
}

// TestRepeatCharacter tests REP
func TestRepeatCharacter(t *testing.T) {
	e := newTestEmulator(10, 2, 0)
	e.Feed([]byte("a\x1b[3b"))

	if got := e.VisibleText(); got != "aaaa" {
		t.Errorf("Expected %q, got %q", "aaaa", got)
	}
}

// TestScrollingRegion tests DECSTBM confinement and that region scrolls skip scrollback
func TestScrollingRegion(t *testing.T) {
	e := newTestEmulator(5, 5, 100)
	e.Feed([]byte("top\x1b[2;4r"))

	// Homed after DECSTBM.
	if pos := e.CursorPosition(); pos.X != 0 || pos.Y != 0 {
		t.Fatalf("Expected cursor homed after DECSTBM, got (%d, %d)", pos.X, pos.Y)
	}

	e.Feed([]byte("\x1b[2;1Haa\r\nbb\r\ncc\r\n\r\n"))
	// Two extra linefeeds at the bottom margin scroll the region only.
	if got := cellContent(t, e, 0, 0); got != "t" {
		t.Errorf("Row above the region should be untouched, got %q", got)
	}
	if e.ScrollbackLen() != 0 {
		t.Errorf("Region scrolls must not feed scrollback, got %d rows", e.ScrollbackLen())
	}
}

// TestReverseIndex tests RI scrolling down at the top margin
func TestReverseIndex(t *testing.T) {
	e := newTestEmulator(5, 3, 0)
	e.Feed([]byte("aa\r\nbb\x1b[1;1H\x1bM"))

	if got := e.VisibleText(); got != "\naa\nbb" {
		t.Errorf("Expected %q, got %q", "\naa\nbb", got)
	}
}

// TestScrollUpDown tests explicit SU and SD
func TestScrollUpDown(t *testing.T) {
	e := newTestEmulator(5, 3, 100)
	e.Feed([]byte("aa\r\nbb\r\ncc\x1b[S"))

	if got := e.VisibleText(); got != "bb\ncc" {
		t.Errorf("SU: expected %q, got %q", "bb\ncc", got)
	}
	if e.ScrollbackLen() != 0 {
		t.Errorf("SU must not feed scrollback, got %d rows", e.ScrollbackLen())
	}

	e.Feed([]byte("\x1b[T"))
	if got := e.VisibleText(); got != "\nbb\ncc" {
		t.Errorf("SD: expected %q, got %q", "\nbb\ncc", got)
	}
}

// TestSaveRestoreCursor tests the DECSC/DECRC stack
func TestSaveRestoreCursor(t *testing.T) {
	e := newTestEmulator(20, 5, 0)
	e.Feed([]byte("\x1b[2;3H\x1b7\x1b[4;10H\x1b7\x1b[1;1H"))

	e.Feed([]byte("\x1b8"))
	if pos := e.CursorPosition(); pos.X != 9 || pos.Y != 3 {
		t.Errorf("First restore: expected (9, 3), got (%d, %d)", pos.X, pos.Y)
	}
	e.Feed([]byte("\x1b8"))
	if pos := e.CursorPosition(); pos.X != 2 || pos.Y != 1 {
		t.Errorf("Second restore: expected (2, 1), got (%d, %d)", pos.X, pos.Y)
	}

	// Popping an empty stack homes the cursor and resets the pen.
	e.Feed([]byte("\x1b[31m\x1b8"))
	if pos := e.CursorPosition(); pos.X != 0 || pos.Y != 0 {
		t.Errorf("Empty restore: expected home, got (%d, %d)", pos.X, pos.Y)
	}
	e.Feed([]byte("x"))
	if c := e.CellAt(0, 0); c.FG != (Color{}) {
		t.Errorf("Empty restore should reset the pen, got %+v", c.FG)
	}
}

// TestTabStops tests HTS, TBC and the CHT/CBT motions
func TestTabStops(t *testing.T) {
	e := newTestEmulator(40, 3, 0)

	e.Feed([]byte("\tX"))
	if pos := e.CursorPosition(); pos.X != 9 {
		t.Fatalf("Expected default stop at 8 then one printable, got column %d", pos.X)
	}

	// Custom stop at column 3, then clear all and verify HT runs to the margin.
	e.Feed([]byte("\r\x1b[4G\x1bH\r\t"))
	if pos := e.CursorPosition(); pos.X != 3 {
		t.Errorf("Expected custom stop at column 3, got %d", pos.X)
	}
	e.Feed([]byte("\x1b[3g\r\t"))
	if pos := e.CursorPosition(); pos.X != 39 {
		t.Errorf("Expected tab to run to the last column, got %d", pos.X)
	}

	e2 := newTestEmulator(40, 3, 0)
	e2.Feed([]byte("\x1b[2I"))
	if pos := e2.CursorPosition(); pos.X != 16 {
		t.Errorf("CHT: expected column 16, got %d", pos.X)
	}
	e2.Feed([]byte("\x1b[Z"))
	if pos := e2.CursorPosition(); pos.X != 8 {
		t.Errorf("CBT: expected column 8, got %d", pos.X)
	}
}

// TestCharsetGraphics tests the DEC Special Graphics designation and SI/SO
func TestCharsetGraphics(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	e.Feed([]byte("\x1b(0qx\x1b(Bq"))

	if got := cellContent(t, e, 0, 0); got != "─" {
		t.Errorf("Expected %q, got %q", "─", got)
	}
	if got := cellContent(t, e, 1, 0); got != "│" {
		t.Errorf("Expected %q, got %q", "│", got)
	}
	if got := cellContent(t, e, 2, 0); got != "q" {
		t.Errorf("Expected literal %q after switching back, got %q", "q", got)
	}

	// G1 via SO, back with SI.
	e.Feed([]byte("\x1b)0\x0eq\x0fq"))
	if got := cellContent(t, e, 3, 0); got != "─" {
		t.Errorf("Expected %q via G1, got %q", "─", got)
	}
	if got := cellContent(t, e, 4, 0); got != "q" {
		t.Errorf("Expected literal %q after SI, got %q", "q", got)
	}
}

// TestAlignmentPattern tests DECALN
func TestAlignmentPattern(t *testing.T) {
	e := newTestEmulator(3, 2, 0)
	e.Feed([]byte("\x1b#8"))

	if got := e.VisibleText(); got != "EEE\nEEE" {
		t.Errorf("Expected alignment pattern, got %q", got)
	}
	if pos := e.CursorPosition(); pos.X != 0 || pos.Y != 0 {
		t.Errorf("Expected cursor homed, got (%d, %d)", pos.X, pos.Y)
	}
}

// TestDeviceReports tests DA1 and DSR responses
func TestDeviceReports(t *testing.T) {
	e := newTestEmulator(20, 5, 0)

	events := e.Feed([]byte("\x1b[c"))
	if got := responseData(events); got != "\x1b[?6c" {
		t.Errorf("DA1: expected %q, got %q", "\x1b[?6c", got)
	}

	events = e.Feed([]byte("\x1b[5n"))
	if got := responseData(events); got != "\x1b[0n" {
		t.Errorf("DSR 5: expected %q, got %q", "\x1b[0n", got)
	}

	events = e.Feed([]byte("\x1b[2;3H\x1b[6n"))
	if got := responseData(events); got != "\x1b[2;3R" {
		t.Errorf("CPR: expected %q, got %q", "\x1b[2;3R", got)
	}

	// Origin mode makes the report region-relative.
	events = e.Feed([]byte("\x1b[2;4r\x1b[?6h\x1b[6n"))
	if got := responseData(events); got != "\x1b[1;1R" {
		t.Errorf("Origin CPR: expected %q, got %q", "\x1b[1;1R", got)
	}
}

func responseData(events []Event) string {
	var out []byte
	for _, ev := range events {
		if r, ok := ev.(ResponseEvent); ok {
			out = append(out, r.Data...)
		}
	}
	return string(out)
}

// TestTitleEvents tests OSC 0/1/2 with both terminators
func TestTitleEvents(t *testing.T) {
	e := newTestEmulator(20, 5, 0)

	events := e.Feed([]byte("\x1b]2;hello\x07"))
	if e.Title() != "hello" {
		t.Errorf("Expected title %q, got %q", "hello", e.Title())
	}
	foundTitle := false
	for _, ev := range events {
		if te, ok := ev.(TitleEvent); ok {
			foundTitle = true
			if te.Title != "hello" {
				t.Errorf("Expected title event %q, got %q", "hello", te.Title)
			}
		}
	}
	if !foundTitle {
		t.Error("Expected a title event")
	}

	// ST terminator, and OSC 0 updating both title and icon name.
	e.Feed([]byte("\x1b]0;world\x1b\\"))
	if e.Title() != "world" || e.IconName() != "world" {
		t.Errorf("Expected title and icon %q, got %q / %q", "world", e.Title(), e.IconName())
	}

	// Payload split across feeds.
	e.Feed([]byte("\x1b]2;sp"))
	e.Feed([]byte("lit\x07"))
	if e.Title() != "split" {
		t.Errorf("Expected title %q, got %q", "split", e.Title())
	}
}

// TestClipboardEvent tests OSC 52 decoding
func TestClipboardEvent(t *testing.T) {
	e := newTestEmulator(20, 5, 0)
	events := e.Feed([]byte("\x1b]52;c;aGVsbG8=\x07"))

	found := false
	for _, ev := range events {
		if ce, ok := ev.(ClipboardEvent); ok {
			found = true
			if ce.Text != "hello" {
				t.Errorf("Expected clipboard %q, got %q", "hello", ce.Text)
			}
		}
	}
	if !found {
		t.Error("Expected a clipboard event")
	}

	// Garbage base64 is dropped.
	events = e.Feed([]byte("\x1b]52;c;!!!\x07"))
	for _, ev := range events {
		if _, ok := ev.(ClipboardEvent); ok {
			t.Error("Invalid base64 should not produce a clipboard event")
		}
	}
}

// TestControlStringsDiscarded tests that DCS/SOS/PM/APC payloads never print
func TestControlStringsDiscarded(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"DCS", "ab\x1bPsecret\x1b\\cd"},
		{"APC", "ab\x1b_secret\x1b\\cd"},
		{"PM", "ab\x1b^secret\x1b\\cd"},
		{"SOS", "ab\x1bXsecret\x1b\\cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(20, 5, 0)
			e.Feed([]byte(tt.input))
			if got := e.VisibleText(); got != "abcd" {
				t.Errorf("Expected %q, got %q", "abcd", got)
			}
		})
	}
}

// TestOriginMode tests DECOM addressing and confinement
func TestOriginMode(t *testing.T) {
	e := newTestEmulator(10, 6, 0)
	e.Feed([]byte("\x1b[3;5r\x1b[?6h"))

	// Homing lands on the top margin.
	if pos := e.CursorPosition(); pos.X != 0 || pos.Y != 2 {
		t.Fatalf("Expected origin home at (0, 2), got (%d, %d)", pos.X, pos.Y)
	}

	// Addressing is region-relative and clamped to the bottom margin.
	e.Feed([]byte("\x1b[2;2H"))
	if pos := e.CursorPosition(); pos.X != 1 || pos.Y != 3 {
		t.Errorf("Expected (1, 3), got (%d, %d)", pos.X, pos.Y)
	}
	e.Feed([]byte("\x1b[99;1H"))
	if pos := e.CursorPosition(); pos.Y != 4 {
		t.Errorf("Expected clamp to bottom margin row 4, got %d", pos.Y)
	}
}

// TestFullReset tests RIS restoring construction-time defaults
func TestFullReset(t *testing.T) {
	e := newTestEmulator(10, 3, 10)
	e.Feed([]byte("junk\x1b]2;title\x07\x1b[?25l\x1b[?7l\x1b[4h\x1b[2;3r"))
	e.Feed([]byte("\x1bc"))

	if got := e.VisibleText(); got != "" {
		t.Errorf("Expected cleared screen, got %q", got)
	}
	if !e.CursorVisible() {
		t.Error("Expected cursor visible after reset")
	}
	if top, bottom := e.scr.Region(); top != 0 || bottom != 2 {
		t.Errorf("Expected full region, got %d..%d", top, bottom)
	}
	if !e.modes.autowrap || e.modes.insert {
		t.Error("Expected modes back to defaults")
	}
	// The title survives a reset.
	if e.Title() != "title" {
		t.Errorf("Expected title preserved, got %q", e.Title())
	}
}

// TestOSCLengthCap tests that oversized OSC payloads are truncated, not fatal
func TestOSCLengthCap(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	payload := make([]byte, 3*maxOSCLength)
	for i := range payload {
		payload[i] = 'x'
	}
	e.Feed([]byte("\x1b]2;"))
	e.Feed(payload)
	e.Feed([]byte("\x07ok"))

	if len(e.Title()) > maxOSCLength {
		t.Errorf("Expected title capped at %d bytes, got %d", maxOSCLength, len(e.Title()))
	}
	if got := e.VisibleText(); got != "ok" {
		t.Errorf("Expected %q printed after the capped string, got %q", "ok", got)
	}
}
