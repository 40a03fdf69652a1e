package vt

import "testing"

// TestSGRAttributes tests attribute set and clear pairs
func TestSGRAttributes(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		want AttrMask
	}{
		{"Bold", "\x1b[1m", AttrBold},
		{"Faint", "\x1b[2m", AttrFaint},
		{"Italic", "\x1b[3m", AttrItalic},
		{"Underline", "\x1b[4m", AttrUnderline},
		{"Blink", "\x1b[5m", AttrBlink},
		{"RapidBlink", "\x1b[6m", AttrBlink},
		{"Inverse", "\x1b[7m", AttrInverse},
		{"Conceal", "\x1b[8m", AttrConceal},
		{"Strikethrough", "\x1b[9m", AttrStrikethrough},
		{"Combined", "\x1b[1;4;7m", AttrBold | AttrUnderline | AttrInverse},
		{"NormalIntensity", "\x1b[1;2;22m", 0},
		{"NotItalic", "\x1b[3;23m", 0},
		{"NotUnderlined", "\x1b[4;24m", 0},
		{"BlinkOff", "\x1b[5;25m", 0},
		{"Positive", "\x1b[7;27m", 0},
		{"Reveal", "\x1b[8;28m", 0},
		{"NotCrossedOut", "\x1b[9;29m", 0},
		{"Reset", "\x1b[1;4;0m", 0},
		{"EmptyIsReset", "\x1b[1m\x1b[m", 0},
		{"CurlyUnderline", "\x1b[4:3m", AttrUnderline},
		{"UnderlineOffSub", "\x1b[4:0m", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(10, 3, 0)
			e.Feed([]byte(tt.seq))
			if got := e.scr.cur.Pen.Attr; got != tt.want {
				t.Errorf("Expected attrs %b, got %b", tt.want, got)
			}
		})
	}
}

// TestSGRColors tests the color parameter families
func TestSGRColors(t *testing.T) {
	tests := []struct {
		name   string
		seq    string
		wantFG Color
		wantBG Color
	}{
		{"Basic", "\x1b[31;42m", IndexedColor(1), IndexedColor(2)},
		{"Bright", "\x1b[91;102m", IndexedColor(9), IndexedColor(10)},
		{"Defaults", "\x1b[31;42m\x1b[39;49m", Color{}, Color{}},
		{"Indexed256", "\x1b[38;5;42;48;5;200m", IndexedColor(42), IndexedColor(200)},
		{"Truecolor", "\x1b[38;2;10;20;30m", RGBColor(10, 20, 30), Color{}},
		{"Indexed256Colon", "\x1b[38:5:42m", IndexedColor(42), Color{}},
		{"TruecolorColon", "\x1b[38:2:10:20:30m", RGBColor(10, 20, 30), Color{}},
		{"TruecolorColonColorspace", "\x1b[38:2::10:20:30m", RGBColor(10, 20, 30), Color{}},
		{"PayloadConsumed", "\x1b[38;5;42;1m", IndexedColor(42), Color{}},
		{"UnderlineColorConsumed", "\x1b[58;2;1;2;3;31m", IndexedColor(1), Color{}},
		{"IndexOutOfRange", "\x1b[38;5;999m", Color{}, Color{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmulator(10, 3, 0)
			e.Feed([]byte(tt.seq))
			pen := e.scr.cur.Pen
			if pen.FG != tt.wantFG {
				t.Errorf("Expected FG %+v, got %+v", tt.wantFG, pen.FG)
			}
			if pen.BG != tt.wantBG {
				t.Errorf("Expected BG %+v, got %+v", tt.wantBG, pen.BG)
			}
		})
	}
}

// TestSGRNotRetroactive tests that a pen change leaves written cells alone
func TestSGRNotRetroactive(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	e.Feed([]byte("a\x1b[1mb"))

	if c := e.CellAt(0, 0); c.Attr != 0 {
		t.Errorf("Expected plain first cell, got attrs %b", c.Attr)
	}
	if c := e.CellAt(1, 0); !c.Attr.Contains(AttrBold) {
		t.Error("Expected bold second cell")
	}
}

// TestSGRPayloadBold tests that extra parameters after a color still apply
func TestSGRPayloadBold(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	e.Feed([]byte("\x1b[1;38;5;100;4m"))

	pen := e.scr.cur.Pen
	if !pen.Attr.Contains(AttrBold | AttrUnderline) {
		t.Errorf("Expected bold and underline, got %b", pen.Attr)
	}
	if pen.FG != IndexedColor(100) {
		t.Errorf("Expected FG 100, got %+v", pen.FG)
	}
}

// TestBackgroundColorErase tests that erases fill with the pen background
func TestBackgroundColorErase(t *testing.T) {
	e := newTestEmulator(5, 2, 0)
	e.Feed([]byte("\x1b[41m\x1b[2K"))

	for x := 0; x < 5; x++ {
		c := e.CellAt(x, 0)
		if c.BG != IndexedColor(1) {
			t.Errorf("Cell %d: expected red background, got %+v", x, c.BG)
		}
		if c.Attr != 0 || c.FG != (Color{}) {
			t.Errorf("Cell %d: erase must not copy other pen state", x)
		}
	}
}

// TestSGRParamLimit tests that absurd parameter counts are capped, not fatal
func TestSGRParamLimit(t *testing.T) {
	e := newTestEmulator(10, 3, 0)
	seq := "\x1b["
	for i := 0; i < 100; i++ {
		seq += "1;"
	}
	seq += "4m"
	e.Feed([]byte(seq))

	// The separator count exceeds the parameter cap; the sequence still
	// dispatches with the retained prefix.
	if !e.scr.cur.Pen.Attr.Contains(AttrBold) {
		t.Error("Expected the retained parameters applied")
	}
	e.Feed([]byte("x"))
	if got := cellContent(t, e, 0, 0); got != "x" {
		t.Errorf("Expected printing to continue, got %q", got)
	}
}
