package vt

import "image/color"

// AttrMask is a bitset of cell display attributes.
type AttrMask uint16

// Cell attributes. These map one-to-one onto SGR parameters.
const (
	AttrBold AttrMask = 1 << iota
	AttrFaint
	AttrItalic
	AttrUnderline
	AttrBlink
	AttrInverse
	AttrConceal
	AttrStrikethrough
)

// Contains reports whether all attributes in m are set.
func (a AttrMask) Contains(m AttrMask) bool {
	return a&m == m
}

// ColorKind discriminates the color variants a cell can carry.
type ColorKind uint8

const (
	// ColorDefault selects the terminal's default foreground or background.
	ColorDefault ColorKind = iota
	// ColorIndexed selects one of the 256 palette colors.
	ColorIndexed
	// ColorRGB is a direct 24-bit color.
	ColorRGB
)

// Color is a color selector stored in a cell. Cells never hold resolved
// colors; the emulator palette maps selectors to concrete colors at render
// time, so palette changes retint existing content. The zero value is the
// default color.
type Color struct {
	Kind    ColorKind
	Index   uint8 // palette index when Kind == ColorIndexed
	R, G, B uint8 // components when Kind == ColorRGB
}

// IndexedColor returns a selector for palette entry i.
func IndexedColor(i uint8) Color {
	return Color{Kind: ColorIndexed, Index: i}
}

// RGBColor returns a direct-color selector.
func RGBColor(r, g, b uint8) Color {
	return Color{Kind: ColorRGB, R: r, G: g, B: b}
}

// Pen is the attribute state applied to newly written cells.
type Pen struct {
	FG   Color
	BG   Color
	Attr AttrMask
}

// Cell is a single grid position. Content holds one displayed character
// (combining marks may be appended to it); it is empty with Width 0 for
// the continuation cell following a wide character.
type Cell struct {
	Content string
	Width   int
	FG      Color
	BG      Color
	Attr    AttrMask
}

// Empty reports whether the cell displays nothing (blank or continuation).
func (c Cell) Empty() bool {
	return c.Content == "" || c.Content == " "
}

// blankCell returns the fill cell for erase and scroll operations. Erased
// cells keep the pen's background so background-color-erase behaves like
// hardware terminals, but carry no other attributes.
func blankCell(pen Pen) Cell {
	return Cell{Content: " ", Width: 1, BG: pen.BG}
}

// emptyCell is the fill for newly allocated or resized regions.
var emptyCell = Cell{Content: " ", Width: 1}

// Position is a grid coordinate. X is the column. Y is a row index whose
// frame of reference depends on the API: screen-relative for cursor and
// CellAt, buffer-absolute (0 = oldest scrollback row) for selection and
// search.
type Position struct {
	X, Y int
}

// defaultPalette is the standard xterm 16-color palette, used when the
// configuration does not provide one.
var defaultPalette = [16]color.Color{
	color.RGBA{0x00, 0x00, 0x00, 0xff}, // black
	color.RGBA{0xcd, 0x00, 0x00, 0xff}, // red
	color.RGBA{0x00, 0xcd, 0x00, 0xff}, // green
	color.RGBA{0xcd, 0xcd, 0x00, 0xff}, // yellow
	color.RGBA{0x00, 0x00, 0xee, 0xff}, // blue
	color.RGBA{0xcd, 0x00, 0xcd, 0xff}, // magenta
	color.RGBA{0x00, 0xcd, 0xcd, 0xff}, // cyan
	color.RGBA{0xe5, 0xe5, 0xe5, 0xff}, // white
	color.RGBA{0x7f, 0x7f, 0x7f, 0xff}, // bright black
	color.RGBA{0xff, 0x00, 0x00, 0xff}, // bright red
	color.RGBA{0x00, 0xff, 0x00, 0xff}, // bright green
	color.RGBA{0xff, 0xff, 0x00, 0xff}, // bright yellow
	color.RGBA{0x5c, 0x5c, 0xff, 0xff}, // bright blue
	color.RGBA{0xff, 0x00, 0xff, 0xff}, // bright magenta
	color.RGBA{0x00, 0xff, 0xff, 0xff}, // bright cyan
	color.RGBA{0xff, 0xff, 0xff, 0xff}, // bright white
}

// ansi256 computes the fixed xterm color for palette indices 16-255:
// a 6x6x6 color cube followed by a 24-step grayscale ramp.
func ansi256(i int) color.Color {
	if i < 16 || i > 255 {
		return color.RGBA{A: 0xff}
	}
	if i < 232 {
		i -= 16
		steps := [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}
		return color.RGBA{
			R: steps[i/36],
			G: steps[i/6%6],
			B: steps[i%6],
			A: 0xff,
		}
	}
	v := uint8(8 + (i-232)*10)
	return color.RGBA{R: v, G: v, B: v, A: 0xff}
}
