package vt

// Charset identifies a designated character set.
type Charset int

const (
	// CharsetASCII passes characters through unchanged.
	CharsetASCII Charset = iota
	// CharsetGraphics is DEC Special Graphics, the line-drawing set.
	CharsetGraphics
)

// decGraphics maps 0x60-0x7e to the DEC Special Graphics glyphs used for
// box drawing. Entries outside that range pass through unchanged.
var decGraphics = map[rune]rune{
	'`': '◆',
	'a': '▒',
	'b': '␉',
	'c': '␌',
	'd': '␍',
	'e': '␊',
	'f': '°',
	'g': '±',
	'h': '␤',
	'i': '␋',
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'o': '⎺',
	'p': '⎻',
	'q': '─',
	'r': '⎼',
	's': '⎽',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
	'y': '≤',
	'z': '≥',
	'{': 'π',
	'|': '≠',
	'}': '£',
	'~': '·',
}

// mapCharset translates r through the given character set.
func mapCharset(r rune, cs Charset) rune {
	if cs == CharsetGraphics {
		if m, ok := decGraphics[r]; ok {
			return m
		}
	}
	return r
}

// charsetFromDesignator returns the character set selected by the final
// byte of an ESC ( / ESC ) designation. Unknown designators fall back to
// ASCII, which keeps unsupported national sets harmless.
func charsetFromDesignator(b byte) Charset {
	if b == '0' {
		return CharsetGraphics
	}
	return CharsetASCII
}
