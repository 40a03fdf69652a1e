package vt

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// dispatchOSC interprets a complete Operating System Command string. The
// leading number selects the command; unknown commands are dropped.
func (e *Emulator) dispatchOSC(s string) {
	cmd, rest, _ := strings.Cut(s, ";")
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return
	}

	switch n {
	case 0: // title and icon name
		e.title = rest
		e.iconName = rest
		e.emit(TitleEvent{Title: rest})
		e.emit(IconNameEvent{Name: rest})
	case 1:
		e.iconName = rest
		e.emit(IconNameEvent{Name: rest})
	case 2:
		e.title = rest
		e.emit(TitleEvent{Title: rest})
	case 4:
		e.oscPalette(rest)
	case 10, 11, 12:
		e.oscDynamicColor(n, rest)
	case 52:
		e.oscClipboard(rest)
	case 104: // reset palette entries, or the whole palette
		if rest == "" {
			for i := range e.colors {
				e.colors[i] = nil
			}
			for i := range 16 {
				if e.cfg.ANSI[i] != nil {
					e.colors[i] = e.cfg.ANSI[i]
				}
			}
			return
		}
		for _, part := range strings.Split(rest, ";") {
			if idx, err := strconv.Atoi(part); err == nil && idx >= 0 && idx <= 255 {
				e.colors[idx] = nil
				if idx < 16 {
					e.colors[idx] = e.cfg.ANSI[idx]
				}
			}
		}
	case 110:
		e.fgColor = nil
	case 111:
		e.bgColor = nil
	case 112:
		e.curColor = nil
	}
}

// oscPalette handles OSC 4: pairs of palette index and color spec, where a
// spec of "?" asks us to report the current value instead.
func (e *Emulator) oscPalette(rest string) {
	parts := strings.Split(rest, ";")
	for i := 0; i+1 < len(parts); i += 2 {
		idx, err := strconv.Atoi(parts[i])
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		spec := parts[i+1]
		if spec == "?" {
			e.respond(fmt.Sprintf("\x1b]4;%d;%s\x1b\\", idx, formatColor(e.PaletteColor(idx))))
			continue
		}
		if c, ok := parseColor(spec); ok {
			e.colors[idx] = c
		}
	}
}

// oscDynamicColor handles OSC 10/11/12: default foreground, background
// and cursor color. Multiple specs in one command advance through the
// consecutive color numbers, as in xterm.
func (e *Emulator) oscDynamicColor(n int, rest string) {
	for j, spec := range strings.Split(rest, ";") {
		code := n + j
		if code > 12 {
			return
		}
		var slot *color.Color
		var cur color.Color
		switch code {
		case 10:
			slot, cur = &e.fgColor, e.ForegroundColor()
		case 11:
			slot, cur = &e.bgColor, e.BackgroundColor()
		case 12:
			slot, cur = &e.curColor, e.CursorColor()
		}
		if spec == "?" {
			e.respond(fmt.Sprintf("\x1b]%d;%s\x1b\\", code, formatColor(cur)))
			continue
		}
		if c, ok := parseColor(spec); ok {
			*slot = c
		}
	}
}

// oscClipboard handles OSC 52. A base64 payload becomes a clipboard event
// for the embedding layer to act on; queries are not answered since the
// emulator holds no clipboard of its own.
func (e *Emulator) oscClipboard(rest string) {
	_, data, ok := strings.Cut(rest, ";")
	if !ok || data == "?" {
		return
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}
	e.emit(ClipboardEvent{Text: string(decoded)})
}

// parseColor parses the XParseColor subset emitted by real-world
// programs: "rgb:RR/GG/BB" with one to four hex digits per channel, and
// "#RGB" / "#RRGGBB" / "#RRRRGGGGBBBB".
func parseColor(spec string) (color.Color, bool) {
	switch {
	case strings.HasPrefix(spec, "rgb:"):
		parts := strings.Split(spec[4:], "/")
		if len(parts) != 3 {
			return nil, false
		}
		var ch [3]uint8
		for i, p := range parts {
			v, ok := parseHexChannel(p)
			if !ok {
				return nil, false
			}
			ch[i] = v
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, true
	case strings.HasPrefix(spec, "#"):
		hex := spec[1:]
		var per int
		switch len(hex) {
		case 3:
			per = 1
		case 6:
			per = 2
		case 12:
			per = 4
		default:
			return nil, false
		}
		var ch [3]uint8
		for i := range 3 {
			// Unlike rgb:, # components are left-justified: #fff means
			// f000-f000-f000, so only the leading digits matter.
			v, err := strconv.ParseUint(hex[i*per:i*per+min(per, 2)], 16, 8)
			if err != nil {
				return nil, false
			}
			if per == 1 {
				v *= 0x11
			}
			ch[i] = uint8(v)
		}
		return color.RGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}, true
	}
	return nil, false
}

// parseHexChannel scales a 1-4 digit hex channel to 8 bits.
func parseHexChannel(s string) (uint8, bool) {
	if len(s) < 1 || len(s) > 4 {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	maxVal := uint64(1)<<(4*len(s)) - 1
	return uint8(v * 0xff / maxVal), true
}

// formatColor renders a color in the 16-bit rgb:/ form used by query
// responses.
func formatColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("rgb:%04x/%04x/%04x", r, g, b)
}
