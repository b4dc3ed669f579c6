package vt

import (
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"syncat/internal/screen"
)

// Encoder turns cells into SGR-prefixed text for a given colour profile.
// With the Ascii profile only the characters are produced.
type Encoder struct {
	Profile termenv.Profile
}

// NewEncoder returns an encoder targeting p.
func NewEncoder(p termenv.Profile) *Encoder {
	return &Encoder{Profile: p}
}

// Plain reports whether the encoder emits no control sequences.
func (e *Encoder) Plain() bool {
	return e.Profile == termenv.Ascii
}

// Reset returns the sequence restoring the default rendition.
func (e *Encoder) Reset() string {
	if e.Plain() {
		return ""
	}
	return termenv.CSI + termenv.ResetSeq + "m"
}

// Cell returns one SGR group that resets the rendition and applies c's
// style, followed by c's character.
func (e *Encoder) Cell(c screen.Cell) string {
	if e.Plain() {
		return string(c.Char)
	}

	params := []string{termenv.ResetSeq}
	if seq := e.color(c.Style.Fg, false); seq != "" {
		params = append(params, seq)
	}
	if seq := e.color(c.Style.Bg, true); seq != "" {
		params = append(params, seq)
	}
	if c.Style.Bold {
		params = append(params, termenv.BoldSeq)
	}
	if c.Style.Italic {
		params = append(params, termenv.ItalicSeq)
	}
	if c.Style.Underline {
		params = append(params, termenv.UnderlineSeq)
	}
	if c.Style.Strikethrough {
		params = append(params, termenv.CrossOutSeq)
	}
	if c.Style.Reverse {
		params = append(params, termenv.ReverseSeq)
	}

	var b strings.Builder
	b.WriteString(termenv.CSI)
	b.WriteString(strings.Join(params, ";"))
	b.WriteByte('m')
	b.WriteRune(c.Char)
	return b.String()
}

func (e *Encoder) color(c screen.Color, bg bool) string {
	if c == screen.DefaultColor || c == "" {
		return ""
	}
	if i, ok := c.ANSIIndex(); ok {
		return termenv.ANSIColor(i).Sequence(bg)
	}

	r, g, b, ok := c.Hex()
	if !ok {
		return ""
	}
	if e.Profile == termenv.TrueColor {
		pre := termenv.Foreground
		if bg {
			pre = termenv.Background
		}
		return pre + ";2;" + strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b))
	}
	return e.Profile.Convert(termenv.RGBColor("#" + string(c))).Sequence(bg)
}
