package vt

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"

	"syncat/internal/screen"
)

func cell(ch rune, st screen.Style) screen.Cell {
	if st.Fg == "" {
		st.Fg = screen.DefaultColor
	}
	if st.Bg == "" {
		st.Bg = screen.DefaultColor
	}
	return screen.Cell{Char: ch, Style: st}
}

func TestEncodeCell(t *testing.T) {
	tests := []struct {
		name  string
		style screen.Style
		want  string
	}{
		{"default", screen.Style{}, "\x1b[0mx"},
		{"named fg", screen.Style{Fg: "red"}, "\x1b[0;31mx"},
		{"bright bg", screen.Style{Bg: "brightblue"}, "\x1b[0;104mx"},
		{"literal fg", screen.Style{Fg: "1a2b3c"}, "\x1b[0;38;2;26;43;60mx"},
		{"literal bg", screen.Style{Bg: "ff0080"}, "\x1b[0;48;2;255;0;128mx"},
		{
			"all flags",
			screen.Style{Fg: "green", Bold: true, Italic: true, Underline: true, Strikethrough: true, Reverse: true},
			"\x1b[0;32;1;3;4;9;7mx",
		},
	}
	enc := NewEncoder(termenv.TrueColor)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, enc.Cell(cell('x', tt.style)))
		})
	}
}

func TestEncodeLiteralDownsampled(t *testing.T) {
	c := cell('x', screen.Style{Fg: "ff0000"})

	assert.Equal(t, "\x1b[0;38;5;196mx", NewEncoder(termenv.ANSI256).Cell(c))
	assert.Equal(t, "\x1b[0;91mx", NewEncoder(termenv.ANSI).Cell(c))
}

func TestEncodeNamedKeepsName(t *testing.T) {
	c := cell('x', screen.Style{Fg: "yellow"})
	for _, p := range []termenv.Profile{termenv.TrueColor, termenv.ANSI256, termenv.ANSI} {
		assert.Equal(t, "\x1b[0;33mx", NewEncoder(p).Cell(c))
	}
}

func TestEncodePlain(t *testing.T) {
	enc := NewEncoder(termenv.Ascii)
	assert.True(t, enc.Plain())
	assert.Equal(t, "x", enc.Cell(cell('x', screen.Style{Fg: "red", Bold: true})))
	assert.Equal(t, "", enc.Reset())
}

func TestEncodeReset(t *testing.T) {
	assert.Equal(t, "\x1b[0m", NewEncoder(termenv.TrueColor).Reset())
}

func TestEncodeUnknownColorIgnored(t *testing.T) {
	enc := NewEncoder(termenv.TrueColor)
	assert.Equal(t, "\x1b[0mx", enc.Cell(cell('x', screen.Style{Fg: "purple"})))
}
