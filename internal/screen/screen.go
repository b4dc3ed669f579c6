// Package screen wraps a headless terminal emulator as the in-memory display
// the highlighter draws on. Callers feed it raw PTY output and read back the
// styled cell grid a row at a time.
package screen

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	headlessterm "github.com/danielgatis/go-headless-term"
)

// Color is a cell colour: DefaultColor, one of the sixteen ANSI names
// ("red", "brightblue", ...) or six lowercase hex digits ("1a2b3c").
type Color string

// DefaultColor leaves the colour to the viewer's terminal.
const DefaultColor Color = "default"

var ansiNames = [16]Color{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
	"brightblack", "brightred", "brightgreen", "brightyellow",
	"brightblue", "brightmagenta", "brightcyan", "brightwhite",
}

// ANSIIndex returns the palette index of a named colour.
func (c Color) ANSIIndex() (int, bool) {
	for i, n := range ansiNames {
		if n == c {
			return i, true
		}
	}
	return 0, false
}

// Hex returns the RGB channels of a hex colour.
func (c Color) Hex() (r, g, b uint8, ok bool) {
	if len(c) != 6 {
		return 0, 0, 0, false
	}
	if _, err := fmt.Sscanf(string(c), "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, false
	}
	return r, g, b, true
}

// Style is the rendition of a cell.
type Style struct {
	Fg            Color
	Bg            Color
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Reverse       bool
}

// Cell is one grid position.
type Cell struct {
	Char  rune
	Style Style
}

// DefaultCell is what an untouched position holds.
var DefaultCell = Cell{Char: ' ', Style: Style{Fg: DefaultColor, Bg: DefaultColor}}

// Entry is an occupied position of a row.
type Entry struct {
	Col   int
	Width int
	Cell  Cell
}

// Grid is a read-only view of the display.
type Grid interface {
	Columns() int
	Rows() int
	Default() Cell
	// Row returns the occupied cells of row y in increasing column order.
	// Positions holding the default cell are omitted.
	Row(y int) []Entry
}

// TitleFunc receives every window title the child sets.
type TitleFunc func(title string)

// Option configures a Screen.
type Option func(*Screen)

// WithTitleHandler registers fn as the title-change hook. fn runs after the
// title is stored and outside the emulator lock, so it may read the grid.
func WithTitleHandler(fn TitleFunc) Option {
	return func(s *Screen) {
		s.onTitle = fn
	}
}

// WithResponse sends answers to the child's terminal queries (device
// attributes, cursor reports) to w.
func WithResponse(w io.Writer) Option {
	return func(s *Screen) {
		s.response = w
	}
}

// Screen is a cols x rows terminal emulator. It is not safe for use by more
// than one goroutine.
type Screen struct {
	term     *headlessterm.Terminal
	cols     int
	rows     int
	onTitle  TitleFunc
	response io.Writer
}

// New creates a screen with the given dimensions. The emulator allocates
// every row up front.
func New(cols, rows int, opts ...Option) *Screen {
	s := &Screen{cols: cols, rows: rows}
	for _, opt := range opts {
		opt(s)
	}

	termOpts := []headlessterm.Option{headlessterm.WithSize(rows, cols)}
	if s.response != nil {
		termOpts = append(termOpts, headlessterm.WithResponse(s.response))
	}
	if s.onTitle != nil {
		termOpts = append(termOpts, headlessterm.WithMiddleware(&headlessterm.Middleware{
			SetTitle: func(title string, next func(string)) {
				next(title)
				s.onTitle(title)
			},
		}))
	}
	s.term = headlessterm.New(termOpts...)
	return s
}

// Write feeds raw terminal output into the emulator.
func (s *Screen) Write(data []byte) (int, error) {
	return s.term.Write(data)
}

// Columns returns the width in cells.
func (s *Screen) Columns() int { return s.cols }

// Rows returns the height in rows.
func (s *Screen) Rows() int { return s.rows }

// Default returns the cell unwritten positions hold.
func (s *Screen) Default() Cell { return DefaultCell }

// Cell returns the cell at (row, col).
func (s *Screen) Cell(row, col int) Cell {
	c := s.term.Cell(row, col)
	if c == nil {
		return DefaultCell
	}
	return convertCell(c)
}

// Row returns the occupied cells of row y. Wide characters are reported
// once with Width 2; their spacer column is skipped.
func (s *Screen) Row(y int) []Entry {
	if y < 0 || y >= s.rows {
		return nil
	}

	var out []Entry
	for x := 0; x < s.cols; x++ {
		c := s.term.Cell(y, x)
		if c == nil || c.HasFlag(headlessterm.CellFlagWideCharSpacer) {
			continue
		}
		cell := convertCell(c)
		if cell == DefaultCell {
			continue
		}
		width := 1
		if c.HasFlag(headlessterm.CellFlagWideChar) {
			width = 2
		}
		out = append(out, Entry{Col: x, Width: width, Cell: cell})
	}
	return out
}

// Capture returns rows [from, to) as plain text with trailing blanks removed.
func (s *Screen) Capture(from, to int) []string {
	from = max(from, 0)
	to = min(to, s.rows)

	lines := make([]string, 0, max(to-from, 0))
	for y := from; y < to; y++ {
		var b strings.Builder
		for x := 0; x < s.cols; x++ {
			c := s.term.Cell(y, x)
			if c == nil || c.HasFlag(headlessterm.CellFlagWideCharSpacer) {
				continue
			}
			ch := c.Char
			if ch == 0 {
				ch = ' '
			}
			b.WriteRune(ch)
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return lines
}

func convertCell(c *headlessterm.Cell) Cell {
	ch := c.Char
	if ch == 0 {
		ch = ' '
	}
	return Cell{
		Char: ch,
		Style: Style{
			Fg:     convertColor(c.Fg),
			Bg:     convertColor(c.Bg),
			Bold:   c.HasFlag(headlessterm.CellFlagBold),
			Italic: c.HasFlag(headlessterm.CellFlagItalic),
			Underline: c.HasFlag(headlessterm.CellFlagUnderline |
				headlessterm.CellFlagDoubleUnderline |
				headlessterm.CellFlagCurlyUnderline |
				headlessterm.CellFlagDottedUnderline |
				headlessterm.CellFlagDashedUnderline),
			Strikethrough: c.HasFlag(headlessterm.CellFlagStrike),
			Reverse:       c.HasFlag(headlessterm.CellFlagReverse),
		},
	}
}

func convertColor(c color.Color) Color {
	switch v := c.(type) {
	case nil:
		return DefaultColor
	case *headlessterm.NamedColor:
		switch {
		case v.Name >= 0 && v.Name < 16:
			return ansiNames[v.Name]
		case v.Name >= headlessterm.NamedColorDimBlack && v.Name <= headlessterm.NamedColorDimWhite:
			return ansiNames[v.Name-headlessterm.NamedColorDimBlack]
		default:
			return DefaultColor
		}
	case *headlessterm.IndexedColor:
		if v.Index >= 0 && v.Index < 16 {
			return ansiNames[v.Index]
		}
		if v.Index >= 16 && v.Index < 256 {
			return hexOf(headlessterm.DefaultPalette[v.Index])
		}
		return DefaultColor
	case color.RGBA:
		return hexOf(v)
	default:
		r, g, b, _ := c.RGBA()
		return hexOf(color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
	}
}

func hexOf(c color.RGBA) Color {
	return Color(fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B))
}
