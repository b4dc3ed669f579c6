// Package dump writes a range of screen rows as styled text.
package dump

import (
	"bufio"
	"fmt"
	"io"

	"syncat/internal/screen"
	"syncat/internal/vt"
)

// Range is the half-open row interval [From, To).
type Range struct {
	From int
	To   int
}

// Len returns the number of rows in r.
func (r Range) Len() int {
	return max(r.To-r.From, 0)
}

// Dumper re-encodes grid rows onto an output stream.
type Dumper struct {
	w   *bufio.Writer
	enc *vt.Encoder
}

// New returns a dumper writing to w with enc.
func New(w io.Writer, enc *vt.Encoder) *Dumper {
	return &Dumper{w: bufio.NewWriter(w), enc: enc}
}

// Dump writes rows r of g. Every occupied cell is emitted as one SGR group
// plus its character, with gaps before it filled by the default cell. A row
// that ends short of the right margin is closed with a reset and a line
// feed; a row reaching the margin relies on the viewer's autowrap. Output
// is flushed after each row, and the first write error aborts the dump.
func (d *Dumper) Dump(g screen.Grid, r Range) error {
	cols := g.Columns()
	def := d.enc.Cell(g.Default())

	for y := r.From; y < r.To; y++ {
		cursor := 0
		for _, e := range g.Row(y) {
			for ; cursor < e.Col; cursor++ {
				d.w.WriteString(def)
			}
			d.w.WriteString(d.enc.Cell(e.Cell))
			cursor = e.Col + max(e.Width, 1)
		}
		// Terminated unless the last column was written, so a row stopping
		// one column short is not joined to the next.
		if cursor < cols {
			d.w.WriteString(d.enc.Reset())
			d.w.WriteByte('\n')
		}
		if err := d.w.Flush(); err != nil {
			return fmt.Errorf("write row %d: %w", y, err)
		}
	}
	return nil
}
