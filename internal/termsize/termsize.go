// Package termsize queries the geometry of the user's real terminal.
package termsize

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when neither stdout nor stderr is a terminal.
var ErrNotTerminal = errors.New("neither stdout nor stderr is a terminal")

// Size is a terminal geometry in character cells.
type Size struct {
	Cols int
	Rows int
}

// GetSizeFunc matches term.GetSize.
type GetSizeFunc func(fd int) (width, height int, err error)

// Prober reads the size of a primary descriptor, falling back to a second
// one when the primary is not a tty (e.g. stdout is a pipe).
type Prober struct {
	Primary  int
	Fallback int
	GetSize  GetSizeFunc
}

// NewProber probes stdout, then stderr.
func NewProber() *Prober {
	return &Prober{
		Primary:  int(os.Stdout.Fd()),
		Fallback: int(os.Stderr.Fd()),
		GetSize:  term.GetSize,
	}
}

// Probe returns the terminal size. Only ENOTTY on the primary descriptor
// triggers the fallback; any other failure is returned as is.
func (p *Prober) Probe() (Size, error) {
	get := p.GetSize
	if get == nil {
		get = term.GetSize
	}

	cols, rows, err := get(p.Primary)
	if err == nil {
		return Size{Cols: cols, Rows: rows}, nil
	}
	if !errors.Is(err, unix.ENOTTY) {
		return Size{}, fmt.Errorf("query size of fd %d: %w", p.Primary, err)
	}

	cols, rows, err = get(p.Fallback)
	if err != nil {
		if errors.Is(err, unix.ENOTTY) {
			return Size{}, ErrNotTerminal
		}
		return Size{}, fmt.Errorf("query size of fd %d: %w", p.Fallback, err)
	}
	return Size{Cols: cols, Rows: rows}, nil
}

// Probe probes stdout then stderr.
func Probe() (Size, error) {
	return NewProber().Probe()
}
