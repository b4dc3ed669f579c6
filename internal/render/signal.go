package render

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"syncat/internal/dump"
	"syncat/internal/screen"
)

var (
	// ErrProtocol is returned when the highlighter sets a title that is not
	// a row count.
	ErrProtocol = errors.New("malformed row signal")

	// ErrNoSignal is returned when the highlighter finished without ever
	// announcing how many rows it drew.
	ErrNoSignal = errors.New("highlighter exited without signalling")
)

// RowSignal turns window-title changes into dumps. Each title must be a
// decimal row count; when it grows past the last count seen, the new rows
// are written out before the title handler returns.
type RowSignal struct {
	grid   screen.Grid
	dumper *dump.Dumper
	log    logrus.FieldLogger

	last  int
	dumps int
	err   error
}

// NewRowSignal returns a signal that dumps through d.
func NewRowSignal(d *dump.Dumper, log logrus.FieldLogger) *RowSignal {
	if log == nil {
		log = discard
	}
	return &RowSignal{dumper: d, log: log}
}

// Attach sets the grid rows are dumped from. It must be called before the
// first title arrives.
func (s *RowSignal) Attach(g screen.Grid) {
	s.grid = g
}

// HandleTitle is the screen's title hook.
func (s *RowSignal) HandleTitle(title string) {
	if s.err != nil {
		return
	}

	v, err := strconv.ParseUint(title, 10, 64)
	if err != nil {
		s.err = fmt.Errorf("%w: title %q", ErrProtocol, title)
		return
	}

	rows := s.grid.Rows()
	if v > uint64(rows) {
		s.log.WithFields(logrus.Fields{
			"signalled": v,
			"rows":      rows,
		}).Warn("document taller than the screen, output truncated")
		v = uint64(rows)
	}

	n := int(v)
	if n <= s.last {
		s.log.WithField("rows", n).Debug("row signal not past last dump, ignored")
		return
	}

	r := dump.Range{From: s.last, To: n}
	if err := s.dumper.Dump(s.grid, r); err != nil {
		s.err = fmt.Errorf("dump rows %d-%d: %w", r.From, r.To, err)
		return
	}
	s.log.WithFields(logrus.Fields{"from": r.From, "rows": r.Len()}).Debug("dumped rows")
	s.last = n
	s.dumps++
}

// Err returns the first failure seen by the hook.
func (s *RowSignal) Err() error {
	return s.err
}

// Last returns the row count of the most recent dump.
func (s *RowSignal) Last() int {
	return s.last
}

// Dumped reports whether at least one range has been written.
func (s *RowSignal) Dumped() bool {
	return s.dumps > 0
}
