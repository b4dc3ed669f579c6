// Package render drives the highlighter: it pumps PTY output into the
// screen model, reacts to row signals and finally stops the child.
package render

import (
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"syncat/internal/pty"
)

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// Child is the supervised highlighter as seen by the loop.
type Child interface {
	CheckExited() (pty.Status, bool, error)
	ReadOutput(buf []byte, timeout time.Duration) (int, error)
	Quit(seq string) error
	Kill() error
}

// Result describes how a render ended.
type Result struct {
	Status pty.Status
	Rows   int
	Bytes  int64
	Killed bool
}

// Loop feeds everything the child writes into Model until the child has
// exited and its output is exhausted.
type Loop struct {
	Child Child
	// Model receives the raw output; its title hook is Signal.HandleTitle.
	Model  io.Writer
	Signal *RowSignal
	// Transcript, when set, gets a copy of the raw output.
	Transcript io.Writer

	ReadBuffer   int
	PollInterval time.Duration

	// QuitSequence is typed into the child once the first dump is done.
	QuitSequence string
	// QuitGrace is how long the child gets to exit after that before it
	// is killed.
	QuitGrace time.Duration

	Logger logrus.FieldLogger

	now   func() time.Time
	sleep func(time.Duration)
}

type loopState struct {
	childAlive bool
	ptyAtEnd   bool
	quitSent   bool
	quitAt     time.Time
}

// Run executes the loop. On a fatal error a still running child is killed.
func (l *Loop) Run() (Result, error) {
	l.defaults()

	var res Result
	st := loopState{childAlive: true}
	buf := make([]byte, l.ReadBuffer)

	fail := func(err error) (Result, error) {
		if st.childAlive {
			if kerr := l.Child.Kill(); kerr != nil {
				l.Logger.WithError(kerr).Warn("could not kill highlighter")
			}
		}
		return res, err
	}

	for st.childAlive || !st.ptyAtEnd {
		if st.childAlive {
			status, exited, err := l.Child.CheckExited()
			if err != nil {
				return fail(err)
			}
			if exited {
				st.childAlive = false
				res.Status = status
				l.Logger.WithField("status", status.String()).Debug("child exited")
			}
		}

		if !st.ptyAtEnd {
			n, err := l.Child.ReadOutput(buf, l.PollInterval)
			if n > 0 {
				res.Bytes += int64(n)
				if l.Transcript != nil {
					l.Transcript.Write(buf[:n])
				}
				if _, werr := l.Model.Write(buf[:n]); werr != nil {
					return fail(werr)
				}
			}
			switch {
			case errors.Is(err, pty.ErrEndOfOutput):
				st.ptyAtEnd = true
				l.Logger.WithField("bytes", res.Bytes).Debug("pty output ended")
			case err != nil:
				return fail(err)
			}
		} else if st.childAlive {
			l.sleep(l.PollInterval)
		}

		if err := l.Signal.Err(); err != nil {
			return fail(err)
		}

		if st.childAlive && l.Signal.Dumped() {
			l.stopChild(&st, &res)
		}
	}

	if !l.Signal.Dumped() {
		return res, ErrNoSignal
	}
	res.Rows = l.Signal.Last()
	return res, nil
}

// stopChild sends the quit keystrokes once and kills the child when it
// outlives the grace period.
func (l *Loop) stopChild(st *loopState, res *Result) {
	if !st.quitSent {
		st.quitSent = true
		st.quitAt = l.now()
		if l.QuitSequence == "" {
			return
		}
		if err := l.Child.Quit(l.QuitSequence); err != nil {
			l.Logger.WithError(err).Debug("quit sequence not delivered")
		}
		return
	}
	if res.Killed || l.now().Sub(st.quitAt) < l.QuitGrace {
		return
	}
	l.Logger.WithField("grace", l.QuitGrace).Warn("highlighter did not quit, killing it")
	if err := l.Child.Kill(); err != nil {
		l.Logger.WithError(err).Warn("could not kill highlighter")
	}
	res.Killed = true
}

func (l *Loop) defaults() {
	if l.ReadBuffer <= 0 {
		l.ReadBuffer = 4096
	}
	if l.PollInterval <= 0 {
		l.PollInterval = 50 * time.Millisecond
	}
	if l.Logger == nil {
		l.Logger = discard
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.sleep == nil {
		l.sleep = time.Sleep
	}
}
