// Package pty runs the highlighter on the slave side of a pseudo-terminal
// and gives the caller the master side plus non-blocking liveness checks.
package pty

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var (
	// ErrExec is returned when the child program image cannot be loaded.
	ErrExec = errors.New("cannot execute highlighter")

	// ErrPIDMismatch is returned when a wait reports a process other than
	// the one spawned.
	ErrPIDMismatch = errors.New("wait returned unexpected pid")

	// ErrShortWrite is returned when the resize sequence is only partially
	// written to the slave.
	ErrShortWrite = errors.New("short write to pty")

	// ErrEndOfOutput is returned by ReadOutput once the slave side has no
	// open references left (EIO on Linux, EOF elsewhere).
	ErrEndOfOutput = errors.New("end of pty output")
)

// WaitFunc matches unix.Wait4 so tests can substitute it.
type WaitFunc func(pid int, wstatus *unix.WaitStatus, options int, rusage *unix.Rusage) (int, error)

// Status is the exit status of a reaped child.
type Status struct {
	Code     int
	Signaled bool
	Signal   unix.Signal
}

func statusOf(ws unix.WaitStatus) Status {
	if ws.Signaled() {
		return Status{Code: -1, Signaled: true, Signal: ws.Signal()}
	}
	return Status{Code: ws.ExitStatus()}
}

// Success reports a normal exit with code 0.
func (s Status) Success() bool {
	return !s.Signaled && s.Code == 0
}

func (s Status) String() string {
	if s.Signaled {
		return fmt.Sprintf("killed by %s", unix.SignalName(s.Signal))
	}
	return fmt.Sprintf("exit status %d", s.Code)
}
