//go:build !windows

package pty

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// Spawner starts a command on a fresh PTY whose kernel window size is
// Cols x Rows. Rows is usually far larger than the real terminal so the
// whole document fits on one screen.
type Spawner struct {
	Cols int
	Rows int

	// Stdin, Stdout and Stderr replace the slave for the child's fd 0, 1
	// and 2 when non-nil.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Env is the child environment; nil means ChildEnv(os.Environ()).
	Env []string

	Logger logrus.FieldLogger

	// Wait reaps the child; nil means unix.Wait4.
	Wait WaitFunc
}

var discard = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// ChildEnv returns env with TERM forced to xterm-256color and LINES and
// COLUMNS removed, so the child sizes itself from the PTY and speaks the
// dialect the terminal model understands.
func ChildEnv(env []string) []string {
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		switch {
		case strings.HasPrefix(kv, "TERM="),
			strings.HasPrefix(kv, "LINES="),
			strings.HasPrefix(kv, "COLUMNS="):
			continue
		}
		out = append(out, kv)
	}
	return append(out, "TERM=xterm-256color")
}

// ResizeSequence is the xterm "resize text area" request for rows x cols.
func ResizeSequence(rows, cols int) string {
	return fmt.Sprintf("\x1b[8;%d;%dt", rows, cols)
}

// Spawn starts argv attached to a new PTY and returns the session owning
// the master side. The parent's copy of the slave is closed before return,
// so the master reports end of output once the child and its descendants
// are done with the terminal.
func (s *Spawner) Spawn(argv []string) (*Session, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrExec)
	}
	if s.Rows < 1 || s.Rows > 65535 || s.Cols < 1 || s.Cols > 65535 {
		return nil, fmt.Errorf("invalid pty size %dx%d", s.Cols, s.Rows)
	}
	log := s.Logger
	if log == nil {
		log = discard
	}

	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}
	fail := func(err error) (*Session, error) {
		slave.Close()
		master.Close()
		return nil, err
	}

	if err := pty.Setsize(slave, &pty.Winsize{Rows: uint16(s.Rows), Cols: uint16(s.Cols)}); err != nil {
		return fail(fmt.Errorf("set pty size: %w", err))
	}

	// Queued on the slave before the child runs, so it is the first thing
	// read from the master and the model grows to the full size.
	seq := ResizeSequence(s.Rows, s.Cols)
	n, err := slave.Write([]byte(seq))
	if err != nil {
		return fail(fmt.Errorf("write resize sequence: %w", err))
	}
	if n != len(seq) {
		return fail(fmt.Errorf("%w: resize sequence %d of %d bytes", ErrShortWrite, n, len(seq)))
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = s.Env
	if cmd.Env == nil {
		cmd.Env = ChildEnv(os.Environ())
	}

	stdio := [3]*os.File{s.Stdin, s.Stdout, s.Stderr}
	ctty := -1
	for i, f := range stdio {
		if f == nil {
			stdio[i] = slave
			if ctty < 0 {
				ctty = i
			}
		}
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdio[0], stdio[1], stdio[2]

	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if ctty >= 0 {
		cmd.SysProcAttr.Setctty = true
		cmd.SysProcAttr.Ctty = ctty
	}

	if err := cmd.Start(); err != nil {
		return fail(fmt.Errorf("%w: %s: %v", ErrExec, argv[0], err))
	}
	slave.Close()

	wait := s.Wait
	if wait == nil {
		wait = unix.Wait4
	}

	sess := &Session{
		cmd:    cmd,
		pid:    cmd.Process.Pid,
		master: master,
		fd:     int(master.Fd()),
		wait:   wait,
		log:    log.WithField("pid", cmd.Process.Pid),
	}
	sess.log.WithFields(logrus.Fields{
		"cols": s.Cols,
		"rows": s.Rows,
		"argv": strings.Join(argv, " "),
	}).Debug("spawned highlighter")
	return sess, nil
}

// Session is a running child and the master side of its PTY.
type Session struct {
	cmd    *exec.Cmd
	pid    int
	master *os.File
	fd     int
	wait   WaitFunc
	log    logrus.FieldLogger

	exited bool
	status Status
}

// Pid returns the child's process id.
func (s *Session) Pid() int {
	return s.pid
}

// CheckExited reaps the child without blocking. Once the child has been
// reaped the recorded status is returned and no further wait is issued.
func (s *Session) CheckExited() (Status, bool, error) {
	if s.exited {
		return s.status, true, nil
	}

	var ws unix.WaitStatus
	wpid, err := s.wait(s.pid, &ws, unix.WNOHANG, nil)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return Status{}, false, nil
		}
		return Status{}, false, fmt.Errorf("wait for pid %d: %w", s.pid, err)
	}
	if wpid == 0 {
		return Status{}, false, nil
	}
	if wpid != s.pid {
		return Status{}, false, fmt.Errorf("%w: waited for %d, got %d", ErrPIDMismatch, s.pid, wpid)
	}

	s.exited = true
	s.status = statusOf(ws)
	if s.cmd != nil {
		s.cmd.Process.Release()
	}
	s.log.WithField("status", s.status.String()).Debug("highlighter exited")
	return s.status, true, nil
}

// ReadOutput waits up to timeout for the master to become readable and
// reads at most len(buf) bytes. A timeout yields (0, nil). Once the slave
// has no open references left it returns ErrEndOfOutput.
func (s *Session) ReadOutput(buf []byte, timeout time.Duration) (int, error) {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	ready, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return 0, fmt.Errorf("poll pty: %w", err)
	}
	if ready == 0 {
		return 0, nil
	}

	// POLLHUP and POLLERR fall through as well: the read reports them.
	n, err := unix.Read(s.fd, buf)
	switch {
	case err == nil && n == 0:
		return 0, ErrEndOfOutput
	case err == nil:
		return n, nil
	case errors.Is(err, unix.EIO):
		return 0, ErrEndOfOutput
	case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
		return 0, nil
	default:
		return 0, fmt.Errorf("read pty: %w", err)
	}
}

// Write sends bytes to the child's terminal input.
func (s *Session) Write(p []byte) (int, error) {
	return s.master.Write(p)
}

// Quit types seq into the child's terminal.
func (s *Session) Quit(seq string) error {
	if seq == "" || s.exited {
		return nil
	}
	if _, err := s.master.Write([]byte(seq)); err != nil {
		return fmt.Errorf("send quit sequence: %w", err)
	}
	return nil
}

// Kill sends SIGKILL to the child if it has not been reaped yet.
func (s *Session) Kill() error {
	if s.exited {
		return nil
	}
	if err := unix.Kill(s.pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("kill pid %d: %w", s.pid, err)
	}
	return nil
}

// Close releases the master side.
func (s *Session) Close() error {
	return s.master.Close()
}
