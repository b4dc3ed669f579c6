//go:build !windows

package pty

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// requirePTY skips tests that need a pseudo-terminal when none can be
// allocated, as in some sandboxes.
func requirePTY(t *testing.T) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("no pseudo-terminal: %v", err)
	}
	master.Close()
	slave.Close()
}

// drain reads the session until end of output and waits for the child.
func drain(t *testing.T, sess *Session) ([]byte, Status) {
	t.Helper()

	var out bytes.Buffer
	buf := make([]byte, 1024)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		n, err := sess.ReadOutput(buf, 50*time.Millisecond)
		out.Write(buf[:n])
		if errors.Is(err, ErrEndOfOutput) {
			break
		}
		require.NoError(t, err)
	}

	for time.Now().Before(deadline) {
		st, done, err := sess.CheckExited()
		require.NoError(t, err)
		if done {
			return out.Bytes(), st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("child did not finish")
	return nil, Status{}
}

func TestChildEnv(t *testing.T) {
	env := ChildEnv([]string{"HOME=/root", "TERM=screen", "LINES=10", "COLUMNS=20", "TERMINFO=/x"})
	assert.Equal(t, []string{"HOME=/root", "TERMINFO=/x", "TERM=xterm-256color"}, env)
}

func TestResizeSequence(t *testing.T) {
	assert.Equal(t, "\x1b[8;4096;80t", ResizeSequence(4096, 80))
}

func TestSpawnReadsUntilEnd(t *testing.T) {
	requirePTY(t)
	s := &Spawner{Cols: 80, Rows: 24}
	sess, err := s.Spawn([]string{"sh", "-c", "printf hello"})
	require.NoError(t, err)
	defer sess.Close()

	out, st := drain(t, sess)
	assert.True(t, bytes.HasPrefix(out, []byte(ResizeSequence(24, 80))), "resize sequence comes first: %q", out)
	assert.Contains(t, string(out), "hello")
	assert.True(t, st.Success(), st.String())
}

func TestSpawnWindowSize(t *testing.T) {
	requirePTY(t)
	s := &Spawner{Cols: 77, Rows: 500}
	sess, err := s.Spawn([]string{"stty", "size"})
	require.NoError(t, err)
	defer sess.Close()

	out, st := drain(t, sess)
	assert.Contains(t, string(out), "500 77")
	assert.True(t, st.Success())
}

func TestSpawnExitStatus(t *testing.T) {
	requirePTY(t)
	s := &Spawner{Cols: 80, Rows: 24}
	sess, err := s.Spawn([]string{"sh", "-c", "exit 3"})
	require.NoError(t, err)
	defer sess.Close()

	_, st := drain(t, sess)
	assert.Equal(t, Status{Code: 3}, st)
	assert.Equal(t, "exit status 3", st.String())
}

func TestSpawnExecFailure(t *testing.T) {
	requirePTY(t)
	s := &Spawner{Cols: 80, Rows: 24}
	_, err := s.Spawn([]string{"/nonexistent/highlighter"})
	assert.ErrorIs(t, err, ErrExec)

	_, err = s.Spawn(nil)
	assert.ErrorIs(t, err, ErrExec)
}

func TestSpawnInvalidSize(t *testing.T) {
	_, err := (&Spawner{Cols: 0, Rows: 24}).Spawn([]string{"true"})
	assert.Error(t, err)
	_, err = (&Spawner{Cols: 80, Rows: 70000}).Spawn([]string{"true"})
	assert.Error(t, err)
}

func TestSpawnStdoutOverride(t *testing.T) {
	requirePTY(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	s := &Spawner{Cols: 80, Rows: 24, Stdout: w}
	sess, err := s.Spawn([]string{"sh", "-c", "printf redirected"})
	w.Close()
	require.NoError(t, err)
	defer sess.Close()

	out, _ := drain(t, sess)
	assert.NotContains(t, string(out), "redirected")

	got := make([]byte, 64)
	n, _ := r.Read(got)
	assert.Equal(t, "redirected", string(got[:n]))
}

func TestSpawnKill(t *testing.T) {
	requirePTY(t)
	s := &Spawner{Cols: 80, Rows: 24}
	sess, err := s.Spawn([]string{"sleep", "30"})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Kill())
	_, st := drain(t, sess)
	assert.True(t, st.Signaled)
	assert.Equal(t, unix.SIGKILL, st.Signal)

	// Reaped children are not signalled again.
	assert.NoError(t, sess.Kill())
}

func TestQuitSequenceReachesChild(t *testing.T) {
	requirePTY(t)
	s := &Spawner{Cols: 80, Rows: 24}
	sess, err := s.Spawn([]string{"sh", "-c", "read line; printf 'got:%s' \"$line\""})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Quit("bye\r"))
	out, st := drain(t, sess)
	assert.Contains(t, string(out), "got:bye")
	assert.True(t, st.Success())
}

func TestCheckExitedPIDMismatch(t *testing.T) {
	sess := &Session{
		pid: 42,
		log: discard,
		wait: func(pid int, ws *unix.WaitStatus, options int, _ *unix.Rusage) (int, error) {
			return 43, nil
		},
	}
	_, _, err := sess.CheckExited()
	assert.ErrorIs(t, err, ErrPIDMismatch)
}

func TestCheckExitedWaitsOnce(t *testing.T) {
	calls := 0
	sess := &Session{
		pid: 42,
		log: discard,
		wait: func(pid int, ws *unix.WaitStatus, options int, _ *unix.Rusage) (int, error) {
			calls++
			assert.Equal(t, unix.WNOHANG, options)
			if calls == 1 {
				return 0, nil
			}
			*ws = 0
			return pid, nil
		},
	}

	_, done, err := sess.CheckExited()
	require.NoError(t, err)
	assert.False(t, done)

	for range 3 {
		st, done, err := sess.CheckExited()
		require.NoError(t, err)
		assert.True(t, done)
		assert.True(t, st.Success())
	}
	assert.Equal(t, 2, calls)
}

func TestCheckExitedWaitError(t *testing.T) {
	sess := &Session{
		pid: 42,
		log: discard,
		wait: func(int, *unix.WaitStatus, int, *unix.Rusage) (int, error) {
			return -1, unix.ECHILD
		},
	}
	_, _, err := sess.CheckExited()
	assert.ErrorIs(t, err, unix.ECHILD)
}
