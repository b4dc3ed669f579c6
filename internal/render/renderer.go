package render

import (
	"errors"
	"io"
	"time"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"

	"syncat/internal/dump"
	"syncat/internal/pty"
	"syncat/internal/screen"
	"syncat/internal/scrollback"
	"syncat/internal/vt"
)

// Options configures a Render call.
type Options struct {
	// Cols is the width of the viewer's terminal; Rows is the height of
	// the virtual screen the document is drawn on.
	Cols int
	Rows int

	// Argv is the highlighter command line.
	Argv []string

	Output  io.Writer
	Profile termenv.Profile

	ReadBuffer      int
	PollInterval    time.Duration
	QuitSequence    string
	QuitGrace       time.Duration
	TranscriptLines int

	Logger logrus.FieldLogger
}

// Render runs the highlighter on a fresh PTY and writes the rows it
// signals to opts.Output.
func Render(opts Options) (Result, error) {
	log := opts.Logger
	if log == nil {
		log = discard
	}

	sig := NewRowSignal(dump.New(opts.Output, vt.NewEncoder(opts.Profile)), log)

	sp := &pty.Spawner{
		Cols:   opts.Cols,
		Rows:   opts.Rows,
		Logger: log,
	}
	sess, err := sp.Spawn(opts.Argv)
	if err != nil {
		return Result{}, err
	}
	defer sess.Close()

	scr := screen.New(opts.Cols, opts.Rows,
		screen.WithTitleHandler(sig.HandleTitle),
		screen.WithResponse(sess),
	)
	sig.Attach(scr)

	transcript := scrollback.New(opts.TranscriptLines)
	loop := &Loop{
		Child:        sess,
		Model:        scr,
		Signal:       sig,
		Transcript:   transcript,
		ReadBuffer:   opts.ReadBuffer,
		PollInterval: opts.PollInterval,
		QuitSequence: opts.QuitSequence,
		QuitGrace:    opts.QuitGrace,
		Logger:       log.WithField("pid", sess.Pid()),
	}

	res, err := loop.Run()
	switch {
	case errors.Is(err, ErrNoSignal):
		logTranscript(log, transcript, res)
		logScreen(log, scr)
	case err == nil && !res.Killed && !res.Status.Success():
		log.WithField("status", res.Status.String()).Warn("highlighter exited abnormally")
		logTranscript(log, transcript, res)
	}
	return res, err
}

// logScreen logs the non-blank rows the highlighter left on screen. Error
// messages drawn with cursor motion read better here than in the transcript.
func logScreen(log logrus.FieldLogger, scr *screen.Screen) {
	for y, line := range scr.Capture(0, scr.Rows()) {
		if line != "" {
			log.WithField("row", y).Debug(line)
		}
	}
}

func logTranscript(log logrus.FieldLogger, tr *scrollback.Buffer, res Result) {
	lines := tr.Tail(tr.Capacity())
	log.WithFields(logrus.Fields{
		"status": res.Status.String(),
		"bytes":  tr.Total(),
		"lines":  len(lines),
	}).Warn("highlighter output follows")
	for _, line := range lines {
		log.Warn("| " + line)
	}
}
