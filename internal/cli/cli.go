// Package cli implements the syncat command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"syncat/internal/config"
	"syncat/internal/highlight"
	"syncat/internal/pty"
	"syncat/internal/render"
	"syncat/internal/style"
	"syncat/internal/termsize"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitExecFailure = 12
)

var version = "0.1.0"

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// App is one invocation of syncat. The function fields are the outside
// world and are replaced in tests.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Styles *style.Styles

	ConfigPath func() string
	Probe      func() (termsize.Size, error)
	Profile    func(mode string) termenv.Profile
	Render     func(render.Options) (render.Result, error)

	flags struct {
		config   string
		editor   string
		maxRows  int
		color    string
		settings []string
		verbose  bool
		quiet    bool
	}
	log *logrus.Logger
}

// NewApp returns an App wired to the process's stdio and terminal.
func NewApp() *App {
	return &App{
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Styles:     style.Stderr,
		ConfigPath: config.Path,
		Probe:      termsize.Probe,
		Profile: func(mode string) termenv.Profile {
			return colorProfile(os.Stdout, mode)
		},
		Render: render.Render,
	}
}

// Execute runs syncat with os.Args and returns the exit code.
func Execute() int {
	return NewApp().Run(os.Args[1:])
}

// Run parses args, renders and maps the outcome to an exit code.
func (a *App) Run(args []string) int {
	cmd := a.command()
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}

	fmt.Fprintln(a.Stderr, a.Styles.Err(err))
	code := exitCode(err)
	if code == ExitUsage {
		fmt.Fprintln(a.Stderr, a.Styles.Dim.Render("Run 'syncat --help' for usage."))
	}
	return code
}

func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &ue):
		return ExitUsage
	case errors.Is(err, pty.ErrExec):
		return ExitExecFailure
	default:
		return ExitFailure
	}
}

func (a *App) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "syncat [flags] FILE",
		Short: "Print a file with the editor's syntax highlighting",
		Long: `Print a file with the editor's syntax highlighting.

syncat runs the editor (Vim by default) read-only on a pseudo-terminal as
tall as the document, captures the screen it draws and writes the text to
stdout with the editor's colours as ANSI escape sequences.

Configuration is read from $SYNCAT_CONFIG, $XDG_CONFIG_HOME/syncat/config.toml
or ~/.config/syncat/config.toml; flags take precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usagef("expected exactly one FILE, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd, args[0])
		},
	}
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	f := cmd.Flags()
	f.StringVar(&a.flags.config, "config", "", "config file (default $SYNCAT_CONFIG or ~/.config/syncat/config.toml)")
	f.StringVar(&a.flags.editor, "editor", "", "highlighter program (default vim)")
	f.IntVar(&a.flags.maxRows, "max-rows", 0, "height of the virtual screen, bounds the document length")
	f.StringVar(&a.flags.color, "color", "", "colour output: auto, always or never")
	f.StringArrayVar(&a.flags.settings, "set", nil, "extra editor command, e.g. --set 'colorscheme desert' (repeatable)")
	f.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug messages")
	f.BoolVarP(&a.flags.quiet, "quiet", "q", false, "log errors only")
	return cmd
}

func (a *App) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := a.flags.config
	if path == "" {
		path = a.ConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("editor") {
		cfg.Editor = a.flags.editor
	}
	if f.Changed("max-rows") {
		cfg.MaxRows = a.flags.maxRows
	}
	if f.Changed("color") {
		cfg.Color = a.flags.color
	}
	if f.Changed("set") {
		cfg.EditorSettings = append(cfg.EditorSettings, a.flags.settings...)
	}
	if a.flags.verbose && a.flags.quiet {
		return nil, usagef("--verbose and --quiet are mutually exclusive")
	}
	if err := cfg.Validate(); err != nil {
		return nil, &usageError{err: err}
	}
	return cfg, nil
}

func (a *App) render(cmd *cobra.Command, path string) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	a.setupLogging(cfg)

	if err := highlight.CheckTarget(path); err != nil {
		return err
	}
	size, err := a.Probe()
	if err != nil {
		return err
	}
	argv, err := (&highlight.Builder{Editor: cfg.Editor, Settings: cfg.EditorSettings}).Build(path)
	if err != nil {
		return err
	}

	profile := a.Profile(cfg.Color)
	a.log.WithFields(logrus.Fields{
		"cols":    size.Cols,
		"rows":    cfg.MaxRows,
		"profile": profileName(profile),
		"argv":    strings.Join(argv, " "),
	}).Debug("rendering")

	res, err := a.Render(render.Options{
		Cols:            size.Cols,
		Rows:            cfg.MaxRows,
		Argv:            argv,
		Output:          a.Stdout,
		Profile:         profile,
		ReadBuffer:      cfg.ReadBuffer,
		PollInterval:    cfg.PollInterval(),
		QuitSequence:    cfg.Quit(),
		QuitGrace:       cfg.QuitGrace(),
		TranscriptLines: cfg.TranscriptLines,
		Logger:          a.log,
	})
	if err != nil {
		return err
	}
	a.log.WithFields(logrus.Fields{
		"rows":   res.Rows,
		"bytes":  res.Bytes,
		"status": res.Status.String(),
	}).Debug("done")
	return nil
}

func (a *App) setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	switch {
	case a.flags.verbose:
		level = logrus.DebugLevel
	case a.flags.quiet:
		level = logrus.ErrorLevel
	}

	a.log = logrus.New()
	a.log.SetOutput(a.Stderr)
	a.log.SetFormatter(&messageFormatter{styles: a.Styles})
	a.log.SetLevel(level)
}

func colorProfile(w io.Writer, mode string) termenv.Profile {
	switch mode {
	case config.ColorAlways:
		return termenv.TrueColor
	case config.ColorNever:
		return termenv.Ascii
	default:
		return termenv.NewOutput(w).EnvColorProfile()
	}
}

func profileName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "truecolor"
	case termenv.ANSI256:
		return "ansi256"
	case termenv.ANSI:
		return "ansi"
	default:
		return "none"
	}
}
