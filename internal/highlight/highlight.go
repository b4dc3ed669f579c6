// Package highlight builds the command line of the external highlighter.
//
// The highlighter is an editor (Vim by default) run read-only inside the
// PTY. Once it has drawn the document it moves to the last line and, through
// a shell escape, prints the completion signal:
//
//	ESC ] 2 ; <last row> BEL
//
// which is an OSC 2 "set window title" sequence carrying the 1-based screen
// row of the document's last character. Lines wider than the screen wrap, so
// this is the number of screen rows holding the document, which can exceed
// the number of document lines. When the last line is not entirely on screen
// a row past the screen is sent and the supervisor truncates. No other
// title changes are expected, which is why the builder also turns off the
// editor's own 'title' option.
package highlight

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// maxCommands is Vim's limit on "+cmd" and "-c cmd" arguments.
const maxCommands = 10

// ErrTarget is returned when the file to render is unusable.
var ErrTarget = errors.New("invalid target file")

// ErrTooManyCommands is returned when the extra settings would push the
// command line over the editor's limit.
var ErrTooManyCommands = errors.New("too many editor commands")

// chromeSettings hides everything that is not document text, and keeps
// drawing on the primary screen (empty t_ti/t_te) so the grid is not wiped
// by an alternate-screen switch.
var chromeSettings = []string{
	"noshowmode",
	"noruler",
	"laststatus=0",
	"noshowcmd",
	"notitle",
	"t_ti=",
	"t_te=",
}

// lastRowExpr is the screen row of the last character of the last line, or
// one past the screen height when that line does not fit in the window.
const lastRowExpr = `max([get(screenpos(win_getid(), line('$'), max([1, col([line('$'), '$']) - 1])), 'row'), (line('w$') < line('$')) * (&lines + 1)])`

// signalCommand emits the completion signal. '%', '#', '!' and '|' are
// avoided since ":!" and ":exe" treat them specially.
const signalCommand = `exe "silent !printf '\\033]2;" . ` + lastRowExpr + ` . "\\007'"`

// Builder constructs the highlighter's argument vector.
type Builder struct {
	// Editor is the program to run, looked up in PATH when not absolute.
	Editor string
	// Settings are extra ex commands run after the chrome settings,
	// e.g. "set background=dark" or "colorscheme desert".
	Settings []string
}

// Build returns the argument vector rendering path. The vector never asks
// the editor to quit; that is left to the supervisor once the dump is done.
func (b *Builder) Build(path string) ([]string, error) {
	editor := b.Editor
	if editor == "" {
		editor = "vim"
	}

	// -R: read-only, -n: no swap file, -i NONE: no viminfo.
	argv := []string{editor, "-R", "-n", "-i", "NONE"}

	cmds := []string{"set " + strings.Join(chromeSettings, " ")}
	cmds = append(cmds, b.Settings...)
	cmds = append(cmds, "redraw", "$", signalCommand)
	if len(cmds) > maxCommands {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyCommands, len(cmds), maxCommands)
	}

	settings := cmds[:len(cmds)-3]
	for _, c := range settings {
		argv = append(argv, "-c", c)
	}

	// "--" keeps a file named like an option from being parsed as one;
	// the "+cmd" arguments must precede it.
	for _, c := range cmds[len(cmds)-3:] {
		argv = append(argv, "+"+c)
	}
	argv = append(argv, "--", path)

	return argv, nil
}

// CheckTarget verifies that path names an existing, regular, readable file.
func CheckTarget(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTarget, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrTarget, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTarget, err)
	}
	return f.Close()
}
