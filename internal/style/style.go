// Package style provides the styles used for messages on stderr.
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Styles renders message decorations for one output stream.
type Styles struct {
	Prefix  lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// New returns styles whose colours follow the capabilities of w.
func New(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	return &Styles{
		Prefix:  r.NewStyle().Bold(true),
		Error:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),
		Dim:     r.NewStyle().Faint(true),
	}
}

// Stderr is the style set for os.Stderr.
var Stderr = New(os.Stderr)

// Message formats "syncat: <label>: text" with label in st. An empty label
// is omitted.
func (s *Styles) Message(st lipgloss.Style, label, text string) string {
	out := s.Prefix.Render("syncat:") + " "
	if label != "" {
		out += st.Render(label+":") + " "
	}
	return out + text
}

// Err formats an error message.
func (s *Styles) Err(err error) string {
	return s.Message(s.Error, "error", err.Error())
}
