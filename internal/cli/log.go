package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"syncat/internal/style"
)

// messageFormatter prints log entries as "syncat: level: message k=v".
type messageFormatter struct {
	styles *style.Styles
}

func (f *messageFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var st lipgloss.Style
	var label string
	switch e.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		st, label = f.styles.Error, "error"
	case logrus.WarnLevel:
		st, label = f.styles.Warning, "warning"
	case logrus.InfoLevel:
		st, label = f.styles.Info, "info"
	default:
		st, label = f.styles.Dim, "debug"
	}

	var b strings.Builder
	b.WriteString(f.styles.Message(st, label, e.Message))

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(f.styles.Dim.Render(fmt.Sprintf("%s=%v", k, e.Data[k])))
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}
