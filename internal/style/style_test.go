package style

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessagePlainOnNonTerminal(t *testing.T) {
	s := New(&bytes.Buffer{})

	assert.Equal(t, "syncat: warning: slow", s.Message(s.Warning, "warning", "slow"))
	assert.Equal(t, "syncat: hello", s.Message(s.Info, "", "hello"))
}

func TestErr(t *testing.T) {
	s := New(&bytes.Buffer{})
	assert.Equal(t, "syncat: error: no such file", s.Err(errors.New("no such file")))
}
