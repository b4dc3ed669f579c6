// Package vt encodes cell renditions as SGR sequences and strips escape
// sequences from raw terminal output.
package vt

import (
	"regexp"
	"strings"
)

// escapePattern matches ANSI/VT escape sequences:
//   - CSI sequences: ESC [ params intermediates final_byte
//   - OSC sequences: ESC ] ... ST (or BEL)
//   - Charset designations: ESC ( B and friends
//   - Simple ESC sequences: ESC + one char
var escapePattern = regexp.MustCompile(
	`\x1b\[[0-9;:?<=>!]*[ -/]*[@-~]` +
		`|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)` +
		`|\x1b[()*+][0-9A-Za-z]` +
		`|\x1b[^[\]]`,
)

// Strip removes all ANSI/VT escape sequences from s, returning plain text.
func Strip(s string) string {
	return escapePattern.ReplaceAllString(s, "")
}

// PendingEscape returns the offset of an escape sequence that s ends in the
// middle of, or len(s) when it does not.
func PendingEscape(s string) int {
	i := strings.LastIndexByte(s, '\x1b')
	if i < 0 {
		return len(s)
	}
	tail := s[i:]
	if len(tail) == 2 && strings.IndexByte("()*+", tail[1]) >= 0 {
		return i
	}
	if loc := escapePattern.FindStringIndex(tail); loc != nil && loc[0] == 0 {
		return len(s)
	}
	return i
}
