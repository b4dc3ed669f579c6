// Package scrollback keeps the tail of the highlighter's raw output so it can
// be shown when the highlighter fails.
package scrollback

import (
	"strings"
	"sync"

	"syncat/internal/vt"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 200

// maxPartial bounds a line that never sees a newline.
const maxPartial = 4096

// Buffer is a thread-safe ring of output lines. Raw PTY bytes are split on
// newlines; carriage returns and escape sequences are dropped and lines that
// end up blank are not kept.
type Buffer struct {
	mu       sync.RWMutex
	lines    []string
	capacity int
	head     int // next write position
	count    int // number of committed lines
	partial  []byte
	total    int64
}

// New creates a buffer holding at most capacity lines.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Write records raw terminal output. It never fails.
func (b *Buffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total += int64(len(data))
	for _, c := range data {
		switch c {
		case '\n':
			b.commitLine()
		case '\r':
			continue
		default:
			b.partial = append(b.partial, c)
			if len(b.partial) >= maxPartial {
				b.splitLine()
			}
		}
	}
	return len(data), nil
}

func (b *Buffer) commitLine() {
	line := clean(b.partial)
	b.partial = b.partial[:0]
	if line == "" {
		return
	}

	b.lines[b.head] = line
	b.head = (b.head + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}
}

// splitLine commits an overlong partial line, holding back an unterminated
// escape sequence so it is stripped whole once it completes.
func (b *Buffer) splitLine() {
	cut := vt.PendingEscape(string(b.partial))
	pending := append([]byte(nil), b.partial[cut:]...)
	if len(pending) >= maxPartial {
		// The introducer alone still matches the rest of the sequence.
		pending = pending[:2]
	}
	b.partial = b.partial[:cut]
	b.commitLine()
	b.partial = append(b.partial, pending...)
}

func clean(raw []byte) string {
	return strings.TrimRight(vt.Strip(string(raw)), " \t")
}

// Tail returns the most recent n lines, including the unterminated last
// line when it has visible text.
func (b *Buffer) Tail(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	partial := clean(b.partial)
	committed := n
	if partial != "" {
		committed = n - 1
	}

	result := b.getLinesLocked(committed)
	if partial != "" {
		result = append(result, partial)
	}
	return result
}

// Capacity returns the maximum number of lines the buffer can hold.
func (b *Buffer) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.capacity
}

// Total returns the number of bytes written so far.
func (b *Buffer) Total() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

func (b *Buffer) getLinesLocked(n int) []string {
	if n <= 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}

	result := make([]string, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.lines[(start+i)%b.capacity]
	}
	return result
}
