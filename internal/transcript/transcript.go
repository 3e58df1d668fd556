// Package transcript keeps the bounded, ordered log of past command
// exchanges. Each entry is replayed as grounding context in every new prompt,
// so the window directly bounds prompt size. Entries are append-only; when
// the window overflows, the oldest entry is evicted and the remaining order
// is preserved.
package transcript

import (
	"mirage/internal/vfs"
)

// DefaultWindow is the number of entries retained when no window is configured.
const DefaultWindow = 10

// Entry records one completed exchange: what was typed, what the oracle
// printed, where the command ran, and a flattened snapshot of that
// directory's children after reconciliation.
type Entry struct {
	Command              string                 `json:"command"`
	Output               string                 `json:"output"`
	DirectoryAtExecution vfs.Path               `json:"directory"`
	FileListingSnapshot  map[string]vfs.Summary `json:"files"`
}

// Log is the bounded transcript. Not safe for concurrent use; the session
// controller serializes access.
type Log struct {
	window  int
	entries []Entry
}

// NewLog creates a transcript bounded to window entries. A non-positive
// window falls back to DefaultWindow.
func NewLog(window int) *Log {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Log{window: window, entries: make([]Entry, 0, window)}
}

// Append records an entry, evicting the oldest when the window is exceeded.
func (l *Log) Append(e Entry) {
	l.entries = append(l.entries, e)
	if len(l.entries) > l.window {
		// Shift rather than reslice so the backing array doesn't grow unbounded.
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.window]
	}
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return len(l.entries) }

// Window returns the configured window size.
func (l *Log) Window() int { return l.window }
