// Package logger keeps a single, bounded, in-memory log for the whole program.
// Entries are tagged with the subsystem that made them ("beat", "worker",
// "midi", ...) and a run of identical entries is folded into one. The log can
// be echoed to a writer as it grows, e.g. to stderr when running with -v.
package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Entry is a single line of the log.
type Entry struct {
	Time   time.Time
	Tag    string
	Detail string
	// Repeated counts how many times the same entry was logged again right
	// after the first one.
	Repeated int
}

func (e Entry) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%s: %s", e.Tag, e.Detail)
	if e.Repeated > 0 {
		fmt.Fprintf(&s, " (repeat x%d)", e.Repeated+1)
	}
	s.WriteString("\n")
	return s.String()
}

// MaxEntries is the number of entries the log keeps; older entries are
// dropped.
const MaxEntries = 256

type log struct {
	mu      sync.Mutex
	entries []Entry
	echo    io.Writer
}

var central = &log{}

// Log adds an entry to the log.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the log.
func Logf(tag, format string, args ...interface{}) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// Clear removes all entries.
func Clear() {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.entries = central.entries[:0]
}

// Write writes all entries to output, oldest first.
func Write(output io.Writer) {
	Tail(output, MaxEntries)
}

// Tail writes the last n entries to output.
func Tail(output io.Writer, n int) {
	entries := Entries()
	if n := min(max(n, 0), len(entries)); n < len(entries) {
		entries = entries[len(entries)-n:]
	}
	for _, e := range entries {
		io.WriteString(output, e.String())
	}
}

// Entries returns a copy of the current entries, oldest first.
func Entries() []Entry {
	central.mu.Lock()
	defer central.mu.Unlock()
	ret := make([]Entry, len(central.entries))
	copy(ret, central.entries)
	return ret
}

// SetEcho makes every new or repeated entry be written also to output. A nil
// output turns echoing off.
func SetEcho(output io.Writer) {
	central.mu.Lock()
	defer central.mu.Unlock()
	central.echo = output
}

func (l *log) log(tag, detail string) {
	tag = strings.ReplaceAll(tag, "\n", " ")
	detail = strings.ReplaceAll(detail, "\n", " ")
	l.mu.Lock()
	defer l.mu.Unlock()
	var e *Entry
	if n := len(l.entries); n > 0 && l.entries[n-1].Tag == tag && l.entries[n-1].Detail == detail {
		e = &l.entries[n-1]
		e.Repeated++
		e.Time = time.Now()
	} else {
		l.entries = append(l.entries, Entry{Time: time.Now(), Tag: tag, Detail: detail})
		if len(l.entries) > MaxEntries {
			l.entries = append(l.entries[:0], l.entries[len(l.entries)-MaxEntries:]...)
		}
		e = &l.entries[len(l.entries)-1]
	}
	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}
