// Package transcript keeps the chat log shown in the expanded panel.
package transcript

import (
	"sync"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one chat message. Spans is Text converted for display.
type Entry struct {
	ID    string
	Role  Role
	Text  string
	Spans []Span
}

// Log is an append-only, in-memory transcript.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewLog() *Log { return &Log{} }

// Append adds an entry and returns it.
func (l *Log) Append(role Role, text string) Entry {
	e := Entry{
		ID:    uuid.NewString(),
		Role:  role,
		Text:  text,
		Spans: Format(text),
	}
	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()
	return e
}

// Entries returns a copy of the transcript in order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Entry(nil), l.entries...)
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// lastOf returns the most recent entry with the given role.
func (l *Log) lastOf(role Role) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Role == role {
			return l.entries[i], true
		}
	}
	return Entry{}, false
}
