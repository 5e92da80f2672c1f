// Package history keeps a bounded, linear undo log of edit states.
package history

import (
	"time"

	"editify-backend/internal/edits"
)

const DefaultCapacity = 20

type Entry struct {
	State     edits.EditState `json:"state"`
	Timestamp time.Time       `json:"timestamp"`
}

// Log is not safe for concurrent use; the registry serialises access.
type Log struct {
	capacity int
	entries  []Entry
}

func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Append records a snapshot, evicting the oldest entry once full.
func (l *Log) Append(state edits.EditState, at time.Time) {
	l.entries = append(l.entries, Entry{State: state.Clone(), Timestamp: at})
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append([]Entry(nil), l.entries[over:]...)
	}
}

// ReplaceLatest overwrites the newest entry, or appends when the log is empty.
func (l *Log) ReplaceLatest(state edits.EditState, at time.Time) {
	if len(l.entries) == 0 {
		l.Append(state, at)
		return
	}
	l.entries[len(l.entries)-1] = Entry{State: state.Clone(), Timestamp: at}
}

// Undo drops the newest entry and returns the one before it. With one entry
// or fewer it does nothing and reports false.
func (l *Log) Undo() (edits.EditState, bool) {
	if len(l.entries) <= 1 {
		return edits.EditState{}, false
	}
	l.entries = l.entries[:len(l.entries)-1]
	return l.entries[len(l.entries)-1].State.Clone(), true
}

func (l *Log) Len() int {
	return len(l.entries)
}

func (l *Log) Capacity() int {
	return l.capacity
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = Entry{State: e.State.Clone(), Timestamp: e.Timestamp}
	}
	return out
}
