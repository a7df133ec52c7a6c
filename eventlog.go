package rtvoice

import (
	"encoding/json"
	"time"

	"github.com/codewandler/rtvoice/realtime"
)

// LogEntry is one aggregated row of the session event log.
type LogEntry struct {
	Time    time.Time
	Source  realtime.Source
	Type    string
	Payload json.RawMessage

	// Count is the number of consecutive events of the same type collapsed
	// into this entry.
	Count int
}

// EventLog is an append-only log of protocol events. Consecutive events that
// share a payload type collapse into a single entry with an incremented
// count, so bursty streams (audio deltas, input appends) stay readable.
//
// EventLog is not safe for concurrent use; the Console serializes access.
type EventLog struct {
	entries []*LogEntry
}

// Append records one event, merging it into the previous entry when the type
// repeats. It reports whether a new entry was created.
func (l *EventLog) Append(t time.Time, source realtime.Source, eventType string, payload json.RawMessage) bool {
	if n := len(l.entries); n > 0 && l.entries[n-1].Type == eventType {
		last := l.entries[n-1]
		last.Count++
		last.Payload = payload
		return false
	}

	l.entries = append(l.entries, &LogEntry{
		Time:    t,
		Source:  source,
		Type:    eventType,
		Payload: payload,
		Count:   1,
	})
	return true
}

// Entries returns a copy of the log in append order.
func (l *EventLog) Entries() []LogEntry {
	out := make([]LogEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of aggregated entries.
func (l *EventLog) Len() int { return len(l.entries) }

// Reset drops all entries.
func (l *EventLog) Reset() { l.entries = nil }
