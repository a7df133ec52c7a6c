package realtime

import (
	"encoding/json"
	"time"

	"github.com/codewandler/rtvoice/events"
)

// Source tells which side of the wire produced an event.
type Source string

const (
	SourceClient Source = "client"
	SourceServer Source = "server"
)

// SessionEvent is an event delivered on the Client's event channel.
type SessionEvent interface {
	sessionEvent() string
}

// Raw wraps every protocol event crossing the wire, in either direction, for
// observability. Typed events for the same wire event follow it on the
// channel.
type Raw struct {
	Time    time.Time
	Source  Source
	Type    string
	Payload json.RawMessage
}

func (Raw) sessionEvent() string { return "raw" }

// ItemUpdated reports that the conversation store changed. Delta is nil when
// the event affected item metadata only.
type ItemUpdated struct {
	Item  *Item
	Delta *Delta
}

func (ItemUpdated) sessionEvent() string { return "item_updated" }

// Interrupted signals that the agent detected the user speaking over an
// in-progress response.
type Interrupted struct{}

func (Interrupted) sessionEvent() string { return "interrupted" }

// ServerError surfaces a non-fatal error event from the agent.
type ServerError struct {
	Err *events.ErrorEvent
}

func (ServerError) sessionEvent() string { return "error" }

// Disconnected signals that the transport connection terminated. Err is nil
// on a clean close.
type Disconnected struct {
	Err error
}

func (Disconnected) sessionEvent() string { return "disconnected" }
