package events

import (
	"encoding/json"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Base carries the fields every realtime protocol event shares.
type Base struct {
	EventID string `json:"event_id,omitempty"`
	Type    string `json:"type"`
}

func NewBase(eventType string) Base {
	id, err := nanoid.New()
	if err != nil {
		panic(err)
	}
	return Base{
		EventID: id,
		Type:    eventType,
	}
}

func Parse[T any](data []byte) (*T, error) {
	var x T
	if err := json.Unmarshal(data, &x); err != nil {
		return nil, err
	}
	return &x, nil
}

// NewItemID returns a fresh identifier suitable for client-created
// conversation items.
func NewItemID() string {
	id, err := nanoid.New()
	if err != nil {
		panic(err)
	}
	return "item_" + id
}
