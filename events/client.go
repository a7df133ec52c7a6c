package events

// Client-originated events, named after their wire "type" tag.

type SessionUpdateEvent struct {
	Base
	Session SessionUpdate `json:"session"`
}

type InputAudioAppendEvent struct {
	Base
	Audio string `json:"audio"` // base64-encoded PCM16
}

type ConversationItemCreateEvent struct {
	Base
	PreviousItemID string `json:"previous_item_id,omitempty"`
	Item           Item   `json:"item"`
}

// ConversationItemTruncateEvent asks the server to drop everything past
// AudioEndMs from an assistant item the user talked over, keeping the remote
// transcript aligned with what was actually heard.
type ConversationItemTruncateEvent struct {
	Base
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

type ResponseCreateEvent struct {
	Base
	Response ResponseCreatePayload `json:"response"`
}

type ResponseCreatePayload struct {
	Modalities   []string `json:"modalities,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Voice        string   `json:"voice,omitempty"`
}

type ResponseCancelEvent struct {
	Base
}
