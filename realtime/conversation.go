package realtime

import (
	"encoding/base64"
	"slices"

	"github.com/codewandler/rtvoice/audio"
	"github.com/codewandler/rtvoice/events"
)

// ItemStatus tracks whether an item is still streaming.
type ItemStatus string

const (
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

// Role identifies who produced a conversation item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ToolCall marks an item as a function call streamed by the agent.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments string
}

// Formatted is the presentation payload of an item, grown incrementally as
// deltas arrive.
type Formatted struct {
	// Transcript is the spoken-audio transcript (assistant output transcript
	// or user input transcription).
	Transcript string

	// Text is plain streamed text, for text-modality content.
	Text string

	// Audio accumulates the item's PCM16 samples.
	Audio []int16

	// WAV is the playable artifact decoded from Audio once the item
	// completes. Nil until then.
	WAV []byte

	// Tool is set for function-call items.
	Tool *ToolCall
}

// Item is one turn or tool interaction in the conversation. Items are
// mutated in place while streaming; the identifier stays stable for the life
// of the item.
type Item struct {
	ID        string
	Type      string
	Role      Role
	Status    ItemStatus
	Formatted Formatted
}

// clone returns a detached copy of the item. Published items are clones, so
// consumers never alias store state that later events keep mutating.
func (i *Item) clone() *Item {
	c := *i
	c.Formatted.Audio = slices.Clone(i.Formatted.Audio)
	c.Formatted.WAV = slices.Clone(i.Formatted.WAV)
	if i.Formatted.Tool != nil {
		tool := *i.Formatted.Tool
		c.Formatted.Tool = &tool
	}
	return &c
}

// Delta is the incremental change that a single server event contributed to
// an item.
type Delta struct {
	Audio      []byte // PCM16
	Transcript string
	Text       string
	Arguments  string
}

// Conversation is the authoritative ordered item list, reconciled from
// server events in delivery order. It is not safe for concurrent use; the
// owning Client serializes access.
type Conversation struct {
	items []*Item
	byID  map[string]*Item
}

func NewConversation() *Conversation {
	return &Conversation{byID: make(map[string]*Item)}
}

// Items returns the items in creation order. The returned slice is a copy;
// the pointed-to items are the live ones.
func (c *Conversation) Items() []*Item {
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// Item returns the item with the given id, or nil.
func (c *Conversation) Item(id string) *Item {
	return c.byID[id]
}

// Clear drops all items.
func (c *Conversation) Clear() {
	c.items = nil
	c.byID = make(map[string]*Item)
}

// Apply reconciles one server event into the item list. It returns the
// affected item and the delta the event contributed, either of which may be
// nil when the event does not touch conversation state.
func (c *Conversation) Apply(evt any) (*Item, *Delta) {
	switch e := evt.(type) {
	case *events.ConversationItemCreatedEvent:
		return c.upsert(e.Item), nil

	case *events.ResponseOutputItemAddedEvent:
		return c.upsert(e.Item), nil

	case *events.ResponseOutputItemDoneEvent:
		item := c.upsert(e.Item)
		item.Status = ItemCompleted
		return item, nil

	case *events.InputAudioTranscriptionCompletedEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		item.Formatted.Transcript += e.Transcript
		return item, &Delta{Transcript: e.Transcript}

	case *events.AudioTranscriptDeltaEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		item.Formatted.Transcript += e.Delta
		return item, &Delta{Transcript: e.Delta}

	case *events.AudioDeltaEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		pcm, err := base64.StdEncoding.DecodeString(e.Delta)
		if err != nil || len(pcm) == 0 {
			return item, nil
		}
		item.Formatted.Audio = append(item.Formatted.Audio, audio.Samples(pcm)...)
		return item, &Delta{Audio: pcm}

	case *events.TextDeltaEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		item.Formatted.Text += e.Delta
		return item, &Delta{Text: e.Delta}

	case *events.FunctionCallArgumentsDeltaEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		if item.Formatted.Tool == nil {
			item.Formatted.Tool = &ToolCall{CallID: e.CallID}
		}
		item.Formatted.Tool.Arguments += e.Delta
		return item, &Delta{Arguments: e.Delta}

	case *events.ConversationItemTruncatedEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		end := e.AudioEndMs * audio.SampleRate / 1000
		if end < len(item.Formatted.Audio) {
			item.Formatted.Audio = item.Formatted.Audio[:end]
		}
		// The spoken transcript no longer matches what was heard.
		item.Formatted.Transcript = ""
		item.Formatted.WAV = nil
		return item, nil

	case *events.ConversationItemDeletedEvent:
		item := c.byID[e.ItemID]
		if item == nil {
			return nil, nil
		}
		delete(c.byID, e.ItemID)
		for i, it := range c.items {
			if it.ID == e.ItemID {
				c.items = append(c.items[:i], c.items[i+1:]...)
				break
			}
		}
		return item, nil
	}

	return nil, nil
}

// upsert creates the item if unseen, otherwise refreshes status, role and
// tool metadata from the wire item. Accumulated formatted state is preserved.
func (c *Conversation) upsert(w events.Item) *Item {
	if item, ok := c.byID[w.ID]; ok {
		c.refresh(item, w)
		return item
	}

	item := &Item{
		ID:     w.ID,
		Type:   w.Type,
		Role:   Role(w.Role),
		Status: ItemInProgress,
	}
	c.refresh(item, w)

	c.byID[item.ID] = item
	c.items = append(c.items, item)
	return item
}

func (c *Conversation) refresh(item *Item, w events.Item) {
	if w.Status == "completed" {
		item.Status = ItemCompleted
	}
	if w.Role != "" {
		item.Role = Role(w.Role)
	}
	if w.Type != "" {
		item.Type = w.Type
	}

	if w.Type == "function_call" {
		if item.Formatted.Tool == nil {
			item.Formatted.Tool = &ToolCall{}
		}
		if w.CallID != "" {
			item.Formatted.Tool.CallID = w.CallID
		}
		if w.Name != "" {
			item.Formatted.Tool.Name = w.Name
		}
		if w.Arguments != "" {
			item.Formatted.Tool.Arguments = w.Arguments
		}
	}

	// Client-created items arrive with their content inline.
	for _, part := range w.Content {
		switch part.Type {
		case "input_text", "text":
			if item.Formatted.Text == "" {
				item.Formatted.Text = part.Text
			}
		case "input_audio", "audio":
			if part.Transcript != "" && item.Formatted.Transcript == "" {
				item.Formatted.Transcript = part.Transcript
			}
		}
	}
}
