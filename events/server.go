package events

import "fmt"

type ErrorEvent struct {
	Base
	ErrorDetail ErrorDetail `json:"error"`
}

func (e *ErrorEvent) Error() string {
	return e.ErrorDetail.Error()
}

// ErrorDetail holds the details of a server-reported error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
	EventID string `json:"event_id"`
}

func (e *ErrorDetail) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type SessionCreatedEvent struct {
	Base
	Session Session `json:"session"`
}

type SessionUpdatedEvent struct {
	Base
	Session Session `json:"session"`
}

type ConversationItemCreatedEvent struct {
	Base
	PreviousItemID string `json:"previous_item_id,omitempty"`
	Item           Item   `json:"item"`
}

type ConversationItemTruncatedEvent struct {
	Base
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMs   int    `json:"audio_end_ms"`
}

type ConversationItemDeletedEvent struct {
	Base
	ItemID string `json:"item_id"`
}

// InputAudioTranscriptionCompletedEvent carries the transcript of a user
// audio item, produced asynchronously by the input transcription model.
type InputAudioTranscriptionCompletedEvent struct {
	Base
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

type SpeechStartedEvent struct {
	Base
	AudioStartMs int    `json:"audio_start_ms"`
	ItemID       string `json:"item_id"`
}

type SpeechStoppedEvent struct {
	Base
	AudioEndMs int    `json:"audio_end_ms"`
	ItemID     string `json:"item_id"`
}

type ResponseCreatedEvent struct {
	Base
	Response Response `json:"response"`
}

type ResponseDoneEvent struct {
	Base
	Response Response `json:"response"`
}

type Response struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Output []Item `json:"output,omitempty"`
}

type ResponseOutputItemAddedEvent struct {
	Base
	ResponseID  string `json:"response_id"`
	OutputIndex int    `json:"output_index"`
	Item        Item   `json:"item"`
}

type ResponseOutputItemDoneEvent struct {
	Base
	ResponseID  string `json:"response_id"`
	OutputIndex int    `json:"output_index"`
	Item        Item   `json:"item"`
}

// deltaFields are shared by all streaming delta events.
type deltaFields struct {
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
}

type AudioDeltaEvent struct {
	Base
	deltaFields
	Delta string `json:"delta"` // base64 PCM16
}

type AudioDoneEvent struct {
	Base
	deltaFields
}

type AudioTranscriptDeltaEvent struct {
	Base
	deltaFields
	Delta string `json:"delta"`
}

type AudioTranscriptDoneEvent struct {
	Base
	deltaFields
	Transcript string `json:"transcript"`
}

type TextDeltaEvent struct {
	Base
	deltaFields
	Delta string `json:"delta"`
}

type TextDoneEvent struct {
	Base
	deltaFields
	Text string `json:"text"`
}

type FunctionCallArgumentsDeltaEvent struct {
	Base
	ResponseID  string `json:"response_id"`
	ItemID      string `json:"item_id"`
	OutputIndex int    `json:"output_index"`
	CallID      string `json:"call_id"`
	Delta       string `json:"delta"`
}
