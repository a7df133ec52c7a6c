package events

// Item is the wire representation of a conversation item as it appears in
// "conversation.item.created" and inside response output.
type Item struct {
	ID        string        `json:"id,omitempty"`
	Object    string        `json:"object,omitempty"`
	Type      string        `json:"type,omitempty"` // message | function_call | function_call_output
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"` // user | assistant | system
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

type ContentPart struct {
	Type       string `json:"type"` // input_text | input_audio | text | audio
	Text       string `json:"text,omitempty"`
	Audio      string `json:"audio,omitempty"` // base64 PCM16, client-created items only
	Transcript string `json:"transcript,omitempty"`
}
