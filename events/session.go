package events

type AudioFormat string

const (
	AudioFormatPCM16 AudioFormat = "pcm16"
)

// TurnDetection holds the server-side VAD configuration. A nil TurnDetection
// in a session update disables endpointing entirely, putting the session into
// manual (push-to-talk) turn taking.
type TurnDetection struct {
	Type              string  `json:"type,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
	CreateResponse    bool    `json:"create_response,omitempty"`
	InterruptResponse bool    `json:"interrupt_response,omitempty"`
}

// ServerVAD returns the default voice-activity turn detection descriptor.
func ServerVAD() *TurnDetection {
	return &TurnDetection{
		Type:              "server_vad",
		CreateResponse:    true,
		InterruptResponse: true,
	}
}

// InputAudioTranscription selects the model used to transcribe user audio.
type InputAudioTranscription struct {
	Model string `json:"model,omitempty"`
}

// SessionUpdate is the partial session configuration sent with
// "session.update". Zero-valued fields are omitted from the wire payload and
// keep their server-side value; TurnDetection is always serialized so that an
// explicit null disables endpointing.
type SessionUpdate struct {
	Modalities              []string                 `json:"modalities,omitempty"`
	Instructions            string                   `json:"instructions,omitempty"`
	Voice                   string                   `json:"voice,omitempty"`
	InputAudioFormat        AudioFormat              `json:"input_audio_format,omitempty"`
	OutputAudioFormat       AudioFormat              `json:"output_audio_format,omitempty"`
	InputAudioTranscription *InputAudioTranscription `json:"input_audio_transcription,omitempty"`
	TurnDetection           *TurnDetection           `json:"turn_detection"`
	Temperature             float64                  `json:"temperature,omitempty"`
	Speed                   float64                  `json:"speed,omitempty"`
}

// Session is the server's view of the session, as reported by
// "session.created" and "session.updated".
type Session struct {
	ID                      string                   `json:"id,omitempty"`
	Object                  string                   `json:"object,omitempty"`
	ExpiresAt               int64                    `json:"expires_at,omitempty"`
	Model                   string                   `json:"model,omitempty"`
	Modalities              []string                 `json:"modalities,omitempty"`
	Instructions            string                   `json:"instructions,omitempty"`
	Voice                   string                   `json:"voice,omitempty"`
	InputAudioFormat        string                   `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string                   `json:"output_audio_format,omitempty"`
	InputAudioTranscription *InputAudioTranscription `json:"input_audio_transcription,omitempty"`
	TurnDetection           *TurnDetection           `json:"turn_detection,omitempty"`
	Temperature             float64                  `json:"temperature,omitempty"`
	Speed                   float64                  `json:"speed,omitempty"`
}
