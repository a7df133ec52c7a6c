// Package audio defines the capture and playback port contracts consumed by
// the session orchestrator, plus the PCM16 utilities shared by their
// implementations.
package audio

// SampleRate is the fixed rate of all PCM flowing through the session,
// matching the realtime agent's pcm16 format.
const SampleRate = 24_000

const bytesPerSample = 2 // 16-bit mono

// Status reports the capture state of a Recorder.
type Status string

const (
	StatusEnded     Status = "ended"
	StatusPaused    Status = "paused"
	StatusRecording Status = "recording"
)

// FrameFunc receives one captured frame of 24kHz mono PCM16.
type FrameFunc func(pcm []byte)

// Recorder is the microphone capture port.
//
// Begin fails when called twice without an intervening End. Record fails
// unless the recorder has begun and is not already recording. Pause and End
// are safe to call in any state.
type Recorder interface {
	Begin() error
	Record(onFrame FrameFunc) error
	Pause() error
	End() error
	Status() Status
}

// Interruption identifies which playback track was cut off and how many
// samples of it were actually emitted before the cut.
type Interruption struct {
	TrackID      string
	SampleOffset int
}

// Player is the playback port. Chunks queued for the same track play in
// submission order. Interrupt stops all playback; it returns nil when
// nothing was playing.
type Player interface {
	Connect() error
	Add16BitPCM(pcm []byte, trackID string)
	Interrupt() (*Interruption, error)
}
