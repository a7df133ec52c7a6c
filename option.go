package rtvoice

import "log/slog"

// Option configures a Console.
type Option func(*Console)

// WithInstructions sets the assistant persona instructions pushed to the
// transport when the console is created.
func WithInstructions(instructions string) Option {
	return func(c *Console) { c.instructions = instructions }
}

// WithVoice selects the assistant voice.
func WithVoice(voice string) Option {
	return func(c *Console) { c.voice = voice }
}

// WithTranscriptionModel selects the model used to transcribe user input
// audio. Pass the empty string to disable input transcription.
func WithTranscriptionModel(model string) Option {
	return func(c *Console) { c.transcriptionModel = model }
}

// WithGreeting sets the user message sent right after a session connects.
func WithGreeting(text string) Option {
	return func(c *Console) { c.greeting = text }
}

// WithTurnMode sets the initial turn-detection mode. The default is
// TurnModeManual.
func WithTurnMode(mode TurnMode) Option {
	return func(c *Console) { c.mode = mode }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) { c.logger = logger }
}

// WithOnUpdate registers a callback invoked from the console's control loop
// after every state change (new log entry, item update, connect state flip).
// The callback must not block.
func WithOnUpdate(fn func()) Option {
	return func(c *Console) { c.onUpdate = fn }
}

func withDefaults() Option {
	return func(c *Console) {
		c.logger = slog.Default()
		c.mode = TurnModeManual
		c.greeting = "Hello!"
		c.instructions = defaultInstructions
		c.transcriptionModel = "whisper-1"
	}
}
