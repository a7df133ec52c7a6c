// Package device implements the audio port contracts against real hardware:
// microphone capture through portaudio and speaker playback through the beep
// mixer. The session orchestrator only sees the audio.Recorder and
// audio.Player interfaces.
package device

import "github.com/gordonklaus/portaudio"

// Init prepares the host audio subsystem. Call once before creating any
// recorder, and pair with Terminate on shutdown.
func Init() error {
	return portaudio.Initialize()
}

// Terminate releases the host audio subsystem.
func Terminate() error {
	return portaudio.Terminate()
}
