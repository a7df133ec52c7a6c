package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeWAV wraps mono PCM16 samples in a RIFF/WAVE container so a completed
// item's accumulated audio becomes a playable artifact.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid sample rate %d", sampleRate)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("audio: no samples to encode")
	}

	dataLen := len(samples) * bytesPerSample

	buf := new(bytes.Buffer)
	buf.Grow(44 + dataLen)

	write := func(v any) {
		// bytes.Buffer writes cannot fail.
		_ = binary.Write(buf, binary.LittleEndian, v)
	}

	buf.WriteString("RIFF")
	write(uint32(36 + dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(1)) // mono
	write(uint32(sampleRate))
	write(uint32(sampleRate * bytesPerSample)) // byte rate
	write(uint16(bytesPerSample))              // block align
	write(uint16(16))                          // bits per sample

	buf.WriteString("data")
	write(uint32(dataLen))
	for _, s := range samples {
		write(s)
	}

	return buf.Bytes(), nil
}
