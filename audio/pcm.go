package audio

import "encoding/binary"

// Samples converts little-endian PCM16 bytes to int16 samples. A trailing
// odd byte is dropped.
func Samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/bytesPerSample)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
	}
	return out
}

// Bytes converts int16 samples to little-endian PCM16 bytes.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*bytesPerSample:], uint16(s))
	}
	return out
}

// DurationMs returns the playback duration in milliseconds of n samples at
// the session sample rate, rounded down.
func DurationMs(n int) int {
	return n * 1000 / SampleRate
}
