package audio

import (
	"github.com/faiface/beep"
)

// sampleStreamer adapts mono PCM16 samples to a beep.Streamer.
type sampleStreamer struct {
	data []int16
	pos  int
}

func (s *sampleStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.pos >= len(s.data) {
			return i, false
		}
		val := float64(s.data[s.pos]) / 32768.0
		samples[i][0] = val
		samples[i][1] = val
		s.pos++
	}
	return len(samples), true
}

func (s *sampleStreamer) Err() error { return nil }

// Resample converts mono PCM16 from fromRate to toRate. It returns the input
// unchanged when the rates already match.
func Resample(pcm []byte, fromRate, toRate int) []byte {
	if fromRate == toRate {
		return pcm
	}

	resampler := beep.Resample(3, beep.SampleRate(fromRate), beep.SampleRate(toRate), &sampleStreamer{data: Samples(pcm)})

	var out []int16
	frame := make([][2]float64, 1024)
	for {
		n, ok := resampler.Stream(frame)
		for i := 0; i < n; i++ {
			mono := (frame[i][0] + frame[i][1]) / 2.0
			out = append(out, int16(mono*32767))
		}
		if !ok {
			break
		}
	}

	return Bytes(out)
}
