package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(s *trackStreamer, n int) [][2]float64 {
	buf := make([][2]float64, n)
	s.Stream(buf)
	return buf
}

func TestTrackStreamer_SilenceWhenEmpty(t *testing.T) {
	s := newTrackStreamer()

	buf := stream(s, 8)
	for _, v := range buf {
		assert.Equal(t, [2]float64{}, v)
	}
	assert.Nil(t, s.interrupt())
}

func TestTrackStreamer_PlaysChunksBackToBack(t *testing.T) {
	s := newTrackStreamer()
	s.enqueue("a1", []int16{16384, 16384})
	s.enqueue("a1", []int16{-16384})

	buf := stream(s, 4)
	assert.InDelta(t, 0.5, buf[0][0], 1e-3)
	assert.InDelta(t, 0.5, buf[1][0], 1e-3)
	assert.InDelta(t, -0.5, buf[2][0], 1e-3)
	assert.Equal(t, [2]float64{}, buf[3]) // silence after the queue drains
}

func TestTrackStreamer_InterruptReportsEmittedOffset(t *testing.T) {
	s := newTrackStreamer()
	s.enqueue("a1", make([]int16, 100))
	s.enqueue("a1", make([]int16, 100))

	stream(s, 150)

	res := s.interrupt()
	require.NotNil(t, res)
	assert.Equal(t, "a1", res.TrackID)
	assert.Equal(t, 150, res.SampleOffset)

	// the interrupt cleared the queue
	assert.Equal(t, [2]float64{}, stream(s, 1)[0])
	assert.Nil(t, s.interrupt())
}

func TestTrackStreamer_OffsetSurvivesDeltaGaps(t *testing.T) {
	s := newTrackStreamer()
	s.enqueue("a1", make([]int16, 50))

	// drain fully, then more audio for the same track arrives late
	stream(s, 80)
	s.enqueue("a1", make([]int16, 50))
	stream(s, 20)

	res := s.interrupt()
	require.NotNil(t, res)
	assert.Equal(t, "a1", res.TrackID)
	assert.Equal(t, 70, res.SampleOffset)
}

func TestTrackStreamer_NewTrackStartsFresh(t *testing.T) {
	s := newTrackStreamer()
	s.enqueue("a1", make([]int16, 30))
	stream(s, 30)

	s.enqueue("a2", make([]int16, 40))
	stream(s, 10)

	res := s.interrupt()
	require.NotNil(t, res)
	assert.Equal(t, "a2", res.TrackID)
	assert.Equal(t, 10, res.SampleOffset)
}

func TestTrackStreamer_InterruptAfterDrainIsNil(t *testing.T) {
	s := newTrackStreamer()
	s.enqueue("a1", make([]int16, 10))

	// stream past the end so the streamer noticed the drain
	stream(s, 20)
	assert.Nil(t, s.interrupt())
}

func TestTrackStreamer_Reset(t *testing.T) {
	s := newTrackStreamer()
	s.enqueue("a1", make([]int16, 10))
	stream(s, 5)

	s.reset()
	assert.Nil(t, s.interrupt())
	assert.Equal(t, [2]float64{}, stream(s, 1)[0])
}
