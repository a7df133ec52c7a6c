package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/codewandler/rtvoice/audio"
)

const playLatency = 200 * time.Millisecond

// Player plays PCM16 chunks through the default speaker, one track at a
// time in submission order, and tracks how many samples of the current
// track were actually handed to the mixer so interruptions can report a
// truncation offset.
//
// Player is safe for concurrent use.
type Player struct {
	initOnce sync.Once
	initErr  error
	stream   *trackStreamer
}

// NewPlayer creates an idle Player.
func NewPlayer() *Player {
	return &Player{stream: newTrackStreamer()}
}

// Connect prepares the speaker for playback. Subsequent calls only clear
// leftover state from a previous session.
func (p *Player) Connect() error {
	p.initOnce.Do(func() {
		sr := beep.SampleRate(audio.SampleRate)
		if err := speaker.Init(sr, sr.N(playLatency)); err != nil {
			p.initErr = fmt.Errorf("device: init speaker: %w", err)
			return
		}
		speaker.Play(p.stream)
	})
	if p.initErr != nil {
		return p.initErr
	}

	p.stream.reset()
	return nil
}

// Add16BitPCM queues a PCM16 chunk for the named track. Chunks for the same
// track play in submission order.
func (p *Player) Add16BitPCM(pcm []byte, trackID string) {
	if len(pcm) == 0 || trackID == "" {
		return
	}
	p.stream.enqueue(trackID, audio.Samples(pcm))
}

// Interrupt stops playback. It returns which track was cut off and the
// sample offset actually emitted, or nil when nothing was playing.
func (p *Player) Interrupt() (*audio.Interruption, error) {
	return p.stream.interrupt(), nil
}

// ── trackStreamer ────────────────────────────────────────────────────────────

type trackChunk struct {
	trackID string
	samples []int16
	pos     int
}

// trackStreamer is the single beep streamer feeding the speaker. It plays
// queued chunks back to back and silence when the queue is empty, so the
// mixer never stalls. Offsets are counted per track and survive gaps
// between deltas of the same track.
type trackStreamer struct {
	mu      sync.Mutex
	queue   []trackChunk
	current string         // track currently playing, "" when drained
	emitted map[string]int // track id -> samples handed to the mixer
}

func newTrackStreamer() *trackStreamer {
	return &trackStreamer{emitted: make(map[string]int)}
}

func (s *trackStreamer) enqueue(trackID string, samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, trackChunk{trackID: trackID, samples: samples})
}

func (s *trackStreamer) interrupt() *audio.Interruption {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return nil
	}

	res := &audio.Interruption{
		TrackID:      s.current,
		SampleOffset: s.emitted[s.current],
	}
	s.queue = nil
	delete(s.emitted, s.current)
	s.current = ""
	return res
}

func (s *trackStreamer) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = nil
	s.current = ""
	s.emitted = make(map[string]int)
}

// Stream implements beep.Streamer.
func (s *trackStreamer) Stream(buf [][2]float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range buf {
		for len(s.queue) > 0 && s.queue[0].pos >= len(s.queue[0].samples) {
			s.queue = s.queue[1:]
		}

		if len(s.queue) == 0 {
			// Drained: whatever was playing has finished.
			s.current = ""
			buf[i] = [2]float64{}
			continue
		}

		head := &s.queue[0]
		if head.trackID != s.current {
			s.current = head.trackID
		}

		v := float64(head.samples[head.pos]) / 32768.0
		buf[i] = [2]float64{v, v}
		head.pos++
		s.emitted[head.trackID]++
	}
	return len(buf), true
}

func (s *trackStreamer) Err() error { return nil }
