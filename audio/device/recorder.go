package device

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MarkKremer/microphone/v2"
	"github.com/gopxl/beep/v2"
	"github.com/smallnest/ringbuffer"

	"github.com/codewandler/rtvoice/audio"
)

const (
	defaultFrameDuration = 100 * time.Millisecond
	captureFrames        = 1024
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithDeviceSampleRate opens the microphone at a rate other than the
// session's 24kHz; captured audio is resampled before delivery. Useful for
// drivers that reject 24kHz capture.
func WithDeviceSampleRate(rate int) RecorderOption {
	return func(r *Recorder) { r.deviceRate = rate }
}

// WithFrameDuration sets the duration of each delivered frame. The default
// is 100ms.
func WithFrameDuration(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.frameDur = d }
}

func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// Recorder captures 24kHz mono PCM16 frames from the default microphone. A
// capture goroutine feeds a blocking ring buffer; a delivery goroutine
// re-frames the stream into fixed-size chunks and hands them to the
// registered frame callback while recording.
//
// Recorder is safe for concurrent use.
type Recorder struct {
	deviceRate int
	frameDur   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex
	status  audio.Status
	mic     *microphone.Streamer
	buf     *ringbuffer.RingBuffer
	onFrame audio.FrameFunc
}

// NewRecorder creates an idle Recorder. Init must have been called.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		deviceRate: audio.SampleRate,
		frameDur:   defaultFrameDuration,
		logger:     slog.Default(),
		status:     audio.StatusEnded,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin opens the microphone stream and starts the capture pipeline. It
// fails when the recorder has already begun.
func (r *Recorder) Begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != audio.StatusEnded {
		return fmt.Errorf("device: recorder already begun")
	}

	mic, _, err := microphone.OpenDefaultStream(beep.SampleRate(r.deviceRate), 1)
	if err != nil {
		return fmt.Errorf("device: open microphone: %w", err)
	}
	if err := mic.Start(); err != nil {
		mic.Close()
		return fmt.Errorf("device: start microphone: %w", err)
	}

	// One second of 24kHz mono PCM16.
	buf := ringbuffer.New(audio.SampleRate * 2).SetBlocking(true)

	r.mic = mic
	r.buf = buf
	r.status = audio.StatusPaused

	go r.captureLoop(mic, buf)
	go r.deliverLoop(buf)
	return nil
}

// Record registers onFrame and starts delivering frames. It fails unless the
// recorder has begun and is not already recording.
func (r *Recorder) Record(onFrame audio.FrameFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case audio.StatusEnded:
		return fmt.Errorf("device: recorder has not begun")
	case audio.StatusRecording:
		return fmt.Errorf("device: already recording")
	}

	r.onFrame = onFrame
	r.status = audio.StatusRecording
	return nil
}

// Pause suspends frame delivery without closing the device. A no-op when not
// recording.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == audio.StatusRecording {
		r.status = audio.StatusPaused
	}
	return nil
}

// End releases the microphone. A no-op when not begun.
func (r *Recorder) End() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == audio.StatusEnded {
		return nil
	}

	r.mic.Stop()
	r.mic.Close()
	r.mic = nil
	// Unblocks the delivery loop with io.EOF once drained.
	r.buf.CloseWriter()
	r.buf = nil
	r.onFrame = nil
	r.status = audio.StatusEnded
	return nil
}

// Status reports the capture state.
func (r *Recorder) Status() audio.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// captureLoop pulls samples from the microphone, converts them to session
// PCM16 and writes them into the ring buffer. It exits when the microphone
// stream ends.
func (r *Recorder) captureLoop(mic *microphone.Streamer, buf *ringbuffer.RingBuffer) {
	frames := make([][2]float64, captureFrames)

	for {
		n, ok := mic.Stream(frames)
		if !ok {
			return
		}

		pcm := monoPCM16(frames[:n])
		if r.deviceRate != audio.SampleRate {
			pcm = audio.Resample(pcm, r.deviceRate, audio.SampleRate)
		}

		if _, err := buf.Write(pcm); err != nil {
			return
		}
	}
}

// deliverLoop re-frames the captured stream into fixed chunks and invokes
// the frame callback. Frames arriving while paused are discarded so capture
// never backs up.
func (r *Recorder) deliverLoop(buf *ringbuffer.RingBuffer) {
	reader := audio.NewFrameReader(buf, audio.SampleRate, r.frameDur)
	frame := make([]byte, audio.ChunkSize(audio.SampleRate, r.frameDur))

	for {
		n, err := reader.Read(frame)
		if err != nil {
			if err != io.EOF {
				r.logger.Error("microphone read failed", slog.Any("err", err))
			}
			return
		}

		r.mu.Lock()
		onFrame := r.onFrame
		recording := r.status == audio.StatusRecording
		r.mu.Unlock()

		if recording && onFrame != nil {
			chunk := make([]byte, n)
			copy(chunk, frame[:n])
			onFrame(chunk)
		}
	}
}

// monoPCM16 converts beep's stereo float frames to mono PCM16 bytes, taking
// the left channel.
func monoPCM16(frames [][2]float64) []byte {
	samples := make([]int16, len(frames))
	for i, f := range frames {
		v := f[0]
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		samples[i] = int16(v * 32767)
	}
	return audio.Bytes(samples)
}
