package rtvoice

import (
	"context"
	"sync"

	"github.com/codewandler/rtvoice/audio"
	"github.com/codewandler/rtvoice/events"
	"github.com/codewandler/rtvoice/realtime"
)

// calls records method invocations across mocks so tests can assert ordering.
type calls struct {
	mu    sync.Mutex
	names []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *calls) count(name string) int {
	n := 0
	for _, x := range c.list() {
		if x == name {
			n++
		}
	}
	return n
}

// fakeTransport implements Transport against an in-memory event channel.
type fakeTransport struct {
	calls *calls

	mu        sync.Mutex
	connected bool
	items     []*realtime.Item
	patches   []realtime.SessionPatch
	cancels   []cancelCall
	audio     [][]byte
	messages  [][]events.ContentPart

	connectErr error
	events     chan realtime.SessionEvent

	// connectRelease, when set, makes Connect block until it is closed so
	// overlapping transitions can be provoked.
	connectRelease chan struct{}
}

type cancelCall struct {
	trackID string
	offset  int
}

func newFakeTransport(c *calls) *fakeTransport {
	return &fakeTransport{
		calls:  c,
		events: make(chan realtime.SessionEvent, 64),
	}
}

func (t *fakeTransport) Connect(ctx context.Context) error {
	t.calls.add("transport.Connect")
	if t.connectRelease != nil {
		select {
		case <-t.connectRelease:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if t.connectErr != nil {
		return t.connectErr
	}
	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) Disconnect() error {
	t.calls.add("transport.Disconnect")
	t.mu.Lock()
	t.connected = false
	t.items = nil
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *fakeTransport) UpdateSession(patch realtime.SessionPatch) error {
	t.calls.add("transport.UpdateSession")
	t.mu.Lock()
	defer t.mu.Unlock()
	t.patches = append(t.patches, patch)
	return nil
}

func (t *fakeTransport) SendUserMessage(content ...events.ContentPart) error {
	t.calls.add("transport.SendUserMessage")
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, content)
	return nil
}

func (t *fakeTransport) AppendInputAudio(pcm []byte) error {
	t.calls.add("transport.AppendInputAudio")
	t.mu.Lock()
	defer t.mu.Unlock()
	t.audio = append(t.audio, pcm)
	return nil
}

func (t *fakeTransport) CancelResponse(trackID string, sampleOffset int) error {
	t.calls.add("transport.CancelResponse")
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancels = append(t.cancels, cancelCall{trackID: trackID, offset: sampleOffset})
	return nil
}

func (t *fakeTransport) TurnDetectionType() string { return "" }

func (t *fakeTransport) Items() []*realtime.Item {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*realtime.Item, len(t.items))
	copy(out, t.items)
	return out
}

func (t *fakeTransport) setItems(items ...*realtime.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = items
}

func (t *fakeTransport) Events() <-chan realtime.SessionEvent { return t.events }

// fakeRecorder implements audio.Recorder in memory.
type fakeRecorder struct {
	calls *calls

	mu       sync.Mutex
	status   audio.Status
	onFrame  audio.FrameFunc
	beginErr error
}

func newFakeRecorder(c *calls) *fakeRecorder {
	return &fakeRecorder{calls: c, status: audio.StatusEnded}
}

func (r *fakeRecorder) Begin() error {
	r.calls.add("rec.Begin")
	if r.beginErr != nil {
		return r.beginErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = audio.StatusPaused
	return nil
}

func (r *fakeRecorder) Record(onFrame audio.FrameFunc) error {
	r.calls.add("rec.Record")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = audio.StatusRecording
	r.onFrame = onFrame
	return nil
}

func (r *fakeRecorder) Pause() error {
	r.calls.add("rec.Pause")
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == audio.StatusRecording {
		r.status = audio.StatusPaused
	}
	return nil
}

func (r *fakeRecorder) End() error {
	r.calls.add("rec.End")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = audio.StatusEnded
	return nil
}

func (r *fakeRecorder) Status() audio.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *fakeRecorder) emitFrame(pcm []byte) {
	r.mu.Lock()
	onFrame := r.onFrame
	r.mu.Unlock()
	if onFrame != nil {
		onFrame(pcm)
	}
}

// fakePlayer implements audio.Player in memory.
type fakePlayer struct {
	calls *calls

	mu        sync.Mutex
	chunks    []playedChunk
	interrupt *audio.Interruption
}

type playedChunk struct {
	trackID string
	pcm     []byte
}

func newFakePlayer(c *calls) *fakePlayer { return &fakePlayer{calls: c} }

func (p *fakePlayer) Connect() error {
	p.calls.add("player.Connect")
	return nil
}

func (p *fakePlayer) Add16BitPCM(pcm []byte, trackID string) {
	p.calls.add("player.Add16BitPCM")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, playedChunk{trackID: trackID, pcm: pcm})
}

func (p *fakePlayer) Interrupt() (*audio.Interruption, error) {
	p.calls.add("player.Interrupt")
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.interrupt
	p.interrupt = nil
	return res, nil
}

func (p *fakePlayer) setInterruption(trackID string, offset int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interrupt = &audio.Interruption{TrackID: trackID, SampleOffset: offset}
}
