// Package rtvoice drives a live voice conversation with a streaming
// speech-to-speech agent: it owns the session lifecycle, the turn-taking
// policy, the interruption protocol and the reconciliation of streamed
// deltas into a stable transcript and event log.
package rtvoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codewandler/rtvoice/audio"
	"github.com/codewandler/rtvoice/events"
	"github.com/codewandler/rtvoice/realtime"
)

// TurnMode selects how end-of-user-utterance is decided.
type TurnMode string

const (
	// TurnModeManual leaves end-of-turn signalling to the user; the
	// microphone is not routed continuously.
	TurnModeManual TurnMode = "manual"

	// TurnModeVAD delegates endpointing to the agent's server-side voice
	// activity detection; every captured frame is streamed to the agent.
	TurnModeVAD TurnMode = "voice-activity"
)

const defaultInstructions = "You are a friendly voice assistant. Keep replies short and conversational."

// ErrTransitionInFlight is returned when a connect or disconnect is
// requested while another lifecycle transition is still running.
var ErrTransitionInFlight = errors.New("rtvoice: lifecycle transition already in flight")

// TextContent builds a text content part for a user message.
func TextContent(text string) events.ContentPart {
	return events.ContentPart{Type: "input_text", Text: text}
}

// Transport is the session transport consumed by the Console. Implemented by
// [realtime.Client]; replaced by mocks in tests.
type Transport interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool
	UpdateSession(patch realtime.SessionPatch) error
	SendUserMessage(content ...events.ContentPart) error
	AppendInputAudio(pcm []byte) error
	CancelResponse(trackID string, sampleOffset int) error
	TurnDetectionType() string
	Items() []*realtime.Item
	Events() <-chan realtime.SessionEvent
}

// Console is the session orchestrator. It consumes events from the
// transport, drives the audio ports, and republishes the conversation item
// list and event log as immutable snapshots after every change.
//
// All exported methods are safe for concurrent use. Only one connect or
// disconnect transition may be in flight at a time; overlapping requests are
// rejected with [ErrTransitionInFlight].
type Console struct {
	transport Transport
	rec       audio.Recorder
	player    audio.Player
	logger    *slog.Logger

	instructions       string
	voice              string
	transcriptionModel string
	greeting           string
	onUpdate           func()

	mu            sync.Mutex
	connected     bool
	transitioning bool
	mode          TurnMode
	startedAt     time.Time
	items         []*realtime.Item
	log           EventLog
	decoded       map[string]bool   // item id -> WAV decode attempted
	wavs          map[string][]byte // item id -> decoded artifact

	done      chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}
}

// New creates a Console and pushes the initial session configuration
// (instructions, voice, input transcription) to the transport. The
// configuration is a property of the console's lifetime, not of any single
// session: the transport replays it on every connect.
func New(transport Transport, rec audio.Recorder, player audio.Player, opts ...Option) *Console {
	c := &Console{
		transport: transport,
		rec:       rec,
		player:    player,
		decoded:   make(map[string]bool),
		wavs:      make(map[string][]byte),
		done:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
	withDefaults()(c)
	for _, opt := range opts {
		opt(c)
	}

	patch := realtime.SessionPatch{
		Instructions: &c.instructions,
	}
	if c.voice != "" {
		patch.Voice = &c.voice
	}
	if c.transcriptionModel != "" {
		patch.InputAudioTranscription = &events.InputAudioTranscription{Model: c.transcriptionModel}
	}
	if err := transport.UpdateSession(patch); err != nil {
		c.logger.Warn("initial session config rejected", slog.Any("err", err))
	}

	go c.loop()
	return c
}

// Close stops the control loop and tears the session down. It waits for an
// in-flight lifecycle transition to finish so the session never outlives the
// loop. Subsequent calls are no-ops.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		for {
			if err := c.Disconnect(); !errors.Is(err, ErrTransitionInFlight) {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		close(c.done)
	})
	<-c.loopDone
	return nil
}

// ── Lifecycle ────────────────────────────────────────────────────────────────

func (c *Console) beginTransition() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transitioning {
		return ErrTransitionInFlight
	}
	c.transitioning = true
	return nil
}

func (c *Console) endTransition() {
	c.mu.Lock()
	c.transitioning = false
	c.mu.Unlock()
}

// Connect starts a new session: derived state is reset, the audio ports are
// started, the transport is opened and a greeting message kicks off the
// conversation. When the turn mode is voice-activity, microphone routing is
// armed immediately.
//
// On failure the system is left disconnected with no ports running, and the
// error is returned to the caller.
func (c *Console) Connect(ctx context.Context) error {
	if err := c.beginTransition(); err != nil {
		return err
	}
	defer c.endTransition()

	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("rtvoice: already connected")
	}
	c.log.Reset()
	c.items = c.transport.Items()
	c.decoded = make(map[string]bool)
	c.wavs = make(map[string][]byte)
	c.startedAt = time.Now()
	c.mu.Unlock()

	if err := c.rec.Begin(); err != nil {
		return fmt.Errorf("rtvoice: start input port: %w", err)
	}
	if err := c.player.Connect(); err != nil {
		_ = c.rec.End()
		return fmt.Errorf("rtvoice: start output port: %w", err)
	}
	if err := c.transport.Connect(ctx); err != nil {
		_ = c.rec.End()
		return fmt.Errorf("rtvoice: open transport: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	mode := c.mode
	c.mu.Unlock()

	if err := c.transport.SendUserMessage(events.ContentPart{Type: "input_text", Text: c.greeting}); err != nil {
		c.logger.Warn("greeting rejected", slog.Any("err", err))
	}

	if mode == TurnModeVAD {
		c.armRecording()
	}

	c.notify()
	return nil
}

// Disconnect ends the session: derived state is cleared, the transport is
// closed before the ports are torn down, and any pending playback is
// interrupted with the result discarded. Calling Disconnect when already
// disconnected only re-issues the best-effort port stop calls.
func (c *Console) Disconnect() error {
	if err := c.beginTransition(); err != nil {
		return err
	}
	defer c.endTransition()

	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.items = nil
	c.log.Reset()
	c.mu.Unlock()

	// Transport first: late audio callbacks must not race a closed session.
	if wasConnected {
		if err := c.transport.Disconnect(); err != nil {
			c.logger.Warn("transport disconnect failed", slog.Any("err", err))
		}
	}
	_ = c.rec.End()
	_, _ = c.player.Interrupt()

	if wasConnected {
		c.notify()
	}
	return nil
}

// ── Turn detection ───────────────────────────────────────────────────────────

// SetTurnMode switches the turn-detection policy. Entering manual mode
// pauses the microphone before the configuration change is sent; (re)entering
// voice-activity mode pushes the VAD descriptor and re-arms continuous
// microphone routing when a session is live.
func (c *Console) SetTurnMode(mode TurnMode) error {
	switch mode {
	case TurnModeManual, TurnModeVAD:
	default:
		return fmt.Errorf("rtvoice: unknown turn mode %q", mode)
	}

	c.mu.Lock()
	c.mode = mode
	connected := c.connected
	c.mu.Unlock()

	if mode == TurnModeManual {
		if c.rec.Status() == audio.StatusRecording {
			if err := c.rec.Pause(); err != nil {
				return fmt.Errorf("rtvoice: pause input: %w", err)
			}
		}
		return c.transport.UpdateSession(realtime.SessionPatch{
			TurnDetection:    nil,
			TurnDetectionSet: true,
		})
	}

	// The agent's endpointing behavior depends on this flag, so it is
	// pushed before local routing is armed.
	if err := c.transport.UpdateSession(realtime.SessionPatch{
		TurnDetection:    events.ServerVAD(),
		TurnDetectionSet: true,
	}); err != nil {
		return err
	}
	if connected {
		c.armRecording()
	}
	return nil
}

// Mode returns the active turn-detection mode.
func (c *Console) Mode() TurnMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// armRecording starts the continuous microphone-to-transport routing. Each
// frame is forwarded fire-and-forget; delivery failures are logged, not
// propagated to the frame producer.
func (c *Console) armRecording() {
	if c.rec.Status() == audio.StatusRecording {
		return
	}
	err := c.rec.Record(func(pcm []byte) {
		if err := c.transport.AppendInputAudio(pcm); err != nil {
			c.logger.Debug("input audio dropped", slog.Any("err", err))
		}
	})
	if err != nil {
		c.logger.Warn("failed to arm microphone routing", slog.Any("err", err))
	}
}

// ── Derived state snapshots ──────────────────────────────────────────────────

// IsConnected reports whether a session is live.
func (c *Console) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// StartedAt returns the current session's start timestamp.
func (c *Console) StartedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startedAt
}

// Items returns the published conversation snapshot in creation order.
// Callers must treat the items as read-only.
func (c *Console) Items() []*realtime.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*realtime.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Log returns a copy of the aggregated event log.
func (c *Console) Log() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Entries()
}

func (c *Console) notify() {
	if c.onUpdate != nil {
		c.onUpdate()
	}
}

// ── Control loop ─────────────────────────────────────────────────────────────

// loop is the single thread of control consuming transport events in
// delivery order. It never reorders or drops events.
func (c *Console) loop() {
	defer close(c.loopDone)

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.transport.Events():
			c.handle(ev)
		}
	}
}

func (c *Console) handle(ev realtime.SessionEvent) {
	switch e := ev.(type) {
	case realtime.Raw:
		c.mu.Lock()
		c.log.Append(e.Time, e.Source, e.Type, e.Payload)
		c.mu.Unlock()
		c.notify()

	case realtime.Interrupted:
		c.handleInterruption()

	case realtime.ItemUpdated:
		c.handleItemUpdate(e)

	case realtime.ServerError:
		// Observational only: the transport classifies fatal errors itself
		// and emits Disconnected when it cannot continue.
		c.logger.Warn("agent error", slog.Any("err", e.Err))

	case realtime.Disconnected:
		c.handleTransportGone(e.Err)
	}
}

// handleInterruption runs the cancellation protocol: stop local playback,
// then tell the agent to truncate the cut-off response at the offset that
// was actually heard. An interruption with nothing playing is a no-op, not
// an error: agent-side detection can race local playback finishing.
func (c *Console) handleInterruption() {
	res, err := c.player.Interrupt()
	if err != nil {
		c.logger.Warn("output interrupt failed", slog.Any("err", err))
		return
	}
	if res == nil || res.TrackID == "" {
		return
	}
	if err := c.transport.CancelResponse(res.TrackID, res.SampleOffset); err != nil {
		c.logger.Warn("cancel response failed", slog.Any("err", err))
	}
}

// handleItemUpdate reconciles one conversation update: delta audio is routed
// to the output port keyed by item id, completed items get their accumulated
// audio decoded into a playable artifact exactly once, and the authoritative
// snapshot is republished. Published items are detached copies, so the
// artifacts live console-side and are attached to every fresh snapshot.
func (c *Console) handleItemUpdate(e realtime.ItemUpdated) {
	if e.Delta != nil && len(e.Delta.Audio) > 0 {
		c.player.Add16BitPCM(e.Delta.Audio, e.Item.ID)
	}

	if e.Item.Status == realtime.ItemCompleted && len(e.Item.Formatted.Audio) > 0 {
		c.mu.Lock()
		attempt := !c.decoded[e.Item.ID]
		c.decoded[e.Item.ID] = true
		c.mu.Unlock()

		if attempt {
			wav, err := audio.EncodeWAV(e.Item.Formatted.Audio, audio.SampleRate)
			if err != nil {
				// Keep the item; only the artifact is lost.
				c.logger.Warn("audio decode failed", slog.String("item", e.Item.ID), slog.Any("err", err))
			} else {
				c.mu.Lock()
				c.wavs[e.Item.ID] = wav
				c.mu.Unlock()
			}
		}
	}

	items := c.transport.Items()
	c.mu.Lock()
	for _, item := range items {
		if wav, ok := c.wavs[item.ID]; ok {
			item.Formatted.WAV = wav
		}
	}
	c.items = items
	c.mu.Unlock()
	c.notify()
}

// handleTransportGone reacts to a transport-initiated disconnect: the
// session is over, so local state mirrors a disconnect without calling back
// into the already-closed transport.
func (c *Console) handleTransportGone(err error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.items = nil
	c.log.Reset()
	c.mu.Unlock()

	if !wasConnected {
		return
	}
	if err != nil {
		c.logger.Warn("transport connection lost", slog.Any("err", err))
	}
	_ = c.rec.End()
	_, _ = c.player.Interrupt()
	c.notify()
}
