// Package realtime implements the session transport to the conversational
// agent: a duplex websocket carrying typed JSON events, plus the
// authoritative conversation store reconciled from those events.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/codewandler/rtvoice/audio"
	"github.com/codewandler/rtvoice/events"
	"github.com/codewandler/rtvoice/internal/websocket"
)

const (
	ApiKeyEnvVarNameShort = "OPENAI_KEY"
	ApiKeyEnvVarNameLong  = "OPENAI_API_KEY"

	defaultModel   = "gpt-4o-realtime-preview"
	defaultBaseURL = "wss://api.openai.com/v1/realtime"

	// createdTimeout bounds the wait for session.created after the websocket
	// handshake.
	createdTimeout = 10 * time.Second

	eventBuffer = 1024
)

func defaultSession() events.SessionUpdate {
	return events.SessionUpdate{
		Modalities:        []string{"text", "audio"},
		InputAudioFormat:  events.AudioFormatPCM16,
		OutputAudioFormat: events.AudioFormatPCM16,
		TurnDetection:     nil, // manual turn taking until told otherwise
	}
}

// Option configures a Client.
type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithBaseURL overrides the websocket endpoint, primarily for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func WithKey(apiKey string) Option {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithEnvKey(vars ...string) Option {
	return func(c *Client) {
		for _, name := range vars {
			if k := os.Getenv(name); k != "" {
				c.apiKey = k
				return
			}
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// SessionPatch is a partial session configuration. Nil fields are left
// unchanged; TurnDetection is applied only when TurnDetectionSet is true, so
// that an explicit nil disables endpointing.
type SessionPatch struct {
	Instructions            *string
	Voice                   *string
	InputAudioTranscription *events.InputAudioTranscription
	TurnDetection           *events.TurnDetection
	TurnDetectionSet        bool
}

// Client is the session transport. One Client supports any number of
// sequential connect/disconnect cycles; the event channel returned by
// Events spans all of them.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	logger  *slog.Logger

	eventCh chan SessionEvent

	mu        sync.Mutex
	ws        *websocket.Client
	connDone  chan struct{}
	created   chan struct{}
	connected bool
	session   events.SessionUpdate
	conv      *Conversation
}

// New creates a Client. The API key falls back to the environment when no
// WithKey option is given.
func New(opts ...Option) *Client {
	c := &Client{
		model:   defaultModel,
		baseURL: defaultBaseURL,
		logger:  slog.Default(),
		eventCh: make(chan SessionEvent, eventBuffer),
		session: defaultSession(),
		conv:    NewConversation(),
	}
	WithEnvKey(ApiKeyEnvVarNameShort, ApiKeyEnvVarNameLong)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the channel carrying all session events. The channel is
// never closed; it spans reconnects.
func (c *Client) Events() <-chan SessionEvent { return c.eventCh }

// IsConnected reports whether a live connection exists.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// TurnDetectionType returns the active endpointing type ("server_vad") or
// the empty string in manual mode.
func (c *Client) TurnDetectionType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.TurnDetection == nil {
		return ""
	}
	return c.session.TurnDetection.Type
}

// Items returns a detached copy of the conversation snapshot. The returned
// items do not change as further server events arrive.
func (c *Client) Items() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.conv.Items()
	out := make([]*Item, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}

// Connect dials the agent, waits for session.created and pushes the
// accumulated session configuration. The conversation store is cleared for
// the new session.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("realtime: already connected")
	}
	if c.apiKey == "" {
		c.mu.Unlock()
		return fmt.Errorf("realtime: missing api key")
	}
	c.conv.Clear()
	created := make(chan struct{}, 1)
	connDone := make(chan struct{})
	c.created = created
	c.connDone = connDone
	c.mu.Unlock()

	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+c.apiKey)
	headers.Add("OpenAI-Beta", "realtime=v1")

	ws, err := websocket.Dial(ctx, websocket.Config{
		URL:     fmt.Sprintf("%s?model=%s", c.baseURL, c.model),
		Headers: headers,
		Logger:  c.logger,
		OnText: func(data []byte) error {
			c.handleServerText(data, connDone)
			return nil
		},
		OnClose: func(err error) {
			c.mu.Lock()
			wasConnected := c.connected
			c.connected = false
			c.ws = nil
			c.mu.Unlock()
			if wasConnected {
				// Late event, delivered out of band: the connection is gone
				// and the read loop must not be re-entered.
				go func() { c.eventCh <- Disconnected{Err: err} }()
			}
		},
	})
	if err != nil {
		return err
	}

	select {
	case <-created:
	case <-ctx.Done():
		_ = ws.Close(context.Background())
		return fmt.Errorf("realtime: connect: %w", ctx.Err())
	case <-time.After(createdTimeout):
		_ = ws.Close(context.Background())
		return fmt.Errorf("realtime: timeout waiting for session.created")
	case <-ws.Done():
		return fmt.Errorf("realtime: connection closed during handshake: %w", ws.Err())
	}

	c.mu.Lock()
	// The connection can die between session.created and this point; once
	// done is closed OnClose will not report it, so it must be caught here.
	select {
	case <-ws.Done():
		c.mu.Unlock()
		return fmt.Errorf("realtime: connection closed during handshake: %w", ws.Err())
	default:
	}
	c.ws = ws
	c.connected = true
	session := c.session
	c.mu.Unlock()

	return c.send(events.SessionUpdateEvent{
		Base:    events.NewBase("session.update"),
		Session: session,
	})
}

// Disconnect closes the connection and clears the conversation store. It is
// safe to call when not connected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.connected = false
	c.conv.Clear()
	c.mu.Unlock()

	if ws == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return ws.Close(ctx)
}

// Reset disconnects and restores the default session configuration.
func (c *Client) Reset() {
	_ = c.Disconnect()
	c.mu.Lock()
	c.session = defaultSession()
	c.conv.Clear()
	c.mu.Unlock()
}

// UpdateSession merges patch into the remembered session configuration and,
// when connected, pushes the merged configuration to the agent. The
// configuration survives reconnects: Connect re-sends it for every new
// session.
func (c *Client) UpdateSession(patch SessionPatch) error {
	c.mu.Lock()
	if patch.Instructions != nil {
		c.session.Instructions = *patch.Instructions
	}
	if patch.Voice != nil {
		c.session.Voice = *patch.Voice
	}
	if patch.InputAudioTranscription != nil {
		c.session.InputAudioTranscription = patch.InputAudioTranscription
	}
	if patch.TurnDetectionSet {
		c.session.TurnDetection = patch.TurnDetection
	}
	session := c.session
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		return nil
	}
	return c.send(events.SessionUpdateEvent{
		Base:    events.NewBase("session.update"),
		Session: session,
	})
}

// SendUserMessage creates a user conversation item from the given content
// parts and asks the agent to respond to it.
func (c *Client) SendUserMessage(content ...events.ContentPart) error {
	if err := c.send(events.ConversationItemCreateEvent{
		Base: events.NewBase("conversation.item.create"),
		Item: events.Item{
			ID:      events.NewItemID(),
			Type:    "message",
			Role:    "user",
			Content: content,
		},
	}); err != nil {
		return err
	}
	return c.send(events.ResponseCreateEvent{
		Base: events.NewBase("response.create"),
	})
}

// AppendInputAudio streams one frame of PCM16 microphone audio to the
// agent's input buffer.
func (c *Client) AppendInputAudio(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}
	return c.send(events.InputAudioAppendEvent{
		Base:  events.NewBase("input_audio_buffer.append"),
		Audio: base64.StdEncoding.EncodeToString(pcm),
	})
}

// CancelResponse abandons the in-flight response and truncates the named
// assistant item at sampleOffset, keeping the agent's view of the
// conversation aligned with what the user actually heard.
func (c *Client) CancelResponse(trackID string, sampleOffset int) error {
	if err := c.send(events.ResponseCancelEvent{
		Base: events.NewBase("response.cancel"),
	}); err != nil {
		return err
	}

	c.mu.Lock()
	item := c.conv.Item(trackID)
	c.mu.Unlock()
	if item == nil || item.Role != RoleAssistant {
		return nil
	}

	return c.send(events.ConversationItemTruncateEvent{
		Base:       events.NewBase("conversation.item.truncate"),
		ItemID:     trackID,
		AudioEndMs: audio.DurationMs(sampleOffset),
	})
}

// send marshals evt, writes it to the wire and mirrors it onto the event
// channel as a client-sourced Raw entry.
func (c *Client) send(evt any) error {
	c.mu.Lock()
	ws := c.ws
	connDone := c.connDone
	c.mu.Unlock()
	if ws == nil {
		return fmt.Errorf("realtime: not connected")
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("realtime: marshal: %w", err)
	}
	if err := ws.WriteText(data); err != nil {
		return err
	}

	var tag struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &tag)
	c.emit(connDone, Raw{
		Time:    time.Now(),
		Source:  SourceClient,
		Type:    tag.Type,
		Payload: data,
	})
	return nil
}

// emit delivers ev to the event channel, giving up when the connection that
// produced it has terminated.
func (c *Client) emit(connDone <-chan struct{}, ev SessionEvent) {
	if connDone == nil {
		select {
		case c.eventCh <- ev:
		default:
			c.logger.Warn("realtime: event channel full, dropping event")
		}
		return
	}
	select {
	case c.eventCh <- ev:
	case <-connDone:
	}
}

// handleServerText dispatches one raw server event: it is mirrored onto the
// event channel, reconciled into the conversation store, and translated to
// the typed events the orchestrator acts on.
func (c *Client) handleServerText(data []byte, connDone chan struct{}) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		c.logger.Error("failed to parse server event", slog.Any("err", err))
		return
	}

	c.emit(connDone, Raw{
		Time:    time.Now(),
		Source:  SourceServer,
		Type:    tag.Type,
		Payload: json.RawMessage(data),
	})

	switch tag.Type {
	case "session.created":
		c.mu.Lock()
		created := c.created
		c.mu.Unlock()
		if created != nil {
			select {
			case created <- struct{}{}:
			default:
			}
		}

	case "error":
		evt, err := events.Parse[events.ErrorEvent](data)
		if err != nil {
			c.logger.Error("failed to parse error event", slog.Any("err", err))
			return
		}
		c.emit(connDone, ServerError{Err: evt})

	case "input_audio_buffer.speech_started":
		c.emit(connDone, Interrupted{})

	case "conversation.item.created":
		c.apply(connDone, data, parseTo[events.ConversationItemCreatedEvent])
	case "conversation.item.truncated":
		c.apply(connDone, data, parseTo[events.ConversationItemTruncatedEvent])
	case "conversation.item.deleted":
		c.apply(connDone, data, parseTo[events.ConversationItemDeletedEvent])
	case "conversation.item.input_audio_transcription.completed":
		c.apply(connDone, data, parseTo[events.InputAudioTranscriptionCompletedEvent])
	case "response.output_item.added":
		c.apply(connDone, data, parseTo[events.ResponseOutputItemAddedEvent])
	case "response.output_item.done":
		c.apply(connDone, data, parseTo[events.ResponseOutputItemDoneEvent])
	case "response.audio.delta":
		c.apply(connDone, data, parseTo[events.AudioDeltaEvent])
	case "response.audio_transcript.delta":
		c.apply(connDone, data, parseTo[events.AudioTranscriptDeltaEvent])
	case "response.text.delta":
		c.apply(connDone, data, parseTo[events.TextDeltaEvent])
	case "response.function_call_arguments.delta":
		c.apply(connDone, data, parseTo[events.FunctionCallArgumentsDeltaEvent])
	}
}

// parseTo erases the concrete event type so apply can share the
// parse-then-reconcile path.
func parseTo[T any](data []byte) (any, error) {
	return events.Parse[T](data)
}

func (c *Client) apply(connDone chan struct{}, data []byte, parse func([]byte) (any, error)) {
	evt, err := parse(data)
	if err != nil {
		c.logger.Error("failed to parse server event", slog.Any("err", err))
		return
	}

	c.mu.Lock()
	item, delta := c.conv.Apply(evt)
	var published *Item
	if item != nil {
		published = item.clone()
	}
	c.mu.Unlock()

	if published != nil {
		c.emit(connDone, ItemUpdated{Item: published, Delta: delta})
	}
}
