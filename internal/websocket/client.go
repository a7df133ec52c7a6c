// Package websocket wraps gobwas/ws in a small duplex client: one goroutine
// reads server frames and dispatches them to callbacks, one drains an
// outbound message channel. Control frames are answered inline.
package websocket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Config configures a single Dial.
type Config struct {
	URL         string
	DialTimeout time.Duration
	Headers     http.Header
	Logger      *slog.Logger

	// OnText is invoked for every text frame received from the server.
	OnText func(data []byte) error

	// OnClose is invoked exactly once when the connection terminates for any
	// reason. err is nil on a clean close.
	OnClose func(err error)
}

// readWriter reads handshake leftovers before the connection and writes to
// the connection directly.
type readWriter struct {
	io.Reader
	io.Writer
}

// Client is a connected duplex websocket client.
type Client struct {
	out      chan wsutil.Message
	done     chan struct{}
	doneOnce sync.Once
	closeErr error
	logger   *slog.Logger
	onClose  func(err error)
}

func (c *Client) finish(err error) {
	c.doneOnce.Do(func() {
		c.closeErr = err
		close(c.done)
		if c.onClose != nil {
			c.onClose(err)
		}
	})
}

// WriteText queues a text frame for delivery. It returns an error if the
// connection has already terminated.
func (c *Client) WriteText(data []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("websocket: write on closed connection")
	default:
	}

	select {
	case <-c.done:
		return fmt.Errorf("websocket: write on closed connection")
	case c.out <- wsutil.Message{OpCode: ws.OpText, Payload: data}:
	}

	// The writer stops draining once done closes; a send that raced the
	// close would otherwise vanish silently.
	select {
	case <-c.done:
		return fmt.Errorf("websocket: write on closed connection")
	default:
		return nil
	}
}

// Close requests a clean shutdown and waits for the read loop to observe it
// or ctx to expire.
func (c *Client) Close(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case c.out <- wsutil.Message{
		OpCode:  ws.OpClose,
		Payload: ws.NewCloseFrameBody(ws.StatusNormalClosure, "closing"),
	}:
	}

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		c.finish(ctx.Err())
		return fmt.Errorf("websocket: close: %w", ctx.Err())
	}
}

// Done is closed when the connection has terminated.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection terminated. Valid after Done is closed.
func (c *Client) Err() error { return c.closeErr }

// Dial connects to config.URL and starts the read and write loops.
func Dial(ctx context.Context, config Config) (*Client, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("url", config.URL))

	dialTimeout := config.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 10 * time.Second
	}

	hsCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	d := ws.Dialer{
		Timeout: dialTimeout,
		Header:  ws.HandshakeHeaderHTTP(config.Headers),
	}
	conn, buf, _, err := d.Dial(hsCtx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("websocket: dial: %w", err)
	}

	// Server frames that coalesced with the handshake response sit in buf;
	// they must be consumed before reads go to conn.
	var rw io.ReadWriter = conn
	if buf != nil {
		if n := buf.Buffered(); n > 0 {
			head := make([]byte, n)
			_, _ = io.ReadFull(buf, head)
			rw = readWriter{Reader: io.MultiReader(bytes.NewReader(head), conn), Writer: conn}
		}
		ws.PutReader(buf)
	}

	logger.Debug("websocket connected")

	client := &Client{
		out:     make(chan wsutil.Message, 1000),
		done:    make(chan struct{}),
		logger:  logger,
		onClose: config.OnClose,
	}

	onText := config.OnText
	if onText == nil {
		onText = func([]byte) error { return nil }
	}

	// reader: server frames -> callbacks
	go func() {
		defer conn.Close()
		for {
			messages, err := wsutil.ReadServerMessage(rw, nil)
			if err != nil {
				if errors.Is(err, io.EOF) {
					client.finish(nil)
				} else {
					logger.Error("websocket read failed", slog.Any("err", err))
					client.finish(err)
				}
				return
			}

			for _, msg := range messages {
				if msg.OpCode.IsControl() {
					if msg.OpCode == ws.OpClose {
						client.finish(nil)
						return
					}
					if err := wsutil.HandleServerControlMessage(rw, msg); err != nil {
						logger.Error("websocket control handling failed", slog.Any("err", err))
					}
					continue
				}

				if msg.OpCode == ws.OpText {
					if err := onText(msg.Payload); err != nil {
						logger.Error("websocket text handler failed", slog.Any("err", err))
					}
				}
			}
		}
	}()

	// writer: out channel -> server
	go func() {
		for {
			select {
			case <-client.done:
				return
			case msg := <-client.out:
				if err := wsutil.WriteClientMessage(conn, msg.OpCode, msg.Payload); err != nil {
					logger.Error("websocket write failed", slog.Any("err", err))
					client.finish(err)
					return
				}
				if msg.OpCode == ws.OpClose {
					return
				}
			}
		}
	}()

	return client, nil
}
