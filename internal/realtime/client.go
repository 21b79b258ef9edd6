// internal/realtime/client.go

// Package realtime implements the consuming side of the change-event
// stream: a reconnecting WebSocket client and the cache invalidation rules
// driven by the events it receives.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/pkg/config"
)

// State is the connection lifecycle state of a Client.
type State string

// Client states. closing is entered only by an explicit Close and always
// ends in disconnected with no reconnect attempt.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateClosing      State = "closing"
)

// Handler consumes one envelope. Handlers must tolerate duplicate and
// out-of-order delivery; the stream promises at-most-once per subscriber,
// nothing more.
type Handler func(ctx context.Context, env domain.Envelope)

// Client maintains a WebSocket subscription to the change-event stream,
// reconnecting with exponential backoff after abnormal drops. Connect and
// Close are idempotent; only one connection attempt is ever in flight.
type Client struct {
	url    string
	cfg    config.BroadcastConfig
	dialer *websocket.Dialer
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	cancel   context.CancelFunc
	done     chan struct{}
	handlers []Handler
}

// NewClient creates a client for the given stream URL. Handlers registered
// before Connect receive every envelope the connection delivers.
func NewClient(url string, cfg config.BroadcastConfig, logger *slog.Logger, handlers ...Handler) *Client {
	return &Client{
		url:      url,
		cfg:      cfg,
		dialer:   websocket.DefaultDialer,
		logger:   logger.With(slog.String("component", "realtime_client")),
		state:    StateDisconnected,
		handlers: handlers,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop. Calling Connect while connecting or
// connected is a no-op; calling it while closing fails.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateConnecting, StateConnected:
		return nil
	case StateClosing:
		return fmt.Errorf("client is closing")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = StateConnecting

	go c.run(runCtx)
	return nil
}

// Close performs a clean shutdown: no reconnect follows. Idempotent.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateDisconnected || c.state == StateClosing {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	conn := c.conn
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteTimeout))
	}
	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()
	return nil
}

// Backoff returns the reconnect delay for the given retry count. It is a
// pure function: base * 2^retry, capped at the configured maximum.
func Backoff(cfg config.BroadcastConfig, retry int) time.Duration {
	d := cfg.ReconnectBaseDelay
	for i := 0; i < retry; i++ {
		d *= 2
		if d >= cfg.ReconnectMaxDelay {
			return cfg.ReconnectMaxDelay
		}
	}
	if d > cfg.ReconnectMaxDelay {
		return cfg.ReconnectMaxDelay
	}
	return d
}

func (c *Client) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		if c.state != StateClosing {
			c.state = StateDisconnected
		}
		c.conn = nil
		close(c.done)
		c.mu.Unlock()
	}()

	retries := 0
	for {
		if ctx.Err() != nil || c.State() == StateClosing {
			return
		}

		c.setState(StateConnecting)
		conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			delay := Backoff(c.cfg, retries)
			retries++
			c.logger.Warn("dial failed, retrying",
				slog.String("url", c.url),
				slog.Int("retry", retries),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return
			}
		}

		c.mu.Lock()
		if c.state == StateClosing {
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		c.conn = conn
		c.state = StateConnected
		c.mu.Unlock()
		retries = 0

		c.logger.Info("connected to event stream", slog.String("url", c.url))

		clean := c.readLoop(ctx, conn)
		_ = conn.Close()

		if clean || ctx.Err() != nil || c.State() == StateClosing {
			return
		}
		// Abnormal drop: loop around and reconnect.
		c.logger.Warn("event stream dropped, reconnecting")
	}
}

// readLoop consumes envelopes until the connection ends. It reports whether
// the connection closed cleanly.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) bool {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return websocket.IsCloseError(err, websocket.CloseNormalClosure)
		}

		var env domain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("malformed envelope ignored",
				slog.String("error", err.Error()))
			continue
		}

		for _, h := range c.handlers {
			h(ctx, env)
		}
	}
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	if c.state != StateClosing {
		c.state = s
	}
	c.mu.Unlock()
}
