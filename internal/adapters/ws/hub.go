// internal/adapters/ws/hub.go

// Package ws exposes the change-event stream over WebSocket. Each connection
// holds its own bus subscription, so a slow client only loses its own events
// and never affects another observer or the mutation path.
package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/core/ports"
	"github.com/jaiswal09/medstock-be/internal/pkg/config"
)

// Hub upgrades HTTP requests to WebSocket connections and streams change
// events to them.
type Hub struct {
	bus      ports.EventBus
	cfg      config.BroadcastConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(bus ports.EventBus, cfg config.BroadcastConfig, logger *slog.Logger) *Hub {
	return &Hub{
		bus: bus,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin enforcement happens in the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws_hub")),
	}
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects or the bus shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()))
		return
	}

	events, cancel := h.bus.Subscribe()

	c := &client{
		hub:    h,
		conn:   conn,
		events: events,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	h.logger.InfoContext(r.Context(), "websocket client connected",
		slog.String("remote", r.RemoteAddr))

	go c.readPump()
	c.writePump()
}

// client is one connected observer.
type client struct {
	hub    *Hub
	conn   *websocket.Conn
	events <-chan domain.Event
	cancel func()
	done   chan struct{}
}

// readPump consumes control frames. The stream is one-way; any data frame
// from the client is discarded.
func (c *client) readPump() {
	defer close(c.done)

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump serializes events and pings onto the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.cancel()
		_ = c.conn.Close()
		c.hub.logger.Info("websocket client disconnected")
	}()

	for {
		select {
		case event, ok := <-c.events:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				// Bus shut down: tell the client this is a clean close so
				// it does not reconnect.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutting down"))
				return
			}

			data, err := json.Marshal(domain.WireEnvelope(event))
			if err != nil {
				c.hub.logger.Warn("failed to marshal event",
					slog.String("type", string(event.Type())),
					slog.String("error", err.Error()))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
