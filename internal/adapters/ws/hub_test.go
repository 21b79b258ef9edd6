// internal/adapters/ws/hub_test.go
package ws_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaiswal09/medstock-be/internal/adapters/ws"
	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/events"
	"github.com/jaiswal09/medstock-be/test/helpers"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_StreamsPublishedEvents(t *testing.T) {
	cfg := helpers.LoadTestConfig().Broadcast
	bus := events.NewBus(cfg.BufferSize, helpers.TestLogger())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	hub := ws.NewHub(bus, cfg, helpers.TestLogger())
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)

	// Give the connection time to register its subscription before
	// publishing; delivery is at-most-once with no replay.
	require.Eventually(t, func() bool {
		bus.Publish(domain.NewInventoryCreated(helpers.CreateTestItem()))

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return false
		}
		assert.Equal(t, domain.EventType("inventory_created"), env.Type)
		assert.False(t, env.Timestamp.IsZero())
		return true
	}, 5*time.Second, 50*time.Millisecond)
}

func TestHub_EachClientGetsEveryEvent(t *testing.T) {
	cfg := helpers.LoadTestConfig().Broadcast
	bus := events.NewBus(cfg.BufferSize, helpers.TestLogger())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	hub := ws.NewHub(bus, cfg, helpers.TestLogger())
	server := httptest.NewServer(hub)
	defer server.Close()

	conn1 := dialHub(t, server)
	conn2 := dialHub(t, server)

	// Wait until both subscriptions see traffic.
	for _, conn := range []*websocket.Conn{conn1, conn2} {
		require.Eventually(t, func() bool {
			bus.Publish(domain.NewAlertsAutoChecked(1, 0))

			conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
			var env domain.Envelope
			return conn.ReadJSON(&env) == nil
		}, 5*time.Second, 50*time.Millisecond)
	}
}

func TestHub_BusStopClosesConnectionCleanly(t *testing.T) {
	cfg := helpers.LoadTestConfig().Broadcast
	bus := events.NewBus(cfg.BufferSize, helpers.TestLogger())
	require.NoError(t, bus.Start(context.Background()))

	hub := ws.NewHub(bus, cfg, helpers.TestLogger())
	server := httptest.NewServer(hub)
	defer server.Close()

	conn := dialHub(t, server)

	// Confirm the subscription is live before stopping the bus.
	require.Eventually(t, func() bool {
		bus.Publish(domain.NewAlertsAutoChecked(0, 0))

		conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		var env domain.Envelope
		return conn.ReadJSON(&env) == nil
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, bus.Stop(context.Background()))

	// The hub should send a normal close frame, not just drop the TCP
	// connection.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure),
				"expected normal closure, got %v", err)
			return
		}
	}
}
