// internal/realtime/client_test.go
package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaiswal09/medstock-be/internal/core/domain"
	"github.com/jaiswal09/medstock-be/internal/pkg/config"
	"github.com/jaiswal09/medstock-be/internal/realtime"
	"github.com/jaiswal09/medstock-be/test/helpers"
)

func TestBackoff(t *testing.T) {
	cfg := config.BroadcastConfig{
		ReconnectBaseDelay: 100 * time.Millisecond,
		ReconnectMaxDelay:  2 * time.Second,
	}

	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1600 * time.Millisecond},
		{5, 2 * time.Second}, // capped
		{10, 2 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, realtime.Backoff(cfg, tt.retry),
			"retry %d", tt.retry)
	}
}

func testBroadcastConfig() config.BroadcastConfig {
	return helpers.LoadTestConfig().Broadcast
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestClient_ReconnectsAfterAbnormalDrop(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var conns atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)

		env := domain.Envelope{Type: "inventory_updated", Timestamp: time.Now()}
		_ = conn.WriteJSON(env)

		if n == 1 {
			// Drop the first connection without a close frame.
			_ = conn.Close()
			return
		}
		// Second connection ends cleanly.
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}))
	defer server.Close()

	received := make(chan domain.Envelope, 8)
	client := realtime.NewClient(wsURL(server), testBroadcastConfig(), helpers.TestLogger(),
		func(ctx context.Context, env domain.Envelope) {
			received <- env
		})

	require.NoError(t, client.Connect(context.Background()))

	// One envelope from each connection: the abnormal drop triggered a
	// reconnect, the clean close did not.
	for i := 0; i < 2; i++ {
		select {
		case env := <-received:
			assert.Equal(t, domain.EventType("inventory_updated"), env.Type)
		case <-time.After(5 * time.Second):
			t.Fatal("did not receive envelope")
		}
	}

	require.Eventually(t, func() bool {
		return client.State() == realtime.StateDisconnected
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), conns.Load())
}

func TestClient_CloseStopsReconnecting(t *testing.T) {
	upgrader := websocket.Upgrader{}
	connected := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		select {
		case connected <- struct{}{}:
		default:
		}
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := realtime.NewClient(wsURL(server), testBroadcastConfig(), helpers.TestLogger())
	require.NoError(t, client.Connect(context.Background()))

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("client never connected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Close(ctx))
	assert.Equal(t, realtime.StateDisconnected, client.State())

	// Close is idempotent.
	require.NoError(t, client.Close(ctx))
}

func TestClient_ConnectWhileConnectedIsNoop(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	client := realtime.NewClient(wsURL(server), testBroadcastConfig(), helpers.TestLogger())
	require.NoError(t, client.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return client.State() == realtime.StateConnected
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Connect(context.Background()))
	assert.Equal(t, realtime.StateConnected, client.State())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Close(ctx))
}

func TestClient_MalformedEnvelopeIgnored(t *testing.T) {
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		_ = conn.WriteJSON(domain.Envelope{Type: "alert_created", Timestamp: time.Now()})
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}))
	defer server.Close()

	received := make(chan domain.Envelope, 8)
	client := realtime.NewClient(wsURL(server), testBroadcastConfig(), helpers.TestLogger(),
		func(ctx context.Context, env domain.Envelope) {
			received <- env
		})
	require.NoError(t, client.Connect(context.Background()))

	select {
	case env := <-received:
		assert.Equal(t, domain.EventType("alert_created"), env.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("valid envelope after the malformed one was not delivered")
	}
}
