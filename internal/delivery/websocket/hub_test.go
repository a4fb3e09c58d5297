package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T, origins []string) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(origins, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, session string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_DeliversOnlyToSessionTopic(t *testing.T) {
	hub, srv := startHub(t, nil)
	a := dial(t, srv, "s1", nil)
	b := dial(t, srv, "s2", nil)

	assert.Equal(t, EventConnected, readMessage(t, a).Type)
	assert.Equal(t, EventConnected, readMessage(t, b).Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast("deck.selection", "s2", map[string]string{"selectedId": "2"})
	hub.Broadcast("deck.selection", "s1", map[string]string{"selectedId": "3"})

	msg := readMessage(t, a)
	assert.Equal(t, "deck.selection", msg.Type)
	assert.Equal(t, "s1", msg.Topic)
	payload, _ := json.Marshal(msg.Payload)
	assert.JSONEq(t, `{"selectedId":"3"}`, string(payload))

	msg = readMessage(t, b)
	assert.Equal(t, "s2", msg.Topic)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv, "s1", nil)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_SubscribeCommand(t *testing.T) {
	hub, srv := startHub(t, nil)
	conn := dial(t, srv, "s1", nil)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "topic": "extra"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for _, c := range hub.clients {
			if c.IsSubscribed("extra") {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast("deck.notice", "extra", nil)
	msg := readMessage(t, conn)
	assert.Equal(t, "extra", msg.Topic)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	_, srv := startHub(t, []string{"http://localhost:3000"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=s1"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, "s1", http.Header{"Origin": {"http://localhost:3000"}})
	assert.Equal(t, EventConnected, readMessage(t, conn).Type)
}
