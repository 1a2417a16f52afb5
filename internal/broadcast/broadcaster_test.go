package broadcast

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyd/internal/domain"
	"notifyd/internal/history"
)

// wireFrame mirrors the server-to-client envelope for decoding in tests.
type wireFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// testBroadcaster sets up a Broadcaster with a test HTTP server.
func testBroadcaster(t *testing.T, buffer *history.Buffer) (*Broadcaster, func() *ws.Conn) {
	t.Helper()

	if buffer == nil {
		buffer = history.NewBuffer(history.DefaultCapacity)
	}

	broadcaster := NewBroadcaster(buffer, clockwork.NewRealClock())
	t.Cleanup(func() { broadcaster.Stop() })

	upgrader := ws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		if err := broadcaster.Register(conn); err != nil {
			return
		}

		go func() {
			defer broadcaster.Unregister(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}))
	t.Cleanup(func() { server.Close() })

	dial := func() *ws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := ws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return broadcaster, dial
}

func waitForClientCount(b *Broadcaster, expected int) bool {
	for range 100 {
		if b.ClientCount() == expected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func readFrame(t *testing.T, conn *ws.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestBroadcaster_HistoryFrameOnConnect(t *testing.T) {
	buffer := history.NewBuffer(history.DefaultCapacity)
	for i := range 60 {
		buffer.Append(domain.Message{ID: fmt.Sprintf("id-%d", i), Text: fmt.Sprintf("m%d", i)})
	}
	_, dial := testBroadcaster(t, buffer)

	conn := dial()
	f := readFrame(t, conn)

	require.Equal(t, "history", f.Type)
	var replay []domain.Message
	require.NoError(t, json.Unmarshal(f.Payload, &replay))
	require.Len(t, replay, 50, "replay is capped at the last 50 messages")
	assert.Equal(t, "id-10", replay[0].ID)
	assert.Equal(t, "id-59", replay[49].ID)
}

func TestBroadcaster_EmptyHistoryFrame(t *testing.T) {
	_, dial := testBroadcaster(t, nil)

	conn := dial()
	f := readFrame(t, conn)

	require.Equal(t, "history", f.Type)
	assert.JSONEq(t, "[]", string(f.Payload))
}

func TestBroadcaster_FanOutReachesAllClients(t *testing.T) {
	broadcaster, dial := testBroadcaster(t, nil)

	conns := []*ws.Conn{dial(), dial(), dial()}
	require.True(t, waitForClientCount(broadcaster, 3))

	// Drain history frames first
	for _, conn := range conns {
		require.Equal(t, "history", readFrame(t, conn).Type)
	}

	msg := domain.Message{ID: "m1", Sender: "Alice", Text: "hello"}
	broadcaster.Broadcast(msg)

	for _, conn := range conns {
		f := readFrame(t, conn)
		require.Equal(t, "message", f.Type)
		var got domain.Message
		require.NoError(t, json.Unmarshal(f.Payload, &got))
		assert.Equal(t, "m1", got.ID)
		assert.Equal(t, "hello", got.Text)
	}
}

func TestBroadcaster_BroadcastOrderMatchesSubmissionOrder(t *testing.T) {
	broadcaster, dial := testBroadcaster(t, nil)

	conn := dial()
	require.Equal(t, "history", readFrame(t, conn).Type)

	for i := range 5 {
		broadcaster.Broadcast(domain.Message{ID: fmt.Sprintf("m%d", i)})
	}

	for i := range 5 {
		f := readFrame(t, conn)
		var got domain.Message
		require.NoError(t, json.Unmarshal(f.Payload, &got))
		assert.Equal(t, fmt.Sprintf("m%d", i), got.ID)
	}
}

func TestBroadcaster_UnregisterRemovesClient(t *testing.T) {
	broadcaster, dial := testBroadcaster(t, nil)

	conn := dial()
	require.True(t, waitForClientCount(broadcaster, 1))

	conn.Close()
	require.True(t, waitForClientCount(broadcaster, 0))

	// Broadcasting after the last client left must not block or panic.
	broadcaster.Broadcast(domain.Message{ID: "m1"})
}

func TestBroadcaster_StopClosesClients(t *testing.T) {
	broadcaster, dial := testBroadcaster(t, nil)

	conn := dial()
	require.True(t, waitForClientCount(broadcaster, 1))
	require.Equal(t, "history", readFrame(t, conn).Type)

	broadcaster.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection is closed after Stop")
}
