package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair returns a server-side Connection and the client end it talks to.
func pair(t *testing.T) (*Connection, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverSide <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case conn := <-serverSide:
		return NewConnection(conn, zerolog.Nop()), client
	case <-time.After(3 * time.Second):
		t.Fatal("server side never upgraded")
		return nil, nil
	}
}

func TestHubRegisterReplacesPreviousConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	first, _ := pair(t)
	second, _ := pair(t)

	hub.Register("g1", "alice", first)
	hub.Register("g1", "alice", second)

	assert.Equal(t, 1, hub.Count("g1"))
	select {
	case <-first.Done():
	default:
		t.Fatal("replaced connection should be closed")
	}

	// Unregistering the stale connection must not drop the live one.
	hub.Unregister("g1", "alice", first)
	assert.Equal(t, 1, hub.Count("g1"))

	hub.Unregister("g1", "alice", second)
	assert.Equal(t, 0, hub.Count("g1"))
}

func TestHubBroadcastSkipsSender(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	alice, aliceClient := pair(t)
	bob, bobClient := pair(t)
	go alice.WritePump()
	go bob.WritePump()
	hub.Register("g1", "alice", alice)
	hub.Register("g1", "bob", bob)

	msg, err := NewMessage(TypePlayerLeft, PlayerLeftPayload{GameID: "g1", PlayerID: "bob"})
	require.NoError(t, err)
	require.NoError(t, hub.Broadcast("g1", "bob", msg))

	require.NoError(t, aliceClient.SetReadDeadline(time.Now().Add(3*time.Second)))
	var got Message
	require.NoError(t, aliceClient.ReadJSON(&got))
	assert.Equal(t, TypePlayerLeft, got.Type)

	require.NoError(t, bobClient.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = bobClient.ReadMessage()
	assert.Error(t, err, "sender should not receive its own broadcast")
}

func TestSendAfterClose(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn, _ := pair(t)
	hub.Register("g1", "alice", conn)

	hub.CloseAll()

	assert.Equal(t, 0, hub.Count("g1"))
	assert.ErrorIs(t, conn.Send(Message{Type: TypePong}), ErrConnectionClosed)
	assert.ErrorIs(t, hub.SendTo("g1", "alice", Message{Type: TypePong}), ErrConnectionNotFound)
}
