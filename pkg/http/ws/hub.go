package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// Hub tracks the WebSocket connections of each game on this instance.
// A player holds at most one connection per game; a newer one replaces the old.
type Hub struct {
	mu     sync.RWMutex
	games  map[string]map[string]*Connection // game_id -> player_id -> connection
	logger zerolog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		games:  make(map[string]map[string]*Connection),
		logger: logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds conn for playerID in gameID, closing any previous connection.
func (h *Hub) Register(gameID, playerID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	players, ok := h.games[gameID]
	if !ok {
		players = make(map[string]*Connection)
		h.games[gameID] = players
	}
	if old, exists := players[playerID]; exists && old != conn {
		old.Close()
	}
	players[playerID] = conn
	h.logger.Info().Str("game_id", gameID).Str("player_id", playerID).Msg("connection registered")
}

// Unregister removes conn if it is still the registered connection for playerID.
func (h *Hub) Unregister(gameID, playerID string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	players := h.games[gameID]
	if current, exists := players[playerID]; exists && current == conn {
		delete(players, playerID)
		h.logger.Info().Str("game_id", gameID).Str("player_id", playerID).Msg("connection unregistered")
	}
	if len(players) == 0 {
		delete(h.games, gameID)
	}
	conn.Close()
}

// Broadcast sends msg to every local connection in gameID except skipPlayerID.
func (h *Hub) Broadcast(gameID, skipPlayerID string, msg Message) error {
	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.games[gameID]))
	for playerID, conn := range h.games[gameID] {
		if playerID != skipPlayerID {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	var firstErr error
	for _, conn := range targets {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SendTo delivers msg to one player's connection in gameID.
func (h *Hub) SendTo(gameID, playerID string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.games[gameID][playerID]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// Count returns the number of local connections for gameID.
func (h *Hub) Count(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.games[gameID])
}

// CloseAll closes every connection; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for gameID, players := range h.games {
		for _, conn := range players {
			conn.Close()
		}
		delete(h.games, gameID)
	}
}

// Connection represents a WebSocket connection with send queue.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	done   chan struct{}
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Done is closed when the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Close shuts down the connection.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.sendCh)
	close(c.done)
	c.conn.Close()
}

// WritePump sends messages from the send queue and keeps the peer alive with pings.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump receives messages and calls the handler until the peer goes away.
func (c *Connection) ReadPump(handler func(Message) error) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("read error")
			}
			break
		}

		if err := handler(msg); err != nil {
			c.logger.Warn().Err(err).Str("type", msg.Type).Msg("message handler error")
		}
	}
}

var (
	ErrConnectionNotFound = &Error{Code: "connection_not_found", Message: "Player connection not found"}
	ErrConnectionClosed   = &Error{Code: "connection_closed", Message: "Connection is closed"}
	ErrSendQueueFull      = &Error{Code: "send_queue_full", Message: "Send queue is full"}
)

type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}
