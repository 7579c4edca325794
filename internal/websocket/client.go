package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBufferSize = 256
)

// ClientRateLimiter caps the inbound events of one connection per minute.
// A limit of zero or less disables it.
type ClientRateLimiter struct {
	limit      int
	tokens     int
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

func NewClientRateLimiter(perMinute int) *ClientRateLimiter {
	return &ClientRateLimiter{
		limit:      perMinute,
		tokens:     perMinute,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

func (rl *ClientRateLimiter) Allow() bool {
	if rl == nil || rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastRefill) >= time.Minute {
		rl.tokens = rl.limit
		rl.lastRefill = now
	}
	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// Client represents a single WebSocket connection
type Client struct {
	ID     string
	UserID string // empty for anonymous connections

	conn    *websocket.Conn
	send    chan []byte
	rooms   map[string]struct{} // owned by the hub goroutine
	limiter *ClientRateLimiter
}

func NewClient(conn *websocket.Conn, userID string, limiter *ClientRateLimiter) *Client {
	return &Client{
		ID:      uuid.New().String(),
		UserID:  userID,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		rooms:   make(map[string]struct{}),
		limiter: limiter,
	}
}

// readPump feeds inbound frames to router until the connection fails, then
// detaches the client from the hub.
func (c *Client) readPump(ctx context.Context, hub *Hub, router *Router, logger *WebSocketLogger) {
	defer func() {
		router.disconnected(c)
		hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Error("websocket unexpected close", c.UserID, c.ID, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			logger.Warn("rate limit exceeded", c.UserID, c.ID, zap.Int("bytes", len(message)))
			continue
		}
		router.Dispatch(ctx, c, message)
	}
}

// writePump drains the send queue, one text frame per event, and keeps the
// connection alive with pings. It exits when the hub closes the queue.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
