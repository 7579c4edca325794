package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mohanraja088/simple-chat-app-demo/internal/rooms"
	"github.com/mohanraja088/simple-chat-app-demo/internal/timeline"
	chatws "github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
)

// ErrJoinRejected is returned by Join when the server refuses the room.
var ErrJoinRejected = errors.New("join rejected")

// Handler receives the data of one server event.
type Handler func(data json.RawMessage)

// Conn is a live connection. Handlers run on the read goroutine and must
// not block.
//
// Conn counts unread messages per peer id (direct) and group id for chats
// that are not open. Counters start at zero on every connection.
type Conn struct {
	ws   *websocket.Conn
	self string

	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[string][]Handler
	joined   map[string][]chan error
	rooms    map[string]struct{}
	open     map[string]int

	unread *timeline.Unread

	done chan struct{}
	err  error
}

// Connect opens the live channel, authenticated with the client's token
// when it has one.
func (c *Client) Connect(ctx context.Context) (*Conn, error) {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	if c.token != "" {
		u.RawQuery = url.Values{"token": {c.token}}.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		return nil, err
	}

	conn := &Conn{
		ws:       ws,
		self:     c.userID,
		handlers: make(map[string][]Handler),
		joined:   make(map[string][]chan error),
		rooms:    make(map[string]struct{}),
		open:     make(map[string]int),
		unread:   timeline.NewUnread(),
		done:     make(chan struct{}),
	}
	go conn.readLoop()
	return conn, nil
}

// On registers h for event.
func (c *Conn) On(event string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], h)
}

// Emit sends one event.
func (c *Conn) Emit(event string, data interface{}) error {
	frame, err := chatws.Encode(event, data)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Join subscribes to room and waits for the server acknowledgement, after
// which every message published to the room is delivered. Joining a room
// already joined on this connection returns at once. A refused join
// returns an error wrapping ErrJoinRejected.
func (c *Conn) Join(ctx context.Context, room string) error {
	ack := make(chan error, 1)
	c.mu.Lock()
	if _, ok := c.rooms[room]; ok {
		c.mu.Unlock()
		return nil
	}
	c.joined[room] = append(c.joined[room], ack)
	c.mu.Unlock()

	if err := c.Emit(chatws.EventJoinRoom, chatws.RoomPayload{Room: room}); err != nil {
		return err
	}
	select {
	case err := <-ack:
		return err
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) JoinPrivate(ctx context.Context, self, peer string) error {
	return c.Join(ctx, rooms.PrivateRoomID(self, peer))
}

func (c *Conn) JoinGroup(ctx context.Context, groupID string) error {
	return c.Join(ctx, rooms.GroupRoomID(groupID))
}

func (c *Conn) Leave(room string) error {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
	return c.Emit(chatws.EventLeaveRoom, chatws.RoomPayload{Room: room})
}

// UnreadCount returns the unread messages of a peer or group.
func (c *Conn) UnreadCount(key string) int {
	return c.unread.Count(key)
}

// Unread returns every non-zero unread counter.
func (c *Conn) Unread() map[string]int {
	return c.unread.Snapshot()
}

func (c *Conn) MarkRead(key string) {
	c.unread.MarkRead(key)
}

// openChat stops counting key as unread until the matching closeChat.
func (c *Conn) openChat(key string) {
	c.mu.Lock()
	c.open[key]++
	c.mu.Unlock()
	c.unread.MarkRead(key)
}

func (c *Conn) closeChat(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.open[key] <= 1 {
		delete(c.open, key)
		return
	}
	c.open[key]--
}

// Done is closed when the connection stops reading.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection stopped.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			c.err = err
			return
		}
		var frame chatws.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		switch frame.Event {
		case chatws.EventJoined:
			c.ack(frame.Data)
		case chatws.EventError:
			c.rejectJoin(frame.Data)
		case chatws.EventReceiveMessage, chatws.EventNewGroupMessage:
			c.countUnread(frame)
		}

		c.mu.RLock()
		handlers := append([]Handler(nil), c.handlers[frame.Event]...)
		c.mu.RUnlock()
		for _, h := range handlers {
			h(frame.Data)
		}
	}
}

func (c *Conn) ack(data json.RawMessage) {
	var p chatws.RoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	c.resolveJoin(p.Room, nil)
}

func (c *Conn) rejectJoin(data json.RawMessage) {
	var p chatws.ErrorPayload
	if err := json.Unmarshal(data, &p); err != nil || p.Room == "" {
		return
	}
	if p.Event != chatws.EventJoinRoom && p.Event != chatws.EventJoinGroup {
		return
	}
	c.resolveJoin(p.Room, fmt.Errorf("%w: %s: %s", ErrJoinRejected, p.Room, p.Message))
}

func (c *Conn) resolveJoin(room string, err error) {
	c.mu.Lock()
	waiters := c.joined[room]
	delete(c.joined, room)
	if err == nil {
		c.rooms[room] = struct{}{}
	}
	c.mu.Unlock()
	for _, w := range waiters {
		w <- err
	}
}

// countUnread bumps the counter of the peer or group of a live message
// unless it was sent by this user or its chat is open.
func (c *Conn) countUnread(frame chatws.Frame) {
	var m struct {
		SenderID   string `json:"senderId"`
		ReceiverID string `json:"receiverId"`
		From       string `json:"from"`
		GroupID    string `json:"groupId"`
	}
	if err := json.Unmarshal(frame.Data, &m); err != nil {
		return
	}
	sender, key := m.SenderID, m.SenderID
	if frame.Event == chatws.EventNewGroupMessage {
		sender, key = m.From, m.GroupID
	} else if c.self != "" && m.ReceiverID != c.self {
		return
	}
	if key == "" || (c.self != "" && sender == c.self) {
		return
	}
	c.mu.RLock()
	_, open := c.open[key]
	c.mu.RUnlock()
	if !open {
		c.unread.Increment(key)
	}
}
