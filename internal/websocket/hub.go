package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opJoin
	opLeave
	opPublish
	opBroadcast
	opDirect
	opQuery
)

// op is one unit of work for the hub goroutine.
type op struct {
	kind   opKind
	client *Client
	room   string
	event  string
	frame  []byte
	// key identifies the fanned-out payload; empty for payloads without an id
	key string

	// broadcast exclusions
	exceptClient *Client
	exceptUser   string

	query func()
	done  chan struct{}
}

type hubMetrics struct {
	delivered metric.Int64Counter
	dropped   metric.Int64Counter
}

// Hub owns every connection and room subscription. All mutations and
// deliveries run on the single Run goroutine in the order they were
// queued, so a join queued before a publish is always visible to it and
// frames published to one room reach each subscriber in publish order.
type Hub struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	ops  chan op
	done chan struct{}

	connections atomic.Int64
	roomCount   atomic.Int64

	// published is only touched by the Run goroutine
	published *publishedKeys

	metrics hubMetrics
	logger  *WebSocketLogger
}

func NewHub(logger *WebSocketLogger) *Hub {
	if logger == nil {
		logger = NewWebSocketLogger(nil)
	}
	h := &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		ops:     make(chan op, 1024),
		done:    make(chan struct{}),
		logger:  logger,

		published: newPublishedKeys(publishedKeysSize),
	}
	h.initMetrics()
	return h
}

func (h *Hub) initMetrics() {
	meter := otel.Meter("simple-chat/websocket")
	h.metrics.delivered, _ = meter.Int64Counter("ws_frames_delivered_total",
		metric.WithDescription("Frames queued to live connections"))
	h.metrics.dropped, _ = meter.Int64Counter("ws_frames_dropped_total",
		metric.WithDescription("Frames dropped because a connection queue was full"))
	connGauge, _ := meter.Int64ObservableGauge("ws_connections",
		metric.WithDescription("Open live connections"))
	roomGauge, _ := meter.Int64ObservableGauge("ws_rooms",
		metric.WithDescription("Rooms with at least one subscriber"))
	_, _ = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(connGauge, h.connections.Load())
		o.ObserveInt64(roomGauge, h.roomCount.Load())
		return nil
	}, connGauge, roomGauge)
}

// Run processes queued operations until ctx is cancelled, then closes every
// connection queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.removeClient(c)
			}
			return
		case o := <-h.ops:
			h.apply(o)
		}
	}
}

func (h *Hub) apply(o op) {
	switch o.kind {
	case opRegister:
		h.clients[o.client] = struct{}{}
		h.connections.Store(int64(len(h.clients)))
	case opUnregister:
		h.removeClient(o.client)
	case opJoin:
		h.join(o.client, o.room)
	case opLeave:
		h.leave(o.client, o.room)
	case opPublish:
		if !h.firstPublish(o) {
			break
		}
		for c := range h.rooms[o.room] {
			h.deliver(c, o.event, o.frame)
		}
	case opBroadcast:
		if !h.firstPublish(o) {
			break
		}
		for c := range h.clients {
			if c == o.exceptClient || (o.exceptUser != "" && c.UserID == o.exceptUser) {
				continue
			}
			h.deliver(c, o.event, o.frame)
		}
	case opDirect:
		if _, ok := h.clients[o.client]; ok {
			h.deliver(o.client, o.event, o.frame)
		}
	case opQuery:
		o.query()
	}
	if o.done != nil {
		close(o.done)
	}
}

// firstPublish records o.key and reports whether the payload has not been
// fanned out before. A message persisted over REST is published by the
// server and usually relayed again by its sender; only the first counts.
func (h *Hub) firstPublish(o op) bool {
	if o.key == "" || h.published.add(o.key) {
		return true
	}
	h.logger.Debug("duplicate publish dropped", "", "", zap.String("key", o.key))
	return false
}

func (h *Hub) join(c *Client, room string) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	if _, already := c.rooms[room]; already {
		return
	}
	subscribers, ok := h.rooms[room]
	if !ok {
		subscribers = make(map[*Client]struct{})
		h.rooms[room] = subscribers
		h.roomCount.Store(int64(len(h.rooms)))
	}
	subscribers[c] = struct{}{}
	c.rooms[room] = struct{}{}

	if frame, err := Encode(EventJoined, RoomPayload{Room: room}); err == nil {
		h.deliver(c, EventJoined, frame)
	}
}

func (h *Hub) leave(c *Client, room string) {
	if subscribers, ok := h.rooms[room]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.rooms, room)
			h.roomCount.Store(int64(len(h.rooms)))
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	for room := range c.rooms {
		h.leave(c, room)
	}
	delete(h.clients, c)
	h.connections.Store(int64(len(h.clients)))
	close(c.send)
}

// deliver queues frame on c without blocking. A full queue drops the frame.
func (h *Hub) deliver(c *Client, event string, frame []byte) {
	attrs := metric.WithAttributes(attribute.String("event", event))
	select {
	case c.send <- frame:
		h.metrics.delivered.Add(context.Background(), 1, attrs)
	default:
		h.metrics.dropped.Add(context.Background(), 1, attrs)
		h.logger.Warn("client send buffer full", c.UserID, c.ID, zap.String("dropped_event", event))
	}
}

func (h *Hub) enqueue(o op) {
	select {
	case h.ops <- o:
	case <-h.done:
	}
}

// enqueueWait queues o and waits until the hub has applied it.
func (h *Hub) enqueueWait(o op) {
	o.done = make(chan struct{})
	select {
	case h.ops <- o:
	case <-h.done:
		return
	}
	select {
	case <-o.done:
	case <-h.done:
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(c *Client) {
	h.enqueueWait(op{kind: opRegister, client: c})
}

// Unregister removes a client from every room and closes its queue.
func (h *Hub) Unregister(c *Client) {
	h.enqueue(op{kind: opUnregister, client: c})
}

// Join subscribes c to room and acknowledges with a joined frame. Joining a
// room c is already in is a no-op.
func (h *Hub) Join(c *Client, room string) {
	h.enqueue(op{kind: opJoin, client: c, room: room})
}

func (h *Hub) Leave(c *Client, room string) {
	h.enqueue(op{kind: opLeave, client: c, room: room})
}

// PublishToRoom fans data out as event to every current subscriber of room.
// Rooms without subscribers drop the frame.
func (h *Hub) PublishToRoom(room, event string, data interface{}) error {
	frame, key, err := encodeKeyed(event, data)
	if err != nil {
		return err
	}
	h.enqueue(op{kind: opPublish, room: room, event: event, frame: frame, key: key})
	return nil
}

// relayToRoom publishes a client-supplied body. It is dropped when a payload
// with the same id was already published as event.
func (h *Hub) relayToRoom(room, event string, data json.RawMessage) {
	h.enqueue(op{kind: opPublish, room: room, event: event, frame: mustReframe(event, data), key: publishKey(event, data)})
}

// Broadcast sends event to every connection.
func (h *Hub) Broadcast(event string, data interface{}) error {
	frame, key, err := encodeKeyed(event, data)
	if err != nil {
		return err
	}
	h.enqueue(op{kind: opBroadcast, event: event, frame: frame, key: key})
	return nil
}

// BroadcastExceptUser sends event to every connection not authenticated as
// userID.
func (h *Hub) BroadcastExceptUser(userID, event string, data interface{}) error {
	frame, key, err := encodeKeyed(event, data)
	if err != nil {
		return err
	}
	h.enqueue(op{kind: opBroadcast, event: event, frame: frame, key: key, exceptUser: userID})
	return nil
}

// relayExcept broadcasts a client-supplied body to every connection but c,
// with the same duplicate check as relayToRoom.
func (h *Hub) relayExcept(c *Client, event string, data json.RawMessage) {
	h.enqueue(op{kind: opBroadcast, event: event, frame: mustReframe(event, data), key: publishKey(event, data), exceptClient: c})
}

// sendTo queues a frame for one connection.
func (h *Hub) sendTo(c *Client, event string, data interface{}) {
	frame, err := Encode(event, data)
	if err != nil {
		h.logger.Error("encode frame failed", c.UserID, c.ID, err)
		return
	}
	h.enqueue(op{kind: opDirect, client: c, event: event, frame: frame})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.connections.Load())
}

// SubscriberCount returns the number of subscribers of room.
func (h *Hub) SubscriberCount(room string) int {
	n := 0
	h.enqueueWait(op{kind: opQuery, query: func() { n = len(h.rooms[room]) }})
	return n
}

// RoomsOf returns the rooms c is subscribed to, sorted.
func (h *Hub) RoomsOf(c *Client) []string {
	var out []string
	h.enqueueWait(op{kind: opQuery, query: func() {
		for room := range c.rooms {
			out = append(out, room)
		}
	}})
	sort.Strings(out)
	return out
}
