package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/internal/rooms"
)

// PresenceTracker receives connection lifecycle and explicit presence
// signals. Each connection is a separate source; a user stays online while
// any source keeps them online.
type PresenceTracker interface {
	Online(ctx context.Context, userID, connID string)
	Offline(ctx context.Context, userID, connID string)
	Disconnected(ctx context.Context, connID string)
}

// RouterConfig selects the optional behaviors of the inbound router.
type RouterConfig struct {
	// LegacyBroadcast sends a sendMessage without room or sender/receiver
	// pair to every connection instead of rejecting it.
	LegacyBroadcast bool
	Authorizer      RoomAuthorizer
	Presence        PresenceTracker
}

// Router dispatches inbound frames to the hub.
type Router struct {
	hub    *Hub
	cfg    RouterConfig
	logger *WebSocketLogger
}

func NewRouter(hub *Hub, cfg RouterConfig, logger *WebSocketLogger) *Router {
	if logger == nil {
		logger = hub.logger
	}
	return &Router{hub: hub, cfg: cfg, logger: logger}
}

// Dispatch handles one raw inbound frame from c.
func (r *Router) Dispatch(ctx context.Context, c *Client, raw []byte) {
	frame, err := decodeFrame(raw)
	if err != nil {
		r.reject(c, "", "malformed frame")
		return
	}

	switch frame.Event {
	case EventJoinRoom:
		r.handleJoinRoom(ctx, c, frame)
	case EventLeaveRoom:
		r.handleLeaveRoom(c, frame)
	case EventJoinGroup:
		r.handleJoinGroup(ctx, c, frame)
	case EventSendMessage:
		r.handleSendMessage(c, frame)
	case EventSendGroupMessage:
		r.handleSendGroupMessage(c, frame)
	case EventGroupCreated:
		r.hub.relayExcept(c, EventGroupCreated, frame.Data)
	case EventUserOnline, EventUserOffline:
		r.handlePresence(ctx, c, frame)
	case EventPing:
		r.hub.sendTo(c, EventPong, nil)
	default:
		r.logger.Warn("unknown event", c.UserID, c.ID, zap.String("msg_type", frame.Event))
		r.reject(c, frame.Event, "unknown event")
	}
}

func (r *Router) handleJoinRoom(ctx context.Context, c *Client, frame Frame) {
	var p RoomPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		r.reject(c, frame.Event, "invalid payload")
		return
	}
	room := strings.TrimSpace(p.Room)
	if room == "" {
		self, peer := strings.TrimSpace(p.SelfID), strings.TrimSpace(p.PeerID)
		if self == "" || peer == "" {
			r.reject(c, frame.Event, "room or selfId and peerId required")
			return
		}
		room = rooms.PrivateRoomID(self, peer)
	}
	r.join(ctx, c, frame.Event, room)
}

func (r *Router) handleLeaveRoom(c *Client, frame Frame) {
	var p RoomPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		r.reject(c, frame.Event, "invalid payload")
		return
	}
	room := strings.TrimSpace(p.Room)
	if room == "" && p.SelfID != "" && p.PeerID != "" {
		room = rooms.PrivateRoomID(p.SelfID, p.PeerID)
	}
	if room == "" {
		r.reject(c, frame.Event, "room required")
		return
	}
	r.hub.Leave(c, room)
}

func (r *Router) handleJoinGroup(ctx context.Context, c *Client, frame Frame) {
	var p GroupPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		r.reject(c, frame.Event, "invalid payload")
		return
	}
	groupID := strings.TrimSpace(p.GroupID)
	if groupID == "" {
		r.reject(c, frame.Event, "groupId required")
		return
	}
	r.join(ctx, c, frame.Event, rooms.GroupRoomID(groupID))
}

func (r *Router) join(ctx context.Context, c *Client, event, room string) {
	if r.cfg.Authorizer != nil {
		ok, err := r.cfg.Authorizer.CanJoin(ctx, c.UserID, room)
		if err != nil {
			r.logger.Error("room authorization failed", c.UserID, c.ID, err, zap.String("room", room))
			r.rejectJoin(c, event, room, "authorization unavailable")
			return
		}
		if !ok {
			r.logger.Warn("room join denied", c.UserID, c.ID, zap.String("room", room))
			r.rejectJoin(c, event, room, "forbidden")
			return
		}
	}
	r.hub.Join(c, room)
}

func (r *Router) handleSendMessage(c *Client, frame Frame) {
	var rt routing
	if err := json.Unmarshal(frame.Data, &rt); err != nil {
		r.reject(c, frame.Event, "invalid payload")
		return
	}

	room, route := rooms.Resolve(rt.Room, rt.SenderID, rt.ReceiverID)
	switch route {
	case rooms.RouteExplicit, rooms.RoutePair:
		r.hub.relayToRoom(room, EventReceiveMessage, frame.Data)
	default:
		if !r.cfg.LegacyBroadcast {
			r.reject(c, frame.Event, "room or senderId and receiverId required")
			return
		}
		r.logger.Debug("legacy broadcast", c.UserID, c.ID)
		r.hub.relayExcept(nil, EventReceiveMessage, frame.Data)
	}
}

func (r *Router) handleSendGroupMessage(c *Client, frame Frame) {
	var g GroupPayload
	if err := json.Unmarshal(frame.Data, &g); err != nil || strings.TrimSpace(g.GroupID) == "" {
		r.reject(c, frame.Event, "groupId required")
		return
	}
	r.hub.relayToRoom(rooms.GroupRoomID(strings.TrimSpace(g.GroupID)), EventNewGroupMessage, frame.Data)
}

func (r *Router) handlePresence(ctx context.Context, c *Client, frame Frame) {
	var p UserPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil || strings.TrimSpace(p.UserID) == "" {
		r.reject(c, frame.Event, "userId required")
		return
	}
	if r.cfg.Presence == nil {
		return
	}
	userID := strings.TrimSpace(p.UserID)
	if frame.Event == EventUserOnline {
		r.cfg.Presence.Online(ctx, userID, c.ID)
	} else {
		r.cfg.Presence.Offline(ctx, userID, c.ID)
	}
}

// connected is called once c is registered with the hub.
func (r *Router) connected(ctx context.Context, c *Client) {
	if r.cfg.Presence != nil && c.UserID != "" {
		r.cfg.Presence.Online(ctx, c.UserID, c.ID)
	}
}

func (r *Router) disconnected(c *Client) {
	if r.cfg.Presence != nil {
		r.cfg.Presence.Disconnected(context.Background(), c.ID)
	}
}

func (r *Router) reject(c *Client, event, message string) {
	r.hub.sendTo(c, EventError, ErrorPayload{Event: event, Message: message})
}

func (r *Router) rejectJoin(c *Client, event, room, message string) {
	r.hub.sendTo(c, EventError, ErrorPayload{Event: event, Room: room, Message: message})
}

// mustReframe wraps already-encoded data under a new event name.
func mustReframe(event string, data json.RawMessage) []byte {
	out, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return []byte(`{"event":"` + event + `"}`)
	}
	return out
}
