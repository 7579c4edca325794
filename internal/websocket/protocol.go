package websocket

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Events sent by clients.
const (
	EventJoinRoom         = "joinRoom"
	EventLeaveRoom        = "leaveRoom"
	EventJoinGroup        = "join-group"
	EventSendMessage      = "sendMessage"
	EventSendGroupMessage = "send-group-message"
	EventGroupCreated     = "group-created"
	EventUserOnline       = "userOnline"
	EventUserOffline      = "userOffline"
	EventPing             = "ping"
)

// Events sent by the server. EventGroupCreated travels both ways.
const (
	EventReceiveMessage  = "receiveMessage"
	EventNewGroupMessage = "new-group-message"
	EventJoined          = "joined"
	EventPresence        = "presence"
	EventError           = "error"
	EventPong            = "pong"
)

// Frame is the envelope of every message on the live channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds the wire form of a frame.
func Encode(event string, data interface{}) ([]byte, error) {
	f := Frame{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		f.Data = raw
	}
	return json.Marshal(f)
}

// RoomPayload is the body of joinRoom, leaveRoom and joined. A join may name
// the room directly or give the two participants of a private room.
type RoomPayload struct {
	Room   string `json:"room,omitempty"`
	SelfID string `json:"selfId,omitempty"`
	PeerID string `json:"peerId,omitempty"`
}

// GroupPayload is the body of join-group. Clients may send either
// {"groupId": "..."} or the bare group id string.
type GroupPayload struct {
	GroupID string `json:"groupId"`
}

func (p *GroupPayload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.GroupID)
	}
	type plain GroupPayload
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = GroupPayload(v)
	return nil
}

// routing holds the fields of a sendMessage body used to pick its room.
// The body itself is forwarded untouched.
type routing struct {
	Room       string `json:"room"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
}

// UserPayload is the body of userOnline and userOffline.
type UserPayload struct {
	UserID string `json:"userId"`
}

// PresencePayload announces an online/offline transition.
type PresencePayload struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// ErrorPayload reports a rejected inbound event to its sender.
type ErrorPayload struct {
	Event string `json:"event,omitempty"`
	// Room is set when a join was refused.
	Room    string `json:"room,omitempty"`
	Message string `json:"message"`
}

var errEmptyFrame = errors.New("empty frame")

func decodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if len(bytes.TrimSpace(raw)) == 0 {
		return f, errEmptyFrame
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return f, err
	}
	f.Event = strings.TrimSpace(f.Event)
	if f.Event == "" {
		return f, errors.New("missing event name")
	}
	return f, nil
}
