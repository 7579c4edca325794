package chatclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/timeline"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
	chatws "github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
)

// Chat is one open conversation: its timeline fed by history and live
// events. While a chat is open its messages are not counted as unread on
// the connection.
type Chat struct {
	Timeline *timeline.Timeline

	client  *Client
	conn    *Conn
	self    string
	peer    string
	groupID string
}

// OpenPrivate joins the private room of self and peer, then loads the
// history. Live messages that arrive during the load are buffered by the
// timeline and merged once it lands.
func (c *Client) OpenPrivate(ctx context.Context, conn *Conn, self, peer string) (*Chat, error) {
	chat := &Chat{Timeline: timeline.New(), client: c, conn: conn, self: self, peer: peer}
	conn.openChat(chat.unreadKey())

	conn.On(chatws.EventReceiveMessage, func(data json.RawMessage) {
		var m message.EnrichedDirect
		if err := json.Unmarshal(data, &m); err != nil {
			return
		}
		if (m.SenderID == self && m.ReceiverID == peer) || (m.SenderID == peer && m.ReceiverID == self) {
			chat.Timeline.Add(timeline.FromDirect(m))
		}
	})
	if err := conn.JoinPrivate(ctx, self, peer); err != nil {
		chat.Close()
		return nil, err
	}

	chat.reload(ctx)
	return chat, nil
}

// OpenGroup is the group equivalent of OpenPrivate.
func (c *Client) OpenGroup(ctx context.Context, conn *Conn, self, groupID string) (*Chat, error) {
	chat := &Chat{Timeline: timeline.New(), client: c, conn: conn, self: self, groupID: groupID}
	conn.openChat(chat.unreadKey())

	conn.On(chatws.EventNewGroupMessage, func(data json.RawMessage) {
		var m message.EnrichedGroup
		if err := json.Unmarshal(data, &m); err != nil {
			return
		}
		if m.GroupID == groupID {
			chat.Timeline.Add(timeline.FromGroup(m))
		}
	})
	if err := conn.JoinGroup(ctx, groupID); err != nil {
		chat.Close()
		return nil, err
	}

	chat.reload(ctx)
	return chat, nil
}

// Close stops treating the chat as open; later messages count as unread.
// The room stays joined.
func (ch *Chat) Close() {
	ch.conn.closeChat(ch.unreadKey())
}

// unreadKey is the peer id of a private chat or the group id.
func (ch *Chat) unreadKey() string {
	if ch.groupID != "" {
		return ch.groupID
	}
	return ch.peer
}

// Reload fetches the history again, typically after a failed load. Local
// sends that are not persisted yet are kept.
func (ch *Chat) Reload(ctx context.Context) {
	ch.Timeline.Reload()
	ch.reload(ctx)
}

func (ch *Chat) reload(ctx context.Context) {
	var entries []timeline.Entry
	if ch.groupID != "" {
		msgs, err := ch.client.GroupHistory(ctx, ch.groupID)
		if err != nil {
			ch.Timeline.FailHistory()
			return
		}
		for _, m := range msgs {
			entries = append(entries, timeline.FromGroup(m))
		}
	} else {
		msgs, err := ch.client.PrivateHistory(ctx, ch.self, ch.peer)
		if err != nil {
			ch.Timeline.FailHistory()
			return
		}
		for _, m := range msgs {
			entries = append(entries, timeline.FromDirect(m))
		}
	}
	ch.Timeline.LoadHistory(entries)
}

// Send renders text optimistically, persists it and swaps in the stored
// copy. A failed send leaves the entry marked failed.
func (ch *Chat) Send(ctx context.Context, text, fileID string) (timeline.Entry, error) {
	clientID := uuid.NewString()
	ch.Timeline.AddOptimistic(clientID, ch.self, text, time.Now())

	var stored timeline.Entry
	if ch.groupID != "" {
		m, err := ch.client.PostGroupMessage(ctx, ch.groupID, httpdto.PostGroupMessageRequest{
			From:            ch.self,
			Text:            text,
			FileID:          fileID,
			ClientMessageID: clientID,
		})
		if err != nil {
			ch.Timeline.MarkFailed(clientID)
			return timeline.Entry{}, err
		}
		stored = timeline.FromGroup(m)
	} else {
		m, err := ch.client.SendDirect(ctx, httpdto.SendMessageRequest{
			SenderID:        ch.self,
			ReceiverID:      ch.peer,
			Text:            text,
			FileID:          fileID,
			ClientMessageID: clientID,
		})
		if err != nil {
			ch.Timeline.MarkFailed(clientID)
			return timeline.Entry{}, err
		}
		stored = timeline.FromDirect(m)
	}
	ch.Timeline.Add(stored)
	return stored, nil
}
