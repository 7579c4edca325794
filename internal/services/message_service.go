package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/rooms"
	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

type MessageService struct {
	store     repository.Store
	groups    *GroupService
	enricher  *Enricher
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

func NewMessageService(store repository.Store, groups *GroupService, enricher *Enricher, publisher Publisher, log *logger.Logger) *MessageService {
	if log == nil {
		log = logger.NewNop()
	}
	return &MessageService{
		store:     store,
		groups:    groups,
		enricher:  enricher,
		publisher: publisherOrNop(publisher),
		logger:    log,
		now:       time.Now,
	}
}

type SendDirectInput struct {
	SenderID        string
	ReceiverID      string
	GroupID         string
	Text            string
	FileID          string
	ClientMessageID string
}

// SendResult holds the persisted message: Direct for a private send, Group
// when the request only named a group.
type SendResult struct {
	Direct *message.EnrichedDirect
	Group  *message.EnrichedGroup
}

// SendDirect persists a message and fans it out to the private room of the
// sender and receiver. A request naming only a group is posted to that
// group instead.
func (s *MessageService) SendDirect(ctx context.Context, in SendDirectInput) (SendResult, error) {
	ctx, span := startSpan(ctx, "MessageService.SendDirect")
	defer span.End()

	in.SenderID = strings.TrimSpace(in.SenderID)
	in.ReceiverID = strings.TrimSpace(in.ReceiverID)
	in.GroupID = strings.TrimSpace(in.GroupID)
	in.FileID = strings.TrimSpace(in.FileID)

	if in.SenderID == "" {
		return SendResult{}, invalid("senderId required")
	}
	if in.ReceiverID == "" && in.GroupID == "" {
		return SendResult{}, invalid("receiverId or groupId required")
	}

	if in.ReceiverID == "" {
		msg, err := s.groups.PostMessage(ctx, PostGroupMessageInput{
			GroupID:         in.GroupID,
			From:            in.SenderID,
			Text:            in.Text,
			FileID:          in.FileID,
			ClientMessageID: in.ClientMessageID,
		})
		if err != nil {
			return SendResult{}, err
		}
		return SendResult{Group: &msg}, nil
	}

	if in.FileID != "" {
		if _, err := s.store.Files.GetFileByID(ctx, in.FileID); err != nil {
			if errors.Is(err, chaterrors.ErrNotFound) {
				return SendResult{}, fmt.Errorf("file %s: %w", in.FileID, chaterrors.ErrNotFound)
			}
			return SendResult{}, err
		}
	}

	msg := message.DirectMessage{
		ID:              uuid.NewString(),
		SenderID:        in.SenderID,
		ReceiverID:      in.ReceiverID,
		GroupID:         optional(in.GroupID),
		Text:            in.Text,
		FileID:          optional(in.FileID),
		ClientMessageID: optional(strings.TrimSpace(in.ClientMessageID)),
		Timestamp:       s.now().UTC(),
	}
	if err := s.store.Messages.CreateDirectMessage(ctx, &msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return SendResult{}, err
	}

	enriched, err := s.enricher.Direct(ctx, []message.DirectMessage{msg})
	if err != nil {
		// the message is stored; deliver it without attachment details
		s.logger.WithContext(ctx).Warn("enrich direct message failed", zap.String("message_id", msg.ID), zap.Error(err))
		enriched = []message.EnrichedDirect{{DirectMessage: msg}}
	}
	out := enriched[0]

	room := rooms.PrivateRoomID(msg.SenderID, msg.ReceiverID)
	span.SetAttributes(attribute.String("chat.room", room))
	if err := s.publisher.PublishToRoom(room, websocket.EventReceiveMessage, out); err != nil {
		s.logger.WithContext(ctx).Warn("publish direct message failed", zap.String("room", room), zap.Error(err))
	}
	return SendResult{Direct: &out}, nil
}

// PrivateHistory returns the conversation between a and b in either
// direction, oldest first. Storage failures surface as
// ErrHistoryUnavailable, never as a partial or empty list.
func (s *MessageService) PrivateHistory(ctx context.Context, a, b string) ([]message.EnrichedDirect, error) {
	ctx, span := startSpan(ctx, "MessageService.PrivateHistory")
	defer span.End()

	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return nil, invalid("both user ids required")
	}

	msgs, err := s.store.Messages.GetDirectMessagesBetween(ctx, a, b)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return nil, fmt.Errorf("%w: %v", chaterrors.ErrHistoryUnavailable, err)
	}
	enriched, err := s.enricher.Direct(ctx, msgs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return nil, fmt.Errorf("%w: %v", chaterrors.ErrHistoryUnavailable, err)
	}
	span.SetAttributes(attribute.Int("chat.history.count", len(enriched)))
	return enriched, nil
}
