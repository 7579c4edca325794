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

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/rooms"
	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

type GroupService struct {
	store     repository.Store
	enricher  *Enricher
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

func NewGroupService(store repository.Store, enricher *Enricher, publisher Publisher, log *logger.Logger) *GroupService {
	if log == nil {
		log = logger.NewNop()
	}
	return &GroupService{
		store:     store,
		enricher:  enricher,
		publisher: publisherOrNop(publisher),
		logger:    log,
		now:       time.Now,
	}
}

type CreateGroupInput struct {
	Name      string
	Members   []string
	CreatedBy string
}

type PostGroupMessageInput struct {
	GroupID         string
	From            string
	Text            string
	FileID          string
	ClientMessageID string
}

// Create stores a group and, when it has a creator, announces it to every
// connection except those of the creator.
func (s *GroupService) Create(ctx context.Context, in CreateGroupInput) (group.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return group.Group{}, invalid("name and members[] required")
	}
	members := group.NormalizeMembers(in.Members)
	if len(members) == 0 {
		return group.Group{}, invalid("at least 1 member required")
	}

	g := group.Group{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   members,
		CreatedBy: optional(strings.TrimSpace(in.CreatedBy)),
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Groups.CreateGroup(ctx, &g); err != nil {
		return group.Group{}, err
	}

	// Without a creator the sending socket cannot be excluded here; the
	// client's own group-created relay announces it instead.
	if g.CreatedBy == nil {
		return g, nil
	}
	if err := s.publisher.BroadcastExceptUser(*g.CreatedBy, websocket.EventGroupCreated, g); err != nil {
		s.logger.WithContext(ctx).Warn("publish group created failed", zap.String("group_id", g.ID), zap.Error(err))
	}
	return g, nil
}

// ListForMember returns the groups listing member, newest first. An empty
// member lists every group.
func (s *GroupService) ListForMember(ctx context.Context, member string) ([]group.Group, error) {
	return s.store.Groups.FindGroupsForMember(ctx, strings.TrimSpace(member))
}

func (s *GroupService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return invalid("id required")
	}
	return s.store.Groups.DeleteGroup(ctx, id)
}

// PostMessage persists a group message and fans it out to the group room.
func (s *GroupService) PostMessage(ctx context.Context, in PostGroupMessageInput) (message.EnrichedGroup, error) {
	ctx, span := startSpan(ctx, "GroupService.PostMessage")
	defer span.End()

	in.GroupID = strings.TrimSpace(in.GroupID)
	in.From = strings.TrimSpace(in.From)
	in.FileID = strings.TrimSpace(in.FileID)
	if in.GroupID == "" || in.From == "" {
		return message.EnrichedGroup{}, invalid("id,from required")
	}
	if in.Text == "" && in.FileID == "" {
		return message.EnrichedGroup{}, invalid("text or fileId required")
	}

	if _, err := s.store.Groups.GetGroupByID(ctx, in.GroupID); err != nil {
		if errors.Is(err, chaterrors.ErrNotFound) {
			return message.EnrichedGroup{}, fmt.Errorf("group %s: %w", in.GroupID, chaterrors.ErrNotFound)
		}
		return message.EnrichedGroup{}, err
	}
	if in.FileID != "" {
		if _, err := s.store.Files.GetFileByID(ctx, in.FileID); err != nil {
			if errors.Is(err, chaterrors.ErrNotFound) {
				return message.EnrichedGroup{}, fmt.Errorf("file %s: %w", in.FileID, chaterrors.ErrNotFound)
			}
			return message.EnrichedGroup{}, err
		}
	}

	msg := message.GroupMessage{
		ID:              uuid.NewString(),
		GroupID:         in.GroupID,
		From:            in.From,
		Text:            in.Text,
		FileID:          optional(in.FileID),
		ClientMessageID: optional(strings.TrimSpace(in.ClientMessageID)),
		Time:            s.now().UTC(),
	}
	if err := s.store.Messages.CreateGroupMessage(ctx, &msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return message.EnrichedGroup{}, err
	}

	enriched, err := s.enricher.Group(ctx, []message.GroupMessage{msg})
	if err != nil {
		s.logger.WithContext(ctx).Warn("enrich group message failed", zap.String("message_id", msg.ID), zap.Error(err))
		enriched = []message.EnrichedGroup{{GroupMessage: msg}}
	}
	out := enriched[0]

	room := rooms.GroupRoomID(msg.GroupID)
	span.SetAttributes(attribute.String("chat.room", room))
	if err := s.publisher.PublishToRoom(room, websocket.EventNewGroupMessage, out); err != nil {
		s.logger.WithContext(ctx).Warn("publish group message failed", zap.String("room", room), zap.Error(err))
	}
	return out, nil
}

// History returns the messages of a group, oldest first. Storage failures
// surface as ErrHistoryUnavailable.
func (s *GroupService) History(ctx context.Context, groupID string) ([]message.EnrichedGroup, error) {
	ctx, span := startSpan(ctx, "GroupService.History", attribute.String("chat.group", groupID))
	defer span.End()

	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, invalid("id required")
	}

	msgs, err := s.store.Messages.GetGroupMessages(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return nil, fmt.Errorf("%w: %v", chaterrors.ErrHistoryUnavailable, err)
	}
	enriched, err := s.enricher.Group(ctx, msgs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "history unavailable")
		return nil, fmt.Errorf("%w: %v", chaterrors.ErrHistoryUnavailable, err)
	}
	span.SetAttributes(attribute.Int("chat.history.count", len(enriched)))
	return enriched, nil
}
