package services

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

// PresenceMirror receives every online/offline transition. The Redis
// presence store implements it.
type PresenceMirror interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// PresenceService tracks which users are online. Every live connection is a
// separate source and a user is online while at least one source holds them
// online.
type PresenceService struct {
	mu      sync.Mutex
	sources map[string]map[string]struct{} // userID -> connIDs
	byConn  map[string]map[string]struct{} // connID -> userIDs

	publisher Publisher
	mirror    PresenceMirror
	logger    *logger.Logger
}

func NewPresenceService(publisher Publisher, mirror PresenceMirror, log *logger.Logger) *PresenceService {
	if log == nil {
		log = logger.NewNop()
	}
	return &PresenceService{
		sources:   make(map[string]map[string]struct{}),
		byConn:    make(map[string]map[string]struct{}),
		publisher: publisherOrNop(publisher),
		mirror:    mirror,
		logger:    log,
	}
}

var _ websocket.PresenceTracker = (*PresenceService)(nil)

// Online marks userID online through connID.
func (s *PresenceService) Online(ctx context.Context, userID, connID string) {
	if userID == "" || connID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	conns, ok := s.sources[userID]
	if !ok {
		conns = make(map[string]struct{})
		s.sources[userID] = conns
	}
	if _, dup := conns[connID]; dup {
		return
	}
	conns[connID] = struct{}{}
	users, ok := s.byConn[connID]
	if !ok {
		users = make(map[string]struct{})
		s.byConn[connID] = users
	}
	users[userID] = struct{}{}

	if len(conns) == 1 {
		s.transition(ctx, userID, true)
	}
}

// Offline withdraws connID as a source for userID.
func (s *PresenceService) Offline(ctx context.Context, userID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(ctx, userID, connID)
}

// Disconnected withdraws connID from every user it kept online.
func (s *PresenceService) Disconnected(ctx context.Context, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID := range s.byConn[connID] {
		s.remove(ctx, userID, connID)
	}
	delete(s.byConn, connID)
}

// remove must be called with mu held.
func (s *PresenceService) remove(ctx context.Context, userID, connID string) {
	conns, ok := s.sources[userID]
	if !ok {
		return
	}
	if _, ok := conns[connID]; !ok {
		return
	}
	delete(conns, connID)
	if users := s.byConn[connID]; users != nil {
		delete(users, userID)
		if len(users) == 0 {
			delete(s.byConn, connID)
		}
	}
	if len(conns) == 0 {
		delete(s.sources, userID)
		s.transition(ctx, userID, false)
	}
}

func (s *PresenceService) transition(ctx context.Context, userID string, online bool) {
	payload := websocket.PresencePayload{UserID: userID, Online: online}
	if err := s.publisher.Broadcast(websocket.EventPresence, payload); err != nil {
		s.logger.WithContext(ctx).Warn("publish presence failed", zap.String("user_id", userID), zap.Error(err))
	}
	if s.mirror == nil {
		return
	}
	var err error
	if online {
		err = s.mirror.SetOnline(ctx, userID)
	} else {
		err = s.mirror.SetOffline(ctx, userID)
	}
	if err != nil {
		s.logger.WithContext(ctx).Warn("mirror presence failed", zap.String("user_id", userID), zap.Bool("online", online), zap.Error(err))
	}
}

// IsOnline reports whether any source holds userID online.
func (s *PresenceService) IsOnline(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources[userID]) > 0
}

// OnlineUsers returns the ids of the users currently online, sorted.
func (s *PresenceService) OnlineUsers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sources))
	for id := range s.sources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
