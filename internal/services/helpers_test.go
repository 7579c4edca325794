package services

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/memory"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishToRoom(room, event string, data interface{}) error {
	args := m.Called(room, event, data)
	return args.Error(0)
}

func (m *mockPublisher) Broadcast(event string, data interface{}) error {
	args := m.Called(event, data)
	return args.Error(0)
}

func (m *mockPublisher) BroadcastExceptUser(userID, event string, data interface{}) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

// brokenMessages fails every read so history paths can be exercised.
type brokenMessages struct {
	repository.MessageRepository
}

var errStoreDown = errors.New("connection refused")

func (brokenMessages) GetDirectMessagesBetween(context.Context, string, string) ([]message.DirectMessage, error) {
	return nil, errStoreDown
}

func (brokenMessages) GetGroupMessages(context.Context, string) ([]message.GroupMessage, error) {
	return nil, errStoreDown
}

type fixture struct {
	store     repository.Store
	publisher *mockPublisher
	enricher  *Enricher
	groups    *GroupService
	messages  *MessageService
}

func newFixture() *fixture {
	store := memory.New().Gateway()
	pub := new(mockPublisher)
	enricher := NewEnricher(store.Files, store.Users, nil)
	groups := NewGroupService(store, enricher, pub, nil)
	messages := NewMessageService(store, groups, enricher, pub, nil)

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	groups.now = tick
	messages.now = tick

	return &fixture{store: store, publisher: pub, enricher: enricher, groups: groups, messages: messages}
}
