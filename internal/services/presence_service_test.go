package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
)

type mockMirror struct {
	mock.Mock
}

func (m *mockMirror) SetOnline(ctx context.Context, userID string) error {
	return m.Called(userID).Error(0)
}

func (m *mockMirror) SetOffline(ctx context.Context, userID string) error {
	return m.Called(userID).Error(0)
}

func TestPresence_OnlineWhileAnySourceActive(t *testing.T) {
	ctx := context.Background()
	pub := new(mockPublisher)
	mirror := new(mockMirror)
	svc := NewPresenceService(pub, mirror, nil)

	pub.On("Broadcast", websocket.EventPresence, websocket.PresencePayload{UserID: "u1", Online: true}).Return(nil).Once()
	pub.On("Broadcast", websocket.EventPresence, websocket.PresencePayload{UserID: "u1", Online: false}).Return(nil).Once()
	mirror.On("SetOnline", "u1").Return(nil).Once()
	mirror.On("SetOffline", "u1").Return(nil).Once()

	svc.Online(ctx, "u1", "c1")
	svc.Online(ctx, "u1", "c2")
	svc.Online(ctx, "u1", "c2")
	assert.True(t, svc.IsOnline("u1"))
	assert.Equal(t, []string{"u1"}, svc.OnlineUsers())

	svc.Disconnected(ctx, "c1")
	assert.True(t, svc.IsOnline("u1"))

	svc.Offline(ctx, "u1", "c2")
	assert.False(t, svc.IsOnline("u1"))
	assert.Empty(t, svc.OnlineUsers())

	pub.AssertExpectations(t)
	mirror.AssertExpectations(t)
}

func TestPresence_DisconnectClearsExplicitSignals(t *testing.T) {
	ctx := context.Background()
	pub := new(mockPublisher)
	pub.On("Broadcast", websocket.EventPresence, mock.Anything).Return(nil)
	svc := NewPresenceService(pub, nil, nil)

	svc.Online(ctx, "u1", "c1")
	svc.Online(ctx, "u2", "c1")
	assert.Equal(t, []string{"u1", "u2"}, svc.OnlineUsers())

	svc.Disconnected(ctx, "c1")
	assert.Empty(t, svc.OnlineUsers())
	pub.AssertNumberOfCalls(t, "Broadcast", 4)
}

func TestPresence_IgnoresUnknownSources(t *testing.T) {
	pub := new(mockPublisher)
	svc := NewPresenceService(pub, nil, nil)

	svc.Offline(context.Background(), "u1", "c1")
	svc.Disconnected(context.Background(), "c9")
	svc.Online(context.Background(), "", "c1")

	pub.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}
