package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

func TestGroupCreate_NormalizesAndAnnounces(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.publisher.On("BroadcastExceptUser", "alice", websocket.EventGroupCreated, mock.Anything).Return(nil).Once()

	g, err := f.groups.Create(ctx, CreateGroupInput{
		Name:      " team ",
		Members:   []string{"alice", " bob ", "alice", ""},
		CreatedBy: "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "team", g.Name)
	assert.Equal(t, []string{"alice", "bob"}, g.Members)
	require.NotNil(t, g.CreatedBy)
	assert.Equal(t, "alice", *g.CreatedBy)
	f.publisher.AssertExpectations(t)
}

func TestGroupCreate_WithoutCreatorIsNotAnnounced(t *testing.T) {
	f := newFixture()

	_, err := f.groups.Create(context.Background(), CreateGroupInput{Name: "x", Members: []string{"a"}})
	require.NoError(t, err)
	f.publisher.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "BroadcastExceptUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestGroupCreate_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.groups.Create(context.Background(), CreateGroupInput{Members: []string{"a"}})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = f.groups.Create(context.Background(), CreateGroupInput{Name: "x", Members: []string{" ", ""}})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)
}

func TestGroupCreate_CapsMembers(t *testing.T) {
	f := newFixture()

	members := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
	g, err := f.groups.Create(context.Background(), CreateGroupInput{Name: "big", Members: members})
	require.NoError(t, err)
	assert.Len(t, g.Members, 10)
}

func TestGroupListAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first, err := f.groups.Create(ctx, CreateGroupInput{Name: "first", Members: []string{"a", "b"}})
	require.NoError(t, err)
	second, err := f.groups.Create(ctx, CreateGroupInput{Name: "second", Members: []string{"a"}})
	require.NoError(t, err)

	forA, err := f.groups.ListForMember(ctx, "a")
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, second.ID, forA[0].ID)
	assert.Equal(t, first.ID, forA[1].ID)

	forB, err := f.groups.ListForMember(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, forB, 1)

	require.NoError(t, f.groups.Delete(ctx, first.ID))
	assert.ErrorIs(t, f.groups.Delete(ctx, first.ID), chaterrors.ErrNotFound)
}

func TestGroupPostMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	g, err := f.groups.Create(ctx, CreateGroupInput{Name: "team", Members: []string{"a", "b"}})
	require.NoError(t, err)

	f.publisher.On("PublishToRoom", g.ID, websocket.EventNewGroupMessage, mock.AnythingOfType("message.EnrichedGroup")).Return(nil).Twice()

	_, err = f.groups.PostMessage(ctx, PostGroupMessageInput{GroupID: g.ID, From: "a", Text: "one"})
	require.NoError(t, err)
	_, err = f.groups.PostMessage(ctx, PostGroupMessageInput{GroupID: g.ID, From: "b", Text: "two"})
	require.NoError(t, err)

	history, err := f.groups.History(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "two", history[1].Text)
	f.publisher.AssertExpectations(t)
}

func TestGroupPostMessage_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.groups.PostMessage(ctx, PostGroupMessageInput{GroupID: "g", Text: "x"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = f.groups.PostMessage(ctx, PostGroupMessageInput{GroupID: "g", From: "a"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = f.groups.PostMessage(ctx, PostGroupMessageInput{GroupID: "missing", From: "a", Text: "x"})
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)
}

func TestGroupHistory_StorageFailureIsUnavailable(t *testing.T) {
	f := newFixture()
	f.store.Messages = brokenMessages{f.store.Messages}
	svc := NewGroupService(f.store, f.enricher, f.publisher, nil)

	history, err := svc.History(context.Background(), "g1")
	assert.Nil(t, history)
	assert.ErrorIs(t, err, chaterrors.ErrHistoryUnavailable)
}
