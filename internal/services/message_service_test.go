package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/group"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/message"
	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/user"
	"github.com/mohanraja088/simple-chat-app-demo/internal/websocket"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

func TestSendDirect_PersistsThenPublishesToPairRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.store.Users.Create(ctx, &user.User{ID: "bob", Name: "Bob", Username: "bob@example.com", Email: "bob@example.com"}))

	f.publisher.On("PublishToRoom", "alice_bob", websocket.EventReceiveMessage, mock.AnythingOfType("message.EnrichedDirect")).Return(nil).Once()

	res, err := f.messages.SendDirect(ctx, SendDirectInput{SenderID: "bob", ReceiverID: "alice", Text: "hi", ClientMessageID: "c-1"})
	require.NoError(t, err)
	require.NotNil(t, res.Direct)
	assert.Nil(t, res.Group)
	assert.NotEmpty(t, res.Direct.ID)
	assert.Equal(t, "Bob", res.Direct.SenderName)
	require.NotNil(t, res.Direct.ClientMessageID)
	assert.Equal(t, "c-1", *res.Direct.ClientMessageID)

	stored, err := f.store.Messages.GetDirectMessagesBetween(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, res.Direct.ID, stored[0].ID)
	f.publisher.AssertExpectations(t)
}

func TestSendDirect_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.messages.SendDirect(ctx, SendDirectInput{ReceiverID: "b", Text: "x"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = f.messages.SendDirect(ctx, SendDirectInput{SenderID: "a", Text: "x"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = f.messages.SendDirect(ctx, SendDirectInput{SenderID: "a", ReceiverID: "b", FileID: "nope"})
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)

	f.publisher.AssertNotCalled(t, "PublishToRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendDirect_WithFileIsEnriched(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.store.Files.CreateFileRecord(ctx, &file.File{ID: "f1", Filename: "1_2.png", OriginalName: "cat.png", UploadedBy: "a", UploadedAt: time.Now()}))
	f.publisher.On("PublishToRoom", "a_b", websocket.EventReceiveMessage, mock.Anything).Return(nil)

	res, err := f.messages.SendDirect(ctx, SendDirectInput{SenderID: "a", ReceiverID: "b", FileID: "f1"})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1_2.png", res.Direct.FileURL)
	assert.Equal(t, "cat.png", res.Direct.FileName)
}

func TestSendDirect_GroupOnlyIsDelegated(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.store.Groups.CreateGroup(ctx, &group.Group{ID: "g1", Name: "team", Members: []string{"a"}, CreatedAt: time.Now()}))
	f.publisher.On("PublishToRoom", "g1", websocket.EventNewGroupMessage, mock.AnythingOfType("message.EnrichedGroup")).Return(nil).Once()

	res, err := f.messages.SendDirect(ctx, SendDirectInput{SenderID: "a", GroupID: "g1", Text: "hello team"})
	require.NoError(t, err)
	assert.Nil(t, res.Direct)
	require.NotNil(t, res.Group)
	assert.Equal(t, "g1", res.Group.GroupID)
	assert.Equal(t, "a", res.Group.From)
	f.publisher.AssertExpectations(t)
}

func TestSendDirect_PublishFailureStillReturnsMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.publisher.On("PublishToRoom", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	res, err := f.messages.SendDirect(ctx, SendDirectInput{SenderID: "a", ReceiverID: "b", Text: "x"})
	require.NoError(t, err)
	require.NotNil(t, res.Direct)
}

func TestPrivateHistory_OrderedBothDirections(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.publisher.On("PublishToRoom", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	for i, in := range []SendDirectInput{
		{SenderID: "a", ReceiverID: "b", Text: "1"},
		{SenderID: "b", ReceiverID: "a", Text: "2"},
		{SenderID: "a", ReceiverID: "c", Text: "other"},
		{SenderID: "a", ReceiverID: "b", Text: "3"},
	} {
		_, err := f.messages.SendDirect(ctx, in)
		require.NoError(t, err, "send %d", i)
	}

	history, err := f.messages.PrivateHistory(ctx, "b", "a")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{history[0].Text, history[1].Text, history[2].Text})
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))

	empty, err := f.messages.PrivateHistory(ctx, "x", "y")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPrivateHistory_StorageFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.store.Messages = brokenMessages{f.store.Messages}
	svc := NewMessageService(f.store, f.groups, f.enricher, f.publisher, nil)

	history, err := svc.PrivateHistory(ctx, "a", "b")
	assert.Nil(t, history)
	assert.ErrorIs(t, err, chaterrors.ErrHistoryUnavailable)
	assert.Equal(t, "HISTORY_UNAVAILABLE", ErrorCode(err))
	assert.Equal(t, 500, HTTPStatus(err))
}

func TestEnricher_MissingFileLeavesAttachmentEmpty(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	missing := "gone"
	out, err := f.enricher.Direct(ctx, []message.DirectMessage{{ID: "m1", SenderID: "a", ReceiverID: "b", FileID: &missing}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].FileURL)
	assert.Empty(t, out[0].FileName)
}
